package repository

import (
	"context"
	"fmt"

	"tapcoin/database"
	"tapcoin/models"

	"github.com/jackc/pgx/v5"
)

// WithdrawalRepository implements the service.WithdrawalRepository interface
type WithdrawalRepository struct {
	q queryable
}

// NewWithdrawalRepository creates a new withdrawal repository
func NewWithdrawalRepository(db *database.DB) *WithdrawalRepository {
	return &WithdrawalRepository{q: db.Pool}
}

// newWithdrawalRepositoryWithTx creates a new withdrawal repository with a transaction
func newWithdrawalRepositoryWithTx(tx queryable) *WithdrawalRepository {
	return &WithdrawalRepository{q: tx}
}

// Create enqueues a withdrawal request in pending state
func (r *WithdrawalRepository) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	query := `
		INSERT INTO withdrawals (account_id, method, address, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, requested_at
	`

	err := r.q.QueryRow(ctx, query,
		withdrawal.AccountID,
		withdrawal.Method,
		withdrawal.Address,
		withdrawal.Amount,
		withdrawal.Status,
	).Scan(&withdrawal.ID, &withdrawal.RequestedAt)

	if err != nil {
		return fmt.Errorf("failed to create withdrawal for account %d: %w", withdrawal.AccountID, mapStoreError(err))
	}

	return nil
}

// GetByID retrieves a withdrawal request by id
func (r *WithdrawalRepository) GetByID(ctx context.Context, id int64) (*models.Withdrawal, error) {
	query := `
		SELECT id, account_id, method, address, amount, status, requested_at
		FROM withdrawals
		WHERE id = $1
	`

	var withdrawal models.Withdrawal
	err := r.q.QueryRow(ctx, query, id).Scan(
		&withdrawal.ID,
		&withdrawal.AccountID,
		&withdrawal.Method,
		&withdrawal.Address,
		&withdrawal.Amount,
		&withdrawal.Status,
		&withdrawal.RequestedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal %d: %w", id, mapStoreError(err))
	}

	return &withdrawal, nil
}

// UpdateStatusIfPending moves a pending request to a new status. It reports
// whether the transition happened; false means the request was already in a
// terminal state (or does not exist), which is how refunds stay idempotent
// per request id.
func (r *WithdrawalRepository) UpdateStatusIfPending(ctx context.Context, id int64, status models.WithdrawalStatus) (bool, error) {
	query := `
		UPDATE withdrawals
		SET status = $1
		WHERE id = $2 AND status = $3
	`

	result, err := r.q.Exec(ctx, query, status, id, models.WithdrawalStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to update withdrawal %d status: %w", id, mapStoreError(err))
	}

	return result.RowsAffected() > 0, nil
}

// GetByAccount returns an account's withdrawal history, newest first
func (r *WithdrawalRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Withdrawal, error) {
	query := `
		SELECT id, account_id, method, address, amount, status, requested_at
		FROM withdrawals
		WHERE account_id = $1
		ORDER BY requested_at DESC
		LIMIT $2
	`

	return r.queryWithdrawals(ctx, query, accountID, limit)
}

// GetPending returns all withdrawal requests awaiting operator review,
// oldest first
func (r *WithdrawalRepository) GetPending(ctx context.Context, limit int) ([]*models.Withdrawal, error) {
	query := `
		SELECT id, account_id, method, address, amount, status, requested_at
		FROM withdrawals
		WHERE status = $1
		ORDER BY requested_at ASC
		LIMIT $2
	`

	return r.queryWithdrawals(ctx, query, models.WithdrawalStatusPending, limit)
}

func (r *WithdrawalRepository) queryWithdrawals(ctx context.Context, query string, args ...any) ([]*models.Withdrawal, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawals: %w", mapStoreError(err))
	}
	defer rows.Close()

	var withdrawals []*models.Withdrawal
	for rows.Next() {
		var withdrawal models.Withdrawal
		err := rows.Scan(
			&withdrawal.ID,
			&withdrawal.AccountID,
			&withdrawal.Method,
			&withdrawal.Address,
			&withdrawal.Amount,
			&withdrawal.Status,
			&withdrawal.RequestedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		withdrawals = append(withdrawals, &withdrawal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate withdrawals: %w", mapStoreError(err))
	}

	return withdrawals, nil
}
