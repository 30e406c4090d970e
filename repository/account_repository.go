package repository

import (
	"context"
	"fmt"
	"time"

	"tapcoin/database"
	"tapcoin/models"

	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, display_name, coins, tap_power, tap_count, referral_code, referred_by, last_tap_at, last_daily_claim, created_at, updated_at`

// AccountRepository implements the service.AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID,
		&account.DisplayName,
		&account.Coins,
		&account.TapPower,
		&account.TapCount,
		&account.ReferralCode,
		&account.ReferredBy,
		&account.LastTapAt,
		&account.LastDailyClaim,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByID retrieves an account by its id
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, mapStoreError(err))
	}
	return account, nil
}

// GetByIDForUpdate retrieves an account by id and takes a row lock on it.
// Every economy transition reads its account through this so concurrent
// operations on the same account serialize at the store.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	account, err := scanAccount(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock account %d: %w", id, mapStoreError(err))
	}
	return account, nil
}

// GetByReferralCode resolves a referral code to its owning account
func (r *AccountRepository) GetByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE referral_code = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, code))
	if err != nil {
		return nil, fmt.Errorf("failed to get account by referral code: %w", mapStoreError(err))
	}
	return account, nil
}

// Create inserts a new account row and fills in the generated timestamps
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, display_name, coins, tap_power, referral_code, referred_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING tap_count, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		account.ID,
		account.DisplayName,
		account.Coins,
		account.TapPower,
		account.ReferralCode,
		account.ReferredBy,
	).Scan(&account.TapCount, &account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err, "accounts_pkey") {
			return fmt.Errorf("account %d already exists: %w", account.ID, models.ErrStoreConflict)
		}
		return fmt.Errorf("failed to create account %d: %w", account.ID, mapStoreError(err))
	}

	return nil
}

// RecordTap credits one accepted tap and stamps last_tap_at, returning the
// new balance and tap count
func (r *AccountRepository) RecordTap(ctx context.Context, id int64, earned int64, at time.Time) (int64, int64, error) {
	query := `
		UPDATE accounts
		SET coins = coins + $1, tap_count = tap_count + 1, last_tap_at = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING coins, tap_count
	`

	var newCoins, newTapCount int64
	err := r.q.QueryRow(ctx, query, earned, at, id).Scan(&newCoins, &newTapCount)
	if err == pgx.ErrNoRows {
		return 0, 0, fmt.Errorf("account %d: %w", id, models.ErrAccountNotFound)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to record tap for account %d: %w", id, mapStoreError(err))
	}

	return newCoins, newTapCount, nil
}

// PurchaseUpgrade deducts the cost and increments tap power in one statement.
// The balance guard is part of the statement so two racing purchases can
// never both pass a stale check.
func (r *AccountRepository) PurchaseUpgrade(ctx context.Context, id int64, cost int64) (int64, int64, error) {
	query := `
		UPDATE accounts
		SET coins = coins - $1, tap_power = tap_power + 1, updated_at = NOW()
		WHERE id = $2 AND coins >= $1
		RETURNING coins, tap_power
	`

	var newCoins, newPower int64
	err := r.q.QueryRow(ctx, query, cost, id).Scan(&newCoins, &newPower)
	if err == pgx.ErrNoRows {
		return 0, 0, fmt.Errorf("account %d has less than %d coins: %w", id, cost, models.ErrInsufficientFunds)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to purchase upgrade for account %d: %w", id, mapStoreError(err))
	}

	return newCoins, newPower, nil
}

// ClaimDaily credits the daily reward and stamps last_daily_claim,
// returning the new balance
func (r *AccountRepository) ClaimDaily(ctx context.Context, id int64, reward int64, at time.Time) (int64, error) {
	query := `
		UPDATE accounts
		SET coins = coins + $1, last_daily_claim = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING coins
	`

	var newCoins int64
	err := r.q.QueryRow(ctx, query, reward, at, id).Scan(&newCoins)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("account %d: %w", id, models.ErrAccountNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to claim daily reward for account %d: %w", id, mapStoreError(err))
	}

	return newCoins, nil
}

// AddCoins credits coins to an account, returning the new balance
func (r *AccountRepository) AddCoins(ctx context.Context, id int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET coins = coins + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING coins
	`

	var newCoins int64
	err := r.q.QueryRow(ctx, query, amount, id).Scan(&newCoins)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("account %d: %w", id, models.ErrAccountNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add coins to account %d: %w", id, mapStoreError(err))
	}

	return newCoins, nil
}

// DeductCoins debits coins from an account, failing when the balance would
// go negative, and returns the new balance
func (r *AccountRepository) DeductCoins(ctx context.Context, id int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE accounts
		SET coins = coins - $1, updated_at = NOW()
		WHERE id = $2 AND coins >= $1
		RETURNING coins
	`

	var newCoins int64
	err := r.q.QueryRow(ctx, query, amount, id).Scan(&newCoins)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("account %d has less than %d coins: %w", id, amount, models.ErrInsufficientBalance)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to deduct coins from account %d: %w", id, mapStoreError(err))
	}

	return newCoins, nil
}

// SetReferredBy records the referring account, only if none was set before
func (r *AccountRepository) SetReferredBy(ctx context.Context, id int64, referrerID int64) error {
	query := `
		UPDATE accounts
		SET referred_by = $1, updated_at = NOW()
		WHERE id = $2 AND referred_by IS NULL
	`

	if _, err := r.q.Exec(ctx, query, referrerID, id); err != nil {
		return fmt.Errorf("failed to set referrer for account %d: %w", id, mapStoreError(err))
	}
	return nil
}

// UpdateDisplayName updates the account's display name
func (r *AccountRepository) UpdateDisplayName(ctx context.Context, id int64, displayName string) error {
	query := `
		UPDATE accounts
		SET display_name = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, displayName, id)
	if err != nil {
		return fmt.Errorf("failed to update display name for account %d: %w", id, mapStoreError(err))
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %d: %w", id, models.ErrAccountNotFound)
	}

	return nil
}

// TopByCoins returns the top accounts ordered by balance descending, with
// account id ascending as a deterministic tiebreak
func (r *AccountRepository) TopByCoins(ctx context.Context, limit int) ([]*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		ORDER BY coins DESC, id ASC
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top accounts: %w", mapStoreError(err))
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", mapStoreError(err))
	}

	return accounts, nil
}
