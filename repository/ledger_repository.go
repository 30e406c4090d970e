package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"tapcoin/database"
	"tapcoin/models"
)

// LedgerRepository implements the service.LedgerRepository interface
type LedgerRepository struct {
	q queryable
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{q: db.Pool}
}

// newLedgerRepositoryWithTx creates a new ledger repository with a transaction
func newLedgerRepositoryWithTx(tx queryable) *LedgerRepository {
	return &LedgerRepository{q: tx}
}

// Record appends one signed balance delta to the ledger
func (r *LedgerRepository) Record(ctx context.Context, entry *models.LedgerEntry) error {
	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger metadata: %w", err)
	}

	query := `
		INSERT INTO ledger_entries
		(account_id, balance_before, balance_after, change_amount, entry_type, metadata, related_id, related_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		entry.AccountID,
		entry.BalanceBefore,
		entry.BalanceAfter,
		entry.ChangeAmount,
		entry.EntryType,
		metadataJSON,
		entry.RelatedID,
		entry.RelatedType,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		if isUniqueViolation(err, "idx_ledger_entries_refund_once") {
			return fmt.Errorf("withdrawal already refunded: %w", models.ErrStoreConflict)
		}
		return fmt.Errorf("failed to record ledger entry for account %d: %w", entry.AccountID, mapStoreError(err))
	}

	return nil
}

// GetByAccount returns an account's ledger history, newest first
func (r *LedgerRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.LedgerEntry, error) {
	query := `
		SELECT id, account_id, balance_before, balance_after, change_amount,
		       entry_type, metadata, related_id, related_type, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries for account %d: %w", accountID, mapStoreError(err))
	}
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		var entry models.LedgerEntry
		var metadataJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&entry.BalanceBefore,
			&entry.BalanceAfter,
			&entry.ChangeAmount,
			&entry.EntryType,
			&metadataJSON,
			&entry.RelatedID,
			&entry.RelatedType,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal ledger metadata: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", mapStoreError(err))
	}

	return entries, nil
}

// HasRefund reports whether a compensating credit was already recorded for
// the given withdrawal request
func (r *LedgerRepository) HasRefund(ctx context.Context, withdrawalID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM ledger_entries
			WHERE entry_type = $1 AND related_id = $2
		)
	`

	var exists bool
	err := r.q.QueryRow(ctx, query, models.EntryTypeWithdrawalRefund, withdrawalID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check refund for withdrawal %d: %w", withdrawalID, mapStoreError(err))
	}

	return exists, nil
}
