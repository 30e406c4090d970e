package repository

import (
	"context"
	"fmt"

	"tapcoin/database"
	"tapcoin/models"
)

// UpgradeRepository implements the service.UpgradeRepository interface
type UpgradeRepository struct {
	q queryable
}

// NewUpgradeRepository creates a new upgrade repository
func NewUpgradeRepository(db *database.DB) *UpgradeRepository {
	return &UpgradeRepository{q: db.Pool}
}

// newUpgradeRepositoryWithTx creates a new upgrade repository with a transaction
func newUpgradeRepositoryWithTx(tx queryable) *UpgradeRepository {
	return &UpgradeRepository{q: tx}
}

// Create appends one purchase to the upgrade audit log
func (r *UpgradeRepository) Create(ctx context.Context, upgrade *models.Upgrade) error {
	query := `
		INSERT INTO upgrades (account_id, new_power, coins_spent)
		VALUES ($1, $2, $3)
		RETURNING id, purchased_at
	`

	err := r.q.QueryRow(ctx, query,
		upgrade.AccountID,
		upgrade.NewPower,
		upgrade.CoinsSpent,
	).Scan(&upgrade.ID, &upgrade.PurchasedAt)

	if err != nil {
		return fmt.Errorf("failed to record upgrade for account %d: %w", upgrade.AccountID, mapStoreError(err))
	}

	return nil
}

// GetByAccount returns an account's upgrade history, newest first
func (r *UpgradeRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Upgrade, error) {
	query := `
		SELECT id, account_id, new_power, coins_spent, purchased_at
		FROM upgrades
		WHERE account_id = $1
		ORDER BY purchased_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get upgrades for account %d: %w", accountID, mapStoreError(err))
	}
	defer rows.Close()

	var upgrades []*models.Upgrade
	for rows.Next() {
		var upgrade models.Upgrade
		err := rows.Scan(
			&upgrade.ID,
			&upgrade.AccountID,
			&upgrade.NewPower,
			&upgrade.CoinsSpent,
			&upgrade.PurchasedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upgrade: %w", err)
		}
		upgrades = append(upgrades, &upgrade)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate upgrades: %w", mapStoreError(err))
	}

	return upgrades, nil
}
