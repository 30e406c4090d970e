package repository

import (
	"context"
	"fmt"
	"time"

	"tapcoin/database"
	"tapcoin/models"
)

// TapEventRepository implements the service.TapEventRepository interface
type TapEventRepository struct {
	q queryable
}

// NewTapEventRepository creates a new tap event repository
func NewTapEventRepository(db *database.DB) *TapEventRepository {
	return &TapEventRepository{q: db.Pool}
}

// newTapEventRepositoryWithTx creates a new tap event repository with a transaction
func newTapEventRepositoryWithTx(tx queryable) *TapEventRepository {
	return &TapEventRepository{q: tx}
}

// Create appends one accepted tap to the audit log
func (r *TapEventRepository) Create(ctx context.Context, event *models.TapEvent) error {
	query := `
		INSERT INTO tap_events (account_id, tapped_at)
		VALUES ($1, $2)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query, event.AccountID, event.TappedAt).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to record tap event for account %d: %w", event.AccountID, mapStoreError(err))
	}

	return nil
}

// CountByAccountSince returns the number of accepted taps since a given time
func (r *TapEventRepository) CountByAccountSince(ctx context.Context, accountID int64, since time.Time) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM tap_events
		WHERE account_id = $1 AND tapped_at >= $2
	`

	var count int64
	err := r.q.QueryRow(ctx, query, accountID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count taps for account %d: %w", accountID, mapStoreError(err))
	}

	return count, nil
}

// GetRecentByAccount returns the newest taps for an account, newest first
func (r *TapEventRepository) GetRecentByAccount(ctx context.Context, accountID int64, limit int) ([]*models.TapEvent, error) {
	query := `
		SELECT id, account_id, tapped_at
		FROM tap_events
		WHERE account_id = $1
		ORDER BY tapped_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get tap events for account %d: %w", accountID, mapStoreError(err))
	}
	defer rows.Close()

	var events []*models.TapEvent
	for rows.Next() {
		var event models.TapEvent
		if err := rows.Scan(&event.ID, &event.AccountID, &event.TappedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tap event: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tap events: %w", mapStoreError(err))
	}

	return events, nil
}
