package repository

import (
	"context"
	"fmt"

	"tapcoin/database"
	"tapcoin/models"

	"github.com/jackc/pgx/v5"
)

// ReferralRepository implements the service.ReferralRepository interface
type ReferralRepository struct {
	q queryable
}

// NewReferralRepository creates a new referral repository
func NewReferralRepository(db *database.DB) *ReferralRepository {
	return &ReferralRepository{q: db.Pool}
}

// newReferralRepositoryWithTx creates a new referral repository with a transaction
func newReferralRepositoryWithTx(tx queryable) *ReferralRepository {
	return &ReferralRepository{q: tx}
}

// Create inserts a referral record. The unique constraint on referred_id is
// the source of truth for at-most-once bonus payment; a violation surfaces
// as ErrAlreadyReferred no matter how the race interleaved.
func (r *ReferralRepository) Create(ctx context.Context, referral *models.Referral) error {
	query := `
		INSERT INTO referrals (referrer_id, referred_id, bonus)
		VALUES ($1, $2, $3)
		RETURNING id, applied_at
	`

	err := r.q.QueryRow(ctx, query,
		referral.ReferrerID,
		referral.ReferredID,
		referral.Bonus,
	).Scan(&referral.ID, &referral.AppliedAt)

	if err != nil {
		if isUniqueViolation(err, "referrals_referred_id_key") {
			return fmt.Errorf("account %d: %w", referral.ReferredID, models.ErrAlreadyReferred)
		}
		return fmt.Errorf("failed to create referral for account %d: %w", referral.ReferredID, mapStoreError(err))
	}

	return nil
}

// GetByReferredID returns the referral record for a referred account, if any
func (r *ReferralRepository) GetByReferredID(ctx context.Context, referredID int64) (*models.Referral, error) {
	query := `
		SELECT id, referrer_id, referred_id, bonus, applied_at
		FROM referrals
		WHERE referred_id = $1
	`

	var referral models.Referral
	err := r.q.QueryRow(ctx, query, referredID).Scan(
		&referral.ID,
		&referral.ReferrerID,
		&referral.ReferredID,
		&referral.Bonus,
		&referral.AppliedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get referral for account %d: %w", referredID, mapStoreError(err))
	}

	return &referral, nil
}

// GetByReferrer returns all referrals credited to a referrer, newest first
func (r *ReferralRepository) GetByReferrer(ctx context.Context, referrerID int64) ([]*models.Referral, error) {
	query := `
		SELECT id, referrer_id, referred_id, bonus, applied_at
		FROM referrals
		WHERE referrer_id = $1
		ORDER BY applied_at DESC
	`

	rows, err := r.q.Query(ctx, query, referrerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrals for referrer %d: %w", referrerID, mapStoreError(err))
	}
	defer rows.Close()

	var referrals []*models.Referral
	for rows.Next() {
		var referral models.Referral
		err := rows.Scan(
			&referral.ID,
			&referral.ReferrerID,
			&referral.ReferredID,
			&referral.Bonus,
			&referral.AppliedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan referral: %w", err)
		}
		referrals = append(referrals, &referral)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate referrals: %w", mapStoreError(err))
	}

	return referrals, nil
}

// CountByReferrer returns how many accounts a referrer has brought in
func (r *ReferralRepository) CountByReferrer(ctx context.Context, referrerID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM referrals WHERE referrer_id = $1`

	var count int64
	if err := r.q.QueryRow(ctx, query, referrerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count referrals for referrer %d: %w", referrerID, mapStoreError(err))
	}

	return count, nil
}
