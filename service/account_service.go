package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tapcoin/config"
	"tapcoin/events"
	"tapcoin/models"

	"github.com/google/uuid"
)

// accountService implements the AccountService interface
type accountService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
	now        func() time.Time
}

// NewAccountService creates a new account service
func NewAccountService(uowFactory UnitOfWorkFactory, cfg *config.Config) AccountService {
	return &accountService{
		uowFactory: uowFactory,
		cfg:        cfg,
		now:        time.Now,
	}
}

// GetOrCreate retrieves an account or lazily provisions it on the first
// authenticated contact. When a new account arrives with a valid referrer
// code, the referral bonus is applied inside the same transaction as the
// account insert, so a crash can never leave an account without its
// referral record.
func (s *accountService) GetOrCreate(ctx context.Context, id int64, displayName, referrerCode string) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	account, err := uow.AccountRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}

	if account != nil {
		// Display names are not economically significant; just keep the
		// latest one the client sent.
		if displayName != "" && displayName != account.DisplayName {
			if err := uow.AccountRepository().UpdateDisplayName(ctx, id, displayName); err != nil {
				return nil, fmt.Errorf("failed to update display name: %w", err)
			}
			account.DisplayName = displayName
			if err := uow.Commit(); err != nil {
				return nil, fmt.Errorf("failed to commit transaction: %w", err)
			}
		}
		return account, nil
	}

	account = &models.Account{
		ID:           id,
		DisplayName:  displayName,
		Coins:        0,
		TapPower:     1,
		ReferralCode: generateReferralCode(),
	}
	if err := uow.AccountRepository().Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	uow.EventBus().Publish(events.AccountCreatedEvent{
		AccountID:    account.ID,
		DisplayName:  account.DisplayName,
		ReferralCode: account.ReferralCode,
	})

	if referrerCode = strings.TrimSpace(referrerCode); referrerCode != "" {
		referrer, err := uow.AccountRepository().GetByReferralCode(ctx, referrerCode)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve referrer code: %w", err)
		}
		if referrer == nil {
			return nil, fmt.Errorf("code %q: %w", referrerCode, models.ErrReferrerNotFound)
		}
		if referrer.ID == id {
			return nil, fmt.Errorf("account %d: %w", id, models.ErrSelfReferral)
		}

		result, err := applyReferral(ctx, uow, id, referrer.ID, s.cfg.ReferralBonus)
		if err != nil {
			return nil, fmt.Errorf("failed to apply referral: %w", err)
		}
		account.ReferredBy = &result.ReferrerID
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return account, nil
}

// GetProfile returns the account read model for the presentation layer
func (s *accountService) GetProfile(ctx context.Context, id int64) (*models.AccountProfile, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", id, models.ErrAccountNotFound)
	}

	return &models.AccountProfile{
		Account:         account,
		NextUpgradeCost: account.NextUpgradeCost(s.cfg.BaseUpgradeCost),
		DailyAvailable:  account.CanClaimDaily(s.now()),
	}, nil
}

// generateReferralCode returns a fresh opaque referral token. Uniqueness is
// enforced by the accounts.referral_code constraint.
func generateReferralCode() string {
	return "ref_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
