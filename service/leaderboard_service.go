package service

import (
	"context"
	"fmt"

	"tapcoin/config"
	"tapcoin/models"
)

// leaderboardService implements the LeaderboardService interface. It is a
// read-only projection of account balances; results are a snapshot and may
// trail concurrent writes by a moment.
type leaderboardService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(uowFactory UnitOfWorkFactory, cfg *config.Config) LeaderboardService {
	return &leaderboardService{
		uowFactory: uowFactory,
		cfg:        cfg,
	}
}

func (s *leaderboardService) Top(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = s.cfg.LeaderboardSize
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	accounts, err := uow.AccountRepository().TopByCoins(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top accounts: %w", err)
	}

	entries := make([]*models.LeaderboardEntry, 0, len(accounts))
	for i, account := range accounts {
		entries = append(entries, &models.LeaderboardEntry{
			Rank:        i + 1,
			AccountID:   account.ID,
			DisplayName: account.DisplayName,
			Coins:       account.Coins,
			TapPower:    account.TapPower,
		})
	}

	return entries, nil
}
