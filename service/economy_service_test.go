package service

import (
	"context"
	"testing"
	"time"

	"tapcoin/config"
	"tapcoin/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func testConfig() *config.Config {
	return &config.Config{
		TapRateInterval:   100 * time.Millisecond,
		DailyRewardAmount: 500,
		MinimumWithdrawal: 50000,
		BaseUpgradeCost:   50,
		ReferralBonus:     1000,
		WithdrawalMethods: []string{"ton", "usdt", "card"},
		LeaderboardSize:   10,
		Environment:       "test",
	}
}

type economyMocks struct {
	factory     *MockUnitOfWorkFactory
	uow         *MockUnitOfWork
	accounts    *MockAccountRepository
	tapEvents   *MockTapEventRepository
	referrals   *MockReferralRepository
	upgrades    *MockUpgradeRepository
	withdrawals *MockWithdrawalRepository
	ledger      *MockLedgerRepository
}

func newEconomyMocks(ctx context.Context) *economyMocks {
	m := &economyMocks{
		factory:     new(MockUnitOfWorkFactory),
		uow:         new(MockUnitOfWork),
		accounts:    new(MockAccountRepository),
		tapEvents:   new(MockTapEventRepository),
		referrals:   new(MockReferralRepository),
		upgrades:    new(MockUpgradeRepository),
		withdrawals: new(MockWithdrawalRepository),
		ledger:      new(MockLedgerRepository),
	}
	m.uow.SetRepositories(m.accounts, m.tapEvents, m.referrals, m.upgrades, m.withdrawals, m.ledger)
	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Commit").Return(nil).Maybe()
	m.uow.On("Rollback").Return(nil)
	return m
}

// newTestEconomyService builds an economy service with a frozen clock and no
// in-process throttle, so only the stored last_tap_at governs rate limiting
func newTestEconomyService(m *economyMocks, now time.Time) *economyService {
	return &economyService{
		uowFactory: m.factory,
		cfg:        testConfig(),
		now:        func() time.Time { return now },
	}
}

func TestEconomyService_Tap(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	m := newEconomyMocks(ctx)
	svc := newTestEconomyService(m, now)

	account := &models.Account{ID: 42, Coins: 0, TapPower: 1}

	m.accounts.On("GetByIDForUpdate", ctx, int64(42)).Return(account, nil)
	m.accounts.On("RecordTap", ctx, int64(42), int64(1), now).Return(int64(1), int64(1), nil)
	m.tapEvents.On("Create", ctx, mock.MatchedBy(func(e *models.TapEvent) bool {
		return e.AccountID == 42 && e.TappedAt.Equal(now)
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.TapEvent).ID = 7
	})
	m.ledger.On("Record", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.AccountID == 42 &&
			e.BalanceBefore == 0 &&
			e.BalanceAfter == 1 &&
			e.ChangeAmount == 1 &&
			e.EntryType == models.EntryTypeTap &&
			*e.RelatedID == 7
	})).Return(nil)

	result, err := svc.Tap(ctx, 42)

	assert.NoError(t, err)
	assert.Equal(t, int64(1), result.Earned)
	assert.Equal(t, int64(1), result.NewBalance)
	assert.Equal(t, int64(1), result.TapCount)

	m.accounts.AssertExpectations(t)
	m.tapEvents.AssertExpectations(t)
	m.ledger.AssertExpectations(t)
}

func TestEconomyService_Tap_RateLimited(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	lastTap := now.Add(-50 * time.Millisecond)

	m := newEconomyMocks(ctx)
	svc := newTestEconomyService(m, now)

	account := &models.Account{ID: 42, Coins: 10, TapPower: 1, LastTapAt: &lastTap}
	m.accounts.On("GetByIDForUpdate", ctx, int64(42)).Return(account, nil)

	result, err := svc.Tap(ctx, 42)

	assert.ErrorIs(t, err, models.ErrRateLimited)
	assert.Nil(t, result)
	m.accounts.AssertNotCalled(t, "RecordTap", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.tapEvents.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEconomyService_Tap_AccountNotFound(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	m := newEconomyMocks(ctx)
	svc := newTestEconomyService(m, now)

	m.accounts.On("GetByIDForUpdate", ctx, int64(99)).Return(nil, nil)

	result, err := svc.Tap(ctx, 99)

	assert.ErrorIs(t, err, models.ErrAccountNotFound)
	assert.Nil(t, result)
}

func TestEconomyService_Tap_ExactIntervalAccepted(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	lastTap := now.Add(-100 * time.Millisecond) // exactly the minimum interval

	m := newEconomyMocks(ctx)
	svc := newTestEconomyService(m, now)

	account := &models.Account{ID: 42, Coins: 5, TapPower: 3, LastTapAt: &lastTap}

	m.accounts.On("GetByIDForUpdate", ctx, int64(42)).Return(account, nil)
	m.accounts.On("RecordTap", ctx, int64(42), int64(3), now).Return(int64(8), int64(6), nil)
	m.tapEvents.On("Create", ctx, mock.Anything).Return(nil)
	m.ledger.On("Record", ctx, mock.Anything).Return(nil)

	result, err := svc.Tap(ctx, 42)

	assert.NoError(t, err)
	assert.Equal(t, int64(3), result.Earned)
	assert.Equal(t, int64(8), result.NewBalance)
}

func TestEconomyService_Upgrade(t *testing.T) {
	ctx := context.Background()

	m := newEconomyMocks(ctx)
	svc := newTestEconomyService(m, time.Now())

	// Power 1 -> 2 with base cost 50 prices at 100
	account := &models.Account{ID: 42, Coins: 100, TapPower: 1}

	m.accounts.On("GetByIDForUpdate", ctx, int64(42)).Return(account, nil)
	m.accounts.On("PurchaseUpgrade", ctx, int64(42), int64(100)).Return(int64(0), int64(2), nil)
	m.upgrades.On("Create", ctx, mock.MatchedBy(func(u *models.Upgrade) bool {
		return u.AccountID == 42 && u.NewPower == 2 && u.CoinsSpent == 100
	})).Return(nil)
	m.ledger.On("Record", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.ChangeAmount == -100 && e.EntryType == models.EntryTypeUpgrade
	})).Return(nil)

	result, err := svc.Upgrade(ctx, 42)

	assert.NoError(t, err)
	assert.Equal(t, int64(2), result.NewPower)
	assert.Equal(t, int64(100), result.CoinsSpent)
	assert.Equal(t, int64(0), result.NewBalance)
	assert.Equal(t, int64(150), result.NextPowerCost)

	m.accounts.AssertExpectations(t)
	m.upgrades.AssertExpectations(t)
}

func TestEconomyService_Upgrade_InsufficientFunds(t *testing.T) {
	ctx := context.Background()

	m := newEconomyMocks(ctx)
	svc := newTestEconomyService(m, time.Now())

	account := &models.Account{ID: 42, Coins: 3, TapPower: 1}
	m.accounts.On("GetByIDForUpdate", ctx, int64(42)).Return(account, nil)

	result, err := svc.Upgrade(ctx, 42)

	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	assert.Nil(t, result)
	m.accounts.AssertNotCalled(t, "PurchaseUpgrade", mock.Anything, mock.Anything, mock.Anything)
	m.upgrades.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEconomyService_ClaimDailyReward(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("never claimed", func(t *testing.T) {
		m := newEconomyMocks(ctx)
		svc := newTestEconomyService(m, now)

		account := &models.Account{ID: 42, Coins: 10, TapPower: 1}
		m.accounts.On("GetByIDForUpdate", ctx, int64(42)).Return(account, nil)
		m.accounts.On("ClaimDaily", ctx, int64(42), int64(500), now).Return(int64(510), nil)
		m.ledger.On("Record", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
			return e.ChangeAmount == 500 && e.EntryType == models.EntryTypeDailyReward
		})).Return(nil)

		result, err := svc.ClaimDailyReward(ctx, 42)

		assert.NoError(t, err)
		assert.Equal(t, int64(500), result.Reward)
		assert.Equal(t, int64(510), result.NewBalance)
	})

	t.Run("claimed within window", func(t *testing.T) {
		m := newEconomyMocks(ctx)
		svc := newTestEconomyService(m, now)

		lastClaim := now.Add(-12 * time.Hour)
		account := &models.Account{ID: 42, Coins: 10, TapPower: 1, LastDailyClaim: &lastClaim}
		m.accounts.On("GetByIDForUpdate", ctx, int64(42)).Return(account, nil)

		result, err := svc.ClaimDailyReward(ctx, 42)

		assert.ErrorIs(t, err, models.ErrAlreadyClaimed)
		assert.Nil(t, result)
		m.accounts.AssertNotCalled(t, "ClaimDaily", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("exactly 24h elapsed", func(t *testing.T) {
		m := newEconomyMocks(ctx)
		svc := newTestEconomyService(m, now)

		lastClaim := now.Add(-24 * time.Hour)
		account := &models.Account{ID: 42, Coins: 10, TapPower: 1, LastDailyClaim: &lastClaim}
		m.accounts.On("GetByIDForUpdate", ctx, int64(42)).Return(account, nil)
		m.accounts.On("ClaimDaily", ctx, int64(42), int64(500), now).Return(int64(510), nil)
		m.ledger.On("Record", ctx, mock.Anything).Return(nil)

		_, err := svc.ClaimDailyReward(ctx, 42)

		assert.NoError(t, err)
	})
}

func TestEconomyService_ApplyReferral(t *testing.T) {
	ctx := context.Background()

	m := newEconomyMocks(ctx)
	svc := newTestEconomyService(m, time.Now())

	referred := &models.Account{ID: 10, Coins: 0, TapPower: 1}
	referrer := &models.Account{ID: 20, Coins: 5000, TapPower: 2}

	// Lower id locks first
	m.accounts.On("GetByIDForUpdate", ctx, int64(10)).Return(referred, nil)
	m.accounts.On("GetByIDForUpdate", ctx, int64(20)).Return(referrer, nil)
	m.referrals.On("GetByReferredID", ctx, int64(10)).Return(nil, nil)
	m.referrals.On("Create", ctx, mock.MatchedBy(func(r *models.Referral) bool {
		return r.ReferrerID == 20 && r.ReferredID == 10 && r.Bonus == 1000
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Referral).ID = 3
	})
	m.accounts.On("SetReferredBy", ctx, int64(10), int64(20)).Return(nil)
	m.accounts.On("AddCoins", ctx, int64(20), int64(1000)).Return(int64(6000), nil)
	m.ledger.On("Record", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.AccountID == 20 &&
			e.ChangeAmount == 1000 &&
			e.EntryType == models.EntryTypeReferralBonus &&
			*e.RelatedID == 3
	})).Return(nil)

	result, err := svc.ApplyReferral(ctx, 10, 20)

	assert.NoError(t, err)
	assert.Equal(t, int64(20), result.ReferrerID)
	assert.Equal(t, int64(1000), result.Bonus)
	assert.Equal(t, int64(6000), result.ReferrerNewBalance)

	m.accounts.AssertExpectations(t)
	m.referrals.AssertExpectations(t)
	m.ledger.AssertExpectations(t)
}

func TestEconomyService_ApplyReferral_SelfReferral(t *testing.T) {
	ctx := context.Background()

	m := newEconomyMocks(ctx)
	svc := newTestEconomyService(m, time.Now())

	result, err := svc.ApplyReferral(ctx, 10, 10)

	assert.ErrorIs(t, err, models.ErrSelfReferral)
	assert.Nil(t, result)
	m.factory.AssertNotCalled(t, "Create")
}

func TestEconomyService_ApplyReferral_AlreadyReferred(t *testing.T) {
	ctx := context.Background()

	m := newEconomyMocks(ctx)
	svc := newTestEconomyService(m, time.Now())

	referred := &models.Account{ID: 10, Coins: 50}
	referrer := &models.Account{ID: 20, Coins: 5000}
	existing := &models.Referral{ID: 1, ReferrerID: 30, ReferredID: 10, Bonus: 1000}

	m.accounts.On("GetByIDForUpdate", ctx, int64(10)).Return(referred, nil)
	m.accounts.On("GetByIDForUpdate", ctx, int64(20)).Return(referrer, nil)
	m.referrals.On("GetByReferredID", ctx, int64(10)).Return(existing, nil)

	result, err := svc.ApplyReferral(ctx, 10, 20)

	assert.ErrorIs(t, err, models.ErrAlreadyReferred)
	assert.Nil(t, result)
	m.referrals.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.accounts.AssertNotCalled(t, "AddCoins", mock.Anything, mock.Anything, mock.Anything)
}

func TestEconomyService_ApplyReferral_ReferrerNotFound(t *testing.T) {
	ctx := context.Background()

	m := newEconomyMocks(ctx)
	svc := newTestEconomyService(m, time.Now())

	referred := &models.Account{ID: 10, Coins: 50}

	m.accounts.On("GetByIDForUpdate", ctx, int64(10)).Return(referred, nil)
	m.accounts.On("GetByIDForUpdate", ctx, int64(20)).Return(nil, nil)

	result, err := svc.ApplyReferral(ctx, 10, 20)

	assert.ErrorIs(t, err, models.ErrReferrerNotFound)
	assert.Nil(t, result)
	// No record and no bonus: the operation fails wholesale
	m.referrals.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.accounts.AssertNotCalled(t, "AddCoins", mock.Anything, mock.Anything, mock.Anything)
}

func TestEconomyService_Withdraw(t *testing.T) {
	ctx := context.Background()

	m := newEconomyMocks(ctx)
	svc := newTestEconomyService(m, time.Now())

	account := &models.Account{ID: 42, Coins: 60000, TapPower: 5}

	m.accounts.On("GetByIDForUpdate", ctx, int64(42)).Return(account, nil)
	m.accounts.On("DeductCoins", ctx, int64(42), int64(55000)).Return(int64(5000), nil)
	m.withdrawals.On("Create", ctx, mock.MatchedBy(func(w *models.Withdrawal) bool {
		return w.AccountID == 42 &&
			w.Method == "ton" &&
			w.Address == "UQabc123" &&
			w.Amount == 55000 &&
			w.Status == models.WithdrawalStatusPending
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Withdrawal).ID = 9
	})
	m.ledger.On("Record", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.ChangeAmount == -55000 && e.EntryType == models.EntryTypeWithdrawal && *e.RelatedID == 9
	})).Return(nil)

	result, err := svc.Withdraw(ctx, 42, "ton", "UQabc123", 55000)

	assert.NoError(t, err)
	assert.Equal(t, int64(9), result.RequestID)
	assert.Equal(t, int64(5000), result.NewBalance)

	m.withdrawals.AssertExpectations(t)
}

func TestEconomyService_Withdraw_Validation(t *testing.T) {
	ctx := context.Background()

	m := newEconomyMocks(ctx)
	svc := newTestEconomyService(m, time.Now())

	t.Run("invalid method", func(t *testing.T) {
		_, err := svc.Withdraw(ctx, 42, "paypal", "addr", 50000)
		assert.ErrorIs(t, err, models.ErrInvalidMethod)
	})

	t.Run("empty address", func(t *testing.T) {
		_, err := svc.Withdraw(ctx, 42, "ton", "   ", 50000)
		assert.ErrorIs(t, err, models.ErrInvalidAddress)
	})

	m.factory.AssertNotCalled(t, "Create")
}

func TestEconomyService_Withdraw_BelowMinimum(t *testing.T) {
	ctx := context.Background()

	m := newEconomyMocks(ctx)
	svc := newTestEconomyService(m, time.Now())

	// Balance covers the amount but not the 50000 withdrawal floor
	account := &models.Account{ID: 42, Coins: 40000}
	m.accounts.On("GetByIDForUpdate", ctx, int64(42)).Return(account, nil)

	result, err := svc.Withdraw(ctx, 42, "usdt", "TRabc", 10000)

	assert.ErrorIs(t, err, models.ErrInsufficientBalance)
	assert.Nil(t, result)
	m.accounts.AssertNotCalled(t, "DeductCoins", mock.Anything, mock.Anything, mock.Anything)
}

func TestEconomyService_CompensateWithdrawal(t *testing.T) {
	ctx := context.Background()

	t.Run("refunds a pending request", func(t *testing.T) {
		m := newEconomyMocks(ctx)
		svc := newTestEconomyService(m, time.Now())

		withdrawal := &models.Withdrawal{
			ID: 9, AccountID: 42, Method: "ton", Address: "UQabc",
			Amount: 55000, Status: models.WithdrawalStatusPending,
		}
		account := &models.Account{ID: 42, Coins: 5000}

		m.withdrawals.On("GetByID", ctx, int64(9)).Return(withdrawal, nil)
		m.accounts.On("GetByIDForUpdate", ctx, int64(42)).Return(account, nil)
		m.withdrawals.On("UpdateStatusIfPending", ctx, int64(9), models.WithdrawalStatusRejected).Return(true, nil)
		m.accounts.On("AddCoins", ctx, int64(42), int64(55000)).Return(int64(60000), nil)
		m.ledger.On("Record", ctx, mock.MatchedBy(func(e *models.LedgerEntry) bool {
			return e.ChangeAmount == 55000 && e.EntryType == models.EntryTypeWithdrawalRefund && *e.RelatedID == 9
		})).Return(nil)

		err := svc.CompensateWithdrawal(ctx, 9)
		assert.NoError(t, err)
		m.ledger.AssertExpectations(t)
	})

	t.Run("no-op for an already rejected request", func(t *testing.T) {
		m := newEconomyMocks(ctx)
		svc := newTestEconomyService(m, time.Now())

		withdrawal := &models.Withdrawal{
			ID: 9, AccountID: 42, Amount: 55000, Status: models.WithdrawalStatusRejected,
		}
		account := &models.Account{ID: 42, Coins: 60000}

		m.withdrawals.On("GetByID", ctx, int64(9)).Return(withdrawal, nil)
		m.accounts.On("GetByIDForUpdate", ctx, int64(42)).Return(account, nil)
		m.withdrawals.On("UpdateStatusIfPending", ctx, int64(9), models.WithdrawalStatusRejected).Return(false, nil)

		err := svc.CompensateWithdrawal(ctx, 9)
		assert.NoError(t, err)
		m.accounts.AssertNotCalled(t, "AddCoins", mock.Anything, mock.Anything, mock.Anything)
		m.ledger.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	})
}
