package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tapcoin/config"
	"tapcoin/events"
	"tapcoin/models"
)

// economyService implements the EconomyService interface. Each operation is
// one unit of work: the account row is locked first, preconditions are
// checked against the locked state, and the mutation plus its audit records
// commit together.
type economyService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
	throttle   *tapThrottle
	now        func() time.Time
}

// NewEconomyService creates a new economy service
func NewEconomyService(uowFactory UnitOfWorkFactory, cfg *config.Config) EconomyService {
	return &economyService{
		uowFactory: uowFactory,
		cfg:        cfg,
		throttle:   newTapThrottle(cfg.TapRateInterval),
		now:        time.Now,
	}
}

func (s *economyService) Tap(ctx context.Context, accountID int64) (*models.TapResult, error) {
	// Shed floods before paying for a transaction. The stored last_tap_at
	// check below is the authoritative one.
	if s.throttle != nil && !s.throttle.Allow(accountID) {
		return nil, fmt.Errorf("account %d: %w", accountID, models.ErrRateLimited)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	account, err := uow.AccountRepository().GetByIDForUpdate(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, models.ErrAccountNotFound)
	}

	now := s.now()
	if !AllowTap(account.LastTapAt, now, s.cfg.TapRateInterval) {
		return nil, fmt.Errorf("account %d: %w", accountID, models.ErrRateLimited)
	}

	earned := account.TapPower
	newBalance, newTapCount, err := uow.AccountRepository().RecordTap(ctx, accountID, earned, now)
	if err != nil {
		return nil, fmt.Errorf("failed to record tap: %w", err)
	}

	tapEvent := &models.TapEvent{
		AccountID: accountID,
		TappedAt:  now,
	}
	if err := uow.TapEventRepository().Create(ctx, tapEvent); err != nil {
		return nil, fmt.Errorf("failed to create tap event: %w", err)
	}

	relatedType := models.RelatedTypeTapEvent
	entry := &models.LedgerEntry{
		AccountID:     accountID,
		BalanceBefore: account.Coins,
		BalanceAfter:  newBalance,
		ChangeAmount:  earned,
		EntryType:     models.EntryTypeTap,
		Metadata: map[string]any{
			"tap_power": earned,
		},
		RelatedID:   &tapEvent.ID,
		RelatedType: &relatedType,
	}
	if err := RecordBalanceChange(ctx, uow, entry); err != nil {
		return nil, fmt.Errorf("failed to record balance change: %w", err)
	}

	uow.EventBus().Publish(events.TapAcceptedEvent{
		AccountID: accountID,
		Earned:    earned,
		TapCount:  newTapCount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.TapResult{
		Earned:     earned,
		NewBalance: newBalance,
		TapCount:   newTapCount,
	}, nil
}

func (s *economyService) Upgrade(ctx context.Context, accountID int64) (*models.UpgradeResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByIDForUpdate(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, models.ErrAccountNotFound)
	}

	// Cost of the resulting power level; the curve escalates every purchase
	cost := account.NextUpgradeCost(s.cfg.BaseUpgradeCost)
	if account.Coins < cost {
		return nil, fmt.Errorf("upgrade costs %d, have %d: %w", cost, account.Coins, models.ErrInsufficientFunds)
	}

	newBalance, newPower, err := uow.AccountRepository().PurchaseUpgrade(ctx, accountID, cost)
	if err != nil {
		return nil, fmt.Errorf("failed to purchase upgrade: %w", err)
	}

	upgrade := &models.Upgrade{
		AccountID:  accountID,
		NewPower:   newPower,
		CoinsSpent: cost,
	}
	if err := uow.UpgradeRepository().Create(ctx, upgrade); err != nil {
		return nil, fmt.Errorf("failed to create upgrade record: %w", err)
	}

	relatedType := models.RelatedTypeUpgrade
	entry := &models.LedgerEntry{
		AccountID:     accountID,
		BalanceBefore: account.Coins,
		BalanceAfter:  newBalance,
		ChangeAmount:  -cost,
		EntryType:     models.EntryTypeUpgrade,
		Metadata: map[string]any{
			"new_power": newPower,
		},
		RelatedID:   &upgrade.ID,
		RelatedType: &relatedType,
	}
	if err := RecordBalanceChange(ctx, uow, entry); err != nil {
		return nil, fmt.Errorf("failed to record balance change: %w", err)
	}

	uow.EventBus().Publish(events.UpgradePurchasedEvent{
		AccountID:  accountID,
		NewPower:   newPower,
		CoinsSpent: cost,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.UpgradeResult{
		NewPower:      newPower,
		CoinsSpent:    cost,
		NewBalance:    newBalance,
		NextPowerCost: s.cfg.BaseUpgradeCost * (newPower + 1),
	}, nil
}

func (s *economyService) ClaimDailyReward(ctx context.Context, accountID int64) (*models.ClaimResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByIDForUpdate(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, models.ErrAccountNotFound)
	}

	// The window is 24h from the last successful claim, not calendar days
	now := s.now()
	if !account.CanClaimDaily(now) {
		return nil, fmt.Errorf("account %d: %w", accountID, models.ErrAlreadyClaimed)
	}

	reward := s.cfg.DailyRewardAmount
	newBalance, err := uow.AccountRepository().ClaimDaily(ctx, accountID, reward, now)
	if err != nil {
		return nil, fmt.Errorf("failed to claim daily reward: %w", err)
	}

	entry := &models.LedgerEntry{
		AccountID:     accountID,
		BalanceBefore: account.Coins,
		BalanceAfter:  newBalance,
		ChangeAmount:  reward,
		EntryType:     models.EntryTypeDailyReward,
	}
	if err := RecordBalanceChange(ctx, uow, entry); err != nil {
		return nil, fmt.Errorf("failed to record balance change: %w", err)
	}

	uow.EventBus().Publish(events.DailyRewardClaimedEvent{
		AccountID: accountID,
		Reward:    reward,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.ClaimResult{
		Reward:     reward,
		NewBalance: newBalance,
	}, nil
}

func (s *economyService) ApplyReferral(ctx context.Context, referredID, referrerID int64) (*models.ReferralResult, error) {
	if referredID == referrerID {
		return nil, fmt.Errorf("account %d: %w", referredID, models.ErrSelfReferral)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	result, err := applyReferral(ctx, uow, referredID, referrerID, s.cfg.ReferralBonus)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return result, nil
}

// applyReferral runs the two-account referral transition inside an already
// started unit of work, so account provisioning can reuse it in its own
// transaction. Accounts are locked in ascending id order to avoid deadlock
// between concurrent referral pairs.
func applyReferral(ctx context.Context, uow UnitOfWork, referredID, referrerID int64, bonus int64) (*models.ReferralResult, error) {
	accounts := uow.AccountRepository()

	lockOrder := []int64{referredID, referrerID}
	if referrerID < referredID {
		lockOrder = []int64{referrerID, referredID}
	}

	locked := make(map[int64]*models.Account, 2)
	for _, id := range lockOrder {
		account, err := accounts.GetByIDForUpdate(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to lock account: %w", err)
		}
		locked[id] = account
	}

	if locked[referredID] == nil {
		return nil, fmt.Errorf("account %d: %w", referredID, models.ErrAccountNotFound)
	}
	if locked[referrerID] == nil {
		return nil, fmt.Errorf("referrer %d: %w", referrerID, models.ErrReferrerNotFound)
	}

	// Both accounts are locked, so reading the record first gives a clean
	// error on retries; the unique constraint still backstops any race.
	existing, err := uow.ReferralRepository().GetByReferredID(ctx, referredID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing referral: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("account %d: %w", referredID, models.ErrAlreadyReferred)
	}

	referral := &models.Referral{
		ReferrerID: referrerID,
		ReferredID: referredID,
		Bonus:      bonus,
	}
	if err := uow.ReferralRepository().Create(ctx, referral); err != nil {
		return nil, fmt.Errorf("failed to create referral record: %w", err)
	}

	if err := accounts.SetReferredBy(ctx, referredID, referrerID); err != nil {
		return nil, fmt.Errorf("failed to set referrer: %w", err)
	}

	newReferrerBalance, err := accounts.AddCoins(ctx, referrerID, bonus)
	if err != nil {
		return nil, fmt.Errorf("failed to credit referral bonus: %w", err)
	}

	relatedType := models.RelatedTypeReferral
	entry := &models.LedgerEntry{
		AccountID:     referrerID,
		BalanceBefore: locked[referrerID].Coins,
		BalanceAfter:  newReferrerBalance,
		ChangeAmount:  bonus,
		EntryType:     models.EntryTypeReferralBonus,
		Metadata: map[string]any{
			"referred_id": referredID,
		},
		RelatedID:   &referral.ID,
		RelatedType: &relatedType,
	}
	if err := RecordBalanceChange(ctx, uow, entry); err != nil {
		return nil, fmt.Errorf("failed to record balance change: %w", err)
	}

	uow.EventBus().Publish(events.ReferralAppliedEvent{
		ReferrerID: referrerID,
		ReferredID: referredID,
		Bonus:      bonus,
	})

	return &models.ReferralResult{
		ReferrerID:         referrerID,
		ReferredID:         referredID,
		Bonus:              bonus,
		ReferrerNewBalance: newReferrerBalance,
	}, nil
}

func (s *economyService) Withdraw(ctx context.Context, accountID int64, method, address string, amount int64) (*models.WithdrawResult, error) {
	if !s.isValidMethod(method) {
		return nil, fmt.Errorf("method %q: %w", method, models.ErrInvalidMethod)
	}
	if strings.TrimSpace(address) == "" {
		return nil, models.ErrInvalidAddress
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", models.ErrInsufficientBalance)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByIDForUpdate(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, models.ErrAccountNotFound)
	}

	// The balance must cover both the amount and the withdrawal floor
	required := amount
	if s.cfg.MinimumWithdrawal > required {
		required = s.cfg.MinimumWithdrawal
	}
	if account.Coins < required {
		return nil, fmt.Errorf("need %d coins, have %d: %w", required, account.Coins, models.ErrInsufficientBalance)
	}

	newBalance, err := uow.AccountRepository().DeductCoins(ctx, accountID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve withdrawal funds: %w", err)
	}

	withdrawal := &models.Withdrawal{
		AccountID: accountID,
		Method:    method,
		Address:   address,
		Amount:    amount,
		Status:    models.WithdrawalStatusPending,
	}
	if err := uow.WithdrawalRepository().Create(ctx, withdrawal); err != nil {
		return nil, fmt.Errorf("failed to create withdrawal request: %w", err)
	}

	relatedType := models.RelatedTypeWithdrawal
	entry := &models.LedgerEntry{
		AccountID:     accountID,
		BalanceBefore: account.Coins,
		BalanceAfter:  newBalance,
		ChangeAmount:  -amount,
		EntryType:     models.EntryTypeWithdrawal,
		Metadata: map[string]any{
			"method": method,
		},
		RelatedID:   &withdrawal.ID,
		RelatedType: &relatedType,
	}
	if err := RecordBalanceChange(ctx, uow, entry); err != nil {
		return nil, fmt.Errorf("failed to record balance change: %w", err)
	}

	uow.EventBus().Publish(events.WithdrawalRequestedEvent{
		AccountID:    accountID,
		WithdrawalID: withdrawal.ID,
		Method:       method,
		Amount:       amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.WithdrawResult{
		RequestID:  withdrawal.ID,
		Amount:     amount,
		NewBalance: newBalance,
	}, nil
}

// CompensateWithdrawal rejects a pending withdrawal and credits the amount
// back. The pending -> rejected transition happens in the same transaction
// as the credit, so repeating the call for an already rejected request does
// nothing.
func (s *economyService) CompensateWithdrawal(ctx context.Context, withdrawalID int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	withdrawal, err := uow.WithdrawalRepository().GetByID(ctx, withdrawalID)
	if err != nil {
		return fmt.Errorf("failed to get withdrawal: %w", err)
	}
	if withdrawal == nil {
		return fmt.Errorf("withdrawal %d not found", withdrawalID)
	}

	account, err := uow.AccountRepository().GetByIDForUpdate(ctx, withdrawal.AccountID)
	if err != nil {
		return fmt.Errorf("failed to lock account: %w", err)
	}
	if account == nil {
		return fmt.Errorf("account %d: %w", withdrawal.AccountID, models.ErrAccountNotFound)
	}

	transitioned, err := uow.WithdrawalRepository().UpdateStatusIfPending(ctx, withdrawalID, models.WithdrawalStatusRejected)
	if err != nil {
		return fmt.Errorf("failed to reject withdrawal: %w", err)
	}
	if !transitioned {
		// Already in a terminal state; the refund was either made or will
		// never be made. Nothing to do.
		return nil
	}

	newBalance, err := uow.AccountRepository().AddCoins(ctx, withdrawal.AccountID, withdrawal.Amount)
	if err != nil {
		return fmt.Errorf("failed to refund withdrawal: %w", err)
	}

	relatedType := models.RelatedTypeWithdrawal
	entry := &models.LedgerEntry{
		AccountID:     withdrawal.AccountID,
		BalanceBefore: account.Coins,
		BalanceAfter:  newBalance,
		ChangeAmount:  withdrawal.Amount,
		EntryType:     models.EntryTypeWithdrawalRefund,
		RelatedID:     &withdrawal.ID,
		RelatedType:   &relatedType,
	}
	if err := RecordBalanceChange(ctx, uow, entry); err != nil {
		return fmt.Errorf("failed to record balance change: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *economyService) GetWithdrawals(ctx context.Context, accountID int64, limit int) ([]*models.Withdrawal, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	withdrawals, err := uow.WithdrawalRepository().GetByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawals: %w", err)
	}

	return withdrawals, nil
}

func (s *economyService) isValidMethod(method string) bool {
	for _, m := range s.cfg.WithdrawalMethods {
		if m == method {
			return true
		}
	}
	return false
}
