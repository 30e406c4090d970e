package service

import (
	"context"
	"time"

	"tapcoin/events"
	"tapcoin/models"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, account *models.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) RecordTap(ctx context.Context, id int64, earned int64, at time.Time) (int64, int64, error) {
	args := m.Called(ctx, id, earned, at)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountRepository) PurchaseUpgrade(ctx context.Context, id int64, cost int64) (int64, int64, error) {
	args := m.Called(ctx, id, cost)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountRepository) ClaimDaily(ctx context.Context, id int64, reward int64, at time.Time) (int64, error) {
	args := m.Called(ctx, id, reward, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) AddCoins(ctx context.Context, id int64, amount int64) (int64, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) DeductCoins(ctx context.Context, id int64, amount int64) (int64, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) SetReferredBy(ctx context.Context, id int64, referrerID int64) error {
	args := m.Called(ctx, id, referrerID)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateDisplayName(ctx context.Context, id int64, displayName string) error {
	args := m.Called(ctx, id, displayName)
	return args.Error(0)
}

func (m *MockAccountRepository) TopByCoins(ctx context.Context, limit int) ([]*models.Account, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Account), args.Error(1)
}

// MockTapEventRepository is a mock implementation of TapEventRepository
type MockTapEventRepository struct {
	mock.Mock
}

func (m *MockTapEventRepository) Create(ctx context.Context, event *models.TapEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockTapEventRepository) CountByAccountSince(ctx context.Context, accountID int64, since time.Time) (int64, error) {
	args := m.Called(ctx, accountID, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTapEventRepository) GetRecentByAccount(ctx context.Context, accountID int64, limit int) ([]*models.TapEvent, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TapEvent), args.Error(1)
}

// MockReferralRepository is a mock implementation of ReferralRepository
type MockReferralRepository struct {
	mock.Mock
}

func (m *MockReferralRepository) Create(ctx context.Context, referral *models.Referral) error {
	args := m.Called(ctx, referral)
	return args.Error(0)
}

func (m *MockReferralRepository) GetByReferredID(ctx context.Context, referredID int64) (*models.Referral, error) {
	args := m.Called(ctx, referredID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Referral), args.Error(1)
}

func (m *MockReferralRepository) GetByReferrer(ctx context.Context, referrerID int64) ([]*models.Referral, error) {
	args := m.Called(ctx, referrerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Referral), args.Error(1)
}

func (m *MockReferralRepository) CountByReferrer(ctx context.Context, referrerID int64) (int64, error) {
	args := m.Called(ctx, referrerID)
	return args.Get(0).(int64), args.Error(1)
}

// MockUpgradeRepository is a mock implementation of UpgradeRepository
type MockUpgradeRepository struct {
	mock.Mock
}

func (m *MockUpgradeRepository) Create(ctx context.Context, upgrade *models.Upgrade) error {
	args := m.Called(ctx, upgrade)
	return args.Error(0)
}

func (m *MockUpgradeRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Upgrade, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Upgrade), args.Error(1)
}

// MockWithdrawalRepository is a mock implementation of WithdrawalRepository
type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	args := m.Called(ctx, withdrawal)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) GetByID(ctx context.Context, id int64) (*models.Withdrawal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) UpdateStatusIfPending(ctx context.Context, id int64, status models.WithdrawalStatus) (bool, error) {
	args := m.Called(ctx, id, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockWithdrawalRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Withdrawal, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) GetPending(ctx context.Context, limit int) ([]*models.Withdrawal, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Withdrawal), args.Error(1)
}

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Record(ctx context.Context, entry *models.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) HasRefund(ctx context.Context, withdrawalID int64) (bool, error) {
	args := m.Called(ctx, withdrawalID)
	return args.Bool(0), args.Error(1)
}

// noopPublisher drops events; unit tests assert on state, not delivery
type noopPublisher struct{}

func (noopPublisher) Publish(events.Event) {}

// MockUnitOfWork is a mock implementation of UnitOfWork wired with the
// repository mocks a test cares about
type MockUnitOfWork struct {
	mock.Mock
	accountRepo    AccountRepository
	tapEventRepo   TapEventRepository
	referralRepo   ReferralRepository
	upgradeRepo    UpgradeRepository
	withdrawalRepo WithdrawalRepository
	ledgerRepo     LedgerRepository
}

// SetRepositories wires the repository mocks this unit of work hands out
func (m *MockUnitOfWork) SetRepositories(
	accounts AccountRepository,
	tapEvents TapEventRepository,
	referrals ReferralRepository,
	upgrades UpgradeRepository,
	withdrawals WithdrawalRepository,
	ledger LedgerRepository,
) {
	m.accountRepo = accounts
	m.tapEventRepo = tapEvents
	m.referralRepo = referrals
	m.upgradeRepo = upgrades
	m.withdrawalRepo = withdrawals
	m.ledgerRepo = ledger
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository {
	return m.accountRepo
}

func (m *MockUnitOfWork) TapEventRepository() TapEventRepository {
	return m.tapEventRepo
}

func (m *MockUnitOfWork) ReferralRepository() ReferralRepository {
	return m.referralRepo
}

func (m *MockUnitOfWork) UpgradeRepository() UpgradeRepository {
	return m.upgradeRepo
}

func (m *MockUnitOfWork) WithdrawalRepository() WithdrawalRepository {
	return m.withdrawalRepo
}

func (m *MockUnitOfWork) LedgerRepository() LedgerRepository {
	return m.ledgerRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return noopPublisher{}
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
