package service

import (
	"context"
	"time"

	"tapcoin/events"
	"tapcoin/models"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// GetByID retrieves an account by its id
	GetByID(ctx context.Context, id int64) (*models.Account, error)

	// GetByIDForUpdate retrieves an account by id and takes a row lock on it,
	// serializing concurrent economy transitions for that account
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Account, error)

	// GetByReferralCode resolves a referral code to its owning account
	GetByReferralCode(ctx context.Context, code string) (*models.Account, error)

	// Create inserts a new account row
	Create(ctx context.Context, account *models.Account) error

	// RecordTap credits one accepted tap and stamps last_tap_at, returning
	// the new balance and tap count
	RecordTap(ctx context.Context, id int64, earned int64, at time.Time) (int64, int64, error)

	// PurchaseUpgrade deducts the cost and increments tap power atomically,
	// returning the new balance and power
	PurchaseUpgrade(ctx context.Context, id int64, cost int64) (int64, int64, error)

	// ClaimDaily credits the daily reward and stamps last_daily_claim,
	// returning the new balance
	ClaimDaily(ctx context.Context, id int64, reward int64, at time.Time) (int64, error)

	// AddCoins credits coins, returning the new balance
	AddCoins(ctx context.Context, id int64, amount int64) (int64, error)

	// DeductCoins debits coins, failing if the balance would go negative,
	// and returns the new balance
	DeductCoins(ctx context.Context, id int64, amount int64) (int64, error)

	// SetReferredBy records the referring account if none was set before
	SetReferredBy(ctx context.Context, id int64, referrerID int64) error

	// UpdateDisplayName updates the account's display name
	UpdateDisplayName(ctx context.Context, id int64, displayName string) error

	// TopByCoins returns the top accounts by balance descending, id
	// ascending as tiebreak
	TopByCoins(ctx context.Context, limit int) ([]*models.Account, error)
}

// TapEventRepository defines the interface for the tap audit log
type TapEventRepository interface {
	// Create appends one accepted tap
	Create(ctx context.Context, event *models.TapEvent) error

	// CountByAccountSince returns the number of accepted taps since a time
	CountByAccountSince(ctx context.Context, accountID int64, since time.Time) (int64, error)

	// GetRecentByAccount returns the newest taps for an account
	GetRecentByAccount(ctx context.Context, accountID int64, limit int) ([]*models.TapEvent, error)
}

// ReferralRepository defines the interface for referral records
type ReferralRepository interface {
	// Create inserts a referral record; the unique constraint on the
	// referred account makes this at-most-once
	Create(ctx context.Context, referral *models.Referral) error

	// GetByReferredID returns the referral record for a referred account
	GetByReferredID(ctx context.Context, referredID int64) (*models.Referral, error)

	// GetByReferrer returns all referrals credited to a referrer
	GetByReferrer(ctx context.Context, referrerID int64) ([]*models.Referral, error)

	// CountByReferrer returns how many accounts a referrer brought in
	CountByReferrer(ctx context.Context, referrerID int64) (int64, error)
}

// UpgradeRepository defines the interface for the upgrade audit log
type UpgradeRepository interface {
	// Create appends one purchase record
	Create(ctx context.Context, upgrade *models.Upgrade) error

	// GetByAccount returns an account's upgrade history
	GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Upgrade, error)
}

// WithdrawalRepository defines the interface for withdrawal requests
type WithdrawalRepository interface {
	// Create enqueues a withdrawal request in pending state
	Create(ctx context.Context, withdrawal *models.Withdrawal) error

	// GetByID retrieves a withdrawal request by id
	GetByID(ctx context.Context, id int64) (*models.Withdrawal, error)

	// UpdateStatusIfPending moves a pending request to a new status,
	// reporting whether the transition happened
	UpdateStatusIfPending(ctx context.Context, id int64, status models.WithdrawalStatus) (bool, error)

	// GetByAccount returns an account's withdrawal history
	GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Withdrawal, error)

	// GetPending returns requests awaiting operator review, oldest first
	GetPending(ctx context.Context, limit int) ([]*models.Withdrawal, error)
}

// LedgerRepository defines the interface for the balance delta ledger
type LedgerRepository interface {
	// Record appends one signed balance delta
	Record(ctx context.Context, entry *models.LedgerEntry) error

	// GetByAccount returns an account's ledger history
	GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.LedgerEntry, error)

	// HasRefund reports whether a compensating credit was already recorded
	// for the given withdrawal request
	HasRefund(ctx context.Context, withdrawalID int64) (bool, error)
}

// EconomyService defines the interface for economy transitions. Every
// operation executes as one atomic unit against the account(s) it touches.
type EconomyService interface {
	// Tap credits one tap worth of coins, enforcing the rate ceiling
	Tap(ctx context.Context, accountID int64) (*models.TapResult, error)

	// Upgrade buys the next tap power level
	Upgrade(ctx context.Context, accountID int64) (*models.UpgradeResult, error)

	// ClaimDailyReward credits the time-gated daily reward
	ClaimDailyReward(ctx context.Context, accountID int64) (*models.ClaimResult, error)

	// ApplyReferral pays the referrer a one-time bonus for the referred
	// account; the record insert and the credit commit together or not at all
	ApplyReferral(ctx context.Context, referredID, referrerID int64) (*models.ReferralResult, error)

	// Withdraw deducts coins and enqueues a pending withdrawal request
	Withdraw(ctx context.Context, accountID int64, method, address string, amount int64) (*models.WithdrawResult, error)

	// CompensateWithdrawal refunds a pending request and marks it rejected.
	// Calling it again for the same request is a no-op.
	CompensateWithdrawal(ctx context.Context, withdrawalID int64) error

	// GetWithdrawals returns an account's withdrawal history
	GetWithdrawals(ctx context.Context, accountID int64, limit int) ([]*models.Withdrawal, error)
}

// AccountService defines the interface for account lifecycle operations
type AccountService interface {
	// GetOrCreate retrieves an account or lazily provisions it on first
	// contact, applying a referral if a valid referrer code was supplied
	GetOrCreate(ctx context.Context, id int64, displayName, referrerCode string) (*models.Account, error)

	// GetProfile returns the read model for the presentation layer
	GetProfile(ctx context.Context, id int64) (*models.AccountProfile, error)
}

// LeaderboardService defines the interface for the ranked balance view
type LeaderboardService interface {
	// Top returns the highest balances; limit <= 0 uses the configured size
	Top(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	AccountRepository() AccountRepository
	TapEventRepository() TapEventRepository
	ReferralRepository() ReferralRepository
	UpgradeRepository() UpgradeRepository
	WithdrawalRepository() WithdrawalRepository
	LedgerRepository() LedgerRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
