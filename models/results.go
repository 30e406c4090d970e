package models

// TapResult represents the outcome of an accepted tap (returned to the user)
type TapResult struct {
	Earned     int64
	NewBalance int64
	TapCount   int64
}

// UpgradeResult represents the outcome of a tap power purchase
type UpgradeResult struct {
	NewPower      int64
	CoinsSpent    int64
	NewBalance    int64
	NextPowerCost int64
}

// ClaimResult represents the outcome of a daily reward claim
type ClaimResult struct {
	Reward     int64
	NewBalance int64
}

// ReferralResult represents the outcome of applying a referral bonus
type ReferralResult struct {
	ReferrerID         int64
	ReferredID         int64
	Bonus              int64
	ReferrerNewBalance int64
}

// WithdrawResult represents the outcome of enqueueing a withdrawal request
type WithdrawResult struct {
	RequestID  int64
	Amount     int64
	NewBalance int64
}

// LeaderboardEntry represents one row of the ranked balance view
type LeaderboardEntry struct {
	Rank        int
	AccountID   int64
	DisplayName string
	Coins       int64
	TapPower    int64
}

// AccountProfile is the read model served to the presentation layer
type AccountProfile struct {
	Account         *Account
	NextUpgradeCost int64
	DailyAvailable  bool
}
