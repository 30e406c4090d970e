package models

import (
	"time"
)

// Account represents a player with a coin balance
type Account struct {
	ID             int64      `db:"id"`
	DisplayName    string     `db:"display_name"`
	Coins          int64      `db:"coins"`
	TapPower       int64      `db:"tap_power"`
	TapCount       int64      `db:"tap_count"`
	ReferralCode   string     `db:"referral_code"`
	ReferredBy     *int64     `db:"referred_by"`
	LastTapAt      *time.Time `db:"last_tap_at"`
	LastDailyClaim *time.Time `db:"last_daily_claim"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// NextUpgradeCost returns the price of the account's next tap power level.
// The cost is a function of the resulting power level, so the price curve
// escalates with every purchase.
func (a *Account) NextUpgradeCost(baseCost int64) int64 {
	return baseCost * (a.TapPower + 1)
}

// CanClaimDaily reports whether the 24 hour window since the last successful
// claim has elapsed. A null last claim means the reward was never claimed.
func (a *Account) CanClaimDaily(now time.Time) bool {
	if a.LastDailyClaim == nil {
		return true
	}
	return !now.Before(a.LastDailyClaim.Add(24 * time.Hour))
}
