package models

import (
	"time"
)

// Referral records a referral bonus payment. The unique constraint on
// ReferredID is what makes bonus application at-most-once; there is no
// application-level lock guarding it.
type Referral struct {
	ID         int64     `db:"id"`
	ReferrerID int64     `db:"referrer_id"`
	ReferredID int64     `db:"referred_id"`
	Bonus      int64     `db:"bonus"`
	AppliedAt  time.Time `db:"applied_at"`
}
