package models

import (
	"time"
)

// Upgrade is an append-only audit record of one tap power purchase
type Upgrade struct {
	ID          int64     `db:"id"`
	AccountID   int64     `db:"account_id"`
	NewPower    int64     `db:"new_power"`
	CoinsSpent  int64     `db:"coins_spent"`
	PurchasedAt time.Time `db:"purchased_at"`
}
