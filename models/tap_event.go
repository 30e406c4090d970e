package models

import (
	"time"
)

// TapEvent is an append-only audit record of one accepted tap
type TapEvent struct {
	ID        int64     `db:"id"`
	AccountID int64     `db:"account_id"`
	TappedAt  time.Time `db:"tapped_at"`
}
