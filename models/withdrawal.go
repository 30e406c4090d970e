package models

import (
	"time"
)

// WithdrawalStatus represents the lifecycle state of a withdrawal request.
// The economy core only ever writes Pending; the terminal transitions are
// made by an external operator process.
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
	WithdrawalStatusRejected WithdrawalStatus = "rejected"
	WithdrawalStatusPaid     WithdrawalStatus = "paid"
)

// Withdrawal represents a request to pay out coins. Funds are deducted when
// the request is recorded; a rejected request is compensated by an external
// credit keyed on the request id.
type Withdrawal struct {
	ID          int64            `db:"id"`
	AccountID   int64            `db:"account_id"`
	Method      string           `db:"method"`
	Address     string           `db:"address"`
	Amount      int64            `db:"amount"`
	Status      WithdrawalStatus `db:"status"`
	RequestedAt time.Time        `db:"requested_at"`
}
