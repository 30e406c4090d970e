package models

import (
	"time"
)

// EntryType represents the kind of balance change
type EntryType string

const (
	EntryTypeTap              EntryType = "tap"
	EntryTypeUpgrade          EntryType = "upgrade"
	EntryTypeDailyReward      EntryType = "daily_reward"
	EntryTypeReferralBonus    EntryType = "referral_bonus"
	EntryTypeWithdrawal       EntryType = "withdrawal"
	EntryTypeWithdrawalRefund EntryType = "withdrawal_refund"
)

// RelatedType represents what entity a ledger entry's RelatedID refers to
type RelatedType string

const (
	RelatedTypeTapEvent   RelatedType = "tap_event"
	RelatedTypeUpgrade    RelatedType = "upgrade"
	RelatedTypeReferral   RelatedType = "referral"
	RelatedTypeWithdrawal RelatedType = "withdrawal"
)

// LedgerEntry is the append-only record of one signed balance delta. Every
// coin mutation in the system writes exactly one entry in the same
// transaction, so the ledger replays to the account balance.
type LedgerEntry struct {
	ID            int64          `db:"id"`
	AccountID     int64          `db:"account_id"`
	BalanceBefore int64          `db:"balance_before"`
	BalanceAfter  int64          `db:"balance_after"`
	ChangeAmount  int64          `db:"change_amount"`
	EntryType     EntryType      `db:"entry_type"`
	Metadata      map[string]any `db:"metadata"`
	RelatedID     *int64         `db:"related_id"`
	RelatedType   *RelatedType   `db:"related_type"`
	CreatedAt     time.Time      `db:"created_at"`
}
