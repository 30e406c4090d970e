package service

import (
	"context"
	"fmt"

	"tapcoin/events"
	"tapcoin/models"
)

// RecordBalanceChange records a ledger entry and emits the balance change
// event. This is the single entry point for all coin mutations, so the
// ledger always replays to the account balance.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, entry *models.LedgerEntry) error {
	if err := uow.LedgerRepository().Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	// Queued on the transactional bus; delivered only after commit
	uow.EventBus().Publish(events.BalanceChangeEvent{
		AccountID:    entry.AccountID,
		OldBalance:   entry.BalanceBefore,
		NewBalance:   entry.BalanceAfter,
		EntryType:    entry.EntryType,
		ChangeAmount: entry.ChangeAmount,
	})

	return nil
}
