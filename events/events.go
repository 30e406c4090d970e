package events

import (
	"context"
	"sync"

	"tapcoin/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeAccountCreated      EventType = "account_created"
	EventTypeBalanceChange       EventType = "balance_change"
	EventTypeTapAccepted         EventType = "tap_accepted"
	EventTypeUpgradePurchased    EventType = "upgrade_purchased"
	EventTypeDailyRewardClaimed  EventType = "daily_reward_claimed"
	EventTypeReferralApplied     EventType = "referral_applied"
	EventTypeWithdrawalRequested EventType = "withdrawal_requested"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// AccountCreatedEvent represents a new account provisioned on first contact
type AccountCreatedEvent struct {
	AccountID    int64
	DisplayName  string
	ReferralCode string
}

func (e AccountCreatedEvent) Type() EventType {
	return EventTypeAccountCreated
}

// BalanceChangeEvent represents a committed coin balance change
type BalanceChangeEvent struct {
	AccountID    int64
	OldBalance   int64
	NewBalance   int64
	EntryType    models.EntryType
	ChangeAmount int64
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// TapAcceptedEvent represents a tap that passed the rate limiter
type TapAcceptedEvent struct {
	AccountID int64
	Earned    int64
	TapCount  int64
}

func (e TapAcceptedEvent) Type() EventType {
	return EventTypeTapAccepted
}

// UpgradePurchasedEvent represents a tap power purchase
type UpgradePurchasedEvent struct {
	AccountID  int64
	NewPower   int64
	CoinsSpent int64
}

func (e UpgradePurchasedEvent) Type() EventType {
	return EventTypeUpgradePurchased
}

// DailyRewardClaimedEvent represents a successful daily reward claim
type DailyRewardClaimedEvent struct {
	AccountID int64
	Reward    int64
}

func (e DailyRewardClaimedEvent) Type() EventType {
	return EventTypeDailyRewardClaimed
}

// ReferralAppliedEvent represents a referral bonus paid to a referrer
type ReferralAppliedEvent struct {
	ReferrerID int64
	ReferredID int64
	Bonus      int64
}

func (e ReferralAppliedEvent) Type() EventType {
	return EventTypeReferralApplied
}

// WithdrawalRequestedEvent represents a withdrawal request enqueued for review
type WithdrawalRequestedEvent struct {
	AccountID    int64
	WithdrawalID int64
	Method       string
	Amount       int64
}

func (e WithdrawalRequestedEvent) Type() EventType {
	return EventTypeWithdrawalRequested
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking the request path
	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus only after the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush is called after a successful commit. Events are emitted with a
// background context because the transaction context may already be done.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	eventCtx := context.Background()

	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events to main event bus")

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events after a rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
