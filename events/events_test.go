package events

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestBus_Emit(t *testing.T) {
	bus := NewBus()

	var received atomic.Value
	bus.Subscribe(EventTypeTapAccepted, func(ctx context.Context, event Event) {
		received.Store(event)
	})

	bus.Emit(context.Background(), TapAcceptedEvent{AccountID: 42, Earned: 3, TapCount: 10})

	waitFor(t, func() bool { return received.Load() != nil })

	event, ok := received.Load().(TapAcceptedEvent)
	require.True(t, ok)
	assert.Equal(t, int64(42), event.AccountID)
	assert.Equal(t, int64(3), event.Earned)
}

func TestBus_EmitOnlyMatchingType(t *testing.T) {
	bus := NewBus()

	var tapCalls, claimCalls atomic.Int32
	bus.Subscribe(EventTypeTapAccepted, func(ctx context.Context, event Event) {
		tapCalls.Add(1)
	})
	bus.Subscribe(EventTypeDailyRewardClaimed, func(ctx context.Context, event Event) {
		claimCalls.Add(1)
	})

	bus.Emit(context.Background(), TapAcceptedEvent{AccountID: 1})

	waitFor(t, func() bool { return tapCalls.Load() == 1 })
	assert.Equal(t, int32(0), claimCalls.Load())
}

func TestBus_HandlerPanicDoesNotPropagate(t *testing.T) {
	bus := NewBus()

	var survived atomic.Bool
	bus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		panic("handler bug")
	})
	bus.Subscribe(EventTypeBalanceChange, func(ctx context.Context, event Event) {
		survived.Store(true)
	})

	bus.Emit(context.Background(), BalanceChangeEvent{AccountID: 1, ChangeAmount: 5})

	waitFor(t, func() bool { return survived.Load() })
}

func TestTransactionalBus(t *testing.T) {
	t.Run("flush delivers queued events", func(t *testing.T) {
		bus := NewBus()
		var delivered atomic.Int32
		bus.Subscribe(EventTypeTapAccepted, func(ctx context.Context, event Event) {
			delivered.Add(1)
		})

		txBus := NewTransactionalBus(bus)
		txBus.Publish(TapAcceptedEvent{AccountID: 1})
		txBus.Publish(TapAcceptedEvent{AccountID: 2})

		// Nothing reaches the bus until the flush
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, int32(0), delivered.Load())

		require.NoError(t, txBus.Flush(context.Background()))
		waitFor(t, func() bool { return delivered.Load() == 2 })
	})

	t.Run("discard drops queued events", func(t *testing.T) {
		bus := NewBus()
		var delivered atomic.Int32
		bus.Subscribe(EventTypeTapAccepted, func(ctx context.Context, event Event) {
			delivered.Add(1)
		})

		txBus := NewTransactionalBus(bus)
		txBus.Publish(TapAcceptedEvent{AccountID: 1})
		txBus.Discard()

		require.NoError(t, txBus.Flush(context.Background()))
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, int32(0), delivered.Load())
	})
}
