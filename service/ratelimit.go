package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// AllowTap is the authoritative tap rate check. It is a pure function of the
// stored last accepted tap and the current time, and must be evaluated while
// the account row is locked; checking it outside the transaction would let
// two concurrent taps both read a stale last_tap_at and both pass.
func AllowTap(lastTapAt *time.Time, now time.Time, minInterval time.Duration) bool {
	if lastTapAt == nil {
		return true
	}
	return now.Sub(*lastTapAt) >= minInterval
}

// tapThrottle is an in-process per-account pre-filter in front of the store.
// It sheds obvious floods before they cost a transaction; the in-transaction
// AllowTap check remains the source of truth, so this needs no coordination
// across processes.
type tapThrottle struct {
	mu       sync.Mutex
	limiters map[int64]*rate.Limiter
	interval time.Duration
}

func newTapThrottle(interval time.Duration) *tapThrottle {
	return &tapThrottle{
		limiters: make(map[int64]*rate.Limiter),
		interval: interval,
	}
}

// Allow reports whether the account may attempt a tap right now
func (t *tapThrottle) Allow(accountID int64) bool {
	t.mu.Lock()
	limiter, ok := t.limiters[accountID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(t.interval), 1)
		t.limiters[accountID] = limiter
	}
	t.mu.Unlock()

	return limiter.Allow()
}
