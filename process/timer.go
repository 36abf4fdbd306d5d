package process

import (
	"sync"
	"time"
)

// TimeoutScheduler is the cancellable-timer capability injected into the
// Manager. Arming replaces any timer already pending for the hand; firing is
// delegated back to the Manager, which guards against stale timers itself.
type TimeoutScheduler interface {
	Arm(handRoot string, position int, d time.Duration)
	Cancel(handRoot string)
}

// TimeoutFunc is invoked when an armed action timer expires.
type TimeoutFunc func(handRoot string, position int)

// ActionTimers is the default TimeoutScheduler, one timer per hand on top of
// time.AfterFunc.
type ActionTimers struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	fire   TimeoutFunc
}

// NewActionTimers creates a scheduler that calls fire on expiry.
func NewActionTimers(fire TimeoutFunc) *ActionTimers {
	return &ActionTimers{
		timers: make(map[string]*time.Timer),
		fire:   fire,
	}
}

// Arm starts (or restarts) the action timer for a hand.
func (t *ActionTimers) Arm(handRoot string, position int, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, ok := t.timers[handRoot]; ok {
		timer.Stop()
	}

	t.timers[handRoot] = time.AfterFunc(d, func() {
		t.mu.Lock()
		delete(t.timers, handRoot)
		t.mu.Unlock()

		t.fire(handRoot, position)
	})
}

// Cancel stops any pending timer for a hand. Cancelling an unarmed hand is a
// no-op.
func (t *ActionTimers) Cancel(handRoot string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if timer, ok := t.timers[handRoot]; ok {
		timer.Stop()
		delete(t.timers, handRoot)
	}
}
