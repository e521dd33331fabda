// Package health tracks liveness of the async Engine's per-symbol goroutine,
// the one background loop this service runs, grounded on
// exchange-common/pkg/health/loop_monitor.go.
package health

import (
	"sync/atomic"
	"time"
)

// LoopMonitor tracks whether internal/engine.Engine's command-processing
// goroutine is still making progress and what, if anything, most recently
// went wrong on it. It is intentionally dependency-free: liveness checking
// itself needs nothing beyond the standard library.
type LoopMonitor struct {
	lastTickUnixNano atomic.Int64
	lastErr          atomic.Value // string
}

// Tick records that the engine's goroutine drained a command just now.
// internal/engine.Engine.run calls this once per Command it takes off the
// queue, just before processing it.
func (m *LoopMonitor) Tick() {
	m.lastTickUnixNano.Store(time.Now().UnixNano())
}

// SetError records the most recent error the engine's goroutine hit while
// talking to an optional store.OrderStore/store.TradeStore collaborator; a
// non-empty LastError does not mean the engine stopped processing commands,
// only that persistence for one of them failed.
func (m *LoopMonitor) SetError(err error) {
	if err == nil {
		return
	}
	m.lastErr.Store(err.Error())
}

// LastError returns the most recently recorded error message, or "".
func (m *LoopMonitor) LastError() string {
	if v := m.lastErr.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Healthy reports whether the loop has ticked within maxAge of now. If Tick
// has never been called, ok is false.
func (m *LoopMonitor) Healthy(now time.Time, maxAge time.Duration) (ok bool, age time.Duration, lastErr string) {
	lastErr = m.LastError()
	last := m.lastTickUnixNano.Load()
	if last <= 0 {
		return false, 0, lastErr
	}
	t := time.Unix(0, last)
	if now.Before(t) {
		return true, 0, lastErr
	}
	age = now.Sub(t)
	if maxAge <= 0 {
		maxAge = 10 * time.Second
	}
	return age <= maxAge, age, lastErr
}
