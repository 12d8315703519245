package domain

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

var (
	clockMu sync.RWMutex
	clock   = clockwork.NewRealClock()
)

// SetClock replaces the clock used for report timestamps and missing
// observation times. A nil clock restores wall time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	clockMu.Lock()
	clock = c
	clockMu.Unlock()
}

// now returns the current time in UTC. Reports are built from HTTP handlers
// concurrently, so the clock is read under a lock.
func now() time.Time {
	clockMu.RLock()
	defer clockMu.RUnlock()
	return clock.Now().UTC()
}
