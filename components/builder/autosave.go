package builder

import (
	"sync"
	"time"

	"github.com/bep/debounce"
)

// DefaultAutoSaveDelay is the quiet period before pending changes are pushed.
const DefaultAutoSaveDelay = 2 * time.Second

// AutoSaver coalesces save requests: every Schedule restarts the timer and
// only the last one inside the window runs flush.
type AutoSaver struct {
	mu        sync.Mutex
	delay     time.Duration
	flush     func()
	debounced func(func())
	stopped   bool
}

// NewAutoSaver builds an auto-saver. A zero delay selects
// DefaultAutoSaveDelay; a negative delay disables scheduling.
func NewAutoSaver(delay time.Duration, flush func()) *AutoSaver {
	if delay == 0 {
		delay = DefaultAutoSaveDelay
	}
	a := &AutoSaver{delay: delay, flush: flush}
	if delay > 0 && flush != nil {
		a.debounced = debounce.New(delay)
	}
	return a
}

// Delay reports the configured debounce window.
func (a *AutoSaver) Delay() time.Duration { return a.delay }

// Enabled reports whether Schedule arms a timer.
func (a *AutoSaver) Enabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.debounced != nil && !a.stopped
}

// Schedule (re)arms the timer, superseding any pending save.
func (a *AutoSaver) Schedule() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.debounced == nil || a.stopped {
		return
	}
	a.debounced(a.flush)
}

// Cancel drops a pending save without disabling later scheduling.
func (a *AutoSaver) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.debounced == nil {
		return
	}
	a.debounced(func() {})
}

// Stop cancels any pending save and disables further scheduling.
func (a *AutoSaver) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.debounced == nil || a.stopped {
		return
	}
	a.stopped = true
	a.debounced(func() {})
}
