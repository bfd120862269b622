// internal/game/timer.go
//
// Game clock: elapsed time since start, pushed to a display callback at a
// fixed cadence.

package game

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultTickInterval is the display refresh cadence.
const DefaultTickInterval = 50 * time.Millisecond

// FormatElapsed renders milliseconds as MM:SS:HH (minutes, seconds, hundredths).
func FormatElapsed(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	hundredths := (ms % 1000) / 10
	return fmt.Sprintf("%02d:%02d:%02d", minutes, seconds, hundredths)
}

// Timer measures one run at a time. Start while running restarts it.
type Timer struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	interval time.Duration
	emit     func(string)

	started time.Time
	stopped time.Time
	running bool
	quit    chan struct{}
	exited  chan struct{}
}

// NewTimer builds a stopped timer. emit receives formatted elapsed strings
// on the ticker goroutine; it may be nil. emit must not call back into the
// Timer: Stop waits for the ticker goroutine while holding the lock.
func NewTimer(clock clockwork.Clock, interval time.Duration, emit func(string)) *Timer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Timer{clock: clock, interval: interval, emit: emit}
}

// Start cancels any current run, records now as the start instant and
// begins ticking. It returns the start instant.
func (t *Timer) Start() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	t.started = t.clock.Now()
	t.stopped = time.Time{}
	t.running = true
	t.quit = make(chan struct{})
	t.exited = make(chan struct{})

	ticker := t.clock.NewTicker(t.interval)
	go t.run(ticker, t.started, t.quit, t.exited)
	return t.started
}

func (t *Timer) run(ticker clockwork.Ticker, started time.Time, quit <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)
	defer ticker.Stop()
	for {
		select {
		case <-quit:
			return
		case <-ticker.Chan():
			select {
			case <-quit:
				return
			default:
			}
			if t.emit != nil {
				t.emit(FormatElapsed(t.clock.Since(started).Milliseconds()))
			}
		}
	}
}

// Stop halts ticking and freezes Elapsed. No tick is emitted after Stop
// returns. Calling Stop on a stopped timer is a no-op.
func (t *Timer) Stop() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	return t.elapsedLocked()
}

func (t *Timer) stopLocked() {
	if !t.running {
		return
	}
	t.stopped = t.clock.Now()
	t.running = false
	close(t.quit)
	<-t.exited
}

// Running reports whether a run is in progress.
func (t *Timer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// StartedAt returns the start instant of the current or last run.
func (t *Timer) StartedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

// Elapsed is the live duration while running, else the frozen one.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsedLocked()
}

func (t *Timer) elapsedLocked() time.Duration {
	switch {
	case t.started.IsZero():
		return 0
	case t.running:
		return t.clock.Since(t.started)
	default:
		return t.stopped.Sub(t.started)
	}
}
