// Package recurring wraps a ticker that can be started and stopped from an
// event loop. A Task is owned by one goroutine and is not safe for
// concurrent use.
package recurring

import "time"

// Ticker is the subset of *time.Ticker a Task needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Factory creates a ticker firing every d.
type Factory func(d time.Duration) Ticker

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

// StdFactory uses time.NewTicker.
func StdFactory(d time.Duration) Ticker { return stdTicker{time.NewTicker(d)} }

// Task fires at a fixed interval while running.
type Task struct {
	interval time.Duration
	factory  Factory
	ticker   Ticker
}

// New creates a stopped task. A nil factory uses StdFactory.
func New(interval time.Duration, factory Factory) *Task {
	if factory == nil {
		factory = StdFactory
	}
	return &Task{interval: interval, factory: factory}
}

// Start begins ticking; the first tick arrives one interval from now.
// Returns false if already running.
func (t *Task) Start() bool {
	if t.ticker != nil {
		return false
	}
	t.ticker = t.factory(t.interval)
	return true
}

// Stop halts ticking. A tick not yet received is dropped because C returns
// nil from now on.
func (t *Task) Stop() {
	if t.ticker == nil {
		return
	}
	t.ticker.Stop()
	t.ticker = nil
}

// Running reports whether the task is started.
func (t *Task) Running() bool { return t.ticker != nil }

// Interval returns the tick period.
func (t *Task) Interval() time.Duration { return t.interval }

// C returns the tick channel, or nil when stopped so a select on it blocks.
func (t *Task) C() <-chan time.Time {
	if t.ticker == nil {
		return nil
	}
	return t.ticker.C()
}
