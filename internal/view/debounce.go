package view

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into one trailing call, used
// to keep the filter pass off the keystroke path. Each Trigger replaces
// any pending call.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = 150 * time.Millisecond
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules fn after the debounce delay, cancelling any call
// still pending from an earlier trigger.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
