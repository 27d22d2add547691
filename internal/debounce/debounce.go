// Package debounce collapses bursts of calls into one trailing call.
package debounce

import (
	"sync"
	"time"
)

// Timer is the cancellable handle returned by a Clock.
type Timer interface {
	Stop() bool
}

// Clock schedules deferred work.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Option configures a Debouncer.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// Debouncer invokes fn once the input has been quiet for delay, with the most
// recent value passed to Call. fn runs on the clock's goroutine.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(T)
	clock   Clock
	timer   Timer
	seq     uint64
	pending bool
	value   T
}

// New creates a debouncer with the given quiet period.
func New[T any](delay time.Duration, fn func(T), opts ...Option) *Debouncer[T] {
	o := options{clock: realClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &Debouncer[T]{delay: delay, fn: fn, clock: o.clock}
}

// Call records v and restarts the quiet period. Any previously scheduled
// invocation is dropped.
func (d *Debouncer[T]) Call(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.seq++
	seq := d.seq
	d.value = v
	d.pending = true
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(seq) })
}

// Cancel drops the pending invocation, if any.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.seq++
	d.pending = false
}

// Flush runs the pending invocation now instead of waiting. It reports
// whether anything was pending.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return false
	}
	d.stopLocked()
	d.seq++
	d.pending = false
	v := d.value
	d.mu.Unlock()

	d.fn(v)
	return true
}

// Pending reports whether an invocation is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer[T]) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	v := d.value
	d.mu.Unlock()

	d.fn(v)
}

func (d *Debouncer[T]) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
