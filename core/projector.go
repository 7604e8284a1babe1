package core

import (
	"sync"
	"time"

	"k8s.io/utils/clock"
)

const (
	DefaultThrottleInterval = time.Second
	// the first values go out unthrottled so that a view replaces its placeholder right away
	unthrottledEmissions = 2
)

// ThrottledProjector rate limits values on their way to a sink.
//
// The first two values are emitted immediately. After that at most one value is emitted per
// interval: the window starts at the first emission and restarts at every throttled emission.
// A value arriving inside the window is held, newer values replace it, and the held value is
// emitted when the window ends. The sink is called with the projector locked and must not call
// back into it.
type ThrottledProjector[T any] struct {
	mu       sync.Mutex
	clock    clock.WithDelayedExecution
	interval time.Duration
	equal    func(a, b T) bool
	sink     func(T)

	emitted    int
	anchor     time.Time
	last       T
	hasLast    bool
	pending    T
	hasPending bool
	timer      clock.Timer
	deadline   time.Time
	generation uint64
	closed     bool
}

type ProjectorOption[T any] func(*ThrottledProjector[T])

func WithInterval[T any](interval time.Duration) ProjectorOption[T] {
	return func(p *ThrottledProjector[T]) {
		p.interval = interval
	}
}

func WithClock[T any](c clock.WithDelayedExecution) ProjectorOption[T] {
	return func(p *ThrottledProjector[T]) {
		p.clock = c
	}
}

// WithEqual drops values equal to the previously observed one.
func WithEqual[T any](equal func(a, b T) bool) ProjectorOption[T] {
	return func(p *ThrottledProjector[T]) {
		p.equal = equal
	}
}

func NewThrottledProjector[T any](sink func(T), opts ...ProjectorOption[T]) *ThrottledProjector[T] {
	p := &ThrottledProjector[T]{
		clock:    clock.RealClock{},
		interval: DefaultThrottleInterval,
		sink:     sink,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Observe offers a new value.
func (p *ThrottledProjector[T]) Observe(v T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if p.equal != nil && p.hasLast && p.equal(p.last, v) {
		return
	}
	p.last, p.hasLast = v, true
	p.offerLocked(v)
}

// Reconfigure changes the interval. A held value is re-evaluated against the new interval.
func (p *ThrottledProjector[T]) Reconfigure(interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	held, hasHeld := p.pending, p.hasPending
	p.cancelLocked()
	p.interval = interval
	if hasHeld {
		p.offerLocked(held)
	}
}

// Close cancels any held value; nothing is emitted afterwards.
func (p *ThrottledProjector[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.cancelLocked()
}

func (p *ThrottledProjector[T]) offerLocked(v T) {
	now := p.clock.Now()
	switch {
	case p.emitted < unthrottledEmissions:
		if p.emitted == 0 {
			p.anchor = now
		}
		p.emitLocked(v)
	case now.Sub(p.anchor) >= p.interval:
		p.cancelLocked()
		p.anchor = now
		p.emitLocked(v)
	default:
		p.pending, p.hasPending = v, true
		if p.timer == nil {
			p.deadline = p.anchor.Add(p.interval)
			generation := p.generation
			p.timer = p.clock.AfterFunc(p.deadline.Sub(now), func() {
				p.fire(generation)
			})
		}
	}
}

// fire must not touch the clock: fake clocks run it while holding their own lock.
func (p *ThrottledProjector[T]) fire(generation uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || generation != p.generation {
		return
	}
	p.timer = nil
	if !p.hasPending {
		return
	}
	v := p.pending
	p.clearPendingLocked()
	p.anchor = p.deadline
	p.emitLocked(v)
}

func (p *ThrottledProjector[T]) emitLocked(v T) {
	if p.emitted < unthrottledEmissions {
		p.emitted++
	}
	projectionEmissionsCounter.Inc()
	p.sink(v)
}

func (p *ThrottledProjector[T]) cancelLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.generation++
	p.clearPendingLocked()
}

func (p *ThrottledProjector[T]) clearPendingLocked() {
	var zero T
	p.pending, p.hasPending = zero, false
}
