package battle

import (
	"context"
	"sync"
	"time"
)

// Pacer spaces out the presentation of resolved turns. It never changes what
// a battle resolves to.
type Pacer interface {
	// Wait blocks until the next turn may proceed or ctx is done.
	Wait(ctx context.Context) error
}

type noPacing struct{}

func (noPacing) Wait(context.Context) error { return nil }

// NoPacing resolves every turn immediately.
var NoPacing Pacer = noPacing{}

// TimedPacer holds each turn for a fixed interval. It is safe for concurrent
// use; concurrent waiters share the pending interval.
type TimedPacer struct {
	interval time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	waiters []chan struct{}
	stopped bool
}

// NewTimedPacer creates a pacer that releases a turn every interval.
//
// Precondition: interval > 0.
func NewTimedPacer(interval time.Duration) *TimedPacer {
	return &TimedPacer{interval: interval}
}

// Wait blocks for the pacer's interval. A stopped pacer returns at once.
//
// Postcondition: returns ctx.Err() if ctx ends first.
func (p *TimedPacer) Wait(ctx context.Context) error {
	ch := make(chan struct{})
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.waiters = append(p.waiters, ch)
	if p.timer == nil {
		p.timer = time.AfterFunc(p.interval, p.fire)
	}
	p.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		p.forget(ch)
		return ctx.Err()
	}
}

// fire releases every waiter of the elapsed interval.
func (p *TimedPacer) fire() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, ch := range p.waiters {
		close(ch)
	}
	p.waiters = nil
	p.timer = nil
}

func (p *TimedPacer) forget(ch chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, w := range p.waiters {
		if w == ch {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			break
		}
	}
}

// Stop releases all waiters and turns the pacer into a no-op. Safe to call
// multiple times.
//
// Postcondition: no Wait blocks after Stop returns.
func (p *TimedPacer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	for _, ch := range p.waiters {
		close(ch)
	}
	p.waiters = nil
}
