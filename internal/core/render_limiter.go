package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTooManyRenders is returned when no render slot frees up within the
// limiter's wait budget.
var ErrTooManyRenders = errors.New("too many concurrent renders, please try again later")

const (
	DefaultMaxConcurrentRenders = 3
	DefaultMaxWaitTime          = 30 * time.Second
)

// RenderLimiter bounds how many PDF exports drive headless Chrome at once.
// CSV and XLSX exports never pass through it.
type RenderLimiter struct {
	sem     *semaphore.Weighted
	slots   int
	maxWait time.Duration

	mu     sync.Mutex
	active int
	idle   chan struct{} // closed while active == 0
}

// NewRenderLimiter returns a limiter with the given number of slots. A
// render that cannot start within maxWait fails with ErrTooManyRenders.
func NewRenderLimiter(slots int, maxWait time.Duration) *RenderLimiter {
	if slots <= 0 {
		slots = DefaultMaxConcurrentRenders
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	idle := make(chan struct{})
	close(idle)
	return &RenderLimiter{
		sem:     semaphore.NewWeighted(int64(slots)),
		slots:   slots,
		maxWait: maxWait,
		idle:    idle,
	}
}

// Do runs render while holding a slot. Cancellation of ctx while waiting is
// returned as ctx.Err(), not ErrTooManyRenders.
func (l *RenderLimiter) Do(ctx context.Context, render func(context.Context) error) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	err := l.sem.Acquire(waitCtx, 1)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyRenders
	}
	defer l.sem.Release(1)

	l.begin()
	defer l.end()
	return render(ctx)
}

func (l *RenderLimiter) begin() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == 0 {
		l.idle = make(chan struct{})
	}
	l.active++
}

func (l *RenderLimiter) end() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active--
	if l.active == 0 {
		close(l.idle)
	}
}

// WaitForDrain blocks until no render is in flight or ctx is done.
func (l *RenderLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RenderLimiterStatus is reported by /healthz.
type RenderLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns a snapshot of the limiter.
func (l *RenderLimiter) Status() RenderLimiterStatus {
	l.mu.Lock()
	active := l.active
	l.mu.Unlock()
	return RenderLimiterStatus{
		Active:        active,
		Available:     l.slots - active,
		MaxConcurrent: l.slots,
	}
}
