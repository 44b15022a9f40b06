package export

// limiter.go bounds how many exports are serialized at once.
//
// Building a workbook holds the whole sheet in memory until it is written,
// so concurrent exports are limited with a semaphore. When all slots are
// occupied, new requests wait up to maxWait before failing with
// core.ErrExportBusy.

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/JonMunkholm/lineowners/internal/core"
)

// DefaultMaxConcurrent is the default limit for parallel exports.
const DefaultMaxConcurrent = 2

// DefaultMaxWait is how long to wait for a slot before rejecting.
const DefaultMaxWait = 10 * time.Second

// Limiter controls concurrent export processing using a semaphore.
type Limiter struct {
	semaphore chan struct{}
	maxWait   time.Duration
	active    atomic.Int64
}

// NewLimiter creates a limiter that allows at most maxConcurrent exports.
// Requests that cannot acquire a slot within maxWait get core.ErrExportBusy.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}

	return &Limiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire waits for an export slot.
// The caller MUST call Release() when the export completes (use defer).
func (l *Limiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.semaphore <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-timer.C:
		return core.ErrExportBusy
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release releases a previously acquired slot.
func (l *Limiter) Release() {
	l.active.Add(-1)
	<-l.semaphore
}

// Status is a snapshot of the limiter's state.
type Status struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *Limiter) Status() Status {
	return Status{
		Active:        int(l.active.Load()),
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}

// WaitForDrain blocks until all active exports complete or ctx is done.
// Used for graceful shutdown.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.active.Load() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Write acquires a slot and serializes rows in the given format.
func (l *Limiter) Write(ctx context.Context, w io.Writer, f Format, columns []string, rows []core.Row, opts Options) error {
	if err := l.Acquire(ctx); err != nil {
		return &core.ExportError{Format: string(f), Err: err}
	}
	defer l.Release()

	return Write(w, f, columns, rows, opts)
}
