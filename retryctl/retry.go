// Package retryctl implements the retry controller the invocation engine
// drives around one request attempt: a predicate deciding whether an
// anomaly is worth retrying, and a backoff function deciding how long to
// wait before the next attempt, mirroring the exponential-backoff retry
// loop the teacher wrote around DynamoDB throttling in its batch writer.
package retryctl

import (
	"context"
	"time"

	"github.com/gurre/awsapi/anomaly"
)

// Predicate reports whether a failed attempt's anomaly should be retried.
// It must return immediately; it never blocks the calling goroutine.
type Predicate func(a *anomaly.Anomaly) bool

// Backoff returns how long to wait before attempt (0-indexed) is retried,
// and whether a retry should happen at all. It must compute immediately;
// it never sleeps itself.
type Backoff func(attempt int) (time.Duration, bool)

// DefaultPredicate retries the three transient anomaly categories: busy,
// interrupted, unavailable.
func DefaultPredicate(a *anomaly.Anomaly) bool {
	return a.Retriable()
}

// DefaultBackoff implements min(20000, 100*2^attempts) milliseconds for
// up to 3 attempts, then gives up.
func DefaultBackoff(attempt int) (time.Duration, bool) {
	if attempt >= 3 {
		return 0, false
	}
	ms := 100 * (int64(1) << uint(attempt))
	if ms > 20000 {
		ms = 20000
	}
	return time.Duration(ms) * time.Millisecond, true
}

// Result is the outcome of Controller.Run: the last attempt's value and
// anomaly, plus how many attempts were made.
type Result struct {
	Value    any
	Anomaly  *anomaly.Anomaly
	Attempts int
}

// Controller drives the attempt/retry loop around a single unit of work.
// A zero-value Controller uses DefaultPredicate and DefaultBackoff.
type Controller struct {
	Retriable Predicate
	Backoff   Backoff
}

// NewController builds a Controller with the given predicate and backoff,
// falling back to the defaults when either is nil.
func NewController(retriable Predicate, backoff Backoff) *Controller {
	if retriable == nil {
		retriable = DefaultPredicate
	}
	if backoff == nil {
		backoff = DefaultBackoff
	}
	return &Controller{Retriable: retriable, Backoff: backoff}
}

// Run calls fn until it succeeds, its anomaly is not retriable, the
// backoff function says stop, or ctx is cancelled. fn is called at least
// once.
func (c *Controller) Run(ctx context.Context, fn func(ctx context.Context, attempt int) (any, *anomaly.Anomaly)) Result {
	retriable := c.Retriable
	if retriable == nil {
		retriable = DefaultPredicate
	}
	backoff := c.Backoff
	if backoff == nil {
		backoff = DefaultBackoff
	}

	attempt := 0
	for {
		val, a := fn(ctx, attempt)
		attempt++
		if a == nil {
			return Result{Value: val, Attempts: attempt}
		}
		if !retriable(a) {
			return Result{Value: val, Anomaly: a, Attempts: attempt}
		}
		wait, ok := backoff(attempt - 1)
		if !ok {
			return Result{Value: val, Anomaly: a, Attempts: attempt}
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return Result{Value: val, Anomaly: anomaly.New(anomaly.Interrupted).WithData("cause", ctx.Err()), Attempts: attempt}
		}
	}
}
