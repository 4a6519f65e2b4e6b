package graph

import (
	"errors"
	"math/rand"
	"time"
)

// ErrInvalidRetryPolicy is returned by RetryPolicy.Validate when the
// configured bounds are inconsistent.
var ErrInvalidRetryPolicy = errors.New("invalid retry policy")

// NodePolicy describes per-node execution settings. Currently only a
// timeout; retry and loop bounds live on the RetryNode/LoopNode composites
// themselves. The Engine does not read NodePolicy: every node runs under
// the single timeout set with WithDefaultNodeTimeout.
type NodePolicy struct {
	// Timeout is the maximum execution time for a node run. The Engine
	// does not apply it.
	Timeout time.Duration
}

// RetryPolicy configures RetryNode's bounded-retry-with-backoff behavior.
// Delay after attempt i is InitialDelay * BackoffMultiplier^(i-1), exactly
// as specified; Jitter is an explicit opt-in on top of that formula, not a
// default, since the deterministic formula is what the "retry counting"
// testable property describes.
type RetryPolicy struct {
	// MaxRetries is the number of retries after the first attempt; the
	// child runs at most MaxRetries+1 times. Must be >= 1.
	MaxRetries int

	// InitialDelay is the delay before the second attempt. Must be >= 0.
	InitialDelay time.Duration

	// BackoffMultiplier scales the delay after each subsequent attempt.
	// Must be > 0.
	BackoffMultiplier float64

	// Retryable reports whether an error should trigger another attempt.
	// A nil Retryable retries every error.
	Retryable func(error) bool

	// Jitter, when true, adds a random value in [0, currentDelay) on top
	// of the computed backoff delay. Off by default.
	Jitter bool
}

// Validate checks RetryPolicy's configured bounds.
func (rp *RetryPolicy) Validate() error {
	if rp.MaxRetries < 1 {
		return ErrInvalidRetryPolicy
	}
	if rp.InitialDelay < 0 {
		return ErrInvalidRetryPolicy
	}
	if rp.BackoffMultiplier <= 0 {
		return ErrInvalidRetryPolicy
	}
	return nil
}

// ComputeBackoff returns the delay to sleep before attempt number attempt
// (1-indexed: the delay before the 2nd attempt is ComputeBackoff(1, ...)).
// Exported so graph/composite's RetryNode can reuse it without duplicating
// the formula.
func ComputeBackoff(attempt int, initialDelay time.Duration, multiplier float64, jitter bool, rng *rand.Rand) time.Duration {
	delay := float64(initialDelay)
	for i := 1; i < attempt; i++ {
		delay *= multiplier
	}
	d := time.Duration(delay)
	if !jitter || d <= 0 {
		return d
	}
	if rng != nil {
		return d + time.Duration(rng.Int63n(int64(d)))
	}
	return d + time.Duration(rand.Int63n(int64(d))) // #nosec G404 -- jitter for retry timing, not security
}
