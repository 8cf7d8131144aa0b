// Package retry wraps model calls with optional backoff and rate limiting.
//
// Model calls are attempted once by default. Backoff only applies when
// api_retries is set, and only to errors a client marked with Retryable.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	clog "github.com/xrsl/cvtailor/pkg/log"
)

// Config is an exponential backoff policy.
type Config struct {
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	JitterRatio float64 // fraction of the delay added or removed at random
}

// DefaultConfig returns the backoff shape used when retries are enabled.
// MaxRetries is 0; callers opt in with WithRetries.
func DefaultConfig() Config {
	return Config{
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
		JitterRatio: 0.1,
	}
}

// WithRetries returns a copy of c allowing n retries after the first attempt.
func (c Config) WithRetries(n int) Config {
	c.MaxRetries = max(n, 0)
	return c
}

type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks err as transient, such as an HTTP 429 or 5xx.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err was marked with Retryable.
func IsRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// Do calls fn until it succeeds, returns an unmarked error, or the retries
// in cfg run out. The returned error never carries the Retryable mark.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		var re *retryableError
		if !errors.As(err, &re) {
			return zero, err
		}
		if attempt >= cfg.MaxRetries {
			return zero, re.err
		}

		delay := cfg.backoff(attempt)
		clog.Debug("retrying model call", "attempt", attempt+1, "max_retries", cfg.MaxRetries, "delay", delay, "err", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c Config) backoff(attempt int) time.Duration {
	d := min(float64(c.BaseDelay)*math.Pow(c.Multiplier, float64(attempt)), float64(c.MaxDelay))
	if c.JitterRatio > 0 {
		d += d * c.JitterRatio * (rand.Float64()*2 - 1)
	}
	return time.Duration(d)
}

// RateLimiter spaces out requests to a model API.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter allows perSecond requests per second with a burst of one
// second's worth of requests. A non-positive rate disables limiting.
func NewRateLimiter(perSecond float64) *RateLimiter {
	if perSecond <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	burst := int(math.Ceil(perSecond))
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until a request may proceed or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}
