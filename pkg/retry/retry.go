// Package retry runs an operation again after transient failures,
// backing off exponentially between attempts.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Config bounds the retry loop.
type Config struct {
	Attempts int           // total attempts, minimum 1
	BaseWait time.Duration // wait before the second attempt
	MaxWait  time.Duration // backoff ceiling
}

// DefaultConfig covers short RPC-style calls.
func DefaultConfig() Config {
	return Config{
		Attempts: 3,
		BaseWait: 200 * time.Millisecond,
		MaxWait:  5 * time.Second,
	}
}

// transientError marks an error worth another attempt.
type transientError struct {
	err error
}

func (e transientError) Error() string { return e.err.Error() }
func (e transientError) Unwrap() error { return e.err }

// Transient wraps err so Do will retry after it. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return transientError{err: err}
}

// IsTransient reports whether err was marked with Transient.
func IsTransient(err error) bool {
	var te transientError
	return errors.As(err, &te)
}

// Do calls fn until it succeeds, fails permanently, runs out of
// attempts, or ctx is cancelled. Only errors marked Transient are
// retried. The wait doubles each round, capped at MaxWait, with up to
// 25% random jitter.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	wait := cfg.BaseWait

	var err error
	for attempt := 0; attempt < cfg.Attempts; attempt++ {
		if attempt > 0 {
			d := wait + time.Duration(rand.Int63n(int64(wait)/4+1))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
			}
			wait *= 2
			if wait > cfg.MaxWait {
				wait = cfg.MaxWait
			}
		}

		err = fn(ctx)
		if err == nil || !IsTransient(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}
