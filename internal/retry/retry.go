package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Func is a function that can be retried.
type Func func() error

// Classifier reports whether an error is worth retrying.
type Classifier func(error) bool

// Options is the single backoff policy shared by every caller that retries.
type Options struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	// Jitter is the fraction of the computed interval randomized away,
	// in [0, 1). Zero disables jitter.
	Jitter     float64
	Classifier Classifier
}

// DefaultOptions returns a set of sensible default retry options.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:     3,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		Jitter:          0.2,
		Classifier: func(err error) bool {
			return true
		},
	}
}

// Do executes fn with exponential backoff between attempts. It returns nil
// on the first success, the error unchanged when the classifier rules it
// non-retryable, and the last error once attempts are exhausted. Sleeps are
// cut short by context cancellation.
func Do(ctx context.Context, fn Func, opts Options) error {
	var lastErr error

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if opts.Classifier != nil && !opts.Classifier(err) {
			return err
		}

		if attempt == opts.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jittered(Backoff(attempt, opts), opts.Jitter)):
		}
	}

	return lastErr
}

// Backoff returns the base interval for a given attempt number, before jitter.
func Backoff(attempt int, opts Options) time.Duration {
	if attempt <= 1 {
		return opts.InitialInterval
	}

	interval := float64(opts.InitialInterval) * math.Pow(opts.Multiplier, float64(attempt-1))
	if interval > float64(opts.MaxInterval) {
		return opts.MaxInterval
	}
	return time.Duration(interval)
}

func jittered(d time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return d
	}
	// Spread the interval over [d*(1-jitter), d] so retries from concurrent
	// runs do not line up.
	delta := time.Duration(jitter * rand.Float64() * float64(d))
	return d - delta
}
