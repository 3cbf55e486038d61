package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("backoff never exceeds the max interval", prop.ForAll(
		func(initialNs, maxNs int64, multiplier float64, attempt int) bool {
			opts := Options{
				InitialInterval: time.Duration(initialNs),
				MaxInterval:     time.Duration(maxNs),
				Multiplier:      multiplier,
			}
			backoff := Backoff(attempt, opts)

			if backoff > opts.MaxInterval {
				return false
			}
			if attempt == 1 && backoff != opts.InitialInterval {
				return false
			}
			return true
		},
		gen.Int64Range(int64(10*time.Millisecond), int64(100*time.Millisecond)),
		gen.Int64Range(int64(1*time.Second), int64(5*time.Second)),
		gen.Float64Range(1.1, 3.0),
		gen.IntRange(1, 10),
	))

	properties.Property("backoff grows monotonically until capped", prop.ForAll(
		func(attempt int) bool {
			opts := Options{
				InitialInterval: 10 * time.Millisecond,
				MaxInterval:     time.Second,
				Multiplier:      2.0,
			}
			return Backoff(attempt, opts) <= Backoff(attempt+1, opts)
		},
		gen.IntRange(1, 12),
	))

	properties.Property("jitter only ever shortens the wait", prop.ForAll(
		func(ns int64, jitter float64) bool {
			d := time.Duration(ns)
			j := jittered(d, jitter)
			return j <= d && j >= time.Duration(float64(d)*(1-jitter))
		},
		gen.Int64Range(int64(time.Millisecond), int64(time.Second)),
		gen.Float64Range(0.01, 0.99),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestDo_StopsAfterMaxAttempts(t *testing.T) {
	attempts := 0
	boom := errors.New("boom")

	err := Do(context.Background(), func() error {
		attempts++
		return boom
	}, Options{
		MaxAttempts:     4,
		InitialInterval: time.Microsecond,
		MaxInterval:     time.Millisecond,
		Multiplier:      2.0,
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 4, attempts)
}

func TestDo_SucceedsMidway(t *testing.T) {
	attempts := 0

	err := Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, Options{
		MaxAttempts:     5,
		InitialInterval: time.Microsecond,
		MaxInterval:     time.Millisecond,
		Multiplier:      2.0,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_ClassifierStopsRetries(t *testing.T) {
	attempts := 0
	fatal := errors.New("not found")

	err := Do(context.Background(), func() error {
		attempts++
		return fatal
	}, Options{
		MaxAttempts:     5,
		InitialInterval: time.Microsecond,
		MaxInterval:     time.Millisecond,
		Multiplier:      2.0,
		Classifier: func(err error) bool {
			return !errors.Is(err, fatal)
		},
	})

	require.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, attempts)
}

func TestDo_ContextCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := Do(ctx, func() error {
		attempts++
		cancel()
		return errors.New("transient")
	}, Options{
		MaxAttempts:     5,
		InitialInterval: time.Minute,
		MaxInterval:     time.Hour,
		Multiplier:      2.0,
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}
