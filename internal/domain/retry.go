package domain

import (
	"fmt"
	"math"
	"time"
)

const longestDelay = time.Duration(math.MaxInt64)

// BackoffMode selects how the delay grows between retries.
type BackoffMode string

// Supported backoff modes.
const (
	BackoffFixed       BackoffMode = "fixed"
	BackoffLinear      BackoffMode = "linear"
	BackoffExponential BackoffMode = "exponential"
)

// ParseBackoffMode converts a configuration value into a BackoffMode.
func ParseBackoffMode(s string) (BackoffMode, error) {
	switch mode := BackoffMode(s); mode {
	case BackoffFixed, BackoffLinear, BackoffExponential:
		return mode, nil
	default:
		return "", fmt.Errorf("%w: unknown backoff mode %q", ErrInvalidRetryPolicy, s)
	}
}

// RetryPolicy holds the retry settings for transient build failures.
// MaxRetries counts re-runs after the first attempt.
type RetryPolicy struct {
	Mode       BackoffMode
	Initial    time.Duration
	Max        time.Duration
	MaxRetries int
}

// DefaultRetryPolicy retries once after a fixed ten second pause.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Mode: BackoffFixed, Initial: 10 * time.Second, Max: 10 * time.Second, MaxRetries: 1}
}

// NewRetryPolicy builds a policy from raw config fields. Zero or unknown values
// fall back to DefaultRetryPolicy; a negative maxRetries keeps the default.
func NewRetryPolicy(mode BackoffMode, initial, maxDelay time.Duration, maxRetries int) RetryPolicy {
	p := DefaultRetryPolicy()

	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}

	if initial > 0 {
		p.Initial = initial
	}

	if maxDelay > 0 {
		p.Max = maxDelay
	} else if p.Initial > p.Max {
		p.Max = p.Initial
	}

	if _, err := ParseBackoffMode(string(mode)); err == nil {
		p.Mode = mode
	}

	if p.Initial > p.Max {
		p.Initial = p.Max
	}

	return p
}

// Delay returns the pause before the given retry (1-based). A zero Max
// leaves the growth uncapped; the result saturates instead of overflowing.
func (p RetryPolicy) Delay(retry int) time.Duration {
	if retry <= 0 || p.Initial <= 0 {
		return 0
	}

	var d time.Duration

	switch p.Mode {
	case BackoffLinear:
		if time.Duration(retry) > longestDelay/p.Initial {
			d = longestDelay
		} else {
			d = time.Duration(retry) * p.Initial
		}
	case BackoffExponential:
		d = p.Initial
		for i := 1; i < retry; i++ {
			if d > longestDelay/2 {
				d = longestDelay
				break
			}

			d *= 2
			if p.Max > 0 && d >= p.Max {
				return p.Max
			}
		}
	default:
		d = p.Initial
	}

	if p.Max > 0 && d > p.Max {
		return p.Max
	}

	return d
}

// Validate reports policies that cannot be applied.
func (p RetryPolicy) Validate() error {
	if p.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries cannot be negative", ErrInvalidRetryPolicy)
	}

	if p.Initial < 0 || p.Max < 0 {
		return fmt.Errorf("%w: delays cannot be negative", ErrInvalidRetryPolicy)
	}

	if p.Max > 0 && p.Max < p.Initial {
		return fmt.Errorf("%w: max delay %s is below initial delay %s", ErrInvalidRetryPolicy, p.Max, p.Initial)
	}

	if _, err := ParseBackoffMode(string(p.Mode)); err != nil {
		return err
	}

	return nil
}
