package seatsaero

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultRetryAfter is used when a 429 carries no usable Retry-After header
const DefaultRetryAfter = 5 * time.Second

// RetryPolicy bounds how often a rate-limited request is re-issued.
//
// Each 429 is followed by a wait taken from the Retry-After header (or
// DefaultDelay) and one identical re-send, at most MaxRetries times. A 429
// once the budget is spent is returned to the caller as an *APIError.
type RetryPolicy struct {
	// MaxRetries is the number of re-sends after the initial request.
	// Zero disables rate-limit recovery.
	MaxRetries int

	// DefaultDelay is the wait when the server gives no Retry-After.
	DefaultDelay time.Duration

	// MaxDelay caps any single wait. Zero means no cap.
	MaxDelay time.Duration
}

// DefaultRetryPolicy matches the seats.aero client defaults
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:   3,
	DefaultDelay: DefaultRetryAfter,
	MaxDelay:     2 * time.Minute,
}

// delay returns how long to wait before re-sending after resp
func (p RetryPolicy) delay(resp *http.Response, now time.Time) time.Duration {
	d := parseRetryAfter(resp.Header.Get("Retry-After"), now)
	if d < 0 {
		d = p.DefaultDelay
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// parseRetryAfter reads delta-seconds or an HTTP date. It returns -1 if the
// header is missing, unparseable, negative or not a finite number.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return -1
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
			return -1
		}
		// Saturate instead of overflowing; delay caps the result.
		if secs >= float64(math.MaxInt64)/float64(time.Second) {
			return time.Duration(math.MaxInt64)
		}
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
		return 0
	}
	return -1
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
