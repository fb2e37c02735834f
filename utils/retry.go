package utils

import (
	"errors"
	"fmt"
	"time"
)

// FetchErrorKind classifies a fetch failure for retry decisions. The
// classification is an explicit enum rather than string matching so the
// retry policy stays testable.
type FetchErrorKind int

const (
	// Transient covers timeouts, rate limiting (429), 5xx responses and
	// connection resets. Worth retrying.
	Transient FetchErrorKind = iota
	// Permanent covers bad URLs and non-rate-limit 4xx responses. Retrying
	// will not help.
	Permanent
)

// FetchError carries the classification alongside the underlying error.
type FetchError struct {
	Kind   FetchErrorKind
	Status int // HTTP status when known, 0 otherwise
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("fetch failed (HTTP %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ClassifyStatus maps an HTTP status code to a FetchError, or nil for a
// successful response.
func ClassifyStatus(status int, url string) *FetchError {
	switch {
	case status == 429:
		return &FetchError{Kind: Transient, Status: status,
			Err: fmt.Errorf("rate limited: %s", url)}
	case status >= 500:
		return &FetchError{Kind: Transient, Status: status,
			Err: fmt.Errorf("server error: %s", url)}
	case status >= 400:
		return &FetchError{Kind: Permanent, Status: status,
			Err: fmt.Errorf("request rejected: %s", url)}
	}
	return nil
}

// RetryController executes operations with linear back-off, retrying only
// failures classified as transient.
type RetryController struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *Logger
}

// Do runs fn up to MaxAttempts times, waiting BaseDelay*attempt between
// attempts. A permanent failure aborts immediately without retry.
func (r *RetryController) Do(operationName string, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var fe *FetchError
		if errors.As(lastErr, &fe) && fe.Kind == Permanent {
			r.Logger.Warn("[retry] %s failed permanently, not retrying: %v",
				operationName, lastErr)
			return lastErr
		}

		if attempt < r.MaxAttempts {
			delay := r.BaseDelay * time.Duration(attempt)
			r.Logger.Warn("[retry] %s failed (attempt %d/%d): %v — retrying in %v",
				operationName, attempt, r.MaxAttempts, lastErr, delay)
			time.Sleep(delay)
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, r.MaxAttempts, lastErr)
}
