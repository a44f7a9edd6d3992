package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/contaflow/contaflow/internal/service"
)

// ErrMaxRetries indicates that all retry attempts have been exhausted.
var ErrMaxRetries = errors.New("max retries exceeded")

// RetryableError wraps an error with retry-specific metadata.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// permanent reports whether err was explicitly marked non-retryable.
func permanent(err error) bool {
	var re *RetryableError
	return errors.As(err, &re) && !re.Retryable
}

// WithRetry runs operation until it succeeds, the context is canceled, or
// opts.MaxAttempts is reached. Delays grow by opts.Multiplier up to
// opts.MaxDelay; a rate-limited attempt waits the full MaxDelay before the
// next try. Zero-valued options fall back to sensible defaults.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	opts = opts.WithDefaults()

	delay := opts.InitialDelay
	for attempt := 1; ; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		if permanent(err) {
			return err
		}
		if attempt >= opts.MaxAttempts {
			return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, opts.MaxAttempts, err)
		}

		wait := delay
		if errors.Is(err, ErrBillingRateLimit) {
			wait = opts.MaxDelay
		}
		slog.Warn("operation failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", wait,
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * opts.Multiplier)
		if delay > opts.MaxDelay {
			delay = opts.MaxDelay
		}
	}
}
