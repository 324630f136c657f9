package research

import (
	"context"
	"fmt"
	"time"
)

// Retry calls fn up to attempts times, sleeping delay between failures.
// The last error is returned after the attempts are exhausted. A single
// exhausted retry is scoped to the caller's unit of work; it never
// cancels sibling work.
func Retry(ctx context.Context, attempts int, delay time.Duration, op string, fn func() error) error {
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		fmt.Printf("Warning: %s failed (attempt %d/%d): %v\n", op, attempt, attempts, err)

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
