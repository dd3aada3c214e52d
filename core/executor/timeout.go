package executor

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// WithTimeout races op against a timer and ctx. Whichever finishes first
// decides the result; when the timer or ctx wins, fallback is returned and
// op's eventual result is discarded. op itself is not cancelled.
// A panic inside op is recovered and yields fallback.
func WithTimeout[T any](ctx context.Context, timeout time.Duration, fallback T, op func(ctx context.Context) T) T {
	result := make(chan T, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("operation panicked: %v", r)
				result <- fallback
			}
		}()
		result <- op(ctx)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v := <-result:
		return v
	case <-timer.C:
		return fallback
	case <-ctx.Done():
		return fallback
	}
}
