package loadtester

import (
	"context"
	"time"
)

// Clock reads the current time; swapped out in tests.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time {
	return time.Now()
}

// Sleeper blocks between retry attempts.
//
// The stop signal never interrupts a sleep; only the next attempt observes it.
// Context cancellation (process shutdown) does.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration)
}

type timerSleeper struct{}

func (timerSleeper) Sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
