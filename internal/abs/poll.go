package abs

import (
	"context"
	"time"
)

const (
	// rampSteps is the number of polls that wait 1s, 2s, ... before switching
	// to coarse polling.
	rampSteps = 10
	// coarseDelay is the wait between polls once a job has proven slow.
	coarseDelay = 30 * time.Second
)

// PollDelay returns how long to wait before the given poll (1-based):
// 1s, 2s, ... 10s, then 30s for every poll after that.
func PollDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > rampSteps {
		return coarseDelay
	}
	return time.Duration(attempt) * time.Second
}

// Clock is the time source of the poll loop.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
