package capture

import (
	"context"
	"time"
)

// Clock is the time source used for pacing. Tests substitute a fake clock
// so that deadlines can be checked without real sleeps.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

// SystemClock returns a Clock backed by the time package.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// PacingClock computes per-frame wall-clock deadlines relative to a fixed
// start so that per-frame latency never accumulates into drift.
type PacingClock struct {
	clock Clock
	start time.Time
	fps   int64
}

// NewPacingClock anchors a pacing clock at clock.Now().
func NewPacingClock(clock Clock, fps int) *PacingClock {
	return &PacingClock{clock: clock, start: clock.Now(), fps: int64(fps)}
}

// Start returns the anchor instant.
func (p *PacingClock) Start() time.Time {
	return p.start
}

// Deadline returns start + frameIndex*interval. Each deadline is computed
// from the anchor, never from the previous deadline.
func (p *PacingClock) Deadline(frameIndex int) time.Time {
	if p.fps <= 0 {
		return p.start
	}
	return p.start.Add(time.Duration(int64(frameIndex) * int64(time.Second) / p.fps))
}

// WaitDuration is how long WaitForFrame would block right now. It is zero
// once the deadline has passed.
func (p *PacingClock) WaitDuration(frameIndex int) time.Duration {
	remaining := p.Deadline(frameIndex).Sub(p.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// WaitForFrame blocks until the deadline of frameIndex. An overrun deadline
// returns immediately without trying to catch up.
func (p *PacingClock) WaitForFrame(ctx context.Context, frameIndex int) error {
	d := p.WaitDuration(frameIndex)
	if d == 0 {
		return ctx.Err()
	}
	return p.clock.Sleep(ctx, d)
}
