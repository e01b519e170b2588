package capture

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPacingClock_DeadlinesFromAnchor(t *testing.T) {
	clock := newFakeClock()
	p := NewPacingClock(clock, 15)

	// 1000/15 ms per frame; deadline 15 must land exactly one second in.
	if got := p.Deadline(15).Sub(p.Start()); got != time.Second {
		t.Errorf("Deadline(15) - start = %v, want 1s", got)
	}
	if got := p.Deadline(0); !got.Equal(p.Start()) {
		t.Errorf("Deadline(0) = %v, want start", got)
	}
}

func TestPacingClock_WaitsRemainingTime(t *testing.T) {
	clock := newFakeClock()
	p := NewPacingClock(clock, 10)

	clock.advance(30 * time.Millisecond)
	if err := p.WaitForFrame(context.Background(), 1); err != nil {
		t.Fatalf("WaitForFrame: %v", err)
	}
	if len(clock.slept) != 1 || clock.slept[0] != 70*time.Millisecond {
		t.Errorf("slept %v, want [70ms]", clock.slept)
	}
}

func TestPacingClock_OverrunDoesNotWait(t *testing.T) {
	clock := newFakeClock()
	p := NewPacingClock(clock, 10)

	// Frame 3 was due at 300ms; we are at 450ms.
	clock.advance(450 * time.Millisecond)
	if d := p.WaitDuration(3); d != 0 {
		t.Errorf("WaitDuration(3) = %v, want 0", d)
	}
	if err := p.WaitForFrame(context.Background(), 3); err != nil {
		t.Fatalf("WaitForFrame: %v", err)
	}
	if len(clock.slept) != 0 {
		t.Errorf("slept %v on an overrun deadline", clock.slept)
	}

	// Frame 5 is still 50ms away and is not pulled earlier to catch up.
	if d := p.WaitDuration(5); d != 50*time.Millisecond {
		t.Errorf("WaitDuration(5) = %v, want 50ms", d)
	}
}

func TestPacingClock_CancelledContext(t *testing.T) {
	clock := newFakeClock()
	p := NewPacingClock(clock, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.WaitForFrame(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("WaitForFrame() error = %v, want context.Canceled", err)
	}
}

func TestSystemClock_SleepRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := SystemClock().Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() error = %v, want context.Canceled", err)
	}
}
