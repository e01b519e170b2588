package capture

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var errShot = errors.New("screenshot timed out")

// fakeClock advances only when something sleeps on it.
type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeSurface renders "pages" whose pixels depend only on the current
// position. Wheel moves the position by one screen until maxWheelSteps.
type fakeSurface struct {
	clock *fakeClock

	width, height int
	contentHeight int
	heightErr     error

	// position is the scroll offset for ScrollTo and the screen number for
	// Wheel.
	position      int
	wheels        int
	maxWheelSteps int
	static        bool

	shotLatency time.Duration
	shotCalls   int
	failShots   map[int]bool // 1-based screenshot call numbers that fail
	failAll     bool

	wheelErr error
	scrollErr error

	scrolls []int
	waits   []time.Duration
	calls   []string
	cursor  [2]float64
	reloads int
}

func newFakeSurface(clock *fakeClock) *fakeSurface {
	return &fakeSurface{clock: clock, width: 1280, height: 720, maxWheelSteps: 1 << 30}
}

func (s *fakeSurface) EvaluateScript(_ context.Context, expr string, out any) error {
	s.calls = append(s.calls, "eval")
	if s.heightErr != nil {
		return s.heightErr
	}
	if p, ok := out.(*float64); ok && expr == ContentHeightScript {
		*p = float64(s.contentHeight)
		return nil
	}
	return fmt.Errorf("unexpected script %q", expr)
}

func (s *fakeSurface) Screenshot(_ context.Context) ([]byte, error) {
	s.shotCalls++
	s.calls = append(s.calls, "shot")
	if s.clock != nil {
		s.clock.advance(s.shotLatency)
	}
	if s.failAll || s.failShots[s.shotCalls] {
		return nil, errShot
	}
	if s.static {
		return []byte("static"), nil
	}
	return []byte(fmt.Sprintf("pos=%d", s.position)), nil
}

func (s *fakeSurface) ScrollTo(_ context.Context, y int) error {
	s.calls = append(s.calls, fmt.Sprintf("scroll:%d", y))
	if s.scrollErr != nil {
		return s.scrollErr
	}
	s.scrolls = append(s.scrolls, y)
	s.position = y
	return nil
}

func (s *fakeSurface) Wheel(_ context.Context, deltaY int) error {
	s.calls = append(s.calls, fmt.Sprintf("wheel:%d", deltaY))
	if s.wheelErr != nil {
		return s.wheelErr
	}
	s.wheels++
	if s.position < s.maxWheelSteps {
		s.position++
	}
	return nil
}

func (s *fakeSurface) MoveCursor(_ context.Context, x, y float64) error {
	s.calls = append(s.calls, "cursor")
	s.cursor = [2]float64{x, y}
	return nil
}

func (s *fakeSurface) Wait(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, "wait")
	s.waits = append(s.waits, d)
	if s.clock != nil {
		return s.clock.Sleep(ctx, d)
	}
	return nil
}

func (s *fakeSurface) Reload(_ context.Context) error {
	s.reloads++
	s.position = 0
	return nil
}

func (s *fakeSurface) Viewport() (int, int) { return s.width, s.height }

// memSink keeps frames in memory.
type memSink struct {
	indices []int
	data    [][]byte
	failAt  map[int]bool
}

func (m *memSink) Store(_ context.Context, index int, data []byte) (string, error) {
	if m.failAt[index] {
		return "", errors.New("disk full")
	}
	m.indices = append(m.indices, index)
	m.data = append(m.data, data)
	return fmt.Sprintf("mem://%04d", index), nil
}

func assertContiguous(t interface {
	Helper()
	Fatalf(string, ...any)
}, frames []Frame) {
	t.Helper()
	for i, f := range frames {
		if f.Index != i {
			t.Fatalf("frame %d has index %d, want contiguous indices from 0", i, f.Index)
		}
	}
}
