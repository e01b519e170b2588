package capture

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func deps(surface *fakeSurface, sink *memSink, clock *fakeClock) Deps {
	return Deps{Surface: surface, Sink: sink, Clock: clock}
}

func TestNewStrategy(t *testing.T) {
	surface := newFakeSurface(nil)
	d := Deps{Surface: surface, Sink: &memSink{}}

	tests := []struct {
		verdict Verdict
		want    string
	}{
		{Verdict{Method: MethodNone}, StrategyFixed},
		{Verdict{}, StrategyFixed},
		{Verdict{ShouldScroll: true, Method: MethodNative, ContentHeight: 3000}, StrategyPaged},
		{Verdict{ShouldScroll: true, Method: MethodWheel, NeedsReload: true}, StrategyWheel},
	}
	for _, tt := range tests {
		s, err := NewStrategy(tt.verdict, d)
		if err != nil {
			t.Fatalf("NewStrategy(%+v): %v", tt.verdict, err)
		}
		if s.Name() != tt.want {
			t.Errorf("NewStrategy(%+v) = %s, want %s", tt.verdict, s.Name(), tt.want)
		}
	}

	if p, _ := NewStrategy(Verdict{Method: MethodNative, ContentHeight: 3000}, d); p.(*PagedScroll).TotalHeight != 3000 {
		t.Errorf("paged strategy did not receive the content height")
	}
	if _, err := NewStrategy(Verdict{Method: "teleport"}, d); err == nil {
		t.Error("expected error for unknown method")
	}
	if _, err := NewStrategy(Verdict{}, Deps{Sink: &memSink{}}); !errors.Is(err, ErrNoSurface) {
		t.Errorf("error = %v, want ErrNoSurface", err)
	}
}

func TestFixedViewport_PacesFromStart(t *testing.T) {
	clock := newFakeClock()
	surface := newFakeSurface(clock)
	sink := &memSink{}
	s := &Session{ViewportWidth: 1280, ViewportHeight: 720, FPS: 10, Duration: time.Second}
	start := clock.Now()

	res, err := (&FixedViewport{deps(surface, sink, clock)}).Capture(context.Background(), s)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(res.Frames) != 10 {
		t.Fatalf("frames = %d, want 10", len(res.Frames))
	}
	assertContiguous(t, res.Frames)
	for i, f := range res.Frames {
		want := time.Duration(i) * 100 * time.Millisecond
		if got := f.CapturedAt.Sub(start); got != want {
			t.Errorf("frame %d captured at +%v, want +%v", i, got, want)
		}
	}
	if surface.scrolls != nil || surface.wheels != 0 {
		t.Error("fixed viewport moved the page")
	}
	if res.Strategy != StrategyFixed || res.PlannedFrames != 10 {
		t.Errorf("result = %+v", res)
	}
}

func TestFixedViewport_OverrunSkipsWaiting(t *testing.T) {
	clock := newFakeClock()
	surface := newFakeSurface(clock)
	surface.shotLatency = 150 * time.Millisecond
	sink := &memSink{}
	s := &Session{ViewportWidth: 1280, ViewportHeight: 720, FPS: 10, Duration: time.Second}

	res, err := (&FixedViewport{deps(surface, sink, clock)}).Capture(context.Background(), s)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(res.Frames) != 10 {
		t.Errorf("frames = %d, want 10", len(res.Frames))
	}
	if len(clock.slept) != 0 {
		t.Errorf("slept %v while every deadline was already overrun", clock.slept)
	}
}

func TestFixedViewport_FailedShotsKeepIndicesContiguous(t *testing.T) {
	clock := newFakeClock()
	surface := newFakeSurface(clock)
	surface.failShots = map[int]bool{2: true, 5: true, 6: true}
	sink := &memSink{}
	s := &Session{ViewportWidth: 1280, ViewportHeight: 720, FPS: 10, Duration: time.Second}

	res, err := (&FixedViewport{deps(surface, sink, clock)}).Capture(context.Background(), s)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(res.Frames) != 7 || res.Failures != 3 || res.Attempts != 10 {
		t.Errorf("frames=%d failures=%d attempts=%d, want 7/3/10", len(res.Frames), res.Failures, res.Attempts)
	}
	assertContiguous(t, res.Frames)
	if res.Frames[6].Locator != "mem://0006" {
		t.Errorf("last locator = %q", res.Frames[6].Locator)
	}
}

func TestFixedViewport_AllShotsFail(t *testing.T) {
	clock := newFakeClock()
	surface := newFakeSurface(clock)
	surface.failAll = true
	s := &Session{ViewportWidth: 1280, ViewportHeight: 720, FPS: 5, Duration: time.Second}

	res, err := (&FixedViewport{deps(surface, &memSink{}, clock)}).Capture(context.Background(), s)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(res.Frames) != 0 || res.Failures != 5 {
		t.Errorf("frames=%d failures=%d, want 0/5", len(res.Frames), res.Failures)
	}
}

func TestFixedViewport_PersistErrorIsFatal(t *testing.T) {
	clock := newFakeClock()
	surface := newFakeSurface(clock)
	sink := &memSink{failAt: map[int]bool{3: true}}
	s := &Session{ViewportWidth: 1280, ViewportHeight: 720, FPS: 10, Duration: time.Second}

	res, err := (&FixedViewport{deps(surface, sink, clock)}).Capture(context.Background(), s)
	if !IsPersistError(err) {
		t.Fatalf("error = %v, want PersistError", err)
	}
	var pe *PersistError
	if errors.As(err, &pe) && pe.Index != 3 {
		t.Errorf("PersistError.Index = %d, want 3", pe.Index)
	}
	if res == nil || len(res.Frames) != 3 {
		t.Errorf("expected the 3 frames stored before the failure, got %+v", res)
	}
	if surface.shotCalls != 4 {
		t.Errorf("shots = %d, capture continued after a persist failure", surface.shotCalls)
	}
}

func TestFixedViewport_Cancelled(t *testing.T) {
	clock := newFakeClock()
	surface := newFakeSurface(clock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &Session{ViewportWidth: 1280, ViewportHeight: 720, FPS: 10, Duration: time.Second}

	_, err := (&FixedViewport{deps(surface, &memSink{}, clock)}).Capture(ctx, s)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestPagedScroll_LongPage(t *testing.T) {
	clock := newFakeClock()
	surface := newFakeSurface(clock)
	sink := &memSink{}
	s := &Session{ViewportWidth: 1280, ViewportHeight: 720, FPS: 15, Duration: 10 * time.Second}

	res, err := (&PagedScroll{Deps: deps(surface, sink, clock), TotalHeight: 3000}).Capture(context.Background(), s)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(res.Frames) != 150 {
		t.Fatalf("frames = %d, want 150", len(res.Frames))
	}
	assertContiguous(t, res.Frames)

	want := []int{0, 570, 1140, 1710, 2280}
	if len(surface.scrolls) != len(want) {
		t.Fatalf("scrolls = %v, want %v", surface.scrolls, want)
	}
	for i := range want {
		if surface.scrolls[i] != want[i] {
			t.Errorf("scroll %d = %d, want %d", i, surface.scrolls[i], want[i])
		}
	}
	for _, w := range surface.waits {
		if w != 150*time.Millisecond {
			t.Errorf("settle wait = %v, want 150ms", w)
		}
	}

	// Frames 30..59 belong to the second segment.
	if !bytes.Equal(sink.data[30], []byte("pos=570")) {
		t.Errorf("frame 30 = %q, want pixels at offset 570", sink.data[30])
	}
}

func TestPagedScroll_ScrollErrorIsFatal(t *testing.T) {
	clock := newFakeClock()
	surface := newFakeSurface(clock)
	surface.scrollErr = errors.New("target closed")
	s := &Session{ViewportWidth: 1280, ViewportHeight: 720, FPS: 15, Duration: time.Second}

	_, err := (&PagedScroll{Deps: deps(surface, &memSink{}, clock), TotalHeight: 3000}).Capture(context.Background(), s)
	if err == nil {
		t.Fatal("expected error")
	}
	if surface.shotCalls != 0 {
		t.Errorf("shots = %d after a failed scroll", surface.shotCalls)
	}
}

func TestWheelDriven_StopsWhenPageStopsAdvancing(t *testing.T) {
	clock := newFakeClock()
	surface := newFakeSurface(clock)
	surface.maxWheelSteps = 2
	sink := &memSink{}
	s := &Session{ViewportWidth: 1280, ViewportHeight: 720, FPS: 5, Duration: 10 * time.Second}

	res, err := (&WheelDriven{deps(surface, sink, clock)}).Capture(context.Background(), s)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	// Segments of 7, 7 and 6 frames, then the terminal frame of segment 3.
	if len(res.Frames) != 21 {
		t.Fatalf("frames = %d, want 21", len(res.Frames))
	}
	assertContiguous(t, res.Frames)
	if !res.StoppedEarly {
		t.Error("StoppedEarly = false")
	}
	if surface.wheels != 3 {
		t.Errorf("wheels = %d, want 3", surface.wheels)
	}
	if last := sink.data[len(sink.data)-1]; !bytes.Equal(last, []byte("pos=2")) {
		t.Errorf("terminal frame = %q, want the final screen", last)
	}
	if surface.calls[0] != "cursor" {
		t.Errorf("first call = %q, want the pointer to be centred first", surface.calls[0])
	}
	for _, w := range surface.waits {
		if w != 800*time.Millisecond {
			t.Errorf("animation wait = %v, want 800ms", w)
		}
	}
}

func TestWheelDriven_RunsAllSegments(t *testing.T) {
	clock := newFakeClock()
	surface := newFakeSurface(clock)
	sink := &memSink{}
	s := &Session{ViewportWidth: 1280, ViewportHeight: 720, FPS: 5, Duration: 10 * time.Second}

	res, err := (&WheelDriven{deps(surface, sink, clock)}).Capture(context.Background(), s)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if len(res.Frames) != 50 || res.StoppedEarly {
		t.Errorf("frames=%d stoppedEarly=%v, want 50/false", len(res.Frames), res.StoppedEarly)
	}
	if surface.wheels != 7 {
		t.Errorf("wheels = %d, want 7", surface.wheels)
	}
}

func TestWheelDriven_LeadingFrameIsFirstSuccess(t *testing.T) {
	clock := newFakeClock()
	surface := newFakeSurface(clock)
	surface.maxWheelSteps = 1
	// The first shot of segment 1 (call 8) fails; the comparison uses the
	// next successful shot instead.
	surface.failShots = map[int]bool{8: true}
	sink := &memSink{}
	s := &Session{ViewportWidth: 1280, ViewportHeight: 720, FPS: 5, Duration: 10 * time.Second}

	res, err := (&WheelDriven{deps(surface, sink, clock)}).Capture(context.Background(), s)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	// Segment 0: 7 frames. Segment 1: 6 of 7 succeed. Segment 2: terminal.
	if len(res.Frames) != 14 || !res.StoppedEarly {
		t.Errorf("frames=%d stoppedEarly=%v, want 14/true", len(res.Frames), res.StoppedEarly)
	}
	assertContiguous(t, res.Frames)
}

func TestWheelDriven_WheelErrorIsFatal(t *testing.T) {
	clock := newFakeClock()
	surface := newFakeSurface(clock)
	surface.wheelErr = errors.New("input dispatch failed")
	s := &Session{ViewportWidth: 1280, ViewportHeight: 720, FPS: 5, Duration: 10 * time.Second}

	res, err := (&WheelDriven{deps(surface, &memSink{}, clock)}).Capture(context.Background(), s)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(res.Frames) != 7 {
		t.Errorf("frames = %d, want the 7 of segment 0", len(res.Frames))
	}
}
