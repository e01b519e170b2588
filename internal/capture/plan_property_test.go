package capture

import (
	"context"
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// For any budget and segment count, allocation sums to the budget, counts
// differ by at most one, and larger shares come first.
func TestAllocateFrames_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		total := rapid.IntRange(1, 1800).Draw(rt, "total")
		n := rapid.IntRange(1, total).Draw(rt, "n")

		counts := AllocateFrames(total, n)
		if len(counts) != n {
			rt.Fatalf("len = %d, want %d", len(counts), n)
		}
		sum := 0
		for i, c := range counts {
			sum += c
			if i > 0 && c > counts[i-1] {
				rt.Fatalf("counts not front-loaded: %v", counts)
			}
			if counts[0]-c > 1 {
				rt.Fatalf("counts differ by more than one: %v", counts)
			}
		}
		if sum != total {
			rt.Fatalf("sum = %d, want %d", sum, total)
		}
	})
}

// Paged plans stay within [1, totalFrames] segments, start at the top, end
// at the scroll max and never move backwards.
func TestPlanPaged_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		vh := rapid.IntRange(240, 4096).Draw(rt, "viewportHeight")
		height := rapid.IntRange(0, 50000).Draw(rt, "totalHeight")
		fps := rapid.IntRange(5, 30).Draw(rt, "fps")
		secs := rapid.IntRange(1, 60).Draw(rt, "seconds")
		s := &Session{ViewportHeight: vh, FPS: fps, Duration: time.Duration(secs) * time.Second}

		segments := PlanPaged(s, height)
		n := len(segments)
		if n < 1 || n > s.TotalFrames() {
			rt.Fatalf("segment count %d outside [1, %d]", n, s.TotalFrames())
		}
		if *segments[0].ScrollTarget != 0 {
			rt.Fatalf("first target = %d, want 0", *segments[0].ScrollTarget)
		}
		if n > 1 {
			if last := *segments[n-1].ScrollTarget; last != ScrollMax(height, vh) {
				rt.Fatalf("last target = %d, want %d", last, ScrollMax(height, vh))
			}
		}
		for i := 1; i < n; i++ {
			if *segments[i].ScrollTarget < *segments[i-1].ScrollTarget {
				rt.Fatalf("targets decrease at %d", i)
			}
		}
	})
}

func TestTotalFrames_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ms := rapid.Int64Range(0, 120000).Draw(rt, "durationMs")
		fps := rapid.IntRange(1, 60).Draw(rt, "fps")
		s := &Session{FPS: fps, Duration: time.Duration(ms) * time.Millisecond}

		want := int(ms * int64(fps) / 1000)
		if want < 1 {
			want = 1
		}
		if got := s.TotalFrames(); got != want {
			rt.Fatalf("TotalFrames() = %d, want %d", got, want)
		}
	})
}

// Whatever screenshots fail, stored indices are 0..k-1 and every attempt
// is accounted for.
func TestFixedViewport_GapFreeProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		fps := rapid.IntRange(5, 30).Draw(rt, "fps")
		secs := rapid.IntRange(1, 5).Draw(rt, "seconds")
		s := &Session{ViewportWidth: 1280, ViewportHeight: 720, FPS: fps, Duration: time.Duration(secs) * time.Second}
		total := s.TotalFrames()

		failing := map[int]bool{}
		for i := 1; i <= total; i++ {
			if rapid.Bool().Draw(rt, fmt.Sprintf("fail_%d", i)) {
				failing[i] = true
			}
		}

		clock := newFakeClock()
		surface := newFakeSurface(clock)
		surface.failShots = failing
		sink := &memSink{}

		res, err := (&FixedViewport{Deps{Surface: surface, Sink: sink, Clock: clock}}).Capture(context.Background(), s)
		if err != nil {
			rt.Fatalf("Capture: %v", err)
		}
		if res.Attempts != total {
			rt.Fatalf("attempts = %d, want %d", res.Attempts, total)
		}
		if len(res.Frames) != total-len(failing) {
			rt.Fatalf("frames = %d, want %d", len(res.Frames), total-len(failing))
		}
		for i, idx := range sink.indices {
			if idx != i {
				rt.Fatalf("sink saw index %d at position %d", idx, i)
			}
		}
	})
}
