package capture

import (
	"math"
	"time"
)

// Wheel pacing bounds. Short recordings advance every 1.2s so animations are
// not cut off; recordings of 30s or more settle on one screen every 2s.
const (
	MinWheelIntervalMs = 1200
	MaxWheelIntervalMs = 2000

	wheelRampStartMs = 10000
	wheelRampSpanMs  = 20000

	// minWheelAnimationWait is the floor of the post-wheel settle window.
	minWheelAnimationWait = 800 * time.Millisecond
	// wheelCaptureAllowanceMs is reserved out of each interval for capturing.
	wheelCaptureAllowanceMs = 500

	minScrollSettle = 150 * time.Millisecond
	maxScrollSettle = 600 * time.Millisecond
)

// AllocateFrames splits totalFrames over n segments. The first
// totalFrames%n segments get one extra frame.
func AllocateFrames(totalFrames, n int) []int {
	if n < 1 {
		n = 1
	}
	base := totalFrames / n
	remainder := totalFrames % n
	counts := make([]int, n)
	for i := range counts {
		counts[i] = base
		if i < remainder {
			counts[i]++
		}
	}
	return counts
}

// ScrollMax is the largest useful absolute scroll offset.
func ScrollMax(totalHeight, viewportHeight int) int {
	return max(0, totalHeight-viewportHeight)
}

// PagedSegmentCount returns min(ceil(totalHeight/viewportHeight), totalFrames),
// floored at 1.
func PagedSegmentCount(totalHeight, viewportHeight, totalFrames int) int {
	if viewportHeight <= 0 {
		return 1
	}
	steps := (totalHeight + viewportHeight - 1) / viewportHeight
	n := min(steps, totalFrames)
	return max(1, n)
}

// ScrollTarget returns round(scrollMax * i/(n-1)), or 0 when n == 1.
func ScrollTarget(scrollMax, i, n int) int {
	if n <= 1 {
		return 0
	}
	return int(math.Round(float64(scrollMax) * float64(i) / float64(n-1)))
}

// PlanPaged builds the segments of a PagedScroll run.
func PlanPaged(s *Session, totalHeight int) []Segment {
	total := s.TotalFrames()
	n := PagedSegmentCount(totalHeight, s.ViewportHeight, total)
	scrollMax := ScrollMax(totalHeight, s.ViewportHeight)
	counts := AllocateFrames(total, n)

	segments := make([]Segment, n)
	for i := range segments {
		target := ScrollTarget(scrollMax, i, n)
		segments[i] = Segment{Index: i, FrameCount: counts[i], ScrollTarget: &target}
	}
	return segments
}

// ScrollSettle is the post-scroll wait: the frame interval clamped to
// [150ms, 600ms].
func ScrollSettle(s *Session) time.Duration {
	d := time.Duration(math.Round(s.FrameIntervalMs())) * time.Millisecond
	return min(max(d, minScrollSettle), maxScrollSettle)
}

// WheelIntervalMs scales linearly from 1200ms at <=10s to 2000ms at >=30s.
func WheelIntervalMs(durationMs int64) float64 {
	ratio := float64(durationMs-wheelRampStartMs) / wheelRampSpanMs
	ratio = math.Min(1, math.Max(0, ratio))
	return MinWheelIntervalMs + ratio*(MaxWheelIntervalMs-MinWheelIntervalMs)
}

// WheelSegmentCount returns max(1, floor(duration/interval)).
func WheelSegmentCount(durationMs int64) int {
	n := int(math.Floor(float64(durationMs) / WheelIntervalMs(durationMs)))
	return max(1, n)
}

// WheelAnimationWait is max(800ms, interval-500ms).
func WheelAnimationWait(durationMs int64) time.Duration {
	ms := WheelIntervalMs(durationMs) - wheelCaptureAllowanceMs
	d := time.Duration(ms * float64(time.Millisecond))
	return max(d, minWheelAnimationWait)
}

// PlanWheel builds the segments of a WheelDriven run. Segments carry no
// scroll target because the page is moved relatively.
func PlanWheel(s *Session) []Segment {
	n := WheelSegmentCount(s.DurationMs())
	counts := AllocateFrames(s.TotalFrames(), n)
	segments := make([]Segment, n)
	for i := range segments {
		segments[i] = Segment{Index: i, FrameCount: counts[i]}
	}
	return segments
}

// PlanFixed is the single segment of a FixedViewport run.
func PlanFixed(s *Session) []Segment {
	return []Segment{{Index: 0, FrameCount: s.TotalFrames()}}
}
