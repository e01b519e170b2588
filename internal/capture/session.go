package capture

import (
	"time"
)

// Session holds the immutable per-recording parameters. It is owned by the
// caller and passed by pointer to the classifier and the chosen strategy.
type Session struct {
	ViewportWidth  int
	ViewportHeight int
	FPS            int
	Duration       time.Duration
}

// TotalFrames returns max(1, floor(durationSeconds * fps)). The product is
// taken in integer milliseconds so that e.g. 290ms at 100fps yields 29.
func (s *Session) TotalFrames() int {
	n := s.Duration.Milliseconds() * int64(s.FPS) / 1000
	if n < 1 {
		return 1
	}
	return int(n)
}

// FrameIntervalMs is the target spacing between frames in milliseconds.
func (s *Session) FrameIntervalMs() float64 {
	if s.FPS <= 0 {
		return 0
	}
	return 1000 / float64(s.FPS)
}

// DurationMs returns the session duration in whole milliseconds.
func (s *Session) DurationMs() int64 {
	return s.Duration.Milliseconds()
}

// Segment is one block of the frame budget tied to a single page position.
// ScrollTarget is nil for strategies that move the page relatively.
type Segment struct {
	Index        int
	FrameCount   int
	ScrollTarget *int
}

// Frame describes one stored capture. The image bytes themselves belong to
// the FrameSink once stored.
type Frame struct {
	Index      int
	CapturedAt time.Time
	Locator    string
	Size       int
}

// Result is the outcome of one strategy run.
type Result struct {
	Strategy      string
	Frames        []Frame
	PlannedFrames int
	Segments      []Segment
	Attempts      int
	Failures      int

	// StoppedEarly is set when WheelDriven detected that the page stopped
	// advancing before the planned segments were exhausted.
	StoppedEarly bool
}

// Locators returns the frame locators in index order.
func (r *Result) Locators() []string {
	out := make([]string, len(r.Frames))
	for i, f := range r.Frames {
		out[i] = f.Locator
	}
	return out
}
