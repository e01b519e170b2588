package recorder

import (
	"math"

	"github.com/fpang/web-gif-recorder/internal/capture"
)

// SegmentPreview is one planned segment.
type SegmentPreview struct {
	Index        int  `json:"index"`
	Frames       int  `json:"frames"`
	ScrollTarget *int `json:"scrollTarget,omitempty"`
}

// StrategyPreview is the plan one strategy would follow.
type StrategyPreview struct {
	Strategy string           `json:"strategy"`
	Segments []SegmentPreview `json:"segments"`
	// SettleMs is the wait after each scroll or wheel step.
	SettleMs int64 `json:"settleMs,omitempty"`
}

// Preview is the capture plan for a set of options, computed without a
// browser.
type Preview struct {
	URL             string            `json:"url"`
	Width           int               `json:"width"`
	Height          int               `json:"height"`
	FPS             int               `json:"fps"`
	DurationMs      int64             `json:"durationMs"`
	TotalFrames     int               `json:"totalFrames"`
	FrameIntervalMs float64           `json:"frameIntervalMs"`
	Plans           []StrategyPreview `json:"plans"`
}

// Plan validates opts and returns the frame plans of the fixed and wheel
// strategies, plus the paged plan when contentHeight makes the page a long
// page for the viewport.
func Plan(opts Options, contentHeight int) (*Preview, error) {
	opts = opts.Normalize()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	width, height := opts.Viewport()
	s := &capture.Session{
		ViewportWidth:  width,
		ViewportHeight: height,
		FPS:            opts.FPS,
		Duration:       opts.Duration,
	}

	p := &Preview{
		URL:             ApplyParams(opts.URL, opts.Params),
		Width:           width,
		Height:          height,
		FPS:             opts.FPS,
		DurationMs:      s.DurationMs(),
		TotalFrames:     s.TotalFrames(),
		FrameIntervalMs: math.Round(s.FrameIntervalMs()*100) / 100,
	}
	p.Plans = append(p.Plans, StrategyPreview{
		Strategy: capture.StrategyFixed,
		Segments: segmentPreviews(capture.PlanFixed(s)),
	})
	if float64(contentHeight) > capture.LongPageRatio*float64(height) {
		p.Plans = append(p.Plans, StrategyPreview{
			Strategy: capture.StrategyPaged,
			Segments: segmentPreviews(capture.PlanPaged(s, contentHeight)),
			SettleMs: capture.ScrollSettle(s).Milliseconds(),
		})
	}
	p.Plans = append(p.Plans, StrategyPreview{
		Strategy: capture.StrategyWheel,
		Segments: segmentPreviews(capture.PlanWheel(s)),
		SettleMs: capture.WheelAnimationWait(s.DurationMs()).Milliseconds(),
	})
	return p, nil
}

func segmentPreviews(segments []capture.Segment) []SegmentPreview {
	out := make([]SegmentPreview, len(segments))
	for i, seg := range segments {
		out[i] = SegmentPreview{Index: seg.Index, Frames: seg.FrameCount, ScrollTarget: seg.ScrollTarget}
	}
	return out
}
