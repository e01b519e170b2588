package capture

import (
	"bytes"
	"context"
	"fmt"
)

// WheelDriven captures pages that move under wheel input but expose no
// usable scroll height (snap-scrolling or virtualised single-page apps).
// The frame budget is divided over time instead of distance, and the run
// stops early once a wheel step no longer changes the page.
type WheelDriven struct {
	Deps
}

func (w *WheelDriven) Name() string { return StrategyWheel }

func (w *WheelDriven) Plan(s *Session) []Segment {
	return PlanWheel(s)
}

func (w *WheelDriven) Capture(ctx context.Context, s *Session) (*Result, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}
	segments := w.Plan(s)
	animationWait := WheelAnimationWait(s.DurationMs())
	e := newEmitter(w.Deps, s, w.Name(), segments)

	e.logger.Info().
		Int("segments", len(segments)).
		Int("frames", s.TotalFrames()).
		Float64("interval_ms", WheelIntervalMs(s.DurationMs())).
		Dur("animation_wait", animationWait).
		Msg("Wheel-driven capture")

	vw, vh := w.Surface.Viewport()
	if err := w.Surface.MoveCursor(ctx, float64(vw)/2, float64(vh)/2); err != nil {
		e.logger.Debug().Err(err).Msg("Could not centre pointer")
	}

	var previousLeading []byte
	for _, seg := range segments {
		if seg.Index > 0 {
			if err := w.Surface.Wheel(ctx, s.ViewportHeight); err != nil {
				return e.result, fmt.Errorf("capture: wheel segment %d: %w", seg.Index, err)
			}
			if err := w.Surface.Wait(ctx, animationWait); err != nil {
				return e.result, fmt.Errorf("capture: settle after wheel: %w", err)
			}
		}

		stop, err := w.captureSegment(ctx, e, seg, &previousLeading)
		if err != nil {
			return e.result, err
		}
		if stop {
			e.result.StoppedEarly = true
			e.logger.Info().
				Int("segment", seg.Index).
				Int("planned_segments", len(segments)).
				Msg("Page stopped advancing, ending capture early")
			break
		}
	}
	return e.finish(), nil
}

// captureSegment captures the frames of one segment. The first successful
// frame is compared with the previous segment's first frame; a byte-equal
// match is stored as the terminal frame and ends the run.
func (w *WheelDriven) captureSegment(ctx context.Context, e *emitter, seg Segment, previousLeading *[]byte) (bool, error) {
	leading := true
	for i := 0; i < seg.FrameCount; i++ {
		data, ok, err := e.shoot(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}

		terminal := false
		if leading {
			leading = false
			terminal = seg.Index > 0 && *previousLeading != nil && bytes.Equal(*previousLeading, data)
			*previousLeading = data
		}

		if err := e.store(ctx, data); err != nil {
			return false, err
		}
		if terminal {
			return true, nil
		}
	}
	return false, nil
}
