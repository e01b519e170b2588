package capture

import "context"

// FixedViewport captures the page without moving it.
type FixedViewport struct {
	Deps
}

func (f *FixedViewport) Name() string { return StrategyFixed }

func (f *FixedViewport) Plan(s *Session) []Segment {
	return PlanFixed(s)
}

// Capture makes TotalFrames capture attempts back to back, paced from the
// moment the loop starts.
func (f *FixedViewport) Capture(ctx context.Context, s *Session) (*Result, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	segments := f.Plan(s)
	e := newEmitter(f.Deps, s, f.Name(), segments)
	e.logger.Info().Int("frames", s.TotalFrames()).Msg("Fixed viewport capture")

	for i := 0; i < segments[0].FrameCount; i++ {
		if err := e.captureOne(ctx); err != nil {
			return e.result, err
		}
	}
	return e.finish(), nil
}
