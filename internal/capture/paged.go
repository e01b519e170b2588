package capture

import (
	"context"
	"fmt"
)

// PagedScroll divides a conventionally scrollable page into evenly spaced
// scroll positions and spends a share of the frame budget at each.
type PagedScroll struct {
	Deps
	TotalHeight int
}

func (p *PagedScroll) Name() string { return StrategyPaged }

func (p *PagedScroll) Plan(s *Session) []Segment {
	return PlanPaged(s, p.TotalHeight)
}

func (p *PagedScroll) Capture(ctx context.Context, s *Session) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	segments := p.Plan(s)
	settle := ScrollSettle(s)
	e := newEmitter(p.Deps, s, p.Name(), segments)

	e.logger.Info().
		Int("segments", len(segments)).
		Int("frames", s.TotalFrames()).
		Int("total_height", p.TotalHeight).
		Int("scroll_max", ScrollMax(p.TotalHeight, s.ViewportHeight)).
		Dur("settle", settle).
		Msg("Paged scroll capture")

	for _, seg := range segments {
		target := *seg.ScrollTarget
		if err := p.Surface.ScrollTo(ctx, target); err != nil {
			return e.result, fmt.Errorf("capture: scroll to %d: %w", target, err)
		}
		if err := p.Surface.Wait(ctx, settle); err != nil {
			return e.result, fmt.Errorf("capture: settle after scroll: %w", err)
		}
		for i := 0; i < seg.FrameCount; i++ {
			if err := e.captureOne(ctx); err != nil {
				return e.result, err
			}
		}
	}
	return e.finish(), nil
}
