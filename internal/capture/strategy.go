package capture

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Strategy names as reported in Result.Strategy, logs and metrics.
const (
	StrategyFixed = "fixed"
	StrategyPaged = "paged"
	StrategyWheel = "wheel"
)

// Strategy produces the ordered frames of one session.
type Strategy interface {
	Name() string
	Plan(s *Session) []Segment
	Capture(ctx context.Context, s *Session) (*Result, error)
}

// Deps are the collaborators shared by every strategy.
type Deps struct {
	Surface Surface
	Sink    FrameSink
	Clock   Clock
}

func (d Deps) validate() error {
	if d.Surface == nil {
		return ErrNoSurface
	}
	if d.Sink == nil {
		return fmt.Errorf("capture: frame sink is required")
	}
	return nil
}

func (d Deps) clock() Clock {
	if d.Clock == nil {
		return SystemClock()
	}
	return d.Clock
}

// NewStrategy picks the strategy matching a verdict.
func NewStrategy(v Verdict, deps Deps) (Strategy, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	switch v.Method {
	case MethodNative:
		return &PagedScroll{Deps: deps, TotalHeight: v.ContentHeight}, nil
	case MethodWheel:
		return &WheelDriven{Deps: deps}, nil
	case MethodNone, "":
		return &FixedViewport{Deps: deps}, nil
	default:
		return nil, fmt.Errorf("capture: unknown motion method %q", v.Method)
	}
}

// emitter owns the frame index and the pacing clock of one run. It is the
// only place frames are numbered, so indices stay gap-free.
type emitter struct {
	deps   Deps
	pacing *PacingClock
	result *Result
	logger zerolog.Logger
}

func newEmitter(deps Deps, s *Session, name string, segments []Segment) *emitter {
	return &emitter{
		deps:   deps,
		pacing: NewPacingClock(deps.clock(), s.FPS),
		result: &Result{
			Strategy:      name,
			PlannedFrames: s.TotalFrames(),
			Segments:      segments,
		},
		logger: log.With().Str("strategy", name).Logger(),
	}
}

// next is the index the next stored frame will get.
func (e *emitter) next() int {
	return len(e.result.Frames)
}

// shoot takes one screenshot. A failed screenshot is logged and reported as
// ok=false; only context cancellation is returned as an error.
func (e *emitter) shoot(ctx context.Context) (data []byte, ok bool, err error) {
	e.result.Attempts++
	data, err = e.deps.Surface.Screenshot(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		e.result.Failures++
		e.logger.Warn().Err(err).Int("frame", e.next()).Msg("Screenshot failed, skipping frame")
		return nil, false, nil
	}
	return data, true, nil
}

// store hands data to the sink under the next index, then waits for the
// deadline of the following frame.
func (e *emitter) store(ctx context.Context, data []byte) error {
	index := e.next()
	capturedAt := e.deps.clock().Now()
	locator, err := e.deps.Sink.Store(ctx, index, data)
	if err != nil {
		e.logger.Error().Err(err).Int("frame", index).Msg("Failed to persist frame")
		return &PersistError{Index: index, Err: err}
	}
	e.result.Frames = append(e.result.Frames, Frame{
		Index:      index,
		CapturedAt: capturedAt,
		Locator:    locator,
		Size:       len(data),
	})
	if index == 0 {
		e.logger.Debug().Int("bytes", len(data)).Msg("First frame stored")
	}
	return e.pacing.WaitForFrame(ctx, index+1)
}

// captureOne is shoot followed by store.
func (e *emitter) captureOne(ctx context.Context) error {
	data, ok, err := e.shoot(ctx)
	if err != nil || !ok {
		return err
	}
	return e.store(ctx, data)
}

func (e *emitter) finish() *Result {
	e.logger.Info().
		Int("frames", len(e.result.Frames)).
		Int("planned", e.result.PlannedFrames).
		Int("failures", e.result.Failures).
		Bool("stopped_early", e.result.StoppedEarly).
		Msg("Capture complete")
	return e.result
}
