package capture

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Method is how the page is moved between segments.
type Method string

const (
	MethodNone   Method = "none"
	MethodNative Method = "native"
	MethodWheel  Method = "wheel"
)

// Verdict is the one-time classification of a page.
type Verdict struct {
	ShouldScroll bool
	Method       Method

	// NeedsReload is set when the probe itself moved the page. The caller
	// must reset the surface before capturing.
	NeedsReload bool

	// ContentHeight is the scroll height read during classification, or 0
	// when it could not be read.
	ContentHeight int
}

// LongPageRatio is the content/viewport height ratio above which a page is
// treated as a conventional long page.
const LongPageRatio = 1.5

// DefaultProbeSettle is the wait between the probe wheel event and the
// second probe capture.
const DefaultProbeSettle = 1000 * time.Millisecond

// Classifier decides whether a page needs to be moved during capture.
type Classifier struct {
	Surface     Surface
	ProbeSettle time.Duration
}

// NewClassifier returns a Classifier with the default probe settle window.
func NewClassifier(s Surface) *Classifier {
	return &Classifier{Surface: s, ProbeSettle: DefaultProbeSettle}
}

// Classify inspects the page once. It never fails: probe errors fall back
// to a static verdict.
func (c *Classifier) Classify(ctx context.Context, viewportHeight int) Verdict {
	height, err := ContentHeight(ctx, c.Surface)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read content height, probing instead")
		height = 0
	}

	if float64(height) > LongPageRatio*float64(viewportHeight) {
		log.Info().
			Int("content_height", height).
			Int("viewport_height", viewportHeight).
			Msg("Long page detected, using native scroll")
		return Verdict{ShouldScroll: true, Method: MethodNative, ContentHeight: height}
	}

	moved, err := c.probe(ctx, viewportHeight)
	if err != nil {
		log.Warn().Err(err).Msg("Motion probe failed, falling back to fixed viewport")
		return Verdict{Method: MethodNone, ContentHeight: height}
	}
	if moved {
		log.Info().
			Int("content_height", height).
			Msg("Page moved under wheel input, using wheel-driven capture")
		return Verdict{ShouldScroll: true, Method: MethodWheel, NeedsReload: true, ContentHeight: height}
	}

	log.Info().Int("content_height", height).Msg("Page is static, using fixed viewport")
	return Verdict{Method: MethodNone, ContentHeight: height}
}

// probe wheels the page by one viewport and reports whether the visible
// pixels changed.
func (c *Classifier) probe(ctx context.Context, viewportHeight int) (bool, error) {
	before, err := c.Surface.Screenshot(ctx)
	if err != nil {
		return false, fmt.Errorf("baseline screenshot: %w", err)
	}

	w, h := c.Surface.Viewport()
	if err := c.Surface.MoveCursor(ctx, float64(w)/2, float64(h)/2); err != nil {
		return false, fmt.Errorf("move cursor: %w", err)
	}
	if err := c.Surface.Wheel(ctx, viewportHeight); err != nil {
		return false, fmt.Errorf("wheel: %w", err)
	}

	settle := c.ProbeSettle
	if settle <= 0 {
		settle = DefaultProbeSettle
	}
	if err := c.Surface.Wait(ctx, settle); err != nil {
		return false, fmt.Errorf("settle: %w", err)
	}

	after, err := c.Surface.Screenshot(ctx)
	if err != nil {
		return false, fmt.Errorf("probe screenshot: %w", err)
	}

	return !bytes.Equal(before, after), nil
}
