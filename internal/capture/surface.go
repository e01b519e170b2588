package capture

import (
	"context"
	"time"
)

// Surface is the render surface a session drives. Implementations are
// expected to complete each call (including any layout work it triggers on
// their side) before returning.
type Surface interface {
	// EvaluateScript runs expr in the page and unmarshals the result into out.
	EvaluateScript(ctx context.Context, expr string, out any) error
	// Screenshot returns the visible viewport as encoded image bytes.
	Screenshot(ctx context.Context) ([]byte, error)
	// ScrollTo sets the absolute vertical scroll offset.
	ScrollTo(ctx context.Context, y int) error
	// Wheel dispatches one mouse wheel event at the current pointer position.
	Wheel(ctx context.Context, deltaY int) error
	MoveCursor(ctx context.Context, x, y float64) error
	Wait(ctx context.Context, d time.Duration) error
	Reload(ctx context.Context) error
	// Viewport returns the CSS pixel size of the visible area.
	Viewport() (width, height int)
}

// FrameSink persists frames. Locators are opaque to the capture package.
type FrameSink interface {
	Store(ctx context.Context, index int, data []byte) (string, error)
}

// ContentHeightScript reads the conventional scrollable height of the page.
const ContentHeightScript = `document.body ? document.body.scrollHeight : 0`

// ContentHeight evaluates ContentHeightScript on s.
func ContentHeight(ctx context.Context, s Surface) (int, error) {
	var h float64
	if err := s.EvaluateScript(ctx, ContentHeightScript, &h); err != nil {
		return 0, err
	}
	return int(h), nil
}
