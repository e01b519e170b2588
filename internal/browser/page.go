// Package browser drives headless Chrome over the DevTools protocol and
// exposes a page as a render surface for capture.
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// DefaultLoadTimeout bounds Navigate.
const DefaultLoadTimeout = 30 * time.Second

// LaunchOptions configures a browser instance.
type LaunchOptions struct {
	Device     string
	Width      int
	Height     int
	DPI        int
	ChromePath string
	// Headful shows the browser window. Used for debugging only.
	Headful bool
	// ExtraFlags are additional Chrome command line switches, e.g.
	// "single-process" for Lambda.
	ExtraFlags map[string]any
}

// Page is one browser tab. It owns the browser process and must be closed.
type Page struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc

	profile Profile
	width   int
	height  int
	cursorX float64
	cursorY float64
}

// Launch starts Chrome with the device profile and viewport of opts. The
// browser lives until Close or until ctx is cancelled.
func Launch(ctx context.Context, opts LaunchOptions) (*Page, error) {
	profile := ProfileFor(opts.Device)
	width, height := opts.Width, opts.Height
	if width <= 0 || height <= 0 {
		width, height = profile.Width, profile.Height
	}
	width, height = ClampViewport(width, height)
	dpi := max(1, opts.DPI)

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !opts.Headful),
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-features", "IsolateOrigins,site-per-process,TranslateUI"),
		chromedp.Flag("disable-smooth-scrolling", true),
		chromedp.Flag("disk-cache-size", "0"),
		chromedp.Flag("high-dpi-support", true),
		chromedp.Flag("force-device-scale-factor", fmt.Sprint(dpi)),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("mute-audio", true),
		chromedp.WindowSize(width, height),
		chromedp.UserAgent(profile.UserAgent),
	)
	if path := ResolveChromePath(opts.ChromePath); path != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(path))
	}
	for k, v := range opts.ExtraFlags {
		allocOpts = append(allocOpts, chromedp.Flag(k, v))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			log.Debug().Msgf(format, args...)
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			log.Debug().Msgf("chromedp: "+format, args...)
		}),
	)

	emulate := []chromedp.EmulateViewportOption{chromedp.EmulateScale(float64(dpi))}
	if profile.Mobile {
		emulate = append(emulate, chromedp.EmulateMobile)
	}
	if profile.Touch {
		emulate = append(emulate, chromedp.EmulateTouch)
	}
	if profile.Landscape {
		emulate = append(emulate, chromedp.EmulateLandscape)
	} else {
		emulate = append(emulate, chromedp.EmulatePortrait)
	}

	if err := chromedp.Run(tabCtx, chromedp.EmulateViewport(int64(width), int64(height), emulate...)); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	log.Info().
		Str("device", profile.Name).
		Int("width", width).
		Int("height", height).
		Int("dpi", dpi).
		Bool("headless", !opts.Headful).
		Msg("Browser started")

	return &Page{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		profile:     profile,
		width:       width,
		height:      height,
	}, nil
}

// run executes actions on the tab, bounded by ctx's cancellation and
// deadline.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(p.ctx, deadline)
	} else {
		runCtx, cancel = context.WithCancel(p.ctx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Profile returns the emulated device.
func (p *Page) Profile() Profile { return p.profile }

// Viewport returns the CSS pixel size of the visible area.
func (p *Page) Viewport() (int, int) { return p.width, p.height }

// Navigate loads url and waits for the load event, up to timeout.
func (p *Page) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultLoadTimeout
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.run(navCtx, chromedp.Navigate(url)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("navigate %s: timed out after %s", url, timeout)
		}
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// ClearData drops cookies and the HTTP cache.
func (p *Page) ClearData(ctx context.Context) error {
	return p.run(ctx, network.ClearBrowserCookies(), network.ClearBrowserCache())
}

func (p *Page) EvaluateScript(ctx context.Context, expr string, out any) error {
	return p.run(ctx, chromedp.Evaluate(expr, out))
}

// Screenshot captures the visible viewport as PNG.
func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := p.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}

func (p *Page) ScrollTo(ctx context.Context, y int) error {
	return p.EvaluateScript(ctx, fmt.Sprintf("window.scrollTo({top: %d, left: 0, behavior: 'instant'})", y), nil)
}

// Wheel dispatches one wheel event at the current pointer position.
func (p *Page) Wheel(ctx context.Context, deltaY int) error {
	return p.run(ctx, input.DispatchMouseEvent(input.MouseWheel, p.cursorX, p.cursorY).
		WithDeltaX(0).
		WithDeltaY(float64(deltaY)))
}

func (p *Page) MoveCursor(ctx context.Context, x, y float64) error {
	if err := p.run(ctx, input.DispatchMouseEvent(input.MouseMoved, x, y)); err != nil {
		return err
	}
	p.cursorX, p.cursorY = x, y
	return nil
}

func (p *Page) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p *Page) Reload(ctx context.Context) error {
	return p.run(ctx, chromedp.Reload())
}

func (p *Page) Click(ctx context.Context, selector string) error {
	return p.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

// Hover moves the pointer to the centre of the first element matching
// selector.
func (p *Page) Hover(ctx context.Context, selector string) error {
	var centre []float64
	if err := p.EvaluateScript(ctx, elementCentreScript(selector), &centre); err != nil {
		return err
	}
	if len(centre) != 2 {
		return fmt.Errorf("hover %s: element not found", selector)
	}
	return p.MoveCursor(ctx, centre[0], centre[1])
}

func (p *Page) Type(ctx context.Context, selector, text string) error {
	return p.run(ctx, chromedp.SendKeys(selector, text, chromedp.ByQuery))
}

func (p *Page) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.run(waitCtx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

// Close shuts down the tab and the browser process.
func (p *Page) Close() error {
	p.cancelTab()
	p.cancelAlloc()
	log.Debug().Msg("Browser closed")
	return nil
}

func elementCentreScript(selector string) string {
	quoted, _ := json.Marshal(selector)
	return fmt.Sprintf(`(() => {
  const el = document.querySelector(%s);
  if (!el) return [];
  el.scrollIntoView({block: 'nearest'});
  const r = el.getBoundingClientRect();
  return [r.left + r.width / 2, r.top + r.height / 2];
})()`, quoted)
}
