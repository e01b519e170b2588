// Package recorder runs one recording end to end: it opens the page,
// prepares it, picks a capture strategy, captures frames into a session
// directory and encodes them.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fpang/web-gif-recorder/internal/actions"
	"github.com/fpang/web-gif-recorder/internal/browser"
	"github.com/fpang/web-gif-recorder/internal/capture"
	"github.com/fpang/web-gif-recorder/internal/encoder"
	"github.com/fpang/web-gif-recorder/internal/framestore"
	"github.com/fpang/web-gif-recorder/internal/metrics"
)

// ErrNoFrames is returned when a capture run stored no frame at all.
var ErrNoFrames = errors.New("no frames captured")

// Browser is a loaded page that can be captured and scripted.
type Browser interface {
	capture.Surface
	actions.Target
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	ClearData(ctx context.Context) error
	Close() error
}

// LaunchFunc starts a browser.
type LaunchFunc func(ctx context.Context, opts browser.LaunchOptions) (Browser, error)

// Encoder turns a frame sequence into the final file.
type Encoder interface {
	Encode(ctx context.Context, job encoder.Job, progress chan<- encoder.Progress) (string, error)
}

// Recorder holds the collaborators of a recording. The zero value is not
// usable; use New.
type Recorder struct {
	Launch  LaunchFunc
	Encoder Encoder
	// CheckEncoder runs before the browser starts. Nil skips the check.
	CheckEncoder func() error
	Clock        capture.Clock
	// ProbeSettle overrides the classifier's probe wait when positive.
	ProbeSettle time.Duration
}

// New returns a Recorder backed by Chrome and FFmpeg.
func New() *Recorder {
	return &Recorder{
		Launch:       LaunchChrome,
		Encoder:      encoder.NewFFmpegEncoder(),
		CheckEncoder: encoder.CheckFFmpegAvailable,
		Clock:        capture.SystemClock(),
	}
}

// LaunchChrome starts a headless Chrome page.
func LaunchChrome(ctx context.Context, opts browser.LaunchOptions) (Browser, error) {
	page, err := browser.Launch(ctx, opts)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Output describes a finished recording.
type Output struct {
	Path          string
	Format        encoder.Format
	Width         int
	Height        int
	Frames        int
	PlannedFrames int
	Strategy      string
	StoppedEarly  bool
	SizeBytes     int64
	Elapsed       time.Duration

	PosterPath  string
	ArchivePath string
	// FramesDir is set when the session directory was kept.
	FramesDir string
}

// Record runs one recording.
func (r *Recorder) Record(ctx context.Context, opts Options) (out *Output, err error) {
	start := r.clock().Now()
	opts = opts.Normalize()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if r.CheckEncoder != nil {
		if err := r.CheckEncoder(); err != nil {
			return nil, err
		}
	}

	target := ApplyParams(opts.URL, opts.Params)
	width, height := opts.Viewport()
	logger := log.With().Str("url", target).Str("device", opts.Device).Logger()
	logger.Info().
		Int("width", width).
		Int("height", height).
		Int("fps", opts.FPS).
		Dur("duration", opts.Duration).
		Str("format", string(opts.Format)).
		Str("quality", opts.Quality).
		Msg("Starting recording")

	summary := metrics.Recording{Format: string(opts.Format)}
	defer func() {
		summary.Err = err
		metrics.FlushRecording(summary)
	}()

	sessionDir, err := framestore.NewSessionDir(opts.TempDir)
	if err != nil {
		return nil, err
	}
	if opts.KeepFrames {
		logger.Info().Str("dir", sessionDir).Msg("Keeping captured frames")
	} else {
		defer framestore.Cleanup(sessionDir)
	}

	dirSink := &framestore.DirSink{Dir: sessionDir}
	var sink capture.FrameSink = dirSink
	if opts.Mirror != nil {
		sink = &framestore.MultiSink{Primary: dirSink, Mirrors: []framestore.Sink{opts.Mirror}}
	}

	captureStart := r.clock().Now()
	result, err := r.capture(ctx, logger, opts, target, sink)
	if result != nil {
		summary.Strategy = result.Strategy
		summary.FramesCaptured = len(result.Frames)
		summary.FramesPlanned = result.PlannedFrames
		summary.Failures = result.Failures
		summary.StoppedEarly = result.StoppedEarly
	}
	summary.CaptureTime = r.clock().Now().Sub(captureStart)
	if err != nil {
		return nil, err
	}
	if len(result.Frames) == 0 {
		return nil, ErrNoFrames
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	outPath := encoder.OutputPath(opts.OutputDir, opts.URL, opts.Device, opts.Format, opts.Filename, time.Now())

	encodeStart := r.clock().Now()
	path, err := r.encode(ctx, opts, encoder.Job{
		FramePattern: dirSink.Pattern(),
		FrameCount:   len(result.Frames),
		FPS:          opts.FPS,
		Width:        width,
		Height:       height,
		DPI:          opts.DPI,
		Format:       opts.Format,
		Quality:      opts.Quality,
		OutputPath:   outPath,
	})
	summary.EncodeTime = r.clock().Now().Sub(encodeStart)
	if err != nil {
		return nil, err
	}

	out = &Output{
		Path:          path,
		Format:        opts.Format,
		Width:         width,
		Height:        height,
		Frames:        len(result.Frames),
		PlannedFrames: result.PlannedFrames,
		Strategy:      result.Strategy,
		StoppedEarly:  result.StoppedEarly,
	}
	if info, statErr := os.Stat(path); statErr == nil {
		out.SizeBytes = info.Size()
		summary.OutputBytes = info.Size()
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	if opts.Poster {
		posterPath := base + "_poster.png"
		if err := encoder.WritePoster(result.Frames[0].Locator, posterPath, encoder.DefaultPosterMaxDimension); err != nil {
			logger.Warn().Err(err).Msg("Failed to write poster")
		} else {
			out.PosterPath = posterPath
		}
	}
	if opts.ArchiveFrames {
		archivePath := base + "_frames.zip"
		if err := framestore.WriteArchiveFile(archivePath, result.Locators()); err != nil {
			logger.Warn().Err(err).Msg("Failed to archive frames")
		} else {
			out.ArchivePath = archivePath
		}
	}
	if opts.KeepFrames {
		out.FramesDir = sessionDir
	}

	out.Elapsed = r.clock().Now().Sub(start)
	logger.Info().
		Str("path", out.Path).
		Str("strategy", out.Strategy).
		Int("frames", out.Frames).
		Int64("bytes", out.SizeBytes).
		Dur("elapsed", out.Elapsed).
		Msg("Recording complete")
	return out, nil
}

// capture owns the browser for the capture phase; it is closed before
// encoding starts.
func (r *Recorder) capture(ctx context.Context, logger zerolog.Logger, opts Options, target string, sink capture.FrameSink) (*capture.Result, error) {
	b, err := r.Launch(ctx, browser.LaunchOptions{
		Device:     opts.Device,
		Width:      opts.Width,
		Height:     opts.Height,
		DPI:        opts.DPI,
		ChromePath: opts.ChromePath,
		ExtraFlags: opts.BrowserFlags,
	})
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close browser")
		}
	}()

	if err := b.ClearData(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to clear cookies and cache")
	}
	if err := b.Navigate(ctx, target, opts.LoadTimeout); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", target, err)
	}

	pageActions := actions.Parse(opts.Actions)
	if err := r.prepare(ctx, logger, b, opts, pageActions); err != nil {
		return nil, err
	}

	_, viewportHeight := b.Viewport()
	classifier := capture.NewClassifier(b)
	if r.ProbeSettle > 0 {
		classifier.ProbeSettle = r.ProbeSettle
	}
	verdict := classifier.Classify(ctx, viewportHeight)
	logger.Info().
		Bool("should_scroll", verdict.ShouldScroll).
		Str("method", string(verdict.Method)).
		Bool("needs_reload", verdict.NeedsReload).
		Int("content_height", verdict.ContentHeight).
		Msg("Page classified")

	if verdict.NeedsReload {
		if err := b.Reload(ctx); err != nil {
			return nil, fmt.Errorf("reload after probe: %w", err)
		}
		if err := r.prepare(ctx, logger, b, opts, pageActions); err != nil {
			return nil, err
		}
	}

	strategy, err := capture.NewStrategy(verdict, capture.Deps{Surface: b, Sink: sink, Clock: r.Clock})
	if err != nil {
		return nil, err
	}
	viewportWidth, _ := b.Viewport()
	session := &capture.Session{
		ViewportWidth:  viewportWidth,
		ViewportHeight: viewportHeight,
		FPS:            opts.FPS,
		Duration:       opts.Duration,
	}
	return strategy.Capture(ctx, session)
}

// prepare waits for the page to settle and runs the page actions.
func (r *Recorder) prepare(ctx context.Context, logger zerolog.Logger, b Browser, opts Options, pageActions []actions.Action) error {
	if opts.Stabilize > 0 {
		if err := b.Wait(ctx, opts.Stabilize); err != nil {
			return err
		}
	}
	logTheme(ctx, logger, b)
	if len(pageActions) > 0 {
		logger.Info().Int("count", len(pageActions)).Msg("Running page actions")
		if err := actions.Run(ctx, b, pageActions); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) encode(ctx context.Context, opts Options, job encoder.Job) (string, error) {
	if opts.OnProgress == nil {
		return r.Encoder.Encode(ctx, job, nil)
	}
	progress := make(chan encoder.Progress, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			opts.OnProgress(p)
		}
	}()
	path, err := r.Encoder.Encode(ctx, job, progress)
	<-done
	return path, err
}

func (r *Recorder) clock() capture.Clock {
	if r.Clock == nil {
		return capture.SystemClock()
	}
	return r.Clock
}

const themeScript = `(() => ({
	dark: document.documentElement.classList.contains('dark'),
	dataTheme: document.documentElement.getAttribute('data-theme') || '',
	background: document.body ? getComputedStyle(document.body).backgroundColor : ''
}))()`

type themeSnapshot struct {
	Dark       bool   `json:"dark"`
	DataTheme  string `json:"dataTheme"`
	Background string `json:"background"`
}

func logTheme(ctx context.Context, logger zerolog.Logger, s capture.Surface) {
	var theme themeSnapshot
	if err := s.EvaluateScript(ctx, themeScript, &theme); err != nil {
		logger.Debug().Err(err).Msg("Failed to read theme")
		return
	}
	logger.Debug().
		Bool("dark_class", theme.Dark).
		Str("data_theme", theme.DataTheme).
		Str("background", theme.Background).
		Msg("Page theme")
}
