package recorder

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/fpang/web-gif-recorder/internal/browser"
	"github.com/fpang/web-gif-recorder/internal/config"
	"github.com/fpang/web-gif-recorder/internal/encoder"
	"github.com/fpang/web-gif-recorder/internal/framestore"
)

// Accepted ranges.
const (
	MinDuration = 1 * time.Second
	MaxDuration = 60 * time.Second
	MinFPS      = 5
	MaxFPS      = 30
	MinWidth    = 320
	MaxWidth    = 4096
	MinHeight   = 240
	MaxHeight   = 4096
	MinDPI      = 1
	MaxDPI      = 3
)

// Defaults applied by Normalize.
const (
	DefaultDuration  = 15 * time.Second
	DefaultFPS       = 15
	DefaultStabilize = 4000 * time.Millisecond
)

var filenamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,100}$`)

// Options describe one recording.
type Options struct {
	URL      string
	Device   string
	Duration time.Duration
	FPS      int
	// Width and Height of 0 use the device profile.
	Width  int
	Height int
	// DPI of 0 picks 2 for ultra quality and 1 otherwise.
	DPI     int
	Format  encoder.Format
	Quality string

	// Params is a comma separated list of key:value query parameters.
	Params string
	// Actions is the page action script, see actions.Parse.
	Actions string
	// Filename overrides the derived output name (without extension).
	Filename string

	OutputDir   string
	TempDir     string
	ChromePath  string
	LoadTimeout time.Duration
	Stabilize   time.Duration
	// BrowserFlags are extra Chrome switches.
	BrowserFlags map[string]any

	KeepFrames    bool
	Poster        bool
	ArchiveFrames bool

	// Mirror receives a copy of every frame, e.g. a framestore.S3Sink.
	Mirror framestore.Sink
	// OnProgress is called with encoder progress updates.
	OnProgress func(encoder.Progress)
}

// OptionsFromConfig seeds Options with configured defaults. Callers then
// override individual fields from flags or requests.
func OptionsFromConfig(cfg *config.Config) Options {
	format, err := encoder.ParseFormat(cfg.Encode.Format)
	if err != nil {
		format = encoder.Format(cfg.Encode.Format)
	}
	return Options{
		Device:      cfg.Capture.Device,
		Duration:    time.Duration(cfg.Capture.DurationSeconds) * time.Second,
		FPS:         cfg.Capture.FPS,
		Width:       cfg.Viewport.Width,
		Height:      cfg.Viewport.Height,
		DPI:         cfg.Capture.DPI,
		Format:      format,
		Quality:     cfg.Encode.Quality,
		OutputDir:   cfg.Output.Dir,
		TempDir:     cfg.Output.TempDir,
		ChromePath:  cfg.Browser.ChromePath,
		LoadTimeout: cfg.Browser.LoadTimeout(),
		Stabilize:   cfg.Browser.Stabilize(),
	}
}

// Normalize fills unset fields with defaults. Explicit values are kept even
// when they are out of range; Validate reports those.
func (o Options) Normalize() Options {
	o.URL = strings.TrimSpace(o.URL)
	o.Device = strings.ToLower(strings.TrimSpace(o.Device))
	if o.Device == "" {
		o.Device = browser.DevicePC
	}
	o.Quality = strings.ToLower(strings.TrimSpace(o.Quality))
	if o.Quality == "" {
		o.Quality = encoder.QualityHigh
	}
	o.Format = encoder.Format(strings.ToLower(string(o.Format)))
	if o.Format == "" {
		o.Format = encoder.FormatGIF
	}
	if o.Duration == 0 {
		o.Duration = DefaultDuration
	}
	if o.FPS == 0 {
		o.FPS = DefaultFPS
	}
	if o.Width == 0 || o.Height == 0 {
		p := browser.ProfileFor(o.Device)
		o.Width, o.Height = p.Width, p.Height
	}
	if o.DPI == 0 {
		o.DPI = 1
		if o.Quality == encoder.QualityUltra {
			o.DPI = 2
		}
	}
	if o.LoadTimeout <= 0 {
		o.LoadTimeout = browser.DefaultLoadTimeout
	}
	if o.Stabilize < 0 {
		o.Stabilize = 0
	} else if o.Stabilize == 0 {
		o.Stabilize = DefaultStabilize
	}
	if o.OutputDir == "" {
		o.OutputDir = "output"
	}
	return o
}

// Viewport returns the size the browser is started with: Width x Height
// clamped to 1920x1080 keeping the aspect ratio.
func (o Options) Viewport() (int, int) {
	return browser.ClampViewport(o.Width, o.Height)
}

// ValidationError reports one rejected option.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks normalized options and returns the first
// *ValidationError found.
func (o Options) Validate() error {
	if err := ValidateURL(o.URL); err != nil {
		return err
	}
	if o.Duration < MinDuration || o.Duration > MaxDuration {
		return invalid("duration", "must be between %d and %d seconds, got %s",
			int(MinDuration.Seconds()), int(MaxDuration.Seconds()), o.Duration)
	}
	if o.Duration%time.Second != 0 {
		return invalid("duration", "must be a whole number of seconds, got %s", o.Duration)
	}
	if o.FPS < MinFPS || o.FPS > MaxFPS {
		return invalid("fps", "must be between %d and %d, got %d", MinFPS, MaxFPS, o.FPS)
	}
	if o.Width < MinWidth || o.Width > MaxWidth {
		return invalid("width", "must be between %d and %d, got %d", MinWidth, MaxWidth, o.Width)
	}
	if o.Height < MinHeight || o.Height > MaxHeight {
		return invalid("height", "must be between %d and %d, got %d", MinHeight, MaxHeight, o.Height)
	}
	if o.DPI < MinDPI || o.DPI > MaxDPI {
		return invalid("dpi", "must be between %d and %d, got %d", MinDPI, MaxDPI, o.DPI)
	}
	if !browser.IsDevice(o.Device) {
		return invalid("device", "must be pc or mobile, got %q", o.Device)
	}
	if !encoder.IsQuality(o.Quality) {
		return invalid("quality", "must be one of %s, got %q", strings.Join(encoder.Qualities(), ", "), o.Quality)
	}
	if _, err := encoder.ParseFormat(string(o.Format)); err != nil {
		return invalid("format", "must be gif or mp4, got %q", o.Format)
	}
	if o.Filename != "" && !filenamePattern.MatchString(o.Filename) {
		return invalid("filename", "may only contain letters, digits, '_', '.', '-' (max 100 characters)")
	}
	return nil
}

// ValidateURL accepts absolute http and https URLs.
func ValidateURL(raw string) error {
	if raw == "" {
		return invalid("url", "is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return invalid("url", "%v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return invalid("url", "scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return invalid("url", "host is required")
	}
	return nil
}
