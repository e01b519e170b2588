// Package config loads recorder defaults from an optional webgif.yaml and
// WEBGIF_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// WEBGIF_CAPTURE_FPS=20.
const EnvPrefix = "WEBGIF"

// Config holds the recording defaults. Zero viewport sizes mean "use the
// device profile".
type Config struct {
	Viewport ViewportConfig
	Capture  CaptureConfig
	Encode   EncodeConfig
	Output   OutputConfig
	Browser  BrowserConfig
}

type ViewportConfig struct {
	Width  int
	Height int
}

type CaptureConfig struct {
	FPS             int
	DurationSeconds int
	Device          string
	// DPI of 0 picks 2 for ultra quality and 1 otherwise.
	DPI int
}

type EncodeConfig struct {
	Quality string
	Format  string
}

type OutputConfig struct {
	Dir     string
	TempDir string
}

type BrowserConfig struct {
	ChromePath         string
	LoadTimeoutSeconds int
	StabilizeMs        int
}

// LoadTimeout is the navigation timeout as a duration.
func (b BrowserConfig) LoadTimeout() time.Duration {
	return time.Duration(b.LoadTimeoutSeconds) * time.Second
}

// Stabilize is the post-load wait as a duration.
func (b BrowserConfig) Stabilize() time.Duration {
	return time.Duration(b.StabilizeMs) * time.Millisecond
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			FPS:             15,
			DurationSeconds: 15,
			Device:          "pc",
		},
		Encode: EncodeConfig{
			Quality: "high",
			Format:  "gif",
		},
		Output: OutputConfig{
			Dir: "output",
		},
		Browser: BrowserConfig{
			LoadTimeoutSeconds: 30,
			StabilizeMs:        4000,
		},
	}
}

// Load reads configuration. An explicit path must exist; otherwise
// webgif.yaml is searched in the working directory and
// $HOME/.config/webgif, and a missing file yields the defaults.
func Load(path string) (*Config, error) {
	v := New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("webgif")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "webgif"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return FromViper(v), nil
}

// New returns a viper instance with defaults and environment overrides set.
func New() *viper.Viper {
	d := Default()
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("viewport.width", d.Viewport.Width)
	v.SetDefault("viewport.height", d.Viewport.Height)
	v.SetDefault("capture.fps", d.Capture.FPS)
	v.SetDefault("capture.duration_seconds", d.Capture.DurationSeconds)
	v.SetDefault("capture.device", d.Capture.Device)
	v.SetDefault("capture.dpi", d.Capture.DPI)
	v.SetDefault("encode.quality", d.Encode.Quality)
	v.SetDefault("encode.format", d.Encode.Format)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.temp_dir", d.Output.TempDir)
	v.SetDefault("browser.chrome_path", d.Browser.ChromePath)
	v.SetDefault("browser.load_timeout_seconds", d.Browser.LoadTimeoutSeconds)
	v.SetDefault("browser.stabilize_ms", d.Browser.StabilizeMs)
	return v
}

// FromViper maps viper keys onto a Config.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Viewport: ViewportConfig{
			Width:  v.GetInt("viewport.width"),
			Height: v.GetInt("viewport.height"),
		},
		Capture: CaptureConfig{
			FPS:             v.GetInt("capture.fps"),
			DurationSeconds: v.GetInt("capture.duration_seconds"),
			Device:          strings.ToLower(v.GetString("capture.device")),
			DPI:             v.GetInt("capture.dpi"),
		},
		Encode: EncodeConfig{
			Quality: strings.ToLower(v.GetString("encode.quality")),
			Format:  strings.ToLower(v.GetString("encode.format")),
		},
		Output: OutputConfig{
			Dir:     v.GetString("output.dir"),
			TempDir: v.GetString("output.temp_dir"),
		},
		Browser: BrowserConfig{
			ChromePath:         v.GetString("browser.chrome_path"),
			LoadTimeoutSeconds: v.GetInt("browser.load_timeout_seconds"),
			StabilizeMs:        v.GetInt("browser.stabilize_ms"),
		},
	}
}
