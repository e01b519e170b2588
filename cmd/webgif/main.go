package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/web-gif-recorder/internal/cli"
	"github.com/fpang/web-gif-recorder/internal/config"
	"github.com/fpang/web-gif-recorder/internal/encoder"
	"github.com/fpang/web-gif-recorder/internal/logging"
	"github.com/fpang/web-gif-recorder/internal/recorder"
)

// CLI flags
var (
	urlFlag           string
	deviceFlag        string
	durationFlag      int
	fpsFlag           int
	widthFlag         int
	heightFlag        int
	dpiFlag           int
	formatFlag        string
	qualityFlag       string
	paramsFlag        string
	actionsFlag       string
	filenameFlag      string
	noCleanupFlag     bool
	posterFlag        bool
	archiveFramesFlag bool
	configFlag        string
	outputDirFlag     string
	chromePathFlag    string
	verboseFlag       bool
)

// rootCmd is the main Cobra command for the webgif CLI.
var rootCmd = &cobra.Command{
	Use:   "webgif [url]",
	Short: "Record a web page as an animated GIF or MP4",
	Long: `webgif opens a page in headless Chrome, decides how the page should be moved
while recording (not at all, by native scrolling, or by mouse wheel for pages
that animate on wheel input) and encodes the captured frames with FFmpeg.

Defaults come from webgif.yaml in the working directory or
~/.config/webgif, and from WEBGIF_* environment variables. Flags win.

Examples:
  webgif --url https://example.com --duration 10
  webgif --url https://example.com --device mobile
  webgif --url https://example.com --width 1920 --height 1080
  webgif --url https://example.com --format mp4 --quality ultra
  webgif --url https://example.com --params "lang:en,theme:dark"
  webgif --url https://example.com --actions "scroll:500,click:#button"
  webgif --url https://example.com --filename my-recording --poster
  webgif --url https://example.com --no-cleanup
  webgif  # Interactive mode - prompts for the URL`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runMain,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&urlFlag, "url", "", "Page URL to record (http or https)")
	f.StringVarP(&deviceFlag, "device", "d", "", "Device type: pc or mobile (default pc)")
	f.IntVar(&durationFlag, "duration", 0, "Recording length in seconds, 1-60 (default 15)")
	f.IntVar(&fpsFlag, "fps", 0, "Frame rate, 5-30 (default 15)")
	f.IntVar(&widthFlag, "width", 0, "Viewport width (default pc=1280, mobile=375)")
	f.IntVar(&heightFlag, "height", 0, "Viewport height (default pc=720, mobile=667)")
	f.IntVar(&dpiFlag, "dpi", 0, "Screenshot scale factor, 1-3 (default ultra=2, otherwise 1)")
	f.StringVar(&formatFlag, "format", "", "Output format: gif or mp4 (default gif)")
	f.StringVar(&qualityFlag, "quality", "", "Quality: ultra, high, medium or low (default high)")
	f.StringVar(&paramsFlag, "params", "", `URL query params, e.g. "lang:en,theme:dark"`)
	f.StringVar(&actionsFlag, "actions", "", `Page actions before recording, e.g. "click:#button,wait:1000"`)
	f.StringVar(&filenameFlag, "filename", "", "Custom output file name without extension")
	f.BoolVar(&noCleanupFlag, "no-cleanup", false, "Keep the captured frames")
	f.BoolVar(&posterFlag, "poster", false, "Also write a poster PNG of the first frame")
	f.BoolVar(&archiveFramesFlag, "archive-frames", false, "Also write the frames as a zstd-compressed zip")
	f.StringVar(&configFlag, "config", "", "Config file (default ./webgif.yaml or ~/.config/webgif/webgif.yaml)")
	f.StringVarP(&outputDirFlag, "output-dir", "o", "", "Output directory (default output)")
	f.StringVar(&chromePathFlag, "chrome-path", "", "Chrome or Chromium binary")
	f.BoolVarP(&verboseFlag, "verbose", "v", false, "Debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Recording failed:", err)
		if hint := cli.Hint(err); hint != "" {
			fmt.Fprintln(os.Stderr, "Hint:", hint)
		}
		os.Exit(1)
	}
}

// runMain is the main execution logic called by Cobra.
func runMain(cmd *cobra.Command, args []string) error {
	logging.Init()
	if verboseFlag {
		logging.InitWith("debug", zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load(configFlag)
	if err != nil {
		return err
	}
	opts := recorder.OptionsFromConfig(cfg)
	applyFlags(cmd, &opts)

	if opts.URL == "" && len(args) == 1 {
		opts.URL = args[0]
	}
	if opts.URL == "" {
		opts.URL = cli.PromptForURL(os.Stdin, os.Stdout)
	}
	if opts.URL == "" {
		return errors.New("a URL is required (--url)")
	}

	dir, err := cli.ResolveOutputDir(opts.OutputDir)
	if err != nil {
		return err
	}
	opts.OutputDir = dir

	opts.OnProgress = func(p encoder.Progress) {
		fmt.Fprintf(os.Stderr, "\r%s", cli.ProgressLine(p))
		if p.Done {
			fmt.Fprintln(os.Stderr)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	normalized := opts.Normalize()
	fmt.Println()
	fmt.Println("============================================")
	fmt.Println("Web GIF Recorder")
	fmt.Println("============================================")
	fmt.Printf("URL:      %s\n", normalized.URL)
	fmt.Printf("Device:   %s\n", normalized.Device)
	fmt.Printf("Duration: %ds @ %d FPS\n", int(normalized.Duration/time.Second), normalized.FPS)
	fmt.Printf("Output:   %s (%s)\n", normalized.Format, normalized.Quality)
	fmt.Println("--------------------------------------------")

	out, err := recorder.New().Record(ctx, opts)
	if err != nil {
		log.Debug().Err(err).Msg("Recording failed")
		return err
	}
	cli.PrintSummary(os.Stdout, out, normalized.FPS, normalized.Device, normalized.Duration)
	return nil
}

// applyFlags overrides config defaults with the flags the user set.
func applyFlags(cmd *cobra.Command, opts *recorder.Options) {
	changed := cmd.Flags().Changed
	opts.URL = urlFlag
	if changed("device") {
		opts.Device = deviceFlag
		if !changed("width") && !changed("height") {
			opts.Width, opts.Height = 0, 0
		}
	}
	if changed("duration") {
		opts.Duration = time.Duration(durationFlag) * time.Second
	}
	if changed("fps") {
		opts.FPS = fpsFlag
	}
	if changed("width") {
		opts.Width = widthFlag
	}
	if changed("height") {
		opts.Height = heightFlag
	}
	if changed("dpi") {
		opts.DPI = dpiFlag
	}
	if changed("format") {
		opts.Format = encoder.Format(formatFlag)
	}
	if changed("quality") {
		opts.Quality = qualityFlag
	}
	if changed("output-dir") {
		opts.OutputDir = outputDirFlag
	}
	if changed("chrome-path") {
		opts.ChromePath = chromePathFlag
	}
	opts.Params = paramsFlag
	opts.Actions = actionsFlag
	opts.Filename = filenameFlag
	opts.KeepFrames = noCleanupFlag
	opts.Poster = posterFlag
	opts.ArchiveFrames = archiveFramesFlag
}
