// Command webgif-mcp serves the recorder to MCP clients over stdio.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/web-gif-recorder/internal/browser"
	"github.com/fpang/web-gif-recorder/internal/config"
	"github.com/fpang/web-gif-recorder/internal/logging"
	"github.com/fpang/web-gif-recorder/internal/mcp"
	"github.com/fpang/web-gif-recorder/internal/metrics"
	"github.com/fpang/web-gif-recorder/internal/recorder"
)

// Set at build time with -ldflags.
var (
	version    = "dev"
	commitHash string
	buildTime  string
)

var configFlag string

var rootCmd = &cobra.Command{
	Use:   "webgif-mcp",
	Short: "Serve page recording tools over the Model Context Protocol",
	Long: `webgif-mcp speaks MCP on stdin/stdout and offers two tools:

  plan_capture  preview the frames each capture strategy would take
  record_page   record a page to GIF or MP4

Logs and metrics go to stderr.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServer,
}

func init() {
	rootCmd.Flags().StringVar(&configFlag, "config", "", "Config file (default ./webgif.yaml or ~/.config/webgif/webgif.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runServer(_ *cobra.Command, _ []string) error {
	initStart := time.Now()

	// stdout carries the protocol.
	logging.InitJSON(os.Stderr)
	metrics.SetOutput(os.Stderr)

	cfg, err := config.Load(configFlag)
	if err != nil {
		return err
	}
	defaults := recorder.OptionsFromConfig(cfg)
	srv := mcp.NewServer(recorder.New(), defaults, version)

	ffmpeg, _ := exec.LookPath("ffmpeg")
	logging.NewStartupLogger("webgif-mcp").
		CommitHash(commitHash).
		BuildTime(buildTime).
		Tool("chrome", browser.ResolveChromePath(cfg.Browser.ChromePath)).
		Tool("ffmpeg", ffmpeg).
		Config("version", version).
		Config("outputDir", defaults.OutputDir).
		InitDuration(time.Since(initStart)).
		Log()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	log.Info().Msg("MCP server stopped")
	return nil
}
