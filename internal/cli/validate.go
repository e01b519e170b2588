package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fpang/web-gif-recorder/internal/encoder"
	"github.com/fpang/web-gif-recorder/internal/recorder"
)

// ResolveOutputDir creates dirPath if needed and returns its absolute path.
func ResolveOutputDir(dirPath string) (string, error) {
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	info, err := os.Stat(dirPath)
	if err != nil {
		return "", fmt.Errorf("access output directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("output path %s is not a directory", dirPath)
	}
	if abs, err := filepath.Abs(dirPath); err == nil {
		dirPath = abs
	}
	return dirPath, nil
}

// Hint returns a suggestion for a failed recording, or "" when there is
// nothing useful to add.
func Hint(err error) string {
	if err == nil {
		return ""
	}
	var verr *recorder.ValidationError
	switch {
	case errors.As(err, &verr):
		return fmt.Sprintf("Check the --%s flag. Run webgif --help for accepted values.", verr.Field)
	case errors.Is(err, encoder.ErrFFmpegNotFound), strings.Contains(err.Error(), "ffmpeg"):
		return "Make sure FFmpeg is installed. macOS: brew install ffmpeg, Linux: apt install ffmpeg"
	case errors.Is(err, context.DeadlineExceeded), strings.Contains(strings.ToLower(err.Error()), "timeout"):
		return "The page took too long to load. Check the network connection or raise browser.load_timeout_seconds."
	case strings.Contains(err.Error(), "net::"):
		return "Network error. Check the URL and the network connection."
	case strings.Contains(err.Error(), "launch browser"):
		return "Chrome could not be started. Set CHROME_PATH or browser.chrome_path to a Chrome or Chromium binary."
	}
	return ""
}
