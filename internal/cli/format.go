// Package cli holds terminal helpers for the webgif command.
package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fpang/web-gif-recorder/internal/encoder"
	"github.com/fpang/web-gif-recorder/internal/recorder"
)

// FormatDurationShort formats a duration in a short format (M:SS or H:MM:SS).
func FormatDurationShort(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// FormatSize renders a byte count as KB or MB with two decimals.
func FormatSize(n int64) string {
	const kb, mb = 1024, 1024 * 1024
	switch {
	case n >= mb:
		return fmt.Sprintf("%.2f MB", float64(n)/mb)
	case n >= kb:
		return fmt.Sprintf("%.2f KB", float64(n)/kb)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

const progressWidth = 30

// ProgressLine renders an encode progress bar, e.g.
// "Encoding [#########.....]  45% (68/150)".
func ProgressLine(p encoder.Progress) string {
	filled := p.Percent * progressWidth / 100
	filled = min(max(filled, 0), progressWidth)
	return fmt.Sprintf("Encoding [%s%s] %3d%% (%d/%d)",
		strings.Repeat("#", filled), strings.Repeat(".", progressWidth-filled), p.Percent, p.Frame, p.Total)
}

// PrintSummary writes the result block shown after a recording.
func PrintSummary(w io.Writer, out *recorder.Output, fps int, device string, duration time.Duration) {
	width, height := out.Width, out.Height
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Recording complete")
	fmt.Fprintf(w, "  Path:       %s\n", out.Path)
	fmt.Fprintf(w, "  Size:       %s\n", FormatSize(out.SizeBytes))
	fmt.Fprintf(w, "  Duration:   %.1fs\n", duration.Seconds())
	fmt.Fprintf(w, "  Resolution: %dx%d\n", width, height)
	fmt.Fprintf(w, "  FPS:        %d\n", fps)
	fmt.Fprintf(w, "  Device:     %s\n", device)
	fmt.Fprintf(w, "  Strategy:   %s (%d frames", out.Strategy, out.Frames)
	if out.StoppedEarly {
		fmt.Fprint(w, ", stopped early")
	}
	fmt.Fprintln(w, ")")
	if out.PosterPath != "" {
		fmt.Fprintf(w, "  Poster:     %s\n", out.PosterPath)
	}
	if out.ArchivePath != "" {
		fmt.Fprintf(w, "  Frames zip: %s\n", out.ArchivePath)
	}
	if out.FramesDir != "" {
		fmt.Fprintf(w, "  Frames dir: %s\n", out.FramesDir)
	}
	fmt.Fprintf(w, "  Took:       %s\n", FormatDurationShort(out.Elapsed))
}
