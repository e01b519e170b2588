package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrFFmpegNotFound is returned when no ffmpeg binary is on PATH.
var ErrFFmpegNotFound = errors.New("ffmpeg not found in PATH. Install FFmpeg with: brew install ffmpeg (macOS) or apt install ffmpeg (Linux)")

// MP4 encoding constants.
const (
	MP4CRF    = 18
	MP4Preset = "slow"
)

// Job describes one encode.
type Job struct {
	// FramePattern is the printf path of the frame sequence, numbered from 0.
	FramePattern string
	FrameCount   int
	FPS          int
	Width        int
	Height       int
	DPI          int
	Format       Format
	Quality      string
	OutputPath   string
}

// CheckFFmpegAvailable checks if ffmpeg is available in the system PATH.
func CheckFFmpegAvailable() error {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return ErrFFmpegNotFound
	}
	log.Debug().Str("path", path).Msg("ffmpeg found")
	return nil
}

// IsFFmpegAvailable returns true if ffmpeg is available in the system PATH.
func IsFFmpegAvailable() bool {
	return CheckFFmpegAvailable() == nil
}

// FFmpegEncoder runs the ffmpeg binary. Binary defaults to "ffmpeg" on PATH.
type FFmpegEncoder struct {
	Binary string
}

// NewFFmpegEncoder returns an encoder using ffmpeg from PATH.
func NewFFmpegEncoder() *FFmpegEncoder {
	return &FFmpegEncoder{}
}

// Encode runs ffmpeg for job and returns the output path. When progress is
// non-nil it receives updates parsed from ffmpeg's -progress stream; the
// channel is closed when Encode returns, and the caller must keep receiving
// until then.
func (e *FFmpegEncoder) Encode(ctx context.Context, job Job, progress chan<- Progress) (string, error) {
	if progress != nil {
		defer close(progress)
	}
	if job.FrameCount < 1 {
		return "", fmt.Errorf("encode: no frames to encode")
	}

	binary := e.Binary
	if binary == "" {
		path, err := exec.LookPath("ffmpeg")
		if err != nil {
			return "", ErrFFmpegNotFound
		}
		binary = path
	}

	args := BuildArgs(job)
	log.Debug().Strs("args", args).Msg("Running FFmpeg")
	log.Info().
		Str("format", string(job.Format)).
		Str("quality", job.Quality).
		Int("frames", job.FrameCount).
		Int("fps", job.FPS).
		Int("width", job.Width).
		Int("height", job.Height).
		Msg("Encoding recording")

	start := time.Now()
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start ffmpeg: %w", err)
	}

	readProgress(stdout, job.FrameCount, progress)

	if err := cmd.Wait(); err != nil {
		log.Warn().
			Err(err).
			Str("ffmpeg_output", tail(stderr.String(), 2000)).
			Dur("duration", time.Since(start)).
			Msg("FFmpeg encode failed")
		os.Remove(job.OutputPath)
		return "", fmt.Errorf("ffmpeg encode failed: %w\nOutput: %s", err, tail(stderr.String(), 2000))
	}

	log.Info().
		Str("output_path", job.OutputPath).
		Dur("encode_time", time.Since(start)).
		Msg("Encode complete")
	return job.OutputPath, nil
}

// BuildArgs constructs the ffmpeg command line for job.
func BuildArgs(job Job) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-framerate", strconv.Itoa(job.FPS),
		"-start_number", "0",
		"-i", job.FramePattern,
	}
	if job.Format == FormatMP4 {
		args = append(args, mp4Args(job)...)
	} else {
		args = append(args, gifArgs(job)...)
	}
	args = append(args, "-progress", "pipe:1", "-nostats")
	return append(args, "-y", job.OutputPath)
}

func gifArgs(job Job) []string {
	p := PresetFor(job.Quality)
	filters := fmt.Sprintf("fps=%d,scale=%d:%d:flags=%s", job.FPS, job.Width, job.Height, p.ScaleFlags)
	if p.Unsharp != "" {
		filters += ",unsharp=" + p.Unsharp
	}

	paletteGen := fmt.Sprintf("max_colors=%d:stats_mode=%s:reserve_transparent=0", p.MaxColors, p.StatsMode)
	paletteUse := fmt.Sprintf("dither=%s:diff_mode=%s:new=0", p.Dither, p.DiffMode)
	if p.BayerScale > 0 {
		paletteUse += ":bayer_scale=" + strconv.Itoa(p.BayerScale)
	}

	graph := fmt.Sprintf("%s,split[a][b];[a]palettegen=%s[p];[b][p]paletteuse=%s", filters, paletteGen, paletteUse)
	return []string{
		"-filter_complex", graph,
		"-final_delay", strconv.Itoa(p.FinalDelay),
	}
}

func mp4Args(job Job) []string {
	p := PresetFor(job.Quality)
	w, h := MP4Size(job.Width, job.Height, job.DPI)
	return []string{
		"-vf", fmt.Sprintf("scale=%d:%d:flags=%s", w, h, p.ScaleFlags),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-crf", strconv.Itoa(MP4CRF),
		"-preset", MP4Preset,
		"-movflags", "+faststart",
		"-an",
	}
}

// MP4Size scales the viewport by dpi and rounds each side to an even
// number, as yuv420p requires.
func MP4Size(width, height, dpi int) (int, int) {
	if dpi < 1 {
		dpi = 1
	}
	even := func(v int) int {
		return int(math.Round(float64(v*dpi)/2)) * 2
	}
	return even(width), even(height)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
