package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fpang/web-gif-recorder/internal/config"
	"github.com/fpang/web-gif-recorder/internal/encoder"
	"github.com/fpang/web-gif-recorder/internal/framestore"
	"github.com/fpang/web-gif-recorder/internal/jobs"
	"github.com/fpang/web-gif-recorder/internal/recorder"
	"github.com/fpang/web-gif-recorder/internal/s3util"
	"github.com/fpang/web-gif-recorder/internal/store"
)

// downloadURLExpiry is how long presigned download links stay valid.
const downloadURLExpiry = 24 * time.Hour

// recordingsPrefix is the key prefix of every job's uploads.
const recordingsPrefix = "recordings"

// lambdaBrowserFlags are the Chrome switches needed inside the Lambda sandbox.
var lambdaBrowserFlags = map[string]any{
	"single-process": true,
	"no-zygote":      true,
	"disable-gpu":    true,
}

// Recorder runs one recording.
type Recorder interface {
	Record(ctx context.Context, opts recorder.Options) (*recorder.Output, error)
}

type handler struct {
	recorder  Recorder
	store     store.JobStore
	s3        s3util.PutObjectAPI
	presigner s3util.PresignGetAPI
	bucket    string
	workDir   string
	defaults  *config.Config
}

var coldStart = true

// Handle records the page of event and returns where the result was put.
// Failures after the job record exists are reported in the result and the
// job record as well as returned as the function error.
func (h *handler) Handle(ctx context.Context, event RecordEvent) (RecordResult, error) {
	handlerStart := time.Now()
	if coldStart {
		coldStart = false
		log.Info().Str("function", "record-lambda").Msg("Cold start - first invocation")
	}

	jobID := jobs.NormalizeID(event.JobID, jobs.RecordingPrefix)
	if jobID == "" {
		jobID = jobs.GenerateID(jobs.RecordingPrefix)
	}
	logger := log.With().Str("jobId", jobID).Str("url", event.URL).Logger()
	result := RecordResult{JobID: jobID, Status: store.StatusRecording}

	opts := h.options(event, jobID)
	normalized := opts.Normalize()
	if err := normalized.Validate(); err != nil {
		logger.Warn().Err(err).Msg("Rejected recording request")
		result.Status = store.StatusError
		result.Error = err.Error()
		return result, err
	}

	job := &store.Job{
		ID:       jobID,
		Status:   store.StatusRecording,
		URL:      event.URL,
		Device:   normalized.Device,
		Format:   string(normalized.Format),
		Quality:  normalized.Quality,
		Duration: int(normalized.Duration / time.Second),
		FPS:      normalized.FPS,
	}
	if err := h.store.PutJob(ctx, job); err != nil {
		logger.Error().Err(err).Msg("Failed to create job record")
		result.Status = store.StatusError
		result.Error = err.Error()
		return result, err
	}

	fail := func(err error) (RecordResult, error) {
		result.Status = store.StatusError
		result.Error = err.Error()
		if writeErr := jobs.SetJobError(ctx, jobID, err.Error(), func(ctx context.Context, id, msg string) error {
			return h.store.UpdateJobStatus(ctx, id, store.StatusError, msg)
		}); writeErr != nil {
			logger.Error().Err(writeErr).Msg("Failed to persist job error")
		}
		return result, err
	}

	defer os.RemoveAll(opts.OutputDir)
	out, err := h.recorder.Record(ctx, opts)
	if err != nil {
		return fail(fmt.Errorf("record: %w", err))
	}

	prefix := path.Join(recordingsPrefix, jobID)
	outputKey, err := s3util.UploadFile(ctx, h.s3, h.bucket, prefix, out.Path)
	if err != nil {
		return fail(err)
	}
	job.OutputKey = outputKey
	if out.PosterPath != "" {
		if key, err := s3util.UploadFile(ctx, h.s3, h.bucket, prefix, out.PosterPath); err != nil {
			logger.Warn().Err(err).Msg("Failed to upload poster")
		} else {
			job.PosterKey = key
		}
	}
	if out.ArchivePath != "" {
		if key, err := s3util.UploadFile(ctx, h.s3, h.bucket, prefix, out.ArchivePath); err != nil {
			logger.Warn().Err(err).Msg("Failed to upload frame archive")
		} else {
			job.ArchiveKey = key
		}
	}

	downloadURL, err := s3util.GeneratePresignedURL(ctx, h.presigner, h.bucket, outputKey, downloadURLExpiry)
	if err != nil {
		return fail(err)
	}

	job.Status = store.StatusComplete
	job.Strategy = out.Strategy
	job.Frames = out.Frames
	job.StoppedEarly = out.StoppedEarly
	job.SizeBytes = out.SizeBytes
	job.DownloadURL = downloadURL
	if err := h.store.PutJob(ctx, job); err != nil {
		return fail(err)
	}

	logger.Info().
		Str("outputKey", outputKey).
		Str("strategy", out.Strategy).
		Int("frames", out.Frames).
		Int64("sizeBytes", out.SizeBytes).
		Dur("duration", time.Since(handlerStart)).
		Msg("Recording job complete")

	return RecordResult{
		JobID:        jobID,
		Status:       store.StatusComplete,
		OutputKey:    outputKey,
		PosterKey:    job.PosterKey,
		ArchiveKey:   job.ArchiveKey,
		DownloadURL:  downloadURL,
		Strategy:     out.Strategy,
		Frames:       out.Frames,
		StoppedEarly: out.StoppedEarly,
		SizeBytes:    out.SizeBytes,
	}, nil
}

// options maps the event onto recorder options seeded from the defaults.
func (h *handler) options(event RecordEvent, jobID string) recorder.Options {
	cfg := h.defaults
	if cfg == nil {
		cfg = config.Default()
	}
	opts := recorder.OptionsFromConfig(cfg)
	opts.URL = event.URL
	if event.Device != "" {
		opts.Device = event.Device
		opts.Width, opts.Height = 0, 0
	}
	if event.Duration != 0 {
		opts.Duration = time.Duration(event.Duration) * time.Second
	}
	if event.FPS != 0 {
		opts.FPS = event.FPS
	}
	if event.Width != 0 && event.Height != 0 {
		opts.Width, opts.Height = event.Width, event.Height
	}
	if event.DPI != 0 {
		opts.DPI = event.DPI
	}
	if event.Format != "" {
		opts.Format = encoder.Format(event.Format)
	}
	if event.Quality != "" {
		opts.Quality = event.Quality
	}
	opts.Params = event.Params
	opts.Actions = event.Actions
	opts.Filename = event.Filename
	opts.Poster = event.Poster
	opts.ArchiveFrames = event.ArchiveFrames

	opts.TempDir = h.workDir
	opts.OutputDir = filepath.Join(h.workDir, "webgif-out-"+jobID)
	opts.BrowserFlags = lambdaBrowserFlags
	if event.MirrorFrames {
		opts.Mirror = &framestore.S3Sink{
			Client: h.s3,
			Bucket: h.bucket,
			Prefix: path.Join(recordingsPrefix, jobID, "frames"),
		}
	}
	return opts
}

func ffmpegPath() string {
	p, err := exec.LookPath("ffmpeg")
	if err != nil {
		return ""
	}
	return p
}
