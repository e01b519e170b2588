// Package jobs holds helpers shared by the asynchronous recording surfaces.
package jobs

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RecordingPrefix is prepended to recording job IDs.
const RecordingPrefix = "rec-"

// GenerateID creates a new random job ID with the given prefix, e.g.
// "rec-3f2b...". The prefix should include its trailing dash.
func GenerateID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NormalizeID adds prefix to id when it is missing.
func NormalizeID(id, prefix string) string {
	if id == "" || strings.HasPrefix(id, prefix) {
		return id
	}
	return prefix + id
}

// ErrorWriter persists a job failure to the backing store.
type ErrorWriter func(ctx context.Context, jobID, errMsg string) error

// SetJobError logs the failure and hands it to write.
func SetJobError(ctx context.Context, jobID, msg string, write ErrorWriter) error {
	log.Error().
		Str("jobId", jobID).
		Str("error", msg).
		Msg("Job failed")
	return write(ctx, jobID, msg)
}
