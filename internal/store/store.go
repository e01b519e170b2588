// Package store persists recording jobs started through the Lambda surface.
//
// Jobs live in a single DynamoDB table. Each job is one item with partition
// key JOB#{jobId} and sort key META. A TTL attribute (expiresAt) removes
// the record after JobTTL, matching the lifecycle of the recordings/ prefix
// in the output bucket.
package store

import (
	"context"
	"time"
)

// JobTTL is the time-to-live of a job record.
const JobTTL = 7 * 24 * time.Hour

// Job statuses.
const (
	StatusPending   = "pending"
	StatusRecording = "recording"
	StatusComplete  = "complete"
	StatusError     = "error"
)

// JobStore is the persistence interface for recording jobs.
//
// GetJob returns (nil, nil) when the job does not exist. PutJob replaces
// the whole item.
type JobStore interface {
	PutJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, jobID string) (*Job, error)
	// UpdateJobStatus changes status and error message without touching
	// the other fields.
	UpdateJobStatus(ctx context.Context, jobID, status, errMsg string) error
}

// Job is one recording request and, once finished, its result.
type Job struct {
	ID       string `dynamodbav:"-" json:"id"`
	Status   string `dynamodbav:"status" json:"status"`
	URL      string `dynamodbav:"url" json:"url"`
	Device   string `dynamodbav:"device" json:"device"`
	Format   string `dynamodbav:"format" json:"format"`
	Quality  string `dynamodbav:"quality,omitempty" json:"quality,omitempty"`
	Duration int    `dynamodbav:"durationSeconds" json:"durationSeconds"`
	FPS      int    `dynamodbav:"fps" json:"fps"`

	Strategy     string `dynamodbav:"strategy,omitempty" json:"strategy,omitempty"`
	Frames       int    `dynamodbav:"frames,omitempty" json:"frames,omitempty"`
	StoppedEarly bool   `dynamodbav:"stoppedEarly,omitempty" json:"stoppedEarly,omitempty"`
	SizeBytes    int64  `dynamodbav:"sizeBytes,omitempty" json:"sizeBytes,omitempty"`
	OutputKey    string `dynamodbav:"outputKey,omitempty" json:"outputKey,omitempty"`
	PosterKey    string `dynamodbav:"posterKey,omitempty" json:"posterKey,omitempty"`
	ArchiveKey   string `dynamodbav:"archiveKey,omitempty" json:"archiveKey,omitempty"`
	DownloadURL  string `dynamodbav:"downloadUrl,omitempty" json:"downloadUrl,omitempty"`
	Error        string `dynamodbav:"error,omitempty" json:"error,omitempty"`

	CreatedAt time.Time `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `dynamodbav:"updatedAt" json:"updatedAt"`
}
