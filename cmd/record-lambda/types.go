package main

// RecordEvent is the input payload of one recording job. Durations are in
// whole seconds; zero values fall back to the recorder defaults.
type RecordEvent struct {
	JobID    string `json:"jobId,omitempty"`
	URL      string `json:"url"`
	Device   string `json:"device,omitempty"`
	Duration int    `json:"duration,omitempty"`
	FPS      int    `json:"fps,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	DPI      int    `json:"dpi,omitempty"`
	Format   string `json:"format,omitempty"`
	Quality  string `json:"quality,omitempty"`
	Params   string `json:"params,omitempty"`
	Actions  string `json:"actions,omitempty"`
	Filename string `json:"filename,omitempty"`

	Poster        bool `json:"poster,omitempty"`
	ArchiveFrames bool `json:"archiveFrames,omitempty"`
	// MirrorFrames uploads every frame to S3 while capturing.
	MirrorFrames bool `json:"mirrorFrames,omitempty"`
}

// RecordResult is returned to the invoker.
type RecordResult struct {
	JobID        string `json:"jobId"`
	Status       string `json:"status"`
	OutputKey    string `json:"outputKey,omitempty"`
	PosterKey    string `json:"posterKey,omitempty"`
	ArchiveKey   string `json:"archiveKey,omitempty"`
	DownloadURL  string `json:"downloadUrl,omitempty"`
	Strategy     string `json:"strategy,omitempty"`
	Frames       int    `json:"frames,omitempty"`
	StoppedEarly bool   `json:"stoppedEarly,omitempty"`
	SizeBytes    int64  `json:"sizeBytes,omitempty"`
	Error        string `json:"error,omitempty"`
}
