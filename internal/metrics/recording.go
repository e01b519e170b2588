package metrics

import "time"

// Recording summarises one finished recording.
type Recording struct {
	Strategy       string
	Format         string
	FramesCaptured int
	FramesPlanned  int
	Failures       int
	StoppedEarly   bool
	CaptureTime    time.Duration
	EncodeTime     time.Duration
	OutputBytes    int64
	Err            error
}

// FlushRecording emits the recording metrics with Strategy as dimension.
func FlushRecording(rec Recording) {
	strategy := rec.Strategy
	if strategy == "" {
		strategy = "unknown"
	}
	r := New(Namespace).
		Dimension("Strategy", strategy).
		Metric("FramesCaptured", float64(rec.FramesCaptured), UnitCount).
		Metric("CaptureFailures", float64(rec.Failures), UnitCount).
		Metric("CaptureMs", float64(rec.CaptureTime.Milliseconds()), UnitMilliseconds).
		Property("format", rec.Format).
		Property("framesPlanned", rec.FramesPlanned)

	if rec.EncodeTime > 0 {
		r.Metric("EncodeMs", float64(rec.EncodeTime.Milliseconds()), UnitMilliseconds)
	}
	if rec.OutputBytes > 0 {
		r.Metric("OutputSizeBytes", float64(rec.OutputBytes), UnitBytes)
	}
	if rec.StoppedEarly {
		r.Count("EarlyStop")
	}
	if rec.Err != nil {
		r.Count("RecordingErrors").Property("error", rec.Err.Error())
	}
	r.Flush()
}
