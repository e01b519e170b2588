package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fpang/web-gif-recorder/internal/framestore"
	"github.com/fpang/web-gif-recorder/internal/recorder"
	"github.com/fpang/web-gif-recorder/internal/store"
)

type fakeRecorder struct {
	opts recorder.Options
	err  error
}

func (f *fakeRecorder) Record(_ context.Context, opts recorder.Options) (*recorder.Output, error) {
	f.opts = opts
	if f.err != nil {
		return nil, f.err
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, err
	}
	out := filepath.Join(opts.OutputDir, "example_com_pc.gif")
	if err := os.WriteFile(out, []byte("GIF89a"), 0o644); err != nil {
		return nil, err
	}
	poster := filepath.Join(opts.OutputDir, "example_com_pc_poster.png")
	if err := os.WriteFile(poster, []byte("png"), 0o644); err != nil {
		return nil, err
	}
	return &recorder.Output{
		Path:       out,
		PosterPath: poster,
		Strategy:   "paged",
		Frames:     150,
		SizeBytes:  6,
	}, nil
}

type memStore struct {
	jobs    map[string]store.Job
	updates []string
}

func newMemStore() *memStore { return &memStore{jobs: make(map[string]store.Job)} }

func (m *memStore) PutJob(_ context.Context, job *store.Job) error {
	m.jobs[job.ID] = *job
	return nil
}

func (m *memStore) GetJob(_ context.Context, id string) (*store.Job, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	return &job, nil
}

func (m *memStore) UpdateJobStatus(_ context.Context, id, status, errMsg string) error {
	job := m.jobs[id]
	job.Status, job.Error = status, errMsg
	m.jobs[id] = job
	m.updates = append(m.updates, status)
	return nil
}

type fakeS3 struct {
	keys []string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if _, err := io.ReadAll(in.Body); err != nil {
		return nil, err
	}
	f.keys = append(f.keys, *in.Key)
	return &s3.PutObjectOutput{}, nil
}

type fakePresigner struct{}

func (fakePresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	return &v4.PresignedHTTPRequest{URL: "https://signed.example/" + *in.Key}, nil
}

func newTestHandler(t *testing.T, rec Recorder) (*handler, *memStore, *fakeS3) {
	t.Helper()
	st := newMemStore()
	s3c := &fakeS3{}
	return &handler{
		recorder:  rec,
		store:     st,
		s3:        s3c,
		presigner: fakePresigner{},
		bucket:    "webgif-output",
		workDir:   t.TempDir(),
	}, st, s3c
}

func TestHandle_Success(t *testing.T) {
	rec := &fakeRecorder{}
	h, st, s3c := newTestHandler(t, rec)

	res, err := h.Handle(context.Background(), RecordEvent{
		JobID:    "abc",
		URL:      "https://example.com",
		Duration: 10,
		Poster:   true,
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.JobID != "rec-abc" || res.Status != store.StatusComplete {
		t.Errorf("result = %+v", res)
	}
	if res.OutputKey != "recordings/rec-abc/example_com_pc.gif" {
		t.Errorf("OutputKey = %q", res.OutputKey)
	}
	if res.PosterKey != "recordings/rec-abc/example_com_pc_poster.png" {
		t.Errorf("PosterKey = %q", res.PosterKey)
	}
	if res.DownloadURL != "https://signed.example/"+res.OutputKey {
		t.Errorf("DownloadURL = %q", res.DownloadURL)
	}
	if len(s3c.keys) != 2 {
		t.Errorf("uploaded %v", s3c.keys)
	}

	job := st.jobs["rec-abc"]
	if job.Status != store.StatusComplete || job.Frames != 150 || job.Strategy != "paged" || job.Duration != 10 {
		t.Errorf("job = %+v", job)
	}

	if rec.opts.BrowserFlags["single-process"] != true {
		t.Errorf("browser flags = %v", rec.opts.BrowserFlags)
	}
	if rec.opts.Mirror != nil {
		t.Error("frames mirrored without mirrorFrames")
	}
	if _, err := os.Stat(rec.opts.OutputDir); !os.IsNotExist(err) {
		t.Errorf("local output not removed: %v", err)
	}
}

func TestHandle_GeneratesJobIDAndMirrorsFrames(t *testing.T) {
	rec := &fakeRecorder{}
	h, _, _ := newTestHandler(t, rec)

	res, err := h.Handle(context.Background(), RecordEvent{URL: "https://example.com", MirrorFrames: true, Device: "mobile"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !strings.HasPrefix(res.JobID, "rec-") {
		t.Errorf("JobID = %q", res.JobID)
	}
	sink, ok := rec.opts.Mirror.(*framestore.S3Sink)
	if !ok {
		t.Fatalf("Mirror = %T, want *framestore.S3Sink", rec.opts.Mirror)
	}
	if sink.Prefix != "recordings/"+res.JobID+"/frames" || sink.Bucket != "webgif-output" {
		t.Errorf("sink = %+v", sink)
	}
	if rec.opts.Device != "mobile" || rec.opts.Width != 0 {
		t.Errorf("device options = %s %dx%d", rec.opts.Device, rec.opts.Width, rec.opts.Height)
	}
}

func TestHandle_InvalidRequest(t *testing.T) {
	rec := &fakeRecorder{}
	h, st, _ := newTestHandler(t, rec)

	res, err := h.Handle(context.Background(), RecordEvent{URL: "ftp://example.com"})
	var verr *recorder.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if res.Status != store.StatusError || res.Error == "" {
		t.Errorf("result = %+v", res)
	}
	if len(st.jobs) != 0 {
		t.Error("job record created for an invalid request")
	}
}

func TestHandle_RecordFailureMarksJob(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("navigate: net::ERR_CONNECTION_REFUSED")}
	h, st, s3c := newTestHandler(t, rec)

	res, err := h.Handle(context.Background(), RecordEvent{JobID: "rec-x", URL: "https://example.com"})
	if err == nil {
		t.Fatal("expected error")
	}
	if res.Status != store.StatusError || !strings.Contains(res.Error, "ERR_CONNECTION_REFUSED") {
		t.Errorf("result = %+v", res)
	}
	job := st.jobs["rec-x"]
	if job.Status != store.StatusError || !strings.Contains(job.Error, "ERR_CONNECTION_REFUSED") {
		t.Errorf("job = %+v", job)
	}
	if len(st.updates) != 1 {
		t.Errorf("status updates = %v", st.updates)
	}
	if len(s3c.keys) != 0 {
		t.Errorf("uploaded after failure: %v", s3c.keys)
	}
}
