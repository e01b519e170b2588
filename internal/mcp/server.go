// Package mcp exposes the recorder as Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"errors"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"github.com/fpang/web-gif-recorder/internal/encoder"
	"github.com/fpang/web-gif-recorder/internal/recorder"
)

// Recorder runs one recording.
type Recorder interface {
	Record(ctx context.Context, opts recorder.Options) (*recorder.Output, error)
}

// Server wraps the MCP server and the recorder it drives.
type Server struct {
	server   *gomcp.Server
	rec      Recorder
	defaults recorder.Options
}

// NewServer registers the recorder tools. defaults seeds every request
// before the tool arguments are applied.
func NewServer(rec Recorder, defaults recorder.Options, version string) *Server {
	s := &Server{
		server: gomcp.NewServer(&gomcp.Implementation{
			Name:    "webgif",
			Version: version,
		}, nil),
		rec:      rec,
		defaults: defaults,
	}
	s.registerTools()
	return s
}

// Run serves over stdin/stdout until ctx is cancelled or the client leaves.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying server, for in-memory transports in tests.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "plan_capture",
		Description: "Preview the frame plan of each capture strategy for a page without opening a browser.",
	}, s.handlePlanCapture)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "record_page",
		Description: "Record a web page as an animated GIF or MP4 and return the output file path.",
	}, s.handleRecordPage)
}

// --- Tool input/output types ---

type planCaptureInput struct {
	URL           string `json:"url" jsonschema:"required,the page URL (http or https)"`
	Device        string `json:"device,omitempty" jsonschema:"device profile: pc or mobile"`
	Duration      int    `json:"duration,omitempty" jsonschema:"recording length in seconds (1-60)"`
	FPS           int    `json:"fps,omitempty" jsonschema:"frames per second (5-30)"`
	Width         int    `json:"width,omitempty" jsonschema:"viewport width override in CSS pixels"`
	Height        int    `json:"height,omitempty" jsonschema:"viewport height override in CSS pixels"`
	Params        string `json:"params,omitempty" jsonschema:"comma separated key:value query parameters"`
	ContentHeight int    `json:"content_height,omitempty" jsonschema:"scrollable height of the page in CSS pixels, enables the paged plan"`
}

type recordPageInput struct {
	URL           string `json:"url" jsonschema:"required,the page URL (http or https)"`
	Device        string `json:"device,omitempty" jsonschema:"device profile: pc or mobile"`
	Duration      int    `json:"duration,omitempty" jsonschema:"recording length in seconds (1-60)"`
	FPS           int    `json:"fps,omitempty" jsonschema:"frames per second (5-30)"`
	Width         int    `json:"width,omitempty" jsonschema:"viewport width override in CSS pixels"`
	Height        int    `json:"height,omitempty" jsonschema:"viewport height override in CSS pixels"`
	Params        string `json:"params,omitempty" jsonschema:"comma separated key:value query parameters"`
	DPI           int    `json:"dpi,omitempty" jsonschema:"device pixel ratio (1-3)"`
	Format        string `json:"format,omitempty" jsonschema:"gif or mp4"`
	Quality       string `json:"quality,omitempty" jsonschema:"low, medium, high or ultra"`
	Actions       string `json:"actions,omitempty" jsonschema:"page action script, e.g. click:#menu,wait:500"`
	Filename      string `json:"filename,omitempty" jsonschema:"output name without extension"`
	OutputDir     string `json:"output_dir,omitempty" jsonschema:"directory for the output file"`
	Poster        bool   `json:"poster,omitempty" jsonschema:"also write the first frame as a PNG"`
	ArchiveFrames bool   `json:"archive_frames,omitempty" jsonschema:"also write a zip of all frames"`
}

// captureArgs are the arguments both tools share.
type captureArgs struct {
	url, device, params          string
	duration, fps, width, height int
}

type recordPageOutput struct {
	Path         string  `json:"path"`
	Format       string  `json:"format"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Strategy     string  `json:"strategy"`
	Frames       int     `json:"frames"`
	Planned      int     `json:"plannedFrames"`
	StoppedEarly bool    `json:"stoppedEarly"`
	SizeBytes    int64   `json:"sizeBytes"`
	ElapsedSec   float64 `json:"elapsedSeconds"`
	PosterPath   string  `json:"posterPath,omitempty"`
	ArchivePath  string  `json:"archivePath,omitempty"`
}

// --- Tool handlers ---

func (s *Server) handlePlanCapture(_ context.Context, _ *gomcp.CallToolRequest, input planCaptureInput) (*gomcp.CallToolResult, recorder.Preview, error) {
	opts := s.options(captureArgs{
		url: input.URL, device: input.Device, params: input.Params,
		duration: input.Duration, fps: input.FPS, width: input.Width, height: input.Height,
	})
	p, err := recorder.Plan(opts, input.ContentHeight)
	if err != nil {
		return errorResult(err.Error()), recorder.Preview{}, nil
	}
	return nil, *p, nil
}

func (s *Server) handleRecordPage(ctx context.Context, _ *gomcp.CallToolRequest, input recordPageInput) (*gomcp.CallToolResult, recordPageOutput, error) {
	opts := s.options(captureArgs{
		url: input.URL, device: input.Device, params: input.Params,
		duration: input.Duration, fps: input.FPS, width: input.Width, height: input.Height,
	})
	if input.DPI > 0 {
		opts.DPI = input.DPI
	}
	if input.Format != "" {
		opts.Format = encoder.Format(input.Format)
	}
	if input.Quality != "" {
		opts.Quality = input.Quality
	}
	if input.OutputDir != "" {
		opts.OutputDir = input.OutputDir
	}
	opts.Actions = input.Actions
	opts.Filename = input.Filename
	opts.Poster = input.Poster
	opts.ArchiveFrames = input.ArchiveFrames

	log.Info().Str("url", opts.URL).Str("device", opts.Device).Msg("Recording requested over MCP")

	out, err := s.rec.Record(ctx, opts)
	if err != nil {
		var verr *recorder.ValidationError
		if errors.As(err, &verr) {
			return errorResult(verr.Error()), recordPageOutput{}, nil
		}
		return errorResult("recording failed: " + err.Error()), recordPageOutput{}, nil
	}

	return nil, recordPageOutput{
		Path:         out.Path,
		Format:       string(out.Format),
		Width:        out.Width,
		Height:       out.Height,
		Strategy:     out.Strategy,
		Frames:       out.Frames,
		Planned:      out.PlannedFrames,
		StoppedEarly: out.StoppedEarly,
		SizeBytes:    out.SizeBytes,
		ElapsedSec:   out.Elapsed.Round(time.Millisecond).Seconds(),
		PosterPath:   out.PosterPath,
		ArchivePath:  out.ArchivePath,
	}, nil
}

// options applies the shared capture arguments over the server defaults.
// A device without explicit dimensions drops the default viewport so the
// device profile applies.
func (s *Server) options(in captureArgs) recorder.Options {
	opts := s.defaults
	opts.URL = in.url
	if in.device != "" {
		opts.Device = in.device
		opts.Width, opts.Height = 0, 0
	}
	if in.duration > 0 {
		opts.Duration = time.Duration(in.duration) * time.Second
	}
	if in.fps > 0 {
		opts.FPS = in.fps
	}
	if in.width > 0 {
		opts.Width = in.width
	}
	if in.height > 0 {
		opts.Height = in.height
	}
	if in.params != "" {
		opts.Params = in.params
	}
	return opts
}

// errorResult creates a CallToolResult indicating an error.
func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
