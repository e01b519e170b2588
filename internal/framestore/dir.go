// Package framestore persists captured frames: to a per-session directory
// on disk, to S3, or both, and bundles them into archives.
package framestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// FramePattern is the printf pattern frames are named with. Encoders read
// the sequence back with the same pattern starting at 0.
const FramePattern = "frame_%04d.png"

// FrameName returns the file name of frame index.
func FrameName(index int) string {
	return fmt.Sprintf(FramePattern, index)
}

// NewSessionDir creates a uniquely named directory under root for one
// recording session.
func NewSessionDir(root string) (string, error) {
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, "webgif-"+uuid.New().String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	log.Debug().Str("dir", dir).Msg("Created session directory")
	return dir, nil
}

// DirSink writes frames into Dir as FramePattern files. The locator is the
// file path.
type DirSink struct {
	Dir string
}

func (d *DirSink) Store(ctx context.Context, index int, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(d.Dir, FrameName(index))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// Pattern returns the full printf path pattern of the stored sequence.
func (d *DirSink) Pattern() string {
	return filepath.Join(d.Dir, FramePattern)
}

// Cleanup removes a session directory and everything in it. Errors are
// logged, not returned.
func Cleanup(dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("Failed to remove session directory")
		return
	}
	log.Debug().Str("dir", dir).Msg("Removed session directory")
}
