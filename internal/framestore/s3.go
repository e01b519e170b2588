package framestore

import (
	"context"
	"fmt"
	"path"

	"github.com/fpang/web-gif-recorder/internal/s3util"
)

// S3Sink uploads frames to Bucket under Prefix. The locator is an s3:// URI.
type S3Sink struct {
	Client s3util.PutObjectAPI
	Bucket string
	Prefix string
}

func (s *S3Sink) Store(ctx context.Context, index int, data []byte) (string, error) {
	key := path.Join(s.Prefix, FrameName(index))
	if err := s3util.PutBytes(ctx, s.Client, s.Bucket, key, data); err != nil {
		return "", err
	}
	return fmt.Sprintf("s3://%s/%s", s.Bucket, key), nil
}

// Sink is the write side shared by every frame store.
type Sink interface {
	Store(ctx context.Context, index int, data []byte) (string, error)
}

// MultiSink stores each frame in Primary, then in every mirror. The
// primary locator is returned. Any failure fails the whole store.
type MultiSink struct {
	Primary Sink
	Mirrors []Sink
}

func (m *MultiSink) Store(ctx context.Context, index int, data []byte) (string, error) {
	locator, err := m.Primary.Store(ctx, index, data)
	if err != nil {
		return "", err
	}
	for _, mirror := range m.Mirrors {
		if _, err := mirror.Store(ctx, index, data); err != nil {
			return "", fmt.Errorf("mirror frame %d: %w", index, err)
		}
	}
	return locator, nil
}
