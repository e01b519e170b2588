package framestore

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// zipMethodZstd is the ZIP compression method ID for Zstandard (APPNOTE 6.3.7).
const zipMethodZstd uint16 = 93

func init() {
	// Frames are PNGs, so the default level is used rather than the slow ones.
	zip.RegisterCompressor(zipMethodZstd, func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
}

// WriteArchive writes the given frame files into a zstd-compressed zip on w,
// in order, under their base names.
func WriteArchive(w io.Writer, paths []string) error {
	zw := zip.NewWriter(w)
	var total int64

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		header := &zip.FileHeader{
			Name:     filepath.Base(p),
			Method:   zipMethodZstd,
			Modified: info.ModTime().UTC().Truncate(time.Second),
		}
		entry, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("create zip entry %s: %w", header.Name, err)
		}

		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("open %s: %w", p, err)
		}
		n, err := io.Copy(entry, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("write zip entry %s: %w", header.Name, err)
		}
		total += n
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize zip: %w", err)
	}
	log.Debug().Int("files", len(paths)).Int64("bytes", total).Msg("Frame archive written")
	return nil
}

// WriteArchiveFile writes the archive to dest.
func WriteArchiveFile(dest string, paths []string) error {
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	if err := WriteArchive(f, paths); err != nil {
		f.Close()
		os.Remove(dest)
		return err
	}
	return f.Close()
}

// OpenArchiveReader returns a zip reader able to decompress archives written
// by WriteArchive.
func OpenArchiveReader(r io.ReaderAt, size int64) (*zip.Reader, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	zr.RegisterDecompressor(zipMethodZstd, zstd.ZipDecompressor())
	return zr, nil
}
