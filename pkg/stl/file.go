package stl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression identifies the container wrapped around an STL file.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
)

// String returns a human-readable compression name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// CompressionFor picks the compression from the file extension
// (".gz" or ".zst"), defaulting to none.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// ParseFile parses an STL file from disk, decompressing ".gz" and ".zst" files.
func ParseFile(path string) (*STL, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening STL file: %w", err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	switch CompressionFor(path) {
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream %q: %w", path, err)
		}
		defer zr.Close()
		r = zr
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening zstd stream %q: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	s, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	return s, nil
}

// WriteFile writes s to path, compressing according to the file extension.
func (s *STL) WriteFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating STL file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %q: %w", path, cerr)
		}
	}()

	var w io.WriteCloser
	switch CompressionFor(path) {
	case CompressionGzip:
		w = gzip.NewWriter(f)
	case CompressionZstd:
		zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return fmt.Errorf("opening zstd stream %q: %w", path, err)
		}
		w = zw
	default:
		if _, err := s.WriteTo(f); err != nil {
			return fmt.Errorf("writing %q: %w", path, err)
		}
		return nil
	}

	if _, err := s.WriteTo(w); err != nil {
		w.Close()
		return fmt.Errorf("writing %q: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("flushing %q: %w", path, err)
	}
	return nil
}
