// Package fileio opens and creates files with transparent compression
// selected by filename extension. Paths ending in .gz use gzip and
// paths ending in .zst use zstd; anything else passes through
// unwrapped.
package fileio

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Open opens path for reading, decompressing according to its
// extension.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open gzip stream in %s: %v", path, err)
		}
		return &readCloser{r: zr, closers: []io.Closer{zr, f}}, nil
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to open zstd stream in %s: %v", path, err)
		}
		return &zstdReader{dec: zr, file: f}, nil
	default:
		return f, nil
	}
}

// Create creates path for writing, compressing according to its
// extension. Closing the returned writer flushes the compressor and
// closes the underlying file.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(path, ".gz"):
		zw, err := gzip.NewWriterLevel(f, gzip.DefaultCompression)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create gzip stream for %s: %v", path, err)
		}
		return &writeCloser{w: zw, closers: []io.Closer{zw, f}}, nil
	case strings.HasSuffix(path, ".zst"):
		zw, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create zstd stream for %s: %v", path, err)
		}
		return &writeCloser{w: zw, closers: []io.Closer{zw, f}}, nil
	default:
		return f, nil
	}
}

// readCloser chains the compressor's Close with the underlying
// file's.
type readCloser struct {
	r       io.Reader
	closers []io.Closer
}

func (rc *readCloser) Read(p []byte) (int, error) {
	return rc.r.Read(p)
}

func (rc *readCloser) Close() error {
	var first error
	for _, c := range rc.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// zstdReader adapts the decoder's error-less Close to io.ReadCloser.
type zstdReader struct {
	dec  *zstd.Decoder
	file *os.File
}

func (zr *zstdReader) Read(p []byte) (int, error) {
	return zr.dec.Read(p)
}

func (zr *zstdReader) Close() error {
	zr.dec.Close()
	return zr.file.Close()
}

type writeCloser struct {
	w       io.Writer
	closers []io.Closer
}

func (wc *writeCloser) Write(p []byte) (int, error) {
	return wc.w.Write(p)
}

func (wc *writeCloser) Close() error {
	var first error
	for _, c := range wc.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
