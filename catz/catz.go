// Package catz handles (optionally) gzipped files of newline-delimited JSON.
package catz

import (
	"compress/gzip"
	"github.com/rotblauer/trajd/params"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

type GZFileWriter struct {
	f      *os.File
	gzw    *gzip.Writer
	locked bool
	closed bool
}

type GZFileWriterConfig struct {
	CompressionLevel int
	Flag             int
	FilePerm         os.FileMode
	DirPerm          os.FileMode
}

func DefaultGZFileWriterConfig() *GZFileWriterConfig {
	return &GZFileWriterConfig{
		CompressionLevel: params.DefaultGZipCompressionLevel,
		Flag:             os.O_WRONLY | os.O_APPEND | os.O_CREATE,
		FilePerm:         0660,
		DirPerm:          0770,
	}
}

func NewGZFileWriter(path string, config *GZFileWriterConfig) (*GZFileWriter, error) {
	if config == nil {
		config = DefaultGZFileWriterConfig()
	}
	if err := os.MkdirAll(filepath.Dir(path), config.DirPerm); err != nil {
		return nil, err
	}
	fi, err := os.OpenFile(path, config.Flag, config.FilePerm)
	if err != nil {
		return nil, err
	}
	gzw, err := gzip.NewWriterLevel(fi, config.CompressionLevel)
	if err != nil {
		_ = fi.Close()
		return nil, err
	}
	return &GZFileWriter{f: fi, gzw: gzw}, nil
}

func (g *GZFileWriter) Write(p []byte) (int, error) {
	g.lock()
	return g.gzw.Write(p)
}

// lock locks the file for exclusive access.
// The lock will be invalidated if and when the file is closed.
func (g *GZFileWriter) lock() {
	if g.locked || g.closed || g.f == nil {
		return
	}
	_ = syscall.Flock(int(g.f.Fd()), syscall.LOCK_EX)
	g.locked = true
}

func (g *GZFileWriter) Close() error {
	if g.closed {
		return nil
	}
	defer func() {
		g.closed = true
	}()
	if err := g.gzw.Close(); err != nil {
		_ = g.f.Close()
		return err
	}
	return g.f.Close()
}

func (g *GZFileWriter) Path() string {
	return g.f.Name()
}

// GZReader is a gzip reader closing its underlying reader, if it can.
type GZReader struct {
	under io.Reader
	gzr   *gzip.Reader
}

func NewGZReader(r io.Reader) (*GZReader, error) {
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &GZReader{under: r, gzr: gzr}, nil
}

func NewGZFileReader(path string) (*GZReader, error) {
	fi, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewGZReader(fi)
	if err != nil {
		_ = fi.Close()
		return nil, err
	}
	return r, nil
}

func (g *GZReader) Read(p []byte) (int, error) {
	return g.gzr.Read(p)
}

func (g *GZReader) Close() error {
	if err := g.gzr.Close(); err != nil {
		return err
	}
	if c, ok := g.under.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func IsGZ(path string) bool {
	return strings.HasSuffix(path, ".gz")
}

// OpenReader opens path for reading, decompressing .gz files.
// The path "-" (or "") is stdin, which is not closed by the returned closer.
func OpenReader(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	if IsGZ(path) {
		gzr, err := NewGZFileReader(path)
		if err != nil {
			return nil, err
		}
		return gzr, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// OpenWriter opens path for writing, truncating it, and compressing .gz files.
// The path "-" (or "") is stdout, which is not closed by the returned closer.
func OpenWriter(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	config := DefaultGZFileWriterConfig()
	config.Flag = os.O_WRONLY | os.O_TRUNC | os.O_CREATE
	if IsGZ(path) {
		gzw, err := NewGZFileWriter(path, config)
		if err != nil {
			return nil, err
		}
		return gzw, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), config.DirPerm); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, config.Flag, config.FilePerm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
