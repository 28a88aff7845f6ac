package ingest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Source is one uploaded file.
type Source interface {
	// Name is the original file name; its first number decides page order.
	Name() string
	// Size is the payload length in bytes.
	Size() int64
	Open() (io.ReadCloser, error)
}

type fileSource struct {
	path string
	size int64
}

// FileSource returns a Source reading the file at path.
func FileSource(path string) (Source, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &fileSource{path: path, size: fi.Size()}, nil
}

func (f *fileSource) Name() string { return filepath.Base(f.path) }
func (f *fileSource) Size() int64  { return f.size }

func (f *fileSource) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

type bytesSource struct {
	name string
	data []byte
}

// BytesSource returns a Source over an in-memory payload.
func BytesSource(name string, data []byte) Source {
	return &bytesSource{name: name, data: data}
}

func (b *bytesSource) Name() string { return b.name }
func (b *bytesSource) Size() int64  { return int64(len(b.data)) }

func (b *bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

// DirSources returns a Source for every image file directly inside dir.
func DirSources(dir string, accept func(name string) bool) ([]Source, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	var sources []Source
	for _, e := range entries {
		if e.IsDir() || !accept(e.Name()) {
			continue
		}
		src, err := FileSource(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}
