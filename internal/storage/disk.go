package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DiskStore keeps images in a local directory.
type DiskStore struct {
	dir string
}

var _ ImageStore = (*DiskStore)(nil)

// NewDiskStore creates the directory if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save writes to a temporary file first so readers never see a partial image.
func (s *DiskStore) Save(_ context.Context, filename string, r io.Reader, _ int64, _ string) error {
	if !IsSafeFilename(filename) {
		return fmt.Errorf("invalid filename %q", filename)
	}
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close image: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, filename)); err != nil {
		return fmt.Errorf("store image: %w", err)
	}
	return nil
}

func (s *DiskStore) Open(_ context.Context, filename string) (io.ReadCloser, *ObjectInfo, error) {
	if !IsSafeFilename(filename) {
		return nil, nil, ErrImageNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, filename))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, ErrImageNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open image: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("stat image: %w", err)
	}
	if stat.IsDir() {
		f.Close()
		return nil, nil, ErrImageNotFound
	}
	return f, &ObjectInfo{ContentType: ContentTypeFor(filename), Size: stat.Size()}, nil
}

// Delete removes the file; a missing file is not an error.
func (s *DiskStore) Delete(_ context.Context, filename string) error {
	if !IsSafeFilename(filename) {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filename))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}
