package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Storage keeps blobs under slash separated relative paths.
type Storage interface {
	Save(ctx context.Context, p string, r io.Reader) (int64, error)
	Open(ctx context.Context, p string) (io.ReadCloser, int64, error)
	Delete(ctx context.Context, p string) error
}

// DiskStorage stores blobs on the local filesystem below Root.
type DiskStorage struct {
	Root string
}

func NewDiskStorage(root string) *DiskStorage {
	if root == "" {
		root = "./uploads"
	}
	return &DiskStorage{Root: root}
}

func (d *DiskStorage) Save(ctx context.Context, p string, r io.Reader) (int64, error) {
	abs, err := d.resolve(p)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return 0, fmt.Errorf("create upload directory: %w", err)
	}

	dst, err := os.Create(abs)
	if err != nil {
		return 0, fmt.Errorf("create file: %w", err)
	}
	n, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(abs)
		return 0, fmt.Errorf("write file: %w", err)
	}
	return n, nil
}

func (d *DiskStorage) Open(ctx context.Context, p string) (io.ReadCloser, int64, error) {
	abs, err := d.resolve(p)
	if err != nil {
		return nil, 0, err
	}
	f, err := os.Open(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, ErrFileNotFound
	}
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, ErrFileNotFound
	}
	return f, info.Size(), nil
}

// Delete removes the blob. A missing blob is not an error.
func (d *DiskStorage) Delete(ctx context.Context, p string) error {
	abs, err := d.resolve(p)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// resolve only accepts clean relative paths, so nothing escapes Root.
func (d *DiskStorage) resolve(p string) (string, error) {
	if p == "" || strings.Contains(p, "\\") {
		return "", ErrInvalidPath
	}
	clean := path.Clean("/" + p)
	if clean == "/" || clean[1:] != p {
		return "", ErrInvalidPath
	}
	return filepath.Join(d.Root, filepath.FromSlash(p)), nil
}
