// Package files stores résumé blobs on local disk or in an S3 bucket.
package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/IT21309038/Mini-Job-Board/internal/storage"
)

var ErrInvalidKey = errors.New("invalid storage key")

// Local keeps blobs under a root directory, one file per key.
type Local struct {
	root string
}

func NewLocal(root string) (*Local, error) {
	const op = "storage.files.NewLocal"

	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Local{root: root}, nil
}

func (l *Local) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	const op = "storage.files.Local.Put"

	path, err := l.path(key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o640)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (l *Local) Open(_ context.Context, key string) (io.ReadCloser, error) {
	const op = "storage.files.Local.Open"

	path, err := l.path(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrFileNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return f, nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	const op = "storage.files.Local.Delete"

	path, err := l.path(key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// path resolves key below the root and rejects anything escaping it.
func (l *Local) path(key string) (string, error) {
	if key == "" || filepath.IsAbs(key) || strings.Contains(key, `\`) {
		return "", ErrInvalidKey
	}

	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}

	return filepath.Join(l.root, clean), nil
}
