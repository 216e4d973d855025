package blobs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/JaimeStill/delivery-notes/pkg/lifecycle"
)

// Filesystem stores blobs under a base directory.
type Filesystem struct {
	basePath string
	logger   *slog.Logger
}

// NewFilesystem creates a filesystem store rooted at dir. The directory is
// created during Start.
func NewFilesystem(dir string, logger *slog.Logger) (*Filesystem, error) {
	if dir == "" {
		return nil, fmt.Errorf("blob dir required")
	}

	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve blob dir: %w", err)
	}

	return &Filesystem{
		basePath: absPath,
		logger:   logger.With("system", "blobs", "backend", BackendFilesystem),
	}, nil
}

func (f *Filesystem) Start(lc *lifecycle.Coordinator) error {
	f.logger.Info("starting blob store", "base_path", f.basePath)
	if err := os.MkdirAll(f.basePath, 0755); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}
	return nil
}

func (f *Filesystem) Put(ctx context.Context, data []byte) (string, error) {
	key := Hash(data)

	exists, err := f.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if exists {
		return key, nil
	}

	if err := f.PutKeyed(ctx, key, data); err != nil {
		return "", err
	}
	return key, nil
}

func (f *Filesystem) PutKeyed(ctx context.Context, key string, data []byte) error {
	path, err := f.fullPath(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (f *Filesystem) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := f.fullPath(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, mapFSError(err, "read blob")
	}
	return data, nil
}

func (f *Filesystem) Exists(ctx context.Context, key string) (bool, error) {
	path, err := f.fullPath(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, mapFSError(err, "stat blob")
	}
	return true, nil
}

func (f *Filesystem) Delete(ctx context.Context, key string) error {
	path, err := f.fullPath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return mapFSError(err, "remove blob")
	}

	dir := filepath.Dir(path)
	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
			f.logger.Warn("failed to remove empty shard directory", "dir", dir, "error", err)
		}
	}
	return nil
}

func (f *Filesystem) Walk(ctx context.Context, fn func(key string) error) error {
	err := filepath.WalkDir(f.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !ValidKey(d.Name()) {
			return nil
		}
		if filepath.Base(filepath.Dir(path)) != d.Name()[:2] {
			return nil
		}
		return fn(d.Name())
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (f *Filesystem) fullPath(key string) (string, error) {
	rel, err := ObjectPath(key)
	if err != nil {
		return "", err
	}

	full := filepath.Join(f.basePath, filepath.FromSlash(rel))
	if !strings.HasPrefix(full, f.basePath+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return full, nil
}

func mapFSError(err error, op string) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrPermissionDenied
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
