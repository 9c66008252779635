// Package storage persists session reports under an output directory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrOutsideBase = errors.New("path escapes base directory")

// Storage is a flat key/value view of a directory tree. Keys are
// slash-separated paths relative to the base.
type Storage interface {
	Save(ctx context.Context, path string, data []byte) error
	Load(ctx context.Context, path string) ([]byte, error)
	List(ctx context.Context, pattern string) ([]string, error)
	Exists(ctx context.Context, path string) bool
	Delete(ctx context.Context, path string) error
}

type FileSystem struct {
	baseDir string
}

func NewFileSystem(baseDir string) *FileSystem {
	return &FileSystem{baseDir: filepath.Clean(baseDir)}
}

func (fs *FileSystem) BaseDir() string {
	return fs.baseDir
}

// resolve maps a relative key onto the base directory, rejecting absolute
// paths and any ".." element.
func (fs *FileSystem) resolve(path string) (string, error) {
	cleaned := filepath.Clean(path)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: absolute path %q", ErrOutsideBase, path)
	}
	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("%w: parent reference in %q", ErrOutsideBase, path)
	}

	full := filepath.Join(fs.baseDir, cleaned)
	if full != fs.baseDir && !strings.HasPrefix(full, fs.baseDir+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideBase, path)
	}
	return full, nil
}

func (fs *FileSystem) Save(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := fs.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	// Write then rename so readers never see a partial report.
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing file: %w", err)
	}
	return nil
}

func (fs *FileSystem) Load(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// List returns the keys matching a glob pattern, relative to the base.
func (fs *FileSystem) List(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := fs.resolve(pattern)
	if err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(full)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}

	results := make([]string, 0, len(matches))
	for _, match := range matches {
		rel, err := filepath.Rel(fs.baseDir, match)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		results = append(results, filepath.ToSlash(rel))
	}
	return results, nil
}

func (fs *FileSystem) Exists(_ context.Context, path string) bool {
	full, err := fs.resolve(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

func (fs *FileSystem) Delete(_ context.Context, path string) error {
	full, err := fs.resolve(path)
	if err != nil {
		return err
	}
	if full == fs.baseDir {
		return fmt.Errorf("refusing to delete base directory %s", fs.baseDir)
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("deleting %s: %w", path, err)
	}
	return nil
}
