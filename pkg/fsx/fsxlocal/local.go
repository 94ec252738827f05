package fsxlocal

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Abraxas-365/mailrelay/pkg/fsx"
)

// LocalFileSystem implements fsx.FileSystem on local disk.
type LocalFileSystem struct {
	basePath string // Root directory for all files
}

// NewLocalFileSystem creates the base directory if needed.
// basePath: root directory (e.g., "./data" or "/var/lib/mailrelay")
func NewLocalFileSystem(basePath string) (*LocalFileSystem, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fsx.WriteError(basePath, err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fsx.WriteError(basePath, err)
	}
	return &LocalFileSystem{basePath: absPath}, nil
}

var _ fsx.FileSystem = (*LocalFileSystem)(nil)

func (l *LocalFileSystem) ReadFile(_ context.Context, path string) ([]byte, error) {
	full, err := l.fullPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fsx.NotFound(path)
	}
	if err != nil {
		return nil, fsx.ReadError(path, err)
	}
	return data, nil
}

func (l *LocalFileSystem) List(_ context.Context, path string) ([]fsx.FileInfo, error) {
	full, err := l.fullPath(path)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fsx.NotFound(path)
	}
	if err != nil {
		return nil, fsx.ReadError(path, err)
	}

	out := make([]fsx.FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue // removed while listing
		}
		out = append(out, fsx.FileInfo{
			Name:    info.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			IsDir:   info.IsDir(),
		})
	}
	return out, nil
}

func (l *LocalFileSystem) Exists(_ context.Context, path string) (bool, error) {
	full, err := l.fullPath(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fsx.ReadError(path, err)
	}
	return true, nil
}

// WriteFile writes data atomically by renaming a temporary file into place.
func (l *LocalFileSystem) WriteFile(_ context.Context, path string, data []byte) error {
	full, err := l.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fsx.WriteError(path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".tmp-*")
	if err != nil {
		return fsx.WriteError(path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fsx.WriteError(path, err)
	}
	if err := tmp.Close(); err != nil {
		return fsx.WriteError(path, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return fsx.WriteError(path, err)
	}
	return nil
}

// BasePath returns the absolute root directory.
func (l *LocalFileSystem) BasePath() string {
	return l.basePath
}

func (l *LocalFileSystem) fullPath(path string) (string, error) {
	full := filepath.Join(l.basePath, filepath.FromSlash(path))
	if full != l.basePath && !strings.HasPrefix(full, l.basePath+string(filepath.Separator)) {
		return "", fsx.InvalidPath(path)
	}
	return full, nil
}
