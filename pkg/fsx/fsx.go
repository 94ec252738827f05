package fsx

import (
	"context"
	"time"
)

// FileInfo describes a stored file.
type FileInfo struct {
	Name    string    // Base name of the file
	Size    int64     // File size in bytes
	ModTime time.Time // Modification time
	IsDir   bool      // Is a directory (or a common prefix on object stores)
}

// FileReader provides read-only operations. Paths are slash separated and
// relative to the file system root.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	List(ctx context.Context, path string) ([]FileInfo, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// FileWriter provides write operations. Parent directories are created as needed.
type FileWriter interface {
	WriteFile(ctx context.Context, path string, data []byte) error
}

// FileSystem combines all file operations.
type FileSystem interface {
	FileReader
	FileWriter
}
