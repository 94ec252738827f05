package fsx

import "github.com/Abraxas-365/mailrelay/pkg/errx"

var fsxErrors = errx.NewRegistry("FSX")

var (
	ErrNotFound    = fsxErrors.Register("NOT_FOUND", errx.TypeNotFound, 404, "File not found")
	ErrInvalidPath = fsxErrors.Register("INVALID_PATH", errx.TypeValidation, 400, "Path escapes the file system root")
	ErrRead        = fsxErrors.Register("READ", errx.TypeExternal, 500, "Failed to read file")
	ErrWrite       = fsxErrors.Register("WRITE", errx.TypeExternal, 500, "Failed to write file")
)

// NotFound returns an ErrNotFound error for path.
func NotFound(path string) error {
	return fsxErrors.New(ErrNotFound).WithDetail("path", path)
}

// InvalidPath returns an ErrInvalidPath error for path.
func InvalidPath(path string) error {
	return fsxErrors.New(ErrInvalidPath).WithDetail("path", path)
}

// ReadError wraps a backend read failure.
func ReadError(path string, err error) error {
	return fsxErrors.NewWithCause(ErrRead, err).WithDetail("path", path)
}

// WriteError wraps a backend write failure.
func WriteError(path string, err error) error {
	return fsxErrors.NewWithCause(ErrWrite, err).WithDetail("path", path)
}
