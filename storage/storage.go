package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrInvalidPath is returned for paths that are absolute or would leave the
// workspace.
var ErrInvalidPath = errors.New("storage: invalid path")

// FileInfo describes one stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Workspace is a per-job scratch area. Objects are named by slash-separated
// relative paths and are also reachable as local files, since ffmpeg and
// the model sidecars read real paths.
type Workspace interface {
	// Root returns the absolute directory holding the objects.
	Root() string
	// LocalPath returns the file path for a relative object path.
	LocalPath(path string) (string, error)
	// Upload writes r to path and returns the number of bytes written.
	Upload(ctx context.Context, path string, r io.Reader) (int64, error)
	// Exists reports whether an object is stored at path.
	Exists(ctx context.Context, path string) (bool, error)
	// Delete removes path. A missing object is not an error.
	Delete(ctx context.Context, path string) error
	// List returns the objects under prefix, sorted by path.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
	// Purge removes the workspace and everything in it.
	Purge(ctx context.Context) error
}
