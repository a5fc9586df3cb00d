// Package local implements storage.Workspace in a directory on disk.
package local

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/kbukum/scribe/storage"
)

// Storage is a storage.Workspace confined to one directory with os.Root,
// so no object path can reach outside it.
type Storage struct {
	dir  string
	root *os.Root
}

var _ storage.Workspace = (*Storage)(nil)

// NewStorage creates dir if needed and opens it as a workspace.
func NewStorage(dir string) (*Storage, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", abs, err)
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", abs, err)
	}
	return &Storage{dir: abs, root: root}, nil
}

// Root returns the absolute workspace directory.
func (s *Storage) Root() string { return s.dir }

func clean(p string) (string, error) {
	name := filepath.FromSlash(p)
	if !filepath.IsLocal(name) || filepath.Clean(name) == "." {
		return "", fmt.Errorf("%w: %q", storage.ErrInvalidPath, p)
	}
	return filepath.Clean(name), nil
}

// LocalPath returns the absolute file path of object p.
func (s *Storage) LocalPath(p string) (string, error) {
	name, err := clean(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// Upload writes r to p, creating parent directories.
func (s *Storage) Upload(_ context.Context, p string, r io.Reader) (int64, error) {
	name, err := clean(p)
	if err != nil {
		return 0, err
	}
	if dir := filepath.Dir(name); dir != "." {
		if err := s.root.MkdirAll(dir, 0o750); err != nil {
			return 0, fmt.Errorf("storage: mkdir %s: %w", dir, err)
		}
	}
	f, err := s.root.Create(name)
	if err != nil {
		return 0, fmt.Errorf("storage: create %s: %w", p, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("storage: write %s: %w", p, err)
	}
	return n, nil
}

// Exists reports whether p is stored.
func (s *Storage) Exists(_ context.Context, p string) (bool, error) {
	name, err := clean(p)
	if err != nil {
		return false, err
	}
	_, err = s.root.Stat(name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	}
	return false, fmt.Errorf("storage: stat %s: %w", p, err)
}

// Delete removes p if present.
func (s *Storage) Delete(_ context.Context, p string) error {
	name, err := clean(p)
	if err != nil {
		return err
	}
	if err := s.root.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", p, err)
	}
	return nil
}

// List walks the workspace and returns the files whose slash path starts
// with prefix.
func (s *Storage) List(_ context.Context, prefix string) ([]storage.FileInfo, error) {
	var files []storage.FileInfo
	err := fs.WalkDir(s.root.FS(), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasPrefix(p, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, storage.FileInfo{
			Path:         p,
			Size:         info.Size(),
			LastModified: info.ModTime(),
			ContentType:  cmp.Or(mime.TypeByExtension(path.Ext(p)), "application/octet-stream"),
		})
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("storage: list %q: %w", prefix, err)
	}
	return files, nil
}

// Purge closes the workspace and deletes its directory. Calling it again is
// a no-op.
func (s *Storage) Purge(_ context.Context) error {
	_ = s.root.Close()
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("storage: purge %s: %w", s.dir, err)
	}
	return nil
}
