// Package storage is the file-system collaborator of the index build and the
// query service. It lists and reads corpus documents and reads and writes
// index artifacts through a hackpadfs file system, so the same code runs
// against the host disk or an in-memory tree in tests.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	osfs "github.com/hack-pad/hackpadfs/os"

	apperrors "github.com/Adithya-Monish-Kumar-K/tfidf-search/pkg/errors"
)

// Lister enumerates the entry names of a directory.
type Lister interface {
	ListFiles(dir string) ([]string, error)
}

// TextReader reads one document as text.
type TextReader interface {
	ReadText(dir, name string) (string, error)
}

// FS adapts a hackpadfs.FS to host-style paths.
type FS struct {
	fs      hackpadfs.FS
	resolve func(p string) (string, error)
}

// NewOS returns an FS backed by the host file system. Relative paths are
// resolved against the working directory.
func NewOS() *FS {
	host := osfs.NewFS()
	return &FS{
		fs: host,
		resolve: func(p string) (string, error) {
			abs, err := filepath.Abs(p)
			if err != nil {
				return "", fmt.Errorf("resolving path %s: %w", p, err)
			}
			return host.FromOSPath(abs)
		},
	}
}

// NewMem returns an empty in-memory FS.
func NewMem() (*FS, error) {
	m, err := mem.NewFS()
	if err != nil {
		return nil, fmt.Errorf("creating memory fs: %w", err)
	}
	return &FS{fs: m, resolve: memPath}, nil
}

func memPath(p string) (string, error) {
	p = strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "/")
	if p == "" {
		p = "."
	}
	if !fs.ValidPath(p) {
		return "", fmt.Errorf("invalid path %q: %w", p, apperrors.ErrInvalidInput)
	}
	return p, nil
}

// ListFiles returns the names of the entries in dir in listing order.
func (s *FS) ListFiles(dir string) ([]string, error) {
	p, err := s.statDir(dir)
	if err != nil {
		return nil, err
	}
	entries, err := hackpadfs.ReadDir(s.fs, p)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// ReadText returns the content of dir/name as a string.
func (s *FS) ReadText(dir, name string) (string, error) {
	data, err := s.ReadFile(dir, name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadFile returns the content of dir/name.
func (s *FS) ReadFile(dir, name string) ([]byte, error) {
	p, err := s.resolve(filepath.Join(dir, name))
	if err != nil {
		return nil, err
	}
	data, err := hackpadfs.ReadFile(s.fs, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", filepath.Join(dir, name), apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", filepath.Join(dir, name), err)
	}
	return data, nil
}

// Exists reports whether dir/name exists.
func (s *FS) Exists(dir, name string) bool {
	p, err := s.resolve(filepath.Join(dir, name))
	if err != nil {
		return false
	}
	_, err = hackpadfs.Stat(s.fs, p)
	return err == nil
}

// WriteFile atomically replaces dir/name with data: it writes a .tmp file
// first and renames it into place. dir is created when missing.
func (s *FS) WriteFile(dir, name string, data []byte) error {
	p, err := s.resolve(dir)
	if err != nil {
		return err
	}
	if err := hackpadfs.MkdirAll(s.fs, p, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	finalPath := path.Join(p, name)
	tmpPath := finalPath + ".tmp"
	if err := hackpadfs.WriteFullFile(s.fs, tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("writing temp file for %s: %w", name, err)
	}
	if err := hackpadfs.Rename(s.fs, tmpPath, finalPath); err != nil {
		return fmt.Errorf("renaming %s into place: %w", name, err)
	}
	return nil
}

// Remove deletes dir/name. A missing file is not an error.
func (s *FS) Remove(dir, name string) error {
	p, err := s.resolve(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	if err := hackpadfs.Remove(s.fs, p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", filepath.Join(dir, name), err)
	}
	return nil
}

func (s *FS) statDir(dir string) (string, error) {
	p, err := s.resolve(dir)
	if err != nil {
		return "", err
	}
	info, err := hackpadfs.Stat(s.fs, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", dir, apperrors.ErrDirectoryNotFound)
		}
		return "", fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %w", dir, apperrors.ErrNotADirectory)
	}
	return p, nil
}
