package util

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// atomicFile is the part of *os.File that WriteFileAtomic touches.
type atomicFile interface {
	Write([]byte) (int, error)
	Sync() error
	Close() error
	Name() string
}

// atomicFS abstracts the file-system calls behind an atomic write.
type atomicFS interface {
	CreateTemp(string, string) (atomicFile, error)
	Chmod(string, fs.FileMode) error
	Rename(string, string) error
	Remove(string) error
}

type osAtomicFS struct{}

func (osAtomicFS) CreateTemp(dir, pattern string) (atomicFile, error) {
	file, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}
	return file, nil
}
func (osAtomicFS) Chmod(name string, perm fs.FileMode) error { return os.Chmod(name, perm) }
func (osAtomicFS) Rename(oldpath, newpath string) error      { return os.Rename(oldpath, newpath) }
func (osAtomicFS) Remove(name string) error                  { return os.Remove(name) }

var defaultAtomicFS atomicFS = osAtomicFS{}

// WriteFileAtomic replaces path with data through a temporary file in the same
// directory. The directory must already exist; on any failure path is left
// untouched and the temporary file is removed.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) error {
	return writeFileAtomic(defaultAtomicFS, path, data, perm)
}

func writeFileAtomic(fsys atomicFS, path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)

	tmp, err := fsys.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		// #nosec G104 -- best-effort removal of the temp file
		fsys.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		// #nosec G104 -- closing before removal, the write error wins
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		// #nosec G104 -- closing before removal, the sync error wins
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := fsys.Chmod(tmpName, perm); err != nil {
		cleanup()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err := fsys.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// ReplaceFile overwrites the content of path the way opening it for writing
// would. A missing path is created atomically with perm. An existing regular
// file is replaced atomically and keeps its own permission bits unless
// forcePerm is set. Symlinks and non-regular files (devices, pipes) are
// written in place through the link, as is a regular file whose directory
// does not allow creating a temp file.
func ReplaceFile(path string, data []byte, perm fs.FileMode, forcePerm bool) error {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return WriteFileAtomic(path, data, perm)
		}
		return fmt.Errorf("failed to inspect %s: %w", path, err)
	}

	if !info.Mode().IsRegular() {
		return writeInPlace(path, data, perm, forcePerm)
	}

	mode := info.Mode().Perm()
	if forcePerm {
		mode = perm
	}
	err = WriteFileAtomic(path, data, mode)
	if errors.Is(err, fs.ErrPermission) {
		return writeInPlace(path, data, perm, forcePerm)
	}
	return err
}

func writeInPlace(path string, data []byte, perm fs.FileMode, forcePerm bool) error {
	// os.WriteFile follows symlinks and truncates; perm only applies on create.
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if !forcePerm {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", path, err)
	}
	if info.Mode().IsRegular() && info.Mode().Perm() != perm {
		if err := os.Chmod(path, perm); err != nil {
			return fmt.Errorf("failed to chmod %s: %w", path, err)
		}
	}
	return nil
}
