// Package osfilesystem implements ports.FileSystem on the local disk.
package osfilesystem

import (
	"io"
	"os"
	"path/filepath"

	"github.com/user/vvdec/pkg/ports"
)

// FileSystem implements ports.FileSystem using the os package.
type FileSystem struct{}

func New() *FileSystem {
	return &FileSystem{}
}

// Open opens path for reading. "-" means stdin.
func (fs *FileSystem) Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// Create truncates or creates path, making parent directories.
// "-" means stdout.
func (fs *FileSystem) Create(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	return os.Create(path)
}

func (fs *FileSystem) WriteFile(path string, data []byte) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (fs *FileSystem) MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

func (fs *FileSystem) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (fs *FileSystem) Remove(path string) error {
	return os.Remove(path)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

var _ ports.FileSystem = (*FileSystem)(nil)
