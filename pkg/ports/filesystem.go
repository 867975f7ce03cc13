package ports

import "io"

// FileSystem abstracts the files a decode run reads and writes.
type FileSystem interface {
	// Open opens a file for streaming reads.
	Open(path string) (io.ReadCloser, error)

	// Create creates or truncates a file for streaming writes,
	// creating parent directories as needed.
	Create(path string) (io.WriteCloser, error)

	WriteFile(path string, data []byte) error

	MkdirAll(path string) error

	Exists(path string) (bool, error)

	Remove(path string) error
}
