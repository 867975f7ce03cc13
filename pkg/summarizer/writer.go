package summarizer

import (
	"fmt"

	"github.com/user/vvdec/pkg/ports"
)

// Writer writes formatted summaries through a FileSystem.
type Writer struct {
	formatter Formatter
	fs        ports.FileSystem
}

// NewWriter creates a new Writer.
func NewWriter(formatter Formatter, fs ports.FileSystem) *Writer {
	return &Writer{
		formatter: formatter,
		fs:        fs,
	}
}

// Write formats the summary and writes it to path. "-" writes to stdout.
func (w *Writer) Write(path string, summary *Summary) error {
	content := w.formatter.Format(summary)

	if path == "-" {
		out, err := w.fs.Create(path)
		if err != nil {
			return fmt.Errorf("open stdout: %w", err)
		}
		defer out.Close()
		_, err = out.Write([]byte(content))
		return err
	}

	if err := w.fs.WriteFile(path, []byte(content)); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
