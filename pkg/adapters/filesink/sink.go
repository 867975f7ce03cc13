// Package filesink saves access units and frame previews to a directory.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/vvdec/pkg/ports"
)

// Sink writes debug artifacts below baseDir:
//
//	units/unit-000042.266
//	frames/frame-000042.png
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

func (s *Sink) Enabled() bool {
	return true
}

// SaveAccessUnit writes the raw unit, start code included.
func (s *Sink) SaveAccessUnit(index int, data []byte) error {
	dir := filepath.Join(s.baseDir, "units")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	return s.fs.WriteFile(filepath.Join(dir, fmt.Sprintf("unit-%06d.266", index)), data)
}

// SaveFrame writes a PNG preview named after the frame offset.
func (s *Sink) SaveFrame(offset uint64, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodePNG(img)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", offset, err)
	}
	return s.fs.WriteFile(filepath.Join(dir, fmt.Sprintf("frame-%06d.png", offset)), data)
}

var _ ports.DebugSink = (*Sink)(nil)
