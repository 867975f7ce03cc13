// Package nullsink provides a DebugSink that discards everything.
package nullsink

import (
	"image"

	"github.com/user/vvdec/pkg/ports"
)

type Sink struct{}

func New() *Sink {
	return &Sink{}
}

func (s *Sink) Enabled() bool                                  { return false }
func (s *Sink) SaveAccessUnit(index int, data []byte) error     { return nil }
func (s *Sink) SaveFrame(offset uint64, img image.Image) error { return nil }

var _ ports.DebugSink = (*Sink)(nil)
