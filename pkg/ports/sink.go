package ports

import "image"

// DebugSink receives intermediate artifacts of a decode run.
type DebugSink interface {
	// Enabled reports whether anything is saved.
	Enabled() bool

	// SaveAccessUnit stores the raw bytes of one access unit.
	SaveAccessUnit(index int, data []byte) error

	// SaveFrame stores a preview image of an output frame.
	SaveFrame(offset uint64, img image.Image) error
}
