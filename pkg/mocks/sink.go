package mocks

import (
	"image"
	"sync"

	"github.com/user/vvdec/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	AccessUnits map[int][]byte
	Frames      map[uint64]image.Image
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:     enabled,
		AccessUnits: make(map[int][]byte),
		Frames:      make(map[uint64]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveAccessUnit(index int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AccessUnits[index] = append([]byte(nil), data...)
	return nil
}

func (m *DebugSink) SaveFrame(offset uint64, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Frames[offset] = img
	return nil
}

// FrameCount returns the number of saved frames.
func (m *DebugSink) FrameCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Frames)
}

var _ ports.DebugSink = (*DebugSink)(nil)
