package ports

import (
	"sync"

	"github.com/user/vvdec/pkg/format"
)

// OutputPlane is one plane of an assembled output buffer.
type OutputPlane struct {
	Data           []byte
	Offset         int
	Stride         int
	Width          int
	Height         int
	BytesPerSample int
	// Aliased is true when Data points into engine memory.
	Aliased bool
}

// Row returns the meaningful bytes of row y.
func (p OutputPlane) Row(y int) []byte {
	start := p.Offset + y*p.Stride
	return p.Data[start : start+p.Width*p.BytesPerSample]
}

// Rational is a frame rate; the zero value means unknown.
type Rational struct {
	Num, Den int
}

// Valid reports whether both terms are positive.
func (r Rational) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// OutputBuffer is a frame handed to the host.
type OutputBuffer struct {
	Info     format.VideoInfo
	Planes   []OutputPlane
	Sequence uint64
	Offset   uint64
	CTS      uint64
	CTSValid bool

	// FrameRate is the stream timing when the picture carried it.
	FrameRate Rational

	release func()
	once    sync.Once
}

// NewOutputBuffer creates a buffer whose Release calls release once.
func NewOutputBuffer(info format.VideoInfo, planes []OutputPlane, release func()) *OutputBuffer {
	return &OutputBuffer{
		Info:    info,
		Planes:  planes,
		release: release,
	}
}

// Aliased reports whether any plane references engine memory.
func (b *OutputBuffer) Aliased() bool {
	for _, p := range b.Planes {
		if p.Aliased {
			return true
		}
	}
	return false
}

// Release frees the buffer's memory. Safe to call more than once.
func (b *OutputBuffer) Release() {
	b.once.Do(func() {
		if b.release != nil {
			b.release()
		}
	})
}
