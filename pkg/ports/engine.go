package ports

import (
	"errors"

	"github.com/user/vvdec/pkg/format"
)

// Engine status values shared by every engine implementation.
var (
	// ErrNeedMoreInput means the engine consumed the access unit but has
	// no picture ready yet.
	ErrNeedMoreInput = errors.New("engine: need more input")

	// ErrEndOfStream means a flush found no more buffered pictures.
	ErrEndOfStream = errors.New("engine: end of stream")

	// ErrRestartRequired means the handle must be reset or reopened
	// before it accepts further calls.
	ErrRestartRequired = errors.New("engine: restart required")
)

// AccessUnit is one Annex-B unit handed to the engine.
// Payload is borrowed and only valid for the duration of the decode call.
type AccessUnit struct {
	Payload      []byte
	CTS          uint64
	CTSValid     bool
	DTS          uint64
	DTSValid     bool
	RandomAccess bool
}

// EngineParams configures a new engine handle.
type EngineParams struct {
	Threads    int // -1 lets the engine decide
	ParseDelay int // -1 lets the engine decide
	// RemovePadding asks the engine to crop conformance-window padding.
	RemovePadding     bool
	ErrorTolerance    bool
	VerifyPictureHash bool
}

// DefaultEngineParams returns parameters that defer every choice to the engine.
func DefaultEngineParams() EngineParams {
	return EngineParams{
		Threads:    -1,
		ParseDelay: -1,
	}
}

// Engine opens decoder handles.
type Engine interface {
	// Open creates a new handle configured with params.
	Open(params EngineParams) (EngineHandle, error)
}

// EngineHandle is one open decoder instance. Calls on a handle must be
// serialized by the caller.
type EngineHandle interface {
	// Decode submits an access unit. It returns a picture when one is
	// ready, or ErrNeedMoreInput.
	Decode(au AccessUnit) (Picture, error)

	// Flush drains one buffered picture per call. It returns
	// ErrEndOfStream once empty and ErrRestartRequired if called again
	// without an intervening Decode.
	Flush() (Picture, error)

	// Close releases the handle. Pictures still held stay valid until
	// they are released.
	Close() error
}

// Plane is one plane of a decoded picture as laid out by the engine.
type Plane struct {
	Data           []byte
	Width          int // samples
	Height         int // rows
	Stride         int // bytes
	BytesPerSample int
}

// RowBytes returns the number of meaningful bytes in one row.
func (p Plane) RowBytes() int {
	return p.Width * p.BytesPerSample
}

// Picture is a decoded picture owned by the engine until Release.
type Picture interface {
	Width() int
	Height() int
	BitDepth() int
	ColorFormat() format.ColorFormat

	// SequenceNumber increases by one per output picture.
	SequenceNumber() uint64

	// CTS echoes the composition timestamp of the originating access unit.
	CTS() (uint64, bool)

	NumPlanes() int
	Plane(i int) Plane

	// Release returns the picture to the engine. Calling it more than
	// once is a programming error.
	Release()
}

// TimedPicture is implemented by pictures that carry HRD timing.
type TimedPicture interface {
	FrameRate() (Rational, bool)
}
