// Package format describes raw output layouts for decoded VVC pictures.
package format

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unsafe"
)

// ErrUnsupportedFormat is returned for chroma/bit-depth combinations
// that have no output pixel format.
var ErrUnsupportedFormat = errors.New("format: unsupported chroma format or bit depth")

// ColorFormat is the chroma subsampling reported by the engine.
type ColorFormat int

const (
	ColorInvalid ColorFormat = iota - 1
	Color400
	Color420
	Color422
	Color444
)

// String returns the conventional name of the chroma format.
func (c ColorFormat) String() string {
	switch c {
	case Color400:
		return "4:0:0"
	case Color420:
		return "4:2:0"
	case Color422:
		return "4:2:2"
	case Color444:
		return "4:4:4"
	default:
		return "invalid"
	}
}

// PixelFormat is a planar output layout.
type PixelFormat int

const (
	PixelUnknown PixelFormat = iota
	I420
	Y42B
	Y444
	I420_10LE
	I420_10BE
	I422_10LE
	I422_10BE
	Y444_10LE
	Y444_10BE
)

var pixelNames = map[PixelFormat]string{
	I420:      "I420",
	Y42B:      "Y42B",
	Y444:      "Y444",
	I420_10LE: "I420_10LE",
	I420_10BE: "I420_10BE",
	I422_10LE: "I422_10LE",
	I422_10BE: "I422_10BE",
	Y444_10LE: "Y444_10LE",
	Y444_10BE: "Y444_10BE",
}

// String returns the pixel format name.
func (p PixelFormat) String() string {
	if name, ok := pixelNames[p]; ok {
		return name
	}
	return "unknown"
}

// BitDepth returns the number of significant bits per sample.
func (p PixelFormat) BitDepth() int {
	switch p {
	case I420, Y42B, Y444:
		return 8
	case PixelUnknown:
		return 0
	default:
		return 10
	}
}

// BytesPerSample returns the storage size of one sample.
func (p PixelFormat) BytesPerSample() int {
	if p.BitDepth() > 8 {
		return 2
	}
	return 1
}

// Chroma returns the subsampling of the pixel format.
func (p PixelFormat) Chroma() ColorFormat {
	switch p {
	case I420, I420_10LE, I420_10BE:
		return Color420
	case Y42B, I422_10LE, I422_10BE:
		return Color422
	case Y444, Y444_10LE, Y444_10BE:
		return Color444
	default:
		return ColorInvalid
	}
}

// ByteOrder returns the storage order of 16-bit samples.
func (p PixelFormat) ByteOrder() binary.ByteOrder {
	switch p {
	case I420_10BE, I422_10BE, Y444_10BE:
		return binary.BigEndian
	default:
		return binary.LittleEndian
	}
}

var nativeLittleEndian = func() bool {
	var probe uint16 = 1
	b := (*[2]byte)(unsafe.Pointer(&probe))
	return b[0] == 1
}()

// NativeByteOrder returns the byte order 16-bit samples are stored in.
func NativeByteOrder() binary.ByteOrder {
	if nativeLittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// FromPicture maps the engine's chroma format and bit depth to an output
// pixel format. 10-bit formats use the host byte order.
func FromPicture(cf ColorFormat, bitDepth int) (PixelFormat, error) {
	if bitDepth <= 0 || bitDepth > 10 {
		return PixelUnknown, fmt.Errorf("%w: %s at %d bit", ErrUnsupportedFormat, cf, bitDepth)
	}
	high := bitDepth > 8
	switch cf {
	case Color420:
		if !high {
			return I420, nil
		}
		if nativeLittleEndian {
			return I420_10LE, nil
		}
		return I420_10BE, nil
	case Color422:
		if !high {
			return Y42B, nil
		}
		if nativeLittleEndian {
			return I422_10LE, nil
		}
		return I422_10BE, nil
	case Color444:
		if !high {
			return Y444, nil
		}
		if nativeLittleEndian {
			return Y444_10LE, nil
		}
		return Y444_10BE, nil
	default:
		return PixelUnknown, fmt.Errorf("%w: %s at %d bit", ErrUnsupportedFormat, cf, bitDepth)
	}
}
