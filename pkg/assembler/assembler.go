// Package assembler builds output buffers from decoded pictures, aliasing
// engine planes when the layout allows it and copying otherwise.
package assembler

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/user/vvdec/pkg/format"
	"github.com/user/vvdec/pkg/picture"
	"github.com/user/vvdec/pkg/ports"
)

// ErrLayoutMismatch is returned when a picture does not fit the negotiated layout.
var ErrLayoutMismatch = errors.New("assembler: picture does not match output layout")

// Stats counts planes by how they were assembled.
type Stats struct {
	Aliased int64
	Copied  int64
}

// Assembler turns decoded pictures into output buffers. It is safe for
// concurrent use.
type Assembler struct {
	logger ports.Logger
	pool   sync.Pool

	aliased atomic.Int64
	copied  atomic.Int64
}

// New creates an Assembler.
func New(logger ports.Logger) *Assembler {
	return &Assembler{logger: logger}
}

// Stats returns plane counters accumulated so far.
func (a *Assembler) Stats() Stats {
	return Stats{Aliased: a.aliased.Load(), Copied: a.copied.Load()}
}

// Assemble builds a buffer for the picture held by ref in the layout info.
// A plane is aliased when the host accepts stride metadata or the engine
// stride already equals the layout stride; otherwise it is copied row by
// row. The returned buffer holds its own reference on the picture while
// any plane is aliased. The caller keeps its reference either way.
func (a *Assembler) Assemble(ref *picture.Ref, info format.VideoInfo, strideMetadata bool) (*ports.OutputBuffer, error) {
	pic := ref.Picture()
	n := info.PlaneCount()
	if pic.NumPlanes() < n {
		return nil, fmt.Errorf("%w: %d planes, want %d", ErrLayoutMismatch, pic.NumPlanes(), n)
	}

	planes := make([]ports.OutputPlane, n)
	var region *[]byte
	aliased := false
	offset := 0

	for i := 0; i < n; i++ {
		src := pic.Plane(i)
		w, h := info.PlaneWidth(i), info.PlaneHeight(i)
		bps := info.Format.BytesPerSample()
		if src.Width < w || src.Height < h || src.BytesPerSample != bps {
			a.releaseRegion(region)
			return nil, fmt.Errorf("%w: plane %d is %dx%d, want %dx%d", ErrLayoutMismatch, i, src.Width, src.Height, w, h)
		}
		dstStride := info.Stride(i)

		if strideMetadata || src.Stride == dstStride {
			planes[i] = ports.OutputPlane{
				Data:           src.Data,
				Stride:         src.Stride,
				Width:          w,
				Height:         h,
				BytesPerSample: bps,
				Aliased:        true,
			}
			aliased = true
			a.aliased.Add(1)
		} else {
			if region == nil {
				region = a.getRegion(info.Size())
			}
			a.logger.Debug("Copying plane %d: stride %d to %d", i, src.Stride, dstStride)
			copyPlane((*region)[offset:offset+dstStride*h], dstStride, src, h)
			planes[i] = ports.OutputPlane{
				Data:           *region,
				Offset:         offset,
				Stride:         dstStride,
				Width:          w,
				Height:         h,
				BytesPerSample: bps,
			}
			a.copied.Add(1)
		}
		offset += info.PlaneSize(i)
	}

	if aliased {
		ref.Retain()
	}
	release := func() {
		a.releaseRegion(region)
		if aliased {
			ref.Release()
		}
	}
	return ports.NewOutputBuffer(info, planes, release), nil
}

// copyPlane copies min(src stride, dst stride) bytes of each row.
// Destination bytes past that are left as they are.
func copyPlane(dst []byte, dstStride int, src ports.Plane, rows int) {
	n := dstStride
	if src.Stride < n {
		n = src.Stride
	}
	for y := 0; y < rows; y++ {
		copy(dst[y*dstStride:y*dstStride+n], src.Data[y*src.Stride:])
	}
}

func (a *Assembler) getRegion(size int) *[]byte {
	if v, ok := a.pool.Get().(*[]byte); ok && cap(*v) >= size {
		*v = (*v)[:size]
		return v
	}
	b := make([]byte, size)
	return &b
}

func (a *Assembler) releaseRegion(region *[]byte) {
	if region != nil {
		a.pool.Put(region)
	}
}
