package mocks

import (
	"sync/atomic"

	"github.com/user/vvdec/pkg/format"
	"github.com/user/vvdec/pkg/ports"
)

// PaddingByte fills the bytes between a row's samples and its stride.
const PaddingByte = 0xEE

// Picture is a mock implementation of ports.Picture backed by Go memory.
type Picture struct {
	W, H      int
	Depth     int
	Chroma    format.ColorFormat
	Seq       uint64
	Timestamp uint64
	HasCTS    bool
	Planes    []ports.Plane

	// OnRelease is called after every Release.
	OnRelease func()

	releases atomic.Int32
}

// NewPicture creates a picture whose rows carry pad bytes of padding.
// Sample bytes follow a deterministic pattern per plane.
func NewPicture(width, height int, cf format.ColorFormat, bitDepth, pad int) *Picture {
	p := &Picture{W: width, H: height, Depth: bitDepth, Chroma: cf}
	bps := 1
	if bitDepth > 8 {
		bps = 2
	}

	n := 3
	if cf == format.Color400 {
		n = 1
	}
	for i := 0; i < n; i++ {
		w, h := width, height
		if i > 0 {
			if cf == format.Color420 || cf == format.Color422 {
				w = (width + 1) / 2
			}
			if cf == format.Color420 {
				h = (height + 1) / 2
			}
		}
		stride := w*bps + pad
		data := make([]byte, stride*h)
		for y := 0; y < h; y++ {
			row := data[y*stride : (y+1)*stride]
			for x := range row {
				if x < w*bps {
					row[x] = byte(i*61 + y*7 + x)
				} else {
					row[x] = PaddingByte
				}
			}
		}
		p.Planes = append(p.Planes, ports.Plane{
			Data:           data,
			Width:          w,
			Height:         h,
			Stride:         stride,
			BytesPerSample: bps,
		})
	}
	return p
}

func (p *Picture) Width() int                      { return p.W }
func (p *Picture) Height() int                     { return p.H }
func (p *Picture) BitDepth() int                   { return p.Depth }
func (p *Picture) ColorFormat() format.ColorFormat { return p.Chroma }
func (p *Picture) SequenceNumber() uint64          { return p.Seq }
func (p *Picture) CTS() (uint64, bool)             { return p.Timestamp, p.HasCTS }
func (p *Picture) NumPlanes() int                  { return len(p.Planes) }
func (p *Picture) Plane(i int) ports.Plane         { return p.Planes[i] }

func (p *Picture) Release() {
	p.releases.Add(1)
	if p.OnRelease != nil {
		p.OnRelease()
	}
}

// Releases returns how many times Release was called.
func (p *Picture) Releases() int {
	return int(p.releases.Load())
}

var _ ports.Picture = (*Picture)(nil)
