package format

import "fmt"

// DefaultStrideAlign is the row alignment used when none is negotiated.
const DefaultStrideAlign = 4

// VideoInfo is a negotiated output layout.
type VideoInfo struct {
	Width  int
	Height int
	Format PixelFormat
	// StrideAlign is the row alignment in bytes; zero means DefaultStrideAlign.
	StrideAlign int
}

// NewVideoInfo builds the layout for a picture of the given size.
func NewVideoInfo(cf ColorFormat, bitDepth, width, height int) (VideoInfo, error) {
	pf, err := FromPicture(cf, bitDepth)
	if err != nil {
		return VideoInfo{}, err
	}
	if width <= 0 || height <= 0 {
		return VideoInfo{}, fmt.Errorf("format: invalid dimensions %dx%d", width, height)
	}
	return VideoInfo{Width: width, Height: height, Format: pf}, nil
}

// String returns a compact description such as "1920x1080 I420".
func (v VideoInfo) String() string {
	return fmt.Sprintf("%dx%d %s", v.Width, v.Height, v.Format)
}

// PlaneCount returns the number of planes in the layout.
func (v VideoInfo) PlaneCount() int {
	if v.Format == PixelUnknown {
		return 0
	}
	return 3
}

// PlaneWidth returns the width in samples of plane i.
func (v VideoInfo) PlaneWidth(i int) int {
	if i == 0 {
		return v.Width
	}
	switch v.Format.Chroma() {
	case Color420, Color422:
		return (v.Width + 1) / 2
	default:
		return v.Width
	}
}

// PlaneHeight returns the number of rows of plane i.
func (v VideoInfo) PlaneHeight(i int) int {
	if i == 0 {
		return v.Height
	}
	if v.Format.Chroma() == Color420 {
		return (v.Height + 1) / 2
	}
	return v.Height
}

// RowBytes returns the number of meaningful bytes in a row of plane i.
func (v VideoInfo) RowBytes(i int) int {
	return v.PlaneWidth(i) * v.Format.BytesPerSample()
}

// Stride returns the aligned row pitch of plane i.
func (v VideoInfo) Stride(i int) int {
	align := v.StrideAlign
	if align <= 0 {
		align = DefaultStrideAlign
	}
	return alignUp(v.RowBytes(i), align)
}

// PlaneSize returns stride times height for plane i.
func (v VideoInfo) PlaneSize(i int) int {
	return v.Stride(i) * v.PlaneHeight(i)
}

// Size returns the total size of a frame in this layout.
func (v VideoInfo) Size() int {
	total := 0
	for i := 0; i < v.PlaneCount(); i++ {
		total += v.PlaneSize(i)
	}
	return total
}

// SameLayout reports whether two infos describe the same picture shape,
// ignoring stride alignment.
func (v VideoInfo) SameLayout(o VideoInfo) bool {
	return v.Width == o.Width && v.Height == o.Height && v.Format == o.Format
}

// Equal reports whether two infos are identical including alignment.
func (v VideoInfo) Equal(o VideoInfo) bool {
	return v.SameLayout(o) && v.normalizedAlign() == o.normalizedAlign()
}

func (v VideoInfo) normalizedAlign() int {
	if v.StrideAlign <= 0 {
		return DefaultStrideAlign
	}
	return v.StrideAlign
}

func alignUp(n, align int) int {
	return (n + align - 1) / align * align
}
