package assembler

import (
	"bytes"
	"errors"
	"testing"

	"github.com/user/vvdec/pkg/adapters/logger"
	"github.com/user/vvdec/pkg/format"
	"github.com/user/vvdec/pkg/mocks"
	"github.com/user/vvdec/pkg/picture"
	"github.com/user/vvdec/pkg/ports"
)

func infoFor(t *testing.T, pic *mocks.Picture, align int) format.VideoInfo {
	t.Helper()
	info, err := format.NewVideoInfo(pic.Chroma, pic.Depth, pic.W, pic.H)
	if err != nil {
		t.Fatalf("NewVideoInfo: %v", err)
	}
	info.StrideAlign = align
	return info
}

func assertSameSamples(t *testing.T, pic *mocks.Picture, buf *ports.OutputBuffer) {
	t.Helper()
	for i, p := range buf.Planes {
		src := pic.Plane(i)
		for y := 0; y < p.Height; y++ {
			want := src.Data[y*src.Stride : y*src.Stride+src.RowBytes()]
			if got := p.Row(y); !bytes.Equal(got, want) {
				t.Fatalf("plane %d row %d differs: got %v want %v", i, y, got, want)
			}
		}
	}
}

func TestAssemble_AliasWhenStridesMatch(t *testing.T) {
	a := New(logger.NewNoop())
	pic := mocks.NewPicture(16, 8, format.Color420, 8, 0)
	ref := picture.NewRef(pic)
	info := infoFor(t, pic, 4)

	buf, err := a.Assemble(ref, info, false)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	for i, p := range buf.Planes {
		if !p.Aliased {
			t.Errorf("plane %d expected aliased", i)
		}
	}
	if ref.Refs() != 2 {
		t.Errorf("expected buffer to retain picture, refs=%d", ref.Refs())
	}

	ref.Release()
	if pic.Releases() != 0 {
		t.Fatal("picture released while buffer still aliases it")
	}
	buf.Release()
	buf.Release()
	if pic.Releases() != 1 {
		t.Errorf("expected 1 release, got %d", pic.Releases())
	}
}

func TestAssemble_CopyWhenStridesDiffer(t *testing.T) {
	a := New(logger.NewNoop())
	pic := mocks.NewPicture(17, 9, format.Color420, 8, 12)
	ref := picture.NewRef(pic)
	info := infoFor(t, pic, 4)

	buf, err := a.Assemble(ref, info, false)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if buf.Aliased() {
		t.Fatal("expected copied planes")
	}

	want := 0
	for i, p := range buf.Planes {
		if p.Offset != want {
			t.Errorf("plane %d offset %d, want %d", i, p.Offset, want)
		}
		if p.Stride != info.Stride(i) {
			t.Errorf("plane %d stride %d, want %d", i, p.Stride, info.Stride(i))
		}
		want += info.PlaneSize(i)
	}

	// The copy does not depend on the picture staying alive.
	assertSameSamples(t, pic, buf)
	ref.Release()
	if pic.Releases() != 1 {
		t.Errorf("expected picture released with caller ref, got %d", pic.Releases())
	}
	buf.Release()

	stats := a.Stats()
	if stats.Copied != 3 || stats.Aliased != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestAssemble_StrideMetadataAliasesPaddedPlanes(t *testing.T) {
	a := New(logger.NewNoop())
	pic := mocks.NewPicture(16, 8, format.Color422, 8, 8)
	ref := picture.NewRef(pic)

	buf, err := a.Assemble(ref, infoFor(t, pic, 4), true)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !buf.Aliased() {
		t.Fatal("expected aliased planes")
	}
	if buf.Planes[0].Stride != pic.Plane(0).Stride {
		t.Errorf("aliased plane must keep engine stride")
	}
	assertSameSamples(t, pic, buf)
	buf.Release()
	ref.Release()
	if pic.Releases() != 1 {
		t.Errorf("expected 1 release, got %d", pic.Releases())
	}
}

func TestAssemble_AliasedAndCopiedAreIdentical(t *testing.T) {
	tests := []struct {
		name   string
		chroma format.ColorFormat
		depth  int
	}{
		{"420 8bit", format.Color420, 8},
		{"422 8bit", format.Color422, 8},
		{"444 10bit", format.Color444, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(logger.NewNoop())
			pic := mocks.NewPicture(22, 6, tt.chroma, tt.depth, 6)
			ref := picture.NewRef(pic)
			info := infoFor(t, pic, 16)

			aliased, err := a.Assemble(ref, info, true)
			if err != nil {
				t.Fatal(err)
			}
			copied, err := a.Assemble(ref, info, false)
			if err != nil {
				t.Fatal(err)
			}
			for i := range aliased.Planes {
				for y := 0; y < aliased.Planes[i].Height; y++ {
					if !bytes.Equal(aliased.Planes[i].Row(y), copied.Planes[i].Row(y)) {
						t.Fatalf("plane %d row %d differs", i, y)
					}
				}
			}
			aliased.Release()
			copied.Release()
			ref.Release()
			if pic.Releases() != 1 {
				t.Errorf("expected 1 release, got %d", pic.Releases())
			}
		})
	}
}

func TestAssemble_PaddingLeftUntouched(t *testing.T) {
	a := New(logger.NewNoop())
	pic := mocks.NewPicture(16, 4, format.Color444, 8, 0)
	ref := picture.NewRef(pic)
	defer ref.Release()
	info := infoFor(t, pic, 32)

	buf, err := a.Assemble(ref, info, false)
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Release()

	p := buf.Planes[0]
	for y := 0; y < p.Height; y++ {
		pad := p.Data[p.Offset+y*p.Stride+16 : p.Offset+(y+1)*p.Stride]
		for _, b := range pad {
			if b != 0 {
				t.Fatalf("padding of row %d was written", y)
			}
		}
	}
}

func TestAssemble_LayoutMismatch(t *testing.T) {
	a := New(logger.NewNoop())
	pic := mocks.NewPicture(8, 8, format.Color420, 8, 0)
	ref := picture.NewRef(pic)
	defer ref.Release()

	info := format.VideoInfo{Width: 16, Height: 16, Format: format.I420}
	if _, err := a.Assemble(ref, info, false); !errors.Is(err, ErrLayoutMismatch) {
		t.Errorf("expected ErrLayoutMismatch, got %v", err)
	}
	if ref.Refs() != 1 {
		t.Errorf("failed assembly must not retain the picture")
	}
}
