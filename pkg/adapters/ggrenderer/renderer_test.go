package ggrenderer

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/user/vvdec/pkg/adapters/logger"
	"github.com/user/vvdec/pkg/assembler"
	"github.com/user/vvdec/pkg/format"
	"github.com/user/vvdec/pkg/mocks"
	"github.com/user/vvdec/pkg/picture"
	"github.com/user/vvdec/pkg/ports"
)

func buildBuffer(t *testing.T, w, h int, cf format.ColorFormat, depth int) *ports.OutputBuffer {
	t.Helper()
	pic := mocks.NewPicture(w, h, cf, depth, 3)
	ref := picture.NewRef(pic)
	defer ref.Release()
	info, err := format.NewVideoInfo(cf, depth, w, h)
	if err != nil {
		t.Fatal(err)
	}
	buf, err := assembler.New(logger.NewNoop()).Assemble(ref, info, false)
	if err != nil {
		t.Fatal(err)
	}
	return buf
}

func TestToYCbCr_EightBit(t *testing.T) {
	buf := buildBuffer(t, 8, 4, format.Color420, 8)
	defer buf.Release()

	img, err := ToYCbCr(buf)
	if err != nil {
		t.Fatalf("ToYCbCr: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 4 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	if img.Y[img.YStride+2] != buf.Planes[0].Row(1)[2] {
		t.Error("luma sample mismatch")
	}
	if img.Cb[img.CStride] != buf.Planes[1].Row(1)[0] {
		t.Error("chroma sample mismatch")
	}
}

func TestToYCbCr_TenBit(t *testing.T) {
	buf := buildBuffer(t, 4, 2, format.Color444, 10)
	defer buf.Release()

	img, err := ToYCbCr(buf)
	if err != nil {
		t.Fatalf("ToYCbCr: %v", err)
	}
	row := buf.Planes[0].Row(0)
	want := uint8(buf.Info.Format.ByteOrder().Uint16(row[2:]) >> 2)
	if img.Y[1] != want {
		t.Errorf("expected %d, got %d", want, img.Y[1])
	}
}

func TestRenderer_RenderPreview(t *testing.T) {
	r := New()
	buf := buildBuffer(t, 64, 32, format.Color422, 8)
	defer buf.Release()

	img, err := r.RenderPreview(buf, ports.PreviewOptions{Width: 32, Caption: "#7"})
	if err != nil {
		t.Fatalf("RenderPreview: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 16 {
		t.Errorf("expected 32x16, got %v", img.Bounds())
	}

	data, err := r.EncodePNG(img)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("decoded bounds %v, want %v", decoded.Bounds(), img.Bounds())
	}
}
