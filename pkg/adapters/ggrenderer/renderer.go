// Package ggrenderer renders output buffers into preview images using gg.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/vvdec/pkg/format"
	"github.com/user/vvdec/pkg/ports"
)

const captionHeight = 18

// Renderer implements ports.Renderer.
type Renderer struct{}

func New() *Renderer {
	return &Renderer{}
}

// RenderPreview converts the buffer to RGBA, scales it to opts.Width and
// draws the caption in a bar along the bottom edge.
func (r *Renderer) RenderPreview(buf *ports.OutputBuffer, opts ports.PreviewOptions) (image.Image, error) {
	src, err := ToYCbCr(buf)
	if err != nil {
		return nil, err
	}

	w, h := buf.Info.Width, buf.Info.Height
	if opts.Width > 0 && opts.Width != w {
		h = h * opts.Width / w
		if h < 1 {
			h = 1
		}
		w = opts.Width
	}
	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Src, nil)

	if opts.Caption == "" {
		return scaled, nil
	}

	dc := gg.NewContextForRGBA(scaled)
	dc.SetColor(color.RGBA{A: 160})
	dc.DrawRectangle(0, float64(h-captionHeight), float64(w), captionHeight)
	dc.Fill()
	dc.SetColor(color.White)
	dc.DrawStringAnchored(opts.Caption, 4, float64(h)-captionHeight/2, 0, 0.5)
	return dc.Image(), nil
}

// EncodePNG encodes img as PNG.
func (r *Renderer) EncodePNG(img image.Image) ([]byte, error) {
	var b bytes.Buffer
	if err := png.Encode(&b, img); err != nil {
		return nil, fmt.Errorf("encode PNG: %w", err)
	}
	return b.Bytes(), nil
}

// ToYCbCr copies a planar buffer into an 8-bit image.YCbCr. 10-bit
// samples are shifted down.
func ToYCbCr(buf *ports.OutputBuffer) (*image.YCbCr, error) {
	info := buf.Info
	var ratio image.YCbCrSubsampleRatio
	switch info.Format.Chroma() {
	case format.Color420:
		ratio = image.YCbCrSubsampleRatio420
	case format.Color422:
		ratio = image.YCbCrSubsampleRatio422
	case format.Color444:
		ratio = image.YCbCrSubsampleRatio444
	default:
		return nil, fmt.Errorf("ggrenderer: %w: %s", format.ErrUnsupportedFormat, info.Format)
	}
	if len(buf.Planes) < 3 {
		return nil, fmt.Errorf("ggrenderer: expected 3 planes, got %d", len(buf.Planes))
	}

	img := image.NewYCbCr(image.Rect(0, 0, info.Width, info.Height), ratio)
	targets := []struct {
		pix    []uint8
		stride int
	}{
		{img.Y, img.YStride},
		{img.Cb, img.CStride},
		{img.Cr, img.CStride},
	}

	order := info.Format.ByteOrder()
	for i, t := range targets {
		p := buf.Planes[i]
		for y := 0; y < p.Height; y++ {
			row := p.Row(y)
			dst := t.pix[y*t.stride : y*t.stride+p.Width]
			if p.BytesPerSample == 1 {
				copy(dst, row)
				continue
			}
			for x := range dst {
				dst[x] = uint8(order.Uint16(row[2*x:]) >> 2)
			}
		}
	}
	return img, nil
}

var _ ports.Renderer = (*Renderer)(nil)
