package mocks

import (
	"image"

	"github.com/user/vvdec/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	RenderPreviewFunc func(buf *ports.OutputBuffer, opts ports.PreviewOptions) (image.Image, error)
	EncodePNGFunc     func(img image.Image) ([]byte, error)

	// Recorded calls for verification
	Previews []ports.PreviewOptions
}

func (m *Renderer) RenderPreview(buf *ports.OutputBuffer, opts ports.PreviewOptions) (image.Image, error) {
	m.Previews = append(m.Previews, opts)
	if m.RenderPreviewFunc != nil {
		return m.RenderPreviewFunc(buf, opts)
	}
	return image.NewRGBA(image.Rect(0, 0, buf.Info.Width, buf.Info.Height)), nil
}

func (m *Renderer) EncodePNG(img image.Image) ([]byte, error) {
	if m.EncodePNGFunc != nil {
		return m.EncodePNGFunc(img)
	}
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

var _ ports.Renderer = (*Renderer)(nil)
