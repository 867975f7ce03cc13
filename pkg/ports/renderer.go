package ports

import "image"

// PreviewOptions controls how an output frame is rendered for inspection.
type PreviewOptions struct {
	// Width of the preview; zero keeps the frame width.
	Width   int
	Caption string
}

// Renderer turns output buffers into viewable images.
type Renderer interface {
	// RenderPreview converts a planar buffer to an RGBA preview.
	RenderPreview(buf *OutputBuffer, opts PreviewOptions) (image.Image, error)

	// EncodePNG encodes an image as PNG.
	EncodePNG(img image.Image) ([]byte, error)
}
