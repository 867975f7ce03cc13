package orchestrator

import (
	"fmt"

	"github.com/user/vvdec/pkg/ports"
)

// previewHost renders every n-th completed frame to the debug sink before
// passing it on to the wrapped host.
type previewHost struct {
	ports.PipelineHost

	renderer ports.Renderer
	sink     ports.DebugSink
	logger   ports.Logger
	every    int
	width    int

	completed int
	saved     int
}

func newPreviewHost(host ports.PipelineHost, renderer ports.Renderer, sink ports.DebugSink, config Config, logger ports.Logger) *previewHost {
	return &previewHost{
		PipelineHost: host,
		renderer:     renderer,
		sink:         sink,
		logger:       logger.WithComponent("preview"),
		every:        config.PreviewEvery,
		width:        config.PreviewWidth,
	}
}

func (h *previewHost) CompleteRequest(req ports.Request, buf *ports.OutputBuffer) error {
	if h.completed%h.every == 0 {
		if err := h.save(buf); err != nil {
			h.logger.Warn("Failed to save preview of frame %d: %s", buf.Offset, err)
		}
	}
	h.completed++
	return h.PipelineHost.CompleteRequest(req, buf)
}

func (h *previewHost) save(buf *ports.OutputBuffer) error {
	img, err := h.renderer.RenderPreview(buf, ports.PreviewOptions{
		Width:   h.width,
		Caption: fmt.Sprintf("#%d %s", buf.Offset, buf.Info),
	})
	if err != nil {
		return err
	}
	if err := h.sink.SaveFrame(buf.Offset, img); err != nil {
		return err
	}
	h.saved++
	return nil
}
