// Package y4mhost implements a decoder host that writes YUV4MPEG2.
package y4mhost

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/user/vvdec/pkg/format"
	"github.com/user/vvdec/pkg/ports"
)

var (
	// ErrFormatChange is returned when the picture size or format changes
	// after the stream header was written.
	ErrFormatChange = errors.New("y4mhost: format change after header")
	ErrClosed       = errors.New("y4mhost: closed")
)

// DefaultMaxPending bounds how many frames may wait for a picture.
const DefaultMaxPending = 1024

// Options configures a Host.
type Options struct {
	// FrameRate overrides the stream timing. When zero the first buffer's
	// HRD rate is used, or 25:1.
	FrameRate ports.Rational

	// Linear disables stride metadata so every plane arrives tightly
	// aligned to StrideAlign.
	Linear bool

	// StrideAlign is proposed back when negotiating; zero keeps the
	// decoder's choice.
	StrideAlign int

	MaxPending int
}

type request struct {
	offset uint64
}

func (r *request) FrameOffset() uint64 { return r.offset }

// Host writes every completed buffer as one Y4M frame.
type Host struct {
	opts   Options
	logger ports.Logger

	mu      sync.Mutex
	pending map[uint64]*request
	info    *format.VideoInfo

	wmu     sync.Mutex
	w       *bufio.Writer
	header  bool
	frames  int
	closed  bool
	scratch []byte
}

// New creates a host writing to w.
func New(w io.Writer, logger ports.Logger, opts Options) *Host {
	if opts.MaxPending <= 0 {
		opts.MaxPending = DefaultMaxPending
	}
	return &Host{
		opts:    opts,
		logger:  logger.WithComponent("y4m"),
		pending: make(map[uint64]*request),
		w:       bufio.NewWriterSize(w, 1<<20),
	}
}

// QueryAllocationCapabilities reports stride metadata support unless the
// host was configured for linear buffers.
func (h *Host) QueryAllocationCapabilities() ports.AllocationCaps {
	return ports.AllocationCaps{StrideMetadata: !h.opts.Linear}
}

// NegotiateOutputFormat accepts the first format and rejects any later
// change of size or pixel format.
func (h *Host) NegotiateOutputFormat(info format.VideoInfo) (format.VideoInfo, error) {
	if _, err := colorspaceTag(info.Format); err != nil {
		return info, err
	}
	if h.opts.StrideAlign > 0 {
		info.StrideAlign = h.opts.StrideAlign
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.info != nil && !h.info.SameLayout(info) {
		return info, fmt.Errorf("%w: %s to %s", ErrFormatChange, h.info, info)
	}
	h.info = &info
	return info, nil
}

// SubmitFrame registers a pending frame. The oldest frames are dropped
// once more than MaxPending wait.
func (h *Host) SubmitFrame(offset uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.pending[offset] = &request{offset: offset}
	if excess := len(h.pending) - h.opts.MaxPending; excess > 0 {
		keys := make([]uint64, 0, len(h.pending))
		for k := range h.pending {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		for _, k := range keys[:excess] {
			delete(h.pending, k)
		}
		h.logger.Debug("Pruned %d stale pending frames", excess)
	}
	return nil
}

func (h *Host) ResolvePendingRequest(offset uint64) (ports.Request, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	req, ok := h.pending[offset]
	if ok {
		delete(h.pending, offset)
	}
	return req, ok
}

// CompleteRequest writes the buffer and releases it.
func (h *Host) CompleteRequest(req ports.Request, buf *ports.OutputBuffer) error {
	defer buf.Release()

	h.wmu.Lock()
	defer h.wmu.Unlock()

	if h.closed {
		return ErrClosed
	}
	if !h.header {
		if err := h.writeHeader(buf); err != nil {
			return err
		}
	}
	if _, err := io.WriteString(h.w, "FRAME\n"); err != nil {
		return err
	}
	for _, p := range buf.Planes {
		if err := h.writePlane(p, buf.Info.Format); err != nil {
			return err
		}
	}
	h.frames++
	return nil
}

// Frames returns the number of frames written.
func (h *Host) Frames() int {
	h.wmu.Lock()
	defer h.wmu.Unlock()
	return h.frames
}

// Close flushes buffered output.
func (h *Host) Close() error {
	h.wmu.Lock()
	defer h.wmu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	return h.w.Flush()
}

func (h *Host) writeHeader(buf *ports.OutputBuffer) error {
	tag, err := colorspaceTag(buf.Info.Format)
	if err != nil {
		return err
	}
	rate := h.opts.FrameRate
	if !rate.Valid() {
		rate = buf.FrameRate
	}
	if !rate.Valid() {
		rate = ports.Rational{Num: 25, Den: 1}
	}
	_, err = fmt.Fprintf(h.w, "YUV4MPEG2 W%d H%d F%d:%d Ip A1:1 %s\n",
		buf.Info.Width, buf.Info.Height, rate.Num, rate.Den, tag)
	h.header = true
	return err
}

// writePlane writes rows without padding. Y4M stores 16-bit samples
// little-endian, so big-endian sources are swapped.
func (h *Host) writePlane(p ports.OutputPlane, pf format.PixelFormat) error {
	swap := p.BytesPerSample == 2 && pf.ByteOrder() == binary.BigEndian
	for y := 0; y < p.Height; y++ {
		row := p.Row(y)
		if swap {
			if cap(h.scratch) < len(row) {
				h.scratch = make([]byte, len(row))
			}
			out := h.scratch[:len(row)]
			for i := 0; i+1 < len(row); i += 2 {
				out[i], out[i+1] = row[i+1], row[i]
			}
			row = out
		}
		if _, err := h.w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func colorspaceTag(pf format.PixelFormat) (string, error) {
	switch pf {
	case format.I420:
		return "C420jpeg", nil
	case format.Y42B:
		return "C422", nil
	case format.Y444:
		return "C444", nil
	case format.I420_10LE, format.I420_10BE:
		return "C420p10", nil
	case format.I422_10LE, format.I422_10BE:
		return "C422p10", nil
	case format.Y444_10LE, format.Y444_10BE:
		return "C444p10", nil
	default:
		return "", fmt.Errorf("y4mhost: %w: %s", format.ErrUnsupportedFormat, pf)
	}
}

var _ ports.PipelineHost = (*Host)(nil)
