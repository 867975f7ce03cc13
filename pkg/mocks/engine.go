package mocks

import (
	"sync"
	"sync/atomic"

	"github.com/user/vvdec/pkg/format"
	"github.com/user/vvdec/pkg/ports"
)

// PictureSpec describes the picture a mock handle produces for an access unit.
type PictureSpec struct {
	Width, Height int
	Chroma        format.ColorFormat
	BitDepth      int
	Pad           int
}

// Engine is a mock implementation of ports.Engine.
type Engine struct {
	mu sync.Mutex

	OpenFunc func(params ports.EngineParams) (ports.EngineHandle, error)

	// Delay is the number of pictures a handle buffers before output.
	Delay int

	// SpecFunc picks the picture shape for the n-th access unit.
	// The default is 16x16 4:2:0 8-bit with 4 bytes of padding.
	SpecFunc func(n int, au ports.AccessUnit) PictureSpec

	// DecodeErr, when set, is returned by Decode for the given submission.
	DecodeErr map[int]error

	Handles []*EngineHandle

	created  atomic.Int32
	released atomic.Int32
}

// NewEngine creates a mock engine with the given output delay.
func NewEngine(delay int) *Engine {
	return &Engine{Delay: delay}
}

func (m *Engine) Open(params ports.EngineParams) (ports.EngineHandle, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(params)
	}
	h := &EngineHandle{engine: m, Params: params}
	m.mu.Lock()
	m.Handles = append(m.Handles, h)
	m.mu.Unlock()
	return h, nil
}

// Outstanding returns pictures created but not yet released.
func (m *Engine) Outstanding() int {
	return int(m.created.Load() - m.released.Load())
}

// Created returns the number of pictures produced by all handles.
func (m *Engine) Created() int {
	return int(m.created.Load())
}

// LastHandle returns the most recently opened handle.
func (m *Engine) LastHandle() *EngineHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Handles) == 0 {
		return nil
	}
	return m.Handles[len(m.Handles)-1]
}

var _ ports.Engine = (*Engine)(nil)

// EngineHandle is a mock implementation of ports.EngineHandle that
// follows the flush protocol: end of stream once drained, then
// ErrRestartRequired until the next Decode.
type EngineHandle struct {
	engine *Engine
	Params ports.EngineParams

	// Recorded calls for verification
	Decoded []ports.AccessUnit
	Flushes int
	Closed  bool

	// ConcurrentCalls counts calls that overlapped another call.
	ConcurrentCalls atomic.Int32

	busy   atomic.Bool
	queue  []*Picture
	seq    uint64
	inputs int
	eos    bool
}

func (h *EngineHandle) enter() {
	if !h.busy.CompareAndSwap(false, true) {
		h.ConcurrentCalls.Add(1)
	}
}

func (h *EngineHandle) leave() {
	h.busy.Store(false)
}

func (h *EngineHandle) Decode(au ports.AccessUnit) (ports.Picture, error) {
	h.enter()
	defer h.leave()

	n := h.inputs
	h.inputs++
	recorded := au
	recorded.Payload = append([]byte(nil), au.Payload...)
	h.Decoded = append(h.Decoded, recorded)
	h.eos = false

	if err, ok := h.engine.DecodeErr[n]; ok {
		return nil, err
	}

	h.queue = append(h.queue, h.newPicture(n, au))
	if len(h.queue) <= h.engine.Delay {
		return nil, ports.ErrNeedMoreInput
	}
	return h.pop(), nil
}

func (h *EngineHandle) Flush() (ports.Picture, error) {
	h.enter()
	defer h.leave()

	h.Flushes++
	if h.eos {
		return nil, ports.ErrRestartRequired
	}
	if len(h.queue) == 0 {
		h.eos = true
		return nil, ports.ErrEndOfStream
	}
	return h.pop(), nil
}

// Close drops pictures that were never output.
func (h *EngineHandle) Close() error {
	h.Closed = true
	for _, p := range h.queue {
		p.Release()
	}
	h.queue = nil
	return nil
}

// Buffered returns the number of pictures waiting for output.
func (h *EngineHandle) Buffered() int {
	return len(h.queue)
}

func (h *EngineHandle) pop() *Picture {
	p := h.queue[0]
	h.queue = h.queue[1:]
	return p
}

func (h *EngineHandle) newPicture(n int, au ports.AccessUnit) *Picture {
	spec := PictureSpec{Width: 16, Height: 16, Chroma: format.Color420, BitDepth: 8, Pad: 4}
	if h.engine.SpecFunc != nil {
		spec = h.engine.SpecFunc(n, au)
	}
	p := NewPicture(spec.Width, spec.Height, spec.Chroma, spec.BitDepth, spec.Pad)
	p.Seq = h.seq
	p.Timestamp, p.HasCTS = au.CTS, au.CTSValid
	p.OnRelease = func() { h.engine.released.Add(1) }
	h.seq++
	h.engine.created.Add(1)
	return p
}

var _ ports.EngineHandle = (*EngineHandle)(nil)
