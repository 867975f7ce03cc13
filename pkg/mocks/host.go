package mocks

import (
	"fmt"
	"sync"

	"github.com/user/vvdec/pkg/format"
	"github.com/user/vvdec/pkg/ports"
)

// Request is a mock pending request.
type Request struct {
	Offset uint64
}

func (r *Request) FrameOffset() uint64 { return r.Offset }

// Completion records one CompleteRequest call.
type Completion struct {
	Request *Request
	Buffer  *ports.OutputBuffer
}

// Host is a mock implementation of ports.PipelineHost.
type Host struct {
	mu sync.Mutex

	Caps ports.AllocationCaps

	NegotiateFunc func(info format.VideoInfo) (format.VideoInfo, error)
	CompleteFunc  func(req ports.Request, buf *ports.OutputBuffer) error

	// OnNegotiate runs inside NegotiateOutputFormat, before the answer.
	OnNegotiate func(info format.VideoInfo)

	// OnResolve runs inside ResolvePendingRequest, before the lookup.
	OnResolve func(offset uint64)

	// Recorded calls for verification
	Negotiations []format.VideoInfo
	CapsQueries  int
	Completed    []Completion
	Closed       bool

	pending map[uint64]*Request
}

// NewHost creates a mock host with the given capabilities.
func NewHost(caps ports.AllocationCaps) *Host {
	return &Host{
		Caps:    caps,
		pending: make(map[uint64]*Request),
	}
}

func (m *Host) QueryAllocationCapabilities() ports.AllocationCaps {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CapsQueries++
	return m.Caps
}

func (m *Host) NegotiateOutputFormat(info format.VideoInfo) (format.VideoInfo, error) {
	if m.OnNegotiate != nil {
		m.OnNegotiate(info)
	}
	m.mu.Lock()
	m.Negotiations = append(m.Negotiations, info)
	m.mu.Unlock()
	if m.NegotiateFunc != nil {
		return m.NegotiateFunc(info)
	}
	return info, nil
}

func (m *Host) ResolvePendingRequest(offset uint64) (ports.Request, bool) {
	if m.OnResolve != nil {
		m.OnResolve(offset)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.pending[offset]
	if !ok {
		return nil, false
	}
	delete(m.pending, offset)
	return req, true
}

func (m *Host) CompleteRequest(req ports.Request, buf *ports.OutputBuffer) error {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(req, buf)
	}
	r, ok := req.(*Request)
	if !ok {
		return fmt.Errorf("unexpected request type %T", req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Completed = append(m.Completed, Completion{Request: r, Buffer: buf})
	return nil
}

func (m *Host) SubmitFrame(offset uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[offset] = &Request{Offset: offset}
	return nil
}

func (m *Host) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Pending returns the number of unresolved requests.
func (m *Host) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// ReleaseAll releases every completed buffer.
func (m *Host) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.Completed {
		c.Buffer.Release()
	}
}

var _ ports.PipelineHost = (*Host)(nil)
