package ports

import "github.com/user/vvdec/pkg/format"

// AllocationCaps describes what the host can consume.
type AllocationCaps struct {
	// StrideMetadata is true when the host accepts planes with
	// arbitrary per-plane strides.
	StrideMetadata bool
}

// Request is a pending output frame on the host side.
type Request interface {
	FrameOffset() uint64
}

// Host is the framework side of a decoder session. None of these methods
// are called with the session lock held, so a host may call back into the
// session.
type Host interface {
	// QueryAllocationCapabilities reports the host's buffer capabilities
	// after a format change.
	QueryAllocationCapabilities() AllocationCaps

	// NegotiateOutputFormat proposes a new output layout. The host returns
	// the layout it confirmed, which must keep the same dimensions and
	// pixel format.
	NegotiateOutputFormat(info format.VideoInfo) (format.VideoInfo, error)

	// ResolvePendingRequest looks up the request for a frame offset.
	ResolvePendingRequest(offset uint64) (Request, bool)

	// CompleteRequest hands a finished buffer to the host. Ownership of
	// buf passes to the host, which must Release it.
	CompleteRequest(req Request, buf *OutputBuffer) error
}

// PipelineHost is a Host that can also be fed new pending frames.
type PipelineHost interface {
	Host

	// SubmitFrame registers a pending request for offset.
	SubmitFrame(offset uint64) error

	// Close finalizes output.
	Close() error
}
