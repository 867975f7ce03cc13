// Package session drives one decoding engine handle on behalf of a host.
//
// All engine calls are serialized by the session lock. Host callbacks that
// may re-enter the session (format negotiation, allocation queries, request
// resolution and completion) always run with the lock released.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/user/vvdec/pkg/assembler"
	"github.com/user/vvdec/pkg/format"
	"github.com/user/vvdec/pkg/picture"
	"github.com/user/vvdec/pkg/ports"
)

var (
	ErrNotStarted     = errors.New("session: not started")
	ErrAlreadyStarted = errors.New("session: already started")
	// ErrEngineFault wraps an unexpected engine error.
	ErrEngineFault = errors.New("session: engine fault")
	// ErrNegotiationFailed means the host rejected a new output format.
	ErrNegotiationFailed = errors.New("session: output negotiation failed")
	// ErrIncompatibleFormat means the host confirmed a different picture layout.
	ErrIncompatibleFormat = errors.New("session: host confirmed an incompatible format")

	ErrEndOfStream       = ports.ErrEndOfStream
	ErrRestartRequired   = ports.ErrRestartRequired
	ErrUnsupportedFormat = format.ErrUnsupportedFormat
)

// Outcome describes what a Decode or Flush call produced.
type Outcome struct {
	// Picture is true when the engine returned a picture. A non-nil error
	// alongside it concerns that picture only.
	Picture      bool
	Sequence     uint64
	Offset       uint64
	Delivered    bool
	Renegotiated bool
}

// Stats are cumulative session counters.
type Stats struct {
	Submitted      int
	Pictures       int
	Delivered      int
	Dropped        int
	Unsupported    int
	Renegotiations int
	AliasedPlanes  int64
	CopiedPlanes   int64
}

type state struct {
	handle         ports.EngineHandle
	negotiated     *format.VideoInfo
	strideMetadata bool
	eos            bool
	submitted      uint64
}

// Option configures a Session.
type Option func(*Session)

// WithParams sets the engine parameters used by Start and Restart.
func WithParams(p ports.EngineParams) Option {
	return func(s *Session) { s.params = p }
}

// WithCorrelation selects how pictures are matched to pending requests.
func WithCorrelation(mode CorrelationMode) Option {
	return func(s *Session) { s.correlator.Mode = mode }
}

// WithFrameOrigin sets the offset of the first frame in sequence mode.
func WithFrameOrigin(origin uint64) Option {
	return func(s *Session) { s.correlator.Origin = origin }
}

// WithAssembler shares an assembler, and its buffer pool, between sessions.
func WithAssembler(a *assembler.Assembler) Option {
	return func(s *Session) { s.assembler = a }
}

// Session owns one engine handle and the output state derived from it.
type Session struct {
	engine     ports.Engine
	host       ports.Host
	params     ports.EngineParams
	logger     ports.Logger
	correlator Correlator
	assembler  *assembler.Assembler

	mu    sync.Mutex
	st    *state
	stats Stats
}

// New creates a session. Start must be called before decoding.
func New(engine ports.Engine, host ports.Host, logger ports.Logger, opts ...Option) *Session {
	s := &Session{
		engine: engine,
		host:   host,
		params: ports.DefaultEngineParams(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("session")
	if s.assembler == nil {
		s.assembler = assembler.New(s.logger.WithComponent("assembler"))
	}
	return s
}

// Start opens the engine handle.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st != nil {
		return ErrAlreadyStarted
	}
	handle, err := s.engine.Open(s.params)
	if err != nil {
		return fmt.Errorf("session: open engine: %w", err)
	}
	s.st = &state{handle: handle}
	s.logger.Debug("Engine opened (threads %d, parse delay %d)", s.params.Threads, s.params.ParseDelay)
	return nil
}

// Started reports whether the session holds an engine handle.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st != nil
}

// Negotiated returns the current output format, if any.
func (s *Session) Negotiated() (format.VideoInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st == nil || s.st.negotiated == nil {
		return format.VideoInfo{}, false
	}
	return *s.st.negotiated, true
}

// Stats returns a snapshot of the counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	stats := s.stats
	s.mu.Unlock()
	as := s.assembler.Stats()
	stats.AliasedPlanes = as.Aliased
	stats.CopiedPlanes = as.Copied
	return stats
}

// Decode submits one access unit. When the engine needs more input the
// zero Outcome is returned with a nil error.
func (s *Session) Decode(au ports.AccessUnit) (Outcome, error) {
	s.mu.Lock()
	st := s.st
	if st == nil {
		s.mu.Unlock()
		return Outcome{}, ErrNotStarted
	}
	index := s.stats.Submitted
	s.stats.Submitted++
	st.submitted++
	pic, err := st.handle.Decode(au)
	st.eos = false
	var d delivery
	if err == nil && pic != nil {
		d = s.admit(pic)
	}
	s.mu.Unlock()

	switch {
	case errors.Is(err, ports.ErrNeedMoreInput):
		return Outcome{}, nil
	case errors.Is(err, ports.ErrRestartRequired):
		return Outcome{}, fmt.Errorf("session: decode unit %d: %w", index, ErrRestartRequired)
	case err != nil:
		return Outcome{}, fmt.Errorf("%w: decode unit %d: %w", ErrEngineFault, index, err)
	case pic == nil:
		return Outcome{}, nil
	}
	return s.deliver(d)
}

// Flush drains one buffered picture. It returns ErrEndOfStream once the
// engine is empty, and ErrRestartRequired if called again before the next
// Decode.
func (s *Session) Flush() (Outcome, error) {
	s.mu.Lock()
	st := s.st
	if st == nil {
		s.mu.Unlock()
		return Outcome{}, ErrNotStarted
	}
	if st.eos {
		s.mu.Unlock()
		return Outcome{}, ErrRestartRequired
	}
	pic, err := st.handle.Flush()
	if errors.Is(err, ports.ErrEndOfStream) || (err == nil && pic == nil) {
		st.eos = true
		s.mu.Unlock()
		return Outcome{}, ErrEndOfStream
	}
	var d delivery
	if err == nil {
		d = s.admit(pic)
	}
	s.mu.Unlock()

	switch {
	case errors.Is(err, ports.ErrRestartRequired):
		return Outcome{}, fmt.Errorf("session: flush: %w", ErrRestartRequired)
	case err != nil:
		return Outcome{}, fmt.Errorf("%w: flush: %w", ErrEngineFault, err)
	}
	return s.deliver(d)
}

// Drain flushes until end of stream and returns the number of pictures
// the engine gave back. Errors that concern a single picture are logged
// and do not stop the drain.
func (s *Session) Drain() (int, error) {
	n := 0
	for {
		out, err := s.Flush()
		if errors.Is(err, ErrEndOfStream) {
			return n, nil
		}
		if out.Picture {
			n++
		}
		if err != nil {
			if !out.Picture {
				return n, err
			}
			s.logger.Warn("Dropped picture %d: %s", out.Sequence, err)
		}
	}
}

// Reset closes the engine handle. It waits for in-flight engine calls.
// The session can be started again afterwards.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st == nil {
		return nil
	}
	err := s.st.handle.Close()
	s.st = nil
	if err != nil {
		return fmt.Errorf("session: close engine: %w", err)
	}
	s.logger.Debug("Engine closed")
	return nil
}

// Restart replaces the engine handle with a fresh one, keeping the
// negotiated output format. The new handle numbers its pictures from zero,
// so the sequence origin advances past every unit the old handle took.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st == nil {
		return ErrNotStarted
	}
	handle, err := s.engine.Open(s.params)
	if err != nil {
		return fmt.Errorf("session: reopen engine: %w", err)
	}
	old := s.st
	s.correlator.Origin += old.submitted
	s.st = &state{
		handle:         handle,
		negotiated:     old.negotiated,
		strideMetadata: old.strideMetadata,
	}
	if err := old.handle.Close(); err != nil {
		s.logger.Warn("Closing replaced engine handle failed: %s", err)
	}
	s.logger.Debug("Engine restarted")
	return nil
}

// DecideAllocation records the host's buffer capabilities. Hosts may call
// it from inside NegotiateOutputFormat.
func (s *Session) DecideAllocation(caps ports.AllocationCaps) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st == nil {
		return ErrNotStarted
	}
	s.st.strideMetadata = caps.StrideMetadata
	return nil
}

// maxFormatAttempts bounds renegotiation while other pictures keep
// changing the output format underneath one delivery.
const maxFormatAttempts = 4

// delivery is a picture taken from the engine together with the layout it
// needs, as judged against the negotiated format at that moment.
type delivery struct {
	pic     ports.Picture
	info    format.VideoInfo
	infoErr error
	stale   bool
}

// admit is called with the lock held, right after the engine call that
// produced pic.
func (s *Session) admit(pic ports.Picture) delivery {
	s.stats.Pictures++
	d := delivery{pic: pic}
	d.info, d.infoErr = format.NewVideoInfo(pic.ColorFormat(), pic.BitDepth(), pic.Width(), pic.Height())
	if d.infoErr == nil {
		cur := s.st.negotiated
		d.stale = cur == nil || !cur.SameLayout(d.info)
	}
	return d
}

// deliver negotiates, correlates and assembles one picture. It is called
// without the lock and releases the picture on every path. Host calls are
// made with the lock released.
func (s *Session) deliver(d delivery) (Outcome, error) {
	ref := picture.NewRef(d.pic)
	defer ref.Release()

	pic := d.pic
	out := Outcome{Picture: true, Sequence: pic.SequenceNumber()}
	if d.infoErr != nil {
		s.drop(true)
		return out, fmt.Errorf("session: picture %d: %w", out.Sequence, d.infoErr)
	}

	if d.stale && !s.hasLayout(d.info) {
		if err := s.negotiate(d.info); err != nil {
			s.drop(false)
			return out, fmt.Errorf("session: picture %d: %w", out.Sequence, err)
		}
		out.Renegotiated = true
	}

	s.mu.Lock()
	if s.st == nil {
		s.stats.Dropped++
		s.mu.Unlock()
		return out, ErrNotStarted
	}
	out.Offset = s.correlator.Offset(pic)
	s.mu.Unlock()

	req, ok := s.host.ResolvePendingRequest(out.Offset)
	if !ok {
		s.logger.Warn("No pending frame for offset %d (picture %d), dropping", out.Offset, out.Sequence)
		s.drop(false)
		return out, nil
	}

	buf, err := s.assemble(ref, d.info, &out)
	if err != nil {
		return out, err
	}
	buf.Sequence = out.Sequence
	buf.Offset = out.Offset
	buf.CTS, buf.CTSValid = pic.CTS()
	if timed, ok := pic.(ports.TimedPicture); ok {
		if rate, ok := timed.FrameRate(); ok {
			buf.FrameRate = rate
		}
	}

	if err := s.host.CompleteRequest(req, buf); err != nil {
		buf.Release()
		s.drop(false)
		return out, fmt.Errorf("session: complete frame %d: %w", out.Offset, err)
	}

	s.mu.Lock()
	s.stats.Delivered++
	s.mu.Unlock()
	out.Delivered = true
	return out, nil
}

// negotiate proposes info to the host and stores the confirmed format. The
// host is called with the lock released.
func (s *Session) negotiate(info format.VideoInfo) error {
	s.logger.Debug("Output format change: %s", info)
	confirmed, err := s.host.NegotiateOutputFormat(info)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNegotiationFailed, info, err)
	}
	if !confirmed.SameLayout(info) {
		return fmt.Errorf("%w: proposed %s, got %s", ErrIncompatibleFormat, info, confirmed)
	}
	caps := s.host.QueryAllocationCapabilities()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st == nil {
		return ErrNotStarted
	}
	s.st.negotiated = &confirmed
	s.st.strideMetadata = caps.StrideMetadata
	s.stats.Renegotiations++
	s.logger.Info("Output format negotiated: %s", confirmed)
	return nil
}

// assemble builds the output buffer under the lock against a negotiated
// format with the same layout as info. If another picture renegotiated in
// the meantime, the format is negotiated again for this one.
func (s *Session) assemble(ref *picture.Ref, info format.VideoInfo, out *Outcome) (*ports.OutputBuffer, error) {
	for attempt := 1; ; attempt++ {
		s.mu.Lock()
		if s.st == nil {
			s.stats.Dropped++
			s.mu.Unlock()
			return nil, ErrNotStarted
		}
		if cur := s.st.negotiated; cur != nil && cur.SameLayout(info) {
			buf, err := s.assembler.Assemble(ref, *cur, s.st.strideMetadata)
			if err != nil {
				s.stats.Dropped++
				s.mu.Unlock()
				return nil, fmt.Errorf("session: picture %d: %w", out.Sequence, err)
			}
			s.mu.Unlock()
			return buf, nil
		}
		s.mu.Unlock()

		if attempt == maxFormatAttempts {
			s.drop(false)
			return nil, fmt.Errorf("session: picture %d: %w: output format moved away from %s", out.Sequence, ErrNegotiationFailed, info)
		}
		if err := s.negotiate(info); err != nil {
			s.drop(false)
			return nil, fmt.Errorf("session: picture %d: %w", out.Sequence, err)
		}
		out.Renegotiated = true
	}
}

// hasLayout reports whether the negotiated format already fits info.
func (s *Session) hasLayout(info format.VideoInfo) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st != nil && s.st.negotiated != nil && s.st.negotiated.SameLayout(info)
}

func (s *Session) drop(unsupported bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Dropped++
	if unsupported {
		s.stats.Unsupported++
	}
}
