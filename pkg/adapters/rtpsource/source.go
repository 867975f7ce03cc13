package rtpsource

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/pion/rtp"
	"github.com/user/vvdec/pkg/ports"
)

// maxPacketSize covers any UDP datagram.
const maxPacketSize = 65536

// PacketConn is the part of net.PacketConn a Source reads from.
type PacketConn interface {
	ReadFrom(p []byte) (n int, addr net.Addr, err error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Option configures a Source.
type Option func(*Source)

// WithIdleTimeout ends the stream when no packet arrives for d.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Source) { s.idle = d }
}

// WithPayloadType keeps only packets of the given RTP payload type.
func WithPayloadType(pt uint8) Option {
	return func(s *Source) {
		s.payloadType = pt
		s.filterPT = true
	}
}

// Source is an io.Reader producing Annex-B bytes from RTP packets.
// A closed connection or an idle timeout reads as io.EOF.
type Source struct {
	conn   PacketConn
	depack *Depacketizer
	logger ports.Logger

	idle        time.Duration
	payloadType uint8
	filterPT    bool

	packet  []byte
	pending []byte
	off     int
	stop    func() bool
}

// NewSource wraps conn.
func NewSource(conn PacketConn, logger ports.Logger, opts ...Option) *Source {
	s := &Source{
		conn:   conn,
		depack: NewDepacketizer(logger),
		logger: logger.WithComponent("rtp"),
		packet: make([]byte, maxPacketSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Listen opens a UDP socket on addr. The socket is closed when ctx is
// cancelled, which ends the stream.
func Listen(ctx context.Context, addr string, logger ports.Logger, opts ...Option) (*Source, error) {
	var lc net.ListenConfig
	conn, err := lc.ListenPacket(ctx, "udp", addr)
	if err != nil {
		return nil, err
	}
	s := NewSource(conn, logger, opts...)
	s.stop = context.AfterFunc(ctx, func() { conn.Close() })
	s.logger.Info("Listening for RTP on %s", conn.LocalAddr())
	return s, nil
}

// LocalAddr returns the bound address, or nil when the connection does
// not report one.
func (s *Source) LocalAddr() net.Addr {
	if pc, ok := s.conn.(interface{ LocalAddr() net.Addr }); ok {
		return pc.LocalAddr()
	}
	return nil
}

// Read implements io.Reader.
func (s *Source) Read(p []byte) (int, error) {
	for s.off >= len(s.pending) {
		if err := s.readPacket(); err != nil {
			return 0, err
		}
	}
	n := copy(p, s.pending[s.off:])
	s.off += n
	return n, nil
}

func (s *Source) readPacket() error {
	if s.idle > 0 {
		if err := s.conn.SetReadDeadline(time.Now().Add(s.idle)); err != nil {
			return err
		}
	}
	n, _, err := s.conn.ReadFrom(s.packet)
	if err != nil {
		var ne net.Error
		switch {
		case errors.Is(err, net.ErrClosed):
			return io.EOF
		case errors.As(err, &ne) && ne.Timeout():
			s.logger.Info("RTP idle for %s, ending stream", s.idle)
			return io.EOF
		default:
			return err
		}
	}

	var pkt rtp.Packet
	if err := pkt.Unmarshal(s.packet[:n]); err != nil {
		s.logger.Debug("Skipping invalid RTP packet: %s", err)
		return nil
	}
	if s.filterPT && pkt.PayloadType != s.payloadType {
		return nil
	}

	s.pending, err = s.depack.Push(&pkt, s.pending[:0])
	s.off = 0
	if err != nil {
		s.logger.Debug("Skipping RTP packet %d: %s", pkt.SequenceNumber, err)
	}
	return nil
}

// Stats returns the depacketizer counters.
func (s *Source) Stats() Stats {
	return s.depack.Stats()
}

// Close closes the underlying connection.
func (s *Source) Close() error {
	if s.stop != nil {
		s.stop()
	}
	err := s.conn.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
