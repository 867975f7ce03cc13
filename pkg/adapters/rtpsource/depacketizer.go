// Package rtpsource turns an RTP stream carrying H.266 (RFC 9328) into an
// Annex-B byte stream.
package rtpsource

import (
	"errors"
	"fmt"

	"github.com/pion/rtp"
	"github.com/user/vvdec/pkg/ports"
)

// RTP payload header types. Values below typeAggregation are plain NAL units.
const (
	payloadHeaderSize = 2

	typeAggregation   = 28
	typeFragmentation = 29

	fuStart = 0x80
	fuEnd   = 0x40
)

var startCode = []byte{0, 0, 0, 1}

// ErrMalformedPacket is returned for payloads that cannot be depacketized.
var ErrMalformedPacket = errors.New("rtpsource: malformed packet")

// Stats counts what a Depacketizer has seen.
type Stats struct {
	Packets   int
	Units     int
	Lost      int // packets missing according to sequence numbers
	Discarded int // partial fragmented units dropped after loss
}

// Depacketizer reassembles NAL units from RTP packets. It does not reorder;
// a sequence gap drops the fragmented unit in progress.
type Depacketizer struct {
	logger ports.Logger

	fu      []byte
	inFU    bool
	lastSeq uint16
	started bool
	stats   Stats
}

// NewDepacketizer creates a Depacketizer.
func NewDepacketizer(logger ports.Logger) *Depacketizer {
	return &Depacketizer{logger: logger.WithComponent("rtp")}
}

// Stats returns the counters so far.
func (d *Depacketizer) Stats() Stats {
	return d.stats
}

// Push depacketizes pkt and appends any completed NAL units, each prefixed
// with a four-byte start code, to out.
func (d *Depacketizer) Push(pkt *rtp.Packet, out []byte) ([]byte, error) {
	d.stats.Packets++
	d.checkSequence(pkt.SequenceNumber)

	p := pkt.Payload
	if len(p) < payloadHeaderSize+1 {
		return out, fmt.Errorf("%w: %d byte payload", ErrMalformedPacket, len(p))
	}
	if p[0]&0x80 != 0 {
		return out, fmt.Errorf("%w: forbidden bit set", ErrMalformedPacket)
	}

	switch typ := p[1] >> 3; {
	case typ < typeAggregation:
		d.dropPartial()
		return d.emit(out, p), nil
	case typ == typeAggregation:
		d.dropPartial()
		return d.aggregation(out, p[payloadHeaderSize:])
	case typ == typeFragmentation:
		return d.fragment(out, p)
	default:
		d.logger.Debug("Ignoring RTP payload type %d", typ)
		return out, nil
	}
}

func (d *Depacketizer) checkSequence(seq uint16) {
	if d.started && seq != d.lastSeq+1 {
		d.stats.Lost += int(seq - d.lastSeq - 1)
		if d.inFU {
			d.logger.Warn("RTP sequence gap %d -> %d, dropping fragment", d.lastSeq, seq)
			d.dropPartial()
		}
	}
	d.lastSeq = seq
	d.started = true
}

func (d *Depacketizer) aggregation(out, p []byte) ([]byte, error) {
	if len(p) == 0 {
		return out, fmt.Errorf("%w: empty aggregation packet", ErrMalformedPacket)
	}
	for len(p) > 0 {
		if len(p) < 2 {
			return out, fmt.Errorf("%w: truncated aggregation size", ErrMalformedPacket)
		}
		size := int(p[0])<<8 | int(p[1])
		p = p[2:]
		if size < payloadHeaderSize || size > len(p) {
			return out, fmt.Errorf("%w: aggregation unit of %d bytes, %d left", ErrMalformedPacket, size, len(p))
		}
		out = d.emit(out, p[:size])
		p = p[size:]
	}
	return out, nil
}

func (d *Depacketizer) fragment(out, p []byte) ([]byte, error) {
	if len(p) < payloadHeaderSize+2 {
		return out, fmt.Errorf("%w: %d byte fragment", ErrMalformedPacket, len(p))
	}
	fh := p[2]
	body := p[3:]

	if fh&fuStart != 0 {
		d.dropPartial()
		typ := fh & 0x1f
		d.fu = append(d.fu[:0], p[0], typ<<3|p[1]&0x07)
		d.inFU = true
	} else if !d.inFU {
		// continuation of a unit whose start was lost
		return out, nil
	}
	d.fu = append(d.fu, body...)

	if fh&fuEnd != 0 {
		out = d.emit(out, d.fu)
		d.abortFragment()
	}
	return out, nil
}

func (d *Depacketizer) dropPartial() {
	if d.inFU {
		d.stats.Discarded++
		d.abortFragment()
	}
}

func (d *Depacketizer) abortFragment() {
	d.fu = d.fu[:0]
	d.inFU = false
}

func (d *Depacketizer) emit(out, nal []byte) []byte {
	d.stats.Units++
	out = append(out, startCode...)
	return append(out, nal...)
}
