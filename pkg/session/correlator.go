package session

import (
	"fmt"
	"strings"

	"github.com/user/vvdec/pkg/ports"
)

// CorrelationMode selects how output pictures map back to input frames.
type CorrelationMode int

const (
	// CorrelateBySequence maps a picture to origin + sequence number.
	CorrelateBySequence CorrelationMode = iota
	// CorrelateByTimestamp maps a picture to its echoed CTS, falling back
	// to the sequence mapping when the picture has none.
	CorrelateByTimestamp
)

// String returns the configuration name of the mode.
func (m CorrelationMode) String() string {
	switch m {
	case CorrelateByTimestamp:
		return "timestamp"
	default:
		return "sequence"
	}
}

// ParseCorrelationMode parses "sequence" or "timestamp".
func ParseCorrelationMode(s string) (CorrelationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sequence":
		return CorrelateBySequence, nil
	case "timestamp", "cts":
		return CorrelateByTimestamp, nil
	default:
		return CorrelateBySequence, fmt.Errorf("session: unknown correlation mode %q", s)
	}
}

// Correlator computes the frame offset of a decoded picture. It keeps no
// table; the host owns the pending requests.
type Correlator struct {
	Mode   CorrelationMode
	Origin uint64
}

// Offset returns the frame offset the picture belongs to.
func (c Correlator) Offset(pic ports.Picture) uint64 {
	if c.Mode == CorrelateByTimestamp {
		if cts, ok := pic.CTS(); ok {
			return cts
		}
	}
	return c.Origin + pic.SequenceNumber()
}
