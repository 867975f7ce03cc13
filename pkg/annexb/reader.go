package annexb

import (
	"errors"
	"fmt"
	"io"
)

const (
	// DefaultPageSize is the initial buffer size and the growth step.
	DefaultPageSize = 16 * 1024
	// DefaultMaxBufferSize bounds the size of a single unit.
	DefaultMaxBufferSize = 16 * 1024 * 1024

	maxEmptyReads = 100
)

var (
	// ErrMissingStartCode is returned when buffered data does not begin
	// with a start code.
	ErrMissingStartCode = errors.New("annexb: data does not begin with a start code")

	// ErrBufferLimitExceeded is returned when a unit does not fit in the
	// maximum buffer size.
	ErrBufferLimitExceeded = errors.New("annexb: unit exceeds buffer limit")
)

// Option configures a Reader.
type Option func(*Reader)

// WithPageSize sets the initial allocation and growth step.
func WithPageSize(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

// WithMaxBufferSize sets the largest buffer the reader may allocate.
func WithMaxBufferSize(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxSize = n
		}
	}
}

// Reader splits an Annex-B stream at start codes. Each unit returned by
// NextChunk begins with a start code and runs up to the next one, or to
// the end of the stream. Chunk boundaries do not depend on how the source
// delivers its bytes.
type Reader struct {
	src      io.Reader
	pageSize int
	maxSize  int

	buf     []byte
	next    int // end of the last returned chunk
	end     int // end of valid data
	scanned int // bytes of buf[:end] searched without finding a start code
	eof     bool
}

// NewReader returns a Reader that pulls from src.
func NewReader(src io.Reader, opts ...Option) *Reader {
	r := &Reader{
		src:      src,
		pageSize: DefaultPageSize,
		maxSize:  DefaultMaxBufferSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.pageSize > r.maxSize {
		r.pageSize = r.maxSize
	}
	return r
}

// BufferSize returns the current allocation in bytes.
func (r *Reader) BufferSize() int {
	return len(r.buf)
}

// NextChunk returns the next unit. The slice is only valid until the next
// call. io.EOF is returned once the source is exhausted and nothing is
// buffered; other source errors are returned unchanged.
func (r *Reader) NextChunk() ([]byte, error) {
	r.compact()

	for {
		if r.end > 0 {
			n, decided := prefixLength(r.buf[:r.end])
			if decided && n == 0 {
				return nil, ErrMissingStartCode
			}
			if decided {
				from := 3
				if r.scanned-3 > from {
					from = r.scanned - 3
				}
				if from < r.end {
					if k := FindStartCode(r.buf[from:r.end]); k >= 0 {
						return r.emit(from + k), nil
					}
				}
				r.scanned = r.end
			}
		}

		if r.eof {
			if r.end == 0 {
				return nil, io.EOF
			}
			if _, decided := prefixLength(r.buf[:r.end]); !decided {
				return nil, ErrMissingStartCode
			}
			return r.emit(r.end), nil
		}

		if err := r.fill(); err != nil {
			return nil, err
		}
	}
}

func (r *Reader) emit(k int) []byte {
	r.next = k
	r.scanned = 0
	return r.buf[:k]
}

// compact moves unread bytes to the front of the buffer.
func (r *Reader) compact() {
	if r.next == 0 {
		return
	}
	copy(r.buf, r.buf[r.next:r.end])
	r.end -= r.next
	r.next = 0
	r.scanned = 0
}

// fill reads from the source once, growing the buffer only when it is full.
func (r *Reader) fill() error {
	if r.end == len(r.buf) {
		if err := r.grow(); err != nil {
			return err
		}
	}

	for empty := 0; ; empty++ {
		if empty >= maxEmptyReads {
			return io.ErrNoProgress
		}
		n, err := r.src.Read(r.buf[r.end:])
		r.end += n
		if err == io.EOF {
			r.eof = true
			return nil
		}
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
	}
}

func (r *Reader) grow() error {
	size := len(r.buf)
	if size >= r.maxSize {
		return fmt.Errorf("%w (%d bytes)", ErrBufferLimitExceeded, r.maxSize)
	}
	size += r.pageSize
	if size > r.maxSize {
		size = r.maxSize
	}
	buf := make([]byte, size)
	copy(buf, r.buf[:r.end])
	r.buf = buf
	return nil
}
