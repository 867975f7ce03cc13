// Package picture manages the lifetime of engine-owned decoded pictures.
package picture

import (
	"sync"
	"sync/atomic"

	"github.com/user/vvdec/pkg/ports"
)

// Ref counts the holders of a decoded picture and releases it to the
// engine exactly once, when the last holder lets go.
type Ref struct {
	pic  ports.Picture
	refs atomic.Int32
	once sync.Once
}

// NewRef wraps pic with a single reference owned by the caller.
func NewRef(pic ports.Picture) *Ref {
	r := &Ref{pic: pic}
	r.refs.Store(1)
	return r
}

// Picture returns the wrapped picture.
func (r *Ref) Picture() ports.Picture {
	return r.pic
}

// Retain adds a reference and returns r.
func (r *Ref) Retain() *Ref {
	if r.refs.Add(1) <= 1 {
		panic("picture: retain after release")
	}
	return r
}

// Release drops a reference. The picture goes back to the engine when the
// count reaches zero.
func (r *Ref) Release() {
	n := r.refs.Add(-1)
	if n < 0 {
		panic("picture: released too many times")
	}
	if n == 0 {
		r.once.Do(r.pic.Release)
	}
}

// Refs returns the current reference count.
func (r *Ref) Refs() int {
	return int(r.refs.Load())
}
