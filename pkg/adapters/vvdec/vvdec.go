// Package vvdec binds the Fraunhofer VVdeC library as a ports.Engine.
//
// The library is loaded at runtime with purego, so no C toolchain is needed
// to build. Set VVDEC_LIB_PATH to point at a specific libvvdec build.
package vvdec

import (
	"errors"
	"fmt"

	"github.com/user/vvdec/pkg/ports"
)

// Native return codes (vvdecErrorCodes).
const (
	codeOK              = 0
	codeUnspecified     = -1
	codeInitialize      = -2
	codeAllocate        = -3
	codeDecInput        = -4
	codeNotEnoughMem    = -5
	codeParameter       = -7
	codeNotSupported    = -10
	codeRestartRequired = -11
	codeCPU             = -30
	codeTryAgain        = -40
	codeEOF             = -50
)

// Engine errors. Codes with a shared meaning map to the ports errors instead.
var (
	ErrUnavailable  = errors.New("vvdec: library not available")
	ErrOpen         = errors.New("vvdec: failed to open decoder")
	ErrClosed       = errors.New("vvdec: decoder closed")
	ErrUnspecified  = errors.New("vvdec: unspecified malfunction")
	ErrInitialize   = errors.New("vvdec: decoder not initialized")
	ErrAllocate     = errors.New("vvdec: internal allocation error")
	ErrDecInput     = errors.New("vvdec: decoder input error")
	ErrNotEnoughMem = errors.New("vvdec: allocated memory too small")
	ErrParameter    = errors.New("vvdec: inconsistent or invalid parameters")
	ErrNotSupported = errors.New("vvdec: unsupported request")
	ErrCPU          = errors.New("vvdec: unsupported CPU")
)

var codeErrors = map[int32]error{
	codeUnspecified:     ErrUnspecified,
	codeInitialize:      ErrInitialize,
	codeAllocate:        ErrAllocate,
	codeDecInput:        ErrDecInput,
	codeNotEnoughMem:    ErrNotEnoughMem,
	codeParameter:       ErrParameter,
	codeNotSupported:    ErrNotSupported,
	codeRestartRequired: ports.ErrRestartRequired,
	codeCPU:             ErrCPU,
	codeTryAgain:        ports.ErrNeedMoreInput,
	codeEOF:             ports.ErrEndOfStream,
}

// errorForCode converts a non-OK return code. detail is the decoder's last
// error message, if any.
func errorForCode(code int32, detail string) error {
	base, ok := codeErrors[code]
	if !ok {
		base = fmt.Errorf("vvdec: unknown error code %d", code)
	}
	switch {
	case base == ports.ErrNeedMoreInput, base == ports.ErrEndOfStream:
		return base
	case detail != "":
		return fmt.Errorf("%w: %s", base, detail)
	default:
		return base
	}
}

// Native option values.
const (
	errHandlingOff         = 0
	errHandlingTryContinue = 1
)

// nativeParams is the subset of vvdecParams this package sets.
type nativeParams struct {
	threads           int32
	parseDelay        int32
	verifyPictureHash bool
	removePadding     bool
	errHandling       int32
}

func toNativeParams(p ports.EngineParams) nativeParams {
	n := nativeParams{
		threads:           int32(p.Threads),
		parseDelay:        int32(p.ParseDelay),
		verifyPictureHash: p.VerifyPictureHash,
		removePadding:     p.RemovePadding,
		errHandling:       errHandlingOff,
	}
	if p.ErrorTolerance {
		n.errHandling = errHandlingTryContinue
	}
	return n
}

// frameRate derives a rate from HRD timing. VVC ticks once per field pair,
// so time_scale / num_units_in_tick is the frame rate.
func frameRate(numUnitsInTick, timeScale uint32) (ports.Rational, bool) {
	if numUnitsInTick == 0 || timeScale == 0 {
		return ports.Rational{}, false
	}
	r := ports.Rational{Num: int(timeScale), Den: int(numUnitsInTick)}
	if g := gcd(r.Num, r.Den); g > 1 {
		r.Num /= g
		r.Den /= g
	}
	return r, true
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Engine opens VVdeC decoder handles.
type Engine struct {
	logger ports.Logger
}

// NewEngine loads the library and returns an engine.
func NewEngine(logger ports.Logger) (*Engine, error) {
	if err := load(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return &Engine{logger: logger.WithComponent("vvdec")}, nil
}

// Open creates a decoder handle.
func (e *Engine) Open(params ports.EngineParams) (ports.EngineHandle, error) {
	h, err := openHandle(toNativeParams(params), e.logger)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("Opened VVdeC %s", Version())
	return h, nil
}

var _ ports.Engine = (*Engine)(nil)
