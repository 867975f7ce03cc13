//go:build (darwin || linux) && !novvdec

package vvdec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/user/vvdec/pkg/format"
	"github.com/user/vvdec/pkg/ports"
)

var (
	libOnce    sync.Once
	libHandle  uintptr
	libInitErr error
)

// libvvdec function pointers
var (
	vvdecParamsDefault func(params uintptr)
	vvdecDecoderOpen   func(params uintptr) uintptr
	vvdecDecoderClose  func(dec uintptr) int32
	vvdecDecode        func(dec, au, frame uintptr) int32
	vvdecFlush         func(dec, frame uintptr) int32
	vvdecFrameUnref    func(dec, frame uintptr) int32
	vvdecGetLastError  func(dec uintptr) uintptr
	vvdecGetErrorMsg   func(code int32) uintptr
	vvdecGetVersion    func() uintptr
)

// Mirrors of the vvdec.h structures. Go lays these out with the same
// natural alignment as the C compiler.

type cParams struct {
	Threads           int32
	ParseDelay        int32
	UpscaleOutput     int32
	LogLevel          int32
	VerifyPictureHash bool
	RemovePadding     bool
	ErrHandlingFlags  int32
	SIMD              int32
	Opaque            uintptr

	// newer releases append fields; vvdec_params_default may write them
	_ [128]byte
}

type cAccessUnit struct {
	Payload         uintptr
	PayloadSize     int32
	PayloadUsedSize int32
	CTS             uint64
	DTS             uint64
	CTSValid        bool
	DTSValid        bool
	RAP             bool
}

type cPlane struct {
	Ptr            uintptr
	Width          uint32
	Height         uint32
	Stride         uint32 // bytes
	BytesPerSample uint32
	Allocator      uintptr
}

type cFrame struct {
	Planes         [3]cPlane
	NumPlanes      uint32
	Width          uint32
	Height         uint32
	BitDepth       uint32
	FrameFormat    int32
	ColorFormat    int32
	SequenceNumber uint64
	CTS            uint64
	CTSValid       bool
	PicAttributes  uintptr
}

type cPicAttributes struct {
	NalType       int32
	SliceType     int32
	IsRefPic      bool
	TemporalLayer uint32
	POC           int64
	Bits          uint32
	VUI           uintptr
	HRD           uintptr
}

type cHRD struct {
	NumUnitsInTick uint32
	TimeScale      uint32
}

func load() error {
	libOnce.Do(func() {
		libInitErr = loadLib()
	})
	return libInitErr
}

// Available reports whether libvvdec could be loaded.
func Available() bool {
	return load() == nil
}

func loadLib() error {
	var lastErr error
	for _, path := range libPaths() {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		libHandle = handle
		registerSymbols()
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to load libvvdec: %w", lastErr)
	}
	return errors.New("libvvdec not found in any standard location")
}

func libPaths() []string {
	var paths []string

	libName := "libvvdec.so"
	if runtime.GOOS == "darwin" {
		libName = "libvvdec.dylib"
	}

	if envPath := os.Getenv("VVDEC_LIB_PATH"); envPath != "" {
		if info, err := os.Stat(envPath); err == nil && info.IsDir() {
			paths = append(paths, filepath.Join(envPath, libName))
		} else {
			paths = append(paths, envPath)
		}
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, libName),
			filepath.Join(exeDir, "..", "lib", libName),
		)
	}

	switch runtime.GOOS {
	case "darwin":
		paths = append(paths,
			libName,
			"/usr/local/lib/"+libName,
			"/opt/homebrew/lib/"+libName,
		)
	case "linux":
		paths = append(paths,
			libName,
			"libvvdec.so.3",
			"libvvdec.so.2",
			"/usr/local/lib/"+libName,
			"/usr/lib/"+libName,
			"/usr/lib/x86_64-linux-gnu/"+libName,
			"/usr/lib/aarch64-linux-gnu/"+libName,
		)
	}
	return paths
}

func registerSymbols() {
	purego.RegisterLibFunc(&vvdecParamsDefault, libHandle, "vvdec_params_default")
	purego.RegisterLibFunc(&vvdecDecoderOpen, libHandle, "vvdec_decoder_open")
	purego.RegisterLibFunc(&vvdecDecoderClose, libHandle, "vvdec_decoder_close")
	purego.RegisterLibFunc(&vvdecDecode, libHandle, "vvdec_decode")
	purego.RegisterLibFunc(&vvdecFlush, libHandle, "vvdec_flush")
	purego.RegisterLibFunc(&vvdecFrameUnref, libHandle, "vvdec_frame_unref")
	purego.RegisterLibFunc(&vvdecGetLastError, libHandle, "vvdec_get_last_error")
	purego.RegisterLibFunc(&vvdecGetErrorMsg, libHandle, "vvdec_get_error_msg")
	purego.RegisterLibFunc(&vvdecGetVersion, libHandle, "vvdec_get_version")
}

// Version returns the library version string.
func Version() string {
	if load() != nil {
		return ""
	}
	return goString(vvdecGetVersion())
}

func goString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	p := unsafe.Pointer(ptr)
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 && n < 4096 {
		n++
	}
	return string(unsafe.Slice((*byte)(p), n))
}

// handle is one vvdecDecoder. The native close is deferred until every
// picture handed out has been released.
type handle struct {
	logger      ports.Logger
	mu          sync.Mutex
	dec         uintptr
	outstanding int
	closing     bool

	// heap-allocated for purego out-parameters
	au    *cAccessUnit
	frame *uintptr
}

func openHandle(p nativeParams, logger ports.Logger) (*handle, error) {
	if err := load(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	params := &cParams{}
	vvdecParamsDefault(uintptr(unsafe.Pointer(params)))
	params.Threads = p.threads
	params.ParseDelay = p.parseDelay
	params.VerifyPictureHash = p.verifyPictureHash
	params.RemovePadding = p.removePadding
	params.ErrHandlingFlags = p.errHandling

	dec := vvdecDecoderOpen(uintptr(unsafe.Pointer(params)))
	runtime.KeepAlive(params)
	if dec == 0 {
		return nil, ErrOpen
	}
	return &handle{
		logger: logger,
		dec:    dec,
		au:     &cAccessUnit{},
		frame:  new(uintptr),
	}, nil
}

func (h *handle) Decode(au ports.AccessUnit) (ports.Picture, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closing {
		return nil, ErrClosed
	}
	if len(au.Payload) == 0 {
		return nil, ports.ErrNeedMoreInput
	}

	*h.au = cAccessUnit{
		Payload:         uintptr(unsafe.Pointer(&au.Payload[0])),
		PayloadSize:     int32(len(au.Payload)),
		PayloadUsedSize: int32(len(au.Payload)),
		CTS:             au.CTS,
		DTS:             au.DTS,
		CTSValid:        au.CTSValid,
		DTSValid:        au.DTSValid,
		RAP:             au.RandomAccess,
	}
	*h.frame = 0

	ret := vvdecDecode(h.dec, uintptr(unsafe.Pointer(h.au)), uintptr(unsafe.Pointer(h.frame)))
	runtime.KeepAlive(au.Payload)
	runtime.KeepAlive(h.au)
	h.au.Payload = 0

	if ret != codeOK {
		return nil, errorForCode(ret, h.lastError())
	}
	if *h.frame == 0 {
		return nil, ports.ErrNeedMoreInput
	}
	return h.wrap(*h.frame), nil
}

func (h *handle) Flush() (ports.Picture, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closing {
		return nil, ErrClosed
	}

	*h.frame = 0
	ret := vvdecFlush(h.dec, uintptr(unsafe.Pointer(h.frame)))
	runtime.KeepAlive(h.frame)

	if ret != codeOK {
		return nil, errorForCode(ret, h.lastError())
	}
	if *h.frame == 0 {
		return nil, ports.ErrEndOfStream
	}
	return h.wrap(*h.frame), nil
}

func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closing {
		return nil
	}
	h.closing = true
	if h.outstanding == 0 {
		return h.closeNative()
	}
	return nil
}

func (h *handle) closeNative() error {
	ret := vvdecDecoderClose(h.dec)
	h.dec = 0
	if ret != codeOK {
		return errorForCode(ret, goString(vvdecGetErrorMsg(ret)))
	}
	return nil
}

func (h *handle) lastError() string {
	return goString(vvdecGetLastError(h.dec))
}

// release unrefs a frame and finishes a deferred close.
func (h *handle) release(frame uintptr) {
	h.mu.Lock()
	defer h.mu.Unlock()

	vvdecFrameUnref(h.dec, frame)
	h.outstanding--
	if h.closing && h.outstanding == 0 {
		if err := h.closeNative(); err != nil {
			h.logger.Warn("Closing VVdeC decoder failed: %s", err)
		}
	}
}

func (h *handle) wrap(ptr uintptr) *nativePicture {
	h.outstanding++
	f := (*cFrame)(unsafe.Pointer(ptr))
	pic := &nativePicture{h: h, ptr: ptr, frame: f}
	pic.planes = make([]ports.Plane, 0, f.NumPlanes)
	for i := 0; i < int(f.NumPlanes) && i < len(f.Planes); i++ {
		cp := f.Planes[i]
		var data []byte
		if cp.Ptr != 0 {
			data = unsafe.Slice((*byte)(unsafe.Pointer(cp.Ptr)), int(cp.Stride)*int(cp.Height))
		}
		pic.planes = append(pic.planes, ports.Plane{
			Data:           data,
			Width:          int(cp.Width),
			Height:         int(cp.Height),
			Stride:         int(cp.Stride),
			BytesPerSample: int(cp.BytesPerSample),
		})
	}
	return pic
}

// nativePicture is a vvdecFrame owned by libvvdec until Release.
type nativePicture struct {
	h      *handle
	ptr    uintptr
	frame  *cFrame
	planes []ports.Plane
	once   sync.Once
}

func (p *nativePicture) Width() int             { return int(p.frame.Width) }
func (p *nativePicture) Height() int            { return int(p.frame.Height) }
func (p *nativePicture) BitDepth() int          { return int(p.frame.BitDepth) }
func (p *nativePicture) SequenceNumber() uint64 { return p.frame.SequenceNumber }
func (p *nativePicture) NumPlanes() int         { return len(p.planes) }
func (p *nativePicture) Plane(i int) ports.Plane {
	return p.planes[i]
}

func (p *nativePicture) ColorFormat() format.ColorFormat {
	cf := format.ColorFormat(p.frame.ColorFormat)
	if cf < format.ColorInvalid || cf > format.Color444 {
		return format.ColorInvalid
	}
	return cf
}

func (p *nativePicture) CTS() (uint64, bool) {
	return p.frame.CTS, p.frame.CTSValid
}

// FrameRate reports the HRD timing attached to the picture, if any.
func (p *nativePicture) FrameRate() (ports.Rational, bool) {
	if p.frame.PicAttributes == 0 {
		return ports.Rational{}, false
	}
	attrs := (*cPicAttributes)(unsafe.Pointer(p.frame.PicAttributes))
	if attrs.HRD == 0 {
		return ports.Rational{}, false
	}
	hrd := (*cHRD)(unsafe.Pointer(attrs.HRD))
	return frameRate(hrd.NumUnitsInTick, hrd.TimeScale)
}

func (p *nativePicture) Release() {
	p.once.Do(func() {
		p.h.release(p.ptr)
	})
}

var (
	_ ports.EngineHandle = (*handle)(nil)
	_ ports.TimedPicture = (*nativePicture)(nil)
)
