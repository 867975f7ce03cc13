package vvdec

import (
	"errors"
	"strings"
	"testing"

	"github.com/user/vvdec/pkg/mocks"
	"github.com/user/vvdec/pkg/ports"
)

func TestErrorForCode(t *testing.T) {
	tests := []struct {
		code int32
		want error
	}{
		{codeUnspecified, ErrUnspecified},
		{codeInitialize, ErrInitialize},
		{codeAllocate, ErrAllocate},
		{codeDecInput, ErrDecInput},
		{codeNotEnoughMem, ErrNotEnoughMem},
		{codeParameter, ErrParameter},
		{codeNotSupported, ErrNotSupported},
		{codeRestartRequired, ports.ErrRestartRequired},
		{codeCPU, ErrCPU},
		{codeTryAgain, ports.ErrNeedMoreInput},
		{codeEOF, ports.ErrEndOfStream},
	}
	for _, tt := range tests {
		err := errorForCode(tt.code, "detail")
		if !errors.Is(err, tt.want) {
			t.Errorf("code %d: expected %v, got %v", tt.code, tt.want, err)
		}
	}
}

func TestErrorForCode_Detail(t *testing.T) {
	err := errorForCode(codeDecInput, "bad slice header")
	if !strings.Contains(err.Error(), "bad slice header") {
		t.Errorf("expected detail in %q", err)
	}

	// status codes stay bare so callers can compare them directly
	if err := errorForCode(codeTryAgain, "ignored"); err != ports.ErrNeedMoreInput {
		t.Errorf("expected bare ErrNeedMoreInput, got %v", err)
	}
}

func TestErrorForCode_Unknown(t *testing.T) {
	err := errorForCode(-99, "")
	if err == nil || !strings.Contains(err.Error(), "-99") {
		t.Errorf("expected unknown code in error, got %v", err)
	}
}

func TestToNativeParams(t *testing.T) {
	n := toNativeParams(ports.DefaultEngineParams())
	if n.threads != -1 || n.parseDelay != -1 {
		t.Errorf("expected engine defaults, got %+v", n)
	}
	if n.errHandling != errHandlingOff {
		t.Errorf("expected error handling off, got %d", n.errHandling)
	}

	n = toNativeParams(ports.EngineParams{Threads: 4, ParseDelay: 2, RemovePadding: true, ErrorTolerance: true})
	if n.threads != 4 || n.parseDelay != 2 || !n.removePadding {
		t.Errorf("unexpected params %+v", n)
	}
	if n.errHandling != errHandlingTryContinue {
		t.Errorf("expected try-continue, got %d", n.errHandling)
	}
}

func TestFrameRate(t *testing.T) {
	tests := []struct {
		tick, scale uint32
		want        ports.Rational
		ok          bool
	}{
		{1, 25, ports.Rational{Num: 25, Den: 1}, true},
		{1001, 60000, ports.Rational{Num: 60000, Den: 1001}, true},
		{2, 100, ports.Rational{Num: 50, Den: 1}, true},
		{0, 25, ports.Rational{}, false},
		{1, 0, ports.Rational{}, false},
	}
	for _, tt := range tests {
		got, ok := frameRate(tt.tick, tt.scale)
		if ok != tt.ok || got != tt.want {
			t.Errorf("frameRate(%d, %d) = %v, %v; want %v, %v", tt.tick, tt.scale, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEngine_OpenClose(t *testing.T) {
	if !Available() {
		t.Skip("libvvdec not available")
	}
	engine, err := NewEngine(mocks.NewLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	h, err := engine.Open(ports.DefaultEngineParams())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := h.Decode(ports.AccessUnit{}); !errors.Is(err, ports.ErrNeedMoreInput) {
		t.Errorf("expected ErrNeedMoreInput for empty unit, got %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if _, err := h.Flush(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after close, got %v", err)
	}
}

func TestNewEngine_Unavailable(t *testing.T) {
	if Available() {
		t.Skip("libvvdec is available")
	}
	if _, err := NewEngine(mocks.NewLogger()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
