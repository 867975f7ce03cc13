package filesink

import (
	"bytes"
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/user/vvdec/pkg/mocks"
)

var testBaseDir = filepath.Join("debug")

func TestSink_Enabled(t *testing.T) {
	sink := New(testBaseDir, mocks.NewFileSystem(), &mocks.Renderer{})
	if !sink.Enabled() {
		t.Error("expected Enabled to return true")
	}
}

func TestSink_SaveAccessUnit(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, &mocks.Renderer{})

	data := []byte{0, 0, 0, 1, 0x40, 0x01}
	if err := sink.SaveAccessUnit(3, data); err != nil {
		t.Fatalf("SaveAccessUnit failed: %v", err)
	}

	path := filepath.Join(testBaseDir, "units", "unit-000003.266")
	saved, ok := fs.GetFile(path)
	if !ok {
		t.Fatalf("expected file at %s", path)
	}
	if !bytes.Equal(saved, data) {
		t.Errorf("expected %v, got %v", data, saved)
	}
}

func TestSink_SaveFrame(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, &mocks.Renderer{})

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if err := sink.SaveFrame(42, img); err != nil {
		t.Fatalf("SaveFrame failed: %v", err)
	}
	if _, ok := fs.GetFile(filepath.Join(testBaseDir, "frames", "frame-000042.png")); !ok {
		t.Error("expected frame PNG to be saved")
	}
}

func TestSink_SaveFrameEncodeError(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{
		EncodePNGFunc: func(img image.Image) ([]byte, error) {
			return nil, errors.New("encode failed")
		},
	}
	sink := New(testBaseDir, fs, renderer)

	if err := sink.SaveFrame(1, image.NewRGBA(image.Rect(0, 0, 1, 1))); err == nil {
		t.Error("expected encode error")
	}
}
