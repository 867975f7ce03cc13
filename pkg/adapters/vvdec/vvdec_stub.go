//go:build !(darwin || linux) || novvdec

package vvdec

import (
	"errors"

	"github.com/user/vvdec/pkg/ports"
)

func load() error {
	return errors.New("built without libvvdec support")
}

// Available reports whether libvvdec could be loaded.
func Available() bool { return false }

// Version returns the library version string.
func Version() string { return "" }

func openHandle(nativeParams, ports.Logger) (ports.EngineHandle, error) {
	return nil, ErrUnavailable
}
