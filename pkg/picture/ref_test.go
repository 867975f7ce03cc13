package picture_test

import (
	"sync"
	"testing"

	"github.com/user/vvdec/pkg/format"
	"github.com/user/vvdec/pkg/mocks"
	"github.com/user/vvdec/pkg/picture"
)

func TestRef_ReleasesOnce(t *testing.T) {
	pic := mocks.NewPicture(16, 8, format.Color420, 8, 0)
	ref := picture.NewRef(pic)

	ref.Retain()
	ref.Retain()
	ref.Release()
	ref.Release()
	if pic.Releases() != 0 {
		t.Fatalf("released early: %d", pic.Releases())
	}
	ref.Release()
	if pic.Releases() != 1 {
		t.Errorf("expected 1 release, got %d", pic.Releases())
	}
}

func TestRef_ConcurrentRelease(t *testing.T) {
	pic := mocks.NewPicture(16, 8, format.Color420, 8, 0)
	ref := picture.NewRef(pic)

	const holders = 32
	for i := 0; i < holders; i++ {
		ref.Retain()
	}

	var wg sync.WaitGroup
	for i := 0; i < holders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref.Release()
		}()
	}
	wg.Wait()
	ref.Release()

	if pic.Releases() != 1 {
		t.Errorf("expected 1 release, got %d", pic.Releases())
	}
}

func TestRef_OverReleasePanics(t *testing.T) {
	pic := mocks.NewPicture(16, 8, format.Color420, 8, 0)
	ref := picture.NewRef(pic)
	ref.Release()

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	ref.Release()
}
