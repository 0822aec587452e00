// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"testing"

	"github.com/horizon3ds/rastercache/pixelformat"
	"github.com/horizon3ds/rastercache/region"
	"github.com/horizon3ds/rastercache/runtime"
	"github.com/horizon3ds/rastercache/surfaceparams"
)

func testParams(addr uint64, w, h, stride uint32) surfaceparams.Params {
	p := surfaceparams.Params{
		Addr:        addr,
		Width:       w,
		Height:      h,
		Stride:      stride,
		Levels:      1,
		ResScale:    1,
		IsTiled:     false,
		TextureType: pixelformat.Texture2D,
		PixelFormat: pixelformat.RGBA8,
		Type:        pixelformat.Color,
	}
	p.UpdateParams()
	return p
}

func TestNewSurfaceStartsFullyInvalid(t *testing.T) {
	backend := runtime.NewSoftwareBackend()
	p := testParams(0x1000, 4, 4, 4)
	s := New(backend, p)

	if !s.IsSurfaceFullyInvalid() {
		t.Error("freshly created surface should be fully invalid")
	}
	if s.Alloc.Empty() {
		t.Error("non-Fill surface should have allocated a host texture")
	}
}

func TestNewFillSurfaceHasNoAllocation(t *testing.T) {
	p := testParams(0x2000, 8, 8, 8)
	pattern := FillPattern{Data: [4]byte{0xAA, 0xAA, 0xAA, 0xAA}, Size: 4}
	s := NewFill(p, pattern)

	if !s.Alloc.Empty() {
		t.Error("Fill surface must not own a host allocation")
	}
	if s.Params.Type != pixelformat.Fill {
		t.Errorf("Params.Type = %v, want Fill", s.Params.Type)
	}
}

func TestCanFillExactBppMatch(t *testing.T) {
	dest := testParams(0x3000, 4, 4, 4)
	fillParams := dest
	fillParams.Type = pixelformat.Fill
	pattern := FillPattern{Data: [4]byte{1, 2, 3, 4}, Size: 4}
	s := NewFill(fillParams, pattern)

	iv := dest.GetInterval()
	if !s.CanFill(&dest, iv) {
		t.Error("4-byte pattern should satisfy a 4 bytes-per-pixel destination exactly")
	}
}

func TestCanFillRejectsOutOfRange(t *testing.T) {
	fillParams := testParams(0x4000, 4, 4, 4)
	fillParams.Type = pixelformat.Fill
	pattern := FillPattern{Data: [4]byte{1, 1, 1, 1}, Size: 4}
	s := NewFill(fillParams, pattern)

	outside := region.Interval{Start: s.Params.End + 0x100, End: s.Params.End + 0x200}
	if s.CanFill(&fillParams, outside) {
		t.Error("CanFill must reject an interval outside the Fill surface's own range")
	}
}

func TestIsRegionValidAfterPartialInvalidation(t *testing.T) {
	backend := runtime.NewSoftwareBackend()
	p := testParams(0x5000, 4, 4, 4)
	s := New(backend, p)

	full := p.GetInterval()
	s.InvalidRegions = region.NewSet()
	if !s.IsRegionValid(full) {
		t.Fatal("clearing InvalidRegions should make the surface valid")
	}

	half := region.Interval{Start: full.Start, End: full.Start + full.Len()/2}
	s.InvalidRegions.Add(half)
	if s.IsRegionValid(half) {
		t.Error("half should now be reported invalid")
	}
	if !s.IsRegionValid(region.Interval{Start: half.End, End: full.End}) {
		t.Error("the untouched half should remain valid")
	}
}

func TestWatcherInvalidateAndUnlink(t *testing.T) {
	backend := runtime.NewSoftwareBackend()
	p := testParams(0x6000, 4, 4, 4)
	s := New(backend, p)

	w := s.CreateWatcher()
	w.Validate()
	if !w.IsValid() {
		t.Fatal("watcher should be valid immediately after Validate")
	}

	s.InvalidateAllWatchers()
	if w.IsValid() {
		t.Error("InvalidateAllWatchers should have invalidated the watcher")
	}
	if w.Get() != s {
		t.Error("an invalidated (but not unlinked) watcher should still resolve to its surface")
	}

	s.UnlinkAllWatchers()
	if w.Get() != nil {
		t.Error("an unlinked watcher must return nil from Get")
	}
}

func TestGetCopyableIntervalEmptyWhenFullyInvalid(t *testing.T) {
	backend := runtime.NewSoftwareBackend()
	p := testParams(0x7000, 8, 8, 8)
	s := New(backend, p)

	got := s.GetCopyableInterval(&p)
	if !got.Empty() {
		t.Errorf("GetCopyableInterval on a fully invalid surface = %v, want empty", got)
	}
}

func TestGetCopyableIntervalWholeSurfaceWhenValid(t *testing.T) {
	backend := runtime.NewSoftwareBackend()
	p := testParams(0x8000, 8, 8, 8)
	s := New(backend, p)
	s.InvalidRegions = region.NewSet()

	got := s.GetCopyableInterval(&p)
	want := p.GetInterval()
	if got != want {
		t.Errorf("GetCopyableInterval = %v, want the full interval %v", got, want)
	}
}

func TestCloseReturnsAllocationToRecycler(t *testing.T) {
	backend := runtime.NewSoftwareBackend()
	recycler := runtime.NewRecycler()
	p := testParams(0x9000, 4, 4, 4)
	s := New(backend, p)
	tag := s.Alloc.Tag(p.TextureType)

	s.Close(recycler)
	if recycler.Len() != 1 {
		t.Fatalf("recycler.Len() = %d, want 1", recycler.Len())
	}
	if _, ok := recycler.Take(tag); !ok {
		t.Error("recycled allocation should be retrievable by its tag")
	}
}
