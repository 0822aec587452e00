package surfaceparams

import (
	"testing"

	"github.com/horizon3ds/rastercache/pixelformat"
)

func rgba8(addr uint64, w, h, stride uint32) *Params {
	p := &Params{
		Addr:        addr,
		Width:       w,
		Height:      h,
		Stride:      stride,
		Levels:      1,
		ResScale:    1,
		PixelFormat: pixelformat.RGBA8,
	}
	p.UpdateParams()
	return p
}

func TestUpdateParamsComputesSizeAndEnd(t *testing.T) {
	p := rgba8(0x1000, 64, 64, 64)
	want := uint64(64 * 4 * 64)
	if p.Size != want {
		t.Errorf("Size = %d, want %d", p.Size, want)
	}
	if p.End != p.Addr+p.Size {
		t.Errorf("End = %#x, want %#x", p.End, p.Addr+p.Size)
	}
}

func TestExactMatch(t *testing.T) {
	a := rgba8(0x1000, 32, 32, 32)
	b := rgba8(0x1000, 32, 32, 32)
	if !a.ExactMatch(b) {
		t.Errorf("expected identical params to exact-match")
	}
	c := rgba8(0x1000, 16, 32, 32)
	if a.ExactMatch(c) {
		t.Errorf("did not expect differing width to exact-match")
	}
}

func TestCanSubRect(t *testing.T) {
	parent := rgba8(0x1000, 64, 64, 64)
	sub := rgba8(0x1000+parent.BytesInPixels(64*16), 64, 16, 64)
	if !parent.CanSubRect(sub) {
		t.Errorf("expected aligned interior rect to be a valid sub-rect")
	}
}

func TestCanExpandSameFormatAdjacent(t *testing.T) {
	// S2: A(addr=0x18000000, w=32, h=32, stride=64) vs B(addr=0x18000000, w=64, h=32, stride=64).
	a := rgba8(0x18000000, 32, 32, 64)
	b := rgba8(0x18000000, 64, 32, 64)
	if !a.CanExpand(b) {
		t.Errorf("expected same-origin, same-stride surfaces to be expand-compatible")
	}
}

func TestGetSubRectLinearBottomToTop(t *testing.T) {
	parent := rgba8(0x1000, 64, 64, 64)
	sub := rgba8(parent.Addr+parent.BytesInPixels(64*8), 64, 8, 64)
	r := parent.GetSubRect(sub)
	if r.Bottom != 8 || r.Top != 16 {
		t.Errorf("GetSubRect = %+v, want Bottom=8 Top=16", r)
	}
}

func TestGetScaledSubRectAppliesResScale(t *testing.T) {
	parent := rgba8(0x1000, 64, 64, 64)
	parent.ResScale = 2
	sub := rgba8(parent.Addr, 64, 8, 64)
	r := parent.GetScaledSubRect(sub)
	if r.Right != 128 || r.Top != 16 {
		t.Errorf("GetScaledSubRect = %+v, want scaled by 2", r)
	}
}

func TestFromIntervalAndGetSubRectIntervalRoundTrip(t *testing.T) {
	parent := rgba8(0x1000, 64, 64, 64)
	rect := Rect{Left: 0, Top: 32, Right: 64, Bottom: 16}
	iv := parent.GetSubRectInterval(rect)
	from := parent.FromInterval(iv)
	if from.GetInterval() != iv {
		t.Errorf("FromInterval(GetSubRectInterval(r)).GetInterval() = %+v, want %+v", from.GetInterval(), iv)
	}
}
