package codec

import (
	"testing"

	"github.com/horizon3ds/rastercache/pixelformat"
	"github.com/horizon3ds/rastercache/surfaceparams"
)

func params(format pixelformat.Format, w, h uint32, tiled bool) *surfaceparams.Params {
	p := &surfaceparams.Params{
		Addr: 0x1000, Width: w, Height: h, Levels: 1, ResScale: 1,
		IsTiled: tiled, PixelFormat: format,
	}
	p.UpdateParams()
	return p
}

func TestDecodeRGBA8Passthrough(t *testing.T) {
	p := params(pixelformat.RGBA8, 2, 1, false)
	src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	dst := make([]byte, 8)
	var c PixelCodec
	c.Decode(p, p.Addr, p.End, src, dst)
	if string(dst) != string(src) {
		t.Errorf("RGBA8 decode = %v, want passthrough %v", dst, src)
	}
}

func TestDecodeI8ExpandsToRGBA(t *testing.T) {
	p := params(pixelformat.I8, 2, 1, false)
	src := []byte{10, 200}
	dst := make([]byte, 8)
	var c PixelCodec
	c.Decode(p, p.Addr, p.End, src, dst)
	want := []byte{10, 10, 10, 255, 200, 200, 200, 255}
	if string(dst) != string(want) {
		t.Errorf("I8 decode = %v, want %v", dst, want)
	}
}

func TestDecodeI4PacksTwoPixelsPerByte(t *testing.T) {
	p := params(pixelformat.I4, 2, 1, false)
	src := []byte{0x3A} // low nibble 0xA -> pixel 0, high nibble 0x3 -> pixel 1
	dst := make([]byte, 8)
	var c PixelCodec
	c.Decode(p, p.Addr, p.End, src, dst)
	if dst[0] != 0xA*17 || dst[4] != 0x3*17 {
		t.Errorf("I4 decode = %v, want pixel0=%d pixel1=%d", dst, 0xA*17, 0x3*17)
	}
}

func TestEncodeDecodeRoundTripRGB565(t *testing.T) {
	p := params(pixelformat.RGB565, 2, 1, false)
	original := []byte{0x34, 0x12, 0x78, 0x56}
	staging := make([]byte, 4)
	var c PixelCodec
	c.Decode(p, p.Addr, p.End, original, staging)

	back := make([]byte, 4)
	c.Encode(p, p.Addr, p.End, staging, back)
	if string(back) != string(original) {
		t.Errorf("round trip = %v, want %v", back, original)
	}
}

func TestUntileVisitsEveryPixelOnceFor16x16(t *testing.T) {
	seen := make(map[uint32]bool)
	var linearSeen, tiledSeen []uint32
	untile(16, 16, func(linear, tiled uint32) {
		if seen[tiled] {
			t.Fatalf("tiled index %d visited twice", tiled)
		}
		seen[tiled] = true
		linearSeen = append(linearSeen, linear)
		tiledSeen = append(tiledSeen, tiled)
	})
	if len(seen) != 16*16 {
		t.Errorf("visited %d distinct tiled offsets, want %d", len(seen), 16*16)
	}
}
