// Package pixelformat describes the fixed set of guest pixel formats the
// rasterizer cache understands and the constant metadata derived from each:
// bit depth, decoded byte width, and coarse surface class.
package pixelformat

import "fmt"

// Format enumerates guest pixel formats in their fixed wire order. The gap
// at index 15 is intentional: depth-format index arithmetic elsewhere in the
// cache derives a compact depth index as int(format)-14, which only works
// if D24 stays at 16 and D24S8 at 17.
type Format uint32

const (
	RGBA8 Format = iota
	RGB8
	RGB5A1
	RGB565
	RGBA4
	IA8
	RG8
	I8
	A8
	IA4
	I4
	A4
	ETC1
	ETC1A4
	D16
	formatGap15
	D24
	D24S8

	// Count is the number of entries in the format table, including the gap.
	Count

	// Invalid marks the absence of a format. It is deliberately outside the
	// table range so that a lookup against it panics rather than aliasing
	// another format.
	Invalid Format = ^Format(0)
)

// Type is the coarse class a Format belongs to, used to decide blittability
// and GPU attachment point (color vs. depth vs. depth-stencil).
type Type uint32

const (
	Color Type = iota
	Texture
	Depth
	DepthStencil
	Fill
	TypeInvalid
)

// Kind distinguishes a 2D texture allocation from a cube map assembled from
// six faces.
type Kind uint32

const (
	Texture2D Kind = iota
	CubeMap
)

type info struct {
	kind          Type
	name          string
	bitsPerBlock  uint32
	bytesPerPixel uint32
}

var table = [Count]info{
	RGBA8:       {Color, "RGBA8", 32, 4},
	RGB8:        {Color, "RGB8", 24, 3},
	RGB5A1:      {Color, "RGB5A1", 16, 2},
	RGB565:      {Color, "RGB565", 16, 2},
	RGBA4:       {Color, "RGBA4", 16, 2},
	IA8:         {Texture, "IA8", 16, 4},
	RG8:         {Texture, "RG8", 16, 4},
	I8:          {Texture, "I8", 8, 4},
	A8:          {Texture, "A8", 8, 4},
	IA4:         {Texture, "IA4", 8, 4},
	I4:          {Texture, "I4", 4, 4},
	A4:          {Texture, "A4", 4, 4},
	ETC1:        {Texture, "ETC1", 4, 4},
	ETC1A4:      {Texture, "ETC1A4", 8, 4},
	D16:         {Depth, "D16", 16, 2},
	formatGap15: {TypeInvalid, "Invalid", 0, 0},
	D24:         {Depth, "D24", 24, 4},
	D24S8:       {DepthStencil, "D24S8", 32, 4},
}

func entry(f Format) info {
	if f >= Count {
		panic(fmt.Sprintf("pixelformat: format index %d out of range", f))
	}
	return table[f]
}

// BitsPerBlock returns the guest storage width of f in bits.
func BitsPerBlock(f Format) uint32 { return entry(f).bitsPerBlock }

// BytesPerPixel returns the canonical decoded host byte width of f.
func BytesPerPixel(f Format) uint32 { return entry(f).bytesPerPixel }

// SurfaceType returns the coarse class of f.
func SurfaceType(f Format) Type { return entry(f).kind }

// Name returns the human-readable name of f, e.g. "RGBA8".
func Name(f Format) string { return entry(f).name }

// CheckFormatsBlittable reports whether a GPU blit between src and dst is
// permitted: Color and Texture freely intermix (textures are always
// converted to RGBA8 on upload), Depth only blits to Depth, and
// DepthStencil only blits to DepthStencil.
func CheckFormatsBlittable(src, dst Format) bool {
	st, dt := SurfaceType(src), SurfaceType(dst)
	if (st == Color || st == Texture) && (dt == Color || dt == Texture) {
		return true
	}
	if st == Depth && dt == Depth {
		return true
	}
	if st == DepthStencil && dt == DepthStencil {
		return true
	}
	return false
}

// DepthIndex returns the compact 0-based index used by reinterpreter and
// depth-specific lookup tables; it is only meaningful for Depth and
// DepthStencil formats (D16, D24, D24S8).
func DepthIndex(f Format) int {
	return int(f) - int(D16)
}
