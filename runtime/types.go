// Package runtime abstracts the host GPU backend behind the capability set
// the rasterizer cache needs: allocate/recycle host textures by shape,
// clear, copy, blit, generate mipmaps, list format reinterpreters, and
// acquire staging memory. Concrete backends register themselves through
// Register; the cache is generic over Backend so multiple backends can
// share one cache implementation.
package runtime

import (
	"hash/maphash"

	"github.com/horizon3ds/rastercache/pixelformat"
)

// TextureID is an opaque handle to a host texture allocation. Concrete
// backends define what it addresses; the cache never dereferences it.
type TextureID uint64

// FormatTuple is the backend-specific encoding of a pixel format: an
// internal storage format plus the (format, type) pair a transfer call
// needs. Concrete fields are backend-defined; the cache only compares
// tuples for equality when deciding whether a recycled allocation matches.
type FormatTuple struct {
	Internal uint32
	Format   uint32
	Type     uint32
}

// HostTextureTag identifies the exact shape of a host allocation for
// recycling purposes: only allocations whose tag matches exactly are
// reused.
type HostTextureTag struct {
	Tuple    FormatTuple
	Kind     pixelformat.Kind
	Width    uint32
	Height   uint32
	Levels   uint32
	ResScale uint16
}

var hashSeed = maphash.MakeSeed()

// Hash returns a stable 64-bit digest of the tag, useful for backends that
// want their own side-table keyed by shape.
func (t HostTextureTag) Hash() uint64 {
	var h maphash.Hash
	h.SetSeed(hashSeed)
	buf := [...]uint32{
		t.Tuple.Internal, t.Tuple.Format, t.Tuple.Type,
		uint32(t.Kind), t.Width, t.Height, t.Levels, uint32(t.ResScale),
	}
	for _, v := range buf {
		var b [4]byte
		b[0], b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16), byte(v>>24)
		_, _ = h.Write(b[:])
	}
	return h.Sum64()
}

// Allocation is a host texture bound to a shape. The zero Allocation is
// the sentinel "no surface" value C3 returns when the backend could not
// satisfy Allocate.
type Allocation struct {
	ID       TextureID
	Tuple    FormatTuple
	Width    uint32
	Height   uint32
	Levels   uint32
	ResScale uint16
}

// Empty reports whether this is the sentinel failed-allocation value.
func (a Allocation) Empty() bool { return a.ID == 0 }

// Matches reports whether a was allocated with exactly this shape.
func (a Allocation) Matches(width, height, levels uint32, resScale uint16, tuple FormatTuple) bool {
	return a.Width == width && a.Height == height && a.Levels == levels &&
		a.ResScale == resScale && a.Tuple == tuple
}

// Tag returns the HostTextureTag describing a's shape, for recycling.
func (a Allocation) Tag(kind pixelformat.Kind) HostTextureTag {
	return HostTextureTag{
		Tuple: a.Tuple, Kind: kind, Width: a.Width, Height: a.Height,
		Levels: a.Levels, ResScale: a.ResScale,
	}
}

// StagingData is a mapped byte range the caller writes into (upload) or
// reads from (download) before/after a transfer call.
type StagingData struct {
	Size         uint32
	Mapped       []byte
	BufferOffset uint64
}

// Rect mirrors surfaceparams.Rect without importing it, to keep this
// package import-light for backend implementers; the cache converts
// between the two at its boundary.
type Rect struct {
	Left, Top, Right, Bottom uint32
}

// TextureClear describes a clear-to-value request.
type TextureClear struct {
	TextureRect Rect
	Level       uint32
	Value       [4]uint8
	ClearDepth  float32
	HasDepth    bool
}

// TextureCopy describes an exact pixel copy between two allocations.
type TextureCopy struct {
	SrcLevel, DstLevel uint32
	SrcLayer, DstLayer uint32
	SrcRect, DstRect   Rect
}

// TextureBlit describes a filtered, possibly stretched copy.
type TextureBlit struct {
	SrcLevel, DstLevel uint32
	SrcRect, DstRect   Rect
	LinearFilter       bool
}

// BufferTextureCopy describes a staging-buffer<->texture transfer.
type BufferTextureCopy struct {
	BufferOffset uint32
	BufferSize   uint32
	TextureRect  Rect
	TextureLevel uint32
}

// Reinterpreter is a registered shader that reads a texture in From's
// format and writes it in To's format with bit-preserving semantics.
type Reinterpreter struct {
	From, To pixelformat.Format
	Apply    func(backend Backend, src, dst TextureID, rect Rect) bool
}
