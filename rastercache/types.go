// Package rastercache ties together pixel formats, region algebra, surface
// geometry, and the host texture runtime into the cache that sits between
// guest physical memory and the host GPU: it decides when a cached host
// texture can serve a request outright, when it must be patched from
// another cached texture or guest memory first, and when guest memory must
// be flushed from a texture that is the most recent writer of a region.
package rastercache

import (
	"github.com/horizon3ds/rastercache/pixelformat"
	"github.com/horizon3ds/rastercache/surface"
	"github.com/horizon3ds/rastercache/surfaceparams"
)

// ScaleMatch controls how GetSurface/GetSurfaceSubRect weigh a candidate
// surface's resolution scale against the requested one.
type ScaleMatch int

const (
	// ScaleExact accepts only a surface scaled identically to the request.
	ScaleExact ScaleMatch = iota
	// ScaleUpscale accepts a surface scaled at least as much as requested.
	ScaleUpscale
	// ScaleIgnore accepts any scale, including lower than requested.
	ScaleIgnore
)

// matchFlags selects which comparisons findMatch runs against each
// candidate surface, and whether an invalid (stale) surface is an
// acceptable match.
type matchFlags uint8

const (
	matchInvalid matchFlags = 1 << iota // stale surfaces are acceptable matches
	matchExact                          // surface geometry == params exactly
	matchSubRect                        // params is wholly contained in surface
	matchCopy                           // surface can validate a region of params
	matchExpand                         // surface can be grown to also cover params
	matchTexCopy                        // surface matches a raw texture-copy request
)

// MemoryAccessor is the guest physical memory the cache uploads from and
// downloads to. Implementations need not be safe for concurrent use; the
// cache serializes all access to a single accessor.
type MemoryAccessor interface {
	// ReadPhysical returns size bytes starting at addr, or nil if the range
	// is unmapped.
	ReadPhysical(addr uint64, size uint32) []byte
	// WritePhysical writes data starting at addr. It is a no-op over an
	// unmapped range.
	WritePhysical(addr uint64, data []byte)
}

// PageTracker is notified when a guest physical page transitions into or
// out of being covered by at least one cached surface, so the emulator can
// redirect writes to that page through the invalidation path instead of
// a plain memory store.
type PageTracker interface {
	MarkRegionCached(addr uint64, size uint32, cached bool)
}

// TextureCodec performs the pure guest-byte <-> host-staging-byte
// conversion for a surface's pixel format: Decode runs before Upload,
// Encode runs after Download.
type TextureCodec interface {
	Decode(params *surfaceparams.Params, start, end uint64, src, dst []byte)
	Encode(params *surfaceparams.Params, start, end uint64, src, dst []byte)
}

// surfaceSet is an unordered collection of surfaces sharing an interval in
// surfaceCache, mirroring the source's std::set<Surface> codomain for its
// interval_map.
type surfaceSet map[*surface.Surface]struct{}

func newSurfaceSet(s *surface.Surface) surfaceSet {
	return surfaceSet{s: struct{}{}}
}

func unionSurfaceSets(a, b surfaceSet) surfaceSet {
	out := make(surfaceSet, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

func cloneSurfaceSet(a surfaceSet) surfaceSet {
	return unionSurfaceSets(a, nil)
}

// allPixelFormats lists every concrete pixel format the cache knows,
// excluding the Invalid sentinel — used by the unimplemented-reinterpreter
// scan, which walks every format sharing the target's bit width.
var allPixelFormats = []pixelformat.Format{
	pixelformat.RGBA8, pixelformat.RGB8, pixelformat.RGB5A1, pixelformat.RGB565,
	pixelformat.RGBA4, pixelformat.IA8, pixelformat.RG8, pixelformat.I8,
	pixelformat.A8, pixelformat.IA4, pixelformat.I4, pixelformat.A4,
	pixelformat.ETC1, pixelformat.ETC1A4, pixelformat.D16, pixelformat.D24,
	pixelformat.D24S8,
}
