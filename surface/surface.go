// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package surface

import (
	"github.com/horizon3ds/rastercache/pixelformat"
	"github.com/horizon3ds/rastercache/region"
	"github.com/horizon3ds/rastercache/runtime"
	"github.com/horizon3ds/rastercache/surfaceparams"
)

// MaxLevelWatchers bounds the mip chain a Surface tracks watchers for:
// level 0 plus up to 7 deeper levels, matching the 3DS's maximum texture
// mip depth.
const MaxLevelWatchers = 7

// Surface is a cached host GPU allocation bound to a guest memory region.
// It owns at most one host allocation (Fill surfaces own none); tracks
// which sub-intervals of its region are stale relative to guest memory via
// InvalidRegions; and can be watched by mip/cube collection objects through
// Watcher.
type Surface struct {
	Params surfaceparams.Params
	Alloc  runtime.Allocation
	Fill   *FillPattern

	// Registered reports whether this surface currently appears in the
	// owning Cache's surface_cache table.
	Registered bool

	InvalidRegions *region.Set

	levelWatchers [MaxLevelWatchers]*Watcher
	watchers      []*Watcher

	backend runtime.Backend
}

// New binds params to a freshly allocated host texture through backend. A
// Fill surface (params.Type == pixelformat.Fill) allocates nothing. The
// returned surface starts fully invalid across its interval.
func New(backend runtime.Backend, params surfaceparams.Params) *Surface {
	s := &Surface{
		Params:         params,
		backend:        backend,
		InvalidRegions: region.NewSet(params.GetInterval()),
	}
	if params.Type == pixelformat.Fill {
		return s
	}
	tuple := backend.FormatTuple(params.PixelFormat)
	s.Alloc = backend.Allocate(params.Width, params.Height, params.Levels, params.ResScale, tuple, params.TextureType)
	return s
}

// NewFill returns a virtual Fill surface: no GPU allocation, just a
// repeating byte pattern to clear destinations with. ResScale is normally
// set to a wildcard value so it matches a GetSurface request at any scale.
func NewFill(params surfaceparams.Params, pattern FillPattern) *Surface {
	params.Type = pixelformat.Fill
	return &Surface{
		Params:         params,
		Fill:           &pattern,
		InvalidRegions: region.NewSet(),
	}
}

// Close returns the surface's allocation to recycler for reuse and
// unlinks every watcher. Called by the owning Cache on destruction.
func (s *Surface) Close(recycler *runtime.Recycler) {
	s.UnlinkAllWatchers()
	if s.Fill != nil || s.Alloc.Empty() {
		return
	}
	if recycler != nil {
		recycler.Put(s.Alloc.Tag(s.Params.TextureType), s.Alloc)
	}
	s.Alloc = runtime.Allocation{}
}

// IsRegionValid reports whether iv is untouched by InvalidRegions, i.e.
// every byte in iv reflects current GPU-side truth.
func (s *Surface) IsRegionValid(iv region.Interval) bool {
	return !s.InvalidRegions.Overlaps(iv)
}

// IsSurfaceFullyInvalid reports whether the surface's entire interval is
// marked invalid.
func (s *Surface) IsSurfaceFullyInvalid() bool {
	full := s.Params.GetInterval()
	return s.InvalidRegions.ContainsInterval(full) && s.InvalidRegions.Len() == full.Len()
}

// CanFill reports whether this Fill surface can supply fillInterval of
// dest: the surface must be a Fill surface, valid across the requested
// range, and its byte pattern must repeat cleanly at dest's pixel stride,
// including the 4-bit format nibble-equality special case.
func (s *Surface) CanFill(dest *surfaceparams.Params, fillInterval region.Interval) bool {
	if s.Params.Type != pixelformat.Fill || !s.IsRegionValid(fillInterval) {
		return false
	}
	if fillInterval.Start < s.Params.Addr || fillInterval.End > s.Params.End {
		return false
	}
	destFromInterval := dest.FromInterval(fillInterval)
	if destFromInterval.GetInterval() != fillInterval {
		return false
	}

	fillSize := uint32(s.Fill.Size)
	bpp := dest.GetFormatBpp()
	if fillSize*8 == bpp {
		return true
	}

	destBytesPerPixel := bpp / 8
	if destBytesPerPixel < 1 {
		destBytesPerPixel = 1
	}
	test := make([]byte, fillSize*destBytesPerPixel)
	for i := uint32(0); i < destBytesPerPixel; i++ {
		copy(test[i*fillSize:(i+1)*fillSize], s.Fill.Data[:fillSize])
	}
	for i := uint32(0); i < fillSize; i++ {
		a := test[destBytesPerPixel*i : destBytesPerPixel*i+destBytesPerPixel]
		b := test[0:destBytesPerPixel]
		for k := range a {
			if a[k] != b[k] {
				return false
			}
		}
	}
	if bpp == 4 && (test[0]&0xF) != (test[0]>>4) {
		return false
	}
	return true
}

// CanCopy reports whether this surface can validate copyInterval of dest,
// either as a sub-rect source or as a compatible Fill.
func (s *Surface) CanCopy(dest *surfaceparams.Params, copyInterval region.Interval) bool {
	sub := dest.FromInterval(copyInterval)
	if s.Params.CanSubRect(&sub) {
		return true
	}
	return s.CanFill(dest, copyInterval)
}

// GetCopyableInterval returns the largest tile-row-aligned rectangle of
// params that lies within both this surface's interval and its valid
// (non-invalid) region. It returns the zero Interval if no such rectangle
// exists.
func (s *Surface) GetCopyableInterval(params *surfaceparams.Params) region.Interval {
	tileAlign := uint64(1)
	if params.IsTiled {
		tileAlign = 64
	}
	tileAlignBytes := params.BytesInPixels(tileAlign)

	overlap := params.GetInterval().Intersect(s.Params.GetInterval())
	valid := region.NewSet(overlap)
	for _, iv := range s.InvalidRegions.Intervals() {
		valid.Subtract(iv)
	}

	var result region.Interval
	for _, validInterval := range valid.Intervals() {
		alignedStart := params.Addr + alignUp(validInterval.Start-params.Addr, tileAlignBytes)
		alignedEnd := params.Addr + alignDown(validInterval.End-params.Addr, tileAlignBytes)
		aligned := region.Interval{Start: alignedStart, End: alignedEnd}

		if tileAlignBytes > validInterval.Len() || aligned.Len() == 0 {
			continue
		}

		strideTiled := uint64(1)
		if params.IsTiled {
			strideTiled = 8
		}
		strideBytes := params.BytesInPixels(uint64(params.Stride)) * strideTiled

		rectStart := params.Addr + alignUp(aligned.Start-params.Addr, strideBytes)
		rectEnd := params.Addr + alignDown(aligned.End-params.Addr, strideBytes)
		rect := region.Interval{Start: rectStart, End: rectEnd}

		switch {
		case rect.Start > rect.End:
			// 1 row.
			rect = aligned
		case rect.Len() == 0:
			// 2 rows that don't make a rectangle; keep the larger.
			row1 := region.Interval{Start: aligned.Start, End: rect.Start}
			row2 := region.Interval{Start: rect.Start, End: aligned.End}
			if row1.Len() > row2.Len() {
				rect = row1
			} else {
				rect = row2
			}
		}

		if rect.Len() > result.Len() {
			result = rect
		}
	}
	return result
}

func alignUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	if r := v % align; r != 0 {
		return v + (align - r)
	}
	return v
}

func alignDown(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	return v - v%align
}

// CreateWatcher returns a new Watcher observing this surface and records
// it so InvalidateAllWatchers/UnlinkAllWatchers can reach it later.
func (s *Surface) CreateWatcher() *Watcher {
	w := &Watcher{target: s}
	s.watchers = append(s.watchers, w)
	return w
}

// InvalidateAllWatchers marks every watcher of this surface stale, without
// detaching them — they still resolve to this surface via Get.
func (s *Surface) InvalidateAllWatchers() {
	for _, w := range s.watchers {
		w.invalidate()
	}
}

// UnlinkAllWatchers marks every watcher stale and detaches them from this
// surface. Called when the surface is destroyed.
func (s *Surface) UnlinkAllWatchers() {
	for _, w := range s.watchers {
		w.unlink()
	}
	s.watchers = nil
}

// LevelWatcher returns the watcher tracking mip level (1-indexed into the
// 7 deeper levels the 3DS supports), creating and installing none if
// absent — callers install one explicitly via SetLevelWatcher.
func (s *Surface) LevelWatcher(level int) *Watcher {
	if level < 1 || level > MaxLevelWatchers {
		return nil
	}
	return s.levelWatchers[level-1]
}

// SetLevelWatcher installs the watcher for mip level (1..7).
func (s *Surface) SetLevelWatcher(level int, w *Watcher) {
	if level < 1 || level > MaxLevelWatchers {
		return
	}
	s.levelWatchers[level-1] = w
}

// Upload writes the mapped staging bytes into the rectangle of the
// unscaled host texture, then invalidates every watcher of this surface —
// a write always stales any mip/cube collection observing it. If
// ResScale>1, a plain scale-up blit stands in for a texture-filter shader
// (none is modeled in this implementation).
func (s *Surface) Upload(copy runtime.BufferTextureCopy, staging runtime.StagingData) {
	if s.backend == nil || s.Alloc.Empty() {
		return
	}
	if scale := uint32(s.Alloc.ResScale); scale > 1 {
		r := copy.TextureRect
		tmp := s.backend.Allocate(r.Right-r.Left, r.Top-r.Bottom, 1, 1, s.Alloc.Tuple, pixelformat.Texture2D)
		local := copy
		local.TextureRect = runtime.Rect{Right: r.Right - r.Left, Top: r.Top - r.Bottom}
		s.backend.Upload(tmp, local, staging)
		s.backend.Blit(tmp, s.Alloc, runtime.TextureBlit{
			DstLevel:     copy.TextureLevel,
			SrcRect:      local.TextureRect,
			DstRect:      runtime.Rect{Left: r.Left * scale, Top: r.Top * scale, Right: r.Right * scale, Bottom: r.Bottom * scale},
			LinearFilter: true,
		})
		s.backend.Release(tmp)
	} else {
		s.backend.Upload(s.Alloc, copy, staging)
	}
	s.InvalidateAllWatchers()
}

// Download reads a rectangle of the unscaled host texture into staging.
// Required because the guest-memory encode step always runs on unscaled
// pixels. If ResScale>1, the rectangle is first blitted down from the
// scaled allocation into a temporary unscaled texture.
func (s *Surface) Download(copy runtime.BufferTextureCopy, staging runtime.StagingData) {
	if s.backend == nil || s.Alloc.Empty() {
		return
	}
	if scale := uint32(s.Alloc.ResScale); scale > 1 {
		r := copy.TextureRect
		tmp := s.backend.Allocate(r.Right-r.Left, r.Top-r.Bottom, 1, 1, s.Alloc.Tuple, pixelformat.Texture2D)
		local := copy
		local.TextureRect = runtime.Rect{Right: r.Right - r.Left, Top: r.Top - r.Bottom}
		s.backend.Blit(s.Alloc, tmp, runtime.TextureBlit{
			SrcLevel:     copy.TextureLevel,
			SrcRect:      runtime.Rect{Left: r.Left * scale, Top: r.Top * scale, Right: r.Right * scale, Bottom: r.Bottom * scale},
			DstRect:      local.TextureRect,
			LinearFilter: true,
		})
		s.backend.Download(tmp, local, staging)
		s.backend.Release(tmp)
		return
	}
	s.backend.Download(s.Alloc, copy, staging)
}
