package rastercache

import (
	"github.com/horizon3ds/rastercache/pixelformat"
	"github.com/horizon3ds/rastercache/region"
	"github.com/horizon3ds/rastercache/runtime"
	"github.com/horizon3ds/rastercache/surface"
	"github.com/horizon3ds/rastercache/surfaceparams"
)

// CopySurface copies copyInterval of dst from src, either as a GPU blit
// (src is a normal surface) or a GPU clear (src is a Fill surface). The
// caller must already know the copy is legal (src.CanCopy(&dst.Params,
// copyInterval)) — no checks run here.
func (c *Cache) CopySurface(src, dst *surface.Surface, copyInterval region.Interval) {
	subrect := dst.Params.FromInterval(copyInterval)

	if src.Params.Type == pixelformat.Fill {
		fillOffset := (copyInterval.Start - src.Params.Addr) % uint64(src.Fill.Size)
		var buf [4]byte
		pos := fillOffset
		for i := range buf {
			buf[i] = src.Fill.ByteAt(pos)
			pos++
		}
		clear := makeClearValue(dst.Params.Type, buf)
		clear.TextureRect = toRuntimeRect(dst.Params.GetScaledSubRect(&subrect))
		c.backend.Clear(dst.Alloc, clear)
		return
	}

	blit := runtime.TextureBlit{
		SrcRect: toRuntimeRect(src.Params.GetScaledSubRect(&subrect)),
		DstRect: toRuntimeRect(dst.Params.GetScaledSubRect(&subrect)),
	}
	c.backend.Blit(src.Alloc, dst.Alloc, blit)
}

func makeClearValue(t pixelformat.Type, raw [4]byte) runtime.TextureClear {
	clear := runtime.TextureClear{Value: raw}
	switch t {
	case pixelformat.Depth:
		clear.HasDepth = true
		clear.ClearDepth = float32(uint32(raw[0])|uint32(raw[1])<<8|uint32(raw[2])<<16) / float32(1<<24-1)
	case pixelformat.DepthStencil:
		clear.HasDepth = true
		clear.ClearDepth = float32(uint32(raw[1])|uint32(raw[2])<<8|uint32(raw[3])<<16) / float32(1<<24-1)
	}
	return clear
}

// duplicateSurface copies all of src into dest (which must fully contain
// src's interval), then transfers src's validity and dirty-region
// ownership onto dest so dest can stand in for src from now on.
func (c *Cache) duplicateSurface(src, dest *surface.Surface) {
	srcRect := src.Params.GetScaledRect()
	dstRect := dest.Params.GetScaledSubRect(&src.Params)
	_ = srcRect

	copyOp := runtime.TextureCopy{
		SrcRect: toRuntimeRect(srcRect),
		DstRect: toRuntimeRect(dstRect),
	}
	c.backend.Copy(src.Alloc, dest.Alloc, copyOp)

	dest.InvalidRegions.Subtract(src.Params.GetInterval())
	for _, iv := range src.InvalidRegions.Intervals() {
		dest.InvalidRegions.Add(iv)
	}

	srcInterval := src.Params.GetInterval()
	var owned []region.Interval
	for _, e := range c.dirtyRegions.Overlapping(srcInterval) {
		if e.Value == src {
			owned = append(owned, e.Interval.Intersect(srcInterval))
		}
	}
	for _, iv := range owned {
		c.dirtyRegions.Set(iv, dest)
	}
}

// validateSurface patches every invalid sub-interval of [addr, addr+size)
// on surface, either by copying from another cached surface, by
// reinterpreting a differently-formatted cached surface, or as a last
// resort by uploading from guest memory.
func (c *Cache) validateSurface(s *surface.Surface, addr, size uint64) {
	if size == 0 {
		return
	}
	validateInterval := region.Interval{Start: addr, End: addr + size}

	if s.Params.Type == pixelformat.Fill {
		return
	}

	validateRegions := region.NewSet()
	for _, iv := range s.InvalidRegions.Intervals() {
		if ov := iv.Intersect(validateInterval); !ov.Empty() {
			validateRegions.Add(ov)
		}
	}

	for {
		intervals := validateRegions.Intervals()
		if len(intervals) == 0 {
			break
		}
		interval := intervals[0].Intersect(validateInterval)
		params := s.Params.FromInterval(interval)

		if copySurface := c.findMatch(matchCopy, &params, ScaleIgnore, &interval); copySurface != nil {
			copyInterval := copySurface.GetCopyableInterval(&params)
			c.CopySurface(copySurface, s, copyInterval)
			s.InvalidRegions.Subtract(copyInterval)
			validateRegions.Subtract(copyInterval)
			continue
		}

		if c.validateByReinterpretation(s, &params, interval) {
			s.InvalidRegions.Subtract(interval)
			validateRegions.Subtract(interval)
			continue
		}

		if c.noUnimplementedReinterpretations(s, &params, interval) && !c.intervalHasInvalidPixelFormat(&params, interval) {
			if len(c.dirtyRegions.Overlapping(interval)) > 0 {
				validateRegions.Subtract(interval)
				continue
			}
		}

		c.FlushRegion(params.Addr, params.Size, nil)
		c.uploadSurface(s, interval)
		full := params.GetInterval()
		s.InvalidRegions.Subtract(full)
		validateRegions.Subtract(full)
	}
}

func (c *Cache) uploadSurface(s *surface.Surface, interval region.Interval) {
	loadInfo := s.Params.FromInterval(interval)
	size := loadInfo.Width * loadInfo.Height * pixelformat.BytesPerPixel(s.Params.PixelFormat)
	staging := c.backend.FindStaging(size, true)

	src := c.memory.ReadPhysical(loadInfo.Addr, uint32(loadInfo.End-loadInfo.Addr))
	if src == nil {
		return
	}
	c.codec.Decode(&loadInfo, loadInfo.Addr, loadInfo.End, src, staging.Mapped)

	upload := runtime.BufferTextureCopy{
		BufferOffset: 0,
		BufferSize:   staging.Size,
		TextureRect:  toRuntimeRect(s.Params.GetSubRect(&loadInfo)),
		TextureLevel: 0,
	}
	s.Upload(upload, staging)
}

func (c *Cache) downloadSurface(s *surface.Surface, interval region.Interval) {
	flushInfo := s.Params.FromInterval(interval)
	size := flushInfo.Width * flushInfo.Height * pixelformat.BytesPerPixel(s.Params.PixelFormat)
	staging := c.backend.FindStaging(size, false)

	download := runtime.BufferTextureCopy{
		BufferOffset: 0,
		BufferSize:   staging.Size,
		TextureRect:  toRuntimeRect(s.Params.GetSubRect(&flushInfo)),
		TextureLevel: 0,
	}
	s.Download(download, staging)

	dst := c.memory.ReadPhysical(interval.Start, uint32(interval.Len()))
	if dst == nil {
		dst = make([]byte, interval.Len())
	}
	c.codec.Encode(&flushInfo, interval.Start, interval.End, staging.Mapped, dst)
	c.memory.WritePhysical(interval.Start, dst)
}

func (c *Cache) downloadFillSurface(s *surface.Surface, interval region.Interval) {
	size := interval.Len()
	startOffset := interval.Start - s.Params.Addr
	fillSize := uint64(s.Fill.Size)
	coarseStart := startOffset - startOffset%fillSize
	backupBytes := startOffset % fillSize

	dst := c.memory.ReadPhysical(s.Params.Addr+coarseStart, uint32(size+backupBytes))
	if dst == nil {
		return
	}
	var backup [4]byte
	if backupBytes > 0 {
		copy(backup[:backupBytes], dst[:backupBytes])
	}
	for offset := uint64(0); offset < uint64(len(dst)); offset += fillSize {
		n := fillSize
		if remaining := uint64(len(dst)) - offset; remaining < n {
			n = remaining
		}
		for i := uint64(0); i < n; i++ {
			dst[offset+i] = s.Fill.ByteAt(i)
		}
	}
	if backupBytes > 0 {
		copy(dst[:backupBytes], backup[:backupBytes])
	}
	c.memory.WritePhysical(s.Params.Addr+coarseStart, dst)
}

func (c *Cache) noUnimplementedReinterpretations(s *surface.Surface, params *surfaceparams.Params, interval region.Interval) bool {
	implemented := true
	for _, format := range allPixelFormats {
		if pixelformat.BitsPerBlock(format) != s.Params.GetFormatBpp() {
			continue
		}
		params.PixelFormat = format
		if c.findMatch(matchCopy, params, ScaleIgnore, &interval) != nil {
			implemented = false
		}
	}
	return implemented
}

func (c *Cache) intervalHasInvalidPixelFormat(params *surfaceparams.Params, interval region.Interval) bool {
	params.PixelFormat = pixelformat.Invalid
	for _, e := range c.surfaceCache.Overlapping(interval) {
		for candidate := range e.Value {
			if candidate.Params.PixelFormat == pixelformat.Invalid {
				return true
			}
		}
	}
	return false
}

func (c *Cache) validateByReinterpretation(s *surface.Surface, params *surfaceparams.Params, interval region.Interval) bool {
	if c.reinterpreters == nil {
		return false
	}
	for _, re := range c.reinterpreters.ReinterpretersFor(s.Params.PixelFormat) {
		params.PixelFormat = re.From
		reinterpretSurface := c.findMatch(matchCopy, params, ScaleIgnore, &interval)
		if reinterpretSurface == nil {
			continue
		}
		reinterpretInterval := reinterpretSurface.GetCopyableInterval(params)
		reinterpretParams := s.Params.FromInterval(reinterpretInterval)
		srcRect := reinterpretSurface.Params.GetScaledSubRect(&reinterpretParams)
		dstRect := s.Params.GetScaledSubRect(&reinterpretParams)
		re.Apply(c.backend, reinterpretSurface.Alloc.ID, s.Alloc.ID, toRuntimeRect(dstRect))
		_ = srcRect
		return true
	}
	return false
}

// FlushRegion writes every dirty surface's data in [addr, addr+size) back
// to guest memory. If flushSurface is non-nil, only that surface's dirty
// regions are flushed.
func (c *Cache) FlushRegion(addr, size uint64, flushSurface *surface.Surface) {
	if size == 0 {
		return
	}
	flushInterval := region.Interval{Start: addr, End: addr + size}
	flushed := region.NewSet()

	for _, e := range c.dirtyRegions.Overlapping(flushInterval) {
		interval := e.Interval
		if size > 8 {
			interval = interval.Intersect(flushInterval)
		}
		owner := e.Value
		if flushSurface != nil && owner != flushSurface {
			continue
		}
		if owner.Params.Type == pixelformat.Fill {
			c.downloadFillSurface(owner, interval)
		} else {
			c.downloadSurface(owner, interval)
		}
		flushed.Add(interval)
	}

	for _, iv := range flushed.Intervals() {
		c.dirtyRegions.Subtract(iv)
	}
}

// FlushAll flushes every dirty region tracked by the cache.
func (c *Cache) FlushAll() {
	c.FlushRegion(0, 0xFFFFFFFF, nil)
}

// InvalidateRegion marks [addr, addr+size) as stale in every surface
// overlapping it except regionOwner, which becomes the region's new
// dirty-region owner (or, if regionOwner is nil, the region is simply
// dropped from dirtyRegions — a CPU write with no cache surface backing
// it).
func (c *Cache) InvalidateRegion(addr, size uint64, regionOwner *surface.Surface) {
	if size == 0 {
		return
	}
	invalidInterval := region.Interval{Start: addr, End: addr + size}

	if regionOwner != nil {
		regionOwner.InvalidRegions.Subtract(invalidInterval)
	}

	for _, e := range c.surfaceCache.Overlapping(invalidInterval) {
		for cached := range e.Value {
			if cached == regionOwner {
				continue
			}
			if regionOwner == nil && size <= 8 {
				c.FlushRegion(cached.Params.Addr, cached.Params.Size, cached)
				c.removeSurfaces[cached] = struct{}{}
				continue
			}
			interval := cached.Params.GetInterval().Intersect(invalidInterval)
			cached.InvalidRegions.Add(interval)
			cached.InvalidateAllWatchers()
			if cached.IsSurfaceFullyInvalid() {
				c.removeSurfaces[cached] = struct{}{}
			}
		}
	}

	if regionOwner != nil {
		c.dirtyRegions.Set(invalidInterval, regionOwner)
	} else {
		c.dirtyRegions.Subtract(invalidInterval)
	}

	for toRemove := range c.removeSurfaces {
		if toRemove == regionOwner {
			expanded := c.findMatch(matchSubRect|matchInvalid, &regionOwner.Params, ScaleIgnore, nil)
			if expanded == nil {
				continue
			}
			if regionOwnerSalvageable(regionOwner, expanded) {
				c.duplicateSurface(regionOwner, expanded)
			} else {
				continue
			}
		}
		c.unregisterSurface(toRemove)
	}
	c.removeSurfaces = make(map[*surface.Surface]struct{})
}

// regionOwnerSalvageable reports whether every address owner considers
// invalid is also invalid (or out of range) in expanded — i.e. expanded
// has no less data than owner, so owner can safely be replaced by it.
func regionOwnerSalvageable(owner, expanded *surface.Surface) bool {
	for _, iv := range owner.InvalidRegions.Intervals() {
		if expanded.IsRegionValid(iv) {
			return false
		}
	}
	return true
}

// ClearAll drops every surface from the cache without validating or
// flushing it (unless flush is set), and resets all page-residency
// tracking to uncached.
func (c *Cache) ClearAll(flush bool) {
	if flush {
		c.FlushRegion(0, 0xFFFFFFFF, nil)
	}
	for page, count := range c.cachedPages.Snapshot() {
		if count > 0 && c.pages != nil {
			c.pages.MarkRegionCached(page*region.PageSize, region.PageSize, false)
		}
	}
	c.cachedPages = region.NewPageSet()
	c.dirtyRegions = region.NewMap[*surface.Surface]()
	for _, e := range c.surfaceCache.Entries() {
		for s := range e.Value {
			s.Close(c.recycler)
		}
	}
	c.surfaceCache = region.NewMap[surfaceSet]()
	c.removeSurfaces = make(map[*surface.Surface]struct{})
}
