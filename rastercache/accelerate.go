package rastercache

import (
	"github.com/horizon3ds/rastercache/pixelformat"
	"github.com/horizon3ds/rastercache/runtime"
	"github.com/horizon3ds/rastercache/surface"
	"github.com/horizon3ds/rastercache/surfaceparams"
)

// FillRequest describes a guest memory-fill operation: a repeating byte
// pattern written across [Addr, Addr+Size).
type FillRequest struct {
	Addr, Size uint64
	Pattern    surface.FillPattern
}

// AccelerateFill services a guest memory fill entirely on the GPU side: it
// registers a Fill surface covering the range instead of letting the CPU
// write the pattern into guest memory immediately. Any surface later read
// from that range is patched from the Fill surface by validateSurface.
// It reports false only for an empty range (Size == 0).
func (c *Cache) AccelerateFill(req FillRequest) bool {
	if req.Size == 0 {
		return false
	}
	c.GetFillSurface(req.Addr, req.Size, req.Pattern)
	return true
}

// TextureCopyRequest describes a raw byte-range copy between two guest
// surfaces of identical size, the GPU equivalent of a guest memcpy between
// framebuffers or texture staging areas.
type TextureCopyRequest struct {
	Src, Dst surfaceparams.Params
}

// AccelerateTextureCopy services a guest-initiated display-controller
// texture copy by locating (or validating) the source range as a cached
// surface and blitting it directly into the destination surface, instead
// of round-tripping the bytes through guest memory. It reports false when
// either side cannot be expressed as a surface, leaving the caller to fall
// back to a CPU copy.
func (c *Cache) AccelerateTextureCopy(req TextureCopyRequest) bool {
	if req.Src.Size != req.Dst.Size || req.Src.Size == 0 {
		return false
	}

	srcResult := c.GetTexCopySurface(req.Src)
	if srcResult.Surface == nil {
		c.logger.Warn("rastercache: accelerated texture copy falling back to CPU, no source surface", "addr", req.Src.Addr)
		return false
	}
	dstResult := c.GetSurfaceSubRect(req.Dst, ScaleIgnore, false)
	if dstResult.Surface == nil {
		c.logger.Warn("rastercache: accelerated texture copy falling back to CPU, no destination surface", "addr", req.Dst.Addr)
		return false
	}

	copyInterval := req.Dst.GetInterval()
	c.CopySurface(srcResult.Surface, dstResult.Surface, copyInterval)
	c.InvalidateRegion(req.Dst.Addr, req.Dst.Size, dstResult.Surface)
	return true
}

// DisplayTransferRequest describes a display-controller transfer from one
// framebuffer-shaped region to another, optionally converting pixel format
// and flipping vertically — the operation the 3DS's LCD output pipeline and
// screen-capture path both use.
type DisplayTransferRequest struct {
	Src, Dst       surfaceparams.Params
	FlipVertically bool
}

// AccelerateDisplayTransfer services a display transfer as a single GPU
// blit between the source and destination surfaces, performing whatever
// format conversion and scaling the backend's Blit implements. It reports
// false (falling back to a CPU path) when the two formats are not
// blittable or either surface could not be resolved.
func (c *Cache) AccelerateDisplayTransfer(req DisplayTransferRequest) bool {
	if !pixelformat.CheckFormatsBlittable(req.Src.PixelFormat, req.Dst.PixelFormat) {
		c.logger.Warn("rastercache: display transfer falling back to CPU, formats not blittable",
			"srcFormat", req.Src.PixelFormat, "dstFormat", req.Dst.PixelFormat)
		return false
	}

	srcResult := c.GetSurfaceSubRect(req.Src, ScaleIgnore, true)
	if srcResult.Surface == nil {
		c.logger.Warn("rastercache: display transfer falling back to CPU, no source surface", "addr", req.Src.Addr)
		return false
	}
	dstResult := c.GetSurfaceSubRect(req.Dst, ScaleIgnore, false)
	if dstResult.Surface == nil {
		c.logger.Warn("rastercache: display transfer falling back to CPU, no destination surface", "addr", req.Dst.Addr)
		return false
	}

	srcRect := srcResult.Rect.Scale(uint32(srcResult.Surface.Params.ResScale))
	dstRect := dstResult.Rect.Scale(uint32(dstResult.Surface.Params.ResScale))
	if req.Src.IsTiled != req.Dst.IsTiled {
		srcRect.Top, srcRect.Bottom = srcRect.Bottom, srcRect.Top
	}
	if req.FlipVertically {
		srcRect.Top, srcRect.Bottom = srcRect.Bottom, srcRect.Top
	}

	blit := runtime.TextureBlit{
		SrcRect:      toRuntimeRect(srcRect),
		DstRect:      toRuntimeRect(dstRect),
		LinearFilter: srcResult.Surface.Params.ResScale != dstResult.Surface.Params.ResScale,
	}
	if !c.backend.Blit(srcResult.Surface.Alloc, dstResult.Surface.Alloc, blit) {
		c.logger.Warn("rastercache: display transfer falling back to CPU, backend blit failed")
		return false
	}

	c.InvalidateRegion(req.Dst.Addr, req.Dst.Size, dstResult.Surface)
	return true
}
