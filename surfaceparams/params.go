// Package surfaceparams describes a guest-memory region as a 2D pixel
// rectangle and implements the geometry algebra the rasterizer cache uses
// to decide whether two regions can substitute, extend, or copy into one
// another.
package surfaceparams

import (
	"github.com/horizon3ds/rastercache/pixelformat"
	"github.com/horizon3ds/rastercache/region"
)

// Params describes a guest-memory rectangle bound to a pixel format, tiling
// mode, and resolution scale. addr/end/size are in guest physical bytes;
// width/height/stride are in pixels.
type Params struct {
	Addr uint64
	End  uint64
	Size uint64

	Width   uint32
	Height  uint32
	Stride  uint32
	Levels  uint32 // mip count, >= 1
	ResScale uint16 // host upscale factor, 1..N

	IsTiled     bool
	TextureType pixelformat.Kind
	PixelFormat pixelformat.Format
	Type        pixelformat.Type
}

func alignDown(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	return v - v%align
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

// GetFormatBpp returns the guest storage width of the format in bits.
func (p *Params) GetFormatBpp() uint32 { return pixelformat.BitsPerBlock(p.PixelFormat) }

// PixelsInBytes converts a byte count to a pixel count at this format's bpp.
func (p *Params) PixelsInBytes(size uint64) uint64 {
	return size * 8 / uint64(p.GetFormatBpp())
}

// BytesInPixels converts a pixel count to a byte count at this format's bpp.
func (p *Params) BytesInPixels(pixels uint64) uint64 {
	return pixels * uint64(p.GetFormatBpp()) / 8
}

// GetInterval returns the [Addr, End) interval this surface occupies.
func (p *Params) GetInterval() region.Interval {
	return region.Interval{Start: p.Addr, End: p.End}
}

// GetScaledWidth returns Width*ResScale.
func (p *Params) GetScaledWidth() uint32 { return p.Width * uint32(p.ResScale) }

// GetScaledHeight returns Height*ResScale.
func (p *Params) GetScaledHeight() uint32 { return p.Height * uint32(p.ResScale) }

// GetRect returns the unscaled pixel rectangle of the whole surface.
func (p *Params) GetRect() Rect {
	return Rect{Left: 0, Top: p.Height, Right: p.Width, Bottom: 0}
}

// GetScaledRect returns the resolution-scaled pixel rectangle of the whole
// surface.
func (p *Params) GetScaledRect() Rect {
	return Rect{Left: 0, Top: p.GetScaledHeight(), Right: p.GetScaledWidth(), Bottom: 0}
}

// UpdateParams recomputes Size and End from Addr, Width, Height, Stride and
// PixelFormat. A zero Stride is treated as "packed": Stride is set to
// Width.
func (p *Params) UpdateParams() {
	if p.Stride == 0 {
		p.Stride = p.Width
	}
	p.Type = pixelformat.SurfaceType(p.PixelFormat)
	if !p.IsTiled {
		p.Size = p.BytesInPixels(uint64(p.Stride)*uint64(p.Height-1) + uint64(p.Width))
	} else {
		p.Size = p.BytesInPixels(uint64(p.Stride)*8*uint64(p.Height/8-1) + uint64(p.Width)*8)
	}
	p.End = p.Addr + p.Size
}

// ExactMatch reports whether other describes the identical geometric
// region: same address, dimensions, stride, levels, format, and tiling.
// An Invalid format never exact-matches anything, including itself.
func (p *Params) ExactMatch(other *Params) bool {
	if p.PixelFormat == pixelformat.Invalid {
		return false
	}
	return other.Addr == p.Addr && other.Width == p.Width && other.Height == p.Height &&
		other.Stride == p.Stride && other.Levels == p.Levels &&
		other.PixelFormat == p.PixelFormat && other.IsTiled == p.IsTiled
}

// CanSubRect reports whether sub describes a rectangle wholly contained
// within p, in the same format and tiling, starting on a tile boundary
// (an 8x8 tile when tiled, a pixel otherwise).
func (p *Params) CanSubRect(sub *Params) bool {
	if p.PixelFormat == pixelformat.Invalid {
		return false
	}
	if sub.Addr < p.Addr || sub.End > p.End {
		return false
	}
	if sub.PixelFormat != p.PixelFormat || sub.IsTiled != p.IsTiled {
		return false
	}
	tileAlign := uint64(1)
	if p.IsTiled {
		tileAlign = 64
	}
	if (sub.Addr-p.Addr)%p.BytesInPixels(tileAlign) != 0 {
		return false
	}
	rowLimit := uint32(1)
	if p.IsTiled {
		rowLimit = 8
	}
	if sub.Stride != p.Stride && sub.Height > rowLimit {
		return false
	}
	return p.GetSubRect(sub).Right <= p.Stride
}

// CanExpand reports whether p and other share format, stride, and tiling,
// their intervals overlap or abut, and they are separated by a whole
// number of rows — so other can be absorbed into a larger surface that
// also contains p without resampling.
func (p *Params) CanExpand(other *Params) bool {
	if p.PixelFormat == pixelformat.Invalid || other.PixelFormat != p.PixelFormat {
		return false
	}
	if p.Addr > other.End || other.Addr > p.End {
		return false
	}
	if p.IsTiled != other.IsTiled || p.Stride != other.Stride {
		return false
	}
	tiled := uint64(1)
	if p.IsTiled {
		tiled = 8
	}
	hi, lo := other.Addr, p.Addr
	if lo > hi {
		hi, lo = lo, hi
	}
	return (hi-lo)%p.BytesInPixels(uint64(p.Stride)*tiled) == 0
}

// CanTexCopy reports whether texcopy describes a byte range that p can
// serve as a raw texture-copy source for: either a tile-row-aligned
// sub-range when the copy isn't a plain packed rectangle, or an exact
// interval match when it is.
func (p *Params) CanTexCopy(texcopy *Params) bool {
	if p.PixelFormat == pixelformat.Invalid || p.Addr > texcopy.Addr || p.End < texcopy.End {
		return false
	}
	if texcopy.Width != texcopy.Stride {
		tileAlign := uint64(1)
		if p.IsTiled {
			tileAlign = 64
		}
		tiled := uint64(1)
		if p.IsTiled {
			tiled = 8
		}
		tileStride := p.BytesInPixels(uint64(p.Stride) * tiled)
		if (texcopy.Addr-p.Addr)%p.BytesInPixels(tileAlign) != 0 {
			return false
		}
		if uint64(texcopy.Width)%p.BytesInPixels(tileAlign) != 0 {
			return false
		}
		if texcopy.Height != 1 && uint64(texcopy.Stride) != tileStride {
			return false
		}
		return ((texcopy.Addr-p.Addr)%tileStride)+uint64(texcopy.Width) <= tileStride
	}
	from := p.FromInterval(texcopy.GetInterval())
	return from.GetInterval() == texcopy.GetInterval()
}

// GetSubRect returns the unscaled pixel rectangle sub occupies within p.
func (p *Params) GetSubRect(sub *Params) Rect {
	beginPixel := uint32(p.PixelsInBytes(sub.Addr - p.Addr))

	if p.IsTiled {
		x0 := (beginPixel % (p.Stride * 8)) / 8
		y0 := (beginPixel / (p.Stride * 8)) * 8
		return Rect{
			Left:   x0,
			Top:    p.Height - y0,
			Right:  x0 + sub.Width,
			Bottom: p.Height - (y0 + sub.Height),
		}
	}

	x0 := beginPixel % p.Stride
	y0 := beginPixel / p.Stride
	return Rect{Left: x0, Top: y0 + sub.Height, Right: x0 + sub.Width, Bottom: y0}
}

// GetScaledSubRect returns GetSubRect(sub) multiplied by p.ResScale.
func (p *Params) GetScaledSubRect(sub *Params) Rect {
	return p.GetSubRect(sub).Scale(uint32(p.ResScale))
}

// FromInterval returns the smallest tile-row-aligned Params describing the
// rectangle touched by interval, inheriting p's format/stride/tiling. When
// the aligned range spans exactly one row it instead widens to the
// smallest 8x8-tile-aligned slice of that row, matching the source
// implementation's one-row special case.
func (p *Params) FromInterval(interval region.Interval) Params {
	out := *p
	tiledSize := uint64(1)
	if p.IsTiled {
		tiledSize = 8
	}
	strideTiledBytes := p.BytesInPixels(uint64(p.Stride) * tiledSize)

	alignedStart := p.Addr + alignDown(interval.Start-p.Addr, strideTiledBytes)
	alignedEnd := p.Addr + alignUp(interval.End-p.Addr, strideTiledBytes)

	if alignedEnd-alignedStart > strideTiledBytes {
		out.Addr = alignedStart
		out.Height = uint32(alignedEnd-alignedStart) / uint32(p.BytesInPixels(uint64(p.Stride)))
	} else {
		tiledAlignment := uint64(1)
		if p.IsTiled {
			tiledAlignment = 64
		}
		tiledAlignment = p.BytesInPixels(tiledAlignment)
		alignedStart = p.Addr + alignDown(interval.Start-p.Addr, tiledAlignment)
		alignedEnd = p.Addr + alignUp(interval.End-p.Addr, tiledAlignment)

		out.Addr = alignedStart
		out.Width = uint32(p.PixelsInBytes(alignedEnd-alignedStart)) / uint32(tiledSize)
		out.Stride = out.Width
		out.Height = uint32(tiledSize)
	}

	out.UpdateParams()
	return out
}

// GetSubRectInterval returns the address interval occupied by unscaledRect
// within p. It is the inverse of GetSubRect.
func (p *Params) GetSubRectInterval(unscaledRect Rect) region.Interval {
	if unscaledRect.Height() == 0 || unscaledRect.Width() == 0 {
		return region.Interval{}
	}

	r := unscaledRect
	if p.IsTiled {
		r.Left = alignDownU32(r.Left, 8) * 8
		r.Bottom = alignDownU32(r.Bottom, 8) / 8
		r.Right = alignUpU32(r.Right, 8) * 8
		r.Top = alignUpU32(r.Top, 8) / 8
	}

	strideTiled := p.Stride
	if p.IsTiled {
		strideTiled = p.Stride * 8
	}
	pixels := (r.Height()-1)*strideTiled + r.Width()

	var rowBase uint32
	if !p.IsTiled {
		rowBase = strideTiled * r.Bottom
	} else {
		rowBase = strideTiled * ((p.Height / 8) - r.Top)
	}
	pixelOffset := rowBase + r.Left

	return region.Interval{
		Start: p.Addr + p.BytesInPixels(uint64(pixelOffset)),
		End:   p.Addr + p.BytesInPixels(uint64(pixelOffset+pixels)),
	}
}

func alignDownU32(v, align uint32) uint32 {
	if align == 0 {
		return v
	}
	return v - v%align
}

func alignUpU32(v, align uint32) uint32 {
	if align == 0 {
		return v
	}
	if r := v % align; r != 0 {
		return v + (align - r)
	}
	return v
}
