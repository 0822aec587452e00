package rastercache

import (
	"github.com/horizon3ds/rastercache/pixelformat"
	"github.com/horizon3ds/rastercache/region"
	"github.com/horizon3ds/rastercache/runtime"
	"github.com/horizon3ds/rastercache/surface"
	"github.com/horizon3ds/rastercache/surfaceparams"
)

// GetSurface returns the cached surface for params, creating one if no
// exact match exists. When loadIfCreate is set the surface is validated
// (patched from guest memory or another cached surface) across
// params' interval before returning.
//
// params.Width must equal params.Stride — callers needing a sub-rectangle
// of a larger surface should use GetSurfaceSubRect instead.
func (c *Cache) GetSurface(params surfaceparams.Params, matchScale ScaleMatch, loadIfCreate bool) *surface.Surface {
	if params.Addr == 0 || params.Width == 0 || params.Height == 0 {
		return nil
	}

	s := c.findMatch(matchExact|matchInvalid, &params, matchScale, nil)
	if s == nil {
		targetScale := params.ResScale
		if matchScale != ScaleExact {
			findParams := params
			if expandable := c.findMatch(matchExpand|matchInvalid, &findParams, matchScale, nil); expandable != nil && expandable.Params.ResScale > targetScale {
				targetScale = expandable.Params.ResScale
			}
			if params.PixelFormat == pixelformat.RGBA8 {
				findParams.PixelFormat = pixelformat.D24S8
				if expandable := c.findMatch(matchExpand|matchInvalid, &findParams, matchScale, nil); expandable != nil && expandable.Params.ResScale > targetScale {
					targetScale = expandable.Params.ResScale
				}
			}
		}
		newParams := params
		newParams.ResScale = targetScale
		s = c.createSurface(newParams)
		c.registerSurface(s)
	}

	if loadIfCreate {
		c.validateSurface(s, params.Addr, params.Size)
	}
	return s
}

// GetSurfaceSubRect finds or creates a surface encompassing params and
// returns it along with the sub-rectangle params occupies within it.
func (c *Cache) GetSurfaceSubRect(params surfaceparams.Params, matchScale ScaleMatch, loadIfCreate bool) surface.SubRectResult {
	if params.Addr == 0 || params.Width == 0 || params.Height == 0 {
		return surface.SubRectResult{}
	}

	s := c.findMatch(matchSubRect|matchInvalid, &params, matchScale, nil)

	if s == nil && matchScale != ScaleIgnore {
		if s = c.findMatch(matchSubRect|matchInvalid, &params, ScaleIgnore, nil); s != nil {
			newParams := s.Params
			newParams.ResScale = params.ResScale
			s = c.createSurface(newParams)
			c.registerSurface(s)
		}
	}

	aligned := params
	if params.IsTiled {
		aligned.Height = alignUp32(params.Height, 8)
		aligned.Width = alignUp32(params.Width, 8)
		aligned.Stride = alignUp32(params.Stride, 8)
		aligned.UpdateParams()
	}

	if s == nil {
		if expandable := c.findMatch(matchExpand|matchInvalid, &aligned, matchScale, nil); expandable != nil {
			aligned.Width = aligned.Stride
			aligned.UpdateParams()

			newParams := expandable.Params
			if aligned.Addr < newParams.Addr {
				newParams.Addr = aligned.Addr
			}
			if aligned.End > newParams.End {
				newParams.End = aligned.End
			}
			newParams.Size = newParams.End - newParams.Addr
			newParams.Height = uint32(newParams.Size / aligned.BytesInPixels(uint64(aligned.Stride)))

			newSurface := c.createSurface(newParams)
			c.duplicateSurface(expandable, newSurface)

			expandable.UnlinkAllWatchers()
			c.removeSurfaces[expandable] = struct{}{}

			s = newSurface
			c.registerSurface(newSurface)
		}
	}

	if s == nil {
		newParams := aligned
		newParams.Width = aligned.Stride
		newParams.UpdateParams()
		s = c.GetSurface(newParams, matchScale, loadIfCreate)
	} else if loadIfCreate {
		c.validateSurface(s, aligned.Addr, aligned.Size)
	}

	if s == nil {
		return surface.SubRectResult{}
	}
	return surface.SubRectResult{Surface: s, Rect: s.Params.GetScaledSubRect(&params)}
}

// GetFillSurface returns a virtual surface standing in for a GPU memory
// fill of [addr, addr+size) with the given byte pattern, registered but
// never validated against anything else — it is always already valid.
func (c *Cache) GetFillSurface(addr, size uint64, pattern surface.FillPattern) *surface.Surface {
	params := surfaceparams.Params{Addr: addr, End: addr + size, Size: size, ResScale: 0xFFFF}
	s := surface.NewFill(params, pattern)
	c.registerSurface(s)
	c.InvalidateRegion(s.Params.Addr, s.Params.Size, s)
	return s
}

// GetTexCopySurface finds a surface matching a raw texture-copy display
// transfer request described by params, validating and returning the
// scaled sub-rectangle it occupies.
func (c *Cache) GetTexCopySurface(params surfaceparams.Params) surface.SubRectResult {
	s := c.findMatch(matchTexCopy|matchInvalid, &params, ScaleIgnore, nil)
	if s == nil {
		return surface.SubRectResult{}
	}
	c.validateSurface(s, params.Addr, params.Size)

	var sub surfaceparams.Params
	if params.Width != params.Stride {
		tiled := uint64(1)
		if s.Params.IsTiled {
			tiled = 8
		}
		sub = params
		sub.Width = uint32(s.Params.PixelsInBytes(uint64(params.Width)) / tiled)
		sub.Stride = uint32(s.Params.PixelsInBytes(uint64(params.Stride)) / tiled)
		sub.Height *= uint32(tiled)
	} else {
		sub = s.Params.FromInterval(params.GetInterval())
	}

	return surface.SubRectResult{Surface: s, Rect: s.Params.GetScaledSubRect(&sub)}
}

// GetTextureSurface returns the cached surface for a guest texture
// described by params at the given max mip level, generating/blitting
// mipmaps 1..maxLevel as needed.
func (c *Cache) GetTextureSurface(params surfaceparams.Params, maxLevel uint32) *surface.Surface {
	if params.Addr == 0 {
		return nil
	}
	params.IsTiled = true
	params.Levels = maxLevel + 1
	params.UpdateParams()

	s := c.GetSurface(params, ScaleIgnore, true)
	if s == nil || maxLevel == 0 {
		return s
	}

	levelParams := s.Params
	for level := uint32(1); level <= maxLevel; level++ {
		levelParams.Addr += uint64(levelParams.Width) * uint64(levelParams.Height) * uint64(levelParams.GetFormatBpp()) / 8
		levelParams.Width /= 2
		levelParams.Height /= 2
		levelParams.Stride = 0
		levelParams.Levels = 1
		levelParams.UpdateParams()

		w := s.LevelWatcher(int(level))
		if w == nil || w.Get() == nil {
			if levelSurface := c.GetSurface(levelParams, ScaleIgnore, true); levelSurface != nil {
				w = levelSurface.CreateWatcher()
				s.SetLevelWatcher(int(level), w)
			} else {
				s.SetLevelWatcher(int(level), nil)
				continue
			}
		}

		if w != nil && !w.IsValid() {
			levelSurface := w.Get()
			if !levelSurface.IsRegionValid(levelSurface.Params.GetInterval()) {
				c.validateSurface(levelSurface, levelSurface.Params.Addr, levelSurface.Params.Size)
			}
			c.backend.Blit(levelSurface.Alloc, s.Alloc, runtime.TextureBlit{
				SrcLevel: 0,
				DstLevel: level,
				SrcRect:  toRuntimeRect(levelSurface.Params.GetScaledRect()),
				DstRect:  toRuntimeRect(levelParams.GetScaledRect()),
			})
			w.Validate()
		}
	}
	return s
}

// GetFramebufferSurfaces resolves the color and depth surfaces for a
// render pass covering viewport within the full color/depth buffers
// described by colorParams/depthParams, validating only the viewport's
// sub-region of each.
func (c *Cache) GetFramebufferSurfaces(colorParams, depthParams *surfaceparams.Params, useColor, useDepth bool, viewport surfaceparams.Rect) (color, depth *surface.Surface) {
	var colorInterval, depthInterval region.Interval
	if useColor {
		colorInterval = colorParams.GetSubRectInterval(viewport)
	}
	if useDepth {
		depthInterval = depthParams.GetSubRectInterval(viewport)
	}
	if useColor && useDepth && colorInterval.Intersect(depthInterval).Len() != 0 {
		useDepth = false
	}

	var colorResult, depthResult surface.SubRectResult
	if useColor {
		colorResult = c.GetSurfaceSubRect(*colorParams, ScaleExact, false)
		color = colorResult.Surface
	}
	if useDepth {
		depthResult = c.GetSurfaceSubRect(*depthParams, ScaleExact, false)
		depth = depthResult.Surface
	}

	if color != nil && depth != nil && colorResult.Rect != depthResult.Rect {
		color = c.GetSurface(*colorParams, ScaleExact, false)
		depth = c.GetSurface(*depthParams, ScaleExact, false)
	}

	if color != nil {
		c.validateSurface(color, colorInterval.Start, colorInterval.Len())
		color.InvalidateAllWatchers()
	}
	if depth != nil {
		c.validateSurface(depth, depthInterval.Start, depthInterval.Len())
		depth.InvalidateAllWatchers()
	}
	return color, depth
}

// InvalidateFramebuffer marks color and/or depth as invalidated by
// themselves, used after a render pass that wrote them entirely on the
// GPU rather than through the cache's normal copy/upload paths.
func (c *Cache) InvalidateFramebuffer(color, depth *surface.Surface) {
	if color != nil {
		c.InvalidateRegion(color.Params.Addr, color.Params.Size, color)
	}
	if depth != nil {
		c.InvalidateRegion(depth.Params.Addr, depth.Params.Size, depth)
	}
}

// GetTextureCube returns the cached cube texture for config, (re)copying
// any face whose source surface has revalidated since the last use.
func (c *Cache) GetTextureCube(config surface.CubeConfig) *surface.CachedCube {
	cube, ok := c.textureCubeCache[config]
	if !ok {
		cube = &surface.CachedCube{Config: config}
		c.textureCubeCache[config] = cube
	}

	for face := surface.CubeFace(0); face < surface.FaceCount; face++ {
		w := cube.Watchers[face]
		if w != nil && w.Get() != nil {
			continue
		}
		params := surfaceparams.Params{
			Addr:        config.Face[face],
			Width:       config.Width,
			Height:      config.Width,
			PixelFormat: config.Format,
		}
		params.UpdateParams()
		if s := c.GetTextureSurface(params, 0); s != nil {
			cube.Watchers[face] = s.CreateWatcher()
		} else {
			cube.Watchers[face] = nil
		}
	}

	if !cube.Allocated {
		for _, w := range cube.Watchers {
			if w != nil {
				if s := w.Get(); s != nil && s.Params.ResScale > cube.ResScale {
					cube.ResScale = s.Params.ResScale
				}
			}
		}
		if cube.ResScale == 0 {
			cube.ResScale = 1
		}
		tuple := c.backend.FormatTuple(config.Format)
		cube.Alloc = c.backend.Allocate(config.Width, config.Width, 1, cube.ResScale, tuple, pixelformat.CubeMap)
		cube.Allocated = true
	}

	faceRect := runtime.Rect{
		Left: 0, Top: 0,
		Right:  config.Width * uint32(cube.ResScale),
		Bottom: config.Width * uint32(cube.ResScale),
	}
	for face := surface.CubeFace(0); face < surface.FaceCount; face++ {
		w := cube.Watchers[face]
		if w == nil || w.IsValid() {
			continue
		}
		s := w.Get()
		if !s.IsRegionValid(s.Params.GetInterval()) {
			c.validateSurface(s, s.Params.Addr, s.Params.Size)
		}
		if !cube.Alloc.Empty() {
			c.backend.Copy(s.Alloc, cube.Alloc, runtime.TextureCopy{
				SrcRect:  faceRect,
				DstRect:  faceRect,
				DstLayer: uint32(face),
			})
		}
		w.Validate()
	}
	return cube
}

func toRuntimeRect(r surfaceparams.Rect) runtime.Rect {
	return runtime.Rect{Left: r.Left, Top: r.Top, Right: r.Right, Bottom: r.Bottom}
}

func alignUp32(v, align uint32) uint32 {
	if align == 0 {
		return v
	}
	if r := v % align; r != 0 {
		return v + (align - r)
	}
	return v
}
