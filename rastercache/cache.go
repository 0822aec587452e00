package rastercache

import (
	"log/slog"

	"github.com/horizon3ds/rastercache/pixelformat"
	"github.com/horizon3ds/rastercache/region"
	"github.com/horizon3ds/rastercache/runtime"
	"github.com/horizon3ds/rastercache/surface"
	"github.com/horizon3ds/rastercache/surfaceparams"
)

// Cache is the rasterizer surface cache. It owns every cached host texture
// backing a region of guest physical memory, tracks which of those regions
// are stale, and brokers validation between them, guest memory, and the
// host GPU backend.
//
// A Cache is not safe for concurrent use by multiple goroutines; it
// mirrors the single-threaded access pattern the GPU command stream
// itself requires.
type Cache struct {
	backend         runtime.Backend
	recycler        *runtime.Recycler
	reinterpreters  *runtime.ReinterpreterRegistry
	codec           TextureCodec
	memory          MemoryAccessor
	pages           PageTracker
	resolutionScale uint16
	logger          *slog.Logger

	surfaceCache     *region.Map[surfaceSet]
	dirtyRegions     *region.Map[*surface.Surface]
	cachedPages      *region.PageSet
	removeSurfaces   map[*surface.Surface]struct{}
	textureCubeCache map[surface.CubeConfig]*surface.CachedCube
}

// Config bundles the collaborators a Cache needs at construction.
type Config struct {
	Backend         runtime.Backend
	Recycler        *runtime.Recycler
	Reinterpreters  *runtime.ReinterpreterRegistry
	Codec           TextureCodec
	Memory          MemoryAccessor
	Pages           PageTracker
	ResolutionScale uint16
	// Logger receives this Cache's own diagnostics (surface creation,
	// eviction, accelerated-op fallback). Nil selects a silent default;
	// the root package's Config.Open propagates its own active logger
	// through this field.
	Logger *slog.Logger
}

// New returns an empty Cache wired to cfg's collaborators.
func New(cfg Config) *Cache {
	if cfg.Recycler == nil {
		cfg.Recycler = runtime.NewRecycler()
	}
	if cfg.ResolutionScale == 0 {
		cfg.ResolutionScale = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = newNopLogger()
	}
	return &Cache{
		backend:          cfg.Backend,
		recycler:         cfg.Recycler,
		reinterpreters:   cfg.Reinterpreters,
		codec:            cfg.Codec,
		memory:           cfg.Memory,
		pages:            cfg.Pages,
		resolutionScale:  cfg.ResolutionScale,
		logger:           cfg.Logger,
		surfaceCache:     region.NewMap[surfaceSet](),
		dirtyRegions:     region.NewMap[*surface.Surface](),
		cachedPages:      region.NewPageSet(),
		removeSurfaces:   make(map[*surface.Surface]struct{}),
		textureCubeCache: make(map[surface.CubeConfig]*surface.CachedCube),
	}
}

// SetLogger configures the logger this Cache uses for its own diagnostics.
// Pass nil to restore the silent default.
func (c *Cache) SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	c.logger = l
}

// createSurface allocates a new Surface for params, starting fully
// invalid across its own interval.
func (c *Cache) createSurface(params surfaceparams.Params) *surface.Surface {
	c.logger.Debug("rastercache: creating surface",
		"addr", params.Addr, "width", params.Width, "height", params.Height,
		"format", params.PixelFormat, "resScale", params.ResScale)
	return surface.New(c.backend, params)
}

// registerSurface adds surface to surfaceCache and marks its guest pages
// as cached, unless it is already registered.
func (c *Cache) registerSurface(s *surface.Surface) {
	if s.Registered {
		return
	}
	s.Registered = true
	c.surfaceCache.Add(s.Params.GetInterval(), newSurfaceSet(s), unionSurfaceSets)
	c.updatePagesCachedCount(s.Params.Addr, s.Params.Size, 1)
}

// unregisterSurface removes surface from surfaceCache and unmarks its
// guest pages, unless it is not currently registered.
func (c *Cache) unregisterSurface(s *surface.Surface) {
	if !s.Registered {
		return
	}
	s.Registered = false
	c.updatePagesCachedCount(s.Params.Addr, s.Params.Size, -1)
	c.removeFromSurfaceCache(s, s.Params.GetInterval())
	s.Close(c.recycler)
}

func (c *Cache) removeFromSurfaceCache(s *surface.Surface, iv region.Interval) {
	for _, e := range c.surfaceCache.Overlapping(iv) {
		overlap := e.Interval.Intersect(iv)
		if overlap.Empty() {
			continue
		}
		next := cloneSurfaceSet(e.Value)
		delete(next, s)
		if len(next) == 0 {
			c.surfaceCache.Subtract(overlap)
		} else {
			c.surfaceCache.Set(overlap, next)
		}
	}
}

// updatePagesCachedCount adjusts the reference count of every guest page
// touched by [addr, addr+size) by delta, notifying pages whenever a page's
// count crosses zero in either direction.
func (c *Cache) updatePagesCachedCount(addr, size uint64, delta int32) {
	c.cachedPages.Add(addr, size, delta, func(page uint64, becamePositive bool) {
		if c.pages == nil {
			return
		}
		c.pages.MarkRegionCached(page*region.PageSize, region.PageSize, becamePositive)
	})
}

// findMatch returns the best surface in surfaceCache satisfying any of the
// comparisons selected by flags against params, or nil if none qualify.
// validateInterval overrides params.GetInterval() as the range whose
// validity decides whether a candidate counts as "valid" — required by
// matchCopy callers, which pass the interval being repaired rather than
// the whole destination.
func (c *Cache) findMatch(flags matchFlags, params *surfaceparams.Params, scaleMatch ScaleMatch, validateInterval *region.Interval) *surface.Surface {
	var (
		matchSurface  *surface.Surface
		matchValid    bool
		matchScale    uint16
		matchInterval region.Interval
	)

	checkInterval := params.GetInterval()
	if validateInterval != nil {
		checkInterval = *validateInterval
	}

	for _, e := range c.surfaceCache.Overlapping(params.GetInterval()) {
		for s := range e.Value {
			resScaleMatched := s.Params.ResScale >= params.ResScale
			if scaleMatch == ScaleExact {
				resScaleMatched = s.Params.ResScale == params.ResScale
			}
			isValid := true
			if flags&matchCopy == 0 {
				isValid = s.IsRegionValid(checkInterval)
			}
			if flags&matchInvalid == 0 && !isValid {
				continue
			}

			tryMatch := func(check matchFlags, fn func() (bool, region.Interval)) {
				if flags&check == 0 {
					return
				}
				matched, surfaceInterval := fn()
				if !matched {
					return
				}
				if !resScaleMatched && scaleMatch != ScaleIgnore && s.Params.Type != pixelformat.Fill {
					return
				}
				update := func() {
					matchSurface = s
					matchValid = isValid
					matchScale = s.Params.ResScale
					matchInterval = surfaceInterval
				}
				switch {
				case s.Params.ResScale > matchScale:
					update()
				case s.Params.ResScale < matchScale:
				case isValid && !matchValid:
					update()
				case isValid != matchValid:
				case surfaceInterval.Len() > matchInterval.Len():
					update()
				}
			}

			tryMatch(matchExact, func() (bool, region.Interval) {
				return s.Params.ExactMatch(params), s.Params.GetInterval()
			})
			tryMatch(matchSubRect, func() (bool, region.Interval) {
				return s.Params.CanSubRect(params), s.Params.GetInterval()
			})
			tryMatch(matchCopy, func() (bool, region.Interval) {
				localized := params.FromInterval(*validateInterval)
				copyInterval := s.GetCopyableInterval(&localized)
				matched := copyInterval.Intersect(*validateInterval).Len() != 0 && s.CanCopy(params, copyInterval)
				return matched, copyInterval
			})
			tryMatch(matchExpand, func() (bool, region.Interval) {
				return s.Params.CanExpand(params), s.Params.GetInterval()
			})
			tryMatch(matchTexCopy, func() (bool, region.Interval) {
				return s.Params.CanTexCopy(params), s.Params.GetInterval()
			})
		}
	}
	return matchSurface
}
