// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rastercache

import (
	"os"

	"github.com/horizon3ds/rastercache/codec"
	"github.com/horizon3ds/rastercache/customtex"
	"github.com/horizon3ds/rastercache/rastercache"
	"github.com/horizon3ds/rastercache/runtime"
)

// Config collects every tunable needed to stand up a System: the host GPU
// backend, the guest memory/page-tracking hooks the rasterizer cache needs,
// and the custom texture pipeline's directory and worker count.
type Config struct {
	// Backend is the host GPU backend surfaces are allocated against. If
	// nil, runtime.Default() is used (falling back to the software
	// backend if no hardware backend registered itself via runtime.Register).
	Backend runtime.Backend

	// Memory is the guest physical memory the cache uploads from and
	// downloads to. Required.
	Memory rastercache.MemoryAccessor

	// Pages receives page-residency transition notifications. May be nil
	// if the caller doesn't need to special-case writes to cached pages.
	Pages rastercache.PageTracker

	// ResolutionScale is the internal render resolution multiplier applied
	// to newly created surfaces. Zero means 1 (native resolution).
	ResolutionScale uint16

	// CustomTexDir, if non-empty, enables the custom texture pipeline
	// rooted at this directory. Leave empty to disable it entirely.
	CustomTexDir string
	// CustomTexCacheCapacity bounds each shard of the in-memory
	// decoded-texture cache. Zero selects a default of 256 entries per
	// shard.
	CustomTexCacheCapacity int
	// CustomTexDecodeWorkers sizes the background PNG decode pool. Zero
	// selects a default of 2 workers.
	CustomTexDecodeWorkers int
}

// System bundles a rasterizer Cache with the optional custom texture
// pipeline wired alongside it, the unit callers construct once per emulated
// GPU instance.
type System struct {
	Cache     *rastercache.Cache
	CustomTex *customtex.Manager
}

// Close releases resources System owns that outlive the cache itself (the
// custom texture decode pool's goroutines).
func (s *System) Close() {
	if s.CustomTex != nil {
		s.CustomTex.Close()
	}
}

// Open validates cfg and constructs a System from it.
func Open(cfg Config) (*System, error) {
	backend := cfg.Backend
	if backend == nil {
		backend = runtime.Default()
	}
	if backend == nil {
		return nil, ErrNoBackend
	}
	if cfg.Memory == nil {
		return nil, ErrNoMemory
	}

	if ls, ok := backend.(loggerSetter); ok {
		ls.SetLogger(Logger())
	}

	reinterpreters := runtime.DefaultReinterpreters(blitReinterpret, blitReinterpret)

	cache := rastercache.New(rastercache.Config{
		Backend:         backend,
		Reinterpreters:  reinterpreters,
		Codec:           codec.PixelCodec{},
		Memory:          cfg.Memory,
		Pages:           cfg.Pages,
		ResolutionScale: cfg.ResolutionScale,
		Logger:          Logger(),
	})

	sys := &System{Cache: cache}

	if cfg.CustomTexDir != "" {
		if info, err := os.Stat(cfg.CustomTexDir); err == nil && !info.IsDir() {
			return nil, &ConfigError{Field: "CustomTexDir", Err: ErrCustomTexDir}
		}
		capacity := cfg.CustomTexCacheCapacity
		if capacity == 0 {
			capacity = 256
		}
		workers := cfg.CustomTexDecodeWorkers
		if workers == 0 {
			workers = 2
		}
		sys.CustomTex = customtex.NewManager(cfg.CustomTexDir, capacity, workers)
		sys.CustomTex.SetLogger(Logger())
	}

	return sys, nil
}

// blitReinterpret is the reinterpretation body for both of
// runtime.DefaultReinterpreters' pairs (D24S8->RGBA8, RGBA4->RGB5A1): each
// is a same-size format change a plain same-rect blit already expresses, so
// neither needs a dedicated shader pass on top of the backend's own Blit.
func blitReinterpret(b runtime.Backend, src, dst runtime.TextureID, rect runtime.Rect) bool {
	return b.Blit(
		runtime.Allocation{ID: src},
		runtime.Allocation{ID: dst},
		runtime.TextureBlit{SrcRect: rect, DstRect: rect},
	)
}
