// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package surface models the cached unit of the rasterizer cache: a host
// GPU texture bound to a guest memory interval, tracked for staleness
// against guest writes, and observed by weak Watcher references so mip
// chains and texture cubes can detect revalidation without holding the
// surface alive.
//
// # Surface
//
// A Surface pairs a surfaceparams.Params description of a guest memory
// region with a runtime.Allocation on a host backend. Its InvalidRegions
// set records which sub-intervals no longer reflect current GPU content;
// guest writes grow it, successful validation against another surface
// shrinks it.
//
// A Surface with Params.Type == pixelformat.Fill carries no allocation at
// all — it represents a small repeating byte pattern (see FillPattern)
// that can satisfy a copy request without ever touching the GPU.
//
// # Watcher
//
// Watcher is a weak reference: CreateWatcher hands out a Watcher pointing
// at the issuing Surface, which the Surface invalidates whenever it is
// written and unlinks when it is destroyed. Collection objects such as
// CachedCube hold Watchers rather than *Surface so they never keep a
// surface alive past its natural cache lifetime, and can cheaply check
// IsValid before trusting cached content copied from the watched surface.
package surface
