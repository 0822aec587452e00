// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"github.com/horizon3ds/rastercache/pixelformat"
	"github.com/horizon3ds/rastercache/runtime"
	"github.com/horizon3ds/rastercache/surfaceparams"
)

// CubeFace indexes the six faces of a texture cube in the fixed order the
// 3DS GPU submits them: positive X, negative X, positive Y, negative Y,
// positive Z, negative Z.
type CubeFace int

const (
	FacePX CubeFace = iota
	FaceNX
	FacePY
	FaceNY
	FacePZ
	FaceNZ
	FaceCount
)

// CubeConfig identifies a texture cube by the six guest addresses backing
// its faces plus the shared width and format. It is the cache key for
// texture_cube_cache (C7).
type CubeConfig struct {
	Face   [FaceCount]uint64
	Width  uint32
	Format pixelformat.Format
}

// CachedCube is a host cube texture assembled from six 2D Surfaces, one per
// face, each tracked through a Watcher so the cube is re-copied from its
// source surface whenever that surface revalidates.
type CachedCube struct {
	Config   CubeConfig
	ResScale uint16
	Watchers [FaceCount]*Watcher
	// Alloc is the host cube texture all six faces are copied into. The
	// zero Allocation means it has not been created yet (or the backend
	// could not satisfy the allocation).
	Alloc runtime.Allocation
	// Allocated reports whether Alloc has been created (or attempted) yet;
	// it is lazily allocated on first GetTextureCube call.
	Allocated bool
}

// FillPattern is the 1-4 byte repeating pattern a Fill surface clears its
// destination to. Size is the number of significant bytes (2, 3, or 4);
// Surfaces carrying a FillPattern have no GPU allocation.
type FillPattern struct {
	Data [4]byte
	Size uint8
}

// ByteAt returns the pattern byte at offset, rotated so that offset 0 maps
// to Data[0] modulo Size — used when a surface copy needs to reconstruct
// the clear color starting partway through the pattern.
func (f FillPattern) ByteAt(offset uint64) byte {
	return f.Data[offset%uint64(f.Size)]
}

// SubRectResult is returned by operations that locate a surface and the
// sub-rectangle of interest within it, such as GetSurfaceSubRect.
type SubRectResult struct {
	Surface *Surface
	Rect    surfaceparams.Rect
}
