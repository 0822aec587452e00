// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package codec converts between a guest surface's native byte layout
// (linear or 8x8 Morton-tiled, packed to its format's bit depth) and the
// host staging buffer the rasterizer cache uploads to and downloads from
// the GPU. PixelCodec implements rastercache.TextureCodec.
package codec
