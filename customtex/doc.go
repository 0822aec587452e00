// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package customtex implements the custom texture pipeline: replacement
// artwork for guest textures, keyed by a content hash of the decoded guest
// pixels, loaded from disk off the render thread and handed back to the
// cache asynchronously, plus the reverse path of dumping guest textures to
// disk for an artist to reskin.
package customtex
