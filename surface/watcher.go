// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

// Watcher is a weak observer issued by a Surface so collection objects
// (mip chains, texture cubes) can detect that the underlying surface has
// been revalidated and needs re-snapshotting, without holding a strong
// reference that would keep the surface alive past its cache lifetime.
type Watcher struct {
	target *Surface
	valid  bool
}

// IsValid reports whether the watched surface still exists and has not
// been invalidated since the watcher last Validate'd.
func (w *Watcher) IsValid() bool {
	return w.target != nil && w.valid
}

// Validate marks the watcher as caught up with its surface's current
// content. Callers do this immediately after copying from Get().
func (w *Watcher) Validate() {
	if w.target == nil {
		panic("surface: Validate called on a watcher whose surface was destroyed")
	}
	w.valid = true
}

// Get returns the watched surface, or nil if it has been destroyed.
func (w *Watcher) Get() *Surface {
	return w.target
}

// invalidate marks the watcher as stale. Called by Surface whenever its
// region is written.
func (w *Watcher) invalidate() { w.valid = false }

// unlink marks the watcher as stale and drops its reference to the
// surface, called when the surface itself is destroyed.
func (w *Watcher) unlink() {
	w.valid = false
	w.target = nil
}
