// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package compositor

// target.go holds the per-Output intermediate render target: a
// texture bound as a framebuffer's color attachment so each Output's
// layer stack composites into its own image before the post chain
// (edge-blend, color-calibration) and present (§4.4 step 1).
//
// Adapted from the teacher's target.go, which rendered a 3D scene to
// a texture for portal effects; here a target always exists, one per
// Output, sized to the Output's declared resolution.

// target is a framebuffer-backed texture an Output's layer stack
// renders into.
type target struct {
	bid uint32 // framebuffer id, 0 until the backend allocates one.
	tex *Texture
	w, h int
}

// newTarget allocates the CPU-side bookkeeping for an Output's
// intermediate; the backend's NewTarget allocates the actual
// framebuffer right after calling it.
func newTarget(name string, w, h int) *target {
	return &target{tex: NewTexture(name), w: w, h: h}
}

// resize marks the target for reallocation at the new dimensions,
// invalidating the current framebuffer binding.
func (t *target) resize(w, h int) {
	if w == t.w && h == t.h {
		return
	}
	t.w, t.h = w, h
	t.bid = 0
}
