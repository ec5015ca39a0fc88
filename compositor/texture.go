// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package compositor

import "image"

// texture.go deals with 2D images bound to the GPU: per-Output
// intermediates, resolved Source images, and LUTs loaded for
// color-calibration. Adapted from the teacher's texture.go; dropped
// the multi-face (f0/fn) fields that only made sense for 3D models.

// Texture is one GPU-bound image. Textures are cached in the
// Registry keyed by name; revision counts Set calls on the texture and
// is not part of the cache key.
type Texture struct {
	name     string      // cache key, e.g. "out:1" or "src:7#3" (id#revision).
	img      image.Image // CPU-side pixels, present until uploaded.
	tid      uint32      // GPU texture handle, zero if not yet bound.
	repeat   bool        // wrap UV > 1 instead of clamping.
	bound    bool        // false if img needs (re)uploading.
	revision uint64      // bumped whenever img changes.
}

func NewTexture(name string) *Texture {
	return &Texture{name: name}
}

// Set replaces the CPU-side image and marks the texture for re-upload.
func (t *Texture) Set(img image.Image) {
	t.img = img
	t.bound = false
	t.revision++
}

func (t *Texture) SetRepeat(on bool) { t.repeat = on }

// Registry caches textures by name. It does not compare revisions or
// evict on its own; an entry leaves the cache only through Invalidate.
type Registry struct {
	entries map[string]*Texture
}

func NewRegistry() *Registry {
	return &Registry{entries: map[string]*Texture{}}
}

// Get returns the cached texture for name, creating it if absent.
func (r *Registry) Get(name string) *Texture {
	if t, ok := r.entries[name]; ok {
		return t
	}
	t := NewTexture(name)
	r.entries[name] = t
	return t
}

// Invalidate drops name from the cache, forcing the next Get to
// allocate fresh — used when a mesh or source revision changes.
func (r *Registry) Invalidate(name string) {
	delete(r.entries, name)
}
