// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package compositor

import "image"

// Backend abstracts the GPU device the compositor draws through,
// mirroring the teacher's render.Renderer / graphicsContext split
// (render/render.go): a small public surface for setup plus the
// binding/draw calls the compositor issues every frame.
type Backend interface {
	// Init prepares the device for rendering. Called once at startup
	// and again after a GPUError{DeviceLost} swap-chain reinit (§4.5).
	Init() error

	// NewTarget allocates (or resizes) a framebuffer-backed texture
	// for one Output.
	NewTarget(name string, w, h int) (*target, error)

	// Clear fills t with transparent black (§4.4 step 2).
	Clear(t *target)

	// DrawWarp warps src through the mesh's homography into dst,
	// using the warp shader (§4.3, §4.4 step 3c).
	DrawWarp(dst *target, src *Texture, tris []Triangle) error

	// DrawBlend composites src over dst using mode at the given
	// opacity (§4.4 step 3d).
	DrawBlend(dst *target, src *Texture, mode BlendMode, opacity float64) error

	// ApplyEdgeBlend and ApplyCalibration run the Output post chain
	// (§4.4 step 4) in place on t.
	ApplyEdgeBlend(t *target, widths EdgeWidths) error
	ApplyCalibration(t *target, cal Calibration) error

	// Present copies t to the given OutputSink (§4.4 step 5).
	Present(t *target, present func(image.Image) error) error

	// Release frees every GPU resource the backend holds, called on
	// shutdown or before a device-lost reinit (§5 cancellation).
	Release()
}

// Triangle is one CPU-tessellated triangle in normalized output space
// with per-vertex UV and homography w (§4.3).
type Triangle struct {
	Pos [3][2]float64
	UV  [3][2]float64
	W   [3]float64
}
