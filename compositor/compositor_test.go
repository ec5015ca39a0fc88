// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package compositor

import (
	"testing"

	"github.com/mapflow/core/graph"
	"github.com/mapflow/core/internal/lin"
	"github.com/mapflow/core/mesh"
	"github.com/stretchr/testify/assert"
)

func TestBlendNormalOpaqueIsReplace(t *testing.T) {
	base := RGBA{0.2, 0.3, 0.4, 0.5}.premultiply()
	blend := RGBA{1, 0, 0, 1}.premultiply()
	out := Blend(Normal, base, blend)
	assert.InDelta(t, 1.0, out.R, 1e-9)
	assert.InDelta(t, 0.0, out.G, 1e-9)
	assert.InDelta(t, 0.0, out.B, 1e-9)
	assert.InDelta(t, 1.0, out.A, 1e-9)
}

func TestBlendAlphaAlwaysSourceOver(t *testing.T) {
	base := RGBA{0.1, 0.2, 0.3, 0.4}.premultiply()
	blend := RGBA{0.5, 0.5, 0.5, 0.6}.premultiply()
	for mode := Normal; mode <= Exclusion; mode++ {
		out := Blend(mode, base, blend)
		want := base.A + blend.A*(1-base.A)
		assert.InDelta(t, want, out.A, 1e-9, "mode %d", mode)
	}
}

func TestEdgeBlendIdentityWhenAllWidthsZero(t *testing.T) {
	w := EdgeWidths{}
	for _, p := range [][2]float64{{0, 0}, {0.5, 0.5}, {1, 1}, {0.1, 0.9}} {
		mult := EdgeBlend(w, p[0], p[1])
		assert.InDelta(t, 1.0, mult, 1e-9)
	}
}

func TestCalibrateIdentity(t *testing.T) {
	cal := DefaultCalibration()
	c := RGBA{0.3, 0.6, 0.9, 1}
	out := Calibrate(cal, c)
	assert.InDelta(t, c.R, out.R, 1.0/255)
	assert.InDelta(t, c.G, out.G, 1.0/255)
	assert.InDelta(t, c.B, out.B, 1.0/255)
}

func TestParseBlendModeResolvesAddAndSubtract(t *testing.T) {
	assert.Equal(t, Add, ParseBlendMode("Add"))
	assert.Equal(t, Subtract, ParseBlendMode("Subtract"))
}

func TestParseBlendModeFallsBackToNormalForUnknownName(t *testing.T) {
	assert.Equal(t, Normal, ParseBlendMode("Hue"))
	assert.Equal(t, Normal, ParseBlendMode("Saturation"))
	assert.Equal(t, Normal, ParseBlendMode("not-a-mode"))
}

func TestResizeModeByNameDefaultsToFill(t *testing.T) {
	assert.Equal(t, mesh.Fit, resizeModeByName("Fit"))
	assert.Equal(t, mesh.Stretch, resizeModeByName("Stretch"))
	assert.Equal(t, mesh.Original, resizeModeByName("Original"))
	assert.Equal(t, mesh.Fill, resizeModeByName(""))
	assert.Equal(t, mesh.Fill, resizeModeByName("Fill"))
}

func TestTransformTrianglesAppliesFitAspectPreScale(t *testing.T) {
	quad := mesh.BuildQuad4(mesh.Quad4Params{Corners: [4]lin.V2{{X: -1, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 1}, {X: -1, Y: 1}}})
	// A 100x100 source fit into a 200x100 output should be scaled down
	// on X (to preserve its square aspect) and left alone on Y.
	out := transformTriangles(quad.Triangles, graph.LayerTransform{ScaleX: 1, ScaleY: 1, ResizeMode: "Fit"}, 100, 100, 200, 100)
	assert.InDelta(t, 0.5, out[0][1].Pos.X, 1e-9)
	assert.InDelta(t, -1.0, out[0][1].Pos.Y, 1e-9)
}

func TestSoftBackendClearIsTransparentBlack(t *testing.T) {
	be := NewSoftBackend()
	tgt, err := be.NewTarget("out:1", 4, 4)
	assert.NoError(t, err)
	be.Clear(tgt)
	img := be.image(tgt)
	c := img.RGBAAt(1, 1)
	assert.Equal(t, uint8(0), c.R)
	assert.Equal(t, uint8(0), c.A)
}
