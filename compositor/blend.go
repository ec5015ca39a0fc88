// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package compositor

import (
	"math"

	"github.com/mapflow/core/internal/lin"
)

// BlendMode selects one of the 14 pixel functions from the W3C
// compositing model (§4.4).
type BlendMode int

const (
	Normal BlendMode = iota
	Add
	Subtract
	Multiply
	Screen
	Overlay
	SoftLight
	HardLight
	Lighten
	Darken
	ColorDodge
	ColorBurn
	Difference
	Exclusion
)

// RGBA is a straight (non-premultiplied) color used at API boundaries;
// Blend works in premultiplied space internally per §4.4.
type RGBA struct {
	R, G, B, A float64
}

func (c RGBA) premultiply() RGBA {
	return RGBA{c.R * c.A, c.G * c.A, c.B * c.A, c.A}
}

// Blend composites blend over base using mode, both premultiplied,
// and returns a premultiplied result. Alpha output is always
// base.a + blend.a*(1-base.a) regardless of mode (§4.4).
func Blend(mode BlendMode, base, blend RGBA) RGBA {
	base = clampColor(base)
	blend = clampColor(blend)

	fn := blendFns[mode]
	if fn == nil {
		fn = blendFns[Normal]
	}

	out := RGBA{
		R: fn(base.R, blend.R, base.A, blend.A),
		G: fn(base.G, blend.G, base.A, blend.A),
		B: fn(base.B, blend.B, base.A, blend.A),
		A: base.A + blend.A*(1-base.A),
	}
	return clampColor(out)
}

func clampColor(c RGBA) RGBA {
	return RGBA{
		R: lin.Clamp(lin.Finite(c.R), 0, 1),
		G: lin.Clamp(lin.Finite(c.G), 0, 1),
		B: lin.Clamp(lin.Finite(c.B), 0, 1),
		A: lin.Clamp(lin.Finite(c.A), 0, 1),
	}
}

// blendFns implement each mode over premultiplied channel values,
// following the standard Porter-Duff "source over" compositing of a
// per-mode blended color: result = (1-ba)*bc + (1-bb+?)... simplified
// to the common separable form used by every major compositor:
//
//	cs = blendFn(Cb, Cs) where Cb, Cs are premultiplied channel values
//	co = cs*ba*bb + cs_only terms per standard "simple alpha compositing"
//
// For the separable blend modes, MapFlow uses the common simplified
// form: unpremultiply to get straight colors, apply the per-mode
// function to straight values, then re-premultiply by the blend's own
// alpha before compositing — this keeps the math identical to the
// reference pixel function each mode name describes.
var blendFns = map[BlendMode]func(bc, sc, ba, sa float64) float64{
	Normal:     func(bc, sc, ba, sa float64) float64 { return straightBlend(bc, sc, ba, sa, func(b, s float64) float64 { return s }) },
	Add:        func(bc, sc, ba, sa float64) float64 { return straightBlend(bc, sc, ba, sa, func(b, s float64) float64 { return b + s }) },
	Subtract:   func(bc, sc, ba, sa float64) float64 { return straightBlend(bc, sc, ba, sa, func(b, s float64) float64 { return b - s }) },
	Multiply:   func(bc, sc, ba, sa float64) float64 { return straightBlend(bc, sc, ba, sa, func(b, s float64) float64 { return b * s }) },
	Screen:     func(bc, sc, ba, sa float64) float64 { return straightBlend(bc, sc, ba, sa, func(b, s float64) float64 { return b + s - b*s }) },
	Overlay:    func(bc, sc, ba, sa float64) float64 { return straightBlend(bc, sc, ba, sa, overlayFn) },
	SoftLight:  func(bc, sc, ba, sa float64) float64 { return straightBlend(bc, sc, ba, sa, softLightFn) },
	HardLight:  func(bc, sc, ba, sa float64) float64 { return straightBlend(bc, sc, ba, sa, func(b, s float64) float64 { return overlayFn(s, b) }) },
	Lighten:    func(bc, sc, ba, sa float64) float64 { return straightBlend(bc, sc, ba, sa, func(b, s float64) float64 { return max(b, s) }) },
	Darken:     func(bc, sc, ba, sa float64) float64 { return straightBlend(bc, sc, ba, sa, func(b, s float64) float64 { return min(b, s) }) },
	ColorDodge: func(bc, sc, ba, sa float64) float64 { return straightBlend(bc, sc, ba, sa, colorDodgeFn) },
	ColorBurn:  func(bc, sc, ba, sa float64) float64 { return straightBlend(bc, sc, ba, sa, colorBurnFn) },
	Difference: func(bc, sc, ba, sa float64) float64 {
		return straightBlend(bc, sc, ba, sa, func(b, s float64) float64 { return abs(b - s) })
	},
	Exclusion: func(bc, sc, ba, sa float64) float64 {
		return straightBlend(bc, sc, ba, sa, func(b, s float64) float64 { return b + s - 2*b*s })
	},
}

// straightBlend unpremultiplies bc/sc by ba/sa, applies fn to the
// straight channel values, then returns the result premultiplied and
// composited "source over" with the base's own alpha term folded in,
// matching the W3C simple alpha compositing formula:
//
//	Co = Cs*sa + Cb*ba*(1-sa)
//
// where Cs here is fn(straightBase, straightBlend), i.e. the mode's
// blended color, not the raw source color.
func straightBlend(bc, sc, ba, sa float64, fn func(b, s float64) float64) float64 {
	b := 0.0
	if ba > 1e-9 {
		b = bc / ba
	}
	s := 0.0
	if sa > 1e-9 {
		s = sc / sa
	}
	mixed := fn(b, s)
	return mixed*sa + bc*(1-sa)
}

func overlayFn(b, s float64) float64 {
	if b <= 0.5 {
		return 2 * b * s
	}
	return 1 - 2*(1-b)*(1-s)
}

func softLightFn(b, s float64) float64 {
	if s <= 0.5 {
		return b - (1-2*s)*b*(1-b)
	}
	var d float64
	if b <= 0.25 {
		d = ((16*b-12)*b + 4) * b
	} else {
		d = math.Sqrt(b)
	}
	return b + (2*s-1)*(d-b)
}

func colorDodgeFn(b, s float64) float64 {
	if b == 0 {
		return 0
	}
	if s >= 1 {
		return 1
	}
	return min(1, b/(1-s))
}

func colorBurnFn(b, s float64) float64 {
	if b >= 1 {
		return 1
	}
	if s <= 0 {
		return 0
	}
	return 1 - min(1, (1-b)/s)
}

func abs(x float64) float64 { return math.Abs(x) }
