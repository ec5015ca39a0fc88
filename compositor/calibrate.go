// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package compositor

import (
	"math"

	"github.com/mapflow/core/internal/lin"
)

// EdgeWidths gives the smoothstep falloff width, in normalized [0,1]
// screen fraction, for each of an Output's four edges (§4.4 post chain).
type EdgeWidths struct {
	Left, Right, Top, Bottom float64
	Gamma                    float64
}

// EdgeBlend returns the multiplier to apply at normalized position
// (u, v) within the output, matching edgeBlendShader's GLSL exactly so
// the SoftBackend and GPU backend agree pixel-for-pixel. All-zero
// widths is the identity pass required by §8.
func EdgeBlend(w EdgeWidths, u, v float64) float64 {
	gamma := w.Gamma
	if gamma <= 0 {
		gamma = 1
	}
	l := edgeFalloff(u, w.Left, gamma)
	r := edgeFalloff(1-u, w.Right, gamma)
	t := edgeFalloff(1-v, w.Top, gamma)
	b := edgeFalloff(v, w.Bottom, gamma)
	return l * r * t * b
}

func edgeFalloff(x, width, gamma float64) float64 {
	if width <= 0 {
		return 1
	}
	t := lin.Clamp(x/width, 0, 1)
	s := t * t * (3 - 2*t)
	return math.Pow(s, gamma)
}

// Calibration holds the §4.4 color-calibration parameters. The
// identity values (brightness=0, contrast=1, gamma=(1,1,1),
// saturation=1, temperature=6500K) must reproduce the input within
// 1/255 per §8.
type Calibration struct {
	Brightness            float64
	Contrast              float64
	GammaR, GammaG, GammaB float64
	Saturation             float64
	TemperatureK           float64
}

// DefaultCalibration returns the identity calibration.
func DefaultCalibration() Calibration {
	return Calibration{
		Contrast: 1, GammaR: 1, GammaG: 1, GammaB: 1,
		Saturation: 1, TemperatureK: 6500,
	}
}

// Calibrate applies gamma, brightness, contrast, saturation, and a
// color-temperature tint to straight (non-premultiplied) c, matching
// calibrateShader's GLSL.
func Calibrate(cal Calibration, c RGBA) RGBA {
	gr, gg, gb := cal.GammaR, cal.GammaG, cal.GammaB
	if gr <= 0 {
		gr = 1
	}
	if gg <= 0 {
		gg = 1
	}
	if gb <= 0 {
		gb = 1
	}
	r := math.Pow(math.Max(c.R, 0), 1/gr)
	g := math.Pow(math.Max(c.G, 0), 1/gg)
	b := math.Pow(math.Max(c.B, 0), 1/gb)

	contrast := cal.Contrast
	if contrast == 0 {
		contrast = 1
	}
	r = (r-0.5)*contrast + 0.5 + cal.Brightness
	g = (g-0.5)*contrast + 0.5 + cal.Brightness
	b = (b-0.5)*contrast + 0.5 + cal.Brightness

	saturation := cal.Saturation
	luma := 0.2126*r + 0.7152*g + 0.0722*b
	r = luma + (r-luma)*saturation
	g = luma + (g-luma)*saturation
	b = luma + (b-luma)*saturation

	tr, tg, tb := temperatureTint(cal.TemperatureK)
	r *= tr
	g *= tg
	b *= tb

	return RGBA{
		R: lin.Clamp(lin.Finite(r), 0, 1),
		G: lin.Clamp(lin.Finite(g), 0, 1),
		B: lin.Clamp(lin.Finite(b), 0, 1),
		A: c.A,
	}
}

// temperatureTint returns a multiplicative rgb tint approximating the
// visual effect of shifting white balance to kelvin. 6500K (daylight)
// is the identity tint (1,1,1).
func temperatureTint(kelvin float64) (r, g, b float64) {
	if kelvin <= 0 {
		kelvin = 6500
	}
	delta := (kelvin - 6500) / 6500
	r = 1 - 0.35*delta
	b = 1 + 0.35*delta
	g = 1
	return lin.Clamp(r, 0.2, 2), lin.Clamp(g, 0.2, 2), lin.Clamp(b, 0.2, 2)
}
