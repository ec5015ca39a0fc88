// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package compositor

import (
	"image"
	"image/color"
	"math"
)

// SoftBackend is a headless, no-GPU Backend: a software rasterizer
// over image.RGBA. It exists so the §8 invariant tests (identity
// blend, identity edge-blend, identity calibration, empty-graph
// transparent-black) can run without a graphics context, grounded on
// the teacher's NoAudio mock-implementation pattern (audio/audio.go).
type SoftBackend struct {
	targets map[string]*image.RGBA
}

// NewSoftBackend constructs a ready-to-use software backend.
func NewSoftBackend() *SoftBackend {
	return &SoftBackend{targets: map[string]*image.RGBA{}}
}

func (s *SoftBackend) Init() error { return nil }

func (s *SoftBackend) NewTarget(name string, w, h int) (*target, error) {
	t := newTarget(name, w, h)
	s.targets[name] = image.NewRGBA(image.Rect(0, 0, w, h))
	return t, nil
}

func (s *SoftBackend) image(t *target) *image.RGBA {
	img, ok := s.targets[t.tex.name]
	if !ok || img.Bounds().Dx() != t.w || img.Bounds().Dy() != t.h {
		img = image.NewRGBA(image.Rect(0, 0, t.w, t.h))
		s.targets[t.tex.name] = img
	}
	return img
}

func (s *SoftBackend) Clear(t *target) {
	img := s.image(t)
	transparent := color.RGBA{}
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			img.SetRGBA(x, y, transparent)
		}
	}
}

// DrawWarp rasterizes each triangle with barycentric interpolation of
// UV and w, dividing by w per-fragment so the result is
// perspective-correct, matching warpShader's GLSL (§4.3).
func (s *SoftBackend) DrawWarp(dst *target, src *Texture, tris []Triangle) error {
	img := s.image(dst)
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	var srcImg image.Image = src.img
	for _, tri := range tris {
		rasterizeTriangle(img, w, h, tri, srcImg)
	}
	return nil
}

func rasterizeTriangle(img *image.RGBA, w, h int, tri Triangle, src image.Image) {
	px := [3][2]float64{}
	for i, p := range tri.Pos {
		px[i] = [2]float64{p[0] * float64(w), (1 - p[1]) * float64(h)}
	}
	minX := int(math.Floor(math.Min(px[0][0], math.Min(px[1][0], px[2][0]))))
	maxX := int(math.Ceil(math.Max(px[0][0], math.Max(px[1][0], px[2][0]))))
	minY := int(math.Floor(math.Min(px[0][1], math.Min(px[1][1], px[2][1]))))
	maxY := int(math.Ceil(math.Max(px[0][1], math.Max(px[1][1], px[2][1]))))
	minX, minY = max(minX, 0), max(minY, 0)
	maxX, maxY = min(maxX, w), min(maxY, h)

	area := edge(px[0], px[1], px[2])
	if area == 0 {
		return
	}

	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			p := [2]float64{float64(x) + 0.5, float64(y) + 0.5}
			w0 := edge(px[1], px[2], p) / area
			w1 := edge(px[2], px[0], p) / area
			w2 := edge(px[0], px[1], p) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			ww := w0*tri.W[0] + w1*tri.W[1] + w2*tri.W[2]
			u := w0*tri.UV[0][0] + w1*tri.UV[1][0] + w2*tri.UV[2][0]
			v := w0*tri.UV[0][1] + w1*tri.UV[1][1] + w2*tri.UV[2][1]
			if ww != 0 && ww != 1 {
				u, v = u/ww, v/ww
			}
			img.Set(x, y, sampleBilinear(src, u, v))
		}
	}
}

func edge(a, b, p [2]float64) float64 {
	return (p[0]-a[0])*(b[1]-a[1]) - (p[1]-a[1])*(b[0]-a[0])
}

func sampleBilinear(src image.Image, u, v float64) color.Color {
	if src == nil {
		return color.RGBA{}
	}
	b := src.Bounds()
	x := int(u * float64(b.Dx()))
	y := int((1 - v) * float64(b.Dy()))
	x = max(b.Min.X, min(b.Max.X-1, x))
	y = max(b.Min.Y, min(b.Max.Y-1, y))
	return src.At(x, y)
}

// DrawBlend composites src over dst using Blend, pixel by pixel.
func (s *SoftBackend) DrawBlend(dst *target, src *Texture, mode BlendMode, opacity float64) error {
	dstImg := s.image(dst)
	b := dstImg.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			base := rgbaAt(dstImg, x, y)
			var blend RGBA
			if src.img != nil {
				sb := src.img.Bounds()
				sx := b.Min.X + (x-b.Min.X)*sb.Dx()/b.Dx()
				sy := b.Min.Y + (y-b.Min.Y)*sb.Dy()/b.Dy()
				blend = colorAt(src.img, sx, sy)
			}
			blend.A *= opacity
			blend.R *= opacity
			blend.G *= opacity
			blend.B *= opacity
			out := Blend(mode, base, blend)
			setRGBA(dstImg, x, y, out)
		}
	}
	return nil
}

func rgbaAt(img *image.RGBA, x, y int) RGBA {
	c := img.RGBAAt(x, y)
	return RGBA{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: float64(c.A) / 255,
	}
}

func colorAt(img image.Image, x, y int) RGBA {
	r, g, b, a := img.At(x, y).RGBA()
	return RGBA{float64(r) / 65535, float64(g) / 65535, float64(b) / 65535, float64(a) / 65535}
}

func setRGBA(img *image.RGBA, x, y int, c RGBA) {
	img.SetRGBA(x, y, color.RGBA{
		R: uint8(lin255(c.R)),
		G: uint8(lin255(c.G)),
		B: uint8(lin255(c.B)),
		A: uint8(lin255(c.A)),
	})
}

func lin255(v float64) float64 {
	v = math.Max(0, math.Min(1, v))
	return math.Round(v * 255)
}

func (s *SoftBackend) ApplyEdgeBlend(t *target, widths EdgeWidths) error {
	img := s.image(t)
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			u := (float64(x) + 0.5) / float64(w)
			v := 1 - (float64(y)+0.5)/float64(h)
			mult := EdgeBlend(widths, u, v)
			c := rgbaAt(img, x, y)
			c.R *= mult
			c.G *= mult
			c.B *= mult
			c.A *= mult
			setRGBA(img, x, y, c)
		}
	}
	return nil
}

func (s *SoftBackend) ApplyCalibration(t *target, cal Calibration) error {
	img := s.image(t)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := rgbaAt(img, x, y)
			var straight RGBA
			if c.A > 1e-9 {
				straight = RGBA{c.R / c.A, c.G / c.A, c.B / c.A, c.A}
			}
			out := Calibrate(cal, straight)
			setRGBA(img, x, y, out.premultiply())
		}
	}
	return nil
}

func (s *SoftBackend) Present(t *target, present func(image.Image) error) error {
	return present(s.image(t))
}

func (s *SoftBackend) Release() {
	s.targets = map[string]*image.RGBA{}
}
