// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package lin

// Matrix functions deal with the 3x3 matrices used to place layer content
// in normalized output space ([0,1]^2) and to solve the Quad4 projective
// UV mapping described in §4.3 of the design.
//
// Row or Column major? As with any 3D engine the choice only matters for
// consistency: a row vector v multiplied by M below produces
//	x' = v.X*Xx + v.Y*Yx + v.W*Wx
//	y' = v.X*Xy + v.Y*Yy + v.W*Wy
//	w' = v.X*Xw + v.Y*Yw + v.W*Ww
// with translation carried in the W row, matching the teacher engine's
// own row-major M4 convention (vu/math/lin.M4).

import "math"

// M3 is a 3x3 matrix where the elements are individually addressable.
type M3 struct {
	Xx, Xy, Xw float64 // indices 0, 1, 2 — X-axis (scale/shear of X)
	Yx, Yy, Yw float64 // indices 3, 4, 5 — Y-axis (scale/shear of Y)
	Wx, Wy, Ww float64 // indices 6, 7, 8 — translation row, Ww usually 1
}

// M3I is the 3x3 identity matrix.
var M3I = M3{
	Xx: 1, Xy: 0, Xw: 0,
	Yx: 0, Yy: 1, Yw: 0,
	Wx: 0, Wy: 0, Ww: 1,
}

// Mult returns m = a*b (a applied first, then b), the standard order for
// composing translate∘rotate∘scale from innermost to outermost (§4.3).
func Mult(a, b M3) M3 {
	return M3{
		Xx: a.Xx*b.Xx + a.Xy*b.Yx + a.Xw*b.Wx,
		Xy: a.Xx*b.Xy + a.Xy*b.Yy + a.Xw*b.Wy,
		Xw: a.Xx*b.Xw + a.Xy*b.Yw + a.Xw*b.Ww,

		Yx: a.Yx*b.Xx + a.Yy*b.Yx + a.Yw*b.Wx,
		Yy: a.Yx*b.Xy + a.Yy*b.Yy + a.Yw*b.Wy,
		Yw: a.Yx*b.Xw + a.Yy*b.Yw + a.Yw*b.Ww,

		Wx: a.Wx*b.Xx + a.Wy*b.Yx + a.Ww*b.Wx,
		Wy: a.Wx*b.Xy + a.Wy*b.Yy + a.Ww*b.Wy,
		Ww: a.Wx*b.Xw + a.Wy*b.Yw + a.Ww*b.Ww,
	}
}

// Translate returns a translation matrix.
func Translate(tx, ty float64) M3 {
	m := M3I
	m.Wx, m.Wy = tx, ty
	return m
}

// Scale returns a scale matrix.
func Scale(sx, sy float64) M3 {
	m := M3I
	m.Xx, m.Yy = sx, sy
	return m
}

// Rotate returns a rotation matrix for the given angle in radians.
func Rotate(radians float64) M3 {
	s, c := math.Sin(radians), math.Cos(radians)
	m := M3I
	m.Xx, m.Xy = c, s
	m.Yx, m.Yy = -s, c
	return m
}

// TransformAbout composes translate(pos) ∘ rotate(angle, anchor) ∘
// scale(sx, sy, anchor) as described by §4.3: scale and rotate pivot
// around anchor (in the unscaled/unrotated local space), then the
// whole thing is moved to pos.
func TransformAbout(pos, anchor V2, angleRadians, sx, sy float64) M3 {
	toOrigin := Translate(-anchor.X, -anchor.Y)
	scale := Scale(sx, sy)
	rotate := Rotate(angleRadians)
	fromOrigin := Translate(anchor.X, anchor.Y)
	toPos := Translate(pos.X, pos.Y)
	m := Mult(toOrigin, scale)
	m = Mult(m, rotate)
	m = Mult(m, fromOrigin)
	m = Mult(m, toPos)
	return m
}

// Apply transforms the 2D point p by m, dividing by the resulting W so
// that a projective (non-affine) matrix still yields a valid 2D point.
func (m M3) Apply(p V2) V2 {
	h := p.Homogeneous()
	out := V3{
		X: h.X*m.Xx + h.Y*m.Yx + h.W*m.Wx,
		Y: h.X*m.Xy + h.Y*m.Yy + h.W*m.Wy,
		W: h.X*m.Xw + h.Y*m.Yw + h.W*m.Ww,
	}
	return out.Dehomogenize()
}

// ApplyRaw transforms p by m without dehomogenizing, returning the raw
// (x, y, w) triple. The compositor's fragment stage divides by w itself
// per-fragment after barycentric interpolation, which is what makes
// Quad4's UV interpolation perspective-correct (§4.3).
func (m M3) ApplyRaw(p V2) V3 {
	h := p.Homogeneous()
	return V3{
		X: h.X*m.Xx + h.Y*m.Yx + h.W*m.Wx,
		Y: h.X*m.Xy + h.Y*m.Yy + h.W*m.Wy,
		W: h.X*m.Xw + h.Y*m.Yw + h.W*m.Ww,
	}
}

// Homography solves the 3x3 projective matrix that maps the unit square
// corners (0,0) (1,0) (1,1) (0,1) to the four given quadrilateral corners,
// in normalized output space. This is the standard "map a quad texture
// onto an arbitrary quadrilateral" construction used by projection
// mapping tools: the vertex shader carries the extra w term produced here
// so that per-fragment UV interpolation is projective, not merely
// bilinear, reproducing true perspective for a warped Quad4 mesh (§4.3).
//
// corners are would-be clockwise or counter-clockwise; no winding is
// enforced here, only used as given.
func Homography(corners [4]V2) M3 {
	x0, y0 := corners[0].X, corners[0].Y
	x1, y1 := corners[1].X, corners[1].Y
	x2, y2 := corners[2].X, corners[2].Y
	x3, y3 := corners[3].X, corners[3].Y

	dx1, dx2 := x1-x2, x3-x2
	dy1, dy2 := y1-y2, y3-y2
	sx, sy := x0-x1+x2-x3, y0-y1+y2-y3

	denom := dx1*dy2 - dx2*dy1
	var g, h float64
	if !AeqZ(denom) {
		g = (sx*dy2 - dx2*sy) / denom
		h = (dx1*sy - sx*dy1) / denom
	}
	a := x1 - x0 + g*x1
	b := x3 - x0 + h*x3
	c := x0
	d := y1 - y0 + g*y1
	e := y3 - y0 + h*y3
	f := y0

	// Row-major M3 consistent with Apply()'s (x,y,w)*M convention:
	// forward-map unit square (u,v) -> (a*u+b*v+c, d*u+e*v+f, g*u+h*v+1).
	return M3{
		Xx: a, Xy: d, Xw: g,
		Yx: b, Yy: e, Yw: h,
		Wx: c, Wy: f, Ww: 1,
	}
}
