// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package lin

// Vector performs 2 and 3 element vector math needed to place and warp
// layer content in normalized output space.

// V2 is a 2 element vector, used as a normalized-space point or a UV
// coordinate.
type V2 struct {
	X, Y float64
}

// V3 is a 3 element homogeneous vector: (x, y, w). After a projective
// transform, dividing X and Y by W (when W != 0 and != 1) recovers the
// perspective-correct 2D point — this is the "vertex shader divides by
// clip-space w" step the mesh spec (§4.3) describes.
type V3 struct {
	X, Y, W float64
}

// Add returns v+a.
func (v V2) Add(a V2) V2 { return V2{v.X + a.X, v.Y + a.Y} }

// Sub returns v-a.
func (v V2) Sub(a V2) V2 { return V2{v.X - a.X, v.Y - a.Y} }

// Scale returns v scaled by s.
func (v V2) Scale(s float64) V2 { return V2{v.X * s, v.Y * s} }

// Lerp returns the linear interpolation between v and a at t in [0,1].
func (v V2) Lerp(a V2, t float64) V2 {
	return V2{Lerp(v.X, a.X, t), Lerp(v.Y, a.Y, t)}
}

// Homogeneous lifts a 2D point to homogeneous coordinates with W=1.
func (v V2) Homogeneous() V3 { return V3{v.X, v.Y, 1} }

// Dehomogenize divides by W, recovering the 2D point. Returns the
// unmodified X, Y when W is ~0 (degenerate) rather than dividing by zero.
func (v V3) Dehomogenize() V2 {
	if AeqZ(v.W) {
		return V2{v.X, v.Y}
	}
	return V2{v.X / v.W, v.Y / v.W}
}
