// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

// Package lin provides the 2D linear math MapFlow needs to warp layer
// content onto projection meshes: vectors, an affine 3x3 homogeneous
// matrix, and a point-correspondence homography solve for projective
// (Quad4) UV mapping.
//
// This is a CPU math library; it is called once per layer per frame from
// the evaluator and compositor, not per-pixel, so it favours clarity over
// the extreme allocation-avoidance of a full 3D engine's hot path.
package lin

import "math"

// Various linear math constants.
const (
	PI     float64 = math.Pi
	PIx2   float64 = PI * 2
	DegRad float64 = PIx2 / 360.0 // X degrees * DegRad = Y radians
	RadDeg float64 = 360.0 / PIx2 // Y radians * RadDeg = X degrees

	// Epsilon distinguishes a float from "close enough" to another.
	Epsilon float64 = 0.000001
)

// Rad converts degrees to radians.
func Rad(deg float64) float64 { return deg * DegRad }

// Deg converts radians to degrees.
func Deg(rad float64) float64 { return rad * RadDeg }

// AeqZ (~=) almost-equals-zero returns true if x is close enough to zero
// that the difference doesn't matter.
func AeqZ(x float64) bool { return math.Abs(x) < Epsilon }

// Aeq (~=) almost-equals returns true if a and b are close enough that
// the difference doesn't matter.
func Aeq(a, b float64) bool { return math.Abs(a-b) < Epsilon }

// Clamp returns x restricted to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Lerp returns the linear interpolation between a and b at t in [0,1].
func Lerp(a, b, t float64) float64 { return a + (b-a)*t }

// Finite returns x, or 0 if x is NaN or +/-Inf. Used at every boundary
// where an external sample or uniform value reaches MapFlow (§4.2, §4.4
// sanitization invariants).
func Finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}
