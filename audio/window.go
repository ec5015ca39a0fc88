// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package audio

import "math"

// hannWindow returns the n-point Hann window coefficients (§4.2 step 3).
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// applyWindow multiplies src by win element-wise into dst, resizing dst
// as needed. len(src) must equal len(win).
func applyWindow(dst, src, win []float64) []float64 {
	if cap(dst) < len(src) {
		dst = make([]float64, len(src))
	} else {
		dst = dst[:len(src)]
	}
	for i := range src {
		dst[i] = src[i] * win[i]
	}
	return dst
}
