// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package audio

// Band identifies one of the nine fixed frequency bands integrated from
// the FFT magnitude spectrum (§4.2 step 4).
type Band int

const (
	SubBass Band = iota
	Bass
	LowMid
	Mid
	HighMid
	UpperMid
	Presence
	Brilliance
	Air
	bandCount
)

// bandEdges gives the [lowHz, highHz) edges for each Band, in Band order.
var bandEdges = [bandCount][2]float64{
	SubBass:    {20, 60},
	Bass:       {60, 250},
	LowMid:     {250, 500},
	Mid:        {500, 1000},
	HighMid:    {1000, 2000},
	UpperMid:   {2000, 4000},
	Presence:   {4000, 6000},
	Brilliance: {6000, 12000},
	Air:        {12000, 20000},
}

// binRange converts a band's Hz edges into an FFT bin index range
// [lo, hi) for the given sample rate and FFT size.
func binRange(edges [2]float64, sampleRate, fftSize int) (lo, hi int) {
	binHz := float64(sampleRate) / float64(fftSize)
	nyquistBins := fftSize / 2
	lo = int(edges[0] / binHz)
	hi = int(edges[1] / binHz)
	if lo < 0 {
		lo = 0
	}
	if hi > nyquistBins {
		hi = nyquistBins
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// integrateBands sums magnitude across each band's bin range, divides by
// bin count, then normalizes against a rolling per-band maximum (with
// decay) and applies exponential smoothing in place on state.
func integrateBands(magnitudes []float64, sampleRate, fftSize int, state *bandState, smoothing float64) [bandCount]float64 {
	var raw [bandCount]float64
	for b := Band(0); b < bandCount; b++ {
		lo, hi := binRange(bandEdges[b], sampleRate, fftSize)
		if hi <= lo {
			continue
		}
		var sum float64
		for i := lo; i < hi; i++ {
			sum += magnitudes[i]
		}
		raw[b] = sum / float64(hi-lo)
	}

	const maxDecay = 0.999
	var out [bandCount]float64
	for b := Band(0); b < bandCount; b++ {
		if raw[b] > state.rollingMax[b] {
			state.rollingMax[b] = raw[b]
		} else {
			state.rollingMax[b] *= maxDecay
		}
		norm := 0.0
		if state.rollingMax[b] > 1e-9 {
			norm = raw[b] / state.rollingMax[b]
		}
		if norm > 1 {
			norm = 1
		}
		if norm < 0 {
			norm = 0
		}
		state.smoothed[b] = state.smoothed[b]*smoothing + norm*(1-smoothing)
		out[b] = state.smoothed[b]
	}
	return out
}

// bandState is the per-band carried state (rolling maxima and smoothed
// values) the analyzer keeps between hops.
type bandState struct {
	rollingMax [bandCount]float64
	smoothed   [bandCount]float64
}
