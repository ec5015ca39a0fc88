// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

// Package audio turns a continuous PCM sample stream into a rolling
// AudioAnalysis snapshot: sanitize, ring-buffer, window, FFT, band
// integration, RMS, peak envelope, beat and BPM detection (§4.2).
package audio

// Config holds the analyzer's tunable parameters. See §4.2.
type Config struct {
	// SampleRate is the PCM input rate in Hz, e.g. 44100.
	SampleRate int
	// FFTSize is the analysis window length, one of 512, 1024, 2048.
	FFTSize int
	// OverlapRatio is the fraction of FFTSize reused between hops, in [0, 0.75].
	OverlapRatio float64
	// Smoothing is the per-band exponential decay factor, in [0, 1).
	Smoothing float64
}

// DefaultConfig returns the analyzer configuration used when the host
// does not specify one.
func DefaultConfig() Config {
	return Config{
		SampleRate:   44100,
		FFTSize:      1024,
		OverlapRatio: 0.5,
		Smoothing:    0.7,
	}
}

// Normalize clamps every field to its documented range, rounding FFTSize
// up to the next supported size (512, 1024, 2048; anything above 1024
// becomes 2048). Call before using a Config that
// came from an external source (CLI flags, a loaded document).
func (c Config) Normalize() Config {
	switch {
	case c.FFTSize <= 512:
		c.FFTSize = 512
	case c.FFTSize <= 1024:
		c.FFTSize = 1024
	default:
		c.FFTSize = 2048
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 44100
	}
	if c.OverlapRatio < 0 {
		c.OverlapRatio = 0
	}
	if c.OverlapRatio > 0.75 {
		c.OverlapRatio = 0.75
	}
	if c.Smoothing < 0 {
		c.Smoothing = 0
	}
	if c.Smoothing >= 1 {
		c.Smoothing = 0.999
	}
	return c
}

// hop returns the number of new samples consumed per analysis step.
func (c Config) hop() int {
	h := int(float64(c.FFTSize) * (1 - c.OverlapRatio))
	if h < 1 {
		h = 1
	}
	return h
}
