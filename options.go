// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package mapflow

// options.go reduces the New() API footprint using functional options.
// See: http://dave.cheney.net/2014/10/17/functional-options-for-friendly-apis
//      https://commandcenter.blogspot.ca/2014/01/self-referential-functions-and-design.html

import (
	"github.com/mapflow/core/audio"
)

// Config holds the attributes that can be set before starting the engine.
// All fields have reasonable defaults so an application can call New()
// with no options at all.
type Config struct {
	// TargetFPS is the frame rate the scheduler paces the render thread
	// to. See §4.5 of the design: secondary outputs present best-effort
	// at the same cadence as the primary.
	TargetFPS int

	// Audio pipeline configuration, see §4.2.
	SampleRate   int
	FFTSize      int
	OverlapRatio float64
	Smoothing    float64

	// MaxFrameBudgetMS caps how long evaluation+compositing may run before
	// the scheduler drops the next frame's evaluation (§4.5).
	MaxFrameBudgetMS int
}

// configDefaults provides reasonable defaults so the engine runs even if
// no configuration attributes are set.
var configDefaults = Config{
	TargetFPS:        60,
	SampleRate:       44100,
	FFTSize:          1024,
	OverlapRatio:     0.5,
	Smoothing:        0.7,
	MaxFrameBudgetMS: 1000 / 60,
}

// Attr defines optional application attributes used to configure the
// engine, eg:
//
//	eng, err := mapflow.New(producer, backend,
//	    mapflow.FPS(60),
//	    mapflow.Audio(48000, 2048, 0.5),
//	)
type Attr func(*Config)

// FPS sets the scheduler's target frame rate.
func FPS(fps int) Attr {
	return func(c *Config) {
		if fps > 0 && fps <= 1000 {
			c.TargetFPS = fps
			c.MaxFrameBudgetMS = 1000 / fps
		}
	}
}

// Audio sets the analyzer's sample rate, FFT size and overlap ratio.
// fftSize is rounded up to the next supported size (512, 1024, 2048;
// anything above 1024 becomes 2048).
func Audio(sampleRate, fftSize int, overlap float64) Attr {
	return func(c *Config) {
		if sampleRate > 0 {
			c.SampleRate = sampleRate
		}
		switch {
		case fftSize <= 512:
			c.FFTSize = 512
		case fftSize <= 1024:
			c.FFTSize = 1024
		default:
			c.FFTSize = 2048
		}
		if overlap >= 0 && overlap <= 0.75 {
			c.OverlapRatio = overlap
		}
	}
}

// Smoothing sets the analyzer's per-band exponential smoothing factor.
func Smoothing(s float64) Attr {
	return func(c *Config) {
		if s >= 0 && s < 1 {
			c.Smoothing = s
		}
	}
}

// analyzerConfig adapts the engine Config into an audio.Config.
func (c *Config) analyzerConfig() audio.Config {
	return audio.Config{
		SampleRate:   c.SampleRate,
		FFTSize:      c.FFTSize,
		OverlapRatio: c.OverlapRatio,
		Smoothing:    c.Smoothing,
	}
}
