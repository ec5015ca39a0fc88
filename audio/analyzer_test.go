// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzerStartsStale(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	snap := a.Snapshot()
	assert.True(t, snap.Stale)
}

func TestAnalyzerSanitizesNonFiniteSamples(t *testing.T) {
	cfg := DefaultConfig()
	a := NewAnalyzer(cfg)

	n := cfg.FFTSize * 3
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(float64(i) * 0.1)
	}
	samples[5] = math.NaN()
	samples[9] = math.Inf(1)
	samples[13] = math.Inf(-1)

	a.Push(Block{Samples: samples})
	a.Drain()

	snap := a.Snapshot()
	require.False(t, snap.Stale)
	assert.False(t, math.IsNaN(snap.RMS))
	assert.False(t, math.IsInf(snap.RMS, 0))
	assert.False(t, math.IsNaN(snap.Peak))
	for _, e := range snap.BandEnergies {
		assert.False(t, math.IsNaN(e))
		assert.False(t, math.IsInf(e, 0))
		assert.GreaterOrEqual(t, e, 0.0)
		assert.LessOrEqual(t, e, 1.0)
	}
}

func TestAnalyzerSnapshotBoundedRanges(t *testing.T) {
	cfg := DefaultConfig()
	a := NewAnalyzer(cfg)

	n := cfg.FFTSize * 8
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(float64(i)*0.3) * 0.8
	}
	a.Push(Block{Samples: samples})
	a.Drain()

	snap := a.Snapshot()
	assert.GreaterOrEqual(t, snap.RMS, 0.0)
	assert.LessOrEqual(t, snap.RMS, 1.0)
	assert.GreaterOrEqual(t, snap.Peak, 0.0)
	assert.LessOrEqual(t, snap.Peak, 1.0)
	assert.GreaterOrEqual(t, snap.BPM, 0.0)
	assert.LessOrEqual(t, snap.BPM, 300.0)
}

func TestBlockSetDownmixesAndSanitizes(t *testing.T) {
	var b Block
	interleaved := []float64{1, -1, math.NaN(), math.Inf(1), 0.5, 0.5}
	b.Set(interleaved, 2)
	require.Len(t, b.Samples, 3)
	assert.InDelta(t, 0, b.Samples[0], 1e-9)
	assert.InDelta(t, 0, b.Samples[1], 1e-9)
	assert.InDelta(t, 0.5, b.Samples[2], 1e-9)
}

func TestBeatDetectorFiresAtThreshold(t *testing.T) {
	d := newBeatDetector(100)
	for i := 0; i < 50; i++ {
		d.step(0.1, 10)
	}
	beat := d.step(0.5, 10)
	assert.True(t, beat)
}

func TestBeatDetectorRespectsMinGap(t *testing.T) {
	d := newBeatDetector(100)
	for i := 0; i < 50; i++ {
		d.step(0.1, 10)
	}
	first := d.step(0.5, 10)
	second := d.step(0.5, 10)
	assert.True(t, first)
	assert.False(t, second, "a second beat within 100ms must not fire")
}

func TestEstimateBPMRejectsOutliers(t *testing.T) {
	intervals := []float64{500, 500, 500, 500, 500, 2000}
	bpm := estimateBPM(intervals)
	assert.InDelta(t, 120, bpm, 1)
}

func TestRingSnapshotOrdering(t *testing.T) {
	r := newRing(4)
	for _, s := range []float64{1, 2, 3, 4, 5, 6} {
		r.push(s)
	}
	got := r.snapshot(nil)
	assert.Equal(t, []float64{3, 4, 5, 6}, got)
}

func TestReinitMarksSnapshotStale(t *testing.T) {
	cfg := DefaultConfig()
	a := NewAnalyzer(cfg)
	samples := make([]float64, cfg.FFTSize*4)
	for i := range samples {
		samples[i] = math.Sin(float64(i) * 0.2)
	}
	a.Push(Block{Samples: samples})
	a.Drain()
	require.False(t, a.Snapshot().Stale)

	a.Reinit(Config{SampleRate: 48000, FFTSize: 2048, OverlapRatio: 0.5, Smoothing: 0.7})
	assert.True(t, a.Snapshot().Stale)
}
