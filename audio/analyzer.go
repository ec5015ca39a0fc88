// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package audio

import (
	"math"
	"sync/atomic"

	"github.com/mjibson/go-dsp/fft"

	"github.com/mapflow/core/internal/lin"
)

// queueCapacity bounds the lock-free SPSC queue of incoming Blocks. The
// audio driver callback is the producer; Analyzer.drain is the sole
// consumer, run from the analyzer's own goroutine — never the audio
// thread itself (§4.2 Concurrency: "no locks on the audio thread").
const queueCapacity = 64

// Analyzer runs the §4.2 pipeline: sanitize -> ring buffer -> window ->
// FFT -> band integration -> RMS -> peak -> beat -> BPM, publishing an
// AudioAnalysis snapshot the render thread reads via Snapshot.
//
// The producer/consumer split mirrors the teacher's channel-based
// message passing (vu.go's msg, eng.go's chan msg) generalized from
// "one channel, blocking" to "one atomic pointer, non-blocking": the
// spec forbids the audio thread ever blocking, where the teacher's
// render thread is allowed to block on channel receive.
type Analyzer struct {
	cfg Config

	queue chan Block // SPSC: driver callback pushes, analyzer goroutine pops

	ring       *ring
	win        []float64
	windowed   []float64
	complexBuf []complex128
	magBuf     []float64
	scratch    []float64

	samplesSinceHop int
	bands           bandState
	peak            peakFollower
	beats           *beatDetector

	snapshot atomic.Pointer[AudioAnalysis]
}

// NewAnalyzer constructs an Analyzer from cfg, normalizing it first.
func NewAnalyzer(cfg Config) *Analyzer {
	cfg = cfg.Normalize()
	hopsPerSecond := cfg.SampleRate / cfg.hop()
	a := &Analyzer{
		cfg:   cfg,
		queue: make(chan Block, queueCapacity),
		ring:  newRing(cfg.FFTSize),
		win:   hannWindow(cfg.FFTSize),
		beats: newBeatDetector(hopsPerSecond),
	}
	a.snapshot.Store(&AudioAnalysis{Stale: true})
	return a
}

// Push enqueues a Block of sanitized mono samples from the audio
// driver callback. Push never blocks: if the queue is momentarily
// full (consumer stalled) the block is dropped, which only delays the
// next snapshot rather than stalling the real-time callback.
func (a *Analyzer) Push(b Block) {
	select {
	case a.queue <- b:
	default:
	}
}

// Drain processes every Block currently queued, advancing the pipeline
// and publishing a new snapshot whenever a hop boundary is crossed. It
// is intended to be called in a loop from the analyzer's own goroutine,
// never from the audio callback itself.
func (a *Analyzer) Drain() {
	for {
		select {
		case b := <-a.queue:
			a.ingest(b)
		default:
			return
		}
	}
}

func (a *Analyzer) ingest(b Block) {
	hop := a.cfg.hop()
	for _, s := range b.Samples {
		sample := lin.Clamp(lin.Finite(s), -1, 1)
		a.ring.push(sample)
		a.samplesSinceHop++
		if a.ring.full() && a.samplesSinceHop >= hop {
			a.samplesSinceHop = 0
			a.analyzeHop()
		}
	}
}

func (a *Analyzer) analyzeHop() {
	a.scratch = a.ring.snapshot(a.scratch)
	raw := a.scratch

	sampleRMS := rms(raw)
	peakVal := a.peak.step(raw)

	a.windowed = applyWindow(a.windowed, raw, a.win)

	if cap(a.complexBuf) < len(a.windowed) {
		a.complexBuf = make([]complex128, len(a.windowed))
	}
	a.complexBuf = a.complexBuf[:len(a.windowed)]
	for i, v := range a.windowed {
		a.complexBuf[i] = complex(v, 0)
	}
	spectrum := fft.FFT(a.complexBuf)

	half := len(spectrum) / 2
	if cap(a.magBuf) < half {
		a.magBuf = make([]float64, half)
	}
	a.magBuf = a.magBuf[:half]
	for i := 0; i < half; i++ {
		a.magBuf[i] = math.Hypot(real(spectrum[i]), imag(spectrum[i]))
	}

	bands := integrateBands(a.magBuf, a.cfg.SampleRate, a.cfg.FFTSize, &a.bands, a.cfg.Smoothing)

	hopMs := 1000 * float64(a.cfg.hop()) / float64(a.cfg.SampleRate)
	beat := a.beats.step(bands[Bass], hopMs)

	a.snapshot.Store(&AudioAnalysis{
		BandEnergies: bands,
		RMS:          sampleRMS,
		Peak:         peakVal,
		Beat:         beat,
		BPM:          a.beats.bpm,
		Stale:        false,
	})
}

// Snapshot returns the most recently published analysis. It is safe to
// call from any goroutine; the pointer read is a single atomic load, so
// a caller never observes a partially written snapshot (§5 Ordering
// guarantees).
func (a *Analyzer) Snapshot() AudioAnalysis {
	return *a.snapshot.Load()
}

// Reinit resets the pipeline for a new sample rate or FFT size (§4.2
// Failure: "sample-rate mismatch -> reinitialize the pipeline"). The
// published snapshot becomes stale until the next full hop completes,
// satisfying the §8 boundary behavior that no snapshot mixes samples
// from the old and new FFT size.
func (a *Analyzer) Reinit(cfg Config) {
	cfg = cfg.Normalize()
	hopsPerSecond := cfg.SampleRate / cfg.hop()
	a.cfg = cfg
	a.ring = newRing(cfg.FFTSize)
	a.win = hannWindow(cfg.FFTSize)
	a.windowed = nil
	a.complexBuf = nil
	a.magBuf = nil
	a.scratch = nil
	a.samplesSinceHop = 0
	a.bands = bandState{}
	a.peak = peakFollower{}
	a.beats = newBeatDetector(hopsPerSecond)
	a.snapshot.Store(&AudioAnalysis{Stale: true})
}

// MarkDeviceLost publishes a stale zero snapshot without tearing down
// the pipeline state, per §4.2 Failure: "device disconnect -> analyzer
// emits zero snapshots with stale=true but never blocks."
func (a *Analyzer) MarkDeviceLost() {
	a.snapshot.Store(&AudioAnalysis{Stale: true})
}
