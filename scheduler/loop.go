// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

// Package scheduler drives the fixed-timestep render loop (§4.5):
// load the current graph, snapshot audio analysis, evaluate, composite,
// and present, at a steady cadence regardless of how long any one tick
// takes.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mapflow/core/audio"
	"github.com/mapflow/core/compositor"
	"github.com/mapflow/core/eval"
	"github.com/mapflow/core/graph"
	"github.com/mapflow/core/iface"
)

// Metrics are the prometheus counters/gauges the loop updates every
// tick. Callers register these with their own registry (or
// prometheus.DefaultRegisterer via NewMetrics).
type Metrics struct {
	Ticks       prometheus.Counter
	Drops       prometheus.Counter
	EvalSeconds prometheus.Histogram
	RenderSeconds prometheus.Histogram
}

// NewMetrics constructs and registers Metrics against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mapflow_scheduler_ticks_total",
			Help: "Total scheduler ticks run.",
		}),
		Drops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mapflow_scheduler_frame_drops_total",
			Help: "Ticks where evaluation+composite was skipped due to frame budget overrun (§4.5).",
		}),
		EvalSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "mapflow_scheduler_eval_seconds",
			Help: "Time spent per tick in graph evaluation.",
		}),
		RenderSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "mapflow_scheduler_render_seconds",
			Help: "Time spent per tick in compositing and presenting.",
		}),
	}
	reg.MustRegister(m.Ticks, m.Drops, m.EvalSeconds, m.RenderSeconds)
	return m
}

// Loop runs the §4.5 fixed-timestep accumulator loop, grounded on the
// teacher's eng.go Action(): same capTime spiral-of-death guard, fixed
// dt, updateTime accumulator carrying unused time forward, and a sleep
// when the tick finished early. Unlike the teacher's loop, Loop also
// implements frame-drop: if the previous tick's work exceeded
// MaxBudget, the next tick's evaluation+composite is skipped outright
// and a metric recorded, rather than letting updateTime pile up
// indefinitely.
type Loop struct {
	Handle     *graph.Handle
	Analyzer   *audio.Analyzer
	Evaluator  *eval.Evaluator
	Compositor *compositor.Compositor
	Controls   *eval.ControlTable
	Outputs    map[graph.ID]iface.OutputSink

	TargetFPS   int
	MaxBudget   time.Duration
	Metrics     *Metrics

	Profile Profile

	nowMs func() int64
}

// capTime guards against the spiral of death the same way the
// teacher's Action() does: updating/rendering time beyond this is
// discarded rather than compounded into the next tick's accumulator.
const capTime = 200 * time.Millisecond

// Run blocks, ticking until ctx is done. nowMs supplies the current
// playback clock in milliseconds (injected so tests can drive it).
func (l *Loop) Run(ctx context.Context, nowMs func() int64) error {
	if l.TargetFPS <= 0 {
		l.TargetFPS = 60
	}
	if l.MaxBudget <= 0 {
		l.MaxBudget = time.Second / time.Duration(l.TargetFPS)
	}
	l.nowMs = nowMs

	dt := time.Second / time.Duration(l.TargetFPS)
	var updateTime time.Duration
	lastTime := time.Now()
	dropNext := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		elapsed := time.Since(lastTime)
		lastTime = time.Now()
		if elapsed > capTime {
			elapsed = capTime
		}
		if elapsed < dt {
			time.Sleep(dt - elapsed)
		}

		updateTime += elapsed
		for updateTime >= dt {
			l.tick(dropNext)
			dropNext = l.Profile.Elapsed > l.MaxBudget
			updateTime -= dt
		}
	}
}

func (l *Loop) tick(drop bool) {
	start := time.Now()
	l.Profile.Zero()
	if l.Metrics != nil {
		l.Metrics.Ticks.Inc()
	}

	if drop {
		l.Profile.Skipped++
		if l.Metrics != nil {
			l.Metrics.Drops.Inc()
		}
		l.Profile.Elapsed = time.Since(start)
		return
	}

	g := l.Handle.Load()
	analysis := audio.AudioAnalysis{}
	if l.Analyzer != nil {
		analysis = l.Analyzer.Snapshot()
	}

	evalStart := time.Now()
	prog := l.Evaluator.Evaluate(g, analysis, l.Controls, l.nowMs())
	l.Profile.Eval = time.Since(evalStart)
	if l.Metrics != nil {
		l.Metrics.EvalSeconds.Observe(l.Profile.Eval.Seconds())
	}

	renderStart := time.Now()
	images, err := l.Compositor.Composite(g, prog)
	if err != nil {
		slog.Error("composite failed", "err", err)
	}
	for id, img := range images {
		sink, ok := l.Outputs[id]
		if !ok {
			continue
		}
		if err := sink.Present(strconv.FormatUint(uint64(id), 10), img); err != nil {
			slog.Warn("output present failed", "output", id, "err", err)
			continue
		}
		l.Profile.Renders++
	}
	l.Profile.Render = time.Since(renderStart)
	if l.Metrics != nil {
		l.Metrics.RenderSeconds.Observe(l.Profile.Render.Seconds())
	}

	l.Profile.Elapsed = time.Since(start)
	l.Profile.Log()
}

// HandleDeviceLoss reinitializes out's backing target after a
// GPUError{DeviceLost}, grounded on the teacher's vu.go
// machine.shutdown()/release() pattern: it calls the sink's Resize
// right away so the sink recreates its surface at width x height.
func (l *Loop) HandleDeviceLoss(outputID graph.ID, width, height int) error {
	sink, ok := l.Outputs[outputID]
	if !ok {
		return fmt.Errorf("scheduler: unknown output %d", outputID)
	}
	return sink.Resize(width, height)
}
