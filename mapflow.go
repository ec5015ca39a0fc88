// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

// Package mapflow is the top-level MapFlow engine: it wires the graph
// model, audio analyzer, evaluator, compositor, and scheduler together
// the way the teacher's eng.go wires its renderer, audio layer, and
// stage manager into one Engine.
package mapflow

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mapflow/core/audio"
	"github.com/mapflow/core/compositor"
	"github.com/mapflow/core/eval"
	"github.com/mapflow/core/graph"
	"github.com/mapflow/core/iface"
	"github.com/mapflow/core/scheduler"
)

// Engine is the running MapFlow instance. Applications build one with
// New, attach output sinks and a control sink, then call Run.
//
// Grounded on the teacher's engine struct (eng.go): a staged New()
// that brings up each subsystem in dependency order (audio before
// graphics, graphics before the stage manager), and a Shutdown() that
// tears them down in reverse.
type Engine struct {
	cfg Config

	Handle     *graph.Handle
	Analyzer   *audio.Analyzer
	Evaluator  *eval.Evaluator
	Compositor *compositor.Compositor
	Controls   *eval.ControlTable

	loop    *scheduler.Loop
	backend compositor.Backend
}

// New brings up the engine: analyzer, evaluator, and compositor are
// constructed and the rendering backend initialized, but nothing runs
// until Run is called. producer supplies media frames to Source Parts
// (§6); backend is the compositor's GPU or software rasterizer.
func New(producer iface.MediaProducer, backend compositor.Backend, opts ...Attr) (*Engine, error) {
	cfg := configDefaults
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := backend.Init(); err != nil {
		return nil, fmt.Errorf("mapflow: backend init: %w", err)
	}

	e := &Engine{
		cfg:        cfg,
		Handle:     graph.NewHandle(),
		Analyzer:   audio.NewAnalyzer(cfg.analyzerConfig()),
		Evaluator:  eval.NewEvaluator(producer, time.Now().UnixNano()),
		Compositor: compositor.NewCompositor(backend),
		Controls:   eval.NewControlTable(),
		backend:    backend,
	}

	e.loop = &scheduler.Loop{
		Handle:     e.Handle,
		Analyzer:   e.Analyzer,
		Evaluator:  e.Evaluator,
		Compositor: e.Compositor,
		Controls:   e.Controls,
		Outputs:    map[graph.ID]iface.OutputSink{},
		TargetFPS:  cfg.TargetFPS,
		MaxBudget:  time.Duration(cfg.MaxFrameBudgetMS) * time.Millisecond,
	}
	return e, nil
}

// EnableMetrics registers the scheduler's prometheus counters against
// reg. Optional: Run works without it, just without observability.
func (e *Engine) EnableMetrics(reg prometheus.Registerer) {
	e.loop.Metrics = scheduler.NewMetrics(reg)
}

// AttachOutput registers sink as the destination for outputID's
// composited image every tick.
func (e *Engine) AttachOutput(outputID graph.ID, sink iface.OutputSink) {
	e.loop.Outputs[outputID] = sink
}

// PushControl forwards a control-input tuple into the evaluator's
// control table (§6), called by a host's MIDI/OSC/shortcut adapter.
func (e *Engine) PushControl(protocol, address string, valueIn01 float64, timestampMs int64) {
	e.Controls.Push(eval.ControlKey{Protocol: protocol, Address: address}, valueIn01, timestampMs)
}

// SetGraph publishes g as the current graph snapshot (§5: committed
// mutations take effect on the next tick, never mid-evaluation).
func (e *Engine) SetGraph(g *graph.Graph) {
	e.Handle.Store(g)
}

// Run starts the fixed-timestep scheduler loop and blocks until ctx
// is canceled. nowMs supplies the playback clock driving triggers and
// Fixed/Random evaluation (§4.1).
func (e *Engine) Run(ctx context.Context, nowMs func() int64) error {
	return e.loop.Run(ctx, nowMs)
}

// Shutdown releases the compositor backend's GPU resources. Grounded
// on the teacher's eng.go Shutdown(), which tears subsystems down in
// the reverse of their New() bring-up order.
func (e *Engine) Shutdown() {
	if e.backend != nil {
		e.backend.Release()
	}
}
