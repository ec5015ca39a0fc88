// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapflow/core/compositor"
	"github.com/mapflow/core/eval"
	"github.com/mapflow/core/graph"
	"github.com/mapflow/core/iface"
)

// recordingSink counts Present calls so tests can assert a tick
// actually reached the compositor's output stage.
type recordingSink struct {
	presented int
}

func (s *recordingSink) Present(outputID string, _ iface.ImageHandle) error {
	s.presented++
	return nil
}

func (s *recordingSink) Resize(width, height int) error { return nil }

func newTestLoop(t *testing.T) (*Loop, *graph.Handle) {
	t.Helper()
	handle := graph.NewHandle()
	handle.Store(graph.NewBuilder().Build())

	return &Loop{
		Handle:     handle,
		Analyzer:   nil, // nil Analyzer exercises the loop's own nil-guard
		Evaluator:  eval.NewEvaluator(nil, 1),
		Compositor: compositor.NewCompositor(compositor.NewSoftBackend()),
		Controls:   eval.NewControlTable(),
		Outputs:    map[graph.ID]iface.OutputSink{},
		TargetFPS:  1000, // fast tick cadence keeps the test itself fast
	}, handle
}

func TestLoopRunStopsOnContextCancel(t *testing.T) {
	loop, _ := newTestLoop(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := loop.Run(ctx, func() int64 { return 0 })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, loop.Profile.Elapsed, time.Duration(0))
}

func TestLoopTickWithEmptyGraphPresentsNothing(t *testing.T) {
	loop, _ := newTestLoop(t)
	sink := &recordingSink{}
	loop.Outputs[graph.ID(1)] = sink
	loop.TargetFPS = 1000
	loop.MaxBudget = time.Second // never triggers a drop in this test
	loop.nowMs = func() int64 { return 0 }

	loop.tick(false)

	assert.Equal(t, 0, loop.Profile.Renders) // empty graph has no Outputs -> nothing to present
	assert.Equal(t, 0, sink.presented)
}

func TestLoopTickDropSkipsEvaluation(t *testing.T) {
	loop, _ := newTestLoop(t)
	loop.nowMs = func() int64 { return 0 }
	reg := prometheus.NewRegistry()
	loop.Metrics = NewMetrics(reg)

	loop.tick(true)

	assert.Equal(t, 1, loop.Profile.Skipped)
	assert.Equal(t, 0, loop.Profile.Renders)
}

func TestLoopDropsNextTickAfterBudgetOverrun(t *testing.T) {
	loop, _ := newTestLoop(t)
	loop.nowMs = func() int64 { return 0 }
	loop.MaxBudget = time.Nanosecond // any measured tick time now counts as an overrun
	reg := prometheus.NewRegistry()
	loop.Metrics = NewMetrics(reg)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()

	err := loop.Run(ctx, func() int64 { return 0 })
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, loop.Profile.Skipped, 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	var drops float64
	for _, mf := range families {
		if mf.GetName() == "mapflow_scheduler_frame_drops_total" {
			drops = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Greater(t, drops, 0.0)
}

func TestMetricsRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	require.NotNil(t, m)

	gathered, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, gathered)
}

func TestHandleDeviceLossResizesKnownOutput(t *testing.T) {
	loop, _ := newTestLoop(t)
	sink := &recordingSink{}
	loop.Outputs[graph.ID(7)] = sink

	err := loop.HandleDeviceLoss(graph.ID(7), 1920, 1080)
	assert.NoError(t, err)
}

func TestHandleDeviceLossErrorsOnUnknownOutput(t *testing.T) {
	loop, _ := newTestLoop(t)

	err := loop.HandleDeviceLoss(graph.ID(99), 1920, 1080)
	assert.Error(t, err)
}
