// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package mapflow

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

type nopProducer struct{}

func (nopProducer) Open(iface.SourceSpec) (iface.StreamHandle, error) { return nil, nil }
func (nopProducer) RequestFrame(context.Context, iface.StreamHandle, int64, iface.PlaybackFlags) (iface.FrameResult, error) {
	return iface.FrameResult{}, nil
}
func (nopProducer) Close(iface.StreamHandle) error { return nil }

type nopSink struct{ presented int }

func (s *nopSink) Present(string, iface.ImageHandle) error { s.presented++; return nil }
func (s *nopSink) Resize(int, int) error                   { return nil }

func TestNewWiresSubsystemsWithDefaults(t *testing.T) {
	eng, err := New(nopProducer{}, compositor.NewSoftBackend())
	require.NoError(t, err)
	defer eng.Shutdown()

	assert.NotNil(t, eng.Handle)
	assert.NotNil(t, eng.Analyzer)
	assert.NotNil(t, eng.Evaluator)
	assert.NotNil(t, eng.Compositor)
	assert.NotNil(t, eng.Controls)
	assert.Equal(t, 60, eng.cfg.TargetFPS)
}

func TestNewAppliesAttrs(t *testing.T) {
	eng, err := New(nopProducer{}, compositor.NewSoftBackend(), FPS(30), Smoothing(0.9))
	require.NoError(t, err)
	defer eng.Shutdown()

	assert.Equal(t, 30, eng.cfg.TargetFPS)
	assert.Equal(t, 0.9, eng.cfg.Smoothing)
}

func TestAttachOutputRegistersSinkForLoop(t *testing.T) {
	eng, err := New(nopProducer{}, compositor.NewSoftBackend())
	require.NoError(t, err)
	defer eng.Shutdown()

	sink := &nopSink{}
	eng.AttachOutput(graph.ID(3), sink)
	assert.Same(t, sink, eng.loop.Outputs[graph.ID(3)])
}

func TestSetGraphPublishesToHandle(t *testing.T) {
	eng, err := New(nopProducer{}, compositor.NewSoftBackend())
	require.NoError(t, err)
	defer eng.Shutdown()

	g := graph.NewBuilder().Build()
	eng.SetGraph(g)
	assert.Same(t, g, eng.Handle.Load())
}

func TestPushControlReachesControlTable(t *testing.T) {
	eng, err := New(nopProducer{}, compositor.NewSoftBackend())
	require.NoError(t, err)
	defer eng.Shutdown()

	eng.PushControl("midi", "1:2", 0.75, 1000)
	v, ok := eng.Controls.Get(eval.ControlKey{Protocol: "midi", Address: "1:2"})
	assert.True(t, ok)
	assert.Equal(t, 0.75, v)
}

func TestEnableMetricsRegistersLoopMetrics(t *testing.T) {
	eng, err := New(nopProducer{}, compositor.NewSoftBackend())
	require.NoError(t, err)
	defer eng.Shutdown()

	reg := prometheus.NewRegistry()
	eng.EnableMetrics(reg)
	require.NotNil(t, eng.loop.Metrics)

	gathered, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, gathered)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	eng, err := New(nopProducer{}, compositor.NewSoftBackend(), FPS(200))
	require.NoError(t, err)
	defer eng.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = eng.Run(ctx, func() int64 { return time.Now().UnixMilli() })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestShutdownReleasesBackendWithoutPanicking(t *testing.T) {
	eng, err := New(nopProducer{}, compositor.NewSoftBackend())
	require.NoError(t, err)
	assert.NotPanics(t, func() { eng.Shutdown() })
}
