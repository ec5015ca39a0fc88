// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package eval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapflow/core/audio"
	"github.com/mapflow/core/graph"
	"github.com/mapflow/core/iface"
)

// fakeProducer always returns a ready frame tagged with its path, so
// tests can assert on which Source ended up on a layer.
type fakeProducer struct {
	opened map[iface.StreamHandle]string
	next   int
}

func newFakeProducer() *fakeProducer { return &fakeProducer{opened: map[iface.StreamHandle]string{}} }

func (f *fakeProducer) Open(spec iface.SourceSpec) (iface.StreamHandle, error) {
	f.next++
	h := f.next
	f.opened[h] = spec.Path
	return h, nil
}

func (f *fakeProducer) RequestFrame(_ context.Context, h iface.StreamHandle, tPlaybackMs int64, _ iface.PlaybackFlags) (iface.FrameResult, error) {
	return iface.FrameResult{State: iface.FrameReady, Image: f.opened[h], PtsMs: tPlaybackMs}, nil
}

func (f *fakeProducer) Close(h iface.StreamHandle) error { return nil }

// trackingProducer records every playhead value RequestFrame was
// called with, so tests can assert the evaluator actually advances it.
type trackingProducer struct {
	playheads []int64
}

func (f *trackingProducer) Open(iface.SourceSpec) (iface.StreamHandle, error) { return 1, nil }

func (f *trackingProducer) RequestFrame(_ context.Context, _ iface.StreamHandle, tPlaybackMs int64, _ iface.PlaybackFlags) (iface.FrameResult, error) {
	f.playheads = append(f.playheads, tPlaybackMs)
	return iface.FrameResult{State: iface.FrameReady, Image: "frame", PtsMs: tPlaybackMs}, nil
}

func (f *trackingProducer) Close(iface.StreamHandle) error { return nil }

func buildSimpleGraph(t *testing.T) (*graph.Graph, graph.ID, graph.ID, graph.ID) {
	t.Helper()
	b := graph.NewBuilder()
	source := b.AddPart(graph.Part{Kind: graph.KindSource, SubKind: "SolidColor", Config: graph.SolidColorConfig{R: 1, G: 0, B: 0, A: 1}})
	layer := b.AddLayer(graph.Layer{Visible: true})
	assignment := b.AddPart(graph.Part{
		Kind: graph.KindLayerAssignment, SubKind: "SingleLayer",
		Config: graph.SingleLayerConfig{LayerID: layer, Opacity: 1, BlendMode: "Normal"},
	})
	require.NoError(t, b.Connect(graph.Connection{
		From: graph.Socket{Part: source, Name: graph.SocketNameMediaOut, Type: graph.SocketMedia},
		To:   graph.Socket{Part: assignment, Name: graph.SocketNameMediaIn, Type: graph.SocketMedia},
	}))
	out := b.AddOutput(graph.Output{Layers: []graph.ID{layer}})
	g := b.Build()
	require.False(t, g.Degraded())
	return g, source, assignment, out
}

func TestEvaluateSolidColorThroughSingleLayer(t *testing.T) {
	g, _, _, out := buildSimpleGraph(t)
	ev := NewEvaluator(newFakeProducer(), 1)
	ct := NewControlTable()

	prog := ev.Evaluate(g, audio.AudioAnalysis{}, ct, 0)

	require.Len(t, prog.Outputs, 1)
	assert.Equal(t, out, prog.Outputs[0].OutputID)
	require.Len(t, prog.Outputs[0].Layers, 1)
	layerID := prog.Outputs[0].Layers[0]
	op := prog.Layers[layerID]
	fill, ok := op.Source.(SolidFill)
	require.True(t, ok, "expected a SolidFill handle, got %T", op.Source)
	assert.Equal(t, 1.0, fill.R)
	assert.False(t, op.SourceStale)
}

func TestEvaluateBeatGatedLayerOnlyOnBeatFrame(t *testing.T) {
	b := graph.NewBuilder()
	trigger := b.AddPart(graph.Part{Kind: graph.KindTrigger, SubKind: "AudioBeat", Config: graph.AudioBeatConfig{}})
	source := b.AddPart(graph.Part{Kind: graph.KindSource, SubKind: "SolidColor", Config: graph.SolidColorConfig{A: 1}})
	layer := b.AddLayer(graph.Layer{Visible: true})
	assignment := b.AddPart(graph.Part{
		Kind: graph.KindLayerAssignment, SubKind: "SingleLayer",
		Config: graph.SingleLayerConfig{LayerID: layer, Opacity: 1, BlendMode: "Normal"},
	})
	require.NoError(t, b.Connect(graph.Connection{
		From: graph.Socket{Part: source, Name: graph.SocketNameMediaOut, Type: graph.SocketMedia},
		To:   graph.Socket{Part: assignment, Name: graph.SocketNameMediaIn, Type: graph.SocketMedia},
	}))
	require.NoError(t, b.Connect(graph.Connection{
		From: graph.Socket{Part: trigger, Name: graph.SocketNameTriggerOut, Type: graph.SocketTrigger},
		To:   graph.Socket{Part: assignment, Name: graph.SocketNameTriggerIn, Type: graph.SocketTrigger},
	}))
	b.AddOutput(graph.Output{Layers: []graph.ID{layer}})
	g := b.Build()

	ev := NewEvaluator(newFakeProducer(), 1)
	ct := NewControlTable()

	noBeat := ev.Evaluate(g, audio.AudioAnalysis{Beat: false}, ct, 0)
	assert.Empty(t, noBeat.Outputs[0].Layers)

	onBeat := ev.Evaluate(g, audio.AudioAnalysis{Beat: true}, ct, 16)
	require.Len(t, onBeat.Outputs[0].Layers, 1)
}

func TestEvaluateMasterSlaveInverted(t *testing.T) {
	b := graph.NewBuilder()
	trigger := b.AddPart(graph.Part{Kind: graph.KindTrigger, SubKind: "Shortcut", Config: graph.ShortcutConfig{Key: "space"}})
	master := b.AddPart(graph.Part{Kind: graph.KindModulator, LinkMode: graph.LinkMaster})
	source := b.AddPart(graph.Part{Kind: graph.KindSource, SubKind: "SolidColor", Config: graph.SolidColorConfig{A: 1}})
	layer := b.AddLayer(graph.Layer{Visible: true})
	slave := b.AddPart(graph.Part{
		Kind: graph.KindLayerAssignment, SubKind: "SingleLayer", LinkMode: graph.LinkSlave, LinkBehavior: graph.Inverted,
		Config: graph.SingleLayerConfig{LayerID: layer, Opacity: 1, BlendMode: "Normal"},
	})

	require.NoError(t, b.Connect(graph.Connection{
		From: graph.Socket{Part: trigger, Name: graph.SocketNameTriggerOut, Type: graph.SocketTrigger},
		To:   graph.Socket{Part: master, Name: graph.SocketNameTriggerIn, Type: graph.SocketTrigger},
	}))
	require.NoError(t, b.Connect(graph.Connection{
		From: graph.Socket{Part: master, Name: graph.SocketNameLinkOut, Type: graph.SocketLink},
		To:   graph.Socket{Part: slave, Name: graph.SocketNameLinkIn, Type: graph.SocketLink},
	}))
	require.NoError(t, b.Connect(graph.Connection{
		From: graph.Socket{Part: source, Name: graph.SocketNameMediaOut, Type: graph.SocketMedia},
		To:   graph.Socket{Part: slave, Name: graph.SocketNameMediaIn, Type: graph.SocketMedia},
	}))
	b.AddOutput(graph.Output{Layers: []graph.ID{layer}})
	g := b.Build()

	ev := NewEvaluator(newFakeProducer(), 1)
	ct := NewControlTable()
	ct.Push(ControlKey{Protocol: "shortcut", Address: "space"}, 1.0, 0)

	// Master active (trigger=1) -> Slave inverted -> Slave off -> layer empty.
	prog := ev.Evaluate(g, audio.AudioAnalysis{}, ct, 0)
	assert.Empty(t, prog.Outputs[0].Layers)

	ct.Push(ControlKey{Protocol: "shortcut", Address: "space"}, 0.0, 16)
	prog = ev.Evaluate(g, audio.AudioAnalysis{}, ct, 16)
	require.Len(t, prog.Outputs[0].Layers, 1)
}

func TestEvaluateTwoOutputsShareOneSource(t *testing.T) {
	b := graph.NewBuilder()
	source := b.AddPart(graph.Part{Kind: graph.KindSource, SubKind: "SolidColor", Config: graph.SolidColorConfig{A: 1}})
	layerA := b.AddLayer(graph.Layer{Visible: true})
	layerB := b.AddLayer(graph.Layer{Visible: true})
	assignment := b.AddPart(graph.Part{
		Kind: graph.KindLayerAssignment, SubKind: "AllLayers",
		Config: graph.AllLayersConfig{Opacity: 1, BlendMode: "Normal"},
	})
	require.NoError(t, b.Connect(graph.Connection{
		From: graph.Socket{Part: source, Name: graph.SocketNameMediaOut, Type: graph.SocketMedia},
		To:   graph.Socket{Part: assignment, Name: graph.SocketNameMediaIn, Type: graph.SocketMedia},
	}))
	outA := b.AddOutput(graph.Output{Layers: []graph.ID{layerA}})
	outB := b.AddOutput(graph.Output{Layers: []graph.ID{layerB}})
	g := b.Build()

	ev := NewEvaluator(newFakeProducer(), 1)
	prog := ev.Evaluate(g, audio.AudioAnalysis{}, NewControlTable(), 0)

	require.Len(t, prog.Outputs, 2)
	got := map[graph.ID]bool{}
	for _, o := range prog.Outputs {
		require.Len(t, o.Layers, 1)
		got[o.OutputID] = true
	}
	assert.True(t, got[outA])
	assert.True(t, got[outB])
}

func TestCyclicGraphReplaysLastProgram(t *testing.T) {
	g, _, _, _ := buildSimpleGraph(t)
	ev := NewEvaluator(newFakeProducer(), 1)
	first := ev.Evaluate(g, audio.AudioAnalysis{}, NewControlTable(), 0)
	require.False(t, first.Degraded)

	b2 := graph.NewBuilder()
	a := b2.AddPart(graph.Part{Kind: graph.KindModulator})
	c := b2.AddPart(graph.Part{Kind: graph.KindModulator})
	require.NoError(t, b2.Connect(graph.Connection{
		From: graph.Socket{Part: a, Name: graph.SocketNameMediaOut, Type: graph.SocketMedia},
		To:   graph.Socket{Part: c, Name: graph.SocketNameMediaIn, Type: graph.SocketMedia},
	}))
	require.NoError(t, b2.Connect(graph.Connection{
		From: graph.Socket{Part: c, Name: graph.SocketNameMediaOut, Type: graph.SocketMedia},
		To:   graph.Socket{Part: a, Name: graph.SocketNameMediaIn, Type: graph.SocketMedia},
	}))
	cyclic := b2.Build()
	require.True(t, cyclic.Degraded())

	second := ev.Evaluate(cyclic, audio.AudioAnalysis{}, NewControlTable(), 16)
	assert.True(t, second.Degraded)
	assert.Equal(t, len(first.Outputs), len(second.Outputs))
}

func buildMediaFileGraph(t *testing.T, cfg graph.MediaFileConfig) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder()
	source := b.AddPart(graph.Part{Kind: graph.KindSource, SubKind: "MediaFile", Config: cfg})
	layer := b.AddLayer(graph.Layer{Visible: true})
	assignment := b.AddPart(graph.Part{
		Kind: graph.KindLayerAssignment, SubKind: "SingleLayer",
		Config: graph.SingleLayerConfig{LayerID: layer, Opacity: 1, BlendMode: "Normal"},
	})
	require.NoError(t, b.Connect(graph.Connection{
		From: graph.Socket{Part: source, Name: graph.SocketNameMediaOut, Type: graph.SocketMedia},
		To:   graph.Socket{Part: assignment, Name: graph.SocketNameMediaIn, Type: graph.SocketMedia},
	}))
	b.AddOutput(graph.Output{Layers: []graph.ID{layer}})
	return b.Build()
}

func TestMediaFilePlayheadAdvancesWithTime(t *testing.T) {
	g := buildMediaFileGraph(t, graph.MediaFileConfig{Path: "clip.mp4", Speed: 1})
	prod := &trackingProducer{}
	ev := NewEvaluator(prod, 1)
	ct := NewControlTable()

	ev.Evaluate(g, audio.AudioAnalysis{}, ct, 0)
	ev.Evaluate(g, audio.AudioAnalysis{}, ct, 100)
	ev.Evaluate(g, audio.AudioAnalysis{}, ct, 250)

	require.Len(t, prod.playheads, 3)
	assert.Equal(t, []int64{0, 100, 250}, prod.playheads)
}

func TestMediaFilePlayheadReversesWhenConfigured(t *testing.T) {
	g := buildMediaFileGraph(t, graph.MediaFileConfig{Path: "clip.mp4", Speed: 1, Reverse: true, TrimStartMs: 0, TrimEndMs: 1000})
	prod := &trackingProducer{}
	ev := NewEvaluator(prod, 1)
	ct := NewControlTable()

	ev.Evaluate(g, audio.AudioAnalysis{}, ct, 0)
	ev.Evaluate(g, audio.AudioAnalysis{}, ct, 100)

	require.Len(t, prod.playheads, 2)
	assert.Equal(t, int64(0), prod.playheads[0])
	assert.LessOrEqual(t, prod.playheads[1], prod.playheads[0])
}

func TestMediaFilePlayheadLoopsWithinTrimWindow(t *testing.T) {
	g := buildMediaFileGraph(t, graph.MediaFileConfig{Path: "clip.mp4", Speed: 1, Loop: true, TrimStartMs: 0, TrimEndMs: 100})
	prod := &trackingProducer{}
	ev := NewEvaluator(prod, 1)
	ct := NewControlTable()

	ev.Evaluate(g, audio.AudioAnalysis{}, ct, 0)
	ev.Evaluate(g, audio.AudioAnalysis{}, ct, 150) // advances 150ms, should wrap inside [0,100)

	require.Len(t, prod.playheads, 2)
	assert.GreaterOrEqual(t, prod.playheads[1], int64(0))
	assert.Less(t, prod.playheads[1], int64(100))
}
