// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopologicalOrderRespectsEdges(t *testing.T) {
	b := NewBuilder()
	a := b.AddPart(Part{Kind: KindSource})
	m := b.AddPart(Part{Kind: KindModulator})
	l := b.AddPart(Part{Kind: KindLayerAssignment})
	require.NoError(t, b.Connect(Connection{
		From: Socket{Part: a, Name: "out", Type: SocketMedia},
		To:   Socket{Part: m, Name: "in", Type: SocketMedia},
	}))
	require.NoError(t, b.Connect(Connection{
		From: Socket{Part: m, Name: "out", Type: SocketMedia},
		To:   Socket{Part: l, Name: "in", Type: SocketMedia},
	}))

	g := b.Build()
	require.False(t, g.Degraded())
	pos := map[ID]int{}
	for i, id := range g.Order() {
		pos[id] = i
	}
	assert.Less(t, pos[a], pos[m])
	assert.Less(t, pos[m], pos[l])
}

func TestCyclicGraphIsDegraded(t *testing.T) {
	b := NewBuilder()
	a := b.AddPart(Part{Kind: KindSource})
	m := b.AddPart(Part{Kind: KindModulator})
	require.NoError(t, b.Connect(Connection{
		From: Socket{Part: a, Name: "out", Type: SocketMedia},
		To:   Socket{Part: m, Name: "in", Type: SocketMedia},
	}))
	require.NoError(t, b.Connect(Connection{
		From: Socket{Part: m, Name: "out", Type: SocketMedia},
		To:   Socket{Part: a, Name: "in", Type: SocketMedia},
	}))

	g := b.Build()
	assert.True(t, g.Degraded())
	assert.Nil(t, g.Order())
}

func TestConnectRejectsTypeMismatch(t *testing.T) {
	b := NewBuilder()
	a := b.AddPart(Part{Kind: KindTrigger})
	s := b.AddPart(Part{Kind: KindSource})
	err := b.Connect(Connection{
		From: Socket{Part: a, Name: "out", Type: SocketTrigger},
		To:   Socket{Part: s, Name: "in", Type: SocketMedia},
	})
	assert.Error(t, err)
}

func TestConnectRejectsSecondInputConnection(t *testing.T) {
	b := NewBuilder()
	a := b.AddPart(Part{Kind: KindSource})
	b2 := b.AddPart(Part{Kind: KindSource})
	m := b.AddPart(Part{Kind: KindModulator})
	to := Socket{Part: m, Name: "in", Type: SocketMedia}
	require.NoError(t, b.Connect(Connection{From: Socket{Part: a, Name: "out", Type: SocketMedia}, To: to}))
	err := b.Connect(Connection{From: Socket{Part: b2, Name: "out", Type: SocketMedia}, To: to})
	assert.Error(t, err)
}

func TestConnectRejectsNonMasterSlaveLink(t *testing.T) {
	b := NewBuilder()
	a := b.AddPart(Part{Kind: KindLayerAssignment, LinkMode: LinkOff})
	s := b.AddPart(Part{Kind: KindLayerAssignment, LinkMode: LinkSlave})
	err := b.Connect(Connection{
		From: Socket{Part: a, Name: "link", Type: SocketLink},
		To:   Socket{Part: s, Name: "link", Type: SocketLink},
	})
	assert.Error(t, err)
}

func TestDocumentValidateCatchesDanglingMeshReference(t *testing.T) {
	doc := &Document{
		Layers: []DocLayer{{ID: 1, MeshID: 99}},
	}
	assert.Error(t, doc.Validate())
}

func TestDocumentValidateAcceptsWellFormed(t *testing.T) {
	doc := &Document{
		Parts:   []DocPart{{ID: 1, Kind: "Source"}, {ID: 2, Kind: "LayerAssignment"}},
		Meshes:  []DocMesh{{ID: 5, Kind: "Quad4"}},
		Layers:  []DocLayer{{ID: 10, MeshID: 5}},
		Outputs: []DocOutput{{ID: 20, Layers: []uint32{10}}},
		Connections: []DocConnection{
			{FromPart: 1, FromSocket: "out", ToPart: 2, ToSocket: "in"},
		},
	}
	assert.NoError(t, doc.Validate())
}

func TestHandlePublishesLatestSnapshot(t *testing.T) {
	h := NewHandle()
	first := h.Load()
	b := NewBuilder()
	b.AddPart(Part{Kind: KindSource})
	second := b.Build()
	h.Store(second)
	assert.NotSame(t, first, h.Load())
	assert.Same(t, second, h.Load())
}
