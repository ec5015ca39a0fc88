// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package graph

import "sync/atomic"

// Handle publishes Graph snapshots from the editor thread to the
// render thread (§5: "the graph is shared, immutable per frame; the
// editor produces a new version; an atomic swap publishes it").
//
// Generalized from the teacher's app.Set(attrs ...EngAttr) pattern
// (app.go): there the whole application was a single mutable instance
// guarded by deferring mutation to the main thread; here there is no
// single thread to defer to, so the editor builds a complete new
// Graph and Store swaps it in atomically instead.
type Handle struct {
	p atomic.Pointer[Graph]
}

// NewHandle returns a Handle publishing the empty graph.
func NewHandle() *Handle {
	h := &Handle{}
	h.p.Store(NewBuilder().Build())
	return h
}

// Store publishes g as the current snapshot. Called from the editor
// thread only.
func (h *Handle) Store(g *Graph) { h.p.Store(g) }

// Load returns the current snapshot. Called once at the top of every
// scheduler tick (§5 Ordering guarantees: "graph mutations committed
// mid-frame take effect next frame") — never mid-evaluation.
func (h *Handle) Load() *Graph { return h.p.Load() }
