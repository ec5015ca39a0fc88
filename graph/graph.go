// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package graph

import "sort"

// Graph is an immutable-per-frame snapshot of the node graph (§3, §5:
// "the graph is shared, immutable per frame"). The render thread reads
// one *Graph per frame via Handle.Load; the editor thread only ever
// produces new Graphs through a Builder and commits them via
// Handle.Store — generalized from the teacher's app.Set /
// setAttributes deferred-to-main-thread pattern (app.go) into a
// copy-on-write handle, since MapFlow has no single "main thread" the
// way a single-window 3D app does.
type Graph struct {
	Parts       map[ID]*Part
	Connections []Connection
	Layers      map[ID]*Layer
	Outputs     map[ID]*Output
	Meshes      map[ID]*MeshRef

	order   []ID // cached topological order, nil until computed
	degraded bool // true if the committed graph was cyclic and order is stale
}

// Builder mutates a working copy of a Graph. The zero Builder is not
// ready for use; call NewBuilder.
type Builder struct {
	parts     idTable
	layers    idTable
	meshes    idTable
	outputs   idTable
	g         *Graph
}

// NewBuilder starts an empty graph.
func NewBuilder() *Builder {
	return &Builder{g: &Graph{
		Parts:   map[ID]*Part{},
		Layers:  map[ID]*Layer{},
		Outputs: map[ID]*Output{},
		Meshes:  map[ID]*MeshRef{},
	}}
}

// AddPart allocates a new Part id and inserts p (p.ID is overwritten).
func (b *Builder) AddPart(p Part) ID {
	id := b.parts.create()
	p.ID = id
	b.g.Parts[id] = &p
	b.g.order = nil
	return id
}

// RemovePart deletes a Part and every Connection touching it.
func (b *Builder) RemovePart(id ID) {
	if _, ok := b.g.Parts[id]; !ok {
		return
	}
	delete(b.g.Parts, id)
	kept := b.g.Connections[:0]
	for _, c := range b.g.Connections {
		if c.From.Part != id && c.To.Part != id {
			kept = append(kept, c)
		}
	}
	b.g.Connections = kept
	b.parts.dispose(id)
	b.g.order = nil
}

// Connect validates and adds a Connection, enforcing §3's "each input
// socket accepts at most one incoming connection" invariant.
func (b *Builder) Connect(c Connection) error {
	if err := validateConnection(b.g.Parts, c); err != nil {
		return err
	}
	for _, existing := range b.g.Connections {
		if existing.To == c.To {
			return &IntegrityError{Reason: "input socket already connected"}
		}
	}
	b.g.Connections = append(b.g.Connections, c)
	b.g.order = nil
	return nil
}

// Disconnect removes any connection matching from->to exactly.
func (b *Builder) Disconnect(from, to Socket) {
	kept := b.g.Connections[:0]
	for _, c := range b.g.Connections {
		if c.From != from || c.To != to {
			kept = append(kept, c)
		}
	}
	b.g.Connections = kept
	b.g.order = nil
}

// AddLayer allocates a new Layer id and inserts l.
func (b *Builder) AddLayer(l Layer) ID {
	id := b.layers.create()
	l.ID = id
	b.g.Layers[id] = &l
	return id
}

// AddMesh allocates a new Mesh id and inserts m.
func (b *Builder) AddMesh(m MeshRef) ID {
	id := b.meshes.create()
	m.ID = id
	b.g.Meshes[id] = &m
	return id
}

// AddOutput allocates a new Output id and inserts o.
func (b *Builder) AddOutput(o Output) ID {
	id := b.outputs.create()
	o.ID = id
	o.Kind = KindOutput
	b.g.Outputs[id] = &o
	return id
}

// Build finalizes the working graph into an immutable snapshot ready
// for publication through a Handle. The topological order is computed
// (and cycle-checked) eagerly so Handle.Store never blocks the render
// thread on a cyclic-graph evaluation (§4.1 step 1, §7).
func (b *Builder) Build() *Graph {
	g := b.g
	order, err := topologicalOrder(g.Parts, g.Connections)
	if err != nil {
		g.degraded = true
		g.order = nil
	} else {
		g.degraded = false
		g.order = order
	}
	return g
}

// Degraded reports whether the last Build saw a cyclic graph (§8:
// "cyclic graph committed -> last non-cyclic program replayed;
// degraded=true").
func (g *Graph) Degraded() bool { return g.degraded }

// Order returns the cached topological order of Part ids, or nil if
// the graph is currently degraded (cyclic).
func (g *Graph) Order() []ID { return g.order }

// topologicalOrder computes a deterministic topological order over
// Parts using their Connections as edges (source -> destination
// Part), breaking ties by Part id as §4.1 step 1 requires. Returns an
// error (rather than a partial order) if the graph is cyclic.
func topologicalOrder(parts map[ID]*Part, conns []Connection) ([]ID, error) {
	inDegree := make(map[ID]int, len(parts))
	adj := make(map[ID][]ID, len(parts))
	for id := range parts {
		inDegree[id] = 0
	}
	for _, c := range conns {
		if c.From.Part == c.To.Part {
			continue
		}
		adj[c.From.Part] = append(adj[c.From.Part], c.To.Part)
		inDegree[c.To.Part]++
	}

	var ready []ID
	for id, d := range inDegree {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })

	order := make([]ID, 0, len(parts))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		next := append([]ID(nil), adj[n]...)
		sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
		for _, m := range next {
			inDegree[m]--
			if inDegree[m] == 0 {
				ready = append(ready, m)
			}
		}
	}
	if len(order) != len(parts) {
		return nil, &IntegrityError{Reason: "cycle detected"}
	}
	return order, nil
}
