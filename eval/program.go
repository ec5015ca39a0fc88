// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package eval

import (
	"github.com/mapflow/core/graph"
	"github.com/mapflow/core/iface"
)

// ShaderDispatch is the source-image handle a ShaderGenerator Source
// materializes into (§4.1 step 4): no decoded frame exists, so the
// handle is the dispatch itself and the compositor runs the shader.
type ShaderDispatch struct {
	ShaderID string
	Params   map[string]float64
}

// SolidFill is the source-image handle a SolidColor Source materializes
// into (§4.1 step 4).
type SolidFill struct{ R, G, B, A float64 }

// ResolvedEffect is one step of a LayerAssignment's effect chain after
// modulator assembly (§4.1 step 5): an EffectConfig with its Params
// already scaled by any preceding AudioReactive modulator.
type ResolvedEffect struct {
	Type   graph.EffectType
	Params map[string]float64
}

// LayerOp is what the evaluator recorded for one Layer this frame
// (§4.1 Output: "tuple (layer_id, source_image_handle, transform,
// opacity, blend_mode, mesh_ref, effect_chain)").
type LayerOp struct {
	LayerID       graph.ID
	Source        iface.ImageHandle
	SourceStale   bool
	Transform     graph.LayerTransform
	Opacity       float64
	BlendMode     string
	MeshID        graph.ID
	Effects       []ResolvedEffect
	AssignmentID  graph.ID // the LayerAssignment Part that won this layer, for conflict diagnostics
	AssignedRank  int      // topological rank of AssignmentID, used to resolve multi-assignment conflicts
}

// OutputOp is one Output's contribution to the render program (§4.1
// step 7): its layers in z-order, restricted to visible/non-bypassed,
// plus its edge-blend and color-calibration parameters.
type OutputOp struct {
	OutputID    graph.ID
	Layers      []graph.ID // z-order, already solo/bypass filtered
	EdgeBlend   graph.EdgeBlendParams
	Calibration graph.ColorCalibrationParams
}

// Conflict records a multi-assignment conflict on one layer this frame
// (§4.1 step 6: "Record the conflict for the test suite").
type Conflict struct {
	LayerID graph.ID
	Winner  graph.ID
	Losers  []graph.ID
}

// RenderProgram is the evaluator's per-frame output (§4.1 Output).
type RenderProgram struct {
	Layers    map[graph.ID]LayerOp
	Outputs   []OutputOp
	Conflicts []Conflict

	// Degraded mirrors graph.Graph.Degraded: true when the committed
	// graph was cyclic and this program is the last good one replayed
	// verbatim (§4.1 Failure semantics, §7, §8).
	Degraded bool
}

// clone returns a shallow-independent copy safe to hand out while the
// evaluator keeps its own copy as the last good program (e.program).
func (p *RenderProgram) clone() *RenderProgram {
	if p == nil {
		return nil
	}
	cp := &RenderProgram{
		Layers:    make(map[graph.ID]LayerOp, len(p.Layers)),
		Outputs:   append([]OutputOp(nil), p.Outputs...),
		Conflicts: append([]Conflict(nil), p.Conflicts...),
		Degraded:  p.Degraded,
	}
	for k, v := range p.Layers {
		cp.Layers[k] = v
	}
	return cp
}
