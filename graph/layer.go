// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package graph

// Layer is a z-ordered rendering slot (§3): a stable id, a blend
// mode, an opacity, visibility/solo/bypass flags, a mesh reference, a
// group name and a z-order. The source assigned to a Layer each frame
// is not stored here; the evaluator carries it in eval.LayerOp.
type Layer struct {
	ID        ID
	Group     string // membership used by a LayerAssignment's GroupConfig{GroupName}
	BlendMode string
	Opacity   float64
	Visible   bool
	Solo      bool
	Bypass    bool
	MeshID    ID
	ZOrder    int
}

// Output is an addressable destination consuming one composited image
// per frame (§3).
type Output struct {
	ID     ID
	Kind   PartKind // always KindOutput; Config below holds the subkind.
	Config any      // one of ProjectorConfig, PreviewConfig, NDIOutputConfig, SpoutOutputConfig

	Width, Height int
	EdgeBlend     EdgeBlendParams
	Calibration   ColorCalibrationParams

	// Layers lists, in z-order, the Layer ids contributing to this
	// Output (§4.1 step 7: "walk its inbound Layer/Output references").
	Layers []ID
}

// EdgeBlendParams mirrors compositor.EdgeWidths in the persisted/graph
// domain so graph has no import-time dependency on compositor.
type EdgeBlendParams struct {
	Left, Right, Top, Bottom float64
	Gamma                    float64
}

// ColorCalibrationParams mirrors compositor.Calibration in the
// persisted/graph domain.
type ColorCalibrationParams struct {
	Brightness             float64
	Contrast               float64
	GammaR, GammaG, GammaB float64
	Saturation             float64
	TemperatureK           float64
}

// MeshRef describes one mesh owned by the graph (§3 Mesh). The actual
// tessellation lives in package mesh; this is the persisted
// description a LayerAssignment's MeshID points at.
type MeshRef struct {
	ID       ID
	Kind     string // Quad4|Grid|Bezier|Polygon
	Config   any
	Revision uint64
}
