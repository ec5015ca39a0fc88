// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package graph

import "fmt"

// Document is the persisted-state root (§6 "Persisted state"): a
// flat, tagged description of Parts, Connections, Layers, and
// Outputs an external codec can round-trip. Full (de)serialization is
// an external collaborator per §1, but the core still fixes this
// shape and validates it, using gopkg.in/yaml.v3 as the concrete
// encoding (already a teacher dependency, used the same way the
// teacher's asset descriptors are loaded as structured text).
type Document struct {
	Parts       []DocPart       `yaml:"parts"`
	Connections []DocConnection `yaml:"connections"`
	Layers      []DocLayer      `yaml:"layers"`
	Outputs     []DocOutput     `yaml:"outputs"`
	Meshes      []DocMesh       `yaml:"meshes"`
}

// DocPart is one Part's persisted fields (§6: "id, kind, config,
// position, link_mode, link_behavior").
type DocPart struct {
	ID           uint32         `yaml:"id"`
	Kind         string         `yaml:"kind"`
	SubKind      string         `yaml:"sub_kind"`
	Config       map[string]any `yaml:"config"`
	PosX         float64        `yaml:"pos_x"`
	PosY         float64        `yaml:"pos_y"`
	Collapsed    bool           `yaml:"collapsed"`
	LinkMode     string         `yaml:"link_mode"`
	LinkBehavior string         `yaml:"link_behavior,omitempty"`
	InvertOutput bool           `yaml:"invert_output,omitempty"`
}

// DocConnection is one Connection's persisted fields (§6: "from_part,
// from_socket, to_part, to_socket").
type DocConnection struct {
	FromPart   uint32 `yaml:"from_part"`
	FromSocket string `yaml:"from_socket"`
	ToPart     uint32 `yaml:"to_part"`
	ToSocket   string `yaml:"to_socket"`
}

// DocLayer is one Layer's persisted fields (§6: "id, blend_mode,
// opacity, visibility, solo, bypass, mesh").
type DocLayer struct {
	ID        uint32  `yaml:"id"`
	BlendMode string  `yaml:"blend_mode"`
	Opacity   float64 `yaml:"opacity"`
	Visible   bool    `yaml:"visibility"`
	Solo      bool    `yaml:"solo"`
	Bypass    bool    `yaml:"bypass"`
	MeshID    uint32  `yaml:"mesh"`
	ZOrder    int     `yaml:"z_order"`
}

// DocOutput is one Output's persisted fields (§6: "id, resolution,
// edge_blend, color_calibration").
type DocOutput struct {
	ID          uint32         `yaml:"id"`
	Kind        string         `yaml:"kind"`
	Config      map[string]any `yaml:"config"`
	Width       int            `yaml:"width"`
	Height      int            `yaml:"height"`
	EdgeBlend   DocEdgeBlend   `yaml:"edge_blend"`
	Calibration DocCalibration `yaml:"color_calibration"`
	Layers      []uint32       `yaml:"layers"`
}

type DocEdgeBlend struct {
	Left   float64 `yaml:"left"`
	Right  float64 `yaml:"right"`
	Top    float64 `yaml:"top"`
	Bottom float64 `yaml:"bottom"`
	Gamma  float64 `yaml:"gamma"`
}

type DocCalibration struct {
	Brightness   float64 `yaml:"brightness"`
	Contrast     float64 `yaml:"contrast"`
	GammaR       float64 `yaml:"gamma_r"`
	GammaG       float64 `yaml:"gamma_g"`
	GammaB       float64 `yaml:"gamma_b"`
	Saturation   float64 `yaml:"saturation"`
	TemperatureK float64 `yaml:"temperature_k"`
}

// DocMesh is one Mesh's persisted fields.
type DocMesh struct {
	ID     uint32         `yaml:"id"`
	Kind   string         `yaml:"kind"`
	Config map[string]any `yaml:"config"`
}

// Validate checks the round-trip invariants §8 requires of a
// deserialized Document before it is built into a Graph: every
// reference resolves, and every input socket receives at most one
// connection.
func (d *Document) Validate() error {
	partIDs := make(map[uint32]bool, len(d.Parts))
	for _, p := range d.Parts {
		if partIDs[p.ID] {
			return fmt.Errorf("graph document: duplicate part id %d", p.ID)
		}
		partIDs[p.ID] = true
	}
	layerIDs := make(map[uint32]bool, len(d.Layers))
	for _, l := range d.Layers {
		layerIDs[l.ID] = true
	}
	meshIDs := make(map[uint32]bool, len(d.Meshes))
	for _, m := range d.Meshes {
		meshIDs[m.ID] = true
	}

	seenInputs := make(map[string]bool, len(d.Connections))
	for _, c := range d.Connections {
		if !partIDs[c.FromPart] {
			return fmt.Errorf("graph document: connection references missing part %d", c.FromPart)
		}
		if !partIDs[c.ToPart] {
			return fmt.Errorf("graph document: connection references missing part %d", c.ToPart)
		}
		key := fmt.Sprintf("%d:%s", c.ToPart, c.ToSocket)
		if seenInputs[key] {
			return fmt.Errorf("graph document: input socket %s already connected", key)
		}
		seenInputs[key] = true
	}
	for _, l := range d.Layers {
		if l.MeshID != 0 && !meshIDs[l.MeshID] {
			return fmt.Errorf("graph document: layer %d references missing mesh %d", l.ID, l.MeshID)
		}
	}
	for _, o := range d.Outputs {
		for _, lid := range o.Layers {
			if !layerIDs[lid] {
				return fmt.Errorf("graph document: output %d references missing layer %d", o.ID, lid)
			}
		}
	}
	return nil
}
