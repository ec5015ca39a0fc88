// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package graph

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/mapflow/core/mesh"
)

// configFactories maps Kind+SubKind to a fresh zero-value Config
// pointer to decode a DocPart's raw map into. Built once; extending
// the closed Part union (§9: no runtime plugin loading) means adding
// an entry here.
var configFactories = map[string]func() any{
	"Trigger/AudioBand": func() any { return &AudioBandConfig{} },
	"Trigger/AudioRMS":  func() any { return &AudioRMSConfig{} },
	"Trigger/AudioPeak": func() any { return &AudioPeakConfig{} },
	"Trigger/AudioBeat": func() any { return &AudioBeatConfig{} },
	"Trigger/AudioBPM":  func() any { return &AudioBPMConfig{} },
	"Trigger/MIDI":      func() any { return &MIDIConfig{} },
	"Trigger/OSC":       func() any { return &OSCConfig{} },
	"Trigger/Shortcut":  func() any { return &ShortcutConfig{} },
	"Trigger/Fixed":     func() any { return &FixedConfig{} },
	"Trigger/Random":    func() any { return &RandomConfig{} },

	"Source/MediaFile":      func() any { return &MediaFileConfig{} },
	"Source/LiveInput":      func() any { return &LiveInputConfig{} },
	"Source/NDIInput":       func() any { return &NDIInputConfig{} },
	"Source/ShaderGenerator": func() any { return &ShaderGeneratorConfig{} },
	"Source/SolidColor":     func() any { return &SolidColorConfig{} },

	"Mask/FileMask":     func() any { return &FileMaskConfig{} },
	"Mask/ShapeMask":    func() any { return &ShapeMaskConfig{} },
	"Mask/GradientMask": func() any { return &GradientMaskConfig{} },

	"Modulator/Effect":          func() any { return &EffectConfig{} },
	"Modulator/BlendOverride":   func() any { return &BlendOverrideConfig{} },
	"Modulator/AudioReactive":   func() any { return &AudioReactiveConfig{} },

	"LayerAssignment/SingleLayer": func() any { return &SingleLayerConfig{} },
	"LayerAssignment/Group":       func() any { return &GroupConfig{} },
	"LayerAssignment/AllLayers":   func() any { return &AllLayersConfig{} },

	"Output/Projector": func() any { return &ProjectorConfig{} },
	"Output/Preview":   func() any { return &PreviewConfig{} },
	"Output/NDIOutput": func() any { return &NDIOutputConfig{} },
	"Output/SpoutOutput": func() any { return &SpoutOutputConfig{} },
}

var kindNames = map[string]PartKind{
	"Trigger":         KindTrigger,
	"Source":          KindSource,
	"Mask":            KindMask,
	"Modulator":       KindModulator,
	"LayerAssignment": KindLayerAssignment,
	"Output":          KindOutput,
}

var linkModeNames = map[string]LinkMode{
	"":      LinkOff,
	"Off":   LinkOff,
	"Master": LinkMaster,
	"Slave":  LinkSlave,
}

var linkBehaviorNames = map[string]LinkBehavior{
	"":            SameAsMaster,
	"SameAsMaster": SameAsMaster,
	"Inverted":     Inverted,
}

// decodeConfig turns a DocPart's raw map into its typed Config by
// round-tripping through yaml: the map was itself produced from yaml
// (or an equivalent structured format), so re-marshaling it and
// unmarshaling into the target struct reuses the same decoder the
// Document type is already built on, instead of hand-writing one
// field-copy function per subkind.
func decodeConfig(kind PartKind, subKind string, raw map[string]any) (any, error) {
	factory, ok := configFactories[kindLabel(kind)+"/"+subKind]
	if !ok {
		return nil, fmt.Errorf("graph document: unknown kind/subkind %q/%q", kindLabel(kind), subKind)
	}
	target := factory()
	if raw == nil {
		return derefNew(target), nil
	}
	bytes, err := yaml.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("graph document: re-marshal config: %w", err)
	}
	if err := yaml.Unmarshal(bytes, target); err != nil {
		return nil, fmt.Errorf("graph document: decode %s/%s config: %w", kindLabel(kind), subKind, err)
	}
	return derefNew(target), nil
}

// derefNew dereferences the pointer decodeConfig's factories produce,
// since Part.Config stores the value, not a pointer to it.
func derefNew(ptr any) any {
	switch v := ptr.(type) {
	case *AudioBandConfig:
		return *v
	case *AudioRMSConfig:
		return *v
	case *AudioPeakConfig:
		return *v
	case *AudioBeatConfig:
		return *v
	case *AudioBPMConfig:
		return *v
	case *MIDIConfig:
		return *v
	case *OSCConfig:
		return *v
	case *ShortcutConfig:
		return *v
	case *FixedConfig:
		return *v
	case *RandomConfig:
		return *v
	case *MediaFileConfig:
		return *v
	case *LiveInputConfig:
		return *v
	case *NDIInputConfig:
		return *v
	case *ShaderGeneratorConfig:
		return *v
	case *SolidColorConfig:
		return *v
	case *FileMaskConfig:
		return *v
	case *ShapeMaskConfig:
		return *v
	case *GradientMaskConfig:
		return *v
	case *EffectConfig:
		return *v
	case *BlendOverrideConfig:
		return *v
	case *AudioReactiveConfig:
		return *v
	case *SingleLayerConfig:
		return *v
	case *GroupConfig:
		return *v
	case *AllLayersConfig:
		return *v
	case *ProjectorConfig:
		return *v
	case *PreviewConfig:
		return *v
	case *NDIOutputConfig:
		return *v
	case *SpoutOutputConfig:
		return *v
	default:
		return ptr
	}
}

func kindLabel(k PartKind) string {
	for name, v := range kindNames {
		if v == k {
			return name
		}
	}
	return ""
}

// FromDocument builds a Graph from a validated Document (§6 Persisted
// state), remapping the document's plain uint32 ids onto the
// generational ids the runtime Graph uses internally. Call
// Document.Validate first; FromDocument assumes referential integrity.
func FromDocument(doc *Document) (*Graph, error) {
	b := NewBuilder()

	meshByDoc := make(map[uint32]ID, len(doc.Meshes))
	for _, m := range doc.Meshes {
		cfg, err := decodeMeshConfig(m.Kind, m.Config)
		if err != nil {
			return nil, err
		}
		id := b.AddMesh(MeshRef{Kind: m.Kind, Config: cfg})
		meshByDoc[m.ID] = id
	}

	layerByDoc := make(map[uint32]ID, len(doc.Layers))
	for _, l := range doc.Layers {
		id := b.AddLayer(Layer{
			BlendMode: l.BlendMode,
			Opacity:   l.Opacity,
			Visible:   l.Visible,
			Solo:      l.Solo,
			Bypass:    l.Bypass,
			MeshID:    meshByDoc[l.MeshID],
			ZOrder:    l.ZOrder,
		})
		layerByDoc[l.ID] = id
	}

	partByDoc := make(map[uint32]ID, len(doc.Parts))
	for _, p := range doc.Parts {
		kind, ok := kindNames[p.Kind]
		if !ok {
			return nil, fmt.Errorf("graph document: unknown part kind %q", p.Kind)
		}
		cfg, err := decodeConfig(kind, p.SubKind, p.Config)
		if err != nil {
			return nil, err
		}
		cfg = remapConfigIDs(cfg, layerByDoc, meshByDoc)
		id := b.AddPart(Part{
			Kind:         kind,
			SubKind:      p.SubKind,
			Config:       cfg,
			Position:     [2]float64{p.PosX, p.PosY},
			Collapsed:    p.Collapsed,
			LinkMode:     linkModeNames[p.LinkMode],
			LinkBehavior: linkBehaviorNames[p.LinkBehavior],
			InvertOutput: p.InvertOutput,
		})
		partByDoc[p.ID] = id
	}

	for _, c := range doc.Connections {
		from, ok := partByDoc[c.FromPart]
		if !ok {
			return nil, fmt.Errorf("graph document: connection references missing part %d", c.FromPart)
		}
		to, ok := partByDoc[c.ToPart]
		if !ok {
			return nil, fmt.Errorf("graph document: connection references missing part %d", c.ToPart)
		}
		fromType, ok := SocketTypeByName(c.FromSocket)
		if !ok {
			return nil, fmt.Errorf("graph document: unknown socket name %q", c.FromSocket)
		}
		toType, ok := SocketTypeByName(c.ToSocket)
		if !ok {
			return nil, fmt.Errorf("graph document: unknown socket name %q", c.ToSocket)
		}
		if err := b.Connect(Connection{
			From: Socket{Part: from, Name: c.FromSocket, Type: fromType},
			To:   Socket{Part: to, Name: c.ToSocket, Type: toType},
		}); err != nil {
			return nil, err
		}
	}

	for _, o := range doc.Outputs {
		layers := make([]ID, 0, len(o.Layers))
		for _, lid := range o.Layers {
			id, ok := layerByDoc[lid]
			if !ok {
				return nil, fmt.Errorf("graph document: output %d references missing layer %d", o.ID, lid)
			}
			layers = append(layers, id)
		}
		outCfg, err := decodeConfig(KindOutput, o.Kind, o.Config)
		if err != nil {
			return nil, err
		}
		b.AddOutput(Output{
			Config: outCfg,
			Width:  o.Width,
			Height: o.Height,
			EdgeBlend: EdgeBlendParams{
				Left: o.EdgeBlend.Left, Right: o.EdgeBlend.Right,
				Top: o.EdgeBlend.Top, Bottom: o.EdgeBlend.Bottom,
				Gamma: o.EdgeBlend.Gamma,
			},
			Calibration: ColorCalibrationParams{
				Brightness: o.Calibration.Brightness, Contrast: o.Calibration.Contrast,
				GammaR: o.Calibration.GammaR, GammaG: o.Calibration.GammaG, GammaB: o.Calibration.GammaB,
				Saturation: o.Calibration.Saturation, TemperatureK: o.Calibration.TemperatureK,
			},
			Layers: layers,
		})
	}

	return b.Build(), nil
}

// remapConfigIDs translates a just-decoded Config's LayerID/MeshID
// fields (populated with the document's raw uint32) onto the freshly
// allocated graph.ID the builder assigned to that Layer/Mesh.
func remapConfigIDs(cfg any, layerByDoc, meshByDoc map[uint32]ID) any {
	switch v := cfg.(type) {
	case SingleLayerConfig:
		v.LayerID = layerByDoc[uint32(v.LayerID)]
		v.MeshID = meshByDoc[uint32(v.MeshID)]
		return v
	case GroupConfig:
		v.MeshID = meshByDoc[uint32(v.MeshID)]
		return v
	case AllLayersConfig:
		v.MeshID = meshByDoc[uint32(v.MeshID)]
		return v
	default:
		return cfg
	}
}

// decodeMeshConfig decodes a DocMesh's raw config into the
// mesh.Quad4Params/GridParams/BezierParams the compositor's
// TessellateAndCache switches on. Polygon meshes are not yet backed by
// a mesh.Build* function (mesh/mesh.go only implements the three
// parametric kinds), so Polygon documents are rejected here rather
// than silently producing an untessellatable MeshRef.
func decodeMeshConfig(kind string, raw map[string]any) (any, error) {
	bytes, err := yaml.Marshal(raw)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "Quad4":
		var p mesh.Quad4Params
		if err := yaml.Unmarshal(bytes, &p); err != nil {
			return nil, fmt.Errorf("graph document: decode mesh Quad4 config: %w", err)
		}
		return p, nil
	case "Grid":
		var p mesh.GridParams
		if err := yaml.Unmarshal(bytes, &p); err != nil {
			return nil, fmt.Errorf("graph document: decode mesh Grid config: %w", err)
		}
		return p, nil
	case "Bezier":
		var p mesh.BezierParams
		if err := yaml.Unmarshal(bytes, &p); err != nil {
			return nil, fmt.Errorf("graph document: decode mesh Bezier config: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("graph document: unsupported mesh kind %q", kind)
	}
}
