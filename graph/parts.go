// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package graph

// parts.go defines the closed Part union (§3) as a PartKind enum plus
// one config struct per subkind, per §9's design note: "Dynamic Part
// kinds -> tagged variants... No runtime plugin loading in the core."

// PartKind is the closed set of Part kinds.
type PartKind int

const (
	KindTrigger PartKind = iota
	KindSource
	KindMask
	KindModulator
	KindLayerAssignment
	KindOutput
)

// SocketType is the closed set of socket types (§3).
type SocketType int

const (
	SocketTrigger SocketType = iota
	SocketMedia
	SocketMask
	SocketEffect
	SocketLayer
	SocketOutput
	SocketLink
)

// LinkMode controls a Part's master/slave activation coupling (§3).
type LinkMode int

const (
	LinkOff LinkMode = iota
	LinkMaster
	LinkSlave
)

// LinkBehavior is only meaningful when LinkMode == LinkSlave.
type LinkBehavior int

const (
	SameAsMaster LinkBehavior = iota
	Inverted
)

// Part is one node in the graph. Config holds one of the *Config
// structs below, selected by Kind and SubKind.
type Part struct {
	ID       ID
	Kind     PartKind
	SubKind  string // e.g. "AudioBand", "MediaFile" — see each Config type's doc.
	Config   any
	Position [2]float64
	Collapsed bool

	LinkMode     LinkMode
	LinkBehavior LinkBehavior

	// InvertOutput flips a Trigger's emitted value (value_out = 1 - value).
	InvertOutput bool
}

// Trigger subkinds (§3).
type (
	AudioBandConfig struct{ Band int } // 0..8
	AudioRMSConfig  struct{}
	AudioPeakConfig struct{}
	AudioBeatConfig struct{}
	AudioBPMConfig  struct{}
	MIDIConfig      struct {
		Channel   int
		NoteOrCC  int
	}
	OSCConfig      struct{ Address string }
	ShortcutConfig struct{ Key string }
	FixedConfig    struct {
		IntervalMs int64
		OffsetMs   int64
	}
	RandomConfig struct {
		MinMs, MaxMs int64
		Probability  float64
	}
)

// Source subkinds (§3).
type (
	MediaFileConfig struct {
		Path                   string
		Loop                   bool
		Speed                  float64
		Reverse                bool
		FlipH, FlipV           bool
		TrimStartMs, TrimEndMs int64
	}
	LiveInputConfig struct{ DeviceID string }
	NDIInputConfig  struct{ StreamName string }
	ShaderGeneratorConfig struct {
		ShaderID string
		Params   map[string]float64
	}
	SolidColorConfig struct{ R, G, B, A float64 }
)

// Mask subkinds (§3).
type (
	FileMaskConfig  struct{ Path string }
	ShapeMaskConfig struct{ Shape string } // circle|rect|triangle|star|ellipse
	GradientMaskConfig struct {
		AngleDeg float64
		Softness float64
	}
)

// EffectType enumerates the §3 Modulator Effect subkind's parameter set names.
type EffectType int

const (
	EffectBlur EffectType = iota
	EffectSharpen
	EffectInvert
	EffectThreshold
	EffectBrightnessContrastSaturation
	EffectHueShift
	EffectWave
	EffectSpiral
	EffectPinch
	EffectMirror
	EffectKaleidoscope
	EffectPixelate
	EffectHalftone
	EffectEdgeDetect
	EffectPosterize
	EffectGlitch
	EffectRGBSplit
	EffectChromaticAberration
	EffectVHS
	EffectFilmGrain
	EffectLUT
)

// Modulator subkinds (§3).
type (
	EffectConfig struct {
		Type           EffectType
		Params         map[string]float64
		BypassWhenOff  bool // omit this modulator when its trigger input is 0
	}
	BlendOverrideConfig struct{ Mode string }
	AudioReactiveConfig struct {
		Band        int
		Sensitivity float64
		Smoothing   float64
	}
)

// LayerAssignment subkinds (§3).
type (
	SingleLayerConfig struct {
		LayerID ID
		Transform LayerTransform
		Opacity   float64
		BlendMode string
		MeshID    ID
	}
	GroupConfig struct {
		GroupName string
		Transform LayerTransform
		Opacity   float64
		BlendMode string
		MeshID    ID
	}
	AllLayersConfig struct {
		Transform LayerTransform
		Opacity   float64
		BlendMode string
		MeshID    ID
	}
)

// LayerTransform is the affine transform a LayerAssignment applies in
// normalized space (§4.3): translate(pos) ∘ rotate(angle, anchor) ∘
// scale(sx, sy, anchor), with ResizeMode adjusting scale first.
type LayerTransform struct {
	PosX, PosY         float64
	AnchorX, AnchorY   float64
	AngleDeg           float64
	ScaleX, ScaleY     float64
	ResizeMode         string // Fill|Fit|Stretch|Original
}

// Output subkinds (§3).
type (
	ProjectorConfig struct{ WindowID string }
	PreviewConfig   struct{ WindowID string }
	NDIOutputConfig struct{ SenderName string }
	SpoutOutputConfig struct{ SenderName string }
)
