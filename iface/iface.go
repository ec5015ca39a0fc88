// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

// Package iface defines the external-collaborator contracts MapFlow's
// core depends on but does not implement (§6): media-frame producers,
// control-input delivery, and output sinks. The core only ever holds
// these as interfaces so a host can supply demuxers, MIDI/OSC bridges,
// and NDI/Spout/window adapters without the core importing them.
package iface

import "context"

// ImageHandle is an opaque reference to a decoded frame or rendered
// image. Producers guarantee the handle stays valid until the next
// RequestFrame call on the same stream, or Close (§6).
type ImageHandle any

// StreamHandle is an opaque reference to an open media stream.
type StreamHandle any

// SourceSpec describes what a MediaProducer should open.
type SourceSpec struct {
	Path string
}

// PlaybackFlags modifies how a frame is requested (§6).
type PlaybackFlags struct {
	Reverse bool
	Speed   float64
}

// FrameState is the closed result of a RequestFrame call (§6:
// "FrameOrPending ∈ { Frame{...}, Pending, EndOfStream }").
type FrameState int

const (
	FrameReady FrameState = iota
	FramePending
	FrameEndOfStream
)

// FrameResult is what RequestFrame returns.
type FrameResult struct {
	State      FrameState
	Image      ImageHandle
	PtsMs      int64
	Colorspace string
}

// ProducerErrorKind closes the set of errors Open/RequestFrame/Close
// may report (§6, §7 SourceUnavailable).
type ProducerErrorKind int

const (
	NotFound ProducerErrorKind = iota
	Unsupported
	IO
)

// ProducerError wraps a ProducerErrorKind with context.
type ProducerError struct {
	Kind ProducerErrorKind
	Err  error
}

func (e *ProducerError) Error() string { return e.Err.Error() }
func (e *ProducerError) Unwrap() error { return e.Err }

// MediaProducer is the media-frame producer contract (§6), consumed
// by Source Parts of subkind MediaFile/LiveInput/NDIInput.
type MediaProducer interface {
	Open(spec SourceSpec) (StreamHandle, error)
	RequestFrame(ctx context.Context, h StreamHandle, tPlaybackMs int64, flags PlaybackFlags) (FrameResult, error)
	Close(h StreamHandle) error
}

// ControlSink is the control-input contract (§6), consumed by Trigger
// Parts of subkind MIDI/OSC/Shortcut. PushControl is called by the
// host on its own protocol-adapter goroutines; MapFlow never blocks
// on it.
type ControlSink interface {
	PushControl(protocol, address string, valueIn01 float64, timestampMs int64)
}

// OutputSink is the output-sink contract (§6): present blits or
// shares the image; resize notifies of a surface size change.
type OutputSink interface {
	Present(outputID string, image ImageHandle) error
	Resize(width, height int) error
}
