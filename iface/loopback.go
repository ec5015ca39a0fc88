// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package iface

// LoopbackControlSink feeds pushed control values directly into an
// eval.ControlTable-shaped sink, for tests and for hosts that deliver
// control values in-process rather than over MIDI/OSC wire protocols.
// It adapts the ControlSink contract to a plain function so callers
// don't need to depend on package eval just to push test values.
type LoopbackControlSink struct {
	push func(protocol, address string, value float64, timestampMs int64)
}

// NewLoopbackControlSink wraps push as a ControlSink.
func NewLoopbackControlSink(push func(protocol, address string, value float64, timestampMs int64)) *LoopbackControlSink {
	return &LoopbackControlSink{push: push}
}

func (l *LoopbackControlSink) PushControl(protocol, address string, valueIn01 float64, timestampMs int64) {
	if l.push != nil {
		l.push(protocol, address, valueIn01, timestampMs)
	}
}
