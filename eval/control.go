// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package eval

import "sync"

// ControlKey identifies one control-input address (§6: "the host
// delivers (protocol, address, value_in_[0,1], timestamp_ms) tuples").
type ControlKey struct {
	Protocol string
	Address  string
}

// controlValue is one slot's current value and arrival time.
type controlValue struct {
	Value       float64
	TimestampMs int64
}

// ControlTable is the lock-free-per-slot control-value table (§5:
// "one writer per protocol endpoint, one reader"). Each protocol
// adapter calls Push concurrently with the render thread's Get; since
// every (protocol, address) pair is written by exactly one adapter,
// sync.Map's single-writer-per-key fast path never contends, matching
// the "one writer per key" shape the spec describes without needing a
// hand-rolled lock-free map.
type ControlTable struct {
	slots sync.Map // ControlKey -> *controlValue
}

// NewControlTable returns an empty table.
func NewControlTable() *ControlTable { return &ControlTable{} }

// Push records the latest value for key, called by a protocol
// endpoint (MIDI, OSC, Shortcut) whenever new input arrives.
func (t *ControlTable) Push(key ControlKey, value float64, timestampMs int64) {
	t.slots.Store(key, &controlValue{Value: value, TimestampMs: timestampMs})
}

// Get returns the latest value for key, or (0, false) if nothing has
// ever arrived for it (§4.1 step 2: "Absent key -> 0.0").
func (t *ControlTable) Get(key ControlKey) (float64, bool) {
	v, ok := t.slots.Load(key)
	if !ok {
		return 0, false
	}
	cv := v.(*controlValue)
	return cv.Value, true
}
