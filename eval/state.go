// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package eval

import (
	"math/rand"

	"github.com/mapflow/core/graph"
)

// TriggerState is the per-Trigger carried state surviving between
// frames (§4.1 "Carried state").
type TriggerState struct {
	LastFireMs int64
	NextFireMs int64
	PrevValue  float64
	Armed      bool
}

// sourcePlayhead is a MediaFile Source Part's carried playback
// position (§4.1 "Carried state"): the evaluator owns advancing this
// over time and queries the producer with it, rather than always
// asking for t=0.
type sourcePlayhead struct {
	started    bool
	lastTickMs int64
	posMs      int64
}

// carriedState holds every Part's cross-frame state, indexed by the
// Part id's arena index rather than a map — the same data-oriented
// choice the teacher's entities.editions makes for O(1) lookup without
// hashing (entity.go's bitsquid-blog reference), generalized here from
// entity validity bits to trigger/link/playhead state.
type carriedState struct {
	triggers   []TriggerState   // indexed by graph.ID.Index()
	linkActive []bool           // indexed by graph.ID.Index(), valid for Slave parts
	playheads  []sourcePlayhead // indexed by graph.ID.Index(), valid for MediaFile Sources
	rng        *rand.Rand       // one process-wide RNG, hoisted out of the hot loop (§4.1)
}

// newCarriedState returns empty carried state with an RNG seeded from
// seed; the per-Part slices grow on first use of each index.
func newCarriedState(seed int64) *carriedState {
	return &carriedState{rng: rand.New(rand.NewSource(seed))}
}

func (s *carriedState) trigger(id graph.ID) *TriggerState {
	idx := int(id.Index())
	if idx >= len(s.triggers) {
		grown := make([]TriggerState, idx+1)
		copy(grown, s.triggers)
		s.triggers = grown
	}
	return &s.triggers[idx]
}

func (s *carriedState) setLinkActive(id graph.ID, active bool) {
	idx := int(id.Index())
	if idx >= len(s.linkActive) {
		grown := make([]bool, idx+1)
		copy(grown, s.linkActive)
		s.linkActive = grown
	}
	s.linkActive[idx] = active
}

func (s *carriedState) getLinkActive(id graph.ID) bool {
	idx := int(id.Index())
	if idx >= len(s.linkActive) {
		return false
	}
	return s.linkActive[idx]
}

func (s *carriedState) playhead(id graph.ID) *sourcePlayhead {
	idx := int(id.Index())
	if idx >= len(s.playheads) {
		grown := make([]sourcePlayhead, idx+1)
		copy(grown, s.playheads)
		s.playheads = grown
	}
	return &s.playheads[idx]
}
