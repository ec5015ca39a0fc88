// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package graph

// entities.go provides the generational identifiers every Part, Layer,
// Mesh, and Output is stored under (§3: "arena + stable id stores").
//
// Adapted from the teacher engine's entity id allocator
// (vu/entity.go), generalized from a single global id space to one
// reusable per arena type, and renamed from "entity" to "Part id"
// terms matching §3's vocabulary. See:
//
//	http://bitsquid.blogspot.ca/2014/08/building-data-oriented-entity-system.html

import "log/slog"

// ID is a generational identifier: an index into an arena plus an
// edition that increments on every delete, so a deleted-and-recreated
// slot never aliases a still-held stale ID (§3).
type ID uint32

const idBits = 20                    // arena index    : max 1048575 live entries
const edBits = 12                    // edition        : max 4096 recyclings
const maxID = (1 << idBits) - 1      // mask and max active entries.
const maxEdition = (1 << edBits) - 1 // mask and max dispose/reuse count.

// Index is the value to use for array lookups.
func (id ID) Index() uint32 { return uint32(id) & maxID }

// Edition returns the value that tracks whether id is still current.
func (id ID) Edition() uint16 { return uint16((uint32(id) >> idBits) & maxEdition) }

// IsZero reports whether id is the reserved invalid value.
func (id ID) IsZero() bool { return id == 0 }

// maxFree delays id recycling until more than this many slots are pending reuse.
const maxFree = 1 << (edBits - 1) // start recycling once more than 2048 are free.

// idTable allocates and validates generational IDs for one arena
// (Parts, Layers, Meshes, or Outputs each own a table).
type idTable struct {
	editions []uint16 // current edition per allocated index.
	free     []uint32 // indices pending reuse.
}

// create returns a new ID starting at 1; returns 0 if the table is
// exhausted (a development-time configuration error, not a runtime one).
func (t *idTable) create() ID {
	idx := uint32(0)
	if len(t.free) > maxFree {
		idx = t.free[0]
		t.free = append(t.free[:0], t.free[1:]...)
	} else {
		t.editions = append(t.editions, 0)
		if idx = uint32(len(t.editions)); idx >= maxID {
			if len(t.free) == 0 {
				slog.Warn("all arena identifiers in use", "max_entries", maxID+1)
				return 0
			}
			idx = t.free[0]
			t.free = append(t.free[:0], t.free[1:]...)
		}
	}
	return ID(idx | uint32(t.editions[idx-1])<<idBits)
}

// valid reports whether id was created by this table and not since disposed.
func (t *idTable) valid(id ID) bool {
	idx := id.Index()
	if idx == 0 {
		return false
	}
	if idx > uint32(len(t.editions)) {
		return false
	}
	return t.editions[idx-1] == id.Edition()
}

// dispose invalidates id, queuing its index for a future, distinct edition.
func (t *idTable) dispose(id ID) {
	idx := id.Index()
	t.editions[idx-1]++
	t.free = append(t.free, idx)
}
