// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package graph

import "testing"

func TestIDTableAllocation(t *testing.T) {
	t.Run("zero is not a valid id", func(t *testing.T) {
		tbl := &idTable{}
		if tbl.valid(0) {
			t.Errorf("expecting invalid for unallocated id")
		}
		if tbl.valid(1) {
			t.Errorf("expecting invalid for unallocated id")
		}
	})
	t.Run("first valid id is one", func(t *testing.T) {
		tbl := &idTable{}
		if one := tbl.create(); one != 1 {
			t.Errorf("expecting first id to be 1")
		}
	})
	t.Run("disposed ids are not valid", func(t *testing.T) {
		tbl := &idTable{}
		one := tbl.create()
		if !tbl.valid(one) {
			t.Errorf("expected valid id:%d edition:%d", one.Index(), one.Edition())
		}
		tbl.dispose(one)
		if tbl.valid(one) {
			t.Errorf("expected invalid id:%d edition:%d", one.Index(), one.Edition())
		}
	})
	t.Run("allocate all ids", func(t *testing.T) {
		tbl := &idTable{}
		for cnt := 1; cnt < maxID; cnt++ {
			if id := tbl.create(); int(id) != cnt {
				t.Errorf("expecting initial ids to be allocated sequentially")
			}
		}
		if id := tbl.create(); id != 0 {
			t.Errorf("expecting to have exhausted ids")
		}
	})
	t.Run("allocate more than max using dispose", func(t *testing.T) {
		tbl := &idTable{}
		for cnt := 1; cnt < maxID; cnt++ {
			tbl.create()
		}
		for cnt := 1; cnt <= 2*maxFree; cnt++ {
			tbl.dispose(ID(cnt))
		}
		if len(tbl.free) != 2*maxFree {
			t.Errorf("expected freelist %d to be %d", len(tbl.free), 2*maxFree)
		}
		for cnt := 0; cnt < 2*maxFree; cnt++ {
			if id := tbl.create(); id == 0 {
				t.Errorf("expecting to reuse disposed ids")
			}
		}
		if id := tbl.create(); id != 0 {
			t.Errorf("expecting to have re-exhausted ids")
		}
	})
}

// BenchmarkCreateDispose hammers id allocation/disposal as fast as
// possible, more a stress test than a realistic usage pattern.
func BenchmarkCreateDispose(b *testing.B) {
	tbl := &idTable{}
	var id ID
	for cnt := 0; cnt < b.N; cnt++ {
		id = tbl.create()
		tbl.dispose(id)
	}
}
