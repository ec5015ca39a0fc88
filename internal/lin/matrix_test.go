// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package lin

import "testing"

func almost(t *testing.T, got, want float64) {
	t.Helper()
	if !Aeq(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestIdentityApply(t *testing.T) {
	p := V2{0.25, 0.75}
	out := M3I.Apply(p)
	almost(t, out.X, p.X)
	almost(t, out.Y, p.Y)
}

func TestHomographyAxisAlignedIsIdentity(t *testing.T) {
	corners := [4]V2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	h := Homography(corners)
	for _, p := range []V2{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0.5, 0.5}} {
		out := h.Apply(p)
		almost(t, out.X, p.X)
		almost(t, out.Y, p.Y)
	}
}

func TestHomographyMapsCorners(t *testing.T) {
	corners := [4]V2{{0.1, 0.1}, {0.9, 0.2}, {0.8, 0.9}, {0.2, 0.8}}
	h := Homography(corners)
	unit := [4]V2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for i, p := range unit {
		out := h.Apply(p)
		almost(t, out.X, corners[i].X)
		almost(t, out.Y, corners[i].Y)
	}
}

func TestTransformAboutIdentity(t *testing.T) {
	m := TransformAbout(V2{0, 0}, V2{0.5, 0.5}, 0, 1, 1)
	p := V2{0.3, 0.4}
	out := m.Apply(p)
	almost(t, out.X, p.X)
	almost(t, out.Y, p.Y)
}

func TestTransformAboutTranslate(t *testing.T) {
	m := TransformAbout(V2{0.1, 0.2}, V2{0, 0}, 0, 1, 1)
	out := m.Apply(V2{0.3, 0.3})
	almost(t, out.X, 0.4)
	almost(t, out.Y, 0.5)
}

func TestDehomogenizeDegenerateW(t *testing.T) {
	v := V3{X: 1, Y: 2, W: 0}
	out := v.Dehomogenize()
	almost(t, out.X, 1)
	almost(t, out.Y, 2)
}
