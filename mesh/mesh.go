// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

// Package mesh tessellates MapFlow's mesh types into triangles in
// normalized output space with per-vertex UV, ready for the
// compositor's warp pass (§4.3).
package mesh

import "github.com/mapflow/core/internal/lin"

// Kind identifies a mesh's tessellation strategy.
type Kind int

const (
	Quad4 Kind = iota
	Grid
	Bezier
	Polygon
)

// Vertex is one tessellated vertex: a normalized output-space
// position, a source-texture UV, and the homography w carried through
// for perspective-correct interpolation (1 for non-projective meshes).
type Vertex struct {
	Pos lin.V2
	UV  lin.V2
	W   float64
}

// Triangle is three Vertex forming one tessellated face.
type Triangle [3]Vertex

// Mesh is a tessellated, GPU-ready mesh plus a revision number (§4.3
// Ownership). The compositor caches triangle lists per mesh id in its
// own mesh cache (Compositor.TessellateAndCache), not in the texture
// Registry.
type Mesh struct {
	Kind      Kind
	Triangles []Triangle
	Revision  uint64
}

// Quad4Params defines a projective quadrilateral mesh by its four
// corners in normalized output space, given in winding order.
type Quad4Params struct {
	Corners [4]lin.V2
}

// BuildQuad4 tessellates a Quad4 into two triangles, computing the
// homography that maps the unit UV square onto Corners so the
// fragment stage can recover perspective-correct UV after dividing by
// w (§4.3).
func BuildQuad4(p Quad4Params) Mesh {
	h := lin.Homography(p.Corners)
	unitUV := [4]lin.V2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	var vs [4]Vertex
	for i, uv := range unitUV {
		raw := h.ApplyRaw(uv)
		vs[i] = Vertex{Pos: raw.Dehomogenize(), UV: uv, W: raw.W}
	}
	tris := []Triangle{
		{vs[0], vs[1], vs[2]},
		{vs[0], vs[2], vs[3]},
	}
	return Mesh{Kind: Quad4, Triangles: tris}
}

// GridParams defines a regular grid mesh spanning the quadrilateral
// given by Corners, tessellated at graph-commit time on CPU (§4.3).
type GridParams struct {
	Corners  [4]lin.V2 // bilinear corners, same order as Quad4
	Density  int       // subdivisions per axis, >= 1
}

// BuildGrid tessellates a Density x Density grid of quads, each split
// into two triangles, bilinearly interpolating the four corners (no
// projective correction — Grid is an affine/bilinear mesh type).
func BuildGrid(p GridParams) Mesh {
	d := p.Density
	if d < 1 {
		d = 1
	}
	var tris []Triangle
	corner := func(u, v float64) lin.V2 {
		top := p.Corners[0].Lerp(p.Corners[1], u)
		bottom := p.Corners[3].Lerp(p.Corners[2], u)
		return top.Lerp(bottom, v)
	}
	for j := 0; j < d; j++ {
		v0 := float64(j) / float64(d)
		v1 := float64(j+1) / float64(d)
		for i := 0; i < d; i++ {
			u0 := float64(i) / float64(d)
			u1 := float64(i+1) / float64(d)
			p00 := Vertex{Pos: corner(u0, v0), UV: lin.V2{X: u0, Y: v0}, W: 1}
			p10 := Vertex{Pos: corner(u1, v0), UV: lin.V2{X: u1, Y: v0}, W: 1}
			p11 := Vertex{Pos: corner(u1, v1), UV: lin.V2{X: u1, Y: v1}, W: 1}
			p01 := Vertex{Pos: corner(u0, v1), UV: lin.V2{X: u0, Y: v1}, W: 1}
			tris = append(tris, Triangle{p00, p10, p11}, Triangle{p00, p11, p01})
		}
	}
	return Mesh{Kind: Grid, Triangles: tris}
}

// BezierParams defines a cubic-bezier-bounded patch: four corner
// points plus a control point per edge, tessellated at Density steps
// per axis (§4.3: "pre-tessellated on CPU at graph-commit time,
// density = user parameter").
type BezierParams struct {
	Corners  [4]lin.V2
	Controls [4]lin.V2 // one control point per edge, same winding as Corners
	Density  int
}

// BuildBezier tessellates a bezier-edged patch into a Density x
// Density triangle grid using De Casteljau evaluation along each
// boundary curve and bilinear interpolation across the interior.
func BuildBezier(p BezierParams) Mesh {
	d := p.Density
	if d < 1 {
		d = 1
	}
	edge := func(a, ctrl, b lin.V2, t float64) lin.V2 {
		ab := a.Lerp(ctrl, t)
		bc := ctrl.Lerp(b, t)
		return ab.Lerp(bc, t)
	}
	point := func(u, v float64) lin.V2 {
		top := edge(p.Corners[0], p.Controls[0], p.Corners[1], u)
		bottom := edge(p.Corners[3], p.Controls[2], p.Corners[2], u)
		left := edge(p.Corners[0], p.Controls[3], p.Corners[3], v)
		right := edge(p.Corners[1], p.Controls[1], p.Corners[2], v)
		bilinear := top.Lerp(bottom, v)
		blendEdges := left.Lerp(right, u)
		return bilinear.Lerp(blendEdges, 0.5)
	}
	var tris []Triangle
	for j := 0; j < d; j++ {
		v0, v1 := float64(j)/float64(d), float64(j+1)/float64(d)
		for i := 0; i < d; i++ {
			u0, u1 := float64(i)/float64(d), float64(i+1)/float64(d)
			p00 := Vertex{Pos: point(u0, v0), UV: lin.V2{X: u0, Y: v0}, W: 1}
			p10 := Vertex{Pos: point(u1, v0), UV: lin.V2{X: u1, Y: v0}, W: 1}
			p11 := Vertex{Pos: point(u1, v1), UV: lin.V2{X: u1, Y: v1}, W: 1}
			p01 := Vertex{Pos: point(u0, v1), UV: lin.V2{X: u0, Y: v1}, W: 1}
			tris = append(tris, Triangle{p00, p10, p11}, Triangle{p00, p11, p01})
		}
	}
	return Mesh{Kind: Bezier, Triangles: tris}
}

// ResizeMode adjusts a source's scale to the output's aspect ratio
// before the user's own transform is applied (§4.3 Transforms).
type ResizeMode int

const (
	Fill ResizeMode = iota
	Fit
	Stretch
	Original
)

// AspectScale returns the (sx, sy) scale to compose before a
// LayerAssignment's user transform, given the source's native
// resolution and the output's resolution.
func AspectScale(mode ResizeMode, srcW, srcH, dstW, dstH int) (sx, sy float64) {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return 1, 1
	}
	srcAspect := float64(srcW) / float64(srcH)
	dstAspect := float64(dstW) / float64(dstH)
	switch mode {
	case Stretch:
		return 1, 1
	case Original:
		return float64(srcW) / float64(dstW), float64(srcH) / float64(dstH)
	case Fit:
		if srcAspect > dstAspect {
			return 1, dstAspect / srcAspect
		}
		return srcAspect / dstAspect, 1
	default: // Fill
		if srcAspect > dstAspect {
			return srcAspect / dstAspect, 1
		}
		return 1, dstAspect / srcAspect
	}
}
