// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package compositor

import (
	"fmt"
	"image"
	"image/color"

	"github.com/mapflow/core/eval"
	"github.com/mapflow/core/graph"
	"github.com/mapflow/core/internal/lin"
	"github.com/mapflow/core/mesh"
)

// Compositor is the §4.4 facade: it owns the Backend, the texture
// Registry, and a per-mesh tessellation cache, and turns one
// eval.RenderProgram into one rendered image per Output. It mirrors
// render/render.go's Renderer as the single entry point the scheduler
// calls once per tick, keeping Backend/Texture/target internals out of
// the scheduler package.
type Compositor struct {
	backend   Backend
	textures  *Registry
	targets   map[string]*target // one per Output, keyed by the target's name
	scratches map[string]*target // one reusable per-layer scratch target, keyed by name
	meshes    map[graph.ID]cachedMesh
}

type cachedMesh struct {
	revision uint64
	tris     []mesh.Triangle
}

// NewCompositor wraps backend; Init must already have been called.
func NewCompositor(backend Backend) *Compositor {
	return &Compositor{
		backend:   backend,
		textures:  NewRegistry(),
		targets:   map[string]*target{},
		scratches: map[string]*target{},
		meshes:    map[graph.ID]cachedMesh{},
	}
}

// Composite runs §4.4 steps 2-5 for every Output in prog and returns
// the resulting image per Output id, ready for an iface.OutputSink.
func (c *Compositor) Composite(g *graph.Graph, prog *eval.RenderProgram) (map[graph.ID]image.Image, error) {
	results := make(map[graph.ID]image.Image, len(prog.Outputs))
	for _, outOp := range prog.Outputs {
		out, ok := g.Outputs[outOp.OutputID]
		if !ok {
			continue
		}
		img, err := c.compositeOutput(g, out, outOp, prog)
		if err != nil {
			return results, fmt.Errorf("compositor: output %d: %w", outOp.OutputID, err)
		}
		results[outOp.OutputID] = img
	}
	return results, nil
}

func (c *Compositor) compositeOutput(g *graph.Graph, out *graph.Output, outOp eval.OutputOp, prog *eval.RenderProgram) (image.Image, error) {
	target, err := c.targetFor(c.targets, fmt.Sprintf("out:%d", out.ID), out.Width, out.Height)
	if err != nil {
		return nil, err
	}
	c.backend.Clear(target)

	for _, layerID := range outOp.Layers {
		op, ok := prog.Layers[layerID]
		if !ok {
			continue
		}
		if err := c.compositeLayer(out, target, op); err != nil {
			return nil, fmt.Errorf("layer %d: %w", layerID, err)
		}
	}

	if err := c.backend.ApplyEdgeBlend(target, EdgeWidths{
		Left: out.EdgeBlend.Left, Right: out.EdgeBlend.Right,
		Top: out.EdgeBlend.Top, Bottom: out.EdgeBlend.Bottom,
		Gamma: out.EdgeBlend.Gamma,
	}); err != nil {
		return nil, err
	}
	if err := c.backend.ApplyCalibration(target, Calibration{
		Brightness: out.Calibration.Brightness, Contrast: out.Calibration.Contrast,
		GammaR: out.Calibration.GammaR, GammaG: out.Calibration.GammaG, GammaB: out.Calibration.GammaB,
		Saturation: out.Calibration.Saturation, TemperatureK: out.Calibration.TemperatureK,
	}); err != nil {
		return nil, err
	}

	var result image.Image
	err = c.backend.Present(target, func(img image.Image) error {
		result = img
		return nil
	})
	return result, err
}

// compositeLayer implements §4.4 step 3: warp the layer's source
// through its mesh into a scratch target sized to the Output, then
// blend that scratch target onto dst using the layer's blend mode and
// opacity. Effect-chain pixel ops (§3 Modulator Effect subkinds) are
// not yet implemented by either Backend — op.Effects is carried
// through the program for a future Backend revision to consume, but
// today only warp/blend/edge-blend/calibration are GPU/software ops.
func (c *Compositor) compositeLayer(out *graph.Output, dst *target, op eval.LayerOp) error {
	scratch, err := c.targetFor(c.scratches, fmt.Sprintf("scratch:%d", out.ID), out.Width, out.Height)
	if err != nil {
		return err
	}
	c.backend.Clear(scratch)

	tris, err := c.tessellate(out.Layers, op)
	if err != nil {
		return err
	}
	resolved := resolveImage(op.Source)
	srcBounds := resolved.Bounds()
	tris = transformTriangles(tris, op.Transform, srcBounds.Dx(), srcBounds.Dy(), out.Width, out.Height)

	srcTex := c.textures.Get(fmt.Sprintf("src:%d", op.AssignmentID))
	srcTex.Set(resolved)

	backendTris := make([]Triangle, len(tris))
	for i, t := range tris {
		backendTris[i] = toBackendTriangle(t)
	}
	if err := c.backend.DrawWarp(scratch, srcTex, backendTris); err != nil {
		return err
	}

	layerTex := c.textures.Get(fmt.Sprintf("layer:%d", out.ID))
	if err := c.backend.Present(scratch, func(img image.Image) error {
		layerTex.Set(img)
		return nil
	}); err != nil {
		return err
	}

	return c.backend.DrawBlend(dst, layerTex, ParseBlendMode(op.BlendMode), op.Opacity)
}

// targetFor returns cache's target for name, (re)allocating it from
// the backend if absent or if the Output's declared resolution
// changed since the last frame.
func (c *Compositor) targetFor(cache map[string]*target, name string, w, h int) (*target, error) {
	if t, ok := cache[name]; ok && t.w == w && t.h == h {
		return t, nil
	}
	t, err := c.backend.NewTarget(name, w, h)
	if err != nil {
		return nil, err
	}
	cache[name] = t
	return t, nil
}

// tessellate returns the cached triangle list for op.MeshID, as put in
// place by TessellateAndCache. It does not read the graph's mesh table
// and does not compare revisions; a MeshID with no cache entry gets a
// full-frame unit Quad4, which is cached under that MeshID.
func (c *Compositor) tessellate(_ []graph.ID, op eval.LayerOp) ([]mesh.Triangle, error) {
	cached, ok := c.meshes[op.MeshID]
	if ok {
		return cached.tris, nil
	}
	// No mesh assigned: a full-frame Quad4 covering the Output.
	m := mesh.BuildQuad4(mesh.Quad4Params{Corners: [4]lin.V2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}})
	c.meshes[op.MeshID] = cachedMesh{tris: m.Triangles}
	return m.Triangles, nil
}

// TessellateAndCache lets the graph builder (or a host reacting to a
// mesh mutation) push a freshly-built mesh into the compositor's cache
// keyed by (id, revision), invalidating any stale entry.
func (c *Compositor) TessellateAndCache(ref graph.MeshRef) (mesh.Mesh, error) {
	if cached, ok := c.meshes[ref.ID]; ok && cached.revision == ref.Revision {
		return mesh.Mesh{Triangles: cached.tris, Revision: ref.Revision}, nil
	}
	var m mesh.Mesh
	switch ref.Kind {
	case "Quad4":
		p, ok := ref.Config.(mesh.Quad4Params)
		if !ok {
			return m, fmt.Errorf("compositor: mesh %d: Quad4 config type %T", ref.ID, ref.Config)
		}
		m = mesh.BuildQuad4(p)
	case "Grid":
		p, ok := ref.Config.(mesh.GridParams)
		if !ok {
			return m, fmt.Errorf("compositor: mesh %d: Grid config type %T", ref.ID, ref.Config)
		}
		m = mesh.BuildGrid(p)
	case "Bezier":
		p, ok := ref.Config.(mesh.BezierParams)
		if !ok {
			return m, fmt.Errorf("compositor: mesh %d: Bezier config type %T", ref.ID, ref.Config)
		}
		m = mesh.BuildBezier(p)
	default:
		return m, fmt.Errorf("compositor: mesh %d: unsupported kind %q", ref.ID, ref.Kind)
	}
	c.meshes[ref.ID] = cachedMesh{revision: ref.Revision, tris: m.Triangles}
	return m, nil
}

// Release frees every GPU resource held by the compositor's backend.
func (c *Compositor) Release() { c.backend.Release() }

// transformTriangles applies the §4.3 resize-mode aspect pre-scale
// (source native resolution against the output's resolution) and then
// the LayerAssignment's own pos/anchor/rotation/scale transform.
func transformTriangles(tris []mesh.Triangle, t graph.LayerTransform, srcW, srcH, dstW, dstH int) []mesh.Triangle {
	aspectSX, aspectSY := mesh.AspectScale(resizeModeByName(t.ResizeMode), srcW, srcH, dstW, dstH)
	m := lin.TransformAbout(
		lin.V2{X: t.PosX, Y: t.PosY},
		lin.V2{X: t.AnchorX, Y: t.AnchorY},
		lin.Rad(t.AngleDeg),
		nonZero(t.ScaleX)*aspectSX, nonZero(t.ScaleY)*aspectSY,
	)
	out := make([]mesh.Triangle, len(tris))
	for i, tri := range tris {
		for v := 0; v < 3; v++ {
			tri[v].Pos = m.Apply(tri[v].Pos)
		}
		out[i] = tri
	}
	return out
}

// resizeModeByName maps a persisted LayerTransform.ResizeMode string to
// mesh.ResizeMode, defaulting to Fill like an unset transform would.
func resizeModeByName(name string) mesh.ResizeMode {
	switch name {
	case "Fit":
		return mesh.Fit
	case "Stretch":
		return mesh.Stretch
	case "Original":
		return mesh.Original
	default:
		return mesh.Fill
	}
}

func nonZero(s float64) float64 {
	if s == 0 {
		return 1
	}
	return s
}

func toBackendTriangle(t mesh.Triangle) Triangle {
	var bt Triangle
	for i, v := range t {
		bt.Pos[i] = [2]float64{v.Pos.X, v.Pos.Y}
		bt.UV[i] = [2]float64{v.UV.X, v.UV.Y}
		bt.W[i] = v.W
	}
	return bt
}

// resolveImage turns an evaluator source handle into the image.Image
// a Texture needs. ShaderDispatch has no GPU shader-generator backend
// yet (§3 Source ShaderGenerator), so it renders as a flat mid-gray
// placeholder rather than failing the frame.
func resolveImage(source any) image.Image {
	switch v := source.(type) {
	case image.Image:
		return v
	case eval.SolidFill:
		return solidImage(v.R, v.G, v.B, v.A)
	case eval.ShaderDispatch:
		return solidImage(0.5, 0.5, 0.5, 1)
	default:
		return solidImage(0, 0, 0, 0)
	}
}

func solidImage(r, g, b, a float64) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{
		R: uint8(lin255(r)), G: uint8(lin255(g)), B: uint8(lin255(b)), A: uint8(lin255(a)),
	})
	return img
}

// ParseBlendMode maps a graph-persisted blend mode name to a
// BlendMode, defaulting to Normal for an unrecognized name (§4.4).
func ParseBlendMode(name string) BlendMode {
	if m, ok := blendModeNames[name]; ok {
		return m
	}
	return Normal
}

var blendModeNames = map[string]BlendMode{
	"Normal":     Normal,
	"Add":        Add,
	"Subtract":   Subtract,
	"Multiply":   Multiply,
	"Screen":     Screen,
	"Overlay":    Overlay,
	"Darken":     Darken,
	"Lighten":    Lighten,
	"ColorDodge": ColorDodge,
	"ColorBurn":  ColorBurn,
	"HardLight":  HardLight,
	"SoftLight":  SoftLight,
	"Difference": Difference,
	"Exclusion":  Exclusion,
}
