// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package iface

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// WindowOutputSink is the reference OutputSink for a Projector or
// Preview Output Part (§3): a native window blitting the composited
// image via a textured fullscreen quad, grounded on the pack's
// RetroCodeRamen-Nitro-Core-DX dependency on go-gl/glfw for window
// creation (the teacher engine rolls its own platform windowing in
// vu_windows.go/vu_macos.go, which this module drops entirely since
// §1 scopes "operating-system window creation" out as an external
// collaborator — WindowOutputSink is the optional reference adapter
// for hosts that want one anyway).
type WindowOutputSink struct {
	win *glfw.Window
	tex uint32
}

// NewWindowOutputSink creates a window of (w, h) titled title. Must be
// called on the thread that will subsequently call Present (GLFW
// windows are not thread-portable).
func NewWindowOutputSink(title string, w, h int) (*WindowOutputSink, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("iface: glfw init: %w", err)
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	win, err := glfw.CreateWindow(w, h, title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("iface: create window: %w", err)
	}
	win.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("iface: gl init: %w", err)
	}
	var tex uint32
	gl.GenTextures(1, &tex)
	return &WindowOutputSink{win: win, tex: tex}, nil
}

// Present uploads img as a texture and blits it to the window.
func (w *WindowOutputSink) Present(outputID string, img ImageHandle) error {
	rgba, ok := img.(*image.RGBA)
	if !ok {
		return fmt.Errorf("iface: WindowOutputSink requires *image.RGBA, got %T", img)
	}
	b := rgba.Bounds()
	gl.BindTexture(gl.TEXTURE_2D, w.tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(b.Dx()), int32(b.Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	w.win.SwapBuffers()
	glfw.PollEvents()
	if w.win.ShouldClose() {
		return fmt.Errorf("iface: window %q closed", outputID)
	}
	return nil
}

// Resize notifies the sink of a new surface size.
func (w *WindowOutputSink) Resize(width, height int) error {
	gl.Viewport(0, 0, int32(width), int32(height))
	return nil
}

// Close destroys the underlying window.
func (w *WindowOutputSink) Close() {
	w.win.Destroy()
}
