// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package main

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapflow/core/iface"
)

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestFileProducerOpenAndRequestFrame(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	writeTestPNG(t, path)

	p := newFileProducer()
	h, err := p.Open(iface.SourceSpec{Path: path})
	require.NoError(t, err)

	res, err := p.RequestFrame(context.Background(), h, 42, iface.PlaybackFlags{})
	require.NoError(t, err)
	assert.Equal(t, iface.FrameReady, res.State)
	assert.Equal(t, int64(42), res.PtsMs)
	assert.NotNil(t, res.Image)
}

func TestFileProducerOpenMissingPathErrors(t *testing.T) {
	p := newFileProducer()
	_, err := p.Open(iface.SourceSpec{Path: filepath.Join(t.TempDir(), "nope.png")})
	assert.Error(t, err)
}

func TestFileProducerRequestFrameAfterCloseErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	writeTestPNG(t, path)

	p := newFileProducer()
	h, err := p.Open(iface.SourceSpec{Path: path})
	require.NoError(t, err)
	require.NoError(t, p.Close(h))

	_, err = p.RequestFrame(context.Background(), h, 0, iface.PlaybackFlags{})
	assert.Error(t, err)
}

func TestFileProducerAssignsDistinctHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	writeTestPNG(t, path)

	p := newFileProducer()
	h1, err := p.Open(iface.SourceSpec{Path: path})
	require.NoError(t, err)
	h2, err := p.Open(iface.SourceSpec{Path: path})
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)
}
