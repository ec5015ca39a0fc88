// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGraphYAML = `
meshes:
  - id: 1
    kind: Quad4
layers:
  - id: 10
    blend_mode: Normal
    opacity: 1
    visibility: true
    mesh: 1
parts:
  - id: 100
    kind: Source
    sub_kind: SolidColor
  - id: 101
    kind: LayerAssignment
    sub_kind: SingleLayer
    config:
      layerid: 10
      meshid: 1
      opacity: 1
      blendmode: Normal
connections:
  - from_part: 100
    from_socket: media_out
    to_part: 101
    to_socket: media_in
outputs:
  - id: 1000
    kind: Preview
    width: 1920
    height: 1080
    layers: [10]
`

func TestLoadGraphDocumentBuildsGraph(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleGraphYAML), 0o644))

	g, err := loadGraphDocument(path)
	require.NoError(t, err)
	assert.Len(t, g.Parts, 2)
	assert.Len(t, g.Layers, 1)
	assert.Len(t, g.Outputs, 1)
}

func TestLoadGraphDocumentRejectsMissingFile(t *testing.T) {
	_, err := loadGraphDocument(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadGraphDocumentRejectsInvalidReferences(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
outputs:
  - id: 1
    kind: Preview
    layers: [999]
`), 0o644))

	_, err := loadGraphDocument(path)
	assert.Error(t, err)
}
