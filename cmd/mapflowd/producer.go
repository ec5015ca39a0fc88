// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"github.com/mapflow/core/iface"
)

// fileProducer is a minimal iface.MediaProducer backing MediaFile
// Sources with still images: it decodes a path once on Open and
// returns the same decoded frame on every RequestFrame. Video-codec
// decoding (the full MediaFile contract's Reverse/Speed/TrimMs
// semantics) needs a real demuxer the example pack has no library
// for; a host that needs video swaps this producer out for its own
// (§6: producers are an external collaborator, the core only fixes
// the contract).
type fileProducer struct {
	mu      sync.Mutex
	next    int
	streams map[iface.StreamHandle]image.Image
}

func newFileProducer() *fileProducer {
	return &fileProducer{streams: map[iface.StreamHandle]image.Image{}}
}

func (p *fileProducer) Open(spec iface.SourceSpec) (iface.StreamHandle, error) {
	f, err := os.Open(spec.Path)
	if err != nil {
		return nil, &iface.ProducerError{Kind: iface.NotFound, Err: err}
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &iface.ProducerError{Kind: iface.Unsupported, Err: fmt.Errorf("decode %s: %w", spec.Path, err)}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	h := p.next
	p.next++
	p.streams[h] = img
	return h, nil
}

func (p *fileProducer) RequestFrame(_ context.Context, h iface.StreamHandle, tPlaybackMs int64, _ iface.PlaybackFlags) (iface.FrameResult, error) {
	p.mu.Lock()
	img, ok := p.streams[h]
	p.mu.Unlock()
	if !ok {
		return iface.FrameResult{}, &iface.ProducerError{Kind: iface.NotFound, Err: fmt.Errorf("stream %v not open", h)}
	}
	return iface.FrameResult{State: iface.FrameReady, Image: img, PtsMs: tPlaybackMs}, nil
}

func (p *fileProducer) Close(h iface.StreamHandle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.streams, h)
	return nil
}
