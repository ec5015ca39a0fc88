// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package audio

import "github.com/mapflow/core/internal/lin"

// Block is one delivery of PCM samples from the audio driver callback,
// already down-mixed to mono float64 in [-1, 1]. It is pushed into the
// analyzer's SPSC queue (§4.2 Concurrency) and is never retained by the
// caller past the Push call, matching the driver's "buffer is reused
// next callback" contract.
//
// Block mirrors the reuse discipline of the teacher's audio.Data: Set
// rewrites the existing backing slice instead of allocating, so a
// fixed pool of Blocks can be round-tripped through the SPSC queue
// without the audio thread ever calling into the allocator.
type Block struct {
	Samples []float64
}

// Set rewrites b in place from raw interleaved samples, down-mixing
// channels to mono and sanitizing every sample (step 1 of §4.2's
// pipeline: non-finite -> 0, then clamp to [-1,1]). The backing slice
// is reused via Samples[:n] when it has enough capacity.
func (b *Block) Set(interleaved []float64, channels int) {
	if channels < 1 {
		channels = 1
	}
	n := len(interleaved) / channels
	if cap(b.Samples) < n {
		b.Samples = make([]float64, n)
	} else {
		b.Samples = b.Samples[:n]
	}
	for i := 0; i < n; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += lin.Finite(interleaved[i*channels+c])
		}
		b.Samples[i] = lin.Clamp(sum/float64(channels), -1, 1)
	}
}
