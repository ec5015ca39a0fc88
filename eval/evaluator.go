// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

// Package eval implements the Graph Evaluator (§4.1): given a graph
// snapshot, the latest audio analysis, and the control-value table, it
// produces a RenderProgram the compositor executes, walking the cached
// topological order the same way frame.go's updateScene walks the Pov
// hierarchy and flattens it into a scene list.
package eval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mapflow/core/audio"
	"github.com/mapflow/core/graph"
	"github.com/mapflow/core/iface"
)

// Evaluator holds the state that must survive across Evaluate calls:
// carried trigger/link state, the media producer, stream handles opened
// per Source Part, and the last good program to replay on a degraded
// (cyclic) graph.
type Evaluator struct {
	producer iface.MediaProducer
	carried  *carriedState
	log      *slog.Logger

	streams  map[graph.ID]iface.StreamHandle // one open stream per Source Part
	lastGood map[graph.ID]iface.FrameResult  // last good frame per Source Part, for fallback
	program  *RenderProgram                  // last successfully evaluated program

	loggedOnce map[string]bool // dedupes "skip part" log lines by (part_id, reason)
}

// NewEvaluator returns an Evaluator that pulls media frames from
// producer and seeds its RNG with seed (pass a fixed seed in tests for
// determinism).
func NewEvaluator(producer iface.MediaProducer, seed int64) *Evaluator {
	return &Evaluator{
		producer:   producer,
		carried:    newCarriedState(seed),
		log:        slog.Default(),
		streams:    map[graph.ID]iface.StreamHandle{},
		lastGood:   map[graph.ID]iface.FrameResult{},
		loggedOnce: map[string]bool{},
	}
}

// Evaluate runs one frame of the algorithm in spec.md §4.1 and returns
// the resulting RenderProgram. g, analysis and controls are read-only
// for the duration of the call.
func (e *Evaluator) Evaluate(g *graph.Graph, analysis audio.AudioAnalysis, controls *ControlTable, tNowMs int64) *RenderProgram {
	if g.Degraded() || g.Order() == nil {
		// §4.1 Failure semantics / §8: cyclic graph -> reuse last good
		// program verbatim, flagged degraded.
		if e.program == nil {
			return &RenderProgram{Layers: map[graph.ID]LayerOp{}, Degraded: true}
		}
		cp := e.program.clone()
		cp.Degraded = true
		return cp
	}

	order := g.Order()
	rank := make(map[graph.ID]int, len(order))
	for i, id := range order {
		rank[id] = i
	}

	triggerValues := e.triggerPass(g, order, analysis, controls, tNowMs)
	e.linkPass(g, order, triggerValues)

	prog := &RenderProgram{Layers: map[graph.ID]LayerOp{}}
	layerRank := map[graph.ID]int{} // current winner's rank per layer

	for _, id := range order {
		part := g.Parts[id]
		if part.Kind != graph.KindLayerAssignment {
			continue
		}
		if !e.partActive(g, part, triggerValues) {
			continue
		}
		targets := e.resolveTargets(g, part)
		if targets == nil {
			e.skip(part.ID, "unknown layer-assignment config")
			continue
		}
		op, ok := e.buildLayerOp(g, part, triggerValues, rank[id], analysis, tNowMs)
		if !ok {
			continue
		}
		for _, layerID := range targets {
			if prevRank, exists := layerRank[layerID]; exists {
				prevOp := prog.Layers[layerID]
				winner, loser := resolveConflict(op, rank[id], prevOp, prevRank)
				if winner.AssignmentID == op.AssignmentID {
					prog.Conflicts = append(prog.Conflicts, Conflict{LayerID: layerID, Winner: op.AssignmentID, Losers: []graph.ID{prevOp.AssignmentID}})
					winner.LayerID = layerID
					prog.Layers[layerID] = winner
					layerRank[layerID] = rank[id]
				} else {
					prog.Conflicts = append(prog.Conflicts, Conflict{LayerID: layerID, Winner: prevOp.AssignmentID, Losers: []graph.ID{op.AssignmentID}})
				}
				_ = loser
				continue
			}
			stamped := op
			stamped.LayerID = layerID
			prog.Layers[layerID] = stamped
			layerRank[layerID] = rank[id]
		}
	}

	prog.Outputs = e.assembleOutputs(g, prog)
	e.program = prog.clone()
	return prog
}

// resolveConflict picks the winner between the incoming op (at rank a)
// and the existing stamp (at rank b) per §4.1 step 6: "the one with
// greater topological rank wins (tie-break by Part id)".
func resolveConflict(a LayerOp, rankA int, b LayerOp, rankB int) (winner, loser LayerOp) {
	if rankA > rankB || (rankA == rankB && a.AssignmentID > b.AssignmentID) {
		return a, b
	}
	return b, a
}

func (e *Evaluator) skip(id graph.ID, reason string) {
	key := fmt.Sprintf("%d|%s", id, reason)
	if e.loggedOnce[key] {
		return
	}
	e.loggedOnce[key] = true
	e.log.Warn("eval: skipping part", "part_id", id, "reason", reason)
}

// triggerPass computes §4.1 step 2 for every Trigger Part.
func (e *Evaluator) triggerPass(g *graph.Graph, order []graph.ID, analysis audio.AudioAnalysis, controls *ControlTable, tNowMs int64) map[graph.ID]float64 {
	values := make(map[graph.ID]float64, len(order))
	for _, id := range order {
		part := g.Parts[id]
		if part.Kind != graph.KindTrigger {
			continue
		}
		value, ok := e.evalTrigger(part, analysis, controls, tNowMs)
		if !ok {
			e.skip(id, "unknown trigger config")
			continue
		}
		if part.InvertOutput {
			value = 1 - value
		}
		values[id] = value
	}
	return values
}

func (e *Evaluator) evalTrigger(part *graph.Part, analysis audio.AudioAnalysis, controls *ControlTable, tNowMs int64) (float64, bool) {
	state := e.carried.trigger(part.ID)
	switch cfg := part.Config.(type) {
	case graph.AudioBandConfig:
		if cfg.Band < 0 || cfg.Band >= len(analysis.BandEnergies) {
			return 0, false
		}
		return analysis.BandEnergies[cfg.Band], true
	case graph.AudioRMSConfig:
		return analysis.RMS, true
	case graph.AudioPeakConfig:
		return analysis.Peak, true
	case graph.AudioBeatConfig:
		if analysis.Beat {
			return 1.0, true
		}
		return 0.0, true
	case graph.AudioBPMConfig:
		v := analysis.BPM / 300
		if v < 0 {
			v = 0
		}
		if v > 1 {
			v = 1
		}
		return v, true
	case graph.MIDIConfig:
		v, _ := controls.Get(ControlKey{Protocol: "midi", Address: fmt.Sprintf("%d:%d", cfg.Channel, cfg.NoteOrCC)})
		return v, true
	case graph.OSCConfig:
		v, _ := controls.Get(ControlKey{Protocol: "osc", Address: cfg.Address})
		return v, true
	case graph.ShortcutConfig:
		v, _ := controls.Get(ControlKey{Protocol: "shortcut", Address: cfg.Key})
		return v, true
	case graph.FixedConfig:
		return evalFixed(cfg, state, tNowMs), true
	case graph.RandomConfig:
		return evalRandom(cfg, state, e.carried, tNowMs), true
	default:
		return 0, false
	}
}

// evalFixed implements §4.1 step 2 Fixed{interval,offset}: a one-shot
// pulse every time the phase wraps past zero.
func evalFixed(cfg graph.FixedConfig, state *TriggerState, tNowMs int64) float64 {
	if cfg.IntervalMs <= 0 {
		return 0
	}
	elapsed := tNowMs - cfg.OffsetMs
	mod := elapsed % cfg.IntervalMs
	if mod < 0 {
		mod += cfg.IntervalMs
	}
	phase := float64(mod) / float64(cfg.IntervalMs)
	crossed := state.Armed && phase < state.PrevValue
	state.PrevValue = phase
	state.Armed = true
	if crossed {
		state.LastFireMs = tNowMs
		return 1.0
	}
	return 0.0
}

// evalRandom implements §4.1 step 2 Random{min,max,prob}.
func evalRandom(cfg graph.RandomConfig, state *TriggerState, carried *carriedState, tNowMs int64) float64 {
	if !state.Armed {
		state.NextFireMs = tNowMs
		state.Armed = true
	}
	if tNowMs < state.NextFireMs {
		return 0.0
	}
	span := cfg.MaxMs - cfg.MinMs
	if span < 0 {
		span = 0
	}
	wait := cfg.MinMs
	if span > 0 {
		wait += int64(carried.rng.Float64() * float64(span))
	}
	state.NextFireMs = tNowMs + wait
	u := carried.rng.Float64()
	if u < cfg.Probability {
		state.LastFireMs = tNowMs
		return 1.0
	}
	return 0.0
}

// linkPass implements §4.1 step 3: master_active = (value >= 0.5) from
// the Master's own Trigger In; slave_active = master_active XOR
// inverted, stored per-Slave in carried state.
func (e *Evaluator) linkPass(g *graph.Graph, order []graph.ID, triggerValues map[graph.ID]float64) {
	for _, id := range order {
		master := g.Parts[id]
		if master.LinkMode != graph.LinkMaster {
			continue
		}
		masterActive := false
		if c := graph.IncomingTo(g.Connections, id, graph.SocketNameTriggerIn, graph.SocketTrigger); c != nil {
			masterActive = triggerValues[c.From.Part] >= 0.5
		}
		for _, c := range graph.OutgoingFrom(g.Connections, id, graph.SocketNameLinkOut, graph.SocketLink) {
			slave := g.Parts[c.To.Part]
			if slave == nil || slave.LinkMode != graph.LinkSlave {
				continue
			}
			active := masterActive
			if slave.LinkBehavior == graph.Inverted {
				active = !active
			}
			e.carried.setLinkActive(slave.ID, active)
		}
	}
}

// partActive resolves whether a Part participates this frame: Slaves
// follow their Master's link state; anything with a direct Trigger In
// follows that trigger's value; anything else is always on.
func (e *Evaluator) partActive(g *graph.Graph, part *graph.Part, triggerValues map[graph.ID]float64) bool {
	if part.LinkMode == graph.LinkSlave {
		// A linked Slave ignores its own Trigger In (§9 Open Question
		// resolution: "Slave ignores its own Trigger In when linked").
		return e.carried.getLinkActive(part.ID)
	}
	if c := graph.IncomingTo(g.Connections, part.ID, graph.SocketNameTriggerIn, graph.SocketTrigger); c != nil {
		return triggerValues[c.From.Part] >= 0.5
	}
	return true
}

// resolveTargets implements §4.1 step 6's target-layer resolution.
func (e *Evaluator) resolveTargets(g *graph.Graph, part *graph.Part) []graph.ID {
	switch cfg := part.Config.(type) {
	case graph.SingleLayerConfig:
		return []graph.ID{cfg.LayerID}
	case graph.GroupConfig:
		var ids []graph.ID
		for id, l := range g.Layers {
			if l.Group == cfg.GroupName {
				ids = append(ids, id)
			}
		}
		return ids
	case graph.AllLayersConfig:
		ids := make([]graph.ID, 0, len(g.Layers))
		for id := range g.Layers {
			ids = append(ids, id)
		}
		return ids
	default:
		return nil
	}
}

func layerAssignmentCommon(part *graph.Part) (transform graph.LayerTransform, opacity float64, blendMode string, meshID graph.ID, ok bool) {
	switch cfg := part.Config.(type) {
	case graph.SingleLayerConfig:
		return cfg.Transform, cfg.Opacity, cfg.BlendMode, cfg.MeshID, true
	case graph.GroupConfig:
		return cfg.Transform, cfg.Opacity, cfg.BlendMode, cfg.MeshID, true
	case graph.AllLayersConfig:
		return cfg.Transform, cfg.Opacity, cfg.BlendMode, cfg.MeshID, true
	default:
		return graph.LayerTransform{}, 0, "", 0, false
	}
}

// buildLayerOp implements §4.1 steps 4-6 for one LayerAssignment Part:
// materialize its source, assemble its modulator chain, and stamp the
// resulting LayerOp.
func (e *Evaluator) buildLayerOp(g *graph.Graph, part *graph.Part, triggerValues map[graph.ID]float64, rank int, analysis audio.AudioAnalysis, tNowMs int64) (LayerOp, bool) {
	transform, opacity, blendMode, meshID, ok := layerAssignmentCommon(part)
	if !ok {
		return LayerOp{}, false
	}

	source, stale, effects, overrideBlend := e.walkMediaChain(g, part, triggerValues, analysis, tNowMs)
	if overrideBlend != "" {
		blendMode = overrideBlend
	}
	return LayerOp{
		Source:       source,
		SourceStale:  stale,
		Transform:    transform,
		Opacity:      opacity,
		BlendMode:    blendMode,
		MeshID:       meshID,
		Effects:      effects,
		AssignmentID: part.ID,
		AssignedRank: rank,
	}, true
}

// walkMediaChain walks the Media input chain backward from a
// LayerAssignment (§4.1 step 5) until it reaches a Source, collecting
// Modulator parts along the way in source-to-assignment order.
func (e *Evaluator) walkMediaChain(g *graph.Graph, start *graph.Part, triggerValues map[graph.ID]float64, analysis audio.AudioAnalysis, tNowMs int64) (source iface.ImageHandle, stale bool, effects []ResolvedEffect, overrideBlend string) {
	type step struct {
		part *graph.Part
	}
	var chain []step
	cur := start.ID
	for {
		c := graph.IncomingTo(g.Connections, cur, graph.SocketNameMediaIn, graph.SocketMedia)
		if c == nil {
			break
		}
		upstream := g.Parts[c.From.Part]
		if upstream == nil {
			break
		}
		chain = append(chain, step{part: upstream})
		if upstream.Kind == graph.KindSource {
			break
		}
		cur = upstream.ID
	}
	if len(chain) == 0 {
		return nil, true, nil, ""
	}

	// chain is assignment-to-source order; reverse to source-to-assignment.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	srcPart := chain[0].part
	if srcPart.Kind != graph.KindSource {
		return nil, true, nil, ""
	}
	source, stale = e.materializeSource(srcPart, tNowMs)

	scale := 1.0
	for _, s := range chain[1:] {
		mod := s.part
		if mod.Kind != graph.KindModulator {
			continue
		}
		switch cfg := mod.Config.(type) {
		case graph.EffectConfig:
			triggerOn := true
			if c := graph.IncomingTo(g.Connections, mod.ID, graph.SocketNameTriggerIn, graph.SocketTrigger); c != nil {
				triggerOn = triggerValues[c.From.Part] >= 0.5
			}
			if !triggerOn && cfg.BypassWhenOff {
				continue
			}
			params := make(map[string]float64, len(cfg.Params))
			for k, v := range cfg.Params {
				params[k] = v * scale
			}
			effects = append(effects, ResolvedEffect{Type: cfg.Type, Params: params})
			scale = 1.0
		case graph.BlendOverrideConfig:
			overrideBlend = cfg.Mode
		case graph.AudioReactiveConfig:
			band := 0.0
			if cfg.Band >= 0 && cfg.Band < len(analysis.BandEnergies) {
				band = analysis.BandEnergies[cfg.Band]
			}
			scale = band * cfg.Sensitivity
		default:
			e.skip(mod.ID, "unknown modulator config")
		}
	}
	return source, stale, effects, overrideBlend
}

// materializeSource implements §4.1 step 4.
func (e *Evaluator) materializeSource(part *graph.Part, tNowMs int64) (iface.ImageHandle, bool) {
	switch cfg := part.Config.(type) {
	case graph.MediaFileConfig:
		return e.materializeMediaFile(part.ID, cfg, tNowMs)
	case graph.LiveInputConfig:
		return e.materializeStream(part.ID, cfg.DeviceID)
	case graph.NDIInputConfig:
		return e.materializeStream(part.ID, cfg.StreamName)
	case graph.ShaderGeneratorConfig:
		return ShaderDispatch{ShaderID: cfg.ShaderID, Params: cfg.Params}, false
	case graph.SolidColorConfig:
		return SolidFill{R: cfg.R, G: cfg.G, B: cfg.B, A: cfg.A}, false
	default:
		e.skip(part.ID, "unknown source config")
		return nil, true
	}
}

// advancePlayhead implements §4.1 step 4's per-Source playhead: the
// position advances by the wall time elapsed since the last tick times
// Speed, negated when Reverse, then wraps inside [TrimStartMs,
// TrimEndMs] when Loop is set and a trim window is given, or else
// clamps to that window's edges.
func advancePlayhead(state *sourcePlayhead, cfg graph.MediaFileConfig, tNowMs int64) int64 {
	if !state.started {
		state.started = true
		state.lastTickMs = tNowMs
		state.posMs = cfg.TrimStartMs
		return state.posMs
	}

	speed := cfg.Speed
	if speed == 0 {
		speed = 1
	}
	delta := int64(float64(tNowMs-state.lastTickMs) * speed)
	if cfg.Reverse {
		delta = -delta
	}
	state.lastTickMs = tNowMs
	state.posMs += delta

	start, end := cfg.TrimStartMs, cfg.TrimEndMs
	switch {
	case end > start:
		span := end - start
		if cfg.Loop {
			rel := (state.posMs - start) % span
			if rel < 0 {
				rel += span
			}
			state.posMs = start + rel
		} else if state.posMs > end {
			state.posMs = end
		} else if state.posMs < start {
			state.posMs = start
		}
	case state.posMs < start:
		state.posMs = start
	}
	return state.posMs
}

func (e *Evaluator) materializeMediaFile(id graph.ID, cfg graph.MediaFileConfig, tNowMs int64) (iface.ImageHandle, bool) {
	handle, ok := e.streams[id]
	if !ok {
		h, err := e.producer.Open(iface.SourceSpec{Path: cfg.Path})
		if err != nil {
			e.skip(id, "open failed: "+err.Error())
			return e.fallback(id)
		}
		e.streams[id] = h
		handle = h
	}
	playheadMs := advancePlayhead(e.carried.playhead(id), cfg, tNowMs)
	res, err := e.producer.RequestFrame(context.Background(), handle, playheadMs, iface.PlaybackFlags{Reverse: cfg.Reverse, Speed: cfg.Speed})
	if err != nil || res.State != iface.FrameReady {
		return e.fallback(id)
	}
	e.lastGood[id] = res
	return res.Image, false
}

func (e *Evaluator) materializeStream(id graph.ID, deviceID string) (iface.ImageHandle, bool) {
	handle, ok := e.streams[id]
	if !ok {
		h, err := e.producer.Open(iface.SourceSpec{Path: deviceID})
		if err != nil {
			e.skip(id, "open failed: "+err.Error())
			return e.fallback(id)
		}
		e.streams[id] = h
		handle = h
	}
	res, err := e.producer.RequestFrame(context.Background(), handle, 0, iface.PlaybackFlags{Speed: 1})
	if err != nil || res.State != iface.FrameReady {
		return e.fallback(id)
	}
	e.lastGood[id] = res
	return res.Image, false
}

// fallback implements §4.1 step 4's "missing/undecoded -> last good
// frame, or transparent black if none".
func (e *Evaluator) fallback(id graph.ID) (iface.ImageHandle, bool) {
	if last, ok := e.lastGood[id]; ok {
		return last.Image, true
	}
	return SolidFill{0, 0, 0, 0}, true
}

// assembleOutputs implements §4.1 step 7 and the Solo/bypass semantics.
func (e *Evaluator) assembleOutputs(g *graph.Graph, prog *RenderProgram) []OutputOp {
	ops := make([]OutputOp, 0, len(g.Outputs))
	for _, out := range g.Outputs {
		anySolo := false
		for _, id := range out.Layers {
			if l := g.Layers[id]; l != nil && l.Solo {
				anySolo = true
				break
			}
		}
		var kept []graph.ID
		for _, id := range out.Layers {
			l := g.Layers[id]
			if l == nil || !l.Visible || l.Bypass {
				continue
			}
			if anySolo && !l.Solo {
				continue
			}
			if _, stamped := prog.Layers[id]; !stamped {
				continue
			}
			kept = append(kept, id)
		}
		ops = append(ops, OutputOp{
			OutputID:    out.ID,
			Layers:      kept,
			EdgeBlend:   out.EdgeBlend,
			Calibration: out.Calibration,
		})
	}
	return ops
}
