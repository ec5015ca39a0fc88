// Copyright © 2026 MapFlow Authors
// Use is governed by a BSD-style license found in the LICENSE file.

package scheduler

// profile.go consolidates scheduler timing data. Adapted from the
// teacher's profile.go: the same Elapsed/Skipped/Render shape, with the
// teacher's Update renamed Eval and Skipped now meaning exactly the §4.5 frame-drop counter ("the
// next frame's evaluation is skipped... and a metric is recorded")
// rather than a generic slowness indicator.

import (
	"log/slog"
	"time"
)

// Profile collects timing values for one scheduler tick. Values are
// reset each tick by Zero; callers are expected to track and smooth
// these over a window of ticks if they want a rolling average.
type Profile struct {
	Elapsed time.Duration // total wall time spent in this tick.
	Eval    time.Duration // time spent in evaluator.Evaluate this tick.

	// Skipped counts evaluation+composite passes skipped this tick
	// because the previous tick exceeded its frame budget (§4.5).
	Skipped int

	Renders int           // outputs presented this tick.
	Render  time.Duration // time spent in compositor + present this tick.
}

// Zero resets all counters. Called by the scheduler at the start of
// every tick.
func (p *Profile) Zero() {
	p.Elapsed, p.Eval, p.Skipped = 0, 0, 0
	p.Render, p.Renders = 0, 0
}

// Log emits the current profile at debug level, for development use;
// production observability goes through the scheduler's prometheus
// counters instead (see scheduler.Metrics).
func (p *Profile) Log() {
	slog.Debug("scheduler tick",
		"elapsed_ms", p.Elapsed.Seconds()*1000,
		"eval_ms", p.Eval.Seconds()*1000,
		"render_ms", p.Render.Seconds()*1000,
		"renders", p.Renders,
		"skipped", p.Skipped,
	)
}
