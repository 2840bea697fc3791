// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package perf

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gpubridge"
)

// DefaultFrameBudget is the 60 Hz frame budget used for the usage
// percentage when no other budget is configured.
const DefaultFrameBudget = time.Second / 60

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithTargetFrameBudget sets the frame budget the usage percentage is
// measured against. Non-positive values are ignored.
func WithTargetFrameBudget(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.budget = d
		}
	}
}

// WithClock replaces time.Now. The clock starts the first window and
// stamps snapshots produced by Run.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// Aggregator turns frame timestamps and draw counters into snapshots.
// Recording methods are safe for concurrent use and O(1); only the current
// window is retained.
type Aggregator struct {
	now    func() time.Time
	budget time.Duration

	mu          sync.Mutex
	opts        DisplayOptions
	windowStart time.Time
	frames      int
	intervals   int
	frameSum    time.Duration
	lastFrame   time.Time
	drawCalls   int
	triangles   int

	failures atomic.Uint64
}

// New returns an Aggregator for opts. It fails with a *ConfigError when
// opts do not validate.
func New(opts DisplayOptions, options ...Option) (*Aggregator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	a := &Aggregator{now: time.Now, budget: DefaultFrameBudget}
	for _, opt := range options {
		opt(a)
	}
	a.opts = opts.clone()
	a.windowStart = a.now()
	return a, nil
}

// Options returns a copy of the active options.
func (a *Aggregator) Options() DisplayOptions {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.opts.clone()
}

// SetOptions replaces the options. The change applies from the next tick;
// a snapshot already emitted is never affected.
func (a *Aggregator) SetOptions(opts DisplayOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	a.opts = opts.clone()
	a.mu.Unlock()
	return nil
}

// RecordFrame records a presented frame at ts. Timestamps are expected in
// non-decreasing order; a frame that goes back in time still counts for
// FPS but contributes no duration.
func (a *Aggregator) RecordFrame(ts time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.lastFrame.IsZero() && ts.After(a.lastFrame) {
		a.frameSum += ts.Sub(a.lastFrame)
		a.intervals++
	}
	a.lastFrame = ts
	a.frames++
}

// AddDrawCalls adds n to the draw call counter of the current window.
func (a *Aggregator) AddDrawCalls(n int) {
	a.mu.Lock()
	a.drawCalls += n
	a.mu.Unlock()
}

// AddTriangles adds n to the triangle counter of the current window.
func (a *Aggregator) AddTriangles(n int) {
	a.mu.Lock()
	a.triangles += n
	a.mu.Unlock()
}

// MetricFailures returns how many custom metric evaluations have failed.
func (a *Aggregator) MetricFailures() uint64 { return a.failures.Load() }

// Tick closes the current window at now and returns its snapshot. The
// window counters are reset.
func (a *Aggregator) Tick(now time.Time) Snapshot {
	a.mu.Lock()
	opts := a.opts
	elapsed := now.Sub(a.windowStart)
	frames, intervals, sum := a.frames, a.intervals, a.frameSum
	draws, tris := a.drawCalls, a.triangles
	a.windowStart = now
	a.frames, a.intervals, a.frameSum = 0, 0, 0
	a.drawCalls, a.triangles = 0, 0
	a.mu.Unlock()

	s := Snapshot{Timestamp: now}

	var frameMs float64
	if intervals > 0 {
		frameMs = float64(sum) / float64(intervals) / float64(time.Millisecond)
	}
	if opts.Flags.Has(ShowFPS) {
		var fps float64
		if elapsed > 0 {
			fps = float64(frames) / elapsed.Seconds()
		}
		s.FPS = &fps
	}
	if opts.Flags.Has(ShowFrameTime) {
		s.FrameTimeMs = &frameMs
	}
	if opts.Flags.Has(ShowFrameTimeUsage) {
		usage := frameMs / (float64(a.budget) / float64(time.Millisecond)) * 100
		s.FrameTimeUsagePct = &usage
	}
	if opts.Flags.Has(ShowDrawCalls) {
		s.DrawCalls = &draws
	}
	if opts.Flags.Has(ShowTriangleCount) {
		s.TriangleCount = &tris
	}

	// Custom metrics run outside the lock so they may record into a.
	if len(opts.CustomMetrics) > 0 {
		s.Custom = make(map[string]string, len(opts.CustomMetrics))
		names := make([]string, 0, len(opts.CustomMetrics))
		for name := range opts.CustomMetrics {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			if v, ok := a.evaluate(name, opts.CustomMetrics[name]); ok {
				s.Custom[name] = v
			}
		}
	}
	return s
}

func (a *Aggregator) evaluate(name string, fn MetricFunc) (v string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			a.metricFailed(name, fmt.Errorf("panic: %v", r))
			v, ok = "", false
		}
	}()
	v, err := fn()
	if err != nil {
		a.metricFailed(name, err)
		return "", false
	}
	return v, true
}

func (a *Aggregator) metricFailed(name string, err error) {
	a.failures.Add(1)
	gpubridge.Logger().Warn("perf: custom metric failed", "metric", name, "err", err)
}

// Run ticks on the configured interval and hands each snapshot to emit
// until ctx ends. The interval is re-read after every tick, so SetOptions
// can change it while Run is active. emit runs on Run's goroutine and
// should not block.
func (a *Aggregator) Run(ctx context.Context, emit func(Snapshot)) error {
	timer := time.NewTimer(a.Options().Interval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			emit(a.Tick(a.now()))
			timer.Reset(a.Options().Interval())
		}
	}
}
