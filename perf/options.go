// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package perf aggregates frame timing into display-ready snapshots for a
// performance overlay.
//
// An Aggregator is fed frame timestamps and draw counters by the render
// loop and produces one Snapshot per update interval. Which fields a
// Snapshot carries is decided by DisplayOptions.Flags:
//
//	agg, err := perf.New(perf.DisplayOptions{
//		Flags:            perf.ShowFPS | perf.ShowFrameTime,
//		UpdateIntervalMs: 500,
//	})
//	go agg.Run(ctx, func(s perf.Snapshot) { overlay.Show(s.Lines(language.English)) })
//
//	for frame := range frames {
//		agg.RecordFrame(time.Now())
//		agg.AddDrawCalls(frame.DrawCalls)
//	}
//
// The aggregator never touches the GPU interop boundary and never blocks on
// it.
package perf

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"strings"
	"time"
)

// Flags selects the built-in fields of a Snapshot.
type Flags uint8

// Display flags. Each gates exactly one Snapshot field.
const (
	ShowFPS Flags = 1 << iota
	ShowFrameTime
	ShowFrameTimeUsage
	ShowDrawCalls
	ShowTriangleCount

	// ShowAll enables every built-in field.
	ShowAll = ShowFPS | ShowFrameTime | ShowFrameTimeUsage | ShowDrawCalls | ShowTriangleCount
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{ShowFPS, "fps"},
	{ShowFrameTime, "frame-time"},
	{ShowFrameTimeUsage, "frame-time-usage"},
	{ShowDrawCalls, "draw-calls"},
	{ShowTriangleCount, "triangles"},
}

// Has reports whether every flag in x is set.
func (f Flags) Has(x Flags) bool { return f&x == x }

func (f Flags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, ",")
}

// ParseFlags parses flag names as printed by Flags.String. "all" and
// "none" are accepted too.
func ParseFlags(names []string) (Flags, error) {
	var f Flags
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case "", "none":
			continue
		case "all":
			f |= ShowAll
			continue
		}
		found := false
		for _, fn := range flagNames {
			if fn.name == name {
				f |= fn.flag
				found = true
				break
			}
		}
		if !found {
			return 0, &ConfigError{Field: "Flags", Value: raw, Reason: "unknown display flag"}
		}
	}
	return f, nil
}

// Corner is where the overlay is drawn. It is presentation-only.
type Corner uint8

// Overlay corners.
const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

var cornerNames = [...]string{"top-left", "top-right", "bottom-left", "bottom-right"}

func (c Corner) String() string {
	if int(c) < len(cornerNames) {
		return cornerNames[c]
	}
	return fmt.Sprintf("Corner(%d)", c)
}

// ParseCorner parses a corner name such as "bottom-right".
func ParseCorner(s string) (Corner, error) {
	for i, name := range cornerNames {
		if strings.EqualFold(name, s) {
			return Corner(i), nil
		}
	}
	return 0, &ConfigError{Field: "Position", Value: s, Reason: "unknown corner"}
}

// MetricFunc produces the display value of a custom metric. A returned
// error or a panic omits the metric from that tick's snapshot.
type MetricFunc func() (string, error)

// DisplayOptions configures what the overlay shows and how often.
type DisplayOptions struct {
	Flags             Flags
	Position          Corner
	BackgroundOpacity float64 // 0 (transparent) to 1 (opaque)
	UpdateIntervalMs  int
	CustomMetrics     map[string]MetricFunc
}

// DefaultDisplayOptions shows FPS and frame time in the top-right corner,
// updated twice a second.
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{
		Flags:             ShowFPS | ShowFrameTime,
		Position:          TopRight,
		BackgroundOpacity: 0.7,
		UpdateIntervalMs:  500,
	}
}

// ErrConfiguration is matched by every DisplayOptions validation error.
var ErrConfiguration = errors.New("perf: invalid display options")

// ConfigError reports an invalid DisplayOptions field.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("perf: %s %v: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// Validate checks the options. It returns the first problem found.
func (o DisplayOptions) Validate() error {
	if o.UpdateIntervalMs < 1 {
		return &ConfigError{Field: "UpdateIntervalMs", Value: o.UpdateIntervalMs, Reason: "must be at least 1"}
	}
	if o.BackgroundOpacity < 0 || o.BackgroundOpacity > 1 || math.IsNaN(o.BackgroundOpacity) {
		return &ConfigError{Field: "BackgroundOpacity", Value: o.BackgroundOpacity, Reason: "must be within [0, 1]"}
	}
	if o.Flags&^ShowAll != 0 {
		return &ConfigError{Field: "Flags", Value: uint8(o.Flags), Reason: "unknown display flag"}
	}
	if int(o.Position) >= len(cornerNames) {
		return &ConfigError{Field: "Position", Value: o.Position, Reason: "unknown corner"}
	}
	for name, fn := range o.CustomMetrics {
		if fn == nil {
			return &ConfigError{Field: "CustomMetrics", Value: name, Reason: "nil metric function"}
		}
	}
	return nil
}

// Interval returns the update interval as a duration.
func (o DisplayOptions) Interval() time.Duration {
	return time.Duration(o.UpdateIntervalMs) * time.Millisecond
}

// clone copies o so later caller mutation of CustomMetrics is not seen.
func (o DisplayOptions) clone() DisplayOptions {
	o.CustomMetrics = maps.Clone(o.CustomMetrics)
	return o
}
