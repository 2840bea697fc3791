// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package perf

import (
	"slices"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Snapshot is one tick of overlay data. A pointer field is non-nil exactly
// when its display flag was enabled for that tick. Snapshots are values;
// the aggregator never touches one after emitting it.
type Snapshot struct {
	FPS               *float64
	FrameTimeMs       *float64
	FrameTimeUsagePct *float64
	DrawCalls         *int
	TriangleCount     *int

	// Custom holds the custom metrics that evaluated successfully.
	Custom map[string]string

	Timestamp time.Time
}

// Flags reports which built-in fields are populated.
func (s Snapshot) Flags() Flags {
	var f Flags
	if s.FPS != nil {
		f |= ShowFPS
	}
	if s.FrameTimeMs != nil {
		f |= ShowFrameTime
	}
	if s.FrameTimeUsagePct != nil {
		f |= ShowFrameTimeUsage
	}
	if s.DrawCalls != nil {
		f |= ShowDrawCalls
	}
	if s.TriangleCount != nil {
		f |= ShowTriangleCount
	}
	return f
}

// Lines renders the snapshot as overlay text, one metric per line, with
// numbers formatted for tag. Built-in fields come first in a fixed order,
// then custom metrics sorted by name.
func (s Snapshot) Lines(tag language.Tag) []string {
	p := message.NewPrinter(tag)
	var lines []string
	if s.FPS != nil {
		lines = append(lines, p.Sprintf("FPS: %.1f", *s.FPS))
	}
	if s.FrameTimeMs != nil {
		lines = append(lines, p.Sprintf("Frame: %.2f ms", *s.FrameTimeMs))
	}
	if s.FrameTimeUsagePct != nil {
		lines = append(lines, p.Sprintf("Budget: %.0f%%", *s.FrameTimeUsagePct))
	}
	if s.DrawCalls != nil {
		lines = append(lines, p.Sprintf("Draw calls: %d", *s.DrawCalls))
	}
	if s.TriangleCount != nil {
		lines = append(lines, p.Sprintf("Triangles: %d", *s.TriangleCount))
	}
	names := make([]string, 0, len(s.Custom))
	for name := range s.Custom {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		lines = append(lines, name+": "+s.Custom[name])
	}
	return lines
}
