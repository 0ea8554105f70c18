// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gaze defines the sample model shared by every backend and the
// validation rules applied before a sample enters a session buffer.
package gaze

import "math"

// Point is a position in normalized device coordinates: x and y in -1..1,
// origin at the screen center, y positive up. The whole session uses this
// one convention; adapters convert at the edge.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sample is a single gaze measurement. Pupil diameters are in millimeters;
// zero means the backend did not report one. Valid is set by the validator,
// never by an adapter.
type Sample struct {
	Timestamp  float64 `json:"timestamp"` // monotonic seconds (or device ticks converted to seconds)
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
	PupilLeft  float64 `json:"pupil_left,omitempty"`
	PupilRight float64 `json:"pupil_right,omitempty"`
	Valid      bool    `json:"valid"`
}

// Position returns the sample's screen position.
func (s Sample) Position() Point {
	return Point{X: s.X, Y: s.Y}
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
