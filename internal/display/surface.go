// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package display defines the display-surface boundary the toolkit draws
// calibration targets and instructions on. The toolkit does not own
// rendering; a real stimulus window plugs in behind Surface, and this
// package only ships the console and headless implementations.
package display

// ShapeKind selects what a draw call renders.
type ShapeKind string

const (
	ShapeDot   ShapeKind = "dot"
	ShapeCross ShapeKind = "cross"
	ShapeText  ShapeKind = "text"
)

// Shape is one draw call. Positions and sizes are in normalized device
// coordinates (-1..1, y up), matching the gaze sample convention.
type Shape struct {
	Kind  ShapeKind
	X     float64
	Y     float64
	Size  float64
	Color string
	Text  string
}

// Surface is the capability set the core consumes from a display.
type Surface interface {
	Draw(s Shape)
	Flip()

	// WaitForKey blocks until one of the allowed keys is pressed and
	// returns it.
	WaitForKey(allowed []string) string

	// PollKeys returns currently pressed keys without blocking.
	PollKeys() []string

	// Size returns the surface size in pixels.
	Size() (w, h int)

	// PointerPosition reports the input pointer in normalized coordinates.
	PointerPosition() (x, y float64)
}
