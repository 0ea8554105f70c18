// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration runs the guided calibration and validation sweeps and
// computes accuracy statistics over the collected fixations.
package calibration

import (
	"math"
	"math/rand"

	"github.com/relabs-tech/gaze_computer/internal/gaze"
)

// fivePoints is the classic center-plus-corners layout used when no square
// grid fits the requested count.
var fivePoints = []gaze.Point{
	{X: 0, Y: 0},
	{X: -0.8, Y: 0.8},
	{X: 0.8, Y: 0.8},
	{X: -0.8, Y: -0.8},
	{X: 0.8, Y: -0.8},
}

// Points returns the target layout for n points in normalized -1..1
// coordinates. Counts of 4 or more (except 5) become a k x k grid spanning
// ±0.8 with k rounded down from sqrt(n); 5 and anything smaller use the
// corners+center layout.
func Points(n int) []gaze.Point {
	if n >= 4 && n != 5 {
		return grid(int(math.Sqrt(float64(n))))
	}
	pts := make([]gaze.Point, len(fivePoints))
	copy(pts, fivePoints)
	return pts
}

// grid lays out a k x k grid over ±0.8, top row first.
func grid(k int) []gaze.Point {
	step := 1.6 / float64(k-1)
	pts := make([]gaze.Point, 0, k*k)
	for row := 0; row < k; row++ {
		y := 0.8 - float64(row)*step
		for col := 0; col < k; col++ {
			x := -0.8 + float64(col)*step
			pts = append(pts, gaze.Point{X: x, Y: y})
		}
	}
	return pts
}

// Shuffle returns a shuffled copy of the target layout.
func Shuffle(pts []gaze.Point, rng *rand.Rand) []gaze.Point {
	out := make([]gaze.Point, len(pts))
	copy(out, pts)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
