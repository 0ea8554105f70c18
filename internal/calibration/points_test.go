// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gaze_computer/internal/gaze"
)

func TestPointsNineIsThreeByThree(t *testing.T) {
	pts := Points(9)
	require.Len(t, pts, 9)

	// Top row first, spanning ±0.8, center point in the middle.
	assert.Equal(t, gaze.Point{X: -0.8, Y: 0.8}, pts[0])
	assert.Equal(t, gaze.Point{X: 0.8, Y: 0.8}, pts[2])
	assert.Equal(t, gaze.Point{X: 0, Y: 0}, pts[4])
	assert.Equal(t, gaze.Point{X: 0.8, Y: -0.8}, pts[8])
}

func TestPointsFiveIsCenterPlusCorners(t *testing.T) {
	pts := Points(5)
	require.Len(t, pts, 5)
	assert.Equal(t, gaze.Point{X: 0, Y: 0}, pts[0])
	assert.Contains(t, pts, gaze.Point{X: -0.8, Y: -0.8})
	assert.Contains(t, pts, gaze.Point{X: 0.8, Y: 0.8})
}

func TestPointsNonSquareRoundsDown(t *testing.T) {
	// 7 rounds down to a 2x2 grid.
	assert.Len(t, Points(7), 4)
	assert.Len(t, Points(12), 9)
}

func TestPointsSmallCountsUseFive(t *testing.T) {
	assert.Len(t, Points(3), 5)
	assert.Len(t, Points(1), 5)
}

func TestPointsSquareCounts(t *testing.T) {
	assert.Len(t, Points(4), 4)
	assert.Len(t, Points(16), 16)

	pts := Points(4)
	assert.Equal(t, gaze.Point{X: -0.8, Y: 0.8}, pts[0])
	assert.Equal(t, gaze.Point{X: 0.8, Y: -0.8}, pts[3])
}

func TestShufflePreservesPoints(t *testing.T) {
	orig := Points(9)
	shuffled := Shuffle(orig, rand.New(rand.NewSource(42)))

	require.Len(t, shuffled, len(orig))
	assert.ElementsMatch(t, orig, shuffled)

	// Original order must be untouched.
	assert.Equal(t, gaze.Point{X: -0.8, Y: 0.8}, orig[0])
}
