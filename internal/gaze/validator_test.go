// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gaze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorBasicPassesEverything(t *testing.T) {
	v := NewValidator(LevelBasic)

	s, ok := v.Validate(Sample{Timestamp: 1, X: 0.5, Y: -0.5})
	require.True(t, ok)
	assert.True(t, s.Valid)
	assert.Equal(t, 0.5, s.X)

	// Even zero confidence and implausible pupils pass in basic mode.
	_, ok = v.Validate(Sample{Timestamp: 2, Confidence: 0, PupilLeft: 0.1})
	assert.True(t, ok)
	assert.Equal(t, 0, v.Dropped())
}

func TestValidatorStrictRejectsZeroConfidence(t *testing.T) {
	v := NewValidator(LevelStrict)

	_, ok := v.Validate(Sample{Timestamp: 1, X: 0.1, Y: 0.1})
	assert.False(t, ok)
	assert.Equal(t, 1, v.Dropped())
}

func TestValidatorStrictPupilBounds(t *testing.T) {
	v := NewValidator(LevelStrict)

	t.Run("below minimum", func(t *testing.T) {
		_, ok := v.Validate(Sample{Timestamp: 1, Confidence: 1, PupilLeft: 0.5})
		assert.False(t, ok)
	})

	t.Run("above maximum", func(t *testing.T) {
		_, ok := v.Validate(Sample{Timestamp: 2, Confidence: 1, PupilRight: 9.5})
		assert.False(t, ok)
	})

	t.Run("unreported pupil passes", func(t *testing.T) {
		s, ok := v.Validate(Sample{Timestamp: 3, Confidence: 1})
		require.True(t, ok)
		assert.True(t, s.Valid)
	})

	t.Run("plausible pupil passes", func(t *testing.T) {
		_, ok := v.Validate(Sample{Timestamp: 4, Confidence: 1, PupilLeft: 3.2, PupilRight: 3.4})
		assert.True(t, ok)
	})
}

func TestValidatorStrictVelocityGate(t *testing.T) {
	v := NewValidator(LevelStrict)

	_, ok := v.Validate(Sample{Timestamp: 1.0, X: 0, Y: 0, Confidence: 1})
	require.True(t, ok)

	// 2 units in 1ms is far beyond any plausible saccade.
	_, ok = v.Validate(Sample{Timestamp: 1.001, X: 1, Y: 1, Confidence: 1})
	assert.False(t, ok)
	assert.Equal(t, 1, v.Dropped())

	// The rejected sample must not poison the velocity reference: a sample
	// near the last accepted position is fine.
	s, ok := v.Validate(Sample{Timestamp: 1.1, X: 0.01, Y: 0.01, Confidence: 1})
	require.True(t, ok)
	assert.True(t, s.Valid)
}

func TestValidatorVelocitySkippedForFirstSample(t *testing.T) {
	v := NewValidator(LevelStrict)

	// No previous sample, so even a far-off position is accepted.
	_, ok := v.Validate(Sample{Timestamp: 5, X: 0.9, Y: -0.9, Confidence: 1})
	assert.True(t, ok)
}

func TestValidatorDroppedCounter(t *testing.T) {
	v := NewValidator(LevelStrict)

	for i := 0; i < 4; i++ {
		v.Validate(Sample{Timestamp: float64(i), Confidence: 0})
	}
	v.Validate(Sample{Timestamp: 10, Confidence: 1})

	assert.Equal(t, 4, v.Dropped())
}
