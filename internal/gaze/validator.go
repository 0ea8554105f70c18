// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gaze

// Validation levels. Basic accepts every sample that carries a position;
// strict additionally filters for physiological plausibility and velocity
// outliers. The level is fixed for a session.
const (
	LevelBasic  = "basic"
	LevelStrict = "strict"
)

// Physiological defaults for strict validation.
const (
	MinPupilMM     = 1.0    // mm
	MaxPupilMM     = 9.0    // mm
	MaxVelocityDef = 1000.0 // normalized units per second
)

// Validator filters raw samples before they reach the session buffer. It
// remembers the last accepted sample so it can gate on implied velocity.
// Rejections are counted, never surfaced per-sample.
type Validator struct {
	Level       string
	MinPupil    float64
	MaxPupil    float64
	MaxVelocity float64

	dropped   int
	lastValid Point
	lastTime  float64
	haveLast  bool
}

// NewValidator returns a validator with the physiological defaults.
func NewValidator(level string) *Validator {
	return &Validator{
		Level:       level,
		MinPupil:    MinPupilMM,
		MaxPupil:    MaxPupilMM,
		MaxVelocity: MaxVelocityDef,
	}
}

// Validate returns the sample with Valid set, or false when it is rejected.
func (v *Validator) Validate(s Sample) (Sample, bool) {
	if v.Level == LevelStrict {
		if s.Confidence == 0 {
			v.dropped++
			return Sample{}, false
		}
		if v.pupilOutOfRange(s.PupilLeft) || v.pupilOutOfRange(s.PupilRight) {
			v.dropped++
			return Sample{}, false
		}
		if v.haveLast {
			dt := s.Timestamp - v.lastTime
			if dt > 0 {
				velocity := Distance(s.Position(), v.lastValid) / dt
				if velocity > v.MaxVelocity {
					v.dropped++
					return Sample{}, false
				}
			}
		}
	}

	v.lastValid = s.Position()
	v.lastTime = s.Timestamp
	v.haveLast = true
	s.Valid = true
	return s, true
}

// pupilOutOfRange reports whether a reported pupil diameter is outside the
// physiological bounds. Zero means "not reported" and passes.
func (v *Validator) pupilOutOfRange(d float64) bool {
	return d != 0 && (d < v.MinPupil || d > v.MaxPupil)
}

// Dropped returns the number of rejected samples so far.
func (v *Validator) Dropped() int {
	return v.dropped
}
