// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package backend

import (
	"github.com/relabs-tech/gaze_computer/internal/display"
	"github.com/relabs-tech/gaze_computer/internal/gaze"
	"github.com/relabs-tech/gaze_computer/internal/timeutil"
)

// PointerAdapter reports the input-pointer position as gaze. It never fails
// to initialize, which is what makes it the terminal fallback: the system
// never ends up with zero working backends.
type PointerAdapter struct {
	surface display.Surface
	clock   timeutil.Clock
}

func NewPointerAdapter(surface display.Surface, clock timeutil.Clock) *PointerAdapter {
	return &PointerAdapter{surface: surface, clock: clock}
}

func (a *PointerAdapter) Kind() Kind {
	return KindPointer
}

func (a *PointerAdapter) Initialize(abort <-chan struct{}) error {
	return nil
}

func (a *PointerAdapter) PollSample() (gaze.Sample, bool) {
	x, y := a.surface.PointerPosition()
	return gaze.Sample{
		Timestamp:  a.clock.Now(),
		X:          x,
		Y:          y,
		Confidence: 1.0,
	}, true
}

func (a *PointerAdapter) BeginCalibrationPoint(p gaze.Point) error {
	return nil
}

// CollectCalibrationSample is immediate for the pointer: there is no signal
// to settle, so the dwell window is skipped.
func (a *PointerAdapter) CollectCalibrationSample(p gaze.Point) (gaze.Sample, bool) {
	return a.PollSample()
}

func (a *PointerAdapter) Shutdown() error {
	return nil
}
