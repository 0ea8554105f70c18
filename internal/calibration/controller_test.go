// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gaze_computer/internal/backend"
	"github.com/relabs-tech/gaze_computer/internal/display"
	"github.com/relabs-tech/gaze_computer/internal/gaze"
	"github.com/relabs-tech/gaze_computer/internal/timeutil"
)

// fakeAdapter is scripted per test: measureAt maps a target to the measured
// position, collectOK gates whether measurements succeed at all.
type fakeAdapter struct {
	kind      backend.Kind
	clock     timeutil.Clock
	measureAt func(p gaze.Point) gaze.Point
	collectOK bool
	lastBegin gaze.Point
	begins    int
}

func (f *fakeAdapter) Kind() backend.Kind               { return f.kind }
func (f *fakeAdapter) Initialize(<-chan struct{}) error { return nil }
func (f *fakeAdapter) Shutdown() error                  { return nil }

func (f *fakeAdapter) BeginCalibrationPoint(p gaze.Point) error {
	f.lastBegin = p
	f.begins++
	return nil
}

func (f *fakeAdapter) PollSample() (gaze.Sample, bool) {
	if !f.collectOK {
		return gaze.Sample{}, false
	}
	p := f.measureAt(f.lastBegin)
	return gaze.Sample{Timestamp: f.clock.Now(), X: p.X, Y: p.Y, Confidence: 1}, true
}

func (f *fakeAdapter) CollectCalibrationSample(p gaze.Point) (gaze.Sample, bool) {
	if !f.collectOK {
		return gaze.Sample{}, false
	}
	m := f.measureAt(p)
	return gaze.Sample{Timestamp: f.clock.Now(), X: m.X, Y: m.Y, Confidence: 1}, true
}

func identity(p gaze.Point) gaze.Point { return p }

func newTestController(adapter backend.Adapter, surface display.Surface, clock timeutil.Clock, opts Options) *Controller {
	return NewController(adapter, surface, clock, opts)
}

func TestRunPerfectCalibrationSucceedsFirstAttempt(t *testing.T) {
	clock := timeutil.NewFakeClock()
	surface := display.NewHeadless(800, 600)
	adapter := &fakeAdapter{kind: backend.KindPointer, clock: clock, measureAt: identity, collectOK: true}

	ctrl := newTestController(adapter, surface, clock, DefaultOptions())
	out := ctrl.Run()

	require.True(t, out.Success)
	assert.False(t, out.Aborted)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, QualityExcellent, out.Result.Quality)
	assert.Equal(t, 9, adapter.begins)
	// No retry prompt on success.
	assert.Zero(t, surface.Waits)
}

func TestRunDwellPathAveragesFixation(t *testing.T) {
	clock := timeutil.NewFakeClock()
	surface := display.NewHeadless(800, 600)
	// Serial kind forces the dwell window instead of the immediate path.
	adapter := &fakeAdapter{kind: backend.KindSerial, clock: clock, measureAt: identity, collectOK: true}

	ctrl := newTestController(adapter, surface, clock, DefaultOptions())
	out := ctrl.Run()

	require.True(t, out.Success)
	assert.InDelta(t, 0.0, out.Result.Average, 1e-9)
}

func TestRunRetriesThenFails(t *testing.T) {
	clock := timeutil.NewFakeClock()
	surface := display.NewHeadless(800, 600)
	// Every fixation lands at the center, so off-center targets are way off.
	adapter := &fakeAdapter{
		kind:      backend.KindPointer,
		clock:     clock,
		measureAt: func(gaze.Point) gaze.Point { return gaze.Point{} },
		collectOK: true,
	}
	surface.Keys = []string{"space", "space"}

	ctrl := newTestController(adapter, surface, clock, DefaultOptions())
	out := ctrl.Run()

	assert.False(t, out.Success)
	assert.False(t, out.Aborted)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, QualityPoor, out.Result.Quality)
	assert.Equal(t, 2, surface.Waits)
}

func TestRunEscapeAtRetryPromptAborts(t *testing.T) {
	clock := timeutil.NewFakeClock()
	surface := display.NewHeadless(800, 600)
	adapter := &fakeAdapter{
		kind:      backend.KindPointer,
		clock:     clock,
		measureAt: func(gaze.Point) gaze.Point { return gaze.Point{} },
		collectOK: true,
	}
	surface.Keys = []string{"escape"}

	ctrl := newTestController(adapter, surface, clock, DefaultOptions())
	out := ctrl.Run()

	assert.True(t, out.Aborted)
	assert.Equal(t, 1, out.Attempts)
}

func TestRunNoSamplesMarksPointsFailed(t *testing.T) {
	clock := timeutil.NewFakeClock()
	surface := display.NewHeadless(800, 600)
	adapter := &fakeAdapter{kind: backend.KindPointer, clock: clock, measureAt: identity, collectOK: false}
	surface.Keys = []string{"escape"}

	ctrl := newTestController(adapter, surface, clock, DefaultOptions())
	out := ctrl.Run()

	require.NotNil(t, out.Result)
	assert.False(t, out.Success)
	for _, p := range out.Result.Points {
		assert.True(t, p.Failed)
		assert.Equal(t, "no samples", p.Reason)
	}
}

func TestRunEscapeDuringDwellAborts(t *testing.T) {
	clock := timeutil.NewFakeClock()
	surface := display.NewHeadless(800, 600)
	adapter := &fakeAdapter{kind: backend.KindSerial, clock: clock, measureAt: identity, collectOK: true}
	surface.Polled = [][]string{{"escape"}}

	ctrl := newTestController(adapter, surface, clock, DefaultOptions())
	out := ctrl.Run()

	assert.True(t, out.Aborted)
}

func TestValidatePerfectPasses(t *testing.T) {
	clock := timeutil.NewFakeClock()
	surface := display.NewHeadless(800, 600)
	adapter := &fakeAdapter{kind: backend.KindPointer, clock: clock, measureAt: identity, collectOK: true}

	opts := DefaultOptions()
	opts.Points = 5
	ctrl := newTestController(adapter, surface, clock, opts)

	out, aborted := ctrl.Validate()
	require.False(t, aborted)
	assert.True(t, out.Passed)
	assert.False(t, out.RecommendRecalibrate)
}

func TestAssess(t *testing.T) {
	t.Run("above threshold recommends recalibration", func(t *testing.T) {
		res := Analyze(pointResults(0.25, 0.25), 0.2)
		out := Assess(res, 0.2)
		assert.False(t, out.Passed)
		assert.True(t, out.RecommendRecalibrate)
	})

	t.Run("at threshold passes", func(t *testing.T) {
		res := Analyze(pointResults(0.2, 0.2), 0.2)
		out := Assess(res, 0.2)
		assert.True(t, out.Passed)
	})

	t.Run("no usable points fails", func(t *testing.T) {
		res := Analyze([]PointResult{{Failed: true}}, 0.2)
		out := Assess(res, 0.2)
		assert.False(t, out.Passed)
	})
}
