// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package tracker is the facade the commands talk to: it owns the backend
// adapter, the sample validator and the recorder, and exposes the
// calibrate / validate / record / poll lifecycle.
package tracker

import (
	"errors"
	"log"

	"github.com/relabs-tech/gaze_computer/internal/backend"
	"github.com/relabs-tech/gaze_computer/internal/calibration"
	"github.com/relabs-tech/gaze_computer/internal/config"
	"github.com/relabs-tech/gaze_computer/internal/display"
	"github.com/relabs-tech/gaze_computer/internal/gaze"
	"github.com/relabs-tech/gaze_computer/internal/session"
	"github.com/relabs-tech/gaze_computer/internal/timeutil"
)

// ErrClosed is returned by every operation after Close.
var ErrClosed = errors.New("tracker: closed")

// Tracker ties a backend adapter, a sample validator and a session recorder
// into one object with a predictable lifecycle. Construction never fails:
// when the requested backend cannot initialize, the pointer simulation takes
// its place and the substitution is logged.
type Tracker struct {
	cfg       *config.Config
	surface   display.Surface
	clock     timeutil.Clock
	adapter   backend.Adapter
	validator *gaze.Validator
	recorder  *session.Recorder

	recording  bool
	calibrated bool
	closed     bool

	haveGaze bool
	lastGaze gaze.Point

	// OnSample, when set, is called for every valid sample seen by Update.
	OnSample func(gaze.Sample)
}

// New builds a tracker for the requested backend kind. On initialization
// failure it falls back to the pointer adapter, so the returned tracker is
// always usable.
func New(kind backend.Kind, surface display.Surface, cfg *config.Config, clock timeutil.Clock, recorder *session.Recorder) *Tracker {
	t := &Tracker{
		cfg:       cfg,
		surface:   surface,
		clock:     clock,
		validator: gaze.NewValidator(cfg.ValidationLevel),
		recorder:  recorder,
	}

	adapter := t.newAdapter(kind)
	if err := t.initWithAbort(adapter); err != nil {
		log.Printf("tracker: %s backend unavailable (%v), falling back to pointer", kind, err)
		adapter = backend.NewPointerAdapter(surface, clock)
		if err := t.initWithAbort(adapter); err != nil {
			// The pointer adapter cannot fail; keep it anyway.
			log.Printf("tracker: pointer fallback: %v", err)
		}
	}
	t.adapter = adapter

	if recorder != nil {
		recorder.SetTrackerType(string(adapter.Kind()))
	}
	log.Printf("tracker: using %s backend", adapter.Kind())
	return t
}

func (t *Tracker) newAdapter(kind backend.Kind) backend.Adapter {
	switch kind {
	case backend.KindSerial:
		return backend.NewSerialAdapter(t.cfg.SerialPort, t.cfg.SerialBaud, t.clock)
	case backend.KindBrowser:
		return backend.NewBrowserAdapter(t.cfg.BrowserPort, t.cfg.BrowserTimeout, t.clock)
	default:
		return backend.NewPointerAdapter(t.surface, t.clock)
	}
}

// initWithAbort runs Initialize while watching for the escape key, so a
// participant can cancel a long connection wait. The watcher is the only
// goroutine that closes abort; the main goroutine dismisses it over stop.
func (t *Tracker) initWithAbort(adapter backend.Adapter) error {
	abort := make(chan struct{})
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
			}
			for _, k := range t.surface.PollKeys() {
				if k == "escape" {
					close(abort)
					return
				}
			}
			t.clock.Sleep(0.05)
		}
	}()

	err := adapter.Initialize(abort)
	close(stop)
	<-done
	return err
}

// Calibrate runs the full guided calibration including retries. The
// calibrated flag is cleared first so an aborted run leaves the tracker
// uncalibrated.
func (t *Tracker) Calibrate() (*calibration.Outcome, error) {
	if t.closed {
		return nil, ErrClosed
	}
	t.calibrated = false

	ctrl := calibration.NewController(t.adapter, t.surface, t.clock, calibration.Options{
		Points:          t.cfg.CalibrationPoints,
		Shuffle:         t.cfg.ShuffleCalibration,
		Dwell:           t.cfg.FixationDuration,
		DiscardFraction: t.cfg.DwellDiscard,
		InterTrial:      t.cfg.InterTrialInterval,
		Threshold:       t.cfg.ValidationThreshold,
		DotSize:         t.cfg.DotSize,
		MaxAttempts:     3,
	})

	out := ctrl.Run()
	t.calibrated = out.Success
	return out, nil
}

// Validate runs an accuracy check over the validation layout.
func (t *Tracker) Validate() (*calibration.ValidationOutcome, bool, error) {
	if t.closed {
		return nil, false, ErrClosed
	}

	ctrl := calibration.NewController(t.adapter, t.surface, t.clock, calibration.Options{
		Points:          t.cfg.ValidationPoints,
		Dwell:           t.cfg.FixationDuration,
		DiscardFraction: t.cfg.DwellDiscard,
		InterTrial:      t.cfg.InterTrialInterval,
		Threshold:       t.cfg.ValidationThreshold,
		DotSize:         t.cfg.DotSize,
	})

	out, aborted := ctrl.Validate()
	return out, aborted, nil
}

// StartRecording clears the buffer and begins collecting samples on Update.
// Calling it while already recording is a no-op.
func (t *Tracker) StartRecording() error {
	if t.closed {
		return ErrClosed
	}
	if t.recording {
		return nil
	}
	if t.recorder != nil {
		t.recorder.Reset()
	}
	t.recording = true
	return nil
}

// StopRecording stops collection but keeps the buffer for saving.
func (t *Tracker) StopRecording() error {
	if t.closed {
		return ErrClosed
	}
	t.recording = false
	return nil
}

// Update polls the backend once, validates the sample, updates the current
// gaze position and, while recording, appends it to the recorder. Call it
// once per frame.
func (t *Tracker) Update() error {
	if t.closed {
		return ErrClosed
	}

	raw, ok := t.adapter.PollSample()
	if !ok {
		return nil
	}
	s, valid := t.validator.Validate(raw)
	if !valid {
		return nil
	}

	t.lastGaze = s.Position()
	t.haveGaze = true

	if t.recording && t.recorder != nil {
		t.recorder.Append(s)
		t.recorder.MaybeAutoSave(t.clock.Now())
	}
	if t.OnSample != nil {
		t.OnSample(s)
	}
	return nil
}

// GazePosition returns the last valid gaze position, or the screen center
// when no valid sample has been seen yet.
func (t *Tracker) GazePosition() (gaze.Point, error) {
	if t.closed {
		return gaze.Point{}, ErrClosed
	}
	if !t.haveGaze {
		return gaze.Point{}, nil
	}
	return t.lastGaze, nil
}

func (t *Tracker) Kind() backend.Kind {
	return t.adapter.Kind()
}

func (t *Tracker) Calibrated() bool {
	return t.calibrated
}

// DroppedSamples reports how many samples strict validation rejected.
func (t *Tracker) DroppedSamples() int {
	return t.validator.Dropped()
}

// Close stops recording, shuts the backend down and finalizes the recorder.
// A second Close returns ErrClosed.
func (t *Tracker) Close() error {
	if t.closed {
		return ErrClosed
	}
	t.recording = false

	if err := t.adapter.Shutdown(); err != nil {
		log.Printf("tracker: backend shutdown: %v", err)
	}
	if t.recorder != nil {
		if err := t.recorder.Close(); err != nil {
			log.Printf("tracker: recorder close: %v", err)
		}
	}
	t.closed = true
	return nil
}
