// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package backend implements the adapter variants behind the tracker: a
// serial-attached vendor tracker, a browser-hosted estimator bridged over
// WebSocket, and the pointer simulation used as the terminal fallback.
package backend

import (
	"errors"

	"github.com/relabs-tech/gaze_computer/internal/gaze"
)

// Kind identifies a backend adapter variant.
type Kind string

const (
	KindSerial  Kind = "serial"  // vendor tracker on a serial link
	KindBrowser Kind = "browser" // browser-hosted estimator over WebSocket
	KindPointer Kind = "pointer" // input-pointer simulation, terminal fallback
)

// Initialization failures. All of them are recovered by substituting the
// pointer adapter; they surface only in the log.
var (
	ErrNoDevice         = errors.New("backend: no device found")
	ErrTimeout          = errors.New("backend: connection timed out")
	ErrConnectionFailed = errors.New("backend: connection failed")
	ErrAborted          = errors.New("backend: initialization aborted")
)

// Adapter hides backend-specific initialization, acquisition and coordinate
// conversion. Samples come out in normalized -1..1 screen coordinates with
// y positive up, whatever the backend's native convention.
type Adapter interface {
	Kind() Kind

	// Initialize brings the backend up. It may block up to the adapter's
	// timeout; closing abort cancels the wait and tears down cleanly.
	Initialize(abort <-chan struct{}) error

	// PollSample returns at most one new sample without blocking.
	PollSample() (gaze.Sample, bool)

	// BeginCalibrationPoint tells the backend a fixation target is on
	// screen at p.
	BeginCalibrationPoint(p gaze.Point) error

	// CollectCalibrationSample returns an immediate measurement for p,
	// used by adapters that do not need a dwell window.
	CollectCalibrationSample(p gaze.Point) (gaze.Sample, bool)

	Shutdown() error
}
