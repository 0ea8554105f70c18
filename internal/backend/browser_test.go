// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package backend

import (
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gaze_computer/internal/gaze"
	"github.com/relabs-tech/gaze_computer/internal/timeutil"
)

// dialWhenUp waits for the adapter to bind its port and connects a client.
func dialWhenUp(t *testing.T, a *BrowserAdapter) *websocket.Conn {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if addr := a.Addr(); addr != "" {
			conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/gaze", nil)
			if err == nil {
				return conn
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("adapter never became dialable")
	return nil
}

func TestBrowserAdapterSampleFlow(t *testing.T) {
	a := NewBrowserAdapter(0, 5, timeutil.NewRealClock())

	initDone := make(chan error, 1)
	go func() { initDone <- a.Initialize(make(chan struct{})) }()

	conn := dialWhenUp(t, a)
	defer conn.Close()
	require.NoError(t, <-initDone)
	defer a.Shutdown()

	// Page coordinates: 0..1 with the origin at the top-left. (0.5, 0) is
	// the top center of the screen.
	require.NoError(t, conn.WriteJSON(browserSample{X: 0.5, Y: 0, Timestamp: 1.25, Confidence: 0.9}))

	var s gaze.Sample
	var ok bool
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s, ok = a.PollSample(); ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, ok, "no sample arrived")

	assert.InDelta(t, 0.0, s.X, 1e-12)
	assert.InDelta(t, 1.0, s.Y, 1e-12)
	assert.Equal(t, 1.25, s.Timestamp)
	assert.Equal(t, 0.9, s.Confidence)
}

func TestBrowserAdapterCalibrationCommand(t *testing.T) {
	a := NewBrowserAdapter(0, 5, timeutil.NewRealClock())

	initDone := make(chan error, 1)
	go func() { initDone <- a.Initialize(make(chan struct{})) }()

	conn := dialWhenUp(t, a)
	defer conn.Close()
	require.NoError(t, <-initDone)
	defer a.Shutdown()

	require.NoError(t, a.BeginCalibrationPoint(gaze.Point{X: -1, Y: 1}))

	var cmd browserCommand
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&cmd))

	assert.Equal(t, "calibration_point", cmd.Type)
	// Top-left corner in page coordinates.
	assert.InDelta(t, 0.0, cmd.X, 1e-12)
	assert.InDelta(t, 0.0, cmd.Y, 1e-12)
}

func TestBrowserAdapterTimeout(t *testing.T) {
	a := NewBrowserAdapter(0, 0.3, timeutil.NewRealClock())

	err := a.Initialize(make(chan struct{}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestBrowserAdapterAbort(t *testing.T) {
	a := NewBrowserAdapter(0, 30, timeutil.NewRealClock())

	abort := make(chan struct{})
	go func() {
		time.Sleep(100 * time.Millisecond)
		close(abort)
	}()

	err := a.Initialize(abort)
	assert.ErrorIs(t, err, ErrAborted)
}
