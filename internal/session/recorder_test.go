// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gaze_computer/internal/gaze"
	"github.com/relabs-tech/gaze_computer/internal/timeutil"
)

func newTestRecorder(t *testing.T, interval float64) (*Recorder, string, *timeutil.FakeClock) {
	t.Helper()
	dir := t.TempDir()
	clock := timeutil.NewFakeClock()
	r, err := NewRecorder(dir, "pointer", 800, 600, interval, clock)
	require.NoError(t, err)
	return r, dir, clock
}

func TestRecorderSaveAndLoadRoundTrip(t *testing.T) {
	r, _, _ := newTestRecorder(t, 0)

	samples := []gaze.Sample{
		{Timestamp: 1, X: 0.1, Y: 0.2, Confidence: 1, Valid: true},
		{Timestamp: 2, X: -0.3, Y: 0.4, Confidence: 0.5, PupilLeft: 3.1, Valid: true},
		{Timestamp: 3, X: 0.5, Y: -0.6, Confidence: 1, Valid: true},
	}
	for _, s := range samples {
		r.Append(s)
	}

	path, err := r.Save("")
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "gaze_data_"+r.SessionID())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pointer", loaded.TrackerType)
	assert.Equal(t, [2]int{800, 600}, loaded.WindowSize)
	assert.Equal(t, samples, loaded.GazeData)
}

func TestRecorderSessionIDFormat(t *testing.T) {
	r, _, _ := newTestRecorder(t, 0)

	parts := strings.Split(r.SessionID(), "_")
	require.Len(t, parts, 3)
	assert.Len(t, parts[0], 8)
	assert.Len(t, parts[1], 6)
	assert.Len(t, parts[2], 8)
}

func TestRecorderAutoSaveWritesBackup(t *testing.T) {
	r, dir, clock := newTestRecorder(t, 60)

	r.Append(gaze.Sample{Timestamp: 1, X: 0.1, Valid: true})

	// Not due yet.
	r.MaybeAutoSave(clock.Now() + 30)
	files, err := filepath.Glob(filepath.Join(dir, "*backup*"))
	require.NoError(t, err)
	assert.Empty(t, files)

	// Past the interval: one backup appears, buffer stays intact.
	r.MaybeAutoSave(clock.Now() + 61)
	files, err = filepath.Glob(filepath.Join(dir, "*backup*"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, 1, r.Count())
}

func TestRecorderAutoSaveDisabled(t *testing.T) {
	r, dir, clock := newTestRecorder(t, 0)

	r.Append(gaze.Sample{Timestamp: 1, Valid: true})
	r.MaybeAutoSave(clock.Now() + 10000)

	files, err := filepath.Glob(filepath.Join(dir, "*backup*"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestRecorderResetClearsBuffer(t *testing.T) {
	r, _, _ := newTestRecorder(t, 0)

	r.Append(gaze.Sample{Timestamp: 1, Valid: true})
	r.Append(gaze.Sample{Timestamp: 2, Valid: true})
	require.Equal(t, 2, r.Count())

	r.Reset()
	assert.Zero(t, r.Count())
	assert.Empty(t, r.Samples())
}

func TestRecorderCloseWritesDataAndResults(t *testing.T) {
	r, dir, _ := newTestRecorder(t, 0)

	r.Append(gaze.Sample{Timestamp: 1, X: 0.1, Valid: true})
	r.SetResults(&Results{Success: true, CalibrationError: 0.04})

	require.NoError(t, r.Close())

	dataPath := filepath.Join(dir, "gaze_data_"+r.SessionID()+".json")
	_, err := os.Stat(dataPath)
	assert.NoError(t, err)

	resultsPath := filepath.Join(dir, "results_"+r.SessionID()+".json")
	data, err := os.ReadFile(resultsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"success": true`)
	assert.Contains(t, string(data), `"calibration_error": 0.04`)
}
