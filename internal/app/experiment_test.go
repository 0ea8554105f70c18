// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gaze_computer/internal/config"
	"github.com/relabs-tech/gaze_computer/internal/display"
)

func TestRunExperimentProceedsWithoutCalibration(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Trials = 2
	cfg.FixationDuration = 0.02
	cfg.StimulusDuration = 0.02
	cfg.InterTrialInterval = 0.001

	// The headless pointer sits at the center, so every off-center target
	// measures badly and calibration fails. Space starts the run, escape
	// gives up at the first retry prompt.
	surface := display.NewHeadless(800, 600)
	surface.Keys = []string{"space", "escape"}

	require.NoError(t, RunExperiment(cfg, surface))

	// Trials ran regardless of the failed calibration.
	logs, err := filepath.Glob(filepath.Join(cfg.DataDir, "experiment_log_*.txt"))
	require.NoError(t, err)
	require.Len(t, logs, 1)

	data, err := os.ReadFile(logs[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Trial, GazeX, GazeY", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1, "))
	assert.True(t, strings.HasPrefix(lines[2], "2, "))

	// Gaze data was recorded and saved on close.
	saved, err := filepath.Glob(filepath.Join(cfg.DataDir, "gaze_data_*.json"))
	require.NoError(t, err)
	assert.NotEmpty(t, saved)

	// The results file reflects the failed calibration.
	results, err := filepath.Glob(filepath.Join(cfg.DataDir, "results_*.json"))
	require.NoError(t, err)
	require.Len(t, results, 1)
	content, err := os.ReadFile(results[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), `"success": false`)
}
