// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package app wires the toolkit's components into the runnable commands:
// calibration, validation, the experiment loop and the MQTT telemetry pair.
package app

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/relabs-tech/gaze_computer/internal/backend"
	"github.com/relabs-tech/gaze_computer/internal/config"
	"github.com/relabs-tech/gaze_computer/internal/display"
	"github.com/relabs-tech/gaze_computer/internal/session"
	"github.com/relabs-tech/gaze_computer/internal/timeutil"
	"github.com/relabs-tech/gaze_computer/internal/tracker"
)

// RunCalibration runs the guided calibration and writes the log, the plot
// and the session results.
func RunCalibration(cfg *config.Config, surface display.Surface) error {
	log.Println("starting gaze-computer calibration")

	clock := timeutil.NewRealClock()

	// 1) Session recorder for logs and results
	recorder, err := session.NewRecorder(cfg.DataDir, cfg.TrackerType,
		cfg.WindowWidth, cfg.WindowHeight, cfg.AutoSaveInterval, clock)
	if err != nil {
		return err
	}
	log.Printf("session %s", recorder.SessionID())

	// 2) Tracker with the configured backend (falls back to pointer)
	tr := tracker.New(backend.Kind(cfg.TrackerType), surface, cfg, clock, recorder)
	defer tr.Close()

	// 3) Instructions, wait for the participant
	surface.Draw(display.Shape{
		Kind: display.ShapeText,
		Text: "Follow the dot with your eyes. Press SPACE to start.",
	})
	surface.Flip()
	if key := surface.WaitForKey([]string{"space", "escape"}); key == "escape" {
		log.Println("calibration: cancelled before start")
		return nil
	}

	// 4) Run the calibration
	out, err := tr.Calibrate()
	if err != nil {
		return err
	}
	if out.Aborted {
		log.Println("calibration: aborted")
		return nil
	}

	// 5) Persist the per-point log and the plot
	if out.Result != nil {
		logPath := filepath.Join(cfg.DataDir, fmt.Sprintf("calibration_log_%s.txt", recorder.SessionID()))
		if err := out.Result.SaveLog(logPath); err != nil {
			log.Printf("calibration: %v", err)
		} else {
			log.Printf("calibration: log written to %s", logPath)
		}

		plotPath := filepath.Join(cfg.DataDir, fmt.Sprintf("calibration_plot_%s.png", recorder.SessionID()))
		if err := out.Result.SavePlot(plotPath); err != nil {
			log.Printf("calibration: %v", err)
		} else {
			log.Printf("calibration: plot written to %s", plotPath)
		}

		recorder.SetResults(&session.Results{
			Success:          out.Success,
			CalibrationError: out.Result.Average,
			Timestamp:        time.Now().Format(time.RFC3339),
			LogPath:          logPath,
		})

		// 6) Index the attempt in the session database when configured
		if cfg.DatabasePath != "" {
			store, err := session.OpenStore(cfg.DatabasePath)
			if err != nil {
				log.Printf("calibration: %v", err)
			} else {
				defer store.Close()
				if err := store.RecordCalibration(recorder.SessionID(), out.Attempts, out.Result, out.Success); err != nil {
					log.Printf("calibration: %v", err)
				}
				if err := store.RecordSession(recorder.SessionID(), string(tr.Kind()),
					cfg.WindowWidth, cfg.WindowHeight, recorder.Count(), tr.DroppedSamples()); err != nil {
					log.Printf("calibration: %v", err)
				}
			}
		}
	}

	if out.Success {
		log.Printf("calibration succeeded after %d attempt(s)", out.Attempts)
	} else {
		log.Printf("calibration failed after %d attempt(s)", out.Attempts)
	}
	return nil
}
