// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

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

// RunValidation calibrates and then checks accuracy against the configured
// threshold.
func RunValidation(cfg *config.Config, surface display.Surface) error {
	log.Println("starting gaze-computer validation")

	clock := timeutil.NewRealClock()

	recorder, err := session.NewRecorder(cfg.DataDir, cfg.TrackerType,
		cfg.WindowWidth, cfg.WindowHeight, cfg.AutoSaveInterval, clock)
	if err != nil {
		return err
	}
	log.Printf("session %s", recorder.SessionID())

	tr := tracker.New(backend.Kind(cfg.TrackerType), surface, cfg, clock, recorder)
	defer tr.Close()

	// 1) Calibrate first; validation of an uncalibrated tracker is noise
	surface.Draw(display.Shape{
		Kind: display.ShapeText,
		Text: "Calibration, then validation. Press SPACE to start.",
	})
	surface.Flip()
	if key := surface.WaitForKey([]string{"space", "escape"}); key == "escape" {
		log.Println("validation: cancelled before start")
		return nil
	}

	calOut, err := tr.Calibrate()
	if err != nil {
		return err
	}
	if calOut.Aborted {
		log.Println("validation: calibration aborted")
		return nil
	}
	if !calOut.Success {
		log.Println("validation: calibration failed, skipping accuracy check")
		return nil
	}

	// 2) Validation sweep over the green targets
	valOut, aborted, err := tr.Validate()
	if err != nil {
		return err
	}
	if aborted {
		log.Println("validation: aborted")
		return nil
	}

	// 3) Persist the validation log and session results
	logPath := filepath.Join(cfg.DataDir, fmt.Sprintf("validation_log_%s.txt", recorder.SessionID()))
	if err := valOut.Result.SaveLog(logPath); err != nil {
		log.Printf("validation: %v", err)
	} else {
		log.Printf("validation: log written to %s", logPath)
	}

	recorder.SetResults(&session.Results{
		Success:          valOut.Passed,
		CalibrationError: calOut.Result.Average,
		ValidationError:  valOut.Result.Average,
		Timestamp:        time.Now().Format(time.RFC3339),
		LogPath:          logPath,
	})

	if cfg.DatabasePath != "" {
		store, err := session.OpenStore(cfg.DatabasePath)
		if err != nil {
			log.Printf("validation: %v", err)
		} else {
			defer store.Close()
			if err := store.RecordSession(recorder.SessionID(), string(tr.Kind()),
				cfg.WindowWidth, cfg.WindowHeight, recorder.Count(), tr.DroppedSamples()); err != nil {
				log.Printf("validation: %v", err)
			}
		}
	}

	if valOut.Passed {
		log.Printf("validation passed (avg error %.4f)", valOut.Result.Average)
	} else {
		log.Printf("validation failed (avg error %.4f), recalibration recommended", valOut.Result.Average)
	}
	return nil
}
