// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gaze_computer/internal/backend"
	"github.com/relabs-tech/gaze_computer/internal/config"
	"github.com/relabs-tech/gaze_computer/internal/display"
	"github.com/relabs-tech/gaze_computer/internal/gaze"
	"github.com/relabs-tech/gaze_computer/internal/session"
	"github.com/relabs-tech/gaze_computer/internal/timeutil"
	"github.com/relabs-tech/gaze_computer/internal/tracker"
)

// RunExperiment runs the demo experiment: calibration, then a sequence of
// fixation-plus-stimulus trials with gaze recorded throughout. When an MQTT
// broker is configured, every valid sample is also published live.
func RunExperiment(cfg *config.Config, surface display.Surface) error {
	log.Println("starting gaze-computer experiment")

	clock := timeutil.NewRealClock()

	recorder, err := session.NewRecorder(cfg.DataDir, cfg.TrackerType,
		cfg.WindowWidth, cfg.WindowHeight, cfg.AutoSaveInterval, clock)
	if err != nil {
		return err
	}
	log.Printf("session %s", recorder.SessionID())

	tr := tracker.New(backend.Kind(cfg.TrackerType), surface, cfg, clock, recorder)
	defer tr.Close()

	// 1) Optional live telemetry over MQTT
	if cfg.MQTTBroker != "" {
		opts := mqtt.NewClientOptions().
			AddBroker(cfg.MQTTBroker).
			SetClientID(cfg.MQTTClientID)
		client := mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Printf("experiment: MQTT connect error: %v", token.Error())
		} else {
			defer client.Disconnect(250)
			log.Printf("experiment: publishing samples to %s", cfg.TopicGaze)
			tr.OnSample = func(s gaze.Sample) {
				payload, err := json.Marshal(s)
				if err != nil {
					return
				}
				client.Publish(cfg.TopicGaze, 0, false, payload)
			}
		}
	}

	// 2) Calibrate before any trial runs
	surface.Draw(display.Shape{
		Kind: display.ShapeText,
		Text: "Calibration, then the experiment. Press SPACE to start.",
	})
	surface.Flip()
	if key := surface.WaitForKey([]string{"space", "escape"}); key == "escape" {
		log.Println("experiment: cancelled before start")
		return nil
	}

	calOut, err := tr.Calibrate()
	if err != nil {
		return err
	}
	if !calOut.Success {
		// Calibration quality is advisory; the trials still run, just with
		// uncalibrated gaze in the record.
		log.Println("experiment: WARNING: proceeding without a usable calibration")
	}

	// 3) Trial loop with recording on
	if err := tr.StartRecording(); err != nil {
		return err
	}

	logPath := filepath.Join(cfg.DataDir, fmt.Sprintf("experiment_log_%s.txt", recorder.SessionID()))
	expLog, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("failed to create experiment log: %w", err)
	}
	defer expLog.Close()
	fmt.Fprintln(expLog, "Trial, GazeX, GazeY")

	for trial := 1; trial <= cfg.Trials; trial++ {
		// Fixation cross
		if aborted := showPhase(tr, surface, clock, display.Shape{
			Kind:  display.ShapeCross,
			Size:  cfg.DotSize,
			Color: "white",
		}, cfg.FixationDuration); aborted {
			log.Printf("experiment: aborted at trial %d", trial)
			break
		}

		// Stimulus
		if aborted := showPhase(tr, surface, clock, display.Shape{
			Kind: display.ShapeText,
			Text: fmt.Sprintf("Trial %d", trial),
		}, cfg.StimulusDuration); aborted {
			log.Printf("experiment: aborted at trial %d", trial)
			break
		}

		pos, err := tr.GazePosition()
		if err != nil {
			return err
		}
		fmt.Fprintf(expLog, "%d, %.4f, %.4f\n", trial, pos.X, pos.Y)
		log.Printf("experiment: trial %d gaze (%.3f, %.3f)", trial, pos.X, pos.Y)
	}

	if err := tr.StopRecording(); err != nil {
		return err
	}

	results := &session.Results{
		Success:   calOut.Success,
		Timestamp: time.Now().Format(time.RFC3339),
		LogPath:   logPath,
	}
	if calOut.Result != nil {
		results.CalibrationError = calOut.Result.Average
	}
	recorder.SetResults(results)

	// 4) Index the session when the database is configured
	if cfg.DatabasePath != "" {
		store, err := session.OpenStore(cfg.DatabasePath)
		if err != nil {
			log.Printf("experiment: %v", err)
		} else {
			defer store.Close()
			if err := store.RecordSession(recorder.SessionID(), string(tr.Kind()),
				cfg.WindowWidth, cfg.WindowHeight, recorder.Count(), tr.DroppedSamples()); err != nil {
				log.Printf("experiment: %v", err)
			}
		}
	}

	log.Printf("experiment done: %d samples recorded, %d dropped", recorder.Count(), tr.DroppedSamples())
	return nil
}

// showPhase draws one shape and keeps polling the tracker for its duration.
// Returns true when the participant pressed escape.
func showPhase(tr *tracker.Tracker, surface display.Surface, clock timeutil.Clock, shape display.Shape, duration float64) bool {
	surface.Draw(shape)
	surface.Flip()

	end := clock.Now() + duration
	for clock.Now() < end {
		for _, k := range surface.PollKeys() {
			if k == "escape" {
				return true
			}
		}
		if err := tr.Update(); err != nil {
			log.Printf("experiment: update: %v", err)
			return true
		}
		clock.Sleep(0.005)
	}
	return false
}
