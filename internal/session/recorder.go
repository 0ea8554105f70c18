// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package session persists recorded gaze data and session results: JSON
// files per session plus an optional SQLite index across sessions.
package session

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relabs-tech/gaze_computer/internal/gaze"
	"github.com/relabs-tech/gaze_computer/internal/timeutil"
)

// File is the on-disk layout of a recorded session.
type File struct {
	TrackerType string        `json:"tracker_type"`
	Timestamp   string        `json:"timestamp"`
	WindowSize  [2]int        `json:"window_size"`
	GazeData    []gaze.Sample `json:"gaze_data"`
}

// Results summarizes a session's calibration and validation outcome.
type Results struct {
	Success          bool    `json:"success"`
	CalibrationError float64 `json:"calibration_error"`
	ValidationError  float64 `json:"validation_error"`
	Timestamp        string  `json:"timestamp"`
	LogPath          string  `json:"log_path,omitempty"`
}

// Recorder buffers gaze samples for one session and writes them out as JSON,
// with periodic backup saves so a crash loses at most one interval.
type Recorder struct {
	mu sync.Mutex

	dataDir     string
	sessionID   string
	trackerType string
	winW, winH  int
	interval    float64
	clock       timeutil.Clock

	lastSave float64
	samples  []gaze.Sample
	results  *Results
}

// NewRecorder creates the data directory and a fresh session id of the form
// 20260823_153000_a1b2c3d4.
func NewRecorder(dataDir, trackerType string, winW, winH int, autoSaveInterval float64, clock timeutil.Clock) (*Recorder, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	id := time.Now().Format("20060102_150405") + "_" + uuid.NewString()[:8]
	return &Recorder{
		dataDir:     dataDir,
		sessionID:   id,
		trackerType: trackerType,
		winW:        winW,
		winH:        winH,
		interval:    autoSaveInterval,
		clock:       clock,
		lastSave:    clock.Now(),
	}, nil
}

func (r *Recorder) SessionID() string {
	return r.sessionID
}

// SetTrackerType updates the recorded backend name, used when the tracker
// falls back to another backend after the recorder was created.
func (r *Recorder) SetTrackerType(t string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trackerType = t
}

// Append adds one sample to the buffer.
func (r *Recorder) Append(s gaze.Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
}

// Reset clears the buffer, typically at the start of a new recording.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = r.samples[:0]
}

func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

// Samples returns a copy of the buffered samples.
func (r *Recorder) Samples() []gaze.Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]gaze.Sample, len(r.samples))
	copy(out, r.samples)
	return out
}

// SetResults records the session outcome written by Close.
func (r *Recorder) SetResults(res *Results) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = res
}

// MaybeAutoSave writes a timestamped backup when the auto-save interval has
// elapsed. Backup failures are logged, never fatal: the buffer stays intact
// for the final save.
func (r *Recorder) MaybeAutoSave(now float64) {
	r.mu.Lock()
	due := r.interval > 0 && now-r.lastSave >= r.interval
	if due {
		r.lastSave = now
	}
	r.mu.Unlock()
	if !due {
		return
	}

	name := fmt.Sprintf("gaze_data_%s_backup_%d.json", r.sessionID, time.Now().Unix())
	if path, err := r.Save(name); err != nil {
		log.Printf("recorder: auto-save failed: %v", err)
	} else {
		log.Printf("recorder: auto-saved %s", path)
	}
}

// Save writes the buffered samples as JSON and returns the file path. An
// empty filename uses the session's default name.
func (r *Recorder) Save(filename string) (string, error) {
	r.mu.Lock()
	file := File{
		TrackerType: r.trackerType,
		Timestamp:   time.Now().Format(time.RFC3339),
		WindowSize:  [2]int{r.winW, r.winH},
		GazeData:    make([]gaze.Sample, len(r.samples)),
	}
	copy(file.GazeData, r.samples)
	r.mu.Unlock()

	if filename == "" {
		filename = fmt.Sprintf("gaze_data_%s.json", r.sessionID)
	}
	path := filepath.Join(r.dataDir, filename)

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal gaze data: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write gaze data: %w", err)
	}
	return path, nil
}

// Load reads a session file back.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	return &f, nil
}

// Close writes the final data file and, when set, the results file. Write
// failures are logged so shutdown always completes.
func (r *Recorder) Close() error {
	if path, err := r.Save(""); err != nil {
		log.Printf("recorder: final save failed: %v", err)
	} else {
		log.Printf("recorder: saved %s (%d samples)", path, r.Count())
	}

	r.mu.Lock()
	results := r.results
	r.mu.Unlock()
	if results != nil {
		path := filepath.Join(r.dataDir, fmt.Sprintf("results_%s.json", r.sessionID))
		data, err := json.MarshalIndent(results, "", "  ")
		if err == nil {
			err = os.WriteFile(path, data, 0o644)
		}
		if err != nil {
			log.Printf("recorder: failed to write results: %v", err)
		}
	}
	return nil
}
