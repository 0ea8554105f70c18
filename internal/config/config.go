// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package config loads the KEY=VALUE configuration file shared by every
// command. The loaded Config is passed explicitly to constructors; there is
// no package-level state.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all toolkit configuration values.
type Config struct {
	// Tracker backend: "serial", "browser" or "pointer".
	TrackerType string

	// Data
	DataDir      string
	DatabasePath string // sqlite session index; empty disables it

	// Display surface
	WindowWidth  int
	WindowHeight int

	// Calibration / validation
	CalibrationPoints   int
	ValidationPoints    int
	ShuffleCalibration  bool
	FixationDuration    float64 // seconds per fixation target (dwell window)
	DwellDiscard        float64 // leading fraction of the dwell window to drop
	InterTrialInterval  float64 // seconds between targets
	DotSize             float64
	ValidationThreshold float64

	// Sample validation: "basic" or "strict".
	ValidationLevel string

	// Recording
	AutoSaveInterval float64 // seconds; 0 disables backups

	// Serial backend
	SerialPort string
	SerialBaud int

	// Browser backend
	BrowserPort    int
	BrowserTimeout float64 // seconds to wait for the remote client

	// Experiment
	Trials           int
	StimulusDuration float64

	// MQTT telemetry (optional; empty broker disables publishing)
	MQTTBroker   string
	MQTTClientID string
	TopicGaze    string

	// Timing
	SampleInterval     int // milliseconds between update polls in the producer
	ConsoleLogInterval int // milliseconds between console prints
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		TrackerType:         "pointer",
		DataDir:             "Data",
		WindowWidth:         1024,
		WindowHeight:        768,
		CalibrationPoints:   9,
		ValidationPoints:    5,
		FixationDuration:    1.0,
		DwellDiscard:        0.66,
		InterTrialInterval:  0.5,
		DotSize:             0.05,
		ValidationThreshold: 0.2,
		ValidationLevel:     "basic",
		AutoSaveInterval:    60,
		SerialPort:          "/dev/ttyUSB0",
		SerialBaud:          115200,
		BrowserPort:         8887,
		BrowserTimeout:      30,
		Trials:              10,
		StimulusDuration:    2.0,
		MQTTClientID:        "gaze-producer",
		TopicGaze:           "gaze/samples",
		SampleInterval:      16,
		ConsoleLogInterval:  500,
	}
}

// Load reads the configuration file on top of the defaults.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	case "TRACKER_TYPE":
		c.TrackerType = value
	case "DATA_DIR":
		c.DataDir = value
	case "DATABASE_PATH":
		c.DatabasePath = value

	case "WINDOW_WIDTH":
		return setInt(&c.WindowWidth, key, value)
	case "WINDOW_HEIGHT":
		return setInt(&c.WindowHeight, key, value)

	case "CALIBRATION_POINTS":
		return setInt(&c.CalibrationPoints, key, value)
	case "VALIDATION_POINTS":
		return setInt(&c.ValidationPoints, key, value)
	case "SHUFFLE_CALIBRATION":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		c.ShuffleCalibration = b
	case "FIXATION_DURATION":
		return setFloat(&c.FixationDuration, key, value)
	case "DWELL_DISCARD":
		return setFloat(&c.DwellDiscard, key, value)
	case "INTER_TRIAL_INTERVAL":
		return setFloat(&c.InterTrialInterval, key, value)
	case "DOT_SIZE":
		return setFloat(&c.DotSize, key, value)
	case "VALIDATION_THRESHOLD":
		return setFloat(&c.ValidationThreshold, key, value)
	case "VALIDATION_LEVEL":
		c.ValidationLevel = value

	case "AUTO_SAVE_INTERVAL":
		return setFloat(&c.AutoSaveInterval, key, value)

	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD":
		return setInt(&c.SerialBaud, key, value)

	case "BROWSER_PORT":
		return setInt(&c.BrowserPort, key, value)
	case "BROWSER_TIMEOUT":
		return setFloat(&c.BrowserTimeout, key, value)

	case "TRIALS":
		return setInt(&c.Trials, key, value)
	case "STIMULUS_DURATION":
		return setFloat(&c.StimulusDuration, key, value)

	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "TOPIC_GAZE":
		c.TopicGaze = value

	case "SAMPLE_INTERVAL":
		return setInt(&c.SampleInterval, key, value)
	case "CONSOLE_LOG_INTERVAL":
		return setInt(&c.ConsoleLogInterval, key, value)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func setInt(dst *int, key, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

func setFloat(dst *float64, key, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

// validate checks that the configuration is internally consistent.
func (c *Config) validate() error {
	switch c.TrackerType {
	case "serial", "browser", "pointer":
	default:
		return fmt.Errorf("TRACKER_TYPE must be serial, browser or pointer, got %q", c.TrackerType)
	}
	switch c.ValidationLevel {
	case "basic", "strict":
	default:
		return fmt.Errorf("VALIDATION_LEVEL must be basic or strict, got %q", c.ValidationLevel)
	}
	if c.CalibrationPoints < 1 {
		return fmt.Errorf("CALIBRATION_POINTS must be positive, got %d", c.CalibrationPoints)
	}
	if c.ValidationPoints < 1 {
		return fmt.Errorf("VALIDATION_POINTS must be positive, got %d", c.ValidationPoints)
	}
	if c.FixationDuration <= 0 {
		return fmt.Errorf("FIXATION_DURATION must be positive, got %g", c.FixationDuration)
	}
	if c.DwellDiscard < 0 || c.DwellDiscard >= 1 {
		return fmt.Errorf("DWELL_DISCARD must be in [0, 1), got %g", c.DwellDiscard)
	}
	if c.ValidationThreshold <= 0 {
		return fmt.Errorf("VALIDATION_THRESHOLD must be positive, got %g", c.ValidationThreshold)
	}
	if c.BrowserTimeout <= 0 {
		return fmt.Errorf("BROWSER_TIMEOUT must be positive, got %g", c.BrowserTimeout)
	}
	return nil
}
