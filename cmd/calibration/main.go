// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"github.com/relabs-tech/gaze_computer/internal/app"
	"github.com/relabs-tech/gaze_computer/internal/config"
	"github.com/relabs-tech/gaze_computer/internal/display"
)

func main() {
	configPath := flag.String("config", "./gaze_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting gaze-computer calibration")

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("no config file at %s, using defaults", *configPath)
			cfg = config.Default()
		} else {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	surface := display.NewConsole(cfg.WindowWidth, cfg.WindowHeight)

	if err := app.RunCalibration(cfg, surface); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
