// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gaze_computer/internal/backend"
	"github.com/relabs-tech/gaze_computer/internal/config"
	"github.com/relabs-tech/gaze_computer/internal/display"
	"github.com/relabs-tech/gaze_computer/internal/gaze"
	"github.com/relabs-tech/gaze_computer/internal/timeutil"
	"github.com/relabs-tech/gaze_computer/internal/tracker"
)

// RunGazeProducer streams validated gaze samples to MQTT until interrupted.
// It is the headless counterpart of the experiment: no trials, just the
// acquisition loop feeding the broker.
func RunGazeProducer(cfg *config.Config, surface display.Surface) error {
	log.Println("starting gaze-computer sample producer")

	clock := timeutil.NewRealClock()

	// 1) Connect to MQTT
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Printf("MQTT connect error: %v", token.Error())
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Tracker without a recorder; the broker is the sink here
	tr := tracker.New(backend.Kind(cfg.TrackerType), surface, cfg, clock, nil)
	defer tr.Close()

	tr.OnSample = func(s gaze.Sample) {
		payload, err := json.Marshal(s)
		if err != nil {
			log.Printf("producer: marshal error: %v", err)
			return
		}
		client.Publish(cfg.TopicGaze, 0, false, payload)
	}

	// 3) Poll until SIGINT/SIGTERM
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(cfg.SampleInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Printf("publishing to %s every %dms", cfg.TopicGaze, cfg.SampleInterval)
	for {
		select {
		case <-sig:
			log.Println("producer: shutting down")
			return nil
		case <-ticker.C:
			if err := tr.Update(); err != nil {
				return err
			}
		}
	}
}
