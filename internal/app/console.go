// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gaze_computer/internal/config"
	"github.com/relabs-tech/gaze_computer/internal/gaze"
)

// RunConsole subscribes to the gaze topic and prints the latest sample at a
// readable rate, for eyeballing a producer without a display attached.
func RunConsole(cfg *config.Config) error {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID + "-console")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	var mu sync.Mutex
	var last gaze.Sample
	var have bool
	var count int

	token := client.Subscribe(cfg.TopicGaze, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s gaze.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: sample unmarshal error: %v", err)
			return
		}
		mu.Lock()
		last = s
		have = true
		count++
		mu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicGaze)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Duration(cfg.ConsoleLogInterval) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sig:
			log.Println("console: shutting down")
			return nil
		case <-ticker.C:
			mu.Lock()
			s, ok, n := last, have, count
			mu.Unlock()
			if !ok {
				continue
			}
			fmt.Printf("[GAZE] x=%7.3f y=%7.3f conf=%.2f pupils=%.1f/%.1f n=%d\n",
				s.X, s.Y, s.Confidence, s.PupilLeft, s.PupilRight, n)
		}
	}
}
