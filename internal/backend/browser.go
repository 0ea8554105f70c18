// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package backend

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/gaze_computer/internal/gaze"
	"github.com/relabs-tech/gaze_computer/internal/timeutil"
)

// browserQueueCap bounds the pending sample queue fed by the WebSocket
// reader; the oldest samples are dropped when the main loop falls behind.
const browserQueueCap = 1024

// browserSample is the JSON message the browser-side estimator sends for
// each gaze estimate. Coordinates are 0..1 with the origin at the top-left.
type browserSample struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Timestamp  float64 `json:"timestamp"`
	Confidence float64 `json:"confidence"`
}

// browserCommand is sent to the browser client, e.g. to announce a
// calibration target.
type browserCommand struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// BrowserAdapter bridges a browser-hosted gaze estimator over WebSocket.
// The adapter runs a small HTTP server; the page connects to /gaze and
// streams estimates, which the reader goroutine queues for PollSample.
type BrowserAdapter struct {
	port    int
	timeout float64
	clock   timeutil.Clock

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	queue     []gaze.Sample

	server   *http.Server
	listener net.Listener
	upgrader websocket.Upgrader
}

func NewBrowserAdapter(port int, timeout float64, clock timeutil.Clock) *BrowserAdapter {
	return &BrowserAdapter{
		port:    port,
		timeout: timeout,
		clock:   clock,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The page is served from the participant's machine, not from
			// this server, so origin checks would only reject valid clients.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (a *BrowserAdapter) Kind() Kind {
	return KindBrowser
}

// Addr returns the listen address once Initialize has bound the port.
func (a *BrowserAdapter) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Initialize starts the WebSocket endpoint and waits for the browser client
// to connect. The wait ends with ErrTimeout after the configured timeout or
// with ErrAborted when abort closes.
func (a *BrowserAdapter) Initialize(abort <-chan struct{}) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.port))
	if err != nil {
		return fmt.Errorf("%w: listen on port %d: %v", ErrConnectionFailed, a.port, err)
	}
	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("/gaze", a.handleWS)
	a.server = &http.Server{Handler: mux}

	go func() {
		if err := a.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("browser backend: server stopped: %v", err)
		}
	}()

	log.Printf("browser backend: waiting for client on ws://%s/gaze", ln.Addr())

	deadline := a.clock.Now() + a.timeout
	for a.clock.Now() < deadline {
		select {
		case <-abort:
			a.teardown()
			return ErrAborted
		default:
		}
		a.mu.Lock()
		connected := a.connected
		a.mu.Unlock()
		if connected {
			return nil
		}
		a.clock.Sleep(0.1)
	}

	a.teardown()
	return fmt.Errorf("%w: no browser client within %.0fs", ErrTimeout, a.timeout)
}

// handleWS upgrades the connection and reads estimates until the client
// disconnects. Only one client is served at a time; a second connection
// replaces the first.
func (a *BrowserAdapter) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("browser backend: upgrade failed: %v", err)
		return
	}

	a.mu.Lock()
	if a.conn != nil {
		a.conn.Close()
	}
	a.conn = conn
	a.connected = true
	a.mu.Unlock()

	log.Printf("browser backend: client connected from %s", r.RemoteAddr)

	for {
		var msg browserSample
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		s := gaze.Sample{
			Timestamp:  msg.Timestamp,
			X:          toNDC(msg.X),
			Y:          invertNDC(msg.Y),
			Confidence: msg.Confidence,
		}
		a.mu.Lock()
		a.queue = append(a.queue, s)
		if len(a.queue) > browserQueueCap {
			a.queue = a.queue[len(a.queue)-browserQueueCap:]
		}
		a.mu.Unlock()
	}

	a.mu.Lock()
	if a.conn == conn {
		a.conn = nil
		a.connected = false
	}
	a.mu.Unlock()
	conn.Close()
	log.Printf("browser backend: client disconnected")
}

func (a *BrowserAdapter) PollSample() (gaze.Sample, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.queue) == 0 {
		return gaze.Sample{}, false
	}
	s := a.queue[0]
	a.queue = a.queue[1:]
	return s, true
}

// BeginCalibrationPoint tells the browser estimator a target is on screen,
// in the page's native 0..1 top-left coordinates.
func (a *BrowserAdapter) BeginCalibrationPoint(p gaze.Point) error {
	a.mu.Lock()
	conn := a.conn
	a.mu.Unlock()
	if conn == nil {
		return ErrConnectionFailed
	}
	cmd := browserCommand{Type: "calibration_point", X: (p.X + 1) / 2, Y: (1 - p.Y) / 2}
	if err := conn.WriteJSON(cmd); err != nil {
		return fmt.Errorf("browser backend: calibration command: %w", err)
	}
	return nil
}

// CollectCalibrationSample returns the freshest queued estimate.
func (a *BrowserAdapter) CollectCalibrationSample(p gaze.Point) (gaze.Sample, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.queue) == 0 {
		return gaze.Sample{}, false
	}
	s := a.queue[len(a.queue)-1]
	a.queue = a.queue[:0]
	return s, true
}

func (a *BrowserAdapter) Shutdown() error {
	a.teardown()
	return nil
}

func (a *BrowserAdapter) teardown() {
	a.mu.Lock()
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
	a.connected = false
	a.listener = nil
	a.mu.Unlock()
	if a.server != nil {
		a.server.Close()
		a.server = nil
	}
}
