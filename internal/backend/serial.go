// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package backend

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/gaze_computer/internal/gaze"
	"github.com/relabs-tech/gaze_computer/internal/timeutil"
)

// SerialAdapter drives a vendor eye tracker attached over a serial link.
// The device streams one line per binocular sample:
//
//	GAZE,<ts>,<lx>,<ly>,<lok>,<rx>,<ry>,<rok>,<pl>,<pr>
//
// Per-eye positions are in 0..1 display-area coordinates with the origin at
// the top-left, pupil diameters in millimeters. STREAM,ON / STREAM,OFF start
// and stop the stream and CAL,<x>,<y> announces a calibration target.
type SerialAdapter struct {
	portName string
	baud     uint
	clock    timeutil.Clock

	port  io.ReadWriteCloser
	buf   []byte
	queue []gaze.Sample
}

// serialQueueCap bounds the internal sample queue; the oldest samples are
// dropped when the main loop falls behind.
const serialQueueCap = 512

// serialProbeSeconds is how long Initialize waits for the first sample
// before deciding no tracker is attached to the port.
const serialProbeSeconds = 2.0

func NewSerialAdapter(portName string, baud int, clock timeutil.Clock) *SerialAdapter {
	return &SerialAdapter{portName: portName, baud: uint(baud), clock: clock}
}

func (a *SerialAdapter) Kind() Kind {
	return KindSerial
}

// Initialize opens the port, starts the stream and probes for data. A port
// that opens but never produces a sample maps to ErrNoDevice just like a
// port that is missing outright.
func (a *SerialAdapter) Initialize(abort <-chan struct{}) error {
	opts := serial.OpenOptions{
		PortName:   a.portName,
		BaudRate:   a.baud,
		DataBits:   8,
		StopBits:   1,
		ParityMode: serial.PARITY_NONE,
		// MinimumReadSize 0 with an inter-character timeout keeps reads
		// non-blocking: PollSample must never stall the main loop.
		MinimumReadSize:       0,
		InterCharacterTimeout: 20,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrNoDevice, a.portName, err)
	}
	a.port = port

	if _, err := port.Write([]byte("STREAM,ON\r\n")); err != nil {
		port.Close()
		a.port = nil
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	deadline := a.clock.Now() + serialProbeSeconds
	for a.clock.Now() < deadline {
		select {
		case <-abort:
			port.Close()
			a.port = nil
			return ErrAborted
		default:
		}
		a.fill()
		if len(a.queue) > 0 {
			return nil
		}
		a.clock.Sleep(0.05)
	}

	port.Close()
	a.port = nil
	return fmt.Errorf("%w: no data from %s", ErrNoDevice, a.portName)
}

// fill drains whatever the port has buffered and parses complete lines.
func (a *SerialAdapter) fill() {
	if a.port == nil {
		return
	}
	chunk := make([]byte, 4096)
	n, err := a.port.Read(chunk)
	if err != nil && err != io.EOF {
		return
	}
	if n > 0 {
		a.ingest(chunk[:n])
	}
}

// ingest appends raw bytes to the line buffer and moves every complete
// GAZE line onto the sample queue.
func (a *SerialAdapter) ingest(data []byte) {
	a.buf = append(a.buf, data...)
	for {
		idx := strings.IndexByte(string(a.buf), '\n')
		if idx < 0 {
			return
		}
		line := strings.TrimSpace(string(a.buf[:idx]))
		a.buf = a.buf[idx+1:]
		if line == "" {
			continue
		}
		if s, ok := parseGazeLine(line); ok {
			a.queue = append(a.queue, s)
			if len(a.queue) > serialQueueCap {
				a.queue = a.queue[len(a.queue)-serialQueueCap:]
			}
		}
	}
}

// parseGazeLine decodes one GAZE line, averaging the eyes when both are
// valid, using a single eye at half confidence, and producing nothing when
// neither eye has a position.
func parseGazeLine(line string) (gaze.Sample, bool) {
	fields := strings.Split(line, ",")
	if len(fields) != 10 || fields[0] != "GAZE" {
		return gaze.Sample{}, false
	}

	vals := make([]float64, 9)
	for i := 1; i < 10; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			return gaze.Sample{}, false
		}
		vals[i-1] = v
	}

	ts := vals[0]
	lx, ly, lok := vals[1], vals[2], vals[3] != 0
	rx, ry, rok := vals[4], vals[5], vals[6] != 0
	pl, pr := vals[7], vals[8]

	var x, y, confidence float64
	switch {
	case lok && rok:
		x = (lx + rx) / 2
		y = (ly + ry) / 2
		confidence = 1.0
	case lok:
		x, y = lx, ly
		confidence = 0.5
	case rok:
		x, y = rx, ry
		confidence = 0.5
	default:
		return gaze.Sample{}, false
	}

	return gaze.Sample{
		Timestamp:  ts,
		X:          toNDC(x),
		Y:          invertNDC(y),
		Confidence: confidence,
		PupilLeft:  pl,
		PupilRight: pr,
	}, true
}

// toNDC maps 0..1 display-area x to -1..1.
func toNDC(v float64) float64 {
	return 2*v - 1
}

// invertNDC maps 0..1 display-area y (top-left origin, y down) to -1..1
// with y up.
func invertNDC(v float64) float64 {
	return 1 - 2*v
}

func (a *SerialAdapter) PollSample() (gaze.Sample, bool) {
	a.fill()
	if len(a.queue) == 0 {
		return gaze.Sample{}, false
	}
	s := a.queue[0]
	a.queue = a.queue[1:]
	return s, true
}

// BeginCalibrationPoint forwards the target to the device in its native
// display-area coordinates.
func (a *SerialAdapter) BeginCalibrationPoint(p gaze.Point) error {
	if a.port == nil {
		return ErrConnectionFailed
	}
	cmd := fmt.Sprintf("CAL,%.4f,%.4f\r\n", (p.X+1)/2, (1-p.Y)/2)
	if _, err := a.port.Write([]byte(cmd)); err != nil {
		return fmt.Errorf("serial backend: calibration command: %w", err)
	}
	return nil
}

// CollectCalibrationSample returns the freshest queued sample.
func (a *SerialAdapter) CollectCalibrationSample(p gaze.Point) (gaze.Sample, bool) {
	a.fill()
	if len(a.queue) == 0 {
		return gaze.Sample{}, false
	}
	s := a.queue[len(a.queue)-1]
	a.queue = a.queue[:0]
	return s, true
}

func (a *SerialAdapter) Shutdown() error {
	if a.port == nil {
		return nil
	}
	// A failed STREAM,OFF is not worth reporting; closing is what matters.
	a.port.Write([]byte("STREAM,OFF\r\n"))
	err := a.port.Close()
	a.port = nil
	return err
}
