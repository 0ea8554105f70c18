// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strings"
	"time"
)

// Console renders draw calls as terminal output and reads key presses from
// stdin. The pointer follows a smooth synthetic path so the pointer backend
// has something to report when no windowing system is attached.
type Console struct {
	w, h  int
	start time.Time
	in    *bufio.Reader
}

func NewConsole(w, h int) *Console {
	return &Console{
		w:     w,
		h:     h,
		start: time.Now(),
		in:    bufio.NewReader(os.Stdin),
	}
}

func (c *Console) Draw(s Shape) {
	switch s.Kind {
	case ShapeText:
		fmt.Printf("[display] %s\n", s.Text)
	default:
		fmt.Printf("[display] %s at (%+.2f, %+.2f) size=%.2f color=%s\n",
			s.Kind, s.X, s.Y, s.Size, s.Color)
	}
}

func (c *Console) Flip() {}

// WaitForKey prompts on the terminal and maps the first character of the
// typed line onto the allowed keys ("s" -> space, "e"/"q" -> escape). A bare
// return picks the first allowed key.
func (c *Console) WaitForKey(allowed []string) string {
	for {
		fmt.Printf("[display] press %s and hit return: ", strings.Join(allowed, "/"))
		line, err := c.in.ReadString('\n')
		if err != nil {
			return "escape"
		}
		line = strings.ToLower(strings.TrimSpace(line))
		if line == "" {
			return allowed[0]
		}
		for _, k := range allowed {
			if line == k || strings.HasPrefix(k, line) {
				return k
			}
		}
		if line == "q" || line == "e" {
			return "escape"
		}
	}
}

// PollKeys always returns nil: the console cannot sample the keyboard
// without putting the terminal in raw mode.
func (c *Console) PollKeys() []string {
	return nil
}

func (c *Console) Size() (int, int) {
	return c.w, c.h
}

// PointerPosition traces a slow Lissajous path, the same trick the mock
// orientation source uses, so simulated gaze moves around the screen.
func (c *Console) PointerPosition() (float64, float64) {
	elapsed := time.Since(c.start).Seconds()
	return 0.6 * math.Sin(elapsed), 0.4 * math.Cos(0.7*elapsed)
}
