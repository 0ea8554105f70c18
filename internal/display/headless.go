// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import "sync"

// Headless is a scriptable surface for tests and batch runs. Draw calls are
// recorded, WaitForKey pops scripted keys, and the pointer sits wherever the
// test put it.
type Headless struct {
	mu sync.Mutex

	W, H int

	Drawn    []Shape
	Flips    int
	Waits    int
	Keys     []string   // consumed by WaitForKey, oldest first
	Polled   [][]string // consumed by PollKeys, oldest first
	PointerX float64
	PointerY float64
}

func NewHeadless(w, h int) *Headless {
	return &Headless{W: w, H: h}
}

func (h *Headless) Draw(s Shape) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Drawn = append(h.Drawn, s)
}

func (h *Headless) Flip() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Flips++
}

// WaitForKey returns the next scripted key, or the first allowed key when
// the script is exhausted.
func (h *Headless) WaitForKey(allowed []string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Waits++
	if len(h.Keys) > 0 {
		k := h.Keys[0]
		h.Keys = h.Keys[1:]
		return k
	}
	if len(allowed) > 0 {
		return allowed[0]
	}
	return ""
}

func (h *Headless) PollKeys() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.Polled) > 0 {
		keys := h.Polled[0]
		h.Polled = h.Polled[1:]
		return keys
	}
	return nil
}

func (h *Headless) Size() (int, int) {
	return h.W, h.H
}

func (h *Headless) SetPointer(x, y float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.PointerX, h.PointerY = x, y
}

func (h *Headless) PointerPosition() (float64, float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.PointerX, h.PointerY
}
