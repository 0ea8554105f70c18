// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package timeutil provides a testable abstraction over monotonic time.
package timeutil

import (
	"sync"
	"time"
)

// Clock is the time source used for dwell windows, auto-save intervals and
// sample timestamps. Now reports monotonic elapsed seconds since the clock
// was created, so it is safe against wall-clock jumps.
type Clock interface {
	Now() float64
	Sleep(seconds float64)
}

// RealClock implements Clock using the standard time package.
type RealClock struct {
	start time.Time
}

// NewRealClock returns a clock whose zero point is the moment of creation.
func NewRealClock() *RealClock {
	return &RealClock{start: time.Now()}
}

// Now returns monotonic seconds since the clock was created.
func (c *RealClock) Now() float64 {
	return time.Since(c.start).Seconds()
}

// Sleep pauses the current goroutine for at least the given seconds.
func (c *RealClock) Sleep(seconds float64) {
	if seconds <= 0 {
		return
	}
	time.Sleep(time.Duration(seconds * float64(time.Second)))
}

// FakeClock is a manually advanced clock for tests. Sleep advances the clock
// instead of blocking, which lets dwell windows run instantly.
type FakeClock struct {
	mu  sync.Mutex
	now float64
}

func NewFakeClock() *FakeClock {
	return &FakeClock{}
}

func (c *FakeClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Sleep(seconds float64) {
	c.Advance(seconds)
}

// Advance moves the clock forward by the given seconds.
func (c *FakeClock) Advance(seconds float64) {
	if seconds <= 0 {
		return
	}
	c.mu.Lock()
	c.now += seconds
	c.mu.Unlock()
}
