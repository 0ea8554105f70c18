// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"log"
	"math/rand"
	"time"

	"github.com/relabs-tech/gaze_computer/internal/backend"
	"github.com/relabs-tech/gaze_computer/internal/display"
	"github.com/relabs-tech/gaze_computer/internal/gaze"
	"github.com/relabs-tech/gaze_computer/internal/timeutil"
)

// Options configures a calibration run.
type Options struct {
	Points          int     // number of fixation targets
	Shuffle         bool    // randomize target order per attempt
	Dwell           float64 // seconds the participant fixates each target
	DiscardFraction float64 // leading fraction of the dwell to discard
	InterTrial      float64 // seconds between targets
	Threshold       float64 // error threshold for the percent-above statistic
	DotSize         float64
	MaxAttempts     int
}

// DefaultOptions returns the standard 9-point run.
func DefaultOptions() Options {
	return Options{
		Points:          9,
		Dwell:           1.0,
		DiscardFraction: 0.66,
		InterTrial:      0.5,
		Threshold:       0.2,
		DotSize:         0.05,
		MaxAttempts:     3,
	}
}

// Controller runs calibration and validation sweeps against a backend
// adapter, drawing targets on the surface and collecting fixation samples.
type Controller struct {
	Adapter backend.Adapter
	Surface display.Surface
	Clock   timeutil.Clock

	opts Options
	rng  *rand.Rand
}

// Outcome is the result of a full calibration run including retries.
type Outcome struct {
	Success  bool
	Aborted  bool
	Attempts int
	Result   *Result
}

func NewController(adapter backend.Adapter, surface display.Surface, clock timeutil.Clock, opts Options) *Controller {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Controller{
		Adapter: adapter,
		Surface: surface,
		Clock:   clock,
		opts:    opts,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run performs up to MaxAttempts calibration attempts, prompting the
// participant between failed attempts. The last attempt's result is returned
// even on failure so the caller can log it.
func (c *Controller) Run() *Outcome {
	out := &Outcome{}

	for out.Attempts < c.opts.MaxAttempts {
		out.Attempts++
		log.Printf("calibration: attempt %d of %d", out.Attempts, c.opts.MaxAttempts)

		res, aborted := c.runAttempt()
		out.Result = res
		if aborted {
			out.Aborted = true
			return out
		}
		if res.Success() {
			out.Success = true
			log.Printf("calibration: %s (avg error %.4f, score %.2f)", res.Quality, res.Average, res.Score)
			return out
		}

		log.Printf("calibration: attempt %d failed (avg error %.4f)", out.Attempts, res.Average)
		if out.Attempts < c.opts.MaxAttempts {
			if !c.promptRetry() {
				out.Aborted = true
				return out
			}
		}
	}

	return out
}

// runAttempt performs one full sweep and analyzes it.
func (c *Controller) runAttempt() (*Result, bool) {
	pts := Points(c.opts.Points)
	if c.opts.Shuffle {
		pts = Shuffle(pts, c.rng)
	}

	results, aborted := c.sweep(pts, "white")
	if aborted {
		return Analyze(results, c.opts.Threshold), true
	}
	return Analyze(results, c.opts.Threshold), false
}

// promptRetry asks the participant whether to retry. Space retries, escape
// gives up.
func (c *Controller) promptRetry() bool {
	c.Surface.Draw(display.Shape{
		Kind: display.ShapeText,
		Text: "Calibration failed. Press SPACE to retry or ESC to quit.",
	})
	c.Surface.Flip()
	key := c.Surface.WaitForKey([]string{"space", "escape"})
	return key == "space"
}

// sweep shows each target in turn and collects one measured fixation per
// target. The second return value reports an abort via the escape key.
func (c *Controller) sweep(pts []gaze.Point, color string) ([]PointResult, bool) {
	results := make([]PointResult, 0, len(pts))

	for i, p := range pts {
		c.Surface.Draw(display.Shape{
			Kind:  display.ShapeDot,
			X:     p.X,
			Y:     p.Y,
			Size:  c.opts.DotSize,
			Color: color,
		})
		c.Surface.Flip()

		if err := c.Adapter.BeginCalibrationPoint(p); err != nil {
			log.Printf("calibration: point %d: %v", i, err)
		}

		measured, ok, aborted := c.measure(p)
		if aborted {
			return results, true
		}

		pr := PointResult{Index: i, Target: p}
		if !ok {
			pr.Failed = true
			pr.Reason = "no samples"
		} else {
			pr.Measured = measured
			pr.Error = gaze.Distance(p, measured)
		}
		results = append(results, pr)

		c.Clock.Sleep(c.opts.InterTrial)
	}

	return results, false
}

// measure collects the fixation estimate for one target. Backends with an
// immediate measurement path skip the dwell window; otherwise samples from
// the tail of the dwell are averaged, with the leading fraction discarded to
// let the saccade land.
func (c *Controller) measure(p gaze.Point) (gaze.Point, bool, bool) {
	if c.Adapter.Kind() == backend.KindPointer {
		s, ok := c.Adapter.CollectCalibrationSample(p)
		if !ok {
			return gaze.Point{}, false, false
		}
		return s.Position(), true, false
	}

	start := c.Clock.Now()
	keepAfter := start + c.opts.Dwell*c.opts.DiscardFraction
	end := start + c.opts.Dwell

	var sumX, sumY float64
	kept := 0

	for c.Clock.Now() < end {
		for _, k := range c.Surface.PollKeys() {
			if k == "escape" {
				return gaze.Point{}, false, true
			}
		}
		if s, ok := c.Adapter.PollSample(); ok && c.Clock.Now() >= keepAfter {
			sumX += s.X
			sumY += s.Y
			kept++
		}
		c.Clock.Sleep(0.005)
	}

	if kept == 0 {
		// Last resort: some backends only report on request.
		if s, ok := c.Adapter.CollectCalibrationSample(p); ok {
			return s.Position(), true, false
		}
		return gaze.Point{}, false, false
	}

	return gaze.Point{X: sumX / float64(kept), Y: sumY / float64(kept)}, true, false
}
