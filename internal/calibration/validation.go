// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import "log"

// ValidationOutcome is the verdict of a post-calibration accuracy check.
type ValidationOutcome struct {
	Result               *Result
	Passed               bool
	Threshold            float64
	RecommendRecalibrate bool
}

// Validate runs a single validation sweep and judges it against the
// configured threshold. The second return value reports an abort.
func (c *Controller) Validate() (*ValidationOutcome, bool) {
	pts := Points(c.opts.Points)

	results, aborted := c.sweep(pts, "green")
	if aborted {
		return nil, true
	}

	res := Analyze(results, c.opts.Threshold)
	out := Assess(res, c.opts.Threshold)
	if out.Passed {
		log.Printf("validation: passed (avg error %.4f <= %.4f)", res.Average, c.opts.Threshold)
	} else {
		log.Printf("validation: failed (avg error %.4f > %.4f), recalibration recommended", res.Average, c.opts.Threshold)
	}
	return out, false
}

// Assess judges an analyzed sweep against the threshold. A sweep with no
// usable points fails.
func Assess(res *Result, threshold float64) *ValidationOutcome {
	usable := 0
	for _, p := range res.Points {
		if !p.Failed {
			usable++
		}
	}
	passed := usable > 0 && res.Average <= threshold
	return &ValidationOutcome{
		Result:               res,
		Passed:               passed,
		Threshold:            threshold,
		RecommendRecalibrate: !passed,
	}
}
