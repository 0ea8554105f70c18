// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/gaze_computer/internal/gaze"
)

// Quality classifies a calibration result into a coarse tier.
type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityFair      Quality = "fair"
	QualityPoor      Quality = "poor"
)

// qualityBands defines the tier cutoffs, strictest first. A result earns a
// tier when its average error, max error and percent-above-threshold are all
// strictly below that tier's cutoffs.
var qualityBands = []struct {
	quality Quality
	avg     float64
	max     float64
	pct     float64
}{
	{QualityExcellent, 0.05, 0.10, 10},
	{QualityGood, 0.10, 0.20, 25},
	{QualityFair, 0.20, 0.40, 50},
}

// Score weighting and normalization ranges. The score folds the three
// statistics into a single 0..1 figure for quick comparison across sessions.
const (
	scoreAvgRange = 0.2
	scoreMaxRange = 0.4
	scoreAvgW     = 0.5
	scoreMaxW     = 0.3
	scorePctW     = 0.2
)

// PointResult records the outcome for one fixation target.
type PointResult struct {
	Index    int        `json:"index"`
	Target   gaze.Point `json:"target"`
	Measured gaze.Point `json:"measured"`
	Error    float64    `json:"error"`
	Failed   bool       `json:"failed"`
	Reason   string     `json:"reason,omitempty"`
}

// Result aggregates per-point errors into accuracy statistics.
type Result struct {
	Points                []PointResult      `json:"points"`
	Average               float64            `json:"average_error"`
	Median                float64            `json:"median_error"`
	Std                   float64            `json:"std_error"`
	Min                   float64            `json:"min_error"`
	Max                   float64            `json:"max_error"`
	PercentAboveThreshold float64            `json:"percent_above_threshold"`
	QuadrantMeans         map[string]float64 `json:"quadrant_means"`
	Quality               Quality            `json:"quality"`
	Score                 float64            `json:"score"`
	Threshold             float64            `json:"threshold"`
}

// Quadrant names the screen quadrant a point falls into. Points on an axis
// count toward the positive side.
func Quadrant(p gaze.Point) string {
	v := "bottom"
	if p.Y >= 0 {
		v = "top"
	}
	h := "left"
	if p.X >= 0 {
		h = "right"
	}
	return v + "_" + h
}

// Analyze computes the accuracy statistics for a completed sweep. Failed
// points are excluded from the statistics but kept in Points for the log.
func Analyze(points []PointResult, threshold float64) *Result {
	res := &Result{
		Points:        points,
		Threshold:     threshold,
		QuadrantMeans: make(map[string]float64),
		Quality:       QualityPoor,
	}

	var errs []float64
	quadErrs := make(map[string][]float64)
	for _, p := range points {
		if p.Failed {
			continue
		}
		errs = append(errs, p.Error)
		q := Quadrant(p.Target)
		quadErrs[q] = append(quadErrs[q], p.Error)
	}
	if len(errs) == 0 {
		return res
	}

	sorted := make([]float64, len(errs))
	copy(sorted, errs)
	sort.Float64s(sorted)

	res.Average = stat.Mean(errs, nil)
	res.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	if len(errs) > 1 {
		res.Std = stat.StdDev(errs, nil)
	}
	res.Min = sorted[0]
	res.Max = sorted[len(sorted)-1]

	above := 0
	for _, e := range errs {
		if e > threshold {
			above++
		}
	}
	res.PercentAboveThreshold = 100 * float64(above) / float64(len(errs))

	for q, es := range quadErrs {
		res.QuadrantMeans[q] = stat.Mean(es, nil)
	}

	for _, band := range qualityBands {
		if res.Average < band.avg && res.Max < band.max && res.PercentAboveThreshold < band.pct {
			res.Quality = band.quality
			break
		}
	}

	res.Score = scoreAvgW*clamp01(1-res.Average/scoreAvgRange) +
		scoreMaxW*clamp01(1-res.Max/scoreMaxRange) +
		scorePctW*clamp01(1-res.PercentAboveThreshold/100)

	return res
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Success reports whether the result is usable. Anything above poor counts.
func (r *Result) Success() bool {
	return r.Quality != QualityPoor
}

// WriteLog writes the per-point log in the CSV layout the analysis scripts
// expect. Failed points carry an ERROR marker and the failure reason.
func (r *Result) WriteLog(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "PointIndex, ConfigX, ConfigY, GazeX, GazeY, Error"); err != nil {
		return err
	}
	for _, p := range r.Points {
		var err error
		if p.Failed {
			_, err = fmt.Fprintf(w, "%d, %.4f, %.4f, ERROR, ERROR, %s\n",
				p.Index, p.Target.X, p.Target.Y, p.Reason)
		} else {
			_, err = fmt.Fprintf(w, "%d, %.4f, %.4f, %.4f, %.4f, %.4f\n",
				p.Index, p.Target.X, p.Target.Y, p.Measured.X, p.Measured.Y, p.Error)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// SaveLog writes the per-point log to a file.
func (r *Result) SaveLog(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create calibration log: %w", err)
	}
	defer f.Close()
	if err := r.WriteLog(f); err != nil {
		return fmt.Errorf("failed to write calibration log: %w", err)
	}
	return nil
}
