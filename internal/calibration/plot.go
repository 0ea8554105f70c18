// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SavePlot renders the targets and measured fixations as a PNG, with a line
// connecting each target to its measurement so drift is visible at a glance.
func (r *Result) SavePlot(path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Calibration (%s, avg error %.4f)", r.Quality, r.Average)
	p.X.Label.Text = "X (normalized)"
	p.Y.Label.Text = "Y (normalized)"
	p.X.Min, p.X.Max = -1, 1
	p.Y.Min, p.Y.Max = -1, 1

	targets := make(plotter.XYs, 0, len(r.Points))
	measured := make(plotter.XYs, 0, len(r.Points))

	for _, pt := range r.Points {
		targets = append(targets, plotter.XY{X: pt.Target.X, Y: pt.Target.Y})
		if pt.Failed {
			continue
		}
		measured = append(measured, plotter.XY{X: pt.Measured.X, Y: pt.Measured.Y})

		seg := plotter.XYs{
			{X: pt.Target.X, Y: pt.Target.Y},
			{X: pt.Measured.X, Y: pt.Measured.Y},
		}
		line, err := plotter.NewLine(seg)
		if err != nil {
			return fmt.Errorf("failed to build error line: %w", err)
		}
		line.Color = color.Gray{Y: 180}
		line.Width = vg.Points(1)
		p.Add(line)
	}

	targetScatter, err := plotter.NewScatter(targets)
	if err != nil {
		return fmt.Errorf("failed to build target scatter: %w", err)
	}
	targetScatter.GlyphStyle.Color = color.RGBA{B: 255, A: 255}
	targetScatter.GlyphStyle.Radius = vg.Points(4)
	p.Add(targetScatter)
	p.Legend.Add("target", targetScatter)

	if len(measured) > 0 {
		measuredScatter, err := plotter.NewScatter(measured)
		if err != nil {
			return fmt.Errorf("failed to build measured scatter: %w", err)
		}
		measuredScatter.GlyphStyle.Color = color.RGBA{R: 255, A: 255}
		measuredScatter.GlyphStyle.Radius = vg.Points(4)
		p.Add(measuredScatter)
		p.Legend.Add("measured", measuredScatter)
	}

	p.Legend.Top = true

	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save calibration plot: %w", err)
	}
	return nil
}
