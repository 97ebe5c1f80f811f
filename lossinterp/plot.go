/*
Copyright © 2023 the BoARIO-inputs authors.
This file is part of BoARIO-inputs.

BoARIO-inputs is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

BoARIO-inputs is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with BoARIO-inputs.  If not, see <http://www.gnu.org/licenses/>.
*/

package lossinterp

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// plotFile returns the name of the figure of group g.
func plotFile(g GroupKey) string {
	name := fmt.Sprintf("%s_%s_%s_%d.png", g.MRIO, g.Region, g.SectorType, g.Semester)
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '/' {
			return '-'
		}
		return r
	}, name)
}

// PlotCurves draws, for each group, the loss curve of the flooded region
// itself together with the simulated points.
func PlotCurves(dir string, curves *Curves) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("lossinterp: %v", err)
	}
	for _, g := range curves.Groups() {
		c, err := curves.Curve(g, g.Region)
		if err != nil {
			return err
		}
		if c == nil {
			continue
		}
		if err := plotCurve(filepath.Join(dir, plotFile(g)), g, c); err != nil {
			return fmt.Errorf("lossinterp: plotting %v: %v", g, err)
		}
	}
	return nil
}

func plotCurve(path string, g GroupKey, c *Curve) error {
	xs, ys := c.Points()
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X, pts[i].Y = xs[i], ys[i]
	}
	p := plot.New()
	p.Title.Text = g.String()
	p.X.Label.Text = "Direct damage (GVA share)"
	p.Y.Label.Text = "Loss in " + g.Region

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	s.Shape = draw.CircleGlyph{}
	s.Color = color.NRGBA{0, 0, 0, 255}
	p.Add(s)
	if len(pts) > 1 {
		l, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		l.Color = color.NRGBA{255, 0, 0, 255}
		p.Add(l)
	}
	return p.Save(5*vg.Inch, 4*vg.Inch, path)
}
