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
	"math"
	"sort"

	"github.com/golang/groupcache/lru"
	"gonum.org/v1/gonum/interp"
)

// CurveError reports a loss curve that cannot be fitted.
type CurveError struct {
	Group  GroupKey
	Region string
	Err    error
}

func (e *CurveError) Error() string {
	return fmt.Sprintf("lossinterp: loss curve of %s in group %v: %v", e.Region, e.Group, e.Err)
}

// Curve is a piecewise-linear function of the damage share, extended
// linearly beyond its first and last points.
type Curve struct {
	xs, ys []float64
	pl     interp.PiecewiseLinear
}

// FitCurve fits a curve through the given points. The values of points
// sharing the same x are averaged. A single distinct x gives a constant
// curve.
func FitCurve(xs, ys []float64) (*Curve, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%d x values for %d y values", len(xs), len(ys))
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("no points")
	}
	idx := make([]int, len(xs))
	for i := range idx {
		if math.IsNaN(xs[i]) || math.IsInf(xs[i], 0) || math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			return nil, fmt.Errorf("invalid point (%g, %g)", xs[i], ys[i])
		}
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return xs[idx[i]] < xs[idx[j]] })
	c := new(Curve)
	var n float64
	for _, i := range idx {
		last := len(c.xs) - 1
		if last >= 0 && c.xs[last] == xs[i] {
			c.ys[last] = (c.ys[last]*n + ys[i]) / (n + 1)
			n++
			continue
		}
		c.xs = append(c.xs, xs[i])
		c.ys = append(c.ys, ys[i])
		n = 1
	}
	if len(c.xs) > 1 {
		if err := c.pl.Fit(c.xs, c.ys); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// At returns the value of the curve at x.
func (c *Curve) At(x float64) float64 {
	n := len(c.xs)
	switch {
	case n == 1:
		return c.ys[0]
	case x < c.xs[0]:
		return c.ys[0] + (x-c.xs[0])*(c.ys[1]-c.ys[0])/(c.xs[1]-c.xs[0])
	case x > c.xs[n-1]:
		return c.ys[n-1] + (x-c.xs[n-1])*(c.ys[n-1]-c.ys[n-2])/(c.xs[n-1]-c.xs[n-2])
	default:
		return c.pl.Predict(x)
	}
}

// Points returns the points the curve goes through.
func (c *Curve) Points() (xs, ys []float64) { return c.xs, c.ys }

type curveKey struct {
	group  GroupKey
	region string
}

// Curves fits loss curves on demand and keeps the most recently used
// ones.
type Curves struct {
	groups map[GroupKey][]Sample
	cache  *lru.Cache
}

// maxCurves is the number of fitted curves kept in memory.
const maxCurves = 1 << 14

// NewCurves returns the loss curves of the given samples.
func NewCurves(samples []Sample) *Curves {
	c := &Curves{
		groups: make(map[GroupKey][]Sample),
		cache:  lru.New(maxCurves),
	}
	for _, s := range samples {
		g := s.Group()
		c.groups[g] = append(c.groups[g], s)
	}
	return c
}

// Groups returns the groups curves can be fitted for, sorted.
func (c *Curves) Groups() []GroupKey {
	o := make([]GroupKey, 0, len(c.groups))
	for g := range c.groups {
		o = append(o, g)
	}
	sort.Slice(o, func(i, j int) bool {
		a, b := o[i], o[j]
		if a.MRIO != b.MRIO {
			return a.MRIO < b.MRIO
		}
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		if a.SectorType != b.SectorType {
			return a.SectorType < b.SectorType
		}
		return a.Semester < b.Semester
	})
	return o
}

// Curve returns the curve of the losses in region for floods of group g,
// or nil if no run was simulated for g. A region missing from a sample
// counts as a zero loss.
func (c *Curves) Curve(g GroupKey, region string) (*Curve, error) {
	k := curveKey{g, region}
	if v, ok := c.cache.Get(k); ok {
		return v.(*Curve), nil
	}
	samples, ok := c.groups[g]
	if !ok {
		return nil, nil
	}
	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = s.DmgShare
		ys[i] = s.Losses[region]
	}
	curve, err := FitCurve(xs, ys)
	if err != nil {
		return nil, &CurveError{Group: g, Region: region, Err: err}
	}
	c.cache.Add(k, curve)
	return curve, nil
}
