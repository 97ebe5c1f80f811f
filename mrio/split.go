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

package mrio

import (
	"fmt"
	"regexp"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

var splitTarget = regexp.MustCompile(`^(?P<region>[A-Z]{2})_sliced_in_(?P<n>[0-9]+)$`)

// ParseSplitTarget parses a subregion target such as "FR_sliced_in_3".
func ParseSplitTarget(target string) (region string, n int, err error) {
	match := splitTarget.FindStringSubmatch(target)
	if match == nil {
		return "", 0, fmt.Errorf("mrio: subregions target %q doesn't match %s", target, splitTarget)
	}
	n, err = strconv.Atoi(match[2])
	if err != nil {
		return "", 0, fmt.Errorf("mrio: parsing subregions target: %v", err)
	}
	return match[1], n, nil
}

// SplitRegion replaces region by n identical subregions named
// region_1 … region_n, each holding 1/n of the region's output.
// Without internal exchange, subregions only trade within themselves:
// their own block is scaled back up by n and cross blocks are zero.
func (m *IOSystem) SplitRegion(region string, n int, internalExchange bool) error {
	if n < 2 {
		return fmt.Errorf("mrio: cannot split region %s in %d", region, n)
	}
	if err := m.Validate(); err != nil {
		return err
	}
	target, err := m.RegionIndex(region)
	if err != nil {
		return err
	}
	if m.X == nil {
		if err := m.CalcAll(); err != nil {
			return err
		}
	}

	// origin[r'] is the old region of new region r', sub[r'] is the
	// subregion number (or -1 if r' is not a subregion).
	var regions []string
	var origin, sub []int
	for r, name := range m.Regions {
		if r != target {
			regions = append(regions, name)
			origin = append(origin, r)
			sub = append(sub, -1)
			continue
		}
		for i := 0; i < n; i++ {
			regions = append(regions, fmt.Sprintf("%s_%d", region, i+1))
			origin = append(origin, r)
			sub = append(sub, i)
		}
	}

	ns, nf := len(m.Sectors), len(m.FDCategories)
	fn := float64(n)
	factor := func(ra, rb int) float64 {
		f := 1.0
		if sub[ra] >= 0 {
			f /= fn
		}
		if sub[rb] >= 0 {
			f /= fn
		}
		if !internalExchange && sub[ra] >= 0 && sub[rb] >= 0 {
			if sub[ra] != sub[rb] {
				return 0
			}
			f *= fn
		}
		return f
	}

	nNew := len(regions) * ns
	z := mat.NewDense(nNew, nNew, nil)
	y := mat.NewDense(nNew, len(regions)*nf, nil)
	x := make([]float64, nNew)
	var va *mat.Dense
	if m.VA != nil {
		va = mat.NewDense(len(m.VACategories), nNew, nil)
	}
	for ra := range regions {
		for s := 0; s < ns; s++ {
			i, io := ra*ns+s, origin[ra]*ns+s
			rowFactor := 1.0
			if sub[ra] >= 0 {
				rowFactor = 1 / fn
			}
			x[i] = m.X.AtVec(io) * rowFactor
			if va != nil {
				for v := range m.VACategories {
					va.Set(v, i, m.VA.At(v, io)*rowFactor)
				}
			}
			for rb := range regions {
				f := factor(ra, rb)
				if f == 0 {
					continue
				}
				for t := 0; t < ns; t++ {
					z.Set(i, rb*ns+t, m.Z.At(io, origin[rb]*ns+t)*f)
				}
				for c := 0; c < nf; c++ {
					y.Set(i, rb*nf+c, m.Y.At(io, origin[rb]*nf+c)*f)
				}
			}
		}
	}
	m.Regions = regions
	m.Z, m.Y, m.VA = z, y, va
	m.X = mat.NewVecDense(nNew, x)
	m.A = nil
	if err := m.CalcAll(); err != nil {
		return err
	}
	m.LexicoReindex()
	return nil
}
