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
	"sort"

	"gonum.org/v1/gonum/mat"
)

// grouping assigns each old label position to a new label position.
type grouping struct {
	labels []string
	group  []int
}

// groupByName creates a grouping of old labels using the given mapping.
// The new labels are sorted.
func groupByName(kind string, old []string, mapping map[string]string) (grouping, error) {
	seen := make(map[string]bool)
	var labels []string
	for _, o := range old {
		n, ok := mapping[o]
		if !ok {
			return grouping{}, LabelError{Kind: kind, Name: o}
		}
		if !seen[n] {
			seen[n] = true
			labels = append(labels, n)
		}
	}
	sort.Strings(labels)
	pos := indexLookup(labels)
	g := grouping{labels: labels, group: make([]int, len(old))}
	for i, o := range old {
		g.group[i] = pos[mapping[o]]
	}
	return g, nil
}

// identity returns a grouping that keeps labels as they are.
func identity(labels []string) grouping {
	g := grouping{labels: append([]string(nil), labels...), group: make([]int, len(labels))}
	for i := range g.group {
		g.group[i] = i
	}
	return g
}

func indexLookup(a []string) map[string]int {
	o := make(map[string]int)
	for i, s := range a {
		o[s] = i
	}
	return o
}

// AggregateSectors merges sectors according to mapping, which must
// give a new sector name for every current sector.
func (m *IOSystem) AggregateSectors(mapping map[string]string) error {
	gs, err := groupByName("sector", m.Sectors, mapping)
	if err != nil {
		return err
	}
	return m.aggregate(identity(m.Regions), gs)
}

// AggregateRegions merges regions according to mapping, which must
// give a new region name for every current region.
func (m *IOSystem) AggregateRegions(mapping map[string]string) error {
	gr, err := groupByName("region", m.Regions, mapping)
	if err != nil {
		return err
	}
	return m.aggregate(gr, identity(m.Sectors))
}

// RenameRegions renames regions. Renaming several regions to the
// same name creates duplicates that AggregateDuplicates can merge.
func (m *IOSystem) RenameRegions(names map[string]string) {
	for i, r := range m.Regions {
		if n, ok := names[r]; ok {
			m.Regions[i] = n
		}
	}
}

// AggregateDuplicates merges regions sharing the same label.
func (m *IOSystem) AggregateDuplicates() error {
	mapping := make(map[string]string, len(m.Regions))
	for _, r := range m.Regions {
		mapping[r] = r
	}
	if len(mapping) == len(m.Regions) {
		return nil
	}
	gr, err := groupByName("region", m.Regions, mapping)
	if err != nil {
		return err
	}
	return m.aggregate(gr, identity(m.Sectors))
}

// aggregate sums flows over the given region and sector groupings.
// This is equivalent to C·Z·Cᵀ with concordance matrix C, without
// materializing C.
func (m *IOSystem) aggregate(gr, gs grouping) error {
	if err := m.Validate(); err != nil {
		return err
	}
	ns, nsNew := len(m.Sectors), len(gs.labels)
	nf := len(m.FDCategories)
	nNew := len(gr.labels) * nsNew

	rowMap := make([]int, m.N())
	for r := range m.Regions {
		for s := range m.Sectors {
			rowMap[r*ns+s] = gr.group[r]*nsNew + gs.group[s]
		}
	}
	yMap := make([]int, len(m.Regions)*nf)
	for r := range m.Regions {
		for f := 0; f < nf; f++ {
			yMap[r*nf+f] = gr.group[r]*nf + f
		}
	}

	m.Z = sumInto(m.Z, rowMap, rowMap, nNew, nNew)
	m.Y = sumInto(m.Y, rowMap, yMap, nNew, len(gr.labels)*nf)
	if m.VA != nil {
		m.VA = sumInto(m.VA, nil, rowMap, len(m.VACategories), nNew)
	}
	if m.X != nil {
		x := make([]float64, nNew)
		for i, to := range rowMap {
			x[to] += m.X.AtVec(i)
		}
		m.X = mat.NewVecDense(nNew, x)
	}
	m.Regions = gr.labels
	m.Sectors = gs.labels
	m.A = nil
	return m.CalcAll()
}

// sumInto adds each element (i, j) of src to element (rows[i], cols[j])
// of a new r×c matrix. A nil mapping is the identity.
func sumInto(src *mat.Dense, rows, cols []int, r, c int) *mat.Dense {
	o := mat.NewDense(r, c, nil)
	sr, _ := src.Dims()
	for i := 0; i < sr; i++ {
		ii := i
		if rows != nil {
			ii = rows[i]
		}
		dst := o.RawRowView(ii)
		for j, v := range src.RawRowView(i) {
			jj := j
			if cols != nil {
				jj = cols[j]
			}
			dst[jj] += v
		}
	}
	return o
}
