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

// Package mrio holds multi-regional input-output tables and the operations
// used to prepare them for ARIO simulations: parsing published datasets,
// aggregating regions and sectors, splitting regions into subregions and
// computing value added.
package mrio

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Log receives the warnings emitted by this package.
var Log logrus.FieldLogger = logrus.StandardLogger()

// MonetaryUnitMEUR is the monetary unit of EXIOBASE3 and EURegio tables.
const MonetaryUnitMEUR = "M.EUR"

// IOSystem is a multi-regional input-output table.
// Every matrix dimension indexed by (region, sector) is region-major:
// the index of sector s in region r is r*len(Sectors)+s.
// Final demand columns are indexed by (region, category) in the same way.
type IOSystem struct {
	Name string
	Year int
	// Unit is the monetary unit of the flows, e.g. "M.EUR".
	Unit string

	Regions      []string
	Sectors      []string
	FDCategories []string
	VACategories []string

	// Z holds the intermediate flows (n×n).
	Z *mat.Dense
	// Y holds final demand (n×(regions·categories)).
	Y *mat.Dense
	// X holds gross output (n).
	X *mat.VecDense
	// A holds the technical coefficients (n×n).
	A *mat.Dense
	// VA holds the factor inputs (len(VACategories)×n). It may be nil.
	VA *mat.Dense
}

// LabelError is returned when a region, sector or category
// label is not part of an IOSystem.
type LabelError struct {
	Kind, Name string
}

func (err LabelError) Error() string {
	return fmt.Sprintf("mrio: invalid %s `%s`", err.Kind, err.Name)
}

// N returns the number of (region, sector) pairs.
func (m *IOSystem) N() int { return len(m.Regions) * len(m.Sectors) }

func (m *IOSystem) index(r, s int) int { return r*len(m.Sectors) + s }

// RegionIndex returns the index of the given region.
func (m *IOSystem) RegionIndex(region string) (int, error) {
	for i, r := range m.Regions {
		if r == region {
			return i, nil
		}
	}
	return -1, LabelError{Kind: "region", Name: region}
}

// Validate checks that the matrix dimensions agree with the labels.
func (m *IOSystem) Validate() error {
	n := m.N()
	if n == 0 {
		return fmt.Errorf("mrio: %s has no regions or sectors", m.Name)
	}
	if len(m.FDCategories) == 0 {
		return fmt.Errorf("mrio: %s has no final demand categories", m.Name)
	}
	if m.Z == nil {
		return fmt.Errorf("mrio: %s is missing Z", m.Name)
	}
	if r, c := m.Z.Dims(); r != n || c != n {
		return fmt.Errorf("mrio: Z has dims %d×%d; want %d×%d", r, c, n, n)
	}
	if m.Y == nil {
		return fmt.Errorf("mrio: %s is missing Y", m.Name)
	}
	if r, c := m.Y.Dims(); r != n || c != len(m.Regions)*len(m.FDCategories) {
		return fmt.Errorf("mrio: Y has dims %d×%d; want %d×%d", r, c, n, len(m.Regions)*len(m.FDCategories))
	}
	if m.X != nil && m.X.Len() != n {
		return fmt.Errorf("mrio: x has length %d; want %d", m.X.Len(), n)
	}
	if m.A != nil {
		if r, c := m.A.Dims(); r != n || c != n {
			return fmt.Errorf("mrio: A has dims %d×%d; want %d×%d", r, c, n, n)
		}
	}
	if m.VA != nil {
		if r, c := m.VA.Dims(); r != len(m.VACategories) || c != n {
			return fmt.Errorf("mrio: VA has dims %d×%d; want %d×%d", r, c, len(m.VACategories), n)
		}
	}
	return nil
}

// checkDims returns an error if a matrix of the given dims would be empty.
func checkDims(name string, r, c int) error {
	if r <= 0 || c <= 0 {
		return fmt.Errorf("mrio: %s would have dims %d×%d", name, r, c)
	}
	return nil
}

// CalcAll computes the missing gross output and the technical coefficients.
// Gross output is the sum of intermediate and final uses. Coefficients
// of sectors without output are zero.
func (m *IOSystem) CalcAll() error {
	if err := m.Validate(); err != nil {
		return err
	}
	n := m.N()
	if m.X == nil {
		x := make([]float64, n)
		for i := 0; i < n; i++ {
			x[i] = floats.Sum(m.Z.RawRowView(i)) + floats.Sum(m.Y.RawRowView(i))
		}
		m.X = mat.NewVecDense(n, x)
	}
	inv := make([]float64, n)
	for j := 0; j < n; j++ {
		if v := m.X.AtVec(j); v != 0 {
			inv[j] = 1 / v
		}
	}
	a := mat.NewDense(n, n, nil)
	a.Apply(func(i, j int, v float64) float64 { return v * inv[j] }, m.Z)
	m.A = a
	return nil
}

// Copy returns a deep copy of the receiver.
func (m *IOSystem) Copy() *IOSystem {
	o := &IOSystem{
		Name:         m.Name,
		Year:         m.Year,
		Unit:         m.Unit,
		Regions:      append([]string(nil), m.Regions...),
		Sectors:      append([]string(nil), m.Sectors...),
		FDCategories: append([]string(nil), m.FDCategories...),
		VACategories: append([]string(nil), m.VACategories...),
	}
	if m.Z != nil {
		o.Z = mat.DenseCopyOf(m.Z)
	}
	if m.Y != nil {
		o.Y = mat.DenseCopyOf(m.Y)
	}
	if m.A != nil {
		o.A = mat.DenseCopyOf(m.A)
	}
	if m.VA != nil {
		o.VA = mat.DenseCopyOf(m.VA)
	}
	if m.X != nil {
		o.X = mat.VecDenseCopyOf(m.X)
	}
	return o
}

// sortedPerm sorts labels in place and returns, for each new position,
// the old position of the label.
func sortedPerm(labels []string) []int {
	perm := make([]int, len(labels))
	for i := range perm {
		perm[i] = i
	}
	old := append([]string(nil), labels...)
	sort.SliceStable(perm, func(i, j int) bool { return old[perm[i]] < old[perm[j]] })
	for i, p := range perm {
		labels[i] = old[p]
	}
	return perm
}

// blockPerm expands a permutation of outer labels and a permutation of
// inner labels into a permutation of the region-major product index.
func blockPerm(outer, inner []int) []int {
	o := make([]int, 0, len(outer)*len(inner))
	for _, po := range outer {
		for _, pi := range inner {
			o = append(o, po*len(inner)+pi)
		}
	}
	return o
}

// permute returns a matrix whose element (i, j) is m(rows[i], cols[j]).
// A nil permutation is the identity.
func permute(m *mat.Dense, rows, cols []int) *mat.Dense {
	if m == nil {
		return nil
	}
	r, c := m.Dims()
	if rows != nil {
		r = len(rows)
	}
	if cols != nil {
		c = len(cols)
	}
	o := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		ii := i
		if rows != nil {
			ii = rows[i]
		}
		src := m.RawRowView(ii)
		dst := o.RawRowView(i)
		if cols == nil {
			copy(dst, src)
			continue
		}
		for j, jj := range cols {
			dst[j] = src[jj]
		}
	}
	return o
}

// LexicoReindex sorts regions, sectors and categories lexicographically
// and reorders every matrix accordingly.
func (m *IOSystem) LexicoReindex() {
	pr := sortedPerm(m.Regions)
	ps := sortedPerm(m.Sectors)
	pf := sortedPerm(m.FDCategories)
	pv := sortedPerm(m.VACategories)
	idx := blockPerm(pr, ps)
	m.Z = permute(m.Z, idx, idx)
	m.A = permute(m.A, idx, idx)
	m.Y = permute(m.Y, idx, blockPerm(pr, pf))
	if m.VA != nil {
		m.VA = permute(m.VA, pv, idx)
	}
	if m.X != nil {
		x := make([]float64, len(idx))
		for i, p := range idx {
			x[i] = m.X.AtVec(p)
		}
		m.X = mat.NewVecDense(len(x), x)
	}
}

// ValueAdded returns gross output minus intermediate inputs for each
// (region, sector), floored at zero.
func (m *IOSystem) ValueAdded() (*mat.VecDense, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.X == nil {
		if err := m.CalcAll(); err != nil {
			return nil, err
		}
	}
	n := m.N()
	va := mat.NewVecDense(n, nil)
	ones := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		ones.SetVec(i, 1)
	}
	va.MulVec(m.Z.T(), ones)
	va.SubVec(m.X, va)
	for i := 0; i < n; i++ {
		if va.AtVec(i) < 0 {
			va.SetVec(i, 0)
		}
	}
	return va, nil
}

// GDP returns the value added of each region. Tables in millions of euros
// are converted to euros.
func (m *IOSystem) GDP() (map[string]float64, error) {
	va, err := m.ValueAdded()
	if err != nil {
		return nil, err
	}
	factor := 1.0
	if m.Unit == MonetaryUnitMEUR {
		factor = 1e6
	} else {
		Log.WithFields(logrus.Fields{"mrio": m.Name, "unit": m.Unit}).
			Warn("MRIO unit is not M.EUR; GDP is left in the table unit")
	}
	o := make(map[string]float64, len(m.Regions))
	for r, region := range m.Regions {
		var sum float64
		for s := range m.Sectors {
			sum += va.AtVec(m.index(r, s))
		}
		o[region] = sum * factor
	}
	return o, nil
}
