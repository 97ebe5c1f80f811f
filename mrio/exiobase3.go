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
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var exioYear = regexp.MustCompile(`IOT_(\d{4})`)

// labelledTable is a table with two label columns and two header rows.
type labelledTable struct {
	rows, cols []label
	data       [][]float64
}

// readLabelledTable reads a tab separated table written with a two-level
// row index and a two-level column header, as in EXIOBASE3 text files:
//
//	region	(blank)	AT	AT	…
//	sector	(blank)	s1	s2	…
//	region	sector
//	AT	s1	0.1	0.2	…
func readLabelledTable(r io.Reader) (*labelledTable, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	var header [][]string
	t := new(labelledTable)
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mrio: reading table: %v", err)
		}
		if len(rec) < 2 {
			continue
		}
		if len(header) < 2 && strings.TrimSpace(rec[1]) == "" {
			header = append(header, rec[2:])
			continue
		}
		if strings.EqualFold(rec[0], "region") && strings.EqualFold(rec[1], "sector") {
			if len(header) == 0 {
				// Vectors such as x.txt only carry a names row.
				header = append(header, rec[2:], rec[2:])
			}
			continue
		}
		if len(header) == 1 {
			// Single header row (e.g. "indout" or "unit").
			header = append(header, header[0])
		}
		vals := make([]float64, len(rec)-2)
		for j, s := range rec[2:] {
			v, err := parseFloat(s, false)
			if err != nil {
				return nil, fmt.Errorf("mrio: table line %d: %v", line, err)
			}
			vals[j] = v
		}
		t.rows = append(t.rows, label{region: rec[0], item: rec[1]})
		t.data = append(t.data, vals)
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("mrio: table has no header")
	}
	for j := range header[0] {
		l := label{region: header[0][j]}
		if j < len(header[1]) {
			l.item = header[1][j]
		}
		t.cols = append(t.cols, l)
	}
	return t, nil
}

func (t *labelledTable) regions() []string {
	r := make([]string, len(t.rows))
	for i, l := range t.rows {
		r[i] = l.region
	}
	return uniqueInOrder(r)
}

func (t *labelledTable) rowItems() []string {
	r := make([]string, len(t.rows))
	for i, l := range t.rows {
		r[i] = l.item
	}
	return uniqueInOrder(r)
}

func (t *labelledTable) colItems() []string {
	r := make([]string, len(t.cols))
	for i, l := range t.cols {
		r[i] = l.item
	}
	return uniqueInOrder(r)
}

// vector returns the first column of t as a region-major vector.
func (t *labelledTable) vector(regions, sectors []string) (*mat.VecDense, error) {
	if err := checkDims("x", len(regions)*len(sectors), 1); err != nil {
		return nil, err
	}
	x := mat.NewVecDense(len(regions)*len(sectors), nil)
	ri, si := indexLookup(regions), indexLookup(sectors)
	for i, l := range t.rows {
		r, ok := ri[l.region]
		if !ok {
			return nil, LabelError{Kind: "region", Name: l.region}
		}
		s, ok := si[l.item]
		if !ok {
			return nil, LabelError{Kind: "sector", Name: l.item}
		}
		if len(t.data[i]) > 0 {
			x.SetVec(r*len(sectors)+s, t.data[i][0])
		}
	}
	return x, nil
}

// ParseEXIOBASE3 parses an EXIOBASE3 industry-by-industry or
// product-by-product table from its zip archive or extracted directory.
func ParseEXIOBASE3(path string) (*IOSystem, error) {
	src, err := openSource(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	read := func(name string) (*labelledTable, error) {
		r, _, err := src.open(named(name))
		if err != nil {
			return nil, fmt.Errorf("mrio: EXIOBASE3 %s: %w", name, err)
		}
		defer r.Close()
		return readLabelledTable(r)
	}

	zt, err := read("Z.txt")
	if err != nil {
		return nil, err
	}
	yt, err := read("Y.txt")
	if err != nil {
		return nil, err
	}
	m := &IOSystem{
		Name:         "EXIO3",
		Unit:         MonetaryUnitMEUR,
		Regions:      zt.regions(),
		Sectors:      zt.rowItems(),
		FDCategories: yt.colItems(),
	}
	if match := exioYear.FindStringSubmatch(filepath.Base(path)); match != nil {
		m.Year, _ = strconv.Atoi(match[1])
	}
	if m.Z, err = place(zt.rows, zt.cols, zt.data, m.Regions, m.Sectors, m.Sectors); err != nil {
		return nil, err
	}
	if m.Y, err = place(yt.rows, yt.cols, yt.data, m.Regions, m.Sectors, m.FDCategories); err != nil {
		return nil, err
	}

	xt, err := read("x.txt")
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if m.X, err = xt.vector(m.Regions, m.Sectors); err != nil {
			return nil, fmt.Errorf("mrio: EXIOBASE3 x.txt: %w", err)
		}
	}
	if u, err := readUnit(src); err == nil && u != "" {
		m.Unit = u
	}
	return m, nil
}

// readUnit returns the first unit listed in unit.txt.
func readUnit(src source) (string, error) {
	r, _, err := src.open(named("unit.txt"))
	if err != nil {
		return "", err
	}
	defer r.Close()
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	for {
		rec, err := cr.Read()
		if err != nil {
			return "", err
		}
		if len(rec) < 3 || strings.EqualFold(rec[0], "region") {
			continue
		}
		return strings.TrimSpace(rec[2]), nil
	}
}
