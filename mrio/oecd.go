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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// oecdFDCategories are the final demand column suffixes of the ICIO tables.
var oecdFDCategories = map[string]bool{
	"HFCE": true, "NPISH": true, "GGFC": true, "GFCF": true,
	"INVNT": true, "DPABR": true, "NONRES": true, "DIRP": true,
	"FD": true, "P33": true,
}

// oecdExcluded are totals that are not part of the table.
var oecdExcluded = map[string]bool{"TOTAL": true, "OUTPUT": true, "TOT": true}

// oecdVA are factor input rows.
var oecdVA = map[string]bool{"VALU": true, "TAXSUB": true, "VA": true}

// oecdRegionNames merges the split Chinese and Mexican regions.
var oecdRegionNames = map[string]string{"CN1": "CHN", "CN2": "CHN", "MX1": "MEX", "MX2": "MEX"}

var oecdYear = regexp.MustCompile(`(19|20)\d{2}`)

// splitOECD splits a label such as "FRA_D01T02" into region and code.
// Labels without a region (e.g. "VALU") return an empty region.
func splitOECD(l string) (region, code string) {
	l = strings.TrimSpace(l)
	if i := strings.Index(l, "_"); i > 0 {
		return l[:i], l[i+1:]
	}
	return "", l
}

// ParseOECD parses an OECD inter-country input-output table. path is
// either a csv file, a zip archive holding one, or a directory holding
// one csv per year, in which case year selects the file.
func ParseOECD(path string, year int) (*IOSystem, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	var r io.ReadCloser
	var name string
	switch {
	case info.IsDir():
		if year == 0 {
			return nil, fmt.Errorf("mrio: trying to parse OECD MRIO with a folder, but no year given")
		}
		src := dirSource(path)
		r, name, err = src.open(func(base string) bool {
			return strings.HasSuffix(strings.ToLower(base), ".csv") && strings.Contains(base, strconv.Itoa(year))
		})
		if err != nil {
			return nil, fmt.Errorf("mrio: no OECD csv for year %d in %s: %v", year, path, err)
		}
	case filepath.Ext(path) == ".csv":
		r, err = os.Open(path)
		name = path
	case filepath.Ext(path) == ".zip":
		var src source
		src, err = openSource(path)
		if err != nil {
			return nil, err
		}
		defer src.Close()
		r, name, err = src.open(func(base string) bool {
			return strings.HasSuffix(strings.ToLower(base), ".csv") &&
				(year == 0 || strings.Contains(base, strconv.Itoa(year)))
		})
	default:
		return nil, fmt.Errorf("mrio: MRIO file (%s) not recognized as valid (should be a directory, a .csv or .zip)", path)
	}
	if err != nil {
		return nil, fmt.Errorf("mrio: opening OECD table: %v", err)
	}
	defer r.Close()

	m, err := readOECD(r)
	if err != nil {
		return nil, err
	}
	m.Year = year
	if m.Year == 0 {
		if y := oecdYear.FindString(filepath.Base(name)); y != "" {
			m.Year, _ = strconv.Atoi(y)
		}
	}
	m.RenameRegions(oecdRegionNames)
	if err := m.AggregateDuplicates(); err != nil {
		return nil, err
	}
	return m, nil
}

func readOECD(r io.Reader) (*IOSystem, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("mrio: reading OECD header: %v", err)
	}
	// Classify columns.
	type col struct {
		kind int // 0 skip, 1 Z, 2 Y
		l    label
	}
	cols := make([]col, len(header))
	var regions, sectors, fd []string
	for j := 1; j < len(header); j++ {
		reg, code := splitOECD(header[j])
		switch {
		case reg == "" || oecdExcluded[code] || oecdExcluded[reg]:
		case oecdFDCategories[code]:
			cols[j] = col{kind: 2, l: label{reg, code}}
			fd = append(fd, code)
		default:
			cols[j] = col{kind: 1, l: label{reg, code}}
			regions = append(regions, reg)
			sectors = append(sectors, code)
		}
	}
	regions, sectors, fd = uniqueInOrder(regions), uniqueInOrder(sectors), uniqueInOrder(fd)
	m := &IOSystem{
		Name:         "OECD-ICIO",
		Unit:         "M.USD",
		Regions:      regions,
		Sectors:      sectors,
		FDCategories: fd,
	}
	n := m.N()
	if err := checkDims("OECD Z", n, n); err != nil {
		return nil, err
	}
	if err := checkDims("OECD Y", n, len(regions)*len(fd)); err != nil {
		return nil, err
	}
	m.Z = mat.NewDense(n, n, nil)
	m.Y = mat.NewDense(n, len(regions)*len(fd), nil)
	ri, si, fi := indexLookup(regions), indexLookup(sectors), indexLookup(fd)
	var vaRows [][]float64
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mrio: reading OECD table: %v", err)
		}
		reg, code := splitOECD(rec[0])
		if oecdExcluded[code] || oecdExcluded[reg] {
			continue
		}
		isVA := oecdVA[code] || oecdVA[reg]
		var row []float64
		var yRow []float64
		if isVA {
			m.VACategories = append(m.VACategories, strings.TrimSpace(rec[0]))
			row = make([]float64, n)
			vaRows = append(vaRows, row)
		} else {
			r, ok := ri[reg]
			if !ok {
				return nil, LabelError{Kind: "region", Name: reg}
			}
			s, ok := si[code]
			if !ok {
				return nil, LabelError{Kind: "sector", Name: code}
			}
			row = m.Z.RawRowView(r*len(sectors) + s)
			yRow = m.Y.RawRowView(r*len(sectors) + s)
		}
		for j := 1; j < len(rec) && j < len(cols); j++ {
			c := cols[j]
			if c.kind == 0 || (isVA && c.kind == 2) {
				continue
			}
			v, err := parseFloat(rec[j], false)
			if err != nil {
				return nil, fmt.Errorf("mrio: OECD table line %d: %v", line, err)
			}
			if c.kind == 1 {
				row[ri[c.l.region]*len(sectors)+si[c.l.item]] = v
			} else {
				yRow[ri[c.l.region]*len(fd)+fi[c.l.item]] = v
			}
		}
	}
	if len(vaRows) > 0 {
		m.VA = mat.NewDense(len(vaRows), n, nil)
		for i, row := range vaRows {
			m.VA.SetRow(i, row)
		}
	}
	return m, nil
}
