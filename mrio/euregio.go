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
	"strings"

	"gonum.org/v1/gonum/mat"
)

// euregioRegionNames merges the three parts of Sachsen.
var euregioRegionNames = map[string]string{"DEE1": "DEE0", "DEE2": "DEE0", "DEE3": "DEE0"}

// InventoryAdjustment is the EURegio final demand category holding
// inventory changes.
const InventoryAdjustment = "Inventory_adjustment"

// ParseEURegio parses the EURegio table of the given year from the split
// csv files in dir. When inventoryTreatment is true, negative inventory
// adjustments are moved to an "Inventory_use" value added row and final
// demand is clipped at zero.
func ParseEURegio(dir string, year int, inventoryTreatment bool) (*IOSystem, error) {
	if year == 0 {
		return nil, fmt.Errorf("mrio: a year is required to parse EURegio")
	}
	regions, err := readLabels(filepath.Join(dir, "regions_index.csv"), true, false)
	if err != nil {
		return nil, err
	}
	sectors, err := readLabels(filepath.Join(dir, "sectors.csv"), true, false)
	if err != nil {
		return nil, err
	}
	fd, err := readLabels(filepath.Join(dir, "fd_index.csv"), false, false)
	if err != nil {
		return nil, err
	}
	va, err := readLabels(filepath.Join(dir, "va_index.csv"), false, true)
	if err != nil {
		return nil, err
	}
	m := &IOSystem{
		Name:         "EURegio",
		Year:         year,
		Unit:         MonetaryUnitMEUR,
		Regions:      regions,
		Sectors:      sectors,
		FDCategories: fd,
		VACategories: va,
	}
	n := m.N()
	if m.Z, err = readDecimalComma(filepath.Join(dir, fmt.Sprintf("Z_%d.csv", year)), n, n); err != nil {
		return nil, err
	}
	if m.Y, err = readDecimalComma(filepath.Join(dir, fmt.Sprintf("Y_%d.csv", year)), n, len(regions)*len(fd)); err != nil {
		return nil, err
	}
	if m.VA, err = readDecimalComma(filepath.Join(dir, fmt.Sprintf("VA_%d.csv", year)), len(va), n); err != nil {
		return nil, err
	}
	if inventoryTreatment {
		m.treatInventory()
	}
	m.RenameRegions(euregioRegionNames)
	if err := m.AggregateDuplicates(); err != nil {
		return nil, err
	}
	return m, nil
}

// treatInventory appends the Inventory_use row to VA and clips Y at 0.
func (m *IOSystem) treatInventory() {
	inv := -1
	for i, c := range m.FDCategories {
		if c == InventoryAdjustment {
			inv = i
		}
	}
	n := m.N()
	use := make([]float64, n)
	if inv >= 0 {
		for i := 0; i < n; i++ {
			var sum float64
			for r := range m.Regions {
				sum += m.Y.At(i, r*len(m.FDCategories)+inv)
			}
			if sum < 0 {
				use[i] = -sum
			}
		}
	}
	nva, _ := m.VA.Dims()
	va := mat.NewDense(nva+1, n, nil)
	va.Slice(0, nva, 0, n).(*mat.Dense).Copy(m.VA)
	va.SetRow(nva, use)
	m.VA = va
	m.VACategories = append(m.VACategories, "Inventory_use")
	m.Y.Apply(func(_, _ int, v float64) float64 {
		if v < 0 {
			return 0
		}
		return v
	}, m.Y)
}

// readLabels reads unique labels from either the first row or the first
// column of a csv file. When header is true the first line is skipped.
func readLabels(path string, header, column bool) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mrio: EURegio labels: %v", err)
	}
	defer f.Close()
	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	var o []string
	for first := true; ; first = false {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mrio: EURegio labels %s: %v", path, err)
		}
		if first && header {
			continue
		}
		if !column {
			for _, v := range rec {
				if v = strings.TrimSpace(v); v != "" {
					o = append(o, v)
				}
			}
			break
		}
		if len(rec) > 0 && strings.TrimSpace(rec[0]) != "" {
			o = append(o, strings.TrimSpace(rec[0]))
		}
	}
	if len(o) == 0 {
		return nil, fmt.Errorf("mrio: EURegio labels %s: no labels found", path)
	}
	return uniqueInOrder(o), nil
}

// readDecimalComma reads an unlabelled rows×cols matrix of comma
// separated values using a decimal comma (quoted when needed).
func readDecimalComma(path string, rows, cols int) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mrio: EURegio table: %v", err)
	}
	defer f.Close()
	if err := checkDims(filepath.Base(path), rows, cols); err != nil {
		return nil, err
	}
	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	o := mat.NewDense(rows, cols, nil)
	for i := 0; ; i++ {
		rec, err := cr.Read()
		if err == io.EOF {
			if i != rows {
				return nil, fmt.Errorf("mrio: EURegio table %s has %d rows; want %d", path, i, rows)
			}
			return o, nil
		}
		if err != nil {
			return nil, fmt.Errorf("mrio: EURegio table %s: %v", path, err)
		}
		if i >= rows {
			return nil, fmt.Errorf("mrio: EURegio table %s has more than %d rows", path, rows)
		}
		if len(rec) != cols {
			return nil, fmt.Errorf("mrio: EURegio table %s row %d has %d columns; want %d", path, i+1, len(rec), cols)
		}
		row := o.RawRowView(i)
		for j, s := range rec {
			if row[j], err = parseFloat(s, true); err != nil {
				return nil, fmt.Errorf("mrio: EURegio table %s row %d: %v", path, i+1, err)
			}
		}
	}
}
