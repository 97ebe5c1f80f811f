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
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Header levels of a loss table.
const (
	LevelSemester   = "semester"
	LevelSectorType = "sector type"
	LevelRegion     = "region"
)

// Index columns of a loss table.
const (
	IndexRunName = "run_name"
	IndexMRIO    = "mrio"
)

// LossColumn identifies a column of a loss table.
type LossColumn struct {
	Semester, SectorType, Region string
}

// LossTable holds the losses of each run, one row per run and one column
// per (semester, sector type, region). It is stored as a csv file with
// three header rows followed by a row naming the index columns.
type LossTable struct {
	IndexNames []string
	Columns    []LossColumn
	Index      [][]string
	Values     [][]float64
}

// Loss is one value of a loss table.
type Loss struct {
	Run, MRIO  string
	Semester   int
	SectorType string
	Region     string
	Value      float64
}

var digits = regexp.MustCompile(`\d+`)

// SemesterNumber extracts the number of a semester label such as
// "semester_2".
func SemesterNumber(label string) (int, error) {
	d := digits.FindString(label)
	if d == "" {
		return 0, fmt.Errorf("lossinterp: no semester number in %q", label)
	}
	return strconv.Atoi(d)
}

func rawRecords(r io.Reader) ([][]string, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(false),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		return nil, df.Err
	}
	// The first record holds the generated column names.
	return df.Records()[1:], nil
}

// ReadLossTable reads a loss table in csv format.
func ReadLossTable(r io.Reader) (*LossTable, error) {
	recs, err := rawRecords(r)
	if err != nil {
		return nil, fmt.Errorf("lossinterp: reading loss table: %v", err)
	}
	if len(recs) < 4 {
		return nil, fmt.Errorf("lossinterp: loss table needs 3 header rows and an index row, got %d rows", len(recs))
	}
	names := recs[3]
	k := 0
	for k < len(names) && strings.TrimSpace(names[k]) != "" {
		k++
	}
	if k == 0 {
		return nil, fmt.Errorf("lossinterp: loss table has no index columns")
	}
	t := &LossTable{IndexNames: names[:k]}
	hasRun := false
	for _, n := range t.IndexNames {
		hasRun = hasRun || n == IndexRunName
	}
	if !hasRun {
		return nil, fmt.Errorf("lossinterp: loss table has no %q index column", IndexRunName)
	}
	for j := k; j < len(names); j++ {
		t.Columns = append(t.Columns, LossColumn{
			Semester:   recs[0][j],
			SectorType: recs[1][j],
			Region:     recs[2][j],
		})
	}
	for i, rec := range recs[4:] {
		row := make([]float64, len(t.Columns))
		for j := range t.Columns {
			s := strings.TrimSpace(rec[k+j])
			if s == "" || s == "NaN" {
				return nil, fmt.Errorf("lossinterp: loss table row %d: NA found during treatment", i+1)
			}
			if row[j], err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("lossinterp: loss table row %d: %v", i+1, err)
			}
		}
		t.Index = append(t.Index, rec[:k])
		t.Values = append(t.Values, row)
	}
	return t, nil
}

// WriteLossTable writes t in csv format.
func WriteLossTable(w io.Writer, t *LossTable) error {
	k := len(t.IndexNames)
	width := k + len(t.Columns)
	header := make([][]string, 4)
	for i := range header {
		header[i] = make([]string, width)
	}
	header[0][k-1] = LevelSemester
	header[1][k-1] = LevelSectorType
	header[2][k-1] = LevelRegion
	copy(header[3], t.IndexNames)
	for j, c := range t.Columns {
		header[0][k+j] = c.Semester
		header[1][k+j] = c.SectorType
		header[2][k+j] = c.Region
	}
	recs := header
	for i, idx := range t.Index {
		rec := make([]string, 0, width)
		rec = append(rec, idx...)
		for _, v := range t.Values[i] {
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		recs = append(recs, rec)
	}
	df := dataframe.LoadRecords(recs,
		dataframe.HasHeader(false),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		return fmt.Errorf("lossinterp: writing loss table: %v", df.Err)
	}
	return df.WriteCSV(w, dataframe.WriteHeader(false))
}

// Losses returns the values of t in long format. Without semester mode,
// values are summed across semesters and keyed as semester 0.
func (t *LossTable) Losses(semester bool) ([]Loss, error) {
	runCol, mrioCol := -1, -1
	for i, n := range t.IndexNames {
		switch n {
		case IndexRunName:
			runCol = i
		case IndexMRIO:
			mrioCol = i
		}
	}
	sems := make([]int, len(t.Columns))
	for j, c := range t.Columns {
		s, err := SemesterNumber(c.Semester)
		if err != nil {
			return nil, err
		}
		sems[j] = s
	}
	type key struct {
		row        int
		semester   int
		sectorType string
		region     string
	}
	var order []key
	sums := make(map[key]float64)
	for i := range t.Index {
		for j, c := range t.Columns {
			k := key{row: i, sectorType: c.SectorType, region: c.Region}
			if semester {
				k.semester = sems[j]
			}
			if _, ok := sums[k]; !ok {
				order = append(order, k)
			}
			sums[k] += t.Values[i][j]
		}
	}
	o := make([]Loss, len(order))
	for n, k := range order {
		l := Loss{
			Run:        t.Index[k.row][runCol],
			Semester:   k.semester,
			SectorType: k.sectorType,
			Region:     k.region,
			Value:      sums[k],
		}
		if mrioCol >= 0 {
			l.MRIO = t.Index[k.row][mrioCol]
		}
		o[n] = l
	}
	return o, nil
}

// Regions returns the distinct affected regions of t in column order.
func (t *LossTable) Regions() []string {
	seen := make(map[string]bool)
	var o []string
	for _, c := range t.Columns {
		if !seen[c.Region] {
			seen[c.Region] = true
			o = append(o, c.Region)
		}
	}
	return o
}
