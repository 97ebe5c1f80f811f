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

// Package indicators gathers the indicators written by each simulation
// run into tables covering a whole experiment.
package indicators

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/sirupsen/logrus"
	"github.com/spjuhel/BoARIO-inputs/lossinterp"
	"golang.org/x/sync/errgroup"
)

// Log receives the progress messages emitted by this package.
var Log logrus.FieldLogger = logrus.StandardLogger()

// File names written by the simulation runs.
const (
	GeneralFile  = "indicators.json"
	ProdLossFile = "prod_chg.json"
	FDLossFile   = "fd_loss.json"
)

// RunTypes are the valid run types.
var RunTypes = []string{"raw", "int", "all"}

// CheckRunType returns an error if runType is not a valid run type.
func CheckRunType(runType string) error {
	for _, r := range RunTypes {
		if r == runType {
			return nil
		}
	}
	return fmt.Errorf("indicators: unrecognized run type %q (must be one of %s)", runType, strings.Join(RunTypes, ", "))
}

// find returns the files named name in the directories below folder whose
// name contains runType.
func find(folder, runType, name string) ([]string, error) {
	var o []string
	err := filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != name {
			return nil
		}
		if strings.Contains(filepath.Base(filepath.Dir(path)), runType) {
			o = append(o, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("indicators: searching %s: %v", folder, err)
	}
	sort.Strings(o)
	return o, nil
}

func readJSON(path string, v interface{}) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("indicators: %v", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("indicators: decoding %s: %v", path, err)
	}
	return nil
}

// readAllJSON decodes files concurrently, keeping their order.
func readAllJSON[T any](files []string) ([]T, error) {
	o := make([]T, len(files))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range files {
		i, f := i, f
		g.Go(func() error { return readJSON(f, &o[i]) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return o, nil
}

func formatValue(v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		b, err := json.Marshal(x)
		return string(b), err
	}
}

// General gathers the indicators.json files of the runs below folder
// into one record per run. The first record is the header.
func General(folder, runType string) ([][]string, error) {
	files, err := find(folder, runType, GeneralFile)
	if err != nil {
		return nil, err
	}
	Log.WithField("files", len(files)).Info("found indicators files to regroup")
	inds, err := readAllJSON[map[string]interface{}](files)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]string, len(files))
	cols := make(map[string]bool)
	for i, f := range files {
		ind := inds[i]
		if l, ok := ind["region"].([]interface{}); ok && len(l) == 1 {
			ind["region"] = l[0]
		}
		row := make(map[string]string, len(ind)+1)
		nums := make(map[string]float64)
		for k, v := range ind {
			if row[k], err = formatValue(v); err != nil {
				return nil, fmt.Errorf("indicators: %s, %s: %v", f, k, err)
			}
			if x, ok := v.(float64); ok {
				nums[k] = x
			}
		}
		if err := lossinterp.Derive(nums); err != nil {
			return nil, err
		}
		for k := range lossinterp.DerivedColumns {
			if x, ok := nums[k]; ok {
				row[k] = strconv.FormatFloat(x, 'g', -1, 64)
			}
		}
		row[lossinterp.ColRunName] = filepath.Base(filepath.Dir(f))
		for k := range row {
			cols[k] = true
		}
		rows[i] = row
	}
	delete(cols, lossinterp.ColRunName)
	names := make([]string, 0, len(cols)+1)
	for c := range cols {
		names = append(names, c)
	}
	sort.Strings(names)
	names = append([]string{lossinterp.ColRunName}, names...)
	recs := [][]string{names}
	for _, row := range rows {
		rec := make([]string, len(names))
		for j, n := range names {
			rec[j] = row[n]
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// splitFrame is a data frame serialized with the "split" orientation.
type splitFrame struct {
	Columns [][]string    `json:"columns"`
	Index   []interface{} `json:"index"`
	Data    [][]*float64  `json:"data"`
}

// Losses gathers the loss files with the given name of the runs below
// folder into a loss table. Runs of the rest of the world are skipped.
func Losses(folder, runType, name string) (*lossinterp.LossTable, error) {
	files, err := find(folder, runType, name)
	if err != nil {
		return nil, err
	}
	kept := files[:0]
	for _, f := range files {
		if !strings.Contains(filepath.Base(filepath.Dir(f)), "RoW") {
			kept = append(kept, f)
		}
	}
	files = kept
	frames, err := readAllJSON[splitFrame](files)
	if err != nil {
		return nil, err
	}
	t := &lossinterp.LossTable{IndexNames: []string{lossinterp.IndexRunName}}
	colIndex := make(map[lossinterp.LossColumn]int)
	for fi, f := range files {
		dir := filepath.Base(filepath.Dir(f))
		sf := frames[fi]
		cols := make([]lossinterp.LossColumn, len(sf.Columns))
		for j, c := range sf.Columns {
			switch len(c) {
			case 2:
				cols[j] = lossinterp.LossColumn{Semester: "semester_0", SectorType: c[0], Region: c[1]}
			case 3:
				cols[j] = lossinterp.LossColumn{Semester: c[0], SectorType: c[1], Region: c[2]}
			default:
				return nil, fmt.Errorf("indicators: %s: columns need 2 or 3 levels, got %d", f, len(c))
			}
		}
		if len(t.Columns) == 0 {
			t.Columns = cols
			for j, c := range cols {
				colIndex[c] = j
			}
		} else if len(cols) != len(t.Columns) {
			return nil, fmt.Errorf("indicators: %s has %d columns, previous files have %d", f, len(cols), len(t.Columns))
		}
		for i, row := range sf.Data {
			if len(row) != len(cols) {
				return nil, fmt.Errorf("indicators: %s row %d has %d values for %d columns", f, i, len(row), len(cols))
			}
			values := make([]float64, len(t.Columns))
			for j, v := range row {
				k, ok := colIndex[cols[j]]
				if !ok {
					return nil, fmt.Errorf("indicators: %s has an unexpected column %v", f, cols[j])
				}
				values[k] = math.NaN()
				if v != nil {
					values[k] = *v
				}
			}
			run := dir
			if i < len(sf.Index) {
				if run, err = formatValue(sf.Index[i]); err != nil {
					return nil, err
				}
			}
			t.Index = append(t.Index, []string{run})
			t.Values = append(t.Values, values)
		}
	}
	return t, nil
}

// Collect writes the general, production loss and final demand loss
// tables of the runs of runType below folder to output.
func Collect(folder, runType, output string) error {
	if err := CheckRunType(runType); err != nil {
		return err
	}
	if _, err := os.Stat(folder); err != nil {
		return fmt.Errorf("indicators: %v", err)
	}
	if err := os.MkdirAll(output, os.ModePerm); err != nil {
		return fmt.Errorf("indicators: %v", err)
	}
	recs, err := General(folder, runType)
	if err != nil {
		return err
	}
	if err := writeRecords(filepath.Join(output, runType+"_general.csv"), recs); err != nil {
		return err
	}
	for name, suffix := range map[string]string{ProdLossFile: "_prodloss.csv", FDLossFile: "_fdloss.csv"} {
		t, err := Losses(folder, runType, name)
		if err != nil {
			return err
		}
		if len(t.Index) == 0 {
			Log.WithField("file", name).Warn("no loss file found")
			continue
		}
		if err := writeLossTable(filepath.Join(output, runType+suffix), t); err != nil {
			return err
		}
	}
	return nil
}

func writeRecords(path string, recs [][]string) error {
	df := dataframe.LoadRecords(recs,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		return fmt.Errorf("indicators: %v", df.Err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("indicators: %v", err)
	}
	if err := df.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("indicators: writing %s: %v", path, err)
	}
	Log.WithField("path", path).Info("wrote table")
	return f.Close()
}

func writeLossTable(path string, t *lossinterp.LossTable) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("indicators: %v", err)
	}
	if err := lossinterp.WriteLossTable(f, t); err != nil {
		f.Close()
		return err
	}
	Log.WithFields(logrus.Fields{"path": path, "runs": len(t.Index)}).Info("wrote loss table")
	return f.Close()
}
