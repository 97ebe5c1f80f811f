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

// Package summary aggregates the interpolated losses of a flood catalogue
// into tables ready to be mapped.
package summary

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/parquet-go/parquet-go"
	"github.com/sirupsen/logrus"
	"github.com/spjuhel/BoARIO-inputs/lossinterp"
)

// Log receives the progress messages emitted by this package.
var Log logrus.FieldLogger = logrus.StandardLogger()

// DropProtected removes the results of events protected against.
func DropProtected(results []lossinterp.Result) []lossinterp.Result {
	var o []lossinterp.Result
	for _, r := range results {
		if !r.Protected {
			o = append(o, r)
		}
	}
	return o
}

// Key identifies a row of the map tables. Region is the region the loss
// is observed in or, for direct totals, the flooded region.
type Key struct {
	MRIO       string
	Model      string
	Region     string
	Period     string
	Semester   int
	SectorType string
}

func (k Key) less(o Key) bool {
	switch {
	case k.MRIO != o.MRIO:
		return k.MRIO < o.MRIO
	case k.Model != o.Model:
		return k.Model < o.Model
	case k.Region != o.Region:
		return k.Region < o.Region
	case k.Period != o.Period:
		return k.Period < o.Period
	case k.Semester != o.Semester:
		return k.Semester < o.Semester
	default:
		return k.SectorType < o.SectorType
	}
}

func sortedKeys(m map[Key]float64) []Key {
	o := make([]Key, 0, len(m))
	for k := range m {
		o = append(o, k)
	}
	sort.Slice(o, func(i, j int) bool { return o[i].less(o[j]) })
	return o
}

// AllEvents sums the losses in each region caused by all events.
func AllEvents(results []lossinterp.Result) map[Key]float64 {
	o := make(map[Key]float64)
	for _, r := range results {
		o[Key{r.MRIO, r.Model, r.Region, r.Period, r.Semester, r.SectorType}] += r.Loss
	}
	return o
}

// LocalEvents sums, for each flooded region, the losses the floods
// caused in that region itself.
func LocalEvents(results []lossinterp.Result) map[Key]float64 {
	o := make(map[Key]float64)
	for _, r := range results {
		if r.Region == r.MrioRegion {
			o[Key{r.MRIO, r.Model, r.MrioRegion, r.Period, r.Semester, r.SectorType}] += r.Loss
		}
	}
	return o
}

// Direct holds the direct impacts of the floods of a region.
type Direct struct {
	TotalDirectDamage   float64
	DirectProdLossShare float64
	DirectProdLoss      float64
}

// DirectKey identifies the floods of a region.
type DirectKey struct {
	MRIO, Model, Region, Period string
}

// DirectTotals sums the direct impacts of the distinct events of each
// flooded region.
func DirectTotals(results []lossinterp.Result) map[DirectKey]Direct {
	type seenKey struct {
		DirectKey
		cluster int64
	}
	seen := make(map[seenKey]bool)
	o := make(map[DirectKey]Direct)
	for _, r := range results {
		k := DirectKey{r.MRIO, r.Model, r.MrioRegion, r.Period}
		if seen[seenKey{k, r.FinalCluster}] {
			continue
		}
		seen[seenKey{k, r.FinalCluster}] = true
		d := o[k]
		d.TotalDirectDamage += r.TotalDirectDamage
		d.DirectProdLossShare += r.DirectProdLossShare
		d.DirectProdLoss += r.DirectProdLoss
		o[k] = d
	}
	return o
}

// MapRow is a row of the table for maps.
type MapRow struct {
	MRIO       string `parquet:"MRIO"`
	Model      string `parquet:"model"`
	Region     string `parquet:"region"`
	Period     string `parquet:"period"`
	Semester   int    `parquet:"semester"`
	SectorType string `parquet:"sector type"`

	ProdTotal   float64 `parquet:"Projected total production change (M€)"`
	ProdLocal   float64 `parquet:"Production change due to local events (M€)"`
	ProdForeign float64 `parquet:"Production change due to foreign events (M€)"`
	FDTotal     float64 `parquet:"Projected total final consumption not met (M€)"`
	FDLocal     float64 `parquet:"Final consumption not met due to local events (M€)"`
	FDForeign   float64 `parquet:"Final consumption not met due to foreign events (M€)"`

	TotalDirectDamage   float64 `parquet:"Total direct damage to capital (2010€PPP)"`
	DirectProdLossShare float64 `parquet:"Direct production loss (2010GVA share)"`
	DirectProdLoss      float64 `parquet:"Direct production loss (M€)"`
}

// ForMaps joins the production and final demand losses into one row per
// region, with the part due to the floods of the region itself and the
// part due to foreign floods. Missing values are zero.
func ForMaps(prod, fd []lossinterp.Result) []MapRow {
	prodAll, prodLocal := AllEvents(prod), LocalEvents(prod)
	fdAll, fdLocal := AllEvents(fd), LocalEvents(fd)
	direct := DirectTotals(prod)

	keys := make(map[Key]float64)
	for _, m := range []map[Key]float64{prodAll, fdAll} {
		for k := range m {
			keys[k] = 0
		}
	}
	var o []MapRow
	for _, k := range sortedKeys(keys) {
		d := direct[DirectKey{k.MRIO, k.Model, k.Region, k.Period}]
		o = append(o, MapRow{
			MRIO:                k.MRIO,
			Model:               k.Model,
			Region:              k.Region,
			Period:              k.Period,
			Semester:            k.Semester,
			SectorType:          k.SectorType,
			ProdTotal:           prodAll[k],
			ProdLocal:           prodLocal[k],
			ProdForeign:         prodAll[k] - prodLocal[k],
			FDTotal:             fdAll[k],
			FDLocal:             fdLocal[k],
			FDForeign:           fdAll[k] - fdLocal[k],
			TotalDirectDamage:   d.TotalDirectDamage,
			DirectProdLossShare: d.DirectProdLossShare,
			DirectProdLoss:      d.DirectProdLoss,
		})
	}
	return o
}

func ff(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func (r *MapRow) record() []string {
	return []string{r.MRIO, r.Model, r.Region, r.Period, strconv.Itoa(r.Semester), r.SectorType,
		ff(r.ProdTotal), ff(r.ProdLocal), ff(r.ProdForeign),
		ff(r.FDTotal), ff(r.FDLocal), ff(r.FDForeign),
		ff(r.TotalDirectDamage), ff(r.DirectProdLossShare), ff(r.DirectProdLoss)}
}

var mapHeader = []string{"MRIO", "model", "region", "period", "semester", "sector type",
	"Projected total production change (M€)", "Production change due to local events (M€)",
	"Production change due to foreign events (M€)", "Projected total final consumption not met (M€)",
	"Final consumption not met due to local events (M€)", "Final consumption not met due to foreign events (M€)",
	"Total direct damage to capital (2010€PPP)", "Direct production loss (2010GVA share)", "Direct production loss (M€)"}

// writeCSV writes string records, the first of which is the header.
func writeCSV(path string, recs [][]string) error {
	df := dataframe.LoadRecords(recs,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		return fmt.Errorf("summary: %v", df.Err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("summary: %v", err)
	}
	if err := df.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("summary: writing %s: %v", path, err)
	}
	return f.Close()
}

// Output files of Maps.
const (
	MapsParquet = "df_for_maps.parquet"
	MapsCSV     = "df_for_maps.csv"
)

// WriteMaps writes rows as parquet and csv files in dir.
func WriteMaps(dir string, rows []MapRow) error {
	path := filepath.Join(dir, MapsParquet)
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("summary: writing %s: %v", path, err)
	}
	recs := [][]string{mapHeader}
	for i := range rows {
		recs = append(recs, rows[i].record())
	}
	if err := writeCSV(filepath.Join(dir, MapsCSV), recs); err != nil {
		return err
	}
	Log.WithFields(logrus.Fields{"dir": dir, "rows": len(rows)}).Info("wrote tables for maps")
	return nil
}

// findResults returns the path of the full results of the first loss type
// found in dir.
func findResults(dir string, lossTypes ...string) (string, error) {
	for _, l := range lossTypes {
		path := filepath.Join(dir, l+lossinterp.FullResultsSuffix)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("summary: no %s results in %s", lossTypes[0], dir)
}

// Maps reads the production and final demand loss results in dir, drops
// the protected events and writes the tables for maps. Without semester,
// the losses of all semesters are summed.
func Maps(dir string, semester bool) ([]MapRow, error) {
	var sets [2][]lossinterp.Result
	for i, types := range [][]string{{"prod"}, {"fd", "final"}} {
		path, err := findResults(dir, types...)
		if err != nil {
			return nil, err
		}
		r, err := lossinterp.ReadResults(path)
		if err != nil {
			return nil, err
		}
		r = DropProtected(r)
		if !semester {
			for j := range r {
				r[j].Semester = 0
			}
		}
		sets[i] = r
	}
	rows := ForMaps(sets[0], sets[1])
	if err := WriteMaps(dir, rows); err != nil {
		return nil, err
	}
	return rows, nil
}
