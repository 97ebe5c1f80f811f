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

// Package floods handles the catalogue of flood events, the
// representative events simulated for each region and the flood
// protection levels of the Flopros database.
package floods

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/parquet-go/parquet-go"
	"github.com/sirupsen/logrus"
)

// Log receives the progress messages emitted by this package.
var Log logrus.FieldLogger = logrus.StandardLogger()

// Event is a flood event of the catalogue.
type Event struct {
	FinalCluster int64     `parquet:"final_cluster"`
	MrioRegion   string    `parquet:"mrio_region"`
	DateStart    time.Time `parquet:"date_start,timestamp"`
	Model        string    `parquet:"model"`
	// DmgShare is the damage to capital as a share of the region's GVA.
	DmgShare            float64 `parquet:"share of GVA used as ARIO input"`
	TotalDirectDamage   float64 `parquet:"Total direct damage to capital (2010€PPP)"`
	PopulationAffected  float64 `parquet:"Population aff (2015 est.)"`
	DirectProdLoss      float64 `parquet:"dmg_as_direct_prodloss (M€)"`
	DirectProdLossShare float64 `parquet:"direct_prodloss_as_2010gva_share"`
	ReturnPeriod        float64 `parquet:"return_period"`
	Long                float64 `parquet:"long"`
	Lat                 float64 `parquet:"lat"`

	Period string `parquet:"period,optional"`
	Year   int    `parquet:"year,optional"`

	// ProtectionLevel is the return period the location is protected
	// against, NaN if unknown.
	ProtectionLevel float64 `parquet:"MerL_Riv,optional"`
	Protected       bool    `parquet:"protected,optional"`
}

// Representative links the representative event of a class of floods in
// a region to its cluster in the catalogue.
type Representative struct {
	MrioRegion   string `parquet:"mrio_region"`
	Class        string `parquet:"class"`
	FinalCluster int64  `parquet:"final_cluster"`
}

// Catalogue column names used outside of this package.
const (
	ColFinalCluster = "final_cluster"
	ColMrioRegion   = "mrio_region"
	ColDmgShare     = "share of GVA used as ARIO input"
	ColReturnPeriod = "return_period"
	ColLong         = "long"
	ColLat          = "lat"
)

// field describes how an Event attribute is stored in a csv file.
type field struct {
	name     string
	required bool
	format   func(e *Event) string
	parse    func(e *Event, s string) error
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "NaN" || s == "NA" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func floatField(name string, required bool, p func(e *Event) *float64) field {
	return field{
		name:     name,
		required: required,
		format:   func(e *Event) string { return formatFloat(*p(e)) },
		parse: func(e *Event, s string) (err error) {
			*p(e), err = parseFloat(s)
			return
		},
	}
}

var dateLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339, "2006-01-02T15:04:05"}

func parseDate(s string) (time.Time, error) {
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, strings.TrimSpace(s)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("floods: invalid date %q", s)
}

var eventFields = []field{
	{
		name: ColFinalCluster, required: true,
		format: func(e *Event) string { return strconv.FormatInt(e.FinalCluster, 10) },
		parse: func(e *Event, s string) (err error) {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			e.FinalCluster = int64(v)
			return err
		},
	},
	{
		name: ColMrioRegion, required: true,
		format: func(e *Event) string { return e.MrioRegion },
		parse:  func(e *Event, s string) error { e.MrioRegion = s; return nil },
	},
	{
		name: "date_start", required: true,
		format: func(e *Event) string { return e.DateStart.Format("2006-01-02") },
		parse: func(e *Event, s string) (err error) {
			e.DateStart, err = parseDate(s)
			return
		},
	},
	{
		name:   "model",
		format: func(e *Event) string { return e.Model },
		parse:  func(e *Event, s string) error { e.Model = s; return nil },
	},
	floatField(ColDmgShare, true, func(e *Event) *float64 { return &e.DmgShare }),
	floatField("Total direct damage to capital (2010€PPP)", false, func(e *Event) *float64 { return &e.TotalDirectDamage }),
	floatField("Population aff (2015 est.)", false, func(e *Event) *float64 { return &e.PopulationAffected }),
	floatField("dmg_as_direct_prodloss (M€)", false, func(e *Event) *float64 { return &e.DirectProdLoss }),
	floatField("direct_prodloss_as_2010gva_share", false, func(e *Event) *float64 { return &e.DirectProdLossShare }),
	floatField(ColReturnPeriod, false, func(e *Event) *float64 { return &e.ReturnPeriod }),
	floatField(ColLong, false, func(e *Event) *float64 { return &e.Long }),
	floatField(ColLat, false, func(e *Event) *float64 { return &e.Lat }),
	{
		name:   "period",
		format: func(e *Event) string { return e.Period },
		parse:  func(e *Event, s string) error { e.Period = s; return nil },
	},
	{
		name:   "year",
		format: func(e *Event) string { return strconv.Itoa(e.Year) },
		parse: func(e *Event, s string) (err error) {
			if s == "" {
				return nil
			}
			e.Year, err = strconv.Atoi(s)
			return
		},
	},
	floatField("MerL_Riv", false, func(e *Event) *float64 { return &e.ProtectionLevel }),
	{
		name:   "protected",
		format: func(e *Event) string { return strconv.FormatBool(e.Protected) },
		parse: func(e *Event, s string) (err error) {
			if s == "" {
				return nil
			}
			e.Protected, err = strconv.ParseBool(strings.ToLower(s))
			return
		},
	},
}

// readRecords reads a csv file as string records using a header row.
func readRecords(r io.Reader) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	return df, df.Err
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// ReadEventsCSV reads a flood catalogue in csv format.
func ReadEventsCSV(r io.Reader) ([]Event, error) {
	df, err := readRecords(r)
	if err != nil {
		return nil, fmt.Errorf("floods: reading events: %v", err)
	}
	events := make([]Event, df.Nrow())
	for i := range events {
		events[i].ProtectionLevel = math.NaN()
	}
	for _, f := range eventFields {
		if !hasColumn(df, f.name) {
			if f.required {
				return nil, fmt.Errorf("floods: events have no %q column", f.name)
			}
			continue
		}
		for i, s := range df.Col(f.name).Records() {
			if err := f.parse(&events[i], s); err != nil {
				return nil, fmt.Errorf("floods: events row %d, column %q: %v", i+1, f.name, err)
			}
		}
	}
	return events, nil
}

// WriteEventsCSV writes a flood catalogue in csv format.
func WriteEventsCSV(w io.Writer, events []Event) error {
	records := make([][]string, len(events)+1)
	for _, f := range eventFields {
		records[0] = append(records[0], f.name)
	}
	for i := range events {
		for _, f := range eventFields {
			records[i+1] = append(records[i+1], f.format(&events[i]))
		}
	}
	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	if df.Err != nil {
		return fmt.Errorf("floods: writing events: %v", df.Err)
	}
	return df.WriteCSV(w)
}

// requireParquetColumns checks that the parquet file at path has the
// given columns.
func requireParquetColumns(path string, cols ...string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("floods: %v", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("floods: %v", err)
	}
	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return fmt.Errorf("floods: opening %s: %v", path, err)
	}
	for _, c := range cols {
		if _, ok := pf.Schema().Lookup(c); !ok {
			return fmt.Errorf("floods: %s has no %q column", path, c)
		}
	}
	return nil
}

// ReadEvents reads a flood catalogue from a parquet or csv file.
func ReadEvents(path string) ([]Event, error) {
	Log.WithField("path", path).Info("reading flood events")
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		if err := requireParquetColumns(path, ColFinalCluster, ColMrioRegion, "date_start", ColDmgShare); err != nil {
			return nil, err
		}
		events, err := parquet.ReadFile[Event](path)
		if err != nil {
			return nil, fmt.Errorf("floods: reading %s: %v", path, err)
		}
		return events, nil
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("floods: %v", err)
		}
		defer f.Close()
		return ReadEventsCSV(f)
	default:
		return nil, fmt.Errorf("floods: unsupported events file %s (must be .parquet or .csv)", path)
	}
}

// WriteEvents writes a flood catalogue to a parquet or csv file.
func WriteEvents(path string, events []Event) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("floods: %v", err)
	}
	Log.WithFields(logrus.Fields{"path": path, "events": len(events)}).Info("writing flood events")
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		if err := parquet.WriteFile(path, events); err != nil {
			return fmt.Errorf("floods: writing %s: %v", path, err)
		}
		return nil
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("floods: %v", err)
		}
		if err := WriteEventsCSV(f, events); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	default:
		return fmt.Errorf("floods: unsupported events file %s (must be .parquet or .csv)", path)
	}
}

// ReadRepresentatives reads representative events from a parquet or
// csv file.
func ReadRepresentatives(path string) ([]Representative, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		reps, err := parquet.ReadFile[Representative](path)
		if err != nil {
			return nil, fmt.Errorf("floods: reading %s: %v", path, err)
		}
		return reps, nil
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("floods: %v", err)
		}
		defer f.Close()
		df, err := readRecords(f)
		if err != nil {
			return nil, fmt.Errorf("floods: reading %s: %v", path, err)
		}
		for _, c := range []string{ColMrioRegion, "class", ColFinalCluster} {
			if !hasColumn(df, c) {
				return nil, fmt.Errorf("floods: %s has no %q column", path, c)
			}
		}
		regions := df.Col(ColMrioRegion).Records()
		classes := df.Col("class").Records()
		clusters := df.Col(ColFinalCluster).Records()
		o := make([]Representative, len(regions))
		for i := range o {
			c, err := strconv.ParseFloat(strings.TrimSpace(clusters[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("floods: %s row %d: %v", path, i+1, err)
			}
			o[i] = Representative{MrioRegion: regions[i], Class: classes[i], FinalCluster: int64(c)}
		}
		return o, nil
	default:
		return nil, fmt.Errorf("floods: unsupported representative events file %s (must be .parquet or .csv)", path)
	}
}
