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

// Package country converts EXIOBASE3 regions between country
// classifications such as ISO3 codes, continents or EU membership.
package country

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/sirupsen/logrus"
)

//go:embed regions.csv
var regionsCSV string

// Log receives the warnings emitted by this package.
var Log logrus.FieldLogger = logrus.StandardLogger()

var (
	table     dataframe.DataFrame
	tableOnce sync.Once
)

func classification() (dataframe.DataFrame, error) {
	tableOnce.Do(func() {
		table = dataframe.ReadCSV(strings.NewReader(regionsCSV),
			dataframe.DetectTypes(false),
			dataframe.DefaultType(series.String),
			dataframe.NaNValues([]string{}),
		)
	})
	return table, table.Err
}

// Classifications returns the valid classification names.
func Classifications() []string {
	df, err := classification()
	if err != nil {
		panic(err)
	}
	return df.Names()
}

func valid(name string) error {
	for _, c := range Classifications() {
		if c == name {
			return nil
		}
	}
	return fmt.Errorf("country: invalid classification %q; valid ones are %v", name, Classifications())
}

// Convert returns, for each name of classification src, the values it
// takes in classification to. Aggregated regions such as the EXIOBASE3
// rest of the world regions may take several values, one per member
// country.
func Convert(names []string, src, to string) (map[string][]string, error) {
	if err := valid(src); err != nil {
		return nil, err
	}
	if err := valid(to); err != nil {
		return nil, err
	}
	df, err := classification()
	if err != nil {
		return nil, err
	}
	o := make(map[string][]string, len(names))
	for _, name := range names {
		sel := df.Filter(dataframe.F{Colname: src, Comparator: series.Eq, Comparando: name})
		if sel.Err != nil {
			return nil, fmt.Errorf("country: converting %s: %v", name, sel.Err)
		}
		if sel.Nrow() == 0 {
			return nil, fmt.Errorf("country: %s not found in classification %s", name, src)
		}
		o[name] = sel.Col(to).Records()
	}
	return o, nil
}

// MostCommon returns the most frequent value of v. Ties are broken by
// order of first appearance.
func MostCommon(v []string) string {
	count := make(map[string]int)
	var best string
	for _, s := range v {
		count[s]++
	}
	for _, s := range v {
		if count[s] > count[best] {
			best = s
		}
	}
	return best
}

func distinct(v []string) []string {
	seen := make(map[string]bool)
	var o []string
	for _, s := range v {
		if !seen[s] {
			seen[s] = true
			o = append(o, s)
		}
	}
	sort.Strings(o)
	return o
}

// resolve picks a single aggregate for each region.
func resolve(candidates map[string][]string) map[string]string {
	o := make(map[string]string, len(candidates))
	for region, v := range candidates {
		agg := MostCommon(v)
		if d := distinct(v); len(d) > 1 {
			Log.WithFields(logrus.Fields{
				"region":     region,
				"candidates": d,
				"selected":   agg,
			}).Warn("multiple possible aggregates found, selecting the most common")
		}
		o[region] = agg
	}
	return o
}

// AggregationMapping maps each region of classification src to its
// aggregate in classification to.
func AggregationMapping(regions []string, src, to string) (map[string]string, error) {
	c, err := Convert(regions, src, to)
	if err != nil {
		return nil, err
	}
	return resolve(c), nil
}

// ReadAggregationJSON reads a region aggregation of the form
// {"region": "aggregate"} or {"region": ["aggregate", ...]}.
func ReadAggregationJSON(r io.Reader) (map[string]string, error) {
	var raw map[string]interface{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("country: reading aggregation: %v", err)
	}
	return normalize(raw)
}

// ReadAggregationTOML reads a region aggregation from the [aggregates]
// table of a TOML file.
func ReadAggregationTOML(r io.Reader) (map[string]string, error) {
	var raw struct {
		Aggregates map[string]interface{} `toml:"aggregates"`
	}
	if _, err := toml.DecodeReader(r, &raw); err != nil {
		return nil, fmt.Errorf("country: reading aggregation: %v", err)
	}
	if len(raw.Aggregates) == 0 {
		return nil, fmt.Errorf("country: aggregation has no [aggregates] table")
	}
	return normalize(raw.Aggregates)
}

func normalize(raw map[string]interface{}) (map[string]string, error) {
	c := make(map[string][]string, len(raw))
	for region, v := range raw {
		switch vv := v.(type) {
		case string:
			c[region] = []string{vv}
		case []interface{}:
			for _, e := range vv {
				s, ok := e.(string)
				if !ok {
					return nil, fmt.Errorf("country: aggregate of %s must be a string, got %v", region, e)
				}
				c[region] = append(c[region], s)
			}
			if len(c[region]) == 0 {
				return nil, fmt.Errorf("country: empty aggregate list for %s", region)
			}
		default:
			return nil, fmt.Errorf("country: aggregate of %s must be a string or a list, got %v", region, v)
		}
	}
	return resolve(c), nil
}
