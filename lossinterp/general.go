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
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/spjuhel/BoARIO-inputs/floods"
)

// Columns of the general runs table.
const (
	ColRunName     = "run_name"
	ColRunID       = "run_id"
	ColRegion      = "mrio_region"
	ColPercentile  = "Impacting flood percentile"
	ColPsi         = "psi"
	ColGDPDmgShare = "gdp_dmg_share"
	ColYear        = "year"
)

// DerivedColumns are the indicators computed from other indicators.
var DerivedColumns = map[string]string{
	"prod_lost_aff":  "prod_lost_tot - prod_lost_unaff",
	"unaff_fd_unmet": "tot_fd_unmet - aff_fd_unmet",
}

// Derive adds the derived indicators to row when all of their inputs
// are present.
func Derive(row map[string]float64) error {
	names := make([]string, 0, len(DerivedColumns))
	for n := range DerivedColumns {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		expr, err := govaluate.NewEvaluableExpression(DerivedColumns[n])
		if err != nil {
			return fmt.Errorf("lossinterp: derived column %s: %v", n, err)
		}
		params := make(map[string]interface{})
		complete := true
		for _, v := range expr.Vars() {
			x, ok := row[v]
			if !ok {
				complete = false
				break
			}
			params[v] = x
		}
		if !complete {
			continue
		}
		r, err := expr.Evaluate(params)
		if err != nil {
			return fmt.Errorf("lossinterp: derived column %s: %v", n, err)
		}
		row[n] = r.(float64)
	}
	return nil
}

// RunInfo is a simulation run of the general runs table.
type RunInfo struct {
	Name, MRIO, Period string
	// Region is the region impacted by the flood.
	Region string
	// Class is the flood percentile of the representative event.
	Class       string
	MRIOType    string
	InvTau      string
	InvDuration string
	Psi         float64
	GDPDmgShare float64
	Year        int

	FinalCluster int64
	HasCluster   bool

	// Indicators holds the numeric columns of the table, including the
	// derived ones.
	Indicators map[string]float64
}

func readRecords(r io.Reader) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{}),
	)
	return df, df.Err
}

// run_name token positions.
const (
	tokRegion      = 0
	tokMRIOType    = 2
	tokPercentile  = 5
	tokInvTau      = 11
	tokInvDuration = 14
)

func token(tok []string, i int) string {
	if i < len(tok) {
		return tok[i]
	}
	return ""
}

// ReadGeneral reads the general runs table, tagging each run with period.
func ReadGeneral(r io.Reader, period string) ([]RunInfo, error) {
	df, err := readRecords(r)
	if err != nil {
		return nil, fmt.Errorf("lossinterp: reading general runs table: %v", err)
	}
	cols := make(map[string][]string)
	for _, n := range df.Names() {
		cols[n] = df.Col(n).Records()
	}
	names, ok := cols[ColRunName]
	if !ok {
		if names, ok = cols[ColRunID]; !ok {
			return nil, fmt.Errorf("lossinterp: general runs table has neither %q nor %q column", ColRunName, ColRunID)
		}
	}
	if _, ok := cols[ColGDPDmgShare]; !ok {
		return nil, fmt.Errorf("lossinterp: general runs table has no %q column", ColGDPDmgShare)
	}
	mrioCol := cols["mrio"]
	if mrioCol == nil {
		mrioCol = cols["MRIO"]
	}

	runs := make([]RunInfo, len(names))
	for i, name := range names {
		tok := strings.Split(name, "_")
		ri := RunInfo{
			Name:        name,
			Period:      period,
			Region:      token(tok, tokRegion),
			Class:       token(tok, tokPercentile),
			MRIOType:    token(tok, tokMRIOType),
			InvTau:      token(tok, tokInvTau),
			InvDuration: token(tok, tokInvDuration),
			Psi:         math.NaN(),
			Indicators:  make(map[string]float64),
		}
		ri.MRIO = ri.MRIOType
		if mrioCol != nil {
			ri.MRIO = mrioCol[i]
		}
		if c, ok := cols[ColRegion]; ok {
			ri.Region = c[i]
		}
		if c, ok := cols[ColPercentile]; ok {
			ri.Class = c[i]
		}
		for n, c := range cols {
			v, err := strconv.ParseFloat(strings.TrimSpace(c[i]), 64)
			if err != nil {
				continue
			}
			ri.Indicators[n] = v
		}
		share, ok := ri.Indicators[ColGDPDmgShare]
		if !ok {
			return nil, fmt.Errorf("lossinterp: run %s: invalid %s %q", name, ColGDPDmgShare, cols[ColGDPDmgShare][i])
		}
		ri.GDPDmgShare = share
		if v, ok := ri.Indicators[ColPsi]; ok {
			ri.Psi = v
		}
		if v, ok := ri.Indicators[ColYear]; ok {
			ri.Year = int(v)
		}
		if err := Derive(ri.Indicators); err != nil {
			return nil, err
		}
		runs[i] = ri
	}
	return runs, nil
}

// JoinRepresentatives links each run to the representative event of its
// region and flood class. When any run has a damage share of -1, the
// damage share of every run is taken from its representative event.
func JoinRepresentatives(runs []RunInfo, reps []floods.Representative, events []floods.Event) []RunInfo {
	type repKey struct{ region, class string }
	clusters := make(map[repKey]int64, len(reps))
	for _, r := range reps {
		clusters[repKey{r.MrioRegion, r.Class}] = r.FinalCluster
	}
	byCluster := make(map[int64]floods.Event, len(events))
	for _, e := range events {
		byCluster[e.FinalCluster] = e
	}
	fromEvents := false
	for _, r := range runs {
		if r.GDPDmgShare == -1 {
			fromEvents = true
			break
		}
	}
	o := make([]RunInfo, len(runs))
	for i, r := range runs {
		c, ok := clusters[repKey{r.Region, r.Class}]
		e, found := byCluster[c]
		found = ok && found
		r.FinalCluster, r.HasCluster = c, ok
		if fromEvents {
			r.GDPDmgShare = math.NaN()
			if found {
				r.GDPDmgShare = e.DmgShare
			}
		}
		o[i] = r
	}
	if fromEvents {
		Log.Info("damage shares of the runs are taken from the representative events")
	}
	return o
}
