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

package summary

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/parquet-go/parquet-go"
	"github.com/spjuhel/BoARIO-inputs/lossinterp"
)

var lossTypeRe = regexp.MustCompile("prodloss|finalloss|fdloss")

// LossType deduces the loss type from the name of a results file.
func LossType(file string) (string, error) {
	if l := lossTypeRe.FindString(filepath.Base(file)); l != "" {
		return l, nil
	}
	return "", fmt.Errorf("summary: loss type cannot be deduced from file %s", file)
}

// SelfDamage values.
const (
	Self  = "SELF"
	Other = "OTHER"
)

// DriasTotal is the name of the rows summing all sector types.
const DriasTotal = "total"

// DriasRow is a row of the long format delivered to the DRIAS portal.
type DriasRow struct {
	Period       string `parquet:"period"`
	Model        string `parquet:"model,optional"`
	MrioRegion   string `parquet:"mrio_region"`
	MRIO         string `parquet:"MRIO"`
	Semester     int    `parquet:"semester"`
	RegionOutput string `parquet:"region_output"`

	TotalDirectDamage   float64 `parquet:"Total direct damage to capital (2010€PPP)"`
	PopulationAffected  float64 `parquet:"Population aff (2015 est.)"`
	DirectProdLossShare float64 `parquet:"direct_prodloss_as_2010gva_share"`
	DmgShare            float64 `parquet:"share of GVA used as ARIO input"`

	SelfDamage string  `parquet:"SELF_damage"`
	Name       string  `parquet:"name"`
	Value      float64 `parquet:"value"`
}

type driasGroup struct {
	period, model, mrioRegion, mrio string
	semester                        int
}

type eventAttrs struct {
	damage, population, prodLossShare, dmgShare float64
}

func (a *eventAttrs) add(b eventAttrs, w float64) {
	a.damage += b.damage * w
	a.population += b.population * w
	a.prodLossShare += b.prodLossShare * w
	a.dmgShare += b.dmgShare * w
}

type driasCell struct {
	regionOutput, sectorType string
}

// Drias sums the losses per model, flooded region, sector type, semester
// and output region, then lays them out with one row per sector type and
// a total row. With mean, the sums are averaged over models. The event
// attributes are summed over the distinct events of each group.
func Drias(results []lossinterp.Result, mean bool) []DriasRow {
	attrs := make(map[driasGroup]*eventAttrs)
	values := make(map[driasGroup]map[driasCell]float64)
	seen := make(map[driasGroup]map[int64]bool)
	sectorSet := make(map[string]bool)
	for _, r := range results {
		g := driasGroup{r.Period, r.Model, r.MrioRegion, r.MRIO, r.Semester}
		if attrs[g] == nil {
			attrs[g] = new(eventAttrs)
			values[g] = make(map[driasCell]float64)
			seen[g] = make(map[int64]bool)
		}
		if !seen[g][r.FinalCluster] {
			seen[g][r.FinalCluster] = true
			attrs[g].add(eventAttrs{r.TotalDirectDamage, r.PopulationAffected, r.DirectProdLossShare, r.DmgShare}, 1)
		}
		values[g][driasCell{r.Region, r.SectorType}] += r.Loss
		sectorSet[r.SectorType] = true
	}

	if mean {
		models := make(map[driasGroup]map[string]bool)
		mAttrs := make(map[driasGroup]*eventAttrs)
		mValues := make(map[driasGroup]map[driasCell]float64)
		for g := range attrs {
			mg := g
			mg.model = ""
			if models[mg] == nil {
				models[mg] = make(map[string]bool)
				mAttrs[mg] = new(eventAttrs)
				mValues[mg] = make(map[driasCell]float64)
			}
			models[mg][g.model] = true
		}
		for g, a := range attrs {
			mg := g
			mg.model = ""
			w := 1 / float64(len(models[mg]))
			mAttrs[mg].add(*a, w)
			for c, v := range values[g] {
				mValues[mg][c] += v * w
			}
		}
		attrs, values = mAttrs, mValues
	}

	sectorTypes := make([]string, 0, len(sectorSet))
	for s := range sectorSet {
		sectorTypes = append(sectorTypes, s)
	}
	sort.Strings(sectorTypes)
	groups := make([]driasGroup, 0, len(attrs))
	for g := range attrs {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		switch {
		case a.period != b.period:
			return a.period < b.period
		case a.model != b.model:
			return a.model < b.model
		case a.mrioRegion != b.mrioRegion:
			return a.mrioRegion < b.mrioRegion
		case a.mrio != b.mrio:
			return a.mrio < b.mrio
		default:
			return a.semester < b.semester
		}
	})

	var o []DriasRow
	for _, g := range groups {
		regionSet := make(map[string]bool)
		for c := range values[g] {
			regionSet[c.regionOutput] = true
		}
		regions := make([]string, 0, len(regionSet))
		for r := range regionSet {
			regions = append(regions, r)
		}
		sort.Strings(regions)
		a := attrs[g]
		for _, region := range regions {
			row := DriasRow{
				Period:              g.period,
				Model:               g.model,
				MrioRegion:          g.mrioRegion,
				MRIO:                g.mrio,
				Semester:            g.semester,
				RegionOutput:        region,
				TotalDirectDamage:   a.damage,
				PopulationAffected:  a.population,
				DirectProdLossShare: a.prodLossShare,
				DmgShare:            a.dmgShare,
				SelfDamage:          Other,
			}
			if g.mrioRegion == region {
				row.SelfDamage = Self
			}
			var total float64
			for _, st := range sectorTypes {
				row.Name = st
				row.Value = values[g][driasCell{region, st}]
				total += row.Value
				o = append(o, row)
			}
			row.Name, row.Value = DriasTotal, total
			o = append(o, row)
		}
	}
	return o
}

// DriasFile returns the name of the DRIAS table of a loss type.
func DriasFile(lossType string, mean bool) string {
	if mean {
		return lossType + "_drias_carre_essai.parquet"
	}
	return lossType + "_drias_carre_essai_nomean.parquet"
}

// DriasDir writes the DRIAS tables, with and without the mean over
// models, of every full results file in dir.
func DriasDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*"+lossinterp.FullResultsSuffix))
	if err != nil {
		return fmt.Errorf("summary: %v", err)
	}
	Log.WithField("files", len(files)).Info("found results to process")
	for _, f := range files {
		lossType, err := LossType(f)
		if err != nil {
			return err
		}
		results, err := lossinterp.ReadResults(f)
		if err != nil {
			return err
		}
		for _, mean := range []bool{false, true} {
			path := filepath.Join(dir, DriasFile(lossType, mean))
			if err := parquet.WriteFile(path, Drias(results, mean)); err != nil {
				return fmt.Errorf("summary: writing %s: %v", path, err)
			}
		}
	}
	return nil
}
