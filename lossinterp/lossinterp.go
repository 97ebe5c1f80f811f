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

// Package lossinterp projects the indirect losses of simulated floods onto
// a whole catalogue of flood events. For each MRIO table, flooded region,
// sector type and semester, the losses of every region are interpolated
// linearly as a function of the direct damage share of the flood.
package lossinterp

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spjuhel/BoARIO-inputs/floods"
)

// Log receives the progress messages emitted by this package.
var Log logrus.FieldLogger = logrus.StandardLogger()

// Result is the loss in one region caused by a flood event of the
// catalogue, for an MRIO table, a sector type and a semester.
type Result struct {
	FinalCluster int64   `parquet:"final_cluster"`
	MRIO         string  `parquet:"MRIO"`
	Period       string  `parquet:"period"`
	Model        string  `parquet:"model"`
	MrioRegion   string  `parquet:"mrio_region"`
	SectorType   string  `parquet:"sector type"`
	Semester     int     `parquet:"semester"`
	Region       string  `parquet:"region"`
	Loss         float64 `parquet:"loss"`
	Simulated    bool    `parquet:"simulated"`

	DmgShare            float64 `parquet:"share of GVA used as ARIO input"`
	TotalDirectDamage   float64 `parquet:"Total direct damage to capital (2010€PPP)"`
	PopulationAffected  float64 `parquet:"Population aff (2015 est.)"`
	DirectProdLoss      float64 `parquet:"dmg_as_direct_prodloss (M€)"`
	DirectProdLossShare float64 `parquet:"direct_prodloss_as_2010gva_share"`
	ReturnPeriod        float64 `parquet:"return_period"`
	Long                float64 `parquet:"long"`
	Lat                 float64 `parquet:"lat"`
	Year                int     `parquet:"year"`
	ProtectionLevel     float64 `parquet:"MerL_Riv"`
	Protected           bool    `parquet:"protected"`
}

func newResult(e *floods.Event, mrio, sectorType string, semester int, region string, loss float64) Result {
	return Result{
		FinalCluster:        e.FinalCluster,
		MRIO:                mrio,
		Period:              e.Period,
		Model:               e.Model,
		MrioRegion:          e.MrioRegion,
		SectorType:          sectorType,
		Semester:            semester,
		Region:              region,
		Loss:                loss,
		DmgShare:            e.DmgShare,
		TotalDirectDamage:   e.TotalDirectDamage,
		PopulationAffected:  e.PopulationAffected,
		DirectProdLoss:      e.DirectProdLoss,
		DirectProdLossShare: e.DirectProdLossShare,
		ReturnPeriod:        e.ReturnPeriod,
		Long:                e.Long,
		Lat:                 e.Lat,
		Year:                e.Year,
		ProtectionLevel:     e.ProtectionLevel,
		Protected:           e.Protected,
	}
}

// SortResults sorts results by event, MRIO, sector type, semester and
// region.
func SortResults(r []Result) {
	sort.SliceStable(r, func(i, j int) bool {
		a, b := &r[i], &r[j]
		switch {
		case a.FinalCluster != b.FinalCluster:
			return a.FinalCluster < b.FinalCluster
		case a.MRIO != b.MRIO:
			return a.MRIO < b.MRIO
		case a.SectorType != b.SectorType:
			return a.SectorType < b.SectorType
		case a.Semester != b.Semester:
			return a.Semester < b.Semester
		default:
			return a.Region < b.Region
		}
	})
}

// SplitSimulated returns the results of the catalogue events that were
// simulated, and the events left to interpolate. An event is simulated when
// a sample of the same region and period has its final cluster.
func SplitSimulated(events []floods.Event, samples []Sample, regions []string) (sim []Result, rest []floods.Event) {
	type key struct {
		cluster        int64
		period, region string
	}
	byEvent := make(map[key][]*Sample)
	for i := range samples {
		s := &samples[i]
		k := key{s.FinalCluster, s.Period, s.Region}
		byEvent[k] = append(byEvent[k], s)
	}
	simulated := make(map[int64]bool)
	for i := range events {
		e := &events[i]
		ss := byEvent[key{e.FinalCluster, e.Period, e.MrioRegion}]
		for _, s := range ss {
			simulated[e.FinalCluster] = true
			for _, r := range regions {
				res := newResult(e, s.MRIO, s.SectorType, s.Semester, r, s.Losses[r])
				res.Simulated = true
				sim = append(sim, res)
			}
		}
	}
	for _, e := range events {
		if !simulated[e.FinalCluster] {
			rest = append(rest, e)
		}
	}
	return sim, rest
}

// Project interpolates the losses of events for every MRIO table, sector
// type, semester and region. The loss is zero when no curve exists for the
// event's group.
func Project(ctx context.Context, events []floods.Event, curves *Curves, mrios, sectorTypes []string, semesters []int, regions []string) ([]Result, error) {
	o := make([]Result, 0, len(events)*len(mrios)*len(sectorTypes)*len(semesters)*len(regions))
	for i := range events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e := &events[i]
		for _, m := range mrios {
			for _, st := range sectorTypes {
				for _, sem := range semesters {
					g := GroupKey{MRIO: m, Region: e.MrioRegion, SectorType: st, Semester: sem}
					for _, r := range regions {
						c, err := curves.Curve(g, r)
						if err != nil {
							return nil, err
						}
						var loss float64
						if c != nil {
							loss = c.At(e.DmgShare)
						}
						o = append(o, newResult(e, m, st, sem, r, loss))
					}
				}
			}
		}
	}
	return o, nil
}

// Config holds the inputs of an interpolation.
type Config struct {
	GeneralPath        string
	LossPath           string
	FloodBasePath      string
	RepresentativePath string
	// ProtectionPath, if set, is a shapefile of flood protection levels
	// applied to the catalogue before interpolation.
	ProtectionPath  string
	ProtectionField string

	// LossType prefixes the output files, e.g. "prod" or "fd".
	LossType   string
	PeriodName string
	// Period, if set, keeps the events of the years Period[0] to Period[1].
	Period []int
	// Semesters < 0 sums the losses of all semesters. Otherwise losses
	// are kept by semester, up to Semesters when positive.
	Semesters int
	// Psi, if not zero, keeps the runs simulated with this psi value.
	Psi float64

	PlotDir   string
	OutputDir string
}

// Output file names.
const (
	FullResultsSuffix = "loss_full_flood_base_results.parquet"
	SimSuffix         = "loss_sim_df.parquet"
	InterpSuffix      = "loss_interp_df.parquet"
)

// Outcome holds the results of an interpolation.
type Outcome struct {
	Simulated, Interpolated, All []Result
}

// Run performs the interpolation described by cfg and writes its results
// to cfg.OutputDir.
func Run(ctx context.Context, cfg *Config) (*Outcome, error) {
	switch cfg.LossType {
	case "prod", "fd", "final":
	default:
		return nil, fmt.Errorf("lossinterp: invalid loss type %q (must be prod, fd or final)", cfg.LossType)
	}
	semesterMode := cfg.Semesters >= 0

	general, err := os.Open(cfg.GeneralPath)
	if err != nil {
		return nil, fmt.Errorf("lossinterp: %v", err)
	}
	runs, err := ReadGeneral(general, cfg.PeriodName)
	general.Close()
	if err != nil {
		return nil, errors.Wrap(err, "reading general results")
	}
	lf, err := os.Open(cfg.LossPath)
	if err != nil {
		return nil, fmt.Errorf("lossinterp: %v", err)
	}
	table, err := ReadLossTable(lf)
	lf.Close()
	if err != nil {
		return nil, errors.Wrap(err, "reading loss table")
	}
	losses, err := table.Losses(semesterMode)
	if err != nil {
		return nil, errors.Wrap(err, "reshaping loss table")
	}
	regions := table.Regions()

	events, err := floods.ReadEvents(cfg.FloodBasePath)
	if err != nil {
		return nil, errors.Wrap(err, "reading flood base")
	}
	reps, err := floods.ReadRepresentatives(cfg.RepresentativePath)
	if err != nil {
		return nil, errors.Wrap(err, "reading representative events")
	}
	runs = JoinRepresentatives(runs, reps, events)
	if cfg.Psi != 0 {
		for _, r := range runs {
			if math.IsNaN(r.Psi) {
				return nil, fmt.Errorf("lossinterp: filtering on psi=%g but run %s has no %s value in %s", cfg.Psi, r.Name, ColPsi, cfg.GeneralPath)
			}
		}
	}
	if cfg.ProtectionPath != "" {
		field := cfg.ProtectionField
		if field == "" {
			field = floods.DefaultProtectionField
		}
		prot, err := floods.LoadProtection(cfg.ProtectionPath, field)
		if err != nil {
			return nil, errors.Wrap(err, "loading flood protection")
		}
		events = prot.AddProtection(events)
	}

	events = floods.PrepareBase(events, cfg.PeriodName)
	if len(cfg.Period) == 2 {
		if events, err = floods.FilterPeriod(events, cfg.Period[0], cfg.Period[1]); err != nil {
			return nil, err
		}
	}
	simRegions := make([]string, len(runs))
	for i, r := range runs {
		simRegions[i] = r.Region
	}
	events = floods.RestrictToRegions(events, simRegions)
	Log.WithFields(logrus.Fields{"runs": len(runs), "events": len(events), "regions": len(regions)}).Info("indexing runs")

	samples, err := Index(runs, losses)
	if err != nil {
		return nil, errors.Wrap(err, "indexing runs")
	}
	if semesterMode {
		samples = SelectSemesters(samples, cfg.Semesters)
	}
	if cfg.Psi != 0 {
		samples = FilterPsi(samples, cfg.Psi)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sim, rest := SplitSimulated(events, samples, regions)
	samples = RemoveTooFewFloods(samples)
	curves := NewCurves(samples)
	mrios := sampleMRIOs(samples)
	sectorTypes := sampleSectorTypes(samples)
	semesters := sampleSemesters(samples)
	Log.WithFields(logrus.Fields{"simulated": len(events) - len(rest), "to interpolate": len(rest)}).Info("running interpolation")
	interp, err := Project(ctx, rest, curves, mrios, sectorTypes, semesters, regions)
	if err != nil {
		return nil, errors.Wrap(err, "interpolating losses")
	}
	SortResults(sim)
	SortResults(interp)
	all := make([]Result, 0, len(sim)+len(interp))
	all = append(all, interp...)
	all = append(all, sim...)
	SortResults(all)

	if cfg.PlotDir != "" {
		if err := PlotCurves(cfg.PlotDir, curves); err != nil {
			return nil, errors.Wrap(err, "plotting curves")
		}
	}
	out := &Outcome{Simulated: sim, Interpolated: interp, All: all}
	if cfg.OutputDir == "" {
		return out, nil
	}
	if err := os.MkdirAll(cfg.OutputDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("lossinterp: %v", err)
	}
	for suffix, r := range map[string][]Result{
		SimSuffix:         sim,
		InterpSuffix:      interp,
		FullResultsSuffix: all,
	} {
		path := filepath.Join(cfg.OutputDir, cfg.LossType+suffix)
		Log.WithField("path", path).Info("writing results")
		if err := WriteResults(path, r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// WriteResults writes results to a parquet file.
func WriteResults(path string, r []Result) error {
	if err := parquet.WriteFile(path, r); err != nil {
		return fmt.Errorf("lossinterp: writing %s: %v", path, err)
	}
	return nil
}

// ReadResults reads results from a parquet file.
func ReadResults(path string) ([]Result, error) {
	r, err := parquet.ReadFile[Result](path)
	if err != nil {
		return nil, fmt.Errorf("lossinterp: reading %s: %v", path, err)
	}
	return r, nil
}
