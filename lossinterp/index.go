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
	"errors"
	"fmt"
	"math"
	"sort"
)

// Sample holds the simulated losses of one run for a sector type and a
// semester, by affected region.
type Sample struct {
	Run          string
	MRIO         string
	Period       string
	Region       string
	SectorType   string
	Semester     int
	Psi          float64
	DmgShare     float64
	Year         int
	FinalCluster int64
	Losses       map[string]float64
}

// GroupKey identifies the samples a loss curve is fitted on.
type GroupKey struct {
	MRIO       string
	Region     string
	SectorType string
	Semester   int
}

func (g GroupKey) String() string {
	return fmt.Sprintf("(%s, %s, %s, semester %d)", g.MRIO, g.Region, g.SectorType, g.Semester)
}

// Group returns the curve group of s.
func (s *Sample) Group() GroupKey {
	return GroupKey{MRIO: s.MRIO, Region: s.Region, SectorType: s.SectorType, Semester: s.Semester}
}

var errNA = errors.New("NA found during treatment")

// Index joins the runs with their losses. Losses carrying an MRIO name are
// matched on it as well as on the run name.
func Index(runs []RunInfo, losses []Loss) ([]Sample, error) {
	type runKey struct{ run, mrio string }
	type sampleKey struct {
		run, mrio, sectorType string
		semester              int
	}
	byRun := make(map[runKey][]Loss)
	withMRIO := false
	for _, l := range losses {
		withMRIO = withMRIO || l.MRIO != ""
		byRun[runKey{l.Run, l.MRIO}] = append(byRun[runKey{l.Run, l.MRIO}], l)
	}
	var o []Sample
	idx := make(map[sampleKey]int)
	for _, r := range runs {
		k := runKey{run: r.Name}
		if withMRIO {
			k.mrio = r.MRIO
		}
		ls, ok := byRun[k]
		if !ok || !r.HasCluster || math.IsNaN(r.GDPDmgShare) {
			return nil, fmt.Errorf("lossinterp: run %s: %v", r.Name, errNA)
		}
		for _, l := range ls {
			if math.IsNaN(l.Value) {
				return nil, fmt.Errorf("lossinterp: run %s: %v", r.Name, errNA)
			}
			sk := sampleKey{run: r.Name, mrio: r.MRIO, sectorType: l.SectorType, semester: l.Semester}
			i, ok := idx[sk]
			if !ok {
				i = len(o)
				idx[sk] = i
				o = append(o, Sample{
					Run:          r.Name,
					MRIO:         r.MRIO,
					Period:       r.Period,
					Region:       r.Region,
					SectorType:   l.SectorType,
					Semester:     l.Semester,
					Psi:          r.Psi,
					DmgShare:     r.GDPDmgShare,
					Year:         r.Year,
					FinalCluster: r.FinalCluster,
					Losses:       make(map[string]float64),
				})
			}
			o[i].Losses[l.Region] += l.Value
		}
	}
	if len(o) == 0 {
		return nil, fmt.Errorf("lossinterp: no sample left after indexing the runs")
	}
	return o, nil
}

// SelectSemesters keeps the samples of semesters up to n. n <= 0 keeps
// every sample.
func SelectSemesters(samples []Sample, n int) []Sample {
	if n <= 0 {
		return samples
	}
	var o []Sample
	for _, s := range samples {
		if s.Semester <= n {
			o = append(o, s)
		}
	}
	return o
}

// FilterPsi keeps the samples of the runs simulated with psi.
func FilterPsi(samples []Sample, psi float64) []Sample {
	var o []Sample
	for _, s := range samples {
		if s.Psi == psi {
			o = append(o, s)
		}
	}
	return o
}

// RemoveTooFewFloods drops the samples alone in their group of MRIO,
// region, sector type, period and semester, as no curve can be fitted on
// them.
func RemoveTooFewFloods(samples []Sample) []Sample {
	type key struct {
		GroupKey
		period string
	}
	counts := make(map[key]int)
	for i := range samples {
		counts[key{samples[i].Group(), samples[i].Period}]++
	}
	var o []Sample
	for i, s := range samples {
		if counts[key{samples[i].Group(), s.Period}] > 1 {
			o = append(o, s)
		}
	}
	if n := len(samples) - len(o); n > 0 {
		Log.WithField("samples", n).Info("removed floods too rare to interpolate")
	}
	return o
}

// distinct helpers keep the order of first appearance.

func sampleMRIOs(samples []Sample) []string {
	seen := make(map[string]bool)
	var o []string
	for _, s := range samples {
		if !seen[s.MRIO] {
			seen[s.MRIO] = true
			o = append(o, s.MRIO)
		}
	}
	return o
}

func sampleSectorTypes(samples []Sample) []string {
	seen := make(map[string]bool)
	var o []string
	for _, s := range samples {
		if !seen[s.SectorType] {
			seen[s.SectorType] = true
			o = append(o, s.SectorType)
		}
	}
	return o
}

func sampleSemesters(samples []Sample) []int {
	seen := make(map[int]bool)
	var o []int
	for _, s := range samples {
		if !seen[s.Semester] {
			seen[s.Semester] = true
			o = append(o, s.Semester)
		}
	}
	sort.Ints(o)
	return o
}
