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
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kr/pretty"
	"github.com/spjuhel/BoARIO-inputs/floods"
)

const tolerance = 1.e-10

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func TestFitCurve(t *testing.T) {
	c, err := FitCurve([]float64{0.04, 0.01, 0.02, 0.02}, []float64{40, 10, 18, 22})
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct{ x, y float64 }{
		{x: 0.01, y: 10},
		{x: 0.02, y: 20},
		{x: 0.03, y: 30},
		{x: 0.05, y: 50},
		{x: 0.005, y: 5},
	} {
		if y := c.At(test.x); different(y, test.y, tolerance) {
			t.Errorf("At(%g) = %g; want %g", test.x, y, test.y)
		}
	}
	xs, _ := c.Points()
	if len(xs) != 3 {
		t.Errorf("duplicate x values were not merged: %v", xs)
	}

	c, err = FitCurve([]float64{0.02, 0.02}, []float64{3, 5})
	if err != nil {
		t.Fatal(err)
	}
	if y := c.At(1); y != 4 {
		t.Errorf("constant curve At(1) = %g; want 4", y)
	}

	if _, err := FitCurve([]float64{0.01, math.NaN()}, []float64{1, 2}); err == nil {
		t.Error("expected an error for a NaN point")
	}
}

func TestCurves(t *testing.T) {
	samples := []Sample{
		{MRIO: "exio3", Region: "FR", SectorType: "rebuilding", DmgShare: 0.01, Losses: map[string]float64{"FR": 1}},
		{MRIO: "exio3", Region: "FR", SectorType: "rebuilding", DmgShare: 0.03, Losses: map[string]float64{"FR": 3}},
		{MRIO: "exio3", Region: "DE", SectorType: "rebuilding", DmgShare: 0.03, Losses: map[string]float64{"FR": math.Inf(1)}},
	}
	c := NewCurves(samples)
	g := GroupKey{MRIO: "exio3", Region: "FR", SectorType: "rebuilding"}
	curve, err := c.Curve(g, "FR")
	if err != nil {
		t.Fatal(err)
	}
	if y := curve.At(0.02); different(y, 2, tolerance) {
		t.Errorf("At(0.02) = %g; want 2", y)
	}
	// A region with no loss recorded.
	curve, err = c.Curve(g, "IT")
	if err != nil {
		t.Fatal(err)
	}
	if y := curve.At(0.02); y != 0 {
		t.Errorf("IT At(0.02) = %g; want 0", y)
	}
	if curve, err := c.Curve(GroupKey{MRIO: "oecd"}, "FR"); curve != nil || err != nil {
		t.Errorf("unknown group: %v, %v", curve, err)
	}
	_, err = c.Curve(GroupKey{MRIO: "exio3", Region: "DE", SectorType: "rebuilding"}, "FR")
	var ce *CurveError
	if !errors.As(err, &ce) || ce.Region != "FR" {
		t.Errorf("expected a curve error, got %v", err)
	}
	if diff := pretty.Diff(c.Groups(), []GroupKey{
		{MRIO: "exio3", Region: "DE", SectorType: "rebuilding"}, g,
	}); len(diff) != 0 {
		t.Error(diff)
	}
}

func TestLossTable(t *testing.T) {
	in := &LossTable{
		IndexNames: []string{"mrio", "run_name"},
		Columns: []LossColumn{
			{"semester_1", "rebuilding", "FR"},
			{"semester_2", "rebuilding", "FR"},
			{"semester_1", "non-rebuilding", "DE"},
		},
		Index:  [][]string{{"exio3", "r1"}, {"exio3", "r2"}},
		Values: [][]float64{{1, 2, 3}, {4, 5.5, 6}},
	}
	var buf bytes.Buffer
	if err := WriteLossTable(&buf, in); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), ",semester,semester_1") {
		t.Errorf("unexpected header:\n%s", buf.String())
	}
	out, err := ReadLossTable(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(out, in); len(diff) != 0 {
		t.Error(diff)
	}

	losses, err := out.Losses(false)
	if err != nil {
		t.Fatal(err)
	}
	want := []Loss{
		{Run: "r1", MRIO: "exio3", SectorType: "rebuilding", Region: "FR", Value: 3},
		{Run: "r1", MRIO: "exio3", SectorType: "non-rebuilding", Region: "DE", Value: 3},
		{Run: "r2", MRIO: "exio3", SectorType: "rebuilding", Region: "FR", Value: 9.5},
		{Run: "r2", MRIO: "exio3", SectorType: "non-rebuilding", Region: "DE", Value: 6},
	}
	if diff := pretty.Diff(losses, want); len(diff) != 0 {
		t.Error(diff)
	}
	losses, err = out.Losses(true)
	if err != nil {
		t.Fatal(err)
	}
	if len(losses) != 6 || losses[1].Semester != 2 {
		t.Errorf("losses by semester: %# v", pretty.Formatter(losses))
	}
	if diff := pretty.Diff(out.Regions(), []string{"FR", "DE"}); len(diff) != 0 {
		t.Error(diff)
	}

	_, err = ReadLossTable(strings.NewReader("semester,s1\nsector type,reb\nregion,FR\nrun_name,\nr1,\n"))
	if err == nil {
		t.Error("expected an error for a missing value")
	}
}

const runName = "FR_0_exio3_x_y_q1_a_b_c_d_e_60_f_g_90"

func TestReadGeneral(t *testing.T) {
	r := strings.NewReader("run_name,gdp_dmg_share,psi,year,prod_lost_tot,prod_lost_unaff,region\n" +
		runName + ",0.01,0.9,2015,10,4,FR\n")
	runs, err := ReadGeneral(r, "1970_2015")
	if err != nil {
		t.Fatal(err)
	}
	ri := runs[0]
	if ri.Region != "FR" || ri.MRIO != "exio3" || ri.Class != "q1" || ri.InvTau != "60" || ri.InvDuration != "90" {
		t.Errorf("run name tokens: %+v", ri)
	}
	if ri.Psi != 0.9 || ri.Year != 2015 || ri.GDPDmgShare != 0.01 || ri.Period != "1970_2015" {
		t.Errorf("run values: %+v", ri)
	}
	if ri.Indicators["prod_lost_aff"] != 6 {
		t.Errorf("prod_lost_aff = %g; want 6", ri.Indicators["prod_lost_aff"])
	}
	if _, ok := ri.Indicators["unaff_fd_unmet"]; ok {
		t.Error("unaff_fd_unmet should not be derived without its inputs")
	}

	if _, err := ReadGeneral(strings.NewReader("name,gdp_dmg_share\na,1\n"), ""); err == nil {
		t.Error("expected a missing run name error")
	}
}

func TestJoinRepresentatives(t *testing.T) {
	runs := []RunInfo{
		{Name: "a", Region: "FR", Class: "q1", GDPDmgShare: -1},
		{Name: "b", Region: "FR", Class: "q2", GDPDmgShare: 0.3},
		{Name: "c", Region: "DE", Class: "q1", GDPDmgShare: 0.3},
	}
	reps := []floods.Representative{
		{MrioRegion: "FR", Class: "q1", FinalCluster: 1},
		{MrioRegion: "FR", Class: "q2", FinalCluster: 2},
	}
	events := []floods.Event{{FinalCluster: 1, DmgShare: 0.01}, {FinalCluster: 2, DmgShare: 0.02}}
	o := JoinRepresentatives(runs, reps, events)
	if !o[0].HasCluster || o[0].FinalCluster != 1 || o[0].GDPDmgShare != 0.01 {
		t.Errorf("run a: %+v", o[0])
	}
	if o[1].GDPDmgShare != 0.02 {
		t.Errorf("run b damage share = %g; want 0.02", o[1].GDPDmgShare)
	}
	if o[2].HasCluster || !math.IsNaN(o[2].GDPDmgShare) {
		t.Errorf("run c: %+v", o[2])
	}
	if _, err := Index(o, []Loss{{Run: "a"}, {Run: "b"}, {Run: "c"}}); err == nil || !strings.Contains(err.Error(), "NA found") {
		t.Errorf("expected a NA error, got %v", err)
	}
}

func TestRemoveTooFewFloods(t *testing.T) {
	samples := []Sample{
		{Run: "a", MRIO: "m", Region: "FR", SectorType: "reb"},
		{Run: "b", MRIO: "m", Region: "FR", SectorType: "reb"},
		{Run: "c", MRIO: "m", Region: "DE", SectorType: "reb"},
		{Run: "d", MRIO: "m", Region: "FR", SectorType: "reb", Semester: 2},
	}
	o := RemoveTooFewFloods(samples)
	var runs []string
	for _, s := range o {
		runs = append(runs, s.Run)
	}
	if diff := pretty.Diff(runs, []string{"a", "b"}); len(diff) != 0 {
		t.Error(diff)
	}
	if n := len(SelectSemesters(samples, 1)); n != 3 {
		t.Errorf("SelectSemesters kept %d samples; want 3", n)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// setupInterp writes three simulated runs of FR, whose rebuilding loss in
// FR is 1000 times the damage share, and a catalogue of six events.
func setupInterp(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "int_general.csv"), "run_name,mrio,mrio_region,Impacting flood percentile,gdp_dmg_share,psi\n"+
		"r1,exio3,FR,q1,0.01,0.9\n"+
		"r2,exio3,FR,q2,0.02,0.9\n"+
		"r3,exio3,FR,q3,0.04,0.9\n")
	table := &LossTable{
		IndexNames: []string{"run_name"},
		Columns: []LossColumn{
			{"semester_0", "rebuilding", "FR"},
			{"semester_0", "rebuilding", "DE"},
			{"semester_0", "non-rebuilding", "FR"},
			{"semester_0", "non-rebuilding", "DE"},
		},
		Index:  [][]string{{"r1"}, {"r2"}, {"r3"}},
		Values: [][]float64{{10, 1, 5, 5}, {20, 2, 5, 5}, {40, 4, 5, 5}},
	}
	f, err := os.Create(filepath.Join(dir, "int_prodloss.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteLossTable(f, table); err != nil {
		t.Fatal(err)
	}
	f.Close()
	writeFile(t, filepath.Join(dir, "representative.csv"), "mrio_region,class,final_cluster\nFR,q1,1\nFR,q2,2\nFR,q3,3\n")
	d := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []floods.Event{
		{FinalCluster: 1, MrioRegion: "FR", DateStart: d, DmgShare: 0.01, ProtectionLevel: math.NaN()},
		{FinalCluster: 2, MrioRegion: "FR", DateStart: d, DmgShare: 0.02, ProtectionLevel: math.NaN()},
		{FinalCluster: 3, MrioRegion: "FR", DateStart: d, DmgShare: 0.04, ProtectionLevel: math.NaN()},
		{FinalCluster: 4, MrioRegion: "FR", DateStart: d, DmgShare: 0.03, ProtectionLevel: math.NaN()},
		{FinalCluster: 5, MrioRegion: "FR", DateStart: d, DmgShare: 0.05, ProtectionLevel: math.NaN()},
		{FinalCluster: 6, MrioRegion: "DE", DateStart: d, DmgShare: 0.05, ProtectionLevel: math.NaN()},
	}
	if err := floods.WriteEvents(filepath.Join(dir, "base.csv"), events); err != nil {
		t.Fatal(err)
	}
	return &Config{
		GeneralPath:        filepath.Join(dir, "int_general.csv"),
		LossPath:           filepath.Join(dir, "int_prodloss.csv"),
		FloodBasePath:      filepath.Join(dir, "base.csv"),
		RepresentativePath: filepath.Join(dir, "representative.csv"),
		LossType:           "prod",
		PeriodName:         "1970_2015",
		Semesters:          -1,
		OutputDir:          filepath.Join(dir, "out"),
	}
}

func find(results []Result, cluster int64, sectorType, region string) (Result, bool) {
	for _, r := range results {
		if r.FinalCluster == cluster && r.SectorType == sectorType && r.Region == region {
			return r, true
		}
	}
	return Result{}, false
}

func TestRun(t *testing.T) {
	cfg := setupInterp(t)
	out, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(out.Simulated); n != 12 {
		t.Errorf("%d simulated results; want 12", n)
	}
	if n := len(out.Interpolated); n != 8 {
		t.Errorf("%d interpolated results; want 8", n)
	}
	for _, test := range []struct {
		cluster    int64
		sectorType string
		region     string
		loss       float64
		simulated  bool
	}{
		{cluster: 2, sectorType: "rebuilding", region: "FR", loss: 20, simulated: true},
		{cluster: 4, sectorType: "rebuilding", region: "FR", loss: 30},
		{cluster: 5, sectorType: "rebuilding", region: "FR", loss: 50},
		{cluster: 5, sectorType: "rebuilding", region: "DE", loss: 5},
		{cluster: 4, sectorType: "non-rebuilding", region: "DE", loss: 5},
	} {
		r, ok := find(out.All, test.cluster, test.sectorType, test.region)
		if !ok {
			t.Errorf("no result for %+v", test)
			continue
		}
		if different(r.Loss, test.loss, tolerance) || r.Simulated != test.simulated {
			t.Errorf("%+v: got loss %g, simulated %v", test, r.Loss, r.Simulated)
		}
		if r.Period != "1970_2015" || r.MRIO != "exio3" {
			t.Errorf("result attributes: %+v", r)
		}
	}
	if _, ok := find(out.All, 6, "rebuilding", "FR"); ok {
		t.Error("events of regions never simulated should be dropped")
	}

	full, err := ReadResults(filepath.Join(cfg.OutputDir, "prod"+FullResultsSuffix))
	if err != nil {
		t.Fatal(err)
	}
	if len(full) != 20 {
		t.Errorf("%d results written; want 20", len(full))
	}
	for _, suffix := range []string{SimSuffix, InterpSuffix} {
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, "prod"+suffix)); err != nil {
			t.Error(err)
		}
	}
}

func TestRunOptions(t *testing.T) {
	cfg := setupInterp(t)
	cfg.Psi = 0.5
	if _, err := Run(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}

	cfg = setupInterp(t)
	cfg.LossType = "gdp"
	if _, err := Run(context.Background(), cfg); err == nil {
		t.Error("expected an invalid loss type error")
	}

	cfg = setupInterp(t)
	cfg.Period = []int{2010, 2000}
	if _, err := Run(context.Background(), cfg); err == nil {
		t.Error("expected a void period error")
	}

	cfg = setupInterp(t)
	cfg.PlotDir = filepath.Join(filepath.Dir(cfg.OutputDir), "plots")
	cfg.OutputDir = ""
	if _, err := Run(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(cfg.PlotDir, "exio3_FR_rebuilding_0.png")); err != nil {
		t.Error(err)
	}

	cfg = setupInterp(t)
	writeFile(t, cfg.GeneralPath, "run_name,mrio,mrio_region,Impacting flood percentile,gdp_dmg_share\n"+
		"r1,exio3,FR,q1,0.01\n"+
		"r2,exio3,FR,q2,0.02\n"+
		"r3,exio3,FR,q3,0.04\n")
	cfg.Psi = 0.9
	if _, err := Run(context.Background(), cfg); err == nil || !strings.Contains(err.Error(), "no psi value") {
		t.Errorf("expected a missing psi error, got %v", err)
	}
	cfg.Psi = 0
	if _, err := Run(context.Background(), cfg); err != nil {
		t.Errorf("without a psi filter: %v", err)
	}

	cfg = setupInterp(t)
	cfg.RepresentativePath = filepath.Join(filepath.Dir(cfg.OutputDir), "missing.parquet")
	if _, err := Run(context.Background(), cfg); err == nil || !strings.Contains(err.Error(), "reading representative events") {
		t.Errorf("expected a representative events error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, setupInterp(t)); err == nil {
		t.Error("expected a cancellation error")
	}
}
