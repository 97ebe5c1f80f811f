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

package mrioutil

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/kr/pretty"
	"github.com/lnashier/viper"
	"github.com/spjuhel/BoARIO-inputs/floods"
	"github.com/spjuhel/BoARIO-inputs/lossinterp"
	"github.com/spjuhel/BoARIO-inputs/mrio"
	"github.com/spjuhel/BoARIO-inputs/params"
	"github.com/spjuhel/BoARIO-inputs/summary"
	"github.com/tealeg/xlsx"
	"gonum.org/v1/gonum/mat"
)

func different(a, b, tolerance float64) bool {
	return 2*math.Abs(a-b)/math.Abs(a+b) > tolerance
}

func run(args ...string) error {
	Root.SetArgs(args)
	return Root.Execute()
}

func TestVersion(t *testing.T) {
	var b bytes.Buffer
	Root.SetOutput(&b)
	defer Root.SetOutput(nil)
	if err := run("version"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "v"+Version) {
		t.Errorf("version output = %q", b.String())
	}
}

func saveTestSystem(t *testing.T, path string) {
	t.Helper()
	m := &mrio.IOSystem{
		Name:         "test",
		Year:         2015,
		Unit:         mrio.MonetaryUnitMEUR,
		Regions:      []string{"DE", "FR"},
		Sectors:      []string{"a", "b"},
		FDCategories: []string{"hh"},
		Z: mat.NewDense(4, 4, []float64{
			1, 2, 3, 4,
			2, 1, 0, 1,
			0, 1, 2, 1,
			1, 0, 1, 2,
		}),
		Y: mat.NewDense(4, 2, []float64{
			4, 1,
			2, 2,
			1, 3,
			0, 5,
		}),
	}
	if err := m.CalcAll(); err != nil {
		t.Fatal(err)
	}
	if err := m.SaveFile(path); err != nil {
		t.Fatal(err)
	}
}

func TestMRIOCommands(t *testing.T) {
	dir := t.TempDir()
	table := filepath.Join(dir, "test.gob")
	saveTestSystem(t, table)
	p := filepath.Join(dir, "params.json")
	writeFile(t, p, `{"monetary_unit": 1000000, "main_inv_dur": 90,
		"capital_ratio_dict": {"a": 1, "b": 2}, "inventories_dict": {"a": 60, "b": 90}}`)

	split := filepath.Join(dir, "split.gob")
	splitParams := filepath.Join(dir, "split_params.json")
	t.Run("split", func(t *testing.T) {
		err := run("mrio", "split", "--MRIO="+table, "--split.Target=FR_sliced_in_2",
			"--MRIOParams="+p, "--OutputFile="+split, "--ParamsOutput="+splitParams)
		if err != nil {
			t.Fatal(err)
		}
		m, err := mrio.LoadFile(split)
		if err != nil {
			t.Fatal(err)
		}
		if diff := pretty.Diff(m.Regions, []string{"DE", "FR_1", "FR_2"}); len(diff) != 0 {
			t.Error(diff)
		}
		if _, err := params.ReadMRIOParamsFile(splitParams); err != nil {
			t.Error(err)
		}
	})

	regions := filepath.Join(dir, "regions.gob")
	t.Run("aggregate-regions", func(t *testing.T) {
		agg := filepath.Join(dir, "regions.json")
		writeFile(t, agg, `{"DE": "EU", "FR_1": "EU", "FR_2": ["EU"]}`)
		err := run("mrio", "aggregate-regions", "--MRIO="+split, "--RegionAggregation="+agg,
			"--MRIOParams=", "--OutputFile="+regions, "--ParamsOutput=")
		if err != nil {
			t.Fatal(err)
		}
		m, err := mrio.LoadFile(regions)
		if err != nil {
			t.Fatal(err)
		}
		if diff := pretty.Diff(m.Regions, []string{"EU"}); len(diff) != 0 {
			t.Error(diff)
		}
		original, err := mrio.LoadFile(table)
		if err != nil {
			t.Fatal(err)
		}
		if different(mat.Sum(m.Z), mat.Sum(original.Z), 1e-10) {
			t.Errorf("total flows changed: %g != %g", mat.Sum(m.Z), mat.Sum(original.Z))
		}
	})

	t.Run("aggregate-sectors", func(t *testing.T) {
		agg := filepath.Join(dir, "sectors.xlsx")
		f := xlsx.NewFile()
		for name, rows := range map[string][][]string{
			"aggreg_input": {{"sector", "group"}, {"a", "1"}, {"b", "1"}},
			"name_input":   {{"group", "name"}, {"1", "all"}},
		} {
			s, err := f.AddSheet(name)
			if err != nil {
				t.Fatal(err)
			}
			for _, r := range rows {
				row := s.AddRow()
				for _, v := range r {
					row.AddCell().SetString(v)
				}
			}
		}
		if err := f.Save(agg); err != nil {
			t.Fatal(err)
		}
		out := filepath.Join(dir, "sectors.gob")
		outParams := filepath.Join(dir, "sectors_params.json")
		err := run("mrio", "aggregate-sectors", "--MRIO="+table, "--Aggregator="+agg,
			"--MRIOParams="+p, "--OutputFile="+out, "--ParamsOutput="+outParams)
		if err != nil {
			t.Fatal(err)
		}
		m, err := mrio.LoadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		if diff := pretty.Diff(m.Sectors, []string{"all"}); len(diff) != 0 {
			t.Error(diff)
		}
		np, err := params.ReadMRIOParamsFile(outParams)
		if err != nil {
			t.Fatal(err)
		}
		if np.CapitalRatio["all"] != 1.5 || np.Inventories["all"] != 75 {
			t.Errorf("params = %+v", np)
		}
	})

	t.Run("missing params output", func(t *testing.T) {
		err := run("mrio", "split", "--MRIO="+table, "--split.Target=FR_sliced_in_2",
			"--MRIOParams="+p, "--OutputFile="+split, "--ParamsOutput=")
		if err == nil {
			t.Error("expected an error")
		}
	})
}

func TestParamsBuild(t *testing.T) {
	dir := t.TempDir()
	sheet := filepath.Join(dir, "params.xlsx")
	f := xlsx.NewFile()
	s, err := f.AddSheet("sectors")
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range [][]string{
		{params.ColSector, params.ColCapital, params.ColInventory, params.ColAffected, params.ColRebuilding},
		{"a", "2", "90", "Yes", "0"},
		{"b", "1", "inf", "No", "1"},
	} {
		row := s.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}
	if err := f.Save(sheet); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out", "mrio_params.json")
	events := filepath.Join(dir, "out", "event_params.json")
	err = run("params", "build", "--params.Spreadsheet="+sheet, "--params.MRIOParamsOutput="+out,
		"--params.EventsParamsOutput="+events)
	if err != nil {
		t.Fatal(err)
	}
	p, err := params.ReadMRIOParamsFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if p.MonetaryUnit != 1000000 || p.MainInvDur != 90 || p.CapitalRatio["a"] != 2 {
		t.Errorf("params = %+v", p)
	}
	for _, name := range []string{"event_params_rebuilding.json", "event_params_recover.json"} {
		if _, err := os.Stat(filepath.Join(dir, "out", name)); err != nil {
			t.Error(err)
		}
	}
}

func TestProtect(t *testing.T) {
	dir := t.TempDir()
	prot := filepath.Join(dir, "flopros.shp")
	e, err := shp.NewEncoderFromFields(prot, goshp.POLYGON, goshp.FloatField(floods.DefaultProtectionField, 14, 8))
	if err != nil {
		t.Fatal(err)
	}
	square := geom.Polygon{{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0}}}
	if err := e.EncodeFields(square, 100.); err != nil {
		t.Fatal(err)
	}
	e.Close()

	d := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	base := filepath.Join(dir, "base.parquet")
	err = floods.WriteEvents(base, []floods.Event{
		{FinalCluster: 1, MrioRegion: "FR", DateStart: d, ReturnPeriod: 50, Long: 5, Lat: 5, ProtectionLevel: math.NaN()},
		{FinalCluster: 2, MrioRegion: "FR", DateStart: d, ReturnPeriod: 500, Long: 5, Lat: 5, ProtectionLevel: math.NaN()},
		{FinalCluster: 3, MrioRegion: "DE", DateStart: d, ReturnPeriod: 50, Long: 50, Lat: 50, ProtectionLevel: math.NaN()},
	})
	if err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "protected.parquet")
	if err := run("floods", "protect", "--FloodBase="+base, "--Protection="+prot, "--OutputFile="+out); err != nil {
		t.Fatal(err)
	}
	events, err := floods.ReadEvents(out)
	if err != nil {
		t.Fatal(err)
	}
	var protected []bool
	for _, e := range events {
		protected = append(protected, e.Protected)
	}
	if diff := pretty.Diff(protected, []bool{true, false, false}); len(diff) != 0 {
		t.Error(diff)
	}
}

func TestCollect(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "exp", "exio3", "FR_int_a", "indicators.json"),
		`{"region": ["FR"], "gdp_dmg_share": 0.01}`)
	out := filepath.Join(dir, "csv")
	if err := run("indicators", "collect", "--indicators.Folder="+filepath.Join(dir, "exp"), "--OutputDir="+out); err != nil {
		t.Fatal(err)
	}
	if s := readFile(t, filepath.Join(out, "int_general.csv")); !strings.HasPrefix(s, "run_name,gdp_dmg_share,region\nFR_int_a,") {
		t.Errorf("general table = %q", s)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	results := []lossinterp.Result{
		{FinalCluster: 1, MRIO: "exio3", Period: "p", Model: "m1", MrioRegion: "FR",
			SectorType: "rebuilding", Region: "FR", Loss: 2},
	}
	if err := lossinterp.WriteResults(filepath.Join(dir, "prod"+lossinterp.FullResultsSuffix), results); err != nil {
		t.Fatal(err)
	}
	cfg := filepath.Join(dir, "config.toml")
	writeFile(t, cfg, "LogLevel = \"warn\"\nInputDir = \""+filepath.ToSlash(dir)+"\"\n")
	defer Root.PersistentFlags().Set("config", "")
	if err := run("summary", "drias", "--config="+cfg); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, summary.DriasFile("prodloss", true))); err != nil {
		t.Error(err)
	}
}

func TestRequired(t *testing.T) {
	v := viper.New()
	v.Set("a", "x")
	if err := required(v, "a"); err != nil {
		t.Error(err)
	}
	if err := required(v, "a", "b"); err == nil || !strings.Contains(err.Error(), "b configuration") {
		t.Errorf("error = %v", err)
	}
}

func TestToIntSliceE(t *testing.T) {
	for _, test := range []struct {
		in   interface{}
		want []int
	}{
		{"[1970,2015]", []int{1970, 2015}},
		{"[]", nil},
		{[]interface{}{int64(1970), int64(2015)}, []int{1970, 2015}},
	} {
		got, err := toIntSliceE(test.in)
		if err != nil {
			t.Fatal(err)
		}
		if diff := pretty.Diff(got, test.want); len(diff) != 0 {
			t.Errorf("%v: %v", test.in, diff)
		}
	}
	if _, err := toIntSliceE("1970"); err == nil {
		t.Error("expected an error")
	}
}

func TestSetLogging(t *testing.T) {
	if err := setLogging("loud"); err == nil {
		t.Error("expected an invalid level error")
	}
	if err := setLogging("info"); err != nil {
		t.Error(err)
	}
}
