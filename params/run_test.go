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

package params

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spjuhel/BoARIO-inputs/mrio"
	"gonum.org/v1/gonum/mat"
)

func TestParseGroup(t *testing.T) {
	g, err := ParseGroup("psi_0_90_order_alt_inv_60_reb_30_evtype_recover")
	if err != nil {
		t.Fatal(err)
	}
	want := ParamsGroup{Name: "psi_0_90_order_alt_inv_60_reb_30_evtype_recover",
		Psi: 0.9, Order: "alt", Inv: 60, Reb: 30, EvType: EvTypeRecover}
	if g != want {
		t.Errorf("got %+v; want %+v", g, want)
	}
	g, err = ParseGroup("psi_1_0_order_noalt_inv_90_reb_365_evtype_rebuilding")
	if err != nil {
		t.Fatal(err)
	}
	if g.Psi != 1 || g.EvType != EvTypeRebuilding {
		t.Errorf("got %+v", g)
	}
	if _, err := ParseGroup("psi_2_0_order_alt_inv_60_reb_30_evtype_recover"); err == nil {
		t.Error("expected an error")
	}
}

func setupRuns(t *testing.T, group string) (runs, tablePath string) {
	t.Helper()
	runs = t.TempDir()
	groupDir := filepath.Join(runs, "exio3", group)
	if err := os.MkdirAll(groupDir, os.ModePerm); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"simulation_params.json": `{"model_type": "ARIOPsi", "n_temporal_units_to_sim": 365}`,
		"mrio_params.json":       `{"monetary_unit": 1000000, "main_inv_dur": 90, "capital_ratio_dict": {"a": 1}, "inventories_dict": {"a": "inf"}}`,
		"event_params.json":      `{"shock_type": "kapital_destroyed_recover", "aff_sectors": ["a"], "occur": 7}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(groupDir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	m := &mrio.IOSystem{
		Name:         "test",
		Unit:         mrio.MonetaryUnitMEUR,
		Regions:      []string{"DE", "FR"},
		Sectors:      []string{"a"},
		FDCategories: []string{"hh"},
		Z:            mat.NewDense(2, 2, []float64{1, 1, 1, 1}),
		Y:            mat.NewDense(2, 2, []float64{2, 0, 0, 3}),
	}
	if err := m.CalcAll(); err != nil {
		t.Fatal(err)
	}
	tablePath = filepath.Join(runs, "exio3.mrio")
	if err := m.SaveFile(tablePath); err != nil {
		t.Fatal(err)
	}
	return runs, tablePath
}

func TestPrepareRun(t *testing.T) {
	group := "psi_0_90_order_alt_inv_60_reb_30_evtype_recover"
	runs, tablePath := setupRuns(t, group)
	r, err := PrepareRun(RunOptions{
		RunsDir:  runs,
		MRIOName: "exio3",
		MRIOPath: tablePath,
		Group:    group,
		Region:   "FR",
		Dmg:      "0.05",
		Duration: 7,
	})
	if err != nil {
		t.Fatal(err)
	}
	if r.Simulation["results_storage"] != "0.05_7" {
		t.Errorf("results_storage = %v", r.Simulation["results_storage"])
	}
	if r.Simulation["model_type"] != "ARIOPsi" {
		t.Error("template fields were lost")
	}
	// FR: x = 2 + 3 = 5, intermediate inputs = 2, GDP = 3 M.EUR.
	if r.Event["kapital_damage"] != 0.05*3e6 {
		t.Errorf("kapital_damage = %v", r.Event["kapital_damage"])
	}
	if r.Event["recovery_time"] != 30. {
		t.Errorf("recovery_time = %v", r.Event["recovery_time"])
	}
	if r.Event["name"] != "FR_"+group+"_0.05_7" {
		t.Errorf("name = %v", r.Event["name"])
	}

	b, err := os.ReadFile(filepath.Join(runs, "exio3", group, "FR", "event_params.json"))
	if err != nil {
		t.Fatal(err)
	}
	var ev map[string]interface{}
	if err := json.Unmarshal(b, &ev); err != nil {
		t.Fatal(err)
	}
	if ev["r_dmg"] != 0.05 {
		t.Errorf("written r_dmg = %v", ev["r_dmg"])
	}

	if _, err := PrepareRun(RunOptions{RunsDir: runs, MRIOName: "exio3", MRIOPath: tablePath,
		Group: group, Region: "IT", Dmg: "0.05", Duration: 7}); err == nil {
		t.Error("expected an error for an unknown region")
	}
	if _, err := PrepareRun(RunOptions{RunsDir: filepath.Join(runs, "missing"), MRIOName: "exio3",
		MRIOPath: tablePath, Group: group, Region: "FR", Dmg: "0.05", Duration: 7}); err == nil {
		t.Error("expected an error for a missing runs directory")
	}
}
