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
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spjuhel/BoARIO-inputs/mrio"
)

// RunOptions describe a single simulation run.
type RunOptions struct {
	RunsDir  string
	MRIOName string
	// MRIOPath is the table used to compute regional GDPs.
	MRIOPath string
	Group    string
	Region   string
	// Dmg is the damage as a share of the region GDP, as given on
	// the command line.
	Dmg      string
	Duration int
}

// Run holds the parameters of a prepared run.
type Run struct {
	Dir        string
	Simulation map[string]interface{}
	Event      map[string]interface{}
}

func readTemplate(path string) (map[string]interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("params: loading template: %v", err)
	}
	defer f.Close()
	var o map[string]interface{}
	if err := json.NewDecoder(f).Decode(&o); err != nil {
		return nil, fmt.Errorf("params: reading template %s: %v", path, err)
	}
	return o, nil
}

// PrepareRun fills the simulation and event templates of a parameter
// group for one region, damage and duration, and writes them to
// <runs>/<mrio>/<group>/<region>/.
func PrepareRun(opts RunOptions) (*Run, error) {
	runsDir, err := filepath.Abs(opts.RunsDir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(runsDir); err != nil {
		return nil, fmt.Errorf("params: %s doesn't exist", runsDir)
	}
	g, err := ParseGroup(opts.Group)
	if err != nil {
		return nil, err
	}
	dmg, err := strconv.ParseFloat(opts.Dmg, 64)
	if err != nil {
		return nil, fmt.Errorf("params: invalid damage %q: %v", opts.Dmg, err)
	}
	groupDir := filepath.Join(runsDir, opts.MRIOName, opts.Group)
	regionDir := filepath.Join(groupDir, opts.Region)
	if err := os.MkdirAll(regionDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("params: %v", err)
	}
	log := Log.WithFields(logrus.Fields{"group": opts.Group, "region": opts.Region})

	sim, err := readTemplate(filepath.Join(groupDir, "simulation_params.json"))
	if err != nil {
		return nil, err
	}
	mrioParamsPath := filepath.Join(groupDir, "mrio_params.json")
	if _, err := ReadMRIOParamsFile(mrioParamsPath); err != nil {
		return nil, err
	}
	event, err := readTemplate(filepath.Join(groupDir, "event_params.json"))
	if err != nil {
		return nil, err
	}

	sim["results_storage"] = opts.Dmg + "_" + strconv.Itoa(opts.Duration)
	sim["output_dir"] = regionDir
	sim["mrio_params_file"] = mrioParamsPath

	switch g.EvType {
	case EvTypeRecover:
		log.Infof("setting flood recovery duration to %d", g.Reb)
		event["recovery_time"] = float64(g.Reb)
	case EvTypeRebuilding:
		log.Infof("setting flood rebuilding duration to %d", g.Reb)
		event["rebuild_tau"] = float64(g.Reb)
	}

	m, err := mrio.Open(opts.MRIOPath)
	if err != nil {
		return nil, err
	}
	gdp, err := m.GDP()
	if err != nil {
		return nil, err
	}
	regionGDP, ok := gdp[opts.Region]
	if !ok {
		return nil, mrio.LabelError{Kind: "region", Name: opts.Region}
	}
	event["duration"] = opts.Duration
	event["r_dmg"] = dmg
	event["kapital_damage"] = dmg * regionGDP
	event["aff_regions"] = []string{opts.Region}
	event["name"] = fmt.Sprintf("%s_%s_%s_%d", opts.Region, opts.Group,
		strconv.FormatFloat(dmg, 'f', -1, 64), opts.Duration)
	log.WithField("kapital_damage", event["kapital_damage"]).Info("event ready")

	r := &Run{Dir: regionDir, Simulation: sim, Event: event}
	if err := writeJSON(filepath.Join(regionDir, "simulation_params.json"), sim); err != nil {
		return nil, err
	}
	if err := writeJSON(filepath.Join(regionDir, "event_params.json"), event); err != nil {
		return nil, err
	}
	return r, nil
}
