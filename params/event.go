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
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Shock types.
const (
	ShockRebuild = "kapital_destroyed_rebuild"
	ShockRecover = "kapital_destroyed_recover"
)

// EventTemplate is the template of a flood event. The undefined fields
// are set when preparing a run.
type EventTemplate struct {
	AffRegions             []string           `json:"aff_regions"`
	DmgRegionalDistrib     []float64          `json:"dmg_regional_distrib"`
	DmgSectoralDistribType string             `json:"dmg_sectoral_distrib_type"`
	Duration               int                `json:"duration"`
	Name                   string             `json:"name"`
	Occur                  int                `json:"occur"`
	KapitalDamage          float64            `json:"kapital_damage"`
	ShockType              string             `json:"shock_type"`
	AffSectors             []string           `json:"aff_sectors"`
	RebuildingSectors      map[string]float64 `json:"rebuilding_sectors,omitempty"`
	RecoverFunction        string             `json:"recover_function,omitempty"`
}

// EventFromSpreadsheet builds the rebuilding event template from the
// first sheet of the given spreadsheet.
func EventFromSpreadsheet(fileName string) (*EventTemplate, error) {
	t, err := readTable(fileName, "")
	if err != nil {
		return nil, err
	}
	sectors, err := t.column(ColSector)
	if err != nil {
		return nil, err
	}
	affected, err := t.column(ColAffected)
	if err != nil {
		return nil, err
	}
	rebuilding, err := t.column(ColRebuilding)
	if err != nil {
		return nil, err
	}
	e := &EventTemplate{
		AffRegions:             []string{"Undefined"},
		DmgRegionalDistrib:     []float64{1},
		DmgSectoralDistribType: "gdp",
		Duration:               -1,
		Name:                   "Undefined",
		Occur:                  7,
		KapitalDamage:          -1,
		ShockType:              ShockRebuild,
		AffSectors:             []string{},
		RebuildingSectors:      make(map[string]float64),
	}
	for i, s := range sectors {
		if affected[i] == "Yes" {
			e.AffSectors = append(e.AffSectors, s)
		}
		if rebuilding[i] == "" {
			continue
		}
		f, err := strconv.ParseFloat(rebuilding[i], 64)
		if err != nil {
			return nil, fmt.Errorf("params: rebuilding factor of %s: %v", s, err)
		}
		if f > 0 {
			e.RebuildingSectors[s] = f
		}
	}
	return e, nil
}

// Recover returns the recovery variant of a rebuilding template.
func (e *EventTemplate) Recover() *EventTemplate {
	o := *e
	o.ShockType = ShockRecover
	o.RecoverFunction = "convexe"
	o.RebuildingSectors = nil
	return &o
}

// templatePath inserts suffix between the stem and the extension of path.
func templatePath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

// WriteTemplates writes the rebuilding and recovery variants of e next to
// eventsPath, as <stem>_rebuilding.json and <stem>_recover.json.
func (e *EventTemplate) WriteTemplates(eventsPath string) error {
	if err := writeJSON(templatePath(eventsPath, "_rebuilding"), e); err != nil {
		return err
	}
	return writeJSON(templatePath(eventsPath, "_recover"), e.Recover())
}
