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
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spjuhel/BoARIO-inputs/mrio"
	"github.com/spjuhel/BoARIO-inputs/mrio/country"
	"github.com/spjuhel/BoARIO-inputs/params"
)

// SourceClassification is the classification of the regions of the
// tables whose regions are aggregated.
const SourceClassification = "EXIO3"

// BuildMRIO parses the table at path and saves it to output.
func BuildMRIO(path, mrioType string, year int, output string) error {
	m, err := mrio.Build(path, mrioType, year)
	if err != nil {
		return err
	}
	return save(m, output)
}

func save(m *mrio.IOSystem, output string) error {
	Log.WithFields(logrus.Fields{"path": output, "regions": len(m.Regions), "sectors": len(m.Sectors)}).
		Info("saving MRIO")
	return m.SaveFile(output)
}

// AggregateSectors aggregates the sectors of the table at mrioPath as
// given by the aggregator spreadsheet. When paramsPath is set, the
// parameters of the original sectors are regrouped and written to
// paramsOutput.
func AggregateSectors(mrioPath, aggregator, paramsPath, output, paramsOutput string) error {
	old, err := readParams(paramsPath, paramsOutput)
	if err != nil {
		return err
	}
	mapping, err := params.ReadSectorAggregator(aggregator)
	if err != nil {
		return err
	}
	m, err := mrio.Open(mrioPath)
	if err != nil {
		return err
	}
	if err := m.AggregateSectors(mapping); err != nil {
		return err
	}
	m.LexicoReindex()
	if err := save(m, output); err != nil {
		return err
	}
	if old == nil {
		return nil
	}
	p, err := params.NewParamsFromOld(old, mapping)
	if err != nil {
		return err
	}
	return p.WriteFile(paramsOutput)
}

// regionMapping returns the region aggregation given either as a
// classification name or as a .json or .toml file.
func regionMapping(regions []string, aggregation string) (map[string]string, error) {
	switch filepath.Ext(aggregation) {
	case ".json", ".toml":
	default:
		return country.AggregationMapping(regions, SourceClassification, aggregation)
	}
	f, err := os.Open(aggregation)
	if err != nil {
		return nil, fmt.Errorf("mrioutil: region aggregation file not found: %v", err)
	}
	defer f.Close()
	if filepath.Ext(aggregation) == ".toml" {
		return country.ReadAggregationTOML(f)
	}
	return country.ReadAggregationJSON(f)
}

// AggregateRegions aggregates the regions of the table at mrioPath.
// The parameters, which are per sector, are copied unchanged.
func AggregateRegions(mrioPath, aggregation, paramsPath, output, paramsOutput string) error {
	p, err := readParams(paramsPath, paramsOutput)
	if err != nil {
		return err
	}
	m, err := mrio.Open(mrioPath)
	if err != nil {
		return err
	}
	mapping, err := regionMapping(m.Regions, aggregation)
	if err != nil {
		return err
	}
	if err := m.AggregateRegions(mapping); err != nil {
		return err
	}
	m.LexicoReindex()
	if err := save(m, output); err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	return p.WriteFile(paramsOutput)
}

// SplitMRIO splits a region of the table at mrioPath in identical
// subregions, as given by a target such as "FR_sliced_in_3".
func SplitMRIO(mrioPath, target string, internalExchange bool, paramsPath, output, paramsOutput string) error {
	p, err := readParams(paramsPath, paramsOutput)
	if err != nil {
		return err
	}
	region, n, err := mrio.ParseSplitTarget(target)
	if err != nil {
		return err
	}
	m, err := mrio.Open(mrioPath)
	if err != nil {
		return err
	}
	if err := m.SplitRegion(region, n, internalExchange); err != nil {
		return err
	}
	if err := save(m, output); err != nil {
		return err
	}
	if p == nil {
		return nil
	}
	return p.WriteFile(paramsOutput)
}

// readParams reads the MRIO parameters at path, if set.
func readParams(path, output string) (*params.MRIOParams, error) {
	if path == "" {
		return nil, nil
	}
	if output == "" {
		return nil, fmt.Errorf("mrioutil: an output path is needed for the parameters of %s", path)
	}
	return params.ReadMRIOParamsFile(path)
}

// BuildParams writes the MRIO parameters and the event templates
// described by a spreadsheet.
func BuildParams(spreadsheet string, monetaryUnit, mainInvDur int, paramsOutput, eventsOutput string) error {
	if paramsOutput == "" && eventsOutput == "" {
		return fmt.Errorf("mrioutil: no output given for the parameters of %s", spreadsheet)
	}
	if paramsOutput != "" {
		p, err := params.FromSpreadsheet(spreadsheet, monetaryUnit, mainInvDur)
		if err != nil {
			return err
		}
		if err := p.WriteFile(paramsOutput); err != nil {
			return err
		}
	}
	if eventsOutput != "" {
		e, err := params.EventFromSpreadsheet(spreadsheet)
		if err != nil {
			return err
		}
		if err := e.WriteTemplates(eventsOutput); err != nil {
			return err
		}
	}
	return nil
}
