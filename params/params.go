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

// Package params builds the parameter files of ARIO simulations: the
// sector parameters of an MRIO table, the event templates and the
// per-run parameters.
package params

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/sirupsen/logrus"
)

// Log receives the progress messages emitted by this package.
var Log logrus.FieldLogger = logrus.StandardLogger()

// Spreadsheet column headers.
const (
	ColSector     = "Aggregated version sector"
	ColCapital    = "Capital to VA ratio"
	ColInventory  = "Inventory size (days)"
	ColAffected   = "Affected"
	ColRebuilding = "Rebuilding factor"
)

// InventoryDuration is a number of days of inventories. Infinite
// inventories are written as "inf".
type InventoryDuration float64

// MarshalJSON implements json.Marshaler.
func (d InventoryDuration) MarshalJSON() ([]byte, error) {
	if math.IsInf(float64(d), 1) {
		return []byte(`"inf"`), nil
	}
	return json.Marshal(float64(d))
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *InventoryDuration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := parseDuration(s)
		if err != nil {
			return err
		}
		*d = InventoryDuration(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("params: invalid inventory duration %s", b)
	}
	*d = InventoryDuration(v)
	return nil
}

func parseDuration(s string) (float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inf", "infinity", "+inf":
		return math.Inf(1), nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("params: invalid inventory duration %q", s)
	}
	return v, nil
}

// MRIOParams holds the sector parameters of an MRIO table.
type MRIOParams struct {
	// MonetaryUnit is the unit prefix factor of the table, e.g. 1000000.
	MonetaryUnit int `json:"monetary_unit"`
	// MainInvDur is the main inventory duration in days.
	MainInvDur   int                          `json:"main_inv_dur"`
	CapitalRatio map[string]float64           `json:"capital_ratio_dict"`
	Inventories  map[string]InventoryDuration `json:"inventories_dict"`
}

// FromSpreadsheet reads MRIO parameters from the first sheet of the
// given spreadsheet.
func FromSpreadsheet(fileName string, monetaryUnit, mainInvDur int) (*MRIOParams, error) {
	t, err := readTable(fileName, "")
	if err != nil {
		return nil, err
	}
	sectors, err := t.column(ColSector)
	if err != nil {
		return nil, err
	}
	capital, err := t.column(ColCapital)
	if err != nil {
		return nil, err
	}
	inventory, err := t.column(ColInventory)
	if err != nil {
		return nil, err
	}
	p := &MRIOParams{
		MonetaryUnit: monetaryUnit,
		MainInvDur:   mainInvDur,
		CapitalRatio: make(map[string]float64, len(sectors)),
		Inventories:  make(map[string]InventoryDuration, len(sectors)),
	}
	for i, s := range sectors {
		c, err := strconv.ParseFloat(capital[i], 64)
		if err != nil {
			return nil, fmt.Errorf("params: capital ratio of %s: %v", s, err)
		}
		inv, err := parseDuration(inventory[i])
		if err != nil {
			return nil, fmt.Errorf("params: inventory of %s: %v", s, err)
		}
		p.CapitalRatio[s] = c
		p.Inventories[s] = InventoryDuration(inv)
	}
	return p, nil
}

// round3 rounds to 3 decimals, keeping infinities.
func round3(v float64) float64 {
	if math.IsInf(v, 0) {
		return v
	}
	return math.Round(v*1000) / 1000
}

// NewParamsFromOld derives the parameters of an aggregated table from
// the parameters of the original one. mapping gives the new sector of
// each old sector. The ratio and inventory of a new sector are the means
// of those of its old sectors.
func NewParamsFromOld(old *MRIOParams, mapping map[string]string) (*MRIOParams, error) {
	members := make(map[string][]string)
	for o, n := range mapping {
		members[n] = append(members[n], o)
	}
	p := &MRIOParams{
		MonetaryUnit: old.MonetaryUnit,
		MainInvDur:   old.MainInvDur,
		CapitalRatio: make(map[string]float64, len(members)),
		Inventories:  make(map[string]InventoryDuration, len(members)),
	}
	for n, olds := range members {
		sort.Strings(olds)
		var capital, inv []float64
		for _, o := range olds {
			c, ok := old.CapitalRatio[o]
			if !ok {
				return nil, fmt.Errorf("params: sector %s missing from capital ratios", o)
			}
			i, ok := old.Inventories[o]
			if !ok {
				return nil, fmt.Errorf("params: sector %s missing from inventories", o)
			}
			capital = append(capital, c)
			inv = append(inv, float64(i))
		}
		p.CapitalRatio[n] = round3(stats.StatsMean(capital))
		p.Inventories[n] = InventoryDuration(round3(stats.StatsMean(inv)))
	}
	return p, nil
}

// ReadSectorAggregator reads a sector aggregation spreadsheet. Sheet
// "aggreg_input" gives the group of each sector and sheet "name_input"
// the name of each group. The result maps old sectors to new names.
func ReadSectorAggregator(fileName string) (map[string]string, error) {
	agg, err := readTable(fileName, "aggreg_input")
	if err != nil {
		return nil, err
	}
	sectors, err := agg.column("sector")
	if err != nil {
		return nil, err
	}
	groups, err := agg.column("group")
	if err != nil {
		return nil, err
	}
	names, err := readTable(fileName, "name_input")
	if err != nil {
		return nil, err
	}
	ids, err := names.columnAt(0)
	if err != nil {
		return nil, err
	}
	newNames, err := names.columnAt(1)
	if err != nil {
		return nil, err
	}
	groupName := make(map[string]string, len(ids))
	for i, id := range ids {
		groupName[normalizeID(id)] = newNames[i]
	}
	o := make(map[string]string, len(sectors))
	for i, s := range sectors {
		n, ok := groupName[normalizeID(groups[i])]
		if !ok {
			return nil, fmt.Errorf("params: group %s of sector %s has no name", groups[i], s)
		}
		o[s] = n
	}
	return o, nil
}

// normalizeID makes numeric group ids such as "3" and "3.0" equal.
func normalizeID(s string) string {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return s
}

// ReadMRIOParams reads MRIO parameters in JSON format.
func ReadMRIOParams(r io.Reader) (*MRIOParams, error) {
	p := new(MRIOParams)
	if err := json.NewDecoder(r).Decode(p); err != nil {
		return nil, fmt.Errorf("params: reading MRIO params: %v", err)
	}
	return p, nil
}

// ReadMRIOParamsFile reads MRIO parameters from the given JSON file.
func ReadMRIOParamsFile(path string) (*MRIOParams, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("params: %v", err)
	}
	defer f.Close()
	return ReadMRIOParams(f)
}

// writeJSON writes v to path with a 4-space indentation, creating
// the parent directory if needed.
func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("params: %v", err)
	}
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("params: %v", err)
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("params: %v", err)
	}
	Log.WithField("path", path).Info("wrote parameters")
	return nil
}

// WriteFile writes p to path in JSON format.
func (p *MRIOParams) WriteFile(path string) error { return writeJSON(path, p) }
