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
	"regexp"
	"strconv"
	"strings"
)

var groupRegexp = regexp.MustCompile(`psi_(?P<psi>1_0|0_\d+)_order_(?P<order>[a-z]+)_inv_(?P<inv>\d+)_reb_(?P<reb>\d+)_evtype_(?P<evtype>recover|rebuilding)`)

// Event types of a parameter group.
const (
	EvTypeRecover    = "recover"
	EvTypeRebuilding = "rebuilding"
)

// ParamsGroup is a set of simulation parameters encoded in a name such
// as "psi_0_90_order_alt_inv_60_reb_60_evtype_recover".
type ParamsGroup struct {
	Name   string
	Psi    float64
	Order  string
	Inv    int
	Reb    int
	EvType string
}

// ParseGroup parses a parameter group name.
func ParseGroup(name string) (ParamsGroup, error) {
	m := groupRegexp.FindStringSubmatch(name)
	if m == nil {
		return ParamsGroup{}, fmt.Errorf("params: there is a problem with the parameter group: %s", name)
	}
	g := ParamsGroup{Name: name, Order: m[2], EvType: m[5]}
	var err error
	if g.Psi, err = strconv.ParseFloat(strings.Replace(m[1], "_", ".", 1), 64); err != nil {
		return ParamsGroup{}, fmt.Errorf("params: group %s psi: %v", name, err)
	}
	if g.Inv, err = strconv.Atoi(m[3]); err != nil {
		return ParamsGroup{}, fmt.Errorf("params: group %s inventory: %v", name, err)
	}
	if g.Reb, err = strconv.Atoi(m[4]); err != nil {
		return ParamsGroup{}, fmt.Errorf("params: group %s rebuilding: %v", name, err)
	}
	return g, nil
}

func (g ParamsGroup) String() string { return g.Name }
