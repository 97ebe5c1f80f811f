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

package floods

import (
	"fmt"
	"sort"
)

// FilterPeriod returns the events starting between years start and end,
// inclusive.
func FilterPeriod(events []Event, start, end int) ([]Event, error) {
	if end < start {
		return nil, fmt.Errorf("floods: given period is void [start: %d, end: %d]", start, end)
	}
	var o []Event
	for _, e := range events {
		if y := e.DateStart.Year(); y >= start && y <= end {
			o = append(o, e)
		}
	}
	return o, nil
}

// PrepareBase tags events with the period name and their year, and sorts
// them by region and damage.
func PrepareBase(events []Event, period string) []Event {
	o := make([]Event, len(events))
	copy(o, events)
	for i := range o {
		o[i].Period = period
		o[i].Year = o[i].DateStart.Year()
	}
	sort.SliceStable(o, func(i, j int) bool {
		if o[i].MrioRegion != o[j].MrioRegion {
			return o[i].MrioRegion < o[j].MrioRegion
		}
		return o[i].DmgShare < o[j].DmgShare
	})
	return o
}

// RestrictToRegions drops the events of regions not in regions.
func RestrictToRegions(events []Event, regions []string) []Event {
	keep := make(map[string]bool, len(regions))
	for _, r := range regions {
		keep[r] = true
	}
	var o []Event
	for _, e := range events {
		if keep[e.MrioRegion] {
			o = append(o, e)
		}
	}
	return o
}

// Regions returns the distinct regions of events in order of appearance.
func Regions(events []Event) []string {
	seen := make(map[string]bool)
	var o []string
	for _, e := range events {
		if !seen[e.MrioRegion] {
			seen[e.MrioRegion] = true
			o = append(o, e.MrioRegion)
		}
	}
	return o
}
