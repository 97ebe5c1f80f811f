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

import "github.com/spjuhel/BoARIO-inputs/floods"

// Protect adds the protection level of each event of the flood base
// and whether the protection holds, and writes the result to output.
func Protect(floodBase, protection, field, output string) error {
	if err := floods.CheckCatalogue(floodBase); err != nil {
		return err
	}
	events, err := floods.ReadEvents(floodBase)
	if err != nil {
		return err
	}
	p, err := floods.LoadProtection(protection, field)
	if err != nil {
		return err
	}
	return floods.WriteEvents(output, p.AddProtection(events))
}
