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

// Command boario-inputs prepares the inputs of the BoARIO model and
// treats the outputs of its simulations.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spjuhel/BoARIO-inputs/mrioutil"
)

func main() {
	if err := mrioutil.Root.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
