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

package mrio

import (
	"bytes"
	"encoding/gob"
	"path/filepath"
	"testing"

	"github.com/kr/pretty"
)

func TestSaveLoad(t *testing.T) {
	m := testSystem()
	if err := m.CalcAll(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "out", "test.mrio")
	if err := m.SaveFile(path); err != nil {
		t.Fatal(err)
	}
	m2, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(m.Regions, m2.Regions); len(diff) != 0 {
		t.Error(diff)
	}
	if sum(m2.Z) != sum(m.Z) || m2.X.AtVec(0) != m.X.AtVec(0) || m2.Unit != m.Unit {
		t.Error("loaded table differs from the saved one")
	}
}

func TestLoadCorrupted(t *testing.T) {
	m := testSystem()
	if err := m.CalcAll(); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(saved{Fingerprint: "xxx", System: *m}); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(&buf); err == nil {
		t.Error("expected a fingerprint error")
	}
}

func TestSaveInvalid(t *testing.T) {
	m := testSystem()
	m.Regions = m.Regions[:1]
	var buf bytes.Buffer
	if err := m.Save(&buf); err == nil {
		t.Error("expected a validation error")
	}
}
