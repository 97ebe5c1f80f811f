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
	"path/filepath"
	"testing"
)

func TestParseSplitTarget(t *testing.T) {
	r, n, err := ParseSplitTarget("FR_sliced_in_3")
	if err != nil {
		t.Fatal(err)
	}
	if r != "FR" || n != 3 {
		t.Errorf("got %s, %d", r, n)
	}
	for _, bad := range []string{"FRA_sliced_in_3", "FR_sliced_in_", "fr_sliced_in_2", "FR_split_in_2"} {
		if _, _, err := ParseSplitTarget(bad); err == nil {
			t.Errorf("%s: expected an error", bad)
		}
	}
}

func TestSplitRegion(t *testing.T) {
	for _, internal := range []bool{false, true} {
		m := testSystem()
		if err := m.CalcAll(); err != nil {
			t.Fatal(err)
		}
		zTotal, yTotal, xTotal := sum(m.Z), sum(m.Y), sum(m.X)
		if err := m.SplitRegion("DE", 2, internal); err != nil {
			t.Fatal(err)
		}
		want := []string{"DE_1", "DE_2", "FR"}
		for i, w := range want {
			if m.Regions[i] != w {
				t.Fatalf("regions = %v; want %v", m.Regions, want)
			}
		}
		if different(sum(m.Z), zTotal, tolerance) || different(sum(m.Y), yTotal, tolerance) ||
			different(sum(m.X), xTotal, tolerance) {
			t.Errorf("internal=%v: totals not conserved", internal)
		}
		// Indices: DE_1/a=0, DE_1/b=1, DE_2/a=2, DE_2/b=3, FR/a=4, FR/b=5.
		if m.X.AtVec(0) != 7.5 {
			t.Errorf("x[DE_1/a] = %g; want 7.5", m.X.AtVec(0))
		}
		if m.Z.At(0, 4) != 1.5 {
			t.Errorf("Z[DE_1/a, FR/a] = %g; want 1.5", m.Z.At(0, 4))
		}
		if m.Z.At(5, 0) != 0.5 {
			t.Errorf("Z[FR/b, DE_1/a] = %g; want 0.5", m.Z.At(5, 0))
		}
		if internal {
			if m.Z.At(0, 0) != 0.25 || m.Z.At(0, 2) != 0.25 {
				t.Errorf("internal exchange: Z[DE_1/a, DE_x/a] = %g, %g; want 0.25", m.Z.At(0, 0), m.Z.At(0, 2))
			}
			if m.Y.At(0, 1) != 1 {
				t.Errorf("Y[DE_1/a, DE_2/hh] = %g; want 1", m.Y.At(0, 1))
			}
		} else {
			if m.Z.At(0, 0) != 0.5 || m.Z.At(0, 2) != 0 {
				t.Errorf("no internal exchange: Z[DE_1/a, DE_x/a] = %g, %g; want 0.5, 0", m.Z.At(0, 0), m.Z.At(0, 2))
			}
			if m.Y.At(0, 0) != 2 || m.Y.At(0, 1) != 0 {
				t.Errorf("no internal exchange: Y[DE_1/a, DE_x/hh] = %g, %g", m.Y.At(0, 0), m.Y.At(0, 1))
			}
		}
	}
}

func TestSplitOpened(t *testing.T) {
	m := testSystem()
	if err := m.CalcAll(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "test.mrio")
	if err := m.SaveFile(path); err != nil {
		t.Fatal(err)
	}
	m, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.SplitRegion("FR", 3, true); err != nil {
		t.Fatal(err)
	}
	if r, c := m.A.Dims(); r != 8 || c != 8 {
		t.Fatalf("A has dims %d×%d; want 8×8", r, c)
	}
	// The technical coefficients of a subregion equal those of its origin.
	if different(m.A.At(0, 0), 1./15, tolerance) {
		t.Errorf("A[DE/a, DE/a] = %g; want %g", m.A.At(0, 0), 1./15)
	}
	if m.Regions[1] != "FR_1" || m.Regions[3] != "FR_3" {
		t.Errorf("regions = %v", m.Regions)
	}
}

func TestSplitRegionErrors(t *testing.T) {
	m := testSystem()
	if err := m.SplitRegion("DE", 1, false); err == nil {
		t.Error("expected an error when splitting in 1")
	}
	if err := m.SplitRegion("IT", 2, false); err == nil {
		t.Error("expected an error for an unknown region")
	}
}
