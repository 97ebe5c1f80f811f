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
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/kr/pretty"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testEvents() []Event {
	return []Event{
		{FinalCluster: 1, MrioRegion: "FR", DateStart: date(1995, 3, 2), Model: "m1", DmgShare: 0.02,
			ReturnPeriod: 50, Long: 5, Lat: 5, ProtectionLevel: math.NaN()},
		{FinalCluster: 2, MrioRegion: "DE", DateStart: date(2001, 7, 14), Model: "m1", DmgShare: 0.01,
			ReturnPeriod: 200, Long: 5, Lat: 5, ProtectionLevel: math.NaN()},
		{FinalCluster: 3, MrioRegion: "FR", DateStart: date(2005, 1, 30), Model: "m2", DmgShare: 0.001,
			ReturnPeriod: 20, Long: 25, Lat: 25, ProtectionLevel: math.NaN()},
		{FinalCluster: 4, MrioRegion: "IT", DateStart: date(2012, 11, 1), Model: "m2", DmgShare: 0.5,
			ReturnPeriod: 5, Long: 50, Lat: 50, ProtectionLevel: math.NaN()},
	}
}

func clusters(events []Event) []int64 {
	o := make([]int64, len(events))
	for i, e := range events {
		o[i] = e.FinalCluster
	}
	return o
}

func TestFilterPeriod(t *testing.T) {
	events, err := FilterPeriod(testEvents(), 1990, 2005)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(clusters(events), []int64{1, 2, 3}); len(diff) != 0 {
		t.Error(diff)
	}
	if _, err := FilterPeriod(testEvents(), 2010, 2000); err == nil || !strings.Contains(err.Error(), "void") {
		t.Errorf("expected a void period error, got %v", err)
	}
}

func TestPrepareBase(t *testing.T) {
	events := PrepareBase(testEvents(), "1970_2015")
	if diff := pretty.Diff(clusters(events), []int64{2, 3, 1, 4}); len(diff) != 0 {
		t.Error(diff)
	}
	for _, e := range events {
		if e.Period != "1970_2015" || e.Year != e.DateStart.Year() {
			t.Errorf("event %d: period %q, year %d", e.FinalCluster, e.Period, e.Year)
		}
	}
	r := RestrictToRegions(events, []string{"FR", "IT"})
	if diff := pretty.Diff(clusters(r), []int64{3, 1, 4}); len(diff) != 0 {
		t.Error(diff)
	}
	if diff := pretty.Diff(Regions(events), []string{"DE", "FR", "IT"}); len(diff) != 0 {
		t.Error(diff)
	}
}

func sameEvents(t *testing.T, got, want []Event) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d events; want %d", len(got), len(want))
	}
	for i := range want {
		g, w := got[i], want[i]
		if !math.IsNaN(w.ProtectionLevel) || !math.IsNaN(g.ProtectionLevel) {
			if g.ProtectionLevel != w.ProtectionLevel {
				t.Errorf("event %d: protection level %g; want %g", i, g.ProtectionLevel, w.ProtectionLevel)
			}
		}
		g.ProtectionLevel, w.ProtectionLevel = 0, 0
		if !g.DateStart.Equal(w.DateStart) {
			t.Errorf("event %d: date %v; want %v", i, g.DateStart, w.DateStart)
		}
		g.DateStart, w.DateStart = time.Time{}, time.Time{}
		if diff := pretty.Diff(g, w); len(diff) != 0 {
			t.Errorf("event %d: %v", i, diff)
		}
	}
}

func TestEventsCSV(t *testing.T) {
	want := PrepareBase(testEvents(), "1970_2015")
	var buf bytes.Buffer
	if err := WriteEventsCSV(&buf, want); err != nil {
		t.Fatal(err)
	}
	got, err := ReadEventsCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	sameEvents(t, got, want)

	_, err = ReadEventsCSV(strings.NewReader("final_cluster,mrio_region\n1,FR\n"))
	if err == nil {
		t.Error("expected a missing column error")
	}
}

func TestEventsFiles(t *testing.T) {
	dir := t.TempDir()
	want := testEvents()
	want[0].ProtectionLevel = 100
	want[0].Protected = true
	for _, name := range []string{"events.parquet", "events.csv"} {
		path := filepath.Join(dir, "out", name)
		if err := WriteEvents(path, want); err != nil {
			t.Fatal(err)
		}
		got, err := ReadEvents(path)
		if err != nil {
			t.Fatal(err)
		}
		sameEvents(t, got, want)
	}
	if err := WriteEvents(filepath.Join(dir, "events.xls"), want); err == nil {
		t.Error("expected an unsupported format error")
	}
	if err := CheckCatalogue(filepath.Join(dir, "out", "events.parquet")); err != nil {
		t.Error(err)
	}
}

func TestReadRepresentatives(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reps.csv")
	writeFile(t, path, "mrio_region,class,final_cluster\nFR,max,3\nFR,median,1.0\n")
	reps, err := ReadRepresentatives(path)
	if err != nil {
		t.Fatal(err)
	}
	want := []Representative{
		{MrioRegion: "FR", Class: "max", FinalCluster: 3},
		{MrioRegion: "FR", Class: "median", FinalCluster: 1},
	}
	if diff := pretty.Diff(reps, want); len(diff) != 0 {
		t.Error(diff)
	}
}

func writeProtection(t *testing.T, path string) {
	t.Helper()
	e, err := shp.NewEncoderFromFields(path, goshp.POLYGON, goshp.FloatField(DefaultProtectionField, 14, 8))
	if err != nil {
		t.Fatal(err)
	}
	square := func(x0, y0, size float64) geom.Polygon {
		return geom.Polygon{{
			{X: x0, Y: y0}, {X: x0 + size, Y: y0}, {X: x0 + size, Y: y0 + size},
			{X: x0, Y: y0 + size}, {X: x0, Y: y0},
		}}
	}
	if err := e.EncodeFields(square(0, 0, 10), 100.); err != nil {
		t.Fatal(err)
	}
	if err := e.EncodeFields(square(20, 20, 10), 10.); err != nil {
		t.Fatal(err)
	}
	e.Close()
}

func TestProtection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flopros.shp")
	writeProtection(t, path)
	p, err := LoadProtection(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if l, ok := p.Level(5, 5); !ok || l != 100 {
		t.Errorf("level = %g, %v; want 100", l, ok)
	}
	if _, ok := p.Level(15, 15); ok {
		t.Error("location should not be protected")
	}
	if l, ok := p.Level(10, 5); ok {
		t.Errorf("a location on the edge got level %g", l)
	}

	events := p.AddProtection(testEvents())
	var protected []bool
	for _, e := range events {
		protected = append(protected, e.Protected)
	}
	// Return periods 50 and 200 against 100, 20 against 10, no area.
	if diff := pretty.Diff(protected, []bool{true, false, false, false}); len(diff) != 0 {
		t.Error(diff)
	}
	if events[2].ProtectionLevel != 10 || !math.IsNaN(events[3].ProtectionLevel) {
		t.Errorf("levels: %g, %g", events[2].ProtectionLevel, events[3].ProtectionLevel)
	}

	if _, err := LoadProtection(path, "FLD_PROT"); err == nil {
		t.Error("expected a missing field error")
	}
}

func TestCheckCatalogue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.csv")
	writeFile(t, path, "final_cluster,return_period,long\n1,10,3\n")
	if err := CheckCatalogue(path); err == nil {
		t.Error("expected a missing latitude error")
	}
}
