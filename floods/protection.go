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
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
)

// DefaultProtectionField is the merged river flood protection layer of
// the Flopros database.
const DefaultProtectionField = "MerL_Riv"

// lonLat is the spatial reference of the flood catalogue coordinates.
const lonLat = "+proj=longlat +datum=WGS84 +no_defs"

type protectionArea struct {
	geom.Polygonal
	level float64
}

// Protection is an index of flood protection areas.
type Protection struct {
	index *rtree.Rtree
	n     int
}

// s2f parses a dbf number; dbf null values are NaN.
func s2f(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.Contains(s, "*") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// LoadProtection loads the protection levels stored in field of the
// polygons in the given shapefile. Polygons are converted to longitude
// and latitude when the shapefile has a projection file.
func LoadProtection(shapefile, field string) (*Protection, error) {
	if field == "" {
		field = DefaultProtectionField
	}
	d, err := shp.NewDecoder(shapefile)
	if err != nil {
		return nil, fmt.Errorf("floods: opening protection shapefile: %v", err)
	}
	defer d.Close()

	var trans proj.Transformer
	prj := strings.TrimSuffix(shapefile, ".shp") + ".prj"
	if _, err := os.Stat(prj); err == nil {
		src, err := d.SR()
		if err != nil {
			return nil, fmt.Errorf("floods: protection projection: %v", err)
		}
		dst, err := proj.Parse(lonLat)
		if err != nil {
			return nil, err
		}
		if trans, err = src.NewTransform(dst); err != nil {
			return nil, fmt.Errorf("floods: protection projection: %v", err)
		}
	}

	p := &Protection{index: rtree.NewTree(25, 50)}
	for {
		g, fields, more := d.DecodeRowFields(field)
		if !more {
			break
		}
		s, ok := fields[field]
		if !ok {
			return nil, fmt.Errorf("floods: protection shapefile has no %q field (ie merged river flood protection layer)", field)
		}
		level, err := s2f(s)
		if err != nil {
			return nil, fmt.Errorf("floods: protection level: %v", err)
		}
		if trans != nil {
			if g, err = g.Transform(trans); err != nil {
				return nil, err
			}
		}
		poly, ok := g.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("floods: protection shapes need to be polygons, got %T", g)
		}
		p.index.Insert(&protectionArea{Polygonal: poly, level: level})
		p.n++
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("floods: reading protection shapefile: %v", err)
	}
	Log.WithField("polygons", p.n).Info("loaded flood protection")
	return p, nil
}

// Level returns the protection level at the given location, from the
// first polygon strictly containing it. Points on an edge are outside.
func (p *Protection) Level(long, lat float64) (level float64, ok bool) {
	pt := geom.Point{X: long, Y: lat}
	for _, c := range p.index.SearchIntersect(pt.Bounds()) {
		a := c.(*protectionArea)
		if pt.Within(a.Polygonal) == geom.Inside {
			return a.level, true
		}
	}
	return math.NaN(), false
}

// AddProtection sets the protection level of each event and whether the
// event is protected, i.e. its return period is lower than the level.
// Events outside of every protection area are not protected.
func (p *Protection) AddProtection(events []Event) []Event {
	o := make([]Event, len(events))
	var matched int
	for i, e := range events {
		level, ok := p.Level(e.Long, e.Lat)
		if ok {
			matched++
		}
		e.ProtectionLevel = level
		// Comparisons with NaN are false.
		e.Protected = e.ReturnPeriod < level
		o[i] = e
	}
	Log.WithField("matched", matched).WithField("events", len(events)).Info("added protection levels")
	return o
}

// CheckCatalogue returns an error if the flood catalogue at path lacks a
// column needed to add protection levels.
func CheckCatalogue(path string) error {
	if strings.HasSuffix(strings.ToLower(path), ".parquet") {
		return requireParquetColumns(path, ColReturnPeriod, ColLat, ColLong)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("floods: %v", err)
	}
	defer f.Close()
	df, err := readRecords(f)
	if err != nil {
		return fmt.Errorf("floods: %v", err)
	}
	if !hasColumn(df, ColReturnPeriod) {
		return fmt.Errorf("floods: catalogue has no %q column", ColReturnPeriod)
	}
	if !hasColumn(df, ColLat) || !hasColumn(df, ColLong) {
		return fmt.Errorf("floods: catalogue lacks either %q, %q or both column(s)", ColLat, ColLong)
	}
	return nil
}
