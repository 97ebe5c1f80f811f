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
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// Accepted names for each supported MRIO type.
var (
	EXIO3Types   = []string{"exiobase3", "exiobase", "exio3", "EXIO3", "EXIOBASE3", "EXIOBASE"}
	OECDTypes    = []string{"oecd", "OECD", "icio", "ICIO", "oecd-icio", "OECD-ICIO"}
	EURegioTypes = []string{"euregio", "EUREGIO"}
)

// AllTypes returns every accepted MRIO type name.
func AllTypes() []string {
	var o []string
	o = append(o, EXIO3Types...)
	o = append(o, OECDTypes...)
	return append(o, EURegioTypes...)
}

func contains(list []string, s string) bool {
	for _, l := range list {
		if l == s {
			return true
		}
	}
	return false
}

// Build parses the MRIO at path according to its type, computes the
// missing components and sorts its labels. year is required for OECD
// directories and EURegio tables, and ignored otherwise.
func Build(path, mrioType string, year int) (*IOSystem, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("mrio: MRIO file not found: %v", err)
	}
	Log.WithFields(logrus.Fields{"path": path, "type": mrioType}).Info("parsing MRIO")
	var (
		m   *IOSystem
		err error
	)
	switch {
	case contains(EXIO3Types, mrioType):
		m, err = ParseEXIOBASE3(path)
	case contains(OECDTypes, mrioType):
		m, err = ParseOECD(path, year)
	case contains(EURegioTypes, mrioType):
		m, err = ParseEURegio(path, year, true)
	default:
		return nil, fmt.Errorf("mrio: MRIO type (%s) not recognized. Possible types currently: %v", mrioType, AllTypes())
	}
	if err != nil {
		return nil, err
	}
	if err := m.CalcAll(); err != nil {
		return nil, err
	}
	m.LexicoReindex()
	return m, nil
}

// Open opens a table either saved by IOSystem.Save (".gob" or ".mrio")
// or in EXIOBASE3 format (".zip" or a directory).
func Open(path string) (*IOSystem, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("mrio: table not found: %v", err)
	}
	var m *IOSystem
	switch ext := filepath.Ext(path); {
	case info.IsDir() || ext == ".zip":
		m, err = ParseEXIOBASE3(path)
	case ext == ".gob" || ext == ".mrio":
		m, err = LoadFile(path)
	default:
		return nil, fmt.Errorf("mrio: file type (%s) not recognized (must be .zip, .gob, .mrio or a directory): %s", ext, path)
	}
	if err != nil {
		return nil, err
	}
	if m.A == nil {
		if err := m.CalcAll(); err != nil {
			return nil, err
		}
	}
	m.LexicoReindex()
	return m, nil
}

// source gives access to the files of a table stored either in
// a directory or in a zip archive.
type source interface {
	// open opens the first file whose base name satisfies match.
	open(match func(base string) bool) (io.ReadCloser, string, error)
	Close() error
}

type dirSource string

func (d dirSource) open(match func(string) bool) (io.ReadCloser, string, error) {
	var found string
	err := filepath.Walk(string(d), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if found == "" && !info.IsDir() && match(info.Name()) {
			found = path
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	if found == "" {
		return nil, "", os.ErrNotExist
	}
	f, err := os.Open(found)
	return f, found, err
}

func (d dirSource) Close() error { return nil }

type zipSource struct{ *zip.ReadCloser }

func (z zipSource) open(match func(string) bool) (io.ReadCloser, string, error) {
	for _, f := range z.File {
		if f.FileInfo().IsDir() || !match(filepath.Base(f.Name)) {
			continue
		}
		r, err := f.Open()
		return r, f.Name, err
	}
	return nil, "", os.ErrNotExist
}

func openSource(path string) (source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return dirSource(path), nil
	}
	z, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("mrio: opening archive: %v", err)
	}
	return zipSource{z}, nil
}

func named(name string) func(string) bool {
	return func(base string) bool { return base == name }
}

// parseFloat parses a table cell; empty cells are zero.
func parseFloat(s string, decimalComma bool) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if decimalComma {
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

// uniqueInOrder returns the distinct values of s in order of appearance.
func uniqueInOrder(s []string) []string {
	seen := make(map[string]bool)
	var o []string
	for _, v := range s {
		if !seen[v] {
			seen[v] = true
			o = append(o, v)
		}
	}
	return o
}

// label is a (region, item) pair labelling a row or column.
type label struct{ region, item string }

// place fills a matrix indexed by region-major (region, item) rows and
// columns from labelled data.
func place(rows, cols []label, data [][]float64, regions, rowItems, colItems []string) (*mat.Dense, error) {
	ri, ii, ci := indexLookup(regions), indexLookup(rowItems), indexLookup(colItems)
	if err := checkDims("table", len(regions)*len(rowItems), len(regions)*len(colItems)); err != nil {
		return nil, err
	}
	o := mat.NewDense(len(regions)*len(rowItems), len(regions)*len(colItems), nil)
	for i, rl := range rows {
		r, ok := ri[rl.region]
		if !ok {
			return nil, LabelError{Kind: "region", Name: rl.region}
		}
		s, ok := ii[rl.item]
		if !ok {
			return nil, LabelError{Kind: "sector", Name: rl.item}
		}
		row := o.RawRowView(r*len(rowItems) + s)
		for j, cl := range cols {
			cr, ok := ri[cl.region]
			if !ok {
				return nil, LabelError{Kind: "region", Name: cl.region}
			}
			c, ok := ci[cl.item]
			if !ok {
				return nil, LabelError{Kind: "column", Name: cl.item}
			}
			row[cr*len(colItems)+c] = data[i][j]
		}
	}
	return o, nil
}
