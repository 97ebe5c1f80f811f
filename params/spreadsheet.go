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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/tealeg/xlsx"
)

var (
	spreadsheetCache     *requestcache.Cache
	spreadsheetCacheOnce sync.Once
)

// loadSpreadsheet opens the given xlsx file, keeping recently used
// files in memory. A file modified on disk is read again.
func loadSpreadsheet(fileName string) (*xlsx.File, error) {
	spreadsheetCacheOnce.Do(func() {
		spreadsheetCache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
			filename := req.(string)
			f, err := xlsx.OpenFile(filename)
			if err != nil {
				return nil, fmt.Errorf("params: opening spreadsheet: %v", err)
			}
			return f, nil
		}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(20))
	})
	if ext := strings.ToLower(filepath.Ext(fileName)); ext != ".xlsx" {
		return nil, fmt.Errorf("params: spreadsheet %s: unsupported format %q (only .xlsx files can be read)", fileName, ext)
	}
	info, err := os.Stat(fileName)
	if err != nil {
		return nil, fmt.Errorf("params: opening spreadsheet: %v", err)
	}
	key := fmt.Sprintf("%s_%d_%d", fileName, info.ModTime().UnixNano(), info.Size())
	r := spreadsheetCache.NewRequest(context.Background(), fileName, key)
	fI, err := r.Result()
	if err != nil {
		return nil, err
	}
	return fI.(*xlsx.File), nil
}

// table is a spreadsheet sheet read as rows keyed by column header.
type table struct {
	header []string
	rows   [][]string
}

// readTable reads the given sheet, or the first one if sheet is empty.
// The first row holds the column headers and reading stops at the first
// empty row.
func readTable(fileName, sheet string) (*table, error) {
	f, err := loadSpreadsheet(fileName)
	if err != nil {
		return nil, err
	}
	var s *xlsx.Sheet
	if sheet == "" {
		if len(f.Sheets) == 0 {
			return nil, fmt.Errorf("params: spreadsheet %s has no sheets", fileName)
		}
		s = f.Sheets[0]
	} else {
		var ok bool
		if s, ok = f.Sheet[sheet]; !ok {
			return nil, fmt.Errorf("params: spreadsheet %s has no sheet %s", fileName, sheet)
		}
	}
	t := new(table)
	for j := 0; j < s.MaxCol; j++ {
		t.header = append(t.header, strings.TrimSpace(s.Cell(0, j).Value))
	}
	for i := 1; i < s.MaxRow; i++ {
		row := make([]string, len(t.header))
		empty := true
		for j := range t.header {
			row[j] = strings.TrimSpace(s.Cell(i, j).Value)
			if row[j] != "" {
				empty = false
			}
		}
		if empty {
			break
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// column returns the values of the column with the given header.
func (t *table) column(name string) ([]string, error) {
	for j, h := range t.header {
		if h == name {
			o := make([]string, len(t.rows))
			for i, row := range t.rows {
				o[i] = row[j]
			}
			return o, nil
		}
	}
	return nil, fmt.Errorf("params: missing column %q (have %v)", name, t.header)
}

// columnAt returns the values of the column at position j.
func (t *table) columnAt(j int) ([]string, error) {
	if j >= len(t.header) {
		return nil, fmt.Errorf("params: sheet has %d columns; want at least %d", len(t.header), j+1)
	}
	o := make([]string, len(t.rows))
	for i, row := range t.rows {
		o[i] = row[j]
	}
	return o, nil
}
