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
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spjuhel/BoARIO-inputs/internal/hash"
)

// saved is the on-disk representation of an IOSystem.
type saved struct {
	Fingerprint string
	System      IOSystem
}

// Save writes m to w in gob format, along with a fingerprint of
// its contents.
func (m *IOSystem) Save(w io.Writer) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("mrio.IOSystem.Save: %v", err)
	}
	e := gob.NewEncoder(w)
	if err := e.Encode(saved{Fingerprint: hash.Hash(*m), System: *m}); err != nil {
		return fmt.Errorf("mrio.IOSystem.Save: %v", err)
	}
	return nil
}

// Load reads an IOSystem previously written by Save.
func Load(r io.Reader) (*IOSystem, error) {
	dec := gob.NewDecoder(r)
	var s saved
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("mrio.Load: %v", err)
	}
	if got := hash.Hash(s.System); got != s.Fingerprint {
		return nil, fmt.Errorf("mrio.Load: fingerprint mismatch (%s != %s); the file may be corrupted", got, s.Fingerprint)
	}
	m := s.System
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("mrio.Load: %v", err)
	}
	return &m, nil
}

// SaveFile saves m to the given path, creating the parent directory
// if needed.
func (m *IOSystem) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("mrio: creating output directory: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("mrio: creating output file: %v", err)
	}
	if err := m.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadFile loads an IOSystem from the given path.
func LoadFile(path string) (*IOSystem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mrio: opening saved table: %v", err)
	}
	defer f.Close()
	return Load(f)
}
