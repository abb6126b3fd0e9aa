// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

package layout

// RawCell is an opaque, pre-encoded GDSII cell blob
// (BGNSTR through ENDSTR). Raw cells are written verbatim by
// the GDSII encoder and cannot be represented in OASIS.
type RawCell struct {
	Name  string
	Bytes []byte
}

// Library is a named, ordered collection of cells.
//
// Unit is the size of a user unit in meters; Precision is the
// size of a database unit in meters. Both are strictly
// positive and Precision <= Unit.
type Library struct {
	Name       string
	Unit       float64
	Precision  float64
	Cells      []*Cell
	RawCells   []*RawCell
	Properties []*Property
}

// CellMap returns a name-to-cell map over the library.
func (lib *Library) CellMap() map[string]*Cell {
	m := make(map[string]*Cell, len(lib.Cells))
	for _, c := range lib.Cells {
		m[c.Name] = c
	}
	return m
}

// ResolveReferences rewrites every by-name reference whose
// target exists in the library into a direct cell pointer.
// It returns the references that remain unresolved.
func (lib *Library) ResolveReferences() []*Reference {
	m := lib.CellMap()
	var left []*Reference
	for _, c := range lib.Cells {
		for _, ref := range c.References {
			if ref.Kind != RefName {
				continue
			}
			if target, ok := m[ref.Name]; ok {
				ref.Kind = RefCell
				ref.Cell = target
				ref.Name = ""
			} else {
				left = append(left, ref)
			}
		}
	}
	return left
}

// TopLevel returns the cells and raw cells that are not
// referenced by any other cell in the library.
func (lib *Library) TopLevel() ([]*Cell, []*RawCell) {
	cellDeps := make(map[string]*Cell, 2*len(lib.Cells))
	rawDeps := make(map[string]*RawCell, 2*len(lib.RawCells))
	for _, c := range lib.Cells {
		c.Dependencies(false, cellDeps)
		c.RawDependencies(rawDeps)
	}
	var top []*Cell
	for _, c := range lib.Cells {
		if cellDeps[c.Name] != c {
			top = append(top, c)
		}
	}
	var rawTop []*RawCell
	for _, r := range lib.RawCells {
		if rawDeps[r.Name] != r {
			rawTop = append(rawTop, r)
		}
	}
	return top, rawTop
}
