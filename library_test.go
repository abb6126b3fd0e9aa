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

import "testing"

func TestResolveReferences(t *testing.T) {
	a := &Cell{Name: "A"}
	b := &Cell{Name: "B", References: []*Reference{
		{Kind: RefName, Name: "A", Magnification: 1},
		{Kind: RefName, Name: "MISSING", Magnification: 1},
	}}
	lib := &Library{Name: "TEST", Unit: 1e-6, Precision: 1e-9, Cells: []*Cell{a, b}}

	left := lib.ResolveReferences()
	if len(left) != 1 || left[0].Name != "MISSING" {
		t.Fatalf("unresolved: %v", left)
	}
	ref := b.References[0]
	if ref.Kind != RefCell || ref.Cell != a {
		t.Errorf("reference to A not resolved: kind %d", ref.Kind)
	}
	if b.References[1].Kind != RefName {
		t.Error("missing reference must stay by-name")
	}
}

func TestTopLevel(t *testing.T) {
	leaf := &Cell{Name: "LEAF"}
	mid := &Cell{Name: "MID", References: []*Reference{{Kind: RefCell, Cell: leaf, Magnification: 1}}}
	top := &Cell{Name: "TOP", References: []*Reference{{Kind: RefCell, Cell: mid, Magnification: 1}}}
	lib := &Library{Name: "T", Unit: 1e-6, Precision: 1e-9, Cells: []*Cell{leaf, mid, top}}

	cells, raws := lib.TopLevel()
	if len(raws) != 0 {
		t.Fatalf("unexpected raw cells: %v", raws)
	}
	if len(cells) != 1 || cells[0] != top {
		t.Fatalf("top level = %v", cells)
	}
}

func TestDependencies(t *testing.T) {
	leaf := &Cell{Name: "LEAF"}
	mid := &Cell{Name: "MID", References: []*Reference{{Kind: RefCell, Cell: leaf, Magnification: 1}}}
	top := &Cell{Name: "TOP", References: []*Reference{{Kind: RefCell, Cell: mid, Magnification: 1}}}

	direct := make(map[string]*Cell)
	top.Dependencies(false, direct)
	if len(direct) != 1 || direct["MID"] != mid {
		t.Errorf("direct deps = %v", direct)
	}
	all := make(map[string]*Cell)
	top.Dependencies(true, all)
	if len(all) != 2 || all["LEAF"] != leaf {
		t.Errorf("recursive deps = %v", all)
	}
}
