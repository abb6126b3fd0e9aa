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

package oasis

import (
	"bytes"
	"math"
	"testing"

	"github.com/SnellerInc/layout"
)

func encode(t *testing.T, lib *layout.Library, cblock bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := Encoder{Cblock: cblock}
	if err := enc.Encode(lib, &buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decode(t *testing.T, buf []byte) *layout.Library {
	t.Helper()
	var dec Decoder
	lib, err := dec.Decode(bytes.NewReader(buf))
	if err != nil {
		t.Fatal(err)
	}
	return lib
}

func TestHeaderAndPrecision(t *testing.T) {
	lib := &layout.Library{Name: "X", Unit: 1e-6, Precision: 1e-9}
	buf := encode(t, lib, false)
	if !bytes.HasPrefix(buf, []byte(magic)) {
		t.Fatalf("bad magic %q", buf[:14])
	}
	if buf[len(buf)-1] != 0 {
		t.Error("missing null validation byte")
	}
	got := decode(t, buf)
	if !near(got.Precision, 1e-9) {
		t.Errorf("precision %g", got.Precision)
	}
	if got.Name != "LIB" {
		t.Errorf("library name %q (OASIS carries none)", got.Name)
	}
}

// TestPlacementCompact checks that a unit-magnification,
// quarter-turn placement uses the compact PLACEMENT record
// with the rotation in info bits 1-2, even when the target
// cell is absent from the library.
func TestPlacementCompact(t *testing.T) {
	cell := &layout.Cell{
		Name: "P",
		References: []*layout.Reference{{
			Kind:          layout.RefName,
			Name:          "C",
			Origin:        layout.Vec2{X: 3, Y: 4},
			Magnification: 1,
			Rotation:      math.Pi / 2,
		}},
	}
	lib := &layout.Library{Name: "L", Unit: 1e-6, Precision: 1e-9, Cells: []*layout.Cell{cell}}
	buf := encode(t, lib, false)

	idx := bytes.IndexByte(buf, uint8(recPLACEMENT))
	if idx < 0 {
		t.Fatal("no PLACEMENT record")
	}
	info := buf[idx+1]
	if info&0x06 != 0x02 {
		t.Errorf("rotation quadrant bits %#02x, want 0x02", info&0x06)
	}
	if info&0x30 != 0x30 {
		t.Errorf("x/y bits %#02x, want both set", info&0x30)
	}
	if bytes.IndexByte(buf, uint8(recPLACEMENTTransform)) >= 0 {
		t.Error("PLACEMENT_TRANSFORM must not be used")
	}

	got := decode(t, buf)
	ref := got.Cells[0].References[0]
	if ref.Kind != layout.RefName || ref.Name != "C" {
		t.Fatalf("reference %+v", ref)
	}
	if !near(ref.Rotation, math.Pi/2) || ref.Magnification != 1 {
		t.Errorf("rotation %g magnification %g", ref.Rotation, ref.Magnification)
	}
	if !nearPt(ref.Origin, layout.Vec2{X: 3, Y: 4}) {
		t.Errorf("origin %v", ref.Origin)
	}
}

func TestPlacementTransform(t *testing.T) {
	sub := &layout.Cell{Name: "S"}
	cell := &layout.Cell{
		Name: "P",
		References: []*layout.Reference{{
			Kind:          layout.RefCell,
			Cell:          sub,
			Origin:        layout.Vec2{X: -2, Y: 1},
			Magnification: 2.5,
			Rotation:      math.Pi / 6,
			XReflection:   true,
		}},
	}
	lib := &layout.Library{Name: "L", Unit: 1e-6, Precision: 1e-9, Cells: []*layout.Cell{sub, cell}}
	buf := encode(t, lib, false)
	if bytes.IndexByte(buf, uint8(recPLACEMENTTransform)) < 0 {
		t.Fatal("no PLACEMENT_TRANSFORM record")
	}
	got := decode(t, buf)
	ref := got.Cells[1].References[0]
	if ref.Kind != layout.RefCell || ref.Cell != got.Cells[0] {
		t.Fatalf("reference not resolved: %+v", ref)
	}
	if !near(ref.Magnification, 2.5) || !near(ref.Rotation, math.Pi/6) || !ref.XReflection {
		t.Errorf("transform (%g, %g, %v)", ref.Magnification, ref.Rotation, ref.XReflection)
	}
}

// TestCellNameByRefNumber covers the forward-reference path:
// a cell defined by reference number whose name arrives in
// the end-of-file table.
func TestCellNameByRefNumber(t *testing.T) {
	cell := &layout.Cell{
		Name:     "A",
		Polygons: []*layout.Polygon{layout.Rectangle(layout.Vec2{}, layout.Vec2{X: 1, Y: 1}, 0, 0)},
	}
	lib := &layout.Library{Name: "L", Unit: 1e-6, Precision: 1e-9, Cells: []*layout.Cell{cell}}
	// the encoder always writes CELL_REF_NUM bodies with the
	// CELLNAME table at end of file
	buf := encode(t, lib, false)
	if bytes.IndexByte(buf, uint8(recCELLRefNum)) < 0 {
		t.Fatal("no CELL_REF_NUM record")
	}
	got := decode(t, buf)
	if len(got.Cells) != 1 || got.Cells[0].Name != "A" {
		t.Fatalf("cells %v", got.Cells)
	}
}

func sharedLayerLibrary() *layout.Library {
	mk := func(x float64) *layout.Polygon {
		return layout.Rectangle(layout.Vec2{X: x}, layout.Vec2{X: x + 1, Y: 2}, 7, 3)
	}
	cell := &layout.Cell{
		Name:     "MODAL",
		Polygons: []*layout.Polygon{mk(0), mk(10), mk(20)},
	}
	return &layout.Library{Name: "L", Unit: 1e-6, Precision: 1e-9, Cells: []*layout.Cell{cell}}
}

// TestCblockModalSharing writes three rectangles on the same
// (layer, datatype) into a compressed cell and checks that all
// three decode from the CBLOCK with that pair. The encoder
// writes layer and datatype explicitly in every RECTANGLE.
func TestCblockModalSharing(t *testing.T) {
	buf := encode(t, sharedLayerLibrary(), true)
	if bytes.IndexByte(buf, uint8(recCBLOCK)) < 0 {
		t.Fatal("no CBLOCK record")
	}
	got := decode(t, buf)
	polys := got.Cells[0].Polygons
	if len(polys) != 3 {
		t.Fatalf("%d polygons", len(polys))
	}
	for i, p := range polys {
		if p.Layer != 7 || p.Datatype != 3 {
			t.Errorf("polygon %d tagged (%d, %d)", i, p.Layer, p.Datatype)
		}
	}
}

// TestCblockEquivalence checks that compression is purely a
// transport change: both encodings decode identically.
func TestCblockEquivalence(t *testing.T) {
	path := &layout.FlexPath{
		Spine:      []layout.Vec2{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}},
		GDSIIPath:  true,
		ScaleWidth: true,
		Elements: []layout.PathElement{{
			Layer:              2,
			Datatype:           1,
			EndType:            layout.EndHalfWidth,
			HalfWidthAndOffset: []layout.Vec2{{X: 0.5}, {X: 0.5}, {X: 0.5}},
		}},
	}
	sub := &layout.Cell{Name: "S"}
	cell := &layout.Cell{
		Name: "C",
		Polygons: []*layout.Polygon{
			{
				Points:   []layout.Vec2{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 2}, {X: 2, Y: 2}, {X: 2, Y: 4}, {X: 0, Y: 4}},
				Layer:    1,
				Datatype: 0,
			},
		},
		FlexPaths: []*layout.FlexPath{path},
		References: []*layout.Reference{{
			Kind:          layout.RefCell,
			Cell:          sub,
			Origin:        layout.Vec2{X: 1, Y: 2},
			Magnification: 1,
			Repetition: layout.Repetition{
				Kind:    layout.RepRectangular,
				Columns: 2,
				Rows:    2,
				Spacing: layout.Vec2{X: 8, Y: 8},
			},
		}},
		Labels: []*layout.Label{{
			Text:          "t0",
			Layer:         3,
			Texttype:      1,
			Origin:        layout.Vec2{X: 0.5, Y: 0.5},
			Magnification: 1,
		}},
	}
	lib := &layout.Library{Name: "L", Unit: 1e-6, Precision: 1e-9, Cells: []*layout.Cell{sub, cell}}

	plain := decode(t, encode(t, lib, false))
	packed := decode(t, encode(t, lib, true))

	pc, cc := plain.Cells[1], packed.Cells[1]
	if len(pc.Polygons) != len(cc.Polygons) {
		t.Fatalf("polygon count %d vs %d", len(pc.Polygons), len(cc.Polygons))
	}
	for i := range pc.Polygons {
		a, b := pc.Polygons[i], cc.Polygons[i]
		if len(a.Points) != len(b.Points) {
			t.Fatalf("polygon %d: %d vs %d points", i, len(a.Points), len(b.Points))
		}
		for j := range a.Points {
			if a.Points[j] != b.Points[j] {
				t.Errorf("polygon %d vertex %d: %v vs %v", i, j, a.Points[j], b.Points[j])
			}
		}
	}
	ra, rb := pc.References[0], cc.References[0]
	if ra.Origin != rb.Origin || ra.Repetition.Size() != rb.Repetition.Size() {
		t.Error("reference placement differs between encodings")
	}
	if pc.Labels[0].Origin != cc.Labels[0].Origin || pc.Labels[0].Text != cc.Labels[0].Text {
		t.Error("label differs between encodings")
	}
	sa, sb := pc.FlexPaths[0], cc.FlexPaths[0]
	for i := range sa.Spine {
		if sa.Spine[i] != sb.Spine[i] {
			t.Errorf("spine %d: %v vs %v", i, sa.Spine[i], sb.Spine[i])
		}
	}
}

func TestModalPositionsResetPerCell(t *testing.T) {
	mk := func(name string, x float64) *layout.Cell {
		return &layout.Cell{
			Name:     name,
			Polygons: []*layout.Polygon{layout.Rectangle(layout.Vec2{X: x, Y: x}, layout.Vec2{X: x + 1, Y: x + 1}, 0, 0)},
		}
	}
	lib := &layout.Library{
		Name: "L", Unit: 1e-6, Precision: 1e-9,
		Cells: []*layout.Cell{mk("A", 100), mk("B", 0)},
	}
	got := decode(t, encode(t, lib, false))
	b := got.Cells[1].Polygons[0]
	if !nearPt(b.Points[0], layout.Vec2{}) {
		t.Errorf("cell B rectangle at %v; modal position leaked across cells", b.Points[0])
	}
}

func TestLabelAndPropertyTables(t *testing.T) {
	label := &layout.Label{
		Text:          "shared",
		Layer:         1,
		Texttype:      2,
		Origin:        layout.Vec2{X: 1, Y: 1},
		Magnification: 1,
	}
	label2 := &layout.Label{
		Text:          "shared",
		Layer:         1,
		Texttype:      2,
		Origin:        layout.Vec2{X: 2, Y: 2},
		Magnification: 1,
	}
	poly := layout.Rectangle(layout.Vec2{}, layout.Vec2{X: 1, Y: 1}, 0, 0)
	poly.Properties = []*layout.Property{{
		Name: "NOTE",
		Values: []*layout.PropertyValue{
			{Type: layout.PropString, Bytes: []byte("content")},
			{Type: layout.PropUnsigned, Unsigned: 42},
			{Type: layout.PropSigned, Signed: -7},
			{Type: layout.PropReal, Real: 2.5},
		},
	}}
	cell := &layout.Cell{
		Name:     "C",
		Polygons: []*layout.Polygon{poly},
		Labels:   []*layout.Label{label, label2},
	}
	lib := &layout.Library{Name: "L", Unit: 1e-6, Precision: 1e-9, Cells: []*layout.Cell{cell}}
	got := decode(t, encode(t, lib, false))

	ls := got.Cells[0].Labels
	if len(ls) != 2 || ls[0].Text != "shared" || ls[1].Text != "shared" {
		t.Fatalf("labels %+v", ls)
	}
	props := got.Cells[0].Polygons[0].Properties
	if len(props) != 1 || props[0].Name != "NOTE" {
		t.Fatalf("properties %+v", props)
	}
	vals := props[0].Values
	if len(vals) != 4 {
		t.Fatalf("%d values", len(vals))
	}
	if vals[0].Type != layout.PropString || string(vals[0].Bytes) != "content" {
		t.Errorf("value 0: %+v", vals[0])
	}
	if vals[1].Type != layout.PropUnsigned || vals[1].Unsigned != 42 {
		t.Errorf("value 1: %+v", vals[1])
	}
	if vals[2].Type != layout.PropSigned || vals[2].Signed != -7 {
		t.Errorf("value 2: %+v", vals[2])
	}
	if vals[3].Type != layout.PropReal || !near(vals[3].Real, 2.5) {
		t.Errorf("value 3: %+v", vals[3])
	}
}

// TestForwardReferences hand-crafts a stream where a
// placement uses a cell reference number whose CELLNAME
// binding arrives later, and a cell is named through the
// table after its body.
func TestForwardReferences(t *testing.T) {
	var buf bytes.Buffer
	w := newWriter(&buf)
	must := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	_, err := w.Write([]byte(magic))
	must(err)
	must(writeString(w, version))
	must(writeReal(w, 1000)) // 1nm grid
	must(w.WriteByte(1))

	// CELLNAME "A" bound to reference number 0 before use
	must(w.WriteByte(uint8(recCELLNAME)))
	must(writeString(w, "A"))
	must(writeUint(w, 0))

	// cell 0: named through the table, places cell 1 before
	// its name is known
	must(w.WriteByte(uint8(recCELLRefNum)))
	must(writeUint(w, 0))
	must(w.WriteByte(uint8(recPLACEMENT)))
	must(w.WriteByte(0xf0)) // explicit ref number, x, y
	must(writeUint(w, 1))
	must(writeInt(w, 500))
	must(writeInt(w, 600))

	// cell 1 body, name arrives afterwards
	must(w.WriteByte(uint8(recCELLRefNum)))
	must(writeUint(w, 1))
	must(w.WriteByte(uint8(recCELLNAME)))
	must(writeString(w, "B"))
	must(writeUint(w, 1))

	must(w.WriteByte(uint8(recEND)))
	must(w.flush())

	lib := decode(t, buf.Bytes())
	if len(lib.Cells) != 2 {
		t.Fatalf("%d cells", len(lib.Cells))
	}
	if lib.Cells[0].Name != "A" || lib.Cells[1].Name != "B" {
		t.Fatalf("cell names %q, %q", lib.Cells[0].Name, lib.Cells[1].Name)
	}
	ref := lib.Cells[0].References[0]
	if ref.Kind != layout.RefCell || ref.Cell != lib.Cells[1] {
		t.Fatalf("reference %+v", ref)
	}
	if !nearPt(ref.Origin, layout.Vec2{X: 0.5, Y: 0.6}) {
		t.Errorf("origin %v", ref.Origin)
	}
}

func near(a, b float64) bool {
	if b == 0 {
		return math.Abs(a) < 1e-12
	}
	return math.Abs(a-b) <= 1e-9*math.Abs(b)
}
