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
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"github.com/SnellerInc/layout"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Encoder writes a layout.Library as an OASIS stream.
type Encoder struct {
	// Cblock enables DEFLATE compression of cell bodies.
	Cblock bool
	// Level is the DEFLATE level used for CBLOCK records;
	// zero selects the default level.
	Level int
	// Logger, when non-nil, receives warnings about
	// unrepresentable elements.
	Logger *log.Logger
}

func (e *Encoder) logf(format string, args ...interface{}) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}

// EncodeFile writes lib to the OASIS file at path.
func (e *Encoder) EncodeFile(lib *layout.Library, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("oasis: %w", err)
	}
	err = e.Encode(lib, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// encodeState carries the per-file encoder state: the output
// stream and the interning tables emitted at end of file.
type encodeState struct {
	cfg     *Encoder
	w       *writer
	scaling float64

	cellIndex map[string]uint64

	textIDs     map[string]uint64
	propNameIDs map[string]uint64
	propStrIDs  map[string]uint64
}

// intern returns the table id for key, assigning the next one
// on first sight.
func intern(t map[string]uint64, key string) uint64 {
	if id, ok := t[key]; ok {
		return id
	}
	id := uint64(len(t))
	t[key] = id
	return id
}

// byID returns the table keys ordered by assigned id.
func byID(t map[string]uint64) []string {
	keys := maps.Keys(t)
	slices.SortFunc(keys, func(a, b string) bool { return t[a] < t[b] })
	return keys
}

// Encode writes lib to w.
func (e *Encoder) Encode(lib *layout.Library, w io.Writer) error {
	s := newWriter(w)
	st := &encodeState{
		cfg:         e,
		w:           s,
		scaling:     lib.Unit / lib.Precision,
		cellIndex:   make(map[string]uint64, len(lib.Cells)),
		textIDs:     make(map[string]uint64),
		propNameIDs: make(map[string]uint64),
		propStrIDs:  make(map[string]uint64),
	}
	if _, err := s.Write([]byte(magic)); err != nil {
		return fmt.Errorf("oasis: %w", err)
	}
	if err := writeString(s, version); err != nil {
		return fmt.Errorf("oasis: %w", err)
	}
	if err := writeReal(s, 1e-6/lib.Precision); err != nil {
		return fmt.Errorf("oasis: %w", err)
	}
	// table offsets are deferred to the END record
	if err := s.WriteByte(1); err != nil {
		return fmt.Errorf("oasis: %w", err)
	}
	if err := st.properties(lib.Properties); err != nil {
		return fmt.Errorf("oasis: %w", err)
	}

	for i, cell := range lib.Cells {
		st.cellIndex[cell.Name] = uint64(i)
	}
	if len(lib.RawCells) > 0 {
		e.logf("oasis: raw cells cannot be represented in an OASIS file")
	}

	level := e.Level
	if level == 0 {
		level = 6
	}
	for i, cell := range lib.Cells {
		if err := s.WriteByte(uint8(recCELLRefNum)); err != nil {
			return fmt.Errorf("oasis: %w", err)
		}
		if err := writeUint(s, uint64(i)); err != nil {
			return fmt.Errorf("oasis: %w", err)
		}
		if e.Cblock {
			s.beginStage()
		}
		if err := st.cell(cell); err != nil {
			return fmt.Errorf("oasis: %w", err)
		}
		if e.Cblock {
			if err := s.endStage(level); err != nil {
				return fmt.Errorf("oasis: %w", err)
			}
		}
	}

	if err := st.tables(lib); err != nil {
		return fmt.Errorf("oasis: %w", err)
	}
	if err := s.flush(); err != nil {
		return fmt.Errorf("oasis: %w", err)
	}
	return nil
}

// cell writes the body of one cell.
func (st *encodeState) cell(cell *layout.Cell) error {
	for _, p := range cell.Polygons {
		if err := st.polygon(p); err != nil {
			return err
		}
	}
	for _, p := range cell.FlexPaths {
		if err := st.path(p.Spine, p.Elements, &p.Repetition, p.Properties, p.GDSIIPath, p.ToPolygons); err != nil {
			return err
		}
	}
	for _, p := range cell.RobustPaths {
		if err := st.path(p.Spine, p.Elements, &p.Repetition, p.Properties, p.GDSIIPath, p.ToPolygons); err != nil {
			return err
		}
	}
	for _, ref := range cell.References {
		if err := st.reference(ref); err != nil {
			return err
		}
	}
	for _, l := range cell.Labels {
		if err := st.label(l); err != nil {
			return err
		}
	}
	return nil
}

func (st *encodeState) coordPair(x, y float64) error {
	ix, iy := ipoint(layout.Vec2{X: x, Y: y}, st.scaling)
	if err := writeInt(st.w, ix); err != nil {
		return err
	}
	return writeInt(st.w, iy)
}

func (st *encodeState) polygon(p *layout.Polygon) error {
	w := st.w
	hasRep := p.Repetition.Size() > 1
	if min, dim, ok := p.IsRectangle(); ok {
		info := uint8(0x7b)
		square := dim.X == dim.Y
		if square {
			info = 0xfb &^ 0x20
		}
		if hasRep {
			info |= 0x04
		}
		if err := w.WriteByte(uint8(recRECTANGLE)); err != nil {
			return err
		}
		if err := w.WriteByte(info); err != nil {
			return err
		}
		if err := writeUint(w, uint64(p.Layer)); err != nil {
			return err
		}
		if err := writeUint(w, uint64(p.Datatype)); err != nil {
			return err
		}
		wdt, hgt := ipoint(dim, st.scaling)
		if err := writeUint(w, uint64(wdt)); err != nil {
			return err
		}
		if !square {
			if err := writeUint(w, uint64(hgt)); err != nil {
				return err
			}
		}
		if err := st.coordPair(min.X, min.Y); err != nil {
			return err
		}
		if hasRep {
			if err := writeRepetition(w, &p.Repetition, st.scaling); err != nil {
				return err
			}
		}
		return st.properties(p.Properties)
	}
	info := uint8(0x3b)
	if hasRep {
		info |= 0x04
	}
	if err := w.WriteByte(uint8(recPOLYGON)); err != nil {
		return err
	}
	if err := w.WriteByte(info); err != nil {
		return err
	}
	if err := writeUint(w, uint64(p.Layer)); err != nil {
		return err
	}
	if err := writeUint(w, uint64(p.Datatype)); err != nil {
		return err
	}
	base := p.Points[0]
	rel := make([]layout.Vec2, len(p.Points)-1)
	for i := 1; i < len(p.Points); i++ {
		rel[i-1] = p.Points[i].Sub(base)
	}
	if err := writePointList(w, rel, st.scaling, true); err != nil {
		return err
	}
	if err := st.coordPair(base.X, base.Y); err != nil {
		return err
	}
	if hasRep {
		if err := writeRepetition(w, &p.Repetition, st.scaling); err != nil {
			return err
		}
	}
	return st.properties(p.Properties)
}

func (st *encodeState) path(spine []layout.Vec2, elements []layout.PathElement, rep *layout.Repetition, props []*layout.Property, native bool, tess func() []*layout.Polygon) error {
	if !native {
		for _, poly := range tess() {
			if err := st.polygon(poly); err != nil {
				return err
			}
		}
		return nil
	}
	if len(spine) == 0 {
		return nil
	}
	w := st.w
	hasRep := rep.Size() > 1
	for i := range elements {
		el := &elements[i]
		halfWidth := 0.0
		if len(el.HalfWidthAndOffset) > 0 {
			halfWidth = el.HalfWidthAndOffset[0].X
		}
		info := uint8(0xfb)
		if hasRep {
			info |= 0x04
		}
		if err := w.WriteByte(uint8(recPATH)); err != nil {
			return err
		}
		if err := w.WriteByte(info); err != nil {
			return err
		}
		if err := writeUint(w, uint64(el.Layer)); err != nil {
			return err
		}
		if err := writeUint(w, uint64(el.Datatype)); err != nil {
			return err
		}
		ihw, _ := ipoint(layout.Vec2{X: halfWidth}, st.scaling)
		if err := writeUint(w, uint64(ihw)); err != nil {
			return err
		}
		var scheme uint8
		var ext layout.Vec2
		switch el.EndType {
		case layout.EndFlush:
			scheme = 0x01 | 0x01<<2
		case layout.EndHalfWidth, layout.EndRound:
			// OASIS has no round ends
			scheme = 0x02 | 0x02<<2
		default:
			scheme = 0x03 | 0x03<<2
			ext = el.EndExtensions
		}
		if err := w.WriteByte(scheme); err != nil {
			return err
		}
		if scheme&0x03 == 0x03 {
			x, y := ipoint(ext, st.scaling)
			if err := writeInt(w, x); err != nil {
				return err
			}
			if err := writeInt(w, y); err != nil {
				return err
			}
		}
		base := spine[0]
		rel := make([]layout.Vec2, len(spine)-1)
		for j := 1; j < len(spine); j++ {
			rel[j-1] = spine[j].Sub(base)
		}
		if err := writePointList(w, rel, st.scaling, false); err != nil {
			return err
		}
		if err := st.coordPair(base.X, base.Y); err != nil {
			return err
		}
		if hasRep {
			if err := writeRepetition(w, rep, st.scaling); err != nil {
				return err
			}
		}
		if err := st.properties(props); err != nil {
			return err
		}
	}
	return nil
}

func (st *encodeState) reference(ref *layout.Reference) error {
	if ref.Kind == layout.RefRawCell {
		st.cfg.logf("oasis: reference to a raw cell cannot be used in an OASIS file")
		return nil
	}
	w := st.w
	name := ref.TargetName()
	index, known := st.cellIndex[name]
	info := uint8(0xb0)
	if known {
		info |= 0x40
	}
	hasRep := ref.Repetition.Size() > 1
	if hasRep {
		info |= 0x08
	}
	if ref.XReflection {
		info |= 0x01
	}
	m, compact := layout.MultipleOfPiOver2(ref.Rotation)
	transform := ref.Magnification != 1 || !compact
	if !transform {
		info |= uint8(0x03&((m%4)+4)) << 1
		if err := w.WriteByte(uint8(recPLACEMENT)); err != nil {
			return err
		}
		if err := w.WriteByte(info); err != nil {
			return err
		}
	} else {
		if ref.Magnification != 1 {
			info |= 0x04
		}
		if ref.Rotation != 0 {
			info |= 0x02
		}
		if err := w.WriteByte(uint8(recPLACEMENTTransform)); err != nil {
			return err
		}
		if err := w.WriteByte(info); err != nil {
			return err
		}
	}
	if known {
		if err := writeUint(w, index); err != nil {
			return err
		}
	} else {
		if err := writeString(w, name); err != nil {
			return err
		}
	}
	if transform {
		if ref.Magnification != 1 {
			if err := writeReal(w, ref.Magnification); err != nil {
				return err
			}
		}
		if ref.Rotation != 0 {
			if err := writeReal(w, ref.Rotation*180/math.Pi); err != nil {
				return err
			}
		}
	}
	if err := st.coordPair(ref.Origin.X, ref.Origin.Y); err != nil {
		return err
	}
	if hasRep {
		if err := writeRepetition(w, &ref.Repetition, st.scaling); err != nil {
			return err
		}
	}
	return st.properties(ref.Properties)
}

func (st *encodeState) label(l *layout.Label) error {
	w := st.w
	info := uint8(0x7b)
	hasRep := l.Repetition.Size() > 1
	if hasRep {
		info |= 0x04
	}
	if err := w.WriteByte(uint8(recTEXT)); err != nil {
		return err
	}
	if err := w.WriteByte(info); err != nil {
		return err
	}
	if err := writeUint(w, intern(st.textIDs, l.Text)); err != nil {
		return err
	}
	if err := writeUint(w, uint64(l.Layer)); err != nil {
		return err
	}
	if err := writeUint(w, uint64(l.Texttype)); err != nil {
		return err
	}
	if err := st.coordPair(l.Origin.X, l.Origin.Y); err != nil {
		return err
	}
	if hasRep {
		if err := writeRepetition(w, &l.Repetition, st.scaling); err != nil {
			return err
		}
	}
	return st.properties(l.Properties)
}

// properties emits PROPERTY records for every property in the
// list, interning names and string values into the end-of-file
// tables.
func (st *encodeState) properties(props []*layout.Property) error {
	w := st.w
	for _, p := range props {
		info := uint8(0x06) // explicit name, by reference number
		count := len(p.Values)
		if count >= 15 {
			info |= 0xf0
		} else {
			info |= uint8(count) << 4
		}
		if err := w.WriteByte(uint8(recPROPERTY)); err != nil {
			return err
		}
		if err := w.WriteByte(info); err != nil {
			return err
		}
		if err := writeUint(w, intern(st.propNameIDs, p.Name)); err != nil {
			return err
		}
		if count >= 15 {
			if err := writeUint(w, uint64(count)); err != nil {
				return err
			}
		}
		for _, v := range p.Values {
			switch v.Type {
			case layout.PropReal:
				if err := writeReal(w, v.Real); err != nil {
					return err
				}
			case layout.PropUnsigned:
				if err := w.WriteByte(dtUnsignedInteger); err != nil {
					return err
				}
				if err := writeUint(w, v.Unsigned); err != nil {
					return err
				}
			case layout.PropSigned:
				if err := w.WriteByte(dtSignedInteger); err != nil {
					return err
				}
				if err := writeInt(w, v.Signed); err != nil {
					return err
				}
			case layout.PropString:
				if err := w.WriteByte(dtReferenceB); err != nil {
					return err
				}
				if err := writeUint(w, intern(st.propStrIDs, string(v.Bytes))); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// tables emits the end-of-file name tables, the END record,
// the deferred table-offsets, padding to a 256-byte END
// block, and the null validation byte.
func (st *encodeState) tables(lib *layout.Library) error {
	w := st.w

	var cellNameOffset uint64
	if len(lib.Cells) > 0 {
		cellNameOffset = w.offset()
	}
	for _, cell := range lib.Cells {
		if err := w.WriteByte(uint8(recCELLNAMEImplicit)); err != nil {
			return err
		}
		if err := writeString(w, cell.Name); err != nil {
			return err
		}
		if err := st.properties(cell.Properties); err != nil {
			return err
		}
	}

	var textStringOffset uint64
	if len(st.textIDs) > 0 {
		textStringOffset = w.offset()
	}
	for _, text := range byID(st.textIDs) {
		if err := w.WriteByte(uint8(recTEXTSTRING)); err != nil {
			return err
		}
		if err := writeString(w, text); err != nil {
			return err
		}
		if err := writeUint(w, st.textIDs[text]); err != nil {
			return err
		}
	}

	var propNameOffset uint64
	if len(st.propNameIDs) > 0 {
		propNameOffset = w.offset()
	}
	for _, name := range byID(st.propNameIDs) {
		if err := w.WriteByte(uint8(recPROPNAME)); err != nil {
			return err
		}
		if err := writeString(w, name); err != nil {
			return err
		}
		if err := writeUint(w, st.propNameIDs[name]); err != nil {
			return err
		}
	}

	var propStringOffset uint64
	if len(st.propStrIDs) > 0 {
		propStringOffset = w.offset()
	}
	for _, s := range byID(st.propStrIDs) {
		if err := w.WriteByte(uint8(recPROPSTRINGImplicit)); err != nil {
			return err
		}
		if err := writeString(w, s); err != nil {
			return err
		}
	}

	if err := w.WriteByte(uint8(recEND)); err != nil {
		return err
	}
	// END record byte (1) + table-offsets + padding string
	// length (2) + padding + validation byte (1) = 256
	padLen := 252 + w.offset()

	offsets := []uint64{cellNameOffset, textStringOffset, propNameOffset, propStringOffset}
	for _, off := range offsets {
		if err := w.WriteByte(1); err != nil {
			return err
		}
		if err := writeUint(w, off); err != nil {
			return err
		}
	}
	// LAYERNAME and XNAME tables are always empty
	for i := 0; i < 2; i++ {
		if err := w.WriteByte(1); err != nil {
			return err
		}
		if err := w.WriteByte(0); err != nil {
			return err
		}
	}

	padLen -= w.offset()
	if err := writeUint(w, padLen); err != nil {
		return err
	}
	for ; padLen > 0; padLen-- {
		if err := w.WriteByte(0); err != nil {
			return err
		}
	}
	// validation scheme 0: no signature
	return w.WriteByte(0)
}
