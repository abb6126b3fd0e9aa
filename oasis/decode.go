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
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"github.com/SnellerInc/layout"
)

// Decoder reads an OASIS stream into a layout.Library.
//
// The zero value is a usable decoder with the native micron
// user unit.
type Decoder struct {
	// Unit, when positive, rescales the library to this user
	// unit (in meters) instead of the 1 micron default.
	Unit float64
	// Tolerance bounds the polygonal approximation error of
	// CIRCLE records, in user units.
	Tolerance float64
	// Logger, when non-nil, receives warnings about skipped
	// or unsupported records and unresolved references.
	Logger *log.Logger
}

// DecodeFile reads the OASIS file at path.
func (d *Decoder) DecodeFile(path string) (*layout.Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("oasis: %w", err)
	}
	defer f.Close()
	return d.Decode(f)
}

// nameEntry is one slot of a forward-referenceable name
// table. Entries own their bytes; resolution copies out.
type nameEntry struct {
	bytes []byte
	props []*layout.Property
}

// decodeState carries the per-file decoder state.
type decodeState struct {
	cfg    *Decoder
	r      *reader
	lib    *layout.Library
	factor float64
	modal  modal

	cell *layout.Cell
	// nextProp is where incoming PROPERTY records attach.
	nextProp *[]*layout.Property

	cellNames   []*nameEntry
	textStrings []*nameEntry
	propNames   []*nameEntry
	propStrings []*nameEntry

	// pending reference numbers for cells opened by
	// CELL_REF_NUM
	cellRefNum map[*layout.Cell]uint64

	unfinishedPropName  []*layout.Property
	unfinishedPropValue []*layout.PropertyValue
	unfinishedValueSet  map[*layout.PropertyValue]bool
}

func (d *Decoder) logf(format string, args ...interface{}) {
	if d.Logger != nil {
		d.Logger.Printf(format, args...)
	}
}

// Decode reads an OASIS stream from rd.
func (d *Decoder) Decode(rd io.Reader) (*layout.Library, error) {
	r := newReader(rd)
	lib := &layout.Library{Name: "LIB"}

	var hdr [14]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil || string(hdr[:]) != magic {
		return nil, errors.New("oasis: invalid header")
	}
	ver, err := readString(r)
	if err != nil {
		return nil, fmt.Errorf("oasis: %w", err)
	}
	if string(ver) != version {
		d.logf("oasis: unsupported file version %q", ver)
	}
	unitsPerMicron, err := readReal(r)
	if err != nil {
		return nil, fmt.Errorf("oasis: %w", err)
	}
	factor := 1 / unitsPerMicron
	lib.Precision = 1e-6 * factor
	if d.Unit > 0 {
		lib.Unit = d.Unit
		factor *= 1e-6 / d.Unit
	} else {
		lib.Unit = 1e-6
	}
	flag, err := readUint(r)
	if err != nil {
		return nil, fmt.Errorf("oasis: %w", err)
	}
	if flag == 0 {
		// inline offset table: six (flag, offset) pairs
		for i := 0; i < 12; i++ {
			if _, err := readUint(r); err != nil {
				return nil, fmt.Errorf("oasis: %w", err)
			}
		}
	}

	st := &decodeState{
		cfg:                d,
		r:                  r,
		lib:                lib,
		factor:             factor,
		cellRefNum:         make(map[*layout.Cell]uint64),
		unfinishedValueSet: make(map[*layout.PropertyValue]bool),
	}
	st.modal.absolutePos = true
	st.nextProp = &lib.Properties

	for {
		rec, err := r.ReadByte()
		if err == io.EOF {
			d.logf("oasis: missing END record")
			break
		}
		if err != nil {
			return nil, fmt.Errorf("oasis: %w", err)
		}
		if recordType(rec) == recEND {
			st.resolve()
			break
		}
		if err := st.record(recordType(rec)); err != nil {
			return nil, fmt.Errorf("oasis: %w", err)
		}
	}
	return lib, nil
}

// table returns a name table slot, growing the table as
// needed.
func table(t *[]*nameEntry, i uint64) *nameEntry {
	for uint64(len(*t)) <= i {
		*t = append(*t, nil)
	}
	if (*t)[i] == nil {
		(*t)[i] = &nameEntry{}
	}
	return (*t)[i]
}

// nameRecord handles the four name-table record pairs.
func (st *decodeState) nameRecord(t *[]*nameEntry, explicit bool) error {
	bytes, err := readString(st.r)
	if err != nil {
		return err
	}
	idx := uint64(len(*t))
	if explicit {
		if idx, err = readUint(st.r); err != nil {
			return err
		}
	}
	e := table(t, idx)
	e.bytes = bytes
	st.nextProp = &e.props
	return nil
}

func (st *decodeState) record(rec recordType) error {
	r := st.r
	m := &st.modal
	switch rec {
	case recPAD:
	case recSTART:
		st.cfg.logf("oasis: unexpected START record out of position in file")
	case recCELLNAMEImplicit:
		return st.nameRecord(&st.cellNames, false)
	case recCELLNAME:
		return st.nameRecord(&st.cellNames, true)
	case recTEXTSTRINGImplicit:
		return st.nameRecord(&st.textStrings, false)
	case recTEXTSTRING:
		return st.nameRecord(&st.textStrings, true)
	case recPROPNAMEImplicit:
		return st.nameRecord(&st.propNames, false)
	case recPROPNAME:
		return st.nameRecord(&st.propNames, true)
	case recPROPSTRINGImplicit:
		return st.nameRecord(&st.propStrings, false)
	case recPROPSTRING:
		return st.nameRecord(&st.propStrings, true)
	case recLAYERNAMEData, recLAYERNAMEText:
		// unused record
		if _, err := readString(r); err != nil {
			return err
		}
		for i := 0; i < 2; i++ {
			typ, err := readUint(r)
			if err != nil {
				return err
			}
			if typ > 0 {
				if typ == 4 {
					if _, err := readUint(r); err != nil {
						return err
					}
				}
				if _, err := readUint(r); err != nil {
					return err
				}
			}
		}
	case recCELL, recCELLRefNum:
		cell := &layout.Cell{}
		st.cell = cell
		st.lib.Cells = append(st.lib.Cells, cell)
		st.nextProp = &cell.Properties
		if rec == recCELLRefNum {
			num, err := readUint(r)
			if err != nil {
				return err
			}
			st.cellRefNum[cell] = num
		} else {
			name, err := readString(r)
			if err != nil {
				return err
			}
			cell.Name = string(name)
		}
		m.resetCell()
	case recXYABSOLUTE:
		m.absolutePos = true
	case recXYRELATIVE:
		m.absolutePos = false
	case recPLACEMENT, recPLACEMENTTransform:
		return st.placement(rec == recPLACEMENTTransform)
	case recTEXT:
		return st.text()
	case recRECTANGLE:
		return st.rectangle()
	case recPOLYGON:
		return st.polygon()
	case recPATH:
		return st.path()
	case recTRAPEZOIDAB, recTRAPEZOIDA, recTRAPEZOIDB:
		return st.trapezoid(rec)
	case recCTRAPEZOID:
		return st.ctrapezoid()
	case recCIRCLE:
		return st.circle()
	case recPROPERTY:
		info, err := r.ReadByte()
		if err != nil {
			return err
		}
		return st.property(info)
	case recLASTPROPERTY:
		return st.property(0x08)
	case recXNAMEImplicit:
		if _, err := readUint(r); err != nil {
			return err
		}
		if _, err := readString(r); err != nil {
			return err
		}
		st.cfg.logf("oasis: record type XNAME ignored")
	case recXNAME:
		if _, err := readUint(r); err != nil {
			return err
		}
		if _, err := readString(r); err != nil {
			return err
		}
		if _, err := readUint(r); err != nil {
			return err
		}
		st.cfg.logf("oasis: record type XNAME ignored")
	case recXELEMENT:
		if _, err := readUint(r); err != nil {
			return err
		}
		if _, err := readString(r); err != nil {
			return err
		}
		st.cfg.logf("oasis: record type XELEMENT ignored")
	case recXGEOMETRY:
		return st.xgeometry()
	case recCBLOCK:
		return st.cblock()
	default:
		st.cfg.logf("oasis: unknown record type <0x%02X>", uint8(rec))
	}
	return nil
}

// coord reads a signed coordinate scaled into user units.
func (st *decodeState) coord() (float64, error) {
	v, err := readInt(st.r)
	if err != nil {
		return 0, err
	}
	return st.factor * float64(v), nil
}

// ucoord reads an unsigned length scaled into user units.
func (st *decodeState) ucoord() (float64, error) {
	v, err := readUint(st.r)
	if err != nil {
		return 0, err
	}
	return st.factor * float64(v), nil
}

// position updates a modal position pair from the info byte
// bits xbit and ybit.
func (st *decodeState) position(info uint8, pos *layout.Vec2, xbit, ybit uint8) error {
	if info&xbit != 0 {
		x, err := st.coord()
		if err != nil {
			return err
		}
		st.modal.updatePos(&pos.X, x)
	}
	if info&ybit != 0 {
		y, err := st.coord()
		if err != nil {
			return err
		}
		st.modal.updatePos(&pos.Y, y)
	}
	return nil
}

// repetition reads a repetition when the record's repetition
// bit is set and copies the modal value into dst.
func (st *decodeState) repetition(info, bit uint8, dst *layout.Repetition) error {
	if info&bit == 0 {
		return nil
	}
	if err := readRepetition(st.r, st.factor, &st.modal.repetition); err != nil {
		return err
	}
	*dst = st.modal.repetition.Copy()
	return nil
}

// layerDatatype updates the modal geometry layer pair from
// info bits 0x01 and 0x02.
func (st *decodeState) layerDatatype(info uint8) error {
	if info&0x01 != 0 {
		v, err := readUint(st.r)
		if err != nil {
			return err
		}
		st.modal.layer = v
	}
	if info&0x02 != 0 {
		v, err := readUint(st.r)
		if err != nil {
			return err
		}
		st.modal.datatype = v
	}
	return nil
}

func (st *decodeState) placement(transform bool) error {
	r := st.r
	m := &st.modal
	ref := &layout.Reference{Magnification: 1}
	if st.cell != nil {
		st.cell.References = append(st.cell.References, ref)
	}
	st.nextProp = &ref.Properties
	info, err := r.ReadByte()
	if err != nil {
		return err
	}
	if info&0x80 != 0 {
		// explicit reference
		if info&0x40 != 0 {
			num, err := readUint(r)
			if err != nil {
				return err
			}
			ref.Kind = layout.RefCell
			ref.RefNumber = num
			ref.HasRefNumber = true
		} else {
			name, err := readString(r)
			if err != nil {
				return err
			}
			ref.Kind = layout.RefName
			ref.Name = string(name)
		}
		m.placementCell = ref
	} else {
		if m.placementCell == nil {
			return errors.New("modal placement cell used before being set")
		}
		ref.Kind = m.placementCell.Kind
		ref.Name = m.placementCell.Name
		ref.RefNumber = m.placementCell.RefNumber
		ref.HasRefNumber = m.placementCell.HasRefNumber
	}
	if !transform {
		switch info & 0x06 {
		case 0x02:
			ref.Rotation = math.Pi * 0.5
		case 0x04:
			ref.Rotation = math.Pi
		case 0x06:
			ref.Rotation = math.Pi * 1.5
		}
	} else {
		if info&0x04 != 0 {
			if ref.Magnification, err = readReal(r); err != nil {
				return err
			}
		}
		if info&0x02 != 0 {
			deg, err := readReal(r)
			if err != nil {
				return err
			}
			ref.Rotation = deg * math.Pi / 180
		}
	}
	ref.XReflection = info&0x01 != 0
	if err := st.position(info, &m.placementPos, 0x20, 0x10); err != nil {
		return err
	}
	ref.Origin = m.placementPos
	return st.repetition(info, 0x08, &ref.Repetition)
}

func (st *decodeState) text() error {
	r := st.r
	m := &st.modal
	label := &layout.Label{Magnification: 1, Anchor: layout.AnchorSW}
	if st.cell != nil {
		st.cell.Labels = append(st.cell.Labels, label)
	}
	st.nextProp = &label.Properties
	info, err := r.ReadByte()
	if err != nil {
		return err
	}
	if info&0x40 != 0 {
		// explicit text
		if info&0x20 != 0 {
			num, err := readUint(r)
			if err != nil {
				return err
			}
			label.TextID = num
			label.HasTextID = true
		} else {
			text, err := readString(r)
			if err != nil {
				return err
			}
			label.Text = string(text)
		}
		m.textString = label
	} else {
		if m.textString == nil {
			return errors.New("modal text string used before being set")
		}
		label.Text = m.textString.Text
		label.TextID = m.textString.TextID
		label.HasTextID = m.textString.HasTextID
	}
	if info&0x01 != 0 {
		if m.textlayer, err = readUint(r); err != nil {
			return err
		}
	}
	label.Layer = uint32(m.textlayer)
	if info&0x02 != 0 {
		if m.texttype, err = readUint(r); err != nil {
			return err
		}
	}
	label.Texttype = uint32(m.texttype)
	if err := st.position(info, &m.textPos, 0x10, 0x08); err != nil {
		return err
	}
	label.Origin = m.textPos
	return st.repetition(info, 0x04, &label.Repetition)
}

func (st *decodeState) rectangle() error {
	r := st.r
	m := &st.modal
	poly := &layout.Polygon{}
	if st.cell != nil {
		st.cell.Polygons = append(st.cell.Polygons, poly)
	}
	st.nextProp = &poly.Properties
	info, err := r.ReadByte()
	if err != nil {
		return err
	}
	if err := st.layerDatatype(info); err != nil {
		return err
	}
	if info&0x40 != 0 {
		if m.geomDim.X, err = st.ucoord(); err != nil {
			return err
		}
	}
	if info&0x20 != 0 {
		if m.geomDim.Y, err = st.ucoord(); err != nil {
			return err
		}
	}
	if err := st.position(info, &m.geomPos, 0x10, 0x08); err != nil {
		return err
	}
	height := m.geomDim.Y
	if info&0x80 != 0 {
		// square
		height = m.geomDim.X
	}
	corner2 := layout.Vec2{X: m.geomPos.X + m.geomDim.X, Y: m.geomPos.Y + height}
	*poly = *layout.Rectangle(m.geomPos, corner2, uint32(m.layer), uint32(m.datatype))
	st.nextProp = &poly.Properties
	return st.repetition(info, 0x04, &poly.Repetition)
}

func (st *decodeState) polygon() error {
	r := st.r
	m := &st.modal
	poly := &layout.Polygon{}
	if st.cell != nil {
		st.cell.Polygons = append(st.cell.Polygons, poly)
	}
	st.nextProp = &poly.Properties
	info, err := r.ReadByte()
	if err != nil {
		return err
	}
	if err := st.layerDatatype(info); err != nil {
		return err
	}
	poly.Layer = uint32(m.layer)
	poly.Datatype = uint32(m.datatype)
	if info&0x20 != 0 {
		pts, err := readPointList(r, st.factor, true)
		if err != nil {
			return err
		}
		m.polygonPoints = pts
	}
	poly.Points = make([]layout.Vec2, 0, 1+len(m.polygonPoints))
	poly.Points = append(poly.Points, layout.Vec2{})
	poly.Points = append(poly.Points, m.polygonPoints...)
	if err := st.position(info, &m.geomPos, 0x10, 0x08); err != nil {
		return err
	}
	for i := range poly.Points {
		poly.Points[i] = poly.Points[i].Add(m.geomPos)
	}
	return st.repetition(info, 0x04, &poly.Repetition)
}

func (st *decodeState) path() error {
	r := st.r
	m := &st.modal
	path := &layout.FlexPath{
		Elements:   make([]layout.PathElement, 1),
		Tolerance:  st.cfg.Tolerance,
		GDSIIPath:  true,
		ScaleWidth: true,
	}
	if st.cell != nil {
		st.cell.FlexPaths = append(st.cell.FlexPaths, path)
	}
	st.nextProp = &path.Properties
	el := &path.Elements[0]
	info, err := r.ReadByte()
	if err != nil {
		return err
	}
	if err := st.layerDatatype(info); err != nil {
		return err
	}
	el.Layer = uint32(m.layer)
	el.Datatype = uint32(m.datatype)
	if info&0x40 != 0 {
		if m.pathHalfwidth, err = st.ucoord(); err != nil {
			return err
		}
	}
	el.HalfWidthAndOffset = append(el.HalfWidthAndOffset, layout.Vec2{X: m.pathHalfwidth})
	if info&0x80 != 0 {
		scheme, err := r.ReadByte()
		if err != nil {
			return err
		}
		switch scheme & 0x03 {
		case 0x01:
			m.pathExtensions.X = 0
		case 0x02:
			m.pathExtensions.X = m.pathHalfwidth
		case 0x03:
			if m.pathExtensions.X, err = st.coord(); err != nil {
				return err
			}
		}
		switch scheme & 0x0c {
		case 0x04:
			m.pathExtensions.Y = 0
		case 0x08:
			m.pathExtensions.Y = m.pathHalfwidth
		case 0x0c:
			if m.pathExtensions.Y, err = st.coord(); err != nil {
				return err
			}
		}
	}
	switch {
	case m.pathExtensions.X == 0 && m.pathExtensions.Y == 0:
		el.EndType = layout.EndFlush
	case m.pathExtensions.X == m.pathHalfwidth && m.pathExtensions.Y == m.pathHalfwidth:
		el.EndType = layout.EndHalfWidth
	default:
		el.EndType = layout.EndExtended
		el.EndExtensions = m.pathExtensions
	}
	if info&0x20 != 0 {
		pts, err := readPointList(r, st.factor, false)
		if err != nil {
			return err
		}
		m.pathPoints = pts
	}
	if err := st.position(info, &m.geomPos, 0x10, 0x08); err != nil {
		return err
	}
	path.Spine = append(path.Spine, m.geomPos)
	path.Segment(m.pathPoints, nil, nil, true)
	return st.repetition(info, 0x04, &path.Repetition)
}

func (st *decodeState) trapezoid(rec recordType) error {
	r := st.r
	m := &st.modal
	poly := &layout.Polygon{}
	if st.cell != nil {
		st.cell.Polygons = append(st.cell.Polygons, poly)
	}
	st.nextProp = &poly.Properties
	info, err := r.ReadByte()
	if err != nil {
		return err
	}
	if err := st.layerDatatype(info); err != nil {
		return err
	}
	poly.Layer = uint32(m.layer)
	poly.Datatype = uint32(m.datatype)
	if info&0x40 != 0 {
		if m.geomDim.X, err = st.ucoord(); err != nil {
			return err
		}
	}
	if info&0x20 != 0 {
		if m.geomDim.Y, err = st.ucoord(); err != nil {
			return err
		}
	}
	var deltaA, deltaB float64
	if rec == recTRAPEZOIDAB || rec == recTRAPEZOIDA {
		d, err := read1Delta(r)
		if err != nil {
			return err
		}
		deltaA = st.factor * float64(d)
	}
	if rec == recTRAPEZOIDAB || rec == recTRAPEZOIDB {
		d, err := read1Delta(r)
		if err != nil {
			return err
		}
		deltaB = st.factor * float64(d)
	}
	if err := st.position(info, &m.geomPos, 0x10, 0x08); err != nil {
		return err
	}
	pos, dim := m.geomPos, m.geomDim
	if info&0x80 != 0 {
		// vertical orientation
		poly.Points = []layout.Vec2{
			pos,
			{X: pos.X + dim.X, Y: pos.Y - deltaA},
			{X: pos.X + dim.X, Y: pos.Y + dim.Y - deltaB},
			{X: pos.X, Y: pos.Y + dim.Y},
		}
	} else {
		poly.Points = []layout.Vec2{
			{X: pos.X, Y: pos.Y + dim.Y},
			{X: pos.X - deltaA, Y: pos.Y},
			{X: pos.X + dim.X - deltaB, Y: pos.Y},
			{X: pos.X + dim.X, Y: pos.Y + dim.Y},
		}
	}
	return st.repetition(info, 0x04, &poly.Repetition)
}

func (st *decodeState) ctrapezoid() error {
	r := st.r
	m := &st.modal
	poly := &layout.Polygon{}
	if st.cell != nil {
		st.cell.Polygons = append(st.cell.Polygons, poly)
	}
	st.nextProp = &poly.Properties
	info, err := r.ReadByte()
	if err != nil {
		return err
	}
	if err := st.layerDatatype(info); err != nil {
		return err
	}
	poly.Layer = uint32(m.layer)
	poly.Datatype = uint32(m.datatype)
	if info&0x80 != 0 {
		if m.ctrapezoidType, err = r.ReadByte(); err != nil {
			return err
		}
	}
	if info&0x40 != 0 {
		if m.geomDim.X, err = st.ucoord(); err != nil {
			return err
		}
	}
	if info&0x20 != 0 {
		if m.geomDim.Y, err = st.ucoord(); err != nil {
			return err
		}
	}
	if err := st.position(info, &m.geomPos, 0x10, 0x08); err != nil {
		return err
	}
	poly.Points = ctrapezoidPoints(m.ctrapezoidType, m.geomPos, m.geomDim)
	return st.repetition(info, 0x04, &poly.Repetition)
}

// ctrapezoidPoints builds the canonical shape for a compact
// trapezoid type by mutating the base rectangle (or, for the
// triangle types 16-23, three copies of the position).
// Type 25 is a square whose sides equal the width.
func ctrapezoidPoints(typ uint8, pos, dim layout.Vec2) []layout.Vec2 {
	var v []layout.Vec2
	if typ > 15 && typ < 24 {
		v = []layout.Vec2{pos, pos, pos}
	} else {
		v = []layout.Vec2{
			pos,
			{X: pos.X + dim.X, Y: pos.Y},
			{X: pos.X + dim.X, Y: pos.Y + dim.Y},
			{X: pos.X, Y: pos.Y + dim.Y},
		}
	}
	w, h := dim.X, dim.Y
	switch typ {
	case 0:
		v[2].X -= h
	case 1:
		v[1].X -= h
	case 2:
		v[3].X += h
	case 3:
		v[0].X += h
	case 4:
		v[2].X -= h
		v[3].X += h
	case 5:
		v[0].X += h
		v[1].X -= h
	case 6:
		v[1].X -= h
		v[3].X += h
	case 7:
		v[0].X += h
		v[2].X -= h
	case 8:
		v[2].Y -= w
	case 9:
		v[3].Y -= w
	case 10:
		v[1].Y += w
	case 11:
		v[0].Y += w
	case 12:
		v[1].X += w
		v[2].X -= w
	case 13:
		v[0].X += w
		v[3].X -= w
	case 14:
		v[1].X += w
		v[3].X -= w
	case 15:
		v[0].X += w
		v[2].X -= w
	case 16:
		v[1].X += w
		v[2].Y += w
	case 17:
		v[1].X += w
		v[1].Y += w
		v[2].Y += w
	case 18:
		v[1].X += w
		v[2].X += w
		v[2].Y += w
	case 19:
		v[0].X += w
		v[1].X += w
		v[1].Y += w
		v[2].Y += w
	case 20:
		v[1].X += 2 * h
		v[2].X += h
		v[2].Y += h
	case 21:
		v[0].X += h
		v[1].X += 2 * h
		v[1].Y += h
		v[2].Y += h
	case 22:
		v[1].X += w
		v[1].Y += w
		v[2].Y += 2 * w
	case 23:
		v[0].X += w
		v[1].X += w
		v[1].Y += 2 * w
		v[2].Y += w
	case 25:
		v[2].Y = pos.Y + w
		v[3].Y = pos.Y + w
	}
	return v
}

func (st *decodeState) circle() error {
	r := st.r
	m := &st.modal
	info, err := r.ReadByte()
	if err != nil {
		return err
	}
	if err := st.layerDatatype(info); err != nil {
		return err
	}
	if info&0x20 != 0 {
		if m.circleRadius, err = st.ucoord(); err != nil {
			return err
		}
	}
	if err := st.position(info, &m.geomPos, 0x10, 0x08); err != nil {
		return err
	}
	poly := layout.Ellipse(m.geomPos, m.circleRadius, m.circleRadius, 0, 0,
		0, 0, st.cfg.Tolerance, uint32(m.layer), uint32(m.datatype))
	if st.cell != nil {
		st.cell.Polygons = append(st.cell.Polygons, poly)
	}
	st.nextProp = &poly.Properties
	return st.repetition(info, 0x04, &poly.Repetition)
}

func (st *decodeState) xgeometry() error {
	r := st.r
	m := &st.modal
	info, err := r.ReadByte()
	if err != nil {
		return err
	}
	if _, err := readUint(r); err != nil {
		return err
	}
	if err := st.layerDatatype(info); err != nil {
		return err
	}
	if _, err := readString(r); err != nil {
		return err
	}
	if err := st.position(info, &m.geomPos, 0x10, 0x08); err != nil {
		return err
	}
	if info&0x04 != 0 {
		if err := readRepetition(r, st.factor, &m.repetition); err != nil {
			return err
		}
	}
	st.cfg.logf("oasis: record type XGEOMETRY ignored")
	return nil
}

func (st *decodeState) property(info uint8) error {
	r := st.r
	m := &st.modal
	prop := &layout.Property{}
	*st.nextProp = append(*st.nextProp, prop)
	if info&0x04 != 0 {
		// explicit name
		if info&0x02 != 0 {
			num, err := readUint(r)
			if err != nil {
				return err
			}
			prop.NameID = num
			prop.Unresolved = true
			st.unfinishedPropName = append(st.unfinishedPropName, prop)
			m.propertyUnfinished = true
		} else {
			name, err := readString(r)
			if err != nil {
				return err
			}
			prop.Name = string(name)
			m.propertyUnfinished = false
		}
		m.property = prop
	} else {
		if m.property == nil {
			return errors.New("modal property name used before being set")
		}
		if m.propertyUnfinished {
			prop.NameID = m.property.NameID
			prop.Unresolved = true
			st.unfinishedPropName = append(st.unfinishedPropName, prop)
		} else {
			prop.Name = m.property.Name
		}
	}
	if info&0x08 != 0 {
		// reuse the modal value list
		prop.Values = layout.CopyValues(m.propertyValues)
		for i, src := range m.propertyValues {
			if src.Type == layout.PropUnsigned && st.unfinishedValueSet[src] {
				dst := prop.Values[i]
				st.unfinishedPropValue = append(st.unfinishedPropValue, dst)
				st.unfinishedValueSet[dst] = true
			}
		}
		return nil
	}
	count := uint64(info >> 4)
	if count == 15 {
		var err error
		if count, err = readUint(r); err != nil {
			return err
		}
	}
	for ; count > 0; count-- {
		v := &layout.PropertyValue{}
		prop.Values = append(prop.Values, v)
		dt, err := r.ReadByte()
		if err != nil {
			return err
		}
		switch {
		case dt <= dtRealDouble:
			v.Type = layout.PropReal
			if v.Real, err = readRealType(r, dt); err != nil {
				return err
			}
		case dt == dtUnsignedInteger:
			v.Type = layout.PropUnsigned
			if v.Unsigned, err = readUint(r); err != nil {
				return err
			}
		case dt == dtSignedInteger:
			v.Type = layout.PropSigned
			if v.Signed, err = readInt(r); err != nil {
				return err
			}
		case dt <= dtNString:
			v.Type = layout.PropString
			if v.Bytes, err = readString(r); err != nil {
				return err
			}
		case dt <= dtReferenceN:
			v.Type = layout.PropUnsigned
			if v.Unsigned, err = readUint(r); err != nil {
				return err
			}
			st.unfinishedPropValue = append(st.unfinishedPropValue, v)
			st.unfinishedValueSet[v] = true
		default:
			return fmt.Errorf("invalid property value type %d", dt)
		}
	}
	m.propertyValues = prop.Values
	return nil
}

func (st *decodeState) cblock() error {
	r := st.r
	comptype, err := readUint(r)
	if err != nil {
		return err
	}
	uncompressed, err := readUint(r)
	if err != nil {
		return err
	}
	compressed, err := readUint(r)
	if err != nil {
		return err
	}
	if compressed > 1<<32 || uncompressed > 1<<32 {
		return fmt.Errorf("unreasonable CBLOCK size %d/%d", compressed, uncompressed)
	}
	payload := make([]byte, compressed)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("unable to read full CBLOCK: %w", err)
	}
	if comptype != 0 {
		st.cfg.logf("oasis: CBLOCK compression method %d not supported", comptype)
		return nil
	}
	if err := r.inflate(payload, uncompressed); err != nil {
		st.cfg.logf("oasis: unable to decompress CBLOCK: %v", err)
	}
	return nil
}

// resolve runs the END fix-up pass: cells named by reference
// number, label texts, references, and property names and
// values are rewritten from the name tables.
func (st *decodeState) resolve() {
	lib := st.lib
	cfg := st.cfg

	for _, cell := range lib.Cells {
		if num, ok := st.cellRefNum[cell]; ok {
			if int(num) < len(st.cellNames) && st.cellNames[num] != nil {
				e := st.cellNames[num]
				cell.Name = string(e.bytes)
				if len(e.props) > 0 {
					cell.Properties = append(append([]*layout.Property{}, e.props...), cell.Properties...)
					e.props = nil
				}
			} else {
				cfg.logf("oasis: cell name %d not found in table", num)
			}
		}
		for _, label := range cell.Labels {
			if !label.HasTextID {
				continue
			}
			if int(label.TextID) < len(st.textStrings) && st.textStrings[label.TextID] != nil {
				e := st.textStrings[label.TextID]
				label.Text = string(e.bytes)
				label.HasTextID = false
				if len(e.props) > 0 {
					props := make([]*layout.Property, 0, len(e.props)+len(label.Properties))
					for _, p := range e.props {
						c := *p
						c.Values = layout.CopyValues(p.Values)
						props = append(props, &c)
					}
					label.Properties = append(props, label.Properties...)
				}
			} else {
				cfg.logf("oasis: text string %d not found in table", label.TextID)
			}
		}
	}

	m := lib.CellMap()
	for _, cell := range lib.Cells {
		for _, ref := range cell.References {
			if ref.Kind == layout.RefCell && ref.HasRefNumber {
				if int(ref.RefNumber) < len(st.cellNames) && st.cellNames[ref.RefNumber] != nil {
					name := string(st.cellNames[ref.RefNumber].bytes)
					if target, ok := m[name]; ok {
						ref.Cell = target
						ref.HasRefNumber = false
					} else {
						ref.Kind = layout.RefName
						ref.Name = name
						cfg.logf("oasis: reference to missing cell %q left unresolved", name)
					}
				} else {
					cfg.logf("oasis: cell name %d not found in table", ref.RefNumber)
				}
				continue
			}
			if ref.Kind == layout.RefName {
				if target, ok := m[ref.Name]; ok {
					ref.Kind = layout.RefCell
					ref.Cell = target
					ref.Name = ""
				} else {
					cfg.logf("oasis: reference to missing cell %q left unresolved", ref.Name)
				}
			}
		}
	}

	for _, prop := range st.unfinishedPropName {
		if int(prop.NameID) < len(st.propNames) && st.propNames[prop.NameID] != nil {
			prop.Name = string(st.propNames[prop.NameID].bytes)
			prop.Unresolved = false
		} else {
			cfg.logf("oasis: property name %d not found in table", prop.NameID)
		}
	}
	for _, v := range st.unfinishedPropValue {
		if int(v.Unsigned) < len(st.propStrings) && st.propStrings[v.Unsigned] != nil {
			v.Type = layout.PropString
			v.Bytes = append([]byte(nil), st.propStrings[v.Unsigned].bytes...)
		} else {
			cfg.logf("oasis: property string %d not found in table", v.Unsigned)
		}
	}
}

// Precision reads just enough of the OASIS file at path to
// report its database precision in meters.
func Precision(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("oasis: %w", err)
	}
	defer f.Close()
	r := newReader(f)
	var hdr [14]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil || string(hdr[:]) != magic {
		return 0, errors.New("oasis: invalid header")
	}
	if _, err := readString(r); err != nil {
		return 0, fmt.Errorf("oasis: %w", err)
	}
	unitsPerMicron, err := readReal(r)
	if err != nil {
		return 0, fmt.Errorf("oasis: %w", err)
	}
	return 1e-6 / unitsPerMicron, nil
}
