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

package gdsii

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"github.com/SnellerInc/layout"
)

// Decoder reads a GDSII stream into a layout.Library.
//
// The zero value is a usable decoder that keeps the native
// user unit of the file.
type Decoder struct {
	// Unit, when positive, rescales the library to this
	// user unit (in meters) instead of the file's own.
	Unit float64
	// Tolerance is the curve tolerance handed to paths
	// created during decoding.
	Tolerance float64
	// Logger, when non-nil, receives warnings about
	// skipped or unsupported records.
	Logger *log.Logger
}

func (d *Decoder) logf(format string, args ...interface{}) {
	if d.Logger != nil {
		d.Logger.Printf(format, args...)
	}
}

// DecodeFile reads the GDSII file at path.
func (d *Decoder) DecodeFile(path string) (*layout.Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gdsii: %w", err)
	}
	defer f.Close()
	return d.Decode(bufio.NewReader(f))
}

// record is one GDSII record with its header decoded and the
// payload still big-endian raw.
type record struct {
	typ  recordType
	dt   dataType
	body []byte
}

// readRecord reads one record. io.EOF is returned when the
// stream ends at a record boundary or inside a record header.
func readRecord(r io.Reader, scratch []byte) (record, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return record{}, err
	}
	length := binary.BigEndian.Uint16(hdr[:2])
	if length < 4 {
		return record{}, fmt.Errorf("record length %d below header size", length)
	}
	rec := record{typ: recordType(hdr[2]), dt: dataType(hdr[3])}
	n := int(length) - 4
	if n > 0 {
		if n <= cap(scratch) {
			rec.body = scratch[:n]
		} else {
			rec.body = make([]byte, n)
		}
		if _, err := io.ReadFull(r, rec.body); err != nil {
			return record{}, fmt.Errorf("truncated %s record: %w", rec.typ, err)
		}
	}
	return rec, nil
}

func (r *record) int16s() []int16 {
	out := make([]int16, len(r.body)/2)
	for i := range out {
		out[i] = int16(binary.BigEndian.Uint16(r.body[2*i:]))
	}
	return out
}

func (r *record) int32s() []int32 {
	out := make([]int32, len(r.body)/4)
	for i := range out {
		out[i] = int32(binary.BigEndian.Uint32(r.body[4*i:]))
	}
	return out
}

func (r *record) real64() float64 {
	if len(r.body) < 8 {
		return 0
	}
	return RealToFloat64(binary.BigEndian.Uint64(r.body))
}

// str returns the payload as a string with the trailing NUL
// padding stripped.
func (r *record) str() string {
	b := r.body
	if n := len(b); n > 0 && b[n-1] == 0 {
		b = b[:n-1]
	}
	return string(b)
}

// Decode reads a GDSII stream from r.
func (d *Decoder) Decode(r io.Reader) (*layout.Library, error) {
	lib := &layout.Library{}

	var cell *layout.Cell
	var polygon *layout.Polygon
	var path *layout.FlexPath
	var reference *layout.Reference
	var label *layout.Label

	factor := 1.0
	width := 0.0
	var propKey uint16

	scratch := make([]byte, 65536)
	for {
		rec, err := readRecord(r, scratch)
		if err == io.EOF {
			return nil, errors.New("gdsii: missing ENDLIB record")
		}
		if err != nil {
			return nil, fmt.Errorf("gdsii: %w", err)
		}
		switch rec.typ {
		case recHEADER, recBGNLIB, recENDSTR:
			// accepted and ignored
		case recLIBNAME:
			lib.Name = rec.str()
		case recUNITS:
			if len(rec.body) < 16 {
				return nil, errors.New("gdsii: short UNITS record")
			}
			dbInUser := RealToFloat64(binary.BigEndian.Uint64(rec.body))
			dbInMeters := RealToFloat64(binary.BigEndian.Uint64(rec.body[8:]))
			if d.Unit > 0 {
				factor = dbInMeters / d.Unit
				lib.Unit = d.Unit
			} else {
				factor = dbInUser
				lib.Unit = dbInMeters / dbInUser
			}
			lib.Precision = dbInMeters
		case recENDLIB:
			for _, ref := range lib.ResolveReferences() {
				d.logf("gdsii: reference to missing cell %q left unresolved", ref.Name)
			}
			return lib, nil
		case recBGNSTR:
			cell = &layout.Cell{}
		case recSTRNAME:
			if cell != nil {
				cell.Name = rec.str()
				lib.Cells = append(lib.Cells, cell)
			}
		case recBOUNDARY, recBOX:
			polygon = &layout.Polygon{}
			if cell != nil {
				cell.Polygons = append(cell.Polygons, polygon)
			}
		case recPATH:
			path = &layout.FlexPath{
				Elements:   make([]layout.PathElement, 1),
				Tolerance:  d.Tolerance,
				GDSIIPath:  true,
				ScaleWidth: true,
			}
			if cell != nil {
				cell.FlexPaths = append(cell.FlexPaths, path)
			}
		case recSREF, recAREF:
			reference = &layout.Reference{Magnification: 1}
			if cell != nil {
				cell.References = append(cell.References, reference)
			}
		case recTEXT:
			label = &layout.Label{Magnification: 1}
			if cell != nil {
				cell.Labels = append(cell.Labels, label)
			}
		case recLAYER:
			v := rec.int16s()
			if len(v) == 0 {
				break
			}
			switch {
			case polygon != nil:
				polygon.Layer = uint32(v[0])
			case path != nil:
				path.Elements[0].Layer = uint32(v[0])
			case label != nil:
				label.Layer = uint32(v[0])
			}
		case recDATATYPE, recBOXTYPE:
			v := rec.int16s()
			if len(v) == 0 {
				break
			}
			switch {
			case polygon != nil:
				polygon.Datatype = uint32(v[0])
			case path != nil:
				path.Elements[0].Datatype = uint32(v[0])
			}
		case recWIDTH:
			v := rec.int32s()
			if len(v) == 0 {
				break
			}
			if v[0] < 0 {
				width = factor * float64(-v[0])
				if path != nil {
					path.ScaleWidth = false
				}
			} else {
				width = factor * float64(v[0])
				if path != nil {
					path.ScaleWidth = true
				}
			}
		case recXY:
			d.handleXY(rec.int32s(), factor, width, polygon, path, reference, label)
		case recENDEL:
			if polygon != nil && len(polygon.Points) > 0 {
				// drop the duplicate closing vertex
				polygon.Points = polygon.Points[:len(polygon.Points)-1]
			}
			polygon, path, reference, label = nil, nil, nil, nil
		case recSNAME:
			if reference != nil {
				reference.Name = rec.str()
				reference.Kind = layout.RefName
			}
		case recCOLROW:
			v := rec.int16s()
			if reference != nil && len(v) >= 2 {
				reference.Repetition.Kind = layout.RepRectangular
				reference.Repetition.Columns = uint64(v[0])
				reference.Repetition.Rows = uint64(v[1])
			}
		case recTEXTTYPE:
			v := rec.int16s()
			if label != nil && len(v) > 0 {
				label.Texttype = uint32(v[0])
			}
		case recPRESENTATION:
			v := rec.int16s()
			if label != nil && len(v) > 0 {
				label.Anchor = layout.Anchor(v[0] & 0x000f)
			}
		case recSTRING:
			if label != nil {
				label.Text = rec.str()
			}
		case recSTRANS:
			v := rec.int16s()
			if len(v) == 0 {
				break
			}
			if reference != nil {
				reference.XReflection = uint16(v[0])&0x8000 != 0
			} else if label != nil {
				label.XReflection = uint16(v[0])&0x8000 != 0
			}
			if v[0]&0x0006 != 0 {
				d.logf("gdsii: absolute magnification and rotation of references is not supported")
			}
		case recMAG:
			if reference != nil {
				reference.Magnification = rec.real64()
			} else if label != nil {
				label.Magnification = rec.real64()
			}
		case recANGLE:
			if reference != nil {
				reference.Rotation = math.Pi / 180 * rec.real64()
			} else if label != nil {
				label.Rotation = math.Pi / 180 * rec.real64()
			}
		case recPATHTYPE:
			v := rec.int16s()
			if path != nil && len(v) > 0 {
				switch v[0] {
				case 0:
					path.Elements[0].EndType = layout.EndFlush
				case 1:
					path.Elements[0].EndType = layout.EndRound
				case 2:
					path.Elements[0].EndType = layout.EndHalfWidth
				default:
					path.Elements[0].EndType = layout.EndExtended
				}
			}
		case recPROPATTR:
			v := rec.int16s()
			if len(v) > 0 {
				propKey = uint16(v[0])
			}
		case recPROPVALUE:
			value := append([]byte(nil), []byte(rec.str())...)
			switch {
			case polygon != nil:
				polygon.Properties = layout.SetGDSProperty(polygon.Properties, propKey, value)
			case path != nil:
				path.Properties = layout.SetGDSProperty(path.Properties, propKey, value)
			case reference != nil:
				reference.Properties = layout.SetGDSProperty(reference.Properties, propKey, value)
			case label != nil:
				label.Properties = layout.SetGDSProperty(label.Properties, propKey, value)
			}
		case recBGNEXTN:
			v := rec.int32s()
			if path != nil && len(v) > 0 {
				path.Elements[0].EndExtensions.X = factor * float64(v[0])
			}
		case recENDEXTN:
			v := rec.int32s()
			if path != nil && len(v) > 0 {
				path.Elements[0].EndExtensions.Y = factor * float64(v[0])
			}
		default:
			d.logf("gdsii: record type %s (0x%02X) is not supported", rec.typ, uint8(rec.typ))
		}
	}
}

func (d *Decoder) handleXY(v []int32, factor, width float64, polygon *layout.Polygon, path *layout.FlexPath, reference *layout.Reference, label *layout.Label) {
	switch {
	case polygon != nil:
		for i := 0; i+1 < len(v); i += 2 {
			polygon.Points = append(polygon.Points, layout.Vec2{
				X: factor * float64(v[i]),
				Y: factor * float64(v[i+1]),
			})
		}
	case path != nil:
		pts := make([]layout.Vec2, 0, len(v)/2)
		start := 0
		if len(path.Spine) == 0 && len(v) >= 2 {
			path.Spine = append(path.Spine, layout.Vec2{X: factor * float64(v[0]), Y: factor * float64(v[1])})
			path.Elements[0].HalfWidthAndOffset = append(path.Elements[0].HalfWidthAndOffset, layout.Vec2{X: width / 2})
			start = 2
		}
		for i := start; i+1 < len(v); i += 2 {
			pts = append(pts, layout.Vec2{X: factor * float64(v[i]), Y: factor * float64(v[i+1])})
		}
		path.Segment(pts, nil, nil, false)
	case reference != nil:
		if len(v) < 2 {
			return
		}
		origin := layout.Vec2{X: factor * float64(v[0]), Y: factor * float64(v[1])}
		reference.Origin = origin
		rep := &reference.Repetition
		if rep.Kind != layout.RepNone && len(v) >= 6 {
			if reference.Rotation == 0 && !reference.XReflection {
				rep.Spacing.X = (factor*float64(v[2]) - origin.X) / float64(rep.Columns)
				rep.Spacing.Y = (factor*float64(v[5]) - origin.Y) / float64(rep.Rows)
			} else {
				rep.Kind = layout.RepRegular
				rep.V1.X = (factor*float64(v[2]) - origin.X) / float64(rep.Columns)
				rep.V1.Y = (factor*float64(v[3]) - origin.Y) / float64(rep.Columns)
				rep.V2.X = (factor*float64(v[4]) - origin.X) / float64(rep.Rows)
				rep.V2.Y = (factor*float64(v[5]) - origin.Y) / float64(rep.Rows)
			}
		}
	case label != nil:
		if len(v) >= 2 {
			label.Origin = layout.Vec2{X: factor * float64(v[0]), Y: factor * float64(v[1])}
		}
	}
}

// Units reads just enough of the GDSII file at path to report
// its user unit and database precision, both in meters.
func Units(path string) (unit, precision float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("gdsii: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)
	scratch := make([]byte, 65536)
	for {
		rec, err := readRecord(r, scratch)
		if err == io.EOF {
			return 0, 0, errors.New("gdsii: file missing units definition")
		}
		if err != nil {
			return 0, 0, fmt.Errorf("gdsii: %w", err)
		}
		if rec.typ != recUNITS || len(rec.body) < 16 {
			continue
		}
		dbInUser := RealToFloat64(binary.BigEndian.Uint64(rec.body))
		precision = RealToFloat64(binary.BigEndian.Uint64(rec.body[8:]))
		return precision / dbInUser, precision, nil
	}
}
