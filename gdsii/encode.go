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
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"time"

	"github.com/SnellerInc/layout"
	"github.com/SnellerInc/layout/ints"
)

// Encoder writes a layout.Library as a GDSII stream.
type Encoder struct {
	// MaxPoints is the polygon vertex limit. Polygons are
	// always written whole; when MaxPoints is above 4, a
	// polygon with more vertices is reported to Logger.
	MaxPoints int
	// Timestamp is used for the BGNLIB and BGNSTR records;
	// the zero value means time.Now().
	Timestamp time.Time
	// Logger, when non-nil, receives warnings.
	Logger *log.Logger
}

func (e *Encoder) logf(format string, args ...interface{}) {
	if e.Logger != nil {
		e.Logger.Printf(format, args...)
	}
}

// EncodeFile writes lib to the GDSII file at path.
func (e *Encoder) EncodeFile(lib *layout.Library, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("gdsii: %w", err)
	}
	err = e.Encode(lib, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// recordWriter emits GDSII records with a sticky error.
type recordWriter struct {
	w   *bufio.Writer
	err error
}

func (rw *recordWriter) record(typ recordType, dt dataType, body []byte) {
	if rw.err != nil {
		return
	}
	var hdr [4]byte
	binary.BigEndian.PutUint16(hdr[:2], uint16(4+len(body)))
	hdr[2] = uint8(typ)
	hdr[3] = uint8(dt)
	if _, err := rw.w.Write(hdr[:]); err != nil {
		rw.err = err
		return
	}
	if len(body) > 0 {
		if _, err := rw.w.Write(body); err != nil {
			rw.err = err
		}
	}
}

func (rw *recordWriter) int16Record(typ recordType, vals ...int16) {
	body := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint16(body[2*i:], uint16(v))
	}
	rw.record(typ, dtInt16, body)
}

func (rw *recordWriter) int32Record(typ recordType, vals ...int32) {
	body := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint32(body[4*i:], uint32(v))
	}
	rw.record(typ, dtInt32, body)
}

func (rw *recordWriter) real64Record(typ recordType, vals ...float64) {
	body := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint64(body[8*i:], RealFromFloat64(v))
	}
	rw.record(typ, dtReal64, body)
}

// strRecord pads s with a NUL byte to an even length.
func (rw *recordWriter) strRecord(typ recordType, s string) {
	body := make([]byte, ints.AlignUp(uint(len(s)), 2))
	copy(body, s)
	rw.record(typ, dtASCII, body)
}

func (rw *recordWriter) timeRecord(typ recordType, t time.Time) {
	rw.int16Record(typ,
		int16(t.Year()), int16(t.Month()), int16(t.Day()),
		int16(t.Hour()), int16(t.Minute()), int16(t.Second()),
		int16(t.Year()), int16(t.Month()), int16(t.Day()),
		int16(t.Hour()), int16(t.Minute()), int16(t.Second()))
}

// dbunits converts a user-unit coordinate into clamped
// 32-bit database units.
func dbunits(v, scaling float64) int32 {
	return int32(ints.Clamp(int64(math.Round(v*scaling)), math.MinInt32, math.MaxInt32))
}

func (rw *recordWriter) xy(points []layout.Vec2, offset layout.Vec2, scaling float64, closeLoop bool) {
	n := len(points)
	if closeLoop {
		n++
	}
	vals := make([]int32, 0, 2*n)
	for _, p := range points {
		vals = append(vals, dbunits(p.X+offset.X, scaling), dbunits(p.Y+offset.Y, scaling))
	}
	if closeLoop && len(points) > 0 {
		vals = append(vals, vals[0], vals[1])
	}
	rw.int32Record(recXY, vals...)
}

func (rw *recordWriter) properties(props []*layout.Property) {
	attrs, values := layout.GDSProperty(props)
	for i := range attrs {
		rw.int16Record(recPROPATTR, int16(attrs[i]))
		value := values[i]
		padded := make([]byte, ints.AlignUp(uint(len(value)), 2))
		copy(padded, value)
		rw.record(recPROPVALUE, dtASCII, padded)
	}
}

// Encode writes lib to w.
func (e *Encoder) Encode(lib *layout.Library, w io.Writer) error {
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	rw := &recordWriter{w: bufio.NewWriter(w)}

	rw.int16Record(recHEADER, 0x0258)
	rw.timeRecord(recBGNLIB, ts)
	rw.strRecord(recLIBNAME, lib.Name)
	rw.real64Record(recUNITS, lib.Precision/lib.Unit, lib.Precision)

	scaling := lib.Unit / lib.Precision
	for _, cell := range lib.Cells {
		e.encodeCell(rw, cell, scaling, ts)
	}
	for _, raw := range lib.RawCells {
		if rw.err == nil && len(raw.Bytes) > 0 {
			_, rw.err = rw.w.Write(raw.Bytes)
		}
	}
	rw.record(recENDLIB, dtNone, nil)
	if rw.err == nil {
		rw.err = rw.w.Flush()
	}
	if rw.err != nil {
		return fmt.Errorf("gdsii: %w", rw.err)
	}
	return nil
}

// encodeCell serializes one cell as BGNSTR..ENDSTR.
func (e *Encoder) encodeCell(rw *recordWriter, cell *layout.Cell, scaling float64, ts time.Time) {
	rw.timeRecord(recBGNSTR, ts)
	rw.strRecord(recSTRNAME, cell.Name)

	for _, p := range cell.Polygons {
		e.encodePolygon(rw, p, scaling)
	}
	for _, p := range cell.FlexPaths {
		if p.GDSIIPath {
			e.encodePath(rw, p.Spine, p.Elements, &p.Repetition, p.ScaleWidth, p.Properties, scaling)
		} else {
			for _, poly := range p.ToPolygons() {
				e.encodePolygon(rw, poly, scaling)
			}
		}
	}
	for _, p := range cell.RobustPaths {
		if p.GDSIIPath {
			e.encodePath(rw, p.Spine, p.Elements, &p.Repetition, p.ScaleWidth, p.Properties, scaling)
		} else {
			for _, poly := range p.ToPolygons() {
				e.encodePolygon(rw, poly, scaling)
			}
		}
	}
	for _, ref := range cell.References {
		e.encodeReference(rw, ref, scaling)
	}
	for _, l := range cell.Labels {
		e.encodeLabel(rw, l, scaling)
	}
	rw.record(recENDSTR, dtNone, nil)
}

func (e *Encoder) encodePolygon(rw *recordWriter, p *layout.Polygon, scaling float64) {
	if e.MaxPoints > 4 && len(p.Points) > e.MaxPoints {
		e.logf("gdsii: polygon with %d vertices exceeds MaxPoints=%d; written whole", len(p.Points), e.MaxPoints)
	}
	for _, off := range p.Repetition.Expand() {
		rw.record(recBOUNDARY, dtNone, nil)
		rw.int16Record(recLAYER, int16(p.Layer))
		rw.int16Record(recDATATYPE, int16(p.Datatype))
		rw.xy(p.Points, off, scaling, true)
		rw.properties(p.Properties)
		rw.record(recENDEL, dtNone, nil)
	}
}

func (e *Encoder) encodePath(rw *recordWriter, spine []layout.Vec2, elements []layout.PathElement, rep *layout.Repetition, scaleWidth bool, props []*layout.Property, scaling float64) {
	for _, off := range rep.Expand() {
		for i := range elements {
			el := &elements[i]
			halfWidth := 0.0
			if len(el.HalfWidthAndOffset) > 0 {
				halfWidth = el.HalfWidthAndOffset[0].X
			}
			rw.record(recPATH, dtNone, nil)
			rw.int16Record(recLAYER, int16(el.Layer))
			rw.int16Record(recDATATYPE, int16(el.Datatype))
			var pathtype int16
			switch el.EndType {
			case layout.EndFlush:
				pathtype = 0
			case layout.EndRound:
				pathtype = 1
			case layout.EndHalfWidth:
				pathtype = 2
			default:
				pathtype = 4
			}
			rw.int16Record(recPATHTYPE, pathtype)
			width := dbunits(2*halfWidth, scaling)
			if !scaleWidth {
				width = -width
			}
			rw.int32Record(recWIDTH, width)
			if el.EndType == layout.EndExtended {
				rw.int32Record(recBGNEXTN, dbunits(el.EndExtensions.X, scaling))
				rw.int32Record(recENDEXTN, dbunits(el.EndExtensions.Y, scaling))
			}
			rw.xy(spine, off, scaling, false)
			rw.properties(props)
			rw.record(recENDEL, dtNone, nil)
		}
	}
}

func (e *Encoder) encodeReference(rw *recordWriter, ref *layout.Reference, scaling float64) {
	name := ref.TargetName()
	rep := &ref.Repetition
	array := rep.Kind == layout.RepRectangular || rep.Kind == layout.RepRegular
	offsets := []layout.Vec2{{}}
	if !array {
		offsets = rep.Expand()
	}
	for _, off := range offsets {
		if array {
			rw.record(recAREF, dtNone, nil)
		} else {
			rw.record(recSREF, dtNone, nil)
		}
		rw.strRecord(recSNAME, name)
		e.transform(rw, ref.XReflection, ref.Magnification, ref.Rotation)
		if array {
			cols, rows := int16(rep.Columns), int16(rep.Rows)
			rw.int16Record(recCOLROW, cols, rows)
			origin := ref.Origin
			var v1, v2 layout.Vec2
			if rep.Kind == layout.RepRectangular {
				v1 = layout.Vec2{X: rep.Spacing.X}
				v2 = layout.Vec2{Y: rep.Spacing.Y}
			} else {
				v1, v2 = rep.V1, rep.V2
			}
			corner1 := origin.Add(v1.Scale(float64(rep.Columns)))
			corner2 := origin.Add(v2.Scale(float64(rep.Rows)))
			rw.xy([]layout.Vec2{origin, corner1, corner2}, layout.Vec2{}, scaling, false)
		} else {
			rw.xy([]layout.Vec2{ref.Origin.Add(off)}, layout.Vec2{}, scaling, false)
		}
		rw.properties(ref.Properties)
		rw.record(recENDEL, dtNone, nil)
	}
}

func (e *Encoder) encodeLabel(rw *recordWriter, l *layout.Label, scaling float64) {
	for _, off := range l.Repetition.Expand() {
		rw.record(recTEXT, dtNone, nil)
		rw.int16Record(recLAYER, int16(l.Layer))
		rw.int16Record(recTEXTTYPE, int16(l.Texttype))
		rw.int16Record(recPRESENTATION, int16(l.Anchor))
		e.transform(rw, l.XReflection, l.Magnification, l.Rotation)
		rw.xy([]layout.Vec2{l.Origin.Add(off)}, layout.Vec2{}, scaling, false)
		rw.strRecord(recSTRING, l.Text)
		rw.properties(l.Properties)
		rw.record(recENDEL, dtNone, nil)
	}
}

// transform writes the STRANS record group shared by
// references and labels.
func (e *Encoder) transform(rw *recordWriter, xrefl bool, mag, rotation float64) {
	if !xrefl && mag == 1 && rotation == 0 {
		return
	}
	var bits int16
	if xrefl {
		bits = -0x8000
	}
	rw.int16Record(recSTRANS, bits)
	if mag != 1 {
		rw.real64Record(recMAG, mag)
	}
	if rotation != 0 {
		rw.real64Record(recANGLE, rotation*180/math.Pi)
	}
}
