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
	"math"

	"github.com/SnellerInc/layout"
)

// Repetitions have twelve encodings. Type 0 reuses the modal
// repetition; 1-3 are axis-aligned grids, 4-7 explicit
// coordinate lists along one axis, 8-9 grids spanned by
// arbitrary vectors, and 10-11 explicit g-delta lists.
// Dimension counts are stored minus two.

// readRepetition decodes a repetition into rep, leaving rep
// untouched for type 0.
func readRepetition(r *reader, factor float64, rep *layout.Repetition) error {
	typ, err := readUint(r)
	if err != nil {
		return err
	}
	switch typ {
	case 0:
		// reuse the modal repetition
		return nil
	case 1, 2, 3:
		*rep = layout.Repetition{Kind: layout.RepRectangular, Columns: 1, Rows: 1}
		if typ != 3 {
			n, err := readUint(r)
			if err != nil {
				return err
			}
			rep.Columns = n + 2
		}
		if typ != 2 {
			n, err := readUint(r)
			if err != nil {
				return err
			}
			rep.Rows = n + 2
		}
		if typ != 3 {
			dx, err := readUint(r)
			if err != nil {
				return err
			}
			rep.Spacing.X = factor * float64(dx)
		}
		if typ != 2 {
			dy, err := readUint(r)
			if err != nil {
				return err
			}
			rep.Spacing.Y = factor * float64(dy)
		}
		return nil
	case 4, 5, 6, 7:
		n, err := readUint(r)
		if err != nil {
			return err
		}
		grid := uint64(1)
		if typ == 5 || typ == 7 {
			if grid, err = readUint(r); err != nil {
				return err
			}
		}
		*rep = layout.Repetition{Kind: layout.RepExplicit}
		var cum uint64
		for i := uint64(0); i < n+1; i++ {
			d, err := readUint(r)
			if err != nil {
				return err
			}
			cum += d * grid
			off := layout.Vec2{X: factor * float64(cum)}
			if typ >= 6 {
				off = layout.Vec2{Y: off.X}
			}
			rep.Offsets = append(rep.Offsets, off)
		}
		return nil
	case 8, 9:
		n, err := readUint(r)
		if err != nil {
			return err
		}
		m := uint64(0)
		if typ == 8 {
			if m, err = readUint(r); err != nil {
				return err
			}
		}
		v1x, v1y, err := readGDelta(r)
		if err != nil {
			return err
		}
		*rep = layout.Repetition{
			Kind:    layout.RepRegular,
			Columns: n + 2,
			Rows:    1,
			V1:      layout.Vec2{X: factor * float64(v1x), Y: factor * float64(v1y)},
		}
		if typ == 8 {
			v2x, v2y, err := readGDelta(r)
			if err != nil {
				return err
			}
			rep.Rows = m + 2
			rep.V2 = layout.Vec2{X: factor * float64(v2x), Y: factor * float64(v2y)}
		}
		return nil
	case 10, 11:
		n, err := readUint(r)
		if err != nil {
			return err
		}
		grid := int64(1)
		if typ == 11 {
			g, err := readUint(r)
			if err != nil {
				return err
			}
			grid = int64(g)
		}
		*rep = layout.Repetition{Kind: layout.RepExplicit}
		var cx, cy int64
		for i := uint64(0); i < n+1; i++ {
			x, y, err := readGDelta(r)
			if err != nil {
				return err
			}
			cx += x * grid
			cy += y * grid
			rep.Offsets = append(rep.Offsets, layout.Vec2{X: factor * float64(cx), Y: factor * float64(cy)})
		}
		return nil
	}
	return fmt.Errorf("oasis: invalid repetition type %d", typ)
}

// writeRepetition encodes rep, which must have Size() > 1.
func writeRepetition(w *writer, rep *layout.Repetition, scaling float64) error {
	switch rep.Kind {
	case layout.RepRectangular:
		sx := int64(math.Round(rep.Spacing.X * scaling))
		sy := int64(math.Round(rep.Spacing.Y * scaling))
		if sx < 0 || sy < 0 {
			// grids with negative spacing need the vector forms
			return writeRegular(w, rep.Columns, rep.Rows,
				layout.Vec2{X: rep.Spacing.X}, layout.Vec2{Y: rep.Spacing.Y}, scaling)
		}
		switch {
		case rep.Columns > 1 && rep.Rows > 1:
			if err := writeUint(w, 1); err != nil {
				return err
			}
			if err := writeUint(w, rep.Columns-2); err != nil {
				return err
			}
			if err := writeUint(w, rep.Rows-2); err != nil {
				return err
			}
			if err := writeUint(w, uint64(sx)); err != nil {
				return err
			}
			return writeUint(w, uint64(sy))
		case rep.Columns > 1:
			if err := writeUint(w, 2); err != nil {
				return err
			}
			if err := writeUint(w, rep.Columns-2); err != nil {
				return err
			}
			return writeUint(w, uint64(sx))
		default:
			if err := writeUint(w, 3); err != nil {
				return err
			}
			if err := writeUint(w, rep.Rows-2); err != nil {
				return err
			}
			return writeUint(w, uint64(sy))
		}
	case layout.RepRegular:
		return writeRegular(w, rep.Columns, rep.Rows, rep.V1, rep.V2, scaling)
	case layout.RepExplicit:
		if err := writeUint(w, 10); err != nil {
			return err
		}
		if err := writeUint(w, uint64(len(rep.Offsets))-1); err != nil {
			return err
		}
		var px, py int64
		for _, off := range rep.Offsets {
			x, y := ipoint(off, scaling)
			if err := writeGDelta(w, x-px, y-py); err != nil {
				return err
			}
			px, py = x, y
		}
		return nil
	}
	return fmt.Errorf("oasis: cannot encode repetition kind %d", rep.Kind)
}

func writeRegular(w *writer, cols, rows uint64, v1, v2 layout.Vec2, scaling float64) error {
	x1, y1 := ipoint(v1, scaling)
	x2, y2 := ipoint(v2, scaling)
	if cols > 1 && rows > 1 {
		if err := writeUint(w, 8); err != nil {
			return err
		}
		if err := writeUint(w, cols-2); err != nil {
			return err
		}
		if err := writeUint(w, rows-2); err != nil {
			return err
		}
		if err := writeGDelta(w, x1, y1); err != nil {
			return err
		}
		return writeGDelta(w, x2, y2)
	}
	n := cols
	x, y := x1, y1
	if rows > 1 {
		n = rows
		x, y = x2, y2
	}
	if err := writeUint(w, 9); err != nil {
		return err
	}
	if err := writeUint(w, n-2); err != nil {
		return err
	}
	return writeGDelta(w, x, y)
}
