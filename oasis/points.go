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

// Point lists come in six types: 1-deltas alternating
// horizontal-first (0) or vertical-first (1), 2-deltas (2),
// 3-deltas (3), g-deltas (4), and double g-deltas (5). All
// positions are relative to an implied vertex at the origin,
// which the caller supplies. For closed lists of types 0 and
// 1 the final vertex is implied and computed here.

// readPointList reads a point list, scaling database units by
// factor. The returned points are cumulative positions; the
// implicit origin vertex is not included.
func readPointList(r *reader, factor float64, closed bool) ([]layout.Vec2, error) {
	typ, err := readUint(r)
	if err != nil {
		return nil, err
	}
	count, err := readUint(r)
	if err != nil {
		return nil, err
	}
	if count > 1<<28 {
		return nil, fmt.Errorf("oasis: unreasonable point count %d", count)
	}
	pts := make([]layout.Vec2, 0, count+1)
	var cur layout.Vec2
	switch typ {
	case 0, 1:
		horizontal := typ == 0
		for i := uint64(0); i < count; i++ {
			d, err := read1Delta(r)
			if err != nil {
				return nil, err
			}
			if horizontal {
				cur.X += factor * float64(d)
			} else {
				cur.Y += factor * float64(d)
			}
			horizontal = !horizontal
			pts = append(pts, cur)
		}
		if closed {
			if typ == 0 {
				pts = append(pts, layout.Vec2{X: 0, Y: cur.Y})
			} else {
				pts = append(pts, layout.Vec2{X: cur.X, Y: 0})
			}
		}
	case 2:
		for i := uint64(0); i < count; i++ {
			x, y, err := read2Delta(r)
			if err != nil {
				return nil, err
			}
			cur.X += factor * float64(x)
			cur.Y += factor * float64(y)
			pts = append(pts, cur)
		}
	case 3:
		for i := uint64(0); i < count; i++ {
			x, y, err := read3Delta(r)
			if err != nil {
				return nil, err
			}
			cur.X += factor * float64(x)
			cur.Y += factor * float64(y)
			pts = append(pts, cur)
		}
	case 4:
		for i := uint64(0); i < count; i++ {
			x, y, err := readGDelta(r)
			if err != nil {
				return nil, err
			}
			cur.X += factor * float64(x)
			cur.Y += factor * float64(y)
			pts = append(pts, cur)
		}
	case 5:
		var dx, dy int64
		for i := uint64(0); i < count; i++ {
			x, y, err := readGDelta(r)
			if err != nil {
				return nil, err
			}
			dx += x
			dy += y
			cur.X += factor * float64(dx)
			cur.Y += factor * float64(dy)
			pts = append(pts, cur)
		}
	default:
		return nil, fmt.Errorf("oasis: invalid point list type %d", typ)
	}
	return pts, nil
}

// ipoint converts a user-unit point into database units.
func ipoint(p layout.Vec2, scaling float64) (int64, int64) {
	return int64(math.Round(p.X * scaling)), int64(math.Round(p.Y * scaling))
}

// writePointList encodes the vertices rel, which are
// positions relative to an implied origin vertex (excluded
// from rel). For closed lists the closing edge back to the
// origin participates in type selection, and for types 0 and
// 1 the final vertex is left implicit.
func writePointList(w *writer, rel []layout.Vec2, scaling float64, closed bool) error {
	m := len(rel) + 1
	ux := make([]int64, m)
	uy := make([]int64, m)
	for i, p := range rel {
		ux[i+1], uy[i+1] = ipoint(p, scaling)
	}
	// edge deltas; edge m-1 is the closing edge
	n := m - 1
	if closed {
		n = m
	}
	ex := make([]int64, n)
	ey := make([]int64, n)
	for i := 0; i < n; i++ {
		ex[i] = ux[(i+1)%m] - ux[i]
		ey[i] = uy[(i+1)%m] - uy[i]
	}

	if closed && m >= 4 && m%2 == 0 {
		if typ, ok := alternating(ex, ey); ok {
			// the last explicit vertex and the closing edge
			// are implied
			if err := writeUint(w, typ); err != nil {
				return err
			}
			if err := writeUint(w, uint64(m-2)); err != nil {
				return err
			}
			for i := 0; i < m-2; i++ {
				d := ey[i]
				if (i%2 == 0) == (typ == 0) {
					d = ex[i]
				}
				if err := write1Delta(w, d); err != nil {
					return err
				}
			}
			return nil
		}
	}
	manhattan := true
	octangular := true
	for i := 0; i < n; i++ {
		if ex[i] != 0 && ey[i] != 0 {
			manhattan = false
		}
		if _, _, ok := octant(ex[i], ey[i]); !ok {
			octangular = false
		}
	}
	var typ uint64
	switch {
	case manhattan:
		typ = 2
	case octangular:
		typ = 3
	default:
		typ = 4
	}
	if err := writeUint(w, typ); err != nil {
		return err
	}
	if err := writeUint(w, uint64(m-1)); err != nil {
		return err
	}
	for i := 0; i < m-1; i++ {
		var err error
		switch typ {
		case 2:
			err = write2Delta(w, ex[i], ey[i])
		case 3:
			err = write3Delta(w, ex[i], ey[i])
		default:
			err = writeGDelta(w, ex[i], ey[i])
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// alternating reports whether the closed edge loop strictly
// alternates between horizontal and vertical moves, returning
// point list type 0 (horizontal first) or 1 (vertical first).
func alternating(ex, ey []int64) (uint64, bool) {
	horizontal := ey[0] == 0 && ex[0] != 0
	vertical := ex[0] == 0 && ey[0] != 0
	if !horizontal && !vertical {
		return 0, false
	}
	for i := range ex {
		if horizontal {
			if ey[i] != 0 || ex[i] == 0 {
				return 0, false
			}
		} else {
			if ex[i] != 0 || ey[i] == 0 {
				return 0, false
			}
		}
		horizontal = !horizontal
	}
	if ex[0] != 0 {
		return 0, true
	}
	return 1, true
}
