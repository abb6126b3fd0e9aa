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

// RepetitionKind discriminates Repetition variants.
type RepetitionKind uint8

const (
	// RepNone means a single occurrence.
	RepNone RepetitionKind = iota
	// RepRectangular is a Columns x Rows grid with
	// axis-aligned Spacing.
	RepRectangular
	// RepRegular is a Columns x Rows grid spanned by
	// the vectors V1 and V2.
	RepRegular
	// RepExplicit is an arbitrary set of displacements
	// from the origin (the origin itself is implied).
	RepExplicit
)

// Repetition describes a regular or irregular multi-point
// instance pattern applied to an element.
type Repetition struct {
	Kind    RepetitionKind
	Columns uint64
	Rows    uint64
	Spacing Vec2
	V1, V2  Vec2
	Offsets []Vec2
}

// Size returns the total number of occurrences,
// including the origin instance.
func (r *Repetition) Size() uint64 {
	switch r.Kind {
	case RepRectangular, RepRegular:
		return r.Columns * r.Rows
	case RepExplicit:
		return uint64(len(r.Offsets)) + 1
	}
	return 1
}

// Expand materializes every occurrence displacement,
// origin first.
func (r *Repetition) Expand() []Vec2 {
	out := make([]Vec2, 0, r.Size())
	switch r.Kind {
	case RepRectangular:
		for j := uint64(0); j < r.Rows; j++ {
			for i := uint64(0); i < r.Columns; i++ {
				out = append(out, Vec2{float64(i) * r.Spacing.X, float64(j) * r.Spacing.Y})
			}
		}
	case RepRegular:
		for j := uint64(0); j < r.Rows; j++ {
			for i := uint64(0); i < r.Columns; i++ {
				out = append(out, r.V1.Scale(float64(i)).Add(r.V2.Scale(float64(j))))
			}
		}
	case RepExplicit:
		out = append(out, Vec2{})
		out = append(out, r.Offsets...)
	default:
		out = append(out, Vec2{})
	}
	return out
}

// Copy returns a deep copy of r.
func (r *Repetition) Copy() Repetition {
	c := *r
	if r.Offsets != nil {
		c.Offsets = make([]Vec2, len(r.Offsets))
		copy(c.Offsets, r.Offsets)
	}
	return c
}
