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

// Package layout implements the in-memory model for hierarchical
// integrated-circuit layout libraries: named cells holding polygons,
// paths, text labels, and (possibly arrayed) references to other
// cells. The gdsii and oasis sub-packages translate this model to and
// from the two industry stream formats.
package layout

import "math"

// Vec2 is a 2-D point or displacement in user units.
type Vec2 struct {
	X, Y float64
}

// Add returns v+u.
func (v Vec2) Add(u Vec2) Vec2 { return Vec2{v.X + u.X, v.Y + u.Y} }

// Sub returns v-u.
func (v Vec2) Sub(u Vec2) Vec2 { return Vec2{v.X - u.X, v.Y - u.Y} }

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Anchor is the 9-way alignment of a label
// relative to its origin.
type Anchor uint8

const (
	AnchorNW Anchor = iota
	AnchorN
	AnchorNE
	_
	AnchorW
	AnchorO
	AnchorE
	_
	AnchorSW
	AnchorS
	AnchorSE
)

// EndType selects how path ends are drawn.
type EndType uint8

const (
	// EndFlush terminates the path exactly at its end points.
	EndFlush EndType = iota
	// EndRound caps the path with half-circles.
	EndRound
	// EndHalfWidth extends the path by half its width.
	EndHalfWidth
	// EndExtended extends the path by explicit amounts.
	EndExtended
)

// MultipleOfPiOver2 reports whether rot is an integer
// multiple of π/2 and, if so, that multiple.
func MultipleOfPiOver2(rot float64) (int64, bool) {
	m := rot / (math.Pi / 2)
	r := math.Round(m)
	if math.Abs(m-r) > 1e-12 {
		return 0, false
	}
	return int64(r), true
}
