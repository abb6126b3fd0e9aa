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

import "github.com/SnellerInc/layout"

// modal holds the OASIS decoder state carried across records.
// Element records update individual fields according to their
// info byte and then read the post-update values.
type modal struct {
	absolutePos bool
	layer       uint64
	datatype    uint64
	textlayer   uint64
	texttype    uint64

	placementPos layout.Vec2
	textPos      layout.Vec2
	geomPos      layout.Vec2
	geomDim      layout.Vec2

	repetition    layout.Repetition
	textString    *layout.Label
	placementCell *layout.Reference

	polygonPoints []layout.Vec2
	pathPoints    []layout.Vec2

	pathHalfwidth  float64
	pathExtensions layout.Vec2
	ctrapezoidType uint8
	circleRadius   float64

	property           *layout.Property
	propertyUnfinished bool
	propertyValues     []*layout.PropertyValue
}

// resetCell resets the positioning state at a CELL or
// CELL_REF_NUM boundary.
func (m *modal) resetCell() {
	m.absolutePos = true
	m.placementPos = layout.Vec2{}
	m.textPos = layout.Vec2{}
	m.geomPos = layout.Vec2{}
}

// updatePos applies a coordinate to a modal position,
// replacing it in absolute mode and accumulating otherwise.
func (m *modal) updatePos(pos *float64, v float64) {
	if m.absolutePos {
		*pos = v
	} else {
		*pos += v
	}
}
