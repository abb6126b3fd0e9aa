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

// ReferenceKind discriminates how a Reference identifies its
// target cell.
type ReferenceKind uint8

const (
	// RefCell points directly at a resolved *Cell.
	RefCell ReferenceKind = iota
	// RefName carries the target cell name; resolution
	// happens in the post-parse fix-up pass.
	RefName
	// RefRawCell points at a pre-encoded GDSII cell blob.
	RefRawCell
)

// Reference instantiates one cell inside another, optionally
// arrayed through a Repetition.
type Reference struct {
	Kind ReferenceKind
	Cell *Cell
	Name string
	Raw  *RawCell
	// RefNumber stashes an OASIS cellname reference number
	// until the END fix-up pass rewrites Cell.
	RefNumber     uint64
	HasRefNumber  bool
	Origin        Vec2
	Magnification float64
	// Rotation is counterclockwise, in radians.
	Rotation    float64
	XReflection bool
	Repetition  Repetition
	Properties  []*Property
}

// TargetName returns the name of the referenced cell,
// whichever resolution state the reference is in.
func (r *Reference) TargetName() string {
	switch r.Kind {
	case RefCell:
		if r.Cell != nil {
			return r.Cell.Name
		}
	case RefRawCell:
		if r.Raw != nil {
			return r.Raw.Name
		}
	}
	return r.Name
}
