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

import "math"

// PathElement is one of the parallel strands of a path. Each
// element carries its own layer tag, width profile, and end
// style; all elements share the path spine.
type PathElement struct {
	Layer    uint32
	Datatype uint32
	// HalfWidthAndOffset holds, per spine point, the element
	// half-width (X) and its lateral offset from the spine (Y).
	HalfWidthAndOffset []Vec2
	EndType            EndType
	// EndExtensions are the start (X) and end (Y) extensions
	// used when EndType is EndExtended.
	EndExtensions Vec2
}

// FlexPath is a path defined by a piecewise-linear spine and
// one or more parallel elements.
type FlexPath struct {
	Spine     []Vec2
	Elements  []PathElement
	Tolerance float64
	// GDSIIPath selects native PATH records on output; when
	// false the path is tessellated to polygons instead.
	GDSIIPath bool
	// ScaleWidth controls the GDSII WIDTH sign convention:
	// false marks the width as absolute (not affected by
	// magnification).
	ScaleWidth bool
	Repetition Repetition
	Properties []*Property
}

// Segment appends points to the path spine. When relative is
// true the points are interpreted relative to the current end
// of the spine (or to the origin for an empty spine). Widths
// and offsets, when non-nil, give per-point half-width and
// lateral offset for every element.
func (p *FlexPath) Segment(points []Vec2, widths, offsets []float64, relative bool) {
	ref := Vec2{}
	if relative && len(p.Spine) > 0 {
		ref = p.Spine[len(p.Spine)-1]
	}
	for i, pt := range points {
		if relative {
			pt = ref.Add(pt)
		}
		p.Spine = append(p.Spine, pt)
		for e := range p.Elements {
			el := &p.Elements[e]
			hw := Vec2{}
			if n := len(el.HalfWidthAndOffset); n > 0 {
				hw = el.HalfWidthAndOffset[n-1]
			}
			if widths != nil {
				hw.X = widths[i] / 2
			}
			if offsets != nil {
				hw.Y = offsets[i]
			}
			el.HalfWidthAndOffset = append(el.HalfWidthAndOffset, hw)
		}
	}
}

// ToPolygons tessellates every element of the path into
// polygons, one quadrilateral per spine segment.
func (p *FlexPath) ToPolygons() []*Polygon {
	return tessellate(p.Spine, p.Elements, p.Repetition)
}

// RobustPath is a path whose element widths and offsets are
// defined by parametric sections. For format I/O it behaves
// like FlexPath: native PATH records when GDSIIPath is set,
// tessellation otherwise.
type RobustPath struct {
	Spine      []Vec2
	Elements   []PathElement
	Tolerance  float64
	GDSIIPath  bool
	ScaleWidth bool
	Repetition Repetition
	Properties []*Property
}

// ToPolygons tessellates every element of the path into
// polygons, one quadrilateral per spine segment.
func (p *RobustPath) ToPolygons() []*Polygon {
	return tessellate(p.Spine, p.Elements, p.Repetition)
}

func tessellate(spine []Vec2, elements []PathElement, rep Repetition) []*Polygon {
	var out []*Polygon
	for e := range elements {
		el := &elements[e]
		for i := 0; i+1 < len(spine); i++ {
			hw0, off0 := elementProfile(el, i)
			hw1, off1 := elementProfile(el, i+1)
			d := spine[i+1].Sub(spine[i])
			n := math.Hypot(d.X, d.Y)
			if n == 0 {
				continue
			}
			// unit normal, pointing left of travel
			nx, ny := -d.Y/n, d.X/n
			a, b := spine[i], spine[i+1]
			poly := &Polygon{
				Points: []Vec2{
					{a.X + nx*(off0+hw0), a.Y + ny*(off0+hw0)},
					{b.X + nx*(off1+hw1), b.Y + ny*(off1+hw1)},
					{b.X + nx*(off1-hw1), b.Y + ny*(off1-hw1)},
					{a.X + nx*(off0-hw0), a.Y + ny*(off0-hw0)},
				},
				Layer:      el.Layer,
				Datatype:   el.Datatype,
				Repetition: rep.Copy(),
			}
			out = append(out, poly)
		}
	}
	return out
}

func elementProfile(el *PathElement, i int) (halfWidth, offset float64) {
	if len(el.HalfWidthAndOffset) == 0 {
		return 0, 0
	}
	if i >= len(el.HalfWidthAndOffset) {
		i = len(el.HalfWidthAndOffset) - 1
	}
	return el.HalfWidthAndOffset[i].X, el.HalfWidthAndOffset[i].Y
}
