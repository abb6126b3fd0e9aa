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

// Polygon is a closed point sequence on a (layer, datatype)
// pair. The closing vertex is implied and never stored; the
// GDSII codec adds and removes it at the format boundary.
type Polygon struct {
	Points     []Vec2
	Layer      uint32
	Datatype   uint32
	Repetition Repetition
	Properties []*Property
}

// Rectangle returns the axis-aligned rectangle spanned by two
// opposite corners.
func Rectangle(corner1, corner2 Vec2, layer, datatype uint32) *Polygon {
	return &Polygon{
		Points: []Vec2{
			corner1,
			{corner2.X, corner1.Y},
			corner2,
			{corner1.X, corner2.Y},
		},
		Layer:    layer,
		Datatype: datatype,
	}
}

// IsRectangle reports whether p is a 4-vertex axis-aligned
// rectangle and, if so, its lower-left corner and dimensions.
func (p *Polygon) IsRectangle() (min Vec2, dim Vec2, ok bool) {
	if len(p.Points) != 4 {
		return Vec2{}, Vec2{}, false
	}
	v := p.Points
	minX := math.Min(math.Min(v[0].X, v[1].X), math.Min(v[2].X, v[3].X))
	maxX := math.Max(math.Max(v[0].X, v[1].X), math.Max(v[2].X, v[3].X))
	minY := math.Min(math.Min(v[0].Y, v[1].Y), math.Min(v[2].Y, v[3].Y))
	maxY := math.Max(math.Max(v[0].Y, v[1].Y), math.Max(v[2].Y, v[3].Y))
	for i := range v {
		if (v[i].X != minX && v[i].X != maxX) || (v[i].Y != minY && v[i].Y != maxY) {
			return Vec2{}, Vec2{}, false
		}
		// opposite corners must differ in both axes
		j := (i + 2) % 4
		if v[i].X == v[j].X || v[i].Y == v[j].Y {
			return Vec2{}, Vec2{}, false
		}
	}
	return Vec2{minX, minY}, Vec2{maxX - minX, maxY - minY}, true
}

// Ellipse approximates an elliptical ring slice by a polygon
// whose sagitta error stays within tolerance. A full circle is
// produced when innerRx and innerRy are zero and the angles
// are equal.
func Ellipse(center Vec2, rx, ry, innerRx, innerRy, initialAngle, finalAngle, tolerance float64, layer, datatype uint32) *Polygon {
	if tolerance <= 0 {
		tolerance = 1e-2
	}
	full := initialAngle == finalAngle
	if full {
		finalAngle = initialAngle + 2*math.Pi
	}
	outer := arcPoints(center, rx, ry, initialAngle, finalAngle, tolerance, full)
	p := &Polygon{Layer: layer, Datatype: datatype}
	if innerRx > 0 && innerRy > 0 {
		inner := arcPoints(center, innerRx, innerRy, finalAngle, initialAngle, tolerance, full)
		p.Points = append(outer, inner...)
	} else if !full {
		p.Points = append(outer, center)
	} else {
		p.Points = outer
	}
	return p
}

func arcPoints(center Vec2, rx, ry, from, to, tolerance float64, full bool) []Vec2 {
	r := math.Max(rx, ry)
	arg := 1.0
	if r > 0 {
		arg = 1 - tolerance/r
	}
	if arg < -1 {
		arg = -1
	}
	step := 2 * math.Acos(arg)
	if step <= 0 || math.IsNaN(step) {
		step = math.Pi / 2
	}
	n := int(math.Ceil(math.Abs(to-from) / step))
	if n < 3 {
		n = 3
	}
	last := n
	if full {
		// the closing vertex is implied
		last = n - 1
	}
	pts := make([]Vec2, 0, last+1)
	for i := 0; i <= last; i++ {
		a := from + (to-from)*float64(i)/float64(n)
		pts = append(pts, Vec2{center.X + rx*math.Cos(a), center.Y + ry*math.Sin(a)})
	}
	return pts
}
