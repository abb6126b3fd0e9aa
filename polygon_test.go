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

import (
	"math"
	"testing"
)

func TestIsRectangle(t *testing.T) {
	r := Rectangle(Vec2{0, 0}, Vec2{2, 1}, 1, 0)
	min, dim, ok := r.IsRectangle()
	if !ok {
		t.Fatal("rectangle not recognized")
	}
	if min != (Vec2{0, 0}) || dim != (Vec2{2, 1}) {
		t.Errorf("min %v dim %v", min, dim)
	}
	tri := &Polygon{Points: []Vec2{{0, 0}, {1, 0}, {0, 1}}}
	if _, _, ok := tri.IsRectangle(); ok {
		t.Error("triangle recognized as rectangle")
	}
	skew := &Polygon{Points: []Vec2{{0, 0}, {1, 0}, {2, 1}, {1, 1}}}
	if _, _, ok := skew.IsRectangle(); ok {
		t.Error("parallelogram recognized as rectangle")
	}
}

func TestEllipseTolerance(t *testing.T) {
	const r, tol = 10.0, 0.01
	p := Ellipse(Vec2{0, 0}, r, r, 0, 0, 0, 0, tol, 5, 2)
	if p.Layer != 5 || p.Datatype != 2 {
		t.Fatalf("layer tag (%d, %d)", p.Layer, p.Datatype)
	}
	if len(p.Points) < 8 {
		t.Fatalf("only %d vertices", len(p.Points))
	}
	// every vertex on the circle, chord sagitta within tolerance
	for i, pt := range p.Points {
		d := math.Hypot(pt.X, pt.Y)
		if math.Abs(d-r) > 1e-9 {
			t.Fatalf("vertex %d at radius %g", i, d)
		}
	}
	n := len(p.Points)
	for i := range p.Points {
		a, b := p.Points[i], p.Points[(i+1)%n]
		mid := Vec2{(a.X + b.X) / 2, (a.Y + b.Y) / 2}
		sagitta := r - math.Hypot(mid.X, mid.Y)
		if sagitta > tol*1.001 {
			t.Fatalf("edge %d sagitta %g exceeds tolerance", i, sagitta)
		}
	}
}

func TestPathTessellation(t *testing.T) {
	p := &FlexPath{
		Spine: []Vec2{{0, 0}, {10, 0}},
		Elements: []PathElement{{
			Layer:              3,
			HalfWidthAndOffset: []Vec2{{1, 0}, {1, 0}},
		}},
	}
	polys := p.ToPolygons()
	if len(polys) != 1 {
		t.Fatalf("%d polygons", len(polys))
	}
	got := polys[0]
	if got.Layer != 3 {
		t.Errorf("layer %d", got.Layer)
	}
	want := []Vec2{{0, 1}, {10, 1}, {10, -1}, {0, -1}}
	for i := range want {
		if got.Points[i] != want[i] {
			t.Errorf("vertex %d: %v, want %v", i, got.Points[i], want[i])
		}
	}
}

func TestSegmentRelative(t *testing.T) {
	p := &FlexPath{Elements: make([]PathElement, 1)}
	p.Spine = append(p.Spine, Vec2{5, 5})
	p.Elements[0].HalfWidthAndOffset = append(p.Elements[0].HalfWidthAndOffset, Vec2{1, 0})
	p.Segment([]Vec2{{1, 0}, {2, 0}}, nil, nil, true)
	want := []Vec2{{5, 5}, {6, 5}, {7, 5}}
	for i := range want {
		if p.Spine[i] != want[i] {
			t.Errorf("spine[%d] = %v, want %v", i, p.Spine[i], want[i])
		}
	}
	if len(p.Elements[0].HalfWidthAndOffset) != 3 {
		t.Errorf("half-width profile length %d", len(p.Elements[0].HalfWidthAndOffset))
	}
}
