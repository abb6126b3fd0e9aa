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

func TestRepetitionSize(t *testing.T) {
	cases := []struct {
		rep  Repetition
		want uint64
	}{
		{Repetition{}, 1},
		{Repetition{Kind: RepRectangular, Columns: 3, Rows: 2, Spacing: Vec2{1, 1}}, 6},
		{Repetition{Kind: RepRegular, Columns: 2, Rows: 2, V1: Vec2{1, 0}, V2: Vec2{0, 1}}, 4},
		{Repetition{Kind: RepExplicit, Offsets: []Vec2{{1, 0}, {2, 0}}}, 3},
	}
	for i := range cases {
		if got := cases[i].rep.Size(); got != cases[i].want {
			t.Errorf("case %d: Size() = %d, want %d", i, got, cases[i].want)
		}
		if got := cases[i].rep.Expand(); uint64(len(got)) != cases[i].want {
			t.Errorf("case %d: len(Expand()) = %d, want %d", i, len(got), cases[i].want)
		}
	}
}

func TestRepetitionExpand(t *testing.T) {
	rep := Repetition{Kind: RepRectangular, Columns: 2, Rows: 2, Spacing: Vec2{10, 20}}
	got := rep.Expand()
	want := []Vec2{{0, 0}, {10, 0}, {0, 20}, {10, 20}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("offset %d: got %v, want %v", i, got[i], want[i])
		}
	}
	if got[0] != (Vec2{}) {
		t.Error("origin instance must come first")
	}
}

func TestMultipleOfPiOver2(t *testing.T) {
	if m, ok := MultipleOfPiOver2(math.Pi / 2); !ok || m != 1 {
		t.Errorf("pi/2: got (%d, %v)", m, ok)
	}
	if m, ok := MultipleOfPiOver2(-math.Pi / 2); !ok || m != -1 {
		t.Errorf("-pi/2: got (%d, %v)", m, ok)
	}
	if m, ok := MultipleOfPiOver2(3 * math.Pi); !ok || m != 6 {
		t.Errorf("3pi: got (%d, %v)", m, ok)
	}
	if _, ok := MultipleOfPiOver2(1.0); ok {
		t.Error("1 rad must not be a multiple of pi/2")
	}
}
