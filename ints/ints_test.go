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

package ints

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	if got := Clamp(int64(1)<<40, math.MinInt32, math.MaxInt32); got != math.MaxInt32 {
		t.Errorf("Clamp high: %d", got)
	}
	if got := Clamp(-int64(1)<<40, math.MinInt32, math.MaxInt32); got != math.MinInt32 {
		t.Errorf("Clamp low: %d", got)
	}
	if got := Clamp(int64(7), math.MinInt32, math.MaxInt32); got != 7 {
		t.Errorf("Clamp pass-through: %d", got)
	}
}

func TestAlignUp(t *testing.T) {
	cases := [][3]uint{{0, 2, 0}, {1, 2, 2}, {2, 2, 2}, {5, 2, 6}, {5, 4, 8}}
	for _, c := range cases {
		if got := AlignUp(c[0], c[1]); got != c[2] {
			t.Errorf("AlignUp(%d, %d) = %d, want %d", c[0], c[1], got, c[2])
		}
	}
}
