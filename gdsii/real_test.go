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

package gdsii

import (
	"math"
	"math/rand"
	"testing"
)

func TestRealKnownValues(t *testing.T) {
	cases := []struct {
		d    float64
		want uint64
	}{
		{0, 0},
		// 1.0 = 16^1 * 1/16
		{1, 0x4110000000000000},
		{2, 0x4120000000000000},
		{-1, 0xc110000000000000},
		// 1e-9, the usual precision, from the GDSII reference
		{1e-9, 0x3944b82fa09b5a54},
		{1e-3, 0x3e4189374bc6a7f0},
		{1e6, 0x45f4240000000000},
	}
	for _, c := range cases {
		if got := RealFromFloat64(c.d); got != c.want {
			t.Errorf("RealFromFloat64(%g) = %#016x, want %#016x", c.d, got, c.want)
		}
		back := RealToFloat64(c.want)
		if c.d == 0 {
			if back != 0 {
				t.Errorf("RealToFloat64(0) = %g", back)
			}
			continue
		}
		if rel := math.Abs(back-c.d) / math.Abs(c.d); rel > 0x1p-52 {
			t.Errorf("RealToFloat64(%#016x) = %g, want %g", c.want, back, c.d)
		}
	}
}

func TestRealNormalized(t *testing.T) {
	for _, d := range []float64{1, 3.25, 1e-9, 2.5e-7, 123456.789, 0.9999} {
		w := RealFromFloat64(d)
		if w&0x00f0000000000000 == 0 {
			t.Errorf("%g: top fraction nibble is zero in %#016x", d, w)
		}
	}
}

func TestRealRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		// the format holds magnitudes up to 16^63 = 2^252;
		// beyond that the encoder saturates
		exp := rng.Intn(504) - 252 // [-252, 251]
		d := math.Ldexp(1+rng.Float64(), exp)
		if rng.Intn(2) == 0 {
			d = -d
		}
		got := RealToFloat64(RealFromFloat64(d))
		if rel := math.Abs(got-d) / math.Abs(d); rel > 0x1p-52 {
			t.Fatalf("round trip of %g gives %g (rel %g)", d, got, rel)
		}
	}
}
