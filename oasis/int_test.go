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

import (
	"bytes"
	"math"
	"math/bits"
	"math/rand"
	"testing"
)

// pipe builds a connected writer/reader pair over a buffer.
func pipe() (*writer, func() *reader) {
	var buf bytes.Buffer
	w := newWriter(&buf)
	return w, func() *reader {
		if err := w.flush(); err != nil {
			panic(err)
		}
		return newReader(bytes.NewReader(buf.Bytes()))
	}
}

func TestUintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 1 << 14, 1<<14 - 1, 1 << 21, 1<<35 + 17, math.MaxUint64}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		values = append(values, rng.Uint64()>>(rng.Intn(64)))
	}
	w, done := pipe()
	for _, v := range values {
		if err := writeUint(w, v); err != nil {
			t.Fatal(err)
		}
	}
	r := done()
	for _, v := range values {
		got, err := readUint(r)
		if err != nil {
			t.Fatal(err)
		}
		if got != v {
			t.Fatalf("round trip of %d gives %d", v, got)
		}
	}
}

func TestUintSize(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 1<<14 - 1, 1 << 14, math.MaxUint64} {
		want := 1
		if v > 0 {
			want = (bits.Len64(v) + 6) / 7
		}
		if got := uintSize(v); got != want {
			t.Errorf("uintSize(%d) = %d, want %d", v, got, want)
		}
		w, done := pipe()
		if err := writeUint(w, v); err != nil {
			t.Fatal(err)
		}
		r := done()
		n := 0
		for {
			if _, err := r.ReadByte(); err != nil {
				break
			}
			n++
		}
		if n != want {
			t.Errorf("encoding of %d takes %d bytes, want %d", v, n, want)
		}
	}
}

func TestIntRoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 63, -64, 64, 1 << 30, -(1 << 30), math.MaxInt64 / 2}
	w, done := pipe()
	for _, v := range values {
		if err := writeInt(w, v); err != nil {
			t.Fatal(err)
		}
	}
	r := done()
	for _, v := range values {
		got, err := readInt(r)
		if err != nil {
			t.Fatal(err)
		}
		if got != v {
			t.Fatalf("round trip of %d gives %d", v, got)
		}
	}
}

func TestDeltaRoundTrip(t *testing.T) {
	pairs := [][2]int64{
		{0, 0}, {5, 0}, {-5, 0}, {0, 7}, {0, -7},
		{9, 9}, {-9, 9}, {-9, -9}, {9, -9},
		{1 << 30, 1 << 30}, {-(1 << 30), 1 << 30},
	}
	w, done := pipe()
	for _, p := range pairs {
		if err := write3Delta(w, p[0], p[1]); err != nil {
			t.Fatal(err)
		}
		if err := writeGDelta(w, p[0], p[1]); err != nil {
			t.Fatal(err)
		}
	}
	general := [][2]int64{{3, 4}, {-3, 4}, {3, -4}, {-3, -4}, {123456, -654321}}
	for _, p := range general {
		if err := writeGDelta(w, p[0], p[1]); err != nil {
			t.Fatal(err)
		}
	}
	r := done()
	for _, p := range pairs {
		x, y, err := read3Delta(r)
		if err != nil {
			t.Fatal(err)
		}
		if x != p[0] || y != p[1] {
			t.Fatalf("3-delta (%d, %d) gives (%d, %d)", p[0], p[1], x, y)
		}
		if x, y, err = readGDelta(r); err != nil {
			t.Fatal(err)
		}
		if x != p[0] || y != p[1] {
			t.Fatalf("g-delta (%d, %d) gives (%d, %d)", p[0], p[1], x, y)
		}
	}
	for _, p := range general {
		x, y, err := readGDelta(r)
		if err != nil {
			t.Fatal(err)
		}
		if x != p[0] || y != p[1] {
			t.Fatalf("g-delta (%d, %d) gives (%d, %d)", p[0], p[1], x, y)
		}
	}
}

func Test2DeltaRoundTrip(t *testing.T) {
	pairs := [][2]int64{{0, 0}, {12, 0}, {-12, 0}, {0, 3}, {0, -3}, {1 << 31, 0}}
	w, done := pipe()
	for _, p := range pairs {
		if err := write2Delta(w, p[0], p[1]); err != nil {
			t.Fatal(err)
		}
	}
	if err := write2Delta(w, 1, 1); err == nil {
		t.Error("diagonal accepted as 2-delta")
	}
	r := done()
	for _, p := range pairs {
		x, y, err := read2Delta(r)
		if err != nil {
			t.Fatal(err)
		}
		if x != p[0] || y != p[1] {
			t.Fatalf("2-delta (%d, %d) gives (%d, %d)", p[0], p[1], x, y)
		}
	}
}
