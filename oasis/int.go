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
	"errors"
	"fmt"
	"io"
)

// Unsigned integers are 7-bit little-endian varints with the
// continuation bit in the MSB of every byte. Signed integers
// keep the sign in bit zero and the magnitude above it.

var errVarintOverflow = errors.New("oasis: varint overflows 64 bits")

func readUint(r io.ByteReader) (uint64, error) {
	var v uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if shift >= 64 || (shift == 63 && b&0x7f > 1) {
			return 0, errVarintOverflow
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
		shift += 7
	}
}

func writeUint(w io.ByteWriter, v uint64) error {
	for v >= 0x80 {
		if err := w.WriteByte(byte(v) | 0x80); err != nil {
			return err
		}
		v >>= 7
	}
	return w.WriteByte(byte(v))
}

// uintSize returns the encoded length of v.
func uintSize(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

func readInt(r io.ByteReader) (int64, error) {
	u, err := readUint(r)
	if err != nil {
		return 0, err
	}
	mag := int64(u >> 1)
	if u&1 != 0 {
		return -mag, nil
	}
	return mag, nil
}

func writeInt(w io.ByteWriter, v int64) error {
	if v < 0 {
		return writeUint(w, uint64(-v)<<1|1)
	}
	return writeUint(w, uint64(v)<<1)
}

// read1Delta reads a one-dimensional delta: a varint whose
// bit zero is the direction sign.
func read1Delta(r io.ByteReader) (int64, error) {
	return readInt(r)
}

func write1Delta(w io.ByteWriter, v int64) error {
	return writeInt(w, v)
}

// read2Delta reads a delta whose low two bits select one of
// the four axis directions.
func read2Delta(r io.ByteReader) (x, y int64, err error) {
	u, err := readUint(r)
	if err != nil {
		return 0, 0, err
	}
	mag := int64(u >> 2)
	switch u & 3 {
	case 0: // east
		return mag, 0, nil
	case 1: // north
		return 0, mag, nil
	case 2: // west
		return -mag, 0, nil
	default: // south
		return 0, -mag, nil
	}
}

func write2Delta(w io.ByteWriter, x, y int64) error {
	var dir, mag uint64
	switch {
	case y == 0 && x >= 0:
		dir, mag = 0, uint64(x)
	case x == 0 && y > 0:
		dir, mag = 1, uint64(y)
	case y == 0:
		dir, mag = 2, uint64(-x)
	case x == 0:
		dir, mag = 3, uint64(-y)
	default:
		return fmt.Errorf("oasis: (%d, %d) is not a 2-delta", x, y)
	}
	return writeUint(w, mag<<2|dir)
}

// read3Delta reads a delta whose low three bits select one of
// the eight octant directions.
func read3Delta(r io.ByteReader) (x, y int64, err error) {
	u, err := readUint(r)
	if err != nil {
		return 0, 0, err
	}
	return decode3Delta(u)
}

func decode3Delta(u uint64) (x, y int64, err error) {
	mag := int64(u >> 3)
	switch u & 7 {
	case 0: // east
		return mag, 0, nil
	case 1: // north
		return 0, mag, nil
	case 2: // west
		return -mag, 0, nil
	case 3: // south
		return 0, -mag, nil
	case 4: // northeast
		return mag, mag, nil
	case 5: // northwest
		return -mag, mag, nil
	case 6: // southwest
		return -mag, -mag, nil
	default: // southeast
		return mag, -mag, nil
	}
}

func octant(x, y int64) (dir uint64, mag int64, ok bool) {
	switch {
	case y == 0 && x >= 0:
		return 0, x, true
	case x == 0 && y > 0:
		return 1, y, true
	case y == 0:
		return 2, -x, true
	case x == 0:
		return 3, -y, true
	case x == y && x > 0:
		return 4, x, true
	case -x == y && y > 0:
		return 5, y, true
	case x == y:
		return 6, -x, true
	case x == -y && x > 0:
		return 7, x, true
	}
	return 0, 0, false
}

func write3Delta(w io.ByteWriter, x, y int64) error {
	dir, mag, ok := octant(x, y)
	if !ok {
		return fmt.Errorf("oasis: (%d, %d) is not a 3-delta", x, y)
	}
	return writeUint(w, uint64(mag)<<3|dir)
}

// readGDelta reads a general delta. Bit zero of the first
// varint selects the form: zero is a single 3-delta, one is a
// pair of signed magnitudes.
func readGDelta(r io.ByteReader) (x, y int64, err error) {
	u, err := readUint(r)
	if err != nil {
		return 0, 0, err
	}
	if u&1 == 0 {
		return decode3Delta(u >> 1)
	}
	x = int64(u >> 2)
	if u&2 != 0 {
		x = -x
	}
	v, err := readUint(r)
	if err != nil {
		return 0, 0, err
	}
	y = int64(v >> 1)
	if v&1 != 0 {
		y = -y
	}
	return x, y, nil
}

func writeGDelta(w io.ByteWriter, x, y int64) error {
	if dir, mag, ok := octant(x, y); ok {
		return writeUint(w, uint64(mag)<<4|dir<<1)
	}
	first := uint64(x) << 2
	if x < 0 {
		first = uint64(-x)<<2 | 2
	}
	if err := writeUint(w, first|1); err != nil {
		return err
	}
	second := uint64(y) << 1
	if y < 0 {
		second = uint64(-y)<<1 | 1
	}
	return writeUint(w, second)
}

// readString reads a length-prefixed byte string.
func readString(r *reader) ([]byte, error) {
	n, err := readUint(r)
	if err != nil {
		return nil, err
	}
	if n > 1<<20 {
		return nil, fmt.Errorf("oasis: unreasonable string length %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeBytes(w *writer, b []byte) error {
	if err := writeUint(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func writeString(w *writer, s string) error {
	if err := writeUint(w, uint64(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}
