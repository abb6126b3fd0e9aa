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
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// OASIS reals have eight encodings selected by a leading
// unsigned-integer tag: whole numbers and their reciprocals
// in both signs, ratios, and IEEE float/double stored
// little-endian.

// readRealType reads the payload of a real with a known type
// tag.
func readRealType(r *reader, typ uint8) (float64, error) {
	switch typ {
	case dtRealPositiveInteger, dtRealNegativeInteger:
		u, err := readUint(r)
		if err != nil {
			return 0, err
		}
		d := float64(u)
		if typ == dtRealNegativeInteger {
			d = -d
		}
		return d, nil
	case dtRealPositiveReciprocal, dtRealNegativeReciprocal:
		u, err := readUint(r)
		if err != nil {
			return 0, err
		}
		d := 1 / float64(u)
		if typ == dtRealNegativeReciprocal {
			d = -d
		}
		return d, nil
	case dtRealPositiveRatio, dtRealNegativeRatio:
		num, err := readUint(r)
		if err != nil {
			return 0, err
		}
		den, err := readUint(r)
		if err != nil {
			return 0, err
		}
		d := float64(num) / float64(den)
		if typ == dtRealNegativeRatio {
			d = -d
		}
		return d, nil
	case dtRealFloat:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[:]))), nil
	case dtRealDouble:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
	}
	return 0, fmt.Errorf("oasis: invalid real type %d", typ)
}

// readReal reads a standalone real (tag plus payload).
func readReal(r *reader) (float64, error) {
	typ, err := readUint(r)
	if err != nil {
		return 0, err
	}
	if typ > uint64(dtRealDouble) {
		return 0, fmt.Errorf("oasis: invalid real type %d", typ)
	}
	return readRealType(r, uint8(typ))
}

// writeReal writes v in the most compact encoding among
// whole number, reciprocal, and IEEE double.
func writeReal(w *writer, v float64) error {
	if v == math.Trunc(v) && math.Abs(v) < 1<<63 {
		typ := dtRealPositiveInteger
		if math.Signbit(v) {
			typ = dtRealNegativeInteger
			v = -v
		}
		if err := w.WriteByte(typ); err != nil {
			return err
		}
		return writeUint(w, uint64(v))
	}
	if inv := 1 / v; math.Abs(inv) < 1<<63 && inv == math.Trunc(inv) {
		typ := dtRealPositiveReciprocal
		if math.Signbit(inv) {
			typ = dtRealNegativeReciprocal
			inv = -inv
		}
		if err := w.WriteByte(typ); err != nil {
			return err
		}
		return writeUint(w, uint64(inv))
	}
	if err := w.WriteByte(dtRealDouble); err != nil {
		return err
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	_, err := w.Write(buf[:])
	return err
}
