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
	"bufio"
	"fmt"
	"io"

	"github.com/SnellerInc/layout/compr"
)

// reader is the decoder byte source. After a CBLOCK record is
// inflated, reads are served from the in-memory block until
// it is exhausted, then fall back to the file.
type reader struct {
	src   *bufio.Reader
	block []byte
	pos   int
}

func newReader(src io.Reader) *reader {
	return &reader{src: bufio.NewReader(src)}
}

func (r *reader) ReadByte() (byte, error) {
	if r.block != nil {
		if r.pos < len(r.block) {
			b := r.block[r.pos]
			r.pos++
			return b, nil
		}
		r.block = nil
	}
	return r.src.ReadByte()
}

func (r *reader) Read(p []byte) (int, error) {
	if r.block != nil {
		if r.pos < len(r.block) {
			n := copy(p, r.block[r.pos:])
			r.pos += n
			return n, nil
		}
		r.block = nil
	}
	return r.src.Read(p)
}

// inflate stages size bytes of decompressed CBLOCK content.
func (r *reader) inflate(compressed []byte, size uint64) error {
	block := make([]byte, size)
	if err := compr.Decompression("flate").Decompress(compressed, block); err != nil {
		return err
	}
	r.block = block
	r.pos = 0
	return nil
}

// writer is the encoder byte sink. It tracks the absolute
// file offset and can redirect writes into an in-memory
// buffer to stage the body of a CBLOCK before compression.
type writer struct {
	dst     *bufio.Writer
	off     uint64
	buf     []byte
	staging bool
}

func newWriter(dst io.Writer) *writer {
	return &writer{dst: bufio.NewWriter(dst)}
}

func (w *writer) WriteByte(b byte) error {
	if w.staging {
		w.buf = append(w.buf, b)
		return nil
	}
	if err := w.dst.WriteByte(b); err != nil {
		return err
	}
	w.off++
	return nil
}

func (w *writer) Write(p []byte) (int, error) {
	if w.staging {
		w.buf = append(w.buf, p...)
		return len(p), nil
	}
	n, err := w.dst.Write(p)
	w.off += uint64(n)
	return n, err
}

// offset is the absolute file position; only meaningful when
// not staging.
func (w *writer) offset() uint64 { return w.off }

// beginStage redirects writes to the in-memory buffer.
func (w *writer) beginStage() {
	w.buf = w.buf[:0]
	w.staging = true
}

// endStage stops staging and emits the staged bytes as a
// CBLOCK record (compression type 0, raw DEFLATE).
func (w *writer) endStage(level int) error {
	w.staging = false
	payload, err := compr.Compression("flate", level).Compress(w.buf, nil)
	if err != nil {
		return err
	}
	if err := w.WriteByte(uint8(recCBLOCK)); err != nil {
		return err
	}
	if err := writeUint(w, 0); err != nil {
		return err
	}
	if err := writeUint(w, uint64(len(w.buf))); err != nil {
		return err
	}
	if err := writeUint(w, uint64(len(payload))); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

func (w *writer) flush() error {
	if w.staging {
		return fmt.Errorf("oasis: flush while staging a CBLOCK")
	}
	return w.dst.Flush()
}
