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

// Package compr provides a unified interface wrapping
// third-party compression libraries.
//
// OASIS CBLOCK records mandate raw DEFLATE (compression type
// zero), so the only backend is klauspost/compress/flate.
package compr

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// Compressor describes the interface that a writer needs a
// compression algorithm to implement.
type Compressor interface {
	// Name is the name of the compression algorithm.
	Name() string
	// Compress should append the compressed contents
	// of src to dst and return the result.
	Compress(src, dst []byte) ([]byte, error)
}

// Decompressor is the interface that a reader uses to
// decompress blocks.
type Decompressor interface {
	// Name is the name of the compression algorithm.
	// See also Compressor.Name.
	Name() string
	// Decompress decompresses source data into dst,
	// which must be exactly the size of the decompressed
	// data.
	Decompress(src, dst []byte) error
}

type flateCompressor struct {
	level int
}

func (f flateCompressor) Name() string { return "flate" }

func (f flateCompressor) Compress(src, dst []byte) ([]byte, error) {
	buf := bytes.NewBuffer(dst)
	w, err := flate.NewWriter(buf, f.level)
	if err != nil {
		return nil, fmt.Errorf("compr: %w", err)
	}
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("compr: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compr: %w", err)
	}
	return buf.Bytes(), nil
}

type flateDecompressor struct{}

func (flateDecompressor) Name() string { return "flate" }

func (flateDecompressor) Decompress(src, dst []byte) error {
	r := flate.NewReader(bytes.NewReader(src))
	defer r.Close()
	n, err := io.ReadFull(r, dst)
	if err != nil && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("compr: %w", err)
	}
	if n != len(dst) {
		return fmt.Errorf("compr: expected %d bytes decompressed; got %d", len(dst), n)
	}
	return nil
}

// Compression selects a compression algorithm by name.
// The level argument follows flate semantics
// (flate.BestSpeed through flate.BestCompression).
func Compression(name string, level int) Compressor {
	switch name {
	case "flate":
		if level < flate.HuffmanOnly || level > flate.BestCompression {
			level = flate.DefaultCompression
		}
		return flateCompressor{level: level}
	default:
		return nil
	}
}

// Decompression selects a decompression algorithm by name.
func Decompression(name string) Decompressor {
	switch name {
	case "flate":
		return flateDecompressor{}
	default:
		return nil
	}
}
