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

// layconv converts layout libraries between GDSII and OASIS
// stream formats and probes their unit definitions.
//
// Usage:
//
//	layconv [-v] [-d definition.yaml] <input> <output>
//	layconv -probe <input>
//
// The formats are chosen by file extension (.gds, .gdsii,
// .oas, .oasis).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/SnellerInc/layout"
	"github.com/SnellerInc/layout/gdsii"
	"github.com/SnellerInc/layout/oasis"
)

var (
	dashv     bool
	dashprobe bool
	dashd     string
)

func init() {
	flag.BoolVar(&dashv, "v", false, "verbose")
	flag.BoolVar(&dashprobe, "probe", false, "print unit and precision of the input and exit")
	flag.StringVar(&dashd, "d", "", "conversion definition file (yaml or json)")
}

// definition is the optional conversion definition; the zero
// value keeps native units and writes uncompressed output.
type definition struct {
	// Unit rescales the library to this user unit in meters.
	Unit float64 `json:"unit"`
	// Tolerance is the curve tolerance in user units.
	Tolerance float64 `json:"tolerance"`
	// Cblock enables CBLOCK compression of OASIS cells.
	Cblock bool `json:"cblock"`
	// Level is the DEFLATE level for CBLOCK records.
	Level int `json:"level"`
	// MaxPoints is the GDSII polygon vertex limit.
	MaxPoints int `json:"max_points"`
}

func exitf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "layconv: "+f+"\n", args...)
	os.Exit(1)
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gds", ".gdsii":
		return "gdsii"
	case ".oas", ".oasis":
		return "oasis"
	}
	exitf("cannot infer format of %q", path)
	return ""
}

func probe(path string) {
	switch format(path) {
	case "gdsii":
		unit, precision, err := gdsii.Units(path)
		if err != nil {
			exitf("%v", err)
		}
		fmt.Printf("%s: unit %g m, precision %g m\n", path, unit, precision)
	case "oasis":
		precision, err := oasis.Precision(path)
		if err != nil {
			exitf("%v", err)
		}
		fmt.Printf("%s: precision %g m\n", path, precision)
	}
}

func main() {
	flag.Parse()
	args := flag.Args()
	if dashprobe {
		if len(args) != 1 {
			exitf("usage: layconv -probe <input>")
		}
		probe(args[0])
		return
	}
	if len(args) != 2 {
		exitf("usage: layconv [-v] [-d definition.yaml] <input> <output>")
	}
	in, out := args[0], args[1]

	var def definition
	if dashd != "" {
		buf, err := os.ReadFile(dashd)
		if err != nil {
			exitf("%v", err)
		}
		if err := yaml.Unmarshal(buf, &def); err != nil {
			exitf("parsing %s: %v", dashd, err)
		}
	}
	var logger *log.Logger
	if dashv {
		logger = log.New(os.Stderr, "layconv: ", 0)
	}

	var lib *layout.Library
	var err error
	switch format(in) {
	case "gdsii":
		d := gdsii.Decoder{Unit: def.Unit, Tolerance: def.Tolerance, Logger: logger}
		lib, err = d.DecodeFile(in)
	case "oasis":
		d := oasis.Decoder{Unit: def.Unit, Tolerance: def.Tolerance, Logger: logger}
		lib, err = d.DecodeFile(in)
	}
	if err != nil {
		exitf("reading %s: %v", in, err)
	}
	if dashv {
		top, _ := lib.TopLevel()
		logger.Printf("%s: %d cells, %d top-level", in, len(lib.Cells), len(top))
	}

	switch format(out) {
	case "gdsii":
		e := gdsii.Encoder{MaxPoints: def.MaxPoints, Logger: logger}
		err = e.EncodeFile(lib, out)
	case "oasis":
		e := oasis.Encoder{Cblock: def.Cblock, Level: def.Level, Logger: logger}
		err = e.EncodeFile(lib, out)
	}
	if err != nil {
		exitf("writing %s: %v", out, err)
	}
}
