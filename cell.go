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

// Cell is a named container of geometry, labels, and
// references to other cells. Names are unique within a
// library.
type Cell struct {
	Name        string
	Polygons    []*Polygon
	FlexPaths   []*FlexPath
	RobustPaths []*RobustPath
	References  []*Reference
	Labels      []*Label
	Properties  []*Property
}

// Dependencies fills deps with the cells directly referenced
// by c, keyed by cell name. When recursive is set, indirect
// dependencies are included as well.
func (c *Cell) Dependencies(recursive bool, deps map[string]*Cell) {
	for _, ref := range c.References {
		if ref.Kind != RefCell || ref.Cell == nil {
			continue
		}
		if _, ok := deps[ref.Cell.Name]; ok {
			continue
		}
		deps[ref.Cell.Name] = ref.Cell
		if recursive {
			ref.Cell.Dependencies(true, deps)
		}
	}
}

// RawDependencies fills deps with the raw cells directly
// referenced by c, keyed by name.
func (c *Cell) RawDependencies(deps map[string]*RawCell) {
	for _, ref := range c.References {
		if ref.Kind == RefRawCell && ref.Raw != nil {
			deps[ref.Raw.Name] = ref.Raw
		}
	}
}
