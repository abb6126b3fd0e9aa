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

// Label is a text annotation on a (layer, texttype) pair.
type Label struct {
	Text string
	// TextID stashes an OASIS textstring reference number
	// until the END fix-up pass fills Text.
	TextID        uint64
	HasTextID     bool
	Layer         uint32
	Texttype      uint32
	Origin        Vec2
	Anchor        Anchor
	Rotation      float64
	Magnification float64
	XReflection   bool
	Repetition    Repetition
	Properties    []*Property
}
