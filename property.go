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

// GDSPropertyName is the reserved property name used to carry
// GDSII (PROPATTR, PROPVALUE) pairs through the generic
// property model.
const GDSPropertyName = "S_GDS_PROPERTY"

// PropertyType discriminates PropertyValue variants.
type PropertyType uint8

const (
	PropUnsigned PropertyType = iota
	PropSigned
	PropReal
	PropString
)

// PropertyValue is one value in a property's value list.
//
// A value decoded from an OASIS reference data type starts out
// as PropUnsigned holding the table reference number; the END
// fix-up pass rewrites it into a PropString.
type PropertyValue struct {
	Type     PropertyType
	Unsigned uint64
	Signed   int64
	Real     float64
	Bytes    []byte
}

// Property is a named list of values attached to a library,
// cell, or element. Insertion order is preserved.
type Property struct {
	// Name is the property name once resolved.
	Name string
	// NameID holds an OASIS propname reference number while
	// the name is still unresolved (Unresolved reports which).
	NameID     uint64
	Unresolved bool
	Values     []*PropertyValue
}

// CopyValues returns a deep copy of the value list.
func CopyValues(values []*PropertyValue) []*PropertyValue {
	if values == nil {
		return nil
	}
	out := make([]*PropertyValue, len(values))
	for i, v := range values {
		c := *v
		if v.Bytes != nil {
			c.Bytes = append([]byte(nil), v.Bytes...)
		}
		out[i] = &c
	}
	return out
}

// SetGDSProperty attaches a GDSII (attr, value) pair to the
// property list and returns the updated list.
func SetGDSProperty(props []*Property, attr uint16, value []byte) []*Property {
	return append(props, &Property{
		Name: GDSPropertyName,
		Values: []*PropertyValue{
			{Type: PropUnsigned, Unsigned: uint64(attr)},
			{Type: PropString, Bytes: value},
		},
	})
}

// GDSProperty extracts the GDSII (attr, value) pairs from a
// property list, in order.
func GDSProperty(props []*Property) (attrs []uint16, values [][]byte) {
	for _, p := range props {
		if p.Name != GDSPropertyName || len(p.Values) != 2 {
			continue
		}
		if p.Values[0].Type != PropUnsigned || p.Values[1].Type != PropString {
			continue
		}
		attrs = append(attrs, uint16(p.Values[0].Unsigned))
		values = append(values, p.Values[1].Bytes)
	}
	return attrs, values
}
