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

// Package oasis reads and writes OASIS layout libraries.
//
// OASIS is a byte-oriented format: a fixed magic header, a
// START record, then single-byte-tagged records until END.
// Element records share decoder state through modal
// variables, names may be referenced before they are defined,
// and record runs may be DEFLATE-compressed inside CBLOCK
// containers.
package oasis

// recordType is the one-byte OASIS record tag.
type recordType uint8

const (
	recPAD recordType = iota
	recSTART
	recEND
	recCELLNAMEImplicit
	recCELLNAME
	recTEXTSTRINGImplicit
	recTEXTSTRING
	recPROPNAMEImplicit
	recPROPNAME
	recPROPSTRINGImplicit
	recPROPSTRING
	recLAYERNAMEData
	recLAYERNAMEText
	recCELLRefNum
	recCELL
	recXYABSOLUTE
	recXYRELATIVE
	recPLACEMENT
	recPLACEMENTTransform
	recTEXT
	recRECTANGLE
	recPOLYGON
	recPATH
	recTRAPEZOIDAB
	recTRAPEZOIDA
	recTRAPEZOIDB
	recCTRAPEZOID
	recCIRCLE
	recPROPERTY
	recLASTPROPERTY
	recXNAMEImplicit
	recXNAME
	recXELEMENT
	recXGEOMETRY
	recCBLOCK
)

// property value data types
const (
	dtRealPositiveInteger uint8 = iota
	dtRealNegativeInteger
	dtRealPositiveReciprocal
	dtRealNegativeReciprocal
	dtRealPositiveRatio
	dtRealNegativeRatio
	dtRealFloat
	dtRealDouble
	dtUnsignedInteger
	dtSignedInteger
	dtAString
	dtBString
	dtNString
	dtReferenceA
	dtReferenceB
	dtReferenceN
)

// magic is the mandatory file header; the final byte is the
// START record tag.
const magic = "%SEMI-OASIS\r\n\x01"

// version is the only OASIS version this package handles.
const version = "1.0"
