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

// Package gdsii reads and writes GDSII stream format layout
// libraries.
//
// A GDSII file is a sequence of records, each with a 4-byte
// header: big-endian record length (inclusive of the header),
// a record type tag, and a data type tag. All multi-byte
// payloads are big-endian.
package gdsii

// recordType is the one-byte GDSII record type tag.
type recordType uint8

const (
	recHEADER recordType = iota
	recBGNLIB
	recLIBNAME
	recUNITS
	recENDLIB
	recBGNSTR
	recSTRNAME
	recENDSTR
	recBOUNDARY
	recPATH
	recSREF
	recAREF
	recTEXT
	recLAYER
	recDATATYPE
	recWIDTH
	recXY
	recENDEL
	recSNAME
	recCOLROW
	recTEXTNODE
	recNODE
	recTEXTTYPE
	recPRESENTATION
	recSPACING
	recSTRING
	recSTRANS
	recMAG
	recANGLE
	recUINTEGER
	recUSTRING
	recREFLIBS
	recFONTS
	recPATHTYPE
	recGENERATIONS
	recATTRTABLE
	recSTYPTABLE
	recSTRTYPE
	recELFLAGS
	recELKEY
	recLINKTYPE
	recLINKKEYS
	recNODETYPE
	recPROPATTR
	recPROPVALUE
	recBOX
	recBOXTYPE
	recPLEX
	recBGNEXTN
	recENDEXTN
	recTAPENUM
	recTAPECODE
	recSTRCLASS
	recRESERVED
	recFORMAT
	recMASK
	recENDMASKS
	recLIBDIRSIZE
	recSRFNAME
	recLIBSECUR
)

// dataType is the one-byte GDSII data type tag.
type dataType uint8

const (
	dtNone dataType = iota
	dtBitArray
	dtInt16
	dtInt32
	dtReal32
	dtReal64
	dtASCII
)

var recordNames = [...]string{
	"HEADER", "BGNLIB", "LIBNAME", "UNITS", "ENDLIB", "BGNSTR",
	"STRNAME", "ENDSTR", "BOUNDARY", "PATH", "SREF", "AREF",
	"TEXT", "LAYER", "DATATYPE", "WIDTH", "XY", "ENDEL",
	"SNAME", "COLROW", "TEXTNODE", "NODE", "TEXTTYPE", "PRESENTATION",
	"SPACING", "STRING", "STRANS", "MAG", "ANGLE", "UINTEGER",
	"USTRING", "REFLIBS", "FONTS", "PATHTYPE", "GENERATIONS", "ATTRTABLE",
	"STYPTABLE", "STRTYPE", "ELFLAGS", "ELKEY", "LINKTYPE", "LINKKEYS",
	"NODETYPE", "PROPATTR", "PROPVALUE", "BOX", "BOXTYPE", "PLEX",
	"BGNEXTN", "ENDEXTN", "TAPENUM", "TAPECODE", "STRCLASS", "RESERVED",
	"FORMAT", "MASK", "ENDMASKS", "LIBDIRSIZE", "SRFNAME", "LIBSECUR",
}

func (r recordType) String() string {
	if int(r) < len(recordNames) {
		return recordNames[r]
	}
	return "UNKNOWN"
}
