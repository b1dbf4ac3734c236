// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bcf implements BCF2 (binary VCF) reading, decoding shared and
// per-sample (indiv) blocks against the dictionary carried in the VCF
// text header that prefixes every BCF stream.
//
// https://samtools.github.io/hts-specs/VCFv4.3.pdf (section 8, BCF2)
package bcf

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/oxbow-project/oxbow/vcf"
)

var (
	ErrBadMagic     = errors.New("bcf: not a BCF2 stream")
	ErrTruncated    = errors.New("bcf: truncated record")
	errBadTypeDescr = errors.New("bcf: malformed typed vector")
)

// magic is the "BCF" prefix of the fixed 5 byte BCF2 stream preamble
// ("BCF", major version, minor version); the version bytes are not
// checked.
var magic = [3]byte{'B', 'C', 'F'}

// typedKind is the low nibble of a BCF typed-vector descriptor byte.
type typedKind byte

const (
	kindMissing typedKind = 0
	kindInt8    typedKind = 1
	kindInt16   typedKind = 2
	kindInt32   typedKind = 3
	kindFloat   typedKind = 5
	kindChar    typedKind = 7
)

// Missing/end-of-vector sentinel bit patterns, per the BCF2 specification.
const (
	int8Missing   = -0x80
	int8EndVector = -0x80 + 1
	int16Missing  = -0x8000
	int16EndVec   = -0x8000 + 1
	int32Missing  = -0x80000000
	int32EndVec   = -0x80000000 + 1
)

var float32Missing = math.Float32frombits(0x7F800001)
var float32EndVec = math.Float32frombits(0x7F800002)

// Value is a decoded BCF typed vector. Exactly one of the slices is
// populated, matching Kind.
type Value struct {
	Kind    typedKind
	Ints    []int32
	Floats  []float32
	Strings string
}

// isMissing reports whether v represents the BCF "no values present"
// encoding (a zero length descriptor of kind Missing).
func (v Value) isMissing() bool { return v.Kind == kindMissing }

// Header wraps the VCF-format text header every BCF stream carries,
// together with the integer dictionaries (contig, FILTER/INFO/FORMAT ID)
// that shared and indiv blocks index into.
type Header struct {
	Text *vcf.Header

	// Dictionary order mirrors declaration order in Text: index i names
	// the field referenced by typed vectors as integer i.
	Contigs    []string
	Dictionary []string // combined FILTER/INFO/FORMAT ID dictionary
}

// IDFor returns the dictionary ID string for index i, or "" if out of
// range.
func (h *Header) IDFor(i int) string {
	if i < 0 || i >= len(h.Dictionary) {
		return ""
	}
	return h.Dictionary[i]
}

func readUint32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func readInt32(b []byte) int32   { return int32(binary.LittleEndian.Uint32(b)) }
func readFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
