// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vcf implements VCF (Variant Call Format) text reading.
//
// https://samtools.github.io/hts-specs/VCFv4.3.pdf
package vcf

import (
	"errors"
)

// Number describes the arity declared for an INFO or FORMAT field in a
// VCF header line.
type Number int

const (
	// NumberFixed indicates a fixed, non-negative count of values.
	NumberFixed Number = iota
	// NumberPerAlt indicates one value per alternate allele ('A').
	NumberPerAlt
	// NumberPerAllele indicates one value per allele, including the
	// reference ('R').
	NumberPerAllele
	// NumberPerGenotype indicates one value per possible genotype ('G').
	NumberPerGenotype
	// NumberUnknown indicates an unbounded or unspecified count ('.').
	NumberUnknown
)

// Type is the declared scalar type of an INFO or FORMAT field.
type Type int

const (
	TypeInteger Type = iota
	TypeFloat
	TypeFlag
	TypeCharacter
	TypeString
)

// FieldInfo describes one INFO or FORMAT declaration from a VCF header.
type FieldInfo struct {
	ID          string
	Number      Number
	NumberCount int // valid when Number == NumberFixed
	Type        Type
	Description string
}

var (
	errBadHeaderLine = errors.New("vcf: malformed header line")
	errBadColumns    = errors.New("vcf: malformed column header")
	errBadRecord     = errors.New("vcf: malformed record")
	errUnknownID     = errors.New("vcf: reference to undeclared field")
)

// Header holds the parsed contents of a VCF header: file format version,
// contig declarations, INFO/FORMAT/FILTER dictionaries, and sample names.
type Header struct {
	FileFormat string

	Contigs []Contig

	Info   map[string]FieldInfo
	Format map[string]FieldInfo
	Filter map[string]string // ID -> Description

	Samples []string

	// infoOrder and formatOrder preserve declaration order for schema
	// discovery.
	infoOrder   []string
	formatOrder []string
}

// Contig is a VCF ##contig declaration.
type Contig struct {
	ID     string
	Length int
}

// InfoOrder returns the INFO field ids in the order they were declared.
func (h *Header) InfoOrder() []string { return h.infoOrder }

// FormatOrder returns the FORMAT field ids in the order they were declared.
func (h *Header) FormatOrder() []string { return h.formatOrder }
