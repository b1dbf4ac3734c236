// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package oxbow translates NGS genomics file formats — BGZF/BAM/SAM,
// VCF/BCF, GTF/GFF, BED, FASTA/FASTQ and BigWig/BigBed — into Apache
// Arrow record batches, via a single Scanner state machine driven by a
// per-format Source implementation.
package oxbow

import (
	"errors"
	"io"
)

// State is the Scanner's lifecycle state.
type State int

const (
	Idle State = iota
	SchemaFrozen
	Scanning
	Seeking
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SchemaFrozen:
		return "schema-frozen"
	case Scanning:
		return "scanning"
	case Seeking:
		return "seeking"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

var (
	// ErrBadState is returned when an operation is attempted from a
	// Scanner state that forbids it (for example scan_* after Finished).
	ErrBadState = errors.New("oxbow: operation not valid in current scanner state")
	// ErrUnknownField is returned by schema() when a projection names a
	// field the format does not have.
	ErrUnknownField = errors.New("oxbow: projection names an unknown field")
	// ErrBadRegion is returned for a malformed textual region string.
	ErrBadRegion = errors.New("oxbow: malformed region string")
	// ErrNotSeekable is returned when a range query is attempted over a
	// source opener that reports itself non-seekable.
	ErrNotSeekable = errors.New("oxbow: source is not seekable")
)

// Stream is a readable byte stream opened at offset 0, together with
// whether it supports seeking.
type Stream struct {
	io.Reader
	Seekable bool
}

// SourceOpener is invoked, possibly more than once across restarts, to
// obtain a fresh handle to the primary data stream.
type SourceOpener func() (Stream, error)

// IndexOpener is as SourceOpener, for a format's sibling index file. It
// is nil when no index is configured.
type IndexOpener func() (Stream, error)

// GenotypeBy selects the nesting order of VCF/BCF genotype columns.
type GenotypeBy int

const (
	GenotypeBySample GenotypeBy = iota
	GenotypeByField
)

// Options is the per-scanner configuration surface.
type Options struct {
	Compressed bool

	Fields        []string
	AttributeDefs []AttributeDef
	ScanRows      int

	InfoFields     []string
	GenotypeFields []string
	Samples        []string
	GenotypeBy     GenotypeBy

	BEDSchema string
	Schema    string

	// ZoomLevel selects a BigWig precomputed zoom level by index instead
	// of raw-resolution data; nil (the default) means raw data.
	ZoomLevel *int

	BatchSize int
}

// AttributeDef is an explicit (name, type) declaration for a dynamic
// column, bypassing discovery.
type AttributeDef struct {
	Name string
	Kind int // mirrors arrowschema.Kind; duplicated to avoid an import cycle
}

func (o Options) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return 1024
}
