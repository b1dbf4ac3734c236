// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oxbow

import (
	"errors"
	"io"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/oxbow-project/oxbow/arrowschema"
	"github.com/oxbow-project/oxbow/batch"
	"github.com/oxbow-project/oxbow/bgzf"
)

// Coord is the position information a Source reports alongside each
// decoded row, used by the Scanner to implement scan_until,
// scan_until_vpos and range-query overlap filtering.
type Coord struct {
	// Start, End are the record's 0-based half-open genomic interval.
	// A format with no coordinate concept (FASTA, for instance) leaves
	// both zero; range queries are simply unsupported for it.
	Start, End int

	// BytePos is the uncompressed byte offset of the record within the
	// decompressed stream, used by scan_until.
	BytePos int64

	// VPos is the BGZF virtual position at the record's start, used by
	// scan_until_vpos and chunk-bounded range queries.
	VPos bgzf.Offset
}

// Source is implemented once per format and driven by a generic
// Scanner. All methods except Fields are called only after Open.
type Source interface {
	// Fields computes the projected Arrow schema fields for opts,
	// performing any header parsing or row-scanning discovery needed.
	// Formats whose schema depends on file content (VCF INFO
	// declarations, a BigWig/BigBed format byte) call open themselves to
	// read just enough of a fresh stream to answer; open may therefore
	// be invoked once here and again from Open.
	Fields(open SourceOpener, opts Options) ([]arrowschema.Field, error)

	// Open prepares the Source to decode records from the start of a
	// freshly opened stream obtained from open (and idx, if non-nil).
	Open(open SourceOpener, idx IndexOpener, opts Options) error

	// Next decodes and returns the next row, as one value per schema
	// field in projection order, along with its coordinate. It returns
	// io.EOF when the stream (or current chunk plan) is exhausted.
	Next() (row []any, coord Coord, err error)

	// Resolve restricts subsequent Next calls to the chunks the index
	// identifies for region, returning ok=false if region's reference is
	// not present (an empty stream, not an error).
	Resolve(region Region, idx IndexOpener) (ok bool, err error)

	// ResolveUnmapped restricts subsequent Next calls to unmapped
	// records only; formats other than BAM/SAM return ErrUnsupported.
	ResolveUnmapped(idx IndexOpener) (ok bool, err error)

	Close() error
}

// ErrUnsupported is returned by a Source operation the format does not
// implement (for example ResolveUnmapped on a non-alignment format).
var ErrUnsupported = errors.New("oxbow: operation unsupported by this format")

// Scanner is the public orchestration surface: a state machine wrapping
// a format-specific Source, translating decoded rows into Arrow record
// batches.
type Scanner struct {
	src  Source
	open SourceOpener
	idx  IndexOpener
	opts Options

	state  State
	fields []arrowschema.Field
	schema *arrow.Schema
	opened bool
}

// NewScanner returns a Scanner over src, reading from open (and idx, if
// range queries will be used) according to opts.
func NewScanner(src Source, open SourceOpener, idx IndexOpener, opts Options) *Scanner {
	return &Scanner{src: src, open: open, idx: idx, opts: opts, state: Idle}
}

// State returns the Scanner's current lifecycle state.
func (s *Scanner) State() State { return s.state }

// Schema computes and freezes the Arrow schema. Calling Schema again
// after the first call returns the cached value without further I/O.
func (s *Scanner) Schema() (*arrow.Schema, error) {
	if s.schema != nil {
		return s.schema, nil
	}
	if s.state == Finished {
		return nil, ErrBadState
	}
	fields, err := s.src.Fields(s.open, s.opts)
	if err != nil {
		return nil, err
	}
	s.fields = fields
	s.schema = arrowschema.Schema(fields)
	if s.state == Idle {
		s.state = SchemaFrozen
	}
	return s.schema, nil
}

func (s *Scanner) ensureOpen() error {
	if _, err := s.Schema(); err != nil {
		return err
	}
	if !s.opened {
		if err := s.src.Open(s.open, s.idx, s.opts); err != nil {
			return err
		}
		s.opened = true
	}
	if s.state == Finished {
		return ErrBadState
	}
	s.state = Scanning
	return nil
}

// BatchIter is a stateful cursor over the rows a Scanner's scan_*
// operation yields, producing Arrow record batches of at most
// opts.BatchSize rows each.
type BatchIter struct {
	s   *Scanner
	bld *batch.Builder

	nRemain  int // remaining records to emit; < 0 means unbounded
	hasByte  bool
	untilPos int64
	hasVPos  bool
	untilVP  bgzf.Offset

	region   *Region
	overlap  bool
	unmapped bool

	done bool
}

// Scan starts a full sequential scan. If nRecords > 0, the scan stops
// after that many records; otherwise it runs to EOF.
func (s *Scanner) Scan(nRecords int) (*BatchIter, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	remain := -1
	if nRecords > 0 {
		remain = nRecords
	}
	return s.newIter(remain), nil
}

// ScanUntil stops emitting once a record's uncompressed byte position is
// >= pos.
func (s *Scanner) ScanUntil(pos int64) (*BatchIter, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	it := s.newIter(-1)
	it.hasByte = true
	it.untilPos = pos
	return it, nil
}

// ScanUntilVPos stops emitting once the decoder's BGZF virtual position
// is >= vp.
func (s *Scanner) ScanUntilVPos(vp bgzf.Offset) (*BatchIter, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	it := s.newIter(-1)
	it.hasVPos = true
	it.untilVP = vp
	return it, nil
}

// ScanQuery performs an index-driven range scan over the textual region.
func (s *Scanner) ScanQuery(regionStr string, idx IndexOpener) (*BatchIter, error) {
	region, err := ParseRegion(regionStr)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	ok, err := s.src.Resolve(region, idx)
	if err != nil {
		return nil, err
	}
	it := s.newIter(-1)
	it.region = &region
	it.overlap = true
	if !ok {
		it.done = true
	}
	return it, nil
}

// ScanUnmapped yields only unmapped reads (BAM/SAM only).
func (s *Scanner) ScanUnmapped(idx IndexOpener) (*BatchIter, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	ok, err := s.src.ResolveUnmapped(idx)
	if err != nil {
		return nil, err
	}
	it := s.newIter(-1)
	it.unmapped = true
	if !ok {
		it.done = true
	}
	return it, nil
}

func (s *Scanner) newIter(remain int) *BatchIter {
	return &BatchIter{
		s:       s,
		bld:     batch.NewBuilder(s.schema, memory.NewGoAllocator()),
		nRemain: remain,
	}
}

// Next decodes and returns the next batch of rows, or io.EOF once the
// scan is exhausted. The returned record's schema is always equal to
// the owning Scanner's Schema().
func (it *BatchIter) Next() (arrow.Record, error) {
	if it.done {
		it.s.state = Finished
		return nil, io.EOF
	}
	batchSize := it.s.opts.batchSize()
	var rows int
	for rows < batchSize {
		if it.nRemain == 0 {
			it.done = true
			break
		}
		row, coord, err := it.s.src.Next()
		if err != nil {
			if err == io.EOF {
				it.done = true
				break
			}
			it.s.state = Finished
			return nil, err
		}
		if it.hasByte && coord.BytePos >= it.untilPos {
			it.done = true
			break
		}
		if it.hasVPos && vposGEQ(coord.VPos, it.untilVP) {
			it.done = true
			break
		}
		if it.overlap && it.region != nil && it.region.Bounded {
			if !(coord.Start < it.region.End && coord.End > it.region.Start) {
				continue
			}
		}
		if err := it.bld.AppendRow(row); err != nil {
			it.s.state = Finished
			return nil, err
		}
		rows++
		if it.nRemain > 0 {
			it.nRemain--
		}
	}
	if rows == 0 {
		it.s.state = Finished
		return nil, io.EOF
	}
	return it.bld.Finish(), nil
}

// Close releases the Scanner's Source.
func (s *Scanner) Close() error {
	s.state = Finished
	return s.src.Close()
}

func vposGEQ(a, b bgzf.Offset) bool {
	if a.File != b.File {
		return a.File > b.File
	}
	return a.Block >= b.Block
}
