// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oxbow

import (
	"fmt"
	"io"

	"github.com/oxbow-project/oxbow/arrowschema"
	"github.com/oxbow-project/oxbow/bam"
	"github.com/oxbow-project/oxbow/sam"
)

var bamColumns = []string{
	"qname", "flag", "rname", "pos", "mapq", "cigar",
	"rnext", "pnext", "tlen", "seq", "qual", "tags",
}

// defaultTagScanRows is how many records bamSource.discoverTagDefs reads
// from a throwaway stream to materialize the "tags" struct schema when
// no explicit AttributeDefs projection is given.
const defaultTagScanRows = 1024

// bamSource implements Source over a BAM stream, backed by the bam and
// sam packages.
type bamSource struct {
	r      *bam.Reader
	idx    *bam.Index
	fields []string
	// tagDefs are the struct children of the "tags" column, in
	// projection order; empty when "tags" is not projected.
	tagDefs []arrowschema.Field

	it     *bam.Iterator
	unmapd bool
}

// NewBAMSource returns a Source that decodes BAM alignment records.
func NewBAMSource() Source { return &bamSource{} }

func (s *bamSource) Fields(open SourceOpener, opts Options) ([]arrowschema.Field, error) {
	names := opts.Fields
	if len(names) == 0 {
		names = bamColumns
	}
	fields := make([]arrowschema.Field, 0, len(names))
	outNames := make([]string, 0, len(names))
	for _, n := range names {
		switch n {
		case "qname", "rname", "cigar", "seq", "qual":
			fields = append(fields, arrowschema.Field{Name: n, Kind: arrowschema.KindString, Nullable: true})
		case "flag", "pos", "mapq", "pnext", "tlen":
			fields = append(fields, arrowschema.Field{Name: n, Kind: arrowschema.KindInt64, Nullable: true})
		case "rnext":
			fields = append(fields, arrowschema.Field{Name: n, Kind: arrowschema.KindString, Nullable: true})
		case "tags":
			defs, err := s.tagDefsFor(open, opts)
			if err != nil {
				return nil, err
			}
			// An empty dynamic projection omits the column entirely
			// rather than emitting an empty struct (spec.md §4.4).
			if len(defs) == 0 {
				continue
			}
			s.tagDefs = defs
			fields = append(fields, arrowschema.Field{Name: n, Children: defs, Nullable: true})
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, n)
		}
		outNames = append(outNames, n)
	}
	s.fields = outNames
	return fields, nil
}

// tagDefsFor resolves the struct children for the "tags" column: an
// explicit Options.AttributeDefs projection bypasses discovery, else the
// first ScanRows records of a throwaway stream are scanned for the union
// of observed tag names and kinds (spec.md §9's peek-buffer strategy).
func (s *bamSource) tagDefsFor(open SourceOpener, opts Options) ([]arrowschema.Field, error) {
	if opts.AttributeDefs != nil {
		defs := make([]arrowschema.Field, len(opts.AttributeDefs))
		for i, a := range opts.AttributeDefs {
			defs[i] = arrowschema.Field{Name: a.Name, Kind: arrowschema.Kind(a.Kind), Nullable: true}
		}
		return defs, nil
	}
	return s.discoverTagDefs(open, opts.ScanRows)
}

func (s *bamSource) discoverTagDefs(open SourceOpener, scanRows int) ([]arrowschema.Field, error) {
	if scanRows <= 0 {
		scanRows = defaultTagScanRows
	}
	stream, err := open()
	if err != nil {
		return nil, err
	}
	r, err := bam.NewReader(stream, 0)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var order []string
	seen := make(map[string]bool)
	kinds := make(map[string]arrowschema.Kind)
	for i := 0; i < scanRows; i++ {
		rec, err := r.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		for _, a := range rec.AuxFields {
			name := a.Tag().String()
			k := a.ArrowKind()
			if !seen[name] {
				seen[name] = true
				order = append(order, name)
				kinds[name] = k
			} else if kinds[name] != k {
				kinds[name] = arrowschema.KindString
			}
		}
	}
	defs := make([]arrowschema.Field, len(order))
	for i, name := range order {
		defs[i] = arrowschema.Field{Name: name, Kind: kinds[name], Nullable: true}
	}
	return defs, nil
}

func (s *bamSource) Open(open SourceOpener, idx IndexOpener, opts Options) error {
	stream, err := open()
	if err != nil {
		return err
	}
	r, err := bam.NewReader(stream, 0)
	if err != nil {
		return err
	}
	s.r = r
	s.r.Omit(bam.OmitForFields(s.fields))
	if idx != nil {
		idxStream, err := idx()
		if err != nil {
			return err
		}
		bi, err := bam.ReadIndex(idxStream)
		if err != nil {
			return err
		}
		s.idx = bi
	}
	return nil
}

func (s *bamSource) Next() ([]any, Coord, error) {
	var rec *sam.Record
	var err error
	if s.it != nil {
		if !s.it.Next() {
			if e := s.it.Error(); e != nil {
				return nil, Coord{}, e
			}
			return nil, Coord{}, io.EOF
		}
		rec = s.it.Record()
	} else {
		rec, err = s.r.Read()
		if err != nil {
			return nil, Coord{}, err
		}
	}

	if s.unmapd && rec.Ref != nil {
		return s.Next()
	}

	row := rec.ArrowRow(s.fields, s.tagDefs)

	start, end := rec.ArrowCoord()
	coord := Coord{Start: start, End: end}
	chunk := s.r.LastChunk()
	coord.VPos = chunk.Begin
	return row, coord, nil
}

func (s *bamSource) Resolve(region Region, idx IndexOpener) (bool, error) {
	if s.idx == nil {
		return false, ErrNotSeekable
	}
	var ref *sam.Reference
	for _, r := range s.r.Header().Refs() {
		if r.Name() == region.Chrom {
			ref = r
			break
		}
	}
	if ref == nil {
		return false, nil
	}
	start, end := region.Start, region.End
	if !region.Bounded {
		start, end = 0, ref.Len()
	}
	chunks, err := s.idx.Chunks(ref, start, end)
	if err != nil {
		return false, err
	}
	if len(chunks) == 0 {
		return false, nil
	}
	it, err := bam.NewIterator(s.r, chunks)
	if err != nil {
		return false, err
	}
	s.it = it
	return true, nil
}

func (s *bamSource) ResolveUnmapped(idx IndexOpener) (bool, error) {
	if s.idx == nil {
		return false, ErrNotSeekable
	}
	n, ok := s.idx.Unmapped()
	if !ok || n == 0 {
		return false, nil
	}
	s.unmapd = true
	return true, nil
}

func (s *bamSource) Close() error {
	if s.it != nil {
		s.it.Close()
	}
	if s.r != nil {
		return s.r.Close()
	}
	return nil
}
