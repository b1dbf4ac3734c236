// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oxbow

import (
	"fmt"
	"io"

	"github.com/oxbow-project/oxbow/arrowschema"
	"github.com/oxbow-project/oxbow/gff"
)

var gffFixedColumns = []string{"seqid", "source", "feature", "start", "end", "score", "strand", "frame"}

// gffSource implements Source over GTF/GFF3 feature files. Like
// bedSource, range queries drain the stream and answer from memory,
// since neither dialect carries a companion positional index.
type gffSource struct {
	dialect gff.Dialect
	r       *gff.Reader

	fields     []string
	attrFields []string

	buffered []*gff.Record
	querying bool
	pos      int
}

// NewGFFSource returns a Source decoding the given GTF/GFF3 dialect.
func NewGFFSource(d gff.Dialect) Source { return &gffSource{dialect: d} }

func (s *gffSource) Fields(open SourceOpener, opts Options) ([]arrowschema.Field, error) {
	names := opts.Fields
	if len(names) == 0 {
		names = append(append([]string{}, gffFixedColumns...), "attributes")
	}
	fields := make([]arrowschema.Field, 0, len(names))
	outNames := make([]string, 0, len(names))
	for _, n := range names {
		switch n {
		case "seqid", "source", "feature":
			fields = append(fields, arrowschema.Field{Name: n, Kind: arrowschema.KindString})
		case "start", "end":
			fields = append(fields, arrowschema.Field{Name: n, Kind: arrowschema.KindInt64})
		case "score":
			fields = append(fields, arrowschema.Field{Name: n, Kind: arrowschema.KindFloat64, Nullable: true})
		case "strand":
			fields = append(fields, arrowschema.Field{Name: n, Kind: arrowschema.KindString})
		case "frame":
			fields = append(fields, arrowschema.Field{Name: n, Kind: arrowschema.KindInt64, Nullable: true})
		case "attributes":
			attrs, err := s.attrFieldNames(open, opts)
			if err != nil {
				return nil, err
			}
			// An empty dynamic projection omits the column entirely
			// rather than emitting an empty struct (spec.md §4.4).
			if len(attrs) == 0 {
				continue
			}
			s.attrFields = attrs
			children := make([]arrowschema.Field, len(attrs))
			for i, a := range attrs {
				children[i] = arrowschema.Field{Name: a, Kind: arrowschema.KindString, Nullable: true}
			}
			fields = append(fields, arrowschema.Field{Name: n, Children: children, Nullable: true})
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, n)
		}
		outNames = append(outNames, n)
	}
	s.fields = outNames
	return fields, nil
}

// attrFieldNames resolves the "attributes" struct's child names: an
// explicit Options.AttributeDefs projection bypasses discovery (an empty
// but non-nil slice means no dynamic columns at all, per spec.md §4.4);
// a nil projection discovers the union of attribute keys observed in the
// first ScanRows records of a throwaway stream (spec.md §9).
func (s *gffSource) attrFieldNames(open SourceOpener, opts Options) ([]string, error) {
	if opts.AttributeDefs != nil {
		names := make([]string, len(opts.AttributeDefs))
		for i, a := range opts.AttributeDefs {
			names[i] = a.Name
		}
		return names, nil
	}
	return s.discoverAttrNames(open, opts.ScanRows)
}

func (s *gffSource) discoverAttrNames(open SourceOpener, scanRows int) ([]string, error) {
	if scanRows <= 0 {
		scanRows = defaultTagScanRows
	}
	stream, err := open()
	if err != nil {
		return nil, err
	}
	r := gff.NewReader(stream, s.dialect)

	var order []string
	seen := make(map[string]bool)
	for i := 0; i < scanRows; i++ {
		rec, err := r.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		for _, a := range rec.Attributes {
			if !seen[a.Key] {
				seen[a.Key] = true
				order = append(order, a.Key)
			}
		}
	}
	return order, nil
}

func (s *gffSource) Open(open SourceOpener, idx IndexOpener, opts Options) error {
	stream, err := open()
	if err != nil {
		return err
	}
	s.r = gff.NewReader(stream, s.dialect)
	return nil
}

func (s *gffSource) Next() ([]any, Coord, error) {
	if s.querying {
		if s.pos >= len(s.buffered) {
			return nil, Coord{}, io.EOF
		}
		rec := s.buffered[s.pos]
		s.pos++
		return s.buildRow(rec), Coord{Start: rec.Start - 1, End: rec.End}, nil
	}
	rec, err := s.r.Read()
	if err != nil {
		return nil, Coord{}, err
	}
	return s.buildRow(rec), Coord{Start: rec.Start - 1, End: rec.End}, nil
}

func (s *gffSource) buildRow(rec *gff.Record) []any {
	row := make([]any, len(s.fields))
	for i, n := range s.fields {
		row[i] = s.gffField(rec, n)
	}
	return row
}

func (s *gffSource) gffField(rec *gff.Record, name string) any {
	switch name {
	case "seqid":
		return rec.Seqid
	case "source":
		return rec.Source
	case "feature":
		return rec.Feature
	case "start":
		return int64(rec.Start)
	case "end":
		return int64(rec.End)
	case "score":
		if !rec.ScoreOK {
			return nil
		}
		return rec.Score
	case "strand":
		return string(rec.Strand)
	case "frame":
		if rec.Frame < 0 {
			return nil
		}
		return int64(rec.Frame)
	case "attributes":
		if len(s.attrFields) == 0 {
			return nil
		}
		vals := make([]any, len(s.attrFields))
		for i, a := range s.attrFields {
			v, ok := rec.AttrValue(a)
			if !ok {
				vals[i] = nil
				continue
			}
			vals[i] = v
		}
		return vals
	default:
		return nil
	}
}

func (s *gffSource) Resolve(region Region, idx IndexOpener) (bool, error) {
	for {
		rec, err := s.r.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return false, err
		}
		s.buffered = append(s.buffered, rec)
	}
	var matches []*gff.Record
	for _, rec := range s.buffered {
		if rec.Seqid != region.Chrom {
			continue
		}
		start, end := rec.Start-1, rec.End
		if region.Bounded && !(start < region.End && end > region.Start) {
			continue
		}
		matches = append(matches, rec)
	}
	s.buffered = matches
	s.querying = true
	s.pos = 0
	return len(matches) > 0, nil
}

func (s *gffSource) ResolveUnmapped(idx IndexOpener) (bool, error) {
	return false, ErrUnsupported
}

func (s *gffSource) Close() error { return nil }
