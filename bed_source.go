// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oxbow

import (
	"fmt"
	"io"

	"github.com/oxbow-project/oxbow/arrowschema"
	"github.com/oxbow-project/oxbow/bed"
)

var bedStandardColumns = []string{
	"chrom", "start", "end", "name", "score", "strand",
	"thick_start", "thick_end", "item_rgb", "block_count", "block_sizes", "block_starts",
}

// bedSource implements Source over BED/BEDn+m feature files. Range
// queries are served by draining the remainder of the stream into
// memory on first use and answering from an in-memory interval index,
// since BED carries no companion positional index format of its own.
type bedSource struct {
	r  *bed.Reader
	nf bed.NumFields

	fields []string

	buffered []*bed.Record
	queryIdx *bed.Index
	queryPos int
}

// NewBEDSource returns a Source that decodes BEDn+m records with the
// given standard/custom column widths.
func NewBEDSource(nf bed.NumFields) Source { return &bedSource{nf: nf} }

func (s *bedSource) Fields(open SourceOpener, opts Options) ([]arrowschema.Field, error) {
	names := opts.Fields
	if len(names) == 0 {
		n := s.nf.Standard
		if n > len(bedStandardColumns) {
			n = len(bedStandardColumns)
		}
		names = append([]string{}, bedStandardColumns[:n]...)
		for i := 0; i < s.nf.Custom; i++ {
			names = append(names, fmt.Sprintf("extra_%d", i))
		}
	}
	fields := make([]arrowschema.Field, 0, len(names))
	for _, n := range names {
		switch n {
		case "chrom", "strand", "item_rgb":
			fields = append(fields, arrowschema.Field{Name: n, Kind: arrowschema.KindString, Nullable: true})
		case "start", "end", "thick_start", "thick_end", "block_count":
			fields = append(fields, arrowschema.Field{Name: n, Kind: arrowschema.KindInt64})
		case "score":
			fields = append(fields, arrowschema.Field{Name: n, Kind: arrowschema.KindFloat64, Nullable: true})
		case "name":
			fields = append(fields, arrowschema.Field{Name: n, Kind: arrowschema.KindString, Nullable: true})
		case "block_sizes", "block_starts":
			fields = append(fields, arrowschema.Field{Name: n, Kind: arrowschema.KindInt64, List: true, Nullable: true})
		default:
			fields = append(fields, arrowschema.Field{Name: n, Kind: arrowschema.KindString, Nullable: true})
		}
	}
	s.fields = names
	return fields, nil
}

func (s *bedSource) Open(open SourceOpener, idx IndexOpener, opts Options) error {
	stream, err := open()
	if err != nil {
		return err
	}
	s.r = bed.NewReader(stream, s.nf)
	return nil
}

func (s *bedSource) Next() ([]any, Coord, error) {
	if s.queryIdx != nil {
		if s.queryPos >= len(s.buffered) {
			return nil, Coord{}, io.EOF
		}
		rec := s.buffered[s.queryPos]
		s.queryPos++
		return s.buildRow(rec), Coord{Start: rec.Start, End: rec.End}, nil
	}
	rec, err := s.r.Read()
	if err != nil {
		return nil, Coord{}, err
	}
	return s.buildRow(rec), Coord{Start: rec.Start, End: rec.End}, nil
}

func (s *bedSource) buildRow(rec *bed.Record) []any {
	row := make([]any, len(s.fields))
	for i, n := range s.fields {
		row[i] = bedField(rec, n)
	}
	return row
}

func bedField(rec *bed.Record, name string) any {
	switch name {
	case "chrom":
		return rec.Chrom
	case "start":
		return int64(rec.Start)
	case "end":
		return int64(rec.End)
	case "name":
		if rec.Name == "" {
			return nil
		}
		return rec.Name
	case "score":
		return rec.Score
	case "strand":
		if rec.Strand == 0 {
			return nil
		}
		return string(rec.Strand)
	case "thick_start":
		return int64(rec.ThickStart)
	case "thick_end":
		return int64(rec.ThickEnd)
	case "item_rgb":
		if rec.ItemRGB == "" {
			return nil
		}
		return rec.ItemRGB
	case "block_count":
		return int64(rec.BlockCount)
	case "block_sizes":
		return intsToAny(rec.BlockSizes)
	case "block_starts":
		return intsToAny(rec.BlockStart)
	default:
		for i, extra := range rec.Extra {
			if name == fmt.Sprintf("extra_%d", i) {
				return extra
			}
		}
		return nil
	}
}

func intsToAny(xs []int) any {
	if len(xs) == 0 {
		return nil
	}
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = int64(x)
	}
	return out
}

func (s *bedSource) Resolve(region Region, idx IndexOpener) (bool, error) {
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
	bi, err := bed.NewIndex(s.buffered)
	if err != nil {
		return false, err
	}
	s.queryIdx = bi
	start, end := region.Start, region.End
	if !region.Bounded {
		start, end = 0, 1<<62
	}
	matches := bi.Overlapping(region.Chrom, start, end)
	s.buffered = matches
	s.queryPos = 0
	return len(matches) > 0, nil
}

func (s *bedSource) ResolveUnmapped(idx IndexOpener) (bool, error) {
	return false, ErrUnsupported
}

func (s *bedSource) Close() error { return nil }
