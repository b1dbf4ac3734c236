// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bed implements BED feature reading with a BEDn+m schema
// (chrom, start, end, plus the file's declared number of standard
// columns and trailing custom columns), and in-memory overlap queries
// backed by a per-chromosome interval tree.
package bed

import (
	"errors"
	"strconv"
	"strings"

	"github.com/biogo/store/interval"
)

var (
	errBadColumns = errors.New("bed: record has fewer than 3 columns")
	errBadRange   = errors.New("bed: end before start")
)

// Record is a single BED feature, zero-based half-open [Start, End), with
// the standard columns beyond Chrom/Start/End captured positionally and
// any columns past the file's declared width captured in Extra.
type Record struct {
	Chrom string
	Start int
	End   int

	Name   string
	Score  float64
	Strand byte // '+', '-' or 0 if absent

	ThickStart int
	ThickEnd   int
	ItemRGB    string
	BlockCount int
	BlockSizes []int
	BlockStart []int

	// Extra holds any columns beyond the declared standard width n
	// (the m columns of BEDn+m).
	Extra []string
}

// NumFields describes how many of the standard BED columns a file
// declares, from BED3 through BED12, plus m custom trailing columns.
type NumFields struct {
	Standard int // 3-12
	Custom   int
}

// ParseRecord decodes a single tab- or whitespace-separated BED line
// according to the declared column layout.
func ParseRecord(nf NumFields, line string) (*Record, error) {
	cols := strings.Fields(line)
	if len(cols) < 3 {
		return nil, errBadColumns
	}
	r := &Record{Chrom: cols[0]}
	start, err := strconv.Atoi(cols[1])
	if err != nil {
		return nil, err
	}
	end, err := strconv.Atoi(cols[2])
	if err != nil {
		return nil, err
	}
	if end < start {
		return nil, errBadRange
	}
	r.Start, r.End = start, end

	n := nf.Standard
	if n > len(cols) {
		n = len(cols)
	}
	if n >= 4 {
		r.Name = cols[3]
	}
	if n >= 5 {
		s, err := strconv.ParseFloat(cols[4], 64)
		if err != nil {
			return nil, err
		}
		r.Score = s
	}
	if n >= 6 && len(cols[5]) == 1 {
		r.Strand = cols[5][0]
	}
	if n >= 8 {
		ts, err := strconv.Atoi(cols[6])
		if err != nil {
			return nil, err
		}
		te, err := strconv.Atoi(cols[7])
		if err != nil {
			return nil, err
		}
		r.ThickStart, r.ThickEnd = ts, te
	}
	if n >= 9 {
		r.ItemRGB = cols[8]
	}
	if n >= 12 {
		bc, err := strconv.Atoi(cols[9])
		if err != nil {
			return nil, err
		}
		r.BlockCount = bc
		r.BlockSizes, err = splitInts(cols[10])
		if err != nil {
			return nil, err
		}
		r.BlockStart, err = splitInts(cols[11])
		if err != nil {
			return nil, err
		}
	}

	if len(cols) > n {
		r.Extra = cols[n:]
	}
	return r, nil
}

func splitInts(s string) ([]int, error) {
	var out []int
	for _, p := range strings.Split(strings.Trim(s, ","), ",") {
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// node adapts a *Record to the interval.IntInterface contract required
// by an interval.IntTree, so overlap queries can be answered without a
// linear scan of every record on a chromosome.
type node struct {
	rec *Record
	id  uintptr
}

func (n *node) Range() interval.IntRange { return interval.IntRange{Start: n.rec.Start, End: n.rec.End} }
func (n *node) ID() uintptr              { return n.id }
func (n *node) Overlap(b interval.IntRange) bool {
	return n.rec.Start < b.End && b.Start < n.rec.End
}

// Index holds BED records in one interval.IntTree per chromosome,
// supporting overlap queries after all records have been loaded.
type Index struct {
	trees map[string]*interval.IntTree
}

// NewIndex builds an Index over recs.
func NewIndex(recs []*Record) (*Index, error) {
	idx := &Index{trees: make(map[string]*interval.IntTree)}
	for i, r := range recs {
		t, ok := idx.trees[r.Chrom]
		if !ok {
			t = &interval.IntTree{}
			idx.trees[r.Chrom] = t
		}
		if err := t.Insert(&node{rec: r, id: uintptr(i)}, false); err != nil {
			return nil, err
		}
	}
	for _, t := range idx.trees {
		t.AdjustRanges()
	}
	return idx, nil
}

// Overlapping returns every Record on chrom overlapping the half-open
// range [start, end).
func (idx *Index) Overlapping(chrom string, start, end int) []*Record {
	t, ok := idx.trees[chrom]
	if !ok {
		return nil
	}
	q := &node{rec: &Record{Start: start, End: end}}
	var out []*Record
	for _, iv := range t.Get(q) {
		out = append(out, iv.(*node).rec)
	}
	return out
}
