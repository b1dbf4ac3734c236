// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gff

import (
	"bufio"
	"io"

	"github.com/grailbio/base/tsv"
)

// Reader implements GTF/GFF3 format reading.
type Reader struct {
	tr      *tsv.Reader
	dialect Dialect
}

// NewReader returns a new Reader reading from r using the given dialect.
func NewReader(r io.Reader, d Dialect) *Reader {
	tr := tsv.NewReader(bufio.NewReaderSize(r, 64<<10))
	tr.Comment = '#'
	tr.LazyQuotes = true
	return &Reader{tr: tr, dialect: d}
}

// Read returns the next Record in the stream, or io.EOF when exhausted.
func (r *Reader) Read() (*Record, error) {
	var raw rawRecord
	if err := r.tr.Read(&raw); err != nil {
		return nil, err
	}
	if raw.Seqid == "" {
		return nil, errBadColumns
	}
	rec := &Record{
		Seqid:   raw.Seqid,
		Source:  raw.Source,
		Feature: raw.Feature,
		Start:   raw.Start,
		End:     raw.End,
	}
	if err := parseScoreStrandFrame(rec, raw); err != nil {
		return nil, err
	}
	rec.Attributes = parseAttributes(r.dialect, raw.Attrs)
	return rec, nil
}
