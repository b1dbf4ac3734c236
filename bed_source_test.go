// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oxbow

import (
	"io"
	"strings"
	"testing"

	"github.com/oxbow-project/oxbow/bed"
)

const testBED = `chr1	10	20	feat1	0	+
chr1	100	200	feat2	0	-
chr2	5	15	feat3	0	+
`

func bedOpener(text string) SourceOpener {
	return func() (Stream, error) {
		return Stream{Reader: strings.NewReader(text), Seekable: true}, nil
	}
}

func TestBEDSourceFullScan(t *testing.T) {
	s := NewScanner(NewBEDSource(bed.NumFields{Standard: 6}), bedOpener(testBED), nil, Options{})

	schema, err := s.Schema()
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	if schema.NumFields() != 6 {
		t.Fatalf("schema fields = %d, want 6", schema.NumFields())
	}

	it, err := s.Scan(0)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	rec, err := it.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	defer rec.Release()
	if rec.NumRows() != 3 {
		t.Errorf("row count = %d, want 3", rec.NumRows())
	}
	if _, err := it.Next(); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestBEDSourceScanQuery(t *testing.T) {
	s := NewScanner(NewBEDSource(bed.NumFields{Standard: 6}), bedOpener(testBED), nil, Options{})
	if _, err := s.Schema(); err != nil {
		t.Fatalf("Schema: %v", err)
	}
	it, err := s.ScanQuery("chr1:15-150", nil)
	if err != nil {
		t.Fatalf("ScanQuery: %v", err)
	}
	rec, err := it.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	defer rec.Release()
	if rec.NumRows() != 2 {
		t.Errorf("row count = %d, want 2 (feat1 and feat2 overlap chr1:15-150)", rec.NumRows())
	}
}

func TestBEDSourceScanQueryUnknownChrom(t *testing.T) {
	s := NewScanner(NewBEDSource(bed.NumFields{Standard: 6}), bedOpener(testBED), nil, Options{})
	if _, err := s.Schema(); err != nil {
		t.Fatalf("Schema: %v", err)
	}
	it, err := s.ScanQuery("chr3:1-10", nil)
	if err != nil {
		t.Fatalf("ScanQuery: %v", err)
	}
	if _, err := it.Next(); err != io.EOF {
		t.Errorf("unknown chrom: err = %v, want io.EOF", err)
	}
}
