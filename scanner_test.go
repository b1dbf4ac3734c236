// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oxbow

import (
	"io"
	"strings"
	"testing"

	"github.com/oxbow-project/oxbow/arrowschema"
	"github.com/oxbow-project/oxbow/bgzf"
)

// fakeRow is one row of a fakeSource, carrying its own Coord so tests
// can exercise scan_until/scan_until_vpos/scan_query without needing a
// real block-compressed format.
type fakeRow struct {
	vals  []any
	coord Coord
}

// fakeSource is a minimal in-memory Source used to drive the Scanner
// state machine without any real file format.
type fakeSource struct {
	rows   []fakeRow
	pos    int
	closed bool

	resolved   *Region
	unresolved bool
}

func newFakeSource(rows []fakeRow) *fakeSource {
	return &fakeSource{rows: rows}
}

func (f *fakeSource) Fields(open SourceOpener, opts Options) ([]arrowschema.Field, error) {
	return []arrowschema.Field{
		{Name: "chrom", Kind: arrowschema.KindString},
		{Name: "pos", Kind: arrowschema.KindInt64},
	}, nil
}

func (f *fakeSource) Open(open SourceOpener, idx IndexOpener, opts Options) error {
	return nil
}

func (f *fakeSource) Next() ([]any, Coord, error) {
	if f.pos >= len(f.rows) {
		return nil, Coord{}, io.EOF
	}
	r := f.rows[f.pos]
	f.pos++
	return r.vals, r.coord, nil
}

func (f *fakeSource) Resolve(region Region, idx IndexOpener) (bool, error) {
	f.resolved = &region
	return !f.unresolved, nil
}

func (f *fakeSource) ResolveUnmapped(idx IndexOpener) (bool, error) {
	return false, ErrUnsupported
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

func noopOpen() (Stream, error) {
	return Stream{Reader: strings.NewReader(""), Seekable: true}, nil
}

func TestScannerStateMachine(t *testing.T) {
	src := newFakeSource([]fakeRow{
		{vals: []any{"chr1", int64(1)}},
		{vals: []any{"chr1", int64(2)}},
	})
	s := NewScanner(src, noopOpen, nil, Options{})

	if got := s.State(); got != Idle {
		t.Fatalf("initial state = %v, want Idle", got)
	}

	schema, err := s.Schema()
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	if s.State() != SchemaFrozen {
		t.Fatalf("state after Schema = %v, want SchemaFrozen", s.State())
	}
	schema2, err := s.Schema()
	if err != nil {
		t.Fatalf("second Schema call: %v", err)
	}
	if schema != schema2 {
		t.Errorf("Schema is not cached across calls")
	}

	it, err := s.Scan(0)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if s.State() != Scanning {
		t.Fatalf("state after Scan = %v, want Scanning", s.State())
	}

	rec, err := it.Next()
	if err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if rec.NumRows() != 2 {
		t.Errorf("row count = %d, want 2", rec.NumRows())
	}
	rec.Release()

	if _, err := it.Next(); err != io.EOF {
		t.Fatalf("second batch err = %v, want io.EOF", err)
	}
	if s.State() != Finished {
		t.Fatalf("state after exhaustion = %v, want Finished", s.State())
	}

	if _, err := s.Scan(1); err != ErrBadState {
		t.Errorf("Scan after Finished: err = %v, want ErrBadState", err)
	}
}

func TestScannerScanNRecords(t *testing.T) {
	src := newFakeSource([]fakeRow{
		{vals: []any{"chr1", int64(1)}},
		{vals: []any{"chr1", int64(2)}},
		{vals: []any{"chr1", int64(3)}},
	})
	s := NewScanner(src, noopOpen, nil, Options{})
	it, err := s.Scan(2)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	rec, err := it.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	defer rec.Release()
	if rec.NumRows() != 2 {
		t.Fatalf("row count = %d, want 2", rec.NumRows())
	}
	if _, err := it.Next(); err != io.EOF {
		t.Errorf("expected EOF after nRecords reached, got %v", err)
	}
}

func TestScannerScanUntil(t *testing.T) {
	src := newFakeSource([]fakeRow{
		{vals: []any{"chr1", int64(1)}, coord: Coord{BytePos: 10}},
		{vals: []any{"chr1", int64(2)}, coord: Coord{BytePos: 20}},
		{vals: []any{"chr1", int64(3)}, coord: Coord{BytePos: 30}},
	})
	s := NewScanner(src, noopOpen, nil, Options{})
	it, err := s.ScanUntil(20)
	if err != nil {
		t.Fatalf("ScanUntil: %v", err)
	}
	rec, err := it.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	defer rec.Release()
	if rec.NumRows() != 1 {
		t.Fatalf("row count = %d, want 1 (stop before BytePos >= 20)", rec.NumRows())
	}
}

func TestScannerScanUntilVPos(t *testing.T) {
	src := newFakeSource([]fakeRow{
		{vals: []any{"chr1", int64(1)}, coord: Coord{VPos: bgzf.Offset{File: 0, Block: 0}}},
		{vals: []any{"chr1", int64(2)}, coord: Coord{VPos: bgzf.Offset{File: 100, Block: 0}}},
	})
	s := NewScanner(src, noopOpen, nil, Options{})
	it, err := s.ScanUntilVPos(bgzf.Offset{File: 100, Block: 0})
	if err != nil {
		t.Fatalf("ScanUntilVPos: %v", err)
	}
	rec, err := it.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	defer rec.Release()
	if rec.NumRows() != 1 {
		t.Errorf("row count = %d, want 1 (stop at vpos >= target)", rec.NumRows())
	}
}

func TestScannerScanQueryUnknownReference(t *testing.T) {
	src := newFakeSource(nil)
	src.unresolved = true
	s := NewScanner(src, noopOpen, nil, Options{})
	it, err := s.ScanQuery("chrUnknown:1-100", noopOpen)
	if err != nil {
		t.Fatalf("ScanQuery: %v", err)
	}
	if _, err := it.Next(); err != io.EOF {
		t.Errorf("unknown reference: err = %v, want io.EOF (empty stream, not error)", err)
	}
}

func TestScannerScanQueryOverlapFilter(t *testing.T) {
	src := newFakeSource([]fakeRow{
		{vals: []any{"chr1", int64(1)}, coord: Coord{Start: 0, End: 50}},
		{vals: []any{"chr1", int64(2)}, coord: Coord{Start: 90, End: 200}},
		{vals: []any{"chr1", int64(3)}, coord: Coord{Start: 300, End: 400}},
	})
	s := NewScanner(src, noopOpen, nil, Options{})
	it, err := s.ScanQuery("chr1:51-101", noopOpen)
	if err != nil {
		t.Fatalf("ScanQuery: %v", err)
	}
	rec, err := it.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	defer rec.Release()
	if rec.NumRows() != 1 {
		t.Errorf("row count = %d, want 1 (only the overlapping record)", rec.NumRows())
	}
}

func TestScannerCloseReleasesSource(t *testing.T) {
	src := newFakeSource(nil)
	s := NewScanner(src, noopOpen, nil, Options{})
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !src.closed {
		t.Error("Close did not close the underlying Source")
	}
	if s.State() != Finished {
		t.Errorf("state after Close = %v, want Finished", s.State())
	}
}
