// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package batch

import (
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

func testSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "chrom", Type: arrow.BinaryTypes.String},
		{Name: "pos", Type: arrow.PrimitiveTypes.Int64},
		{Name: "qual", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "alt", Type: arrow.ListOf(arrow.BinaryTypes.String), Nullable: true},
	}, nil)
}

func TestBuilderAppendRowAndFinish(t *testing.T) {
	b := NewBuilder(testSchema(), memory.NewGoAllocator())

	if err := b.AppendRow([]any{"chr1", int64(100), 30.5, []any{"A", "T"}}); err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}
	if err := b.AppendRow([]any{"chr1", int64(200), nil, nil}); err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}
	if b.Rows() != 2 {
		t.Fatalf("unexpected row count: got %d want 2", b.Rows())
	}

	rec := b.Finish()
	defer rec.Release()
	if rec.NumRows() != 2 {
		t.Errorf("unexpected record row count: got %d want 2", rec.NumRows())
	}
	if rec.NumCols() != 4 {
		t.Errorf("unexpected record column count: got %d want 4", rec.NumCols())
	}
	if b.Rows() != 0 {
		t.Errorf("expected builder to reset row count after Finish, got %d", b.Rows())
	}
}

func TestBuilderZeroRowBatch(t *testing.T) {
	b := NewBuilder(testSchema(), memory.NewGoAllocator())
	rec := b.Finish()
	defer rec.Release()
	if rec.NumRows() != 0 {
		t.Errorf("unexpected record row count: got %d want 0", rec.NumRows())
	}
	if rec.NumCols() != 4 {
		t.Errorf("unexpected record column count: got %d want 4", rec.NumCols())
	}
}
