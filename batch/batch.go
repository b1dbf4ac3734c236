// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package batch accumulates decoded records into Apache Arrow record
// batches, one column builder per projected field, supporting scalar,
// list and struct valued columns and zero-row batches.
package batch

import (
	"errors"
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

var errUnsupportedBuilder = errors.New("batch: unsupported column builder type")

// Builder accumulates rows into Arrow columns matching schema, and
// produces a finished arrow.Record on demand.
type Builder struct {
	mem    memory.Allocator
	schema *arrow.Schema
	rb     *array.RecordBuilder
	rows   int64
}

// NewBuilder returns a Builder for schema, using mem for all column
// allocations. If mem is nil, memory.NewGoAllocator is used.
func NewBuilder(schema *arrow.Schema, mem memory.Allocator) *Builder {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &Builder{mem: mem, schema: schema, rb: array.NewRecordBuilder(mem, schema)}
}

// Rows returns the number of rows appended so far.
func (b *Builder) Rows() int64 { return b.rows }

// Field returns the column builder for the field at the given top-level
// index, for callers that need direct access to a nested (list/struct)
// builder.
func (b *Builder) Field(i int) array.Builder { return b.rb.Field(i) }

// AppendRow advances every top-level column by one row using vals,
// which must have one entry per schema field in order. A nil entry
// appends a null to that column.
func (b *Builder) AppendRow(vals []any) error {
	if len(vals) != len(b.schema.Fields()) {
		return fmt.Errorf("batch: expected %d values, got %d", len(b.schema.Fields()), len(vals))
	}
	for i, v := range vals {
		if err := AppendValue(b.rb.Field(i), v); err != nil {
			return fmt.Errorf("batch: field %q: %w", b.schema.Field(i).Name, err)
		}
	}
	b.rows++
	return nil
}

// Finish returns the accumulated rows as an arrow.Record, and resets the
// Builder's column builders so it can be reused. The record is returned
// even when Rows is zero, with every column a valid zero-length array.
func (b *Builder) Finish() arrow.Record {
	rec := b.rb.NewRecord()
	b.rows = 0
	return rec
}

// AppendValue appends a single decoded value to an arbitrary Arrow
// column builder, dispatching on its concrete type. v may be nil to
// append a null; for list and struct builders v must be, respectively, a
// []any of child values or a []any of per-child values in field order.
func AppendValue(bld array.Builder, v any) error {
	if v == nil {
		bld.AppendNull()
		return nil
	}
	switch t := bld.(type) {
	case *array.Int64Builder:
		n, err := toInt64(v)
		if err != nil {
			return err
		}
		t.Append(n)
	case *array.Float64Builder:
		f, err := toFloat64(v)
		if err != nil {
			return err
		}
		t.Append(f)
	case *array.StringBuilder:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("batch: expected string, got %T", v)
		}
		t.Append(s)
	case *array.BooleanBuilder:
		bv, ok := v.(bool)
		if !ok {
			return fmt.Errorf("batch: expected bool, got %T", v)
		}
		t.Append(bv)
	case *array.BinaryBuilder:
		bv, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("batch: expected []byte, got %T", v)
		}
		t.Append(bv)
	case *array.ListBuilder:
		items, ok := v.([]any)
		if !ok {
			return fmt.Errorf("batch: expected []any for list column, got %T", v)
		}
		t.Append(true)
		vb := t.ValueBuilder()
		for _, item := range items {
			if err := AppendValue(vb, item); err != nil {
				return err
			}
		}
	case *array.StructBuilder:
		children, ok := v.([]any)
		if !ok {
			return fmt.Errorf("batch: expected []any for struct column, got %T", v)
		}
		t.Append(true)
		for i, child := range children {
			if err := AppendValue(t.FieldBuilder(i), child); err != nil {
				return err
			}
		}
	default:
		return errUnsupportedBuilder
	}
	return nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("batch: expected integer, got %T", v)
	}
}

func toFloat64(v any) (float64, error) {
	switch f := v.(type) {
	case float64:
		return f, nil
	case float32:
		return float64(f), nil
	default:
		return 0, fmt.Errorf("batch: expected float, got %T", v)
	}
}
