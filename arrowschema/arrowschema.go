// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package arrowschema derives Apache Arrow schemas from the field
// descriptors format readers discover, whether fixed (BAM's mandatory
// columns), header-declared (VCF INFO/FORMAT), or data-discovered (SAM
// tags, GFF attributes).
package arrowschema

import (
	"github.com/apache/arrow/go/v17/arrow"
)

// Kind is the logical scalar kind a Field maps to, independent of the
// exact Arrow bit width chosen for it.
type Kind int

const (
	KindInt64 Kind = iota
	KindFloat64
	KindString
	KindBool
	KindBytes
)

// Field describes one column to be added to a schema: its name, scalar
// kind, and whether it is list-valued (repeated) and/or nested as a
// struct of sub-fields (for VCF INFO, genotype columns, and similar
// grouped projections).
type Field struct {
	Name     string
	Kind     Kind
	List     bool
	Nullable bool
	Children []Field // non-empty for a struct-typed field; Kind is ignored
}

// arrowType returns the leaf (non-list) Arrow type for a scalar Kind.
func arrowType(k Kind) arrow.DataType {
	switch k {
	case KindInt64:
		return arrow.PrimitiveTypes.Int64
	case KindFloat64:
		return arrow.PrimitiveTypes.Float64
	case KindBool:
		return arrow.FixedWidthTypes.Boolean
	case KindBytes:
		return arrow.BinaryTypes.Binary
	default:
		return arrow.BinaryTypes.String
	}
}

// DataType computes the full Arrow data type for f, applying struct
// nesting and list wrapping.
func DataType(f Field) arrow.DataType {
	var dt arrow.DataType
	if len(f.Children) > 0 {
		fields := make([]arrow.Field, len(f.Children))
		for i, c := range f.Children {
			fields[i] = arrow.Field{Name: c.Name, Type: DataType(c), Nullable: c.Nullable}
		}
		dt = arrow.StructOf(fields...)
	} else {
		dt = arrowType(f.Kind)
	}
	if f.List {
		dt = arrow.ListOf(dt)
	}
	return dt
}

// Schema builds an Arrow schema from an ordered list of Fields. Field
// order is preserved, matching the projection order requested by a
// scan.
func Schema(fields []Field) *arrow.Schema {
	afs := make([]arrow.Field, len(fields))
	for i, f := range fields {
		afs[i] = arrow.Field{Name: f.Name, Type: DataType(f), Nullable: f.Nullable}
	}
	return arrow.NewSchema(afs, nil)
}

// GenotypeBySample builds the schema for a VCF/BCF scan with
// genotype_by="sample": one struct-typed column per requested sample,
// each holding the requested FORMAT fields.
func GenotypeBySample(samples []string, formatFields []Field) []Field {
	out := make([]Field, len(samples))
	for i, s := range samples {
		out[i] = Field{Name: s, Children: formatFields, Nullable: true}
	}
	return out
}

// GenotypeByField builds the schema for a VCF/BCF scan with
// genotype_by="field": one struct-typed column per requested FORMAT
// field, each holding the value for every requested sample.
func GenotypeByField(formatFields []Field, samples []string) []Field {
	out := make([]Field, len(formatFields))
	for i, f := range formatFields {
		children := make([]Field, len(samples))
		for j, s := range samples {
			children[j] = Field{Name: s, Kind: f.Kind, List: f.List, Nullable: true}
		}
		out[i] = Field{Name: f.Name, Children: children, Nullable: true}
	}
	return out
}
