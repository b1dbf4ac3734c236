// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sam

import "github.com/oxbow-project/oxbow/arrowschema"

// ArrowCoord returns the 0-based, half-open [start, end) alignment
// coordinate used for Arrow batch overlap filtering, canonicalizing r's
// Pos/Cigar-derived extent the way every BAM-backed column consumer
// needs it.
func (r *Record) ArrowCoord() (start, end int) {
	return r.Start(), r.End()
}

// ArrowRow builds one Arrow row value per name, in projection order.
// tagDefs is the "tags" struct's child descriptors (name, kind), empty
// when "tags" was not projected; a name not present on r yields a
// per-child null rather than omitting the struct entirely.
func (r *Record) ArrowRow(names []string, tagDefs []arrowschema.Field) []any {
	row := make([]any, len(names))
	for i, n := range names {
		row[i] = r.arrowField(n, tagDefs)
	}
	return row
}

func (r *Record) arrowField(name string, tagDefs []arrowschema.Field) any {
	switch name {
	case "qname":
		return r.Name
	case "flag":
		return int64(r.Flags)
	case "rname":
		if r.Ref == nil {
			return nil
		}
		return r.Ref.Name()
	case "pos":
		return int64(r.Pos)
	case "mapq":
		return int64(r.MapQ)
	case "cigar":
		return r.Cigar.String()
	case "rnext":
		if r.MateRef == nil {
			return nil
		}
		return r.MateRef.Name()
	case "pnext":
		return int64(r.MatePos)
	case "tlen":
		return int64(r.TempLen)
	case "seq":
		return string(r.Seq.Expand())
	case "qual":
		return string(r.Qual)
	case "tags":
		if len(tagDefs) == 0 {
			return nil
		}
		vals := make([]any, len(tagDefs))
		for i, d := range tagDefs {
			a := r.AuxFields.Get(NewTag(d.Name))
			if a == nil {
				vals[i] = nil
				continue
			}
			vals[i] = a.ArrowValue(d.Kind)
		}
		return vals
	default:
		return nil
	}
}
