// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vcf

import (
	"strconv"
	"strings"
)

// FieldValue holds the decoded value of one INFO or FORMAT field for a
// single record (or a single sample, for FORMAT fields). A field declared
// with Number other than 1 carries its values in the slice matching its
// Type; scalar fields use the first element.
type FieldValue struct {
	Type    Type
	Ints    []int64
	Floats  []float64
	Strings []string
	Flag    bool
}

// Sample holds the per-sample FORMAT field values for a record, keyed by
// field ID.
type Sample struct {
	Fields map[string]FieldValue
}

// Record represents a single VCF data line.
type Record struct {
	Chrom  string
	Pos    int // 1-based, as stored in the VCF column
	ID     []string
	Ref    string
	Alt    []string
	Qual   float64
	QualOK bool // false when QUAL is "."
	Filter []string

	// FilterMissing is true for "."; a "PASS" column leaves Filter nil.
	FilterMissing bool

	Info map[string]FieldValue

	// FormatOrder is the per-record FORMAT column's field order.
	FormatOrder []string
	Samples     []Sample
}

// ParseRecord decodes a single tab-separated VCF data line against the
// field declarations in h.
func ParseRecord(h *Header, line string) (*Record, error) {
	cols := strings.Split(line, "\t")
	if len(cols) < 8 {
		return nil, errBadRecord
	}
	r := &Record{Chrom: cols[0], Ref: cols[3]}

	pos, err := strconv.Atoi(cols[1])
	if err != nil {
		return nil, errBadRecord
	}
	r.Pos = pos

	if cols[2] != "." {
		r.ID = strings.Split(cols[2], ";")
	}

	if cols[4] != "." {
		r.Alt = strings.Split(cols[4], ",")
	}

	if cols[5] == "." {
		r.QualOK = false
	} else {
		q, err := strconv.ParseFloat(cols[5], 64)
		if err != nil {
			return nil, errBadRecord
		}
		r.Qual = q
		r.QualOK = true
	}

	switch cols[6] {
	case ".":
		r.FilterMissing = true
	case "PASS":
		r.Filter = nil
	default:
		r.Filter = strings.Split(cols[6], ";")
	}

	r.Info, err = parseInfo(h, cols[7])
	if err != nil {
		return nil, err
	}

	if len(cols) > 8 {
		r.FormatOrder = strings.Split(cols[8], ":")
		for _, s := range cols[9:] {
			sample, err := parseSample(h, r.FormatOrder, s)
			if err != nil {
				return nil, err
			}
			r.Samples = append(r.Samples, sample)
		}
	}

	return r, nil
}

func parseInfo(h *Header, field string) (map[string]FieldValue, error) {
	info := make(map[string]FieldValue)
	if field == "." || field == "" {
		return info, nil
	}
	for _, kv := range strings.Split(field, ";") {
		if kv == "" {
			continue
		}
		key, val, hasVal := strings.Cut(kv, "=")
		decl, ok := h.Info[key]
		if !ok {
			// Tolerate undeclared INFO keys by treating them as
			// String-typed, as real-world VCFs frequently omit
			// declarations for ad hoc annotation tools.
			decl = FieldInfo{ID: key, Type: TypeString, Number: NumberUnknown}
		}
		if decl.Type == TypeFlag {
			info[key] = FieldValue{Type: TypeFlag, Flag: true}
			continue
		}
		if !hasVal {
			continue
		}
		fv, err := decodeValues(decl.Type, val)
		if err != nil {
			return nil, err
		}
		info[key] = fv
	}
	return info, nil
}

func parseSample(h *Header, order []string, field string) (Sample, error) {
	s := Sample{Fields: make(map[string]FieldValue)}
	if field == "." {
		return s, nil
	}
	vals := strings.Split(field, ":")
	for i, key := range order {
		if i >= len(vals) {
			break
		}
		decl, ok := h.Format[key]
		if !ok {
			decl = FieldInfo{ID: key, Type: TypeString}
		}
		if vals[i] == "." {
			continue
		}
		fv, err := decodeValues(decl.Type, vals[i])
		if err != nil {
			return Sample{}, err
		}
		s.Fields[key] = fv
	}
	return s, nil
}

// decodeValues splits a comma separated VCF value list and decodes it
// according to typ. Per-element "." entries are simply omitted from the
// decoded slice; the empty slice therefore represents "all missing".
func decodeValues(typ Type, raw string) (FieldValue, error) {
	parts := strings.Split(raw, ",")
	fv := FieldValue{Type: typ}
	switch typ {
	case TypeInteger:
		for _, p := range parts {
			if p == "." {
				continue
			}
			n, err := strconv.ParseInt(p, 10, 64)
			if err != nil {
				return FieldValue{}, errBadRecord
			}
			fv.Ints = append(fv.Ints, n)
		}
	case TypeFloat:
		for _, p := range parts {
			if p == "." {
				continue
			}
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return FieldValue{}, errBadRecord
			}
			fv.Floats = append(fv.Floats, f)
		}
	default: // TypeString, TypeCharacter
		for _, p := range parts {
			if p == "." {
				continue
			}
			fv.Strings = append(fv.Strings, p)
		}
	}
	return fv, nil
}
