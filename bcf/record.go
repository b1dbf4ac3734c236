// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bcf

// Record is a decoded BCF data record: fixed-width shared fields plus
// the typed INFO and per-sample FORMAT vectors, still indexed by
// dictionary ID rather than resolved against vcf.Header. Callers that
// need field names use Header.IDFor on the Key of each InfoField and
// FormatField.
type Record struct {
	ChromIdx int32
	Pos      int32 // 0-based
	RLen     int32
	Qual     float32
	QualOK   bool

	ID     string
	Ref    string
	Alt    []string
	Filter []int32 // dictionary indices; empty means unfiltered/missing

	Info []InfoField

	NSample int
	Format  []FormatField
}

// InfoField is one decoded INFO entry.
type InfoField struct {
	Key   int32 // dictionary index
	Value Value
}

// FormatField is one decoded per-sample FORMAT entry: Values holds one
// Value per sample, each carrying up to the field's declared arity.
type FormatField struct {
	Key    int32
	Values []Value
}

// decodeShared decodes the "shared" block of a BCF record: everything up
// to but not including the per-sample genotype data. It returns the
// number of FORMAT fields, needed by the caller to decode the following
// indiv block.
func decodeShared(b []byte, h *Header) (*Record, int, error) {
	if len(b) < 24 {
		return nil, 0, ErrTruncated
	}
	r := &Record{}
	r.ChromIdx = readInt32(b[0:])
	r.Pos = readInt32(b[4:])
	r.RLen = readInt32(b[8:])
	qual := readFloat32(b[12:])
	if qual != float32Missing {
		r.Qual = qual
		r.QualOK = true
	}
	nAlleleInfo := readUint32(b[16:])
	nFmtSample := readUint32(b[20:])
	nAllele := int(nAlleleInfo >> 16)
	nInfo := int(nAlleleInfo & 0xffff)
	nFmt := int(nFmtSample >> 24)
	r.NSample = int(nFmtSample & 0x00ffffff)

	off := 24
	idVal, n, err := decodeTyped(b[off:])
	if err != nil {
		return nil, 0, err
	}
	off += n
	r.ID = idVal.Strings

	for i := 0; i < nAllele; i++ {
		av, n, err := decodeTyped(b[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		if i == 0 {
			r.Ref = av.Strings
		} else {
			r.Alt = append(r.Alt, av.Strings)
		}
	}

	filt, n, err := decodeTyped(b[off:])
	if err != nil {
		return nil, 0, err
	}
	off += n
	r.Filter = filt.Ints

	for i := 0; i < nInfo; i++ {
		keyVal, n, err := decodeTyped(b[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		var key int32
		if len(keyVal.Ints) > 0 {
			key = keyVal.Ints[0]
		}
		val, n, err := decodeTyped(b[off:])
		if err != nil {
			return nil, 0, err
		}
		off += n
		r.Info = append(r.Info, InfoField{Key: key, Value: val})
	}

	return r, nFmt, nil
}

// decodeIndiv decodes the "indiv" (per-sample genotype) block following
// r's shared block. Each of the nFmt fields is laid out as a typed key
// (a single integer), followed by one typed vector whose element count is
// the field's per-sample arity times NSample; the flat vector is then
// split evenly across samples.
func decodeIndiv(b []byte, r *Record, nFmt int) error {
	off := 0
	for i := 0; i < nFmt; i++ {
		keyVal, n, err := decodeTyped(b[off:])
		if err != nil {
			return err
		}
		off += n
		var key int32
		if len(keyVal.Ints) > 0 {
			key = keyVal.Ints[0]
		}

		flat, n, err := decodeTypedArray(b[off:], r.NSample)
		if err != nil {
			return err
		}
		off += n

		r.Format = append(r.Format, FormatField{Key: key, Values: flat})
	}
	return nil
}
