// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bigwig

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

var errBadSectionType = errors.New("bigwig: unrecognized wig section type")

// sectionType is the wig data block's per-section encoding, distinct
// from the container Format: a single BigWig file's data blocks may mix
// bedGraph, variable-step and fixed-step sections.
type sectionType uint8

const (
	sectionBedGraph  sectionType = 1
	sectionVarStep   sectionType = 2
	sectionFixedStep sectionType = 3
)

// WigRecord is one decoded BigWig data point: a half-open genomic
// interval and its associated value.
type WigRecord struct {
	ChromIx    uint32
	Start, End uint32
	Value      float32
}

// BedRecord is one decoded BigBed feature: a half-open genomic interval
// plus the tab-separated rest of its BED line (Name, Score, ... as
// declared by Header.DefinedFieldCount/FieldCount).
type BedRecord struct {
	ChromIx    uint32
	Start, End uint32
	Rest       string
}

// inflateBlock decompresses a BBI data block if the file declares a
// non-zero compression buffer size, and is a no-op otherwise.
func inflateBlock(h *Header, raw []byte) ([]byte, error) {
	if h.UncompressBufSize == 0 {
		return raw, nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, zr); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeWigBlock decodes one BigWig data block into its component
// records. The block begins with a fixed 24 byte section header: chrom
// id, start, end, item step, item span, section type, reserved byte and
// item count.
func decodeWigBlock(order binary.ByteOrder, data []byte) ([]WigRecord, error) {
	var out []WigRecord
	for len(data) > 0 {
		if len(data) < 24 {
			return nil, io.ErrUnexpectedEOF
		}
		chromIx := order.Uint32(data[0:4])
		start := order.Uint32(data[4:8])
		itemStep := order.Uint32(data[12:16])
		itemSpan := order.Uint32(data[16:20])
		typ := sectionType(data[20])
		itemCount := order.Uint16(data[22:24])
		off := 24

		switch typ {
		case sectionBedGraph:
			for i := 0; i < int(itemCount); i++ {
				s := order.Uint32(data[off : off+4])
				e := order.Uint32(data[off+4 : off+8])
				v := math.Float32frombits(order.Uint32(data[off+8 : off+12]))
				out = append(out, WigRecord{ChromIx: chromIx, Start: s, End: e, Value: v})
				off += 12
			}
		case sectionVarStep:
			for i := 0; i < int(itemCount); i++ {
				s := order.Uint32(data[off : off+4])
				v := math.Float32frombits(order.Uint32(data[off+4 : off+8]))
				out = append(out, WigRecord{ChromIx: chromIx, Start: s, End: s + itemSpan, Value: v})
				off += 8
			}
		case sectionFixedStep:
			s := start
			for i := 0; i < int(itemCount); i++ {
				v := math.Float32frombits(order.Uint32(data[off : off+4]))
				out = append(out, WigRecord{ChromIx: chromIx, Start: s, End: s + itemSpan, Value: v})
				off += 4
				s += itemStep
			}
		default:
			return nil, errBadSectionType
		}
		data = data[off:]
	}
	return out, nil
}

// decodeBedBlock decodes one BigBed data block. Each entry is chrom id,
// start, end (three uint32s) followed by a NUL-terminated string holding
// the remaining tab-separated BED columns.
func decodeBedBlock(order binary.ByteOrder, data []byte) ([]BedRecord, error) {
	var out []BedRecord
	for len(data) > 0 {
		if len(data) < 12 {
			return nil, io.ErrUnexpectedEOF
		}
		chromIx := order.Uint32(data[0:4])
		start := order.Uint32(data[4:8])
		end := order.Uint32(data[8:12])
		nul := bytes.IndexByte(data[12:], 0)
		if nul < 0 {
			return nil, io.ErrUnexpectedEOF
		}
		rest := string(data[12 : 12+nul])
		out = append(out, BedRecord{ChromIx: chromIx, Start: start, End: end, Rest: rest})
		data = data[12+nul+1:]
	}
	return out, nil
}

// ZoomRecord is one decoded reduced-resolution summary interval.
type ZoomRecord struct {
	ChromIx      uint32
	Start, End   uint32
	ValidCount   uint32
	MinVal       float32
	MaxVal       float32
	SumData      float32
	SumSquares   float32
}

// decodeZoomBlock decodes one zoom-level data block: a flat array of 32
// byte fixed-width summary records.
func decodeZoomBlock(order binary.ByteOrder, data []byte) ([]ZoomRecord, error) {
	const recSize = 32
	if len(data)%recSize != 0 {
		return nil, io.ErrUnexpectedEOF
	}
	out := make([]ZoomRecord, 0, len(data)/recSize)
	for off := 0; off < len(data); off += recSize {
		b := data[off:]
		out = append(out, ZoomRecord{
			ChromIx:    order.Uint32(b[0:4]),
			Start:      order.Uint32(b[4:8]),
			End:        order.Uint32(b[8:12]),
			ValidCount: order.Uint32(b[12:16]),
			MinVal:     math.Float32frombits(order.Uint32(b[16:20])),
			MaxVal:     math.Float32frombits(order.Uint32(b[20:24])),
			SumData:    math.Float32frombits(order.Uint32(b[24:28])),
			SumSquares: math.Float32frombits(order.Uint32(b[28:32])),
		})
	}
	return out, nil
}
