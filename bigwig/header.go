// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bigwig

import (
	"encoding/binary"
	"io"
	"math"
)

// detectOrder interprets the first 4 bytes of b as a magic number and
// returns the byte order that makes it equal want, trying both little and
// big endian as BBI files may be written in either.
func detectOrder(b []byte, want uint32) (binary.ByteOrder, bool) {
	if binary.LittleEndian.Uint32(b) == want {
		return binary.LittleEndian, true
	}
	if binary.BigEndian.Uint32(b) == want {
		return binary.BigEndian, true
	}
	return nil, false
}

// readHeader decodes the fixed 64 byte BBI header starting at offset 0 of
// r, along with the per-level zoom headers that immediately follow it.
func readHeader(r io.ReaderAt) (*Header, binary.ByteOrder, error) {
	buf := make([]byte, headerSize)
	if _, err := r.ReadAt(buf, 0); err != nil {
		return nil, nil, err
	}

	var format Format
	order, ok := detectOrder(buf[:4], bigWigMagic)
	if ok {
		format = FormatBigWig
	} else {
		order, ok = detectOrder(buf[:4], bigBedMagic)
		if !ok {
			return nil, nil, ErrBadMagic
		}
		format = FormatBigBed
	}

	h := &Header{Format: format}
	h.Version = order.Uint16(buf[4:6])
	h.ZoomLevels = order.Uint16(buf[6:8])
	h.ChromTreeOffset = order.Uint64(buf[8:16])
	h.FullDataOffset = order.Uint64(buf[16:24])
	h.FullIndexOffset = order.Uint64(buf[24:32])
	h.FieldCount = order.Uint16(buf[32:34])
	h.DefinedFieldCount = order.Uint16(buf[34:36])
	h.AutoSQLOffset = order.Uint64(buf[36:44])
	h.TotalSummaryOffset = order.Uint64(buf[44:52])
	h.UncompressBufSize = order.Uint32(buf[52:56])
	// buf[56:64] is the reserved "extensionOffset" field; unused here.

	if h.ZoomLevels > 0 {
		zbuf := make([]byte, 24*int(h.ZoomLevels))
		if _, err := r.ReadAt(zbuf, headerSize); err != nil {
			return nil, nil, err
		}
		for i := 0; i < int(h.ZoomLevels); i++ {
			b := zbuf[i*24:]
			h.Zoom = append(h.Zoom, ZoomHeader{
				ReductionLevel: order.Uint32(b[0:4]),
				// b[4:8] is a 4 byte reserved padding field.
				DataOffset:  order.Uint64(b[8:16]),
				IndexOffset: order.Uint64(b[16:24]),
			})
		}
	}

	return h, order, nil
}

// readSummary decodes the 40 byte total-summary block, if present.
func readSummary(r io.ReaderAt, order binary.ByteOrder, offset uint64) (*Summary, error) {
	if offset == 0 {
		return nil, nil
	}
	buf := make([]byte, 40)
	if _, err := r.ReadAt(buf, int64(offset)); err != nil {
		return nil, err
	}
	return &Summary{
		ValidCount: order.Uint64(buf[0:8]),
		MinVal:     order2float64(order, buf[8:16]),
		MaxVal:     order2float64(order, buf[16:24]),
		SumData:    order2float64(order, buf[24:32]),
		SumSquares: order2float64(order, buf[32:40]),
	}, nil
}

func order2float64(order binary.ByteOrder, b []byte) float64 {
	return math.Float64frombits(order.Uint64(b))
}
