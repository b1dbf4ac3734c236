// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bcf

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/oxbow-project/oxbow/bgzf"
)

const testBCFHeader = "##fileformat=VCFv4.3\n##contig=<ID=chr1,length=1000>\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n"

// encodeMinimalRecord builds a BCF2 data record (8 byte length prefix
// plus shared block) for a single allele and no FORMAT fields, with
// n_sample set to 1 and an empty indiv block: ID and FILTER are left
// typed-missing and REF is a single-char string.
func encodeMinimalRecord(chromIdx, pos int32, ref byte) []byte {
	var shared bytes.Buffer
	var buf [4]byte

	binary.LittleEndian.PutUint32(buf[:], uint32(chromIdx))
	shared.Write(buf[:])
	binary.LittleEndian.PutUint32(buf[:], uint32(pos))
	shared.Write(buf[:])
	binary.LittleEndian.PutUint32(buf[:], 1) // rlen
	shared.Write(buf[:])
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(float32Missing))
	shared.Write(buf[:])
	binary.LittleEndian.PutUint32(buf[:], 1<<16) // nAllele=1, nInfo=0
	shared.Write(buf[:])
	binary.LittleEndian.PutUint32(buf[:], 1) // nFmt=0, nSample=1
	shared.Write(buf[:])

	shared.WriteByte(0x00)                     // ID: typed-missing
	shared.Write([]byte{0x17, ref})            // REF: count=1, kind=char(7)
	shared.WriteByte(0x00)                     // FILTER: typed-missing

	var rec bytes.Buffer
	binary.LittleEndian.PutUint32(buf[:], uint32(shared.Len()))
	rec.Write(buf[:])
	binary.LittleEndian.PutUint32(buf[:], 0) // lIndiv
	rec.Write(buf[:])
	rec.Write(shared.Bytes())
	return rec.Bytes()
}

// writeTestBCF assembles a BGZF-compressed BCF stream with the given
// records, flushing a block boundary after the header and after each
// record so that per-record virtual offsets are distinct.
func writeTestBCF(t *testing.T, records ...[]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := bgzf.NewWriter(&buf, 1)

	w.Write([]byte{'B', 'C', 'F', 2, 2})
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(testBCFHeader)))
	w.Write(lenBuf[:])
	w.Write([]byte(testBCFHeader))
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	for _, rec := range records {
		w.Write(rec)
		if err := w.Flush(); err != nil {
			t.Fatalf("Flush: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func TestReaderReadsRecords(t *testing.T) {
	data := writeTestBCF(t, encodeMinimalRecord(0, 10, 'A'), encodeMinimalRecord(0, 20, 'C'))
	r, err := NewReader(bytes.NewReader(data), 1)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if len(r.Header().Contigs) != 1 || r.Header().Contigs[0] != "chr1" {
		t.Fatalf("unexpected contigs: %v", r.Header().Contigs)
	}

	rec1, err := r.Read()
	if err != nil {
		t.Fatalf("Read rec1: %v", err)
	}
	if rec1.Pos != 10 || rec1.Ref != "A" {
		t.Fatalf("unexpected rec1: %+v", rec1)
	}
	rec2, err := r.Read()
	if err != nil {
		t.Fatalf("Read rec2: %v", err)
	}
	if rec2.Pos != 20 || rec2.Ref != "C" {
		t.Fatalf("unexpected rec2: %+v", rec2)
	}
	if _, err := r.Read(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

// TestReaderSetChunkAndIterator confirms that a chunk captured via
// LastChunk after reading one record can be replayed on a fresh Reader
// to yield just that record, and that Iterator walks a chunk list in
// order across record boundaries.
func TestReaderSetChunkAndIterator(t *testing.T) {
	data := writeTestBCF(t, encodeMinimalRecord(0, 10, 'A'), encodeMinimalRecord(0, 20, 'C'))

	scout, err := NewReader(bytes.NewReader(data), 1)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := scout.Read(); err != nil {
		t.Fatalf("Read rec1: %v", err)
	}
	chunk1 := scout.LastChunk()
	if _, err := scout.Read(); err != nil {
		t.Fatalf("Read rec2: %v", err)
	}
	chunk2 := scout.LastChunk()

	r, err := NewReader(bytes.NewReader(data), 1)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if err := r.SetChunk(&chunk1); err != nil {
		t.Fatalf("SetChunk: %v", err)
	}
	rec, err := r.Read()
	if err != nil {
		t.Fatalf("Read within chunk1: %v", err)
	}
	if rec.Pos != 10 {
		t.Fatalf("unexpected record from chunk1: %+v", rec)
	}
	if _, err := r.Read(); err != io.EOF {
		t.Fatalf("expected io.EOF at end of chunk1, got %v", err)
	}

	it, err := NewIterator(r, []bgzf.Chunk{chunk1, chunk2})
	if err != nil {
		t.Fatalf("NewIterator: %v", err)
	}
	var positions []int32
	for it.Next() {
		positions = append(positions, it.Record().Pos)
	}
	if err := it.Error(); err != nil {
		t.Fatalf("Iterator error: %v", err)
	}
	if len(positions) != 2 || positions[0] != 10 || positions[1] != 20 {
		t.Fatalf("unexpected iterator positions: %v", positions)
	}
	if err := it.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
