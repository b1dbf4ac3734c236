// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vcf

import (
	"bytes"
	"io"
	"testing"

	"github.com/oxbow-project/oxbow/bgzf"
)

const testVCFBGZFHeader = "##fileformat=VCFv4.3\n##contig=<ID=chr1,length=248956422>\n" +
	"##INFO=<ID=DP,Number=1,Type=Integer,Description=\"Total depth\">\n" +
	"##INFO=<ID=AF,Number=A,Type=Float,Description=\"Allele frequency\">\n" +
	"##FORMAT=<ID=GT,Number=1,Type=String,Description=\"Genotype\">\n" +
	"##FORMAT=<ID=AD,Number=R,Type=Integer,Description=\"Allelic depths\">\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tNA12892\n"

// writeTestVCFBGZF assembles a BGZF-compressed VCF stream, flushing a
// block boundary after the header and after each data line so that
// per-record virtual offsets are distinct.
func writeTestVCFBGZF(t *testing.T, lines ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := bgzf.NewWriter(&buf, 1)

	w.Write([]byte(testVCFBGZFHeader))
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	for _, line := range lines {
		w.Write([]byte(line + "\n"))
		if err := w.Flush(); err != nil {
			t.Fatalf("Flush: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func TestNewBGZFReader(t *testing.T) {
	data := writeTestVCFBGZF(t,
		"chr1\t100\trs1\tA\tG,T\t50.5\tPASS\tDP=10;AF=0.5,0.25\tGT:AD\t0/1:3,7,0",
		"chr1\t200\t.\tC\t.\t.\t.\tDP=5\tGT\t1/1",
	)
	r, err := NewBGZFReader(bytes.NewReader(data), 1)
	if err != nil {
		t.Fatalf("NewBGZFReader: %v", err)
	}
	if r.Header().FileFormat != "VCFv4.3" {
		t.Fatalf("unexpected header: %+v", r.Header())
	}
	var count int
	for {
		rec, err := r.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			t.Fatalf("Read: %v", err)
		}
		count++
		_ = rec
	}
	if count != 2 {
		t.Fatalf("unexpected record count: got %d want 2", count)
	}
}

func TestBGZFReaderSetChunkAndIterator(t *testing.T) {
	data := writeTestVCFBGZF(t,
		"chr1\t100\trs1\tA\tG\t50.5\tPASS\tDP=10",
		"chr1\t200\t.\tC\t.\t.\t.\tDP=5",
	)

	scout, err := NewBGZFReader(bytes.NewReader(data), 1)
	if err != nil {
		t.Fatalf("NewBGZFReader: %v", err)
	}
	if _, err := scout.Read(); err != nil {
		t.Fatalf("Read rec1: %v", err)
	}
	chunk1 := scout.LastChunk()
	if _, err := scout.Read(); err != nil {
		t.Fatalf("Read rec2: %v", err)
	}
	chunk2 := scout.LastChunk()

	r, err := NewBGZFReader(bytes.NewReader(data), 1)
	if err != nil {
		t.Fatalf("NewBGZFReader: %v", err)
	}
	if err := r.SetChunk(&chunk1); err != nil {
		t.Fatalf("SetChunk: %v", err)
	}
	rec, err := r.Read()
	if err != nil {
		t.Fatalf("Read within chunk1: %v", err)
	}
	if rec.Pos != 100 {
		t.Fatalf("unexpected record from chunk1: %+v", rec)
	}
	if _, err := r.Read(); err != io.EOF {
		t.Fatalf("expected io.EOF at end of chunk1, got %v", err)
	}

	it, err := NewIterator(r, []bgzf.Chunk{chunk1, chunk2})
	if err != nil {
		t.Fatalf("NewIterator: %v", err)
	}
	var positions []int
	for it.Next() {
		positions = append(positions, it.Record().Pos)
	}
	if err := it.Error(); err != nil {
		t.Fatalf("Iterator error: %v", err)
	}
	if len(positions) != 2 || positions[0] != 100 || positions[1] != 200 {
		t.Fatalf("unexpected iterator positions: %v", positions)
	}
	if err := it.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestSetChunkRejectsNonBGZFReader(t *testing.T) {
	r, err := NewReader(bytes.NewReader([]byte(testVCF)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	var chunk bgzf.Chunk
	if err := r.SetChunk(&chunk); err == nil {
		t.Fatalf("expected error from SetChunk on non-BGZF reader")
	}
}
