// Copyright ©2020 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fai

import (
	"bytes"
	"io"
	"testing"
)

// buildTestFASTA wraps seqs (name -> bases, one line per record, no
// wrapping) into a single-line-per-sequence FASTA body and its matching
// Index, mirroring how fastaSource.resolveIndexed pairs a buffered
// FASTA body with an externally supplied .fai index.
func buildTestFASTA(seqs ...struct{ name, bases string }) ([]byte, Index) {
	var buf bytes.Buffer
	idx := make(Index)
	for _, s := range seqs {
		buf.WriteString(">" + s.name + "\n")
		start := int64(buf.Len())
		buf.WriteString(s.bases + "\n")
		idx[s.name] = Record{
			Name:         s.name,
			Length:       len(s.bases),
			Start:        start,
			BasesPerLine: len(s.bases),
			BytesPerLine: len(s.bases) + 1,
		}
	}
	return buf.Bytes(), idx
}

func TestFileSeqRange(t *testing.T) {
	data, idx := buildTestFASTA(
		struct{ name, bases string }{"chr1", "ACGTACGTAC"},
		struct{ name, bases string }{"chr2", "TTTTGGGGCC"},
	)
	f := NewFile(bytes.NewReader(data), idx)

	seq, err := f.SeqRange("chr1", 2, 6)
	if err != nil {
		t.Fatalf("SeqRange: %v", err)
	}
	got, err := io.ReadAll(seq)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "GTAC" {
		t.Errorf("SeqRange(chr1, 2, 6) = %q, want %q", got, "GTAC")
	}

	whole, err := f.Seq("chr2")
	if err != nil {
		t.Fatalf("Seq: %v", err)
	}
	got, err = io.ReadAll(whole)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "TTTTGGGGCC" {
		t.Errorf("Seq(chr2) = %q, want %q", got, "TTTTGGGGCC")
	}

	if _, err := f.SeqRange("chrMissing", 0, 1); err == nil {
		t.Error("SeqRange for an unknown sequence name: expected error, got nil")
	}
}

func TestFileSeqRangeOutOfBounds(t *testing.T) {
	data, idx := buildTestFASTA(struct{ name, bases string }{"chr1", "ACGT"})
	f := NewFile(bytes.NewReader(data), idx)
	if _, err := f.SeqRange("chr1", 2, 10); err == nil {
		t.Error("SeqRange past the sequence end: expected error, got nil")
	}
	if _, err := f.SeqRange("chr1", -1, 2); err == nil {
		t.Error("SeqRange with a negative start: expected error, got nil")
	}
}
