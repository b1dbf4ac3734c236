// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oxbow

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/oxbow-project/oxbow/arrowschema"
	"github.com/oxbow-project/oxbow/bam"
	"github.com/oxbow-project/oxbow/bgzf"
	"github.com/oxbow-project/oxbow/sam"
)

// bamTestRecord is the minimal set of fields writeBAMRecord needs to
// hand-assemble one binary BAM record, byte for byte as bam.Reader.Read
// expects to decode it.
type bamTestRecord struct {
	name string
	pos  int32
	seq  string
	qual []byte
	aux  []sam.Aux
}

// writeBAMRecord appends one binary BAM record (a little-endian
// block_size header followed by the fixed 32-byte block and the
// variable-length read name, CIGAR, sequence, quality and aux data) to
// buf, mirroring the exact field order bam.Reader.Read consumes.
func writeBAMRecord(t *testing.T, buf *bytes.Buffer, r bamTestRecord) {
	t.Helper()

	name := append([]byte(r.name), 0)
	cigar := []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, len(r.seq))}
	packedSeq := sam.NewSeq([]byte(r.seq)).Seq

	var aux bytes.Buffer
	for _, a := range r.aux {
		aux.Write(a)
	}

	var body bytes.Buffer
	write := func(v any) {
		if err := binary.Write(&body, binary.LittleEndian, v); err != nil {
			t.Fatalf("binary.Write: %v", err)
		}
	}
	write(int32(0))               // refID
	write(uint32(r.pos))          // pos
	write(uint8(len(name)))       // l_read_name
	write(uint8(30))              // mapq
	write(uint16(0))              // bin (discarded on read)
	write(uint16(len(cigar)))     // n_cigar_op
	write(uint16(0))              // flag
	write(uint32(len(r.seq)))     // l_seq
	write(int32(-1))              // next_refID
	write(int32(-1))              // next_pos
	write(int32(0))               // tlen
	body.Write(name)
	for _, op := range cigar {
		write(uint32(op))
	}
	for _, d := range packedSeq {
		body.WriteByte(byte(d))
	}
	body.Write(r.qual)
	body.Write(aux.Bytes())

	if err := binary.Write(buf, binary.LittleEndian, int32(body.Len())); err != nil {
		t.Fatalf("binary.Write block_size: %v", err)
	}
	buf.Write(body.Bytes())
}

// buildBAMFixture assembles a BGZF-compressed BAM stream: a header with
// a single "chr1" reference, followed by three records flushed as
// separate BGZF blocks so each gets a distinct virtual offset. The
// third record repeats the "XI" tag name from the first with a
// different type, to exercise discoverTagDefs's kind-conflict fallback.
func buildBAMFixture(t *testing.T) []byte {
	t.Helper()

	ref, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	if err != nil {
		t.Fatalf("NewReference: %v", err)
	}
	h, err := sam.NewHeader(nil, []*sam.Reference{ref})
	if err != nil {
		t.Fatalf("NewHeader: %v", err)
	}

	xi42, err := sam.NewAux(sam.NewTag("XI"), int32(42))
	if err != nil {
		t.Fatalf("NewAux XI int32: %v", err)
	}
	xf15, err := sam.NewAux(sam.NewTag("XF"), float32(1.5))
	if err != nil {
		t.Fatalf("NewAux XF float32: %v", err)
	}
	xi7, err := sam.NewAux(sam.NewTag("XI"), int32(7))
	if err != nil {
		t.Fatalf("NewAux XI int32 (rec2): %v", err)
	}
	xi25f, err := sam.NewAux(sam.NewTag("XI"), float32(2.5))
	if err != nil {
		t.Fatalf("NewAux XI float32 (rec3): %v", err)
	}

	var buf bytes.Buffer
	w := bgzf.NewWriter(&buf, 1)

	var headerBuf bytes.Buffer
	if err := h.EncodeBinary(&headerBuf); err != nil {
		t.Fatalf("EncodeBinary: %v", err)
	}
	w.Write(headerBuf.Bytes())
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush header: %v", err)
	}

	records := []bamTestRecord{
		{name: "read1", pos: 100, seq: "ACGT", qual: []byte{30, 30, 30, 30}, aux: []sam.Aux{xi42, xf15}},
		{name: "read2", pos: 200, seq: "TTTT", qual: []byte{20, 20, 20, 20}, aux: []sam.Aux{xi7}},
		{name: "read3", pos: 300, seq: "GGGG", qual: []byte{10, 10, 10, 10}, aux: []sam.Aux{xi25f}},
	}
	for _, rec := range records {
		var recBuf bytes.Buffer
		writeBAMRecord(t, &recBuf, rec)
		w.Write(recBuf.Bytes())
		if err := w.Flush(); err != nil {
			t.Fatalf("Flush record: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func bamTestOpener(t *testing.T) SourceOpener {
	data := buildBAMFixture(t)
	return func() (Stream, error) {
		return Stream{Reader: bytes.NewReader(data)}, nil
	}
}

// TestBAMSourceDiscoverTagDefs exercises the struct-discovery path
// behind the "tags" column: the union of aux tag names across the
// scanned records, in first-seen order, with a name observed under two
// different kinds ("XI" is int32 on record 1 and float32 on record 3)
// downgraded to a string column rather than one of the two numeric
// kinds.
func TestBAMSourceDiscoverTagDefs(t *testing.T) {
	open := bamTestOpener(t)
	s := &bamSource{}
	fields, err := s.Fields(open, Options{})
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}

	var tags *arrowschema.Field
	for i := range fields {
		if fields[i].Name == "tags" {
			tags = &fields[i]
		}
	}
	if tags == nil {
		t.Fatal("Fields: no \"tags\" column in default projection")
	}
	if len(tags.Children) != 2 {
		t.Fatalf("tags.Children = %d fields, want 2: %+v", len(tags.Children), tags.Children)
	}
	if tags.Children[0].Name != "XI" || tags.Children[0].Kind != arrowschema.KindString {
		t.Errorf("tags.Children[0] = %+v, want XI/KindString (conflicting int32/float32 observations)", tags.Children[0])
	}
	if tags.Children[1].Name != "XF" || tags.Children[1].Kind != arrowschema.KindFloat64 {
		t.Errorf("tags.Children[1] = %+v, want XF/KindFloat64", tags.Children[1])
	}
}

// TestBAMSourceAttributeDefsBypassesDiscovery confirms an explicit
// Options.AttributeDefs projection is used verbatim instead of
// triggering a discovery scan.
func TestBAMSourceAttributeDefsBypassesDiscovery(t *testing.T) {
	open := bamTestOpener(t)
	s := &bamSource{}
	opts := Options{
		Fields:        []string{"qname", "tags"},
		AttributeDefs: []AttributeDef{{Name: "XI", Kind: int(arrowschema.KindInt64)}},
	}
	fields, err := s.Fields(open, opts)
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	if len(fields) != 2 || fields[1].Name != "tags" {
		t.Fatalf("Fields = %+v, want [qname tags]", fields)
	}
	if len(fields[1].Children) != 1 || fields[1].Children[0].Name != "XI" || fields[1].Children[0].Kind != arrowschema.KindInt64 {
		t.Fatalf("tags.Children = %+v, want explicit [XI/KindInt64]", fields[1].Children)
	}

	if err := s.Open(open, nil, opts); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	row, _, err := s.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if row[0] != "read1" {
		t.Fatalf("row[0] = %v, want \"read1\"", row[0])
	}
	tagRow, ok := row[1].([]any)
	if !ok || len(tagRow) != 1 {
		t.Fatalf("row[1] = %#v, want a 1-element tags row", row[1])
	}
	if tagRow[0] != int64(42) {
		t.Errorf("tags.XI = %v, want int64(42)", tagRow[0])
	}
}

// TestBAMSourceOmitLevelDropsUnprojectedBytes confirms a projection
// that excludes seq, qual and tags drives the reader to
// bam.AllVariableLengthData, and that every record still decodes
// cleanly end to end with exactly the requested columns populated.
func TestBAMSourceOmitLevelDropsUnprojectedBytes(t *testing.T) {
	open := bamTestOpener(t)
	s := &bamSource{}
	opts := Options{Fields: []string{"qname", "pos"}}
	if _, err := s.Fields(open, opts); err != nil {
		t.Fatalf("Fields: %v", err)
	}
	if got := bam.OmitForFields(s.fields); got != bam.AllVariableLengthData {
		t.Fatalf("OmitForFields(%v) = %d, want bam.AllVariableLengthData", s.fields, got)
	}

	if err := s.Open(open, nil, opts); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	wantPos := []int64{100, 200, 300}
	wantName := []string{"read1", "read2", "read3"}
	for i := 0; i < 3; i++ {
		row, coord, err := s.Next()
		if err != nil {
			t.Fatalf("Next record %d: %v", i, err)
		}
		if len(row) != 2 {
			t.Fatalf("record %d: row = %v, want 2 columns", i, row)
		}
		if row[0] != wantName[i] {
			t.Errorf("record %d: qname = %v, want %v", i, row[0], wantName[i])
		}
		if row[1] != wantPos[i] {
			t.Errorf("record %d: pos = %v, want %v", i, row[1], wantPos[i])
		}
		if coord.Start != int(wantPos[i]) {
			t.Errorf("record %d: coord.Start = %d, want %d", i, coord.Start, wantPos[i])
		}
	}
	if _, _, err := s.Next(); err != io.EOF {
		t.Fatalf("Next past last record: err = %v, want io.EOF", err)
	}
}
