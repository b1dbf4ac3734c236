// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gff

import (
	"strings"
	"testing"
)

func TestParseGTFAttributes(t *testing.T) {
	attrs := parseGTFAttributes(`gene_id "ENSG001"; transcript_id "ENST001"; exon_number 3;`)
	want := []Attribute{
		{Key: "gene_id", Value: "ENSG001"},
		{Key: "transcript_id", Value: "ENST001"},
		{Key: "exon_number", Value: "3"},
	}
	if len(attrs) != len(want) {
		t.Fatalf("unexpected attribute count: got %d want %d", len(attrs), len(want))
	}
	for i, a := range attrs {
		if a != want[i] {
			t.Errorf("attr %d: got %+v want %+v", i, a, want[i])
		}
	}
}

func TestParseGFF3Attributes(t *testing.T) {
	attrs := parseGFF3Attributes("ID=gene001;Name=BRCA2%3Btest")
	if len(attrs) != 2 {
		t.Fatalf("unexpected attribute count: got %d", len(attrs))
	}
	if attrs[0].Key != "ID" || attrs[0].Value != "gene001" {
		t.Errorf("unexpected attr 0: %+v", attrs[0])
	}
	if attrs[1].Key != "Name" || attrs[1].Value != "BRCA2;test" {
		t.Errorf("unexpected attr 1: %+v", attrs[1])
	}
}

func TestReaderGTF(t *testing.T) {
	const data = "chr1\tHAVANA\tgene\t100\t200\t.\t+\t.\tgene_id \"ENSG001\"; gene_name \"FOO\";\n" +
		"chr1\tHAVANA\texon\t100\t150\t.\t+\t0\tgene_id \"ENSG001\"; exon_number 1;\n"
	r := NewReader(strings.NewReader(data), DialectGTF)
	var count int
	for {
		rec, err := r.Read()
		if err != nil {
			break
		}
		count++
		if rec.Feature == "gene" {
			if name, ok := rec.AttrValue("gene_name"); !ok || name != "FOO" {
				t.Errorf("unexpected gene_name: %q ok=%v", name, ok)
			}
			if rec.Start != 100 || rec.End != 200 {
				t.Errorf("unexpected coordinates: %d-%d", rec.Start, rec.End)
			}
			if rec.Strand != '+' {
				t.Errorf("unexpected strand: %c", rec.Strand)
			}
			if rec.Frame != -1 {
				t.Errorf("unexpected frame: %d", rec.Frame)
			}
		}
	}
	if count != 2 {
		t.Errorf("unexpected record count: got %d want 2", count)
	}
}
