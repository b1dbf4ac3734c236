// Copyright ©2015 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package csi

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/oxbow-project/oxbow/bgzf"
	"github.com/oxbow-project/oxbow/bgzf/index"
)

// conceptualCSIv1data is an uncompressed CSIv1 for the alignments in the BAM
// corresponding to:
//
// @HD	VN:1.0	SO:coordinate
// @SQ	SN:conceptual	LN:134217728
// 60m66m:bin0	0	conceptual	62914561	40	6291456M	*	0	0	*	*
// 70m76m:bin2	0	conceptual	73400321	40	6291456M	*	0	0	*	*
// 73m75m:bin18	0	conceptual	76546049	40	2097152M	*	0	0	*	*
//
// This is a coordinate-translated version of the conceptual example in the
// SAM spec using binning as actually used by BAM rather than as presented.
var conceptualCSIv1data = []byte{
	0x43, 0x53, 0x49, 0x01, 0x0e, 0x00, 0x00, 0x00,
	0x05, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x65, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x65, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0xe4, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x4a, 0x92, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x65, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0xe4, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

var chunkTests = []struct {
	beg, end int
	expect   []bgzf.Chunk
}{
	{
		beg: 65000, end: 71000, // Index does not use tiles, so this is hit.
		expect: []bgzf.Chunk{
			{Begin: bgzf.Offset{File: 101, Block: 0}, End: bgzf.Offset{File: 228, Block: 0}},
		},
	},
	{
		beg: 77594624, end: 80740352, // 73m77m:bin2+bin18 - This is the equivalent to the given example.
		expect: []bgzf.Chunk{
			{Begin: bgzf.Offset{File: 101, Block: 0}, End: bgzf.Offset{File: 228, Block: 0}},
		},
	},
	{
		beg: 62914561, end: 68157440, // 60m65m:bin0+bin2
		expect: []bgzf.Chunk{
			{Begin: bgzf.Offset{File: 101, Block: 0}, End: bgzf.Offset{File: 228, Block: 0}},
		},
	},
	{
		beg: 72351744, end: 80740352, // 69m77m:bin0+bin2+18
		expect: []bgzf.Chunk{
			{Begin: bgzf.Offset{File: 101, Block: 0}, End: bgzf.Offset{File: 228, Block: 0}},
		},
	},
	{
		beg: 61865984, end: 80740352, // 59m77m:bin0+bin2+bin18
		expect: []bgzf.Chunk{
			{Begin: bgzf.Offset{File: 101, Block: 0}, End: bgzf.Offset{File: 228, Block: 0}},
		},
	},
	{
		beg: 80740352, end: 81788928, // 77m78m - Not in covered region, but Index does not use tiles, so this is hit.
		expect: []bgzf.Chunk{
			{Begin: bgzf.Offset{File: 101, Block: 0}, End: bgzf.Offset{File: 228, Block: 0}},
		},
	},
}

func TestConceptualCSIv1(t *testing.T) {
	idx, err := ReadFrom(bytes.NewReader(conceptualCSIv1data))
	if err != nil {
		t.Fatalf("ReadFrom failed: %v", err)
	}

	for _, test := range chunkTests {
		got := idx.Chunks(0, test.beg, test.end)
		if !reflect.DeepEqual(got, test.expect) {
			t.Errorf("unexpected result for [%d,%d): got %v, want %v", test.beg, test.end, got, test.expect)
		}
	}
	stats, ok := idx.ReferenceStats(0)
	if !ok {
		t.Fatal("expected reference stats to be valid")
	}
	want := index.ReferenceStats{
		Chunk: bgzf.Chunk{
			Begin: bgzf.Offset{File: 101, Block: 0},
			End:   bgzf.Offset{File: 228, Block: 0},
		},
		Mapped: 3, Unmapped: 0,
	}
	if stats != want {
		t.Errorf("unexpected reference stats: got %+v, want %+v", stats, want)
	}
	unmapped, ok := idx.Unmapped()
	if !ok || unmapped != 0 {
		t.Errorf("unexpected unmapped count: got %d, ok=%v", unmapped, ok)
	}
}

// conceptualCSIv2data is the CSIv2 equivalent of conceptualCSIv1data.
var conceptualCSIv2data = []byte{
	0x43, 0x53, 0x49, 0x02, 0x0e, 0x00, 0x00, 0x00,
	0x05, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x65, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x65, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0xe4, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x4a, 0x92, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x65, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0xe4, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

func TestConceptualCSIv2(t *testing.T) {
	idx, err := ReadFrom(bytes.NewReader(conceptualCSIv2data))
	if err != nil {
		t.Fatalf("ReadFrom failed: %v", err)
	}

	for _, test := range chunkTests {
		got := idx.Chunks(0, test.beg, test.end)
		if !reflect.DeepEqual(got, test.expect) {
			t.Errorf("unexpected result for [%d,%d): got %v, want %v", test.beg, test.end, got, test.expect)
		}
	}
	stats, ok := idx.ReferenceStats(0)
	if !ok {
		t.Fatal("expected reference stats to be valid")
	}
	want := index.ReferenceStats{
		Chunk: bgzf.Chunk{
			Begin: bgzf.Offset{File: 101, Block: 0},
			End:   bgzf.Offset{File: 228, Block: 0},
		},
		Mapped: 3, Unmapped: 0,
	}
	if stats != want {
		t.Errorf("unexpected reference stats: got %+v, want %+v", stats, want)
	}
	unmapped, ok := idx.Unmapped()
	if !ok || unmapped != 0 {
		t.Errorf("unexpected unmapped count: got %d, ok=%v", unmapped, ok)
	}
}
