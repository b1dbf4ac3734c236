// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bcf

import "testing"

func TestDecodeTypedInt8(t *testing.T) {
	// descriptor: count=3, kind=int8; values 1, missing, 3
	b := []byte{0x31, 1, 0x80, 3}
	v, n, err := decodeTyped(b)
	if err != nil {
		t.Fatalf("decodeTyped failed: %v", err)
	}
	if n != 4 {
		t.Errorf("unexpected consumed length: got %d want 4", n)
	}
	if len(v.Ints) != 2 || v.Ints[0] != 1 || v.Ints[1] != 3 {
		t.Errorf("unexpected ints: %v", v.Ints)
	}
}

func TestDecodeTypedFloat(t *testing.T) {
	b := []byte{0x15, 0, 0, 0, 0x3f} // count=1, kind=float, value 0.5
	v, n, err := decodeTyped(b)
	if err != nil {
		t.Fatalf("decodeTyped failed: %v", err)
	}
	if n != 5 {
		t.Errorf("unexpected consumed length: got %d want 5", n)
	}
	if len(v.Floats) != 1 || v.Floats[0] != 0.5 {
		t.Errorf("unexpected floats: %v", v.Floats)
	}
}

func TestDecodeTypedString(t *testing.T) {
	b := append([]byte{0x37}, []byte("rs1")...) // count=3, kind=char
	v, n, err := decodeTyped(b)
	if err != nil {
		t.Fatalf("decodeTyped failed: %v", err)
	}
	if n != 4 {
		t.Errorf("unexpected consumed length: got %d want 4", n)
	}
	if v.Strings != "rs1" {
		t.Errorf("unexpected string: %q", v.Strings)
	}
}

func TestDecodeTypedArraySplitsPerSample(t *testing.T) {
	// descriptor: count=4, kind=int8; values for 2 samples, 2 values each.
	b := []byte{0x41, 1, 2, 3, 4}
	vals, n, err := decodeTypedArray(b, 2)
	if err != nil {
		t.Fatalf("decodeTypedArray failed: %v", err)
	}
	if n != 5 {
		t.Errorf("unexpected consumed length: got %d want 5", n)
	}
	if len(vals) != 2 {
		t.Fatalf("expected 2 sample values, got %d", len(vals))
	}
	if len(vals[0].Ints) != 2 || vals[0].Ints[0] != 1 || vals[0].Ints[1] != 2 {
		t.Errorf("unexpected sample 0: %v", vals[0].Ints)
	}
	if len(vals[1].Ints) != 2 || vals[1].Ints[0] != 3 || vals[1].Ints[1] != 4 {
		t.Errorf("unexpected sample 1: %v", vals[1].Ints)
	}
}

func TestDecodeTypedMissing(t *testing.T) {
	v, n, err := decodeTyped([]byte{0x00})
	if err != nil {
		t.Fatalf("decodeTyped failed: %v", err)
	}
	if n != 1 || !v.isMissing() {
		t.Errorf("expected missing value, got %+v n=%d", v, n)
	}
}
