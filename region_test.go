// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oxbow

import "testing"

func TestParseRegion(t *testing.T) {
	tests := []struct {
		in      string
		want    Region
		wantErr bool
	}{
		{in: "chr1", want: Region{Chrom: "chr1"}},
		{in: "chr1:101-200", want: Region{Chrom: "chr1", Start: 100, End: 200, Bounded: true}},
		{in: "chr1:101", want: Region{Chrom: "chr1", Start: 100, End: 101, Bounded: true}},
		{in: "", wantErr: true},
		{in: ":100-200", wantErr: true},
		{in: "chr1:abc-200", wantErr: true},
		{in: "chr1:200-100", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseRegion(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseRegion(%q): expected error, got %+v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRegion(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRegion(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}
