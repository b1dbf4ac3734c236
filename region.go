// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oxbow

import (
	"strconv"
	"strings"
)

// Region is a resolved genomic interval, 0-based half-open, ready to be
// matched against a format's reference list.
type Region struct {
	Chrom      string
	Start, End int
	// Bounded is false for a bare "chrom" region, meaning the whole
	// reference sequence.
	Bounded bool
}

// ParseRegion parses the textual region grammar `reference(:start(-end)?)?`,
// with 1-based inclusive bounds in the text converted to 0-based
// half-open bounds in the result.
func ParseRegion(s string) (Region, error) {
	chrom, rest, hasColon := strings.Cut(s, ":")
	if chrom == "" {
		return Region{}, ErrBadRegion
	}
	if !hasColon {
		return Region{Chrom: chrom}, nil
	}
	startStr, endStr, hasDash := strings.Cut(rest, "-")
	start, err := strconv.Atoi(startStr)
	if err != nil || start < 1 {
		return Region{}, ErrBadRegion
	}
	if !hasDash {
		return Region{Chrom: chrom, Start: start - 1, End: start, Bounded: true}, nil
	}
	end, err := strconv.Atoi(endStr)
	if err != nil || end < start {
		return Region{}, ErrBadRegion
	}
	return Region{Chrom: chrom, Start: start - 1, End: end, Bounded: true}, nil
}
