// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bigwig implements BigWig and BigBed (BBI) format reading: the
// fixed header, the B+ chromosome name tree, the R-tree block index, and
// zoom level summaries.
//
// https://genome.ucsc.edu/goldenpath/help/bigWig.html
// https://genome.ucsc.edu/goldenPath/help/bigBed.html
package bigwig

import "errors"

const (
	bigWigMagic = 0x888FFC26
	bigBedMagic = 0x8789F2EB
	chromMagic  = 0x78CA8C91
	rTreeMagic  = 0x2468ACE0

	headerSize = 64
)

var (
	ErrBadMagic      = errors.New("bigwig: not a BigWig or BigBed file")
	ErrBadChromMagic = errors.New("bigwig: malformed chromosome B+ tree")
	ErrBadRTreeMagic = errors.New("bigwig: malformed R-tree index")
	ErrOutOfRange    = errors.New("bigwig: record out of range")
)

// Format distinguishes a BigWig (numeric signal) stream from a BigBed
// (interval feature) stream; both share the same container format.
type Format int

const (
	FormatBigWig Format = iota
	FormatBigBed
)

// Header is the fixed-size BBI container header.
type Header struct {
	Format            Format
	Version           uint16
	ZoomLevels        uint16
	ChromTreeOffset   uint64
	FullDataOffset    uint64
	FullIndexOffset   uint64
	FieldCount        uint16
	DefinedFieldCount uint16
	AutoSQLOffset     uint64
	TotalSummaryOffset uint64
	UncompressBufSize uint32

	Zoom []ZoomHeader
}

// ZoomHeader describes one reduced-resolution zoom level.
type ZoomHeader struct {
	ReductionLevel uint32
	DataOffset     uint64
	IndexOffset    uint64
}

// Summary is the whole-file statistics block.
type Summary struct {
	ValidCount uint64
	MinVal     float64
	MaxVal     float64
	SumData    float64
	SumSquares float64
}
