// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bigwig

import (
	"encoding/binary"
	"errors"
	"io"

	"golang.org/x/exp/mmap"
)

var errUnknownChrom = errors.New("bigwig: unknown chromosome")

// File is a random-access BigWig or BigBed file over any io.ReaderAt, so
// that range queries touch only the pages spanning the blocks the
// R-tree index selects whether the backing store is an mmapped file or
// an in-memory buffer.
type File struct {
	f     io.ReaderAt
	closer io.Closer
	order binary.ByteOrder

	Header  *Header
	Summary *Summary
	Chroms  []ChromInfo

	byName map[string]ChromInfo
}

// Open opens the BigWig or BigBed file at path via mmap.
func Open(path string) (*File, error) {
	f, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	file, err := OpenReaderAt(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	file.closer = f
	return file, nil
}

// OpenReaderAt opens a BigWig or BigBed file backed by an arbitrary
// io.ReaderAt, such as an in-memory buffer obtained from a non-seekable
// source that has already been read in full.
func OpenReaderAt(f io.ReaderAt) (*File, error) {
	h, order, err := readHeader(f)
	if err != nil {
		return nil, err
	}
	chroms, err := readChromTree(f, order, h.ChromTreeOffset)
	if err != nil {
		return nil, err
	}
	summary, err := readSummary(f, order, h.TotalSummaryOffset)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]ChromInfo, len(chroms))
	for _, c := range chroms {
		byName[c.Name] = c
	}

	return &File{f: f, order: order, Header: h, Summary: summary, Chroms: chroms, byName: byName}, nil
}

// Close closes the file, if it was opened from a path.
func (f *File) Close() error {
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}

// Chrom returns the ChromInfo for the named chromosome.
func (f *File) Chrom(name string) (ChromInfo, bool) {
	c, ok := f.byName[name]
	return c, ok
}

// QueryWig returns every BigWig data point overlapping [start, end) on
// chrom. It is an error to call QueryWig on a BigBed file.
func (f *File) QueryWig(chrom string, start, end uint32) ([]WigRecord, error) {
	if f.Header.Format != FormatBigWig {
		return nil, errors.New("bigwig: not a BigWig file")
	}
	blocks, err := f.blocksFor(chrom, start, end, f.Header.FullIndexOffset)
	if err != nil {
		return nil, err
	}
	var out []WigRecord
	for _, blk := range blocks {
		raw := make([]byte, blk.DataSize)
		if _, err := f.f.ReadAt(raw, int64(blk.DataOffset)); err != nil {
			return nil, err
		}
		data, err := inflateBlock(f.Header, raw)
		if err != nil {
			return nil, err
		}
		recs, err := decodeWigBlock(f.order, data)
		if err != nil {
			return nil, err
		}
		out = append(out, filterWig(recs, chrom, f, start, end)...)
	}
	return out, nil
}

// QueryBed returns every BigBed feature overlapping [start, end) on
// chrom. It is an error to call QueryBed on a BigWig file.
func (f *File) QueryBed(chrom string, start, end uint32) ([]BedRecord, error) {
	if f.Header.Format != FormatBigBed {
		return nil, errors.New("bigwig: not a BigBed file")
	}
	blocks, err := f.blocksFor(chrom, start, end, f.Header.FullIndexOffset)
	if err != nil {
		return nil, err
	}
	var out []BedRecord
	for _, blk := range blocks {
		raw := make([]byte, blk.DataSize)
		if _, err := f.f.ReadAt(raw, int64(blk.DataOffset)); err != nil {
			return nil, err
		}
		data, err := inflateBlock(f.Header, raw)
		if err != nil {
			return nil, err
		}
		recs, err := decodeBedBlock(f.order, data)
		if err != nil {
			return nil, err
		}
		out = append(out, filterBed(recs, chrom, f, start, end)...)
	}
	return out, nil
}

// QueryZoom returns every reduced-resolution summary interval for zoom
// level idx overlapping [start, end) on chrom.
func (f *File) QueryZoom(idx int, chrom string, start, end uint32) ([]ZoomRecord, error) {
	if idx < 0 || idx >= len(f.Header.Zoom) {
		return nil, errors.New("bigwig: zoom level out of range")
	}
	zh := f.Header.Zoom[idx]
	blocks, err := f.blocksFor(chrom, start, end, zh.IndexOffset)
	if err != nil {
		return nil, err
	}
	var out []ZoomRecord
	for _, blk := range blocks {
		raw := make([]byte, blk.DataSize)
		if _, err := f.f.ReadAt(raw, int64(blk.DataOffset)); err != nil {
			return nil, err
		}
		data, err := inflateBlock(f.Header, raw)
		if err != nil {
			return nil, err
		}
		recs, err := decodeZoomBlock(f.order, data)
		if err != nil {
			return nil, err
		}
		c, ok := f.Chrom(chrom)
		if !ok {
			return nil, errUnknownChrom
		}
		for _, r := range recs {
			if r.ChromIx == c.ID && r.Start < end && start < r.End {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (f *File) blocksFor(chrom string, start, end uint32, indexOffset uint64) ([]Block, error) {
	c, ok := f.Chrom(chrom)
	if !ok {
		return nil, errUnknownChrom
	}
	rt, err := readRTreeHeader(f.f, f.order, indexOffset)
	if err != nil {
		return nil, err
	}
	return queryRTree(f.f, f.order, rt.rootOffset, c.ID, start, end)
}

func filterWig(recs []WigRecord, chrom string, f *File, start, end uint32) []WigRecord {
	c, ok := f.Chrom(chrom)
	if !ok {
		return nil
	}
	var out []WigRecord
	for _, r := range recs {
		if r.ChromIx == c.ID && r.Start < end && start < r.End {
			out = append(out, r)
		}
	}
	return out
}

func filterBed(recs []BedRecord, chrom string, f *File, start, end uint32) []BedRecord {
	c, ok := f.Chrom(chrom)
	if !ok {
		return nil
	}
	var out []BedRecord
	for _, r := range recs {
		if r.ChromIx == c.ID && r.Start < end && start < r.End {
			out = append(out, r)
		}
	}
	return out
}
