// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bgzf implements BGZF (blocked GZIP format) reading as described
// in the SAM specification, providing random access to a genomic file by
// way of coordinate-to-virtual-offset indexes held by sibling packages.
package bgzf

import (
	"bytes"
	"errors"
	"io"

	"github.com/klauspost/compress/gzip"
)

const (
	// BlockSize is the maximum amount of uncompressed payload
	// that is packed into a single BGZF block before it is flushed.
	BlockSize = 0x0ff00

	// MaxBlockSize is the maximum size of a compressed BGZF block,
	// including the block header and footer.
	MaxBlockSize = 0x10000
)

var (
	ErrNoBlockSize       = errors.New("bgzf: missing BGZF extra field")
	ErrBlockSizeMismatch = errors.New("bgzf: block size mismatch")
	ErrBlockOverflow     = errors.New("bgzf: block overflow")
	ErrNotASeeker        = errors.New("bgzf: not a seeker")
	ErrClosed            = errors.New("bgzf: write to closed writer")
	ErrNoEnd             = errors.New("bgzf: cannot determine end of stream")
)

// bgzfExtraPrefix is the fixed portion of the BGZF "BC" extra subfield:
// subfield identifiers SI1, SI2 and the subfield length SLEN, which is
// always 2 for the little-endian BSIZE value that follows.
var bgzfExtraPrefix = []byte("BC\x02\x00")

// MagicBlock is the empty BGZF block that terminates a well formed BGZF
// stream.
var MagicBlock = [28]byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff,
	0x06, 0x00, 0x42, 0x43, 0x02, 0x00, 0x1b, 0x00, 0x03, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// Offset is a BGZF virtual file offset, combining the real offset of a
// compressed block in the underlying file with the offset of a byte
// within that block's decompressed data.
type Offset struct {
	File  int64
	Block uint16
}

// Chunk is a region of a BGZF file, described by the virtual file
// offsets at its start and one byte past its end.
type Chunk struct {
	Begin Offset
	End   Offset
}

// Header is the gzip header of a single BGZF block member.
type Header gzip.Header

// BlockSize returns the total size in bytes of the BGZF block the header
// describes, or -1 if the header does not carry a BGZF "BC" extra
// subfield.
func (h Header) BlockSize() int {
	bsize, ok := bsizeFromExtra(h.Extra)
	if !ok {
		return -1
	}
	return bsize + 1
}

// ExpectedMemberSize returns the number of bytes occupied by the gzip
// member described by h, or -1 if h does not describe a BGZF block.
func ExpectedMemberSize(h Header) int {
	return h.BlockSize()
}

func expectedBlockSize(h gzip.Header) int {
	bsize, ok := bsizeFromExtra(h.Extra)
	if !ok {
		return -1
	}
	return bsize + 1
}

// bsizeFromExtra scans a gzip extra field for the BGZF "BC" subfield and
// returns the BSIZE value it carries.
func bsizeFromExtra(extra []byte) (int, bool) {
	for i := 0; i+4 <= len(extra); {
		si1, si2 := extra[i], extra[i+1]
		slen := int(extra[i+2]) | int(extra[i+3])<<8
		if si1 == 'B' && si2 == 'C' && slen == 2 {
			if i+6 > len(extra) {
				return 0, false
			}
			return int(extra[i+4]) | int(extra[i+5])<<8, true
		}
		i += 4 + slen
	}
	return 0, false
}

// HasEOF returns whether the BGZF stream represented by r is terminated
// by the BGZF magic EOF block. Streams that cannot be seeked to their end
// return ErrNoEnd.
func HasEOF(r io.Reader) (bool, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		return false, ErrNoEnd
	}
	cur, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return false, err
	}
	defer rs.Seek(cur, io.SeekStart)

	_, err = rs.Seek(-int64(len(MagicBlock)), io.SeekEnd)
	if err != nil {
		return false, err
	}
	var tail [len(MagicBlock)]byte
	_, err = io.ReadFull(rs, tail[:])
	if err != nil {
		return false, err
	}
	return bytes.Equal(tail[:], MagicBlock[:]), nil
}
