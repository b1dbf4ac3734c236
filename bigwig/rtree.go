// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bigwig

import (
	"encoding/binary"
	"io"
)

// Block is one leaf entry of the R-tree index: the genomic range it
// covers and the byte range in the file holding its (possibly
// compressed) data.
type Block struct {
	StartChromIx, EndChromIx     uint32
	StartBase, EndBase           uint32
	DataOffset, DataSize         uint64
}

// overlaps reports whether the block's genomic range intersects
// [chromIx:start, chromIx:end), treating the chromosome index as the
// major ordering key exactly as the R-tree itself does.
func (b Block) overlaps(chromIx uint32, start, end uint32) bool {
	if chromIx < b.StartChromIx || chromIx > b.EndChromIx {
		return false
	}
	lo, hi := start, end
	if chromIx == b.StartChromIx && lo < b.StartBase {
		lo = b.StartBase
	}
	if chromIx == b.EndChromIx && hi > b.EndBase {
		hi = b.EndBase
	}
	return lo < hi || (b.StartChromIx != b.EndChromIx && chromIx > b.StartChromIx && chromIx < b.EndChromIx)
}

// rTreeHeader is the fixed 48 byte R-tree index header.
type rTreeHeader struct {
	blockSize   uint32
	itemCount   uint64
	rootOffset  uint64
}

func readRTreeHeader(r io.ReaderAt, order binary.ByteOrder, offset uint64) (*rTreeHeader, error) {
	buf := make([]byte, 48)
	if _, err := r.ReadAt(buf, int64(offset)); err != nil {
		return nil, err
	}
	if order.Uint32(buf[0:4]) != rTreeMagic {
		return nil, ErrBadRTreeMagic
	}
	h := &rTreeHeader{
		blockSize:  order.Uint32(buf[4:8]),
		itemCount:  order.Uint64(buf[8:16]),
		rootOffset: offset + 48,
	}
	// buf[16:48] carries the whole-tree bounding box (start/end chrom
	// and base) plus the on-disk block size and item-per-slot count,
	// none of which is needed beyond the root offset computed above.
	return h, nil
}

// queryRTree returns every leaf Block overlapping [chromIx:start,
// chromIx:end), recursing from the root node at rootOffset.
func queryRTree(r io.ReaderAt, order binary.ByteOrder, rootOffset uint64, chromIx uint32, start, end uint32) ([]Block, error) {
	var out []Block
	if err := queryRTreeNode(r, order, rootOffset, chromIx, start, end, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func queryRTreeNode(r io.ReaderAt, order binary.ByteOrder, offset uint64, chromIx uint32, start, end uint32, out *[]Block) error {
	hdr := make([]byte, 4)
	if _, err := r.ReadAt(hdr, int64(offset)); err != nil {
		return err
	}
	isLeaf := hdr[0] != 0
	count := order.Uint16(hdr[2:4])

	if isLeaf {
		const itemSize = 32
		items := make([]byte, int(count)*itemSize)
		if _, err := r.ReadAt(items, int64(offset)+4); err != nil {
			return err
		}
		for i := 0; i < int(count); i++ {
			b := items[i*itemSize:]
			blk := Block{
				StartChromIx: order.Uint32(b[0:4]),
				StartBase:    order.Uint32(b[4:8]),
				EndChromIx:   order.Uint32(b[8:12]),
				EndBase:      order.Uint32(b[12:16]),
				DataOffset:   order.Uint64(b[16:24]),
				DataSize:     order.Uint64(b[24:32]),
			}
			if blk.overlaps(chromIx, start, end) {
				*out = append(*out, blk)
			}
		}
		return nil
	}

	const itemSize = 24
	items := make([]byte, int(count)*itemSize)
	if _, err := r.ReadAt(items, int64(offset)+4); err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		b := items[i*itemSize:]
		nodeBlk := Block{
			StartChromIx: order.Uint32(b[0:4]),
			StartBase:    order.Uint32(b[4:8]),
			EndChromIx:   order.Uint32(b[8:12]),
			EndBase:      order.Uint32(b[12:16]),
		}
		childOffset := order.Uint64(b[16:24])
		if nodeBlk.overlaps(chromIx, start, end) {
			if err := queryRTreeNode(r, order, childOffset, chromIx, start, end, out); err != nil {
				return err
			}
		}
	}
	return nil
}
