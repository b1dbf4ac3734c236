// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bigwig

import (
	"encoding/binary"
	"io"
)

// ChromInfo is one entry of the chromosome B+ tree: a name, its assigned
// integer id, and its length in bases.
type ChromInfo struct {
	Name string
	ID   uint32
	Size uint32
}

// readChromTree decodes the entire chromosome B+ tree rooted at offset,
// returning every leaf entry. BBI files are small enough in chromosome
// count that materializing the whole tree is simpler than navigating it
// node by node for a single lookup.
func readChromTree(r io.ReaderAt, order binary.ByteOrder, offset uint64) ([]ChromInfo, error) {
	hdr := make([]byte, 32)
	if _, err := r.ReadAt(hdr, int64(offset)); err != nil {
		return nil, err
	}
	if order.Uint32(hdr[0:4]) != chromMagic {
		return nil, ErrBadChromMagic
	}
	blockSize := order.Uint32(hdr[4:8])
	keySize := order.Uint32(hdr[8:12])
	valSize := order.Uint32(hdr[12:16]) // always 8: (id uint32, size uint32)
	_ = blockSize
	rootOffset := offset + 32

	var out []ChromInfo
	if err := readChromNode(r, order, rootOffset, keySize, valSize, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func readChromNode(r io.ReaderAt, order binary.ByteOrder, offset uint64, keySize, valSize uint32, out *[]ChromInfo) error {
	nodeHdr := make([]byte, 4)
	if _, err := r.ReadAt(nodeHdr, int64(offset)); err != nil {
		return err
	}
	isLeaf := nodeHdr[0] != 0
	count := order.Uint16(nodeHdr[2:4])

	itemSize := int(keySize) + 4 + 4
	if !isLeaf {
		itemSize = int(keySize) + 8
	}
	items := make([]byte, int(count)*itemSize)
	if _, err := r.ReadAt(items, int64(offset)+4); err != nil {
		return err
	}

	for i := 0; i < int(count); i++ {
		item := items[i*itemSize:]
		key := item[:keySize]
		if isLeaf {
			id := order.Uint32(item[keySize : keySize+4])
			size := order.Uint32(item[keySize+4 : keySize+8])
			*out = append(*out, ChromInfo{Name: trimNul(key), ID: id, Size: size})
		} else {
			childOffset := order.Uint64(item[keySize : keySize+8])
			if err := readChromNode(r, order, childOffset, keySize, valSize, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func trimNul(b []byte) string {
	n := len(b)
	for n > 0 && b[n-1] == 0 {
		n--
	}
	return string(b[:n])
}
