// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bcf

import (
	"encoding/binary"
	"io"
	"strings"

	"github.com/oxbow-project/oxbow/bgzf"
	"github.com/oxbow-project/oxbow/vcf"
)

// Reader implements BCF2 format reading over a BGZF-compressed stream.
type Reader struct {
	bg *bgzf.Reader
	h  *Header

	c         *bgzf.Chunk
	lastChunk bgzf.Chunk
}

// NewReader returns a new Reader reading from r, which must be a BGZF
// stream framing BCF2 data, having parsed the text header that prefixes
// the stream.
func NewReader(r io.Reader, rd int) (*Reader, error) {
	bg, err := bgzf.NewReader(r, rd)
	if err != nil {
		return nil, err
	}
	var magicBuf [5]byte
	if _, err := io.ReadFull(bg, magicBuf[:]); err != nil {
		return nil, err
	}
	if magicBuf[0] != magic[0] || magicBuf[1] != magic[1] || magicBuf[2] != magic[2] {
		return nil, ErrBadMagic
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(bg, lenBuf[:]); err != nil {
		return nil, err
	}
	textLen := binary.LittleEndian.Uint32(lenBuf[:])
	text := make([]byte, textLen)
	if _, err := io.ReadFull(bg, text); err != nil {
		return nil, err
	}

	vh, err := vcf.ParseHeader(strings.Split(strings.TrimRight(string(text), "\x00"), "\n"))
	if err != nil {
		return nil, err
	}

	h := &Header{Text: vh}
	for _, c := range vh.Contigs {
		h.Contigs = append(h.Contigs, c.ID)
	}
	// The BCF dictionary assigns IDs across FILTER, INFO and FORMAT
	// declarations combined, in the order their IDX is assigned by
	// bcftools; declaration order is used here as the practical
	// approximation when an explicit IDX= is absent.
	for id := range vh.Filter {
		h.Dictionary = append(h.Dictionary, id)
	}
	h.Dictionary = append(h.Dictionary, vh.InfoOrder()...)
	h.Dictionary = append(h.Dictionary, vh.FormatOrder()...)

	return &Reader{bg: bg, h: h}, nil
}

// Header returns the parsed BCF header.
func (r *Reader) Header() *Header { return r.h }

// SetChunk seeks to the start of c and limits subsequent Read calls to
// its span, after which Read returns io.EOF. A nil c removes the limit.
// Used to drive CSI-indexed region queries, one chunk at a time.
func (r *Reader) SetChunk(c *bgzf.Chunk) error {
	if c != nil {
		if err := r.bg.Seek(c.Begin); err != nil {
			return err
		}
	}
	r.c = c
	return nil
}

// LastChunk returns the bgzf.Chunk spanning the most recently read
// Record.
func (r *Reader) LastChunk() bgzf.Chunk { return r.lastChunk }

func vOffset(o bgzf.Offset) int64 { return o.File<<16 | int64(o.Block) }

// Read returns the next Record in the stream, or io.EOF when exhausted.
func (r *Reader) Read() (*Record, error) {
	if r.c != nil && vOffset(r.bg.LastChunk().End) >= vOffset(r.c.End) {
		return nil, io.EOF
	}

	tx := r.bg.Begin()
	defer func() { r.lastChunk = tx.End() }()

	var lenBuf [8]byte
	if _, err := io.ReadFull(r.bg, lenBuf[:]); err != nil {
		return nil, err
	}
	lShared := binary.LittleEndian.Uint32(lenBuf[0:4])
	lIndiv := binary.LittleEndian.Uint32(lenBuf[4:8])

	shared := make([]byte, lShared)
	if _, err := io.ReadFull(r.bg, shared); err != nil {
		return nil, err
	}
	rec, nFmt, err := decodeShared(shared, r.h)
	if err != nil {
		return nil, err
	}

	indiv := make([]byte, lIndiv)
	if _, err := io.ReadFull(r.bg, indiv); err != nil {
		return nil, err
	}
	if err := decodeIndiv(indiv, rec, nFmt); err != nil {
		return nil, err
	}

	return rec, nil
}

// Iterator wraps a Reader to step through records confined to a set of
// CSI-derived chunks, moving to the next chunk as each is exhausted.
type Iterator struct {
	r      *Reader
	chunks []bgzf.Chunk

	rec *Record
	err error
}

// NewIterator returns an Iterator reading from r, restricted to the
// given chunks in order.
func NewIterator(r *Reader, chunks []bgzf.Chunk) (*Iterator, error) {
	if len(chunks) == 0 {
		return &Iterator{r: r, err: io.EOF}, nil
	}
	if err := r.SetChunk(&chunks[0]); err != nil {
		return nil, err
	}
	return &Iterator{r: r, chunks: chunks[1:]}, nil
}

// Next advances the Iterator, reporting whether a Record is available
// through Record.
func (i *Iterator) Next() bool {
	if i.err != nil {
		return false
	}
	i.rec, i.err = i.r.Read()
	if len(i.chunks) != 0 && i.err == io.EOF {
		i.err = i.r.SetChunk(&i.chunks[0])
		i.chunks = i.chunks[1:]
		return i.Next()
	}
	return i.err == nil
}

// Error returns the first non-EOF error encountered during iteration.
func (i *Iterator) Error() error {
	if i.err == io.EOF {
		return nil
	}
	return i.err
}

// Record returns the record most recently read by Next.
func (i *Iterator) Record() *Record { return i.rec }

// Close releases the chunk restriction on the underlying Reader.
func (i *Iterator) Close() error {
	i.r.SetChunk(nil)
	return i.Error()
}
