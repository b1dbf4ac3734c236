// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vcf

import (
	"bufio"
	"errors"
	"io"
	"strings"

	"github.com/oxbow-project/oxbow/bgzf"
)

// Reader implements VCF format reading. The underlying stream may be
// plain text, read through a buffered forward-only reader, or BGZF
// compressed and tabix-indexed, read through NewBGZFReader to support
// chunk-bounded region queries.
type Reader struct {
	r *bufio.Reader // non-nil for the plain, unindexed path

	bg        *bgzf.Reader // non-nil for the BGZF-backed, chunkable path
	c         *bgzf.Chunk
	lastChunk bgzf.Chunk

	h *Header
}

// NewReader returns a new Reader reading from r, having consumed and
// parsed the VCF header. r is read forward-only; use NewBGZFReader for a
// stream that will be seeked via SetChunk.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(r, 64<<10)
	lines, err := readHeaderLines(br.ReadString)
	if err != nil {
		return nil, err
	}
	h, err := ParseHeader(lines)
	if err != nil {
		return nil, err
	}
	return &Reader{r: br, h: h}, nil
}

// NewBGZFReader returns a new Reader over a BGZF-compressed VCF stream,
// suitable for tabix-indexed chunk-bounded region queries via SetChunk.
// Lines are read one byte at a time rather than through a buffering
// layer, so that the reader's virtual position never advances past a
// chunk boundary before the boundary check can see it.
func NewBGZFReader(r io.Reader, rd int) (*Reader, error) {
	bg, err := bgzf.NewReader(r, rd)
	if err != nil {
		return nil, err
	}
	rdr := &Reader{bg: bg}
	lines, err := readHeaderLines(rdr.readLineUnbuffered)
	if err != nil {
		return nil, err
	}
	h, err := ParseHeader(lines)
	if err != nil {
		return nil, err
	}
	rdr.h = h
	return rdr, nil
}

// readHeaderLines drains meta and column-header lines (everything up to
// and including #CHROM) from next, a ReadString('\n')-shaped source.
func readHeaderLines(next func(delim byte) (string, error)) ([]string, error) {
	var lines []string
	for {
		line, err := next('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			lines = append(lines, line)
		}
		if strings.HasPrefix(line, "#CHROM") {
			break
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
	}
	return lines, nil
}

// Header returns the parsed VCF header.
func (r *Reader) Header() *Header { return r.h }

// SetChunk seeks to the start of c and limits subsequent Read calls to
// its span, after which Read returns io.EOF. A nil c removes the limit.
// Valid only on a Reader returned by NewBGZFReader.
func (r *Reader) SetChunk(c *bgzf.Chunk) error {
	if r.bg == nil {
		return errors.New("vcf: reader is not BGZF-backed")
	}
	if c != nil {
		if err := r.bg.Seek(c.Begin); err != nil {
			return err
		}
	}
	r.c = c
	return nil
}

// LastChunk returns the bgzf.Chunk spanning the most recently read
// Record. It is the zero Chunk on a non-BGZF-backed Reader.
func (r *Reader) LastChunk() bgzf.Chunk { return r.lastChunk }

func vOffset(o bgzf.Offset) int64 { return o.File<<16 | int64(o.Block) }

func (r *Reader) readLineUnbuffered(delim byte) (string, error) {
	tx := r.bg.Begin()
	var buf []byte
	for {
		b, err := r.bg.ReadByte()
		if err != nil {
			r.lastChunk = tx.End()
			return string(buf), err
		}
		buf = append(buf, b)
		if b == delim {
			r.lastChunk = tx.End()
			return string(buf), nil
		}
	}
}

// Read returns the next Record in the stream, or io.EOF when exhausted.
func (r *Reader) Read() (*Record, error) {
	for {
		if r.bg != nil && r.c != nil && vOffset(r.bg.LastChunk().End) >= vOffset(r.c.End) {
			return nil, io.EOF
		}
		var line string
		var err error
		if r.bg != nil {
			line, err = r.readLineUnbuffered('\n')
		} else {
			line, err = r.r.ReadString('\n')
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if err != nil {
				return nil, err
			}
			continue
		}
		rec, perr := ParseRecord(r.h, line)
		if perr != nil {
			return nil, perr
		}
		return rec, nil
	}
}

// Iterator wraps a BGZF-backed Reader to step through records confined
// to a set of tabix-derived chunks, moving to the next chunk as each is
// exhausted.
type Iterator struct {
	r      *Reader
	chunks []bgzf.Chunk

	rec *Record
	err error
}

// NewIterator returns an Iterator reading from r, restricted to the
// given chunks in order. r must have been returned by NewBGZFReader.
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
