// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgzf

import (
	"bytes"
	"fmt"
	"io"
	"runtime"

	"github.com/klauspost/compress/gzip"
)

const (
	gzipID1      = 0x1f
	gzipID2      = 0x8b
	gzipDeflate  = 8
	gzipFExtra   = 1 << 2
	gzipHdrBytes = 10
)

// Reader implements BGZF block-level decompression, transparently
// stitching the decompressed payload of a BGZF stream's successive
// blocks together into a single byte stream.
//
// Blocks are decompressed by a pool of rd worker goroutines so that
// decompression is not serialised behind I/O, while being delivered to
// callers of Read in the order they occur in the underlying stream.
type Reader struct {
	Header

	r    io.Reader
	conc int

	pipe *pipeline

	blk *block
	err error

	// Blocked causes Read to return io.EOF at the end of each BGZF
	// block instead of transparently continuing into the next block.
	Blocked bool

	cache Cache

	one [1]byte
}

// NewReader returns a new Reader reading from r, decompressing blocks
// with rd concurrent workers. If rd is zero, concurrency is set to
// runtime.GOMAXPROCS(0).
func NewReader(r io.Reader, rd int) (*Reader, error) {
	if rd <= 0 {
		rd = runtime.GOMAXPROCS(0)
	}
	bg := &Reader{r: r, conc: rd}
	bg.startPipeline(0)
	blk, err := bg.nextBlock()
	if err != nil {
		return nil, err
	}
	bg.blk = blk
	bg.Header = Header(blk.h)
	return bg, nil
}

// SetCache sets the cache to be used by the Reader. Blocks evicted from
// the current block position are offered to the cache instead of being
// discarded.
func (bg *Reader) SetCache(c Cache) {
	bg.cache = c
	if w, ok := c.(Wrapper); ok && bg.blk != nil {
		bg.blk = w.Wrap(bg.blk).(*block)
	}
}

// Read implements the io.Reader interface. If Blocked is true, Read
// returns io.EOF as soon as the current BGZF block is exhausted, even
// though further blocks remain in the stream; otherwise block
// boundaries are transparent and Read only returns io.EOF at the true
// end of the stream.
func (bg *Reader) Read(p []byte) (int, error) {
	if bg.err != nil {
		return 0, bg.err
	}
	if bg.blk != nil {
		bg.blk.beginTx()
	}
	var n int
	for n < len(p) {
		if bg.blk == nil || bg.blk.len() == 0 {
			next, err := bg.nextBlock()
			if err != nil {
				bg.err = err
				return n, err
			}
			bg.swap(next)
			continue
		}
		c, _ := bg.blk.Read(p[n:])
		n += c
		if bg.Blocked && bg.blk.len() == 0 {
			return n, io.EOF
		}
	}
	return n, nil
}

// ReadByte implements the io.ByteReader interface.
func (bg *Reader) ReadByte() (byte, error) {
	_, err := bg.Read(bg.one[:])
	return bg.one[0], err
}

// swap retires the current block to the cache, if any, and installs next
// as the current block. Only the Extra field of Header, which carries
// the per-block BGZF "BC" subfield, is refreshed; the remaining header
// fields continue to reflect the block most recently installed by
// NewReader or Seek.
func (bg *Reader) swap(next *block) {
	if bg.blk != nil && bg.cache != nil {
		bg.cache.Put(bg.blk)
	}
	bg.blk = next
	bg.Header.Extra = next.h.Extra
}

// Seek moves the read position to the given virtual file offset. The
// underlying reader must implement io.Seeker.
//
// If off addresses a byte within the block currently held by the
// Reader, Seek repositions within that block without touching the
// underlying reader, the cache or the decompression pipeline.
func (bg *Reader) Seek(off Offset) error {
	if bg.blk != nil && bg.blk.hasData() && bg.blk.Base() == off.File {
		if err := bg.blk.seek(int64(off.Block)); err != nil {
			bg.err = err
			return err
		}
		bg.err = nil
		return nil
	}

	rs, ok := bg.r.(io.Seeker)
	if !ok {
		return ErrNotASeeker
	}
	if bg.cache != nil && bg.blk != nil {
		bg.cache.Put(bg.blk)
	}
	bg.stopPipeline()
	if cached := bg.cacheGet(off.File); cached != nil {
		bg.blk = cached
		bg.Header = Header(cached.h)
	} else {
		_, err := rs.Seek(off.File, io.SeekStart)
		if err != nil {
			bg.err = err
			return err
		}
		bg.startPipeline(off.File)
		blk, err := bg.nextBlock()
		if err != nil {
			bg.err = err
			return err
		}
		bg.blk = blk
		bg.Header = Header(blk.h)
	}
	if off.Block > 0 {
		_, err := io.CopyN(io.Discard, bg.blk, int64(off.Block))
		if err != nil {
			bg.err = err
			return err
		}
	}
	bg.err = nil
	return nil
}

func (bg *Reader) cacheGet(base int64) *block {
	if bg.cache == nil {
		return nil
	}
	blk := bg.cache.Get(base)
	if blk == nil {
		return nil
	}
	return blk.(*block)
}

// LastChunk returns the bgzf.Chunk corresponding to the span of the
// underlying file read by the most recent Read call.
func (bg *Reader) LastChunk() Chunk {
	if bg.blk == nil {
		return Chunk{}
	}
	return bg.blk.endTx()
}

// BlockLen returns the number of bytes remaining to be read in the
// current BGZF block.
func (bg *Reader) BlockLen() int {
	if bg.blk == nil {
		return 0
	}
	return bg.blk.len()
}

// Tx represents an in-progress read transaction started by Begin.
type Tx struct {
	r     *Reader
	begin Offset
}

// Begin marks the start of a read transaction and returns a Tx whose End
// method reports the bgzf.Chunk spanned by reads made since Begin was
// called.
func (bg *Reader) Begin() Tx {
	if bg.blk == nil {
		return Tx{}
	}
	return Tx{r: bg, begin: bg.blk.endTx().End}
}

// End returns the bgzf.Chunk spanned by reads since the corresponding
// call to Begin.
func (t Tx) End() Chunk {
	if t.r == nil || t.r.blk == nil {
		return Chunk{}
	}
	return Chunk{Begin: t.begin, End: t.r.blk.endTx().End}
}

// Close closes the Reader, releasing held resources.
func (bg *Reader) Close() error {
	bg.stopPipeline()
	if c, ok := bg.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// nextBlock returns the next decompressed block in stream order,
// keeping up to bg.conc members in flight for concurrent decompression.
// Raw bytes are always read from the underlying reader synchronously,
// in the calling goroutine, so that nothing touches bg.r between calls
// to nextBlock: callers are free to inspect or seek the underlying
// reader (for example via HasEOF) in between Read calls.
func (bg *Reader) nextBlock() (*block, error) {
	p := bg.pipe
	for len(p.pending) < bg.conc && !p.eof {
		raw, n, err := readMember(bg.r)
		if err != nil {
			p.eof = true
			break
		}
		resultCh := make(chan blockResult, 1)
		p.jobs <- job{raw: raw, base: p.base, resultCh: resultCh}
		p.base += int64(n)
		p.pending = append(p.pending, resultCh)
	}
	if len(p.pending) == 0 {
		return nil, io.EOF
	}
	resultCh := p.pending[0]
	p.pending = p.pending[1:]
	res := <-resultCh
	if res.err != nil {
		return nil, res.err
	}
	return res.blk, nil
}

type job struct {
	raw      []byte
	base     int64
	resultCh chan blockResult
}

type blockResult struct {
	blk *block
	err error
}

// pipeline keeps a bounded, order preserving queue of in-flight
// decompression jobs: pending holds one result channel per raw member
// already read from the stream and handed to a worker, in stream
// order, and is refilled by nextBlock up to a depth of bg.conc.
type pipeline struct {
	jobs    chan job
	pending []chan blockResult
	base    int64
	eof     bool
}

func (bg *Reader) startPipeline(base int64) {
	p := &pipeline{
		jobs: make(chan job, bg.conc),
		base: base,
	}
	for i := 0; i < bg.conc; i++ {
		go compressionWorker(p.jobs)
	}
	bg.pipe = p
}

func (bg *Reader) stopPipeline() {
	if bg.pipe == nil {
		return
	}
	close(bg.pipe.jobs)
	bg.pipe = nil
}

func compressionWorker(jobs chan job) {
	for j := range jobs {
		blk, err := decodeMember(j.raw, j.base)
		j.resultCh <- blockResult{blk: blk, err: err}
	}
}

// readMember reads one complete raw (still compressed) BGZF member from
// r, returning its bytes and length.
func readMember(r io.Reader) (raw []byte, n int, err error) {
	var hdr [gzipHdrBytes]byte
	_, err = io.ReadFull(r, hdr[:])
	if err != nil {
		return nil, 0, err
	}
	if hdr[0] != gzipID1 || hdr[1] != gzipID2 || hdr[2] != gzipDeflate {
		return nil, 0, ErrNoBlockSize
	}
	if hdr[3]&gzipFExtra == 0 {
		return nil, 0, ErrNoBlockSize
	}
	var xlenBuf [2]byte
	_, err = io.ReadFull(r, xlenBuf[:])
	if err != nil {
		return nil, 0, err
	}
	xlen := int(xlenBuf[0]) | int(xlenBuf[1])<<8
	extra := make([]byte, xlen)
	_, err = io.ReadFull(r, extra)
	if err != nil {
		return nil, 0, err
	}
	bsize, ok := bsizeFromExtra(extra)
	if !ok {
		return nil, 0, ErrNoBlockSize
	}
	total := bsize + 1
	remaining := total - gzipHdrBytes - 2 - xlen
	if remaining < 0 {
		return nil, 0, ErrBlockSizeMismatch
	}
	raw = make([]byte, total)
	copy(raw, hdr[:])
	copy(raw[gzipHdrBytes:], xlenBuf[:])
	copy(raw[gzipHdrBytes+2:], extra)
	_, err = io.ReadFull(r, raw[gzipHdrBytes+2+xlen:])
	if err != nil {
		return nil, 0, err
	}
	return raw, total, nil
}

// decodeMember decompresses a single raw BGZF member and wraps the
// result in a block based at the given file offset.
func decodeMember(raw []byte, base int64) (*block, error) {
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("bgzf: %w", err)
	}
	var data bytes.Buffer
	_, err = io.Copy(&data, gz)
	if err != nil {
		return nil, fmt.Errorf("bgzf: %w", err)
	}
	err = gz.Close()
	if err != nil {
		return nil, fmt.Errorf("bgzf: %w", err)
	}
	blk := &block{}
	blk.setBase(base)
	blk.setHeader(gz.Header)
	_, err = blk.readFrom(bytes.NewReader(data.Bytes()))
	if err != nil {
		return nil, err
	}
	return blk, nil
}
