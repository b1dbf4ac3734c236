// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bgzf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// Writer implements BGZF block-level compression, packing successive
// Write calls into BlockSize-bounded blocks and compressing them with a
// pool of wc worker goroutines, while writing completed blocks to the
// underlying io.Writer strictly in submission order.
type Writer struct {
	Header

	w     io.Writer
	level int
	conc  int

	buf []byte

	wpipe *wpipeline

	closed bool
	err    error
}

// NewWriter returns a new Writer writing to w, compressing blocks with
// wc concurrent workers at the default compression level. If wc is zero,
// concurrency is set to runtime.GOMAXPROCS(0).
func NewWriter(w io.Writer, wc int) *Writer {
	bg, _ := NewWriterLevel(w, gzip.DefaultCompression, wc)
	return bg
}

// NewWriterLevel is as NewWriter, but specifies the compression level
// instead of assuming gzip.DefaultCompression.
func NewWriterLevel(w io.Writer, level, wc int) (*Writer, error) {
	if level != gzip.DefaultCompression && (level < gzip.HuffmanOnly || level > gzip.BestCompression) {
		return nil, fmt.Errorf("bgzf: invalid compression level: %d", level)
	}
	if wc <= 0 {
		wc = runtime.GOMAXPROCS(0)
	}
	bg := &Writer{w: w, level: level, conc: wc}
	bg.startPipeline()
	return bg, nil
}

// Write implements the io.Writer interface. Data is staged into
// BlockSize-sized blocks, each of which is flushed as it fills.
func (bg *Writer) Write(p []byte) (int, error) {
	if bg.closed {
		return 0, ErrClosed
	}
	if bg.err != nil {
		return 0, bg.err
	}
	var n int
	for len(p) > 0 {
		free := BlockSize - len(bg.buf)
		if free > len(p) {
			free = len(p)
		}
		bg.buf = append(bg.buf, p[:free]...)
		p = p[free:]
		n += free
		if len(bg.buf) >= BlockSize {
			if err := bg.flushBuffer(); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

// Flush submits any staged data as a BGZF block. It does not wait for
// the block to be written; call Wait to do so.
func (bg *Writer) Flush() error {
	if bg.closed {
		return ErrClosed
	}
	if bg.err != nil {
		return bg.err
	}
	return bg.flushBuffer()
}

func (bg *Writer) flushBuffer() error {
	if len(bg.buf) == 0 {
		return nil
	}
	data := bg.buf
	bg.buf = nil
	return bg.submit(data)
}

// submit hands a single block's worth of uncompressed payload to the
// compression pipeline.
func (bg *Writer) submit(data []byte) error {
	p := &pending{resultCh: make(chan wresult, 1)}
	select {
	case bg.wpipe.order <- p:
	case <-bg.wpipe.stop:
		return ErrClosed
	}
	hdr := gzip.Header(bg.Header)
	select {
	case bg.wpipe.jobs <- wjob{data: data, hdr: hdr, level: bg.level, resultCh: p.resultCh}:
	case <-bg.wpipe.stop:
		return ErrClosed
	}
	return nil
}

// Wait blocks until all blocks submitted so far have been written to the
// underlying writer, returning the first write or compression error
// encountered, if any.
func (bg *Writer) Wait() error {
	p := &pending{resultCh: make(chan wresult, 1), ack: make(chan struct{})}
	select {
	case bg.wpipe.order <- p:
	case <-bg.wpipe.stop:
		return bg.err
	}
	select {
	case bg.wpipe.jobs <- wjob{barrier: true, resultCh: p.resultCh}:
	case <-bg.wpipe.stop:
		return bg.err
	}
	<-p.ack
	bg.wpipe.mu.Lock()
	err := bg.wpipe.err
	bg.wpipe.mu.Unlock()
	if err != nil {
		bg.err = err
	}
	return bg.err
}

// Close flushes any staged data, waits for all outstanding compression
// and writes to complete, appends the BGZF magic EOF block, and closes
// the underlying writer if it implements io.Closer. Close is safe to
// call more than once.
func (bg *Writer) Close() error {
	if bg.closed {
		return nil
	}
	bg.closed = true
	if err := bg.flushBuffer(); err != nil {
		bg.stopPipeline()
		return err
	}
	err := bg.Wait()
	bg.stopPipeline()
	if err != nil {
		return err
	}
	if _, err := bg.w.Write(MagicBlock[:]); err != nil {
		return err
	}
	if c, ok := bg.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type wjob struct {
	data     []byte
	hdr      gzip.Header
	level    int
	barrier  bool
	resultCh chan wresult
}

type wresult struct {
	raw []byte
	err error
}

// pending tracks one entry in flight through the pipeline: resultCh
// receives the compressed block (or nothing, for a barrier) from a
// compressWorker, and ack, if non-nil, is closed by writeLoop once the
// entry has been fully processed in submission order. Only Wait sets
// ack; ordinary data blocks leave it nil.
type pending struct {
	resultCh chan wresult
	ack      chan struct{}
}

// wpipeline is a bounded, order preserving compression pipeline: a pool
// of worker goroutines compress blocks concurrently while a single
// write loop goroutine drains completed blocks from order and writes
// them to the underlying writer strictly in submission order.
type wpipeline struct {
	jobs  chan wjob
	order chan *pending
	stop  chan struct{}
	done  chan struct{}

	mu  sync.Mutex
	err error
}

func (bg *Writer) startPipeline() {
	p := &wpipeline{
		jobs:  make(chan wjob, bg.conc),
		order: make(chan *pending, bg.conc),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	for i := 0; i < bg.conc; i++ {
		go compressWorker(p.jobs)
	}
	go writeLoop(bg.w, p)
	bg.wpipe = p
}

func (bg *Writer) stopPipeline() {
	if bg.wpipe == nil {
		return
	}
	close(bg.wpipe.stop)
	<-bg.wpipe.done
	bg.wpipe = nil
}

func compressWorker(jobs chan wjob) {
	for j := range jobs {
		if j.barrier {
			j.resultCh <- wresult{}
			continue
		}
		raw, err := compressMember(j.data, j.hdr, j.level)
		j.resultCh <- wresult{raw: raw, err: err}
	}
}

func writeLoop(w io.Writer, p *wpipeline) {
	defer close(p.done)
	defer close(p.jobs)
	defer close(p.order)
	for {
		select {
		case pend, ok := <-p.order:
			if !ok {
				return
			}
			res := <-pend.resultCh
			switch {
			case res.err != nil:
				p.mu.Lock()
				if p.err == nil {
					p.err = res.err
				}
				p.mu.Unlock()
			case len(res.raw) != 0:
				if _, err := w.Write(res.raw); err != nil {
					p.mu.Lock()
					if p.err == nil {
						p.err = err
					}
					p.mu.Unlock()
				}
			}
			if pend.ack != nil {
				close(pend.ack)
			}
		case <-p.stop:
			return
		}
	}
}

// compressMember compresses a single block's payload into a complete
// BGZF member, patching the "BC" extra subfield's BSIZE value once the
// final compressed length is known.
func compressMember(data []byte, hdr gzip.Header, level int) ([]byte, error) {
	orig := hdr.Extra
	hdr.Extra = make([]byte, 0, len(bgzfExtraPrefix)+2+len(orig))
	hdr.Extra = append(hdr.Extra, bgzfExtraPrefix...)
	hdr.Extra = append(hdr.Extra, 0, 0) // placeholder BSIZE
	hdr.Extra = append(hdr.Extra, orig...)

	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("bgzf: %w", err)
	}
	gz.Header = hdr
	if _, err := gz.Write(data); err != nil {
		return nil, fmt.Errorf("bgzf: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("bgzf: %w", err)
	}

	raw := buf.Bytes()
	if len(raw) > MaxBlockSize {
		return nil, ErrBlockOverflow
	}
	// The fixed 10 byte gzip header is followed by a 2 byte XLEN, then
	// the extra field itself, which we constructed to start with
	// bgzfExtraPrefix immediately followed by the 2 byte BSIZE.
	const bsizeOff = gzipHdrBytes + 2 + 4
	if len(raw) < bsizeOff+2 || !bytes.Equal(raw[gzipHdrBytes+2:gzipHdrBytes+2+4], bgzfExtraPrefix) {
		return nil, ErrNoBlockSize
	}
	binary.LittleEndian.PutUint16(raw[bsizeOff:bsizeOff+2], uint16(len(raw)-1))

	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}
