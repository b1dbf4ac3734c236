// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bed

import (
	"bufio"
	"io"
	"strings"
)

// Reader implements BED format reading.
type Reader struct {
	br *bufio.Reader
	nf NumFields
}

// NewReader returns a new Reader reading from r, decoding each line
// according to the declared column layout.
func NewReader(r io.Reader, nf NumFields) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 64<<10), nf: nf}
}

// Read returns the next Record in the stream, or io.EOF when exhausted.
func (r *Reader) Read() (*Record, error) {
	for {
		line, err := r.br.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		skip := line == "" || strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser")
		if !skip {
			return ParseRecord(r.nf, line)
		}
		if err != nil {
			return nil, err
		}
	}
}

// ReadAll reads every Record in the stream.
func ReadAll(r io.Reader, nf NumFields) ([]*Record, error) {
	rd := NewReader(r, nf)
	var recs []*Record
	for {
		rec, err := rd.Read()
		if err != nil {
			if err == io.EOF {
				return recs, nil
			}
			return nil, err
		}
		recs = append(recs, rec)
	}
}
