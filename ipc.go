// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package oxbow

import (
	"bytes"
	"io"

	"github.com/apache/arrow/go/v17/arrow/ipc"
)

// ToIPC drains it, serializing every batch to the Arrow IPC stream
// format, and returns the result as a single in-memory blob. it is
// exhausted and its owning Scanner left in the Finished state by the
// time ToIPC returns, whether or not an error occurred.
func ToIPC(it *BatchIter) ([]byte, error) {
	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(it.s.schema))
	for {
		rec, err := it.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			w.Close()
			return nil, err
		}
		err = w.Write(rec)
		rec.Release()
		if err != nil {
			w.Close()
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
