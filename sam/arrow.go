// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sam

import "github.com/oxbow-project/oxbow/arrowschema"

// ArrowKind reports the arrowschema.Kind a's value should be widened to
// when it becomes a child of a dynamically discovered "tags" struct
// column. 'B' array tags are not modeled as Arrow lists; their printed
// form is carried as a string (see ArrowValue).
func (a Aux) ArrowKind() arrowschema.Kind {
	switch a.Kind() {
	case 'i':
		return arrowschema.KindInt64
	case 'f':
		return arrowschema.KindFloat64
	case 'H':
		return arrowschema.KindBytes
	default: // 'A', 'Z', 'B'
		return arrowschema.KindString
	}
}

// ArrowValue extracts a's value coerced to kind, widening narrower
// integer widths up to int64 and falling back to a's printed form for
// any type that doesn't fit kind cleanly.
func (a Aux) ArrowValue(kind arrowschema.Kind) any {
	switch kind {
	case arrowschema.KindInt64:
		switch v := a.Value().(type) {
		case int8:
			return int64(v)
		case uint8:
			return int64(v)
		case int16:
			return int64(v)
		case uint16:
			return int64(v)
		case int32:
			return int64(v)
		case uint32:
			return int64(v)
		default:
			return nil
		}
	case arrowschema.KindFloat64:
		if v, ok := a.Value().(float32); ok {
			return float64(v)
		}
		return nil
	case arrowschema.KindBytes:
		if v, ok := a.Value().([]byte); ok {
			return v
		}
		return nil
	default:
		switch v := a.Value().(type) {
		case string:
			return v
		case byte:
			return string(rune(v))
		default:
			return a.String()
		}
	}
}
