// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bcf

// decodeTyped reads one BCF typed vector from b, returning the decoded
// Value and the number of bytes consumed.
//
// The descriptor is one byte: the low 4 bits give the element kind, the
// high 4 bits give the element count, 0-14 directly or 15 meaning the
// count itself follows as a typed integer.
func decodeTyped(b []byte) (Value, int, error) {
	if len(b) == 0 {
		return Value{}, 0, ErrTruncated
	}
	descr := b[0]
	kind := typedKind(descr & 0x0f)
	n := int(descr >> 4)
	off := 1
	if n == 15 {
		cnt, cn, err := decodeTyped(b[off:])
		if err != nil {
			return Value{}, 0, err
		}
		if len(cnt.Ints) == 0 {
			return Value{}, 0, errBadTypeDescr
		}
		n = int(cnt.Ints[0])
		off += cn
	}
	if kind == kindMissing || n == 0 {
		return Value{Kind: kindMissing}, off, nil
	}

	switch kind {
	case kindInt8:
		if off+n > len(b) {
			return Value{}, 0, ErrTruncated
		}
		v := Value{Kind: kind}
		for i := 0; i < n; i++ {
			x := int8(b[off+i])
			if int(x) == int8Missing || int(x) == int8EndVector {
				continue
			}
			v.Ints = append(v.Ints, int32(x))
		}
		return v, off + n, nil
	case kindInt16:
		if off+2*n > len(b) {
			return Value{}, 0, ErrTruncated
		}
		v := Value{Kind: kind}
		for i := 0; i < n; i++ {
			x := int16(b[off+2*i]) | int16(b[off+2*i+1])<<8
			if int(x) == int16Missing || int(x) == int16EndVec {
				continue
			}
			v.Ints = append(v.Ints, int32(x))
		}
		return v, off + 2*n, nil
	case kindInt32:
		if off+4*n > len(b) {
			return Value{}, 0, ErrTruncated
		}
		v := Value{Kind: kind}
		for i := 0; i < n; i++ {
			x := readInt32(b[off+4*i:])
			if int64(x) == int32Missing || int64(x) == int32EndVec {
				continue
			}
			v.Ints = append(v.Ints, x)
		}
		return v, off + 4*n, nil
	case kindFloat:
		if off+4*n > len(b) {
			return Value{}, 0, ErrTruncated
		}
		v := Value{Kind: kind}
		for i := 0; i < n; i++ {
			x := readFloat32(b[off+4*i:])
			if x == float32Missing || x == float32EndVec {
				continue
			}
			v.Floats = append(v.Floats, x)
		}
		return v, off + 4*n, nil
	case kindChar:
		if off+n > len(b) {
			return Value{}, 0, ErrTruncated
		}
		s := trimNulAndEOV(b[off : off+n])
		return Value{Kind: kind, Strings: s}, off + n, nil
	default:
		return Value{}, 0, errBadTypeDescr
	}
}

// decodeTypedArray reads one BCF typed vector descriptor covering a total
// of N elements, then splits those N elements evenly across nSample
// samples (N/nSample per sample, as BCF requires for FORMAT fields),
// returning one Value per sample and the number of bytes consumed.
func decodeTypedArray(b []byte, nSample int) ([]Value, int, error) {
	if len(b) == 0 {
		return nil, 0, ErrTruncated
	}
	descr := b[0]
	kind := typedKind(descr & 0x0f)
	n := int(descr >> 4)
	off := 1
	if n == 15 {
		cnt, cn, err := decodeTyped(b[off:])
		if err != nil {
			return nil, 0, err
		}
		if len(cnt.Ints) == 0 {
			return nil, 0, errBadTypeDescr
		}
		n = int(cnt.Ints[0])
		off += cn
	}
	if nSample == 0 {
		return nil, off, nil
	}
	if kind == kindMissing || n == 0 {
		vals := make([]Value, nSample)
		for i := range vals {
			vals[i] = Value{Kind: kindMissing}
		}
		return vals, off, nil
	}
	per := n / nSample

	elemSize := map[typedKind]int{kindInt8: 1, kindInt16: 2, kindInt32: 4, kindFloat: 4, kindChar: 1}[kind]
	if elemSize == 0 {
		return nil, 0, errBadTypeDescr
	}
	total := elemSize * n
	if off+total > len(b) {
		return nil, 0, ErrTruncated
	}

	vals := make([]Value, nSample)
	for s := 0; s < nSample; s++ {
		start := off + s*per*elemSize
		chunk := b[start : start+per*elemSize]
		v, err := decodeFixedChunk(kind, chunk, per)
		if err != nil {
			return nil, 0, err
		}
		vals[s] = v
	}
	return vals, off + total, nil
}

// decodeFixedChunk decodes n elements of the given fixed-width kind from
// a byte slice known to hold exactly n elements, applying the same
// missing/end-of-vector filtering as decodeTyped.
func decodeFixedChunk(kind typedKind, b []byte, n int) (Value, error) {
	v := Value{Kind: kind}
	switch kind {
	case kindInt8:
		for i := 0; i < n; i++ {
			x := int8(b[i])
			if int(x) == int8Missing || int(x) == int8EndVector {
				continue
			}
			v.Ints = append(v.Ints, int32(x))
		}
	case kindInt16:
		for i := 0; i < n; i++ {
			x := int16(b[2*i]) | int16(b[2*i+1])<<8
			if int(x) == int16Missing || int(x) == int16EndVec {
				continue
			}
			v.Ints = append(v.Ints, int32(x))
		}
	case kindInt32:
		for i := 0; i < n; i++ {
			x := readInt32(b[4*i:])
			if int64(x) == int32Missing || int64(x) == int32EndVec {
				continue
			}
			v.Ints = append(v.Ints, x)
		}
	case kindFloat:
		for i := 0; i < n; i++ {
			x := readFloat32(b[4*i:])
			if x == float32Missing || x == float32EndVec {
				continue
			}
			v.Floats = append(v.Floats, x)
		}
	case kindChar:
		v.Strings = trimNulAndEOV(b[:n])
	default:
		return Value{}, errBadTypeDescr
	}
	return v, nil
}

// trimNulAndEOV trims trailing NUL padding and 0x07 bytes from a BCF
// character vector.
func trimNulAndEOV(b []byte) string {
	end := len(b)
	for end > 0 && (b[end-1] == 0 || b[end-1] == 0x07) {
		end--
	}
	return string(b[:end])
}
