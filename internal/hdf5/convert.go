// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

import (
	"encoding/binary"
	"fmt"
	"math"
)

// decodeElement converts one on-disk element to its Go value: int64
// for signed integers, uint64 for unsigned, float64 for floats,
// string for fixed and variable strings and named enum values,
// []any for array elements, and map[string]any for compounds.
func (f *File) decodeElement(b []byte, dt *datatype) (any, error) {
	switch dt.class {
	case classFixed:
		v := decodeUint(b[:dt.size], dt.order)
		if dt.signed {
			return signExtend(v, dt.size), nil
		}
		return v, nil

	case classFloat:
		switch dt.size {
		case 4:
			return float64(math.Float32frombits(uint32(decodeUint(b[:4], dt.order)))), nil
		case 8:
			return math.Float64frombits(decodeUint(b[:8], dt.order)), nil
		}
		return nil, fmt.Errorf("%w: %d-byte float", ErrUnsupported, dt.size)

	case classString:
		return cstring(b[:dt.size]), nil

	case classVlen:
		if !dt.vlenString {
			return nil, fmt.Errorf("%w: variable-length sequence", ErrUnsupported)
		}
		return f.readVlenString(b)

	case classCompound:
		m := make(map[string]any, len(dt.members))
		for _, mem := range dt.members {
			end := mem.offset + mem.typ.size
			if end > len(b) {
				return nil, fmt.Errorf("compound member %q extends past element", mem.name)
			}
			v, err := f.decodeElement(b[mem.offset:end], mem.typ)
			if err != nil {
				return nil, fmt.Errorf("member %q: %w", mem.name, err)
			}
			m[mem.name] = v
		}
		return m, nil

	case classEnum:
		v, err := f.decodeElement(b[:dt.base.size], dt.base)
		if err != nil {
			return nil, err
		}
		var n int64
		switch x := v.(type) {
		case int64:
			n = x
		case uint64:
			n = int64(x)
		default:
			return v, nil
		}
		for i, ev := range dt.enumValues {
			if ev == n && i < len(dt.enumNames) {
				return dt.enumNames[i], nil
			}
		}
		return n, nil

	case classArray:
		count := 1
		for _, d := range dt.arrayDims {
			count *= d
		}
		es := dt.base.size
		out := make([]any, 0, count)
		for i := 0; i < count; i++ {
			v, err := f.decodeElement(b[i*es:(i+1)*es], dt.base)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case classBitfield, classTime:
		return decodeUint(b[:dt.size], dt.order), nil

	case classReference:
		return decodeUint(b[:dt.size], binary.LittleEndian), nil

	case classOpaque:
		return append([]byte(nil), b[:dt.size]...), nil
	}
	return nil, fmt.Errorf("%w: datatype class %d", ErrUnsupported, dt.class)
}

// decodeElements converts n packed elements.
func (f *File) decodeElements(raw []byte, dt *datatype, n int) ([]any, error) {
	if need := n * dt.size; len(raw) < need {
		return nil, fmt.Errorf("decoding %d elements: have %d bytes, want %d", n, len(raw), need)
	}
	out := make([]any, n)
	for i := 0; i < n; i++ {
		v, err := f.decodeElement(raw[i*dt.size:(i+1)*dt.size], dt)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// readVlenString resolves a variable-length string element: a byte
// count, a global heap collection address, and an object index.
func (f *File) readVlenString(b []byte) (string, error) {
	r := f.rd.sub(b)
	n := int(r.u32())
	addr := r.offset()
	index := uint16(r.u32())
	if r.err != nil {
		return "", r.err
	}
	if addr == 0 || undefinedAddr(addr, f.rd.offsetSize) {
		return "", nil
	}
	obj, err := f.globalHeapObject(addr, index)
	if err != nil {
		return "", err
	}
	if n > len(obj) {
		n = len(obj)
	}
	return string(obj[:n]), nil
}

func decodeUint(b []byte, order binary.ByteOrder) uint64 {
	var v uint64
	if order == binary.ByteOrder(binary.BigEndian) {
		for _, x := range b {
			v = v<<8 | uint64(x)
		}
		return v
	}
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func signExtend(v uint64, size int) int64 {
	shift := uint(64 - 8*size)
	return int64(v<<shift) >> shift
}
