// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

import (
	"encoding/binary"
	"fmt"
)

// Datatype classes.
const (
	classFixed     = 0
	classFloat     = 1
	classTime      = 2
	classString    = 3
	classBitfield  = 4
	classOpaque    = 5
	classCompound  = 6
	classReference = 7
	classEnum      = 8
	classVlen      = 9
	classArray     = 10
)

type compoundMember struct {
	name   string
	offset int
	typ    *datatype
}

// datatype is a parsed datatype message. size is the on-disk size of
// one element in bytes.
type datatype struct {
	class   int
	version int
	size    int
	order   binary.ByteOrder
	signed  bool

	members []compoundMember // compound

	base       *datatype // enum, vlen, array
	vlenString bool
	enumNames  []string
	enumValues []int64

	arrayDims []int
}

func parseDatatype(r *reader) (*datatype, error) {
	classVer := r.u8()
	b0 := r.u8()
	b8 := r.u8()
	r.skip(1) // bit field byte 3
	size := int(r.u32())
	if r.err != nil {
		return nil, r.err
	}
	dt := &datatype{
		class:   int(classVer & 0x0f),
		version: int(classVer >> 4),
		size:    size,
		order:   binary.LittleEndian,
	}

	switch dt.class {
	case classFixed, classBitfield:
		dt.order = byteOrder(b0)
		dt.signed = b0&0x08 != 0
		r.skip(4) // bit offset, bit precision

	case classFloat:
		dt.order = byteOrder(b0)
		r.skip(12) // bit layout and exponent bias

	case classTime:
		dt.order = byteOrder(b0)
		r.skip(2) // bit precision

	case classString:
		// Padding and character set live in the bit field; the
		// strings themselves decode up to their first NUL.

	case classOpaque:
		tagLen := int(b0) | int(b8)<<8
		r.skip(int64(tagLen))

	case classReference:

	case classCompound:
		n := int(b0) | int(b8)<<8
		if err := parseCompoundMembers(r, dt, n); err != nil {
			return nil, err
		}

	case classEnum:
		n := int(b0) | int(b8)<<8
		base, err := parseDatatype(r)
		if err != nil {
			return nil, fmt.Errorf("enum base type: %w", err)
		}
		dt.base = base
		for i := 0; i < n; i++ {
			if dt.version >= 3 {
				dt.enumNames = append(dt.enumNames, r.cstringRaw())
			} else {
				dt.enumNames = append(dt.enumNames, r.cstring8())
			}
		}
		for i := 0; i < n; i++ {
			raw := r.bytes(base.size)
			if r.err != nil {
				break
			}
			v := decodeUint(raw, base.order)
			if base.signed {
				dt.enumValues = append(dt.enumValues, signExtend(v, base.size))
			} else {
				dt.enumValues = append(dt.enumValues, int64(v))
			}
		}

	case classVlen:
		dt.vlenString = b0&0x0f == 1
		base, err := parseDatatype(r)
		if err != nil {
			return nil, fmt.Errorf("vlen base type: %w", err)
		}
		dt.base = base

	case classArray:
		nd := int(r.u8())
		if dt.version < 3 {
			r.skip(3) // reserved
		}
		for i := 0; i < nd; i++ {
			dt.arrayDims = append(dt.arrayDims, int(r.u32()))
		}
		if dt.version < 3 {
			r.skip(int64(4 * nd)) // permutation indices
		}
		base, err := parseDatatype(r)
		if err != nil {
			return nil, fmt.Errorf("array base type: %w", err)
		}
		dt.base = base

	default:
		if r.err != nil {
			return nil, r.err
		}
		return nil, fmt.Errorf("%w: datatype class %d", ErrUnsupported, dt.class)
	}

	if r.err != nil {
		return nil, r.err
	}
	return dt, nil
}

func byteOrder(b0 uint8) binary.ByteOrder {
	if b0&0x01 != 0 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func parseCompoundMembers(r *reader, dt *datatype, n int) error {
	for i := 0; i < n; i++ {
		var m compoundMember
		switch dt.version {
		case 1:
			m.name = r.cstring8()
			m.offset = int(r.u32())
			// Dimensionality, reserved bytes, permutation, and four
			// dimension sizes, all unused since format 1.4.
			r.skip(28)
		case 2:
			m.name = r.cstring8()
			m.offset = int(r.u32())
		case 3:
			m.name = r.cstringRaw()
			m.offset = int(r.uintN(minBytes(dt.size)))
		default:
			if r.err != nil {
				return r.err
			}
			return fmt.Errorf("%w: compound datatype version %d", ErrUnsupported, dt.version)
		}
		if r.err != nil {
			return r.err
		}
		mt, err := parseDatatype(r)
		if err != nil {
			return fmt.Errorf("member %q: %w", m.name, err)
		}
		m.typ = mt
		dt.members = append(dt.members, m)
	}
	return nil
}

// minBytes is the smallest integer width able to hold v, the width
// version 3 compounds use for member offsets.
func minBytes(v int) int {
	n := 1
	for v >= 1<<(8*uint(n)) && n < 8 {
		n++
	}
	return n
}

// describe renders a short human name for the type, as shown by
// dataset listings.
func (t *datatype) describe() string {
	switch t.class {
	case classFixed:
		prefix := "uint"
		if t.signed {
			prefix = "int"
		}
		return fmt.Sprintf("%s%d", prefix, t.size*8)
	case classFloat:
		return fmt.Sprintf("float%d", t.size*8)
	case classString:
		return fmt.Sprintf("string(%d)", t.size)
	case classVlen:
		if t.vlenString {
			return "string"
		}
		return fmt.Sprintf("vlen(%s)", t.base.describe())
	case classCompound:
		return fmt.Sprintf("compound(%d fields)", len(t.members))
	case classEnum:
		return fmt.Sprintf("enum(%s)", t.base.describe())
	case classArray:
		return fmt.Sprintf("array%v(%s)", t.arrayDims, t.base.describe())
	case classReference:
		return "reference"
	case classBitfield:
		return fmt.Sprintf("bitfield%d", t.size*8)
	case classOpaque:
		return fmt.Sprintf("opaque(%d)", t.size)
	case classTime:
		return "time"
	}
	return fmt.Sprintf("class%d", t.class)
}
