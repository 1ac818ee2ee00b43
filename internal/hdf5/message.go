// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

import "fmt"

// dataspace describes the extent of a dataset or attribute. A rank
// of zero is a scalar.
type dataspace struct {
	dims    []uint64
	maxDims []uint64
}

func parseDataspace(r *reader) (*dataspace, error) {
	ver := r.u8()
	rank := int(r.u8())
	flags := r.u8()
	switch ver {
	case 1:
		r.skip(5) // reserved
	case 2:
		r.skip(1) // dataspace type
	default:
		if r.err != nil {
			return nil, r.err
		}
		return nil, fmt.Errorf("%w: dataspace version %d", ErrUnsupported, ver)
	}
	ds := &dataspace{dims: make([]uint64, rank)}
	for i := range ds.dims {
		ds.dims[i] = r.length()
	}
	if flags&0x1 != 0 {
		ds.maxDims = make([]uint64, rank)
		for i := range ds.maxDims {
			ds.maxDims[i] = r.length()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return ds, nil
}

func (d *dataspace) numElements() uint64 {
	n := uint64(1)
	for _, dim := range d.dims {
		n *= dim
	}
	return n
}

// fillValue is the default element value for unallocated storage.
type fillValue struct {
	defined bool
	value   []byte
}

func parseFillValue(r *reader) (*fillValue, error) {
	ver := r.u8()
	fv := &fillValue{}
	switch ver {
	case 1:
		r.skip(2) // allocation and write times
		fv.defined = r.u8() != 0
		fv.value = r.bytes(int(r.u32()))
	case 2:
		r.skip(2)
		fv.defined = r.u8() != 0
		if fv.defined {
			fv.value = r.bytes(int(r.u32()))
		}
	case 3:
		flags := r.u8()
		if flags&0x20 != 0 {
			fv.defined = true
			fv.value = r.bytes(int(r.u32()))
		}
	default:
		if r.err != nil {
			return nil, r.err
		}
		return nil, fmt.Errorf("%w: fill value version %d", ErrUnsupported, ver)
	}
	if r.err != nil {
		return nil, r.err
	}
	return fv, nil
}

// Link types stored in link messages.
const (
	linkHard     = 0
	linkSoft     = 1
	linkExternal = 64
)

type link struct {
	name   string
	kind   uint8
	addr   uint64 // hard links
	target string // soft links
}

// parseLink decodes a version 1 link message, the link encoding of
// new-style groups.
func (f *File) parseLink(body []byte) (*link, error) {
	r := f.rd.sub(body)
	if v := r.u8(); r.err == nil && v != 1 {
		return nil, fmt.Errorf("%w: link message version %d", ErrUnsupported, v)
	}
	flags := r.u8()
	ln := &link{}
	if flags&0x8 != 0 {
		ln.kind = r.u8()
	}
	if flags&0x4 != 0 {
		r.skip(8) // creation order
	}
	if flags&0x10 != 0 {
		r.skip(1) // name character set
	}
	nameLen := int(r.uintN(1 << (flags & 0x3)))
	ln.name = string(r.bytes(nameLen))
	switch ln.kind {
	case linkHard:
		ln.addr = r.offset()
	case linkSoft:
		ln.target = string(r.bytes(int(r.u16())))
	case linkExternal:
		if r.err == nil {
			return nil, fmt.Errorf("%w: external link %q", ErrUnsupported, ln.name)
		}
	default:
		if r.err == nil {
			return nil, fmt.Errorf("%w: link type %d", ErrUnsupported, ln.kind)
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return ln, nil
}

// symbolPointers locates the B-tree and local heap of an old-style
// group.
type symbolPointers struct {
	btreeAddr uint64
	heapAddr  uint64
}

func (f *File) parseSymbolTable(body []byte) (*symbolPointers, error) {
	r := f.rd.sub(body)
	st := &symbolPointers{
		btreeAddr: r.offset(),
		heapAddr:  r.offset(),
	}
	if r.err != nil {
		return nil, r.err
	}
	return st, nil
}

// attribute pairs a name with its datatype, dataspace, and raw value
// bytes. Values decode on demand.
type attribute struct {
	name string
	dt   *datatype
	ds   *dataspace
	raw  []byte
}

func (f *File) parseAttribute(body []byte) (*attribute, error) {
	r := f.rd.sub(body)
	ver := r.u8()
	var flags uint8
	switch ver {
	case 1:
		r.skip(1) // reserved
	case 2, 3:
		flags = r.u8()
	default:
		if r.err != nil {
			return nil, r.err
		}
		return nil, fmt.Errorf("%w: attribute version %d", ErrUnsupported, ver)
	}
	nameSize := int(r.u16())
	dtSize := int(r.u16())
	dsSize := int(r.u16())
	if ver == 3 {
		r.skip(1) // name character set
	}
	if flags&0x3 != 0 {
		return nil, fmt.Errorf("%w: shared attribute datatype", ErrUnsupported)
	}

	// Version 1 pads the name, datatype, and dataspace regions out
	// to 8-byte multiples; later versions pack them.
	pad := ver == 1
	name := cstring(r.bytes(nameSize))
	if pad {
		r.pad8(0)
	}
	dtRaw := r.bytes(dtSize)
	if pad {
		r.pad8(0)
	}
	dsRaw := r.bytes(dsSize)
	if pad {
		r.pad8(0)
	}
	if r.err != nil {
		return nil, r.err
	}

	dt, err := parseDatatype(f.rd.sub(dtRaw))
	if err != nil {
		return nil, fmt.Errorf("attribute %q datatype: %w", name, err)
	}
	ds, err := parseDataspace(f.rd.sub(dsRaw))
	if err != nil {
		return nil, fmt.Errorf("attribute %q dataspace: %w", name, err)
	}

	a := &attribute{name: name, dt: dt, ds: ds}
	if off := int(r.pos); off < len(body) {
		a.raw = body[off:]
	}
	return a, nil
}
