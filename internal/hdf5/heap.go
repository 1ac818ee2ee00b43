// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

import "fmt"

// localHeap is an old-style group's name heap. Strings are addressed
// by byte offset and null-terminated.
type localHeap struct {
	data []byte
}

func (f *File) readLocalHeap(addr uint64) (*localHeap, error) {
	r := f.seek(addr)
	r.signature("HEAP")
	if v := r.u8(); r.err == nil && v != 0 {
		return nil, fmt.Errorf("%w: local heap version %d", ErrUnsupported, v)
	}
	r.skip(3) // reserved
	size := r.length()
	r.skip(int64(f.rd.lengthSize)) // free list head offset
	dataAddr := r.offset()
	if r.err != nil {
		return nil, fmt.Errorf("local heap at %d: %w", addr, r.err)
	}

	dr := f.seek(dataAddr)
	data := dr.bytes(int(size))
	if dr.err != nil {
		return nil, fmt.Errorf("local heap at %d: %w", addr, dr.err)
	}
	return &localHeap{data: data}, nil
}

func (h *localHeap) str(off uint64) string {
	if off >= uint64(len(h.data)) {
		return ""
	}
	return cstring(h.data[off:])
}

// globalHeapObject fetches one object from a global heap collection,
// reading and caching the collection on first touch. Variable-length
// data points here.
func (f *File) globalHeapObject(addr uint64, index uint16) ([]byte, error) {
	col, ok := f.gheaps[addr]
	if !ok {
		var err error
		col, err = f.readGlobalHeap(addr)
		if err != nil {
			return nil, err
		}
		f.gheaps[addr] = col
	}
	obj, ok := col[index]
	if !ok {
		return nil, fmt.Errorf("global heap at %d: no object %d", addr, index)
	}
	return obj, nil
}

func (f *File) readGlobalHeap(addr uint64) (map[uint16][]byte, error) {
	start := int64(f.sb.base + addr)
	r := f.rd.at(uint64(start))
	r.signature("GCOL")
	if v := r.u8(); r.err == nil && v != 1 {
		return nil, fmt.Errorf("%w: global heap version %d", ErrUnsupported, v)
	}
	r.skip(3) // reserved
	size := int64(r.length())
	if r.err != nil {
		return nil, fmt.Errorf("global heap at %d: %w", addr, r.err)
	}

	objects := make(map[uint16][]byte)
	end := start + size
	headerSize := int64(8 + f.rd.lengthSize)
	for r.pos+headerSize <= end {
		index := r.u16()
		r.skip(2) // reference count
		r.skip(4) // reserved
		objSize := int(r.length())
		if r.err != nil {
			return nil, fmt.Errorf("global heap at %d: %w", addr, r.err)
		}
		// Index zero marks the free space that runs to the end of
		// the collection.
		if index == 0 {
			break
		}
		data := r.bytes(objSize)
		r.pad8(start)
		if r.err != nil {
			return nil, fmt.Errorf("global heap at %d: %w", addr, r.err)
		}
		objects[index] = data
	}
	return objects, nil
}
