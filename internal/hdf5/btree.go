// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

import "fmt"

// symbolEntry is one entry of an old-style group's symbol table.
// cacheType 2 marks a soft link whose target offset sits in the
// scratch space.
type symbolEntry struct {
	name      string
	addr      uint64
	cacheType uint32
	scratch   [16]byte
}

// readGroupEntries walks a version 1 group B-tree and returns the
// symbol table entries of every leaf, in link name order.
func (f *File) readGroupEntries(addr uint64, heap *localHeap) ([]symbolEntry, error) {
	r := f.seek(addr)
	r.signature("TREE")
	nodeType := int(r.u8())
	level := int(r.u8())
	used := int(r.u16())
	r.skip(int64(2 * f.rd.offsetSize)) // sibling addresses
	if r.err != nil {
		return nil, fmt.Errorf("group B-tree at %d: %w", addr, r.err)
	}
	if nodeType != 0 {
		return nil, fmt.Errorf("group B-tree at %d: node type %d", addr, nodeType)
	}

	var out []symbolEntry
	for i := 0; i < used; i++ {
		r.skip(int64(f.rd.lengthSize)) // key i
		child := r.offset()
		if r.err != nil {
			return nil, fmt.Errorf("group B-tree at %d: %w", addr, r.err)
		}
		var (
			sub []symbolEntry
			err error
		)
		if level > 0 {
			sub, err = f.readGroupEntries(child, heap)
		} else {
			sub, err = f.readSymbolNode(child, heap)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

func (f *File) readSymbolNode(addr uint64, heap *localHeap) ([]symbolEntry, error) {
	r := f.seek(addr)
	r.signature("SNOD")
	if v := r.u8(); r.err == nil && v != 1 {
		return nil, fmt.Errorf("%w: symbol table node version %d", ErrUnsupported, v)
	}
	r.skip(1) // reserved
	n := int(r.u16())
	if r.err != nil {
		return nil, fmt.Errorf("symbol table node at %d: %w", addr, r.err)
	}

	entries := make([]symbolEntry, 0, n)
	for i := 0; i < n; i++ {
		nameOff := r.offset()
		hdrAddr := r.offset()
		cacheType := r.u32()
		r.skip(4) // reserved
		scratch := r.bytes(16)
		if r.err != nil {
			return nil, fmt.Errorf("symbol table node at %d: %w", addr, r.err)
		}
		e := symbolEntry{
			name:      heap.str(nameOff),
			addr:      hdrAddr,
			cacheType: cacheType,
		}
		copy(e.scratch[:], scratch)
		entries = append(entries, e)
	}
	return entries, nil
}

// chunkEntry locates one stored chunk: its origin in dataset element
// coordinates, its address, and for filtered data the stored byte
// count and the per-chunk filter mask.
type chunkEntry struct {
	offsets []uint64
	addr    uint64
	size    uint32
	mask    uint32
}

// readChunkTree collects the leaf entries of a version 1 chunk
// B-tree. Keys carry the chunk size, filter mask, and the chunk
// origin plus a trailing element-size coordinate that is dropped
// here.
func (f *File) readChunkTree(addr uint64, ndims int) ([]chunkEntry, error) {
	r := f.seek(addr)
	r.signature("TREE")
	nodeType := int(r.u8())
	level := int(r.u8())
	used := int(r.u16())
	r.skip(int64(2 * f.rd.offsetSize)) // sibling addresses
	if r.err != nil {
		return nil, fmt.Errorf("chunk B-tree at %d: %w", addr, r.err)
	}
	if nodeType != 1 {
		return nil, fmt.Errorf("chunk B-tree at %d: node type %d", addr, nodeType)
	}

	var out []chunkEntry
	for i := 0; i < used; i++ {
		size := r.u32()
		mask := r.u32()
		offsets := make([]uint64, ndims+1)
		for j := range offsets {
			offsets[j] = r.u64()
		}
		child := r.offset()
		if r.err != nil {
			return nil, fmt.Errorf("chunk B-tree at %d: %w", addr, r.err)
		}
		if level > 0 {
			sub, err := f.readChunkTree(child, ndims)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		} else {
			out = append(out, chunkEntry{
				offsets: offsets[:ndims],
				addr:    child,
				size:    size,
				mask:    mask,
			})
		}
	}
	return out, nil
}
