// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

import "fmt"

// chunkGridCounts is the number of chunks along each axis.
func chunkGridCounts(dims []uint64, chunkDims []uint32) []uint64 {
	counts := make([]uint64, len(chunkDims))
	for i := range chunkDims {
		c := uint64(chunkDims[i])
		counts[i] = (dims[i] + c - 1) / c
	}
	return counts
}

// chunkOrigin converts a linear chunk number in row-major grid order
// to element coordinates.
func chunkOrigin(n uint64, counts []uint64, chunkDims []uint32) []uint64 {
	offs := make([]uint64, len(chunkDims))
	for i := len(chunkDims) - 1; i >= 0; i-- {
		offs[i] = (n % counts[i]) * uint64(chunkDims[i])
		n /= counts[i]
	}
	return offs
}

// readFixedArrayIndex reads a fixed array chunk index: a header and
// one data block holding an address slot per grid position. Paged
// data blocks are out of scope.
func (f *File) readFixedArrayIndex(lo *dataLayout, dims []uint64) ([]chunkEntry, error) {
	r := f.seek(lo.addr)
	r.signature("FAHD")
	if v := r.u8(); r.err == nil && v != 0 {
		return nil, fmt.Errorf("%w: fixed array version %d", ErrUnsupported, v)
	}
	clientID := r.u8()
	entrySize := int(r.u8())
	pageBits := int(r.u8())
	maxEntries := r.length()
	blockAddr := r.offset()
	if r.err != nil {
		return nil, fmt.Errorf("fixed array at %d: %w", lo.addr, r.err)
	}
	if maxEntries > 1<<uint(pageBits) {
		return nil, fmt.Errorf("%w: paged fixed array index", ErrUnsupported)
	}

	br := f.seek(blockAddr)
	br.signature("FADB")
	if v := br.u8(); br.err == nil && v != 0 {
		return nil, fmt.Errorf("%w: fixed array data block version %d", ErrUnsupported, v)
	}
	br.skip(1)                        // client id
	br.skip(int64(f.rd.offsetSize))   // header address

	filtered := clientID == 1
	sizeWidth := entrySize - f.rd.offsetSize - 4
	counts := chunkGridCounts(dims, lo.chunkDims)

	var out []chunkEntry
	for n := uint64(0); n < maxEntries; n++ {
		addr := br.offset()
		var size uint32
		var mask uint32
		if filtered {
			size = uint32(br.uintN(sizeWidth))
			mask = br.u32()
		}
		if br.err != nil {
			return nil, fmt.Errorf("fixed array at %d: %w", lo.addr, br.err)
		}
		if undefinedAddr(addr, f.rd.offsetSize) {
			continue
		}
		out = append(out, chunkEntry{
			offsets: chunkOrigin(n, counts, lo.chunkDims),
			addr:    addr,
			size:    size,
			mask:    mask,
		})
	}
	return out, nil
}

// readExtensibleArrayIndex reads the chunks addressed directly from
// an extensible array's index block. Chunks that have spilled into
// secondary or data blocks are out of scope.
func (f *File) readExtensibleArrayIndex(lo *dataLayout, dims []uint64) ([]chunkEntry, error) {
	r := f.seek(lo.addr)
	r.signature("EAHD")
	if v := r.u8(); r.err == nil && v != 0 {
		return nil, fmt.Errorf("%w: extensible array version %d", ErrUnsupported, v)
	}
	clientID := r.u8()
	elemSize := int(r.u8())
	r.skip(1) // max element bits
	indexElems := int(r.u8())
	r.skip(3)                         // block and pointer minimums, page bits
	r.skip(int64(6 * f.rd.lengthSize)) // block and element counters
	indexAddr := r.offset()
	if r.err != nil {
		return nil, fmt.Errorf("extensible array at %d: %w", lo.addr, r.err)
	}

	counts := chunkGridCounts(dims, lo.chunkDims)
	total := uint64(1)
	for _, c := range counts {
		total *= c
	}
	if total > uint64(indexElems) {
		return nil, fmt.Errorf("%w: extensible array data blocks", ErrUnsupported)
	}

	br := f.seek(indexAddr)
	br.signature("EAIB")
	if v := br.u8(); br.err == nil && v != 0 {
		return nil, fmt.Errorf("%w: extensible array index block version %d", ErrUnsupported, v)
	}
	br.skip(1)                      // client id
	br.skip(int64(f.rd.offsetSize)) // header address

	filtered := clientID == 1
	sizeWidth := elemSize - f.rd.offsetSize - 4

	var out []chunkEntry
	for n := uint64(0); n < total; n++ {
		addr := br.offset()
		var size uint32
		var mask uint32
		if filtered {
			size = uint32(br.uintN(sizeWidth))
			mask = br.u32()
		}
		if br.err != nil {
			return nil, fmt.Errorf("extensible array at %d: %w", lo.addr, br.err)
		}
		if undefinedAddr(addr, f.rd.offsetSize) {
			continue
		}
		out = append(out, chunkEntry{
			offsets: chunkOrigin(n, counts, lo.chunkDims),
			addr:    addr,
			size:    size,
			mask:    mask,
		})
	}
	return out, nil
}

// readChunkTreeV2 reads a version 2 B-tree chunk index whose root is
// a single leaf. Deeper trees are out of scope.
func (f *File) readChunkTreeV2(lo *dataLayout, dims []uint64) ([]chunkEntry, error) {
	r := f.seek(lo.addr)
	r.signature("BTHD")
	if v := r.u8(); r.err == nil && v != 0 {
		return nil, fmt.Errorf("%w: version 2 B-tree header version %d", ErrUnsupported, v)
	}
	btType := int(r.u8())
	r.skip(4) // node size
	recordSize := int(r.u16())
	depth := int(r.u16())
	r.skip(2) // split and merge percents
	rootAddr := r.offset()
	rootRecords := int(r.u16())
	if r.err != nil {
		return nil, fmt.Errorf("version 2 B-tree at %d: %w", lo.addr, r.err)
	}
	if btType != 10 && btType != 11 {
		return nil, fmt.Errorf("%w: version 2 B-tree record type %d", ErrUnsupported, btType)
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: multi-level version 2 B-tree chunk index", ErrUnsupported)
	}

	lr := f.seek(rootAddr)
	lr.signature("BTLF")
	if v := lr.u8(); lr.err == nil && v != 0 {
		return nil, fmt.Errorf("%w: version 2 B-tree leaf version %d", ErrUnsupported, v)
	}
	lr.skip(1) // record type, repeated from the header

	nd := len(lo.chunkDims)
	sizeWidth := recordSize - f.rd.offsetSize - 4 - 8*nd

	out := make([]chunkEntry, 0, rootRecords)
	for i := 0; i < rootRecords; i++ {
		var e chunkEntry
		e.addr = lr.offset()
		if btType == 11 {
			e.size = uint32(lr.uintN(sizeWidth))
			e.mask = lr.u32()
		}
		scaled := make([]uint64, nd)
		for j := range scaled {
			scaled[j] = lr.u64()
		}
		if lr.err != nil {
			return nil, fmt.Errorf("version 2 B-tree at %d: %w", lo.addr, lr.err)
		}
		e.offsets = make([]uint64, nd)
		for j := range e.offsets {
			e.offsets[j] = scaled[j] * uint64(lo.chunkDims[j])
		}
		out = append(out, e)
	}
	return out, nil
}
