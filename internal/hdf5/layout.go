// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

import "fmt"

// Layout classes.
const (
	layoutCompact    = 0
	layoutContiguous = 1
	layoutChunked    = 2
)

// Chunk index kinds. Version 4 layout messages name theirs; layouts
// before that always index chunks with a version 1 B-tree.
const (
	chunkIndexBTreeV1         = 0
	chunkIndexSingle          = 1
	chunkIndexImplicit        = 2
	chunkIndexFixedArray      = 3
	chunkIndexExtensibleArray = 4
	chunkIndexBTreeV2         = 5
)

// dataLayout records where a dataset's elements live. chunkDims
// excludes the element-size coordinate that version 3 messages
// append.
type dataLayout struct {
	version int
	class   int

	compact []byte

	addr uint64 // contiguous data, or the chunk index
	size uint64 // contiguous byte count, when stored

	chunkDims  []uint32
	indexType  int
	chunkFlags uint8

	// Single-chunk index parameters for filtered data.
	singleSize uint64
	singleMask uint32
}

func (f *File) parseDataLayout(body []byte) (*dataLayout, error) {
	r := f.rd.sub(body)
	lo := &dataLayout{version: int(r.u8())}

	switch lo.version {
	case 1, 2:
		nd := int(r.u8())
		lo.class = int(r.u8())
		r.skip(5) // reserved
		switch lo.class {
		case layoutCompact:
			r.skip(int64(4 * nd)) // dimension sizes
			lo.compact = r.bytes(int(r.u32()))
		case layoutContiguous:
			lo.addr = r.offset()
			r.skip(int64(4 * nd))
		case layoutChunked:
			lo.addr = r.offset()
			dims := make([]uint32, nd)
			for i := range dims {
				dims[i] = r.u32()
			}
			if nd < 1 {
				return nil, fmt.Errorf("chunked layout with dimensionality %d", nd)
			}
			// The last coordinate is the element size in bytes.
			lo.chunkDims = dims[:nd-1]
			lo.indexType = chunkIndexBTreeV1
		}

	case 3:
		lo.class = int(r.u8())
		switch lo.class {
		case layoutCompact:
			lo.compact = r.bytes(int(r.u16()))
		case layoutContiguous:
			lo.addr = r.offset()
			lo.size = r.length()
		case layoutChunked:
			nd := int(r.u8())
			lo.addr = r.offset()
			dims := make([]uint32, nd)
			for i := range dims {
				dims[i] = r.u32()
			}
			if nd < 1 {
				return nil, fmt.Errorf("chunked layout with dimensionality %d", nd)
			}
			lo.chunkDims = dims[:nd-1]
			lo.indexType = chunkIndexBTreeV1
		}

	case 4:
		lo.class = int(r.u8())
		switch lo.class {
		case layoutCompact:
			lo.compact = r.bytes(int(r.u16()))
		case layoutContiguous:
			lo.addr = r.offset()
			lo.size = r.length()
		case layoutChunked:
			lo.chunkFlags = r.u8()
			nd := int(r.u8())
			encSize := int(r.u8())
			dims := make([]uint32, nd)
			for i := range dims {
				dims[i] = uint32(r.uintN(encSize))
			}
			lo.chunkDims = dims
			lo.indexType = int(r.u8())
			switch lo.indexType {
			case chunkIndexSingle:
				if lo.chunkFlags&0x2 != 0 {
					lo.singleSize = r.length()
					lo.singleMask = r.u32()
				}
			case chunkIndexImplicit:
			case chunkIndexFixedArray:
				r.skip(1) // page bits
			case chunkIndexExtensibleArray:
				// Five creation parameters, one byte each. The format
				// spec calls the page-bits field 16 bits wide; the
				// library writes one byte.
				r.skip(5)
			case chunkIndexBTreeV2:
				r.skip(6) // node size, split and merge percents
			default:
				if r.err == nil {
					return nil, fmt.Errorf("%w: chunk index type %d", ErrUnsupported, lo.indexType)
				}
			}
			lo.addr = r.offset()
		}

	default:
		if r.err != nil {
			return nil, r.err
		}
		return nil, fmt.Errorf("%w: data layout version %d", ErrUnsupported, lo.version)
	}

	if r.err != nil {
		return nil, r.err
	}
	if lo.class < layoutCompact || lo.class > layoutChunked {
		return nil, fmt.Errorf("%w: layout class %d", ErrUnsupported, lo.class)
	}
	return lo, nil
}
