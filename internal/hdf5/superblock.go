// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

import (
	"fmt"
	"io"
)

var hdf5Signature = [8]byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}

// superblock holds the file-wide layout parameters. Versions 0 and 1
// locate the root group through a symbol table entry; versions 2 and
// 3 store the root object header address directly.
type superblock struct {
	version    uint8
	offsetSize int
	lengthSize int
	base       uint64
	eof        uint64
	rootAddr   uint64
}

// findSuperblock scans the offsets the format allows for the file
// signature: byte 0, then 512 doubling from there.
func findSuperblock(src io.ReaderAt, size int64) (int64, error) {
	var buf [8]byte
	for off := int64(0); off == 0 || off+8 <= size; {
		if _, err := src.ReadAt(buf[:], off); err == nil && buf == hdf5Signature {
			return off, nil
		}
		if off == 0 {
			off = 512
		} else {
			off *= 2
		}
	}
	return 0, ErrNotHDF5
}

func readSuperblock(src io.ReaderAt, base int64) (*superblock, error) {
	r := &reader{src: src, offsetSize: 8, lengthSize: 8, pos: base + 8}
	sb := &superblock{base: uint64(base)}
	sb.version = r.u8()

	switch sb.version {
	case 0, 1:
		r.skip(4) // free space, root group, and shared header versions, reserved
		sb.offsetSize = int(r.u8())
		sb.lengthSize = int(r.u8())
		if err := checkFieldSizes(sb); err != nil {
			return nil, err
		}
		r.offsetSize = sb.offsetSize
		r.lengthSize = sb.lengthSize
		r.skip(5) // reserved, group B-tree K values
		r.skip(4) // file consistency flags
		if sb.version == 1 {
			r.skip(4) // indexed storage K, reserved
		}
		r.skip(int64(2 * sb.offsetSize)) // base address, free space info
		sb.eof = r.offset()
		r.skip(int64(sb.offsetSize)) // driver information block
		// Root group symbol table entry: link name offset, object
		// header address, cache type, reserved, scratch space.
		r.skip(int64(sb.offsetSize))
		sb.rootAddr = r.offset()
		r.skip(4 + 4 + 16)

	case 2, 3:
		sb.offsetSize = int(r.u8())
		sb.lengthSize = int(r.u8())
		if err := checkFieldSizes(sb); err != nil {
			return nil, err
		}
		r.offsetSize = sb.offsetSize
		r.lengthSize = sb.lengthSize
		r.skip(1)                       // file consistency flags
		r.skip(int64(2 * sb.offsetSize)) // base address, extension address
		sb.eof = r.offset()
		sb.rootAddr = r.offset()
		stored := r.u32()
		if r.err == nil {
			span := int64(12 + 4*sb.offsetSize)
			raw := make([]byte, span)
			if _, err := src.ReadAt(raw, base); err != nil {
				return nil, fmt.Errorf("reading superblock: %w", err)
			}
			if got := lookup3(raw); got != stored {
				return nil, fmt.Errorf("superblock checksum mismatch: computed %08x, stored %08x", got, stored)
			}
		}

	default:
		return nil, fmt.Errorf("%w: superblock version %d", ErrUnsupported, sb.version)
	}

	if r.err != nil {
		return nil, fmt.Errorf("reading superblock: %w", r.err)
	}
	return sb, nil
}

func checkFieldSizes(sb *superblock) error {
	if sb.offsetSize < 1 || sb.offsetSize > 8 {
		return fmt.Errorf("%w: %d-byte file offsets", ErrUnsupported, sb.offsetSize)
	}
	if sb.lengthSize < 1 || sb.lengthSize > 8 {
		return fmt.Errorf("%w: %d-byte lengths", ErrUnsupported, sb.lengthSize)
	}
	return nil
}
