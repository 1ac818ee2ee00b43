// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// lookup3 is Jenkins' hashlittle with a zero seed, the checksum the
// format stores after version 2 and 3 superblocks, version 2 object
// header chunks, and the newer index structures.
func lookup3(data []byte) uint32 {
	a := 0xdeadbeef + uint32(len(data))
	b, c := a, a

	for len(data) > 12 {
		a += le32(data)
		b += le32(data[4:])
		c += le32(data[8:])

		a -= c
		a ^= bits.RotateLeft32(c, 4)
		c += b
		b -= a
		b ^= bits.RotateLeft32(a, 6)
		a += c
		c -= b
		c ^= bits.RotateLeft32(b, 8)
		b += a
		a -= c
		a ^= bits.RotateLeft32(c, 16)
		c += b
		b -= a
		b ^= bits.RotateLeft32(a, 19)
		a += c
		c -= b
		c ^= bits.RotateLeft32(b, 4)
		b += a

		data = data[12:]
	}

	if len(data) == 0 {
		return c
	}
	switch len(data) {
	case 12:
		c += uint32(data[11]) << 24
		fallthrough
	case 11:
		c += uint32(data[10]) << 16
		fallthrough
	case 10:
		c += uint32(data[9]) << 8
		fallthrough
	case 9:
		c += uint32(data[8])
		fallthrough
	case 8:
		b += uint32(data[7]) << 24
		fallthrough
	case 7:
		b += uint32(data[6]) << 16
		fallthrough
	case 6:
		b += uint32(data[5]) << 8
		fallthrough
	case 5:
		b += uint32(data[4])
		fallthrough
	case 4:
		a += uint32(data[3]) << 24
		fallthrough
	case 3:
		a += uint32(data[2]) << 16
		fallthrough
	case 2:
		a += uint32(data[1]) << 8
		fallthrough
	case 1:
		a += uint32(data[0])
	}

	c ^= b
	c -= bits.RotateLeft32(b, 14)
	a ^= c
	a -= bits.RotateLeft32(c, 11)
	b ^= a
	b -= bits.RotateLeft32(a, 25)
	c ^= b
	c -= bits.RotateLeft32(b, 16)
	a ^= c
	a -= bits.RotateLeft32(c, 4)
	b ^= a
	b -= bits.RotateLeft32(a, 14)
	c ^= b
	c -= bits.RotateLeft32(b, 24)
	return c
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// fletcher32 computes the checksum applied by the fletcher32 filter.
// Data folds into big-endian 16-bit words, with an odd trailing byte
// taken as the high byte of one final word.
func fletcher32(data []byte) uint32 {
	var sum1, sum2 uint32

	// Accumulate in blocks of 360 words so the running sums cannot
	// overflow 32 bits between modulo reductions.
	words := len(data) / 2
	for words > 0 {
		block := words
		if block > 360 {
			block = 360
		}
		words -= block
		for ; block > 0; block-- {
			sum1 += uint32(data[0])<<8 | uint32(data[1])
			sum2 += sum1
			data = data[2:]
		}
		sum1 = (sum1 & 0xffff) + (sum1 >> 16)
		sum2 = (sum2 & 0xffff) + (sum2 >> 16)
	}
	if len(data) > 0 {
		sum1 += uint32(data[0]) << 8
		sum2 += sum1
	}

	sum1 = (sum1 & 0xffff) + (sum1 >> 16)
	sum2 = (sum2 & 0xffff) + (sum2 >> 16)
	sum1 = (sum1 & 0xffff) + (sum1 >> 16)
	sum2 = (sum2 & 0xffff) + (sum2 >> 16)
	return sum2<<16 | sum1
}

// verifyChecksum recomputes the lookup3 checksum over the byte range
// [start, end) and compares it to the stored value at end.
func (f *File) verifyChecksum(start, end int64) error {
	data := make([]byte, end-start)
	if _, err := f.src.ReadAt(data, start); err != nil {
		return fmt.Errorf("reading %d bytes at %d: %w", end-start, start, err)
	}
	var stored [4]byte
	if _, err := f.src.ReadAt(stored[:], end); err != nil {
		return fmt.Errorf("reading checksum at %d: %w", end, err)
	}
	want := binary.LittleEndian.Uint32(stored[:])
	if got := lookup3(data); got != want {
		return fmt.Errorf("checksum mismatch: computed %08x, stored %08x", got, want)
	}
	return nil
}
