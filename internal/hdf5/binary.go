// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// reader decodes little-endian fields from an io.ReaderAt, carrying
// the offset and length sizes declared by the superblock. Errors are
// sticky: after the first failure every later call is a no-op and Err
// reports the cause, so decode sequences can read straight through
// without a check per field.
type reader struct {
	src        io.ReaderAt
	offsetSize int
	lengthSize int
	pos        int64
	err        error
}

// at returns a fresh reader over the same source positioned at pos.
func (r *reader) at(pos uint64) *reader {
	return &reader{src: r.src, offsetSize: r.offsetSize, lengthSize: r.lengthSize, pos: int64(pos)}
}

// sub returns a reader over body, keeping the field sizes. Message
// bodies are decoded this way once the object header pulls them out.
func (r *reader) sub(body []byte) *reader {
	return &reader{src: bytes.NewReader(body), offsetSize: r.offsetSize, lengthSize: r.lengthSize}
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *reader) failf(format string, args ...any) {
	r.fail(fmt.Errorf(format, args...))
}

func (r *reader) Err() error { return r.err }

func (r *reader) bytes(n int) []byte {
	if r.err != nil || n == 0 {
		return nil
	}
	if n < 0 {
		r.failf("reading %d bytes at %d: negative count", n, r.pos)
		return nil
	}
	buf := make([]byte, n)
	if _, err := r.src.ReadAt(buf, r.pos); err != nil {
		r.failf("reading %d bytes at %d: %w", n, r.pos, err)
		return nil
	}
	r.pos += int64(n)
	return buf
}

func (r *reader) skip(n int64) {
	if r.err != nil {
		return
	}
	r.pos += n
}

// pad8 advances to the next 8-byte boundary measured from base.
func (r *reader) pad8(base int64) {
	if r.err != nil {
		return
	}
	if rem := (r.pos - base) % 8; rem != 0 {
		r.pos += 8 - rem
	}
}

func (r *reader) u8() uint8 {
	b := r.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.bytes(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) u64() uint64 {
	b := r.bytes(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// uintN reads an unsigned little-endian integer of 1 to 8 bytes.
func (r *reader) uintN(n int) uint64 {
	if r.err == nil && (n < 1 || n > 8) {
		r.failf("reading %d-byte integer at %d: unsupported width", n, r.pos)
		return 0
	}
	b := r.bytes(n)
	if b == nil {
		return 0
	}
	var v uint64
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// offset reads a file address of the superblock's offset size.
func (r *reader) offset() uint64 { return r.uintN(r.offsetSize) }

// length reads a length field of the superblock's length size.
func (r *reader) length() uint64 { return r.uintN(r.lengthSize) }

// signature consumes a 4-byte block signature and verifies it.
func (r *reader) signature(want string) {
	at := r.pos
	b := r.bytes(4)
	if b == nil {
		return
	}
	if string(b) != want {
		r.failf("bad signature at %d: want %q, got %q", at, want, b)
	}
}

// cstring8 reads a null-terminated string padded out to a multiple
// of eight bytes, the encoding used for member and enum names in
// version 1 and 2 datatypes.
func (r *reader) cstring8() string {
	var name []byte
	for {
		chunk := r.bytes(8)
		if r.err != nil {
			return string(name)
		}
		if i := bytes.IndexByte(chunk, 0); i >= 0 {
			return string(append(name, chunk[:i]...))
		}
		name = append(name, chunk...)
	}
}

// cstringRaw reads a null-terminated string with no padding.
func (r *reader) cstringRaw() string {
	var name []byte
	for {
		b := r.bytes(1)
		if r.err != nil || b[0] == 0 {
			return string(name)
		}
		name = append(name, b[0])
	}
}

// cstring interprets b up to its first NUL.
func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

// undefinedAddr reports whether addr is the all-ones undefined
// address for a field of the given byte size.
func undefinedAddr(addr uint64, size int) bool {
	if size >= 8 {
		return addr == ^uint64(0)
	}
	return addr == 1<<(8*uint(size))-1
}
