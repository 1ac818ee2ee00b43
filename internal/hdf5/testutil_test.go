// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

import (
	"bytes"
	"encoding/binary"
)

// bin builds little-endian binary fixtures.
type bin struct {
	b []byte
}

func (w *bin) u8(v uint8)   { w.b = append(w.b, v) }
func (w *bin) u16(v uint16) { w.b = binary.LittleEndian.AppendUint16(w.b, v) }
func (w *bin) u32(v uint32) { w.b = binary.LittleEndian.AppendUint32(w.b, v) }
func (w *bin) u64(v uint64) { w.b = binary.LittleEndian.AppendUint64(w.b, v) }

func (w *bin) raw(p []byte) { w.b = append(w.b, p...) }
func (w *bin) str(s string) { w.b = append(w.b, s...) }

// strz writes s, a NUL, and zero padding out to width bytes.
func (w *bin) strz(s string, width int) {
	w.b = append(w.b, s...)
	w.pad(width - len(s))
}

func (w *bin) pad(n int) { w.b = append(w.b, make([]byte, n)...) }

// padTo zero-fills up to absolute offset off.
func (w *bin) padTo(off int) {
	for len(w.b) < off {
		w.b = append(w.b, 0)
	}
}

func (w *bin) len() int { return len(w.b) }

// testFile wraps a fixture buffer in a File without a superblock, for
// exercising structure readers directly.
func testFileOver(data []byte) *File {
	return &File{
		src:      bytes.NewReader(data),
		size:     int64(len(data)),
		rd:       &reader{src: bytes.NewReader(data), offsetSize: 8, lengthSize: 8},
		sb:       &superblock{offsetSize: 8, lengthSize: 8},
		headers:  make(map[uint64]*objectHeader),
		children: make(map[uint64][]childRef),
		gheaps:   make(map[uint64]map[uint16][]byte),
	}
}
