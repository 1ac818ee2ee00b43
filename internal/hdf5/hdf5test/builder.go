// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package hdf5test assembles small HDF5 files in memory for tests:
// a version 0 superblock, version 1 object headers, old-style groups,
// and contiguous storage. Misuse panics, as the callers are test
// fixtures.
package hdf5test

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
)

const undef = ^uint64(0)

// Builder accumulates datasets by absolute path and assembles the
// byte image on demand. Intermediate groups are created as paths
// come in.
type Builder struct {
	root *group
}

type group struct {
	groups   map[string]*group
	datasets map[string]*dataset
}

type dataset struct {
	dims     []uint64
	datatype []byte
	data     []byte
}

func New() *Builder { return &Builder{root: newGroup()} }

func newGroup() *group {
	return &group{groups: map[string]*group{}, datasets: map[string]*dataset{}}
}

// Group ensures a group exists at path, for fixtures that need an
// empty one.
func (b *Builder) Group(path string) *Builder {
	g := b.root
	for _, p := range split(path) {
		child, ok := g.groups[p]
		if !ok {
			child = newGroup()
			g.groups[p] = child
		}
		g = child
	}
	return b
}

// Int64 adds a signed 64-bit dataset. vals are row-major and must
// fill dims.
func (b *Builder) Int64(path string, dims []uint64, vals ...int64) *Builder {
	checkCount(dims, len(vals))
	data := make([]byte, 0, 8*len(vals))
	for _, v := range vals {
		data = binary.LittleEndian.AppendUint64(data, uint64(v))
	}
	return b.add(path, dims, int64Type(), data)
}

// Float64 adds an IEEE double dataset. vals are row-major and must
// fill dims.
func (b *Builder) Float64(path string, dims []uint64, vals ...float64) *Builder {
	checkCount(dims, len(vals))
	data := make([]byte, 0, 8*len(vals))
	for _, v := range vals {
		data = binary.LittleEndian.AppendUint64(data, math.Float64bits(v))
	}
	return b.add(path, dims, float64Type(), data)
}

// Strings adds a one-dimensional fixed-width string dataset. Values
// longer than width are truncated.
func (b *Builder) Strings(path string, width int, vals ...string) *Builder {
	data := make([]byte, 0, width*len(vals))
	for _, v := range vals {
		cell := make([]byte, width)
		copy(cell, v)
		data = append(data, cell...)
	}
	return b.add(path, []uint64{uint64(len(vals))}, stringType(width), data)
}

// Col is one member of a compound dataset. Exactly one of the value
// slices is set; string members occupy Width bytes each.
type Col struct {
	Name   string
	Ints   []int64
	Floats []float64
	Strs   []string
	Width  int
}

func (c Col) size() int {
	if c.Strs != nil {
		return c.Width
	}
	return 8
}

func (c Col) rows() int {
	switch {
	case c.Strs != nil:
		return len(c.Strs)
	case c.Floats != nil:
		return len(c.Floats)
	default:
		return len(c.Ints)
	}
}

func (c Col) cell(i int) []byte {
	switch {
	case c.Strs != nil:
		out := make([]byte, c.Width)
		copy(out, c.Strs[i])
		return out
	case c.Floats != nil:
		return binary.LittleEndian.AppendUint64(nil, math.Float64bits(c.Floats[i]))
	default:
		return binary.LittleEndian.AppendUint64(nil, uint64(c.Ints[i]))
	}
}

// Compound adds a one-dimensional compound dataset with one member
// per column.
func (b *Builder) Compound(path string, cols ...Col) *Builder {
	if len(cols) == 0 {
		panic("hdf5test: compound dataset needs at least one column")
	}
	rows := cols[0].rows()
	elem := 0
	for _, c := range cols {
		if c.rows() != rows {
			panic(fmt.Sprintf("hdf5test: column %s has %d rows, want %d", c.Name, c.rows(), rows))
		}
		elem += c.size()
	}
	data := make([]byte, 0, rows*elem)
	for i := 0; i < rows; i++ {
		for _, c := range cols {
			data = append(data, c.cell(i)...)
		}
	}
	return b.add(path, []uint64{uint64(rows)}, compoundType(cols, elem), data)
}

func (b *Builder) add(path string, dims []uint64, dt, data []byte) *Builder {
	g, name := b.dir(path)
	g.datasets[name] = &dataset{
		dims:     append([]uint64(nil), dims...),
		datatype: dt,
		data:     data,
	}
	return b
}

func (b *Builder) dir(path string) (*group, string) {
	parts := split(path)
	if len(parts) == 0 {
		panic("hdf5test: dataset path names no object")
	}
	g := b.root
	for _, p := range parts[:len(parts)-1] {
		child, ok := g.groups[p]
		if !ok {
			child = newGroup()
			g.groups[p] = child
		}
		g = child
	}
	return g, parts[len(parts)-1]
}

// Bytes assembles the file image.
func (b *Builder) Bytes() []byte {
	w := &wbuf{}
	w.pad(superblockSize)
	rootAddr := emitGroup(w, b.root)
	writeSuperblock(w.b[:superblockSize], rootAddr, uint64(len(w.b)))
	return w.b
}

// WriteFile assembles the image and writes it to path, for commands
// that open files by name.
func (b *Builder) WriteFile(path string) error {
	return os.WriteFile(path, b.Bytes(), 0o644)
}

const superblockSize = 96

func writeSuperblock(dst []byte, rootAddr, eof uint64) {
	s := &wbuf{b: dst[:0]}
	s.raw([]byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'})
	s.u8(0) // superblock version
	s.u8(0) // free space version
	s.u8(0) // root group version
	s.u8(0)
	s.u8(0) // shared header version
	s.u8(8) // offset size
	s.u8(8) // length size
	s.u8(0)
	s.u16(4)  // group leaf K
	s.u16(16) // group internal K
	s.u32(0)  // consistency flags
	s.u64(0)  // base address
	s.u64(undef)
	s.u64(eof)
	s.u64(undef) // driver information
	// Root group symbol table entry.
	s.u64(0)
	s.u64(rootAddr)
	s.u32(1) // cached symbol table
	s.u32(0)
	s.pad(16)
	if len(s.b) != superblockSize {
		panic("hdf5test: superblock layout drifted")
	}
}

// emitGroup writes the children, then the group's name heap, symbol
// node, B-tree, and finally its header, returning the header address.
func emitGroup(w *wbuf, g *group) uint64 {
	names := make([]string, 0, len(g.groups)+len(g.datasets))
	for n := range g.groups {
		names = append(names, n)
	}
	for n := range g.datasets {
		names = append(names, n)
	}
	sort.Strings(names)

	addrs := make(map[string]uint64, len(names))
	for _, n := range names {
		if child, ok := g.groups[n]; ok {
			addrs[n] = emitGroup(w, child)
		} else {
			addrs[n] = emitDataset(w, g.datasets[n])
		}
	}

	// Name heap: a leading NUL slot, then each name at an 8-byte
	// boundary.
	var heap wbuf
	heap.pad(8)
	offs := make(map[string]uint64, len(names))
	for _, n := range names {
		offs[n] = uint64(len(heap.b))
		heap.str(n)
		heap.u8(0)
		heap.align8()
	}

	heapDataAddr := uint64(len(w.b))
	w.raw(heap.b)
	heapAddr := uint64(len(w.b))
	w.str("HEAP")
	w.u8(0)
	w.pad(3)
	w.u64(uint64(len(heap.b)))
	w.u64(undef) // no free list
	w.u64(heapDataAddr)

	snodAddr := uint64(len(w.b))
	w.str("SNOD")
	w.u8(1)
	w.u8(0)
	w.u16(uint16(len(names)))
	for _, n := range names {
		w.u64(offs[n])
		w.u64(addrs[n])
		w.u32(0) // cache type
		w.u32(0)
		w.pad(16)
	}

	btreeAddr := uint64(len(w.b))
	w.str("TREE")
	w.u8(0) // group node
	w.u8(0) // leaf
	w.u16(1)
	w.u64(undef)
	w.u64(undef)
	w.u64(0) // key 0
	w.u64(snodAddr)
	w.u64(0) // key 1

	var st wbuf
	st.u64(btreeAddr)
	st.u64(heapAddr)
	return emitHeader(w, []msg{{kind: 0x11, body: st.b}})
}

func emitDataset(w *wbuf, d *dataset) uint64 {
	dataAddr := uint64(len(w.b))
	w.raw(d.data)
	w.align8()

	var space wbuf
	space.u8(1) // dataspace version
	space.u8(uint8(len(d.dims)))
	space.u8(0)
	space.pad(5)
	for _, dim := range d.dims {
		space.u64(dim)
	}

	var layout wbuf
	layout.u8(3) // layout version
	layout.u8(1) // contiguous
	layout.u64(dataAddr)
	layout.u64(uint64(len(d.data)))

	return emitHeader(w, []msg{
		{kind: 0x01, body: space.b},
		{kind: 0x03, body: d.datatype},
		{kind: 0x08, body: layout.b},
	})
}

type msg struct {
	kind uint16
	body []byte
}

// emitHeader writes a version 1 object header, message bodies padded
// to 8-byte multiples, and returns its address.
func emitHeader(w *wbuf, msgs []msg) uint64 {
	var block wbuf
	for _, m := range msgs {
		body := append([]byte(nil), m.body...)
		for len(body)%8 != 0 {
			body = append(body, 0)
		}
		block.u16(m.kind)
		block.u16(uint16(len(body)))
		block.u8(0)
		block.pad(3)
		block.raw(body)
	}

	addr := uint64(len(w.b))
	w.u8(1) // object header version
	w.u8(0)
	w.u16(uint16(len(msgs)))
	w.u32(1) // reference count
	w.u32(uint32(len(block.b)))
	w.pad(4)
	w.raw(block.b)
	return addr
}

// --- datatype encodings ---

func int64Type() []byte {
	var w wbuf
	w.u8(0x10) // version 1, fixed point
	w.u8(0x08) // little endian, signed
	w.u8(0)
	w.u8(0)
	w.u32(8)
	w.u16(0)  // bit offset
	w.u16(64) // bit precision
	return w.b
}

func float64Type() []byte {
	var w wbuf
	w.u8(0x11) // version 1, floating point
	w.u8(0x20) // little endian, implied msb set
	w.u8(63)   // sign position
	w.u8(0)
	w.u32(8)
	w.u16(0)
	w.u16(64)
	w.u8(52) // exponent location
	w.u8(11) // exponent size
	w.u8(0)  // mantissa location
	w.u8(52) // mantissa size
	w.u32(1023)
	return w.b
}

func stringType(width int) []byte {
	var w wbuf
	w.u8(0x13) // version 1, string
	w.u8(0)    // null terminated, ASCII
	w.u8(0)
	w.u8(0)
	w.u32(uint32(width))
	return w.b
}

func compoundType(cols []Col, elem int) []byte {
	var w wbuf
	w.u8(0x16) // version 1, compound
	w.u8(uint8(len(cols)))
	w.u8(uint8(len(cols) >> 8))
	w.u8(0)
	w.u32(uint32(elem))
	off := 0
	for _, c := range cols {
		w.strz8(c.Name)
		w.u32(uint32(off))
		w.pad(28) // dimensionality, permutation, reserved, dims
		switch {
		case c.Strs != nil:
			w.raw(stringType(c.Width))
		case c.Floats != nil:
			w.raw(float64Type())
		default:
			w.raw(int64Type())
		}
		off += c.size()
	}
	return w.b
}

// --- byte assembly ---

type wbuf struct{ b []byte }

func (w *wbuf) u8(v uint8)   { w.b = append(w.b, v) }
func (w *wbuf) u16(v uint16) { w.b = binary.LittleEndian.AppendUint16(w.b, v) }
func (w *wbuf) u32(v uint32) { w.b = binary.LittleEndian.AppendUint32(w.b, v) }
func (w *wbuf) u64(v uint64) { w.b = binary.LittleEndian.AppendUint64(w.b, v) }
func (w *wbuf) raw(p []byte) { w.b = append(w.b, p...) }
func (w *wbuf) str(s string) { w.b = append(w.b, s...) }
func (w *wbuf) pad(n int)    { w.b = append(w.b, make([]byte, n)...) }

func (w *wbuf) align8() {
	for len(w.b)%8 != 0 {
		w.b = append(w.b, 0)
	}
}

// strz8 writes s NUL-terminated, padded to an 8-byte multiple
// measured from the start of s.
func (w *wbuf) strz8(s string) {
	start := len(w.b)
	w.str(s)
	w.u8(0)
	for (len(w.b)-start)%8 != 0 {
		w.u8(0)
	}
}

func split(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func checkCount(dims []uint64, n int) {
	want := uint64(1)
	for _, d := range dims {
		want *= d
	}
	if uint64(n) != want {
		panic(fmt.Sprintf("hdf5test: %d values for shape %v", n, dims))
	}
}
