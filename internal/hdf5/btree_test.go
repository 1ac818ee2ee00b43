// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

import (
	"encoding/binary"
	"testing"
)

// Fixture offsets for the old-style group structures.
const (
	fixHeapHdr  = 0x000
	fixHeapData = 0x040
	fixBTree    = 0x090
	fixSnod     = 0x100
)

// buildOldGroupFixture lays out a local heap, a one-level group
// B-tree, and a symbol table node with two entries, the second a
// soft link.
func buildOldGroupFixture() []byte {
	w := &bin{}

	// Local heap header.
	w.padTo(fixHeapHdr)
	w.str("HEAP")
	w.u8(0)
	w.pad(3)
	w.u64(0x40)          // data segment size
	w.u64(0)             // free list head
	w.u64(fixHeapData)   // data segment address

	// Heap data: names at offsets 8 and 16, a link target at 24.
	w.padTo(fixHeapData)
	w.pad(8)
	w.strz("alpha", 8)
	w.strz("beta", 8)
	w.strz("/target", 16)

	// B-tree: one leaf-level node pointing at the symbol node.
	w.padTo(fixBTree)
	w.str("TREE")
	w.u8(0) // group node
	w.u8(0) // leaf level
	w.u16(1)
	w.u64(undef64) // left sibling
	w.u64(undef64) // right sibling
	w.u64(0)       // key 0
	w.u64(fixSnod) // child 0
	w.u64(8)       // key 1

	// Symbol table node.
	w.padTo(fixSnod)
	w.str("SNOD")
	w.u8(1)
	w.u8(0)
	w.u16(2)
	// alpha: a plain object.
	w.u64(8)     // name offset
	w.u64(0x500) // object header address
	w.u32(0)     // cache type
	w.u32(0)
	w.pad(16)
	// beta: a soft link, target offset in the scratch space.
	w.u64(16)
	w.u64(undef64)
	w.u32(2)
	w.u32(0)
	scratch := make([]byte, 16)
	binary.LittleEndian.PutUint32(scratch, 24)
	w.raw(scratch)

	return w.b
}

func TestReadGroupEntries(t *testing.T) {
	f := testFileOver(buildOldGroupFixture())

	heap, err := f.readLocalHeap(fixHeapHdr)
	if err != nil {
		t.Fatalf("readLocalHeap: %v", err)
	}
	if got := heap.str(8); got != "alpha" {
		t.Fatalf("heap.str(8) = %q, want alpha", got)
	}
	if got := heap.str(0x1000); got != "" {
		t.Errorf("out-of-range heap offset returned %q", got)
	}

	entries, err := f.readGroupEntries(fixBTree, heap)
	if err != nil {
		t.Fatalf("readGroupEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if e := entries[0]; e.name != "alpha" || e.addr != 0x500 || e.cacheType != 0 {
		t.Errorf("entry 0 = %+v", e)
	}
	if e := entries[1]; e.name != "beta" || e.cacheType != 2 {
		t.Errorf("entry 1 = %+v", e)
	}
}

func TestChildrenOfOldStyleGroup(t *testing.T) {
	f := testFileOver(buildOldGroupFixture())

	// A synthetic header carrying only the symbol table message.
	st := &bin{}
	st.u64(fixBTree)
	st.u64(fixHeapHdr)
	hdr := &objectHeader{addr: 0x999, version: 1, messages: []headerMessage{
		{kind: msgSymbolTable, body: st.b},
	}}

	refs, err := f.childrenOf(hdr)
	if err != nil {
		t.Fatalf("childrenOf: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("got %d children, want 2", len(refs))
	}
	if refs[0].name != "alpha" || refs[0].addr != 0x500 || refs[0].soft != "" {
		t.Errorf("child 0 = %+v", refs[0])
	}
	if refs[1].name != "beta" || refs[1].soft != "/target" {
		t.Errorf("child 1 = %+v", refs[1])
	}

	// The listing is cached by header address.
	again, err := f.childrenOf(hdr)
	if err != nil {
		t.Fatalf("childrenOf cached: %v", err)
	}
	if &again[0] != &refs[0] {
		t.Error("second lookup rebuilt the child list")
	}
}

// --- chunk B-tree ---

const (
	fixChunkTree = 0x000
	fixChunkA    = 0x100
	fixChunkB    = 0x110
)

// buildChunkFixture stores a 4x2 int32 dataset in two 2x2 chunks.
func buildChunkFixture() []byte {
	w := &bin{}
	w.padTo(fixChunkTree)
	w.str("TREE")
	w.u8(1) // raw data node
	w.u8(0) // leaf level
	w.u16(2)
	w.u64(undef64)
	w.u64(undef64)

	// Key, then child, per entry. Keys carry the stored size, the
	// filter mask, and the chunk origin padded with the element
	// size coordinate.
	w.u32(16)
	w.u32(0)
	w.u64(0)
	w.u64(0)
	w.u64(0)
	w.u64(fixChunkA)

	w.u32(16)
	w.u32(0)
	w.u64(2)
	w.u64(0)
	w.u64(0)
	w.u64(fixChunkB)

	w.padTo(fixChunkA)
	for _, v := range []int32{1, 2, 3, 4} {
		w.u32(uint32(v))
	}
	w.padTo(fixChunkB)
	for _, v := range []int32{5, 6, 7, 8} {
		w.u32(uint32(v))
	}
	return w.b
}

func chunkedTestDataset(f *File) *Dataset {
	return &Dataset{
		file: f,
		path: "/chunked",
		dt:   &datatype{class: classFixed, size: 4, signed: true, order: binary.LittleEndian},
		ds:   &dataspace{dims: []uint64{4, 2}},
		layout: &dataLayout{
			version:   3,
			class:     layoutChunked,
			addr:      fixChunkTree,
			chunkDims: []uint32{2, 2},
			indexType: chunkIndexBTreeV1,
		},
	}
}

func TestReadChunkTree(t *testing.T) {
	f := testFileOver(buildChunkFixture())
	entries, err := f.readChunkTree(fixChunkTree, 2)
	if err != nil {
		t.Fatalf("readChunkTree: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d chunks, want 2", len(entries))
	}
	if e := entries[0]; e.addr != fixChunkA || e.size != 16 || len(e.offsets) != 2 || e.offsets[0] != 0 {
		t.Errorf("chunk 0 = %+v", e)
	}
	if e := entries[1]; e.addr != fixChunkB || e.offsets[0] != 2 || e.offsets[1] != 0 {
		t.Errorf("chunk 1 = %+v", e)
	}
}

func TestChunkedReadRows(t *testing.T) {
	f := testFileOver(buildChunkFixture())
	d := chunkedTestDataset(f)

	tests := []struct {
		name  string
		start uint64
		count uint64
		want  []int64
	}{
		{name: "all rows", start: 0, count: 4, want: []int64{1, 2, 3, 4, 5, 6, 7, 8}},
		{name: "middle rows", start: 1, count: 2, want: []int64{3, 4, 5, 6}},
		{name: "clamped past end", start: 3, count: 10, want: []int64{7, 8}},
		{name: "empty past end", start: 9, count: 3, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vals, err := d.ReadRows(tt.start, tt.count)
			if err != nil {
				t.Fatalf("ReadRows: %v", err)
			}
			if len(vals) != len(tt.want) {
				t.Fatalf("got %d values, want %d", len(vals), len(tt.want))
			}
			for i, v := range vals {
				if v != tt.want[i] {
					t.Errorf("value %d = %v, want %d", i, v, tt.want[i])
				}
			}
		})
	}
}

func TestChunkedStorageSize(t *testing.T) {
	f := testFileOver(buildChunkFixture())
	d := chunkedTestDataset(f)
	if got := d.StorageSize(); got != 32 {
		t.Errorf("StorageSize = %d, want 32", got)
	}
}
