// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

import (
	"bytes"
	"testing"
)

// block fills a buffer with one byte per element, numbered from
// base, for easy visual layouts.
func numberedBlock(n int, base byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = base + byte(i)
	}
	return out
}

func TestCopyHyperslab2D(t *testing.T) {
	// Source: a 2x2 chunk at origin (2,2) of a conceptual array.
	// Destination: a 4x4 block at origin (0,0).
	src := numberedBlock(4, 1) // [1 2; 3 4]
	dst := make([]byte, 16)

	copyHyperslab(dst, []uint64{0, 0}, []uint64{4, 4}, src, []uint64{2, 2}, []uint64{2, 2}, 1)

	want := []byte{
		0, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 1, 2,
		0, 0, 3, 4,
	}
	if !bytes.Equal(dst, want) {
		t.Errorf("dst = %v, want %v", dst, want)
	}
}

func TestCopyHyperslabPartialOverlap(t *testing.T) {
	// A 2x2 chunk at (1,1) against a 2x2 destination at (0,0):
	// only element (1,1) lands.
	src := numberedBlock(4, 9) // [9 10; 11 12]
	dst := make([]byte, 4)

	copyHyperslab(dst, []uint64{0, 0}, []uint64{2, 2}, src, []uint64{1, 1}, []uint64{2, 2}, 1)

	want := []byte{0, 0, 0, 9}
	if !bytes.Equal(dst, want) {
		t.Errorf("dst = %v, want %v", dst, want)
	}
}

func TestCopyHyperslabNoOverlap(t *testing.T) {
	src := numberedBlock(4, 1)
	dst := make([]byte, 4)
	copyHyperslab(dst, []uint64{0, 0}, []uint64{2, 2}, src, []uint64{8, 8}, []uint64{2, 2}, 1)
	if !bytes.Equal(dst, make([]byte, 4)) {
		t.Errorf("non-overlapping copy wrote %v", dst)
	}
}

func TestCopyHyperslab1DElemSize(t *testing.T) {
	// Four-byte elements along one axis.
	src := numberedBlock(12, 1) // elements at 4..6
	dst := make([]byte, 8)

	copyHyperslab(dst, []uint64{5}, []uint64{2}, src, []uint64{4}, []uint64{3}, 4)

	want := src[4 : 4+8] // elements 5 and 6
	if !bytes.Equal(dst, want) {
		t.Errorf("dst = %v, want %v", dst, want)
	}
}

func TestCopyHyperslab3D(t *testing.T) {
	// A full 2x2x2 source block copied into an identical
	// destination block lands byte for byte.
	src := numberedBlock(8, 1)
	dst := make([]byte, 8)
	copyHyperslab(dst, []uint64{0, 0, 0}, []uint64{2, 2, 2}, src, []uint64{0, 0, 0}, []uint64{2, 2, 2}, 1)
	if !bytes.Equal(dst, src) {
		t.Errorf("dst = %v, want %v", dst, src)
	}
}

func TestCopyHyperslabScalar(t *testing.T) {
	src := []byte{0xaa, 0xbb}
	dst := make([]byte, 2)
	copyHyperslab(dst, nil, nil, src, nil, nil, 2)
	if !bytes.Equal(dst, src) {
		t.Errorf("dst = %v, want %v", dst, src)
	}
}

func TestRowMajorStrides(t *testing.T) {
	got := rowMajorStrides([]uint64{4, 3, 2})
	want := []uint64{6, 2, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("strides = %v, want %v", got, want)
		}
	}
}
