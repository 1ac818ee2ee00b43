// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"testing"

	"github.com/pierrec/lz4/v4"
)

// --- forward transforms used to build fixtures ---

func deflateBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatalf("compressing fixture: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("compressing fixture: %v", err)
	}
	return buf.Bytes()
}

func shuffleBytes(data []byte, elemSize int) []byte {
	n := len(data) / elemSize
	out := make([]byte, len(data))
	for i := 0; i < n; i++ {
		for j := 0; j < elemSize; j++ {
			out[j*n+i] = data[i*elemSize+j]
		}
	}
	return out
}

func fletcherWrap(data []byte) []byte {
	out := append([]byte(nil), data...)
	var sum [4]byte
	binary.LittleEndian.PutUint32(sum[:], fletcher32(data))
	return append(out, sum[:]...)
}

// --- individual filters ---

func TestInflate(t *testing.T) {
	payload := bytes.Repeat([]byte("abcd1234"), 32)
	got, err := inflate(deflateBytes(t, payload))
	if err != nil {
		t.Fatalf("inflate: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("inflate returned %d bytes, want %d", len(got), len(payload))
	}

	if _, err := inflate([]byte{0x00, 0x01, 0x02}); err == nil {
		t.Error("inflating garbage did not fail")
	}
}

func TestUnshuffle(t *testing.T) {
	payload := numberedBlock(24, 1)
	shuffled := shuffleBytes(payload, 4)
	if got := unshuffle(shuffled, 4); !bytes.Equal(got, payload) {
		t.Errorf("unshuffle = %v, want %v", got, payload)
	}

	// Element size 1 passes through untouched.
	if got := unshuffle(payload, 1); !bytes.Equal(got, payload) {
		t.Error("single-byte unshuffle altered the data")
	}

	// A length that does not divide evenly passes through.
	odd := payload[:22]
	if got := unshuffle(odd, 4); !bytes.Equal(got, odd) {
		t.Error("ragged unshuffle altered the data")
	}
}

func TestCheckFletcher32(t *testing.T) {
	payload := []byte("chunk data under checksum")
	got, err := checkFletcher32(fletcherWrap(payload))
	if err != nil {
		t.Fatalf("checkFletcher32: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %q, want %q", got, payload)
	}

	bad := fletcherWrap(payload)
	bad[0] ^= 0xff
	if _, err := checkFletcher32(bad); err == nil {
		t.Error("corrupted chunk passed verification")
	}
	if _, err := checkFletcher32([]byte{1, 2}); err == nil {
		t.Error("undersized chunk passed verification")
	}
}

func TestUnlz4(t *testing.T) {
	payload := bytes.Repeat([]byte{1, 2, 3, 4}, 64)

	compressed := make([]byte, lz4.CompressBlockBound(len(payload)))
	n, err := lz4.CompressBlock(payload, compressed, nil)
	if err != nil {
		t.Fatalf("compressing fixture: %v", err)
	}
	if n == 0 {
		t.Fatal("fixture did not compress")
	}

	var frame bytes.Buffer
	binary.Write(&frame, binary.BigEndian, uint64(len(payload)))
	binary.Write(&frame, binary.BigEndian, uint32(len(payload)))
	binary.Write(&frame, binary.BigEndian, uint32(n))
	frame.Write(compressed[:n])

	got, err := unlz4(frame.Bytes())
	if err != nil {
		t.Fatalf("unlz4: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("unlz4 returned %d bytes, want %d", len(got), len(payload))
	}
}

func TestUnlz4RawBlock(t *testing.T) {
	// A block stored at exactly the block size is kept verbatim.
	payload := []byte("not compressed at all!!!")
	var frame bytes.Buffer
	binary.Write(&frame, binary.BigEndian, uint64(len(payload)))
	binary.Write(&frame, binary.BigEndian, uint32(len(payload)))
	binary.Write(&frame, binary.BigEndian, uint32(len(payload)))
	frame.Write(payload)

	got, err := unlz4(frame.Bytes())
	if err != nil {
		t.Fatalf("unlz4: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("unlz4 = %q, want %q", got, payload)
	}
}

func TestUnlz4Truncated(t *testing.T) {
	if _, err := unlz4([]byte{1, 2, 3}); err == nil {
		t.Error("truncated header did not fail")
	}

	var frame bytes.Buffer
	binary.Write(&frame, binary.BigEndian, uint64(100))
	binary.Write(&frame, binary.BigEndian, uint32(100))
	binary.Write(&frame, binary.BigEndian, uint32(50))
	frame.Write([]byte{1, 2, 3}) // far short of the declared 50
	if _, err := unlz4(frame.Bytes()); err == nil {
		t.Error("truncated block did not fail")
	}
}

// --- pipeline ---

func TestApplyFiltersReverseOrder(t *testing.T) {
	// Stored pipeline order is shuffle then deflate, so decoding
	// must inflate first and unshuffle second.
	payload := numberedBlock(32, 1)
	stored := deflateBytes(t, shuffleBytes(payload, 4))

	filters := []filterEntry{
		{id: filterShuffle, clients: []uint32{4}},
		{id: filterDeflate},
	}
	got, err := applyFilters(filters, 0, stored, 4)
	if err != nil {
		t.Fatalf("applyFilters: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("pipeline output = %v, want %v", got, payload)
	}
}

func TestApplyFiltersMaskSkips(t *testing.T) {
	// Bit 1 of the mask disables the second filter (deflate), so
	// the stored bytes are only shuffled.
	payload := numberedBlock(32, 1)
	stored := shuffleBytes(payload, 4)

	filters := []filterEntry{
		{id: filterShuffle, clients: []uint32{4}},
		{id: filterDeflate},
	}
	got, err := applyFilters(filters, 1<<1, stored, 4)
	if err != nil {
		t.Fatalf("applyFilters: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("pipeline output = %v, want %v", got, payload)
	}
}

func TestApplyFiltersUnsupported(t *testing.T) {
	filters := []filterEntry{{id: filterSzip}}
	if _, err := applyFilters(filters, 0, []byte{1, 2, 3}, 1); err == nil {
		t.Error("szip chunk did not fail")
	}
}
