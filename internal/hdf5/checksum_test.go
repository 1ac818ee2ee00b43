// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

import "testing"

func TestLookup3KnownVectors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want uint32
	}{
		{name: "empty", data: "", want: 0xdeadbeef},
		{name: "jenkins phrase", data: "Four score and seven years ago", want: 0x17770551},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lookup3([]byte(tt.data)); got != tt.want {
				t.Errorf("lookup3(%q) = %08x, want %08x", tt.data, got, tt.want)
			}
		})
	}
}

func TestLookup3BlockBoundaries(t *testing.T) {
	// Lengths straddling the 12-byte mixing block must all hash
	// without panicking and produce distinct values.
	seen := make(map[uint32]int)
	for n := 0; n <= 40; n++ {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i * 7)
		}
		h := lookup3(data)
		if prev, dup := seen[h]; dup {
			t.Fatalf("lengths %d and %d collide on %08x", prev, n, h)
		}
		seen[h] = n
	}
}

func TestFletcher32(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint32
	}{
		{name: "empty", data: nil, want: 0},
		{name: "single byte", data: []byte{0xab}, want: 0xab00ab00},
		{name: "two words", data: []byte{0xde, 0xad, 0xbe, 0xef}, want: 0x7c4b9d9d},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fletcher32(tt.data); got != tt.want {
				t.Errorf("fletcher32(% x) = %08x, want %08x", tt.data, got, tt.want)
			}
		})
	}
}

func TestFletcher32LongInput(t *testing.T) {
	// Cross the 360-word reduction block to exercise the overflow
	// folding.
	data := make([]byte, 4096)
	for i := range data {
		data[i] = 0xff
	}
	got := fletcher32(data)
	if got>>16 == 0 || got&0xffff == 0 {
		t.Errorf("fletcher32 over 0xff bytes = %08x, want both halves nonzero", got)
	}
	// The checksum must differ once any byte changes.
	data[100] = 0x00
	if again := fletcher32(data); again == got {
		t.Errorf("checksum unchanged after corruption: %08x", again)
	}
}
