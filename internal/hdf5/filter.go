// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// Registered filter identifiers.
const (
	filterDeflate     = 1
	filterShuffle     = 2
	filterFletcher32  = 3
	filterSzip        = 4
	filterNbit        = 5
	filterScaleOffset = 6
	filterLZ4         = 32004
)

type filterEntry struct {
	id      uint16
	flags   uint16
	name    string
	clients []uint32
}

func (f *File) parseFilterPipeline(body []byte) ([]filterEntry, error) {
	r := f.rd.sub(body)
	ver := r.u8()
	n := int(r.u8())

	var filters []filterEntry
	switch ver {
	case 1:
		r.skip(6) // reserved
		for i := 0; i < n; i++ {
			var fe filterEntry
			fe.id = r.u16()
			nameLen := int(r.u16())
			fe.flags = r.u16()
			values := int(r.u16())
			fe.name = cstring(r.bytes(nameLen))
			for j := 0; j < values; j++ {
				fe.clients = append(fe.clients, r.u32())
			}
			if values%2 == 1 {
				r.skip(4) // client data padding
			}
			if r.err != nil {
				return nil, r.err
			}
			filters = append(filters, fe)
		}
	case 2:
		for i := 0; i < n; i++ {
			var fe filterEntry
			fe.id = r.u16()
			var nameLen int
			if fe.id >= 256 {
				nameLen = int(r.u16())
			}
			fe.flags = r.u16()
			values := int(r.u16())
			if fe.id >= 256 {
				fe.name = cstring(r.bytes(nameLen))
			}
			for j := 0; j < values; j++ {
				fe.clients = append(fe.clients, r.u32())
			}
			if r.err != nil {
				return nil, r.err
			}
			filters = append(filters, fe)
		}
	default:
		if r.err != nil {
			return nil, r.err
		}
		return nil, fmt.Errorf("%w: filter pipeline version %d", ErrUnsupported, ver)
	}
	return filters, nil
}

func (fe filterEntry) describe() string {
	switch fe.id {
	case filterDeflate:
		return "deflate"
	case filterShuffle:
		return "shuffle"
	case filterFletcher32:
		return "fletcher32"
	case filterSzip:
		return "szip"
	case filterNbit:
		return "nbit"
	case filterScaleOffset:
		return "scaleoffset"
	case filterLZ4:
		return "lz4"
	}
	if fe.name != "" {
		return fe.name
	}
	return fmt.Sprintf("filter-%d", fe.id)
}

// applyFilters undoes the pipeline on one stored chunk. Filters run
// in reverse of pipeline order; bit i of mask marks filter i as
// skipped for this chunk.
func applyFilters(filters []filterEntry, mask uint32, data []byte, elemSize int) ([]byte, error) {
	var err error
	for i := len(filters) - 1; i >= 0; i-- {
		if mask&(1<<uint(i)) != 0 {
			continue
		}
		fe := filters[i]
		switch fe.id {
		case filterDeflate:
			data, err = inflate(data)
		case filterShuffle:
			size := elemSize
			if len(fe.clients) > 0 {
				size = int(fe.clients[0])
			}
			data = unshuffle(data, size)
		case filterFletcher32:
			data, err = checkFletcher32(data)
		case filterLZ4:
			data, err = unlz4(data)
		default:
			err = fmt.Errorf("%w: %s filter", ErrUnsupported, fe.describe())
		}
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

func inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("inflating chunk: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflating chunk: %w", err)
	}
	return out, nil
}

// unshuffle regroups byte-transposed data: the shuffle filter stores
// all first bytes, then all second bytes, and so on.
func unshuffle(data []byte, elemSize int) []byte {
	if elemSize <= 1 || len(data)%elemSize != 0 {
		return data
	}
	n := len(data) / elemSize
	out := make([]byte, len(data))
	for j := 0; j < elemSize; j++ {
		for i := 0; i < n; i++ {
			out[i*elemSize+j] = data[j*n+i]
		}
	}
	return out
}

// checkFletcher32 verifies and strips the 4-byte checksum appended
// to the chunk.
func checkFletcher32(data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("fletcher32: chunk shorter than its checksum")
	}
	payload := data[:len(data)-4]
	stored := binary.LittleEndian.Uint32(data[len(data)-4:])
	if got := fletcher32(payload); got != stored {
		return nil, fmt.Errorf("fletcher32 mismatch: computed %08x, stored %08x", got, stored)
	}
	return payload, nil
}

// unlz4 decodes the registered lz4 filter framing: a big-endian
// total size and block size, then length-prefixed lz4 blocks. A
// block whose stored length equals its decoded length is raw.
func unlz4(data []byte) ([]byte, error) {
	if len(data) < 12 {
		return nil, fmt.Errorf("lz4: truncated header")
	}
	total := binary.BigEndian.Uint64(data)
	blockSize := uint64(binary.BigEndian.Uint32(data[8:]))
	if blockSize == 0 {
		blockSize = total
	}

	out := make([]byte, 0, total)
	rest := data[12:]
	for uint64(len(out)) < total {
		if len(rest) < 4 {
			return nil, fmt.Errorf("lz4: truncated block header")
		}
		n := int(binary.BigEndian.Uint32(rest))
		rest = rest[4:]
		if n < 0 || n > len(rest) {
			return nil, fmt.Errorf("lz4: block length %d exceeds remaining %d bytes", n, len(rest))
		}
		want := blockSize
		if remaining := total - uint64(len(out)); remaining < want {
			want = remaining
		}
		if uint64(n) == want {
			// Stored without compression.
			out = append(out, rest[:n]...)
		} else {
			dst := make([]byte, want)
			m, err := lz4.UncompressBlock(rest[:n], dst)
			if err != nil {
				return nil, fmt.Errorf("lz4: %w", err)
			}
			out = append(out, dst[:m]...)
		}
		rest = rest[n:]
	}
	return out, nil
}
