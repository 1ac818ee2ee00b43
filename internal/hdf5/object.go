// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

import "fmt"

// Header message types.
const (
	msgNil            = 0x00
	msgDataspace      = 0x01
	msgLinkInfo       = 0x02
	msgDatatype       = 0x03
	msgFillValueOld   = 0x04
	msgFillValue      = 0x05
	msgLink           = 0x06
	msgExternalFiles  = 0x07
	msgDataLayout     = 0x08
	msgGroupInfo      = 0x0a
	msgFilterPipeline = 0x0b
	msgAttribute      = 0x0c
	msgContinuation   = 0x10
	msgSymbolTable    = 0x11
	msgAttributeInfo  = 0x15
)

type headerMessage struct {
	kind  uint16
	flags uint8
	body  []byte
}

// objectHeader is a parsed version 1 or 2 object header with its
// continuation blocks folded in. Nil and continuation messages are
// dropped during the read.
type objectHeader struct {
	addr     uint64
	version  uint8
	messages []headerMessage
}

func (h *objectHeader) find(kind uint16) *headerMessage {
	for i := range h.messages {
		if h.messages[i].kind == kind {
			return &h.messages[i]
		}
	}
	return nil
}

func (h *objectHeader) findAll(kind uint16) []headerMessage {
	var out []headerMessage
	for _, m := range h.messages {
		if m.kind == kind {
			out = append(out, m)
		}
	}
	return out
}

func (f *File) readObjectHeader(addr uint64) (*objectHeader, error) {
	if h, ok := f.headers[addr]; ok {
		return h, nil
	}
	r := f.seek(addr)
	ver := r.u8()
	if r.err != nil {
		return nil, fmt.Errorf("object header at %d: %w", addr, r.err)
	}

	var (
		h   *objectHeader
		err error
	)
	if ver == 1 {
		h, err = f.readObjectHeaderV1(addr)
	} else {
		// Version 2 headers open with a signature instead of a
		// version byte.
		h, err = f.readObjectHeaderV2(addr)
	}
	if err != nil {
		return nil, err
	}
	f.headers[addr] = h
	return h, nil
}

func (f *File) readObjectHeaderV1(addr uint64) (*objectHeader, error) {
	r := f.seek(addr)
	r.skip(2) // version, reserved
	total := int(r.u16())
	r.skip(4) // object reference count
	size := r.u32()
	r.skip(4) // padding before the first message
	if r.err != nil {
		return nil, fmt.Errorf("object header at %d: %w", addr, r.err)
	}

	h := &objectHeader{addr: addr, version: 1}
	type span struct {
		start int64
		size  int64
	}
	spans := []span{{start: r.pos, size: int64(size)}}
	seen := 0
	for len(spans) > 0 && seen < total {
		sp := spans[0]
		spans = spans[1:]
		mr := f.rd.at(uint64(sp.start))
		end := sp.start + sp.size
		for mr.pos+8 <= end && seen < total {
			kind := mr.u16()
			bodySize := int(mr.u16())
			flags := mr.u8()
			mr.skip(3) // reserved
			body := mr.bytes(bodySize)
			if mr.err != nil {
				return nil, fmt.Errorf("object header at %d: %w", addr, mr.err)
			}
			seen++
			switch kind {
			case msgNil:
			case msgContinuation:
				cr := f.rd.sub(body)
				off := cr.offset()
				length := cr.length()
				if cr.err != nil {
					return nil, fmt.Errorf("object header at %d: %w", addr, cr.err)
				}
				spans = append(spans, span{start: int64(f.sb.base + off), size: int64(length)})
			default:
				h.messages = append(h.messages, headerMessage{kind: kind, flags: flags, body: body})
			}
		}
	}
	return h, nil
}

func (f *File) readObjectHeaderV2(addr uint64) (*objectHeader, error) {
	r := f.seek(addr)
	r.signature("OHDR")
	if v := r.u8(); r.err == nil && v != 2 {
		return nil, fmt.Errorf("object header at %d: %w: version %d", addr, ErrUnsupported, v)
	}
	flags := r.u8()
	if flags&0x20 != 0 {
		r.skip(16) // access, modification, change, and birth times
	}
	if flags&0x10 != 0 {
		r.skip(4) // compact attribute phase change limits
	}
	chunk0 := int64(r.uintN(1 << (flags & 0x3)))
	if r.err != nil {
		return nil, fmt.Errorf("object header at %d: %w", addr, r.err)
	}
	if err := f.verifyChecksum(int64(f.sb.base+addr), r.pos+chunk0); err != nil {
		return nil, fmt.Errorf("object header at %d: %w", addr, err)
	}

	h := &objectHeader{addr: addr, version: 2}
	hdrSize := int64(4)
	if flags&0x4 != 0 {
		hdrSize += 2 // messages carry creation order
	}
	type span struct {
		start int64
		size  int64
	}
	spans := []span{{start: r.pos, size: chunk0}}
	visited := map[int64]bool{}
	for len(spans) > 0 {
		sp := spans[0]
		spans = spans[1:]
		if visited[sp.start] {
			return nil, fmt.Errorf("object header at %d: continuation cycle", addr)
		}
		visited[sp.start] = true
		mr := f.rd.at(uint64(sp.start))
		end := sp.start + sp.size
		for mr.pos+hdrSize <= end {
			kind := uint16(mr.u8())
			bodySize := int(mr.u16())
			mflags := mr.u8()
			if flags&0x4 != 0 {
				mr.skip(2) // creation order
			}
			body := mr.bytes(bodySize)
			if mr.err != nil {
				return nil, fmt.Errorf("object header at %d: %w", addr, mr.err)
			}
			switch kind {
			case msgNil:
			case msgContinuation:
				cr := f.rd.sub(body)
				off := cr.offset()
				length := int64(cr.length())
				if cr.err != nil {
					return nil, fmt.Errorf("object header at %d: %w", addr, cr.err)
				}
				if length < 12 {
					return nil, fmt.Errorf("object header at %d: continuation block of %d bytes", addr, length)
				}
				// Continuation blocks carry their own signature and
				// trailing checksum around the message run.
				cb := f.seek(off)
				cb.signature("OCHK")
				if cb.err != nil {
					return nil, fmt.Errorf("object header at %d: %w", addr, cb.err)
				}
				msgEnd := int64(f.sb.base+off) + length - 4
				if err := f.verifyChecksum(int64(f.sb.base+off), msgEnd); err != nil {
					return nil, fmt.Errorf("object header at %d: %w", addr, err)
				}
				spans = append(spans, span{start: cb.pos, size: length - 8})
			default:
				h.messages = append(h.messages, headerMessage{kind: kind, flags: mflags, body: body})
			}
		}
	}
	return h, nil
}
