// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package hdf5 reads HDF5 files natively, without cgo or the C
// library. It covers the slice of the format that scientific tooling
// writes in practice: superblock versions 0 through 3, version 1 and
// 2 object headers, compact, contiguous, and chunked layouts with
// every chunk index kind, and the deflate, shuffle, fletcher32, and
// lz4 filters. There is no write support.
//
// Implements: prd001-container; docs/ARCHITECTURE § Container.
package hdf5

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

const maxLinkDepth = 40

// File is an open HDF5 file. It is not safe for concurrent use.
type File struct {
	src    io.ReaderAt
	closer io.Closer
	path   string
	size   int64

	rd *reader
	sb *superblock

	headers  map[uint64]*objectHeader
	children map[uint64][]childRef
	gheaps   map[uint64]map[uint16][]byte
}

// Open opens the named file and reads its superblock.
func Open(path string) (*File, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	st, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	f, err := NewReader(fd, st.Size())
	if err != nil {
		fd.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	f.closer = fd
	f.path = path
	return f, nil
}

// NewReader reads an HDF5 file from src, which must cover size
// bytes.
func NewReader(src io.ReaderAt, size int64) (*File, error) {
	base, err := findSuperblock(src, size)
	if err != nil {
		return nil, err
	}
	sb, err := readSuperblock(src, base)
	if err != nil {
		return nil, err
	}
	return &File{
		src:      src,
		size:     size,
		rd:       &reader{src: src, offsetSize: sb.offsetSize, lengthSize: sb.lengthSize},
		sb:       sb,
		headers:  make(map[uint64]*objectHeader),
		children: make(map[uint64][]childRef),
		gheaps:   make(map[uint64]map[uint16][]byte),
	}, nil
}

func (f *File) Close() error {
	if f.closer != nil {
		return f.closer.Close()
	}
	return nil
}

// Path returns the name the file was opened under, if any.
func (f *File) Path() string { return f.path }

// Size returns the byte size given at open.
func (f *File) Size() int64 { return f.size }

// SuperblockVersion is the file's superblock format version, 0
// through 3.
func (f *File) SuperblockVersion() int { return int(f.sb.version) }

// seek positions a reader at a file address, honoring the
// superblock's base offset.
func (f *File) seek(addr uint64) *reader {
	return f.rd.at(f.sb.base + addr)
}

// childRef names one link out of a group. Soft links carry their
// target path instead of an address.
type childRef struct {
	name string
	addr uint64
	soft string
}

// childrenOf lists a group's links, old-style symbol tables and
// new-style link messages alike.
func (f *File) childrenOf(hdr *objectHeader) ([]childRef, error) {
	if refs, ok := f.children[hdr.addr]; ok {
		return refs, nil
	}

	var refs []childRef
	if st := hdr.find(msgSymbolTable); st != nil {
		ptrs, err := f.parseSymbolTable(st.body)
		if err != nil {
			return nil, err
		}
		heap, err := f.readLocalHeap(ptrs.heapAddr)
		if err != nil {
			return nil, err
		}
		entries, err := f.readGroupEntries(ptrs.btreeAddr, heap)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			ref := childRef{name: e.name, addr: e.addr}
			if e.cacheType == 2 {
				off := binary.LittleEndian.Uint32(e.scratch[:4])
				ref.soft = heap.str(uint64(off))
			}
			refs = append(refs, ref)
		}
	} else {
		for _, m := range hdr.findAll(msgLink) {
			ln, err := f.parseLink(m.body)
			if err != nil {
				return nil, err
			}
			refs = append(refs, childRef{name: ln.name, addr: ln.addr, soft: ln.target})
		}
		if len(refs) == 0 {
			if li := hdr.find(msgLinkInfo); li != nil && denseLinksPresent(f, li.body) {
				return nil, fmt.Errorf("%w: densely stored links", ErrUnsupported)
			}
		}
		sort.Slice(refs, func(i, j int) bool { return refs[i].name < refs[j].name })
	}

	f.children[hdr.addr] = refs
	return refs, nil
}

// denseLinksPresent reports whether a link info message points at a
// fractal heap, meaning the group's links live outside the header.
func denseLinksPresent(f *File, body []byte) bool {
	r := f.rd.sub(body)
	r.skip(1) // version
	flags := r.u8()
	if flags&0x1 != 0 {
		r.skip(8) // maximum creation index
	}
	heapAddr := r.offset()
	if r.err != nil {
		return false
	}
	return !undefinedAddr(heapAddr, f.rd.offsetSize)
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" && p != "." {
			parts = append(parts, p)
		}
	}
	return parts
}

// resolve walks path from the root and returns the object header it
// lands on. Soft links are followed, relative targets resolving
// against the link's parent group.
func (f *File) resolve(path string) (*objectHeader, error) {
	root, err := f.readObjectHeader(f.sb.rootAddr)
	if err != nil {
		return nil, err
	}
	hdr, err := f.resolveFrom(root, splitPath(path), 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return hdr, nil
}

func (f *File) resolveFrom(cur *objectHeader, parts []string, depth int) (*objectHeader, error) {
	if depth > maxLinkDepth {
		return nil, fmt.Errorf("link chain deeper than %d", maxLinkDepth)
	}
	for i, part := range parts {
		refs, err := f.childrenOf(cur)
		if err != nil {
			return nil, err
		}
		var ref *childRef
		for j := range refs {
			if refs[j].name == part {
				ref = &refs[j]
				break
			}
		}
		if ref == nil {
			return nil, fmt.Errorf("%q: %w", part, ErrNotFound)
		}
		if ref.soft != "" {
			rest := append(splitPath(ref.soft), parts[i+1:]...)
			start := cur
			if strings.HasPrefix(ref.soft, "/") {
				start, err = f.readObjectHeader(f.sb.rootAddr)
				if err != nil {
					return nil, err
				}
			}
			return f.resolveFrom(start, rest, depth+1)
		}
		cur, err = f.readObjectHeader(ref.addr)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

func isDatasetHeader(hdr *objectHeader) bool {
	return hdr.find(msgDatatype) != nil && hdr.find(msgDataspace) != nil && hdr.find(msgDataLayout) != nil
}

// Root returns the root group.
func (f *File) Root() (*Group, error) {
	return f.Group("/")
}

// Group opens the group at path.
func (f *File) Group(path string) (*Group, error) {
	hdr, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	if isDatasetHeader(hdr) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotGroup)
	}
	return &Group{file: f, path: canonicalPath(path), hdr: hdr}, nil
}

// Dataset opens the dataset at path.
func (f *File) Dataset(path string) (*Dataset, error) {
	hdr, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	return f.datasetFrom(hdr, canonicalPath(path))
}

// Attributes returns the attributes of the object at path, values
// decoded.
func (f *File) Attributes(path string) (map[string]any, error) {
	hdr, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	return f.attributesOf(hdr)
}

func canonicalPath(path string) string {
	parts := splitPath(path)
	if len(parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(parts, "/")
}

// VisitDatasets walks the tree depth first, children in listing
// order, and calls fn for every dataset. Soft links are followed;
// cycles break on object header addresses. Broken links are
// skipped.
func (f *File) VisitDatasets(fn func(*Dataset) error) error {
	root, err := f.readObjectHeader(f.sb.rootAddr)
	if err != nil {
		return err
	}
	seen := make(map[uint64]bool)
	return f.visit(root, "", seen, fn, nil)
}

// VisitGroups walks the tree the same way and calls fn for every
// group below the root.
func (f *File) VisitGroups(fn func(*Group) error) error {
	root, err := f.readObjectHeader(f.sb.rootAddr)
	if err != nil {
		return err
	}
	seen := make(map[uint64]bool)
	return f.visit(root, "", seen, nil, fn)
}

func (f *File) visit(hdr *objectHeader, prefix string, seen map[uint64]bool, dsFn func(*Dataset) error, gFn func(*Group) error) error {
	if seen[hdr.addr] {
		return nil
	}
	seen[hdr.addr] = true
	defer delete(seen, hdr.addr)

	visitDataset := func(h *objectHeader, path string) error {
		if dsFn == nil {
			return nil
		}
		d, err := f.datasetFrom(h, path)
		if err != nil {
			return err
		}
		return dsFn(d)
	}
	visitGroup := func(h *objectHeader, path string) error {
		if gFn == nil {
			return nil
		}
		return gFn(&Group{file: f, path: path, hdr: h})
	}

	refs, err := f.childrenOf(hdr)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		path := prefix + "/" + ref.name
		child := ref
		if child.soft != "" {
			target, err := f.resolve(resolveSoft(prefix, child.soft))
			if err != nil {
				continue
			}
			if seen[target.addr] {
				continue
			}
			if isDatasetHeader(target) {
				if err := visitDataset(target, path); err != nil {
					return err
				}
				continue
			}
			if err := visitGroup(target, path); err != nil {
				return err
			}
			if err := f.visit(target, path, seen, dsFn, gFn); err != nil {
				return err
			}
			continue
		}
		chdr, err := f.readObjectHeader(child.addr)
		if err != nil {
			return err
		}
		if isDatasetHeader(chdr) {
			if err := visitDataset(chdr, path); err != nil {
				return err
			}
			continue
		}
		if err := visitGroup(chdr, path); err != nil {
			return err
		}
		if err := f.visit(chdr, path, seen, dsFn, gFn); err != nil {
			return err
		}
	}
	return nil
}

func resolveSoft(parent, target string) string {
	if strings.HasPrefix(target, "/") {
		return target
	}
	return parent + "/" + target
}
