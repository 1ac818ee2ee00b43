// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

import (
	"fmt"
	"strings"
)

// Dataset is an open dataset. Metadata is parsed eagerly; element
// data reads on demand.
type Dataset struct {
	file *File
	path string
	hdr  *objectHeader

	dt      *datatype
	ds      *dataspace
	layout  *dataLayout
	filters []filterEntry
	fill    *fillValue

	chunks []chunkEntry // lazily built chunk index
}

// Field describes one member of a compound element type.
type Field struct {
	Name string
	Type string
}

func (f *File) datasetFrom(hdr *objectHeader, path string) (*Dataset, error) {
	dtm := hdr.find(msgDatatype)
	dsm := hdr.find(msgDataspace)
	lom := hdr.find(msgDataLayout)
	if dtm == nil || dsm == nil || lom == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNotDataset)
	}
	if hdr.find(msgExternalFiles) != nil {
		return nil, fmt.Errorf("%s: %w: externally stored data", path, ErrUnsupported)
	}

	dt, err := parseDatatype(f.rd.sub(dtm.body))
	if err != nil {
		return nil, fmt.Errorf("%s: datatype: %w", path, err)
	}
	ds, err := parseDataspace(f.rd.sub(dsm.body))
	if err != nil {
		return nil, fmt.Errorf("%s: dataspace: %w", path, err)
	}
	lo, err := f.parseDataLayout(lom.body)
	if err != nil {
		return nil, fmt.Errorf("%s: layout: %w", path, err)
	}
	if lo.class == layoutChunked && len(lo.chunkDims) != len(ds.dims) {
		return nil, fmt.Errorf("%s: chunk rank %d does not match dataspace rank %d",
			path, len(lo.chunkDims), len(ds.dims))
	}

	d := &Dataset{file: f, path: path, hdr: hdr, dt: dt, ds: ds, layout: lo}
	if fm := hdr.find(msgFilterPipeline); fm != nil {
		d.filters, err = f.parseFilterPipeline(fm.body)
		if err != nil {
			return nil, fmt.Errorf("%s: filters: %w", path, err)
		}
	}
	if fv := hdr.find(msgFillValue); fv != nil {
		// An unparseable fill value only loses the default for
		// unwritten storage; the dataset stays readable.
		if parsed, err := parseFillValue(f.rd.sub(fv.body)); err == nil && parsed.defined {
			d.fill = parsed
		}
	}
	return d, nil
}

func (d *Dataset) Path() string { return d.path }

func (d *Dataset) Name() string {
	return d.path[strings.LastIndex(d.path, "/")+1:]
}

// Shape returns the dataset dimensions. Scalars have no dimensions.
func (d *Dataset) Shape() []uint64 {
	return append([]uint64(nil), d.ds.dims...)
}

// Unlimited marks an axis without an upper bound in MaxShape results.
const Unlimited = ^uint64(0)

// MaxShape returns the per-axis maximum extents. Growable axes
// report Unlimited; datasets written without explicit maxima report
// their current shape.
func (d *Dataset) MaxShape() []uint64 {
	if d.ds.maxDims == nil {
		return d.Shape()
	}
	out := make([]uint64, len(d.ds.maxDims))
	for i, m := range d.ds.maxDims {
		if undefinedAddr(m, d.file.rd.lengthSize) {
			m = Unlimited
		}
		out[i] = m
	}
	return out
}

// FillValue returns the declared fill value decoded like an element
// read, or false when the dataset defines none.
func (d *Dataset) FillValue() (any, bool) {
	if d.fill == nil || len(d.fill.value) != d.dt.size {
		return nil, false
	}
	vals, err := d.file.decodeElements(d.fill.value, d.dt, 1)
	if err != nil || len(vals) != 1 {
		return nil, false
	}
	return vals[0], true
}

func (d *Dataset) NDim() int { return len(d.ds.dims) }

// Len is the extent of the first axis, the row count of tabular
// data. Scalars report one.
func (d *Dataset) Len() uint64 {
	if len(d.ds.dims) == 0 {
		return 1
	}
	return d.ds.dims[0]
}

// NumElements is the total element count across all axes.
func (d *Dataset) NumElements() uint64 { return d.ds.numElements() }

// TypeName renders the element type, such as int64, float32,
// string(16), or compound(3 fields).
func (d *Dataset) TypeName() string { return d.dt.describe() }

// ElemSize is the on-disk size of one element in bytes.
func (d *Dataset) ElemSize() int { return d.dt.size }

func (d *Dataset) IsCompound() bool { return d.dt.class == classCompound }

// IsString reports whether elements decode to text, covering fixed
// and variable-length strings.
func (d *Dataset) IsString() bool {
	return d.dt.class == classString || (d.dt.class == classVlen && d.dt.vlenString)
}

// IsNumeric reports whether elements decode to integers or floats.
func (d *Dataset) IsNumeric() bool {
	switch d.dt.class {
	case classFixed, classFloat, classBitfield:
		return true
	}
	return false
}

// Fields lists compound member names and types in declaration
// order. Non-compound datasets have none.
func (d *Dataset) Fields() []Field {
	out := make([]Field, 0, len(d.dt.members))
	for _, m := range d.dt.members {
		out = append(out, Field{Name: m.name, Type: m.typ.describe()})
	}
	return out
}

// ChunkShape returns the chunk dimensions, or nil for unchunked
// layouts.
func (d *Dataset) ChunkShape() []uint64 {
	if d.layout.class != layoutChunked {
		return nil
	}
	out := make([]uint64, len(d.layout.chunkDims))
	for i, c := range d.layout.chunkDims {
		out[i] = uint64(c)
	}
	return out
}

// Filters names the dataset's filter pipeline in application order.
func (d *Dataset) Filters() []string {
	out := make([]string, 0, len(d.filters))
	for _, fe := range d.filters {
		out = append(out, fe.describe())
	}
	return out
}

// Attrs returns the dataset's attributes with values decoded.
func (d *Dataset) Attrs() (map[string]any, error) {
	return d.file.attributesOf(d.hdr)
}

// Attr fetches a single attribute value.
func (d *Dataset) Attr(name string) (any, bool) {
	attrs, err := d.file.attributesOf(d.hdr)
	if err != nil {
		return nil, false
	}
	v, ok := attrs[name]
	return v, ok
}

// StorageSize is the number of bytes the elements occupy on disk,
// after any filters.
func (d *Dataset) StorageSize() uint64 {
	switch d.layout.class {
	case layoutCompact:
		return uint64(len(d.layout.compact))
	case layoutContiguous:
		if undefinedAddr(d.layout.addr, d.file.rd.offsetSize) {
			return 0
		}
		if d.layout.size != 0 {
			return d.layout.size
		}
		return d.ds.numElements() * uint64(d.dt.size)
	case layoutChunked:
		chunks, err := d.chunkList()
		if err != nil {
			return 0
		}
		var total uint64
		raw := uint64(d.chunkByteCount())
		for _, ch := range chunks {
			if ch.size != 0 {
				total += uint64(ch.size)
			} else {
				total += raw
			}
		}
		return total
	}
	return 0
}

// ReadAll reads every element, flattened row-major.
func (d *Dataset) ReadAll() ([]any, error) {
	if len(d.ds.dims) == 0 {
		raw, err := d.readRaw(nil, nil)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", d.path, err)
		}
		return d.file.decodeElements(raw, d.dt, 1)
	}
	return d.ReadRows(0, d.ds.dims[0])
}

// ReadRows reads count rows along the first axis starting at start,
// all trailing axes complete, flattened row-major. Requests past the
// end clamp to it.
func (d *Dataset) ReadRows(start, count uint64) ([]any, error) {
	dims := d.ds.dims
	if len(dims) == 0 {
		return d.ReadAll()
	}
	origin := make([]uint64, len(dims))
	extent := append([]uint64(nil), dims...)
	origin[0] = start
	extent[0] = count
	return d.ReadSlice(origin, extent)
}

// ReadSlice reads a rectangular region, start and count giving the
// origin and extent along each axis, flattened row-major. Extents
// past the end of an axis clamp to it.
func (d *Dataset) ReadSlice(start, count []uint64) ([]any, error) {
	dims := d.ds.dims
	if len(start) != len(dims) || len(count) != len(dims) {
		return nil, fmt.Errorf("reading %s: slice rank %d/%d, dataset rank %d",
			d.path, len(start), len(count), len(dims))
	}
	if len(dims) == 0 {
		return d.ReadAll()
	}

	origin := make([]uint64, len(dims))
	shape := make([]uint64, len(dims))
	n := uint64(1)
	for i := range dims {
		origin[i] = min(start[i], dims[i])
		shape[i] = min(count[i], dims[i]-origin[i])
		n *= shape[i]
	}
	if n == 0 {
		return nil, nil
	}

	raw, err := d.readRaw(origin, shape)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", d.path, err)
	}
	return d.file.decodeElements(raw, d.dt, int(n))
}

// readRaw returns the packed bytes of the hyperslab described by
// start and shape. A nil shape reads a scalar's single element.
func (d *Dataset) readRaw(start, shape []uint64) ([]byte, error) {
	switch d.layout.class {
	case layoutCompact:
		return d.readCompact(start, shape)
	case layoutContiguous:
		return d.readContiguous(start, shape)
	case layoutChunked:
		return d.readChunked(start, shape)
	}
	return nil, fmt.Errorf("%w: layout class %d", ErrUnsupported, d.layout.class)
}

func (d *Dataset) readCompact(start, shape []uint64) ([]byte, error) {
	es := d.dt.size
	if len(shape) == 0 {
		if len(d.layout.compact) < es {
			return nil, fmt.Errorf("compact data holds %d bytes, want %d", len(d.layout.compact), es)
		}
		return d.layout.compact[:es], nil
	}
	want := int(d.ds.numElements()) * es
	if len(d.layout.compact) < want {
		return nil, fmt.Errorf("compact data holds %d bytes, want %d", len(d.layout.compact), want)
	}
	out := make([]byte, blockBytes(shape, es))
	copyHyperslab(out, start, shape, d.layout.compact, make([]uint64, len(d.ds.dims)), d.ds.dims, es)
	return out, nil
}

func (d *Dataset) readContiguous(start, shape []uint64) ([]byte, error) {
	es := uint64(d.dt.size)
	if undefinedAddr(d.layout.addr, d.file.rd.offsetSize) {
		// Never allocated: every element is the fill value.
		return d.fillBytes(shape), nil
	}
	if len(shape) == 0 {
		r := d.file.seek(d.layout.addr)
		b := r.bytes(int(es))
		if r.err != nil {
			return nil, r.err
		}
		return b, nil
	}

	dims := d.ds.dims
	rowElems := uint64(1)
	for _, dim := range dims[1:] {
		rowElems *= dim
	}

	// A slab that spans the trailing axes completely is one
	// contiguous byte range.
	full := true
	for i := 1; i < len(dims); i++ {
		if start[i] != 0 || shape[i] != dims[i] {
			full = false
			break
		}
	}
	if full {
		off := start[0] * rowElems * es
		n := shape[0] * rowElems * es
		r := d.file.seek(d.layout.addr + off)
		b := r.bytes(int(n))
		if r.err != nil {
			return nil, r.err
		}
		return b, nil
	}

	// Otherwise read the bounding rows and extract.
	bStart := append([]uint64(nil), start...)
	bShape := append([]uint64(nil), shape...)
	for i := 1; i < len(dims); i++ {
		bStart[i] = 0
		bShape[i] = dims[i]
	}
	off := bStart[0] * rowElems * es
	r := d.file.seek(d.layout.addr + off)
	raw := r.bytes(int(bShape[0] * rowElems * es))
	if r.err != nil {
		return nil, r.err
	}
	out := make([]byte, blockBytes(shape, int(es)))
	copyHyperslab(out, start, shape, raw, bStart, bShape, int(es))
	return out, nil
}

func (d *Dataset) readChunked(start, shape []uint64) ([]byte, error) {
	es := d.dt.size
	out := d.fillBytes(shape)
	chunks, err := d.chunkList()
	if err != nil {
		return nil, err
	}

	cdims := make([]uint64, len(d.layout.chunkDims))
	for i, c := range d.layout.chunkDims {
		cdims[i] = uint64(c)
	}
	for i := range chunks {
		ch := &chunks[i]
		if !blocksOverlap(ch.offsets, cdims, start, shape) {
			continue
		}
		raw, err := d.readChunkData(ch)
		if err != nil {
			return nil, err
		}
		copyHyperslab(out, start, shape, raw, ch.offsets, cdims, es)
	}
	return out, nil
}

// chunkList builds the chunk index on first use.
func (d *Dataset) chunkList() ([]chunkEntry, error) {
	if d.chunks != nil {
		return d.chunks, nil
	}
	if undefinedAddr(d.layout.addr, d.file.rd.offsetSize) {
		d.chunks = []chunkEntry{}
		return d.chunks, nil
	}

	var (
		list []chunkEntry
		err  error
	)
	switch d.layout.indexType {
	case chunkIndexBTreeV1:
		list, err = d.file.readChunkTree(d.layout.addr, len(d.layout.chunkDims))
	case chunkIndexSingle:
		list = d.singleChunk()
	case chunkIndexImplicit:
		list = d.implicitChunks()
	case chunkIndexFixedArray:
		list, err = d.file.readFixedArrayIndex(d.layout, d.ds.dims)
	case chunkIndexExtensibleArray:
		list, err = d.file.readExtensibleArrayIndex(d.layout, d.ds.dims)
	case chunkIndexBTreeV2:
		list, err = d.file.readChunkTreeV2(d.layout, d.ds.dims)
	default:
		err = fmt.Errorf("%w: chunk index type %d", ErrUnsupported, d.layout.indexType)
	}
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []chunkEntry{}
	}
	d.chunks = list
	return list, nil
}

func (d *Dataset) singleChunk() []chunkEntry {
	e := chunkEntry{
		addr:    d.layout.addr,
		offsets: make([]uint64, len(d.layout.chunkDims)),
	}
	if d.layout.chunkFlags&0x2 != 0 {
		e.size = uint32(d.layout.singleSize)
		e.mask = d.layout.singleMask
	}
	return []chunkEntry{e}
}

// implicitChunks lays chunks out arithmetically: unfiltered chunks
// sit back to back at the layout address in row-major grid order.
func (d *Dataset) implicitChunks() []chunkEntry {
	counts := chunkGridCounts(d.ds.dims, d.layout.chunkDims)
	total := uint64(1)
	for _, c := range counts {
		total *= c
	}
	stride := uint64(d.chunkByteCount())
	out := make([]chunkEntry, 0, total)
	for n := uint64(0); n < total; n++ {
		out = append(out, chunkEntry{
			offsets: chunkOrigin(n, counts, d.layout.chunkDims),
			addr:    d.layout.addr + n*stride,
		})
	}
	return out
}

// chunkByteCount is the unfiltered byte size of one chunk.
func (d *Dataset) chunkByteCount() int {
	n := d.dt.size
	for _, c := range d.layout.chunkDims {
		n *= int(c)
	}
	return n
}

func (d *Dataset) readChunkData(ch *chunkEntry) ([]byte, error) {
	raw := d.chunkByteCount()
	stored := int(ch.size)
	if len(d.filters) == 0 || stored == 0 {
		stored = raw
	}
	r := d.file.seek(ch.addr)
	data := r.bytes(stored)
	if r.err != nil {
		return nil, fmt.Errorf("chunk at %d: %w", ch.addr, r.err)
	}
	if len(d.filters) > 0 {
		out, err := applyFilters(d.filters, ch.mask, data, d.dt.size)
		if err != nil {
			return nil, fmt.Errorf("chunk at %d: %w", ch.addr, err)
		}
		data = out
	}
	if len(data) < raw {
		return nil, fmt.Errorf("chunk at %d: %d bytes after filters, want %d", ch.addr, len(data), raw)
	}
	return data, nil
}

// fillBytes allocates a block prefilled with the fill value, or
// zeros when none is defined.
func (d *Dataset) fillBytes(shape []uint64) []byte {
	es := d.dt.size
	out := make([]byte, blockBytes(shape, es))
	if d.fill != nil && len(d.fill.value) == es && es > 0 {
		for off := 0; off < len(out); off += es {
			copy(out[off:], d.fill.value)
		}
	}
	return out
}

func blockBytes(shape []uint64, elemSize int) uint64 {
	n := uint64(elemSize)
	for _, s := range shape {
		n *= s
	}
	return n
}

func blocksOverlap(aStart, aShape, bStart, bShape []uint64) bool {
	for i := range aStart {
		if aStart[i]+aShape[i] <= bStart[i] || bStart[i]+bShape[i] <= aStart[i] {
			return false
		}
	}
	return true
}
