// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package frame resolves datasets into exportable tables with named
// columns. Block values written by pandas HDFStore, compound
// datasets, and bare arrays all surface through the same Table type.
// Implements: prd003-frames; docs/ARCHITECTURE § Frames.
package frame

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pdiddy/h5cruncher/internal/hdf5"
)

// Kind identifies how a dataset maps onto a table.
type Kind int

const (
	// KindBlock is a pandas HDFStore fixed-format block: 2-D values
	// whose column labels live in a sibling items dataset.
	KindBlock Kind = iota
	// KindCompound exposes one column per compound member.
	KindCompound
	// KindMatrix is a bare 2-D dataset.
	KindMatrix
	// KindVector is a bare 1-D or scalar dataset.
	KindVector
)

func (k Kind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindCompound:
		return "compound"
	case KindMatrix:
		return "matrix"
	default:
		return "vector"
	}
}

// Table is a dataset resolved into rows and named columns.
type Table struct {
	ds   *hdf5.Dataset
	kind Kind

	columns []string
	rows    uint64

	// transposed marks block values stored (ncols, nrows), the
	// pandas standard orientation.
	transposed bool

	// order maps output column position to source column index; nil
	// means identity.
	order []int
}

// Resolve opens the dataset at path and determines its tabular
// shape. HDFStore blocks resolve against their sibling label
// datasets; everything else falls back to the bare-array rules.
func Resolve(f *hdf5.File, path string) (*Table, error) {
	ds, err := f.Dataset(path)
	if err != nil {
		return nil, err
	}
	if t := resolveStore(f, ds); t != nil {
		return t, nil
	}
	return resolveBare(f, ds)
}

func resolveBare(f *hdf5.File, ds *hdf5.Dataset) (*Table, error) {
	if ds.IsCompound() {
		if ds.NDim() > 1 {
			return nil, fmt.Errorf("%s: %d-dimensional compound data does not map to a table",
				ds.Path(), ds.NDim())
		}
		fields := ds.Fields()
		cols := make([]string, len(fields))
		for i, fd := range fields {
			cols[i] = fd.Name
		}
		return &Table{ds: ds, kind: KindCompound, columns: cols, rows: ds.Len()}, nil
	}

	switch ds.NDim() {
	case 0, 1:
		return &Table{ds: ds, kind: KindVector, columns: []string{ds.Name()}, rows: ds.Len()}, nil
	case 2:
		dims := ds.Shape()
		cols := siblingLabels(f, ds, dims[1])
		if cols == nil {
			cols = make([]string, dims[1])
			for i := range cols {
				cols[i] = "col_" + strconv.Itoa(i)
			}
		}
		return &Table{ds: ds, kind: KindMatrix, columns: cols, rows: dims[0]}, nil
	default:
		return nil, fmt.Errorf("%s: %d-dimensional data does not map to a table",
			ds.Path(), ds.NDim())
	}
}

// siblingLabels looks beside ds for a 1-D string dataset whose
// length matches the column count and reads it as column labels.
func siblingLabels(f *hdf5.File, ds *hdf5.Dataset, ncols uint64) []string {
	g, err := f.Group(parentPath(ds.Path()))
	if err != nil {
		return nil
	}
	entries, err := g.Entries()
	if err != nil {
		return nil
	}
	for _, e := range entries {
		if !e.IsDataset || e.Path == ds.Path() {
			continue
		}
		sib, err := f.Dataset(e.Path)
		if err != nil {
			continue
		}
		if sib.NDim() != 1 || !sib.IsString() || sib.Len() != ncols {
			continue
		}
		return readLabels(sib)
	}
	return nil
}

func readLabels(ds *hdf5.Dataset) []string {
	vals, err := ds.ReadAll()
	if err != nil {
		return nil
	}
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = Cell(v)
	}
	return out
}

func (t *Table) Path() string { return t.ds.Path() }

func (t *Table) Name() string { return t.ds.Name() }

func (t *Table) Kind() Kind { return t.kind }

// Columns returns the column names in output order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Rows is the table's row count.
func (t *Table) Rows() uint64 { return t.rows }

// Dataset exposes the backing values dataset.
func (t *Table) Dataset() *hdf5.Dataset { return t.ds }

// ReadRows reads count table rows starting at start, cells rendered
// as text. Requests past the last row clamp to it.
func (t *Table) ReadRows(start, count uint64) ([][]string, error) {
	cells, err := t.ReadCells(start, count)
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(cells))
	for i, row := range cells {
		r := make([]string, len(row))
		for j, v := range row {
			r[j] = Cell(v)
		}
		out[i] = r
	}
	return out, nil
}

// ReadCells is ReadRows with the decoded values left unrendered, for
// callers with their own formatting rules.
func (t *Table) ReadCells(start, count uint64) ([][]any, error) {
	if start > t.rows {
		start = t.rows
	}
	if start+count > t.rows {
		count = t.rows - start
	}
	if count == 0 {
		return nil, nil
	}

	switch t.kind {
	case KindCompound:
		return t.readCompound(start, count)
	case KindVector:
		vals, err := t.ds.ReadRows(start, count)
		if err != nil {
			return nil, err
		}
		out := make([][]any, len(vals))
		for i, v := range vals {
			out[i] = []any{v}
		}
		return out, nil
	default:
		return t.readColumns(start, count)
	}
}

func (t *Table) readCompound(start, count uint64) ([][]any, error) {
	vals, err := t.ds.ReadRows(start, count)
	if err != nil {
		return nil, err
	}
	fields := t.ds.Fields()
	out := make([][]any, len(vals))
	for i, v := range vals {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: row %d decoded as %T, want compound", t.Path(), start+uint64(i), v)
		}
		cells := make([]any, len(fields))
		for j, fd := range fields {
			cells[j] = m[fd.Name]
		}
		out[i] = cells
	}
	return out, nil
}

// readColumns reads 2-D data in either orientation and reorders the
// cells into output column order.
func (t *Table) readColumns(start, count uint64) ([][]any, error) {
	src := t.srcCols()
	var vals []any
	var err error
	if t.transposed {
		// Rows lie along axis 1: take every source column's slice of
		// the requested rows.
		vals, err = t.ds.ReadSlice([]uint64{0, start}, []uint64{src, count})
	} else {
		vals, err = t.ds.ReadRows(start, count)
	}
	if err != nil {
		return nil, err
	}

	n := int(count)
	ncols := len(t.columns)
	out := make([][]any, n)
	for i := 0; i < n; i++ {
		cells := make([]any, ncols)
		for j := 0; j < ncols; j++ {
			sj := t.srcIndex(j)
			if t.transposed {
				cells[j] = vals[sj*n+i]
			} else {
				cells[j] = vals[i*int(src)+sj]
			}
		}
		out[i] = cells
	}
	return out, nil
}

func (t *Table) srcCols() uint64 {
	dims := t.ds.Shape()
	if t.transposed {
		return dims[0]
	}
	return dims[1]
}

func (t *Table) srcIndex(j int) int {
	if t.order == nil {
		return j
	}
	return t.order[j]
}

// Cell renders one decoded element as cell text. Floats keep full
// round-trip precision so exported values survive re-parsing.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

// Numeric reports the float64 view of a decoded cell value, false
// for strings and other non-numeric cells.
func Numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func parentPath(path string) string {
	i := strings.LastIndex(path, "/")
	if i <= 0 {
		return "/"
	}
	return path[:i]
}
