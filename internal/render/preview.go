// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pdiddy/h5cruncher/internal/frame"
	"github.com/pdiddy/h5cruncher/internal/hdf5"
)

// DefaultPreviewLimit caps how many elements a preview materializes.
const DefaultPreviewLimit = 10000

// previewCols caps how many columns a table preview shows.
const previewCols = 20

// previewCellWidth caps one rendered cell in a table preview.
const previewCellWidth = 15

// Preview writes a bounded rendering of the dataset at path: tables
// as aligned grids with a header row, vectors as numbered lines, and
// higher-rank data as a summary over a leading sample.
func Preview(w io.Writer, f *hdf5.File, path string, limit int) error {
	ds, err := f.Dataset(path)
	if err != nil {
		return err
	}
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	if ds.NumElements() == 0 {
		fmt.Fprintln(w, "Empty dataset")
		return nil
	}
	if ds.NDim() >= 3 {
		return previewND(w, ds, limit)
	}
	tab, err := frame.Resolve(f, path)
	if err != nil {
		return previewND(w, ds, limit)
	}
	if tab.Kind() == frame.KindVector {
		return previewVector(w, tab, ds, limit)
	}
	if uint64(len(tab.Columns())) > uint64(limit) {
		return previewWide(w, ds, limit)
	}
	return previewTable(w, tab, ds, limit)
}

func previewVector(w io.Writer, tab *frame.Table, ds *hdf5.Dataset, limit int) error {
	total := tab.Rows()
	n := uint64(limit)
	if n > total {
		n = total
	}
	cells, err := tab.ReadCells(0, n)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, vectorHeader(ds))
	fmt.Fprintln(w, strings.Repeat("-", 50))
	for i, row := range cells {
		fmt.Fprintf(w, "[%4d]  %s\n", i, previewCell(row[0], 80))
	}
	if uint64(len(cells)) < total {
		fmt.Fprintf(w, "\n... (showing first %d of %d total elements)\n", len(cells), total)
	}
	return nil
}

func previewTable(w io.Writer, tab *frame.Table, ds *hdf5.Dataset, limit int) error {
	cols := tab.Columns()
	totalRows := tab.Rows()

	rows := uint64(limit) / uint64(len(cols))
	if rows == 0 {
		rows = 1
	}
	if rows > totalRows {
		rows = totalRows
	}
	cells, err := tab.ReadCells(0, rows)
	if err != nil {
		return err
	}

	shown := len(cols)
	if shown > previewCols {
		shown = previewCols
	}

	// Column width is the widest rendered cell, header included,
	// capped at previewCellWidth.
	widths := make([]int, shown)
	heads := make([]string, shown)
	for j := range heads {
		heads[j] = truncate(cols[j], previewCellWidth)
		widths[j] = len(heads[j])
	}
	rendered := make([][]string, len(cells))
	for i, row := range cells {
		r := make([]string, shown)
		for j := 0; j < shown; j++ {
			s := previewCell(row[j], previewCellWidth)
			if len(s) > widths[j] {
				widths[j] = len(s)
			}
			r[j] = s
		}
		rendered[i] = r
	}

	fmt.Fprintln(w, tableHeader(ds))
	fmt.Fprintln(w, strings.Repeat("-", 50))
	parts := make([]string, shown)
	for j, h := range heads {
		parts[j] = fmt.Sprintf("%*s", widths[j], h)
	}
	fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", 8), strings.Join(parts, "  "))
	for i, r := range rendered {
		for j, s := range r {
			parts[j] = fmt.Sprintf("%*s", widths[j], s)
		}
		fmt.Fprintf(w, "[%4d]  %s\n", i, strings.Join(parts, "  "))
	}

	if uint64(len(rendered)) < totalRows {
		fmt.Fprintf(w, "\n... (showing first %d rows of %d total rows)\n", len(rendered), totalRows)
	}
	if shown < len(cols) {
		fmt.Fprintf(w, "\n... (showing first %d of %d total columns)\n", shown, len(cols))
	}
	return nil
}

// previewWide handles rows too wide for the element cap by showing
// the first stored column.
func previewWide(w io.Writer, ds *hdf5.Dataset, limit int) error {
	dims := ds.Shape()
	rows := dims[0]
	if rows > uint64(limit) {
		rows = uint64(limit)
	}
	vals, err := ds.ReadSlice([]uint64{0, 0}, []uint64{rows, 1})
	if err != nil {
		return err
	}
	fmt.Fprintln(w, vectorHeader(ds))
	fmt.Fprintln(w, strings.Repeat("-", 50))
	for i, v := range vals {
		fmt.Fprintf(w, "[%4d]  %s\n", i, previewCell(v, 80))
	}
	fmt.Fprintf(w, "\n... (showing first 1 of %d total columns)\n", dims[1])
	return nil
}

func previewND(w io.Writer, ds *hdf5.Dataset, limit int) error {
	dims := ds.Shape()
	rowElems := uint64(1)
	for _, d := range dims[1:] {
		rowElems *= d
	}
	rows := dims[0]
	if rowElems > 0 {
		need := (uint64(limit) + rowElems - 1) / rowElems
		if need < rows {
			rows = need
		}
	}
	vals, err := ds.ReadRows(0, rows)
	if err != nil {
		return err
	}
	if len(vals) > limit {
		vals = vals[:limit]
	}

	if ds.IsString() {
		fmt.Fprintf(w, "String Array (%dD, flattened view):\n", ds.NDim())
		fmt.Fprintln(w, strings.Repeat("-", 50))
		for i, v := range vals {
			fmt.Fprintf(w, "[%4d]  %s\n", i, previewCell(v, 80))
		}
		if uint64(len(vals)) < ds.NumElements() {
			fmt.Fprintf(w, "\n... (showing first %d of %d total elements)\n", len(vals), ds.NumElements())
		}
		return nil
	}

	if ds.IsNumeric() {
		fmt.Fprintf(w, "Numeric Array (%dD):\n", ds.NDim())
		fmt.Fprintln(w, strings.Repeat("-", 50))
		fmt.Fprintf(w, "Shape: %s\n", formatDims(dims))
		if st, ok := sampleStats(vals); ok {
			fmt.Fprintf(w, "Min: %.6g\n", st.min)
			fmt.Fprintf(w, "Max: %.6g\n", st.max)
			fmt.Fprintf(w, "Mean: %.6g\n", st.mean)
			fmt.Fprintf(w, "Std: %.6g\n", st.std)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Sample values (flattened):")
		n := len(vals)
		if n > 100 {
			n = 100
		}
		for i := 0; i < n; i++ {
			fmt.Fprintf(w, "[%4d]  %s\n", i, previewCell(vals[i], 80))
		}
		if len(vals) > n {
			fmt.Fprintf(w, "... (showing first %d of %d total elements)\n", n, len(vals))
		}
		return nil
	}

	fmt.Fprintf(w, "Dataset Array (%dD):\n", ds.NDim())
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "Shape: %s\n", formatDims(dims))
	fmt.Fprintf(w, "Data type: %s\n", ds.TypeName())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sample values (flattened):")
	n := len(vals)
	if n > 50 {
		n = 50
	}
	for i := 0; i < n; i++ {
		fmt.Fprintf(w, "[%4d]  %s\n", i, previewCell(vals[i], 80))
	}
	if len(vals) > n {
		fmt.Fprintf(w, "... (showing first %d of %d total elements)\n", n, len(vals))
	}
	return nil
}

func vectorHeader(ds *hdf5.Dataset) string {
	switch {
	case ds.IsString():
		return "String Values:"
	case ds.IsNumeric():
		return "Numeric Values:"
	default:
		return "Dataset Values:"
	}
}

func tableHeader(ds *hdf5.Dataset) string {
	switch {
	case ds.IsString():
		return "String Array (2D):"
	case ds.IsNumeric():
		return "Numeric Array (2D):"
	default:
		return "Dataset Contents:"
	}
}

// previewCell renders one value for display: integers plainly,
// floats with six significant digits, anything else through Sprint
// with a width cap.
func previewCell(v any, maxw int) string {
	var s string
	switch x := v.(type) {
	case nil:
		s = ""
	case string:
		s = x
	case int64:
		s = strconv.FormatInt(x, 10)
	case uint64:
		s = strconv.FormatUint(x, 10)
	case float64:
		s = fmt.Sprintf("%.6g", x)
	case []byte:
		s = string(x)
	default:
		s = fmt.Sprint(x)
	}
	if maxw > 3 && len(s) > maxw {
		s = s[:maxw-3] + "..."
	}
	return s
}

type sampleMoments struct {
	min, max, mean, std float64
}

// sampleStats computes min/max/mean/std over the numeric values in
// the sample. Std is the population form.
func sampleStats(vals []any) (sampleMoments, bool) {
	var st sampleMoments
	n := 0
	for _, v := range vals {
		f, ok := frame.Numeric(v)
		if !ok {
			continue
		}
		if n == 0 || f < st.min {
			st.min = f
		}
		if n == 0 || f > st.max {
			st.max = f
		}
		st.mean += f
		n++
	}
	if n == 0 {
		return st, false
	}
	st.mean /= float64(n)
	var ss float64
	for _, v := range vals {
		if f, ok := frame.Numeric(v); ok {
			d := f - st.mean
			ss += d * d
		}
	}
	st.std = math.Sqrt(ss / float64(n))
	return st, true
}
