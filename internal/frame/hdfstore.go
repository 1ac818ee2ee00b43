// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package frame

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/h5cruncher/internal/hdf5"
)

// blockIndex extracts N from names like blockN_values. suffix is
// "_values" or "_items".
func blockIndex(name, suffix string) (int, bool) {
	if !strings.HasPrefix(name, "block") || !strings.HasSuffix(name, suffix) {
		return 0, false
	}
	n, err := strconv.Atoi(name[len("block") : len(name)-len(suffix)])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// resolveStore recognizes a pandas HDFStore fixed-format block: a
// 2-D blockN_values dataset with a blockN_items sibling naming its
// columns. Nil means the dataset does not fit the pattern and the
// bare rules apply.
func resolveStore(f *hdf5.File, ds *hdf5.Dataset) *Table {
	idx, ok := blockIndex(ds.Name(), "_values")
	if !ok || ds.NDim() != 2 {
		return nil
	}
	parent := parentPath(ds.Path())
	items, err := f.Dataset(joinPath(parent, "block"+strconv.Itoa(idx)+"_items"))
	if err != nil {
		return nil
	}
	labels := readLabels(items)
	if labels == nil {
		return nil
	}

	// The standard layout stores (ncols, nrows); some writers store
	// (nrows, ncols) directly. The label count picks the axis.
	dims := ds.Shape()
	var transposed bool
	switch uint64(len(labels)) {
	case dims[0]:
		transposed = true
	case dims[1]:
		transposed = false
	default:
		return nil
	}
	rows := dims[0]
	if transposed {
		rows = dims[1]
	}

	t := &Table{ds: ds, kind: KindBlock, columns: labels, rows: rows, transposed: transposed}
	if order := axisOrder(f, parent, labels); order != nil {
		t.order = order
		cols := make([]string, len(order))
		for j, sj := range order {
			cols[j] = labels[sj]
		}
		t.columns = cols
	}
	return t
}

// axisOrder ranks block columns by their position in the frame's
// axis0 listing, the column order of the whole frame. Labels missing
// from axis0 keep their block order at the end.
func axisOrder(f *hdf5.File, parent string, labels []string) []int {
	axis, err := f.Dataset(joinPath(parent, "axis0"))
	if err != nil {
		return nil
	}
	axisLabels := readLabels(axis)
	if axisLabels == nil {
		return nil
	}
	pos := make(map[string]int, len(axisLabels))
	for i, l := range axisLabels {
		if _, ok := pos[l]; !ok {
			pos[l] = i
		}
	}

	order := make([]int, len(labels))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, oka := pos[labels[order[a]]]
		rb, okb := pos[labels[order[b]]]
		if oka != okb {
			return oka
		}
		return oka && ra < rb
	})
	return order
}

func joinPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}
