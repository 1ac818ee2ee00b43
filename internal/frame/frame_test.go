// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package frame

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/pdiddy/h5cruncher/internal/hdf5"
	"github.com/pdiddy/h5cruncher/internal/hdf5/hdf5test"
)

func load(t *testing.T, b *hdf5test.Builder) *hdf5.File {
	t.Helper()
	img := b.Bytes()
	f, err := hdf5.NewReader(bytes.NewReader(img), int64(len(img)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	return f
}

// --- cell rendering ---

func TestCell(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"plain", "plain"},
		{int64(-5), "-5"},
		{uint64(7), "7"},
		{2.5, "2.5"},
		{0.1, "0.1"},
		{1e21, "1e+21"},
		{[]byte("ab"), "ab"},
		{true, "true"},
	}
	for _, tt := range tests {
		if got := Cell(tt.in); got != tt.want {
			t.Errorf("Cell(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// --- block name parsing ---

func TestBlockIndex(t *testing.T) {
	tests := []struct {
		name   string
		suffix string
		want   int
		ok     bool
	}{
		{"block0_values", "_values", 0, true},
		{"block12_items", "_items", 12, true},
		{"block_values", "_values", 0, false},
		{"blockx_values", "_values", 0, false},
		{"block-1_values", "_values", 0, false},
		{"axis0", "_values", 0, false},
		{"block0_items", "_values", 0, false},
	}
	for _, tt := range tests {
		got, ok := blockIndex(tt.name, tt.suffix)
		if got != tt.want || ok != tt.ok {
			t.Errorf("blockIndex(%q, %q) = %d, %v", tt.name, tt.suffix, got, ok)
		}
	}
}

// --- HDFStore resolution ---

func storeFixture() *hdf5test.Builder {
	// One block of two columns, stored (ncols, nrows) with the block
	// holding its columns in reverse of the frame order.
	return hdf5test.New().
		Strings("/store/axis0", 8, "a", "b").
		Int64("/store/axis1", []uint64{3}, 0, 1, 2).
		Strings("/store/block0_items", 8, "b", "a").
		Float64("/store/block0_values", []uint64{2, 3},
			1, 2, 3,
			10, 20, 30)
}

func TestResolveStoreBlock(t *testing.T) {
	f := load(t, storeFixture())
	tab, err := Resolve(f, "/store/block0_values")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if tab.Kind() != KindBlock {
		t.Errorf("Kind = %v, want block", tab.Kind())
	}
	if got := tab.Columns(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Columns = %v, want [a b]", got)
	}
	if tab.Rows() != 3 {
		t.Errorf("Rows = %d, want 3", tab.Rows())
	}

	rows, err := tab.ReadRows(0, 3)
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	want := [][]string{{"10", "1"}, {"20", "2"}, {"30", "3"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}

	tail, err := tab.ReadRows(1, 99)
	if err != nil {
		t.Fatalf("ReadRows tail: %v", err)
	}
	if !reflect.DeepEqual(tail, want[1:]) {
		t.Errorf("tail = %v, want %v", tail, want[1:])
	}
}

func TestResolveStoreDirectOrientation(t *testing.T) {
	f := load(t, hdf5test.New().
		Strings("/d/block0_items", 8, "x", "y").
		Float64("/d/block0_values", []uint64{3, 2},
			1, 2,
			3, 4,
			5, 6))

	tab, err := Resolve(f, "/d/block0_values")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tab.Kind() != KindBlock {
		t.Errorf("Kind = %v, want block", tab.Kind())
	}
	if got := tab.Columns(); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("Columns = %v", got)
	}
	if tab.Rows() != 3 {
		t.Errorf("Rows = %d, want 3", tab.Rows())
	}
	rows, err := tab.ReadRows(0, 1)
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if !reflect.DeepEqual(rows, [][]string{{"1", "2"}}) {
		t.Errorf("rows = %v", rows)
	}
}

func TestResolveStorePartialAxis(t *testing.T) {
	// axis0 lists only "a"; the block's extra column keeps its place
	// after the ordered ones.
	f := load(t, hdf5test.New().
		Strings("/s/axis0", 8, "a").
		Strings("/s/block0_items", 8, "b", "a").
		Float64("/s/block0_values", []uint64{2, 2},
			1, 2,
			3, 4))

	tab, err := Resolve(f, "/s/block0_values")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := tab.Columns(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Columns = %v, want [a b]", got)
	}
	rows, err := tab.ReadRows(0, 2)
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	want := [][]string{{"3", "1"}, {"4", "2"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
}

// --- bare rules ---

func TestResolveCompound(t *testing.T) {
	f := load(t, hdf5test.New().Compound("/events",
		hdf5test.Col{Name: "id", Ints: []int64{1, 2}},
		hdf5test.Col{Name: "kind", Strs: []string{"start", "stop"}, Width: 8},
		hdf5test.Col{Name: "score", Floats: []float64{0.5, 0.75}},
	))

	tab, err := Resolve(f, "/events")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tab.Kind() != KindCompound {
		t.Errorf("Kind = %v, want compound", tab.Kind())
	}
	if got := tab.Columns(); !reflect.DeepEqual(got, []string{"id", "kind", "score"}) {
		t.Errorf("Columns = %v", got)
	}
	rows, err := tab.ReadRows(0, 2)
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	want := [][]string{{"1", "start", "0.5"}, {"2", "stop", "0.75"}}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
}

func TestResolveMatrix(t *testing.T) {
	f := load(t, hdf5test.New().Int64("/m/wide", []uint64{2, 3},
		1, 2, 3,
		4, 5, 6))

	tab, err := Resolve(f, "/m/wide")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tab.Kind() != KindMatrix {
		t.Errorf("Kind = %v, want matrix", tab.Kind())
	}
	if got := tab.Columns(); !reflect.DeepEqual(got, []string{"col_0", "col_1", "col_2"}) {
		t.Errorf("Columns = %v", got)
	}
	rows, err := tab.ReadRows(1, 1)
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if !reflect.DeepEqual(rows, [][]string{{"4", "5", "6"}}) {
		t.Errorf("rows = %v", rows)
	}
}

func TestResolveMatrixSiblingLabels(t *testing.T) {
	f := load(t, hdf5test.New().
		Int64("/matrix", []uint64{2, 2}, 1, 2, 3, 4).
		Strings("/names", 8, "left", "right"))

	tab, err := Resolve(f, "/matrix")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := tab.Columns(); !reflect.DeepEqual(got, []string{"left", "right"}) {
		t.Errorf("Columns = %v, want sibling labels", got)
	}
}

func TestResolveVector(t *testing.T) {
	f := load(t, hdf5test.New().Float64("/signal", []uint64{4}, 1, 2, 3, 4))

	tab, err := Resolve(f, "/signal")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tab.Kind() != KindVector {
		t.Errorf("Kind = %v, want vector", tab.Kind())
	}
	if got := tab.Columns(); !reflect.DeepEqual(got, []string{"signal"}) {
		t.Errorf("Columns = %v", got)
	}
	if tab.Rows() != 4 {
		t.Errorf("Rows = %d", tab.Rows())
	}
	rows, err := tab.ReadRows(2, 5)
	if err != nil {
		t.Fatalf("ReadRows: %v", err)
	}
	if !reflect.DeepEqual(rows, [][]string{{"3"}, {"4"}}) {
		t.Errorf("rows = %v", rows)
	}
}

func TestResolveErrors(t *testing.T) {
	f := load(t, hdf5test.New().Int64("/cube", []uint64{2, 2, 2},
		1, 2, 3, 4, 5, 6, 7, 8))

	if _, err := Resolve(f, "/cube"); err == nil {
		t.Error("3-D data resolved to a table")
	}
	if _, err := Resolve(f, "/missing"); !errors.Is(err, hdf5.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// --- role classification ---

func TestClassify(t *testing.T) {
	b := storeFixture().
		Compound("/events", hdf5test.Col{Name: "id", Ints: []int64{1}}).
		Float64("/plain", []uint64{2}, 1, 2)
	f := load(t, b)

	roles, err := Classify(f)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	want := map[string]Role{
		"/store/axis0":         RoleLabels,
		"/store/axis1":         RoleLabels,
		"/store/block0_items":  RoleLabels,
		"/store/block0_values": RoleTable,
		"/events":              RoleTable,
		"/plain":               RoleArray,
	}
	if !reflect.DeepEqual(roles, want) {
		t.Errorf("roles = %v, want %v", roles, want)
	}
}

func TestRoleString(t *testing.T) {
	if RoleTable.String() != "table" || RoleLabels.String() != "labels" || RoleArray.String() != "array" {
		t.Error("role names drifted")
	}
}
