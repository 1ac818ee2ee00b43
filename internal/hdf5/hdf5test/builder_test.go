// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5test

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/pdiddy/h5cruncher/internal/hdf5"
)

func open(t *testing.T, b *Builder) *hdf5.File {
	t.Helper()
	img := b.Bytes()
	f, err := hdf5.NewReader(bytes.NewReader(img), int64(len(img)))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	return f
}

func TestInt64RoundTrip(t *testing.T) {
	f := open(t, New().Int64("/nums", []uint64{2, 3}, 1, 2, 3, 4, 5, 6))

	d, err := f.Dataset("/nums")
	if err != nil {
		t.Fatalf("Dataset: %v", err)
	}
	if got := d.Shape(); !reflect.DeepEqual(got, []uint64{2, 3}) {
		t.Errorf("Shape = %v", got)
	}
	if got := d.TypeName(); got != "int64" {
		t.Errorf("TypeName = %q", got)
	}
	vals, err := d.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	want := []any{int64(1), int64(2), int64(3), int64(4), int64(5), int64(6)}
	if !reflect.DeepEqual(vals, want) {
		t.Errorf("values = %v, want %v", vals, want)
	}
}

func TestFloat64RoundTrip(t *testing.T) {
	f := open(t, New().Float64("/temps", []uint64{3}, 1.5, -2.25, 0))

	d, err := f.Dataset("/temps")
	if err != nil {
		t.Fatalf("Dataset: %v", err)
	}
	vals, err := d.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	want := []any{1.5, -2.25, 0.0}
	if !reflect.DeepEqual(vals, want) {
		t.Errorf("values = %v, want %v", vals, want)
	}
}

func TestStringsRoundTrip(t *testing.T) {
	f := open(t, New().Strings("/names", 6, "alpha", "b", "toolongname"))

	d, err := f.Dataset("/names")
	if err != nil {
		t.Fatalf("Dataset: %v", err)
	}
	vals, err := d.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	// Width 6 with no room for a terminator truncates hard.
	want := []any{"alpha", "b", "toolon"}
	if !reflect.DeepEqual(vals, want) {
		t.Errorf("values = %v, want %v", vals, want)
	}
}

func TestCompoundRoundTrip(t *testing.T) {
	f := open(t, New().Compound("/events",
		Col{Name: "id", Ints: []int64{7, 8}},
		Col{Name: "score", Floats: []float64{0.5, 1.5}},
		Col{Name: "tag", Strs: []string{"on", "off"}, Width: 4},
	))

	d, err := f.Dataset("/events")
	if err != nil {
		t.Fatalf("Dataset: %v", err)
	}
	if !d.IsCompound() {
		t.Fatal("IsCompound = false")
	}
	fields := d.Fields()
	if len(fields) != 3 || fields[0].Name != "id" || fields[2].Name != "tag" {
		t.Fatalf("Fields = %+v", fields)
	}
	vals, err := d.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	want := []any{
		map[string]any{"id": int64(7), "score": 0.5, "tag": "on"},
		map[string]any{"id": int64(8), "score": 1.5, "tag": "off"},
	}
	if !reflect.DeepEqual(vals, want) {
		t.Errorf("values = %v, want %v", vals, want)
	}
}

func TestGroupNesting(t *testing.T) {
	b := New().
		Int64("/exp/run1/data", []uint64{1}, 42).
		Int64("/exp/run2/data", []uint64{1}, 43).
		Group("/empty")
	f := open(t, b)

	root, err := f.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	entries, err := root.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "empty" || entries[1].Name != "exp" {
		t.Fatalf("entries = %+v", entries)
	}

	var paths []string
	err = f.VisitDatasets(func(d *hdf5.Dataset) error {
		paths = append(paths, d.Path())
		return nil
	})
	if err != nil {
		t.Fatalf("VisitDatasets: %v", err)
	}
	want := []string{"/exp/run1/data", "/exp/run2/data"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestWriteFile(t *testing.T) {
	path := t.TempDir() + "/fixture.h5"
	if err := New().Int64("/x", []uint64{1}, 9).WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := hdf5.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	d, err := f.Dataset("/x")
	if err != nil {
		t.Fatalf("Dataset: %v", err)
	}
	vals, err := d.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(vals) != 1 || vals[0] != int64(9) {
		t.Errorf("values = %v", vals)
	}
}
