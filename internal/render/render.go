// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render inspects data files for display: file summaries,
// per-dataset detail, role-annotated listings, and bounded previews.
// Implements: prd002-catalog (R1-R4);
//
//	docs/ARCHITECTURE § Catalog.
package render

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/h5cruncher/internal/frame"
	"github.com/pdiddy/h5cruncher/internal/hdf5"
)

// Load failures users act on: a wrong path or a wrong extension.
// Files that fail the signature check surface hdf5.ErrNotHDF5.
var (
	ErrNotFound  = errors.New("cannot load: file not found")
	ErrExtension = errors.New("cannot load: not an H5 file")
)

// OpenFile validates path and opens it: the file must exist, carry
// an .h5 or .hdf5 extension, and start with the format signature.
func OpenFile(path string) (*hdf5.File, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, ErrNotFound
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".h5", ".hdf5":
	default:
		return nil, ErrExtension
	}
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot load: %w", err)
	}
	return f, nil
}

// FileInfo summarizes an open file.
type FileInfo struct {
	Path       string `json:"path"`
	SizeBytes  int64  `json:"size_bytes"`
	Size       string `json:"size"`
	Superblock int    `json:"superblock_version"`
	Groups     int    `json:"groups"`
	Datasets   int    `json:"datasets"`
}

// Describe gathers the file summary: size, format version, and
// object counts. The root group is not counted.
func Describe(f *hdf5.File) (*FileInfo, error) {
	info := &FileInfo{
		Path:       f.Path(),
		SizeBytes:  f.Size(),
		Size:       humanSize(f.Size()),
		Superblock: f.SuperblockVersion(),
	}
	err := f.VisitDatasets(func(*hdf5.Dataset) error {
		info.Datasets++
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = f.VisitGroups(func(*hdf5.Group) error {
		info.Groups++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// FormatFileInfo writes the summary as labeled lines.
func FormatFileInfo(w io.Writer, info *FileInfo) {
	fmt.Fprintf(w, "File: %s\n", info.Path)
	fmt.Fprintf(w, "Size: %d bytes (%s)\n", info.SizeBytes, info.Size)
	fmt.Fprintf(w, "Superblock version: %d\n", info.Superblock)
	fmt.Fprintf(w, "Groups: %d\n", info.Groups)
	fmt.Fprintf(w, "Datasets: %d\n", info.Datasets)
}

// DatasetInfo is the inspection record for one dataset.
type DatasetInfo struct {
	Path        string         `json:"path"`
	Shape       []uint64       `json:"shape"`
	Dtype       string         `json:"dtype"`
	Elements    uint64         `json:"elements"`
	NDim        int            `json:"ndim"`
	MaxShape    []string       `json:"maxshape,omitempty"`
	Chunks      []uint64       `json:"chunks,omitempty"`
	Compression []string       `json:"compression,omitempty"`
	FillValue   any            `json:"fill_value,omitempty"`
	Storage     uint64         `json:"storage_bytes"`
	Role        string         `json:"role"`
	Columns     []string       `json:"columns,omitempty"`
	Rows        uint64         `json:"rows,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// Inspect collects everything known about the dataset at path,
// including its tabular resolution when it has one.
func Inspect(f *hdf5.File, path string) (*DatasetInfo, error) {
	ds, err := f.Dataset(path)
	if err != nil {
		return nil, err
	}
	info := &DatasetInfo{
		Path:        ds.Path(),
		Shape:       ds.Shape(),
		Dtype:       ds.TypeName(),
		Elements:    ds.NumElements(),
		NDim:        ds.NDim(),
		Chunks:      ds.ChunkShape(),
		Compression: ds.Filters(),
		Storage:     ds.StorageSize(),
	}
	if ds.NDim() > 0 {
		info.MaxShape = renderMax(ds.MaxShape())
	}
	if fv, ok := ds.FillValue(); ok {
		info.FillValue = fv
	}
	if attrs, err := ds.Attrs(); err == nil && len(attrs) > 0 {
		info.Attributes = attrs
	}

	info.Role = frame.RoleArray.String()
	if roles, err := frame.Classify(f); err == nil {
		if r, ok := roles[ds.Path()]; ok {
			info.Role = r.String()
		}
	}
	if tab, err := frame.Resolve(f, path); err == nil {
		info.Columns = tab.Columns()
		info.Rows = tab.Rows()
	}
	return info, nil
}

// FormatDatasetInfo writes the record as labeled lines, attributes
// last.
func FormatDatasetInfo(w io.Writer, info *DatasetInfo) {
	fmt.Fprintf(w, "Path: %s\n", info.Path)
	fmt.Fprintf(w, "Shape: %s\n", formatDims(info.Shape))
	fmt.Fprintf(w, "Data Type: %s\n", info.Dtype)
	fmt.Fprintf(w, "Total Elements: %d\n", info.Elements)
	fmt.Fprintf(w, "Dimensions: %d\n", info.NDim)
	if len(info.MaxShape) > 0 {
		fmt.Fprintf(w, "Max Shape: (%s)\n", strings.Join(info.MaxShape, ", "))
	}
	if len(info.Chunks) > 0 {
		fmt.Fprintf(w, "Chunks: %s\n", formatDims(info.Chunks))
	}
	if len(info.Compression) > 0 {
		fmt.Fprintf(w, "Compression: %s\n", strings.Join(info.Compression, ", "))
	}
	if info.FillValue != nil {
		fmt.Fprintf(w, "Fill Value: %v\n", info.FillValue)
	}
	fmt.Fprintf(w, "Storage: %d bytes\n", info.Storage)
	fmt.Fprintf(w, "Role: %s\n", info.Role)
	if len(info.Columns) > 0 {
		fmt.Fprintf(w, "Columns: %s\n", strings.Join(info.Columns, ", "))
		fmt.Fprintf(w, "Rows: %d\n", info.Rows)
	}
	if len(info.Attributes) > 0 {
		fmt.Fprintln(w, "\nAttributes:")
		keys := make([]string, 0, len(info.Attributes))
		for k := range info.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %v\n", k, info.Attributes[k])
		}
	}
}

// humanSize renders a byte count with one decimal, stepping by 1024.
func humanSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024 {
			return fmt.Sprintf("%.1f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.1f TB", size)
}

func formatDims(dims []uint64) string {
	if len(dims) == 0 {
		return "scalar"
	}
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.FormatUint(d, 10)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func renderMax(dims []uint64) []string {
	out := make([]string, len(dims))
	for i, d := range dims {
		if d == hdf5.Unlimited {
			out[i] = "unlimited"
		} else {
			out[i] = strconv.FormatUint(d, 10)
		}
	}
	return out
}
