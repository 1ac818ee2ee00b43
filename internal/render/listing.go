// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/h5cruncher/internal/frame"
	"github.com/pdiddy/h5cruncher/internal/hdf5"
)

// ListEntry is one row of the dataset listing.
type ListEntry struct {
	Path  string `json:"path"`
	Role  string `json:"role"`
	Shape string `json:"shape"`
	Dtype string `json:"dtype"`
}

// ListFilter selects which roles the listing includes.
type ListFilter int

const (
	// ListDefault hides label-supplier datasets, the auxiliary noise
	// around exportable tables.
	ListDefault ListFilter = iota
	// ListAll includes every dataset.
	ListAll
	// ListTables keeps only exportable tables.
	ListTables
)

// List collects the file's datasets sorted by path, each annotated
// with its frame role.
func List(f *hdf5.File, filter ListFilter) ([]ListEntry, error) {
	roles, err := frame.Classify(f)
	if err != nil {
		return nil, err
	}
	var out []ListEntry
	err = f.VisitDatasets(func(ds *hdf5.Dataset) error {
		role := roles[ds.Path()]
		switch filter {
		case ListTables:
			if role != frame.RoleTable {
				return nil
			}
		case ListDefault:
			if role == frame.RoleLabels {
				return nil
			}
		}
		out = append(out, ListEntry{
			Path:  ds.Path(),
			Role:  role.String(),
			Shape: formatDims(ds.Shape()),
			Dtype: ds.TypeName(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// FormatListing writes entries as an aligned table.
func FormatListing(w io.Writer, entries []ListEntry) {
	fmt.Fprintf(w, "%-52s  %-6s  %-16s  %s\n", "PATH", "ROLE", "SHAPE", "TYPE")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, e := range entries {
		fmt.Fprintf(w, "%-52s  %-6s  %-16s  %s\n",
			truncate(e.Path, 52), e.Role, truncate(e.Shape, 16), e.Dtype)
	}
}

// FormatJSON writes v indented, for the --json flags.
func FormatJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
