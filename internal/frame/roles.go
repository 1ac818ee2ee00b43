// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package frame

import (
	"strconv"
	"strings"

	"github.com/pdiddy/h5cruncher/internal/hdf5"
)

// Role classifies a dataset for listings: exportable table, label
// supplier, or plain array.
type Role int

const (
	RoleTable Role = iota
	RoleLabels
	RoleArray
)

func (r Role) String() string {
	switch r {
	case RoleTable:
		return "table"
	case RoleLabels:
		return "labels"
	default:
		return "array"
	}
}

// Classify walks every dataset and assigns its role. HDFStore block
// values and compound datasets are tables; axis and items datasets
// beside block values supply labels; everything else is an array.
func Classify(f *hdf5.File) (map[string]Role, error) {
	compound := make(map[string]bool)
	var paths []string
	err := f.VisitDatasets(func(d *hdf5.Dataset) error {
		paths = append(paths, d.Path())
		compound[d.Path()] = d.IsCompound()
		return nil
	})
	if err != nil {
		return nil, err
	}

	exists := make(map[string]bool, len(paths))
	for _, p := range paths {
		exists[p] = true
	}

	roles := make(map[string]Role, len(paths))
	for _, p := range paths {
		roles[p] = classify(p, exists, compound[p])
	}
	return roles, nil
}

func classify(path string, exists map[string]bool, compound bool) Role {
	parent := parentPath(path)
	name := path[strings.LastIndex(path, "/")+1:]

	if idx, ok := blockIndex(name, "_values"); ok {
		if exists[joinPath(parent, "block"+strconv.Itoa(idx)+"_items")] {
			return RoleTable
		}
	}
	if idx, ok := blockIndex(name, "_items"); ok {
		if exists[joinPath(parent, "block"+strconv.Itoa(idx)+"_values")] {
			return RoleLabels
		}
	}
	if name == "axis0" || name == "axis1" {
		if hasBlockValues(parent, exists) {
			return RoleLabels
		}
	}
	if compound {
		return RoleTable
	}
	return RoleArray
}

// hasBlockValues reports whether any block values dataset sits
// directly under parent.
func hasBlockValues(parent string, exists map[string]bool) bool {
	prefix := parent + "/"
	if parent == "/" {
		prefix = "/"
	}
	for p := range exists {
		rest, ok := strings.CutPrefix(p, prefix)
		if !ok || strings.Contains(rest, "/") {
			continue
		}
		if _, ok := blockIndex(rest, "_values"); ok {
			return true
		}
	}
	return false
}
