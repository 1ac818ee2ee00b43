// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

import "errors"

var (
	// ErrNotHDF5 means the file carries no format signature at any
	// of the offsets the format allows (0, 512, 1024, 2048, ...).
	ErrNotHDF5 = errors.New("not an HDF5 file")

	// ErrNotFound means a path or attribute does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrNotDataset means the object at a path is a group, not a
	// dataset.
	ErrNotDataset = errors.New("object is not a dataset")

	// ErrNotGroup means the object at a path is a dataset, not a
	// group.
	ErrNotGroup = errors.New("object is not a group")

	// ErrUnsupported marks format features outside the reader's
	// scope, such as external links or variable-length sequences.
	ErrUnsupported = errors.New("unsupported HDF5 feature")
)
