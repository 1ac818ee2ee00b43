// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

import "fmt"

// attributesOf decodes every compact attribute message on a header.
// Densely stored attributes (held in a fractal heap by newer
// writers) are not materialized; the compact ones still return.
func (f *File) attributesOf(hdr *objectHeader) (map[string]any, error) {
	attrs := make(map[string]any)
	for _, m := range hdr.findAll(msgAttribute) {
		a, err := f.parseAttribute(m.body)
		if err != nil {
			return nil, fmt.Errorf("attribute: %w", err)
		}
		v, err := f.attributeValue(a)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", a.name, err)
		}
		attrs[a.name] = v
	}
	return attrs, nil
}

// attributeValue decodes an attribute's raw bytes. Scalars come back
// bare; anything with extent comes back as []any.
func (f *File) attributeValue(a *attribute) (any, error) {
	n := int(a.ds.numElements())
	need := n * a.dt.size
	if len(a.raw) < need {
		return nil, fmt.Errorf("value truncated: %d bytes, want %d", len(a.raw), need)
	}
	vals, err := f.decodeElements(a.raw[:need], a.dt, n)
	if err != nil {
		return nil, err
	}
	if len(a.ds.dims) == 0 && len(vals) == 1 {
		return vals[0], nil
	}
	return vals, nil
}
