// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hdf5

import (
	"fmt"
	"strings"
)

// Group is an open group.
type Group struct {
	file *File
	path string
	hdr  *objectHeader
}

func (g *Group) Path() string { return g.path }

func (g *Group) Name() string {
	if g.path == "/" {
		return "/"
	}
	return g.path[strings.LastIndex(g.path, "/")+1:]
}

// Entry is one link out of a group, with the target's kind resolved.
type Entry struct {
	Name      string
	Path      string
	IsDataset bool
	IsLink    bool
	Target    string
}

// Entries lists the group's children. Soft links resolve to their
// target's kind; broken links list as groups with IsLink set.
func (g *Group) Entries() ([]Entry, error) {
	refs, err := g.file.childrenOf(g.hdr)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", g.path, err)
	}
	prefix := g.path
	if prefix == "/" {
		prefix = ""
	}
	out := make([]Entry, 0, len(refs))
	for _, ref := range refs {
		e := Entry{Name: ref.name, Path: prefix + "/" + ref.name}
		if ref.soft != "" {
			e.IsLink = true
			e.Target = ref.soft
			if hdr, err := g.file.resolve(resolveSoft(prefix, ref.soft)); err == nil {
				e.IsDataset = isDatasetHeader(hdr)
			}
		} else {
			hdr, err := g.file.readObjectHeader(ref.addr)
			if err != nil {
				return nil, fmt.Errorf("listing %s: %w", g.path, err)
			}
			e.IsDataset = isDatasetHeader(hdr)
		}
		out = append(out, e)
	}
	return out, nil
}

// Attrs returns the group's attributes with values decoded.
func (g *Group) Attrs() (map[string]any, error) {
	return g.file.attributesOf(g.hdr)
}

// Attr fetches a single attribute value.
func (g *Group) Attr(name string) (any, bool) {
	attrs, err := g.file.attributesOf(g.hdr)
	if err != nil {
		return nil, false
	}
	v, ok := attrs[name]
	return v, ok
}
