// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ExcelRows selects exactly the rows a spreadsheet can hold.
const ExcelRows = "0-1048575"

// Span is an inclusive run of row indices.
type Span struct {
	Start, End uint64
}

// RowSet is a sorted, merged set of selected row indices. The nil
// RowSet means every row.
type RowSet struct {
	spans []Span
	count uint64
}

// ParseRows parses a selection like "1-100, 200, 500" into a RowSet:
// comma-separated indices and inclusive ranges, zero-based,
// whitespace tolerated, duplicates merged. An empty spec selects
// every row and parses to nil. (R2.1)
func ParseRows(spec string) (*RowSet, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	var spans []Span
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "-")
		if !isRange {
			n, err := strconv.ParseUint(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid row number: %s", part)
			}
			spans = append(spans, Span{n, n})
			continue
		}
		start, err := strconv.ParseUint(strings.TrimSpace(lo), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid range format: %s", part)
		}
		end, err := strconv.ParseUint(strings.TrimSpace(hi), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid range format: %s", part)
		}
		if start > end {
			return nil, fmt.Errorf("invalid range %s: start row cannot be greater than end row", part)
		}
		spans = append(spans, Span{start, end})
	}
	return newRowSet(spans), nil
}

// newRowSet sorts and merges spans, coalescing overlap and
// adjacency.
func newRowSet(spans []Span) *RowSet {
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End < spans[j].End
	})
	s := &RowSet{}
	for _, sp := range spans {
		if n := len(s.spans); n > 0 && sp.Start <= s.spans[n-1].End+1 {
			if sp.End > s.spans[n-1].End {
				s.spans[n-1].End = sp.End
			}
			continue
		}
		s.spans = append(s.spans, sp)
	}
	for _, sp := range s.spans {
		s.count += sp.End - sp.Start + 1
	}
	return s
}

// Add appends index i, which must not precede any index already
// added. Match scans add in ascending order.
func (s *RowSet) Add(i uint64) {
	if n := len(s.spans); n > 0 {
		last := &s.spans[n-1]
		if i <= last.End {
			return
		}
		if i == last.End+1 {
			last.End = i
			s.count++
			return
		}
	}
	s.spans = append(s.spans, Span{i, i})
	s.count++
}

// Count is the number of selected rows. Nil counts zero.
func (s *RowSet) Count() uint64 {
	if s == nil {
		return 0
	}
	return s.count
}

// Spans returns the merged runs in ascending order.
func (s *RowSet) Spans() []Span {
	if s == nil {
		return nil
	}
	return s.spans
}

// Bounds returns the first and last selected index. Only valid on a
// non-empty set.
func (s *RowSet) Bounds() (lo, hi uint64) {
	return s.spans[0].Start, s.spans[len(s.spans)-1].End
}

// Contains reports whether i is selected.
func (s *RowSet) Contains(i uint64) bool {
	if s == nil {
		return true
	}
	n := sort.Search(len(s.spans), func(k int) bool { return s.spans[k].End >= i })
	return n < len(s.spans) && s.spans[n].Start <= i
}

// Clamp drops indices at or past total. Selections entirely in
// range come back unchanged; nil stays nil, keeping its every-row
// meaning.
func (s *RowSet) Clamp(total uint64) *RowSet {
	if s == nil {
		return nil
	}
	if len(s.spans) == 0 || total == 0 {
		return &RowSet{}
	}
	if s.spans[len(s.spans)-1].End < total {
		return s
	}
	out := &RowSet{}
	for _, sp := range s.spans {
		if sp.Start >= total {
			break
		}
		if sp.End >= total {
			sp.End = total - 1
		}
		out.spans = append(out.spans, sp)
		out.count += sp.End - sp.Start + 1
	}
	return out
}

// sparse reports whether the selection is better served by scanning
// its whole extent in batches than by reading each run: many short
// runs trigger the scan.
func (s *RowSet) sparse() bool {
	if s == nil || len(s.spans) <= 1 {
		return false
	}
	return s.count/uint64(len(s.spans)) < 64
}
