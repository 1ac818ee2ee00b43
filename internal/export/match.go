// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/h5cruncher/internal/frame"
	"github.com/pdiddy/h5cruncher/internal/hdf5"
)

// MatchOptions selects rows where one column equals a value.
type MatchOptions struct {
	Column string
	Value  string
	// Preview reports the matches without writing anything.
	Preview   bool
	ChunkSize uint64
	// Output defaults to {dataset}_{column}_{value}.csv.
	Output string
}

// matchPreviewRows is how many matching rows the report shows.
const matchPreviewRows = 5

// Match scans the table at path for rows whose column equals value
// and exports them. Values that parse as numbers compare numerically
// against numeric cells, so "1.0" matches an integer 1; everything
// else compares as rendered text. The scan reads in the same bounded
// batches as the export. (R3.1, R3.2)
func Match(ctx context.Context, w io.Writer, f *hdf5.File, path string, opts MatchOptions) (*Result, error) {
	start := time.Now()
	tab, err := frame.Resolve(f, path)
	if err != nil {
		return nil, err
	}
	cols := tab.Columns()
	col := -1
	for i, name := range cols {
		if name == opts.Column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("column %q not found in %s (columns: %s)",
			opts.Column, tab.Path(), strings.Join(cols, ", "))
	}

	want, ferr := strconv.ParseFloat(opts.Value, 64)
	numeric := ferr == nil

	total := tab.Rows()
	chunk := opts.ChunkSize
	if chunk == 0 {
		chunk = chunkFor(total)
	}
	matched := &RowSet{}
	var sample [][]string
	var sampleIdx []uint64
	for off := uint64(0); off < total; off += chunk {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("match cancelled: %w", err)
		}
		n := chunk
		if off+n > total {
			n = total - off
		}
		cells, err := tab.ReadCells(off, n)
		if err != nil {
			return nil, err
		}
		for ri, row := range cells {
			if !cellMatches(row[col], opts.Value, want, numeric) {
				continue
			}
			idx := off + uint64(ri)
			matched.Add(idx)
			if len(sample) < matchPreviewRows {
				rec := make([]string, len(row))
				for ci, v := range row {
					rec[ci] = frame.Cell(v)
				}
				sample = append(sample, rec)
				sampleIdx = append(sampleIdx, idx)
			}
		}
	}

	if matched.Count() == 0 {
		fmt.Fprintf(w, "no rows found where %q exactly equals %q\n", opts.Column, opts.Value)
		return &Result{
			ID:          uuid.NewString(),
			Source:      f.Path(),
			Dataset:     tab.Path(),
			Columns:     cols,
			MatchColumn: opts.Column,
			MatchValue:  opts.Value,
			Duration:    time.Since(start),
		}, nil
	}

	fmt.Fprintf(w, "found %d rows where %q exactly equals %q\n",
		matched.Count(), opts.Column, opts.Value)
	shown := len(sample)
	fmt.Fprintf(w, "\nFirst %d matching rows:\n", shown)
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintf(w, "        %s\n", strings.Join(cols, "  "))
	for i, rec := range sample {
		fmt.Fprintf(w, "[%4d]  %s\n", sampleIdx[i], strings.Join(rec, "  "))
	}
	if extra := matched.Count() - uint64(shown); extra > 0 {
		fmt.Fprintf(w, "\n... and %d more rows\n", extra)
	}

	if opts.Preview {
		return &Result{
			ID:          uuid.NewString(),
			Source:      f.Path(),
			Dataset:     tab.Path(),
			Columns:     cols,
			MatchColumn: opts.Column,
			MatchValue:  opts.Value,
			Rows:        matched.Count(),
			Duration:    time.Since(start),
		}, nil
	}

	out := opts.Output
	if out == "" {
		out = DefaultMatchOutput(tab.Name(), opts.Column, opts.Value)
	}
	fmt.Fprintln(w)
	res, err := Export(ctx, w, f, path, Options{
		Rows:      matched,
		ChunkSize: opts.ChunkSize,
		Output:    out,
	})
	if err != nil {
		return nil, err
	}
	res.MatchColumn = opts.Column
	res.MatchValue = opts.Value
	res.Duration = time.Since(start)
	return res, nil
}

// cellMatches compares one cell against the requested value,
// numerically when both sides are numeric.
func cellMatches(v any, value string, want float64, numeric bool) bool {
	if numeric {
		if f, ok := frame.Numeric(v); ok {
			return f == want
		}
	}
	return frame.Cell(v) == value
}

// DefaultMatchOutput names a match export after the dataset, column,
// and value, with the value reduced to filename-safe characters.
func DefaultMatchOutput(dataset, column, value string) string {
	return fmt.Sprintf("%s_%s_%s.csv", dataset, column, sanitizeValue(value))
}

func sanitizeValue(s string) string {
	out := []rune(s)
	for i, r := range out {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
