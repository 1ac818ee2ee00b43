// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes selected table columns and rows to CSV in
// bounded batches, so multi-million-row tables never materialize at
// once. Implements: prd004-export (R1-R4);
//
//	docs/ARCHITECTURE § Export.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/pdiddy/h5cruncher/internal/frame"
	"github.com/pdiddy/h5cruncher/internal/hdf5"
)

// Options selects what one export writes.
type Options struct {
	// Columns filters by name; empty keeps every column.
	Columns []string
	// Rows filters by index; nil keeps every row. RowSpec carries the
	// text the set was parsed from, for the history record.
	Rows    *RowSet
	RowSpec string
	// ChunkSize overrides the automatic batch tier.
	ChunkSize uint64
	Output    string
}

// Result describes one finished export.
type Result struct {
	ID          string
	Source      string
	Dataset     string
	Columns     []string
	RowSpec     string
	MatchColumn string
	MatchValue  string
	Output      string
	Rows        uint64
	Bytes       uint64
	Checksum    string
	Duration    time.Duration
}

// DefaultOutput names the export file after the dataset.
func DefaultOutput(dataset string) string {
	name := dataset[strings.LastIndex(dataset, "/")+1:]
	if name == "" {
		name = "export"
	}
	return name + ".csv"
}

// Export resolves the dataset at path into a table and writes the
// selected columns and rows to opts.Output as CSV. The file appears
// atomically: rows stream through a temp file that is renamed into
// place after the last batch. Progress lines go to w. Cancelling ctx
// stops the export between batches. (R1.1, R2.3)
func Export(ctx context.Context, w io.Writer, f *hdf5.File, path string, opts Options) (*Result, error) {
	start := time.Now()
	if opts.Output == "" {
		return nil, errors.New("no output path")
	}
	tab, err := frame.Resolve(f, path)
	if err != nil {
		return nil, err
	}

	idx, names, missing := selectColumns(tab.Columns(), opts.Columns)
	for _, m := range missing {
		fmt.Fprintf(w, "skipped column %s: not in dataset\n", m)
	}
	if len(idx) == 0 {
		return nil, errors.New("none of the requested columns exist in the dataset")
	}

	total := tab.Rows()
	rows := opts.Rows.Clamp(total)
	selected := total
	if rows != nil {
		selected = rows.Count()
	}
	chunk := opts.ChunkSize
	if chunk == 0 {
		chunk = chunkFor(selected)
	}
	scan := rows.sparse()
	batches := planBatches(rows, total, chunk, scan)

	fmt.Fprintf(w, "exporting %s: %d columns, %d rows\n", tab.Path(), len(names), selected)

	dir := filepath.Dir(opts.Output)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(opts.Output)+".*")
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}
	tmpName := tmp.Name()
	keepTmp := false
	defer func() {
		if !keepTmp {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	hash := xxhash.New()
	cnt := &countWriter{w: tmp}
	cw := csv.NewWriter(io.MultiWriter(cnt, hash))
	if err := cw.Write(names); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	var written uint64
	rec := make([]string, len(idx))
	for i, b := range batches {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("export cancelled: %w", err)
		}
		fmt.Fprintf(w, "chunk %d/%d: rows %d to %d\n", i+1, len(batches), b.Start, b.End)
		cells, err := tab.ReadCells(b.Start, b.End-b.Start+1)
		if err != nil {
			return nil, err
		}
		for ri, row := range cells {
			if scan && !rows.Contains(b.Start+uint64(ri)) {
				continue
			}
			for ci, src := range idx {
				rec[ci] = frame.Cell(row[src])
			}
			if err := cw.Write(rec); err != nil {
				return nil, fmt.Errorf("writing row: %w", err)
			}
			written++
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("writing %s: %w", opts.Output, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("closing output: %w", err)
	}
	if err := os.Rename(tmpName, opts.Output); err != nil {
		return nil, fmt.Errorf("renaming output: %w", err)
	}
	keepTmp = true

	dur := time.Since(start)
	fmt.Fprintf(w, "\nexported: %d rows, %d bytes in %s\n", written, cnt.n, dur.Round(time.Millisecond))
	fmt.Fprintf(w, "wrote %s\n", opts.Output)

	return &Result{
		ID:       uuid.NewString(),
		Source:   f.Path(),
		Dataset:  tab.Path(),
		Columns:  names,
		RowSpec:  opts.RowSpec,
		Output:   opts.Output,
		Rows:     written,
		Bytes:    cnt.n,
		Checksum: fmt.Sprintf("%016x", hash.Sum64()),
		Duration: dur,
	}, nil
}

// planBatches splits the work into reads of at most chunk rows:
// every row when rows is nil, the selection's extent when scanning,
// otherwise each selected run. (R2.2)
func planBatches(rows *RowSet, total, chunk uint64, scan bool) []Span {
	var out []Span
	add := func(start, end uint64) {
		for off := start; off <= end; off += chunk {
			last := off + chunk - 1
			if last > end {
				last = end
			}
			out = append(out, Span{off, last})
		}
	}
	switch {
	case rows == nil:
		if total > 0 {
			add(0, total-1)
		}
	case scan:
		lo, hi := rows.Bounds()
		add(lo, hi)
	default:
		for _, sp := range rows.Spans() {
			add(sp.Start, sp.End)
		}
	}
	return out
}

// chunkFor picks the batch size tier for the row count.
func chunkFor(rows uint64) uint64 {
	switch {
	case rows > 10000000:
		return 500000
	case rows > 1000000:
		return 100000
	case rows > 100000:
		return 50000
	case rows == 0:
		return 1
	default:
		return rows
	}
}

// selectColumns filters requested names against the table's columns,
// keeping table order. Names matching nothing come back in missing.
func selectColumns(available, requested []string) (idx []int, names []string, missing []string) {
	if len(requested) == 0 {
		idx = make([]int, len(available))
		for i := range available {
			idx[i] = i
		}
		return idx, append([]string(nil), available...), nil
	}
	want := make(map[string]bool, len(requested))
	for _, r := range requested {
		want[r] = true
	}
	for i, name := range available {
		if want[name] {
			idx = append(idx, i)
			names = append(names, name)
			delete(want, name)
		}
	}
	for _, r := range requested {
		if want[r] {
			missing = append(missing, r)
			delete(want, r)
		}
	}
	return idx, names, missing
}

type countWriter struct {
	n uint64
	w io.Writer
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n)
	return n, err
}
