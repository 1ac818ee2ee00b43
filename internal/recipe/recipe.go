// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package recipe executes YAML-described batch exports: one source
// file, many export jobs, failures collected instead of aborting the
// batch. Implements: prd006-recipes (R1-R2);
//
//	docs/ARCHITECTURE § Recipes.
package recipe

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/h5cruncher/internal/export"
	"github.com/pdiddy/h5cruncher/internal/hdf5"
	"github.com/pdiddy/h5cruncher/internal/history"
	"github.com/pdiddy/h5cruncher/internal/render"
)

// Recipe is the on-disk description of a batch export run.
type Recipe struct {
	Source string `yaml:"source"`
	Jobs   []Item `yaml:"jobs"`
}

// Item is one export job in a recipe.
type Item struct {
	Dataset string     `yaml:"dataset"`
	Columns []string   `yaml:"columns,omitempty"`
	Rows    string     `yaml:"rows,omitempty"`
	Match   *MatchSpec `yaml:"match,omitempty"`
	Output  string     `yaml:"output,omitempty"`
}

// MatchSpec filters an item's rows by column equality.
type MatchSpec struct {
	Column string `yaml:"column"`
	Value  string `yaml:"value"`
}

// Read loads and validates a recipe file. Unknown YAML fields pass
// through silently; structural problems across all jobs are collected
// into one error.
func Read(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading recipe: %w", err)
	}
	var rec Recipe
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing recipe: %w", err)
	}

	var merr *multierror.Error
	if rec.Source == "" {
		merr = multierror.Append(merr, fmt.Errorf("missing source file"))
	}
	if len(rec.Jobs) == 0 {
		merr = multierror.Append(merr, fmt.Errorf("recipe has no jobs"))
	}
	for i, item := range rec.Jobs {
		if item.Dataset == "" {
			merr = multierror.Append(merr, fmt.Errorf("job %d: missing dataset", i+1))
		}
		if item.Match != nil {
			if item.Match.Column == "" || item.Match.Value == "" {
				merr = multierror.Append(merr, fmt.Errorf("job %d: match needs column and value", i+1))
			}
			if item.Rows != "" {
				merr = multierror.Append(merr, fmt.Errorf("job %d: rows and match are mutually exclusive", i+1))
			}
		}
	}
	if err := merr.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("invalid recipe %s: %w", path, err)
	}
	return &rec, nil
}

// RunOptions configures a batch run.
type RunOptions struct {
	// History receives one record per job; nil disables recording.
	History *history.Store
	// ChunkSize overrides the automatic batch tier for every job.
	ChunkSize uint64
}

// RunSummary holds counts from one batch run.
type RunSummary struct {
	Exported int
	Failed   int
}

// Total returns the number of jobs processed.
func (s RunSummary) Total() int {
	return s.Exported + s.Failed
}

// Run opens the recipe's source file and executes every job.
// Individual failures are reported, recorded, and collected; the
// batch keeps going. The returned error aggregates the failures.
func Run(ctx context.Context, w io.Writer, rec *Recipe, opts RunOptions) (RunSummary, error) {
	f, err := render.OpenFile(rec.Source)
	if err != nil {
		return RunSummary{}, err
	}
	defer f.Close()

	var (
		summary RunSummary
		merr    *multierror.Error
	)
	for i, item := range rec.Jobs {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		fmt.Fprintf(w, "[%d/%d] %s\n", i+1, len(rec.Jobs), item.Dataset)
		res, err := runItem(ctx, w, f, item, opts.ChunkSize)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", item.Dataset, err)
			summary.Failed++
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", item.Dataset, err))
		} else {
			summary.Exported++
		}

		if opts.History != nil {
			job := history.NewJob(rec.Source, item.Dataset, res, err)
			if recErr := opts.History.Record(ctx, job); recErr != nil {
				fmt.Fprintf(w, "warning: history record failed: %v\n", recErr)
			}
		}
	}

	fmt.Fprintf(w, "\nexported: %d, failed: %d\n", summary.Exported, summary.Failed)
	return summary, merr.ErrorOrNil()
}

func runItem(ctx context.Context, w io.Writer, f *hdf5.File, item Item, chunkSize uint64) (*export.Result, error) {
	if item.Match != nil {
		return export.Match(ctx, w, f, item.Dataset, export.MatchOptions{
			Column:    item.Match.Column,
			Value:     item.Match.Value,
			Output:    item.Output,
			ChunkSize: chunkSize,
		})
	}
	set, err := export.ParseRows(item.Rows)
	if err != nil {
		return nil, err
	}
	out := item.Output
	if out == "" {
		out = export.DefaultOutput(item.Dataset)
	}
	return export.Export(ctx, w, f, item.Dataset, export.Options{
		Columns:   item.Columns,
		Rows:      set,
		RowSpec:   item.Rows,
		ChunkSize: chunkSize,
		Output:    out,
	})
}
