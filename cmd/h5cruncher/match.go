// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/h5cruncher/internal/export"
	"github.com/pdiddy/h5cruncher/internal/render"
)

var matchCmd = &cobra.Command{
	Use:   "match FILE DATASET",
	Short: "Export rows where a column equals a value",
	Long: `Match scans a table for rows whose column exactly equals a value and
exports them to CSV. Values that parse as numbers compare numerically,
so "1.0" matches an integer 1; everything else compares as text.
--preview-only reports the matching rows without writing a file. The
default output name is DATASET_COLUMN_VALUE.csv.`,
	Args: cobra.ExactArgs(2),
	RunE: runMatch,
}

func runMatch(cmd *cobra.Command, args []string) error {
	file, dataset := args[0], args[1]
	column, _ := cmd.Flags().GetString("column")
	value, _ := cmd.Flags().GetString("value")
	previewOnly, _ := cmd.Flags().GetBool("preview-only")
	output, _ := cmd.Flags().GetString("output")

	f, err := render.OpenFile(file)
	if err != nil {
		return err
	}
	defer f.Close()

	store := historyStore(cmd)
	if store != nil {
		defer store.Close()
	}

	res, runErr := export.Match(context.Background(), os.Stdout, f, dataset, export.MatchOptions{
		Column:    column,
		Value:     value,
		Preview:   previewOnly,
		ChunkSize: exportConfig(cmd).ChunkSize,
		Output:    output,
	})
	if !previewOnly {
		recordJob(store, file, dataset, res, runErr)
	}
	return runErr
}

func init() {
	matchCmd.Flags().String("column", "", "column to match on")
	matchCmd.Flags().String("value", "", "value the column must equal")
	matchCmd.Flags().Bool("preview-only", false, "report matches without writing a file")
	matchCmd.Flags().String("output", "", "output path (default: DATASET_COLUMN_VALUE.csv)")
	matchCmd.Flags().Uint64("chunk-size", 0, "rows per batch (0 = automatic)")
	matchCmd.Flags().Bool("no-history", false, "skip recording this run")
	matchCmd.MarkFlagRequired("column")
	matchCmd.MarkFlagRequired("value")

	rootCmd.AddCommand(matchCmd)
}
