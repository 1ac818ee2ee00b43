// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/h5cruncher/internal/recipe"
)

var batchCmd = &cobra.Command{
	Use:   "batch RECIPE",
	Short: "Run a YAML recipe of exports",
	Long: `Batch reads a YAML recipe naming a source file and a list of export
jobs (dataset, columns, rows, match, output) and runs them in order.
A failing job is reported and recorded, and the batch keeps going.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	rec, err := recipe.Read(args[0])
	if err != nil {
		return err
	}

	store := historyStore(cmd)
	if store != nil {
		defer store.Close()
	}

	summary, err := recipe.Run(context.Background(), os.Stdout, rec, recipe.RunOptions{
		History:   store,
		ChunkSize: exportConfig(cmd).ChunkSize,
	})
	if err != nil {
		if summary.Total() == 0 {
			return err
		}
		return fmt.Errorf("%d of %d job(s) failed", summary.Failed, summary.Total())
	}
	return nil
}

func init() {
	batchCmd.Flags().Uint64("chunk-size", 0, "rows per batch (0 = automatic)")
	batchCmd.Flags().Bool("no-history", false, "skip recording this batch")

	rootCmd.AddCommand(batchCmd)
}
