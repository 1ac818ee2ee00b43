// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/h5cruncher/internal/render"
)

var previewCmd = &cobra.Command{
	Use:   "preview FILE DATASET",
	Short: "Print a bounded preview of a dataset",
	Long: `Preview renders the leading elements of a dataset without loading it
whole: tables as aligned grids, vectors as numbered lines, and
higher-rank arrays as a statistical summary over a flattened sample.
The element budget defaults to 10000; tune it with --limit or the
preview.limit config key.`,
	Args: cobra.ExactArgs(2),
	RunE: runPreview,
}

func runPreview(cmd *cobra.Command, args []string) error {
	f, err := render.OpenFile(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	cfg := previewConfig(cmd)
	return render.Preview(os.Stdout, f, args[1], cfg.Limit)
}

func init() {
	previewCmd.Flags().Int("limit", 0, "preview element budget (0 = default)")

	rootCmd.AddCommand(previewCmd)
}
