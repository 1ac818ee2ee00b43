// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/h5cruncher/internal/render"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE DATASET",
	Short: "Show one dataset's metadata",
	Long: `Inspect reports a dataset's shape, element type, chunk layout,
compression filters, fill value, storage size, and attributes, plus
its table role and resolved columns when it maps to one.`,
	Args: cobra.ExactArgs(2),
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	f, err := render.OpenFile(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := render.Inspect(f, args[1])
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return render.FormatJSON(os.Stdout, info)
	}
	render.FormatDatasetInfo(os.Stdout, info)
	return nil
}

func init() {
	inspectCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(inspectCmd)
}
