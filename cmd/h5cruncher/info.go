// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/h5cruncher/internal/render"
)

var infoCmd = &cobra.Command{
	Use:   "info FILE",
	Short: "Show file-level metadata",
	Long: `Info validates and opens a data file, then reports its size,
superblock version, and how many groups and datasets it holds.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	f, err := render.OpenFile(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := render.Describe(f)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return render.FormatJSON(os.Stdout, info)
	}
	render.FormatFileInfo(os.Stdout, info)
	return nil
}

func init() {
	infoCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(infoCmd)
}
