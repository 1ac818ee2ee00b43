// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/h5cruncher/internal/render"
)

var listCmd = &cobra.Command{
	Use:   "list FILE",
	Short: "List the file's datasets with their table roles",
	Long: `List walks the file and prints one line per dataset with its path,
role, shape, and element type. The default view hides label-supplier
datasets (HDFStore axis and items arrays); --all shows everything and
--tables keeps only exportable tables.`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	tables, _ := cmd.Flags().GetBool("tables")
	if all && tables {
		return fmt.Errorf("cannot combine --all and --tables")
	}

	f, err := render.OpenFile(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	filter := render.ListDefault
	switch {
	case all:
		filter = render.ListAll
	case tables:
		filter = render.ListTables
	}

	entries, err := render.List(f, filter)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return render.FormatJSON(os.Stdout, entries)
	}
	if len(entries) == 0 {
		fmt.Println("No datasets found.")
		return nil
	}
	render.FormatListing(os.Stdout, entries)
	fmt.Printf("\n%d datasets\n", len(entries))
	return nil
}

func init() {
	listCmd.Flags().Bool("all", false, "include label-supplier datasets")
	listCmd.Flags().Bool("tables", false, "show only exportable tables")
	listCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(listCmd)
}
