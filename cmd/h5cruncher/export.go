// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/h5cruncher/internal/export"
	"github.com/pdiddy/h5cruncher/internal/render"
)

var exportCmd = &cobra.Command{
	Use:   "export FILE DATASET",
	Short: "Export a dataset to CSV",
	Long: `Export resolves a dataset into a table and writes it to CSV in
bounded batches. Columns are selected by name, rows by a spec like
"1-100,200,500" of zero-based indices and inclusive ranges; --excel
keeps exactly the rows a spreadsheet can hold. The output lands
atomically and every run is recorded in the export history.`,
	Args: cobra.ExactArgs(2),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	file, dataset := args[0], args[1]

	rows, _ := cmd.Flags().GetString("rows")
	excel, _ := cmd.Flags().GetBool("excel")
	if excel && rows != "" {
		return fmt.Errorf("cannot combine --rows and --excel")
	}
	if excel {
		rows = export.ExcelRows
	}
	set, err := export.ParseRows(rows)
	if err != nil {
		return err
	}

	columns, _ := cmd.Flags().GetStringSlice("columns")
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = export.DefaultOutput(dataset)
	}

	f, err := render.OpenFile(file)
	if err != nil {
		return err
	}
	defer f.Close()

	store := historyStore(cmd)
	if store != nil {
		defer store.Close()
	}

	res, runErr := export.Export(context.Background(), os.Stdout, f, dataset, export.Options{
		Columns:   columns,
		Rows:      set,
		RowSpec:   rows,
		ChunkSize: exportConfig(cmd).ChunkSize,
		Output:    output,
	})
	recordJob(store, file, dataset, res, runErr)
	return runErr
}

func init() {
	exportCmd.Flags().StringSlice("columns", nil, "columns to export (default: all)")
	exportCmd.Flags().String("rows", "", "row selection, e.g. \"1-100,200\"")
	exportCmd.Flags().Bool("excel", false, "cap the selection at Excel's row limit (rows 0-1048575)")
	exportCmd.Flags().String("output", "", "output path (default: DATASET.csv)")
	exportCmd.Flags().Uint64("chunk-size", 0, "rows per batch (0 = automatic)")
	exportCmd.Flags().Bool("no-history", false, "skip recording this run")

	rootCmd.AddCommand(exportCmd)
}
