// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/h5cruncher/internal/export"
	"github.com/pdiddy/h5cruncher/internal/history"
	"github.com/pdiddy/h5cruncher/internal/render"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List or prune recorded export jobs",
	Long: `History lists past export jobs from the local SQLite database, newest
first, with substring filters on dataset and source file. --prune N
keeps only the newest N records and deletes the rest.`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.Open(historyConfig().Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if cmd.Flags().Changed("prune") {
		keep, _ := cmd.Flags().GetInt("prune")
		deleted, err := store.Prune(context.Background(), keep)
		if err != nil {
			return err
		}
		fmt.Printf("pruned %d jobs, kept the newest %d\n", deleted, keep)
		return nil
	}

	dataset, _ := cmd.Flags().GetString("dataset")
	file, _ := cmd.Flags().GetString("file")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")

	jobs, err := store.List(context.Background(), history.QueryOptions{
		Dataset: dataset,
		Source:  file,
		Status:  status,
		Limit:   limit,
	})
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return render.FormatJSON(os.Stdout, jobs)
	}
	if len(jobs) == 0 {
		fmt.Println("No jobs recorded.")
		return nil
	}
	history.FormatTable(os.Stdout, jobs)
	fmt.Printf("\n%d jobs\n", len(jobs))
	return nil
}

// --- shared helpers ---

// historyStore opens the job history for a recording command, or
// returns nil when recording is off (--no-history, history.disabled)
// or the database cannot be opened. Failing to record never fails the
// export itself.
func historyStore(cmd *cobra.Command) *history.Store {
	cfg := historyConfig()
	if noHistory, _ := cmd.Flags().GetBool("no-history"); noHistory || cfg.Disabled {
		return nil
	}
	store, err := history.Open(cfg.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: history disabled: %v\n", err)
		return nil
	}
	return store
}

// recordJob writes one job record, warning instead of failing.
func recordJob(store *history.Store, source, dataset string, res *export.Result, runErr error) {
	if store == nil {
		return
	}
	job := history.NewJob(source, dataset, res, runErr)
	if err := store.Record(context.Background(), job); err != nil {
		fmt.Fprintf(os.Stderr, "warning: history record failed: %v\n", err)
	}
}

func init() {
	historyCmd.Flags().String("dataset", "", "filter by dataset path substring")
	historyCmd.Flags().String("file", "", "filter by source file substring")
	historyCmd.Flags().String("status", "", "filter by status: ok or failed")
	historyCmd.Flags().Int("limit", 0, "maximum jobs to list (0 = default)")
	historyCmd.Flags().Bool("json", false, "output as JSON")
	historyCmd.Flags().Int("prune", 0, "delete all but the newest N jobs")

	rootCmd.AddCommand(historyCmd)
}
