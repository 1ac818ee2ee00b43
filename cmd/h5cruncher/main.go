// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the h5cruncher CLI.
// Implements: prd001-container, prd002-catalog, prd003-frames,
//             prd004-export, prd005-history, prd006-recipes (CLI surface).
// See docs/ARCHITECTURE § Tool Interface, § Project Structure.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/h5cruncher/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the h5cruncher CLI.
var rootCmd = &cobra.Command{
	Use:   "h5cruncher",
	Short: "Browse and export HDF5 data files",
	Long: `h5cruncher reads HDF5 data files with a pure Go container reader and
turns their datasets into tables: pandas HDFStore layouts resolve
against their label datasets, compound datasets expose one column per
member, and bare arrays fall back to positional columns.

Inspection commands (info, list, inspect, preview) show what a file
holds. export writes selected columns and rows to CSV in bounded
batches, match filters rows by column equality, history tracks past
export jobs, and batch runs a YAML recipe of exports.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./h5cruncher.yaml or ~/.config/h5cruncher/h5cruncher.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("h5cruncher")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "h5cruncher"))
		}
	}

	viper.SetEnvPrefix("H5CRUNCHER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// flagOrConfigUint64 prefers an explicitly set flag over the config key.
func flagOrConfigUint64(cmd *cobra.Command, flag, key string) uint64 {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetUint64(flag)
		return v
	}
	return viper.GetUint64(key)
}

// flagOrConfigInt prefers an explicitly set flag over the config key.
func flagOrConfigInt(cmd *cobra.Command, flag, key string) int {
	if cmd.Flags().Changed(flag) {
		v, _ := cmd.Flags().GetInt(flag)
		return v
	}
	return viper.GetInt(key)
}

func exportConfig(cmd *cobra.Command) types.ExportConfig {
	return types.ExportConfig{
		ChunkSize: flagOrConfigUint64(cmd, "chunk-size", "export.chunk_size"),
	}
}

func historyConfig() types.HistoryConfig {
	return types.HistoryConfig{
		Path:     viper.GetString("history.path"),
		Disabled: viper.GetBool("history.disabled"),
	}
}

func previewConfig(cmd *cobra.Command) types.PreviewConfig {
	return types.PreviewConfig{
		Limit: flagOrConfigInt(cmd, "limit", "preview.limit"),
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
