// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf2md/internal/runlog"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs from the run index",
	Long: `History reads the SQLite run index in the output root and lists the
most recent runs, newest first, including failed ones that never reached
the plain-text run log.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("output", "", "output root (default: output)")
	historyCmd.Flags().String("source", "", "only show runs of this PDF file name")
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to show")
	historyCmd.Flags().Bool("json", false, "output runs as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper(), cmd)
	if err != nil {
		return err
	}

	path := filepath.Join(cfg.OutputRoot, cfg.RunLog.IndexFile)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no run index at %s", path)
	}
	index, err := runlog.OpenIndex(path)
	if err != nil {
		return err
	}
	defer index.Close()

	source, _ := cmd.Flags().GetString("source")
	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := index.Recent(cmd.Context(), source, limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatHistory(cmd.OutOrStdout(), entries, jsonOutput)
}

func formatHistory(w io.Writer, entries []runlog.Entry, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-5s  %-19s  %-10s  %-40s  %s\n", "ID", "Time", "Status", "Source", "Archive")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, e := range entries {
		source := e.SourceFile
		if len(source) > 40 {
			source = source[:37] + "..."
		}
		archive := "-"
		if e.ArchiveMembers > 0 {
			archive = fmt.Sprintf("%d files", e.ArchiveMembers)
		}
		fmt.Fprintf(w, "%-5d  %-19s  %-10s  %-40s  %s\n",
			e.ID, e.Timestamp.Local().Format(runlog.TimeLayout), e.Status, source, archive)
		if e.Error != "" {
			fmt.Fprintf(w, "       error: %s\n", e.Error)
		}
	}

	fmt.Fprintf(w, "\n%d runs\n", len(entries))
	return nil
}
