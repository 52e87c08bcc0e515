// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/scholar-harvest/internal/catalog"
	"github.com/pdiddy/scholar-harvest/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List harvested records from the catalog",
	Long: `Catalog prints the latest known state of every publication recorded by
earlier harvests. Filter by --author (Scholar user ID) or --status
(downloaded, already_exists, failed, no_artifact, browser_fallback).`,
	RunE: runCatalog,
}

var knownStatuses = []types.DownloadStatus{
	types.StatusDownloaded,
	types.StatusAlreadyExists,
	types.StatusFailed,
	types.StatusNoArtifact,
	types.StatusBrowserFallback,
}

func init() {
	catalogCmd.Flags().String("db", "", "catalog database path (default: the harvest catalog)")
	catalogCmd.Flags().String("author", "", "only records for this Scholar user ID")
	catalogCmd.Flags().String("status", "", "only records with this download status")
	catalogCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = catalogPath()
	}
	author, _ := cmd.Flags().GetString("author")
	status, _ := cmd.Flags().GetString("status")
	if status != "" && !slices.Contains(knownStatuses, types.DownloadStatus(status)) {
		return fmt.Errorf("unknown status %q", status)
	}

	store, err := catalog.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Query(cmd.Context(), catalog.Filter{
		AuthorID: author,
		Status:   types.DownloadStatus(status),
	})
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatCatalogOutput(cmd.OutOrStdout(), entries, jsonOutput)
}

func formatCatalogOutput(w io.Writer, entries []catalog.Entry, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No records found.")
		return nil
	}

	fmt.Fprintf(w, "%-14s  %-50s  %-6s  %-16s  %s\n", "Author", "Title", "Cites", "Status", "File")
	fmt.Fprintln(w, strings.Repeat("-", 120))
	for _, e := range entries {
		fmt.Fprintf(w, "%-14s  %-50s  %-6d  %-16s  %s\n",
			truncate(e.AuthorID, 14), truncate(e.Title, 50), e.TotalCitations, e.Status, e.ArtifactFilename)
	}
	fmt.Fprintf(w, "\n%d records\n", len(entries))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
