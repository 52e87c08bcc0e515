// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-harvest/internal/acquire"
	"github.com/pdiddy/scholar-harvest/internal/browser"
	"github.com/pdiddy/scholar-harvest/internal/catalog"
	"github.com/pdiddy/scholar-harvest/internal/harvest"
	"github.com/pdiddy/scholar-harvest/internal/httputil"
	"github.com/pdiddy/scholar-harvest/internal/scholar"
	"github.com/pdiddy/scholar-harvest/internal/source"
	"github.com/pdiddy/scholar-harvest/pkg/types"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest publications for one author or a table of authors",
	Long: `Harvest resolves each author to a Scholar user ID, lists every publication
on the profile, reads each detail page and downloads the linked PDF.

Exactly one input is required: --scholar-link for a single profile URL or
author name, --sheets-url for a Google Sheets share link, or --csv-file for a
local table. Tables are read from the --column column, falling back to
"scholar_link". Rows that fail are reported and the batch continues.

Every flag can also be set in scholar-harvest.yaml or through
SCHOLAR_HARVEST_* environment variables (for example
SCHOLAR_HARVEST_MAX_PAPERS).`,
	RunE: runHarvest,
}

// harvestFlags maps viper keys to the flags that set them.
var harvestFlags = map[string]string{
	"output_dir":       "output",
	"max_papers":       "max-papers",
	"column":           "column",
	"request_delay":    "delay",
	"max_retries":      "retries",
	"browser_fallback": "browser-fallback",
	"browser_settle":   "browser-settle",
	"user_agent":       "user-agent",
	"catalog":          "catalog",
	"no_catalog":       "no-catalog",
}

func init() {
	f := harvestCmd.Flags()
	f.StringP("scholar-link", "s", "", "single Google Scholar profile URL or author name")
	f.StringP("sheets-url", "g", "", "Google Sheets share link listing authors")
	f.StringP("csv-file", "c", "", "CSV file listing authors")
	f.Bool("browser-fallback", false, "retry refused downloads in headless Chrome")
	f.Duration("browser-settle", browser.DefaultSettle, "time the browser is given to start a download")
	f.IntP("max-papers", "m", -1, "maximum new downloads per author (-1 for all)")
	f.String("column", source.DefaultColumn, "input column holding profile links")
	f.String("output", "output", "root output directory")
	f.Duration("delay", 0, "minimum spacing between requests")
	f.Int("retries", 0, "backoff retries on HTTP 429 (0 disables)")
	f.String("user-agent", httputil.DefaultUserAgent, "User-Agent header sent to Scholar")
	f.String("catalog", "", "catalog database path (default <output>/catalog.db)")
	f.Bool("no-catalog", false, "do not record results in the catalog")

	harvestCmd.MarkFlagsMutuallyExclusive("scholar-link", "sheets-url", "csv-file")
	harvestCmd.MarkFlagsOneRequired("scholar-link", "sheets-url", "csv-file")

	for key, name := range harvestFlags {
		if err := viper.BindPFlag(key, f.Lookup(name)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(harvestCmd)
}

// harvestConfig assembles the run configuration from flags, config file and
// environment.
func harvestConfig() types.HarvestConfig {
	cfg := types.HarvestConfig{
		HTTPConfig: types.HTTPConfig{
			UserAgent:    viper.GetString("user_agent"),
			RequestDelay: viper.GetDuration("request_delay"),
			MaxRetries:   viper.GetInt("max_retries"),
		},
		Timeouts:        types.DefaultTimeouts(),
		OutputDir:       viper.GetString("output_dir"),
		MaxPapers:       viper.GetInt("max_papers"),
		BrowserFallback: viper.GetBool("browser_fallback"),
		BrowserSettle:   viper.GetDuration("browser_settle"),
		Column:          viper.GetString("column"),
	}
	if !viper.GetBool("no_catalog") {
		cfg.CatalogPath = catalogPath()
	}
	return cfg
}

// catalogPath returns the configured catalog location.
func catalogPath() string {
	if p := viper.GetString("catalog"); p != "" {
		return p
	}
	return filepath.Join(viper.GetString("output_dir"), catalog.DefaultFile)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg := harvestConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	link, _ := cmd.Flags().GetString("scholar-link")
	sheetsURL, _ := cmd.Flags().GetString("sheets-url")
	csvFile, _ := cmd.Flags().GetString("csv-file")

	fmt.Fprintln(out, "Google Scholar Paper Harvest")

	// The input table is read before anything else so a bad table aborts
	// the run without touching any author.
	var refs []string
	if link == "" {
		src := csvFile
		if sheetsURL != "" {
			src = sheetsURL
		}
		tbl, err := source.Load(ctx, nil, src, out)
		if err != nil {
			return err
		}
		refs, err = tbl.References(cfg.Column, out)
		if err != nil {
			return err
		}
	}

	session := httputil.NewSession(cfg.HTTPConfig, httputil.WithCookieTimeout(cfg.Timeouts.Cookies))
	client, err := scholar.NewClient(session, cfg.Timeouts)
	if err != nil {
		return err
	}

	var fallback acquire.Fallback
	if cfg.BrowserFallback {
		b := browser.New(cfg.BrowserSettle, out)
		defer b.Close()
		fallback = b
	}
	downloader := acquire.NewDownloader(session, cfg.Timeouts.Artifact, fallback)

	var opts []harvest.Option
	if cfg.CatalogPath != "" {
		store, err := catalog.Open(cfg.CatalogPath)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, harvest.WithRecorder(store))
	}

	h := harvest.New(client, downloader, cfg, out, opts...)
	fmt.Fprintf(out, "Run %s\n", h.RunID())

	if link != "" {
		fmt.Fprintf(out, "Processing single author: %s\n", link)
		_, err = h.Author(ctx, link)
	} else {
		var batch harvest.Batch
		batch, err = h.Source(ctx, refs)
		fmt.Fprintf(out, "\nBatch summary: %d harvested, %d failed, %d skipped\n",
			len(batch.Authors), batch.Failed, batch.Skipped)
	}

	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(out, "\nInterrupted by user")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Done!")
	return nil
}
