// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the scholar-harvest CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the scholar-harvest CLI.
var rootCmd = &cobra.Command{
	Use:   "scholar-harvest",
	Short: "Download an author's publications and metadata from Google Scholar",
	Long: `scholar-harvest walks the publication list of one or more Google Scholar
profiles, records each publication's metadata, and downloads the linked PDF
into output/author_<id>/. Files already in the folder are never fetched
again, so interrupted runs can simply be restarted.

Authors come from a single --scholar-link, a Google Sheets share link, or a
local CSV file. Every record is also kept in a SQLite catalog that the
catalog subcommand can query.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := godotenv.Load(envFile); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
		fmt.Fprintln(os.Stderr, "Loaded environment from", envFile)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./scholar-harvest.yaml or ~/.config/scholar-harvest/config.yaml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file with SCHOLAR_HARVEST_* overrides")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("scholar-harvest")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "scholar-harvest"))
		}
	}

	viper.SetEnvPrefix("SCHOLAR_HARVEST")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
