package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/brunobiangulo/docsect"
)

var (
	configPath string
	dbPath     string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "docsect",
	Short: "Reconstruct the section hierarchy of technical PDFs",
	Long: `docsect reads a paginated technical PDF, resolves its table of contents
from the embedded outline or a heading scan, assigns every table, figure and
text block to its section, and merges tables and figures split across page
breaks. Each section is written as a JSON artifact and loaded into SQLite.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (JSON)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline progress to stderr")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies environment and flag
// overrides, in that order.
func loadConfig() (docsect.Config, error) {
	cfg, err := docsect.LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv(os.Getenv)
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg, nil
}

func openEngine() (docsect.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return docsect.New(cfg)
}
