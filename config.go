package docsect

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brunobiangulo/docsect/continuation"
	"github.com/brunobiangulo/docsect/section"
	"github.com/brunobiangulo/docsect/toc"
)

// Config holds all configuration for the docsect engine.
type Config struct {
	// DBPath is the full path to the SQLite database file.
	// If empty, defaults to ~/.docsect/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath
	// is not explicitly set. Options: "home" (default) uses ~/.docsect/,
	// "local" uses the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// OutputDir receives the per-section JSON artifacts. Each document
	// gets a subdirectory named after the PDF file stem.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Source selects the layout provider: "pdf" (native text lines) or
	// "layout-json" (external detections filled from the PDF).
	Source string `json:"source" yaml:"source"`

	// Force rewrites section artifacts that already exist.
	Force bool `json:"force" yaml:"force"`

	// Pipeline stages
	TOC     toc.Config     `json:"toc" yaml:"toc"`
	Section section.Config `json:"section" yaml:"section"`

	// Page-level continuation detection
	ContinuationPolicy continuation.Policy      `json:"continuation_policy" yaml:"continuation_policy"`
	Pages              continuation.PageOptions `json:"pages" yaml:"pages"`
}

// DefaultConfig returns a Config with the standard thresholds.
// Database is stored in ~/.docsect/docsect.db by default.
func DefaultConfig() Config {
	return Config{
		DBName:             "docsect",
		StorageDir:         "home",
		OutputDir:          "output",
		Source:             "pdf",
		TOC:                toc.DefaultConfig(),
		Section:            section.DefaultConfig(),
		ContinuationPolicy: continuation.PolicyStructural,
		Pages:              continuation.DefaultPageOptions(),
	}
}

// withDefaults fills zero values from DefaultConfig. Stage configs fill
// their own thresholds.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.Source == "" {
		c.Source = d.Source
	}
	if c.ContinuationPolicy == "" {
		c.ContinuationPolicy = d.ContinuationPolicy
	}
	return c
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "docsect"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db"
		}
		return filepath.Join(home, ".docsect", name+".db")
	}
}

// LoadConfig reads a JSON config file over DefaultConfig. An empty path
// returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides config fields from DOCSECT_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("DOCSECT_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := getenv("DOCSECT_STORAGE_DIR"); v != "" {
		c.StorageDir = v
	}
	if v := getenv("DOCSECT_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := getenv("DOCSECT_SOURCE"); v != "" {
		c.Source = v
	}
	if v := getenv("DOCSECT_CONTINUATION_POLICY"); v != "" {
		c.ContinuationPolicy = continuation.Policy(v)
	}
	if v := getenv("DOCSECT_FORCE"); v == "1" || v == "true" {
		c.Force = true
	}
}
