package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	cfgpkg "github.com/KaramelBytes/gigstats-cli/internal/config"
	"github.com/KaramelBytes/gigstats-cli/internal/dataset"
	"github.com/KaramelBytes/gigstats-cli/internal/logging"
	"github.com/KaramelBytes/gigstats-cli/internal/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile       string
	debug         bool
	flagDataset   string
	flagSheet     string
	flagLogFormat string

	// Loaded configuration
	cfg *cfgpkg.Global
	// Logger writes diagnostics to stderr; command output goes to stdout.
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "gigstats",
	Short: "GigStats CLI: explore music events against population, income and airports",
	Long: `GigStats reads a merged music-event dataset and reports event counts per state and city,
together with linear regressions of those counts on population, median household income
and the number of airports.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.gigstats/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagDataset, "dataset", "", "path to the merged dataset (CSV, TSV or XLSX; overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagSheet, "sheet", "", "XLSX: worksheet name (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text|json (overrides config)")
}

func loadConfig() {
	// .env is optional; variables already set in the environment win
	_ = godotenv.Load()

	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		cfg = nil
		logger = logging.Discard()
		return
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("dataset") && flagDataset != "" {
		cfg.DatasetPath = flagDataset
	}
	if f.Changed("sheet") {
		cfg.DatasetSheet = flagSheet
	}
	if f.Changed("log-format") && flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}
	if debug {
		cfg.LogLevel = "debug"
	}

	l, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
		l = logging.Discard()
	}
	logger = l
}

func requireConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		return nil, fmt.Errorf("no configuration loaded (check %s)", configHint())
	}
	return cfg, nil
}

func configHint() string {
	if cfgFile != "" {
		return cfgFile
	}
	dir, err := cfgpkg.Dir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "config.yaml")
}

// resolveDataset returns the configured dataset path. A bare file name that is
// not in the working directory is searched for in the parent directories.
func resolveDataset(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if filepath.Base(path) != path {
		return "", fmt.Errorf("dataset not found: %s", path)
	}
	found, err := utils.FindUpward("", path)
	if err != nil {
		return "", fmt.Errorf("dataset not found: %w", err)
	}
	return found, nil
}

// loadDataset reads the configured dataset.
func loadDataset() (*dataset.Dataset, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, err
	}
	path, err := resolveDataset(c.DatasetPath)
	if err != nil {
		return nil, err
	}
	ds, err := dataset.Load(path, dataset.LoadOptions{Sheet: c.DatasetSheet})
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"dataset": path,
		"rows":    ds.Rows(),
	}).Debug("loaded dataset")
	return ds, nil
}
