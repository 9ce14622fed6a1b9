package main

import (
	"errors"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gyeh/glpstats/internal/config"
	"github.com/gyeh/glpstats/internal/exitcode"
	"github.com/gyeh/glpstats/internal/logging"
	"github.com/gyeh/glpstats/internal/partition"
	"github.com/gyeh/glpstats/internal/table"
)

var (
	cfg        = config.Default()
	configPath string
	flagVals   = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "glpstats",
	Short: "Claims → patient-year ETL for GLP-1 RA prescribing rates",
	Long: "Extracts obesity/T2D cohorts and GLP-1 RA fills from partitioned claims, fills demographics, payer and\n" +
		"condition from enrollment, attaches neighborhood attributes, and computes state prescribing rates.",
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML config file")
	pf.StringVar(&flagVals.DSN, "dsn", os.Getenv("GLPSTATS_DB_URL"), "Postgres connection string (or set GLPSTATS_DB_URL)")
	pf.StringVar(&flagVals.LogFormat, "log-format", flagVals.LogFormat, "Log format: text or json")
	pf.StringVar(&flagVals.LogLevel, "log-level", flagVals.LogLevel, "Log level: debug, info, warn, error")
	pf.StringVar(&flagVals.DataDir, "data-dir", flagVals.DataDir, "Root of the raw extracts and reference tables")
	pf.StringVar(&flagVals.WorkDir, "work-dir", flagVals.WorkDir, "Directory for stage artifacts")
	pf.IntVar(&flagVals.FromYear, "from-year", flagVals.FromYear, "First year to process")
	pf.IntVar(&flagVals.ToYear, "to-year", flagVals.ToYear, "Last year to process")
	pf.IntVar(&flagVals.Workers, "workers", flagVals.Workers, "Concurrent per-year work units")
}

// loadConfig builds cfg from defaults, then the config file, then any flag
// set on the command line.
func loadConfig(cmd *cobra.Command, args []string) error {
	cfg = config.Default()
	if configPath != "" {
		if err := cfg.LoadFromFile(configPath); err != nil {
			return err
		}
	}
	cfg.DSN = flagVals.DSN

	flags := cmd.Flags()
	if flags.Changed("log-format") {
		cfg.LogFormat = flagVals.LogFormat
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = flagVals.LogLevel
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = flagVals.DataDir
	}
	if flags.Changed("work-dir") {
		cfg.WorkDir = flagVals.WorkDir
	}
	if flags.Changed("from-year") {
		cfg.FromYear = flagVals.FromYear
	}
	if flags.Changed("to-year") {
		cfg.ToYear = flagVals.ToYear
	}
	if flags.Changed("workers") {
		cfg.Workers = flagVals.Workers
	}
	return nil
}

// setup returns the logger and exits on an invalid config.
func setup() zerolog.Logger {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	return log
}

// exitCodeFor maps a stage failure to a process exit code.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, table.ErrNotFound),
		errors.Is(err, partition.ErrMissingInput),
		errors.Is(err, fs.ErrNotExist):
		return exitcode.InputError
	default:
		return exitcode.StageError
	}
}
