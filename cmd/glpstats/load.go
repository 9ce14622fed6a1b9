package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/glpstats/internal/db"
	"github.com/gyeh/glpstats/internal/exitcode"
	"github.com/gyeh/glpstats/internal/logging"
	"github.com/gyeh/glpstats/internal/pipeline"
)

var forceLoad bool

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "COPY the final table and rate tables into Postgres",
	RunE:  runLoad,
}

func init() {
	loadCmd.Flags().BoolVar(&forceLoad, "force", false, "Reload artifacts whose SHA-256 was already loaded")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx := context.Background()

	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		log.Error().Err(err).Msg("migration failed")
		os.Exit(exitcode.StageError)
	}

	results, err := pipeline.Load(ctx, pipeline.NewEnv(&cfg, log), pool, forceLoad)
	if err != nil {
		log.Error().Err(err).Msg("load failed")
		if code := exitCodeFor(err); code == exitcode.InputError {
			os.Exit(code)
		}
		os.Exit(exitcode.CopyError)
	}
	for _, r := range results {
		status := "loaded"
		if r.Skipped {
			status = "skipped"
		}
		fmt.Printf("  batch %s  %-7s %d rows (%.1fs)\n", r.BatchID, status, r.Rows, r.Duration.Seconds())
	}
	return nil
}
