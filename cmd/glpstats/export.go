package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/glpstats/internal/pipeline"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the final patient-year table as Parquet",
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	log := setup()
	n, err := pipeline.Export(pipeline.NewEnv(&cfg, log))
	if err != nil {
		log.Error().Err(err).Msg("export failed")
		os.Exit(exitCodeFor(err))
	}
	fmt.Printf("Export complete: %d rows to %s\n", n, cfg.Artifacts().Export())
	return nil
}
