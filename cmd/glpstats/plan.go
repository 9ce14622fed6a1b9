package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/glpstats/internal/exitcode"
	"github.com/gyeh/glpstats/internal/pipeline"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run validation of headers, partitions and reference tables (no writes)",
	RunE:  runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := setup()
	p := pipeline.BuildPlan(pipeline.NewEnv(&cfg, log))

	fmt.Println("=== glpstats plan ===")
	fmt.Printf("Data dir:   %s\n", cfg.DataDir)
	fmt.Printf("Work dir:   %s\n", cfg.WorkDir)
	fmt.Printf("Years:      %d-%d\n", cfg.FromYear, cfg.ToYear)
	fmt.Printf("Demographic enrollment partitions: %d\n", p.DemographicPartitions)
	fmt.Println()
	for _, y := range p.Years {
		fmt.Printf("  %d  %3d claims columns  %5d claims partitions  %5d payer partitions\n",
			y.Year, y.ClaimsColumns, y.ClaimsPartitions, y.PayerPartitions)
		for _, prob := range y.Problems {
			fmt.Printf("        ! %s\n", prob)
		}
	}
	for _, prob := range p.Problems {
		fmt.Printf("! %s\n", prob)
	}
	for _, ref := range p.MissingReferences {
		fmt.Printf("! missing reference table %s\n", ref)
	}

	if !p.OK() {
		fmt.Println("\nValidation: FAILED")
		os.Exit(exitcode.ValidationError)
	}
	fmt.Println("\nValidation: OK")
	return nil
}
