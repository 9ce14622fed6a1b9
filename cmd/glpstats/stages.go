package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/glpstats/internal/exitcode"
	"github.com/gyeh/glpstats/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run every stage in order",
	RunE:  runAll,
}

func init() {
	rootCmd.AddCommand(runCmd)
	for _, s := range pipeline.Stages() {
		s := s
		rootCmd.AddCommand(&cobra.Command{
			Use:   s.Name,
			Short: s.Description,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runOne(s)
			},
		})
	}
}

func runOne(s pipeline.Stage) error {
	log := setup()
	sum, err := pipeline.RunStage(context.Background(), pipeline.NewEnv(&cfg, log), s)
	if err != nil {
		log.Error().Err(err).Msg("stage failed")
		os.Exit(exitCodeFor(err))
	}
	fmt.Printf("%s complete: %d rows in, %d rows out, %d dropped (%.1fs)\n",
		s.Name, sum.RowsIn, sum.RowsOut, sum.RowsDropped, sum.Duration.Seconds())
	if len(sum.FailedUnits) > 0 {
		fmt.Printf("failed years: %v\n", sum.FailedUnits)
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}

func runAll(cmd *cobra.Command, args []string) error {
	log := setup()
	summary, err := pipeline.Run(context.Background(), pipeline.NewEnv(&cfg, log))
	if err != nil {
		var se *pipeline.StageError
		if errors.As(err, &se) {
			log.Error().Err(se.Err).Str("stage", se.Stage).Msg("pipeline failed")
		} else {
			log.Error().Err(err).Msg("pipeline failed")
		}
		os.Exit(exitCodeFor(err))
	}

	for _, s := range summary.Stages {
		fmt.Printf("  %-18s %10d in %10d out %8d dropped  %6.1fs", s.Stage, s.RowsIn, s.RowsOut, s.RowsDropped, s.Duration.Seconds())
		if len(s.FailedUnits) > 0 {
			fmt.Printf("  failed years %v", s.FailedUnits)
		}
		fmt.Println()
	}
	fmt.Printf("Pipeline complete (%.1fs)\n", summary.DurationTotal.Seconds())
	if summary.Partial() {
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}
