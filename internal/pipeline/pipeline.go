// Package pipeline runs the stages that turn raw claims and enrollment
// extracts into the final patient-year table, the rate tables and the model
// design matrix. Each stage reads the previous stage's artifact from the
// work directory and writes a new one.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/glpstats/internal/config"
	"github.com/gyeh/glpstats/internal/logging"
	"github.com/gyeh/glpstats/internal/model"
	"github.com/gyeh/glpstats/internal/schema"
)

// StageError wraps an error with the stage where it occurred.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Env carries what every stage needs.
type Env struct {
	Cfg *config.Config
	Log zerolog.Logger
	reg *schema.Registry
}

// NewEnv returns an Env for cfg.
func NewEnv(cfg *config.Config, log zerolog.Logger) *Env {
	return &Env{Cfg: cfg, Log: log}
}

// Registry returns the schema registry, loading the claims header files on
// first use. A header directory that cannot be read leaves only the
// enrollment layouts registered; claims stages then fail per year.
func (e *Env) Registry() *schema.Registry {
	if e.reg != nil {
		return e.reg
	}
	reg := schema.NewRegistry()
	n, err := reg.LoadClaimsHeaders(e.Cfg.HeaderDir())
	if err != nil {
		e.Log.Warn().Err(err).Str("dir", e.Cfg.HeaderDir()).Msg("claims headers not loaded")
	} else {
		e.Log.Debug().Int("layouts", n).Ints("years", reg.ClaimsYears()).Msg("claims headers loaded")
	}
	e.reg = reg
	return reg
}

// Stage is one named step of the pipeline.
type Stage struct {
	Name        string
	Description string
	Run         func(ctx context.Context, env *Env, log zerolog.Logger) (model.StageSummary, error)
}

// Stages lists every stage in execution order.
func Stages() []Stage {
	return []Stage{
		{Name: "extract-cohort", Description: "Extract obesity/T2D cohort claims per year", Run: ExtractCohort},
		{Name: "extract-rx", Description: "Extract GLP-1 RA prescription fills per year", Run: ExtractRx},
		{Name: "count-cohort", Description: "Count cohort patients per state and year", Run: CountCohort},
		{Name: "build-base", Description: "Build the base patient-year table", Run: BuildBase},
		{Name: "fill-demographics", Description: "Fill age, sex, state and zip3 from enrollment", Run: FillDemographics},
		{Name: "fill-payer", Description: "Fill pay type from per-year payer enrollment", Run: FillPayer},
		{Name: "fill-condition", Description: "Fill cohort condition", Run: FillCondition},
		{Name: "enrich-geo", Description: "Attach weighted zip and neighborhood attributes", Run: EnrichGeo},
		{Name: "finalize", Description: "Map pay types and drop incomplete rows", Run: Finalize},
		{Name: "rates", Description: "Compute state prescribing rates", Run: Rates},
		{Name: "model-prep", Description: "Aggregate the model design matrix", Run: ModelPrep},
	}
}

// ErrUnknownStage is returned by Lookup for a name not in Stages.
var ErrUnknownStage = errors.New("unknown stage")

// Lookup returns the named stage.
func Lookup(name string) (Stage, error) {
	for _, s := range Stages() {
		if s.Name == name {
			return s, nil
		}
	}
	return Stage{}, fmt.Errorf("%w: %s", ErrUnknownStage, name)
}

// RunStage runs one stage, stamping its name and duration on the summary.
func RunStage(ctx context.Context, env *Env, s Stage) (model.StageSummary, error) {
	log := logging.ForStage(env.Log, s.Name)
	start := time.Now()
	log.Info().Msg("starting stage")

	sum, err := s.Run(ctx, env, log)
	sum.Stage = s.Name
	sum.Duration = time.Since(start)
	if err != nil {
		return sum, &StageError{Stage: s.Name, Err: err}
	}

	ev := log.Info()
	if len(sum.FailedUnits) > 0 {
		ev = log.Warn().Ints("failed_years", sum.FailedUnits)
	}
	ev.Int64("rows_in", sum.RowsIn).
		Int64("rows_out", sum.RowsOut).
		Int64("rows_dropped", sum.RowsDropped).
		Str("output", sum.Output).
		Str("duration", sum.Duration.String()).
		Msg("stage complete")
	return sum, nil
}

// Run executes every stage in order, stopping at the first stage error.
// Failed work units inside a stage do not stop the run; they are reported
// in the summary.
func Run(ctx context.Context, env *Env) (*model.RunSummary, error) {
	start := time.Now()
	summary := &model.RunSummary{}
	for _, s := range Stages() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		sum, err := RunStage(ctx, env, s)
		summary.Stages = append(summary.Stages, sum)
		if err != nil {
			summary.DurationTotal = time.Since(start)
			return summary, err
		}
	}
	summary.DurationTotal = time.Since(start)

	env.Log.Info().
		Int("stages", len(summary.Stages)).
		Bool("partial", summary.Partial()).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("pipeline complete")
	return summary, nil
}
