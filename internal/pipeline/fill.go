package pipeline

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/gyeh/glpstats/internal/cohort"
	"github.com/gyeh/glpstats/internal/fill"
	"github.com/gyeh/glpstats/internal/model"
	"github.com/gyeh/glpstats/internal/table"
)

// runFill reads in, runs one fill pass and writes out.
func runFill(ctx context.Context, log zerolog.Logger, in, out string, e *fill.Engine, src fill.Source) (model.StageSummary, error) {
	rows, err := table.ReadPatientYears(in)
	if err != nil {
		return model.StageSummary{}, err
	}
	filled, rep, err := e.Run(ctx, rows, src)
	if err != nil {
		return model.StageSummary{}, err
	}
	if err := table.WritePatientYears(out, filled); err != nil {
		return model.StageSummary{}, err
	}
	return model.StageSummary{
		RowsIn:      int64(rep.Rows),
		RowsOut:     int64(len(filled)),
		RowsDropped: int64(rep.Dropped),
		Filled:      rep.Filled,
		FailedUnits: rep.FailedUnits,
		Output:      out,
	}, nil
}

// FillDemographics fills age, sex, state and zip3 from demographic
// enrollment and drops rows outside the age window or still incomplete.
func FillDemographics(ctx context.Context, env *Env, log zerolog.Logger) (model.StageSummary, error) {
	art := env.Cfg.Artifacts()
	src := &fill.DemographicSource{
		Lookup: fill.EnrollmentDemographics(log, env.Cfg.DemographicsDir(), env.Registry()),
	}
	return runFill(ctx, log, art.Base(), art.Demographics(), fill.DemographicEngine(log, env.Cfg.AgeWindow()), src)
}

// FillPayer fills pay type from each year's payer enrollment, one work unit
// per year.
func FillPayer(ctx context.Context, env *Env, log zerolog.Logger) (model.StageSummary, error) {
	art := env.Cfg.Artifacts()
	src := &fill.PayerSource{
		Lookup:  fill.EnrollmentPayer(log, env.Cfg.PayerDir, env.Registry()),
		Workers: env.Cfg.Workers,
		Log:     log,
	}
	return runFill(ctx, log, art.Demographics(), art.Payer(), fill.PayerEngine(log), src)
}

// FillCondition fills each row's condition from the patient's cohort
// extracts, consulted in year order, and drops rows left without one.
func FillCondition(ctx context.Context, env *Env, log zerolog.Logger) (model.StageSummary, error) {
	art := env.Cfg.Artifacts()
	byYear, err := readYears(env, log, art.Cohort, table.ReadCohort)
	if err != nil {
		return model.StageSummary{}, err
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	var all []model.CohortRow
	for _, y := range years {
		all = append(all, byYear[y]...)
	}
	lookup := cohort.BuildLookup(all)
	log.Info().Int("patients", len(lookup)).Msg("condition lookup built")

	return runFill(ctx, log, art.Payer(), art.Condition(), fill.ConditionEngine(log), &fill.ConditionSource{Lookup: lookup})
}
