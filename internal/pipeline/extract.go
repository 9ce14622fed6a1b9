package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gyeh/glpstats/internal/claims"
	"github.com/gyeh/glpstats/internal/cohort"
	"github.com/gyeh/glpstats/internal/enroll"
	"github.com/gyeh/glpstats/internal/logging"
	"github.com/gyeh/glpstats/internal/model"
	"github.com/gyeh/glpstats/internal/reftable"
	"github.com/gyeh/glpstats/internal/table"
	"github.com/gyeh/glpstats/internal/worker"
)

type yearCounts struct {
	read, kept int64
}

// classifier loads the obesity and T2D code lists.
func classifier(env *Env) (cohort.Classifier, error) {
	refs := env.Cfg.References
	obesity, err := reftable.CodeList(env.Cfg.Reference(refs.ObesityCodes))
	if err != nil {
		return cohort.Classifier{}, fmt.Errorf("obesity codes: %w", err)
	}
	t2d, err := reftable.CodeList(env.Cfg.Reference(refs.T2DCodes))
	if err != nil {
		return cohort.Classifier{}, fmt.Errorf("t2d codes: %w", err)
	}
	return cohort.Classifier{Obesity: obesity, T2D: t2d}, nil
}

// extractYears runs one claims filter per configured year and hands each
// year's retained lines to write.
func extractYears(ctx context.Context, env *Env, log zerolog.Logger, match claims.Matcher,
	write func(year int, lines []model.Claim) (int, error)) (model.StageSummary, error) {
	reg := env.Registry()
	results := worker.Run(ctx, log, env.Cfg.Years(), env.Cfg.Workers, func(ctx context.Context, year int) (yearCounts, error) {
		ylog := logging.ForYear(log, year)
		layout, err := reg.Claims(year)
		if err != nil {
			return yearCounts{}, err
		}
		f := &claims.Filter{Layout: layout, Year: year, Match: match}
		lines, stats, err := f.Run(ctx, ylog, env.Cfg.ClaimsDir(year))
		if err != nil {
			return yearCounts{}, err
		}
		n, err := write(year, lines)
		if err != nil {
			return yearCounts{}, err
		}
		ylog.Info().
			Int("partitions", stats.Partitions).
			Int("skipped", stats.Skipped).
			Int64("rows_read", stats.RowsRead).
			Int("rows_written", n).
			Str("duration", stats.Duration.String()).
			Msg("year extracted")
		return yearCounts{read: stats.RowsRead, kept: int64(n)}, nil
	})

	var sum model.StageSummary
	for _, r := range results {
		sum.RowsIn += r.Value.read
		sum.RowsOut += r.Value.kept
	}
	sum.FailedUnits = worker.Failed(results)
	return sum, nil
}

// ExtractCohort writes, per year, the claim lines carrying an obesity or T2D
// diagnosis, labelled with their condition.
func ExtractCohort(ctx context.Context, env *Env, log zerolog.Logger) (model.StageSummary, error) {
	cls, err := classifier(env)
	if err != nil {
		return model.StageSummary{}, err
	}
	art := env.Cfg.Artifacts()
	sum, err := extractYears(ctx, env, log, claims.AnyDiagnosis(cls.Obesity, cls.T2D), func(year int, lines []model.Claim) (int, error) {
		rows := cls.Label(lines)
		return len(rows), table.WriteCohort(art.Cohort(year), rows)
	})
	sum.Output = art.Dir
	return sum, err
}

// ExtractRx writes, per year, the prescription fills of the configured NDCs.
func ExtractRx(ctx context.Context, env *Env, log zerolog.Logger) (model.StageSummary, error) {
	ndc, err := reftable.NDCList(env.Cfg.Reference(env.Cfg.References.NDCList))
	if err != nil {
		return model.StageSummary{}, fmt.Errorf("ndc list: %w", err)
	}
	log.Info().Int("codes", len(ndc)).Msg("ndc list loaded")
	art := env.Cfg.Artifacts()
	sum, err := extractYears(ctx, env, log, claims.NDCIn(ndc), func(year int, lines []model.Claim) (int, error) {
		return len(lines), table.WriteRx(art.Rx(year), lines)
	})
	sum.Output = art.Dir
	return sum, err
}

// readYears reads one per-year artifact for every configured year. Missing
// years are logged and skipped.
func readYears[T any](env *Env, log zerolog.Logger, path func(year int) string, read func(string) ([]T, error)) (map[int][]T, error) {
	out := make(map[int][]T)
	for _, year := range env.Cfg.Years() {
		rows, err := read(path(year))
		if errors.Is(err, table.ErrNotFound) {
			log.Warn().Int("year", year).Str("artifact", path(year)).Msg("artifact missing, year skipped")
			continue
		}
		if err != nil {
			return nil, err
		}
		out[year] = rows
	}
	return out, nil
}

// CountCohort counts unique cohort patients per (year, state) from the
// cohort extracts joined to enrollment demographics.
func CountCohort(ctx context.Context, env *Env, log zerolog.Logger) (model.StageSummary, error) {
	art := env.Cfg.Artifacts()
	byYear, err := readYears(env, log, art.Cohort, table.ReadCohort)
	if err != nil {
		return model.StageSummary{}, err
	}

	var keys []model.PatientYearKey
	targets := enroll.NewTargets()
	var rowsIn int64
	for _, year := range env.Cfg.Years() {
		rows := byYear[year]
		rowsIn += int64(len(rows))
		for _, k := range cohort.PatientYears(rows) {
			keys = append(keys, k)
			targets.Add(k.PatientID)
		}
	}

	demo, err := enroll.Demographics(ctx, log, env.Cfg.DemographicsDir(), env.Registry(), targets)
	if err != nil {
		return model.StageSummary{}, fmt.Errorf("demographics: %w", err)
	}
	counts := cohort.CountByState(keys, demo, env.Cfg.AgeWindow())
	if err := table.WriteStateCounts(art.StateCounts(), counts); err != nil {
		return model.StageSummary{}, err
	}
	log.Info().Int("patient_years", len(keys)).Int("enrolled", len(demo)).Int("state_years", len(counts)).Msg("cohort counted")
	return model.StageSummary{RowsIn: rowsIn, RowsOut: int64(len(counts)), Output: art.StateCounts()}, nil
}

// BuildBase builds the base patient-year table: every cohort patient-year
// with its condition, plus every patient-year covered by a prescription
// fill, flagged as prescribed. Covered years outside the configured range
// are dropped.
func BuildBase(_ context.Context, env *Env, log zerolog.Logger) (model.StageSummary, error) {
	art := env.Cfg.Artifacts()
	cohorts, err := readYears(env, log, art.Cohort, table.ReadCohort)
	if err != nil {
		return model.StageSummary{}, err
	}
	rxs, err := readYears(env, log, art.Rx, table.ReadRx)
	if err != nil {
		return model.StageSummary{}, err
	}

	type entry struct {
		cond       model.Condition
		prescribed bool
	}
	base := make(map[model.PatientYearKey]*entry)
	get := func(k model.PatientYearKey) *entry {
		e, ok := base[k]
		if !ok {
			e = &entry{}
			base[k] = e
		}
		return e
	}

	var rowsIn int64
	for _, year := range env.Cfg.Years() {
		rows := cohorts[year]
		rowsIn += int64(len(rows))
		for _, r := range rows {
			e := get(model.PatientYearKey{PatientID: r.PatientID, Year: r.ServiceDate.Year()})
			if !e.cond.Valid() {
				e.cond = r.Condition
			}
		}
	}
	var outOfRange int
	for _, year := range env.Cfg.Years() {
		rx := rxs[year]
		rowsIn += int64(len(rx))
		for _, k := range claims.ExpandCoveredYears(rx) {
			if k.Year < env.Cfg.FromYear || k.Year > env.Cfg.ToYear {
				outOfRange++
				continue
			}
			get(k).prescribed = true
		}
	}

	keys := make([]model.PatientYearKey, 0, len(base))
	for k := range base {
		keys = append(keys, k)
	}
	claims.SortKeys(keys)
	rows := make([]model.PatientYear, len(keys))
	var prescribed int
	for i, k := range keys {
		e := base[k]
		rows[i] = model.PatientYear{PatientID: k.PatientID, Year: k.Year, Prescribed: e.prescribed}
		if e.cond.Valid() {
			c := string(e.cond)
			rows[i].Condition = &c
		}
		if e.prescribed {
			prescribed++
		}
	}

	if err := table.WritePatientYears(art.Base(), rows); err != nil {
		return model.StageSummary{}, err
	}
	log.Info().Int("patient_years", len(rows)).Int("prescribed", prescribed).Int("covered_out_of_range", outOfRange).Msg("base table built")
	return model.StageSummary{RowsIn: rowsIn, RowsOut: int64(len(rows)), Output: art.Base()}, nil
}
