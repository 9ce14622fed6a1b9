package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog"

	"github.com/gyeh/glpstats/internal/model"
	"github.com/gyeh/glpstats/internal/modelprep"
	"github.com/gyeh/glpstats/internal/rate"
	"github.com/gyeh/glpstats/internal/reftable"
	"github.com/gyeh/glpstats/internal/table"
)

// denominators loads the state population estimates and, when the cohort
// count artifact exists, the cohort counts. A missing cohort artifact
// yields nil counts.
func denominators(env *Env, log zerolog.Logger) (pop, cohortCounts []model.StateCount, err error) {
	pop, err = reftable.StatePopulation(env.Cfg.Reference(env.Cfg.References.StatePopulation))
	if err != nil {
		return nil, nil, fmt.Errorf("state population: %w", err)
	}
	cohortCounts, err = table.ReadStateCounts(env.Cfg.Artifacts().StateCounts())
	if errors.Is(err, table.ErrNotFound) {
		log.Warn().Str("artifact", env.Cfg.Artifacts().StateCounts()).Msg("cohort counts missing, cohort basis skipped")
		return pop, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return pop, cohortCounts, nil
}

// Rates computes the per-state prescribing rate under each basis and writes
// one file per year plus an all-years file per basis.
func Rates(_ context.Context, env *Env, log zerolog.Logger) (model.StageSummary, error) {
	art := env.Cfg.Artifacts()
	rows, err := table.ReadPatientYears(art.Final())
	if err != nil {
		return model.StageSummary{}, err
	}
	pop, cohortCounts, err := denominators(env, log)
	if err != nil {
		return model.StageSummary{}, err
	}

	num := rate.Numerators(rows)
	dens := map[rate.Basis][]model.StateCount{rate.BasisPopulation: pop}
	if cohortCounts != nil {
		dens[rate.BasisCohort] = cohortCounts
	}

	var written int64
	for _, basis := range []rate.Basis{rate.BasisPopulation, rate.BasisCohort} {
		den, ok := dens[basis]
		if !ok {
			continue
		}
		tables := rate.CalculateYears(env.Cfg.Years(), num, den, basis)
		var all []model.RateRow
		for _, yt := range tables {
			if err := table.WriteRates(art.Rates(string(basis), yt.Year), yt.Rows); err != nil {
				return model.StageSummary{}, err
			}
			all = append(all, yt.Rows...)
		}
		if err := table.WriteRates(art.Rates(string(basis), 0), all); err != nil {
			return model.StageSummary{}, err
		}
		written += int64(len(all))
		log.Info().Str("basis", string(basis)).Int("years", len(tables)).Int("rows", len(all)).Msg("rates written")
	}

	return model.StageSummary{RowsIn: int64(len(rows)), RowsOut: written, Output: art.Rates(string(rate.BasisPopulation), 0)}, nil
}

// ModelPrep aggregates the final table into the (weighted zip, year) design
// matrix. A missing RUCA table leaves every row's rural class unknown.
func ModelPrep(_ context.Context, env *Env, log zerolog.Logger) (model.StageSummary, error) {
	art := env.Cfg.Artifacts()
	rows, err := table.ReadPatientYears(art.Final())
	if err != nil {
		return model.StageSummary{}, err
	}
	pop, cohortCounts, err := denominators(env, log)
	if err != nil {
		return model.StageSummary{}, err
	}
	zips, err := reftable.Zips(env.Cfg.Reference(env.Cfg.References.Zips))
	if err != nil {
		return model.StageSummary{}, fmt.Errorf("zip demographics: %w", err)
	}
	ruca, err := reftable.RUCA(env.Cfg.Reference(env.Cfg.References.RUCA))
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", env.Cfg.References.RUCA).Msg("RUCA table missing, rural class unknown")
		ruca, err = nil, nil
	}
	if err != nil {
		return model.StageSummary{}, fmt.Errorf("ruca: %w", err)
	}

	out := modelprep.Build(rows, modelprep.Inputs{
		Population:   modelprep.Index(pop),
		CohortCounts: modelprep.Index(cohortCounts),
		Zips:         zips,
		CountyRUCA:   ruca,
	})
	if err := table.WriteModelRows(art.Model(), out); err != nil {
		return model.StageSummary{}, err
	}
	return model.StageSummary{RowsIn: int64(len(rows)), RowsOut: int64(len(out)), Output: art.Model()}, nil
}
