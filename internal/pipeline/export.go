package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/glpstats/internal/db"
	"github.com/gyeh/glpstats/internal/parquetio"
	"github.com/gyeh/glpstats/internal/partition"
	"github.com/gyeh/glpstats/internal/rate"
	"github.com/gyeh/glpstats/internal/table"
)

// Export writes the final table as Parquet and returns the row count.
func Export(env *Env) (int, error) {
	art := env.Cfg.Artifacts()
	rows, err := table.ReadPatientYears(art.Final())
	if err != nil {
		return 0, &StageError{Stage: "export", Err: err}
	}
	if err := parquetio.Write(art.Export(), rows); err != nil {
		return 0, &StageError{Stage: "export", Err: err}
	}
	env.Log.Info().Int("rows", len(rows)).Str("output", art.Export()).Msg("parquet export complete")
	return len(rows), nil
}

// Load copies the final table and the all-years rate tables into the
// warehouse. Rate tables that were never computed are skipped.
func Load(ctx context.Context, env *Env, pool *pgxpool.Pool, force bool) ([]*db.LoadResult, error) {
	art := env.Cfg.Artifacts()
	rows, err := table.ReadPatientYears(art.Final())
	if err != nil {
		return nil, &StageError{Stage: "load", Err: err}
	}
	res, err := db.LoadPatientYears(ctx, pool, env.Log, art.Final(), rows, force)
	if err != nil {
		return nil, &StageError{Stage: "load", Err: err}
	}
	results := []*db.LoadResult{res}

	for _, basis := range []rate.Basis{rate.BasisPopulation, rate.BasisCohort} {
		path := art.Rates(string(basis), 0)
		rates, err := table.ReadRates(path)
		if errors.Is(err, table.ErrNotFound) {
			env.Log.Warn().Str("artifact", path).Msg("rate table missing, not loaded")
			continue
		}
		if err != nil {
			return results, &StageError{Stage: "load", Err: err}
		}
		res, err := db.LoadRates(ctx, pool, env.Log, path, string(basis), rates, force)
		if err != nil {
			return results, &StageError{Stage: "load", Err: err}
		}
		results = append(results, res)
	}
	return results, nil
}

// YearPlan describes the raw inputs found for one year.
type YearPlan struct {
	Year             int
	ClaimsColumns    int
	ClaimsPartitions int
	PayerPartitions  int
	Problems         []string
}

// Plan is a dry-run inventory of the configured inputs.
type Plan struct {
	Years                 []YearPlan
	DemographicPartitions int
	MissingReferences     []string
	Problems              []string
}

// OK reports whether every input needed by a full run was found.
func (p *Plan) OK() bool {
	if len(p.MissingReferences) > 0 || len(p.Problems) > 0 {
		return false
	}
	for _, y := range p.Years {
		if len(y.Problems) > 0 {
			return false
		}
	}
	return true
}

// BuildPlan checks that header layouts, partition directories and reference
// tables exist without reading any rows.
func BuildPlan(env *Env) *Plan {
	cfg := env.Cfg
	reg := env.Registry()
	p := &Plan{}

	for _, year := range cfg.Years() {
		yp := YearPlan{Year: year}
		layout, err := reg.Claims(year)
		if err != nil {
			yp.Problems = append(yp.Problems, err.Error())
		} else {
			yp.ClaimsColumns = layout.Width()
			if _, err := layout.Require("pat_id", "to_dt"); err != nil {
				yp.Problems = append(yp.Problems, err.Error())
			}
		}
		if parts, err := partition.List(cfg.ClaimsDir(year)); err != nil {
			yp.Problems = append(yp.Problems, fmt.Sprintf("claims: %v", err))
		} else {
			yp.ClaimsPartitions = len(parts)
		}
		if parts, err := partition.List(cfg.PayerDir(year)); err != nil {
			yp.Problems = append(yp.Problems, fmt.Sprintf("payer enrollment: %v", err))
		} else {
			yp.PayerPartitions = len(parts)
		}
		p.Years = append(p.Years, yp)
	}

	if parts, err := partition.List(cfg.DemographicsDir()); err != nil {
		p.Problems = append(p.Problems, fmt.Sprintf("demographic enrollment: %v", err))
	} else {
		p.DemographicPartitions = len(parts)
	}

	refs := cfg.References
	for _, ref := range []string{refs.ObesityCodes, refs.T2DCodes, refs.NDCList, refs.ZipMap, refs.Zips, refs.StatePopulation, refs.RUCA} {
		if _, err := os.Stat(cfg.Reference(ref)); err != nil {
			p.MissingReferences = append(p.MissingReferences, cfg.Reference(ref))
		}
	}
	return p
}
