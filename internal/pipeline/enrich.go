package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gyeh/glpstats/internal/finalize"
	"github.com/gyeh/glpstats/internal/geo"
	"github.com/gyeh/glpstats/internal/model"
	"github.com/gyeh/glpstats/internal/reftable"
	"github.com/gyeh/glpstats/internal/table"
)

// EnrichGeo attaches the weighted zip, county and neighborhood attributes.
// No row is dropped here.
func EnrichGeo(_ context.Context, env *Env, log zerolog.Logger) (model.StageSummary, error) {
	art := env.Cfg.Artifacts()
	rows, err := table.ReadPatientYears(art.Condition())
	if err != nil {
		return model.StageSummary{}, err
	}
	zips, err := reftable.ZipMap(env.Cfg.Reference(env.Cfg.References.ZipMap))
	if err != nil {
		return model.StageSummary{}, fmt.Errorf("zip map: %w", err)
	}
	if zips.Conflicts > 0 {
		log.Warn().Int("conflicts", zips.Conflicts).Msg("zip3 maps to more than one weighted zip, first row kept")
	}
	zt, err := reftable.Zips(env.Cfg.Reference(env.Cfg.References.Zips))
	if err != nil {
		return model.StageSummary{}, fmt.Errorf("zip demographics: %w", err)
	}

	out, rep := geo.Enrich(log, rows, zips, zt)
	if err := table.WritePatientYears(art.Geo(), out); err != nil {
		return model.StageSummary{}, err
	}
	return model.StageSummary{
		RowsIn:  int64(rep.Rows),
		RowsOut: int64(len(out)),
		Filled:  map[string]int{"weighted_zip": rep.Enriched},
		Output:  art.Geo(),
	}, nil
}

// Finalize spells out pay types and drops rows missing any required or
// neighborhood column.
func Finalize(_ context.Context, env *Env, log zerolog.Logger) (model.StageSummary, error) {
	art := env.Cfg.Artifacts()
	rows, err := table.ReadPatientYears(art.Geo())
	if err != nil {
		return model.StageSummary{}, err
	}
	out, rep := finalize.Run(rows)
	if err := table.WritePatientYears(art.Final(), out); err != nil {
		return model.StageSummary{}, err
	}
	log.Info().Int("pay_types_mapped", rep.Mapped).Interface("dropped_by_column", rep.DroppedByCol).Msg("final table written")
	return model.StageSummary{
		RowsIn:      int64(rep.Rows),
		RowsOut:     int64(len(out)),
		RowsDropped: int64(rep.Dropped),
		Output:      art.Final(),
	}, nil
}
