package fill

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/glpstats/internal/model"
)

// Candidates are per-key partial rows proposed by a Source. Only the fields
// the engine fills are read.
type Candidates struct {
	Values      map[model.PatientYearKey]model.PatientYear
	FailedUnits []int
}

// Source produces candidates for the rows that need fill. need holds each
// key once.
type Source interface {
	Candidates(ctx context.Context, need []model.PatientYearKey) (Candidates, error)
}

// Engine runs one fill pass over a patient-year table.
type Engine struct {
	Name   string
	Fields []Field
	// Prepare normalizes every row before the needs-fill mask is computed.
	Prepare func(r *model.PatientYear)
	// Finish runs on every row after merging, before the final requirement.
	Finish func(r *model.PatientYear)
	// Keep is the final requirement; rows it rejects are dropped. Nil keeps
	// every row.
	Keep func(r *model.PatientYear) bool
	Log  zerolog.Logger
}

// Report counts what a pass did.
type Report struct {
	Rows        int
	NeedsFill   int
	Filled      map[string]int
	Dropped     int
	FailedUnits []int
	Duration    time.Duration
}

// NeedsFill reports whether any field of r is missing or invalid.
func (e *Engine) NeedsFill(r *model.PatientYear) bool {
	for _, f := range e.Fields {
		if f.Missing(r) {
			return true
		}
	}
	return false
}

// Run fills rows from src and returns a new table; rows is not modified.
// When no row needs fill the table is returned as-is and src is not called.
func (e *Engine) Run(ctx context.Context, rows []model.PatientYear, src Source) ([]model.PatientYear, Report, error) {
	start := time.Now()
	rep := Report{Rows: len(rows), Filled: make(map[string]int, len(e.Fields))}

	work := make([]model.PatientYear, len(rows))
	for i := range rows {
		work[i] = rows[i].Clone()
		if e.Prepare != nil {
			e.Prepare(&work[i])
		}
	}

	needs := make([]bool, len(work))
	seen := make(map[model.PatientYearKey]struct{})
	var need []model.PatientYearKey
	for i := range work {
		if !e.NeedsFill(&work[i]) {
			continue
		}
		needs[i] = true
		rep.NeedsFill++
		k := work[i].Key()
		if _, dup := seen[k]; !dup {
			seen[k] = struct{}{}
			need = append(need, k)
		}
	}

	if rep.NeedsFill == 0 {
		rep.Duration = time.Since(start)
		e.Log.Info().Str("pass", e.Name).Int("rows", rep.Rows).Msg("nothing to fill")
		return rows, rep, nil
	}

	cands, err := src.Candidates(ctx, need)
	if err != nil {
		return nil, rep, fmt.Errorf("%s candidates: %w", e.Name, err)
	}
	rep.FailedUnits = cands.FailedUnits

	out, rep := e.Apply(work, needs, cands.Values, rep)
	rep.Duration = time.Since(start)

	e.Log.Info().
		Str("pass", e.Name).
		Int("rows", rep.Rows).
		Int("needs_fill", rep.NeedsFill).
		Int("candidates", len(cands.Values)).
		Interface("filled", rep.Filled).
		Int("dropped", rep.Dropped).
		Ints("failed_units", rep.FailedUnits).
		Str("duration", rep.Duration.String()).
		Msg("fill pass complete")
	return out, rep, nil
}

// Apply merges candidates into the rows flagged in needs, finishes every row
// and drops those failing the final requirement. work is modified in place.
func (e *Engine) Apply(work []model.PatientYear, needs []bool, cands map[model.PatientYearKey]model.PatientYear, rep Report) ([]model.PatientYear, Report) {
	if rep.Filled == nil {
		rep.Filled = make(map[string]int, len(e.Fields))
	}
	for i := range work {
		if !needs[i] {
			continue
		}
		cand, ok := cands[work[i].Key()]
		if !ok {
			continue
		}
		for _, f := range e.Fields {
			if !f.Missing(&work[i]) {
				continue
			}
			if f.Merge(&work[i], &cand) {
				rep.Filled[f.Name]++
			}
		}
	}

	out := work[:0]
	for i := range work {
		if e.Finish != nil {
			e.Finish(&work[i])
		}
		if e.Keep != nil && !e.Keep(&work[i]) {
			rep.Dropped++
			continue
		}
		out = append(out, work[i])
	}
	return out, rep
}
