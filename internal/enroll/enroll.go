// Package enroll looks up demographic and payer attributes for a target
// patient set in the partitioned enrollment extracts. Rows are filtered to
// the targets while a partition is scanned, so unfiltered partitions are
// never held in memory.
package enroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/gyeh/glpstats/internal/model"
	"github.com/gyeh/glpstats/internal/normalize"
	"github.com/gyeh/glpstats/internal/partition"
	"github.com/gyeh/glpstats/internal/schema"
)

// Targets is the set of patients (and optionally periods) a lookup is
// restricted to.
type Targets struct {
	patients map[string]map[string]struct{} // nil inner set: any period
}

// NewTargets returns targets for ids with no period restriction.
func NewTargets(ids ...string) *Targets {
	t := &Targets{patients: make(map[string]map[string]struct{}, len(ids))}
	for _, id := range ids {
		t.Add(id)
	}
	return t
}

// Add targets id for any period.
func (t *Targets) Add(id string) {
	if _, ok := t.patients[id]; !ok {
		t.patients[id] = nil
	}
}

// AddPeriod targets id for one period (a YYYYMM month id for payer data).
func (t *Targets) AddPeriod(id, period string) {
	set := t.patients[id]
	if set == nil {
		set = make(map[string]struct{})
		t.patients[id] = set
	}
	set[period] = struct{}{}
}

// Len is the number of target patients.
func (t *Targets) Len() int {
	return len(t.patients)
}

// Wants reports whether a row for id in period should be kept.
func (t *Targets) Wants(id, period string) bool {
	set, ok := t.patients[id]
	if !ok {
		return false
	}
	if set == nil {
		return true
	}
	_, ok = set[period]
	return ok
}

// Demographics returns one enrollment snapshot per target patient found in
// dir. When a patient has several records the most specific one is kept;
// ties keep the first in partition order. A missing dir yields an empty
// table.
func Demographics(ctx context.Context, log zerolog.Logger, dir string, reg *schema.Registry, targets *Targets) (map[string]model.Demographic, error) {
	layout, err := reg.Lookup(schema.EnrollDemographics)
	if err != nil {
		return nil, err
	}
	idx, err := layout.Require("pat_id", "der_sex", "der_yob", "pat_region", "pat_state", "pat_zip3", "grp_indv_cd")
	if err != nil {
		return nil, fmt.Errorf("demographics layout: %w", err)
	}

	rows, stats, err := partition.Collect(ctx, log, dir, layout, func(row []string) (model.Demographic, bool, error) {
		pid := normalize.OptStr(row[idx[0]])
		if pid == nil || !targets.Wants(*pid, "") {
			return model.Demographic{}, false, nil
		}
		return model.Demographic{
			PatientID:       *pid,
			Sex:             normalize.OptStr(row[idx[1]]),
			BirthYear:       normalize.OptInt(row[idx[2]]),
			Region:          normalize.OptStr(row[idx[3]]),
			State:           normalize.State(row[idx[4]]),
			Zip3:            normalize.Zip3(normalize.OptStr(row[idx[5]])),
			GroupIndividual: normalize.OptStr(row[idx[6]]),
		}, true, nil
	})
	if errors.Is(err, partition.ErrMissingInput) {
		log.Warn().Str("dir", dir).Msg("demographic enrollment directory missing, returning empty table")
		return map[string]model.Demographic{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("demographics: %w", err)
	}

	out := make(map[string]model.Demographic, targets.Len())
	for i := range rows {
		cur, ok := out[rows[i].PatientID]
		if ok && cur.Specificity() >= rows[i].Specificity() {
			continue
		}
		out[rows[i].PatientID] = rows[i]
	}

	log.Info().
		Int("targets", targets.Len()).
		Int("matched", len(out)).
		Int64("rows_kept", stats.RowsKept).
		Int("partitions_skipped", stats.Skipped).
		Msg("demographic enrollment joined")
	return out, nil
}

// Payer returns the latest (by month id) payer enrollment per target patient
// found in dir. When targets carry periods only those months are considered.
// A missing dir yields an empty table.
func Payer(ctx context.Context, log zerolog.Logger, dir string, reg *schema.Registry, targets *Targets) (map[string]model.PayerEnrollment, error) {
	layout, err := reg.Lookup(schema.EnrollPayer)
	if err != nil {
		return nil, err
	}
	idx, err := layout.Require("pat_id", "pay_type", "month_id")
	if err != nil {
		return nil, fmt.Errorf("payer layout: %w", err)
	}

	rows, stats, err := partition.Collect(ctx, log, dir, layout, func(row []string) (model.PayerEnrollment, bool, error) {
		pid := normalize.OptStr(row[idx[0]])
		if pid == nil {
			return model.PayerEnrollment{}, false, nil
		}
		month := normalize.DerefStr(normalize.OptStr(row[idx[2]]))
		if !targets.Wants(*pid, month) {
			return model.PayerEnrollment{}, false, nil
		}
		return model.PayerEnrollment{
			PatientID: *pid,
			PayType:   normalize.OptStr(row[idx[1]]),
			MonthID:   month,
		}, true, nil
	})
	if errors.Is(err, partition.ErrMissingInput) {
		log.Warn().Str("dir", dir).Msg("payer enrollment directory missing, returning empty table")
		return map[string]model.PayerEnrollment{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("payer: %w", err)
	}

	out := make(map[string]model.PayerEnrollment, targets.Len())
	for _, r := range rows {
		cur, ok := out[r.PatientID]
		if ok && laterMonth(cur.MonthID, r.MonthID) {
			continue
		}
		out[r.PatientID] = r
	}

	log.Info().
		Int("targets", targets.Len()).
		Int("matched", len(out)).
		Int64("rows_kept", stats.RowsKept).
		Int("partitions_skipped", stats.Skipped).
		Msg("payer enrollment joined")
	return out, nil
}

// laterMonth reports whether month id a sorts after b. Numeric ids compare
// as integers; anything else falls back to string order.
func laterMonth(a, b string) bool {
	x, y := normalize.OptInt(a), normalize.OptInt(b)
	if x != nil && y != nil {
		return *x > *y
	}
	return a > b
}
