// Package cohort labels claim lines with a condition category and derives
// per-patient and per-state views of the labelled cohort.
package cohort

import (
	"sort"

	"github.com/gyeh/glpstats/internal/model"
)

// Classifier assigns cohort categories by intersecting a line's diagnosis
// codes with the obesity and type 2 diabetes code sets.
type Classifier struct {
	Obesity model.CodeSet
	T2D     model.CodeSet
}

// Classify returns Both when the codes hit both sets, otherwise the single
// set hit, otherwise ConditionNone. It has no side effects.
func (c Classifier) Classify(codes []string) model.Condition {
	obesity := c.Obesity.ContainsAny(codes)
	t2d := c.T2D.ContainsAny(codes)
	switch {
	case obesity && t2d:
		return model.ConditionBoth
	case obesity:
		return model.ConditionObesity
	case t2d:
		return model.ConditionT2D
	}
	return model.ConditionNone
}

// Acceptance returns the union of both code sets, the set the claims filter
// retains lines against.
func (c Classifier) Acceptance() model.CodeSet {
	s := make(model.CodeSet, len(c.Obesity)+len(c.T2D))
	for k := range c.Obesity {
		s[k] = struct{}{}
	}
	for k := range c.T2D {
		s[k] = struct{}{}
	}
	return s
}

// Label classifies each claim and drops the ones that fall in no category.
func (c Classifier) Label(lines []model.Claim) []model.CohortRow {
	out := make([]model.CohortRow, 0, len(lines))
	for i := range lines {
		cond := c.Classify(lines[i].Diagnoses)
		if cond == model.ConditionNone {
			continue
		}
		out = append(out, model.CohortRow{
			PatientID:   lines[i].PatientID,
			ServiceDate: lines[i].ServiceDate,
			Condition:   cond,
		})
	}
	return out
}

// BuildLookup maps each patient to a condition. Rows are consulted in order;
// the first labelled condition for a patient wins and unlabelled rows never
// displace it.
func BuildLookup(rows []model.CohortRow) map[string]model.Condition {
	lookup := make(map[string]model.Condition)
	for _, r := range rows {
		cur, ok := lookup[r.PatientID]
		if ok && cur.Valid() {
			continue
		}
		lookup[r.PatientID] = r.Condition
	}
	return lookup
}

// PatientYears returns the unique (patient, year) keys of rows.
func PatientYears(rows []model.CohortRow) []model.PatientYearKey {
	seen := make(map[model.PatientYearKey]struct{}, len(rows))
	var keys []model.PatientYearKey
	for _, r := range rows {
		k := model.PatientYearKey{PatientID: r.PatientID, Year: r.ServiceDate.Year()}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

// AgeWindow is an inclusive age range.
type AgeWindow struct {
	Min, Max int
}

// Contains reports whether age lies in the window.
func (w AgeWindow) Contains(age int) bool {
	return age >= w.Min && age <= w.Max
}

// CountByState counts unique cohort patients per (year, state). Each
// patient-year is joined to the patient's enrollment demographics; keys with
// no enrollment record, no birth year, no state, or an age outside window
// are not counted. Results are sorted by year then state.
func CountByState(keys []model.PatientYearKey, demo map[string]model.Demographic, window AgeWindow) []model.StateCount {
	type bucket struct {
		year  int
		state string
	}
	patients := make(map[bucket]map[string]struct{})
	for _, k := range keys {
		d, ok := demo[k.PatientID]
		if !ok || d.BirthYear == nil || d.State == nil {
			continue
		}
		if !window.Contains(k.Year - *d.BirthYear) {
			continue
		}
		b := bucket{year: k.Year, state: *d.State}
		set, ok := patients[b]
		if !ok {
			set = make(map[string]struct{})
			patients[b] = set
		}
		set[k.PatientID] = struct{}{}
	}

	out := make([]model.StateCount, 0, len(patients))
	for b, set := range patients {
		out = append(out, model.StateCount{Year: b.year, State: b.state, Count: int64(len(set))})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].State < out[j].State
	})
	return out
}
