package fill

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/gyeh/glpstats/internal/cohort"
	"github.com/gyeh/glpstats/internal/enroll"
	"github.com/gyeh/glpstats/internal/model"
	"github.com/gyeh/glpstats/internal/normalize"
	"github.com/gyeh/glpstats/internal/schema"
	"github.com/gyeh/glpstats/internal/worker"
)

// Candidate ages outside this range are treated as bad birth years.
const (
	minPlausibleAge = 0
	maxPlausibleAge = 120
)

// DemographicLookup fetches enrollment snapshots for target patients.
type DemographicLookup func(ctx context.Context, targets *enroll.Targets) (map[string]model.Demographic, error)

// EnrollmentDemographics looks snapshots up in the demographic enrollment
// partitions under dir.
func EnrollmentDemographics(log zerolog.Logger, dir string, reg *schema.Registry) DemographicLookup {
	return func(ctx context.Context, targets *enroll.Targets) (map[string]model.Demographic, error) {
		return enroll.Demographics(ctx, log, dir, reg, targets)
	}
}

// DemographicSource proposes age, sex, state and zip3 from enrollment. Age
// is the requested year minus the enrollment birth year.
type DemographicSource struct {
	Lookup DemographicLookup
}

func (s *DemographicSource) Candidates(ctx context.Context, need []model.PatientYearKey) (Candidates, error) {
	targets := enroll.NewTargets()
	for _, k := range need {
		targets.Add(k.PatientID)
	}
	demo, err := s.Lookup(ctx, targets)
	if err != nil {
		return Candidates{}, err
	}

	values := make(map[model.PatientYearKey]model.PatientYear, len(need))
	for _, k := range need {
		d, ok := demo[k.PatientID]
		if !ok {
			continue
		}
		c := model.PatientYear{PatientID: k.PatientID, Year: k.Year, Sex: d.Sex, State: d.State, Zip3: d.Zip3}
		if d.BirthYear != nil {
			age := k.Year - *d.BirthYear
			if age >= minPlausibleAge && age <= maxPlausibleAge {
				c.Age = &age
			}
		}
		values[k] = c
	}
	return Candidates{Values: values}, nil
}

// PayerLookup fetches the payer enrollment of target patients for one year.
type PayerLookup func(ctx context.Context, year int, targets *enroll.Targets) (map[string]model.PayerEnrollment, error)

// EnrollmentPayer looks payer records up in the per-year payer partitions;
// dirFor maps a year to its partition directory.
func EnrollmentPayer(log zerolog.Logger, dirFor func(year int) string, reg *schema.Registry) PayerLookup {
	return func(ctx context.Context, year int, targets *enroll.Targets) (map[string]model.PayerEnrollment, error) {
		return enroll.Payer(ctx, log.With().Int("year", year).Logger(), dirFor(year), reg, targets)
	}
}

// PayerSource proposes pay types, one work unit per year. A failed year is
// reported in FailedUnits and its rows get no candidates.
type PayerSource struct {
	Lookup  PayerLookup
	Workers int
	Log     zerolog.Logger
}

func (s *PayerSource) Candidates(ctx context.Context, need []model.PatientYearKey) (Candidates, error) {
	byYear := make(map[int]*enroll.Targets)
	for _, k := range need {
		t, ok := byYear[k.Year]
		if !ok {
			t = enroll.NewTargets()
			byYear[k.Year] = t
		}
		t.Add(k.PatientID)
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	results := worker.Run(ctx, s.Log, years, s.Workers, func(ctx context.Context, year int) (map[string]model.PayerEnrollment, error) {
		return s.Lookup(ctx, year, byYear[year])
	})

	values := make(map[model.PatientYearKey]model.PatientYear, len(need))
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		for pid, p := range res.Value {
			k := model.PatientYearKey{PatientID: pid, Year: res.Key}
			values[k] = model.PatientYear{PatientID: pid, Year: res.Key, PayType: p.PayType}
		}
	}
	return Candidates{Values: values, FailedUnits: worker.Failed(results)}, nil
}

// ConditionSource proposes a patient's cohort condition from a lookup built
// over every year's cohort extract.
type ConditionSource struct {
	Lookup map[string]model.Condition
}

func (s *ConditionSource) Candidates(_ context.Context, need []model.PatientYearKey) (Candidates, error) {
	values := make(map[model.PatientYearKey]model.PatientYear, len(need))
	for _, k := range need {
		cond, ok := s.Lookup[k.PatientID]
		if !ok || !cond.Valid() {
			continue
		}
		v := string(cond)
		values[k] = model.PatientYear{PatientID: k.PatientID, Year: k.Year, Condition: &v}
	}
	return Candidates{Values: values}, nil
}

func validCondition(v *string) bool {
	return v != nil && model.Condition(*v).Valid()
}

func validPayType(v *string) bool {
	return v != nil && *v != ""
}

// DemographicEngine fills age, sex, state and zip3, then drops rows that are
// still incomplete or whose age falls outside window.
func DemographicEngine(log zerolog.Logger, window cohort.AgeWindow) *Engine {
	return &Engine{
		Name: "demographics",
		Fields: []Field{
			NewField("age", func(r *model.PatientYear) **int { return &r.Age }, NonNil[int], KeepLeftIfValid),
			NewField("der_sex", func(r *model.PatientYear) **string { return &r.Sex }, NonNil[string], KeepLeftIfValid),
			NewField("pat_state", func(r *model.PatientYear) **string { return &r.State }, NonNil[string], KeepLeftIfValid),
			NewField("pat_zip3", func(r *model.PatientYear) **string { return &r.Zip3 }, normalize.IsValidZip3, KeepLeftIfValid),
		},
		Prepare: func(r *model.PatientYear) {
			r.Zip3 = normalize.Zip3(r.Zip3)
		},
		Keep: func(r *model.PatientYear) bool {
			return r.Age != nil && window.Contains(*r.Age) &&
				r.Sex != nil && r.State != nil && normalize.IsValidZip3(r.Zip3)
		},
		Log: log,
	}
}

// PayerEngine fills pay type; rows with no payer record get the unknown
// code and none are dropped.
func PayerEngine(log zerolog.Logger) *Engine {
	return &Engine{
		Name: "payer",
		Fields: []Field{
			NewField("pay_type", func(r *model.PatientYear) **string { return &r.PayType }, validPayType, KeepLeftIfValid),
		},
		Finish: func(r *model.PatientYear) {
			if !validPayType(r.PayType) {
				u := normalize.UnknownPayType
				r.PayType = &u
			}
		},
		Log: log,
	}
}

// ConditionEngine fills the cohort condition and drops rows left without
// one.
func ConditionEngine(log zerolog.Logger) *Engine {
	return &Engine{
		Name: "condition",
		Fields: []Field{
			NewField("condition", func(r *model.PatientYear) **string { return &r.Condition }, validCondition, KeepLeftIfValid),
		},
		Keep: func(r *model.PatientYear) bool {
			return validCondition(r.Condition)
		},
		Log: log,
	}
}

