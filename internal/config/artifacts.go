package config

import (
	"fmt"
	"path/filepath"
)

// Artifacts names every file a stage reads or writes.
type Artifacts struct {
	Dir string
}

func (a Artifacts) path(name string) string { return filepath.Join(a.Dir, name) }

func (a Artifacts) Cohort(year int) string { return a.path(fmt.Sprintf("cohort_%d.csv", year)) }
func (a Artifacts) Rx(year int) string     { return a.path(fmt.Sprintf("rx_%d.csv", year)) }
func (a Artifacts) StateCounts() string    { return a.path("cohort_state_counts.csv") }
func (a Artifacts) Base() string           { return a.path("patient_year.csv") }
func (a Artifacts) Demographics() string   { return a.path("patient_year_filled.csv") }
func (a Artifacts) Payer() string          { return a.path("payment_type_filled.csv") }
func (a Artifacts) Condition() string      { return a.path("payment_type_filled_with_condition.csv") }
func (a Artifacts) Geo() string            { return a.path("merged_data.csv") }
func (a Artifacts) Final() string          { return a.path("final_data.csv") }
func (a Artifacts) Model() string          { return a.path("model_data.csv") }
func (a Artifacts) Export() string         { return a.path("final_data.parquet") }

// Rates is the per-year rate file for basis; year 0 names the all-years file.
func (a Artifacts) Rates(basis string, year int) string {
	suffix := "all_years"
	if year != 0 {
		suffix = fmt.Sprint(year)
	}
	return a.path(fmt.Sprintf("rates_%s_by_state_%s.csv", basis, suffix))
}
