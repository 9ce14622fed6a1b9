package model

import "time"

// MaxDiagnoses is the number of diagnosis columns on a claim line.
const MaxDiagnoses = 12

// Claim is one retained raw claim line. It is never modified after the filter
// produces it.
type Claim struct {
	PatientID   string
	ServiceDate time.Time
	Diagnoses   []string // non-empty diagnosis codes, at most MaxDiagnoses
	NDC         string
	DaysSupply  string
}

// CohortRow is a claim line labelled with its cohort category.
type CohortRow struct {
	PatientID   string
	ServiceDate time.Time
	Condition   Condition
}

// PatientYearKey identifies a patient-year row.
type PatientYearKey struct {
	PatientID string
	Year      int
}

// StateCount is a count keyed by (year, state): unique patients, a cohort size
// or a population estimate depending on the table it came from.
type StateCount struct {
	Year  int
	State string
	Count int64
}

// StateYear keys state-level lookups.
type StateYear struct {
	State string
	Year  int
}
