package model

import "strconv"

// ModelRow is one (weighted zip, year) observation of the model design matrix.
type ModelRow struct {
	WeightedZip     string
	Year            int
	State           *string
	PatientCount    int64
	StatePopulation *int64
	Rate            *float64 // prescribing patients per 1000 state residents
	CohortRate      *float64 // cohort patients per state resident
	CountyFIPS      *string
	RUCA            *string
	RuralUrban      string
	Neighborhood    Neighborhood
}

// IsUrban encodes RuralUrban as 1/0; nil for Unknown.
func (m *ModelRow) IsUrban() *int {
	var v int
	switch m.RuralUrban {
	case "Urban":
		v = 1
	case "Rural":
		v = 0
	default:
		return nil
	}
	return &v
}

// ModelColumns are the output columns of the model design matrix.
func ModelColumns() []string {
	cols := []string{
		"weighted_zip",
		"year",
		"state_id",
		"glp1ra_count",
		"state_population",
		"glp1ra_rate",
		"diabetes_obesity_population_rate",
		"county_fips",
		"PrimaryRUCADescription",
		"rural_urban",
		"is_urban",
	}
	return append(cols, NeighborhoodColumns()...)
}

// Record returns the row as CSV fields in ModelColumns order.
func (m *ModelRow) Record() []string {
	pop := ""
	if m.StatePopulation != nil {
		pop = strconv.FormatInt(*m.StatePopulation, 10)
	}
	rec := []string{
		m.WeightedZip,
		strconv.Itoa(m.Year),
		deref(m.State),
		strconv.FormatInt(m.PatientCount, 10),
		pop,
		fmtFloat(m.Rate),
		fmtFloat(m.CohortRate),
		deref(m.CountyFIPS),
		deref(m.RUCA),
		m.RuralUrban,
		fmtInt(m.IsUrban()),
	}
	for _, f := range NeighborhoodFields {
		rec = append(rec, fmtFloat(*f.Ptr(&m.Neighborhood)))
	}
	return rec
}
