package model

import "strconv"

// RateRow is one (year, state) prescribing rate. Rate is nil when the
// denominator is missing or zero.
type RateRow struct {
	Year        int
	State       string
	Numerator   int64
	Denominator *int64
	Rate        *float64 // per 1000
}

// RateColumns are the output columns of a rate table.
func RateColumns() []string {
	return []string{"year", "state_abbrev", "numerator", "denominator", "prescribing_rate_per_1000"}
}

// Record returns the row as CSV fields in RateColumns order.
func (r *RateRow) Record() []string {
	den := ""
	if r.Denominator != nil {
		den = strconv.FormatInt(*r.Denominator, 10)
	}
	return []string{
		strconv.Itoa(r.Year),
		r.State,
		strconv.FormatInt(r.Numerator, 10),
		den,
		fmtFloat(r.Rate),
	}
}

// CopyValues returns the row values for COPY into analytics.state_rates
// (basis and load batch columns are prepended by the loader).
func (r *RateRow) CopyValues() []any {
	return []any{int32(r.Year), r.State, r.Numerator, r.Denominator, r.Rate}
}
