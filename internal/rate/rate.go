// Package rate computes per-state prescribing rates per 1000 of a
// population or cohort denominator.
package rate

import (
	"fmt"
	"sort"

	"github.com/gyeh/glpstats/internal/model"
)

// Basis names the denominator of a rate table.
type Basis string

const (
	// BasisPopulation divides by state resident population.
	BasisPopulation Basis = "population"
	// BasisCohort divides by the state's obesity/T2D cohort size.
	BasisCohort Basis = "cohort"
)

// ParseBasis validates a basis name.
func ParseBasis(s string) (Basis, error) {
	switch Basis(s) {
	case BasisPopulation, BasisCohort:
		return Basis(s), nil
	}
	return "", fmt.Errorf("unknown rate basis %q (want population or cohort)", s)
}

// DistrictOfColumbia is the state code whose population is often absent
// from state estimates.
const DistrictOfColumbia = "DC"

// dcPopulation is the District's resident population by year.
var dcPopulation = map[int]int64{
	2010: 601723,
	2011: 617996,
	2012: 632323,
	2013: 646449,
	2014: 658893,
	2015: 672228,
	2016: 681170,
	2017: 693972,
	2018: 702455,
	2019: 705749,
	2020: 689545,
	2021: 670050,
	2022: 671803,
}

// DCPopulation returns the fallback District population for year.
func DCPopulation(year int) (int64, bool) {
	v, ok := dcPopulation[year]
	return v, ok
}

// Numerators counts unique prescribed patients per (year, state). Rows
// without a state are not counted.
func Numerators(rows []model.PatientYear) []model.StateCount {
	type key struct {
		year  int
		state string
	}
	seen := make(map[key]map[string]struct{})
	for i := range rows {
		r := &rows[i]
		if !r.Prescribed || r.State == nil {
			continue
		}
		k := key{year: r.Year, state: *r.State}
		set, ok := seen[k]
		if !ok {
			set = make(map[string]struct{})
			seen[k] = set
		}
		set[r.PatientID] = struct{}{}
	}
	out := make([]model.StateCount, 0, len(seen))
	for k, set := range seen {
		out = append(out, model.StateCount{Year: k.year, State: k.state, Count: int64(len(set))})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].State < out[j].State
	})
	return out
}

// Calculate outer-joins one year's numerators and denominators on state.
// States absent from the numerator get 0. A missing or zero denominator
// leaves the rate nil; for the cohort basis a missing denominator is
// reported as 0. Under the population basis a District row with no
// population takes the fallback table value. Returns nil when the year has
// no numerator rows, or for the cohort basis no denominator rows.
func Calculate(year int, num, den []model.StateCount, basis Basis) []model.RateRow {
	byState := make(map[string]*model.RateRow)
	get := func(state string) *model.RateRow {
		r, ok := byState[state]
		if !ok {
			r = &model.RateRow{Year: year, State: state}
			byState[state] = r
		}
		return r
	}

	var nNum, nDen int
	for _, c := range num {
		if c.Year != year {
			continue
		}
		nNum++
		get(c.State).Numerator += c.Count
	}
	for _, c := range den {
		if c.Year != year {
			continue
		}
		nDen++
		v := c.Count
		get(c.State).Denominator = &v
	}
	if nNum == 0 || (basis == BasisCohort && nDen == 0) {
		return nil
	}

	out := make([]model.RateRow, 0, len(byState))
	for _, r := range byState {
		if r.Denominator == nil {
			switch {
			case basis == BasisPopulation && r.State == DistrictOfColumbia:
				if v, ok := DCPopulation(year); ok {
					r.Denominator = &v
				}
			case basis == BasisCohort:
				var zero int64
				r.Denominator = &zero
			}
		}
		if r.Denominator != nil && *r.Denominator != 0 {
			v := float64(r.Numerator) / float64(*r.Denominator) * 1000
			r.Rate = &v
		}
		out = append(out, *r)
	}
	Sort(out)
	return out
}

// Sort orders rows by rate descending with nil rates last, then by state.
func Sort(rows []model.RateRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Rate, rows[j].Rate
		switch {
		case a != nil && b != nil && *a != *b:
			return *a > *b
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return rows[i].State < rows[j].State
	})
}

// YearTable is one year's rate rows.
type YearTable struct {
	Year int
	Rows []model.RateRow
}

// CalculateYears runs Calculate for each year and keeps the years that
// produced rows.
func CalculateYears(years []int, num, den []model.StateCount, basis Basis) []YearTable {
	var out []YearTable
	for _, y := range years {
		if rows := Calculate(y, num, den, basis); rows != nil {
			out = append(out, YearTable{Year: y, Rows: rows})
		}
	}
	return out
}
