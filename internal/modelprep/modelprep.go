// Package modelprep aggregates the final patient-year table into the
// (weighted zip, year) design matrix consumed by external model fitting.
package modelprep

import (
	"sort"

	"github.com/gyeh/glpstats/internal/geo"
	"github.com/gyeh/glpstats/internal/model"
	"github.com/gyeh/glpstats/internal/rural"
)

// Inputs are the reference joins applied to each aggregated row.
type Inputs struct {
	Population   map[model.StateYear]int64
	CohortCounts map[model.StateYear]int64
	Zips         geo.ZipTable
	CountyRUCA   map[string]string // padded county FIPS -> modal RUCA description
}

// Index keys state counts by (state, year).
func Index(counts []model.StateCount) map[model.StateYear]int64 {
	m := make(map[model.StateYear]int64, len(counts))
	for _, c := range counts {
		m[model.StateYear{State: c.State, Year: c.Year}] = c.Count
	}
	return m
}

type group struct {
	patients map[string]struct{}
	states   map[string]int
}

// Build counts unique prescribed patients per (weighted zip, year) and
// attaches the group's modal state, its population and rates, and the
// zip's county, RUCA class and neighborhood attributes. Rows without a
// weighted zip are skipped. Output is sorted by zip then year.
func Build(rows []model.PatientYear, in Inputs) []model.ModelRow {
	type key struct {
		zip  string
		year int
	}
	groups := make(map[key]*group)
	for i := range rows {
		r := &rows[i]
		if !r.Prescribed || r.WeightedZip == nil {
			continue
		}
		k := key{zip: *r.WeightedZip, year: r.Year}
		g, ok := groups[k]
		if !ok {
			g = &group{patients: make(map[string]struct{}), states: make(map[string]int)}
			groups[k] = g
		}
		g.patients[r.PatientID] = struct{}{}
		if r.State != nil {
			g.states[*r.State]++
		}
	}

	out := make([]model.ModelRow, 0, len(groups))
	for k, g := range groups {
		m := model.ModelRow{
			WeightedZip:  k.zip,
			Year:         k.year,
			PatientCount: int64(len(g.patients)),
			RuralUrban:   string(rural.Unknown),
		}
		if st, ok := modalState(g.states); ok {
			m.State = &st
			sy := model.StateYear{State: st, Year: k.year}
			if pop, ok := in.Population[sy]; ok {
				m.StatePopulation = &pop
				if pop != 0 {
					rate := float64(m.PatientCount) / float64(pop) * 1000
					m.Rate = &rate
					if n, ok := in.CohortCounts[sy]; ok {
						cr := float64(n) / float64(pop)
						m.CohortRate = &cr
					}
				}
			}
		}
		if rec, ok := in.Zips.Lookup(k.zip); ok {
			m.Neighborhood = rec.Neighborhood
			m.CountyFIPS = rec.CountyFIPS
		}
		if m.CountyFIPS != nil {
			if desc, ok := in.CountyRUCA[*m.CountyFIPS]; ok {
				m.RUCA = &desc
			}
		}
		m.RuralUrban = string(rural.Classify(m.RUCA))
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].WeightedZip != out[j].WeightedZip {
			return out[i].WeightedZip < out[j].WeightedZip
		}
		return out[i].Year < out[j].Year
	})
	return out
}

// modalState returns the most frequent state; ties go to the smallest code.
func modalState(states map[string]int) (string, bool) {
	best, bestN := "", 0
	for s, n := range states {
		if n > bestN || (n == bestN && s < best) {
			best, bestN = s, n
		}
	}
	return best, bestN > 0
}
