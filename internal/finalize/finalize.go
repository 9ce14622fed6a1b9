// Package finalize produces the analysis-ready patient-year table: pay types
// are spelled out and incomplete rows are removed.
package finalize

import (
	"github.com/gyeh/glpstats/internal/model"
	"github.com/gyeh/glpstats/internal/normalize"
)

// Report counts what finalizing did.
type Report struct {
	Rows         int
	Mapped       int
	Dropped      int
	DroppedByCol map[string]int
}

// required lists the columns a final row must carry, with their presence
// test. The first failing column is the one a dropped row is counted under.
var required = []struct {
	column  string
	present func(r *model.PatientYear) bool
}{
	{"age", func(r *model.PatientYear) bool { return r.Age != nil }},
	{"der_sex", func(r *model.PatientYear) bool { return r.Sex != nil }},
	{"pat_state", func(r *model.PatientYear) bool { return r.State != nil }},
	{"pat_zip3", func(r *model.PatientYear) bool { return normalize.IsValidZip3(r.Zip3) }},
	{"pay_type", func(r *model.PatientYear) bool { return r.PayType != nil && *r.PayType != "" }},
	{"condition", func(r *model.PatientYear) bool { return r.Condition != nil && model.Condition(*r.Condition).Valid() }},
	{"weighted_zip", func(r *model.PatientYear) bool { return r.WeightedZip != nil }},
	{"neighborhood", func(r *model.PatientYear) bool { return r.Neighborhood.Complete() }},
}

// Run maps pay-type codes to descriptions (values already described are
// kept) and drops rows missing any required or neighborhood attribute.
func Run(rows []model.PatientYear) ([]model.PatientYear, Report) {
	rep := Report{Rows: len(rows), DroppedByCol: make(map[string]int)}
	out := make([]model.PatientYear, 0, len(rows))
	for i := range rows {
		r := rows[i].Clone()
		if r.PayType != nil {
			if d := normalize.PayTypeDescription(*r.PayType); d != *r.PayType {
				r.PayType = &d
				rep.Mapped++
			}
		}
		if col, ok := missing(&r); ok {
			rep.Dropped++
			rep.DroppedByCol[col]++
			continue
		}
		out = append(out, r)
	}
	return out, rep
}

func missing(r *model.PatientYear) (string, bool) {
	for _, c := range required {
		if !c.present(r) {
			return c.column, true
		}
	}
	return "", false
}
