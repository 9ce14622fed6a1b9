// Package claims scans a year's raw claims partitions and keeps the lines
// whose codes intersect an acceptance set.
package claims

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/gyeh/glpstats/internal/model"
	"github.com/gyeh/glpstats/internal/normalize"
	"github.com/gyeh/glpstats/internal/partition"
	"github.com/gyeh/glpstats/internal/schema"
)

// Matcher decides whether a parsed claim line is retained.
type Matcher func(c *model.Claim) bool

// AnyDiagnosis matches lines with at least one diagnosis code in any of sets.
func AnyDiagnosis(sets ...model.CodeSet) Matcher {
	return func(c *model.Claim) bool {
		for _, s := range sets {
			if s.ContainsAny(c.Diagnoses) {
				return true
			}
		}
		return false
	}
}

// NDCIn matches lines whose drug code is in set.
func NDCIn(set model.CodeSet) Matcher {
	return func(c *model.Claim) bool {
		return set.Contains(c.NDC)
	}
}

// Filter restricts one year of claims to matching lines dated in that year.
type Filter struct {
	Layout *schema.Layout
	Year   int
	Match  Matcher
}

type columns struct {
	patient, date int
	diag          []int
	ndc, days     int // -1 when the vintage lacks the column
}

func (f *Filter) resolve() (columns, error) {
	names := []string{schema.ColPatientID, schema.ColServiceDate}
	for i := 1; i <= model.MaxDiagnoses; i++ {
		names = append(names, schema.DiagnosisColumn(i))
	}
	idx, err := f.Layout.Require(names...)
	if err != nil {
		return columns{}, err
	}
	cols := columns{patient: idx[0], date: idx[1], diag: idx[2:], ndc: -1, days: -1}
	if i, ok := f.Layout.Index(schema.ColNDC); ok {
		cols.ndc = i
	}
	if i, ok := f.Layout.Index(schema.ColDaysSupply); ok {
		cols.days = i
	}
	return cols, nil
}

// parse turns a partition row into a claim. ok is false for rows that carry
// no service date; a date that is present but unparseable rejects the
// partition.
func (c columns) parse(row []string) (model.Claim, bool, error) {
	raw := row[c.date]
	if normalize.IsMissing(raw) {
		return model.Claim{}, false, nil
	}
	dt := normalize.ParseDate(raw)
	if dt == nil {
		return model.Claim{}, false, partition.Malformed("unparseable service date %q", raw)
	}
	pid := normalize.OptStr(row[c.patient])
	if pid == nil {
		return model.Claim{}, false, nil
	}
	claim := model.Claim{PatientID: *pid, ServiceDate: *dt}
	for _, i := range c.diag {
		if d := normalize.OptStr(row[i]); d != nil {
			claim.Diagnoses = append(claim.Diagnoses, *d)
		}
	}
	if c.ndc >= 0 {
		claim.NDC = normalize.DerefStr(normalize.OptStr(row[c.ndc]))
	}
	if c.days >= 0 {
		claim.DaysSupply = normalize.DerefStr(normalize.OptStr(row[c.days]))
	}
	return claim, true, nil
}

// Run scans dir and returns the retained lines in partition order. A missing
// directory is logged and yields no lines.
func (f *Filter) Run(ctx context.Context, log zerolog.Logger, dir string) ([]model.Claim, partition.Stats, error) {
	if f.Match == nil {
		return nil, partition.Stats{}, errors.New("claims filter: no matcher")
	}
	cols, err := f.resolve()
	if err != nil {
		return nil, partition.Stats{}, fmt.Errorf("claims filter %d: %w", f.Year, err)
	}

	out, stats, err := partition.Collect(ctx, log, dir, f.Layout, func(row []string) (model.Claim, bool, error) {
		c, ok, err := cols.parse(row)
		if err != nil || !ok {
			return c, false, err
		}
		if c.ServiceDate.Year() != f.Year || !f.Match(&c) {
			return c, false, nil
		}
		return c, true, nil
	})
	if errors.Is(err, partition.ErrMissingInput) {
		log.Warn().Str("dir", dir).Msg("claims directory missing, no rows for year")
		return nil, stats, nil
	}
	if err != nil {
		return nil, stats, err
	}
	return out, stats, nil
}

// maxDaysSupply is the longest days supply taken at face value.
const maxDaysSupply = 3 * 366

// ExpandCoveredYears turns prescription fills into the patient-years they
// cover, from the service date through service date plus days supply. An
// unparseable or implausible (over maxDaysSupply) days supply counts as
// zero. Returns unique keys sorted by
// patient then year.
func ExpandCoveredYears(rx []model.Claim) []model.PatientYearKey {
	seen := make(map[model.PatientYearKey]struct{})
	for _, c := range rx {
		days := 0
		if v := normalize.OptInt(c.DaysSupply); v != nil && *v > 0 && *v <= maxDaysSupply {
			days = *v
		}
		end := c.ServiceDate.AddDate(0, 0, days)
		for y := c.ServiceDate.Year(); y <= end.Year(); y++ {
			seen[model.PatientYearKey{PatientID: c.PatientID, Year: y}] = struct{}{}
		}
	}
	keys := make([]model.PatientYearKey, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	SortKeys(keys)
	return keys
}

// SortKeys orders keys by patient then year.
func SortKeys(keys []model.PatientYearKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].PatientID != keys[j].PatientID {
			return keys[i].PatientID < keys[j].PatientID
		}
		return keys[i].Year < keys[j].Year
	})
}
