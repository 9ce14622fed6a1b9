package table

import (
	"fmt"
	"strconv"

	"github.com/gyeh/glpstats/internal/model"
	"github.com/gyeh/glpstats/internal/normalize"
)

var (
	cohortColumns     = []string{"pat_id", "to_dt", "condition"}
	rxColumns         = []string{"pat_id", "to_dt", "ndc", "dayssup"}
	stateCountColumns = []string{"year", "pat_state", "count"}
)

// WriteCohort writes a year's labelled cohort lines.
func WriteCohort(path string, rows []model.CohortRow) error {
	return Write(path, cohortColumns, len(rows), func(i int) []string {
		return []string{rows[i].PatientID, rows[i].ServiceDate.Format(DateLayout), string(rows[i].Condition)}
	})
}

// ReadCohort reads a cohort artifact.
func ReadCohort(path string) ([]model.CohortRow, error) {
	return ReadAll(path, []string{"pat_id", "to_dt"}, func(r *Reader) (model.CohortRow, error) {
		dt, err := requireDate(r, "to_dt")
		if err != nil {
			return model.CohortRow{}, err
		}
		return model.CohortRow{
			PatientID:   r.Get("pat_id"),
			ServiceDate: dt,
			Condition:   model.Condition(normalize.DerefStr(normalize.OptStr(r.Get("condition")))),
		}, nil
	})
}

// WriteRx writes a year's prescription fills.
func WriteRx(path string, rows []model.Claim) error {
	return Write(path, rxColumns, len(rows), func(i int) []string {
		c := &rows[i]
		return []string{c.PatientID, c.ServiceDate.Format(DateLayout), c.NDC, c.DaysSupply}
	})
}

// ReadRx reads a prescription artifact.
func ReadRx(path string) ([]model.Claim, error) {
	return ReadAll(path, []string{"pat_id", "to_dt"}, func(r *Reader) (model.Claim, error) {
		dt, err := requireDate(r, "to_dt")
		if err != nil {
			return model.Claim{}, err
		}
		return model.Claim{
			PatientID:   r.Get("pat_id"),
			ServiceDate: dt,
			NDC:         r.Get("ndc"),
			DaysSupply:  r.Get("dayssup"),
		}, nil
	})
}

// WriteStateCounts writes (year, state, count) rows.
func WriteStateCounts(path string, rows []model.StateCount) error {
	return Write(path, stateCountColumns, len(rows), func(i int) []string {
		return []string{strconv.Itoa(rows[i].Year), rows[i].State, strconv.FormatInt(rows[i].Count, 10)}
	})
}

// ReadStateCounts reads a state count artifact.
func ReadStateCounts(path string) ([]model.StateCount, error) {
	return ReadAll(path, stateCountColumns, func(r *Reader) (model.StateCount, error) {
		year, err := requireInt(r, "year")
		if err != nil {
			return model.StateCount{}, err
		}
		n := normalize.OptInt64(r.Get("count"))
		if n == nil {
			return model.StateCount{}, fmt.Errorf("invalid count %q", r.Get("count"))
		}
		return model.StateCount{Year: year, State: r.Get("pat_state"), Count: *n}, nil
	})
}

// WritePatientYears writes a patient-year table.
func WritePatientYears(path string, rows []model.PatientYear) error {
	return Write(path, model.PatientYearColumns(), len(rows), func(i int) []string {
		return rows[i].Record()
	})
}

// ReadPatientYears reads a patient-year table. Only pat_id and year are
// required; absent columns read as nil.
func ReadPatientYears(path string) ([]model.PatientYear, error) {
	return ReadAll(path, []string{"pat_id", "year"}, func(r *Reader) (model.PatientYear, error) {
		year, err := requireInt(r, "year")
		if err != nil {
			return model.PatientYear{}, err
		}
		py := model.PatientYear{
			PatientID:   r.Get("pat_id"),
			Year:        year,
			Age:         normalize.OptInt(r.Get("age")),
			Sex:         normalize.OptStr(r.Get("der_sex")),
			State:       normalize.State(r.Get("pat_state")),
			Zip3:        normalize.OptStr(r.Get("pat_zip3")),
			PayType:     normalize.OptStr(r.Get("pay_type")),
			Condition:   normalize.OptStr(r.Get("condition")),
			Prescribed:  parseBool(r.Get("glp1ra")),
			WeightedZip: normalize.OptStr(r.Get("weighted_zip")),
			CountyFIPS:  normalize.OptStr(r.Get("county_fips")),
		}
		for _, f := range model.NeighborhoodFields {
			*f.Ptr(&py.Neighborhood) = normalize.OptFloat(r.Get(f.Column))
		}
		return py, nil
	})
}

// WriteRates writes a rate table.
func WriteRates(path string, rows []model.RateRow) error {
	return Write(path, model.RateColumns(), len(rows), func(i int) []string {
		return rows[i].Record()
	})
}

// ReadRates reads a rate table.
func ReadRates(path string) ([]model.RateRow, error) {
	return ReadAll(path, []string{"year", "state_abbrev", "numerator"}, func(r *Reader) (model.RateRow, error) {
		year, err := requireInt(r, "year")
		if err != nil {
			return model.RateRow{}, err
		}
		num := normalize.OptInt64(r.Get("numerator"))
		if num == nil {
			return model.RateRow{}, fmt.Errorf("invalid numerator %q", r.Get("numerator"))
		}
		return model.RateRow{
			Year:        year,
			State:       r.Get("state_abbrev"),
			Numerator:   *num,
			Denominator: normalize.OptInt64(r.Get("denominator")),
			Rate:        normalize.OptFloat(r.Get("prescribing_rate_per_1000")),
		}, nil
	})
}

// WriteModelRows writes the model design matrix.
func WriteModelRows(path string, rows []model.ModelRow) error {
	return Write(path, model.ModelColumns(), len(rows), func(i int) []string {
		return rows[i].Record()
	})
}
