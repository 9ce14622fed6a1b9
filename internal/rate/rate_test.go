package rate

import (
	"math"
	"testing"

	"github.com/gyeh/glpstats/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestNumerators(t *testing.T) {
	rows := []model.PatientYear{
		{PatientID: "P1", Year: 2020, State: ptr("CA"), Prescribed: true},
		{PatientID: "P1", Year: 2020, State: ptr("CA"), Prescribed: true},
		{PatientID: "P2", Year: 2020, State: ptr("CA"), Prescribed: true},
		{PatientID: "P3", Year: 2020, State: ptr("CA")},
		{PatientID: "P4", Year: 2021, State: ptr("NY"), Prescribed: true},
		{PatientID: "P5", Year: 2021, Prescribed: true},
	}
	got := Numerators(rows)
	want := []model.StateCount{{Year: 2020, State: "CA", Count: 2}, {Year: 2021, State: "NY", Count: 1}}
	if len(got) != len(want) {
		t.Fatalf("got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func byState(rows []model.RateRow) map[string]model.RateRow {
	m := make(map[string]model.RateRow)
	for _, r := range rows {
		m[r.State] = r
	}
	return m
}

func TestCalculate_Population(t *testing.T) {
	num := []model.StateCount{
		{Year: 2020, State: "CA", Count: 30},
		{Year: 2020, State: "DC", Count: 7},
		{Year: 2020, State: "GU", Count: 2},
		{Year: 2021, State: "CA", Count: 99},
	}
	den := []model.StateCount{
		{Year: 2020, State: "CA", Count: 10000},
		{Year: 2020, State: "WY", Count: 500},
		{Year: 2020, State: "ZZ", Count: 0},
	}
	rows := Calculate(2020, num, den, BasisPopulation)
	if len(rows) != 5 {
		t.Fatalf("got %d rows, want 5: %+v", len(rows), rows)
	}
	m := byState(rows)

	if r := m["CA"]; r.Rate == nil || math.Abs(*r.Rate-3.0) > 1e-9 {
		t.Errorf("CA rate: %v", r.Rate)
	}
	if r := m["WY"]; r.Numerator != 0 || r.Rate == nil || *r.Rate != 0 {
		t.Errorf("WY should appear with rate 0: %+v", r)
	}
	if r := m["ZZ"]; r.Rate != nil {
		t.Errorf("zero denominator should give nil rate, got %v", *r.Rate)
	}
	if r := m["GU"]; r.Denominator != nil || r.Rate != nil {
		t.Errorf("GU has no population: %+v", r)
	}
	dc := m["DC"]
	if dc.Denominator == nil || *dc.Denominator != 689545 {
		t.Fatalf("DC should use fallback population: %+v", dc)
	}
	if want := 7.0 / 689545 * 1000; math.Abs(*dc.Rate-want) > 1e-12 {
		t.Errorf("DC rate: got %v, want %v", *dc.Rate, want)
	}
}

func TestCalculate_SortsUndefinedLast(t *testing.T) {
	num := []model.StateCount{
		{Year: 2020, State: "AA", Count: 1},
		{Year: 2020, State: "BB", Count: 5},
		{Year: 2020, State: "CC", Count: 5},
		{Year: 2020, State: "DD", Count: 2},
	}
	den := []model.StateCount{
		{Year: 2020, State: "AA", Count: 0},
		{Year: 2020, State: "BB", Count: 100},
		{Year: 2020, State: "CC", Count: 10},
		{Year: 2020, State: "EE", Count: 10},
	}
	rows := Calculate(2020, num, den, BasisPopulation)
	var order []string
	for _, r := range rows {
		order = append(order, r.State)
		if r.Rate != nil && (math.IsNaN(*r.Rate) || math.IsInf(*r.Rate, 0)) {
			t.Errorf("%s: non-finite rate leaked", r.State)
		}
	}
	want := []string{"CC", "BB", "EE", "AA", "DD"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order: got %v, want %v", order, want)
		}
	}
}

func TestCalculate_Cohort(t *testing.T) {
	num := []model.StateCount{{Year: 2020, State: "CA", Count: 5}, {Year: 2020, State: "DC", Count: 1}}
	den := []model.StateCount{{Year: 2020, State: "CA", Count: 50}}
	m := byState(Calculate(2020, num, den, BasisCohort))
	if r := m["CA"]; *r.Rate != 100 {
		t.Errorf("CA: %v", *r.Rate)
	}
	dc := m["DC"]
	if dc.Denominator == nil || *dc.Denominator != 0 || dc.Rate != nil {
		t.Errorf("DC in cohort basis should be 0 with nil rate: %+v", dc)
	}
}

func TestCalculate_NoDataForYear(t *testing.T) {
	num := []model.StateCount{{Year: 2020, State: "CA", Count: 5}}
	den := []model.StateCount{{Year: 2021, State: "CA", Count: 50}}
	if rows := Calculate(2021, num, den, BasisPopulation); rows != nil {
		t.Errorf("year without numerators should be skipped, got %+v", rows)
	}
	if rows := Calculate(2020, num, den, BasisCohort); rows != nil {
		t.Errorf("cohort basis without denominators should be skipped, got %+v", rows)
	}
}

func TestCalculateYears(t *testing.T) {
	num := []model.StateCount{{Year: 2010, State: "CA", Count: 1}, {Year: 2012, State: "CA", Count: 1}}
	tables := CalculateYears([]int{2010, 2011, 2012}, num, nil, BasisPopulation)
	if len(tables) != 2 || tables[0].Year != 2010 || tables[1].Year != 2012 {
		t.Errorf("unexpected tables: %+v", tables)
	}
}

func TestParseBasis(t *testing.T) {
	if b, err := ParseBasis("cohort"); err != nil || b != BasisCohort {
		t.Errorf("cohort: %v %v", b, err)
	}
	if _, err := ParseBasis("households"); err == nil {
		t.Error("expected error")
	}
}
