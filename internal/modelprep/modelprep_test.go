package modelprep

import (
	"math"
	"testing"

	"github.com/gyeh/glpstats/internal/geo"
	"github.com/gyeh/glpstats/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestBuild(t *testing.T) {
	rows := []model.PatientYear{
		{PatientID: "P1", Year: 2020, State: ptr("CA"), WeightedZip: ptr("90210"), Prescribed: true},
		{PatientID: "P1", Year: 2020, State: ptr("CA"), WeightedZip: ptr("90210"), Prescribed: true},
		{PatientID: "P2", Year: 2020, State: ptr("NV"), WeightedZip: ptr("90210"), Prescribed: true},
		{PatientID: "P3", Year: 2020, State: ptr("CA"), WeightedZip: ptr("90210"), Prescribed: true},
		{PatientID: "P4", Year: 2020, State: ptr("CA"), WeightedZip: ptr("90210")},
		{PatientID: "P5", Year: 2021, State: ptr("NY"), WeightedZip: ptr("10001"), Prescribed: true},
		{PatientID: "P6", Year: 2021, State: ptr("NY"), Prescribed: true},
	}
	in := Inputs{
		Population:   Index([]model.StateCount{{Year: 2020, State: "CA", Count: 3000}}),
		CohortCounts: Index([]model.StateCount{{Year: 2020, State: "CA", Count: 300}}),
		Zips: geo.NewZipTable([]model.ZipRecord{
			{Zip: "90210", CountyFIPS: ptr("06037"), Neighborhood: model.Neighborhood{Poverty: ptr(0.1)}},
		}),
		CountyRUCA: map[string]string{"06037": "Metropolitan core"},
	}

	got := Build(rows, in)
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(got), got)
	}

	ny := got[0]
	if ny.WeightedZip != "10001" || ny.PatientCount != 1 || *ny.State != "NY" {
		t.Errorf("10001 row: %+v", ny)
	}
	if ny.StatePopulation != nil || ny.Rate != nil || ny.RuralUrban != "Unknown" || ny.IsUrban() != nil {
		t.Errorf("10001 has no population or county data: %+v", ny)
	}

	ca := got[1]
	if ca.PatientCount != 3 || *ca.State != "CA" {
		t.Errorf("90210 count/state: %+v", ca)
	}
	if ca.Rate == nil || math.Abs(*ca.Rate-1.0) > 1e-9 {
		t.Errorf("90210 rate: %v", ca.Rate)
	}
	if ca.CohortRate == nil || math.Abs(*ca.CohortRate-0.1) > 1e-9 {
		t.Errorf("90210 cohort rate: %v", ca.CohortRate)
	}
	if *ca.RUCA != "Metropolitan core" || ca.RuralUrban != "Urban" || *ca.IsUrban() != 1 {
		t.Errorf("90210 rural/urban: %+v", ca)
	}
	if *ca.Neighborhood.Poverty != 0.1 {
		t.Error("neighborhood attributes not attached")
	}
}

func TestBuild_ZeroPopulation(t *testing.T) {
	rows := []model.PatientYear{{PatientID: "P1", Year: 2020, State: ptr("ZZ"), WeightedZip: ptr("00501"), Prescribed: true}}
	in := Inputs{Population: Index([]model.StateCount{{Year: 2020, State: "ZZ", Count: 0}})}
	got := Build(rows, in)
	if len(got) != 1 || got[0].Rate != nil || *got[0].StatePopulation != 0 {
		t.Errorf("zero population should give nil rate: %+v", got)
	}
}
