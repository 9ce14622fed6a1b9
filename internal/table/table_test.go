package table

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gyeh/glpstats/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestWrite_AtomicSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "counts.csv")

	if err := WriteStateCounts(path, []model.StateCount{{Year: 2020, State: "CA", Count: 3}}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteStateCounts(path, []model.StateCount{{Year: 2021, State: "NY", Count: 4}}); err != nil {
		t.Fatalf("second write: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(b); got != "year,pat_state,count\n2021,NY,4\n" {
		t.Errorf("content: %q", got)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestPatientYears_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "py.csv")
	rows := []model.PatientYear{
		{
			PatientID: "P1", Year: 2020, Age: ptr(30), Sex: ptr("F"), State: ptr("CA"), Zip3: ptr("007"),
			PayType: ptr("Commercial"), Condition: ptr("Both"), Prescribed: true,
			WeightedZip: ptr("00501"), CountyFIPS: ptr("36103"),
			Neighborhood: model.Neighborhood{Population: ptr(120.0), Poverty: ptr(0.125)},
		},
		{PatientID: "P2", Year: 2021},
	}
	if err := WritePatientYears(path, rows); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadPatientYears(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows", len(got))
	}
	p1 := got[0]
	if *p1.Age != 30 || *p1.Zip3 != "007" || !p1.Prescribed || *p1.WeightedZip != "00501" {
		t.Errorf("P1: %+v", p1)
	}
	if *p1.Neighborhood.Poverty != 0.125 || p1.Neighborhood.AgeMedian != nil {
		t.Errorf("P1 neighborhood: %+v", p1.Neighborhood)
	}
	p2 := got[1]
	if p2.Age != nil || p2.Sex != nil || p2.Prescribed || p2.WeightedZip != nil {
		t.Errorf("P2 should be empty: %+v", p2)
	}
}

func TestReadPatientYears_PartialColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "py.csv")
	body := "pat_id,year,age,pat_zip3\nP1,2020,,90210\nP2,2020.0,41,.\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadPatientYears(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got[0].Age != nil || *got[0].Zip3 != "90210" || got[0].Sex != nil {
		t.Errorf("row 0: %+v", got[0])
	}
	if got[1].Year != 2020 || *got[1].Age != 41 || got[1].Zip3 != nil {
		t.Errorf("row 1: %+v", got[1])
	}
}

func TestReadPatientYears_BadYear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "py.csv")
	os.WriteFile(path, []byte("pat_id,year\nP1,soon\n"), 0644)
	_, err := ReadPatientYears(path)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line-numbered error, got %v", err)
	}
}

func TestRead_NotFound(t *testing.T) {
	_, err := ReadCohort(filepath.Join(t.TempDir(), "cohort_2020.csv"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCohortAndRx_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	d := time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC)

	cohortPath := filepath.Join(dir, "cohort.csv")
	if err := WriteCohort(cohortPath, []model.CohortRow{{PatientID: "P1", ServiceDate: d, Condition: model.ConditionBoth}}); err != nil {
		t.Fatal(err)
	}
	cohort, err := ReadCohort(cohortPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(cohort) != 1 || !cohort[0].ServiceDate.Equal(d) || cohort[0].Condition != model.ConditionBoth {
		t.Errorf("cohort: %+v", cohort)
	}

	rxPath := filepath.Join(dir, "rx.csv")
	if err := WriteRx(rxPath, []model.Claim{{PatientID: "P1", ServiceDate: d, NDC: "00169406012", DaysSupply: "30"}}); err != nil {
		t.Fatal(err)
	}
	rx, err := ReadRx(rxPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(rx) != 1 || rx[0].DaysSupply != "30" || rx[0].NDC != "00169406012" {
		t.Errorf("rx: %+v", rx)
	}
}

func TestRates_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.csv")
	rows := []model.RateRow{
		{Year: 2020, State: "CA", Numerator: 3, Denominator: ptr(int64(1000)), Rate: ptr(3.0)},
		{Year: 2020, State: "ZZ", Numerator: 1, Denominator: ptr(int64(0))},
	}
	if err := WriteRates(path, rows); err != nil {
		t.Fatal(err)
	}
	got, err := ReadRates(path)
	if err != nil {
		t.Fatal(err)
	}
	if *got[0].Rate != 3 || *got[1].Denominator != 0 || got[1].Rate != nil {
		t.Errorf("rates: %+v %+v", got[0], got[1])
	}
}

func TestWriteModelRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.csv")
	rows := []model.ModelRow{{WeightedZip: "00501", Year: 2020, PatientCount: 2, RuralUrban: "Urban"}}
	if err := WriteModelRows(path, rows); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "00501,2020,,2,,,,,,Urban,1,") {
		t.Errorf("model rows: %q", lines)
	}
}
