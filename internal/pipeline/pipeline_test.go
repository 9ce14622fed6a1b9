package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gyeh/glpstats/internal/config"
	"github.com/gyeh/glpstats/internal/model"
	"github.com/gyeh/glpstats/internal/parquetio"
	"github.com/gyeh/glpstats/internal/table"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

// claimLine builds a pipe-delimited claims row: pat_id, to_dt, diag1..12,
// ndc, dayssup.
func claimLine(pid, date string, diags []string, ndc, days string) string {
	f := []string{pid, date}
	for i := 0; i < model.MaxDiagnoses; i++ {
		if i < len(diags) {
			f = append(f, diags[i])
		} else {
			f = append(f, "")
		}
	}
	f = append(f, ndc, days)
	return strings.Join(f, "|")
}

// fixture lays out one year of raw extracts and every reference table
// except RUCA under a temp data dir.
func fixture(t *testing.T) *config.Config {
	t.Helper()
	data := t.TempDir()

	header := []string{"pat_id", "to_dt"}
	for i := 1; i <= model.MaxDiagnoses; i++ {
		header = append(header, "diag"+strconv.Itoa(i))
	}
	header = append(header, "ndc", "dayssup")
	writeFile(t, filepath.Join(data, "header_claims_2020.txt"), strings.Join(header, "|")+"\n")

	claims := []string{
		claimLine("P1", "2020-03-01", []string{"E66.9", "E11.9"}, "", ""),
		claimLine("P1", "2020-04-15", nil, "00169406012", "30"),
		claimLine("P2", "2020-05-01", []string{"E11.9"}, "", ""),
		claimLine("P3", "2020-02-01", nil, "00169406012", "30"),
		claimLine("P4", "2019-12-20", []string{"E66.9"}, "", ""),
	}
	writeFile(t, filepath.Join(data, "claims_2020", "csv_in_parts", "part-0000.csv"), strings.Join(claims, "\n")+"\n")
	writeFile(t, filepath.Join(data, "claims_2020", "csv_in_parts", "part-0001.csv"), "P9|2020-01-01|E66.9\n")

	writeFile(t, filepath.Join(data, "enroll_synth", "csv_in_parts", "part-0000.csv"),
		"F|1990|P1|W|CA|900|G||1\n"+
			"M|2010|P2|S|TX|750|G||1\n")
	writeFile(t, filepath.Join(data, "enroll2_2020", "csv_in_parts", "part-0000.csv"),
		"P1|E|PPO|M|||202001\n"+
			"P1|E|PPO|C|||202006\n")

	writeFile(t, filepath.Join(data, "obesity_codes.csv"), "code\nE66.9\n")
	writeFile(t, filepath.Join(data, "t2d_codes.csv"), "code\nE11.9\n")
	writeFile(t, filepath.Join(data, "glp1ra_ndc.txt"), "'00169406012', '00169413602'\n")
	writeFile(t, filepath.Join(data, "weighted_zip_by_zip3.csv"), "zip3,weighted_zip\n900,90011\n")
	writeFile(t, filepath.Join(data, "state_pop_estimates.csv"), "state_abbrev,year,population\nCA,2020,1000\nTX,2020,2000\n")

	cols := append([]string{"zip", "state_id", "county_fips"}, model.NeighborhoodColumns()...)
	vals := []string{"90011", "CA", "6037"}
	for i := range model.NeighborhoodFields {
		vals = append(vals, strconv.Itoa(i+1))
	}
	writeFile(t, filepath.Join(data, "uszips.csv"), strings.Join(cols, ",")+"\n"+strings.Join(vals, ",")+"\n")

	cfg := config.Default()
	cfg.DataDir = data
	cfg.WorkDir = filepath.Join(t.TempDir(), "work")
	cfg.FromYear, cfg.ToYear = 2020, 2020
	cfg.Workers = 2
	return &cfg
}

func stage(t *testing.T, sum *model.RunSummary, name string) model.StageSummary {
	t.Helper()
	for _, s := range sum.Stages {
		if s.Stage == name {
			return s
		}
	}
	t.Fatalf("stage %s not in summary", name)
	return model.StageSummary{}
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := fixture(t)
	env := NewEnv(cfg, zerolog.Nop())

	sum, err := Run(context.Background(), env)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sum.Stages) != len(Stages()) {
		t.Fatalf("ran %d stages, want %d", len(sum.Stages), len(Stages()))
	}
	if sum.Partial() {
		t.Errorf("unexpected failed units: %+v", sum.Stages)
	}
	art := cfg.Artifacts()

	t.Run("cohort_classified_both", func(t *testing.T) {
		rows, err := table.ReadCohort(art.Cohort(2020))
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 2 {
			t.Fatalf("cohort rows: %+v", rows)
		}
		if rows[0].PatientID != "P1" || rows[0].Condition != model.ConditionBoth {
			t.Errorf("P1: %+v", rows[0])
		}
		if rows[1].PatientID != "P2" || rows[1].Condition != model.ConditionT2D {
			t.Errorf("P2: %+v", rows[1])
		}
	})

	t.Run("cohort_counts", func(t *testing.T) {
		counts, err := table.ReadStateCounts(art.StateCounts())
		if err != nil {
			t.Fatal(err)
		}
		if len(counts) != 1 || counts[0].State != "CA" || counts[0].Count != 1 {
			t.Errorf("counts: %+v", counts)
		}
	})

	t.Run("base_table", func(t *testing.T) {
		rows, err := table.ReadPatientYears(art.Base())
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 3 {
			t.Fatalf("base rows: %d", len(rows))
		}
		if !rows[0].Prescribed || *rows[0].Condition != "Both" {
			t.Errorf("P1 base: %+v", rows[0])
		}
		if !rows[2].Prescribed || rows[2].Condition != nil {
			t.Errorf("P3 base: %+v", rows[2])
		}
	})

	t.Run("age_window_drops", func(t *testing.T) {
		s := stage(t, sum, "fill-demographics")
		if s.RowsIn != 3 || s.RowsOut != 1 || s.RowsDropped != 2 {
			t.Errorf("fill-demographics: %+v", s)
		}
		if s.Filled["age"] != 2 {
			t.Errorf("ages filled: %d", s.Filled["age"])
		}
	})

	t.Run("final_row", func(t *testing.T) {
		rows, err := table.ReadPatientYears(art.Final())
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 1 {
			t.Fatalf("final rows: %d", len(rows))
		}
		r := rows[0]
		if r.PatientID != "P1" || *r.Age != 30 || *r.Sex != "F" || *r.State != "CA" || *r.Zip3 != "900" {
			t.Errorf("demographics: %+v", r)
		}
		if *r.PayType != "Commercial" {
			t.Errorf("pay type: %q", *r.PayType)
		}
		if *r.Condition != "Both" || *r.WeightedZip != "90011" || *r.CountyFIPS != "06037" {
			t.Errorf("condition/geo: %+v", r)
		}
		if !r.Neighborhood.Complete() || *r.Neighborhood.FamilyDualIncome != 21 {
			t.Errorf("neighborhood: %+v", r.Neighborhood)
		}
	})

	t.Run("rates", func(t *testing.T) {
		rows, err := table.ReadRates(art.Rates("population", 0))
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 2 || rows[0].State != "CA" || *rows[0].Rate != 1 {
			t.Fatalf("population rates: %+v", rows)
		}
		if rows[1].State != "TX" || rows[1].Numerator != 0 || *rows[1].Rate != 0 {
			t.Errorf("TX: %+v", rows[1])
		}
		cohort, err := table.ReadRates(art.Rates("cohort", 2020))
		if err != nil {
			t.Fatal(err)
		}
		if len(cohort) != 1 || *cohort[0].Rate != 1000 {
			t.Errorf("cohort rates: %+v", cohort)
		}
	})

	t.Run("model_rows", func(t *testing.T) {
		b, err := os.ReadFile(art.Model())
		if err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimSpace(string(b)), "\n")
		if len(lines) != 2 {
			t.Fatalf("model lines: %q", lines)
		}
		if !strings.HasPrefix(lines[1], "90011,2020,CA,1,1000,1,0.001,06037,,Unknown,,") {
			t.Errorf("model row: %q", lines[1])
		}
	})

	t.Run("export", func(t *testing.T) {
		n, err := Export(env)
		if err != nil || n != 1 {
			t.Fatalf("Export: n=%d err=%v", n, err)
		}
		rows, err := parquetio.ReadAll(art.Export())
		if err != nil {
			t.Fatal(err)
		}
		if len(rows) != 1 || rows[0].PatientID != "P1" {
			t.Errorf("exported: %+v", rows)
		}
	})
}

func TestRun_MissingYearIsPartial(t *testing.T) {
	cfg := fixture(t)
	cfg.ToYear = 2021
	sum, err := Run(context.Background(), NewEnv(cfg, zerolog.Nop()))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !sum.Partial() {
		t.Fatal("expected partial run")
	}
	s := stage(t, sum, "extract-cohort")
	if len(s.FailedUnits) != 1 || s.FailedUnits[0] != 2021 {
		t.Errorf("failed units: %v", s.FailedUnits)
	}
	rows, err := table.ReadPatientYears(cfg.Artifacts().Final())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("final rows: %d", len(rows))
	}
}

func TestRunStage_MissingInput(t *testing.T) {
	cfg := fixture(t)
	s, err := Lookup("fill-payer")
	if err != nil {
		t.Fatal(err)
	}
	_, err = RunStage(context.Background(), NewEnv(cfg, zerolog.Nop()), s)
	var se *StageError
	if !errors.As(err, &se) || se.Stage != "fill-payer" {
		t.Fatalf("expected StageError, got %v", err)
	}
	if !errors.Is(err, table.ErrNotFound) {
		t.Errorf("expected ErrNotFound cause, got %v", err)
	}
}

func TestLookup_Unknown(t *testing.T) {
	if _, err := Lookup("fit-model"); !errors.Is(err, ErrUnknownStage) {
		t.Errorf("expected ErrUnknownStage, got %v", err)
	}
}

func TestBuildPlan(t *testing.T) {
	cfg := fixture(t)
	p := BuildPlan(NewEnv(cfg, zerolog.Nop()))
	if len(p.Years) != 1 {
		t.Fatalf("years: %+v", p.Years)
	}
	y := p.Years[0]
	if y.ClaimsColumns != 16 || y.ClaimsPartitions != 2 || y.PayerPartitions != 1 || len(y.Problems) != 0 {
		t.Errorf("year plan: %+v", y)
	}
	if p.DemographicPartitions != 1 {
		t.Errorf("demographic partitions: %d", p.DemographicPartitions)
	}
	if len(p.MissingReferences) != 1 || !strings.HasSuffix(p.MissingReferences[0], "RUCA-codes-2020-tract.csv") {
		t.Errorf("missing references: %v", p.MissingReferences)
	}
	if p.OK() {
		t.Error("plan with a missing reference should not be OK")
	}
}
