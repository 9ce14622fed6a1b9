package parquetio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/glpstats/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestWriteReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final.parquet")
	rows := []model.PatientYear{
		{
			PatientID: "P1", Year: 2020, Age: ptr(44), Sex: ptr("F"), State: ptr("NY"),
			Zip3: ptr("100"), PayType: ptr("Commercial"), Condition: ptr("T2D"), Prescribed: true,
			WeightedZip: ptr("10001"), Neighborhood: model.Neighborhood{Poverty: ptr(0.2), FamilySize: ptr(2.9)},
		},
		{PatientID: "P2", Year: 2021},
	}
	if err := Write(path, rows); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	p1 := got[0]
	if p1.PatientID != "P1" || *p1.Age != 44 || *p1.State != "NY" || !p1.Prescribed {
		t.Errorf("P1 = %+v", p1)
	}
	if *p1.Neighborhood.FamilySize != 2.9 || p1.Neighborhood.RaceAsian != nil {
		t.Errorf("P1 neighborhood = %+v", p1.Neighborhood)
	}
	if got[1].Age != nil || got[1].Sex != nil || got[1].Year != 2021 {
		t.Errorf("P2 = %+v", got[1])
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the export file, got %d entries", len(entries))
	}
}

func TestValidateSchema(t *testing.T) {
	if err := ValidateSchema(parquet.SchemaOf(Row{})); err != nil {
		t.Errorf("Row schema: %v", err)
	}
	type partial struct {
		PatientID string `parquet:"pat_id"`
	}
	if err := ValidateSchema(parquet.SchemaOf(partial{})); err == nil {
		t.Error("expected error for schema without year")
	}
}
