package schema

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinLayouts(t *testing.T) {
	r := NewRegistry()
	l, err := r.Lookup(EnrollDemographics)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if l.Width() != 9 {
		t.Errorf("demographics width: got %d, want 9", l.Width())
	}
	idx, err := l.Require("pat_id", "der_yob")
	if err != nil {
		t.Fatalf("Require: %v", err)
	}
	if idx[0] != 2 || idx[1] != 1 {
		t.Errorf("unexpected positions: %v", idx)
	}
	if _, err := l.Require("month_id"); err == nil {
		t.Error("expected error for column absent from layout")
	}
}

func TestLoadClaimsHeaders(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "header_claims_2015.txt"), []byte("pat_id|claimno|to_dt|diag1|diag2|ndc|dayssup\n"), 0644)
	os.WriteFile(filepath.Join(dir, "header_claims_2016.txt"), []byte("\ufeffpat_id|to_dt|diag1\n"), 0644)
	os.WriteFile(filepath.Join(dir, "README"), []byte("not a header"), 0644)

	r := NewRegistry()
	n, err := r.LoadClaimsHeaders(dir)
	if err != nil {
		t.Fatalf("LoadClaimsHeaders: %v", err)
	}
	if n != 2 {
		t.Fatalf("registered %d layouts, want 2", n)
	}

	l, err := r.Claims(2015)
	if err != nil {
		t.Fatalf("Claims(2015): %v", err)
	}
	if i, ok := l.Index(ColServiceDate); !ok || i != 2 {
		t.Errorf("to_dt index: got %d %v, want 2 true", i, ok)
	}

	l16, err := r.Claims(2016)
	if err != nil {
		t.Fatalf("Claims(2016): %v", err)
	}
	if i, ok := l16.Index(ColPatientID); !ok || i != 0 {
		t.Errorf("BOM not stripped from first column: %v", l16.Columns)
	}

	years := r.ClaimsYears()
	if len(years) != 2 || years[0] != 2015 || years[1] != 2016 {
		t.Errorf("ClaimsYears: got %v", years)
	}

	if _, err := r.Claims(2020); err == nil {
		t.Error("expected error for unregistered year")
	}
}

func TestLoadClaimsHeaders_MissingDir(t *testing.T) {
	r := NewRegistry()
	if _, err := r.LoadClaimsHeaders("/nonexistent/headers"); err == nil {
		t.Fatal("expected error for missing header dir")
	}
}
