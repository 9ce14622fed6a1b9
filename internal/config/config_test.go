package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromFile_Overlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("from_year: 2015\nto_year: 2016\ninputs:\n  payer: payer/%d\nreferences:\n  ruca: /ref/ruca.csv\n"), 0644)

	c := Default()
	if err := c.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.FromYear != 2015 || c.ToYear != 2016 {
		t.Errorf("years: %d-%d", c.FromYear, c.ToYear)
	}
	if c.Inputs.Claims != "claims_%d/csv_in_parts" {
		t.Errorf("absent key should keep default, got %q", c.Inputs.Claims)
	}
	if got := c.PayerDir(2016); got != filepath.Join(".", "payer", "2016") {
		t.Errorf("PayerDir: %q", got)
	}
	if got := c.Reference(c.References.RUCA); got != "/ref/ruca.csv" {
		t.Errorf("absolute reference should be kept, got %q", got)
	}
	if c.AgeMin != 18 || c.AgeMax != 65 {
		t.Errorf("age window: %d-%d", c.AgeMin, c.AgeMax)
	}
}

func TestLoadFromFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	os.WriteFile(path, []byte("from_year: [1, 2\n"), 0644)

	c := Default()
	if err := c.LoadFromFile(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	var c Config
	err := c.LoadFromFile("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"default", func(*Config) {}, true},
		{"reversed years", func(c *Config) { c.FromYear, c.ToYear = 2020, 2019 }, false},
		{"no workers", func(c *Config) { c.Workers = 0 }, false},
		{"reversed ages", func(c *Config) { c.AgeMin, c.AgeMax = 70, 65 }, false},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, false},
		{"no work dir", func(c *Config) { c.WorkDir = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			err := c.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestValidateWithDSN(t *testing.T) {
	c := Default()
	if err := c.ValidateWithDSN(); err == nil {
		t.Fatal("expected error without DSN")
	}
	c.DSN = "postgres://localhost/glpstats"
	if err := c.ValidateWithDSN(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPaths(t *testing.T) {
	c := Default()
	c.DataDir = "/data"
	c.WorkDir = "/work"

	if got := c.ClaimsDir(2020); got != "/data/claims_2020/csv_in_parts" {
		t.Errorf("ClaimsDir: %q", got)
	}
	if got := c.HeaderDir(); got != "/data" {
		t.Errorf("HeaderDir: %q", got)
	}
	if got := len(c.Years()); got != 13 {
		t.Errorf("Years: %d", got)
	}
	a := c.Artifacts()
	if got := a.Rates("population", 2020); got != "/work/rates_population_by_state_2020.csv" {
		t.Errorf("Rates: %q", got)
	}
	if got := a.Rates("cohort", 0); got != "/work/rates_cohort_by_state_all_years.csv" {
		t.Errorf("Rates all years: %q", got)
	}
}
