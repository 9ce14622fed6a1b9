package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/glpstats/internal/cohort"
)

// Config holds all runtime configuration for a glpstats run.
type Config struct {
	DSN       string `yaml:"-"`
	LogFormat string `yaml:"log_format"` // "text" or "json"
	LogLevel  string `yaml:"log_level"`
	FromYear  int    `yaml:"from_year"`
	ToYear    int    `yaml:"to_year"`
	Workers   int    `yaml:"workers"`
	DataDir   string `yaml:"data_dir"` // root of the raw extracts and reference tables
	WorkDir   string `yaml:"work_dir"` // stage artifacts
	AgeMin    int    `yaml:"age_min"`
	AgeMax    int    `yaml:"age_max"`

	Inputs     Inputs     `yaml:"inputs"`
	References References `yaml:"references"`
}

// Inputs locate the partitioned raw extracts under DataDir. Entries with a
// %d verb are expanded with the year.
type Inputs struct {
	Claims       string `yaml:"claims"`
	Headers      string `yaml:"headers"` // directory of header_claims_<year>.txt files
	Demographics string `yaml:"demographics"`
	Payer        string `yaml:"payer"`
}

// References locate the reference tables under DataDir.
type References struct {
	ObesityCodes    string `yaml:"obesity_codes"`
	T2DCodes        string `yaml:"t2d_codes"`
	NDCList         string `yaml:"ndc_list"`
	ZipMap          string `yaml:"zip_map"`
	Zips            string `yaml:"zips"`
	StatePopulation string `yaml:"state_population"`
	RUCA            string `yaml:"ruca"`
}

// Default returns the configuration used when no file or flag overrides it.
func Default() Config {
	return Config{
		LogFormat: "text",
		LogLevel:  "info",
		FromYear:  2010,
		ToYear:    2022,
		Workers:   4,
		DataDir:   ".",
		WorkDir:   "work",
		AgeMin:    18,
		AgeMax:    65,
		Inputs: Inputs{
			Claims:       "claims_%d/csv_in_parts",
			Headers:      ".",
			Demographics: "enroll_synth/csv_in_parts",
			Payer:        "enroll2_%d/csv_in_parts",
		},
		References: References{
			ObesityCodes:    "obesity_codes.csv",
			T2DCodes:        "t2d_codes.csv",
			NDCList:         "glp1ra_ndc.txt",
			ZipMap:          "weighted_zip_by_zip3.csv",
			Zips:            "uszips.csv",
			StatePopulation: "state_pop_estimates.csv",
			RUCA:            "RUCA-codes-2020-tract.csv",
		},
	}
}

// LoadFromFile reads a YAML config file over the current values. Keys absent
// from the file keep their current value.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// Validate checks ranges and returns an error if the config is invalid.
func (c *Config) Validate() error {
	if c.FromYear <= 0 || c.ToYear <= 0 {
		return fmt.Errorf("--from-year and --to-year are required")
	}
	if c.FromYear > c.ToYear {
		return fmt.Errorf("--from-year %d is after --to-year %d", c.FromYear, c.ToYear)
	}
	if c.Workers < 1 {
		return fmt.Errorf("--workers must be at least 1, got %d", c.Workers)
	}
	if c.AgeMin < 0 || c.AgeMin > c.AgeMax {
		return fmt.Errorf("invalid age window [%d, %d]", c.AgeMin, c.AgeMax)
	}
	if c.WorkDir == "" {
		return fmt.Errorf("--work-dir is required")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	return nil
}

// ValidateWithDSN checks the config and the DSN.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DSN == "" {
		return fmt.Errorf("--dsn or GLPSTATS_DB_URL is required")
	}
	return nil
}

// Years lists FromYear through ToYear.
func (c *Config) Years() []int {
	var years []int
	for y := c.FromYear; y <= c.ToYear; y++ {
		years = append(years, y)
	}
	return years
}

// AgeWindow is the final-table age requirement.
func (c *Config) AgeWindow() cohort.AgeWindow {
	return cohort.AgeWindow{Min: c.AgeMin, Max: c.AgeMax}
}

// ClaimsDir is the year's partitioned claims directory.
func (c *Config) ClaimsDir(year int) string {
	return c.data(fmt.Sprintf(c.Inputs.Claims, year))
}

// HeaderDir is the directory holding the claims header files.
func (c *Config) HeaderDir() string {
	return c.data(c.Inputs.Headers)
}

// DemographicsDir is the partitioned demographic enrollment directory.
func (c *Config) DemographicsDir() string {
	return c.data(c.Inputs.Demographics)
}

// PayerDir is the year's partitioned payer enrollment directory.
func (c *Config) PayerDir(year int) string {
	return c.data(fmt.Sprintf(c.Inputs.Payer, year))
}

// Reference resolves a reference table path against DataDir.
func (c *Config) Reference(path string) string {
	return c.data(path)
}

// Artifacts names the stage outputs under WorkDir.
func (c *Config) Artifacts() Artifacts {
	return Artifacts{Dir: c.WorkDir}
}

func (c *Config) data(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}
