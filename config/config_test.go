package config

import (
	"os"
	"path/filepath"
	"testing"

	"property-trawler/models"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.MaxConcurrency != 1 {
		t.Errorf("MaxConcurrency = %d; want sequential default 1", cfg.MaxConcurrency)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d; want 3", cfg.MaxRetries)
	}
	if cfg.RequestDelayMs != 2000 {
		t.Errorf("RequestDelayMs = %d; want 2000", cfg.RequestDelayMs)
	}
	if cfg.PostgresEnabled {
		t.Error("PostgresEnabled must default off")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MAX_CONCURRENCY", "3")
	t.Setenv("POSTGRES_ENABLED", "true")
	t.Setenv("CRITERIA_FILE", "custom.yaml")

	cfg := Load()
	if cfg.MaxConcurrency != 3 {
		t.Errorf("MaxConcurrency = %d; want 3", cfg.MaxConcurrency)
	}
	if !cfg.PostgresEnabled {
		t.Error("POSTGRES_ENABLED=true not honoured")
	}
	if cfg.CriteriaFile != "custom.yaml" {
		t.Errorf("CriteriaFile = %q", cfg.CriteriaFile)
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost: "db", PostgresPort: "5433", PostgresUser: "u",
		PostgresPassword: "p", PostgresDB: "props", PostgresSSLMode: "disable",
	}
	want := "host=db port=5433 user=u password=p dbname=props sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q; want %q", got, want)
	}
}

func TestLoadCriteriaMissingFileUsesDefaults(t *testing.T) {
	cfg := &Config{CriteriaFile: filepath.Join(t.TempDir(), "absent.yaml"), MaxPages: 5, RequestDelayMs: 2000}

	criteria, err := cfg.LoadCriteria()
	if err != nil {
		t.Fatalf("LoadCriteria: %v", err)
	}
	if len(criteria.Locations) != 1 || criteria.Locations[0] != "London" {
		t.Errorf("default locations = %v", criteria.Locations)
	}
	if criteria.MaxPages != 5 {
		t.Errorf("MaxPages = %d; want the env default carried over", criteria.MaxPages)
	}
}

func TestLoadCriteriaFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "criteria.yaml")
	yamlBody := `locations:
  - Hackney
  - Islington
min_price: 1000
max_price: 2000
min_bedrooms: 2
require_garden: true
property_type: flat
exclude_student_accommodation: true
sources:
  - openrent
  - gumtree
max_pages: 2
`
	if err := os.WriteFile(path, []byte(yamlBody), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{CriteriaFile: path, MaxPages: 5, RequestDelayMs: 2000}
	criteria, err := cfg.LoadCriteria()
	if err != nil {
		t.Fatalf("LoadCriteria: %v", err)
	}

	if len(criteria.Locations) != 2 || criteria.Locations[0] != "Hackney" {
		t.Errorf("locations = %v", criteria.Locations)
	}
	if criteria.MinPrice == nil || *criteria.MinPrice != 1000 {
		t.Errorf("min price = %v", criteria.MinPrice)
	}
	if criteria.MinBedrooms == nil || *criteria.MinBedrooms != 2 {
		t.Errorf("min bedrooms = %v", criteria.MinBedrooms)
	}
	if !criteria.RequireGarden {
		t.Error("require_garden not read")
	}
	if criteria.PropertyType != models.FilterFlat {
		t.Errorf("property type = %s", criteria.PropertyType)
	}
	if !criteria.ExcludeStudentAccommodation {
		t.Error("exclusion flag not read")
	}
	if len(criteria.Sources) != 2 || criteria.Sources[0] != models.SourceOpenRent {
		t.Errorf("sources = %v", criteria.Sources)
	}
	if criteria.MaxPages != 2 {
		t.Errorf("MaxPages = %d; file value must win over the env default", criteria.MaxPages)
	}
	// RequestDelayMs absent from the file: env default stays.
	if criteria.RequestDelayMs != 2000 {
		t.Errorf("RequestDelayMs = %d; want 2000", criteria.RequestDelayMs)
	}

	if err := criteria.Validate(); err != nil {
		t.Errorf("loaded criteria invalid: %v", err)
	}
}

func TestLoadCriteriaBadFileIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "criteria.yaml")
	if err := os.WriteFile(path, []byte("locations: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{CriteriaFile: path}
	if _, err := cfg.LoadCriteria(); err == nil {
		t.Fatal("malformed criteria file must be an error, not silently defaulted")
	}
}
