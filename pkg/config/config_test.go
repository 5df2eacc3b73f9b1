package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load on a missing file should fall back to defaults, got error: %v", err)
	}
	if cfg.Filter.Epsilon != 0.01 {
		t.Fatalf("expected default epsilon 0.01, got %f", cfg.Filter.Epsilon)
	}
	if cfg.Filter.ExpectedLevels == 0 {
		t.Fatalf("expected a non-zero default expected_levels")
	}
	if cfg.Filter.MemoryBudgetBytes == 0 {
		t.Fatalf("expected a non-zero default memory_budget_bytes")
	}
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ldcf.yaml")
	contents := `
filter:
  epsilon: 0.001
  expected_population: 500000
  expected_levels: 5
  seed: 42
logging:
  level: debug
  enable_console: true
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Filter.Epsilon != 0.001 {
		t.Fatalf("expected epsilon 0.001, got %f", cfg.Filter.Epsilon)
	}
	if cfg.Filter.ExpectedPopulation != 500000 {
		t.Fatalf("expected population 500000, got %d", cfg.Filter.ExpectedPopulation)
	}
	if cfg.Filter.Seed != 42 {
		t.Fatalf("expected seed 42, got %d", cfg.Filter.Seed)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected logging level debug, got %s", cfg.Logging.Level)
	}
}

func TestValidateRejectsBadEpsilon(t *testing.T) {
	cfg := &Config{Filter: FilterConfig{Epsilon: 0, ExpectedPopulation: 10, ExpectedLevels: 1}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to reject epsilon == 0")
	}
}

func TestValidateRejectsZeroPopulation(t *testing.T) {
	cfg := &Config{Filter: FilterConfig{Epsilon: 0.1, ExpectedPopulation: 0, ExpectedLevels: 1}}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to reject zero expected_population")
	}
}
