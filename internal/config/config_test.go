package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("STORE_PATH", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.DefaultSimulations != 10000 || cfg.MaxSimulations != 100000 || cfg.HistogramBins != 50 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Seed != 0 || cfg.EnableMermaidCharts {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_StoreBackendPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)
	t.Setenv("STORE_BACKEND", "SQLite")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("Backend = %q, want sqlite", cfg.Store.Backend)
	}
	if cfg.Store.Path != filepath.Join(dir, "configurations.db") {
		t.Errorf("Path = %q", cfg.Store.Path)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())
	t.Setenv("MAX_SIMULATIONS", "5000")
	t.Setenv("DEFAULT_SIMULATIONS", "1000")
	t.Setenv("HISTOGRAM_BINS", "20")
	t.Setenv("SIMULATION_SEED", "42")
	t.Setenv("ENABLE_MERMAID_CHARTS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxSimulations != 5000 || cfg.DefaultSimulations != 1000 || cfg.HistogramBins != 20 || cfg.Seed != 42 || !cfg.EnableMermaidCharts {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.NewEngine().MaxSimulations() != 5000 {
		t.Errorf("engine must inherit MAX_SIMULATIONS")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string][2]string{
		"NotAnInteger":       {"HISTOGRAM_BINS", "many"},
		"DefaultAboveMax":    {"DEFAULT_SIMULATIONS", "200000"},
		"NonPositiveBins":    {"HISTOGRAM_BINS", "0"},
		"NonPositiveMaximum": {"MAX_SIMULATIONS", "0"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv("DATA_PATH", t.TempDir())
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), kv[0]) {
				t.Errorf("expected error naming %s, got %v", kv[0], err)
			}
		})
	}
}
