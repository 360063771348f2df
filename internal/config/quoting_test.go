package config

import (
	"os"
	"path/filepath"
	"testing"
)

// unset clears key for the test and restores it afterwards, so values loaded
// from a .env file do not leak into other tests.
func unset(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func TestLoad_DotenvQuoting(t *testing.T) {
	dir := t.TempDir()
	content := "STORE_PATH='" + filepath.Join(dir, `store "primary"`) + "'\n" +
		"DEFAULT_SIMULATIONS=\"2500\"\n" +
		"ENABLE_MERMAID_CHARTS=true # charts in tool output\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"STORE_PATH", "STORE_BACKEND", "DEFAULT_SIMULATIONS", "ENABLE_MERMAID_CHARTS"} {
		unset(t, key)
	}
	t.Setenv("DATA_PATH", dir)
	t.Chdir(dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	expected := filepath.Join(dir, `store "primary"`)
	if cfg.Store.Path != expected {
		t.Errorf("Expected %s, got %s", expected, cfg.Store.Path)
	}
	if cfg.DefaultSimulations != 2500 {
		t.Errorf("Expected 2500 simulations, got %d", cfg.DefaultSimulations)
	}
	if !cfg.EnableMermaidCharts {
		t.Error("Expected charts enabled from .env")
	}
}
