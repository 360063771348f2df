package logging

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestDir(t *testing.T) {
	exe := filepath.Join("opt", "montecarlo", "montecarlo-mcp")

	tests := []struct {
		name   string
		logs   string
		data   string
		exeErr error
		want   string
	}{
		{"explicit folder", "custom", "data", nil, "custom"},
		{"data path", "", "data", nil, filepath.Join("data", "logs")},
		{"beside binary", "", "", nil, filepath.Join("opt", "montecarlo", "logs")},
		{"no executable", "", "", errors.New("unsupported"), "logs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOGS_FOLDER", tt.logs)
			t.Setenv("DATA_PATH", tt.data)
			if got := Dir(exe, tt.exeErr); got != tt.want {
				t.Errorf("Dir() = %q, want %q", got, tt.want)
			}
		})
	}
}
