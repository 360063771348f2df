package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"montecarlo-mcp/internal/configstore"
	"montecarlo-mcp/internal/simulation"
	"montecarlo-mcp/internal/stats"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath            string
	Store               configstore.Options
	DefaultSimulations  int
	MaxSimulations      int
	HistogramBins       int
	Seed                int64
	EnableMermaidCharts bool
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// The binary directory wins: MCP clients rarely start servers in a useful cwd.
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	cfg := &AppConfig{
		DataPath:            dataPath,
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
	}

	backend := strings.ToLower(getEnv("STORE_BACKEND", configstore.BackendJSONL))
	cfg.Store = configstore.Options{
		Backend: backend,
		Path:    getEnv("STORE_PATH", defaultStorePath(dataPath, backend)),
	}

	var errs []string
	cfg.DefaultSimulations = getEnvInt("DEFAULT_SIMULATIONS", simulation.DefaultSimulations, &errs)
	cfg.MaxSimulations = getEnvInt("MAX_SIMULATIONS", simulation.DefaultMaxSimulations, &errs)
	cfg.HistogramBins = getEnvInt("HISTOGRAM_BINS", stats.DefaultBins, &errs)
	cfg.Seed = int64(getEnvInt("SIMULATION_SEED", 0, &errs))
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	if cfg.MaxSimulations < 1 {
		return nil, fmt.Errorf("invalid configuration: MAX_SIMULATIONS must be >= 1")
	}
	if cfg.DefaultSimulations < 1 || cfg.DefaultSimulations > cfg.MaxSimulations {
		return nil, fmt.Errorf("invalid configuration: DEFAULT_SIMULATIONS must be between 1 and %d", cfg.MaxSimulations)
	}
	if cfg.HistogramBins < 1 {
		return nil, fmt.Errorf("invalid configuration: HISTOGRAM_BINS must be >= 1")
	}

	return cfg, nil
}

// NewEngine builds a simulation engine from the configured limits.
func (c *AppConfig) NewEngine() *simulation.Engine {
	e := simulation.NewEngine(
		simulation.WithMaxSimulations(c.MaxSimulations),
		simulation.WithBins(c.HistogramBins),
	)
	e.SetSeed(c.Seed)
	return e
}

func defaultStorePath(dataPath, backend string) string {
	switch backend {
	case configstore.BackendSQLite:
		return filepath.Join(dataPath, "configurations.db")
	case configstore.BackendBadger:
		return filepath.Join(dataPath, "configurations")
	default:
		return dataPath
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *[]string) int {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s=%q is not an integer", key, value))
		return fallback
	}
	return n
}
