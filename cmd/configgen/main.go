package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"montecarlo-mcp/cmd/configgen/scenarios"
	"montecarlo-mcp/internal/model"
)

func main() {
	scenario := flag.String("scenario", "all", "Scenario to generate: "+strings.Join(scenarios.Names(), ", ")+" or all")
	format := flag.String("format", "yaml", "Output format: json, yaml")
	outDir := flag.String("out", "./examples", "Output directory for configuration files")
	count := flag.Int("count", 10000, "Number of simulations written into each configuration")
	flag.Parse()

	cfg := scenarios.GeneratorConfig{
		Scenario:    *scenario,
		Format:      model.Format(*format),
		Simulations: *count,
	}

	fmt.Printf("Generating scenario '%s' (Format: %s, Simulations: %d) to %s...\n", cfg.Scenario, cfg.Format, cfg.Simulations, *outDir)

	records, err := scenarios.Generate(cfg)
	if err != nil {
		fmt.Printf("Failed to generate configurations: %v\n", err)
		os.Exit(1)
	}

	paths, err := scenarios.Save(*outDir, cfg.Format, records)
	if err != nil {
		fmt.Printf("Failed to save configurations: %v\n", err)
		os.Exit(1)
	}
	for _, p := range paths {
		fmt.Println("  " + p)
	}

	fmt.Println("Done.")
}
