package scenarios

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"montecarlo-mcp/internal/distribution"
	"montecarlo-mcp/internal/model"
	"montecarlo-mcp/internal/stats"
)

type GeneratorConfig struct {
	Scenario    string // a key of catalog, or "all"
	Format      model.Format
	Simulations int
}

type scenario struct {
	file  string
	build func(n int) model.Record
}

func spec(name string, kind distribution.Kind, params map[string]float64) distribution.Spec {
	return distribution.Spec{Name: name, Kind: kind, Params: params}
}

var catalog = map[string]scenario{
	"profit": {file: "profit", build: func(n int) model.Record {
		return model.Record{
			Name:        "Quarterly profit",
			Description: "Revenue against cost of goods and a flat platform fee.",
			Config: model.Configuration{
				Variables: distribution.Set{
					spec("Revenue", distribution.Triangular, map[string]float64{"lower": 80, "mode": 100, "upper": 140}),
					spec("Cost", distribution.Normal, map[string]float64{"mean": 60, "std": 5}),
					spec("Fee", distribution.Fixed, map[string]float64{"value": 5}),
				},
				FormulaName:     "Profit",
				Formula:         "Revenue - Cost - Fee",
				TargetValue:     30,
				TargetDirection: stats.GreaterThan,
				Simulations:     n,
			},
		}
	}},
	"project": {file: "project-duration", build: func(n int) model.Record {
		return model.Record{
			Name:        "Project duration",
			Description: "Three sequential phases estimated in working days.",
			Config: model.Configuration{
				Variables: distribution.Set{
					spec("Design", distribution.Triangular, map[string]float64{"lower": 5, "mode": 8, "upper": 15}),
					spec("Build", distribution.Triangular, map[string]float64{"lower": 20, "mode": 30, "upper": 55}),
					spec("Test", distribution.Uniform, map[string]float64{"min": 5, "max": 12}),
				},
				FormulaName:     "Duration",
				Formula:         "Design + Build + Test",
				TargetValue:     60,
				TargetDirection: stats.LessThan,
				Simulations:     n,
			},
		}
	}},
	"inventory": {file: "inventory", build: func(n int) model.Record {
		demand := spec("Demand", distribution.Normal, map[string]float64{"mean": 1200, "std": 150})
		demand.Round = true
		return model.Record{
			Name:        "Inventory margin",
			Description: "Units sold times unit margin, minus holding cost on unsold stock.",
			Config: model.Configuration{
				Variables: distribution.Set{
					demand,
					spec("Margin", distribution.Uniform, map[string]float64{"min": 3.5, "max": 5}),
					spec("Stock", distribution.Fixed, map[string]float64{"value": 1400}),
					spec("Holding", distribution.Fixed, map[string]float64{"value": 0.4}),
				},
				FormulaName:     "Margin",
				Formula:         "Demand * Margin - (Stock - Demand) * Holding",
				TargetValue:     4500,
				TargetDirection: stats.GreaterThan,
				Simulations:     n,
			},
		}
	}},
}

// Names lists the available scenarios in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Generate builds the requested records and validates each of them.
func Generate(cfg GeneratorConfig) (map[string]model.Record, error) {
	if cfg.Simulations < 1 {
		return nil, fmt.Errorf("simulations must be >= 1, got %d", cfg.Simulations)
	}
	selected := Names()
	if cfg.Scenario != "" && cfg.Scenario != "all" {
		if _, ok := catalog[cfg.Scenario]; !ok {
			return nil, fmt.Errorf("unknown scenario %q (available: %v)", cfg.Scenario, Names())
		}
		selected = []string{cfg.Scenario}
	}

	out := make(map[string]model.Record, len(selected))
	for _, name := range selected {
		sc := catalog[name]
		rec := sc.build(cfg.Simulations)
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", name, err)
		}
		out[sc.file] = rec
	}
	return out, nil
}

// Save writes one document per record and returns the written paths in
// sorted order.
func Save(outDir string, format model.Format, records map[string]model.Record) ([]string, error) {
	if format != model.FormatJSON && format != model.FormatYAML {
		return nil, fmt.Errorf("unknown format %q", format)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, err
	}

	files := make([]string, 0, len(records))
	for file := range records {
		files = append(files, file)
	}
	slices.Sort(files)

	paths := make([]string, 0, len(files))
	for _, file := range files {
		rec := records[file]
		path := filepath.Join(outDir, file+"."+string(format))
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		if err := model.Encode(f, &rec, format); err != nil {
			f.Close()
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
