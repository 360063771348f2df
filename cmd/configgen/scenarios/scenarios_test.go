package scenarios

import (
	"os"
	"path/filepath"
	"testing"

	"montecarlo-mcp/internal/model"
)

func TestGenerate_All(t *testing.T) {
	records, err := Generate(GeneratorConfig{Scenario: "all", Simulations: 500})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(records) != len(Names()) {
		t.Fatalf("expected %d records, got %d", len(Names()), len(records))
	}
	for file, rec := range records {
		if rec.Config.Simulations != 500 {
			t.Errorf("%s: simulations not applied", file)
		}
	}
}

func TestGenerate_Errors(t *testing.T) {
	if _, err := Generate(GeneratorConfig{Scenario: "weather", Simulations: 10}); err == nil {
		t.Error("expected an error for an unknown scenario")
	}
	if _, err := Generate(GeneratorConfig{Scenario: "profit", Simulations: 0}); err == nil {
		t.Error("expected an error for zero simulations")
	}
}

func TestSave_RoundTripsThroughDecode(t *testing.T) {
	for _, format := range []model.Format{model.FormatJSON, model.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			records, err := Generate(GeneratorConfig{Scenario: "all", Simulations: 100})
			if err != nil {
				t.Fatal(err)
			}
			paths, err := Save(t.TempDir(), format, records)
			if err != nil {
				t.Fatalf("Save: %v", err)
			}
			for _, p := range paths {
				data, err := os.ReadFile(p)
				if err != nil {
					t.Fatal(err)
				}
				rec, err := model.Decode(data, model.FormatFromPath(p))
				if err != nil {
					t.Fatalf("%s does not decode: %v", filepath.Base(p), err)
				}
				if rec.Config.Simulations != 100 {
					t.Errorf("%s: simulations lost", filepath.Base(p))
				}
			}
		})
	}
}

func TestInventoryRoundsDemand(t *testing.T) {
	records, err := Generate(GeneratorConfig{Scenario: "inventory", Simulations: 10})
	if err != nil {
		t.Fatal(err)
	}
	demand, ok := records["inventory"].Config.Variables.Get("Demand")
	if !ok || !demand.Round {
		t.Errorf("expected Demand to round, got %+v", demand)
	}
}
