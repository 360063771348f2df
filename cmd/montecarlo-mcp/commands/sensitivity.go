package commands

import (
	"fmt"
	"strconv"

	"montecarlo-mcp/internal/visuals"

	"github.com/spf13/cobra"
)

var (
	sensitivityFlags reportFlags
	weightFlags      map[string]string
)

var sensitivityCmd = &cobra.Command{
	Use:   "sensitivity <file>",
	Short: "Attribute result variance to each variable and compare a weighted what-if run",
	Example: `  montecarlo-mcp sensitivity profit.yaml --weight Revenue=1.1 --weight Cost=0.95
  montecarlo-mcp sensitivity profit.json --open`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		weights, err := parseWeights(weightFlags)
		if err != nil {
			return err
		}
		rec, err := readRecord(args[0])
		if err != nil {
			return err
		}
		req := requestFor(rec, sensitivityFlags.simulations)

		res, err := cfg.NewEngine().RunSensitivity(cmd.Context(), req, weights)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if sensitivityFlags.jsonOut {
			if err := writeJSON(out, res); err != nil {
				return err
			}
		} else {
			printSummary(out, rec.Name+" (base)", res.Base)
			fmt.Fprintln(out)
			printSummary(out, rec.Name+" (weighted)", res.Weighted)
			fmt.Fprintln(out, "\nImpact on variance")
			if res.Report.Degenerate {
				fmt.Fprintln(out, "  no variable explains any variance")
			}
			for _, name := range res.Report.Order {
				fmt.Fprintf(out, "  %-20s %6.2f%%  (weight %g)\n", name, res.Report.Impacts[name], res.Weights[name])
			}
		}

		return sensitivityFlags.publish(visuals.Report{
			Title: rec.Name,
			Sections: []visuals.Section{
				{
					Heading: "Base",
					Summary: &res.Base,
					Chart:   visuals.ComparisonChart("Base (bars) vs weighted (line)", res.BaseHistogram, res.WeightedHistogram),
				},
				{
					Heading: "Weighted",
					Summary: &res.Weighted,
				},
				{
					Heading: "Impact on variance",
					Chart:   visuals.ImpactChart(res.Report),
					Notes:   []string{fmt.Sprintf("Formula: %s (seed %d)", res.Formula, res.Seed)},
				},
			},
		})
	},
}

func init() {
	sensitivityFlags.register(sensitivityCmd)
	sensitivityCmd.Flags().StringToStringVarP(&weightFlags, "weight", "w", nil, "what-if multiplier as NAME=FACTOR (repeatable)")
	rootCmd.AddCommand(sensitivityCmd)
}

func parseWeights(raw map[string]string) (map[string]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	weights := make(map[string]float64, len(raw))
	for name, value := range raw {
		w, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("weight %s=%q is not a number", name, value)
		}
		weights[name] = w
	}
	return weights, nil
}
