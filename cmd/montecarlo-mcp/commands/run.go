package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"montecarlo-mcp/internal/model"
	"montecarlo-mcp/internal/simulation"
	"montecarlo-mcp/internal/stats"
	"montecarlo-mcp/internal/visuals"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type reportFlags struct {
	simulations int
	jsonOut     bool
	reportPath  string
	open        bool
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.simulations, "simulations", "n", 0, "override the number of simulations in the file")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "print the result as JSON")
	cmd.Flags().StringVar(&f.reportPath, "report", "", "write an HTML report to this path")
	cmd.Flags().BoolVar(&f.open, "open", false, "open the HTML report in the browser (implies --report)")
}

// wantsReport resolves the report path, defaulting next to the data when
// only --open is given.
func (f *reportFlags) wantsReport(name string) (string, bool) {
	if f.reportPath != "" {
		return f.reportPath, true
	}
	if !f.open {
		return "", false
	}
	return filepath.Join(cfg.DataPath, "reports", slug(name)+".html"), true
}

func (f *reportFlags) publish(report visuals.Report) error {
	path, ok := f.wantsReport(report.Title)
	if !ok {
		return nil
	}
	if err := report.WriteFile(path); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("Report written")
	if f.open {
		return visuals.Open(path)
	}
	return nil
}

var runFlags reportFlags

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run the simulation described by a configuration file (JSON or YAML)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := readRecord(args[0])
		if err != nil {
			return err
		}
		req := requestFor(rec, runFlags.simulations)

		res, err := cfg.NewEngine().Run(cmd.Context(), req)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if runFlags.jsonOut {
			if err := writeJSON(out, res); err != nil {
				return err
			}
		} else {
			printSummary(out, rec.Name, res.Summary)
		}

		return runFlags.publish(visuals.Report{
			Title: rec.Name,
			Sections: []visuals.Section{{
				Heading: res.FormulaName,
				Summary: &res.Summary,
				Chart:   visuals.HistogramChart("Distribution of "+res.FormulaName, res.Histogram),
				Notes:   []string{fmt.Sprintf("Formula: %s (seed %d)", res.Formula, res.Seed)},
			}},
		})
	},
}

func init() {
	runFlags.register(runCmd)
	rootCmd.AddCommand(runCmd)
}

func readRecord(path string) (*model.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration: %w", err)
	}
	rec, err := model.Decode(data, model.FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

func requestFor(rec *model.Record, simulations int) simulation.Request {
	req := rec.Config.Request()
	if req.FormulaName == "" {
		req.FormulaName = rec.Name
	}
	if simulations > 0 {
		req.Simulations = simulations
	}
	return req
}

func printSummary(w io.Writer, heading string, s stats.Summary) {
	fmt.Fprintf(w, "%s\n%s\n", heading, strings.Repeat("=", len(heading)))
	fmt.Fprintf(w, "%s\n\n", s.ProbabilityText)
	fmt.Fprintf(w, "  simulations  %d\n", s.Count)
	fmt.Fprintf(w, "  mean         %.4f\n", s.Mean)
	fmt.Fprintf(w, "  median       %.4f\n", s.Median)
	fmt.Fprintf(w, "  std          %.4f\n", s.Std)
	fmt.Fprintf(w, "  p5 / p95     %.4f / %.4f\n", s.P5, s.P95)
	fmt.Fprintf(w, "  min / max    %.4f / %.4f\n", s.Min, s.Max)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func slug(name string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, name)
	s = strings.Trim(s, "-")
	if s == "" {
		return "report"
	}
	return s
}
