package visuals

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"montecarlo-mcp/internal/sensitivity"
	"montecarlo-mcp/internal/stats"
)

// axisLabel formats a bin midpoint compactly enough for an x-axis.
func axisLabel(v float64) string {
	return fmt.Sprintf("\"%s\"", strconv.FormatFloat(v, 'g', 4, 64))
}

func binLabels(h *stats.Histogram) []string {
	labels := make([]string, len(h.Bins))
	for i, b := range h.Bins {
		labels[i] = axisLabel((b.Lower + b.Upper) / 2)
	}
	return labels
}

func countValues(h *stats.Histogram) ([]string, int) {
	values := make([]string, len(h.Bins))
	maxVal := 0
	for i, b := range h.Bins {
		values[i] = strconv.Itoa(b.Count)
		if b.Count > maxVal {
			maxVal = b.Count
		}
	}
	return values, maxVal
}

func headroom(maxVal int) int {
	return maxVal + int(math.Max(1, float64(maxVal)*0.1))
}

func escapeTitle(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

// HistogramChart creates a Mermaid bar chart of a result distribution.
func HistogramChart(title string, h *stats.Histogram) string {
	if h == nil || h.Total() == 0 {
		return ""
	}
	values, maxVal := countValues(h)

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s\"\n", escapeTitle(title)))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(binLabels(h), ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Frequency\" 0 --> %d\n", headroom(maxVal)))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// ComparisonChart overlays the weighted distribution (line) on the base one
// (bars). Both histograms must share bin edges.
func ComparisonChart(title string, base, weighted *stats.Histogram) string {
	if base == nil || weighted == nil || len(base.Bins) != len(weighted.Bins) || base.Total() == 0 {
		return ""
	}
	baseValues, baseMax := countValues(base)
	weightedValues, weightedMax := countValues(weighted)

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s\"\n", escapeTitle(title)))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(binLabels(base), ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Frequency\" 0 --> %d\n", headroom(max(baseMax, weightedMax))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(baseValues, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(weightedValues, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// ImpactChart creates a Mermaid bar chart of each variable's share of the
// output variance, in analysis order.
func ImpactChart(report *sensitivity.Report) string {
	if report == nil || len(report.Order) == 0 {
		return ""
	}

	labels := make([]string, len(report.Order))
	values := make([]string, len(report.Order))
	for i, name := range report.Order {
		labels[i] = fmt.Sprintf("\"%s\"", name)
		values[i] = fmt.Sprintf("%.1f", report.Impacts[name])
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Variance Contribution (%)\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString("    y-axis \"Impact (%)\" 0 --> 100\n")
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}
