package visuals

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"montecarlo-mcp/internal/stats"

	"github.com/pkg/browser"
)

// Section is one block of an HTML report: a headline summary and an optional
// Mermaid chart as produced by the chart functions in this package.
type Section struct {
	Heading string
	Summary *stats.Summary
	Chart   string
	Notes   []string
}

// Report is a standalone HTML page rendering one or more sections.
type Report struct {
	Title    string
	Sections []Section
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"diagram": func(chart string) string {
		chart = strings.TrimPrefix(chart, "```mermaid\n")
		return strings.TrimSuffix(chart, "```")
	},
	"num": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script type="module">
import mermaid from "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.esm.min.mjs";
mermaid.initialize({ startOnLoad: true });
</script>
<style>
body { font-family: sans-serif; margin: 2rem auto; max-width: 960px; }
table { border-collapse: collapse; }
td, th { padding: 0.25rem 0.75rem; border-bottom: 1px solid #ddd; text-align: right; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Sections}}
<section>
<h2>{{.Heading}}</h2>
{{with .Summary}}
<p><strong>{{.ProbabilityText}}</strong></p>
<table>
<tr><th>Mean</th><th>Median</th><th>Std</th><th>P5</th><th>P95</th><th>Min</th><th>Max</th></tr>
<tr><td>{{num .Mean}}</td><td>{{num .Median}}</td><td>{{num .Std}}</td><td>{{num .P5}}</td><td>{{num .P95}}</td><td>{{num .Min}}</td><td>{{num .Max}}</td></tr>
</table>
{{end}}
{{if .Chart}}<pre class="mermaid">{{diagram .Chart}}</pre>{{end}}
{{range .Notes}}<p>{{.}}</p>{{end}}
</section>
{{end}}
</body>
</html>
`))

// Render writes the report as HTML.
func (r Report) Render(w io.Writer) error {
	return reportTemplate.Execute(w, r)
}

// WriteFile renders the report to path, creating parent directories.
func (r Report) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := r.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("render report: %w", err)
	}
	return f.Close()
}

// Open launches the system browser on a rendered report file.
func Open(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	return browser.OpenFile(abs)
}
