package service

import (
	"html/template"
	"strings"
	"time"

	"github.com/synterhq/synter-api/internal/models"
)

// reportTemplate renders a ready report as a standalone HTML document.
// Styling is intentionally minimal; the frontend wraps this content.
var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"title": titleCase,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Report.Title}}</title>
<style>
body { font-family: -apple-system, sans-serif; max-width: 860px; margin: 2rem auto; color: #1a1a2e; }
.score { font-size: 3rem; font-weight: 700; }
.confidence { color: #666; text-transform: uppercase; font-size: 0.8rem; letter-spacing: 0.08em; }
section { margin: 1.5rem 0; padding: 1rem; border: 1px solid #e2e2ea; border-radius: 8px; }
.status-excellent { border-left: 4px solid #2e9e5b; }
.status-good { border-left: 4px solid #e0a800; }
.status-poor { border-left: 4px solid #d64545; }
.priority { font-weight: 600; text-transform: uppercase; font-size: 0.75rem; }
.meta { color: #888; font-size: 0.8rem; }
</style>
</head>
<body>
<h1>{{.Report.Title}}</h1>
<p class="meta">Generated {{.GeneratedAt}}</p>
{{if .Payload.NoData}}
<p>Not enough data was available to score this report.</p>
{{else}}
<div class="score">{{.Payload.OverallScore}}<small>/100</small></div>
<p class="confidence">Confidence: {{.Payload.Confidence}}</p>
{{end}}
<p>{{.Payload.Summary}}</p>
{{range .Payload.Sections}}
<section class="status-{{.Status}}">
<h2>{{.Title}} &mdash; {{.Score}}/{{.MaxScore}}</h2>
<p>{{.Details}}</p>
{{if .Items}}<ul>{{range .Items}}<li>{{.}}</li>{{end}}</ul>{{end}}
</section>
{{end}}
{{if .Payload.Recommendations}}
<h2>Recommendations</h2>
{{range .Payload.Recommendations}}
<section>
<span class="priority">{{.Priority}}</span> &middot; {{.Category}}
<h3>{{.Title}}</h3>
<p>{{.Description}}</p>
</section>
{{end}}
{{end}}
{{if .Payload.Insights}}
<h2>Audience Insights</h2>
{{range .Payload.Insights}}
<section>
<h3>{{.Title}}</h3>
<p class="meta">{{title .Kind}}</p>
<p>{{.Description}}</p>
</section>
{{end}}
{{end}}
</body>
</html>
`))

type reportTemplateData struct {
	Report      *models.Report
	Payload     *reportPayload
	GeneratedAt string
}

// renderReportHTML renders the report document. Rendering never blocks
// the pipeline: on template failure an empty string is stored and the
// JSON payload remains the source of truth.
func renderReportHTML(report *models.Report, payload *reportPayload) string {
	var b strings.Builder
	err := reportTemplate.Execute(&b, reportTemplateData{
		Report:      report,
		Payload:     payload,
		GeneratedAt: time.Now().UTC().Format("2 January 2006"),
	})
	if err != nil {
		return ""
	}
	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
