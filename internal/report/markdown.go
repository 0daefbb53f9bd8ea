package report

import (
	"bytes"
	"path/filepath"
	"strings"
	"text/template"

	"interiordesigner/internal/apperr"
	"interiordesigner/internal/design"
)

var markdownTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"inc":   func(i int) int { return i + 1 },
	"title": design.TitleCase,
	"upper": func(p design.Priority) string { return strings.ToUpper(string(p)) },
	"join":  func(items []string) string { return strings.Join(items, ", ") },
	"link":  filepath.ToSlash,
}).Parse(`# Interior Design Report

- **Session:** {{.Session.ID}}
- **Generated:** {{.Date}}
{{- if .Session.Model}}
- **Model:** {{.Session.Model}}
{{- end}}
{{- with .Session.Preferences}}
{{- if .Style}}
- **Style:** {{.Style}}
{{- end}}
{{- if .Budget}}
- **Budget:** {{.Budget}}
{{- end}}
{{- if .SpecificNeeds}}
- **Needs:** {{.SpecificNeeds}}
{{- end}}
{{- end}}

## Executive Summary

{{.Session.Summary}}

## Room Analysis
{{range $i, $a := .Rooms}}
### Room {{inc $i}}: {{title $a.Analysis.RoomType}}
{{if $a.Original}}
![Original room {{inc $i}}]({{link $a.Original}})
{{end}}
- **Current Style:** {{$a.Analysis.Style}}
{{- if $a.Analysis.EstimatedDimensions}}
- **Dimensions:** {{$a.Analysis.EstimatedDimensions}}
{{- end}}
{{- if $a.Analysis.Layout}}
- **Layout:** {{$a.Analysis.Layout}}
{{- end}}
{{- if $a.Analysis.LightingAssessment}}
- **Lighting:** {{$a.Analysis.LightingAssessment}}
{{- end}}
{{- if $a.Analysis.ColorPalette}}
- **Colors:** {{join $a.Analysis.ColorPalette}}
{{- end}}
{{- if $a.Analysis.Observations}}

**Observations:**
{{range $a.Analysis.Observations}}
- {{.Issue}}{{if .Location}} ({{.Location}}){{end}}
{{- end}}
{{- end}}
{{- if $a.Analysis.ExistingFurniture}}

**Existing Furniture:**
{{range $a.Analysis.ExistingFurniture}}
- {{.}}
{{- end}}
{{- end}}
{{- if $a.Analysis.Strengths}}

**Strengths:**
{{range $a.Analysis.Strengths}}
- {{.}}
{{- end}}
{{- end}}
{{- if $a.Analysis.ImprovementOpportunities}}

**Improvement Opportunities:**
{{range $a.Analysis.ImprovementOpportunities}}
- {{.}}
{{- end}}
{{- end}}
{{end}}
## Design Recommendations
{{range $i, $r := .Recommendations}}
### {{inc $i}}. {{$r.Rec.Title}}

**Priority:** {{upper $r.Rec.Priority}}
{{- if $r.Rec.CurrentState}}

**Current State:** {{$r.Rec.CurrentState}}
{{- end}}

**Recommendation:** {{$r.Rec.Description}}
{{- if $r.Rec.EstimatedCost}}

**Estimated Cost:** {{$r.Rec.EstimatedCost}}
{{- end}}
{{- if $r.Rec.ProductSuggestions}}

**Suggested Products:**
{{range $r.Rec.ProductSuggestions}}
- {{.}}
{{- end}}
{{- end}}
{{- if $r.Image}}

![{{$r.Rec.Title}} visualization]({{link $r.Image.Path}})
{{- end}}
{{end}}
{{- if .Session.Warnings}}
## Notes
{{range .Session.Warnings}}
- {{.}}
{{- end}}
{{end}}`))

type roomView struct {
	Analysis design.RoomAnalysis
	Original string
}

type recommendationView struct {
	Rec   design.Recommendation
	Image *design.GeneratedImage
}

type markdownView struct {
	Session         design.Session
	Date            string
	Rooms           []roomView
	Recommendations []recommendationView
}

func newMarkdownView(session design.Session) markdownView {
	view := markdownView{
		Session: session,
		Date:    session.CreatedAt.Format("January 02, 2006 15:04"),
	}
	for i, a := range session.Analyses {
		room := roomView{Analysis: a}
		if i < len(session.OriginalImages) {
			room.Original = session.OriginalImages[i]
		}
		view.Rooms = append(view.Rooms, room)
	}
	for _, i := range priorityOrder(session.Recommendations) {
		rv := recommendationView{Rec: session.Recommendations[i]}
		if img, ok := session.ImageFor(i); ok {
			rv.Image = &img
		}
		view.Recommendations = append(view.Recommendations, rv)
	}
	return view
}

// RenderMarkdown renders the session as a markdown document.
func RenderMarkdown(session design.Session) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdownTemplate.Execute(&buf, newMarkdownView(session)); err != nil {
		return nil, apperr.IO("report", "render markdown", err)
	}
	return buf.Bytes(), nil
}

// WriteMarkdown renders the session to path.
func WriteMarkdown(session design.Session, path string) error {
	data, err := RenderMarkdown(session)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}
