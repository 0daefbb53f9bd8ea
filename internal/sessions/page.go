package sessions

import (
	_ "embed"
	"html/template"
	"net/http"

	"interiordesigner/internal/design"
	"interiordesigner/internal/llm"
)

//go:embed index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

type pageData struct {
	Models        []llm.Model
	Budgets       []string
	ImagesEnabled bool
}

// Index handles GET / with the upload form.
func (h Handler) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTemplate.Execute(w, pageData{
		Models:        llm.Models,
		Budgets:       design.Budgets,
		ImagesEnabled: h.ImagesEnabled,
	})
	if err != nil {
		h.logger().Error("render index", "error", err)
	}
}
