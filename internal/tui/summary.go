package tui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"interiordesigner/internal/design"
	"interiordesigner/internal/llm"
)

// topRecommendations is how many recommendations the terminal summary shows.
const topRecommendations = 3

// PrintSession writes the executive summary, the top recommendations and the
// output paths of a finished session.
func PrintSession(w io.Writer, s design.Session) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Executive Summary"))
	fmt.Fprintln(w, strings.TrimSpace(s.Summary))
	fmt.Fprintln(w)

	if len(s.Recommendations) > 0 {
		fmt.Fprintln(w, titleStyle.Render("Top Recommendations"))
		for i, rec := range s.Recommendations {
			if i == topRecommendations {
				fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("... and %d more in the report", len(s.Recommendations)-i)))
				break
			}
			fmt.Fprintf(w, "%d. %s %s\n", i+1, priorityBadge(rec.Priority), labelStyle.Render(rec.Title()))
			fmt.Fprintf(w, "   %s\n", design.Truncate(rec.Description, 160))
			if rec.EstimatedCost != "" {
				fmt.Fprintf(w, "   %s %s\n", mutedStyle.Render("Cost:"), rec.EstimatedCost)
			}
		}
		fmt.Fprintln(w)
	}

	if len(s.Warnings) > 0 {
		fmt.Fprintln(w, errorStyle.Render("Warnings"))
		for _, warning := range s.Warnings {
			fmt.Fprintf(w, "- %s\n", warning)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, titleStyle.Render("Output"))
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Session:"), s.Dir)
	if s.ReportPath != "" {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Report:"), s.ReportPath)
	}
	for _, img := range s.GeneratedImages {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Image:"), filepath.Join(s.Dir, img.Path))
	}
	for _, url := range s.ArchiveURLs {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Archived:"), url)
	}
}

// PrintModels lists the model aliases the analyze command accepts.
func PrintModels(w io.Writer, current string) {
	fmt.Fprintln(w, titleStyle.Render("Available models"))
	for _, m := range llm.Models {
		marker := "  "
		if m.Name == current {
			marker = doneStyle.Render("* ")
		}
		fmt.Fprintf(w, "%s%-8s %s %s\n", marker, m.Name, m.Label, mutedStyle.Render("("+m.Description+")"))
	}
}

func priorityBadge(p design.Priority) string {
	label := "[" + strings.ToUpper(string(p)) + "]"
	if style, ok := priorityStyles[string(p)]; ok {
		return style.Render(label)
	}
	return label
}
