// Package report renders a finished session to markdown, PDF and JSON.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"interiordesigner/internal/apperr"
	"interiordesigner/internal/design"
)

// File names written into the session directory.
const (
	AnalysisFile = "analysis.json"
	MarkdownFile = "report.md"
	PDFFile      = "report.pdf"
)

// FileName returns the report file name for format.
func FileName(format design.Format) string {
	if format == design.FormatMarkdown {
		return MarkdownFile
	}
	return PDFFile
}

// Save writes analysis.json and the report in the requested format into the
// session directory and returns the report path.
func Save(session design.Session, format design.Format) (string, error) {
	if session.Dir == "" {
		return "", apperr.IO("report", "session has no output directory", nil)
	}
	reportPath := filepath.Join(session.Dir, FileName(format))
	session.Format = format
	session.ReportPath = reportPath

	if err := WriteJSON(session, filepath.Join(session.Dir, AnalysisFile)); err != nil {
		return "", err
	}

	var err error
	switch format {
	case design.FormatMarkdown:
		err = WriteMarkdown(session, reportPath)
	case design.FormatPDF:
		err = WritePDF(session, reportPath)
	default:
		return "", apperr.Configuration("report", fmt.Sprintf("unsupported format %q", format))
	}
	if err != nil {
		return "", err
	}
	return reportPath, nil
}

// WriteJSON serializes the whole session as indented JSON.
func WriteJSON(session design.Session, path string) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return apperr.IO("report", "encode session", err)
	}
	return writeFile(path, append(data, '\n'))
}

// priorityOrder returns the indexes of recs ordered high to low priority.
// Equal priorities keep their stored order. Indexes stay valid for
// Session.ImageFor.
func priorityOrder(recs []design.Recommendation) []int {
	order := make([]int, len(recs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return recs[order[a]].Priority.Rank() < recs[order[b]].Priority.Rank()
	})
	return order
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperr.IO("report", "write "+filepath.Base(path), err)
	}
	return nil
}
