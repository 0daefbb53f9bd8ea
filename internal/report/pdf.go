package report

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"interiordesigner/internal/apperr"
	"interiordesigner/internal/design"
	"interiordesigner/internal/vision"
)

const (
	pageWidth   = 210.0
	marginLeft  = 10.0
	marginRight = 200.0
	embedMaxPx  = 1600
)

type rgb struct{ r, g, b int }

var (
	colorHeading = rgb{0, 51, 102}
	colorMuted   = rgb{128, 128, 128}
	colorBody    = rgb{0, 0, 0}
	colorSub     = rgb{51, 51, 51}

	priorityColors = map[design.Priority]rgb{
		design.PriorityHigh:   {220, 53, 69},
		design.PriorityMedium: {255, 193, 7},
		design.PriorityLow:    {40, 167, 69},
	}
)

// pdfWriter wraps fpdf with the report's typography.
type pdfWriter struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	dir    string
	images int
}

func newPDFWriter(dir string) *pdfWriter {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")
	w := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), dir: dir}

	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() == 1 {
			return
		}
		pdf.SetFont("Helvetica", "I", 8)
		w.textColor(colorMuted)
		pdf.CellFormat(0, 10, "Interior Design AI Report", "", 0, "L", false, 0, "")
		pdf.Ln(12)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		w.textColor(colorMuted)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	return w
}

func (w *pdfWriter) textColor(c rgb) {
	w.pdf.SetTextColor(c.r, c.g, c.b)
}

func (w *pdfWriter) titlePage(session design.Session) {
	pdf := w.pdf
	pdf.AddPage()
	pdf.Ln(60)
	pdf.SetFont("Helvetica", "B", 28)
	w.textColor(colorBody)
	pdf.CellFormat(0, 20, "Interior Design Report", "", 1, "C", false, 0, "")

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 14)
	w.textColor(rgb{80, 80, 80})
	pdf.CellFormat(0, 10, w.tr("Session: "+session.ID), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 10, "Generated: "+session.CreatedAt.Format("January 02, 2006"), "", 1, "C", false, 0, "")
	if session.Model != "" {
		pdf.CellFormat(0, 10, w.tr("Model: "+session.Model), "", 1, "C", false, 0, "")
	}

	pdf.Ln(40)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 10, "Powered by Claude AI", "", 1, "C", false, 0, "")
}

func (w *pdfWriter) section(title string) {
	pdf := w.pdf
	pdf.Ln(5)
	pdf.SetFont("Helvetica", "B", 16)
	w.textColor(colorHeading)
	pdf.CellFormat(0, 10, w.tr(title), "", 1, "L", false, 0, "")
	pdf.SetDrawColor(colorHeading.r, colorHeading.g, colorHeading.b)
	pdf.Line(marginLeft, pdf.GetY(), marginRight, pdf.GetY())
	pdf.Ln(5)
}

func (w *pdfWriter) subsection(title string) {
	w.pdf.Ln(3)
	w.pdf.SetFont("Helvetica", "B", 12)
	w.textColor(colorSub)
	w.pdf.CellFormat(0, 8, w.tr(title), "", 1, "L", false, 0, "")
}

func (w *pdfWriter) body(text string) {
	w.pdf.SetFont("Helvetica", "", 10)
	w.textColor(colorBody)
	w.pdf.MultiCell(0, 5, w.tr(text), "", "L", false)
	w.pdf.Ln(2)
}

func (w *pdfWriter) label(text string) {
	w.pdf.SetFont("Helvetica", "B", 10)
	w.textColor(colorBody)
	w.pdf.CellFormat(0, 6, w.tr(text), "", 1, "L", false, 0, "")
}

func (w *pdfWriter) field(name, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	w.pdf.SetFont("Helvetica", "B", 10)
	w.textColor(colorBody)
	w.pdf.CellFormat(40, 6, w.tr(name), "", 0, "L", false, 0, "")
	w.pdf.SetFont("Helvetica", "", 10)
	w.pdf.MultiCell(0, 6, w.tr(value), "", "L", false)
}

func (w *pdfWriter) bullets(title string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	w.pdf.Ln(3)
	w.label(title)
	w.pdf.SetFont("Helvetica", "", 10)
	for _, item := range items {
		w.pdf.SetX(marginLeft + 10)
		w.pdf.CellFormat(5, 5, w.tr("•"), "", 0, "L", false, 0, "")
		w.pdf.MultiCell(0, 5, w.tr(item), "", "L", false)
	}
}

func (w *pdfWriter) badge(p design.Priority) {
	c, ok := priorityColors[p]
	if !ok {
		c = colorMuted
	}
	w.pdf.SetFillColor(c.r, c.g, c.b)
	w.textColor(rgb{255, 255, 255})
	w.pdf.SetFont("Helvetica", "B", 8)
	w.pdf.CellFormat(20, 6, strings.ToUpper(string(p)), "", 1, "C", true, 0, "")
	w.textColor(colorBody)
	w.pdf.Ln(2)
}

// image embeds the file at rel (relative to the session directory) centred
// at width mm. Undecodable images are skipped.
func (w *pdfWriter) image(rel string, width float64) bool {
	if rel == "" {
		return false
	}
	path := rel
	if !filepath.IsAbs(path) {
		path = filepath.Join(w.dir, rel)
	}
	data, err := vision.PrepareImage(path, embedMaxPx)
	if err != nil {
		return false
	}
	w.images++
	name := fmt.Sprintf("img%d", w.images)
	opts := fpdf.ImageOptions{ImageType: "JPG", ReadDpi: false}
	w.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if !w.pdf.Ok() {
		w.pdf.ClearError()
		return false
	}
	w.pdf.ImageOptions(name, (pageWidth-width)/2, -1, width, 0, true, opts, 0, "")
	w.pdf.Ln(5)
	return true
}

// RenderPDF lays out the session as a PDF document.
func RenderPDF(session design.Session) ([]byte, error) {
	w := newPDFWriter(session.Dir)
	pdf := w.pdf

	w.titlePage(session)

	pdf.AddPage()
	w.section("Executive Summary")
	w.body(session.Summary)

	if len(session.Analyses) > 0 {
		pdf.AddPage()
		w.section("Room Analysis")
		for i, a := range session.Analyses {
			w.subsection(fmt.Sprintf("Room %d: %s", i+1, design.TitleCase(a.RoomType)))
			if i < len(session.OriginalImages) {
				w.image(session.OriginalImages[i], 100)
			}
			w.field("Current Style:", a.Style)
			w.field("Dimensions:", a.EstimatedDimensions)
			w.field("Layout:", a.Layout)
			w.field("Lighting:", a.LightingAssessment)
			w.field("Colors:", strings.Join(a.ColorPalette, ", "))

			var observations []string
			for _, o := range a.Observations {
				if o.Location != "" {
					observations = append(observations, fmt.Sprintf("%s (%s)", o.Issue, o.Location))
				} else {
					observations = append(observations, o.Issue)
				}
			}
			w.bullets("Observations:", observations, 6)
			w.bullets("Existing Furniture:", a.ExistingFurniture, 6)
			w.bullets("Strengths:", a.Strengths, 4)
			w.bullets("Improvement Opportunities:", a.ImprovementOpportunities, 4)
			pdf.Ln(10)
		}
	}

	if len(session.Recommendations) > 0 {
		pdf.AddPage()
		w.section("Design Recommendations")
		for n, i := range priorityOrder(session.Recommendations) {
			rec := session.Recommendations[i]
			w.subsection(fmt.Sprintf("%d. %s", n+1, rec.Title()))
			w.badge(rec.Priority)
			if rec.CurrentState != "" {
				w.label("Current State:")
				w.body(rec.CurrentState)
			}
			w.label("Recommendation:")
			w.body(rec.Description)
			w.field("Est. Cost:", rec.EstimatedCost)
			w.bullets("Suggested Products:", rec.ProductSuggestions, 4)
			if img, ok := session.ImageFor(i); ok {
				pdf.Ln(3)
				if w.image(img.Path, 150) {
					pdf.SetFont("Helvetica", "I", 8)
					w.textColor(rgb{100, 100, 100})
					pdf.MultiCell(0, 4, w.tr("Prompt: "+design.Truncate(img.PromptUsed, 200)), "", "L", false)
					w.textColor(colorBody)
				}
			}
			pdf.Ln(8)
		}
	}

	if len(session.Warnings) > 0 {
		pdf.AddPage()
		w.section("Notes")
		w.bullets("Warnings:", session.Warnings, 0)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperr.IO("report", "render pdf", err)
	}
	return buf.Bytes(), nil
}

// WritePDF renders the session to path.
func WritePDF(session design.Session, path string) error {
	data, err := RenderPDF(session)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}
