package report

import (
	"fmt"
	"io"
	"time"

	"Ventosa/internal/catalog"
	"Ventosa/internal/session"

	"github.com/phpdave11/gofpdf"
)

// Document is everything printed on a selection report.
type Document struct {
	Title    string
	Project  string
	Author   string
	Notes    string
	Date     time.Time
	State    session.State
	Criteria catalog.Criteria
	Policy   catalog.TolerancePolicy
	Result   catalog.Catalog
}

const pageWidth = 190.0

func Render(w io.Writer, doc Document) error {
	if doc.Title == "" {
		doc.Title = "Suction Cup Selection"
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(doc.Title))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	line := func(format string, args ...any) {
		pdf.Cell(0, 6, tr(fmt.Sprintf(format, args...)))
		pdf.Ln(6)
	}
	line("Project: %s", doc.Project)
	line("Author: %s", doc.Author)
	line("Date: %s", doc.Date.Format("2006-01-02"))
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	line("Suction force per cup: %.2f N", doc.Criteria.RequiredForce)
	pdf.SetFont("Helvetica", "", 11)
	if doc.State.CupCount > 0 {
		line("Cups: %d", doc.State.CupCount)
	}
	line("Material: %s", orAny(doc.Criteria.Material))
	line("Surface: %s", orAny(doc.Criteria.Surface))
	line("Application: %s", orAny(doc.Criteria.Application))
	if doc.Policy == catalog.PolicyUpperBand20 {
		line("Force band: %.2f - %.2f N", doc.Criteria.RequiredForce, catalog.UpperBound(doc.Criteria.RequiredForce))
	}
	pdf.Ln(4)

	if doc.Result.Len() == 0 {
		pdf.SetFont("Helvetica", "I", 11)
		line(catalog.NoMatchesMessage)
	} else {
		table(pdf, tr, doc.Result)
	}

	if doc.Notes != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, tr(doc.Notes), "", "L", false)
	}
	return pdf.Output(w)
}

func table(pdf *gofpdf.Fpdf, tr func(string) string, res catalog.Catalog) {
	if len(res.Columns) == 0 {
		return
	}
	colW := pageWidth / float64(len(res.Columns))

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range res.Columns {
		pdf.CellFormat(colW, 7, fit(pdf, tr(c), colW), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, row := range res.Rows {
		for _, c := range res.Columns {
			pdf.CellFormat(colW, 6, fit(pdf, tr(row.Attributes[c]), colW), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// fit trims s until it fits a cell of width w.
func fit(pdf *gofpdf.Fpdf, s string, w float64) string {
	for len(s) > 0 && pdf.GetStringWidth(s) > w-2 {
		s = s[:len(s)-1]
	}
	return s
}

func orAny(v string) string {
	if !catalog.Selected(v) {
		return "any"
	}
	return v
}
