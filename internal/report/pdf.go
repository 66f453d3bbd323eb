package report

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/spigell/audit-recommender/internal/ai"
)

const (
	pdfLine         = 6.0
	pdfScoreWidth   = 30.0
	pdfHeadingSize  = 14.0
	pdfBodySize     = 10.0
	pdfDocumentName = "Audit Recommendations"
)

func renderPDF(w io.Writer, r *Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(pdfDocumentName, true)
	pdf.SetCreator("audit-recommender", true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// Core fonts are cp1252; questionnaire text may carry accents and dashes.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	left, _, right, _ := pdf.GetMargins()
	pageWidth, _ := pdf.GetPageSize()
	width := pageWidth - left - right

	heading := func(title string) {
		pdf.SetFont("Helvetica", "B", pdfHeadingSize)
		pdf.CellFormat(width, pdfLine+2, tr(title), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", pdfBodySize)
	}
	paragraph := func(text string) {
		pdf.MultiCell(width, pdfLine, tr(text), "", "L", false)
	}

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(width, 10, pdfDocumentName, "", 1, "C", false, 0, "")
	if r.CatalogVersion != "" {
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(width, pdfLine, tr("Catalog version "+r.CatalogVersion), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	if r.Summary != "" {
		heading("Summary")
		paragraph(r.Summary)
		pdf.Ln(3)
	}

	if len(r.Bullets) > 0 {
		heading("Key Points")
		for _, bullet := range r.Bullets {
			paragraph("- " + bullet)
		}
		pdf.Ln(3)
	}

	writeInsights := func(title string, insights []ai.Insight) {
		if len(insights) == 0 {
			return
		}
		heading(title)
		for i, in := range insights {
			lines := insightLines(in)
			pdf.SetFont("Helvetica", "B", pdfBodySize)
			paragraph(fmt.Sprintf("%d. %s", i+1, lines[0]))
			pdf.SetFont("Helvetica", "", pdfBodySize)
			for _, line := range lines[1:] {
				paragraph(line)
			}
			pdf.Ln(1)
		}
		pdf.Ln(2)
	}
	writeInsights("Top Maturity Gaps", r.Gaps)
	writeInsights("Maturity Drivers", r.Drivers)

	heading("Recommendations")
	res := r.result()
	if res.MatchedCount == 0 {
		paragraph(NoMatches)
	} else {
		nameWidth := width - 2*pdfScoreWidth

		pdf.SetFont("Helvetica", "B", pdfBodySize)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(nameWidth, pdfLine+1, "Recommendation", "1", 0, "L", true, 0, "")
		pdf.CellFormat(pdfScoreWidth, pdfLine+1, "Score", "1", 0, "R", true, 0, "")
		pdf.CellFormat(pdfScoreWidth, pdfLine+1, "Max Weight", "1", 1, "R", true, 0, "")

		pdf.SetFont("Helvetica", "", pdfBodySize)
		for _, m := range res.Matches {
			pdf.CellFormat(nameWidth, pdfLine+1, tr(m.Recommendation), "1", 0, "L", false, 0, "")
			pdf.CellFormat(pdfScoreWidth, pdfLine+1, amount(m.Score), "1", 0, "R", false, 0, "")
			pdf.CellFormat(pdfScoreWidth, pdfLine+1, amount(m.MaxWeight), "1", 1, "R", false, 0, "")
		}

		pdf.Ln(3)
		for _, line := range totals(res) {
			paragraph(line)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("building pdf report: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing pdf report: %w", err)
	}
	return nil
}
