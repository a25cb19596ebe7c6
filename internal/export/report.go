// Package export renders transformation results to PDF reports, QR-coded
// lot labels, Excel inventory sheets and DXF cut diagrams.
package export

import (
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/dkovalev/steelyard/internal/engine"
	"github.com/dkovalev/steelyard/internal/model"
)

// Page layout constants (A4 portrait in mm).
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	contentWidth = pageWidth - marginLeft - marginRight
)

// ExportReport generates a PDF document describing a transformation session:
// session metadata, the consumed source material, the produced lots and the
// per-type totals of what remains in the source collection.
func ExportReport(path string, session *engine.Session) error {
	produced := producedLots(session)
	if produced.IsEmpty() {
		return fmt.Errorf("nothing to report: no lots produced")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.AddPage()

	y := renderReportHeader(pdf, session)
	y = renderLotTable(pdf, "Materials Consumed", consumedLots(session), y+4)
	y = renderLotTable(pdf, "Materials Produced", produced, y+4)
	renderRemainsSummary(pdf, session.Source(), y+4)
	renderReportFooter(pdf)

	return pdf.OutputFileAndClose(path)
}

// producedLots returns the lots a session produced: the selection for cut
// sessions, the result collection otherwise.
func producedLots(s *engine.Session) *model.LotCollection {
	if s.Kind() == engine.KindCut {
		return s.Selected().FilterNotJoined()
	}
	return s.Result()
}

// consumedLots projects the source collection onto what the session drew
// from it: merged lots whole, drawn-down lots as their consumed delta.
func consumedLots(s *engine.Session) *model.LotCollection {
	out := model.NewLotCollection()
	for _, l := range s.Source().Items() {
		switch {
		case l.JoinTo != "":
			out.Add(l)
		case l.IsChanged():
			out.Add(l.CloneWithUsedAmounts())
		}
	}
	return out
}

// renderReportHeader draws the title block and session metadata, returning
// the y position below it.
func renderReportHeader(pdf *fpdf.Fpdf, session *engine.Session) float64 {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Material Transformation Report: %s", session.Kind())
	pdf.CellFormat(contentWidth, 10, title, "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 16
	items := []struct {
		label string
		value string
	}{
		{"Transformation", session.Kind().String()},
		{"Departure", session.DepartureAt.Format(time.RFC3339)},
		{"Project object", fmt.Sprintf("%d", session.ToProjectObjectID)},
		{"Responsible user", fmt.Sprintf("%d", session.ToResponsibleUserID)},
	}
	if session.Comment != "" {
		items = append(items, struct{ label, value string }{"Comment", session.Comment})
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range items {
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(40, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(contentWidth-40, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 6
	}
	return y
}

// renderLotTable draws a titled table of lots with quantity, amount and
// weight columns, returning the y position below it.
func renderLotTable(pdf *fpdf.Fpdf, title string, lots *model.LotCollection, y float64) float64 {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(contentWidth, 7, title, "", 0, "L", false, 0, "")
	y += 9

	if lots.IsEmpty() {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(contentWidth, 5, "none", "", 0, "L", false, 0, "")
		return y + 7
	}

	colWidths := []float64{85, 30, 25, 40}
	headers := []string{"Material", "Quantity", "Amount", "Weight (t)"}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, l := range lots.Items() {
		unit := ""
		if l.Standard != nil && l.Standard.Type.Unit != nil {
			unit = " " + l.Standard.Type.Unit.Label
		}
		rowData := []string{
			l.DisplayName(),
			fmt.Sprintf("%.2f%s", l.Quantity, unit),
			fmt.Sprintf("%.0f", l.Amount),
			fmt.Sprintf("%.2f", l.TotalWeight()),
		}

		// Alternate row background
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}

		xPos = marginLeft
		for j, cell := range rowData {
			align := "R"
			if j == 0 {
				align = "L"
			}
			pdf.SetXY(xPos, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, align, true, 0, "")
			xPos += colWidths[j]
		}
		y += 6
	}

	// Totals row
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(colWidths[0]+colWidths[1], 6, "Total", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colWidths[2], 6, fmt.Sprintf("%.0f", lots.TotalAmount()), "1", 0, "R", true, 0, "")
	pdf.CellFormat(colWidths[3], 6, fmt.Sprintf("%.2f", lots.TotalWeight()), "1", 0, "R", true, 0, "")
	return y + 8
}

// renderRemainsSummary draws the per-type totals of the remaining source
// inventory.
func renderRemainsSummary(pdf *fpdf.Fpdf, source *model.LotCollection, y float64) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(contentWidth, 7, "Remaining Inventory by Type", "", 0, "L", false, 0, "")
	y += 9

	pdf.SetFont("Helvetica", "", 9)
	for _, group := range source.GroupedAmountQuantityByType() {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 5, group.Type, "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 5, fmt.Sprintf("%.2f %s", group.Total, group.Unit), "", 0, "R", false, 0, "")
		y += 5
	}
}

// renderReportFooter draws the page footer.
func renderReportFooter(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(contentWidth, 4, "Generated by Steelyard - Material Transformation Engine", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}
