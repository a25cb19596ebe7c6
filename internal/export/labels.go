package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/dkovalev/steelyard/internal/model"
)

// LabelInfo holds the data encoded into each lot label's QR code.
type LabelInfo struct {
	UUID       string  `json:"uuid"`
	LotID      int     `json:"lot_id,omitempty"`
	StandardID int     `json:"standard_id"`
	Material   string  `json:"material"`
	Quantity   float64 `json:"quantity"`
	Amount     float64 `json:"amount"`
	Weight     float64 `json:"weight_t"`
	CutFrom    string  `json:"cut_from,omitempty"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelPageWidth  = 215.9 // US Letter width in mm
	labelPageHeight = 279.4 // US Letter height in mm
	labelMarginTop  = 12.7  // mm
	labelMarginLeft = 4.8   // mm
	labelWidth      = 66.7  // mm per label
	labelHeight     = 25.4  // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// ExportLabels generates a PDF of QR-coded labels for the given lots.
// Each label contains the material name, quantity/amount, and a QR code
// encoding lot metadata as JSON. Labels are laid out on a standard label
// sheet format (Avery 5160 / 3 columns x 10 rows on US Letter).
func ExportLabels(path string, lots *model.LotCollection) error {
	labels := CollectLabelInfos(lots)
	if len(labels) == 0 {
		return fmt.Errorf("no lots to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		// Add new page when needed
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, label); err != nil {
			return fmt.Errorf("failed to render label for %q: %w", label.Material, err)
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, info LabelInfo) error {
	// Draw light border for cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	// Generate QR code PNG bytes
	qrData, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal label info: %w", err)
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}

	// Register QR image with a unique name
	imgName := fmt.Sprintf("qr_%s", info.UUID)
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	// Place QR code on the right side of the label
	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	// Text area (left side of label)
	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	// Material name (bold, larger)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)

	// Truncate material name if too long
	material := info.Material
	if pdf.GetStringWidth(material) > textW {
		for len(material) > 0 && pdf.GetStringWidth(material+"...") > textW {
			material = material[:len(material)-1]
		}
		material += "..."
	}
	pdf.CellFormat(textW, 4.5, material, "", 1, "L", false, 0, "")

	// Quantity and unit count
	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	dims := fmt.Sprintf("%.2f x %.0f pcs", info.Quantity, info.Amount)
	pdf.CellFormat(textW, 3.5, dims, "", 1, "L", false, 0, "")

	// Weight and server id
	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	meta := fmt.Sprintf("%.2f t", info.Weight)
	if info.LotID != 0 {
		meta = fmt.Sprintf("Lot %d | %s", info.LotID, meta)
	}
	pdf.CellFormat(textW, 3, meta, "", 1, "L", false, 0, "")

	// Cut provenance indicator
	if info.CutFrom != "" {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(150, 100, 0)
		pdf.CellFormat(textW, 3, "Cut piece", "", 0, "L", false, 0, "")
	}

	// Reset text color
	pdf.SetTextColor(0, 0, 0)

	return nil
}

// CollectLabelInfos extracts label information from a lot collection for use
// in testing or alternative export formats.
func CollectLabelInfos(lots *model.LotCollection) []LabelInfo {
	if lots == nil {
		return nil
	}
	var labels []LabelInfo
	for _, l := range lots.Items() {
		standardID := 0
		if l.Standard != nil {
			standardID = l.Standard.ID
		}
		labels = append(labels, LabelInfo{
			UUID:       l.UUID,
			LotID:      l.ID,
			StandardID: standardID,
			Material:   l.DisplayName(),
			Quantity:   l.Quantity,
			Amount:     l.Amount,
			Weight:     l.TotalWeight(),
			CutFrom:    l.CutFrom,
		})
	}
	return labels
}
