package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"
	"github.com/yofu/dxf/table"

	"github.com/dkovalev/steelyard/internal/model"
)

// Diagram layout constants (drawing units are metres along X, one bar of
// fixed height per stock unit along Y).
const (
	barHeight  = 0.3
	barSpacing = 0.6
	textHeight = 0.12
)

// ExportCutDiagram writes a DXF drawing of a cut plan: one horizontal bar
// for the source lot's unit length, with division marks for every piece cut
// out of it and a labelled segment per piece. Pieces are laid onto bars
// greedily in order, mirroring how the shop floor consumes units.
func ExportCutDiagram(path string, source *model.Lot, pieces []*model.Lot) error {
	if source == nil {
		return fmt.Errorf("no source lot to draw")
	}
	if source.Quantity <= 0 {
		return fmt.Errorf("source lot has no length")
	}
	if len(pieces) == 0 {
		return fmt.Errorf("no pieces to draw")
	}

	d := dxf.NewDrawing()
	d.AddLayer("stock", color.White, table.LT_CONTINUOUS, true)
	d.AddLayer("cuts", color.Red, table.LT_CONTINUOUS, false)
	d.AddLayer("labels", color.Green, table.LT_CONTINUOUS, false)

	unitLength := source.Quantity

	// Expand piece lots into individual segments.
	var segments []float64
	var labels []string
	for _, p := range pieces {
		for i := 0.0; i < p.Amount; i++ {
			segments = append(segments, p.Quantity)
			labels = append(labels, fmt.Sprintf("%.2f", p.Quantity))
		}
	}

	y := 0.0
	cursor := 0.0
	startBar := func() error {
		if err := drawBar(d, y, unitLength); err != nil {
			return err
		}
		cursor = 0
		return nil
	}
	if err := startBar(); err != nil {
		return err
	}

	for i, seg := range segments {
		if cursor+seg > unitLength+1e-9 {
			y -= barSpacing
			if err := startBar(); err != nil {
				return err
			}
		}

		// Division mark at the end of the segment.
		d.ChangeLayer("cuts")
		if _, err := d.Line(cursor+seg, y, 0, cursor+seg, y+barHeight, 0); err != nil {
			return fmt.Errorf("failed to draw cut mark: %w", err)
		}

		d.ChangeLayer("labels")
		if _, err := d.Text(labels[i], cursor+seg/2, y+barHeight/2, 0, textHeight); err != nil {
			return fmt.Errorf("failed to draw label: %w", err)
		}

		cursor += seg
	}

	// Title row above the first bar.
	d.ChangeLayer("labels")
	title := fmt.Sprintf("%s  %.2f", source.DisplayName(), unitLength)
	if _, err := d.Text(title, 0, barHeight+0.1, 0, textHeight); err != nil {
		return fmt.Errorf("failed to draw title: %w", err)
	}

	return d.SaveAs(path)
}

// drawBar draws one stock unit outline at the given vertical offset.
func drawBar(d *drawing.Drawing, y, length float64) error {
	d.ChangeLayer("stock")
	corners := [][4]float64{
		{0, y, length, y},
		{length, y, length, y + barHeight},
		{length, y + barHeight, 0, y + barHeight},
		{0, y + barHeight, 0, y},
	}
	for _, c := range corners {
		if _, err := d.Line(c[0], c[1], 0, c[2], c[3], 0); err != nil {
			return fmt.Errorf("failed to draw stock outline: %w", err)
		}
	}
	return nil
}
