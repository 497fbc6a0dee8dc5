package report

import (
	"bytes"
	"fmt"
	"log"
	"strconv"
	"time"

	"slip-catalog-backend/internal/models"

	"github.com/jung-kurt/gofpdf"
)

// Renderer produces the tabular slip report.
type Renderer struct {
	now func() time.Time
}

func NewRenderer() *Renderer {
	return &Renderer{now: time.Now}
}

// column widths in mm, landscape A4 printable width ~277mm
var columns = []struct {
	title string
	width float64
	align string
}{
	{"ID", 20, "L"},
	{"Debtor Name", 90, "L"},
	{"Batch Id", 25, "L"},
	{"Amount", 32, "R"},
	{"Payment Code", 110, "L"},
}

// Render writes the slips, in the order given, into a single landscape PDF
// and returns the completed buffer. An empty input still produces a
// well-formed document with a header-only table.
func (r *Renderer) Render(slips []models.Slip) ([]byte, error) {
	log.Printf("Report: rendering %d slips", len(slips))

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Slip Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 6, "Generated at: "+r.now().Format("02/01/2006 15:04:05"), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(238, 238, 238)
	for _, c := range columns {
		pdf.CellFormat(c.width, 8, c.title, "1", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, s := range slips {
		cells := []string{
			strconv.Itoa(s.ID),
			s.DebtorName,
			strconv.Itoa(s.BatchID),
			s.Amount.StringFixed(2),
			s.Code,
		}
		for i, c := range columns {
			pdf.CellFormat(c.width, 7, cells[i], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report: generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}
