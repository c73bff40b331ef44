// Package pdf renders financial statements as downloadable PDF documents.
package pdf

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/signintech/gopdf"

	"finanzas/internal/core"
	"finanzas/internal/reports"
)

//go:embed fonts/DejaVuSans.ttf
var fontRegular []byte

//go:embed fonts/DejaVuSans-Bold.ttf
var fontBold []byte

const (
	leftMargin   = 50.0
	topMargin    = 50.0
	bottomMargin = 50.0
	rowHeight    = 15.0

	colDate     = leftMargin
	colCategory = leftMargin + 100
	colType     = leftMargin + 280
	colAmount   = leftMargin + 380
)

// Renderer draws statements onto US Letter pages, paginating the line-item
// table and repeating the column header on every page.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Render(s *reports.Statement) ([]byte, error) {
	doc := &gopdf.GoPdf{}
	doc.Start(gopdf.Config{PageSize: *gopdf.PageSizeLetter})

	if err := doc.AddTTFFontData("regular", fontRegular); err != nil {
		return nil, fmt.Errorf("load regular font: %w", err)
	}
	if err := doc.AddTTFFontData("bold", fontBold); err != nil {
		return nil, fmt.Errorf("load bold font: %w", err)
	}

	doc.AddPage()
	pageHeight := gopdf.PageSizeLetter.H

	if err := doc.SetFont("bold", "", 16); err != nil {
		return nil, fmt.Errorf("set font: %w", err)
	}
	doc.SetTextColor(0, 0, 0)
	writeAt(doc, leftMargin, topMargin, "REPORTE FINANCIERO PERSONAL")

	if err := doc.SetFont("regular", "", 12); err != nil {
		return nil, fmt.Errorf("set font: %w", err)
	}
	writeAt(doc, leftMargin, topMargin+30, fmt.Sprintf("Usuario: %s", s.UserID))
	writeAt(doc, leftMargin, topMargin+50, fmt.Sprintf("Fecha de emisión: %s", s.GeneratedAt.Format("2006-01-02 15:04")))

	writeAt(doc, leftMargin, topMargin+90, fmt.Sprintf("Ingresos totales: $%s", s.TotalIncome.StringFixed(2)))
	writeAt(doc, leftMargin, topMargin+110, fmt.Sprintf("Gastos totales: $%s", s.TotalExpense.StringFixed(2)))

	if s.Balance.IsNegative() {
		doc.SetTextColor(204, 0, 0)
	} else {
		doc.SetTextColor(0, 128, 0)
	}
	if err := doc.SetFont("bold", "", 12); err != nil {
		return nil, fmt.Errorf("set font: %w", err)
	}
	writeAt(doc, leftMargin, topMargin+130, fmt.Sprintf("Balance: $%s", s.Balance.StringFixed(2)))
	doc.SetTextColor(0, 0, 0)

	doc.SetLineWidth(0.5)
	doc.Line(leftMargin, topMargin+150, gopdf.PageSizeLetter.W-leftMargin, topMargin+150)

	y := topMargin + 170
	if err := r.tableHeader(doc, y); err != nil {
		return nil, err
	}
	y += rowHeight + 5

	if err := doc.SetFont("regular", "", 10); err != nil {
		return nil, fmt.Errorf("set font: %w", err)
	}
	for _, item := range s.LineItems {
		if y > pageHeight-bottomMargin {
			doc.AddPage()
			y = topMargin
			if err := r.tableHeader(doc, y); err != nil {
				return nil, err
			}
			y += rowHeight + 5
			if err := doc.SetFont("regular", "", 10); err != nil {
				return nil, fmt.Errorf("set font: %w", err)
			}
		}

		writeAt(doc, colDate, y, item.Date.Format("2006-01-02"))
		writeAt(doc, colCategory, y, item.Category)
		writeAt(doc, colType, y, typeLabel(item.Type))
		writeAt(doc, colAmount, y, fmt.Sprintf("$%s", item.Amount.StringFixed(2)))
		y += rowHeight
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serialize document: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) tableHeader(doc *gopdf.GoPdf, y float64) error {
	if err := doc.SetFont("bold", "", 10); err != nil {
		return fmt.Errorf("set font: %w", err)
	}
	writeAt(doc, colDate, y, "FECHA")
	writeAt(doc, colCategory, y, "CATEGORÍA")
	writeAt(doc, colType, y, "TIPO")
	writeAt(doc, colAmount, y, "MONTO")
	return nil
}

func typeLabel(t core.TransactionType) string {
	if t == core.Income {
		return "Ingreso"
	}
	return "Gasto"
}

func writeAt(doc *gopdf.GoPdf, x, y float64, text string) {
	doc.SetX(x)
	doc.SetY(y)
	doc.Cell(nil, text)
}
