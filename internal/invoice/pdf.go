// Package invoice renders booking invoices as PDF documents.
package invoice

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"

	"github.com/jypsi/cabs/internal/service"
)

// PDFRenderer renders invoices as single-page A4 PDF documents.
type PDFRenderer struct{}

// NewPDFRenderer creates a new PDFRenderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

var _ service.Renderer = (*PDFRenderer)(nil)

// Render produces the PDF bytes for an invoice payload.
func (r *PDFRenderer) Render(p *service.InvoicePayload) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+p.ID, false)
	pdf.AddPage()

	// Header: business name on the left, document title on the right.
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(120, 10, p.BusinessName)
	pdf.CellFormat(0, 10, "Invoice", "", 1, "R", false, 0, "")
	pdf.SetLineWidth(1)
	pdf.Line(10, 22, 200, 22)
	pdf.Ln(6)

	// Customer block left, business address right.
	top := pdf.GetY()
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range p.CustomerLines {
		pdf.Cell(0, 5, line)
		pdf.Ln(5)
	}
	y := pdf.GetY()
	pdf.SetY(top)
	for _, line := range strings.Split(strings.TrimSpace(p.BusinessAddress), "\n") {
		pdf.CellFormat(0, 5, strings.TrimSpace(line), "", 1, "R", false, 0, "")
	}
	if pdf.GetY() > y {
		y = pdf.GetY()
	}
	pdf.SetY(y + 8)

	pdf.Cell(0, 5, "Invoice ID: "+p.ID)
	pdf.Ln(5)
	pdf.Cell(0, 5, "Invoice Date: "+p.Date.Format("02 Jan 2006"))
	pdf.Ln(10)

	// Items table.
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(204, 204, 204)
	pdf.CellFormat(12, 7, "#", "1", 0, "C", true, 0, "")
	pdf.CellFormat(128, 7, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(50, 7, "Amount", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for i, item := range p.Items {
		pdf.CellFormat(12, 7, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(128, 7, item.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, money(item.Amount, p.Currency), "1", 1, "R", false, 0, "")
	}
	for _, tax := range p.TaxLines {
		pdf.CellFormat(12, 7, "", "1", 0, "C", false, 0, "")
		pdf.CellFormat(128, 7, fmt.Sprintf("%s (%.2f%%)", tax.Name, tax.Rate*100), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, money(tax.Amount, p.Currency), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(140, 7, "", "", 0, "", false, 0, "")
	pdf.CellFormat(50, 7, "Total: "+money(p.Total, p.Currency), "1", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(140, 7, "", "", 0, "", false, 0, "")
	pdf.CellFormat(50, 7, "Paid: "+money(p.Paid, p.Currency), "1", 1, "R", false, 0, "")
	pdf.CellFormat(140, 7, "", "", 0, "", false, 0, "")
	pdf.CellFormat(50, 7, "Due: "+money(p.Due, p.Currency), "1", 1, "R", false, 0, "")

	// Footer pinned near the bottom edge.
	pdf.SetY(-40)
	pdf.SetFont("Helvetica", "I", 9)
	for _, line := range strings.Split(strings.TrimSpace(p.Footer), "\n") {
		pdf.CellFormat(0, 5, strings.TrimSpace(line), "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func money(amount int64, currency string) string {
	return fmt.Sprintf("%s %d", currency, amount)
}
