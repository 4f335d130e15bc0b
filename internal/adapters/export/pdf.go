package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"fleetops/internal/domain"
)

var (
	headerColor     = []int{0, 51, 102}
	headerTextColor = []int{255, 255, 255}
	bodyTextColor   = []int{33, 33, 33}
	lineColor       = []int{200, 200, 200}
)

// PDF renders one page per invoice.
type PDF struct {
	Company string
}

func (PDF) Format() string      { return "pdf" }
func (PDF) ContentType() string { return "application/pdf" }

func (p PDF) Export(w io.Writer, invoices []domain.Invoice, now time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Invoices", true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Generated %s - page %d", now.Format(time.DateOnly), pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	if len(invoices) == 0 {
		pdf.AddPage()
		pdf.SetFont("Arial", "", 12)
		pdf.Cell(0, 10, "No invoices to export.")
	}

	for _, inv := range invoices {
		pdf.AddPage()

		pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
		pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
		pdf.SetFont("Arial", "B", 14)
		title := "  Invoice " + inv.Number
		if p.Company != "" {
			title = "  " + p.Company + " - Invoice " + inv.Number
		}
		pdf.CellFormat(0, 12, tr(title), "", 1, "L", true, 0, "")
		pdf.Ln(6)

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		for _, kv := range [][2]string{
			{"Customer", inv.Customer},
			{"Status", string(inv.EffectiveStatus(now))},
			{"Issued", inv.IssuedAt.Format(time.DateOnly)},
			{"Due", inv.DueAt.Format(time.DateOnly)},
		} {
			pdf.CellFormat(30, 6, kv[0]+":", "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 6, tr(kv[1]), "", 1, "L", false, 0, "")
		}
		pdf.Ln(6)

		pdf.SetFont("Arial", "B", 10)
		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
		pdf.CellFormat(100, 7, "Description", "B", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, "Qty", "B", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, "Unit", "B", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, "Amount", "B", 1, "R", false, 0, "")

		pdf.SetFont("Arial", "", 10)
		for _, l := range inv.Lines {
			pdf.CellFormat(100, 6, tr(l.Description), "", 0, "L", false, 0, "")
			pdf.CellFormat(25, 6, fmt.Sprintf("%g", l.Quantity), "", 0, "R", false, 0, "")
			pdf.CellFormat(30, 6, l.UnitPrice.String(), "", 0, "R", false, 0, "")
			pdf.CellFormat(35, 6, l.Amount().String(), "", 1, "R", false, 0, "")
		}
		pdf.Ln(4)

		for _, kv := range [][2]string{
			{"Subtotal", inv.Subtotal.String()},
			{fmt.Sprintf("Tax (%.1f%%)", inv.TaxRate*100), inv.Tax.String()},
			{"Total " + inv.Currency, inv.Total.String()},
		} {
			pdf.CellFormat(155, 6, kv[0], "", 0, "R", false, 0, "")
			pdf.CellFormat(35, 6, kv[1], "", 1, "R", false, 0, "")
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render invoice pdf: %w", err)
	}
	return nil
}
