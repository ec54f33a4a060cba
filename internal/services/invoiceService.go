package services

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"storefront/internal/models"
)

// InvoiceRenderer turns an order into a printable document.
type InvoiceRenderer interface {
	Render(order *models.Order) ([]byte, error)
}

type pdfInvoiceRenderer struct {
	storeName string
}

func NewInvoiceRenderer(storeName string) InvoiceRenderer {
	return &pdfInvoiceRenderer{storeName: storeName}
}

// Render draws an A4 invoice with one row per order line.
func (r *pdfInvoiceRenderer) Render(order *models.Order) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Invoice "+order.OrderNumber, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 10, tr(r.storeName), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, "Invoice for order "+order.OrderNumber, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date: "+order.CreatedAt.UTC().Format("2006-01-02"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr("Status: "+string(order.Status)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, "Ship to", "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	ship := order.Shipping
	for _, line := range []string{ship.FullName, ship.Address, ship.City + " " + ship.Pincode, ship.Country, ship.Phone} {
		if line != "" {
			pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(4)

	widths := []float64{90, 30, 20, 25, 25}
	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range []string{"Item", "Color", "Qty", "Price", "Amount"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, item := range order.Items {
		pdf.CellFormat(widths[0], 7, tr(item.Title), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, tr(item.Color), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprintf("%d", item.Count), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, fmt.Sprintf("%.2f", item.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, fmt.Sprintf("%.2f", item.Price*float64(item.Count)), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "", 11)
	label := widths[0] + widths[1] + widths[2] + widths[3]
	pdf.CellFormat(label, 7, "Subtotal", "", 0, "R", false, 0, "")
	pdf.CellFormat(widths[4], 7, fmt.Sprintf("%.2f", order.Total), "", 1, "R", false, 0, "")
	if order.Coupon != "" {
		pdf.CellFormat(label, 7, "Coupon "+order.Coupon, "", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, fmt.Sprintf("-%.2f", order.Total-order.Payable), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(label, 7, "Total ("+order.Payment.Currency+")", "", 0, "R", false, 0, "")
	pdf.CellFormat(widths[4], 7, fmt.Sprintf("%.2f", order.Payable), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice: %w", err)
	}
	return buf.Bytes(), nil
}
