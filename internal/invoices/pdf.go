package invoices

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/martinquesada/tienda-backend/pkg/db/models"
)

// renderPDF lays out the invoice document: header, buyer block, line items,
// totals, and the shipping address.
func renderPDF(order *models.Order, number string, issuedAt time.Time, business string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, business, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Factura %s", number), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Fecha: %s", issuedAt.Format("02/01/2006")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Pedido #%d", order.OrderNumber), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 6, "Cliente", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 5, order.CustomerName, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, order.Email, "", 1, "L", false, 0, "")
	if order.ShippingText != "" {
		pdf.CellFormat(0, 5, order.ShippingText, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	pdf.CellFormat(90, 7, "Producto", "1", 0, "L", true, 0, "")
	pdf.CellFormat(20, 7, "Cant.", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 7, "Precio unit.", "1", 0, "R", true, 0, "")
	pdf.CellFormat(35, 7, "Importe", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	currency := string(order.Currency)
	for _, item := range order.Items {
		pdf.CellFormat(90, 7, item.Title, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", item.Qty), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 7, formatMoney(item.UnitPriceCents, currency), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, formatMoney(item.LineTotalCents, currency), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(2)

	pdf.CellFormat(110, 6, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(35, 6, "Subtotal", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 6, formatMoney(order.SubtotalCents, currency), "", 1, "R", false, 0, "")
	if order.DiscountCents > 0 {
		pdf.CellFormat(110, 6, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, "Descuento", "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, "-"+formatMoney(order.DiscountCents, currency), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(110, 7, "", "", 0, "L", false, 0, "")
	pdf.CellFormat(35, 7, "Total", "", 0, "R", false, 0, "")
	pdf.CellFormat(35, 7, formatMoney(order.TotalCents, currency), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func formatMoney(cents int, currency string) string {
	amount := decimal.NewFromInt(int64(cents)).Div(decimal.NewFromInt(100))
	return fmt.Sprintf("%s %s", currency, amount.StringFixed(2))
}
