package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/it25102753/Oil-Shope-POS-system/internal/domain"
)

const maxInvoiceNameRunes = 30

// InvoiceRenderer draws a single-page A4 invoice for a recorded sale.
type InvoiceRenderer struct {
	shopName string
	currency string
	loc      *time.Location
	compress bool
}

func NewInvoiceRenderer(shopName string, currency string, loc *time.Location) *InvoiceRenderer {
	if strings.TrimSpace(shopName) == "" {
		shopName = "OIL SHOP"
	}
	if loc == nil {
		loc = time.UTC
	}
	return &InvoiceRenderer{
		shopName: shopName,
		currency: currency,
		loc:      loc,
		compress: true,
	}
}

func InvoiceFilename(saleID int64) string {
	return fmt.Sprintf("invoice_%d.pdf", saleID)
}

func (r *InvoiceRenderer) Render(w io.Writer, sale domain.Sale) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetTitle(fmt.Sprintf("Invoice %d", sale.ID), false)
	pdf.SetMargins(20, 20, 20)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(strings.ToUpper(r.shopName)+" INVOICE"), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 11)
	for _, line := range []string{
		"Invoice #: " + strconv.FormatInt(sale.ID, 10),
		"Date: " + sale.CreatedAt.In(r.loc).Format("2006-01-02 15:04"),
		"Customer: " + sale.CustomerName,
		"Phone: " + sale.CustomerPhone,
	} {
		pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	widths := []float64{80, 20, 35, 35}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range []string{"Product", "Qty", "Price", "Subtotal"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], 8, header, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range sale.Items {
		pdf.CellFormat(widths[0], 7, tr(truncateRunes(item.ProductName, maxInvoiceNameRunes)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, strconv.Itoa(item.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, tr(r.money(item.Price)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, tr(r.money(item.Subtotal)), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	labelWidth := widths[0] + widths[1] + widths[2]
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(labelWidth, 7, "Discount:", "", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 7, tr(r.money(sale.Discount)), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(labelWidth, 8, "Total:", "", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 8, tr(r.money(sale.TotalAmount)), "", 1, "R", false, 0, "")

	return pdf.Output(w)
}

func (r *InvoiceRenderer) money(d decimal.Decimal) string {
	return r.currency + d.StringFixed(2)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
