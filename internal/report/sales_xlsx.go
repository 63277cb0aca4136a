package report

import (
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/it25102753/Oil-Shope-POS-system/internal/domain"
)

const salesSheet = "Sales"

var salesHeaders = []string{"Sale ID", "Date", "Customer", "Phone", "Employee", "Payment", "Items", "Discount", "Total"}

// WriteSalesWorkbook writes one row per sale followed by a totals row.
func WriteSalesWorkbook(w io.Writer, sales []domain.Sale, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", salesSheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return err
	}

	for col, header := range salesHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(salesSheet, cell, header); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(salesSheet, "A1", "I1", bold); err != nil {
		return err
	}

	discountSum := decimal.Zero
	totalSum := decimal.Zero
	for i, sale := range sales {
		row := i + 2
		values := []any{
			sale.ID,
			sale.CreatedAt.In(loc).Format("2006-01-02 15:04"),
			sale.CustomerName,
			sale.CustomerPhone,
			sale.EmployeeName,
			sale.PaymentMethod,
			sale.ItemsCount,
			sale.Discount.InexactFloat64(),
			sale.TotalAmount.InexactFloat64(),
		}
		if err := setRow(f, row, values); err != nil {
			return err
		}
		discountSum = discountSum.Add(sale.Discount)
		totalSum = totalSum.Add(sale.TotalAmount)
	}

	totalsRow := len(sales) + 2
	if err := setRow(f, totalsRow, []any{"TOTAL", "", "", "", "", "", len(sales), discountSum.InexactFloat64(), totalSum.InexactFloat64()}); err != nil {
		return err
	}
	last, _ := excelize.CoordinatesToCellName(9, totalsRow)
	if err := f.SetCellStyle(salesSheet, "H2", last, money); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, totalsRow)
	if err := f.SetCellStyle(salesSheet, first, first, bold); err != nil {
		return err
	}

	if err := f.SetColWidth(salesSheet, "B", "E", 18); err != nil {
		return err
	}
	return f.Write(w)
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(salesSheet, cell, &values)
}
