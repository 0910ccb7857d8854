// Package export renders expense lists as Excel workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"expensetracker/internal/models"
)

// SheetName is the worksheet holding the exported rows.
const SheetName = "Expenses"

// ContentType is the MIME type of an .xlsx workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Header is the first row of the sheet.
var Header = []any{"id", "date", "category", "description", "amount", "receipt"}

// FileName returns the download name for an export of username's expenses
// between from and to.
func FileName(username string, from, to models.Date) string {
	return fmt.Sprintf("expenses_%s_%s_%s.xlsx", username, from, to)
}

// WriteXLSX writes expenses, in the given order, as a single-sheet workbook.
// Receipt images are not embedded; the receipt column only flags whether one
// is attached.
func WriteXLSX(w io.Writer, expenses []models.Expense) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}
	if err := sw.SetRow("A1", Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, e := range expenses {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		receipt := "no"
		if e.HasReceipt() {
			receipt = "yes"
		}
		row := []any{e.ID, e.Date.String(), e.Category, e.Description, e.Amount.InexactFloat64(), receipt}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
