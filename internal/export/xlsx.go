package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes a workbook with a single "Reporte" sheet.
func WriteXLSX(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("error naming sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("error writing XLSX header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("error creating header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "E1", bold); err != nil {
		return fmt.Errorf("error styling header: %w", err)
	}

	for i, row := range r.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{row.Fecha, row.Descripcion, row.Categoria, row.Tipo, row.Monto.Float()}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("error writing XLSX row %d: %w", i+1, err)
		}
	}

	if len(r.Rows) > 0 {
		amount, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
		if err != nil {
			return fmt.Errorf("error creating amount style: %w", err)
		}
		last, _ := excelize.CoordinatesToCellName(5, len(r.Rows)+1)
		if err := f.SetCellStyle(SheetName, "E2", last, amount); err != nil {
			return fmt.Errorf("error styling amounts: %w", err)
		}
	}
	f.SetColWidth(SheetName, "B", "B", 40)
	f.SetColWidth(SheetName, "C", "C", 20)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing XLSX file: %w", err)
	}
	return nil
}
