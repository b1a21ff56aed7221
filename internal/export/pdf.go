package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

var (
	headerColor     = []int{79, 70, 229} // indigo
	headerTextColor = []int{255, 255, 255}
	bodyTextColor   = []int{50, 50, 50}
	stripeColor     = []int{245, 245, 250}
	columnWidths    = []float64{25, 70, 35, 25, 27}
)

// WritePDF renders the title, the generation time and a table of rows.
func WritePDF(w io.Writer, r Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(14, 14, 14)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	pdf.CellFormat(0, 10, tr("Reporte: "+r.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 8, tr("Fecha de generación: "+r.GeneratedAt.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	drawHeader := func() {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
		pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
		for i, c := range Columns {
			pdf.CellFormat(columnWidths[i], 8, tr(c), "", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		pdf.SetFillColor(stripeColor[0], stripeColor[1], stripeColor[2])
	}
	drawHeader()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for i, row := range r.Rows {
		if pdf.GetY()+7 > pageHeight-bottom-10 {
			pdf.AddPage()
			drawHeader()
		}
		fill := i%2 == 1
		cells := []string{row.Fecha, row.Descripcion, row.Categoria, row.Tipo, FormatCurrency(row.Monto)}
		for j, c := range cells {
			align := "L"
			if j == len(cells)-1 {
				align = "R"
			}
			pdf.CellFormat(columnWidths[j], 7, tr(truncate(pdf, c, columnWidths[j]-2)), "", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("error writing PDF file: %w", err)
	}
	return nil
}

// truncate shortens s with an ellipsis until it fits width.
func truncate(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
