// Package export renders transaction reports as CSV, XLSX, PDF, JSON or YAML.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"finanzas/internal/core"
)

// Format is a report file format.
type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
	PDF  Format = "pdf"
	JSON Format = "json"
	YAML Format = "yaml"
)

// SheetName is the worksheet holding the rows in XLSX reports.
const SheetName = "Reporte"

// Columns are the report headers, in row order.
var Columns = []string{"Fecha", "Descripción", "Categoría", "Tipo", "Monto"}

// Formats lists every supported format.
func Formats() []Format {
	return []Format{CSV, XLSX, PDF, JSON, YAML}
}

// ParseFormat accepts a format name in any case; "yml" is an alias of yaml.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "yml" {
		return YAML, nil
	}
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case CSV:
		return "text/csv; charset=utf-8"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case PDF:
		return "application/pdf"
	case JSON:
		return "application/json"
	case YAML:
		return "application/yaml"
	}
	return "application/octet-stream"
}

// Row is one exported transaction.
type Row struct {
	Fecha       string     `json:"fecha" yaml:"fecha"`
	Descripcion string     `json:"descripcion" yaml:"descripcion"`
	Categoria   string     `json:"categoria" yaml:"categoria"`
	Tipo        string     `json:"tipo" yaml:"tipo"`
	Monto       core.Money `json:"monto" yaml:"monto"`
}

// Report is a titled list of rows.
type Report struct {
	Title       string
	GeneratedAt time.Time
	Rows        []Row
}

// NewReport flattens txs in the given order.
func NewReport(title string, txs []core.Transaction, generatedAt time.Time) Report {
	rows := make([]Row, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, Row{
			Fecha:       tx.Date.Format("02/01/2006"),
			Descripcion: tx.Description,
			Categoria:   tx.CategoryName(core.FallbackExportCategory),
			Tipo:        tx.Type.Label(),
			Monto:       tx.Amount,
		})
	}
	return Report{Title: title, GeneratedAt: generatedAt, Rows: rows}
}

// FileName returns "Reporte_<title>_<yyyyMMdd>" with whitespace runs in the title
// replaced by underscores.
func FileName(title string, now time.Time) string {
	return fmt.Sprintf("Reporte_%s_%s", strings.Join(strings.Fields(title), "_"), now.Format("20060102"))
}

// Write renders r to w in format f.
func Write(w io.Writer, f Format, r Report) error {
	switch f {
	case CSV:
		return WriteCSV(w, r)
	case XLSX:
		return WriteXLSX(w, r)
	case PDF:
		return WritePDF(w, r)
	case JSON:
		return WriteJSON(w, r)
	case YAML:
		return WriteYAML(w, r)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// WriteFile renders r into outputDir and returns the absolute path of the file.
func WriteFile(outputDir string, f Format, r Report) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("error creating output directory: %w", err)
	}
	name := filepath.Join(outputDir, FileName(r.Title, r.GeneratedAt)+"."+string(f))
	file, err := os.Create(name)
	if err != nil {
		return "", fmt.Errorf("error creating %s file: %w", strings.ToUpper(string(f)), err)
	}
	if err := Write(file, f, r); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("error closing %s: %w", name, err)
	}
	return filepath.Abs(name)
}

func WriteCSV(w io.Writer, r Report) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return fmt.Errorf("error writing CSV header: %w", err)
	}
	for _, row := range r.Rows {
		record := []string{row.Fecha, row.Descripcion, row.Categoria, row.Tipo, row.Monto.String()}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("error writing CSV row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteJSON(w io.Writer, r Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(nonNil(r.Rows)); err != nil {
		return fmt.Errorf("error encoding JSON data: %w", err)
	}
	return nil
}

func WriteYAML(w io.Writer, r Report) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(nonNil(r.Rows)); err != nil {
		return fmt.Errorf("error encoding YAML data: %w", err)
	}
	return encoder.Close()
}

func nonNil(rows []Row) []Row {
	if rows == nil {
		return []Row{}
	}
	return rows
}

// FormatCurrency renders m as "$1,234.56".
func FormatCurrency(m core.Money) string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := fmt.Sprint(cents / 100)
	var b strings.Builder
	for i, d := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, b.String(), cents%100)
}
