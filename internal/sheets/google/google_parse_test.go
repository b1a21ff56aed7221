package google

import (
	"strings"
	"testing"

	"finanzas/internal/core"
	ports "finanzas/internal/sheets"
)

func TestParseTransactionRows(t *testing.T) {
	values := [][]any{
		// Columns reordered by hand in the sheet.
		{"Fecha", "ID", "Usuario", "Descripción", "Categoría", "Tipo", "Monto"},
		{"2026-03-04", "t1", "u1", "Luz", "Casa", "fixed_expense", 45.5},
		{"not a date", "t2", "u1", "Roto", "Casa", "fixed_expense", 10.0},
		{"2026-03-05", "", "u1", "Sin id", "Casa", "fixed_expense", 10.0},
		{"2026-03-06", "t3", "u1", "Sin monto", "Casa", "fixed_expense", ""},
		{"2026-03-07", "t4", "u2", "Sueldo", "Trabajo", "income", "1200,10"},
	}

	rows, err := parseTransactionRows(values)
	if err != nil {
		t.Fatalf("parseTransactionRows() error = %v", err)
	}
	want := []ports.TransactionRow{
		{ID: "t1", UserID: "u1", Date: core.NewDate(2026, 3, 4), Description: "Luz", Category: "Casa", Type: core.FixedExpense, Amount: core.Cents(4550)},
		{ID: "t4", UserID: "u2", Date: core.NewDate(2026, 3, 7), Description: "Sueldo", Category: "Trabajo", Type: core.Income, Amount: core.Cents(120010)},
	}
	if len(rows) != len(want) {
		t.Fatalf("parseTransactionRows() = %d rows, want %d: %+v", len(rows), len(want), rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestParseTransactionRows_UnexpectedHeader(t *testing.T) {
	_, err := parseTransactionRows([][]any{{"ID", "Fecha"}})
	if err == nil || !strings.Contains(err.Error(), "unexpected transaction header") {
		t.Fatalf("parseTransactionRows() error = %v", err)
	}
	if rows, err := parseTransactionRows(nil); err != nil || rows != nil {
		t.Errorf("parseTransactionRows(nil) = %v, %v", rows, err)
	}
}

func TestFindRowIndex(t *testing.T) {
	values := [][]any{{"ID"}, {}, {" t1 "}, {"t2"}, {"t1"}}
	tests := []struct {
		id   string
		want int
	}{
		{"t1", 2},
		{"t2", 3},
		{"t9", -1},
		{"", -1},
	}
	for _, tt := range tests {
		if got := findRowIndex(values, tt.id); got != tt.want {
			t.Errorf("findRowIndex(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		name string
		base string
		year int
		want string
	}{
		{"plain base", "Transacciones", 2026, "2026 Transacciones"},
		{"already prefixed", "2024 Transacciones", 2026, "2024 Transacciones"},
		{"trimmed", "  Gastos ", 2025, "2025 Gastos"},
		{"empty", "", 2025, ""},
		{"number not a year", "12345 Foo", 2025, "2025 12345 Foo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
				t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
			}
		})
	}
}

func TestSheetYear(t *testing.T) {
	tests := []struct {
		title    string
		wantYear int
		wantOK   bool
	}{
		{"2026 Transacciones", 2026, true},
		{"Transacciones", 0, true},
		{"2026 Recordatorios", 0, false},
		{"Hoja 1", 0, false},
	}
	for _, tt := range tests {
		year, ok := sheetYear(tt.title, "Transacciones")
		if year != tt.wantYear || ok != tt.wantOK {
			t.Errorf("sheetYear(%q) = %d, %v, want %d, %v", tt.title, year, ok, tt.wantYear, tt.wantOK)
		}
	}
}

func TestA1Range(t *testing.T) {
	if got := a1Range("2026 Transacciones", "A:G"); got != "'2026 Transacciones'!A:G" {
		t.Errorf("a1Range() = %q", got)
	}
	if got := a1Range("Ana's", "A1"); got != "'Ana''s'!A1" {
		t.Errorf("a1Range() = %q", got)
	}
}

func TestToStringsKeepsPlainNumbers(t *testing.T) {
	got := toStrings([]any{1500000.0, 12.5, " x ", true})
	want := []string{"1500000", "12.5", "x", "true"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("toStrings()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTransactionValues(t *testing.T) {
	row := ports.TransactionRow{
		ID: "t1", UserID: "u1", Date: core.NewDate(2026, 1, 9), Description: "Cine",
		Category: "Ocio", Type: core.VariableExpense, Amount: core.Cents(899),
	}
	got := transactionValues(row)
	if len(got) != len(transactionHeader) {
		t.Fatalf("transactionValues() has %d cells, want %d", len(got), len(transactionHeader))
	}
	if got[2] != "2026-01-09" || got[5] != "variable_expense" || got[6] != 8.99 {
		t.Errorf("transactionValues() = %v", got)
	}
}
