package main

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"finanzas/internal/core"
)

func init() {
	color.NoColor = true
}

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		kind     string
		wantErr  string
	}{
		{name: "empty"},
		{name: "range", from: "2026-01-01", to: "2026-01-31"},
		{name: "bad from", from: "01/01/2026", wantErr: "--from"},
		{name: "inverted", from: "2026-02-01", to: "2026-01-01", wantErr: "must not be before"},
		{name: "bad type", kind: "gift", wantErr: "unknown transaction type"},
		{name: "type", kind: string(core.Income)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := buildFilter(tt.from, tt.to, tt.kind, " cat-1 ")
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("buildFilter() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildFilter() error = %v", err)
			}
			if f.CategoryID != "cat-1" {
				t.Errorf("CategoryID = %q, want cat-1", f.CategoryID)
			}
		})
	}
}

func TestUpcomingTable(t *testing.T) {
	rows := []core.UpcomingPayment{{
		Transaction: core.Transaction{Description: "Alquiler", Amount: core.Cents(8000000)},
		Projection:  core.Projection{NextDate: core.NewDate(2026, 11, 1), DaysRemaining: 16},
		Label:       "En 16 días",
	}}
	data := upcomingTable(rows)
	if len(data) != 2 {
		t.Fatalf("upcomingTable() = %d rows, want header + 1", len(data))
	}
	want := []string{"01/11/2026", "Alquiler", "$80,000.00", "En 16 días"}
	for i := range want {
		if data[1][i] != want[i] {
			t.Errorf("cell %d = %q, want %q", i, data[1][i], want[i])
		}
	}
}

func TestBudgetTableUsesCategoryName(t *testing.T) {
	rows := []core.BudgetProgress{{
		Budget: core.Budget{CategoryID: "c1", Category: &core.Category{Name: "Comida"}, AmountLimit: core.Cents(10000)},
		Spent:  core.Cents(2500),
		Level:  core.LevelOK,
	}}
	data := budgetTable(rows)
	if data[1][0] != "Comida" || data[1][1] != "$100.00" || data[1][2] != "$25.00" {
		t.Errorf("budgetTable() row = %v", data[1])
	}
}

func TestNewAppRequiresUser(t *testing.T) {
	app := NewApp("test")
	app.rootCmd.SetArgs([]string{"summary"})
	err := app.Execute()
	if err == nil || !strings.Contains(err.Error(), `"user" not set`) {
		t.Fatalf("Execute() error = %v, want missing user flag", err)
	}
}
