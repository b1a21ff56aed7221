package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:        NewDate(2025, 1, 1),
		Description: "Rent",
		Amount:      Cents(100),
		Type:        FixedExpense,
		Frequency:   Monthly,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Transaction)
		field  string
		want   error
	}{
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, "date", nil},
		{"empty description", func(tx *Transaction) { tx.Description = "  " }, "description", ErrEmptyDescription},
		{"short description", func(tx *Transaction) { tx.Description = "ab" }, "description", ErrDescriptionTooShort},
		{"long description", func(tx *Transaction) { tx.Description = strings.Repeat("a", 201) }, "description", ErrDescriptionTooLong},
		{"zero amount", func(tx *Transaction) { tx.Amount = Cents(0) }, "amount", ErrInvalidAmount},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, "type", ErrInvalidTransactionType},
		{"bad frequency", func(tx *Transaction) { tx.Frequency = "weekly" }, "frequency", ErrInvalidFrequency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := good
			tt.mutate(&tx)
			err := tx.Validate()
			verrs, ok := AsValidation(err)
			if !ok {
				t.Fatalf("Validate() = %v, want ValidationErrors", err)
			}
			if _, found := verrs.Fields()[tt.field]; !found {
				t.Errorf("Validate() fields = %v, want %q", verrs.FieldNames(), tt.field)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want errors.Is %v", err, tt.want)
			}
		})
	}
}

func TestValidationReportsEveryField(t *testing.T) {
	err := Transaction{}.Validate()
	verrs, ok := AsValidation(err)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	want := []string{"amount", "date", "description", "frequency", "type"}
	got := verrs.FieldNames()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("FieldNames() = %v, want %v", got, want)
	}
}

func TestBudgetValidate(t *testing.T) {
	p, _ := ParsePeriod("2024-03")
	if err := (Budget{AmountLimit: Cents(100), Period: p}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Budget{AmountLimit: Cents(99), Period: p}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("limit below one unit: got %v", err)
	}
	if err := (Budget{AmountLimit: Cents(500)}).Validate(); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("missing period: got %v", err)
	}
}

func TestSavingsGoalValidate(t *testing.T) {
	good := SavingsGoal{Name: "Trip", TargetAmount: Cents(100000)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []SavingsGoal{
		{Name: "ab", TargetAmount: Cents(100)},
		{Name: "Trip", TargetAmount: Cents(50)},
		{Name: "Trip", TargetAmount: Cents(100), CurrentAmount: Cents(-1)},
	}
	for i, g := range bads {
		if err := g.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestInvestmentValidate(t *testing.T) {
	good := Investment{
		Name:           "Index fund",
		AssetType:      "etf",
		InvestedAmount: Cents(1),
		Quantity:       decimal.NewFromFloat(0.5),
		PurchaseDate:   NewDate(2024, 1, 2),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := good
	bad.Quantity = decimal.Zero
	bad.AssetType = ""
	err := bad.Validate()
	if !errors.Is(err, ErrInvalidQuantity) || !errors.Is(err, ErrEmptyAssetType) {
		t.Errorf("Validate() = %v, want quantity and asset type errors", err)
	}
}

func TestTransactionHelpers(t *testing.T) {
	tx := Transaction{Type: VariableExpense, Amount: Cents(250)}
	if tx.SignedCents() != -250 {
		t.Errorf("SignedCents() = %d, want -250", tx.SignedCents())
	}
	if tx.CategoryName("Otros") != "Otros" {
		t.Errorf("CategoryName() fallback not applied")
	}
	if !VariableExpense.IsExpense() || Income.IsExpense() {
		t.Errorf("IsExpense() mismatch")
	}
	if Income.Label() != "Ingreso" || FixedExpense.Label() != "Gasto" {
		t.Errorf("Label() mismatch")
	}

	recurring := Transaction{Type: FixedExpense, Frequency: Yearly}
	if !recurring.IsRecurringFixed() {
		t.Errorf("yearly fixed expense should be recurring")
	}
	recurring.Frequency = OneTime
	if recurring.IsRecurringFixed() {
		t.Errorf("one_time fixed expense should not be recurring")
	}
}
