package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"finanzas/internal/core"
	"finanzas/internal/export"
)

var (
	boldRed    = color.New(color.FgRed, color.Bold).SprintFunc()
	boldGreen  = color.New(color.FgGreen, color.Bold).SprintFunc()
	boldYellow = color.New(color.FgYellow, color.Bold).SprintFunc()
)

func printSuccess(format string, a ...any) {
	pterm.Success.Printfln(format, a...)
}

// signed colours a balance by its sign.
func signed(m core.Money) string {
	if m.Cents < 0 {
		return boldRed(export.FormatCurrency(m))
	}
	return boldGreen(export.FormatCurrency(m))
}

func levelColor(level core.ProgressLevel, s string) string {
	switch level {
	case core.LevelOver:
		return boldRed(s)
	case core.LevelWarning:
		return boldYellow(s)
	}
	return boldGreen(s)
}

func renderDashboard(d core.Dashboard, today core.Date) error {
	s := d.Summary
	pterm.DefaultBox.WithTitle("Resumen al " + today.Format("02/01/2006")).Println(fmt.Sprintf(
		"Ingresos: %s\nGastos:   %s\nBalance:  %s\nAhorro:   %s%%",
		export.FormatCurrency(s.TotalIncome), export.FormatCurrency(s.TotalExpenses),
		signed(s.TotalBalance), s.SavingsRate.StringFixed(2)))

	if len(s.ExpenseByCategory) > 0 {
		pterm.DefaultSection.Println("Gastos por categoría")
		if err := pterm.DefaultTable.WithHasHeader().WithData(categoryTable(s.ExpenseByCategory)).Render(); err != nil {
			return err
		}
	}
	if len(d.Budgets) > 0 {
		pterm.DefaultSection.Println("Presupuestos")
		if err := pterm.DefaultTable.WithHasHeader().WithData(budgetTable(d.Budgets)).Render(); err != nil {
			return err
		}
	}
	if len(d.Goals) > 0 {
		pterm.DefaultSection.Println("Metas")
		if err := pterm.DefaultTable.WithHasHeader().WithData(goalTable(d.Goals)).Render(); err != nil {
			return err
		}
	}
	if len(d.Portfolio.Holdings) > 0 {
		pterm.Info.Printfln("Inversiones: %s invertido, valor %s (%s%%)",
			export.FormatCurrency(d.Portfolio.TotalInvested), export.FormatCurrency(d.Portfolio.TotalValue),
			d.Portfolio.Return.Percentage.StringFixed(2))
	}
	return nil
}

func renderUpcoming(upcoming []core.UpcomingPayment) error {
	if len(upcoming) == 0 {
		pterm.Info.Println("No hay pagos próximos")
		return nil
	}
	return pterm.DefaultTable.WithHasHeader().WithData(upcomingTable(upcoming)).Render()
}

func categoryTable(rows []core.CategoryAmount) pterm.TableData {
	data := pterm.TableData{{"Categoría", "Monto"}}
	for _, r := range rows {
		data = append(data, []string{r.Name, export.FormatCurrency(r.Amount)})
	}
	return data
}

func budgetTable(rows []core.BudgetProgress) pterm.TableData {
	data := pterm.TableData{{"Categoría", "Límite", "Gastado", "Progreso"}}
	for _, b := range rows {
		name := b.Budget.CategoryID
		if b.Budget.Category != nil {
			name = b.Budget.Category.Name
		}
		data = append(data, []string{
			name,
			export.FormatCurrency(b.Budget.AmountLimit),
			export.FormatCurrency(b.Spent),
			levelColor(b.Level, b.Percentage.StringFixed(0)+"%"),
		})
	}
	return data
}

func goalTable(rows []core.GoalProgress) pterm.TableData {
	data := pterm.TableData{{"Meta", "Ahorrado", "Objetivo", "Progreso"}}
	for _, g := range rows {
		pct := g.Percentage.StringFixed(0) + "%"
		if g.IsCompleted {
			pct = boldGreen(pct)
		}
		data = append(data, []string{
			g.Goal.Name,
			export.FormatCurrency(g.Goal.CurrentAmount),
			export.FormatCurrency(g.Goal.TargetAmount),
			pct,
		})
	}
	return data
}

func upcomingTable(rows []core.UpcomingPayment) pterm.TableData {
	data := pterm.TableData{{"Fecha", "Descripción", "Monto", "Cuándo"}}
	for _, p := range rows {
		label := p.Label
		if p.Urgent {
			label = boldRed(label)
		}
		data = append(data, []string{
			p.NextDate.Format("02/01/2006"),
			p.Transaction.Description,
			export.FormatCurrency(p.Transaction.Amount),
			label,
		})
	}
	return data
}
