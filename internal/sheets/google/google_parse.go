package google

import (
	"fmt"
	"strconv"
	"strings"

	"finanzas/internal/core"
	ports "finanzas/internal/sheets"
)

func transactionValues(r ports.TransactionRow) []any {
	return []any{r.ID, r.UserID, r.Date.String(), r.Description, r.Category, string(r.Type), r.Amount.Float()}
}

func reminderValues(r ports.ReminderRow) []any {
	return []any{r.UserID, r.TransactionID, r.Description, r.Amount.Float(), r.DueDate.String(), r.Label}
}

// parseTransactionRows converts a values matrix (as returned by Sheets API) into
// rows. The first row must be the header; columns are located by name so they can
// be reordered by hand. Rows with an unreadable date or amount are skipped.
func parseTransactionRows(values [][]any) ([]ports.TransactionRow, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	col := map[string]int{}
	var missing []string
	for _, h := range transactionHeader {
		name := fmt.Sprint(h)
		idx := indexOf(headers, name)
		if idx == -1 {
			missing = append(missing, name)
		}
		col[name] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected transaction header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	out := make([]ports.TransactionRow, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		id := safeGet(row, col["ID"])
		if id == "" {
			continue
		}
		date, err := core.ParseDate(safeGet(row, col["Fecha"]))
		if err != nil {
			continue
		}
		cents, ok := parseAmountToCents(safeGet(row, col["Monto"]))
		if !ok {
			continue
		}
		out = append(out, ports.TransactionRow{
			ID:          id,
			UserID:      safeGet(row, col["Usuario"]),
			Date:        date,
			Description: safeGet(row, col["Descripción"]),
			Category:    safeGet(row, col["Categoría"]),
			Type:        core.TransactionType(safeGet(row, col["Tipo"])),
			Amount:      core.Cents(cents),
		})
	}
	return out, nil
}

// findRowIndex returns the zero-based index of the first row whose first cell is id.
func findRowIndex(values [][]any, id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1
	}
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i
		}
	}
	return -1
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if f, ok := v.(float64); ok {
			// UNFORMATTED_VALUE numbers; %v would switch to exponent form.
			out[i] = strconv.FormatFloat(f, 'f', -1, 64)
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

// parseAmountToCents accepts plain numbers with either decimal separator.
func parseAmountToCents(s string) (int64, bool) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return 0, false
	}
	return cents, true
}
