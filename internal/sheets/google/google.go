package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"finanzas/internal/core"
	ports "finanzas/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const (
	DefaultTransactionsSheet = "Transacciones"
	DefaultRemindersSheet    = "Recordatorios"
)

var (
	transactionHeader = []any{"ID", "Usuario", "Fecha", "Descripción", "Categoría", "Tipo", "Monto"}
	reminderHeader    = []any{"Usuario", "Transacción", "Descripción", "Monto", "Vence", "Aviso"}
)

// Config selects the spreadsheet and the credentials used to reach it. OAuth user
// credentials take precedence over a service account when both are set.
type Config struct {
	SpreadsheetID string
	// SheetName is the base name of the yearly transaction sheets ("2026 Transacciones").
	SheetName          string
	RemindersSheet     string
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientFile    string
	OAuthTokenFile     string
}

type Client struct {
	svc              *gsheet.Service
	spreadsheetID    string
	transactionsBase string
	remindersSheet   string

	mu    sync.Mutex
	known map[string]int64 // sheet title -> sheet id
}

// Ensure interface conformance
var (
	_ ports.Mirror            = (*Client)(nil)
	_ ports.TransactionLister = (*Client)(nil)
)

// New creates a Sheets client authenticated with OAuth user credentials or a service
// account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	var svc *gsheet.Service
	var err error
	if cfg.OAuthClientFile != "" || cfg.OAuthTokenFile != "" {
		svc, err = newOAuthSheetsService(ctx, cfg.OAuthClientFile, cfg.OAuthTokenFile)
	} else {
		svc, err = newSheetsService(ctx, cfg.ServiceAccountJSON, cfg.ServiceAccountFile)
	}
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(svc, cfg), nil
}

func newClient(svc *gsheet.Service, cfg Config) *Client {
	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = DefaultTransactionsSheet
	}
	reminders := strings.TrimSpace(cfg.RemindersSheet)
	if reminders == "" {
		reminders = DefaultRemindersSheet
	}
	return &Client{
		svc:              svc,
		spreadsheetID:    strings.TrimSpace(cfg.SpreadsheetID),
		transactionsBase: base,
		remindersSheet:   reminders,
		known:            map[string]int64{},
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials,
// falling back to GOOGLE_APPLICATION_CREDENTIALS when neither is given.
func newSheetsService(ctx context.Context, serviceAccountJSON, serviceAccountFile string) (*gsheet.Service, error) {
	serviceAccountJSON = strings.TrimSpace(serviceAccountJSON)
	serviceAccountFile = strings.TrimSpace(serviceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		var err error
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

// AppendTransaction appends row to the sheet of the transaction's year, creating
// the sheet with its header first when needed.
func (c *Client) AppendTransaction(ctx context.Context, row ports.TransactionRow) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if row.ID == "" || row.Date.IsEmpty() {
		return "", errors.New("transaction row needs an id and a date")
	}
	sheet := yearPrefixedName(c.transactionsBase, row.Date.Year())
	if err := c.ensureSheet(ctx, sheet, transactionHeader); err != nil {
		return "", err
	}
	return c.appendValues(ctx, sheet, "A:G", transactionValues(row))
}

// AppendReminder appends row to the reminders sheet.
func (c *Client) AppendReminder(ctx context.Context, row ports.ReminderRow) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if err := c.ensureSheet(ctx, c.remindersSheet, reminderHeader); err != nil {
		return "", err
	}
	return c.appendValues(ctx, c.remindersSheet, "A:F", reminderValues(row))
}

func (c *Client) appendValues(ctx context.Context, sheet, cols string, values []any) (string, error) {
	rng := a1Range(sheet, cols)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// DeleteTransaction removes the first row whose ID column equals id, searching every
// yearly transaction sheet.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.refreshSheets(ctx); err != nil {
		return err
	}
	for _, sheet := range c.transactionSheets() {
		resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, a1Range(sheet.title, "A:A")).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("read ids of %s: %w", sheet.title, err)
		}
		idx := findRowIndex(resp.Values, id)
		if idx < 0 {
			continue
		}
		req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheet.id,
					Dimension:  "ROWS",
					StartIndex: int64(idx),
					EndIndex:   int64(idx + 1),
				},
			},
		}}}
		if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("delete row %d of %s: %w", idx+1, sheet.title, err)
		}
		slog.InfoContext(ctx, "Deleted mirrored transaction row", "transaction_id", id, "sheet", sheet.title, "row", idx+1)
		return nil
	}
	return fmt.Errorf("transaction %s: %w", id, ports.ErrRowNotFound)
}

// ListTransactions reads the mirrored rows of userID for period.
func (c *Client) ListTransactions(ctx context.Context, userID string, period core.Period) ([]ports.TransactionRow, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}
	rng := a1Range(yearPrefixedName(c.transactionsBase, period.Year), "A:G")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	rows, err := parseTransactionRows(resp.Values)
	if err != nil {
		return nil, err
	}
	out := make([]ports.TransactionRow, 0, len(rows))
	for _, r := range rows {
		if r.UserID == userID && period.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out, nil
}

type sheetRef struct {
	title string
	id    int64
}

// ensureSheet creates title with a header row unless the spreadsheet already has it.
func (c *Client) ensureSheet(ctx context.Context, title string, header []any) error {
	if c.hasSheet(title) {
		return nil
	}
	if err := c.refreshSheets(ctx); err != nil {
		return err
	}
	if c.hasSheet(title) {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
	}}}
	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	var id int64
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		id = resp.Replies[0].AddSheet.Properties.SheetId
	}

	vr := &gsheet.ValueRange{Values: [][]any{header}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, a1Range(title, "A1"), vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write header of %s: %w", title, err)
	}

	c.mu.Lock()
	c.known[title] = id
	c.mu.Unlock()
	slog.InfoContext(ctx, "Created sheet", "sheet", title, "sheet_id", id)
	return nil
}

func (c *Client) hasSheet(title string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.known[title]
	return ok
}

func (c *Client) refreshSheets(ctx context.Context) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	known := make(map[string]int64, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties == nil {
			continue
		}
		known[sh.Properties.Title] = sh.Properties.SheetId
	}
	c.mu.Lock()
	c.known = known
	c.mu.Unlock()
	return nil
}

// transactionSheets returns the known yearly transaction sheets, newest year first.
func (c *Client) transactionSheets() []sheetRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	type yearly struct {
		sheetRef
		year int
	}
	var found []yearly
	for title, id := range c.known {
		if year, ok := sheetYear(title, c.transactionsBase); ok {
			found = append(found, yearly{sheetRef{title, id}, year})
		}
	}
	out := make([]sheetRef, 0, len(found))
	for len(found) > 0 {
		best := 0
		for i := range found {
			if found[i].year > found[best].year {
				best = i
			}
		}
		out = append(out, found[best].sheetRef)
		found = append(found[:best], found[best+1:]...)
	}
	return out
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if _, ok := leadingYear(base); ok {
		return base
	}
	return fmt.Sprintf("%d %s", year, base)
}

// sheetYear reports the year of a "<year> <base>" title. A bare base title has year 0.
func sheetYear(title, base string) (int, bool) {
	title = strings.TrimSpace(title)
	base = strings.TrimSpace(base)
	if title == base {
		return 0, true
	}
	y, ok := leadingYear(title)
	if !ok || strings.TrimSpace(title[5:]) != base {
		return 0, false
	}
	return y, true
}

func leadingYear(s string) (int, bool) {
	if len(s) < 5 || s[4] != ' ' {
		return 0, false
	}
	y, err := strconv.Atoi(s[0:4])
	if err != nil || y <= 1900 || y >= 3000 {
		return 0, false
	}
	return y, true
}

// a1Range quotes sheet so titles with spaces or quotes survive A1 notation.
func a1Range(sheet, cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheet, "'", "''"), cells)
}
