package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"finanzas/internal/cache"
	"finanzas/internal/core"
	applog "finanzas/internal/log"
	"finanzas/internal/services"
	"finanzas/internal/storage/memory"
)

const testUser = "user-1"

var testNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	store := memory.New()
	dash := services.NewDashboardService(store, cache.NewOwnerLRU[core.Dashboard](16, time.Minute))
	svc := Services{
		Transactions: services.NewTransactionService(store, nil, dash),
		Planning:     services.NewPlanningService(store, dash),
		Dashboard:    dash,
	}
	if cfg.RateLimitPerMinute == 0 {
		cfg.RateLimitPerMinute = 1000
	}
	logger := applog.New(applog.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	s := NewServer(cfg, svc, logger)
	s.now = func() time.Time { return testNow }
	t.Cleanup(s.limiter.Stop)
	return s
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set(UserHeader, testUser)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, Config{})

	rec := do(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz status = %d", rec.Code)
	}
	if body := decode[map[string]any](t, rec); body["status"] != "ok" {
		t.Errorf("health status = %v, want ok", body["status"])
	}

	rec = do(t, s, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("GET /readyz status = %d, want 200", rec.Code)
	}
}

func TestReadyReportsStoreFailure(t *testing.T) {
	s := newTestServer(t, Config{})
	s.svc.Ready = func(context.Context) error { return errors.New("database is locked") }

	rec := do(t, s, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("GET /readyz status = %d, want 503", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "not_ready" {
		t.Errorf("status = %v, want not_ready", body["status"])
	}
}

func TestMissingUser(t *testing.T) {
	s := newTestServer(t, Config{})
	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if body := decode[ErrorBody](t, rec); !strings.Contains(body.Error, UserHeader) {
		t.Errorf("error = %q, want mention of %s", body.Error, UserHeader)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	s := newTestServer(t, Config{})

	rec := do(t, s, http.MethodPost, "/api/transactions",
		`{"amount":"45.50","description":"Supermercado","date":"2026-10-10","type":"variable_expense","frequency":"one_time","category":"Comida"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, body %s", rec.Code, rec.Body)
	}
	created := decode[core.Transaction](t, rec)
	if created.ID == "" || created.Amount.Cents != 4550 {
		t.Fatalf("created = %+v", created)
	}
	if loc := rec.Header().Get("Location"); loc != "/api/transactions/"+created.ID {
		t.Errorf("Location = %q", loc)
	}

	rec = do(t, s, http.MethodGet, "/api/transactions?from=2026-10-01&to=2026-10-31", "")
	if got := decode[[]core.Transaction](t, rec); len(got) != 1 {
		t.Errorf("listing = %d transactions, want 1", len(got))
	}

	rec = do(t, s, http.MethodGet, "/api/transactions?type=income", "")
	if rec.Body.String() != "[]\n" {
		t.Errorf("income listing = %q, want []", rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/api/categories", "")
	cats := decode[[]core.Category](t, rec)
	if len(cats) != 1 || cats[0].Name != "Comida" || cats[0].Type != core.ExpenseCategory {
		t.Errorf("categories = %+v", cats)
	}

	if rec = do(t, s, http.MethodDelete, "/api/transactions/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("DELETE status = %d", rec.Code)
	}
	if rec = do(t, s, http.MethodDelete, "/api/transactions/"+created.ID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE status = %d, want 404", rec.Code)
	}
}

func TestCreateTransactionErrors(t *testing.T) {
	s := newTestServer(t, Config{})
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantFields []string
	}{
		{
			name:       "field validation",
			body:       `{"amount":0,"description":"ab","date":"2026-10-10","type":"bogus","frequency":"one_time","category":""}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantFields: []string{"amount", "category", "description", "type"},
		},
		{
			name:       "unparseable amount",
			body:       `{"amount":"doce","description":"Cine","date":"2026-10-10","type":"income","frequency":"one_time","category":"Ocio"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantFields: []string{"amount"},
		},
		{
			name:       "malformed json",
			body:       `{"amount":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			body:       `{"amount":"1.00","colour":"red"}`,
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/transactions", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
			body := decode[ErrorBody](t, rec)
			for _, f := range tt.wantFields {
				if _, ok := body.Fields[f]; !ok {
					t.Errorf("fields = %v, missing %q", body.Fields, f)
				}
			}
		})
	}
}

func TestBadQueryParameters(t *testing.T) {
	s := newTestServer(t, Config{})
	for _, target := range []string{
		"/api/transactions?from=yesterday",
		"/api/transactions?from=2026-10-10&to=2026-10-01",
		"/api/transactions?type=gift",
		"/api/dashboard?today=16/10/2026",
		"/api/budgets?period=2026-13",
		"/api/reports?format=docx",
	} {
		if rec := do(t, s, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", target, rec.Code)
		}
	}
}

func TestDashboardUpcomingPayments(t *testing.T) {
	s := newTestServer(t, Config{})
	do(t, s, http.MethodPost, "/api/transactions",
		`{"amount":"800","description":"Alquiler","date":"2026-01-18","type":"fixed_expense","frequency":"monthly","category":"Vivienda"}`)
	do(t, s, http.MethodPost, "/api/transactions",
		`{"amount":"2500","description":"Sueldo","date":"2026-10-01","type":"income","frequency":"monthly","category":"Trabajo"}`)

	rec := do(t, s, http.MethodGet, "/api/dashboard/upcoming?today=2026-10-16", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	upcoming := decode[[]core.UpcomingPayment](t, rec)
	if len(upcoming) != 1 {
		t.Fatalf("upcoming = %+v, want the rent only", upcoming)
	}
	if got := upcoming[0]; got.DaysRemaining != 2 || !got.Urgent || got.Label != "En 2 días" || got.NextDate.String() != "2026-10-18" {
		t.Errorf("upcoming[0] = %+v", got)
	}

	rec = do(t, s, http.MethodGet, "/api/dashboard", "")
	d := decode[core.Dashboard](t, rec)
	if d.Summary.TotalIncome.Cents != 250000 || d.Summary.TotalExpenses.Cents != 80000 {
		t.Errorf("summary = %+v", d.Summary)
	}
	if len(d.Recent) != 2 {
		t.Errorf("recent = %d, want 2", len(d.Recent))
	}

	rec = do(t, s, http.MethodGet, "/api/dashboard/balance-history", "")
	if points := decode[[]core.BalancePoint](t, rec); len(points) != 2 || points[1].Balance.Cents != 170000 {
		t.Errorf("balance history = %+v", points)
	}

	rec = do(t, s, http.MethodGet, "/api/dashboard/category-history?today=2026-10-16", "")
	if h := decode[core.CategoryHistory](t, rec); len(h.Categories) != 1 || h.Categories[0] != "Vivienda" {
		t.Errorf("category history = %+v", h)
	}
}

func TestBudgetProgress(t *testing.T) {
	s := newTestServer(t, Config{})
	rec := do(t, s, http.MethodPost, "/api/budgets", `{"category":"Comida","amount_limit":"100","period":"2026-10"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST budget status = %d, body %s", rec.Code, rec.Body)
	}
	do(t, s, http.MethodPost, "/api/transactions",
		`{"amount":"85","description":"Mercado","date":"2026-10-02","type":"variable_expense","frequency":"one_time","category":"Comida"}`)
	do(t, s, http.MethodPost, "/api/transactions",
		`{"amount":"40","description":"Mercado","date":"2026-09-28","type":"variable_expense","frequency":"one_time","category":"Comida"}`)

	rec = do(t, s, http.MethodGet, "/api/budgets", "")
	budgets := decode[[]core.BudgetProgress](t, rec)
	if len(budgets) != 1 {
		t.Fatalf("budgets = %+v", budgets)
	}
	if b := budgets[0]; b.Spent.Cents != 8500 || b.Level != core.LevelWarning || b.IsOverLimit {
		t.Errorf("budget = %+v, want 85 spent at warning level", b)
	}

	rec = do(t, s, http.MethodPost, "/api/budgets", `{"category":"Comida","amount_limit":"0.50","period":"2026-10"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("POST small budget status = %d, want 422", rec.Code)
	}
}

func TestGoalFunds(t *testing.T) {
	s := newTestServer(t, Config{})
	rec := do(t, s, http.MethodPost, "/api/goals", `{"name":"Vacaciones","target_amount":"1000","current_amount":"100"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST goal status = %d, body %s", rec.Code, rec.Body)
	}
	id := decode[core.GoalProgress](t, rec).Goal.ID

	rec = do(t, s, http.MethodPost, "/api/goals/"+id+"/withdraw", `{"amount":"200"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("over-withdraw status = %d, want 409", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/api/goals/"+id+"/deposit", `{"amount":"50"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit status = %d, body %s", rec.Code, rec.Body)
	}
	if g := decode[core.GoalProgress](t, rec); g.Goal.CurrentAmount.Cents != 15000 || g.Percentage.String() != "15" {
		t.Errorf("goal after deposit = %+v", g)
	}

	rec = do(t, s, http.MethodPost, "/api/goals/"+id+"/deposit", `{"amount":"-5"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("negative deposit status = %d, want 422", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/goals", "")
	if goals := decode[[]core.GoalProgress](t, rec); len(goals) != 1 {
		t.Errorf("goals = %+v", goals)
	}

	if rec = do(t, s, http.MethodDelete, "/api/goals/"+id, ""); rec.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %d", rec.Code)
	}
	if rec = do(t, s, http.MethodPost, "/api/goals/"+id+"/deposit", `{"amount":"1"}`); rec.Code != http.StatusNotFound {
		t.Errorf("deposit into deleted goal status = %d, want 404", rec.Code)
	}
}

func TestInvestments(t *testing.T) {
	s := newTestServer(t, Config{})
	rec := do(t, s, http.MethodPost, "/api/investments",
		`{"name":"Fondo indexado","asset_type":"fund","invested_amount":"1000","current_value":"1000","quantity":"10.5","purchase_date":"2026-01-02"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST investment status = %d, body %s", rec.Code, rec.Body)
	}
	id := decode[core.Holding](t, rec).Investment.ID

	rec = do(t, s, http.MethodPatch, "/api/investments/"+id, `{"current_value":"1250"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PATCH status = %d, body %s", rec.Code, rec.Body)
	}
	if h := decode[core.Holding](t, rec); h.Diff.Cents != 25000 || h.Percentage.String() != "25" {
		t.Errorf("holding = %+v", h)
	}

	rec = do(t, s, http.MethodGet, "/api/investments", "")
	p := decode[core.Portfolio](t, rec)
	if len(p.Holdings) != 1 || p.TotalValue.Cents != 125000 {
		t.Errorf("portfolio = %+v", p)
	}

	if rec = do(t, s, http.MethodDelete, "/api/investments/"+id, ""); rec.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %d", rec.Code)
	}
	rec = do(t, s, http.MethodGet, "/api/investments", "")
	if p := decode[core.Portfolio](t, rec); len(p.Holdings) != 0 {
		t.Errorf("portfolio after delete = %+v", p)
	}
}

func TestReportDownload(t *testing.T) {
	s := newTestServer(t, Config{})
	do(t, s, http.MethodPost, "/api/transactions",
		`{"amount":"12.50","description":"Cine","date":"2026-10-03","type":"variable_expense","frequency":"one_time","category":"Ocio"}`)

	rec := do(t, s, http.MethodGet, "/api/reports?format=csv&title=Octubre%202026", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	wantName := `attachment; filename="Reporte_Octubre_2026_20261016.csv"`
	if cd := rec.Header().Get("Content-Disposition"); cd != wantName {
		t.Errorf("Content-Disposition = %q, want %q", cd, wantName)
	}
	if !strings.Contains(rec.Body.String(), "03/10/2026,Cine,Ocio,Gasto,12.50") {
		t.Errorf("csv body = %q", rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/api/reports?format=json&type=income", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("json report = %d %q, want empty array", rec.Code, rec.Body.String())
	}
}

func TestMiddlewareStack(t *testing.T) {
	s := newTestServer(t, Config{MetricsEnabled: true})

	rec := do(t, s, http.MethodGet, "/api/goals", "")
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID missing")
	}

	if rec = do(t, s, http.MethodGet, "/metrics", ""); rec.Code != http.StatusOK {
		t.Errorf("GET /metrics status = %d", rec.Code)
	}
	if rec = do(t, s, http.MethodGet, "/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want 404", rec.Code)
	}
	if rec = do(t, s, http.MethodPut, "/api/goals", "{}"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("PUT /api/goals status = %d, want 405", rec.Code)
	}
}

func TestMetricsDisabled(t *testing.T) {
	s := newTestServer(t, Config{MetricsEnabled: false})
	if rec := do(t, s, http.MethodGet, "/metrics", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET /metrics status = %d, want 404 when disabled", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, Config{RateLimitPerMinute: 2})
	for i := 0; i < 2; i++ {
		if rec := do(t, s, http.MethodGet, "/api/categories", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i+1, rec.Code)
		}
	}
	rec := do(t, s, http.MethodGet, "/api/categories", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
	// health checks are not limited
	if rec := do(t, s, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("GET /healthz status = %d", rec.Code)
	}
}
