package http

import (
	"net/http"

	"finanzas/internal/core"
)

// loadDashboard resolves the caller and "today", then builds the dashboard.
func (s *Server) loadDashboard(r *http.Request) (core.Dashboard, error) {
	userID, err := UserID(r)
	if err != nil {
		return core.Dashboard{}, err
	}
	today, err := ParseToday(r.URL.Query(), s.now(), s.loc)
	if err != nil {
		return core.Dashboard{}, err
	}
	return s.svc.Dashboard.Dashboard(r.Context(), userID, today)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.loadDashboard(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d.Recent = nonNil(d.Recent)
	d.BalanceHistory = nonNil(d.BalanceHistory)
	d.Upcoming = nonNil(d.Upcoming)
	d.Budgets = nonNil(d.Budgets)
	d.Goals = nonNil(d.Goals)
	NewJSONResponse().Body(d).Write(w)
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	d, err := s.loadDashboard(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(nonNil(d.Upcoming)).Write(w)
}

func (s *Server) handleBalanceHistory(w http.ResponseWriter, r *http.Request) {
	d, err := s.loadDashboard(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(nonNil(d.BalanceHistory)).Write(w)
}

func (s *Server) handleCategoryHistory(w http.ResponseWriter, r *http.Request) {
	d, err := s.loadDashboard(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(d.CategoryHistory).Write(w)
}
