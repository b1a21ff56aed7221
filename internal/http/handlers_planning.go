package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"finanzas/internal/core"
	"finanzas/internal/services"
)

// amountRequest is the body of goal deposits and withdrawals.
type amountRequest struct {
	Amount core.Money `json:"amount"`
}

// valueRequest is the body of an investment revaluation.
type valueRequest struct {
	CurrentValue core.Money `json:"current_value"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	today, err := ParseToday(r.URL.Query(), s.now(), s.loc)
	if err != nil {
		writeError(w, r, err)
		return
	}
	period, err := ParsePeriodParam(r.URL.Query(), today)
	if err != nil {
		writeError(w, r, err)
		return
	}
	budgets, err := s.svc.Planning.BudgetsWithProgress(r.Context(), userID, period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(nonNil(budgets)).Write(w)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.BudgetInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	budget, err := s.svc.Planning.SetBudget(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(budget).Write(w)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	goals, err := s.svc.Planning.Goals(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(nonNil(goals)).Write(w)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.GoalInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	goal, err := s.svc.Planning.CreateGoal(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/goals/"+goal.Goal.ID).
		Body(goal).
		Write(w)
}

func (s *Server) handleGoalDeposit(w http.ResponseWriter, r *http.Request) {
	s.moveGoalFunds(w, r, s.svc.Planning.Deposit)
}

func (s *Server) handleGoalWithdraw(w http.ResponseWriter, r *http.Request) {
	s.moveGoalFunds(w, r, s.svc.Planning.Withdraw)
}

func (s *Server) moveGoalFunds(w http.ResponseWriter, r *http.Request,
	move func(ctx context.Context, userID, goalID string, amount core.Money) (core.GoalProgress, error)) {
	userID, err := UserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req amountRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	goal, err := move(r.Context(), userID, chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(goal).Write(w)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Planning.DeleteGoal(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	portfolio, err := s.svc.Planning.Portfolio(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	portfolio.Holdings = nonNil(portfolio.Holdings)
	NewJSONResponse().Body(portfolio).Write(w)
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.InvestmentInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	holding, err := s.svc.Planning.CreateInvestment(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/investments/"+holding.Investment.ID).
		Body(holding).
		Write(w)
}

func (s *Server) handleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req valueRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	holding, err := s.svc.Planning.UpdateInvestmentValue(r.Context(), userID, chi.URLParam(r, "id"), req.CurrentValue)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(holding).Write(w)
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Planning.DeleteInvestment(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
