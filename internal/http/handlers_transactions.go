package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"finanzas/internal/services"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	filter, err := ParseTransactionFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	txs, err := s.svc.Transactions.ListTransactions(r.Context(), userID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(nonNil(txs)).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.TransactionInput
	if err := DecodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := s.svc.Transactions.CreateTransaction(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+tx.ID).
		Body(tx).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.svc.Transactions.DeleteTransaction(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, err := UserID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	categories, err := s.svc.Transactions.Categories(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(nonNil(categories)).Write(w)
}
