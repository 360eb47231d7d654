package http

import (
	"net/http"

	"kantong/internal/core"
	"kantong/internal/log"
)

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request, uid string) {
	var d core.BudgetDraft
	if err := DecodeJSON(r, &d); err != nil {
		WriteError(r.Context(), w, err, log.OpCreate)
		return
	}
	b, err := s.svc.Budgets.Create(r.Context(), uid, d)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpCreate)
		return
	}
	Created(w, b)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request, uid string) {
	budgets, err := s.svc.Budgets.List(r.Context(), uid)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpList)
		return
	}
	OK(w, budgets)
}

// handleCurrentBudget answers null when the current month has no budget.
func (s *Server) handleCurrentBudget(w http.ResponseWriter, r *http.Request, uid string) {
	b, err := s.svc.Budgets.CurrentMonth(r.Context(), uid)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpRead)
		return
	}
	if b == nil {
		NewJSONResponse().Body(nullBody{}).Write(w)
		return
	}
	OK(w, b)
}

func (s *Server) handleBudgetByMonth(w http.ResponseWriter, r *http.Request, uid string) {
	p, err := ParseMonthParams(r)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpRead)
		return
	}
	b, err := s.svc.Budgets.ByMonthYear(r.Context(), uid, p.Year, p.Month)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpRead)
		return
	}
	OK(w, b)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request, uid string) {
	b, err := s.svc.Budgets.Get(r.Context(), r.PathValue("id"), uid)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpRead)
		return
	}
	OK(w, b)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request, uid string) {
	var p core.BudgetPatch
	if err := DecodeJSON(r, &p); err != nil {
		WriteError(r.Context(), w, err, log.OpUpdate)
		return
	}
	b, err := s.svc.Budgets.Update(r.Context(), r.PathValue("id"), uid, p)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpUpdate)
		return
	}
	OK(w, b)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request, uid string) {
	res, err := s.svc.Budgets.Remove(r.Context(), r.PathValue("id"), uid)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpDelete)
		return
	}
	OK(w, res)
}

func (s *Server) handleBudgetSummary(w http.ResponseWriter, r *http.Request, uid string) {
	sum, err := s.svc.Budgets.Summary(r.Context(), r.PathValue("id"), uid)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpSummary)
		return
	}
	OK(w, sum)
}

// nullBody encodes as JSON null.
type nullBody struct{}

func (nullBody) MarshalJSON() ([]byte, error) { return []byte("null"), nil }
