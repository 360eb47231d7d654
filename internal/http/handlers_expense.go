package http

import (
	"net/http"

	"kantong/internal/core"
	"kantong/internal/log"
)

const recentExpensesLimit = 10

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, uid string) {
	var d core.ExpenseDraft
	if err := DecodeJSON(r, &d); err != nil {
		WriteError(r.Context(), w, err, log.OpCreate)
		return
	}
	e, err := s.svc.Expenses.Create(r.Context(), uid, d)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpCreate)
		return
	}
	Created(w, e)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request, uid string) {
	f, err := ParseExpenseFilter(uid, r.URL.Query())
	if err != nil {
		WriteError(r.Context(), w, err, log.OpList)
		return
	}
	page, err := s.svc.Expenses.List(r.Context(), f)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpList)
		return
	}
	OK(w, page)
}

// handleRecentExpenses returns the latest entries without paging metadata.
func (s *Server) handleRecentExpenses(w http.ResponseWriter, r *http.Request, uid string) {
	f := core.ExpenseFilter{UserID: uid, Page: 1, Limit: recentExpensesLimit}
	page, err := s.svc.Expenses.List(r.Context(), f)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpList)
		return
	}
	OK(w, page.Data)
}

func (s *Server) handleTodayTotal(w http.ResponseWriter, r *http.Request, uid string) {
	t, err := s.svc.Expenses.TodayTotal(r.Context(), uid)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpSummary)
		return
	}
	OK(w, t)
}

func (s *Server) handleMonthlyTotal(w http.ResponseWriter, r *http.Request, uid string) {
	p, err := ParseMonthParams(r)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpSummary)
		return
	}
	t, err := s.svc.Expenses.MonthlyTotal(r.Context(), uid, p.Year, p.Month)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpSummary)
		return
	}
	OK(w, t)
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request, uid string) {
	rng, err := ParseDateRange(r.URL.Query())
	if err != nil {
		WriteError(r.Context(), w, err, log.OpSummary)
		return
	}
	var from, to core.Date
	if rng.From != nil {
		from = *rng.From
	}
	if rng.To != nil {
		to = *rng.To
	}
	totals, err := s.svc.Expenses.CategoryBreakdown(r.Context(), uid, from, to)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpSummary)
		return
	}
	OK(w, totals)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request, uid string) {
	e, err := s.svc.Expenses.Get(r.Context(), r.PathValue("id"), uid)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpRead)
		return
	}
	OK(w, e)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request, uid string) {
	var p core.ExpensePatch
	if err := DecodeJSON(r, &p); err != nil {
		WriteError(r.Context(), w, err, log.OpUpdate)
		return
	}
	e, err := s.svc.Expenses.Update(r.Context(), r.PathValue("id"), uid, p)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpUpdate)
		return
	}
	OK(w, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, uid string) {
	if err := s.svc.Expenses.Remove(r.Context(), r.PathValue("id"), uid); err != nil {
		WriteError(r.Context(), w, err, log.OpDelete)
		return
	}
	Message(w, "Expense deleted")
}

func (s *Server) handleGetStreak(w http.ResponseWriter, r *http.Request, uid string) {
	st, err := s.svc.Streaks.Get(r.Context(), uid)
	if err != nil {
		WriteError(r.Context(), w, err, log.OpRead)
		return
	}
	OK(w, st)
}
