package services

import (
	"context"
	"errors"
	"fmt"

	"kantong/internal/core"
	"kantong/internal/log"
	"kantong/internal/storage"

	"github.com/google/uuid"
)

// BudgetLedger owns the budget lifecycle and reconciles budgets against spending.
type BudgetLedger struct {
	budgets  BudgetStore
	goals    GoalStore
	expenses ExpenseStore
	clock    Clock
	logger   *log.Logger
}

func NewBudgetLedger(budgets BudgetStore, goals GoalStore, expenses ExpenseStore, clock Clock, logger *log.Logger) *BudgetLedger {
	return &BudgetLedger{
		budgets:  budgets,
		goals:    goals,
		expenses: expenses,
		clock:    clock,
		logger:   logger.WithComponent(log.ComponentBudget),
	}
}

// RemoveResult reports what a budget deletion left behind.
type RemoveResult struct {
	Message          string `json:"message"`
	OrphanedExpenses int    `json:"orphanedExpenses"`
}

// linkedGoal loads the goal a budget points at. Goals of other users are reported as missing.
func (l *BudgetLedger) linkedGoal(ctx context.Context, userID, goalID string) (*core.GoalRef, error) {
	g, err := l.goals.GetGoal(ctx, userID, goalID)
	if err != nil {
		return nil, notFound(err, "goal")
	}
	return &core.GoalRef{ID: g.ID, Title: g.Title, TargetAmount: g.TargetAmount}, nil
}

func (l *BudgetLedger) Create(ctx context.Context, userID string, d core.BudgetDraft) (core.Budget, error) {
	if err := d.Validate(); err != nil {
		return core.Budget{}, err
	}

	var goal *core.GoalRef
	if d.GoalID != nil {
		var err error
		if goal, err = l.linkedGoal(ctx, userID, *d.GoalID); err != nil {
			return core.Budget{}, err
		}
	}

	now := l.clock.now()
	b := core.Budget{
		ID:          uuid.NewString(),
		UserID:      userID,
		Month:       d.Month,
		Year:        d.Year,
		DailyBudget: d.DailyBudget,
		GoalID:      d.GoalID,
		Notes:       d.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.Apply(d.TotalIncome, d.Percentages())

	err := l.budgets.CreateBudget(ctx, b)
	if errors.Is(err, storage.ErrDuplicate) {
		return core.Budget{}, core.Conflict("Budget for %d/%d already exists", d.Month, d.Year)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}

	b.Goal = goal
	l.logger.InfoContext(ctx, "Budget created",
		log.FieldUserID, userID,
		log.FieldBudgetID, b.ID,
		log.FieldYear, b.Year,
		log.FieldMonth, b.Month)
	return b, nil
}

// Update merges the patch into the stored budget. Omitted income or percentages keep
// their stored values, the merged split is validated again and every derived amount
// is recomputed before the single write.
func (l *BudgetLedger) Update(ctx context.Context, id, userID string, p core.BudgetPatch) (core.Budget, error) {
	if err := p.Validate(); err != nil {
		return core.Budget{}, err
	}

	b, err := l.budgets.GetBudget(ctx, userID, id)
	if err != nil {
		return core.Budget{}, notFound(err, "budget")
	}

	income, pct := p.Merge(b)
	if err := core.ValidatePercentages(pct); err != nil {
		return core.Budget{}, err
	}

	switch {
	case p.UnlinkGoal:
		b.GoalID, b.Goal = nil, nil
	case p.GoalID != nil:
		goal, err := l.linkedGoal(ctx, userID, *p.GoalID)
		if err != nil {
			return core.Budget{}, err
		}
		b.GoalID, b.Goal = p.GoalID, goal
	}
	if p.DailyBudget != nil {
		b.DailyBudget = p.DailyBudget
	}
	if p.Notes != nil {
		b.Notes = *p.Notes
	}
	b.Apply(income, pct)
	b.UpdatedAt = l.clock.now()

	if err := l.budgets.UpdateBudget(ctx, b); err != nil {
		return core.Budget{}, notFound(err, "budget")
	}

	l.logger.InfoContext(ctx, "Budget updated", log.FieldUserID, userID, log.FieldBudgetID, id)
	return b, nil
}

// Remove hard-deletes the budget. Expenses that pointed at it stay, unlinked.
func (l *BudgetLedger) Remove(ctx context.Context, id, userID string) (RemoveResult, error) {
	orphaned, err := l.budgets.DeleteBudget(ctx, userID, id)
	if err != nil {
		return RemoveResult{}, notFound(err, "budget")
	}

	res := RemoveResult{Message: "Budget deleted", OrphanedExpenses: orphaned}
	if orphaned > 0 {
		res.Message = fmt.Sprintf("Budget deleted. %d expenses are no longer linked to a budget", orphaned)
	}
	l.logger.InfoContext(ctx, "Budget removed",
		log.FieldUserID, userID,
		log.FieldBudgetID, id,
		"orphaned_expenses", orphaned)
	return res, nil
}

func (l *BudgetLedger) Get(ctx context.Context, id, userID string) (core.Budget, error) {
	b, err := l.budgets.GetBudget(ctx, userID, id)
	if err != nil {
		return core.Budget{}, notFound(err, "budget")
	}
	return b, nil
}

func (l *BudgetLedger) List(ctx context.Context, userID string) ([]core.Budget, error) {
	budgets, err := l.budgets.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return budgets, nil
}

// CurrentMonth returns the budget of the current month, or nil when there is none.
func (l *BudgetLedger) CurrentMonth(ctx context.Context, userID string) (*core.Budget, error) {
	today := l.clock.today()
	b, err := l.budgets.GetBudgetByMonth(ctx, userID, today.Year(), today.Month())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get current budget: %w", err)
	}
	return &b, nil
}

func (l *BudgetLedger) ByMonthYear(ctx context.Context, userID string, year, month int) (core.Budget, error) {
	if !core.ValidMonth(month) {
		return core.Budget{}, core.Invalid("month", "must be between 1 and 12")
	}
	b, err := l.budgets.GetBudgetByMonth(ctx, userID, year, month)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Budget{}, core.NotFound("Budget for %d/%d not found", month, year)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget by month: %w", err)
	}
	return b, nil
}

// Summary reconciles the budget against the live expenses linked to it inside its
// month window. Nothing here is stored; every call recomputes.
func (l *BudgetLedger) Summary(ctx context.Context, id, userID string) (core.BudgetSummary, error) {
	b, err := l.budgets.GetBudget(ctx, userID, id)
	if err != nil {
		return core.BudgetSummary{}, notFound(err, "budget")
	}

	from, to := core.MonthWindow(b.Year, b.Month)
	lines, err := l.expenses.ExpenseLines(ctx, core.LineQuery{UserID: userID, BudgetID: b.ID, From: from, To: to})
	if err != nil {
		return core.BudgetSummary{}, fmt.Errorf("load budget expenses: %w", err)
	}
	return core.ReconcileBudget(b, lines), nil
}
