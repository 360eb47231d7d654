package services

import (
	"context"
	"time"

	"kantong/internal/core"
)

// Persistence ports. Implementations return storage.ErrNotFound for missing or
// soft-deleted rows and storage.ErrDuplicate for uniqueness violations; the services
// translate both into domain errors.
type (
	BudgetStore interface {
		CreateBudget(ctx context.Context, b core.Budget) error
		// UpdateBudget writes every column of b, derived amounts included, in one statement.
		UpdateBudget(ctx context.Context, b core.Budget) error
		// DeleteBudget hard-deletes the budget and reports how many expenses, deleted
		// ones included, lost their link.
		DeleteBudget(ctx context.Context, userID, id string) (orphaned int, err error)
		GetBudget(ctx context.Context, userID, id string) (core.Budget, error)
		GetBudgetByMonth(ctx context.Context, userID string, year, month int) (core.Budget, error)
		// ListBudgets is ordered by year then month, newest first.
		ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
		ListBudgetsByGoal(ctx context.Context, userID, goalID string) ([]core.Budget, error)
	}

	GoalStore interface {
		CreateGoal(ctx context.Context, g core.Goal) error
		UpdateGoal(ctx context.Context, g core.Goal) error
		GetGoal(ctx context.Context, userID, id string) (core.Goal, error)
		// ListGoals is ordered active first, then newest first.
		ListGoals(ctx context.Context, userID string, activeOnly bool) ([]core.Goal, error)
		// DeleteGoal soft-deletes the goal and unlinks its budgets in the same transaction.
		DeleteGoal(ctx context.Context, userID, id string, at time.Time) (unlinked int, err error)
		// AchieveGoal flips an active goal to achieved. ok is false when the goal was
		// no longer active at write time.
		AchieveGoal(ctx context.Context, userID, id string, at time.Time) (ok bool, err error)
	}

	CategoryStore interface {
		CreateCategory(ctx context.Context, c core.Category) error
		UpdateCategory(ctx context.Context, c core.Category) error
		// GetCategory returns a live category regardless of owner.
		GetCategory(ctx context.Context, id string) (core.Category, error)
		// ListCategories returns the live system categories plus the user's own.
		ListCategories(ctx context.Context, userID string) ([]core.Category, error)
		DeleteCategory(ctx context.Context, id string, at time.Time) error
		CountCategoryExpenses(ctx context.Context, id string) (int, error)
	}

	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.Expense) error
		UpdateExpense(ctx context.Context, e core.Expense) error
		GetExpense(ctx context.Context, userID, id string) (core.Expense, error)
		ListChildExpenses(ctx context.Context, userID, parentID string) ([]core.Expense, error)
		// ListExpenses returns one page ordered by expense date, newest first, and the
		// total number of matching rows.
		ListExpenses(ctx context.Context, f core.ExpenseFilter) ([]core.Expense, int, error)
		// DeleteExpense soft-deletes the expense and its live children.
		DeleteExpense(ctx context.Context, userID, id string, at time.Time) error
		// ExpenseLines projects live expenses for aggregation.
		ExpenseLines(ctx context.Context, q core.LineQuery) ([]core.ExpenseLine, error)
		// ExpenseLogTimes returns when each of the user's expenses was recorded,
		// soft-deleted ones included.
		ExpenseLogTimes(ctx context.Context, userID string) ([]time.Time, error)
	}

	UserStore interface {
		EnsureUser(ctx context.Context, userID string, at time.Time) error
		// GetStreak returns the zero state for unknown users.
		GetStreak(ctx context.Context, userID string) (core.StreakState, error)
		// SwapStreak stores next only if the stored state still equals prev.
		SwapStreak(ctx context.Context, userID string, prev, next core.StreakState) (swapped bool, err error)
		SetStreak(ctx context.Context, userID string, s core.StreakState) error
	}

	// Store bundles every port; both backends implement it.
	Store interface {
		BudgetStore
		GoalStore
		CategoryStore
		ExpenseStore
		UserStore
		Ping(ctx context.Context) error
		Close() error
	}
)
