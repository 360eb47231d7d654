// Package memory is an in-process implementation of every persistence port. It
// backs DATA_BACKEND=memory and doubles as the store in service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"kantong/internal/core"
	"kantong/internal/storage"
)

type Store struct {
	mu         sync.Mutex
	budgets    map[string]core.Budget
	goals      map[string]core.Goal
	categories map[string]core.Category
	expenses   map[string]core.Expense
	users      map[string]core.StreakState
}

// New returns a store seeded with the system categories.
func New() *Store {
	s := &Store{
		budgets:    map[string]core.Budget{},
		goals:      map[string]core.Goal{},
		categories: map[string]core.Category{},
		expenses:   map[string]core.Expense{},
		users:      map[string]core.StreakState{},
	}
	for _, c := range storage.SystemCategories() {
		s.categories[c.ID] = c
	}
	return s
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// live is the soft-delete predicate shared by every read.
func live(deletedAt *time.Time) bool {
	return deletedAt == nil
}

// withGoal embeds the linked goal the way the SQL join does. Callers hold mu.
func (s *Store) withGoal(b core.Budget) core.Budget {
	b.Goal = nil
	if b.GoalID == nil {
		return b
	}
	if g, ok := s.goals[*b.GoalID]; ok && live(g.DeletedAt) {
		b.Goal = &core.GoalRef{ID: g.ID, Title: g.Title, TargetAmount: g.TargetAmount}
	}
	return b
}

// Budgets

func (s *Store) CreateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.budgets {
		if existing.UserID == b.UserID && existing.Year == b.Year && existing.Month == b.Month {
			return storage.ErrDuplicate
		}
	}
	b.Goal = nil
	s.budgets[b.ID] = b
	return nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.budgets[b.ID]
	if !ok || existing.UserID != b.UserID {
		return storage.ErrNotFound
	}
	b.Month, b.Year, b.CreatedAt = existing.Month, existing.Year, existing.CreatedAt
	b.Goal = nil
	s.budgets[b.ID] = b
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return 0, storage.ErrNotFound
	}
	orphaned := 0
	for eid, e := range s.expenses {
		if e.BudgetID == nil || *e.BudgetID != id {
			continue
		}
		orphaned++
		e.BudgetID = nil
		s.expenses[eid] = e
	}
	delete(s.budgets, id)
	return orphaned, nil
}

func (s *Store) GetBudget(_ context.Context, userID, id string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return core.Budget{}, storage.ErrNotFound
	}
	return s.withGoal(b), nil
}

func (s *Store) GetBudgetByMonth(_ context.Context, userID string, year, month int) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.budgets {
		if b.UserID == userID && b.Year == year && b.Month == month {
			return s.withGoal(b), nil
		}
	}
	return core.Budget{}, storage.ErrNotFound
}

func (s *Store) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	return s.filterBudgets(func(b core.Budget) bool { return b.UserID == userID }), nil
}

func (s *Store) ListBudgetsByGoal(_ context.Context, userID, goalID string) ([]core.Budget, error) {
	return s.filterBudgets(func(b core.Budget) bool {
		return b.UserID == userID && b.GoalID != nil && *b.GoalID == goalID
	}), nil
}

func (s *Store) filterBudgets(keep func(core.Budget) bool) []core.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if keep(b) {
			out = append(out, s.withGoal(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out
}

// Goals

func (s *Store) CreateGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[g.ID] = g
	return nil
}

func (s *Store) UpdateGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.goals[g.ID]
	if !ok || existing.UserID != g.UserID || !live(existing.DeletedAt) {
		return storage.ErrNotFound
	}
	existing.Title = g.Title
	existing.Description = g.Description
	existing.TargetAmount = g.TargetAmount
	existing.TargetDate = g.TargetDate
	existing.Icon = g.Icon
	existing.Color = g.Color
	existing.UpdatedAt = g.UpdatedAt
	s.goals[g.ID] = existing
	return nil
}

func (s *Store) GetGoal(_ context.Context, userID, id string) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID || !live(g.DeletedAt) {
		return core.Goal{}, storage.ErrNotFound
	}
	return g, nil
}

func (s *Store) ListGoals(_ context.Context, userID string, activeOnly bool) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Goal
	for _, g := range s.goals {
		if g.UserID != userID || !live(g.DeletedAt) || (activeOnly && !g.IsActive) {
			continue
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsActive != out[j].IsActive {
			return out[i].IsActive
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteGoal(_ context.Context, userID, id string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID || !live(g.DeletedAt) {
		return 0, storage.ErrNotFound
	}
	g.DeletedAt = &at
	g.UpdatedAt = at
	s.goals[id] = g

	unlinked := 0
	for bid, b := range s.budgets {
		if b.GoalID != nil && *b.GoalID == id {
			b.GoalID = nil
			b.UpdatedAt = at
			s.budgets[bid] = b
			unlinked++
		}
	}
	return unlinked, nil
}

func (s *Store) AchieveGoal(_ context.Context, userID, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID || !live(g.DeletedAt) || !g.IsActive {
		return false, nil
	}
	g.IsActive = false
	g.AchievedAt = &at
	g.UpdatedAt = at
	s.goals[id] = g
	return true, nil
}

// Categories

func (s *Store) CreateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
	return nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.categories[c.ID]
	if !ok || !live(existing.DeletedAt) {
		return storage.ErrNotFound
	}
	existing.Name = c.Name
	existing.Type = c.Type
	existing.Icon = c.Icon
	existing.Color = c.Color
	existing.ParentID = c.ParentID
	existing.UpdatedAt = c.UpdatedAt
	s.categories[c.ID] = existing
	return nil
}

func (s *Store) GetCategory(_ context.Context, id string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || !live(c.DeletedAt) {
		return core.Category{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListCategories(_ context.Context, userID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Category
	for _, c := range s.categories {
		if !live(c.DeletedAt) {
			continue
		}
		if c.IsSystem || (c.UserID != nil && *c.UserID == userID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		if out[i].IsSystem != out[j].IsSystem {
			return out[i].IsSystem
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || !live(c.DeletedAt) {
		return storage.ErrNotFound
	}
	c.DeletedAt = &at
	c.UpdatedAt = at
	s.categories[id] = c
	return nil
}

func (s *Store) CountCategoryExpenses(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.expenses {
		if e.CategoryID == id && live(e.DeletedAt) {
			n++
		}
	}
	return n, nil
}

// Expenses

func (s *Store) CreateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.Category = nil
	e.Children = nil
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.expenses[e.ID]
	if !ok || existing.UserID != e.UserID || !live(existing.DeletedAt) {
		return storage.ErrNotFound
	}
	e.ParentExpenseID, e.IsGroup, e.CreatedAt = existing.ParentExpenseID, existing.IsGroup, existing.CreatedAt
	e.Category = nil
	e.Children = nil
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) GetExpense(_ context.Context, userID, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID || !live(e.DeletedAt) {
		return core.Expense{}, storage.ErrNotFound
	}
	return e, nil
}

func (s *Store) ListChildExpenses(_ context.Context, userID, parentID string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.UserID == userID && live(e.DeletedAt) && e.ParentExpenseID != nil && *e.ParentExpenseID == parentID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func matchesFilter(e core.Expense, f core.ExpenseFilter) bool {
	if e.UserID != f.UserID || !live(e.DeletedAt) {
		return false
	}
	if f.From != nil && e.ExpenseDate.Before(f.From.Time) {
		return false
	}
	if f.To != nil && e.ExpenseDate.After(f.To.Time) {
		return false
	}
	if f.CategoryID != "" && e.CategoryID != f.CategoryID {
		return false
	}
	if f.BudgetID != "" && (e.BudgetID == nil || *e.BudgetID != f.BudgetID) {
		return false
	}
	return true
}

func (s *Store) ListExpenses(_ context.Context, f core.ExpenseFilter) ([]core.Expense, int, error) {
	f = f.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []core.Expense
	for _, e := range s.expenses {
		if matchesFilter(e, f) {
			all = append(all, e)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].ExpenseDate.Equal(all[j].ExpenseDate.Time) {
			return all[i].ExpenseDate.After(all[j].ExpenseDate.Time)
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	start := min(f.Offset(), len(all))
	end := min(start+f.Limit, len(all))
	return all[start:end], len(all), nil
}

func (s *Store) DeleteExpense(_ context.Context, userID, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID || !live(e.DeletedAt) {
		return storage.ErrNotFound
	}
	e.DeletedAt = &at
	e.UpdatedAt = at
	s.expenses[id] = e
	for cid, c := range s.expenses {
		if c.ParentExpenseID != nil && *c.ParentExpenseID == id && live(c.DeletedAt) {
			c.DeletedAt = &at
			c.UpdatedAt = at
			s.expenses[cid] = c
		}
	}
	return nil
}

func (s *Store) ExpenseLines(_ context.Context, q core.LineQuery) ([]core.ExpenseLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []core.Expense
	for _, e := range s.expenses {
		if !live(e.DeletedAt) {
			continue
		}
		if q.UserID != "" && e.UserID != q.UserID {
			continue
		}
		if q.BudgetID != "" && (e.BudgetID == nil || *e.BudgetID != q.BudgetID) {
			continue
		}
		if !q.From.IsZero() && e.ExpenseDate.Before(q.From.Time) {
			continue
		}
		if !q.To.IsZero() && e.ExpenseDate.After(q.To.Time) {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].ExpenseDate.Equal(matched[j].ExpenseDate.Time) {
			return matched[i].ExpenseDate.Before(matched[j].ExpenseDate.Time)
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	lines := make([]core.ExpenseLine, 0, len(matched))
	for _, e := range matched {
		// Soft-deleted categories still classify their past expenses.
		c := s.categories[e.CategoryID]
		lines = append(lines, core.ExpenseLine{
			ExpenseID:    e.ID,
			CategoryID:   e.CategoryID,
			CategoryName: c.Name,
			CategoryType: c.Type,
			Amount:       e.Amount,
		})
	}
	return lines, nil
}

func (s *Store) ExpenseLogTimes(_ context.Context, userID string) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []time.Time
	for _, e := range s.expenses {
		if e.UserID == userID {
			out = append(out, e.CreatedAt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// Users

func (s *Store) EnsureUser(_ context.Context, userID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		s.users[userID] = core.StreakState{}
	}
	return nil
}

func (s *Store) GetStreak(_ context.Context, userID string) (core.StreakState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID], nil
}

func (s *Store) SwapStreak(_ context.Context, userID string, prev, next core.StreakState) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.users[userID].Equal(prev) {
		return false, nil
	}
	s.users[userID] = next
	return true, nil
}

func (s *Store) SetStreak(_ context.Context, userID string, st core.StreakState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = st
	return nil
}
