package services

import (
	"context"
	"fmt"

	"kantong/internal/core"
	"kantong/internal/log"

	"github.com/google/uuid"
)

// EntryNotifier is told about every expense that was logged. The returned channel
// yields the outcome of the asynchronous work, if the caller cares.
type EntryNotifier interface {
	EntryLogged(ctx context.Context, ev core.EntryLogged) <-chan error
}

// ExpenseService records expenses and answers the spending aggregations.
type ExpenseService struct {
	expenses   ExpenseStore
	budgets    BudgetStore
	users      UserStore
	categories *CategoryService
	notifier   EntryNotifier
	clock      Clock
	logger     *log.Logger
}

func NewExpenseService(
	expenses ExpenseStore,
	budgets BudgetStore,
	users UserStore,
	categories *CategoryService,
	notifier EntryNotifier,
	clock Clock,
	logger *log.Logger,
) *ExpenseService {
	return &ExpenseService{
		expenses:   expenses,
		budgets:    budgets,
		users:      users,
		categories: categories,
		notifier:   notifier,
		clock:      clock,
		logger:     logger.WithComponent(log.ComponentExpense),
	}
}

// PageMeta describes one page of a listing.
type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type ExpensePage struct {
	Data []core.Expense `json:"data"`
	Meta PageMeta       `json:"meta"`
}

func (s *ExpenseService) checkBudget(ctx context.Context, userID string, budgetID *string) error {
	if budgetID == nil {
		return nil
	}
	if _, err := s.budgets.GetBudget(ctx, userID, *budgetID); err != nil {
		return notFound(err, "budget")
	}
	return nil
}

// Create logs an expense and then notifies the streak counter. A failed notification
// never fails the request: the expense is already stored.
func (s *ExpenseService) Create(ctx context.Context, userID string, d core.ExpenseDraft) (core.Expense, error) {
	if err := d.Validate(); err != nil {
		return core.Expense{}, err
	}

	cat, err := s.categories.Get(ctx, d.CategoryID, userID)
	if err != nil {
		return core.Expense{}, err
	}
	if err := s.checkBudget(ctx, userID, d.BudgetID); err != nil {
		return core.Expense{}, err
	}
	if d.ParentExpenseID != nil {
		parent, err := s.expenses.GetExpense(ctx, userID, *d.ParentExpenseID)
		if err != nil {
			return core.Expense{}, notFound(err, "parent expense")
		}
		if !parent.IsGroup {
			return core.Expense{}, core.Invalid("parentExpenseId", "parent expense is not a group")
		}
	}

	now := s.clock.now()
	if err := s.users.EnsureUser(ctx, userID, now); err != nil {
		return core.Expense{}, fmt.Errorf("ensure user: %w", err)
	}

	e := core.Expense{
		ID:              uuid.NewString(),
		UserID:          userID,
		Name:            d.Name,
		Amount:          d.Amount,
		Quantity:        d.QuantityOrDefault(),
		Unit:            d.Unit,
		ExpenseDate:     d.ExpenseDate,
		ExpenseTime:     d.ExpenseTime,
		CategoryID:      d.CategoryID,
		BudgetID:        d.BudgetID,
		ParentExpenseID: d.ParentExpenseID,
		IsGroup:         d.IsGroup,
		PaymentMethod:   d.PaymentMethod,
		ReceiptURL:      d.ReceiptURL,
		Notes:           d.Notes,
		Location:        d.Location,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.expenses.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense logged",
		log.FieldUserID, userID,
		log.FieldExpenseID, e.ID,
		log.FieldCategoryID, e.CategoryID)

	if s.notifier != nil {
		// Detached from the request so a client hang-up does not cancel the update.
		s.notifier.EntryLogged(context.WithoutCancel(ctx), core.EntryLogged{
			UserID:    userID,
			ExpenseID: e.ID,
			LoggedAt:  now,
		})
	}

	e.Category = &cat
	return e, nil
}

// Get returns the expense with its category and, for groups, its live children.
func (s *ExpenseService) Get(ctx context.Context, id, userID string) (core.Expense, error) {
	e, err := s.expenses.GetExpense(ctx, userID, id)
	if err != nil {
		return core.Expense{}, notFound(err, "expense")
	}
	if cat, err := s.categories.Lookup(ctx, e.CategoryID); err == nil {
		e.Category = &cat
	}
	if e.IsGroup {
		children, err := s.expenses.ListChildExpenses(ctx, userID, id)
		if err != nil {
			return core.Expense{}, fmt.Errorf("load child expenses: %w", err)
		}
		e.Children = children
	}
	return e, nil
}

func (s *ExpenseService) List(ctx context.Context, f core.ExpenseFilter) (ExpensePage, error) {
	f = f.Normalize()
	items, total, err := s.expenses.ListExpenses(ctx, f)
	if err != nil {
		return ExpensePage{}, fmt.Errorf("list expenses: %w", err)
	}
	if items == nil {
		items = []core.Expense{}
	}
	for i := range items {
		if cat, err := s.categories.Lookup(ctx, items[i].CategoryID); err == nil {
			items[i].Category = &cat
		}
	}
	return ExpensePage{
		Data: items,
		Meta: PageMeta{
			Total:      total,
			Page:       f.Page,
			Limit:      f.Limit,
			TotalPages: (total + f.Limit - 1) / f.Limit,
		},
	}, nil
}

func (s *ExpenseService) Update(ctx context.Context, id, userID string, p core.ExpensePatch) (core.Expense, error) {
	if err := p.Validate(); err != nil {
		return core.Expense{}, err
	}

	e, err := s.expenses.GetExpense(ctx, userID, id)
	if err != nil {
		return core.Expense{}, notFound(err, "expense")
	}

	if p.CategoryID != nil {
		if _, err := s.categories.Get(ctx, *p.CategoryID, userID); err != nil {
			return core.Expense{}, err
		}
		e.CategoryID = *p.CategoryID
	}
	switch {
	case p.UnlinkBudget:
		e.BudgetID = nil
	case p.BudgetID != nil:
		if err := s.checkBudget(ctx, userID, p.BudgetID); err != nil {
			return core.Expense{}, err
		}
		e.BudgetID = p.BudgetID
	}
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Quantity != nil {
		e.Quantity = *p.Quantity
	}
	if p.Unit != nil {
		e.Unit = *p.Unit
	}
	if p.ExpenseDate != nil {
		e.ExpenseDate = *p.ExpenseDate
	}
	if p.ExpenseTime != nil {
		e.ExpenseTime = *p.ExpenseTime
	}
	if p.PaymentMethod != nil {
		e.PaymentMethod = *p.PaymentMethod
	}
	if p.ReceiptURL != nil {
		e.ReceiptURL = *p.ReceiptURL
	}
	if p.Notes != nil {
		e.Notes = *p.Notes
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	e.UpdatedAt = s.clock.now()

	if err := s.expenses.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, notFound(err, "expense")
	}

	s.logger.InfoContext(ctx, "Expense updated", log.FieldUserID, userID, log.FieldExpenseID, id)
	return s.Get(ctx, id, userID)
}

// Remove soft-deletes the expense; deleting a group removes its children too.
// The streak is not rolled back.
func (s *ExpenseService) Remove(ctx context.Context, id, userID string) error {
	if err := s.expenses.DeleteExpense(ctx, userID, id, s.clock.now()); err != nil {
		return notFound(err, "expense")
	}
	s.logger.InfoContext(ctx, "Expense removed", log.FieldUserID, userID, log.FieldExpenseID, id)
	return nil
}

func (s *ExpenseService) total(ctx context.Context, userID string, from, to core.Date) (core.PeriodTotal, error) {
	lines, err := s.expenses.ExpenseLines(ctx, core.LineQuery{UserID: userID, From: from, To: to})
	if err != nil {
		return core.PeriodTotal{}, fmt.Errorf("load expenses: %w", err)
	}
	return core.TotalLines(from, to, lines), nil
}

// TodayTotal sums the expenses dated today in the configured timezone.
func (s *ExpenseService) TodayTotal(ctx context.Context, userID string) (core.PeriodTotal, error) {
	today := s.clock.today()
	return s.total(ctx, userID, today, today)
}

func (s *ExpenseService) MonthlyTotal(ctx context.Context, userID string, year, month int) (core.PeriodTotal, error) {
	if !core.ValidMonth(month) {
		return core.PeriodTotal{}, core.Invalid("month", "must be between 1 and 12")
	}
	from, to := core.MonthWindow(year, month)
	return s.total(ctx, userID, from, to)
}

// CategoryBreakdown groups spending by category. Zero dates leave that side open.
func (s *ExpenseService) CategoryBreakdown(ctx context.Context, userID string, from, to core.Date) ([]core.CategoryTotal, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from.Time) {
		return nil, core.Invalid("endDate", "must not be before startDate")
	}
	lines, err := s.expenses.ExpenseLines(ctx, core.LineQuery{UserID: userID, From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	out := core.BreakdownByCategory(lines)
	if out == nil {
		out = []core.CategoryTotal{}
	}
	return out, nil
}
