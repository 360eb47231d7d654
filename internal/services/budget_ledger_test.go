package services

import (
	"context"
	"testing"

	"kantong/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetLedger_CreateAppliesDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, err := env.budgets.Create(ctx, "u1", core.BudgetDraft{Month: 1, Year: 2025, TotalIncome: dec("1000000")})
	require.NoError(t, err)

	assert.Equal(t, 50, b.NeedsPercentage)
	assert.Equal(t, 30, b.WantsPercentage)
	assert.Equal(t, 20, b.SavingsPercentage)
	assert.Equal(t, "500000", b.NeedsAmount.String())
	assert.Equal(t, "300000", b.WantsAmount.String())
	assert.Equal(t, "200000", b.SavingsAmount.String())
	assert.NotEmpty(t, b.ID)
}

func TestBudgetLedger_CreateRejectsBadSplit(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.budgets.Create(context.Background(), "u1", core.BudgetDraft{
		Month: 1, Year: 2025, TotalIncome: dec("100"),
		NeedsPercentage: intPtr(60), WantsPercentage: intPtr(30), SavingsPercentage: intPtr(20),
	})
	require.ErrorIs(t, err, core.ErrValidation)

	var ve *core.ValidationError
	require.ErrorAs(t, err, &ve)
	require.NotNil(t, ve.Sum)
	assert.Equal(t, 110, *ve.Sum)

	list, err := env.budgets.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBudgetLedger_CreateDuplicateMonth(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	draft := core.BudgetDraft{Month: 3, Year: 2025, TotalIncome: dec("100")}

	_, err := env.budgets.Create(ctx, "u1", draft)
	require.NoError(t, err)

	_, err = env.budgets.Create(ctx, "u1", draft)
	require.ErrorIs(t, err, core.ErrConflict)
	assert.Contains(t, err.Error(), "3/2025")

	// Another user may hold the same month.
	_, err = env.budgets.Create(ctx, "u2", draft)
	require.NoError(t, err)
}

func TestBudgetLedger_CreateWithForeignGoal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g, err := env.goals.Create(ctx, "u2", core.GoalDraft{Title: "Not yours"})
	require.NoError(t, err)

	_, err = env.budgets.Create(ctx, "u1", core.BudgetDraft{Month: 1, Year: 2025, TotalIncome: dec("100"), GoalID: &g.ID})
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestBudgetLedger_UpdateRecomputesAmounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, err := env.budgets.Create(ctx, "u1", core.BudgetDraft{Month: 1, Year: 2025, TotalIncome: dec("1000")})
	require.NoError(t, err)

	updated, err := env.budgets.Update(ctx, b.ID, "u1", core.BudgetPatch{TotalIncome: decPtr("2000")})
	require.NoError(t, err)
	assert.Equal(t, "1000", updated.NeedsAmount.String())
	assert.Equal(t, "600", updated.WantsAmount.String())
	assert.Equal(t, "400", updated.SavingsAmount.String())

	// A partial split is merged with the stored one and must still sum to 100.
	_, err = env.budgets.Update(ctx, b.ID, "u1", core.BudgetPatch{NeedsPercentage: intPtr(70)})
	require.ErrorIs(t, err, core.ErrValidation)

	updated, err = env.budgets.Update(ctx, b.ID, "u1", core.BudgetPatch{NeedsPercentage: intPtr(70), WantsPercentage: intPtr(10)})
	require.NoError(t, err)
	assert.Equal(t, "1400", updated.NeedsAmount.String())
	assert.Equal(t, "200", updated.WantsAmount.String())
	assert.Equal(t, "400", updated.SavingsAmount.String())

	stored, err := env.budgets.Get(ctx, b.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 70, stored.NeedsPercentage)
	assert.True(t, stored.NeedsAmount.Equal(dec("1400")))
}

func TestBudgetLedger_UpdateLinksAndUnlinksGoal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g, err := env.goals.Create(ctx, "u1", core.GoalDraft{Title: "Laptop", TargetAmount: decPtr("1000")})
	require.NoError(t, err)
	b, err := env.budgets.Create(ctx, "u1", core.BudgetDraft{Month: 1, Year: 2025, TotalIncome: dec("1000")})
	require.NoError(t, err)

	linked, err := env.budgets.Update(ctx, b.ID, "u1", core.BudgetPatch{GoalID: &g.ID})
	require.NoError(t, err)
	require.NotNil(t, linked.Goal)
	assert.Equal(t, "Laptop", linked.Goal.Title)

	unlinked, err := env.budgets.Update(ctx, b.ID, "u1", core.BudgetPatch{UnlinkGoal: true})
	require.NoError(t, err)
	assert.Nil(t, unlinked.GoalID)
	assert.Nil(t, unlinked.Goal)
}

func TestBudgetLedger_OtherUserCannotSeeBudget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, err := env.budgets.Create(ctx, "u1", core.BudgetDraft{Month: 1, Year: 2025, TotalIncome: dec("100")})
	require.NoError(t, err)

	_, err = env.budgets.Get(ctx, b.ID, "u2")
	require.ErrorIs(t, err, core.ErrNotFound)
	_, err = env.budgets.Update(ctx, b.ID, "u2", core.BudgetPatch{TotalIncome: decPtr("1")})
	require.ErrorIs(t, err, core.ErrNotFound)
	_, err = env.budgets.Remove(ctx, b.ID, "u2")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestBudgetLedger_RemoveReportsOrphans(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	needs := systemCategory(t, core.Needs)

	b, err := env.budgets.Create(ctx, "u1", core.BudgetDraft{Month: 1, Year: 2025, TotalIncome: dec("100")})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := env.expenses.Create(ctx, "u1", core.ExpenseDraft{
			Name: "rent", Amount: dec("10"), ExpenseDate: core.NewDate(2025, 1, 2), CategoryID: needs.ID, BudgetID: &b.ID,
		})
		require.NoError(t, err)
	}

	res, err := env.budgets.Remove(ctx, b.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.OrphanedExpenses)
	assert.Contains(t, res.Message, "2 expenses")

	page, err := env.expenses.List(ctx, core.ExpenseFilter{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	for _, e := range page.Data {
		assert.Nil(t, e.BudgetID)
	}
}

func TestBudgetLedger_CurrentMonth(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cur, err := env.budgets.CurrentMonth(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, cur)

	_, err = env.budgets.Create(ctx, "u1", core.BudgetDraft{Month: 1, Year: 2025, TotalIncome: dec("100")})
	require.NoError(t, err)

	cur, err = env.budgets.CurrentMonth(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, 1, cur.Month)

	_, err = env.budgets.ByMonthYear(ctx, "u1", 2025, 2)
	require.ErrorIs(t, err, core.ErrNotFound)
	_, err = env.budgets.ByMonthYear(ctx, "u1", 2025, 13)
	require.ErrorIs(t, err, core.ErrValidation)
}

func TestBudgetLedger_Summary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	needs := systemCategory(t, core.Needs)
	wants := systemCategory(t, core.Wants)

	b, err := env.budgets.Create(ctx, "u1", core.BudgetDraft{Month: 1, Year: 2025, TotalIncome: dec("1000000")})
	require.NoError(t, err)

	spend := func(amount string, cat string, date core.Date) {
		_, err := env.expenses.Create(ctx, "u1", core.ExpenseDraft{
			Name: "x", Amount: dec(amount), ExpenseDate: date, CategoryID: cat, BudgetID: &b.ID,
		})
		require.NoError(t, err)
	}
	spend("500000", needs.ID, core.NewDate(2025, 1, 3))
	spend("100000", wants.ID, core.NewDate(2025, 1, 31))
	// Outside the month window.
	spend("999", wants.ID, core.NewDate(2025, 2, 1))

	s, err := env.budgets.Summary(ctx, b.ID, "u1")
	require.NoError(t, err)

	assert.Equal(t, "600000", s.Spending.TotalSpent.String())
	assert.Equal(t, "0", s.Remaining.Needs.String())
	assert.Equal(t, "200000", s.Remaining.Wants.String())
	assert.Equal(t, "400000", s.Remaining.Total.String())
	assert.Equal(t, core.StatusOnTrack, s.Status)
	require.NotNil(t, s.AdherencePercentage)
	assert.Equal(t, "60", s.AdherencePercentage.String())
	assert.Equal(t, "2025-01-31", s.To.String())
}
