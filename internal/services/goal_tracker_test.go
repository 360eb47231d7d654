package services

import (
	"context"
	"testing"

	"kantong/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoalTracker_CreateRejectsPastTargetDate(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.goals.Create(context.Background(), "u1", core.GoalDraft{Title: "Trip", TargetDate: datePtr(2025, 1, 14)})
	require.ErrorIs(t, err, core.ErrValidation)

	g, err := env.goals.Create(context.Background(), "u1", core.GoalDraft{Title: "Trip", TargetDate: datePtr(2025, 1, 15)})
	require.NoError(t, err)
	assert.True(t, g.IsActive)
	assert.Nil(t, g.AchievedAt)
}

func TestGoalTracker_ProgressFromLinkedBudgets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g, err := env.goals.Create(ctx, "u1", core.GoalDraft{
		Title:        "Emergency fund",
		TargetAmount: decPtr("1000"),
		TargetDate:   datePtr(2025, 3, 1),
	})
	require.NoError(t, err)

	for _, month := range []int{1, 2} {
		_, err := env.budgets.Create(ctx, "u1", core.BudgetDraft{Month: month, Year: 2025, TotalIncome: dec("1000"), GoalID: &g.ID})
		require.NoError(t, err)
	}
	// Unlinked budgets do not count.
	_, err = env.budgets.Create(ctx, "u1", core.BudgetDraft{Month: 3, Year: 2025, TotalIncome: dec("5000")})
	require.NoError(t, err)

	p, err := env.goals.Progress(ctx, g.ID, "u1")
	require.NoError(t, err)

	assert.Equal(t, 2, p.LinkedBudgets)
	require.NotNil(t, p.CurrentAmount)
	assert.Equal(t, "400", p.CurrentAmount.String())
	assert.Equal(t, "600", p.RemainingAmount.String())
	assert.Equal(t, "40", p.ProgressPercentage.String())
	require.NotNil(t, p.DaysRemaining)
	assert.Equal(t, 45, *p.DaysRemaining)
	assert.Equal(t, core.GoalOnTrack, *p.Status)
}

func TestGoalTracker_NoTargetAmountHasNoProgress(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g, err := env.goals.Create(ctx, "u1", core.GoalDraft{Title: "Someday"})
	require.NoError(t, err)

	gp, err := env.goals.Get(ctx, g.ID, "u1")
	require.NoError(t, err)
	assert.Nil(t, gp.CurrentAmount)
	assert.Nil(t, gp.ProgressPercentage)
	assert.Nil(t, gp.Status)
}

func TestGoalTracker_MarkAsAchievedOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g, err := env.goals.Create(ctx, "u1", core.GoalDraft{Title: "Bike"})
	require.NoError(t, err)

	achieved, err := env.goals.MarkAsAchieved(ctx, g.ID, "u1")
	require.NoError(t, err)
	assert.False(t, achieved.IsActive)
	require.NotNil(t, achieved.AchievedAt)
	first := *achieved.AchievedAt

	_, err = env.goals.MarkAsAchieved(ctx, g.ID, "u1")
	require.ErrorIs(t, err, core.ErrConflict)

	stored, err := env.goals.Get(ctx, g.ID, "u1")
	require.NoError(t, err)
	assert.True(t, stored.AchievedAt.Equal(first))
}

func TestGoalTracker_UpdateKeepsLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g, err := env.goals.Create(ctx, "u1", core.GoalDraft{Title: "Bike"})
	require.NoError(t, err)
	_, err = env.goals.MarkAsAchieved(ctx, g.ID, "u1")
	require.NoError(t, err)

	updated, err := env.goals.Update(ctx, g.ID, "u1", core.GoalPatch{Title: strPtr("Road bike"), TargetAmount: decPtr("900")})
	require.NoError(t, err)
	assert.Equal(t, "Road bike", updated.Title)
	assert.False(t, updated.IsActive)
	assert.NotNil(t, updated.AchievedAt)
}

func TestGoalTracker_UpdateClearsTargets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	target := core.NewDate(2025, 6, 1)
	g, err := env.goals.Create(ctx, "u1", core.GoalDraft{Title: "Trip", TargetAmount: decPtr("500"), TargetDate: &target})
	require.NoError(t, err)

	_, err = env.goals.Update(ctx, g.ID, "u1", core.GoalPatch{TargetDate: &target, ClearTargetDate: true})
	require.ErrorIs(t, err, core.ErrValidation)

	updated, err := env.goals.Update(ctx, g.ID, "u1", core.GoalPatch{ClearTargetDate: true})
	require.NoError(t, err)
	assert.Nil(t, updated.TargetDate)
	require.NotNil(t, updated.TargetAmount)

	gp, err := env.goals.Get(ctx, g.ID, "u1")
	require.NoError(t, err)
	assert.Nil(t, gp.TargetDate)
	assert.Nil(t, gp.DaysRemaining)
	assert.Nil(t, gp.Status)
	assert.NotNil(t, gp.CurrentAmount)

	_, err = env.goals.Update(ctx, g.ID, "u1", core.GoalPatch{ClearTargetAmount: true})
	require.NoError(t, err)
	gp, err = env.goals.Get(ctx, g.ID, "u1")
	require.NoError(t, err)
	assert.Nil(t, gp.TargetAmount)
	assert.Nil(t, gp.CurrentAmount)
}

func TestGoalTracker_RemoveUnlinksBudgets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	g, err := env.goals.Create(ctx, "u1", core.GoalDraft{Title: "House", TargetAmount: decPtr("100000")})
	require.NoError(t, err)
	b, err := env.budgets.Create(ctx, "u1", core.BudgetDraft{Month: 1, Year: 2025, TotalIncome: dec("1000"), GoalID: &g.ID})
	require.NoError(t, err)

	res, err := env.goals.Remove(ctx, g.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.UnlinkedBudgets)

	_, err = env.goals.Get(ctx, g.ID, "u1")
	require.ErrorIs(t, err, core.ErrNotFound)

	stored, err := env.budgets.Get(ctx, b.ID, "u1")
	require.NoError(t, err)
	assert.Nil(t, stored.GoalID)
	assert.Nil(t, stored.Goal)
}

func TestGoalTracker_ListActiveFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	done, err := env.goals.Create(ctx, "u1", core.GoalDraft{Title: "Done"})
	require.NoError(t, err)
	_, err = env.goals.MarkAsAchieved(ctx, done.ID, "u1")
	require.NoError(t, err)
	_, err = env.goals.Create(ctx, "u1", core.GoalDraft{Title: "Open", TargetAmount: decPtr("10")})
	require.NoError(t, err)
	_, err = env.goals.Create(ctx, "u2", core.GoalDraft{Title: "Someone else"})
	require.NoError(t, err)

	all, err := env.goals.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Open", all[0].Title)
	assert.Equal(t, "Done", all[1].Title)
	require.NotNil(t, all[0].CurrentAmount)
	assert.True(t, all[0].CurrentAmount.IsZero())

	active, err := env.goals.ListActive(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Open", active[0].Title)
}
