package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goalWithTarget(target string, date *Date) Goal {
	amt := decimal.RequireFromString(target)
	return Goal{ID: "g1", UserID: "u1", Title: "Laptop", TargetAmount: &amt, TargetDate: date, IsActive: true}
}

func linkedBudget(goalID string, income int64) Budget {
	b := Budget{GoalID: &goalID}
	b.Apply(decimal.NewFromInt(income), DefaultPercentages)
	return b
}

func TestCalculateProgressWithoutTarget(t *testing.T) {
	p := CalculateProgress(Goal{ID: "g1"}, []Budget{linkedBudget("g1", 1000)}, time.Now())
	assert.Nil(t, p.CurrentAmount)
	assert.Nil(t, p.ProgressPercentage)
	assert.Nil(t, p.RemainingAmount)
	assert.Nil(t, p.Status)
}

func TestCalculateProgressSumsLinkedSavings(t *testing.T) {
	g := goalWithTarget("1000", nil)
	budgets := []Budget{
		linkedBudget("g1", 1000),    // savings 200
		linkedBudget("g1", 500),     // savings 100
		linkedBudget("other", 5000), // ignored
	}
	p := CalculateProgress(g, budgets, time.Now())
	require.NotNil(t, p.CurrentAmount)
	assert.True(t, p.CurrentAmount.Equal(decimal.NewFromInt(300)))
	assert.True(t, p.RemainingAmount.Equal(decimal.NewFromInt(700)))
	assert.True(t, p.ProgressPercentage.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, 2, p.LinkedBudgets)
	assert.Nil(t, p.DaysRemaining)
	assert.Nil(t, p.Status)
}

func TestCalculateProgressCanExceedTarget(t *testing.T) {
	p := CalculateProgress(goalWithTarget("100", nil), []Budget{linkedBudget("g1", 1000)}, time.Now())
	assert.True(t, p.ProgressPercentage.Equal(decimal.NewFromInt(200)))
	assert.True(t, p.RemainingAmount.Equal(decimal.NewFromInt(-100)))
}

func TestCalculateProgressZeroTarget(t *testing.T) {
	p := CalculateProgress(goalWithTarget("0", nil), []Budget{linkedBudget("g1", 1000)}, time.Now())
	require.NotNil(t, p.CurrentAmount)
	assert.Nil(t, p.ProgressPercentage)
}

func TestCalculateProgressIsMonotonic(t *testing.T) {
	g := goalWithTarget("5000", nil)
	var budgets []Budget
	prev := decimal.Zero
	for i := 0; i < 6; i++ {
		budgets = append(budgets, linkedBudget("g1", int64(1000+i*250)))
		p := CalculateProgress(g, budgets, time.Now())
		assert.True(t, p.CurrentAmount.GreaterThanOrEqual(prev))
		prev = *p.CurrentAmount
	}
}

func TestCalculateProgressStatus(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		target Date
		days   int
		status GoalStatus
	}{
		{NewDate(2025, 6, 1), 92, GoalOnTrack},
		{NewDate(2025, 3, 31), 30, GoalOnTrack},
		{NewDate(2025, 3, 30), 29, GoalWarning},
		{NewDate(2025, 3, 2), 1, GoalWarning},
		{NewDate(2025, 3, 1), 0, GoalWarning},
		{NewDate(2025, 2, 28), -1, GoalOverdue},
		{NewDate(2025, 2, 27), -2, GoalOverdue},
	}
	for _, tc := range cases {
		target := tc.target
		p := CalculateProgress(goalWithTarget("100", &target), nil, now)
		require.NotNil(t, p.DaysRemaining)
		assert.Equalf(t, tc.days, *p.DaysRemaining, "target %s", target)
		assert.Equalf(t, tc.status, *p.Status, "target %s", target)
	}
}

func TestCalculateProgressTargetEarlierToday(t *testing.T) {
	// Less than a day past the target still rounds up to zero days.
	target := NewDate(2025, 3, 1)
	for _, now := range []time.Time{
		time.Date(2025, 3, 1, 0, 0, 1, 0, time.UTC),
		time.Date(2025, 3, 1, 23, 59, 59, 0, time.UTC),
	} {
		p := CalculateProgress(goalWithTarget("100", &target), nil, now)
		require.NotNil(t, p.DaysRemaining)
		assert.Equalf(t, 0, *p.DaysRemaining, "now %s", now)
		assert.Equalf(t, GoalWarning, *p.Status, "now %s", now)
	}

	p := CalculateProgress(goalWithTarget("100", &target), nil, time.Date(2025, 3, 2, 0, 0, 1, 0, time.UTC))
	assert.Equal(t, -1, *p.DaysRemaining)
	assert.Equal(t, GoalOverdue, *p.Status)
}

func TestDaysRemainingRespectsLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	now := time.Date(2025, 3, 1, 23, 0, 0, 0, jakarta)
	target := NewDate(2025, 3, 2).In(jakarta)
	assert.Equal(t, 1, DaysRemaining(target, now))
}
