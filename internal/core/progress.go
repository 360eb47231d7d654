package core

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// GoalStatus is the time-based status of a goal with a target date.
type GoalStatus string

const (
	GoalOnTrack GoalStatus = "on_track"
	GoalWarning GoalStatus = "warning"
	GoalOverdue GoalStatus = "overdue"
)

// goalWarningDays is how close to the target date a goal turns to warning.
const goalWarningDays = 30

// GoalProgress is derived from the budgets linked to a goal. Every field is nil
// when the goal has no target amount.
type GoalProgress struct {
	CurrentAmount      *decimal.Decimal `json:"currentAmount"`
	ProgressPercentage *decimal.Decimal `json:"progressPercentage"`
	RemainingAmount    *decimal.Decimal `json:"remainingAmount"`
	DaysRemaining      *int             `json:"daysRemaining"`
	Status             *GoalStatus      `json:"status"`
	LinkedBudgets      int              `json:"linkedBudgets"`
}

// GoalWithProgress is the read model returned for a single goal.
type GoalWithProgress struct {
	Goal
	GoalProgress
}

// CalculateProgress sums the savings amount of every linked budget. Budgets whose
// GoalID does not point at g are ignored, so callers may pass a wider set.
func CalculateProgress(g Goal, linked []Budget, now time.Time) GoalProgress {
	if g.TargetAmount == nil {
		return GoalProgress{}
	}

	current := decimal.Zero
	count := 0
	for _, b := range linked {
		if b.GoalID == nil || *b.GoalID != g.ID {
			continue
		}
		current = current.Add(b.SavingsAmount)
		count++
	}
	remaining := g.TargetAmount.Sub(current)

	p := GoalProgress{
		CurrentAmount:   &current,
		RemainingAmount: &remaining,
		LinkedBudgets:   count,
	}
	// A zero target has no meaningful percentage.
	if pct, ok := Percent(current, *g.TargetAmount); ok {
		p.ProgressPercentage = &pct
	}

	if g.TargetDate != nil && !g.TargetDate.IsZero() {
		days := DaysRemaining(g.TargetDate.In(now.Location()), now)
		status := goalStatus(days)
		p.DaysRemaining = &days
		p.Status = &status
	}
	return p
}

// DaysRemaining is ceil((target - now) / 24h).
func DaysRemaining(target, now time.Time) int {
	d := math.Ceil(float64(target.Sub(now)) / float64(24*time.Hour))
	if d == 0 {
		// math.Ceil keeps the sign of small negatives; report plain zero.
		return 0
	}
	return int(d)
}

func goalStatus(daysRemaining int) GoalStatus {
	switch {
	case daysRemaining < 0:
		return GoalOverdue
	case daysRemaining < goalWarningDays:
		return GoalWarning
	default:
		return GoalOnTrack
	}
}
