package services

import (
	"context"
	"fmt"

	"kantong/internal/core"
	"kantong/internal/log"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// progressConcurrency bounds the per-goal budget lookups done by List.
const progressConcurrency = 4

// GoalTracker owns savings goals and derives their progress from linked budgets.
type GoalTracker struct {
	goals   GoalStore
	budgets BudgetStore
	clock   Clock
	logger  *log.Logger
}

func NewGoalTracker(goals GoalStore, budgets BudgetStore, clock Clock, logger *log.Logger) *GoalTracker {
	return &GoalTracker{
		goals:   goals,
		budgets: budgets,
		clock:   clock,
		logger:  logger.WithComponent(log.ComponentGoal),
	}
}

// GoalRemoveResult reports the budgets a goal deletion unlinked.
type GoalRemoveResult struct {
	Message         string `json:"message"`
	UnlinkedBudgets int    `json:"unlinkedBudgets"`
}

func (t *GoalTracker) Create(ctx context.Context, userID string, d core.GoalDraft) (core.Goal, error) {
	if err := d.Validate(t.clock.today()); err != nil {
		return core.Goal{}, err
	}

	now := t.clock.now()
	g := core.Goal{
		ID:           uuid.NewString(),
		UserID:       userID,
		Title:        d.Title,
		Description:  d.Description,
		TargetAmount: d.TargetAmount,
		Icon:         d.Icon,
		Color:        d.Color,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if d.TargetDate != nil && !d.TargetDate.IsZero() {
		g.TargetDate = d.TargetDate
	}

	if err := t.goals.CreateGoal(ctx, g); err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}

	t.logger.InfoContext(ctx, "Goal created", log.FieldUserID, userID, log.FieldGoalID, g.ID)
	return g, nil
}

func (t *GoalTracker) Update(ctx context.Context, id, userID string, p core.GoalPatch) (core.Goal, error) {
	if err := p.Validate(t.clock.today()); err != nil {
		return core.Goal{}, err
	}

	g, err := t.goals.GetGoal(ctx, userID, id)
	if err != nil {
		return core.Goal{}, notFound(err, "goal")
	}

	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	switch {
	case p.ClearTargetAmount:
		g.TargetAmount = nil
	case p.TargetAmount != nil:
		g.TargetAmount = p.TargetAmount
	}
	switch {
	case p.ClearTargetDate:
		g.TargetDate = nil
	case p.TargetDate != nil && !p.TargetDate.IsZero():
		g.TargetDate = p.TargetDate
	}
	if p.Icon != nil {
		g.Icon = *p.Icon
	}
	if p.Color != nil {
		g.Color = *p.Color
	}
	g.UpdatedAt = t.clock.now()

	if err := t.goals.UpdateGoal(ctx, g); err != nil {
		return core.Goal{}, notFound(err, "goal")
	}

	t.logger.InfoContext(ctx, "Goal updated", log.FieldUserID, userID, log.FieldGoalID, id)
	return g, nil
}

// Remove soft-deletes the goal and unlinks every budget that pointed at it.
func (t *GoalTracker) Remove(ctx context.Context, id, userID string) (GoalRemoveResult, error) {
	unlinked, err := t.goals.DeleteGoal(ctx, userID, id, t.clock.now())
	if err != nil {
		return GoalRemoveResult{}, notFound(err, "goal")
	}

	t.logger.InfoContext(ctx, "Goal removed",
		log.FieldUserID, userID,
		log.FieldGoalID, id,
		"unlinked_budgets", unlinked)
	return GoalRemoveResult{Message: "Goal deleted", UnlinkedBudgets: unlinked}, nil
}

// MarkAsAchieved flips an active goal to achieved exactly once. Achieving a goal
// that is already inactive is a conflict and leaves achievedAt untouched.
func (t *GoalTracker) MarkAsAchieved(ctx context.Context, id, userID string) (core.Goal, error) {
	g, err := t.goals.GetGoal(ctx, userID, id)
	if err != nil {
		return core.Goal{}, notFound(err, "goal")
	}
	if !g.IsActive {
		return core.Goal{}, core.Conflict("Goal is already inactive")
	}

	now := t.clock.now()
	ok, err := t.goals.AchieveGoal(ctx, userID, id, now)
	if err != nil {
		return core.Goal{}, notFound(err, "goal")
	}
	if !ok {
		// Lost a race with another achieve.
		return core.Goal{}, core.Conflict("Goal is already inactive")
	}

	g.IsActive = false
	g.AchievedAt = &now
	g.UpdatedAt = now
	t.logger.InfoContext(ctx, "Goal achieved",
		log.FieldUserID, userID,
		log.FieldGoalID, id,
		log.FieldOperation, log.OpAchieve)
	return g, nil
}

func (t *GoalTracker) Get(ctx context.Context, id, userID string) (core.GoalWithProgress, error) {
	g, err := t.goals.GetGoal(ctx, userID, id)
	if err != nil {
		return core.GoalWithProgress{}, notFound(err, "goal")
	}
	return t.withProgress(ctx, g)
}

// Progress returns only the derived part of a goal.
func (t *GoalTracker) Progress(ctx context.Context, id, userID string) (core.GoalProgress, error) {
	gp, err := t.Get(ctx, id, userID)
	if err != nil {
		return core.GoalProgress{}, err
	}
	return gp.GoalProgress, nil
}

// List returns every live goal of the user with progress, active goals first.
func (t *GoalTracker) List(ctx context.Context, userID string) ([]core.GoalWithProgress, error) {
	return t.list(ctx, userID, false)
}

func (t *GoalTracker) ListActive(ctx context.Context, userID string) ([]core.GoalWithProgress, error) {
	return t.list(ctx, userID, true)
}

func (t *GoalTracker) list(ctx context.Context, userID string, activeOnly bool) ([]core.GoalWithProgress, error) {
	goals, err := t.goals.ListGoals(ctx, userID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	out := make([]core.GoalWithProgress, len(goals))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(progressConcurrency)
	for i, goal := range goals {
		g.Go(func() error {
			gp, err := t.withProgress(gctx, goal)
			if err != nil {
				return err
			}
			out[i] = gp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *GoalTracker) withProgress(ctx context.Context, g core.Goal) (core.GoalWithProgress, error) {
	linked, err := t.budgets.ListBudgetsByGoal(ctx, g.UserID, g.ID)
	if err != nil {
		return core.GoalWithProgress{}, fmt.Errorf("load linked budgets: %w", err)
	}
	return core.GoalWithProgress{
		Goal:         g,
		GoalProgress: core.CalculateProgress(g, linked, t.clock.now()),
	}, nil
}
