package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kantong/internal/core"
	"kantong/internal/log"
)

// maxSwapAttempts bounds the read/compare/swap loop under contention.
const maxSwapAttempts = 10

// ErrStreakContention is returned when every swap attempt lost to a concurrent writer.
var ErrStreakContention = errors.New("streak update lost to concurrent writers")

// StreakCounter maintains the per-user logging streak. Updates are compare-and-swap
// on the stored state so concurrent entries for one user never lose an increment.
type StreakCounter struct {
	users    UserStore
	expenses ExpenseStore
	clock    Clock
	logger   *log.Logger
}

func NewStreakCounter(users UserStore, expenses ExpenseStore, clock Clock, logger *log.Logger) *StreakCounter {
	return &StreakCounter{
		users:    users,
		expenses: expenses,
		clock:    clock,
		logger:   logger.WithComponent(log.ComponentStreak),
	}
}

// Record applies one entry logged at the given instant. The calendar day is taken
// in the configured timezone. A second entry on the same day, or one older than the
// last recorded day, returns the stored state unchanged.
func (c *StreakCounter) Record(ctx context.Context, userID string, at time.Time) (core.StreakState, error) {
	today := core.DateOf(at.In(c.clock.location()))

	for attempt := 1; attempt <= maxSwapAttempts; attempt++ {
		cur, err := c.users.GetStreak(ctx, userID)
		if err != nil {
			return core.StreakState{}, fmt.Errorf("get streak: %w", err)
		}

		next, changed := core.NextStreak(cur, today)
		if !changed {
			return cur, nil
		}

		swapped, err := c.users.SwapStreak(ctx, userID, cur, next)
		if err != nil {
			return core.StreakState{}, fmt.Errorf("swap streak: %w", err)
		}
		if swapped {
			c.logger.DebugContext(ctx, "Streak updated",
				log.NewFields().WithUser(userID).WithStreak(next).ToSlice()...)
			return next, nil
		}

		c.logger.DebugContext(ctx, "Streak swap lost, retrying",
			log.FieldUserID, userID,
			log.FieldAttempt, attempt)
		if err := ctx.Err(); err != nil {
			return core.StreakState{}, err
		}
	}
	return core.StreakState{}, ErrStreakContention
}

// HandleEntryLogged is the consumer side of the entry-logged notification.
func (c *StreakCounter) HandleEntryLogged(ctx context.Context, ev core.EntryLogged) error {
	if ev.UserID == "" {
		return core.Invalid("userId", "is required")
	}
	_, err := c.Record(ctx, ev.UserID, ev.LoggedAt)
	return err
}

// Get returns the stored streak; unknown users have an empty one.
func (c *StreakCounter) Get(ctx context.Context, userID string) (core.StreakState, error) {
	s, err := c.users.GetStreak(ctx, userID)
	if err != nil {
		return core.StreakState{}, fmt.Errorf("get streak: %w", err)
	}
	return s, nil
}

// Recompute rebuilds the streak from the recording time of every expense the user
// ever logged and overwrites the stored state. Deleted expenses count: the streak
// measures the habit of logging, not what is still on the books.
func (c *StreakCounter) Recompute(ctx context.Context, userID string) (core.StreakState, error) {
	times, err := c.expenses.ExpenseLogTimes(ctx, userID)
	if err != nil {
		return core.StreakState{}, fmt.Errorf("load log times: %w", err)
	}

	loc := c.clock.location()
	days := make([]core.Date, 0, len(times))
	for _, t := range times {
		days = append(days, core.DateOf(t.In(loc)))
	}
	s := core.ReplayStreak(days)

	if err := c.users.SetStreak(ctx, userID, s); err != nil {
		return core.StreakState{}, fmt.Errorf("store streak: %w", err)
	}

	c.logger.InfoContext(ctx, "Streak recomputed",
		log.NewFields().WithUser(userID).WithStreak(s).WithOperation(log.OpRecompute).ToSlice()...)
	return s, nil
}
