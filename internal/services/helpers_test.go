package services

import (
	"context"
	"io"
	"testing"
	"time"

	"kantong/internal/cache"
	"kantong/internal/core"
	"kantong/internal/log"
	"kantong/internal/storage"
	"kantong/internal/storage/memory"

	"github.com/shopspring/decimal"
)

type testEnv struct {
	store      *memory.Store
	clock      Clock
	budgets    *BudgetLedger
	goals      *GoalTracker
	categories *CategoryService
	expenses   *ExpenseService
	streaks    *StreakCounter
	notifier   *recordingNotifier
}

var jakarta = time.FixedZone("WIB", 7*60*60)

// fixedNow is mid-morning on 2025-01-15 in WIB.
var fixedNow = time.Date(2025, 1, 15, 10, 0, 0, 0, jakarta)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.New()
	clock := Clock{Location: jakarta, Now: func() time.Time { return fixedNow }}
	logger := log.New(log.Config{Output: io.Discard})

	env := &testEnv{store: store, clock: clock, notifier: &recordingNotifier{}}
	env.budgets = NewBudgetLedger(store, store, store, clock, logger)
	env.goals = NewGoalTracker(store, store, clock, logger)
	env.categories = NewCategoryService(store, cache.NewLRUCache[core.Category](64, time.Minute), clock, logger)
	env.expenses = NewExpenseService(store, store, store, env.categories, env.notifier, clock, logger)
	env.streaks = NewStreakCounter(store, store, clock, logger)
	return env
}

type recordingNotifier struct {
	events []core.EntryLogged
}

func (n *recordingNotifier) EntryLogged(_ context.Context, ev core.EntryLogged) <-chan error {
	n.events = append(n.events, ev)
	done := make(chan error, 1)
	done <- nil
	return done
}

func systemCategory(t *testing.T, typ core.BucketType) core.Category {
	t.Helper()
	for _, c := range storage.SystemCategories() {
		if c.Type == typ {
			return c
		}
	}
	t.Fatalf("no system category of type %s", typ)
	return core.Category{}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(i int) *int { return &i }

func strPtr(s string) *string { return &s }

func datePtr(y, m, d int) *core.Date {
	date := core.NewDate(y, m, d)
	return &date
}
