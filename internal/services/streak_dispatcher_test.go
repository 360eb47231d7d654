package services

import (
	"context"
	"io"
	"testing"
	"time"

	"kantong/internal/core"
	"kantong/internal/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T, env *testEnv, cfg StreakDispatcherConfig) *StreakDispatcher {
	t.Helper()
	return NewStreakDispatcher(env.streaks, cfg, log.New(log.Config{Output: io.Discard}))
}

func TestDefaultStreakDispatcherConfig(t *testing.T) {
	cfg := DefaultStreakDispatcherConfig()
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 256, cfg.QueueSize)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 50*time.Millisecond, cfg.RetryDelay)
}

func TestStreakDispatcher_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	d := newTestDispatcher(t, env, StreakDispatcherConfig{})
	ctx := context.Background()

	assert.False(t, d.IsRunning())
	require.NoError(t, d.Stop(ctx))

	require.NoError(t, d.Start(ctx))
	assert.True(t, d.IsRunning())
	require.Error(t, d.Start(ctx))

	require.NoError(t, d.Stop(ctx))
	assert.False(t, d.IsRunning())

	err := <-d.EntryLogged(ctx, core.EntryLogged{UserID: "u1", LoggedAt: fixedNow})
	require.ErrorIs(t, err, ErrDispatcherStopped)
}

func TestStreakDispatcher_UpdatesStreak(t *testing.T) {
	env := newTestEnv(t)
	d := newTestDispatcher(t, env, StreakDispatcherConfig{Workers: 4})
	ctx := context.Background()
	require.NoError(t, d.Start(ctx))
	defer d.Stop(ctx)

	var results []<-chan error
	for i := 0; i < 10; i++ {
		results = append(results, d.EntryLogged(ctx, core.EntryLogged{UserID: "u1", ExpenseID: "e", LoggedAt: fixedNow}))
	}
	for _, r := range results {
		select {
		case err := <-r:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("dispatch did not complete")
		}
	}

	s, err := env.streaks.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, "2025-01-15", s.LastEntryDate.String())
}

func TestStreakDispatcher_InvalidEventIsNotRetried(t *testing.T) {
	env := newTestEnv(t)
	d := newTestDispatcher(t, env, StreakDispatcherConfig{RetryDelay: time.Hour})
	ctx := context.Background()
	require.NoError(t, d.Start(ctx))
	defer d.Stop(ctx)

	select {
	case err := <-d.EntryLogged(ctx, core.EntryLogged{LoggedAt: fixedNow}):
		require.ErrorIs(t, err, core.ErrValidation)
	case <-time.After(5 * time.Second):
		t.Fatal("invalid event was retried")
	}
}

func TestStreakDispatcher_WiredToExpenses(t *testing.T) {
	env := newTestEnv(t)
	d := newTestDispatcher(t, env, StreakDispatcherConfig{})
	ctx := context.Background()
	require.NoError(t, d.Start(ctx))

	env.expenses.notifier = d
	_, err := env.expenses.Create(ctx, "u1", core.ExpenseDraft{
		Name: "tea", Amount: dec("2"), ExpenseDate: core.NewDate(2025, 1, 1), CategoryID: systemCategory(t, core.Wants).ID,
	})
	require.NoError(t, err)

	// Stop drains the queue.
	require.NoError(t, d.Stop(ctx))
	s, err := env.streaks.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentStreak)
}
