package worker

import (
	"context"
	"fmt"
	"log/slog"

	"kantong/internal/amqp"
	"kantong/internal/core"
)

// StreakRecorder applies one entry-logged event to the user's streak.
type StreakRecorder interface {
	HandleEntryLogged(ctx context.Context, ev core.EntryLogged) error
}

// StreakWorker turns entry-logged messages from AMQP into streak updates
type StreakWorker struct {
	streaks StreakRecorder
}

func NewStreakWorker(streaks StreakRecorder) *StreakWorker {
	return &StreakWorker{streaks: streaks}
}

// HandleEntryLogged processes a single message. A returned error asks the consumer
// to requeue; messages that can never succeed are logged and acknowledged.
func (w *StreakWorker) HandleEntryLogged(ctx context.Context, msg *amqp.EntryLoggedMessage) error {
	slog.DebugContext(ctx, "Processing entry logged message",
		"user_id", msg.UserID,
		"expense_id", msg.ExpenseID,
		"logged_at", msg.LoggedAt)

	err := w.streaks.HandleEntryLogged(ctx, msg.Event())
	if err == nil {
		return nil
	}

	if core.KindOf(err) == core.KindValidation {
		slog.WarnContext(ctx, "Dropping invalid entry logged message",
			"user_id", msg.UserID,
			"expense_id", msg.ExpenseID,
			"error", err)
		return nil
	}

	return fmt.Errorf("record streak for %s: %w", msg.UserID, err)
}

// Run consumes until ctx is cancelled.
func (w *StreakWorker) Run(ctx context.Context, client *amqp.Client) error {
	slog.InfoContext(ctx, "Streak worker started")
	err := client.ConsumeEntryLogged(ctx, w.HandleEntryLogged)
	if ctx.Err() != nil {
		slog.InfoContext(ctx, "Streak worker stopped")
		return nil
	}
	return err
}
