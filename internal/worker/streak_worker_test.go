package worker

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"kantong/internal/amqp"
	"kantong/internal/core"
	"kantong/internal/log"
	"kantong/internal/services"
	"kantong/internal/storage/memory"
)

type stubRecorder struct {
	err    error
	events []core.EntryLogged
}

func (s *stubRecorder) HandleEntryLogged(_ context.Context, ev core.EntryLogged) error {
	s.events = append(s.events, ev)
	return s.err
}

func TestStreakWorker_HandleEntryLogged(t *testing.T) {
	msg := &amqp.EntryLoggedMessage{UserID: "u1", ExpenseID: "e1", LoggedAt: time.Now()}

	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "success acks", err: nil, wantErr: false},
		{name: "validation error is dropped", err: core.Invalid("userId", "is required"), wantErr: false},
		{name: "store error requeues", err: errors.New("database is locked"), wantErr: true},
		{name: "contention requeues", err: services.ErrStreakContention, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &stubRecorder{err: tt.err}
			err := NewStreakWorker(rec).HandleEntryLogged(context.Background(), msg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("HandleEntryLogged() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(rec.events) != 1 || rec.events[0].ExpenseID != "e1" {
				t.Errorf("unexpected events %+v", rec.events)
			}
		})
	}
}

func TestStreakWorker_RecordsStreak(t *testing.T) {
	store := memory.New()
	wib := time.FixedZone("WIB", 7*60*60)
	clock := services.Clock{Location: wib}
	counter := services.NewStreakCounter(store, store, clock, log.New(log.Config{Output: io.Discard}))
	w := NewStreakWorker(counter)
	ctx := context.Background()

	for _, day := range []int{10, 11, 11, 12} {
		msg := &amqp.EntryLoggedMessage{UserID: "u1", ExpenseID: "e", LoggedAt: time.Date(2025, 1, day, 9, 0, 0, 0, wib)}
		if err := w.HandleEntryLogged(ctx, msg); err != nil {
			t.Fatalf("HandleEntryLogged() error = %v", err)
		}
	}

	s, err := counter.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if s.CurrentStreak != 3 || s.LongestStreak != 3 {
		t.Errorf("streak = %d/%d, want 3/3", s.CurrentStreak, s.LongestStreak)
	}
}
