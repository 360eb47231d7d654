package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kantong/internal/core"
)

func (r *SQLiteRepository) EnsureUser(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (id, created_at, updated_at) VALUES (?, ?, ?)`,
		userID, formatTime(at), formatTime(at))
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetStreak(ctx context.Context, userID string) (core.StreakState, error) {
	var (
		s    core.StreakState
		last sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT last_entry_date, current_streak, longest_streak FROM users WHERE id = ?`, userID,
	).Scan(&last, &s.CurrentStreak, &s.LongestStreak)
	if errors.Is(err, sql.ErrNoRows) {
		return core.StreakState{}, nil
	}
	if err != nil {
		return core.StreakState{}, fmt.Errorf("get streak: %w", err)
	}
	if s.LastEntryDate, err = scanNullDate(last); err != nil {
		return core.StreakState{}, err
	}
	return s, nil
}

// SwapStreak is a compare-and-swap on the three streak columns. A concurrent writer
// that got there first makes the WHERE clause miss and swapped comes back false.
func (r *SQLiteRepository) SwapStreak(ctx context.Context, userID string, prev, next core.StreakState) (bool, error) {
	now := formatTime(time.Now())
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (id, created_at, updated_at) VALUES (?, ?, ?)`,
		userID, now, now); err != nil {
		return false, fmt.Errorf("ensure user: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET last_entry_date = ?, current_streak = ?, longest_streak = ?, updated_at = ?
		WHERE id = ? AND last_entry_date IS ? AND current_streak = ? AND longest_streak = ?`,
		nullDate(next.LastEntryDate), next.CurrentStreak, next.LongestStreak, now,
		userID, nullDate(prev.LastEntryDate), prev.CurrentStreak, prev.LongestStreak)
	if err != nil {
		return false, fmt.Errorf("swap streak: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// SetStreak overwrites the streak unconditionally. Used by the recompute tool only.
func (r *SQLiteRepository) SetStreak(ctx context.Context, userID string, s core.StreakState) error {
	now := formatTime(time.Now())
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, last_entry_date, current_streak, longest_streak, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			last_entry_date = excluded.last_entry_date,
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			updated_at = excluded.updated_at`,
		userID, nullDate(s.LastEntryDate), s.CurrentStreak, s.LongestStreak, now, now)
	if err != nil {
		return fmt.Errorf("set streak: %w", err)
	}
	return nil
}
