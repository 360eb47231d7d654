package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kantong/internal/core"

	"github.com/shopspring/decimal"
)

const goalColumns = `goals.id, goals.user_id, goals.title, goals.description, goals.target_amount,
	goals.target_date, goals.icon, goals.color, goals.is_active, goals.achieved_at,
	goals.created_at, goals.updated_at`

func scanGoal(s rowScanner) (core.Goal, error) {
	var (
		g                    core.Goal
		target               decimal.NullDecimal
		targetDate, achieved sql.NullString
		createdAt, updatedAt string
	)
	err := s.Scan(&g.ID, &g.UserID, &g.Title, &g.Description, &target,
		&targetDate, &g.Icon, &g.Color, &g.IsActive, &achieved,
		&createdAt, &updatedAt)
	if err != nil {
		return core.Goal{}, err
	}
	if target.Valid {
		g.TargetAmount = &target.Decimal
	}
	if g.TargetDate, err = scanNullDate(targetDate); err != nil {
		return core.Goal{}, err
	}
	if g.AchievedAt, err = scanNullTime(achieved); err != nil {
		return core.Goal{}, err
	}
	if g.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Goal{}, err
	}
	if g.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, title, description, target_amount, target_date,
			icon, color, is_active, achieved_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Title, g.Description, nullDecimal(g.TargetAmount), nullDate(g.TargetDate),
		g.Icon, g.Color, boolInt(g.IsActive), nullTime(g.AchievedAt),
		formatTime(g.CreatedAt), formatTime(g.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}

	slog.InfoContext(ctx, "Goal saved to SQLite", "id", g.ID, "user_id", g.UserID)
	return nil
}

// UpdateGoal writes the editable fields. Activity and achievement only move through AchieveGoal.
func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE goals SET title = ?, description = ?, target_amount = ?, target_date = ?,
			icon = ?, color = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		g.Title, g.Description, nullDecimal(g.TargetAmount), nullDate(g.TargetDate),
		g.Icon, g.Color, formatTime(g.UpdatedAt),
		g.ID, g.UserID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return affected(res)
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		selectLive(goalColumns, "goals", "goals", "goals.id = ? AND goals.user_id = ?"), id, userID)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, ErrNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID string, activeOnly bool) ([]core.Goal, error) {
	where := "goals.user_id = ?"
	if activeOnly {
		where += " AND goals.is_active = 1"
	}
	query := selectLive(goalColumns, "goals", "goals", where) +
		" ORDER BY goals.is_active DESC, goals.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return goals, nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id string, at time.Time) (int, error) {
	var unlinked int
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE goals SET deleted_at = ?, updated_at = ? WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
			formatTime(at), formatTime(at), id, userID)
		if err != nil {
			return fmt.Errorf("soft delete goal: %w", err)
		}
		if err := affected(res); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx,
			`UPDATE budgets SET goal_id = NULL, updated_at = ? WHERE goal_id = ?`, formatTime(at), id)
		if err != nil {
			return fmt.Errorf("unlink goal budgets: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		unlinked = int(n)
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Goal deleted", "id", id, "unlinked_budgets", unlinked)
	return unlinked, nil
}

func (r *SQLiteRepository) AchieveGoal(ctx context.Context, userID, id string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE goals SET is_active = 0, achieved_at = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND is_active = 1 AND deleted_at IS NULL`,
		formatTime(at), formatTime(at), id, userID)
	if err != nil {
		return false, fmt.Errorf("achieve goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
