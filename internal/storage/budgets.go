package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"kantong/internal/core"

	"github.com/shopspring/decimal"
)

const budgetColumns = `b.id, b.user_id, b.month, b.year, b.total_income,
	b.needs_percentage, b.wants_percentage, b.savings_percentage,
	b.needs_amount, b.wants_amount, b.savings_amount,
	b.daily_budget, b.goal_id, b.notes, b.created_at, b.updated_at,
	g.title, g.target_amount`

// The linked goal is embedded only while it is live.
const budgetFrom = `budgets b LEFT JOIN goals g ON g.id = b.goal_id AND g.deleted_at IS NULL`

func scanBudget(s rowScanner) (core.Budget, error) {
	var (
		b                    core.Budget
		daily, goalTarget    decimal.NullDecimal
		goalID, goalTitle    sql.NullString
		createdAt, updatedAt string
	)
	err := s.Scan(&b.ID, &b.UserID, &b.Month, &b.Year, &b.TotalIncome,
		&b.NeedsPercentage, &b.WantsPercentage, &b.SavingsPercentage,
		&b.NeedsAmount, &b.WantsAmount, &b.SavingsAmount,
		&daily, &goalID, &b.Notes, &createdAt, &updatedAt,
		&goalTitle, &goalTarget)
	if err != nil {
		return core.Budget{}, err
	}
	if daily.Valid {
		b.DailyBudget = &daily.Decimal
	}
	b.GoalID = stringPtr(goalID)
	if b.GoalID != nil && goalTitle.Valid {
		ref := &core.GoalRef{ID: *b.GoalID, Title: goalTitle.String}
		if goalTarget.Valid {
			ref.TargetAmount = &goalTarget.Decimal
		}
		b.Goal = ref
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Budget{}, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, month, year, total_income,
			needs_percentage, wants_percentage, savings_percentage,
			needs_amount, wants_amount, savings_amount,
			daily_budget, goal_id, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Month, b.Year, b.TotalIncome,
		b.NeedsPercentage, b.WantsPercentage, b.SavingsPercentage,
		b.NeedsAmount, b.WantsAmount, b.SavingsAmount,
		nullDecimal(b.DailyBudget), nullString(b.GoalID), b.Notes,
		formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved to SQLite",
		"id", b.ID,
		"user_id", b.UserID,
		"month", b.Month,
		"year", b.Year)
	return nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets SET total_income = ?,
			needs_percentage = ?, wants_percentage = ?, savings_percentage = ?,
			needs_amount = ?, wants_amount = ?, savings_amount = ?,
			daily_budget = ?, goal_id = ?, notes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		b.TotalIncome,
		b.NeedsPercentage, b.WantsPercentage, b.SavingsPercentage,
		b.NeedsAmount, b.WantsAmount, b.SavingsAmount,
		nullDecimal(b.DailyBudget), nullString(b.GoalID), b.Notes, formatTime(b.UpdatedAt),
		b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return affected(res)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id string) (int, error) {
	var orphaned int
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var owner string
		err := tx.QueryRowContext(ctx, `SELECT user_id FROM budgets WHERE id = ?`, id).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != userID) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get budget owner: %w", err)
		}

		// Unlink explicitly, soft-deleted rows included, so the result does not depend
		// on the connection's foreign key setting. Every unlinked row is counted.
		res, err := tx.ExecContext(ctx, `UPDATE expenses SET budget_id = NULL WHERE budget_id = ?`, id)
		if err != nil {
			return fmt.Errorf("unlink budget expenses: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		orphaned = int(n)
		if _, err := tx.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete budget: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Budget deleted", "id", id, "orphaned_expenses", orphaned)
	return orphaned, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM `+budgetFrom+` WHERE b.id = ? AND b.user_id = ?`, id, userID)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) GetBudgetByMonth(ctx context.Context, userID string, year, month int) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM `+budgetFrom+` WHERE b.user_id = ? AND b.year = ? AND b.month = ?`,
		userID, year, month)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget by month: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	return r.queryBudgets(ctx,
		`SELECT `+budgetColumns+` FROM `+budgetFrom+` WHERE b.user_id = ? ORDER BY b.year DESC, b.month DESC`,
		userID)
}

func (r *SQLiteRepository) ListBudgetsByGoal(ctx context.Context, userID, goalID string) ([]core.Budget, error) {
	return r.queryBudgets(ctx,
		`SELECT `+budgetColumns+` FROM `+budgetFrom+` WHERE b.user_id = ? AND b.goal_id = ? ORDER BY b.year DESC, b.month DESC`,
		userID, goalID)
}

func (r *SQLiteRepository) queryBudgets(ctx context.Context, query string, args ...any) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return budgets, nil
}
