package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"kantong/internal/core"
)

const expenseColumns = `expenses.id, expenses.user_id, expenses.name, expenses.amount, expenses.quantity,
	expenses.unit, expenses.expense_date, expenses.expense_time, expenses.category_id,
	expenses.budget_id, expenses.parent_expense_id, expenses.is_group, expenses.payment_method,
	expenses.receipt_url, expenses.notes, expenses.location, expenses.created_at, expenses.updated_at`

func scanExpense(s rowScanner) (core.Expense, error) {
	var (
		e                    core.Expense
		expenseDate          string
		budgetID, parentID   sql.NullString
		createdAt, updatedAt string
	)
	err := s.Scan(&e.ID, &e.UserID, &e.Name, &e.Amount, &e.Quantity,
		&e.Unit, &expenseDate, &e.ExpenseTime, &e.CategoryID,
		&budgetID, &parentID, &e.IsGroup, &e.PaymentMethod,
		&e.ReceiptURL, &e.Notes, &e.Location, &createdAt, &updatedAt)
	if err != nil {
		return core.Expense{}, err
	}
	if e.ExpenseDate, err = core.ParseDate(expenseDate); err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", expenseDate, err)
	}
	e.BudgetID = stringPtr(budgetID)
	e.ParentExpenseID = stringPtr(parentID)
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Expense{}, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, name, amount, quantity, unit, expense_date, expense_time,
			category_id, budget_id, parent_expense_id, is_group, payment_method, receipt_url,
			notes, location, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Name, e.Amount, e.Quantity, e.Unit, e.ExpenseDate.String(), e.ExpenseTime,
		e.CategoryID, nullString(e.BudgetID), nullString(e.ParentExpenseID), boolInt(e.IsGroup),
		e.PaymentMethod, e.ReceiptURL, e.Notes, e.Location,
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"name", e.Name,
		"amount", e.Amount.String(),
		"expense_date", e.ExpenseDate.String())
	return nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET name = ?, amount = ?, quantity = ?, unit = ?, expense_date = ?,
			expense_time = ?, category_id = ?, budget_id = ?, payment_method = ?, receipt_url = ?,
			notes = ?, location = ?, updated_at = ?
		WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		e.Name, e.Amount, e.Quantity, e.Unit, e.ExpenseDate.String(),
		e.ExpenseTime, e.CategoryID, nullString(e.BudgetID), e.PaymentMethod, e.ReceiptURL,
		e.Notes, e.Location, formatTime(e.UpdatedAt),
		e.ID, e.UserID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return affected(res)
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		selectLive(expenseColumns, "expenses", "expenses", "expenses.id = ? AND expenses.user_id = ?"), id, userID)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) ListChildExpenses(ctx context.Context, userID, parentID string) ([]core.Expense, error) {
	query := selectLive(expenseColumns, "expenses", "expenses",
		"expenses.user_id = ? AND expenses.parent_expense_id = ?") +
		" ORDER BY expenses.created_at"
	return r.queryExpenses(ctx, query, userID, parentID)
}

func expenseFilterClause(f core.ExpenseFilter) (string, []any) {
	conds := []string{"expenses.user_id = ?"}
	args := []any{f.UserID}
	if f.From != nil {
		conds = append(conds, "expenses.expense_date >= ?")
		args = append(args, f.From.String())
	}
	if f.To != nil {
		conds = append(conds, "expenses.expense_date <= ?")
		args = append(args, f.To.String())
	}
	if f.CategoryID != "" {
		conds = append(conds, "expenses.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.BudgetID != "" {
		conds = append(conds, "expenses.budget_id = ?")
		args = append(args, f.BudgetID)
	}
	return strings.Join(conds, " AND "), args
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, f core.ExpenseFilter) ([]core.Expense, int, error) {
	f = f.Normalize()
	where, args := expenseFilterClause(f)

	var total int
	if err := r.db.QueryRowContext(ctx, selectLive("COUNT(*)", "expenses", "expenses", where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count expenses: %w", err)
	}

	query := selectLive(expenseColumns, "expenses", "expenses", where) +
		" ORDER BY expenses.expense_date DESC, expenses.created_at DESC LIMIT ? OFFSET ?"
	expenses, err := r.queryExpenses(ctx, query, append(args, f.Limit, f.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	return expenses, total, nil
}

func (r *SQLiteRepository) queryExpenses(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id string, at time.Time) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE expenses SET deleted_at = ?, updated_at = ? WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
			formatTime(at), formatTime(at), id, userID)
		if err != nil {
			return fmt.Errorf("soft delete expense: %w", err)
		}
		if err := affected(res); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE expenses SET deleted_at = ?, updated_at = ? WHERE parent_expense_id = ? AND deleted_at IS NULL`,
			formatTime(at), formatTime(at), id); err != nil {
			return fmt.Errorf("soft delete child expenses: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Expense soft deleted", "id", id)
	return nil
}

// ExpenseLines sums nothing in SQL: amounts are decimal strings and SQLite would
// add them as floats, so aggregation happens in Go.
func (r *SQLiteRepository) ExpenseLines(ctx context.Context, q core.LineQuery) ([]core.ExpenseLine, error) {
	conds := []string{}
	var args []any
	if q.UserID != "" {
		conds = append(conds, "expenses.user_id = ?")
		args = append(args, q.UserID)
	}
	if q.BudgetID != "" {
		conds = append(conds, "expenses.budget_id = ?")
		args = append(args, q.BudgetID)
	}
	if !q.From.IsZero() {
		conds = append(conds, "expenses.expense_date >= ?")
		args = append(args, q.From.String())
	}
	if !q.To.IsZero() {
		conds = append(conds, "expenses.expense_date <= ?")
		args = append(args, q.To.String())
	}

	query := selectLive(
		"expenses.id, expenses.category_id, categories.name, categories.type, expenses.amount",
		"expenses JOIN categories ON categories.id = expenses.category_id",
		"expenses",
		strings.Join(conds, " AND "),
	) + " ORDER BY expenses.expense_date, expenses.created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expense lines: %w", err)
	}
	defer rows.Close()

	var lines []core.ExpenseLine
	for rows.Next() {
		var l core.ExpenseLine
		if err := rows.Scan(&l.ExpenseID, &l.CategoryID, &l.CategoryName, &l.CategoryType, &l.Amount); err != nil {
			return nil, fmt.Errorf("scan expense line: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense lines: %w", err)
	}
	return lines, nil
}

func (r *SQLiteRepository) ExpenseLogTimes(ctx context.Context, userID string) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT created_at FROM expenses WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("query expense log times: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan expense log time: %w", err)
		}
		t, err := parseTime(raw)
		if err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense log times: %w", err)
	}
	return times, nil
}
