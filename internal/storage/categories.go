package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"kantong/internal/core"
)

const categoryColumns = `categories.id, categories.name, categories.type, categories.icon, categories.color,
	categories.is_system, categories.parent_id, categories.user_id,
	categories.created_at, categories.updated_at`

func scanCategory(s rowScanner) (core.Category, error) {
	var (
		c                    core.Category
		parentID, userID     sql.NullString
		createdAt, updatedAt string
	)
	err := s.Scan(&c.ID, &c.Name, &c.Type, &c.Icon, &c.Color,
		&c.IsSystem, &parentID, &userID, &createdAt, &updatedAt)
	if err != nil {
		return core.Category{}, err
	}
	c.ParentID = stringPtr(parentID)
	c.UserID = stringPtr(userID)
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Category{}, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, type, icon, color, is_system, parent_id, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, string(c.Type), c.Icon, c.Color, boolInt(c.IsSystem),
		nullString(c.ParentID), nullString(c.UserID),
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}

	slog.InfoContext(ctx, "Category saved to SQLite", "id", c.ID, "name", c.Name, "type", c.Type)
	return nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, type = ?, icon = ?, color = ?, parent_id = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		c.Name, string(c.Type), c.Icon, c.Color, nullString(c.ParentID), formatTime(c.UpdatedAt), c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return affected(res)
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, selectLive(categoryColumns, "categories", "categories", "categories.id = ?"), id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	query := selectLive(categoryColumns, "categories", "categories",
		"(categories.is_system = 1 OR categories.user_id = ?)") +
		" ORDER BY categories.type, categories.is_system DESC, categories.name"

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	slog.DebugContext(ctx, "Retrieved categories", "count", len(categories))
	return categories, nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		formatTime(at), formatTime(at), id)
	if err != nil {
		return fmt.Errorf("soft delete category: %w", err)
	}
	return affected(res)
}

func (r *SQLiteRepository) CountCategoryExpenses(ctx context.Context, id string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses WHERE category_id = ? AND deleted_at IS NULL`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count category expenses: %w", err)
	}
	return n, nil
}
