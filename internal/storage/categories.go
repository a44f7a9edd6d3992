package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/contaflow/contaflow/internal/common"
	"github.com/contaflow/contaflow/internal/model"
)

const categoryColumns = `id, code, name, description, type, parent_id,
	is_active, created_at, updated_at`

func scanCategory(row interface{ Scan(...any) error }) (*model.Category, error) {
	var cat model.Category
	var parentID sql.NullInt64

	err := row.Scan(
		&cat.ID, &cat.Code, &cat.Name, &cat.Description, &cat.Type, &parentID,
		&cat.IsActive, &cat.CreatedAt, &cat.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		cat.ParentID = &parentID.Int64
	}
	return &cat, nil
}

func nullableID(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

// CreateCategory inserts a new chart-of-accounts node.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, cat *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(cat); err != nil {
		return err
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (code, name, description, type, parent_id,
			is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		cat.Code, cat.Name, cat.Description, cat.Type, nullableID(cat.ParentID),
		cat.IsActive, now, now)
	if isDuplicate(err) {
		return fmt.Errorf("category code %s: %w", cat.Code, common.ErrDuplicateEntry)
	}
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get category ID: %w", err)
	}

	cat.ID = id
	cat.CreatedAt = now
	cat.UpdatedAt = now

	slog.Info("created category", "code", cat.Code, "name", cat.Name)
	return nil
}

// UpdateCategory replaces the stored fields of an existing category.
func (s *SQLiteStorage) UpdateCategory(ctx context.Context, cat *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(cat); err != nil {
		return err
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE categories
		SET code = ?, name = ?, description = ?, type = ?, parent_id = ?,
			is_active = ?, updated_at = ?
		WHERE id = ?`,
		cat.Code, cat.Name, cat.Description, cat.Type, nullableID(cat.ParentID),
		cat.IsActive, now, cat.ID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("category %d: %w", cat.ID, common.ErrNotFound)
	}

	cat.UpdatedAt = now
	return nil
}

// DeleteCategory removes a category. Rules targeting it cascade; categorized
// transactions fall back to unlinked.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("category %d: %w", id, common.ErrNotFound)
	}

	slog.Info("deleted category", "id", id)
	return nil
}

// GetCategory returns a category by its local ID.
func (s *SQLiteStorage) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)

	cat, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return cat, nil
}

// GetCategoryByCode returns a category by its chart-of-accounts code.
func (s *SQLiteStorage) GetCategoryByCode(ctx context.Context, code string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(code, "code"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE code = ?`, code)

	cat, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %s: %w", code, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return cat, nil
}

// ListCategories returns active categories ordered by code. An empty
// categoryType returns both revenue and expense nodes.
func (s *SQLiteStorage) ListCategories(ctx context.Context, categoryType model.CategoryType) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + categoryColumns + ` FROM categories WHERE is_active = 1`
	args := []any{}
	if categoryType != "" {
		query += ` AND type = ?`
		args = append(args, categoryType)
	}
	query += ` ORDER BY code`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}
