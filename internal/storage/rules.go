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

const ruleColumns = `r.id, r.name, r.field, r.operator, r.value,
	r.category_id, cat.code, r.priority, r.times_applied, r.is_active,
	r.created_at, r.updated_at`

func scanRule(row interface{ Scan(...any) error }) (*model.Rule, error) {
	var r model.Rule
	err := row.Scan(
		&r.ID, &r.Name, &r.Field, &r.Operator, &r.Value,
		&r.CategoryID, &r.CategoryCode, &r.Priority, &r.TimesApplied,
		&r.IsActive, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRule inserts a new categorization rule.
func (s *SQLiteStorage) CreateRule(ctx context.Context, r *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(r); err != nil {
		return err
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO rules (name, field, operator, value, category_id,
			priority, times_applied, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		r.Name, r.Field, r.Operator, r.Value, r.CategoryID,
		r.Priority, r.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get rule ID: %w", err)
	}

	r.ID = id
	r.TimesApplied = 0
	r.CreatedAt = now
	r.UpdatedAt = now

	slog.Info("created rule", "id", id, "field", r.Field, "operator", r.Operator, "value", r.Value)
	return nil
}

// UpdateRule replaces the stored fields of an existing rule. The
// times_applied counter is not touched here.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, r *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(r); err != nil {
		return err
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE rules
		SET name = ?, field = ?, operator = ?, value = ?, category_id = ?,
			priority = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		r.Name, r.Field, r.Operator, r.Value, r.CategoryID,
		r.Priority, r.IsActive, now, r.ID)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %d: %w", r.ID, common.ErrNotFound)
	}

	r.UpdatedAt = now
	return nil
}

// DeleteRule removes a rule.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
	}

	slog.Info("deleted rule", "id", id)
	return nil
}

// GetRule returns a rule by its ID.
func (s *SQLiteStorage) GetRule(ctx context.Context, id int64) (*model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+ruleColumns+`
		FROM rules r
		JOIN categories cat ON cat.id = r.category_id
		WHERE r.id = ?`, id)

	r, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query rule: %w", err)
	}
	return r, nil
}

// GetActiveRules returns the active rules in evaluation order: highest
// priority first, ties broken by ascending id.
func (s *SQLiteStorage) GetActiveRules(ctx context.Context) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryRules(ctx, `
		SELECT `+ruleColumns+`
		FROM rules r
		JOIN categories cat ON cat.id = r.category_id
		WHERE r.is_active = 1
		ORDER BY r.priority DESC, r.id ASC`)
}

// ListRules returns all rules, active or not, in evaluation order.
func (s *SQLiteStorage) ListRules(ctx context.Context) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryRules(ctx, `
		SELECT `+ruleColumns+`
		FROM rules r
		JOIN categories cat ON cat.id = r.category_id
		ORDER BY r.priority DESC, r.id ASC`)
}

func (s *SQLiteStorage) queryRules(ctx context.Context, query string) ([]model.Rule, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []model.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}
	return rules, nil
}

// IncrementRuleTimesApplied bumps the rule's application counter.
func (s *SQLiteStorage) IncrementRuleTimesApplied(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE rules
		SET times_applied = times_applied + 1, updated_at = ?
		WHERE id = ?`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to increment rule counter: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check increment result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %d: %w", id, common.ErrNotFound)
	}
	return nil
}
