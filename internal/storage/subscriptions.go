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

const subscriptionColumns = `s.id, s.customer_id, c.name, s.description, s.asaas_id,
	s.cycle, s.billing_type, s.status, s.next_due_date, s.end_date,
	s.max_payments, s.value, s.synced, s.created_at, s.updated_at`

func scanSubscription(row interface{ Scan(...any) error }) (*model.Subscription, error) {
	var sub model.Subscription
	var endDate sql.NullTime
	var maxPayments sql.NullInt64

	err := row.Scan(
		&sub.ID, &sub.CustomerID, &sub.CustomerName, &sub.Description, &sub.AsaasID,
		&sub.Cycle, &sub.BillingType, &sub.Status, &sub.NextDueDate, &endDate,
		&maxPayments, &sub.Value, &sub.Synced, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if endDate.Valid {
		sub.EndDate = &endDate.Time
	}
	if maxPayments.Valid {
		n := int(maxPayments.Int64)
		sub.MaxPayments = &n
	}
	return &sub, nil
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullableTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

// CreateSubscription inserts a new subscription and fills in its generated ID.
func (s *SQLiteStorage) CreateSubscription(ctx context.Context, sub *model.Subscription) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSubscription(sub); err != nil {
		return err
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (customer_id, description, asaas_id, cycle,
			billing_type, status, next_due_date, end_date, max_payments,
			value, synced, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.CustomerID, sub.Description, sub.AsaasID, sub.Cycle,
		sub.BillingType, sub.Status, sub.NextDueDate, nullableTime(sub.EndDate),
		nullableInt(sub.MaxPayments), sub.Value, sub.Synced, now, now)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get subscription ID: %w", err)
	}

	sub.ID = id
	sub.CreatedAt = now
	sub.UpdatedAt = now

	slog.Info("created subscription", "id", id, "customer_id", sub.CustomerID, "value", sub.Value)
	return nil
}

// UpdateSubscription replaces the stored fields of an existing subscription.
func (s *SQLiteStorage) UpdateSubscription(ctx context.Context, sub *model.Subscription) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSubscription(sub); err != nil {
		return err
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET customer_id = ?, description = ?, asaas_id = ?, cycle = ?,
			billing_type = ?, status = ?, next_due_date = ?, end_date = ?,
			max_payments = ?, value = ?, synced = ?, updated_at = ?
		WHERE id = ?`,
		sub.CustomerID, sub.Description, sub.AsaasID, sub.Cycle,
		sub.BillingType, sub.Status, sub.NextDueDate, nullableTime(sub.EndDate),
		nullableInt(sub.MaxPayments), sub.Value, sub.Synced, now, sub.ID)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("subscription %d: %w", sub.ID, common.ErrNotFound)
	}

	sub.UpdatedAt = now
	return nil
}

// DeleteSubscription removes a subscription.
func (s *SQLiteStorage) DeleteSubscription(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("subscription %d: %w", id, common.ErrNotFound)
	}

	slog.Info("deleted subscription", "id", id)
	return nil
}

// GetSubscription returns a subscription by its local ID.
func (s *SQLiteStorage) GetSubscription(ctx context.Context, id int64) (*model.Subscription, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions s
		JOIN customers c ON c.id = s.customer_id
		WHERE s.id = ?`, id)

	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subscription %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query subscription: %w", err)
	}
	return sub, nil
}

// ListSubscriptions returns subscriptions ordered by next due date. A
// non-zero customerID limits the list to that customer.
func (s *SQLiteStorage) ListSubscriptions(ctx context.Context, customerID int64) ([]model.Subscription, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions s
		JOIN customers c ON c.id = s.customer_id`
	args := []any{}
	if customerID != 0 {
		query += ` WHERE s.customer_id = ?`
		args = append(args, customerID)
	}
	query += ` ORDER BY s.next_due_date, s.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, *sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriptions: %w", err)
	}
	return subs, nil
}

// UpsertSubscriptionByAsaasID inserts or refreshes a subscription mirrored
// from the billing platform. It reports whether a new row was created.
func (s *SQLiteStorage) UpsertSubscriptionByAsaasID(ctx context.Context, sub *model.Subscription) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateSubscription(sub); err != nil {
		return false, err
	}
	if err := validateString(sub.AsaasID, "asaasID"); err != nil {
		return false, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions s
		JOIN customers c ON c.id = s.customer_id
		WHERE s.asaas_id = ?`, sub.AsaasID)

	existing, err := scanSubscription(row)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to query subscription: %w", err)
	}

	sub.Synced = true
	if existing == nil {
		if err := s.CreateSubscription(ctx, sub); err != nil {
			return false, err
		}
		return true, nil
	}

	sub.ID = existing.ID
	sub.CreatedAt = existing.CreatedAt
	if err := s.UpdateSubscription(ctx, sub); err != nil {
		return false, err
	}
	return false, nil
}
