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

const paymentLinkColumns = `id, asaas_id, name, description, url,
	billing_type, charge_type, status, value, due_date_limit_days,
	max_installments, customer_id, synced, created_at, updated_at`

func scanPaymentLink(row interface{ Scan(...any) error }) (*model.PaymentLink, error) {
	var l model.PaymentLink
	var value sql.NullFloat64
	var dueDays, maxInstallments, customerID sql.NullInt64

	err := row.Scan(
		&l.ID, &l.AsaasID, &l.Name, &l.Description, &l.URL,
		&l.BillingType, &l.ChargeType, &l.Status, &value, &dueDays,
		&maxInstallments, &customerID, &l.Synced, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if value.Valid {
		l.Value = &value.Float64
	}
	if dueDays.Valid {
		n := int(dueDays.Int64)
		l.DueDateLimitDays = &n
	}
	if maxInstallments.Valid {
		n := int(maxInstallments.Int64)
		l.MaxInstallments = &n
	}
	if customerID.Valid {
		l.CustomerID = &customerID.Int64
	}
	return &l, nil
}

func nullableFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// CreatePaymentLink inserts a new payment link.
func (s *SQLiteStorage) CreatePaymentLink(ctx context.Context, l *model.PaymentLink) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePaymentLink(l); err != nil {
		return err
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO payment_links (asaas_id, name, description, url,
			billing_type, charge_type, status, value, due_date_limit_days,
			max_installments, customer_id, synced, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.AsaasID, l.Name, l.Description, l.URL,
		l.BillingType, l.ChargeType, l.Status, nullableFloat(l.Value),
		nullableInt(l.DueDateLimitDays), nullableInt(l.MaxInstallments),
		nullableID(l.CustomerID), l.Synced, now, now)
	if err != nil {
		return fmt.Errorf("failed to create payment link: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get payment link ID: %w", err)
	}

	l.ID = id
	l.CreatedAt = now
	l.UpdatedAt = now

	slog.Info("created payment link", "id", id, "name", l.Name)
	return nil
}

// UpdatePaymentLink replaces the stored fields of an existing payment link.
func (s *SQLiteStorage) UpdatePaymentLink(ctx context.Context, l *model.PaymentLink) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePaymentLink(l); err != nil {
		return err
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE payment_links
		SET asaas_id = ?, name = ?, description = ?, url = ?,
			billing_type = ?, charge_type = ?, status = ?, value = ?,
			due_date_limit_days = ?, max_installments = ?, customer_id = ?,
			synced = ?, updated_at = ?
		WHERE id = ?`,
		l.AsaasID, l.Name, l.Description, l.URL,
		l.BillingType, l.ChargeType, l.Status, nullableFloat(l.Value),
		nullableInt(l.DueDateLimitDays), nullableInt(l.MaxInstallments),
		nullableID(l.CustomerID), l.Synced, now, l.ID)
	if err != nil {
		return fmt.Errorf("failed to update payment link: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("payment link %d: %w", l.ID, common.ErrNotFound)
	}

	l.UpdatedAt = now
	return nil
}

// ListPaymentLinks returns all payment links, most recent first.
func (s *SQLiteStorage) ListPaymentLinks(ctx context.Context) ([]model.PaymentLink, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+paymentLinkColumns+` FROM payment_links ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment links: %w", err)
	}
	defer rows.Close()

	var links []model.PaymentLink
	for rows.Next() {
		l, err := scanPaymentLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment link: %w", err)
		}
		links = append(links, *l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment links: %w", err)
	}
	return links, nil
}

// UpsertPaymentLinkByAsaasID inserts or refreshes a payment link mirrored
// from the billing platform. It reports whether a new row was created.
func (s *SQLiteStorage) UpsertPaymentLinkByAsaasID(ctx context.Context, l *model.PaymentLink) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validatePaymentLink(l); err != nil {
		return false, err
	}
	if err := validateString(l.AsaasID, "asaasID"); err != nil {
		return false, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+paymentLinkColumns+` FROM payment_links WHERE asaas_id = ?`, l.AsaasID)

	existing, err := scanPaymentLink(row)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to query payment link: %w", err)
	}

	l.Synced = true
	if existing == nil {
		if err := s.CreatePaymentLink(ctx, l); err != nil {
			return false, err
		}
		return true, nil
	}

	l.ID = existing.ID
	l.CreatedAt = existing.CreatedAt
	if err := s.UpdatePaymentLink(ctx, l); err != nil {
		return false, err
	}
	return false, nil
}
