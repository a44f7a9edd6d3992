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

const customerColumns = `id, name, cpf_cnpj, email, phone, mobile_phone,
	address, address_number, complement, province, postal_code,
	notes, asaas_id, synced, created_at, updated_at`

func scanCustomer(row interface{ Scan(...any) error }) (*model.Customer, error) {
	var c model.Customer
	err := row.Scan(
		&c.ID, &c.Name, &c.CpfCnpj, &c.Email, &c.Phone, &c.MobilePhone,
		&c.Address, &c.AddressNumber, &c.Complement, &c.Province, &c.PostalCode,
		&c.Notes, &c.AsaasID, &c.Synced, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCustomer inserts a new customer and fills in its generated ID.
func (s *SQLiteStorage) CreateCustomer(ctx context.Context, c *model.Customer) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCustomer(c); err != nil {
		return err
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (name, cpf_cnpj, email, phone, mobile_phone,
			address, address_number, complement, province, postal_code,
			notes, asaas_id, synced, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.CpfCnpj, c.Email, c.Phone, c.MobilePhone,
		c.Address, c.AddressNumber, c.Complement, c.Province, c.PostalCode,
		c.Notes, c.AsaasID, c.Synced, now, now)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get customer ID: %w", err)
	}

	c.ID = id
	c.CreatedAt = now
	c.UpdatedAt = now

	slog.Info("created customer", "id", id, "name", c.Name)
	return nil
}

// UpdateCustomer replaces the stored profile of an existing customer.
func (s *SQLiteStorage) UpdateCustomer(ctx context.Context, c *model.Customer) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCustomer(c); err != nil {
		return err
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET name = ?, cpf_cnpj = ?, email = ?, phone = ?, mobile_phone = ?,
			address = ?, address_number = ?, complement = ?, province = ?,
			postal_code = ?, notes = ?, asaas_id = ?, synced = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.CpfCnpj, c.Email, c.Phone, c.MobilePhone,
		c.Address, c.AddressNumber, c.Complement, c.Province,
		c.PostalCode, c.Notes, c.AsaasID, c.Synced, now, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("customer %d: %w", c.ID, common.ErrNotFound)
	}

	c.UpdatedAt = now
	return nil
}

// DeleteCustomer removes a customer. Subscriptions cascade; transactions
// keep the row but lose the link.
func (s *SQLiteStorage) DeleteCustomer(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("customer %d: %w", id, common.ErrNotFound)
	}

	slog.Info("deleted customer", "id", id)
	return nil
}

// GetCustomer returns a customer by its local ID.
func (s *SQLiteStorage) GetCustomer(ctx context.Context, id int64) (*model.Customer, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = ?`, id)

	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query customer: %w", err)
	}
	return c, nil
}

// GetCustomerByAsaasID returns the customer linked to a billing platform ID.
func (s *SQLiteStorage) GetCustomerByAsaasID(ctx context.Context, asaasID string) (*model.Customer, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(asaasID, "asaasID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE asaas_id = ?`, asaasID)

	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %s: %w", asaasID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query customer: %w", err)
	}
	return c, nil
}

// ListCustomers returns customers ordered by name. A non-empty search term
// filters on name, document and email.
func (s *SQLiteStorage) ListCustomers(ctx context.Context, search string) ([]model.Customer, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + customerColumns + ` FROM customers`
	args := []any{}
	if search != "" {
		query += ` WHERE name LIKE ? OR cpf_cnpj LIKE ? OR email LIKE ?`
		like := "%" + search + "%"
		args = append(args, like, like, like)
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}
	return customers, nil
}

// UpsertCustomerByAsaasID inserts or refreshes the customer mirrored from the
// billing platform. It reports whether a new row was created.
func (s *SQLiteStorage) UpsertCustomerByAsaasID(ctx context.Context, c *model.Customer) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateCustomer(c); err != nil {
		return false, err
	}
	if err := validateString(c.AsaasID, "asaasID"); err != nil {
		return false, err
	}

	existing, err := s.GetCustomerByAsaasID(ctx, c.AsaasID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return false, err
	}

	c.Synced = true
	if existing == nil {
		if err := s.CreateCustomer(ctx, c); err != nil {
			return false, err
		}
		return true, nil
	}

	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	if err := s.UpdateCustomer(ctx, c); err != nil {
		return false, err
	}
	return false, nil
}
