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
	"github.com/contaflow/contaflow/internal/service"
)

const transactionColumns = `t.id, t.date, t.description, t.amount, t.type,
	t.customer_id, c.name, t.subscription_id, t.category_id,
	t.reconciliation, t.notes, t.raw_payload, t.synced, t.created_at, t.updated_at`

func scanTransaction(row interface{ Scan(...any) error }) (*model.Transaction, error) {
	var txn model.Transaction
	var customerID, subscriptionID, categoryID sql.NullInt64
	var customerName sql.NullString

	err := row.Scan(
		&txn.ID, &txn.Date, &txn.Description, &txn.Amount, &txn.Type,
		&customerID, &customerName, &subscriptionID, &categoryID,
		&txn.Reconciliation, &txn.Notes, &txn.RawPayload, &txn.Synced,
		&txn.CreatedAt, &txn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if customerID.Valid {
		txn.CustomerID = &customerID.Int64
	}
	if customerName.Valid {
		txn.CustomerName = customerName.String
	}
	if subscriptionID.Valid {
		txn.SubscriptionID = &subscriptionID.Int64
	}
	if categoryID.Valid {
		txn.CategoryID = &categoryID.Int64
	}
	return &txn, nil
}

// UpsertTransaction inserts an imported transaction or refreshes the core
// fields of an existing one. The category, reconciliation status and notes
// of an existing row are preserved, so re-imports never undo reconciliation
// work. It reports whether a new row was created.
func (s *SQLiteStorage) UpsertTransaction(ctx context.Context, txn *model.Transaction) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateTransaction(txn); err != nil {
		return false, err
	}

	existing, err := s.GetTransaction(ctx, txn.ID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return false, err
	}

	now := time.Now()
	if existing == nil {
		if txn.Reconciliation == "" {
			txn.Reconciliation = model.Unreconciled
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO transactions (id, date, description, amount, type,
				customer_id, subscription_id, category_id, reconciliation,
				notes, raw_payload, synced, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			txn.ID, txn.Date, txn.Description, txn.Amount, txn.Type,
			nullableID(txn.CustomerID), nullableID(txn.SubscriptionID),
			nullableID(txn.CategoryID), txn.Reconciliation,
			txn.Notes, txn.RawPayload, txn.Synced, now, now)
		if err != nil {
			return false, fmt.Errorf("failed to insert transaction: %w", err)
		}
		txn.CreatedAt = now
		txn.UpdatedAt = now
		return true, nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE transactions
		SET date = ?, description = ?, amount = ?, type = ?,
			customer_id = ?, subscription_id = ?, raw_payload = ?,
			synced = ?, updated_at = ?
		WHERE id = ?`,
		txn.Date, txn.Description, txn.Amount, txn.Type,
		nullableID(txn.CustomerID), nullableID(txn.SubscriptionID),
		txn.RawPayload, txn.Synced, now, txn.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update transaction: %w", err)
	}

	txn.CategoryID = existing.CategoryID
	txn.Reconciliation = existing.Reconciliation
	txn.Notes = existing.Notes
	txn.CreatedAt = existing.CreatedAt
	txn.UpdatedAt = now
	return false, nil
}

// SaveTransaction persists an operator edit. A transaction saved with a
// category while still unreconciled becomes manually reconciled.
func (s *SQLiteStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	if txn.CategoryID != nil && txn.Reconciliation == model.Unreconciled {
		txn.Reconciliation = model.ReconciledManual
	}
	if txn.Reconciliation == "" {
		txn.Reconciliation = model.Unreconciled
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET date = ?, description = ?, amount = ?, type = ?,
			customer_id = ?, subscription_id = ?, category_id = ?,
			reconciliation = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		txn.Date, txn.Description, txn.Amount, txn.Type,
		nullableID(txn.CustomerID), nullableID(txn.SubscriptionID),
		nullableID(txn.CategoryID), txn.Reconciliation, txn.Notes, now, txn.ID)
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check save result: %w", err)
	}
	if affected > 0 {
		txn.UpdatedAt = now
		return nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, date, description, amount, type,
			customer_id, subscription_id, category_id, reconciliation,
			notes, raw_payload, synced, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, txn.Date, txn.Description, txn.Amount, txn.Type,
		nullableID(txn.CustomerID), nullableID(txn.SubscriptionID),
		nullableID(txn.CategoryID), txn.Reconciliation,
		txn.Notes, txn.RawPayload, txn.Synced, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	txn.CreatedAt = now
	txn.UpdatedAt = now
	return nil
}

// DeleteTransaction removes a transaction.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}

	slog.Info("deleted transaction", "id", id)
	return nil
}

// GetTransaction returns a transaction by its ID.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions t
		LEFT JOIN customers c ON c.id = t.customer_id
		WHERE t.id = ?`, id)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	return txn, nil
}

// ListTransactions returns transactions matching the filter, most recent
// first.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return nil, ErrInvalidDateRange
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions t
		LEFT JOIN customers c ON c.id = t.customer_id
		WHERE 1=1`
	args := []any{}

	if filter.StartDate != nil {
		query += ` AND t.date >= ?`
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		query += ` AND t.date <= ?`
		args = append(args, *filter.EndDate)
	}
	if filter.CategoryID != nil {
		query += ` AND t.category_id = ?`
		args = append(args, *filter.CategoryID)
	}
	if filter.Type != "" {
		query += ` AND t.type = ?`
		args = append(args, filter.Type)
	}
	if filter.Reconciliation != "" {
		query += ` AND t.reconciliation = ?`
		args = append(args, filter.Reconciliation)
	}
	if filter.Search != "" {
		query += ` AND (t.description LIKE ? OR c.name LIKE ?)`
		like := "%" + filter.Search + "%"
		args = append(args, like, like)
	}

	query += ` ORDER BY t.date DESC, t.id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, nil
}

// GetUnreconciledTransactions returns transactions awaiting categorization
// in insertion order, so batch runs are deterministic.
func (s *SQLiteStorage) GetUnreconciledTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions t
		LEFT JOIN customers c ON c.id = t.customer_id
		WHERE t.reconciliation = ?
		ORDER BY t.id`, model.Unreconciled)
	if err != nil {
		return nil, fmt.Errorf("failed to query unreconciled transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, nil
}

// ApplyCategorization assigns a category to a transaction and marks it
// auto-reconciled. This is the engine's write path.
func (s *SQLiteStorage) ApplyCategorization(ctx context.Context, transactionID string, categoryID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET category_id = ?, reconciliation = ?, updated_at = ?
		WHERE id = ?`,
		categoryID, model.ReconciledAuto, time.Now(), transactionID)
	if err != nil {
		return fmt.Errorf("failed to apply categorization: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check categorization result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", transactionID, common.ErrNotFound)
	}
	return nil
}
