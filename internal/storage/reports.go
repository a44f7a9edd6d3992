package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/contaflow/contaflow/internal/model"
	"github.com/contaflow/contaflow/internal/service"
)

// topCustomerLimit caps the customer ranking in the report summary.
const topCustomerLimit = 10

// GetReportSummary aggregates categorized transactions for a period into
// per-category totals, a customer revenue ranking and reconciliation counts.
func (s *SQLiteStorage) GetReportSummary(ctx context.Context, start, end time.Time) (*service.ReportSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %v to %v", ErrInvalidDateRange, start, end)
	}

	summary := &service.ReportSummary{
		Start: start,
		End:   end,
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT cat.code, cat.name, cat.type, COUNT(t.id), SUM(t.amount)
		FROM transactions t
		JOIN categories cat ON cat.id = t.category_id
		WHERE t.date >= ? AND t.date <= ?
		GROUP BY cat.id
		ORDER BY cat.code`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query category summary: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cs service.CategorySummary
		if err := rows.Scan(&cs.Code, &cs.Name, &cs.Type, &cs.Count, &cs.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan category summary: %w", err)
		}
		summary.ByCategory = append(summary.ByCategory, cs)

		switch cs.Type {
		case model.CategoryRevenue:
			summary.TotalRevenue += cs.Amount
		case model.CategoryExpense:
			summary.TotalExpenses += cs.Amount
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category summary: %w", err)
	}
	summary.Balance = summary.TotalRevenue + summary.TotalExpenses

	customerRows, err := s.db.QueryContext(ctx, `
		SELECT c.name, COUNT(t.id), SUM(t.amount)
		FROM transactions t
		JOIN customers c ON c.id = t.customer_id
		WHERE t.date >= ? AND t.date <= ? AND t.amount > 0
		GROUP BY c.id
		ORDER BY SUM(t.amount) DESC
		LIMIT ?`, start, end, topCustomerLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query customer summary: %w", err)
	}
	defer customerRows.Close()

	for customerRows.Next() {
		var cs service.CustomerSummary
		if err := customerRows.Scan(&cs.Name, &cs.Count, &cs.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan customer summary: %w", err)
		}
		summary.TopCustomers = append(summary.TopCustomers, cs)
	}
	if err := customerRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customer summary: %w", err)
	}

	statusRows, err := s.db.QueryContext(ctx, `
		SELECT t.reconciliation, COUNT(t.id)
		FROM transactions t
		WHERE t.date >= ? AND t.date <= ?
		GROUP BY t.reconciliation`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query reconciliation stats: %w", err)
	}
	defer statusRows.Close()

	for statusRows.Next() {
		var status model.ReconciliationStatus
		var count int
		if err := statusRows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan reconciliation stats: %w", err)
		}
		switch status {
		case model.Unreconciled:
			summary.Reconciliation.Unreconciled = count
		case model.ReconciledAuto:
			summary.Reconciliation.Auto = count
		case model.ReconciledManual:
			summary.Reconciliation.Manual = count
		}
	}
	if err := statusRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reconciliation stats: %w", err)
	}

	return summary, nil
}
