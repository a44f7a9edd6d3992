// Package storage provides the SQLite persistence layer for contaflow.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/contaflow/contaflow/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidDateRange = errors.New("start date must be before end date")
	ErrInvalidRule      = errors.New("invalid rule")
	ErrInvalidRecord    = errors.New("invalid record")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateCustomer(c *model.Customer) error {
	if c == nil {
		return fmt.Errorf("%w: customer", ErrNilParameter)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: customer missing name", ErrInvalidRecord)
	}
	return nil
}

func validateSubscription(s *model.Subscription) error {
	if s == nil {
		return fmt.Errorf("%w: subscription", ErrNilParameter)
	}
	if s.CustomerID == 0 {
		return fmt.Errorf("%w: subscription missing customer", ErrInvalidRecord)
	}
	if s.NextDueDate.IsZero() {
		return fmt.Errorf("%w: subscription missing next due date", ErrInvalidRecord)
	}
	return nil
}

func validateCategory(c *model.Category) error {
	if c == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if strings.TrimSpace(c.Code) == "" {
		return fmt.Errorf("%w: category missing code", ErrInvalidRecord)
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: category missing name", ErrInvalidRecord)
	}
	switch c.Type {
	case model.CategoryRevenue, model.CategoryExpense:
	default:
		return fmt.Errorf("%w: unknown category type %q", ErrInvalidRecord, c.Type)
	}
	return nil
}

func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: transaction missing id", ErrInvalidRecord)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: transaction missing date", ErrInvalidRecord)
	}
	return nil
}

func validateRule(r *model.Rule) error {
	if r == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if strings.TrimSpace(r.Value) == "" {
		return fmt.Errorf("%w: missing match value", ErrInvalidRule)
	}
	if r.CategoryID == 0 {
		return fmt.Errorf("%w: missing category", ErrInvalidRule)
	}
	switch r.Field {
	case model.FieldDescription, model.FieldType, model.FieldCustomer:
	default:
		return fmt.Errorf("%w: unknown field %q", ErrInvalidRule, r.Field)
	}
	switch r.Operator {
	case model.OperatorContains, model.OperatorEquals,
		model.OperatorStartsWith, model.OperatorEndsWith:
	default:
		return fmt.Errorf("%w: unknown operator %q", ErrInvalidRule, r.Operator)
	}
	return nil
}

func validatePaymentLink(l *model.PaymentLink) error {
	if l == nil {
		return fmt.Errorf("%w: payment link", ErrNilParameter)
	}
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: payment link missing name", ErrInvalidRecord)
	}
	return nil
}
