package asaas

import (
	"context"
	"fmt"
	"time"

	"github.com/contaflow/contaflow/internal/common"
	"github.com/contaflow/contaflow/internal/service"
)

// MockClient is an in-memory service.BillingClient for tests.
type MockClient struct {
	Customers     []service.BillingCustomer
	Subscriptions []service.BillingSubscription
	Payments      []service.BillingPayment
	Transactions  []service.BillingTransaction
	PaymentLinks  []service.BillingPaymentLink

	// Err, when set, is returned by every call.
	Err error

	// ListCalls counts paginated list requests, across all endpoints.
	ListCalls int

	nextID int
}

var _ service.BillingClient = (*MockClient)(nil)

func (m *MockClient) newID(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s_%06d", prefix, m.nextID)
}

func page[T any](items []T, limit, offset int) ([]T, bool) {
	if offset >= len(items) {
		return nil, false
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], end < len(items)
}

// CreateCustomer stores the customer and returns a generated ID.
func (m *MockClient) CreateCustomer(_ context.Context, c service.BillingCustomer) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	c.ID = m.newID("cus")
	m.Customers = append(m.Customers, c)
	return c.ID, nil
}

// UpdateCustomer replaces the stored customer with the same ID.
func (m *MockClient) UpdateCustomer(_ context.Context, id string, c service.BillingCustomer) error {
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Customers {
		if m.Customers[i].ID == id {
			c.ID = id
			m.Customers[i] = c
			return nil
		}
	}
	return fmt.Errorf("customer %s: %w", id, common.ErrNotFound)
}

// DeleteCustomer removes the stored customer.
func (m *MockClient) DeleteCustomer(_ context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Customers {
		if m.Customers[i].ID == id {
			m.Customers = append(m.Customers[:i], m.Customers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("customer %s: %w", id, common.ErrNotFound)
}

// GetCustomer returns the stored customer.
func (m *MockClient) GetCustomer(_ context.Context, id string) (*service.BillingCustomer, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Customers {
		if m.Customers[i].ID == id {
			c := m.Customers[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("customer %s: %w", id, common.ErrNotFound)
}

// ListCustomers pages through the stored customers.
func (m *MockClient) ListCustomers(_ context.Context, limit, offset int) ([]service.BillingCustomer, bool, error) {
	if m.Err != nil {
		return nil, false, m.Err
	}
	m.ListCalls++
	items, hasMore := page(m.Customers, limit, offset)
	return items, hasMore, nil
}

// CreateSubscription stores the subscription and returns a generated ID.
func (m *MockClient) CreateSubscription(_ context.Context, s service.BillingSubscription) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	s.ID = m.newID("sub")
	m.Subscriptions = append(m.Subscriptions, s)
	return s.ID, nil
}

// UpdateSubscription replaces the stored subscription with the same ID.
func (m *MockClient) UpdateSubscription(_ context.Context, id string, s service.BillingSubscription) error {
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Subscriptions {
		if m.Subscriptions[i].ID == id {
			s.ID = id
			m.Subscriptions[i] = s
			return nil
		}
	}
	return fmt.Errorf("subscription %s: %w", id, common.ErrNotFound)
}

// DeleteSubscription removes the stored subscription.
func (m *MockClient) DeleteSubscription(_ context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	for i := range m.Subscriptions {
		if m.Subscriptions[i].ID == id {
			m.Subscriptions = append(m.Subscriptions[:i], m.Subscriptions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("subscription %s: %w", id, common.ErrNotFound)
}

// ListSubscriptions pages through the stored subscriptions, optionally
// filtered by customer.
func (m *MockClient) ListSubscriptions(_ context.Context, customerID string, limit, offset int) ([]service.BillingSubscription, bool, error) {
	if m.Err != nil {
		return nil, false, m.Err
	}
	m.ListCalls++

	filtered := m.Subscriptions
	if customerID != "" {
		filtered = nil
		for _, s := range m.Subscriptions {
			if s.CustomerID == customerID {
				filtered = append(filtered, s)
			}
		}
	}
	items, hasMore := page(filtered, limit, offset)
	return items, hasMore, nil
}

// ListPayments pages through the stored payments, optionally filtered by
// customer.
func (m *MockClient) ListPayments(_ context.Context, customerID string, limit, offset int) ([]service.BillingPayment, bool, error) {
	if m.Err != nil {
		return nil, false, m.Err
	}
	m.ListCalls++

	filtered := m.Payments
	if customerID != "" {
		filtered = nil
		for _, p := range m.Payments {
			if p.CustomerID == customerID {
				filtered = append(filtered, p)
			}
		}
	}
	items, hasMore := page(filtered, limit, offset)
	return items, hasMore, nil
}

// ListFinancialTransactions pages through the stored statement entries that
// fall inside the date range.
func (m *MockClient) ListFinancialTransactions(_ context.Context, dateFrom, dateTo time.Time, limit, offset int) ([]service.BillingTransaction, bool, error) {
	if m.Err != nil {
		return nil, false, m.Err
	}
	m.ListCalls++

	var filtered []service.BillingTransaction
	for _, t := range m.Transactions {
		if t.Date.Before(dateFrom) || t.Date.After(dateTo) {
			continue
		}
		filtered = append(filtered, t)
	}
	items, hasMore := page(filtered, limit, offset)
	return items, hasMore, nil
}

// CreatePaymentLink stores the link and returns it with generated ID and URL.
func (m *MockClient) CreatePaymentLink(_ context.Context, l service.BillingPaymentLink) (*service.BillingPaymentLink, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	l.ID = m.newID("pl")
	l.URL = "https://pay.example.com/c/" + l.ID
	l.Active = true
	m.PaymentLinks = append(m.PaymentLinks, l)
	return &l, nil
}

// ListPaymentLinks pages through the stored links.
func (m *MockClient) ListPaymentLinks(_ context.Context, limit, offset int) ([]service.BillingPaymentLink, bool, error) {
	if m.Err != nil {
		return nil, false, m.Err
	}
	m.ListCalls++
	items, hasMore := page(m.PaymentLinks, limit, offset)
	return items, hasMore, nil
}
