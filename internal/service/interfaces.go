// Package service defines the contracts between contaflow's components:
// the persistence layer, the billing platform client, and the messaging
// gateway client.
package service

import (
	"context"
	"time"

	"github.com/contaflow/contaflow/internal/model"
)

// TransactionFilter narrows transaction queries.
type TransactionFilter struct {
	StartDate      *time.Time
	EndDate        *time.Time
	CategoryID     *int64
	Type           model.TransactionType
	Reconciliation model.ReconciliationStatus
	Search         string
	Limit          int
}

// Storage is the persistence contract. The SQLite implementation lives in
// internal/storage.
type Storage interface {
	// Customer operations
	CreateCustomer(ctx context.Context, c *model.Customer) error
	UpdateCustomer(ctx context.Context, c *model.Customer) error
	DeleteCustomer(ctx context.Context, id int64) error
	GetCustomer(ctx context.Context, id int64) (*model.Customer, error)
	GetCustomerByAsaasID(ctx context.Context, asaasID string) (*model.Customer, error)
	ListCustomers(ctx context.Context, search string) ([]model.Customer, error)
	UpsertCustomerByAsaasID(ctx context.Context, c *model.Customer) (created bool, err error)

	// Subscription operations
	CreateSubscription(ctx context.Context, s *model.Subscription) error
	UpdateSubscription(ctx context.Context, s *model.Subscription) error
	DeleteSubscription(ctx context.Context, id int64) error
	GetSubscription(ctx context.Context, id int64) (*model.Subscription, error)
	ListSubscriptions(ctx context.Context, customerID int64) ([]model.Subscription, error)
	UpsertSubscriptionByAsaasID(ctx context.Context, s *model.Subscription) (created bool, err error)

	// Chart of accounts
	CreateCategory(ctx context.Context, c *model.Category) error
	UpdateCategory(ctx context.Context, c *model.Category) error
	DeleteCategory(ctx context.Context, id int64) error
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	GetCategoryByCode(ctx context.Context, code string) (*model.Category, error)
	ListCategories(ctx context.Context, categoryType model.CategoryType) ([]model.Category, error)

	// Transaction operations
	UpsertTransaction(ctx context.Context, txn *model.Transaction) (created bool, err error)
	SaveTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	GetUnreconciledTransactions(ctx context.Context) ([]model.Transaction, error)
	ApplyCategorization(ctx context.Context, transactionID string, categoryID int64) error

	// Categorization rules
	CreateRule(ctx context.Context, r *model.Rule) error
	UpdateRule(ctx context.Context, r *model.Rule) error
	DeleteRule(ctx context.Context, id int64) error
	GetRule(ctx context.Context, id int64) (*model.Rule, error)
	GetActiveRules(ctx context.Context) ([]model.Rule, error)
	ListRules(ctx context.Context) ([]model.Rule, error)
	IncrementRuleTimesApplied(ctx context.Context, id int64) error

	// Payment links
	CreatePaymentLink(ctx context.Context, l *model.PaymentLink) error
	UpdatePaymentLink(ctx context.Context, l *model.PaymentLink) error
	ListPaymentLinks(ctx context.Context) ([]model.PaymentLink, error)
	UpsertPaymentLinkByAsaasID(ctx context.Context, l *model.PaymentLink) (created bool, err error)

	// Reporting
	GetReportSummary(ctx context.Context, start, end time.Time) (*ReportSummary, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// BillingCustomer is a customer record as the billing platform represents it.
type BillingCustomer struct {
	ID            string
	Name          string
	CpfCnpj       string
	Email         string
	Phone         string
	MobilePhone   string
	Address       string
	AddressNumber string
	Complement    string
	Province      string
	PostalCode    string
	Observations  string
}

// BillingSubscription is a subscription record on the billing platform.
type BillingSubscription struct {
	ID          string
	CustomerID  string
	Description string
	Cycle       string
	BillingType string
	Status      string
	NextDueDate time.Time
	EndDate     *time.Time
	MaxPayments *int
	Value       float64
}

// BillingPayment is one charge (boleto, card or PIX) on the billing
// platform.
type BillingPayment struct {
	DueDate     time.Time
	PaymentDate *time.Time
	ID          string
	CustomerID  string
	BillingType string
	Status      string
	Description string
	InvoiceURL  string
	Value       float64
	NetValue    float64
}

// BillingTransaction is one row of the platform's financial statement.
type BillingTransaction struct {
	Date        time.Time
	ID          string
	Type        string
	Description string
	CustomerID  string
	RawPayload  string
	Value       float64
}

// BillingPaymentLink is a checkout link hosted by the billing platform.
type BillingPaymentLink struct {
	ID               string
	Name             string
	Description      string
	URL              string
	BillingType      string
	ChargeType       string
	Value            *float64
	DueDateLimitDays *int
	MaxInstallments  *int
	Active           bool
}

// BillingClient is the consumer-side binding to the payment platform's REST
// API. All list calls are offset-paginated and report whether more pages
// remain.
type BillingClient interface {
	CreateCustomer(ctx context.Context, c BillingCustomer) (string, error)
	UpdateCustomer(ctx context.Context, id string, c BillingCustomer) error
	DeleteCustomer(ctx context.Context, id string) error
	GetCustomer(ctx context.Context, id string) (*BillingCustomer, error)
	ListCustomers(ctx context.Context, limit, offset int) ([]BillingCustomer, bool, error)

	CreateSubscription(ctx context.Context, s BillingSubscription) (string, error)
	UpdateSubscription(ctx context.Context, id string, s BillingSubscription) error
	DeleteSubscription(ctx context.Context, id string) error
	ListSubscriptions(ctx context.Context, customerID string, limit, offset int) ([]BillingSubscription, bool, error)

	ListPayments(ctx context.Context, customerID string, limit, offset int) ([]BillingPayment, bool, error)

	ListFinancialTransactions(ctx context.Context, dateFrom, dateTo time.Time, limit, offset int) ([]BillingTransaction, bool, error)

	CreatePaymentLink(ctx context.Context, l BillingPaymentLink) (*BillingPaymentLink, error)
	ListPaymentLinks(ctx context.Context, limit, offset int) ([]BillingPaymentLink, bool, error)
}

// SendResult is the outcome of a notification send. Sends never escalate to
// an error return visible to end users; callers inspect Success and surface
// Error as a warning.
type SendResult struct {
	Error   string
	Success bool
}

// InstanceStatus describes the messaging gateway's connection state.
type InstanceStatus struct {
	Status    string
	Error     string
	Success   bool
	Connected bool
}

// MessagingClient is the consumer-side binding to a WhatsApp-compatible
// send API. One implementation exists per provider.
type MessagingClient interface {
	SendMessage(ctx context.Context, phone, text string) SendResult
	CheckInstanceStatus(ctx context.Context) InstanceStatus
}

// CategorySummary aggregates transactions grouped under one category.
type CategorySummary struct {
	Code   string
	Name   string
	Type   model.CategoryType
	Count  int
	Amount float64
}

// CustomerSummary aggregates revenue received from one customer.
type CustomerSummary struct {
	Name   string
	Count  int
	Amount float64
}

// ReconciliationStats counts transactions per reconciliation status.
type ReconciliationStats struct {
	Unreconciled int
	Auto         int
	Manual       int
}

// ReportSummary is the financial report for a period.
type ReportSummary struct {
	Start          time.Time
	End            time.Time
	ByCategory     []CategorySummary
	TopCustomers   []CustomerSummary
	Reconciliation ReconciliationStats
	TotalRevenue   float64
	TotalExpenses  float64
	Balance        float64
}

// RetryOptions configures retry behavior for operations against external
// services.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// WithDefaults returns a copy with unset fields replaced by defaults.
func (o RetryOptions) WithDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = 100 * time.Millisecond
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 30 * time.Second
	}
	if o.Multiplier <= 0 {
		o.Multiplier = 2.0
	}
	return o
}
