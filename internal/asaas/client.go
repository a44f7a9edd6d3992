// Package asaas implements the billing platform client against the Asaas
// REST API (v3).
package asaas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/contaflow/contaflow/internal/common"
	"github.com/contaflow/contaflow/internal/service"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.asaas.com/v3"

// Client talks to the Asaas REST API. It implements service.BillingClient.
type Client struct {
	httpClient   *http.Client
	paymentCache map[string]string
	baseURL      string
	apiKey       string
	retry        service.RetryOptions
}

// Config holds the client settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Retry   service.RetryOptions
}

// NewClient creates an Asaas API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: asaas api key", common.ErrMissingConfig)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		paymentCache: make(map[string]string),
		retry:        cfg.Retry.WithDefaults(),
	}, nil
}

// do issues a request, retrying GETs on transient failures. Writes are never
// replayed; a retried create could duplicate records on the platform.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if method != http.MethodGet {
		return c.send(ctx, method, path, query, body, out)
	}
	return common.WithRetry(ctx, func() error {
		return c.send(ctx, method, path, query, body, out)
	}, c.retry)
}

// send sends a request and decodes the JSON response into out (when non-nil).
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("access_token", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrBillingConnection, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return common.ErrBillingRateLimit
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var err error
	var envelope errorEnvelope
	if jsonErr := json.Unmarshal(raw, &envelope); jsonErr == nil && len(envelope.Errors) > 0 {
		descriptions := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			descriptions = append(descriptions, e.Description)
		}
		err = fmt.Errorf("asaas api error (status %d): %s", resp.StatusCode, strings.Join(descriptions, "; "))
	} else {
		err = fmt.Errorf("asaas api error: status %d", resp.StatusCode)
	}

	// Client errors will not succeed on a replay; server errors might.
	return &common.RetryableError{Err: err, Retryable: resp.StatusCode >= 500}
}

func pageQuery(limit, offset int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return q
}

func toCustomerPayload(cust service.BillingCustomer) customerPayload {
	return customerPayload{
		Name:          cust.Name,
		CpfCnpj:       cust.CpfCnpj,
		Email:         cust.Email,
		Phone:         cust.Phone,
		MobilePhone:   cust.MobilePhone,
		Address:       cust.Address,
		AddressNumber: cust.AddressNumber,
		Complement:    cust.Complement,
		Province:      cust.Province,
		PostalCode:    cust.PostalCode,
		Observations:  cust.Observations,
	}
}

func fromCustomerRecord(rec customerRecord) service.BillingCustomer {
	return service.BillingCustomer{
		ID:            rec.ID,
		Name:          rec.Name,
		CpfCnpj:       rec.CpfCnpj,
		Email:         rec.Email,
		Phone:         rec.Phone,
		MobilePhone:   rec.MobilePhone,
		Address:       rec.Address,
		AddressNumber: rec.AddressNumber,
		Complement:    rec.Complement,
		Province:      rec.Province,
		PostalCode:    rec.PostalCode,
		Observations:  rec.Observations,
	}
}

// CreateCustomer registers a customer on the platform and returns its ID.
func (c *Client) CreateCustomer(ctx context.Context, cust service.BillingCustomer) (string, error) {
	var rec customerRecord
	if err := c.do(ctx, http.MethodPost, "/customers", nil, toCustomerPayload(cust), &rec); err != nil {
		return "", fmt.Errorf("creating customer: %w", err)
	}
	slog.Debug("customer created on billing platform", "id", rec.ID)
	return rec.ID, nil
}

// UpdateCustomer pushes profile changes for an existing customer.
func (c *Client) UpdateCustomer(ctx context.Context, id string, cust service.BillingCustomer) error {
	if err := c.do(ctx, http.MethodPut, "/customers/"+id, nil, toCustomerPayload(cust), nil); err != nil {
		return fmt.Errorf("updating customer %s: %w", id, err)
	}
	return nil
}

// DeleteCustomer removes a customer from the platform.
func (c *Client) DeleteCustomer(ctx context.Context, id string) error {
	var resp deletedResponse
	if err := c.do(ctx, http.MethodDelete, "/customers/"+id, nil, nil, &resp); err != nil {
		return fmt.Errorf("deleting customer %s: %w", id, err)
	}
	if !resp.Deleted {
		return fmt.Errorf("customer %s was not deleted", id)
	}
	return nil
}

// GetCustomer fetches a single customer by its platform ID.
func (c *Client) GetCustomer(ctx context.Context, id string) (*service.BillingCustomer, error) {
	var rec customerRecord
	if err := c.do(ctx, http.MethodGet, "/customers/"+id, nil, nil, &rec); err != nil {
		return nil, fmt.Errorf("fetching customer %s: %w", id, err)
	}
	cust := fromCustomerRecord(rec)
	return &cust, nil
}

// ListCustomers returns one page of customers and whether more pages remain.
func (c *Client) ListCustomers(ctx context.Context, limit, offset int) ([]service.BillingCustomer, bool, error) {
	var envelope listEnvelope[customerRecord]
	if err := c.do(ctx, http.MethodGet, "/customers", pageQuery(limit, offset), nil, &envelope); err != nil {
		return nil, false, fmt.Errorf("listing customers: %w", err)
	}

	customers := make([]service.BillingCustomer, 0, len(envelope.Data))
	for _, rec := range envelope.Data {
		customers = append(customers, fromCustomerRecord(rec))
	}
	return customers, envelope.HasMore, nil
}

func toSubscriptionPayload(sub service.BillingSubscription) subscriptionPayload {
	payload := subscriptionPayload{
		Customer:    sub.CustomerID,
		BillingType: sub.BillingType,
		Cycle:       sub.Cycle,
		Description: sub.Description,
		NextDueDate: apiDate{sub.NextDueDate},
		MaxPayments: sub.MaxPayments,
		Value:       sub.Value,
	}
	if sub.EndDate != nil {
		payload.EndDate = &apiDate{*sub.EndDate}
	}
	return payload
}

func fromSubscriptionRecord(rec subscriptionRecord) service.BillingSubscription {
	sub := service.BillingSubscription{
		ID:          rec.ID,
		CustomerID:  rec.Customer,
		Description: rec.Description,
		Cycle:       rec.Cycle,
		BillingType: rec.BillingType,
		Status:      rec.Status,
		NextDueDate: rec.NextDueDate.Time,
		MaxPayments: rec.MaxPayments,
		Value:       rec.Value,
	}
	if rec.EndDate != nil && !rec.EndDate.IsZero() {
		end := rec.EndDate.Time
		sub.EndDate = &end
	}
	return sub
}

// CreateSubscription registers a recurring charge and returns its ID.
func (c *Client) CreateSubscription(ctx context.Context, sub service.BillingSubscription) (string, error) {
	var rec subscriptionRecord
	if err := c.do(ctx, http.MethodPost, "/subscriptions", nil, toSubscriptionPayload(sub), &rec); err != nil {
		return "", fmt.Errorf("creating subscription: %w", err)
	}
	slog.Debug("subscription created on billing platform", "id", rec.ID)
	return rec.ID, nil
}

// UpdateSubscription pushes changes for an existing subscription.
func (c *Client) UpdateSubscription(ctx context.Context, id string, sub service.BillingSubscription) error {
	if err := c.do(ctx, http.MethodPut, "/subscriptions/"+id, nil, toSubscriptionPayload(sub), nil); err != nil {
		return fmt.Errorf("updating subscription %s: %w", id, err)
	}
	return nil
}

// DeleteSubscription cancels a subscription on the platform.
func (c *Client) DeleteSubscription(ctx context.Context, id string) error {
	var resp deletedResponse
	if err := c.do(ctx, http.MethodDelete, "/subscriptions/"+id, nil, nil, &resp); err != nil {
		return fmt.Errorf("deleting subscription %s: %w", id, err)
	}
	if !resp.Deleted {
		return fmt.Errorf("subscription %s was not deleted", id)
	}
	return nil
}

// ListSubscriptions returns one page of subscriptions, optionally scoped to
// a customer, and whether more pages remain.
func (c *Client) ListSubscriptions(ctx context.Context, customerID string, limit, offset int) ([]service.BillingSubscription, bool, error) {
	query := pageQuery(limit, offset)
	if customerID != "" {
		query.Set("customer", customerID)
	}

	var envelope listEnvelope[subscriptionRecord]
	if err := c.do(ctx, http.MethodGet, "/subscriptions", query, nil, &envelope); err != nil {
		return nil, false, fmt.Errorf("listing subscriptions: %w", err)
	}

	subs := make([]service.BillingSubscription, 0, len(envelope.Data))
	for _, rec := range envelope.Data {
		subs = append(subs, fromSubscriptionRecord(rec))
	}
	return subs, envelope.HasMore, nil
}

func fromPaymentRecord(rec paymentRecord) service.BillingPayment {
	payment := service.BillingPayment{
		ID:          rec.ID,
		CustomerID:  rec.Customer,
		BillingType: rec.BillingType,
		Status:      rec.Status,
		Description: rec.Description,
		InvoiceURL:  rec.InvoiceURL,
		DueDate:     rec.DueDate.Time,
		Value:       rec.Value,
		NetValue:    rec.NetValue,
	}
	if rec.PaymentDate != nil && !rec.PaymentDate.IsZero() {
		paid := rec.PaymentDate.Time
		payment.PaymentDate = &paid
	}
	return payment
}

// ListPayments returns one page of charges, optionally scoped to a customer,
// and whether more pages remain.
func (c *Client) ListPayments(ctx context.Context, customerID string, limit, offset int) ([]service.BillingPayment, bool, error) {
	query := pageQuery(limit, offset)
	if customerID != "" {
		query.Set("customer", customerID)
	}

	var envelope listEnvelope[paymentRecord]
	if err := c.do(ctx, http.MethodGet, "/payments", query, nil, &envelope); err != nil {
		return nil, false, fmt.Errorf("listing payments: %w", err)
	}

	payments := make([]service.BillingPayment, 0, len(envelope.Data))
	for _, rec := range envelope.Data {
		payments = append(payments, fromPaymentRecord(rec))
	}
	return payments, envelope.HasMore, nil
}

// ListFinancialTransactions returns one page of the account statement and
// whether more pages remain. Payment-backed entries are resolved to their
// customer with one extra lookup, cached per client.
func (c *Client) ListFinancialTransactions(ctx context.Context, dateFrom, dateTo time.Time, limit, offset int) ([]service.BillingTransaction, bool, error) {
	query := pageQuery(limit, offset)
	query.Set("startDate", dateFrom.Format(apiDateLayout))
	query.Set("finishDate", dateTo.Format(apiDateLayout))

	var envelope listEnvelope[json.RawMessage]
	if err := c.do(ctx, http.MethodGet, "/financialTransactions", query, nil, &envelope); err != nil {
		return nil, false, fmt.Errorf("listing financial transactions: %w", err)
	}

	txns := make([]service.BillingTransaction, 0, len(envelope.Data))
	for _, raw := range envelope.Data {
		var rec financialTransactionRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, false, fmt.Errorf("decoding financial transaction: %w", err)
		}

		txn := service.BillingTransaction{
			ID:          rec.ID,
			Type:        rec.Type,
			Date:        rec.Date.Time,
			Description: rec.Description,
			RawPayload:  string(raw),
			Value:       rec.Value,
		}
		if rec.PaymentID != "" {
			customerID, err := c.customerForPayment(ctx, rec.PaymentID)
			if err != nil {
				// Statement import survives a missing payment record.
				slog.Warn("could not resolve payment customer",
					"payment_id", rec.PaymentID, "error", err)
			} else {
				txn.CustomerID = customerID
			}
		}
		txns = append(txns, txn)
	}
	return txns, envelope.HasMore, nil
}

func (c *Client) customerForPayment(ctx context.Context, paymentID string) (string, error) {
	if customerID, ok := c.paymentCache[paymentID]; ok {
		return customerID, nil
	}

	var rec paymentRecord
	if err := c.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, nil, &rec); err != nil {
		return "", err
	}
	c.paymentCache[paymentID] = rec.Customer
	return rec.Customer, nil
}

func fromPaymentLinkRecord(rec paymentLinkRecord) service.BillingPaymentLink {
	return service.BillingPaymentLink{
		ID:               rec.ID,
		Name:             rec.Name,
		Description:      rec.Description,
		URL:              rec.URL,
		BillingType:      rec.BillingType,
		ChargeType:       rec.ChargeType,
		Value:            rec.Value,
		DueDateLimitDays: rec.DueDateLimitDays,
		MaxInstallments:  rec.MaxInstallments,
		Active:           rec.Active,
	}
}

// CreatePaymentLink creates a hosted checkout link and returns the stored
// record, including the public URL.
func (c *Client) CreatePaymentLink(ctx context.Context, link service.BillingPaymentLink) (*service.BillingPaymentLink, error) {
	payload := paymentLinkPayload{
		Name:             link.Name,
		Description:      link.Description,
		BillingType:      link.BillingType,
		ChargeType:       link.ChargeType,
		Value:            link.Value,
		DueDateLimitDays: link.DueDateLimitDays,
		MaxInstallments:  link.MaxInstallments,
	}

	var rec paymentLinkRecord
	if err := c.do(ctx, http.MethodPost, "/paymentLinks", nil, payload, &rec); err != nil {
		return nil, fmt.Errorf("creating payment link: %w", err)
	}

	created := fromPaymentLinkRecord(rec)
	slog.Debug("payment link created on billing platform", "id", rec.ID, "url", rec.URL)
	return &created, nil
}

// ListPaymentLinks returns one page of payment links and whether more pages
// remain.
func (c *Client) ListPaymentLinks(ctx context.Context, limit, offset int) ([]service.BillingPaymentLink, bool, error) {
	var envelope listEnvelope[paymentLinkRecord]
	if err := c.do(ctx, http.MethodGet, "/paymentLinks", pageQuery(limit, offset), nil, &envelope); err != nil {
		return nil, false, fmt.Errorf("listing payment links: %w", err)
	}

	links := make([]service.BillingPaymentLink, 0, len(envelope.Data))
	for _, rec := range envelope.Data {
		links = append(links, fromPaymentLinkRecord(rec))
	}
	return links, envelope.HasMore, nil
}
