package asaas

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contaflow/contaflow/internal/common"
	"github.com/contaflow/contaflow/internal/service"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Retry: service.RetryOptions{
			MaxAttempts:  2,
			InitialDelay: time.Millisecond,
			MaxDelay:     5 * time.Millisecond,
		},
	})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestCreateCustomer(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]any

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("access_token")
		gotPath = r.Method + " " + r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "cus_123", "name": "Acme"})
	}))

	id, err := client.CreateCustomer(context.Background(), service.BillingCustomer{
		Name:    "Acme Ltda",
		CpfCnpj: "12345678000190",
	})
	require.NoError(t, err)
	assert.Equal(t, "cus_123", id)
	assert.Equal(t, "test-key", gotAuth)
	assert.Equal(t, "POST /customers", gotPath)
	assert.Equal(t, "Acme Ltda", gotBody["name"])
	assert.Equal(t, "12345678000190", gotBody["cpfCnpj"])
}

func TestListCustomersPagination(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "100", r.URL.Query().Get("offset"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hasMore": true,
			"data": []map[string]any{
				{"id": "cus_1", "name": "One"},
				{"id": "cus_2", "name": "Two"},
			},
		})
	}))

	customers, hasMore, err := client.ListCustomers(context.Background(), 50, 100)
	require.NoError(t, err)
	assert.True(t, hasMore)
	require.Len(t, customers, 2)
	assert.Equal(t, "cus_1", customers[0].ID)
}

func TestErrorEnvelope(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"errors": []map[string]string{
				{"code": "invalid_cpfCnpj", "description": "CPF/CNPJ inválido"},
			},
		})
	}))

	_, err := client.CreateCustomer(context.Background(), service.BillingCustomer{Name: "Bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CPF/CNPJ inválido")
}

func TestRateLimit(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, _, err := client.ListCustomers(context.Background(), 10, 0)
	assert.ErrorIs(t, err, common.ErrBillingRateLimit)
}

func TestRetriesTransientServerError(t *testing.T) {
	var calls int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"hasMore": false, "data": []map[string]any{}})
	}))

	_, _, err := client.ListCustomers(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoesNotRetryClientError(t *testing.T) {
	var calls int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))

	_, _, err := client.ListCustomers(context.Background(), 10, 0)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestListPaymentsByCustomer(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments", r.URL.Path)
		assert.Equal(t, "cus_1", r.URL.Query().Get("customer"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hasMore": false,
			"data": []map[string]any{
				{
					"id": "pay_1", "customer": "cus_1", "billingType": "PIX",
					"status": "RECEIVED", "value": 99.90, "netValue": 97.91,
					"dueDate": "2026-08-10", "paymentDate": "2026-08-09",
				},
			},
		})
	}))

	payments, hasMore, err := client.ListPayments(context.Background(), "cus_1", 100, 0)
	require.NoError(t, err)
	assert.False(t, hasMore)
	require.Len(t, payments, 1)
	assert.Equal(t, "pay_1", payments[0].ID)
	assert.Equal(t, "RECEIVED", payments[0].Status)
	assert.InDelta(t, 97.91, payments[0].NetValue, 0.001)
	require.NotNil(t, payments[0].PaymentDate)
	assert.Equal(t, "2026-08-09", payments[0].PaymentDate.Format("2006-01-02"))
}

func TestCreateSubscriptionDates(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "sub_77", "status": "ACTIVE"})
	}))

	end := time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)
	id, err := client.CreateSubscription(context.Background(), service.BillingSubscription{
		CustomerID:  "cus_1",
		BillingType: "PIX",
		Cycle:       "MONTHLY",
		NextDueDate: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		EndDate:     &end,
		Value:       99.90,
	})
	require.NoError(t, err)
	assert.Equal(t, "sub_77", id)
	assert.Equal(t, "2026-09-15", gotBody["nextDueDate"])
	assert.Equal(t, "2027-01-15", gotBody["endDate"])
	assert.Equal(t, "cus_1", gotBody["customer"])
}

func TestListFinancialTransactions(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/financialTransactions":
			assert.Equal(t, "2026-08-01", r.URL.Query().Get("startDate"))
			assert.Equal(t, "2026-08-31", r.URL.Query().Get("finishDate"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"hasMore": false,
				"data": []map[string]any{
					{
						"id": "ft_1", "type": "PAYMENT_RECEIVED", "date": "2026-08-05",
						"description": "Cobrança recebida", "value": 150.0, "payment": "pay_9",
					},
					{
						"id": "ft_2", "type": "PAYMENT_FEE", "date": "2026-08-05",
						"description": "Taxa", "value": -1.99,
					},
				},
			})
		case "/payments/pay_9":
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "pay_9", "customer": "cus_42"})
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	txns, hasMore, err := client.ListFinancialTransactions(context.Background(), from, to, 100, 0)
	require.NoError(t, err)
	assert.False(t, hasMore)
	require.Len(t, txns, 2)

	assert.Equal(t, "cus_42", txns[0].CustomerID)
	assert.NotEmpty(t, txns[0].RawPayload)
	assert.Empty(t, txns[1].CustomerID)
	assert.InDelta(t, -1.99, txns[1].Value, 0.001)
}

func TestDeleteCustomerNotDeleted(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"deleted": false, "id": "cus_1"})
	}))

	err := client.DeleteCustomer(context.Background(), "cus_1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not deleted")
}

func TestCreatePaymentLink(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "Consultoria", body["name"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "pl_1", "name": "Consultoria",
			"url": "https://www.asaas.com/c/abc", "active": true,
			"billingType": "PIX", "chargeType": "DETACHED",
		})
	}))

	created, err := client.CreatePaymentLink(context.Background(), service.BillingPaymentLink{
		Name:        "Consultoria",
		BillingType: "PIX",
		ChargeType:  "DETACHED",
	})
	require.NoError(t, err)
	assert.Equal(t, "pl_1", created.ID)
	assert.Equal(t, "https://www.asaas.com/c/abc", created.URL)
	assert.True(t, created.Active)
}
