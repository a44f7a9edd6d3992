package sync

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contaflow/contaflow/internal/asaas"
	"github.com/contaflow/contaflow/internal/engine"
	"github.com/contaflow/contaflow/internal/model"
	"github.com/contaflow/contaflow/internal/service"
	"github.com/contaflow/contaflow/internal/storage"
)

func newTestSyncer(t *testing.T) (*Syncer, *storage.SQLiteStorage, *asaas.MockClient) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	client := &asaas.MockClient{}
	return New(store, client), store, client
}

func TestPullCustomersCreatedAndUpdated(t *testing.T) {
	syncer, store, client := newTestSyncer(t)
	ctx := context.Background()

	client.Customers = []service.BillingCustomer{
		{ID: "cus_1", Name: "Acme Ltda", CpfCnpj: "12345678000190"},
		{ID: "cus_2", Name: "Beta Corp"},
	}

	report, err := syncer.PullCustomers(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 0, report.Updated)
	assert.Empty(t, report.Errors)

	// Second pull updates in place.
	client.Customers[0].Name = "Acme Ltda ME"
	report, err = syncer.PullCustomers(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 2, report.Updated)

	local, err := store.GetCustomerByAsaasID(ctx, "cus_1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltda ME", local.Name)
	assert.True(t, local.Synced)
}

func TestPullCustomersProgress(t *testing.T) {
	syncer, _, client := newTestSyncer(t)

	client.Customers = []service.BillingCustomer{
		{ID: "cus_1", Name: "One"},
		{ID: "cus_2", Name: "Two"},
		{ID: "cus_3", Name: "Three"},
	}

	var calls []int
	_, err := syncer.PullCustomers(context.Background(), func(done int) {
		calls = append(calls, done)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, calls)
}

func TestPullSubscriptionsResolvesCustomers(t *testing.T) {
	syncer, store, client := newTestSyncer(t)
	ctx := context.Background()

	client.Customers = []service.BillingCustomer{
		{ID: "cus_1", Name: "Acme Ltda"},
	}
	client.Subscriptions = []service.BillingSubscription{
		{
			ID: "sub_1", CustomerID: "cus_1", Cycle: "MONTHLY",
			BillingType: "PIX", Status: "ACTIVE",
			NextDueDate: time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
			Value:       99.90,
		},
		{
			// Customer does not exist anywhere: skipped, not fatal.
			ID: "sub_2", CustomerID: "cus_missing", Cycle: "MONTHLY",
			BillingType: "BOLETO", Status: "ACTIVE",
			NextDueDate: time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
			Value:       50,
		},
	}

	report, err := syncer.PullSubscriptions(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 1, report.Skipped)

	// The subscription's customer was fetched and mirrored on demand.
	customer, err := store.GetCustomerByAsaasID(ctx, "cus_1")
	require.NoError(t, err)

	subs, err := store.ListSubscriptions(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "sub_1", subs[0].AsaasID)
	assert.Equal(t, model.SubscriptionActive, subs[0].Status)
}

func TestPullTransactions(t *testing.T) {
	syncer, store, client := newTestSyncer(t)
	ctx := context.Background()

	// Mirror the customer first so the transaction links up.
	customer := &model.Customer{Name: "Acme Ltda", AsaasID: "cus_1"}
	_, err := store.UpsertCustomerByAsaasID(ctx, customer)
	require.NoError(t, err)

	cat := &model.Category{Code: "1.1.03", Name: "Recorrências", Type: model.CategoryRevenue, IsActive: true}
	require.NoError(t, store.CreateCategory(ctx, cat))
	rule := &model.Rule{
		Field: model.FieldDescription, Operator: model.OperatorContains,
		Value: "assinatura", CategoryID: cat.ID, IsActive: true,
	}
	require.NoError(t, store.CreateRule(ctx, rule))

	client.Transactions = []service.BillingTransaction{
		{
			ID: "ft_1", Type: "PAYMENT", Date: time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC),
			Description: "Assinatura mensal", CustomerID: "cus_1", Value: 99.90,
			RawPayload: `{"id":"ft_1"}`,
		},
		{
			// Unknown type code falls back to OTHER.
			ID: "ft_2", Type: "BILL_PAYMENT_FEE", Date: time.Date(2026, 8, 6, 0, 0, 0, 0, time.UTC),
			Description: "Tarifa", Value: -2.50,
		},
	}

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	eng := engine.New(store)

	report, err := syncer.PullTransactions(ctx, eng, from, to, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Empty(t, report.Errors)

	first, err := store.GetTransaction(ctx, "ft_1")
	require.NoError(t, err)
	require.NotNil(t, first.CustomerID)
	assert.Equal(t, "Acme Ltda", first.CustomerName)
	assert.Equal(t, model.TypePayment, first.Type)
	// The engine ran on import.
	assert.Equal(t, model.ReconciledAuto, first.Reconciliation)
	require.NotNil(t, first.CategoryID)
	assert.Equal(t, cat.ID, *first.CategoryID)

	second, err := store.GetTransaction(ctx, "ft_2")
	require.NoError(t, err)
	assert.Equal(t, model.TypeOther, second.Type)
	assert.Nil(t, second.CustomerID)
	assert.Equal(t, model.Unreconciled, second.Reconciliation)

	// Re-import refreshes without undoing the categorization.
	report, err = syncer.PullTransactions(ctx, eng, from, to, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 2, report.Updated)

	again, err := store.GetTransaction(ctx, "ft_1")
	require.NoError(t, err)
	assert.Equal(t, model.ReconciledAuto, again.Reconciliation)
}

func TestPullTransactionsPaginates(t *testing.T) {
	syncer, store, client := newTestSyncer(t)
	ctx := context.Background()

	for i := 0; i < 150; i++ {
		client.Transactions = append(client.Transactions, service.BillingTransaction{
			ID:   fmt.Sprintf("ft_%03d", i),
			Type: "PAYMENT",
			Date: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		})
	}

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	report, err := syncer.PullTransactions(ctx, nil, from, to, nil)
	require.NoError(t, err)
	assert.Equal(t, 150, report.Imported)
	assert.Equal(t, 2, client.ListCalls)

	pending, err := store.GetUnreconciledTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 150)
}

// runawayClient reports a full page with more to come forever.
type runawayClient struct {
	asaas.MockClient
	calls int
}

func (r *runawayClient) ListFinancialTransactions(_ context.Context, _, _ time.Time, limit, offset int) ([]service.BillingTransaction, bool, error) {
	r.calls++
	items := make([]service.BillingTransaction, limit)
	for i := range items {
		items[i] = service.BillingTransaction{
			ID:   fmt.Sprintf("ft_%d", offset+i),
			Date: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		}
	}
	return items, true, nil
}

func TestPullTransactionsPageCap(t *testing.T) {
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	client := &runawayClient{}
	syncer := New(store, client)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	report, err := syncer.PullTransactions(context.Background(), nil, from, to, nil)
	require.NoError(t, err)

	// A gateway that never stops paging is cut off at the cap.
	assert.Equal(t, maxPages, client.calls)
	assert.Equal(t, maxPages*pageSize, report.Imported)
}

func TestPushCustomer(t *testing.T) {
	syncer, store, client := newTestSyncer(t)
	ctx := context.Background()

	customer := &model.Customer{Name: "Nova Cliente", CpfCnpj: "98765432100"}
	require.NoError(t, store.CreateCustomer(ctx, customer))

	require.NoError(t, syncer.PushCustomer(ctx, customer))
	assert.NotEmpty(t, customer.AsaasID)
	assert.True(t, customer.Synced)

	require.Len(t, client.Customers, 1)
	assert.Equal(t, "Nova Cliente", client.Customers[0].Name)

	// A second push with the external id in place becomes an update.
	customer.Email = "nova@example.com"
	require.NoError(t, syncer.PushCustomer(ctx, customer))
	require.Len(t, client.Customers, 1)
	assert.Equal(t, "nova@example.com", client.Customers[0].Email)
}

func TestPushSubscriptionRequiresPushedCustomer(t *testing.T) {
	syncer, store, _ := newTestSyncer(t)
	ctx := context.Background()

	customer := &model.Customer{Name: "Local Only"}
	require.NoError(t, store.CreateCustomer(ctx, customer))

	sub := &model.Subscription{
		CustomerID:  customer.ID,
		Cycle:       model.CycleMonthly,
		BillingType: model.BillingPix,
		Status:      model.SubscriptionActive,
		NextDueDate: time.Now().AddDate(0, 1, 0),
		Value:       10,
	}
	require.NoError(t, store.CreateSubscription(ctx, sub))

	err := syncer.PushSubscription(ctx, sub)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "push the customer first")
}

func TestPushSubscription(t *testing.T) {
	syncer, store, client := newTestSyncer(t)
	ctx := context.Background()

	customer := &model.Customer{Name: "Acme Ltda", AsaasID: "cus_1"}
	require.NoError(t, store.CreateCustomer(ctx, customer))

	sub := &model.Subscription{
		CustomerID:  customer.ID,
		Cycle:       model.CycleMonthly,
		BillingType: model.BillingPix,
		Status:      model.SubscriptionActive,
		NextDueDate: time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		Value:       99.90,
	}
	require.NoError(t, store.CreateSubscription(ctx, sub))

	require.NoError(t, syncer.PushSubscription(ctx, sub))
	assert.NotEmpty(t, sub.AsaasID)
	require.Len(t, client.Subscriptions, 1)
	assert.Equal(t, "cus_1", client.Subscriptions[0].CustomerID)
}

func TestPullPaymentLinks(t *testing.T) {
	syncer, store, client := newTestSyncer(t)
	ctx := context.Background()

	value := 150.0
	client.PaymentLinks = []service.BillingPaymentLink{
		{
			ID: "pl_1", Name: "Consultoria", URL: "https://pay.example.com/c/pl_1",
			BillingType: "PIX", ChargeType: "DETACHED", Value: &value, Active: true,
		},
		{
			ID: "pl_2", Name: "Antigo", URL: "https://pay.example.com/c/pl_2",
			BillingType: "BOLETO", ChargeType: "DETACHED", Active: false,
		},
	}

	report, err := syncer.PullPaymentLinks(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)

	links, err := store.ListPaymentLinks(ctx)
	require.NoError(t, err)
	require.Len(t, links, 2)

	byAsaasID := map[string]model.PaymentLink{}
	for _, l := range links {
		byAsaasID[l.AsaasID] = l
	}
	assert.Equal(t, model.PaymentLinkActive, byAsaasID["pl_1"].Status)
	assert.Equal(t, model.PaymentLinkInactive, byAsaasID["pl_2"].Status)
}

func TestPushPaymentLink(t *testing.T) {
	syncer, store, client := newTestSyncer(t)
	ctx := context.Background()

	value := 200.0
	link := &model.PaymentLink{
		Name:        "Treinamento",
		BillingType: model.BillingPix,
		ChargeType:  model.ChargeDetached,
		Status:      model.PaymentLinkActive,
		Value:       &value,
	}

	require.NoError(t, syncer.PushPaymentLink(ctx, link))
	assert.NotEmpty(t, link.AsaasID)
	assert.NotEmpty(t, link.URL)
	require.Len(t, client.PaymentLinks, 1)

	stored, err := store.ListPaymentLinks(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, link.AsaasID, stored[0].AsaasID)

	// Pushing an already-pushed link is rejected.
	err = syncer.PushPaymentLink(ctx, link)
	assert.Error(t, err)
}
