package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contaflow/contaflow/internal/common"
	"github.com/contaflow/contaflow/internal/model"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err, "failed to create storage")

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx), "failed to migrate")

	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createTestCustomer(t *testing.T, store *SQLiteStorage, name, asaasID string) *model.Customer {
	t.Helper()
	c := &model.Customer{
		Name:    name,
		CpfCnpj: "123.456.789-00",
		Email:   "test@example.com",
		AsaasID: asaasID,
	}
	require.NoError(t, store.CreateCustomer(context.Background(), c))
	return c
}

func createTestCategory(t *testing.T, store *SQLiteStorage, code, name string, catType model.CategoryType) *model.Category {
	t.Helper()
	cat := &model.Category{
		Code:     code,
		Name:     name,
		Type:     catType,
		IsActive: true,
	}
	require.NoError(t, store.CreateCategory(context.Background(), cat))
	return cat
}

func TestCustomerCRUD(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	customer := createTestCustomer(t, store, "Acme Ltda", "cus_001")
	require.NotZero(t, customer.ID)

	got, err := store.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltda", got.Name)
	assert.Equal(t, "cus_001", got.AsaasID)

	got.Email = "billing@acme.com"
	require.NoError(t, store.UpdateCustomer(ctx, got))

	updated, err := store.GetCustomer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "billing@acme.com", updated.Email)

	require.NoError(t, store.DeleteCustomer(ctx, customer.ID))

	_, err = store.GetCustomer(ctx, customer.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCustomerUpdateMissing(t *testing.T) {
	store := createTestStorage(t)

	err := store.UpdateCustomer(context.Background(), &model.Customer{ID: 999, Name: "Ghost"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestListCustomersSearch(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	createTestCustomer(t, store, "Acme Ltda", "cus_001")
	createTestCustomer(t, store, "Beta Corp", "cus_002")
	createTestCustomer(t, store, "Acme Filial", "cus_003")

	all, err := store.ListCustomers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	matched, err := store.ListCustomers(ctx, "Acme")
	require.NoError(t, err)
	require.Len(t, matched, 2)
	// Ordered by name.
	assert.Equal(t, "Acme Filial", matched[0].Name)
	assert.Equal(t, "Acme Ltda", matched[1].Name)
}

func TestUpsertCustomerByAsaasID(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	first := &model.Customer{Name: "Acme Ltda", AsaasID: "cus_042"}
	created, err := store.UpsertCustomerByAsaasID(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, first.Synced)

	// Same external id again updates in place.
	second := &model.Customer{Name: "Acme Ltda ME", AsaasID: "cus_042"}
	created, err = store.UpsertCustomerByAsaasID(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	all, err := store.ListCustomers(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Acme Ltda ME", all[0].Name)
}

func TestSubscriptionCRUD(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	customer := createTestCustomer(t, store, "Acme Ltda", "cus_001")

	sub := &model.Subscription{
		CustomerID:  customer.ID,
		Description: "Plano mensal",
		Cycle:       model.CycleMonthly,
		BillingType: model.BillingPix,
		Status:      model.SubscriptionActive,
		NextDueDate: time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		Value:       199.90,
	}
	require.NoError(t, store.CreateSubscription(ctx, sub))
	require.NotZero(t, sub.ID)

	got, err := store.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltda", got.CustomerName)
	assert.InDelta(t, 199.90, got.Value, 0.001)
	assert.Nil(t, got.EndDate)
	assert.Nil(t, got.MaxPayments)

	end := time.Date(2027, 9, 10, 0, 0, 0, 0, time.UTC)
	payments := 12
	got.EndDate = &end
	got.MaxPayments = &payments
	got.Status = model.SubscriptionInactive
	require.NoError(t, store.UpdateSubscription(ctx, got))

	updated, err := store.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.EndDate)
	assert.Equal(t, end.Unix(), updated.EndDate.Unix())
	require.NotNil(t, updated.MaxPayments)
	assert.Equal(t, 12, *updated.MaxPayments)
	assert.Equal(t, model.SubscriptionInactive, updated.Status)
}

func TestDeleteCustomerCascadesSubscriptions(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	customer := createTestCustomer(t, store, "Acme Ltda", "cus_001")
	sub := &model.Subscription{
		CustomerID:  customer.ID,
		Cycle:       model.CycleMonthly,
		BillingType: model.BillingBoleto,
		Status:      model.SubscriptionActive,
		NextDueDate: time.Now().AddDate(0, 1, 0),
		Value:       50,
	}
	require.NoError(t, store.CreateSubscription(ctx, sub))

	require.NoError(t, store.DeleteCustomer(ctx, customer.ID))

	_, err := store.GetSubscription(ctx, sub.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpsertSubscriptionByAsaasID(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	customer := createTestCustomer(t, store, "Acme Ltda", "cus_001")

	sub := &model.Subscription{
		CustomerID:  customer.ID,
		AsaasID:     "sub_100",
		Cycle:       model.CycleMonthly,
		BillingType: model.BillingPix,
		Status:      model.SubscriptionActive,
		NextDueDate: time.Now().AddDate(0, 1, 0),
		Value:       100,
	}
	created, err := store.UpsertSubscriptionByAsaasID(ctx, sub)
	require.NoError(t, err)
	assert.True(t, created)

	again := &model.Subscription{
		CustomerID:  customer.ID,
		AsaasID:     "sub_100",
		Cycle:       model.CycleMonthly,
		BillingType: model.BillingPix,
		Status:      model.SubscriptionActive,
		NextDueDate: time.Now().AddDate(0, 2, 0),
		Value:       120,
	}
	created, err = store.UpsertSubscriptionByAsaasID(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, sub.ID, again.ID)

	subs, err := store.ListSubscriptions(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.InDelta(t, 120, subs[0].Value, 0.001)
}

func TestCategoryCRUDAndListByType(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	revenue := createTestCategory(t, store, "1.1", "Receita Operacional", model.CategoryRevenue)
	child := &model.Category{
		Code:     "1.1.01",
		Name:     "Vendas de Produtos",
		Type:     model.CategoryRevenue,
		ParentID: &revenue.ID,
		IsActive: true,
	}
	require.NoError(t, store.CreateCategory(ctx, child))
	createTestCategory(t, store, "2.1", "Despesas Administrativas", model.CategoryExpense)

	byCode, err := store.GetCategoryByCode(ctx, "1.1.01")
	require.NoError(t, err)
	require.NotNil(t, byCode.ParentID)
	assert.Equal(t, revenue.ID, *byCode.ParentID)

	revenues, err := store.ListCategories(ctx, model.CategoryRevenue)
	require.NoError(t, err)
	assert.Len(t, revenues, 2)

	all, err := store.ListCategories(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Duplicate codes are rejected by the unique constraint.
	err = store.CreateCategory(ctx, &model.Category{Code: "2.1", Name: "Dup", Type: model.CategoryExpense})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	// Running migrations again on a current database is a no-op.
	require.NoError(t, store.Migrate(ctx))

	var version int
	require.NoError(t, store.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestValidation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	err := store.CreateCustomer(ctx, &model.Customer{Name: "  "})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	err = store.CreateCategory(ctx, &model.Category{Code: "9.9", Name: "Weird", Type: "neither"})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = store.GetCustomerByAsaasID(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func makeTestTransactionID(n int) string {
	return fmt.Sprintf("ft_%03d", n)
}
