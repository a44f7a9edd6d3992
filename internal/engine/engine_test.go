package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contaflow/contaflow/internal/model"
	"github.com/contaflow/contaflow/internal/storage"
)

func newTestEngine(t *testing.T) (*Engine, *storage.SQLiteStorage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return New(store), store
}

func seedCategory(t *testing.T, store *storage.SQLiteStorage, code string, catType model.CategoryType) *model.Category {
	t.Helper()
	cat := &model.Category{Code: code, Name: "Category " + code, Type: catType, IsActive: true}
	require.NoError(t, store.CreateCategory(context.Background(), cat))
	return cat
}

func seedRule(t *testing.T, store *storage.SQLiteStorage, r model.Rule) *model.Rule {
	t.Helper()
	if r.Field == "" {
		r.Field = model.FieldDescription
	}
	if r.Operator == "" {
		r.Operator = model.OperatorContains
	}
	r.IsActive = true
	require.NoError(t, store.CreateRule(context.Background(), &r))
	return &r
}

func seedTransaction(t *testing.T, store *storage.SQLiteStorage, id, description string, txnType model.TransactionType) *model.Transaction {
	t.Helper()
	txn := &model.Transaction{
		ID:          id,
		Date:        time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		Description: description,
		Type:        txnType,
		Amount:      100,
	}
	_, err := store.UpsertTransaction(context.Background(), txn)
	require.NoError(t, err)
	return txn
}

func TestCategorizeFirstMatchWins(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()

	catA := seedCategory(t, store, "1.1.01", model.CategoryRevenue)
	catB := seedCategory(t, store, "1.1.03", model.CategoryRevenue)

	// Both rules match, but the higher priority one fires.
	seedRule(t, store, model.Rule{Value: "assinatura", CategoryID: catA.ID, Priority: 1})
	winner := seedRule(t, store, model.Rule{Value: "assinatura", CategoryID: catB.ID, Priority: 10})

	txn := seedTransaction(t, store, "ft_001", "Assinatura mensal Acme", model.TypePayment)

	matched, err := eng.Categorize(ctx, txn)
	require.NoError(t, err)
	assert.True(t, matched)
	require.NotNil(t, txn.CategoryID)
	assert.Equal(t, catB.ID, *txn.CategoryID)
	assert.Equal(t, model.ReconciledAuto, txn.Reconciliation)

	got, err := store.GetRule(ctx, winner.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TimesApplied)
}

func TestCategorizePriorityTieBreaksByID(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()

	catA := seedCategory(t, store, "1.1.01", model.CategoryRevenue)
	catB := seedCategory(t, store, "1.1.03", model.CategoryRevenue)

	first := seedRule(t, store, model.Rule{Value: "venda", CategoryID: catA.ID, Priority: 5})
	seedRule(t, store, model.Rule{Value: "venda", CategoryID: catB.ID, Priority: 5})

	txn := seedTransaction(t, store, "ft_001", "Venda de produto", model.TypePayment)

	matched, err := eng.Categorize(ctx, txn)
	require.NoError(t, err)
	assert.True(t, matched)
	require.NotNil(t, txn.CategoryID)
	assert.Equal(t, catA.ID, *txn.CategoryID)

	got, err := store.GetRule(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TimesApplied)
}

func TestCategorizeSkipsReconciled(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()

	cat := seedCategory(t, store, "2.3.01", model.CategoryExpense)
	rule := seedRule(t, store, model.Rule{Value: "taxa", CategoryID: cat.ID})

	txn := seedTransaction(t, store, "ft_001", "Taxa de boleto", model.TypePaymentFee)
	txn.CategoryID = &cat.ID
	require.NoError(t, store.SaveTransaction(ctx, txn))
	require.Equal(t, model.ReconciledManual, txn.Reconciliation)

	matched, err := eng.Categorize(ctx, txn)
	require.NoError(t, err)
	assert.False(t, matched)

	got, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.TimesApplied)

	after, err := store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReconciledManual, after.Reconciliation)
}

func TestCategorizeNoMatchLeavesUnreconciled(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()

	cat := seedCategory(t, store, "1.1.01", model.CategoryRevenue)
	seedRule(t, store, model.Rule{Value: "assinatura", CategoryID: cat.ID})

	txn := seedTransaction(t, store, "ft_001", "Transferência para conta corrente", model.TypeTransfer)

	matched, err := eng.Categorize(ctx, txn)
	require.NoError(t, err)
	assert.False(t, matched)

	got, err := store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Unreconciled, got.Reconciliation)
	assert.Nil(t, got.CategoryID)
}

func TestCategorizeByTypeField(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()

	cat := seedCategory(t, store, "2.3.02", model.CategoryExpense)
	seedRule(t, store, model.Rule{
		Field:      model.FieldType,
		Operator:   model.OperatorEquals,
		Value:      "payment_fee",
		CategoryID: cat.ID,
	})

	txn := seedTransaction(t, store, "ft_001", "whatever", model.TypePaymentFee)

	matched, err := eng.Categorize(ctx, txn)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestCategorizeAll(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()

	revenue := seedCategory(t, store, "1.1.03", model.CategoryRevenue)
	expense := seedCategory(t, store, "2.3.01", model.CategoryExpense)
	seedRule(t, store, model.Rule{Value: "assinatura", CategoryID: revenue.ID, Priority: 10})
	seedRule(t, store, model.Rule{Value: "taxa", CategoryID: expense.ID})

	seedTransaction(t, store, "ft_001", "Assinatura mensal", model.TypePayment)
	seedTransaction(t, store, "ft_002", "Taxa de boleto", model.TypePaymentFee)
	seedTransaction(t, store, "ft_003", "Saque", model.TypeTransfer)

	matched, err := eng.CategorizeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, matched)

	pending, err := store.GetUnreconciledTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "ft_003", pending[0].ID)

	// A second run finds nothing left to do.
	matched, err = eng.CategorizeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, matched)
}

func TestCategorizeAllNoRules(t *testing.T) {
	eng, store := newTestEngine(t)

	seedTransaction(t, store, "ft_001", "Assinatura mensal", model.TypePayment)

	matched, err := eng.CategorizeAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, matched)
}

func TestDryRun(t *testing.T) {
	eng, store := newTestEngine(t)
	ctx := context.Background()

	cat := seedCategory(t, store, "1.1.03", model.CategoryRevenue)
	rule := seedRule(t, store, model.Rule{Value: "assinatura", CategoryID: cat.ID})

	txn := seedTransaction(t, store, "ft_001", "Assinatura mensal", model.TypePayment)

	hit, err := eng.DryRun(ctx, txn)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, rule.ID, hit.ID)

	// Nothing was written.
	got, err := store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Unreconciled, got.Reconciliation)

	miss, err := eng.DryRun(ctx, seedTransaction(t, store, "ft_002", "Saque", model.TypeTransfer))
	require.NoError(t, err)
	assert.Nil(t, miss)
}
