package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contaflow/contaflow/internal/common"
	"github.com/contaflow/contaflow/internal/model"
)

func createTestRule(t *testing.T, store *SQLiteStorage, categoryID int64, value string, priority int) *model.Rule {
	t.Helper()
	r := &model.Rule{
		Name:       "match " + value,
		Field:      model.FieldDescription,
		Operator:   model.OperatorContains,
		Value:      value,
		CategoryID: categoryID,
		Priority:   priority,
		IsActive:   true,
	}
	require.NoError(t, store.CreateRule(context.Background(), r))
	return r
}

func TestRuleCRUD(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	cat := createTestCategory(t, store, "2.3.01", "Taxas Bancárias", model.CategoryExpense)
	rule := createTestRule(t, store, cat.ID, "taxa", 10)

	got, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "taxa", got.Value)
	assert.Equal(t, "2.3.01", got.CategoryCode)
	assert.Equal(t, 0, got.TimesApplied)

	got.Priority = 50
	got.Operator = model.OperatorStartsWith
	require.NoError(t, store.UpdateRule(ctx, got))

	updated, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, updated.Priority)
	assert.Equal(t, model.OperatorStartsWith, updated.Operator)

	require.NoError(t, store.DeleteRule(ctx, rule.ID))
	_, err = store.GetRule(ctx, rule.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetActiveRulesOrder(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	cat := createTestCategory(t, store, "1.1", "Receita", model.CategoryRevenue)

	low := createTestRule(t, store, cat.ID, "low", 1)
	highA := createTestRule(t, store, cat.ID, "high-a", 10)
	highB := createTestRule(t, store, cat.ID, "high-b", 10)
	inactive := createTestRule(t, store, cat.ID, "off", 99)
	inactive.IsActive = false
	require.NoError(t, store.UpdateRule(ctx, inactive))

	rules, err := store.GetActiveRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 3)

	// Highest priority first; equal priorities keep insertion order.
	assert.Equal(t, highA.ID, rules[0].ID)
	assert.Equal(t, highB.ID, rules[1].ID)
	assert.Equal(t, low.ID, rules[2].ID)

	all, err := store.ListRules(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestIncrementRuleTimesApplied(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	cat := createTestCategory(t, store, "1.1", "Receita", model.CategoryRevenue)
	rule := createTestRule(t, store, cat.ID, "assinatura", 0)

	require.NoError(t, store.IncrementRuleTimesApplied(ctx, rule.ID))
	require.NoError(t, store.IncrementRuleTimesApplied(ctx, rule.ID))

	got, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TimesApplied)

	err = store.IncrementRuleTimesApplied(ctx, 999)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteCategoryCascadesRules(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	cat := createTestCategory(t, store, "1.1", "Receita", model.CategoryRevenue)
	rule := createTestRule(t, store, cat.ID, "assinatura", 0)

	require.NoError(t, store.DeleteCategory(ctx, cat.ID))

	_, err := store.GetRule(ctx, rule.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateRuleValidation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	cat := createTestCategory(t, store, "1.1", "Receita", model.CategoryRevenue)

	tests := []struct {
		name string
		rule model.Rule
	}{
		{
			name: "empty value",
			rule: model.Rule{Field: model.FieldDescription, Operator: model.OperatorContains, Value: " ", CategoryID: cat.ID},
		},
		{
			name: "missing category",
			rule: model.Rule{Field: model.FieldDescription, Operator: model.OperatorContains, Value: "x"},
		},
		{
			name: "unknown field",
			rule: model.Rule{Field: "amount", Operator: model.OperatorContains, Value: "x", CategoryID: cat.ID},
		},
		{
			name: "unknown operator",
			rule: model.Rule{Field: model.FieldDescription, Operator: "regex", Value: "x", CategoryID: cat.ID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := tt.rule
			err := store.CreateRule(ctx, &rule)
			assert.ErrorIs(t, err, ErrInvalidRule)
		})
	}
}
