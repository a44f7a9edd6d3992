package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contaflow/contaflow/internal/model"
)

func TestPaymentLinkUpsert(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	value := 250.0
	link := &model.PaymentLink{
		AsaasID:     "pl_001",
		Name:        "Consultoria avulsa",
		URL:         "https://www.asaas.com/c/abc123",
		BillingType: model.BillingPix,
		ChargeType:  model.ChargeDetached,
		Status:      model.PaymentLinkActive,
		Value:       &value,
	}

	created, err := store.UpsertPaymentLinkByAsaasID(ctx, link)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, link.Synced)

	newValue := 300.0
	link.Value = &newValue
	created, err = store.UpsertPaymentLinkByAsaasID(ctx, link)
	require.NoError(t, err)
	assert.False(t, created)

	links, err := store.ListPaymentLinks(ctx)
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.NotNil(t, links[0].Value)
	assert.InDelta(t, 300, *links[0].Value, 0.001)
}

func TestPaymentLinkNullableFields(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	// Free-amount links carry no fixed value.
	link := &model.PaymentLink{
		Name:        "Doação",
		BillingType: model.BillingUndefined,
		ChargeType:  model.ChargeDetached,
		Status:      model.PaymentLinkActive,
	}
	require.NoError(t, store.CreatePaymentLink(ctx, link))

	links, err := store.ListPaymentLinks(ctx)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Nil(t, links[0].Value)
	assert.Nil(t, links[0].DueDateLimitDays)
	assert.Nil(t, links[0].MaxInstallments)
	assert.Nil(t, links[0].CustomerID)
}
