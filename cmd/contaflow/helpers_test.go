package main

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

func TestParseDateFlag(t *testing.T) {
	got, err := parseDateFlag("2026-08-05", "start")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC), got)

	_, err = parseDateFlag("05/08/2026", "start")
	assert.ErrorContains(t, err, "--start")
}

func TestMonthRange(t *testing.T) {
	now := time.Date(2026, 2, 14, 15, 0, 0, 0, time.UTC)
	start, end := monthRange(now)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), end)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "long desc…", truncate("long description", 10))
}

func TestSeedChart(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })

	created, err := seedChart(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, len(defaultChart), created)

	// Parents are linked by code.
	fees, err := store.GetCategoryByCode(ctx, "2.3.02")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryExpense, fees.Type)
	require.NotNil(t, fees.ParentID)

	parent, err := store.GetCategory(ctx, *fees.ParentID)
	require.NoError(t, err)
	assert.Equal(t, "2.3", parent.Code)

	// Seeding again is a no-op.
	created, err = seedChart(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}
