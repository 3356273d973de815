package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/treasury-engine/store/sqlite"
	"github.com/warp/treasury-engine/treasury"
)

func newKV(t *testing.T) *sqlite.KV {
	t.Helper()
	kv, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return kv
}

func TestKV_GetMissingKey(t *testing.T) {
	kv := newKV(t)

	_, ok, err := kv.Get(context.Background(), treasury.KeyReceipts)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestKV_SetThenGet(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)

	require.NoError(t, kv.Set(ctx, "a", `[1]`))
	require.NoError(t, kv.Set(ctx, "a", `[1,2]`))
	require.NoError(t, kv.Set(ctx, "b", `{}`))

	v, ok, err := kv.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[1,2]`, v)

	v, ok, err = kv.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{}`, v)
}

func TestKV_ReopenKeepsDataAndSkipsAppliedMigrations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "treasury.db")

	kv, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, "k", "v"))
	require.NoError(t, kv.Close())

	kv, err = sqlite.New(path)
	require.NoError(t, err)
	defer kv.Close()

	v, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestKV_BacksRecordStore(t *testing.T) {
	// GIVEN: a record store persisted in SQLite
	ctx := context.Background()
	kv := newKV(t)
	records := treasury.NewRecordStore(kv)
	require.NoError(t, records.Load(ctx))

	_, err := records.AddReceipt(ctx, treasury.IncomeReceipt{
		DonorName:  "Ana",
		Date:       "2025-01-15",
		ChurchName: "Central",
		Categories: treasury.CategoryAmounts{treasury.Cultos: decimal.NewFromInt(200)},
		Total:      decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	require.NoError(t, records.SetOpeningBalance(ctx, "2025-01", decimal.NewFromInt(500)))

	// WHEN: a second store loads from the same database
	reloaded := treasury.NewRecordStore(kv)
	require.NoError(t, reloaded.Load(ctx))

	// THEN: the records survive
	snap := reloaded.Snapshot()
	require.Len(t, snap.Receipts, 1)
	assert.Equal(t, "Ana", snap.Receipts[0].DonorName)
	assert.True(t, snap.Receipts[0].Categories.Get(treasury.Cultos).Equal(decimal.NewFromInt(200)))

	v, ok := reloaded.OpeningBalanceOverride("2025-01")
	assert.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromInt(500)))
}
