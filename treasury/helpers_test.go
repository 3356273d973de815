package treasury_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/treasury-engine/treasury"
	"github.com/warp/treasury-engine/treasury/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// assertDec compares by value: 180 and 180.0 are equal.
func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	if !got.Equal(dec(want)) {
		assert.Fail(t, fmt.Sprintf("expected %s, got %s", want, got), msgAndArgs...)
	}
}

func amounts(kv ...any) treasury.CategoryAmounts {
	out := treasury.CategoryAmounts{}
	for i := 0; i+1 < len(kv); i += 2 {
		out[kv[i].(treasury.Category)] = dec(kv[i+1].(string))
	}
	return out
}

func receipt(id, date string, cats treasury.CategoryAmounts) treasury.IncomeReceipt {
	return treasury.IncomeReceipt{
		ID:         id,
		DonorName:  "donor " + id,
		Date:       treasury.Date(date),
		ChurchName: "Central",
		Categories: cats,
		Total:      cats.Sum(),
	}
}

func expense(id, date, amount string) treasury.Expense {
	return treasury.Expense{ID: id, Date: treasury.Date(date), Description: "expense " + id, Amount: dec(amount)}
}

func rangeOf(t *testing.T, start, end string) treasury.DateRange {
	t.Helper()
	r, err := treasury.NewDateRange(start, end)
	require.NoError(t, err)
	return r
}

// january2025 is the reference scenario: opening override 500, one cultos
// receipt of 200 and one expense of 50.
func january2025() treasury.Snapshot {
	return treasury.Snapshot{
		Receipts: []treasury.IncomeReceipt{receipt("r1", "2025-01-15", amounts(treasury.Cultos, "200"))},
		Expenses: []treasury.Expense{expense("e1", "2025-01-20", "50")},
		Balances: []treasury.PeriodBalance{{Period: "2025-01", OpeningBalance: dec("500")}},
	}
}

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%03d", prefix, n)
	}
}

var testNow = time.Date(2025, time.February, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	kv      *store.Memory
	records *treasury.RecordStore
	svc     *treasury.Service
	clock   *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := store.NewMemory()
	records := treasury.NewRecordStore(kv, treasury.WithIDGenerator(sequentialIDs("rec")))
	require.NoError(t, records.Load(context.Background()))

	now := testNow
	f := &fixture{kv: kv, records: records, clock: &now}
	f.svc = treasury.NewService(records, treasury.Engine{},
		treasury.WithClock(func() time.Time { return *f.clock }),
		treasury.WithArqueoIDs(sequentialIDs("arq")),
	)
	return f
}

// seedJanuary loads the reference scenario through the service.
func (f *fixture) seedJanuary(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.SetOpeningBalance(ctx, treasury.BalanceInput{Period: "2025-01", OpeningBalance: dec("500")})
	require.NoError(t, err)
	_, err = f.svc.AddReceipt(ctx, treasury.ReceiptInput{
		DonorName:  "Ana",
		Date:       "2025-01-15",
		Categories: map[string]decimal.Decimal{"cultos": dec("200")},
	})
	require.NoError(t, err)
	_, err = f.svc.AddExpense(ctx, treasury.ExpenseInput{Date: "2025-01-20", Description: "Luz", Amount: dec("50")})
	require.NoError(t, err)
}
