package treasury_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/treasury-engine/treasury"
)

func TestAggregate_January2025(t *testing.T) {
	// GIVEN: override 500, cultos 200 on the 15th, expense 50 on the 20th
	// WHEN: aggregating the whole month
	// THEN: church 180, expenses 50, net 130, closing 630

	rec, err := treasury.Engine{}.Aggregate(january2025(), rangeOf(t, "2025-01-01", "2025-01-31"))
	require.NoError(t, err)

	assertDec(t, "180", rec.FundAllocation.Church.Amounts.Get(treasury.Cultos))
	assertDec(t, "180", rec.FundAllocation.Church.Total)
	assertDec(t, "20", rec.FundAllocation.Other.Total)
	assertDec(t, "0", rec.FundAllocation.Association.Total)
	assertDec(t, "500", rec.OpeningBalance)
	assertDec(t, "200", rec.TotalIncome)
	assertDec(t, "50", rec.TotalExpenses)
	assertDec(t, "130", rec.ChurchNetIncome)
	assertDec(t, "630", rec.ClosingBalance)
	assertDec(t, "20", rec.AssociationAndOtherTotal)
	assert.Len(t, rec.Receipts, 1)
	assert.Len(t, rec.Expenses, 1)
	assert.Equal(t, treasury.SourceLive, rec.Source)
}

func TestAggregate_ClosingBalanceIdentity(t *testing.T) {
	snap := january2025()
	snap.Receipts = append(snap.Receipts,
		receipt("r2", "2025-01-02", amounts(treasury.Pobres, "77.7", treasury.Diezmo, "300")),
		receipt("r3", "2025-02-02", amounts(treasury.Construccion, "41")),
	)
	engine := treasury.Engine{}

	for _, rng := range []treasury.DateRange{
		rangeOf(t, "2025-01-01", "2025-01-31"),
		rangeOf(t, "2025-01-10", "2025-02-15"),
		rangeOf(t, "2025-02-01", "2025-02-28"),
	} {
		rec, err := engine.Aggregate(snap, rng)
		require.NoError(t, err)

		want := rec.OpeningBalance.Add(rec.FundAllocation.Church.Total).Sub(rec.TotalExpenses)
		assert.Truef(t, rec.ClosingBalance.Equal(want), "%s: %s != %s", rng, rec.ClosingBalance, want)
	}
}

func TestAggregate_RangeIsInclusive(t *testing.T) {
	snap := treasury.Snapshot{
		Receipts: []treasury.IncomeReceipt{
			receipt("before", "2025-01-09", amounts(treasury.Cultos, "1")),
			receipt("start", "2025-01-10", amounts(treasury.Cultos, "10")),
			receipt("end", "2025-01-20", amounts(treasury.Cultos, "100")),
			receipt("after", "2025-01-21", amounts(treasury.Cultos, "1000")),
		},
	}

	rec, err := treasury.Engine{}.Aggregate(snap, rangeOf(t, "2025-01-10", "2025-01-20"))
	require.NoError(t, err)

	assert.Len(t, rec.Receipts, 2)
	assertDec(t, "110", rec.CategoryTotals.Get(treasury.Cultos))
}

func TestAggregate_IsDeterministic(t *testing.T) {
	snap := january2025()
	rng := rangeOf(t, "2025-01-01", "2025-01-31")
	engine := treasury.Engine{}

	a, err := engine.Aggregate(snap, rng)
	require.NoError(t, err)
	b, err := engine.Aggregate(snap, rng)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestAggregate_EmptyRange(t *testing.T) {
	rec, err := treasury.Engine{}.Aggregate(treasury.Snapshot{}, rangeOf(t, "2025-05-01", "2025-05-31"))
	require.NoError(t, err)

	assert.Empty(t, rec.Receipts)
	assert.Empty(t, rec.Expenses)
	assert.True(t, rec.ClosingBalance.IsZero())
}

func TestAggregate_InvalidRange(t *testing.T) {
	_, err := treasury.Engine{}.Aggregate(january2025(), treasury.DateRange{Start: "2025-02-01", End: "2025-01-01"})

	assert.ErrorIs(t, err, treasury.ErrInvalidRange)
	assert.True(t, treasury.IsValidation(err))
}

func TestAggregate_MidMonthStartUsesMonthOpening(t *testing.T) {
	// The opening balance belongs to the month of the start date, even when
	// the range begins after records of that month.
	rec, err := treasury.Engine{}.Aggregate(january2025(), rangeOf(t, "2025-01-16", "2025-01-31"))
	require.NoError(t, err)

	assertDec(t, "500", rec.OpeningBalance)
	assert.Empty(t, rec.Receipts)
	assertDec(t, "450", rec.ClosingBalance)
}
