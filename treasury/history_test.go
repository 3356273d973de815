package treasury_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/treasury-engine/treasury"
)

func TestHistory_MergesNewestFirst(t *testing.T) {
	snap := treasury.Snapshot{
		Receipts: []treasury.IncomeReceipt{
			receipt("r1", "2025-01-15", amounts(treasury.Cultos, "200")),
			receipt("r2", "2025-01-20", amounts(treasury.Diezmo, "10")),
		},
		Expenses: []treasury.Expense{
			expense("e1", "2025-01-20", "50"),
			expense("e2", "2025-01-01", "5"),
		},
	}

	entries, err := treasury.History(snap, treasury.HistoryFilter{})
	require.NoError(t, err)

	var got []string
	for _, e := range entries {
		got = append(got, e.ID)
	}
	assert.Equal(t, []string{"e1", "r2", "r1", "e2"}, got)
	assert.Equal(t, "expense e1", entries[0].Label)
	assertDec(t, "10", entries[1].Amount)
}

func TestHistory_Filters(t *testing.T) {
	snap := january2025()
	snap.Receipts = append(snap.Receipts, receipt("r2", "2025-02-01", amounts(treasury.Diezmo, "10")))

	rng := rangeOf(t, "2025-01-01", "2025-01-31")
	entries, err := treasury.History(snap, treasury.HistoryFilter{Range: &rng})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = treasury.History(snap, treasury.HistoryFilter{Kind: treasury.EntryReceipt})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, treasury.EntryReceipt, e.Kind)
	}
}

func TestAnnualSummary_ChainsMonths(t *testing.T) {
	// GIVEN: the January 2025 scenario plus a February expense
	snap := january2025()
	snap.Expenses = append(snap.Expenses, expense("e2", "2025-02-10", "30"))

	sum, err := treasury.Engine{}.AnnualSummary(snap, 2025)
	require.NoError(t, err)

	require.Len(t, sum.Months, 12)
	assert.Equal(t, treasury.Month("2025-01"), sum.Months[0].Period)
	assertDec(t, "500", sum.Months[0].OpeningBalance)
	assertDec(t, "180", sum.Months[0].ChurchIncome)
	assertDec(t, "630", sum.Months[0].ClosingBalance)
	assertDec(t, "630", sum.Months[1].OpeningBalance)
	assertDec(t, "600", sum.Months[1].ClosingBalance)

	// THEN: every closing feeds the next opening
	for i := 1; i < 12; i++ {
		assert.True(t, sum.Months[i].OpeningBalance.Equal(sum.Months[i-1].ClosingBalance), sum.Months[i].Period)
	}
	assertDec(t, "500", sum.OpeningBalance)
	assertDec(t, "600", sum.ClosingBalance)
	assertDec(t, "200", sum.TotalIncome)
	assertDec(t, "80", sum.Expenses)
}

func TestAnnualSummary_OverrideBreaksChain(t *testing.T) {
	snap := january2025()
	snap.Balances = append(snap.Balances, treasury.PeriodBalance{Period: "2025-06", OpeningBalance: dec("10")})

	sum, err := treasury.Engine{}.AnnualSummary(snap, 2025)
	require.NoError(t, err)

	assertDec(t, "630", sum.Months[4].ClosingBalance)
	assertDec(t, "10", sum.Months[5].OpeningBalance)
	assertDec(t, "10", sum.ClosingBalance)
}

func TestAnnualSummary_RejectsYearBeforeFloor(t *testing.T) {
	_, err := treasury.Engine{}.AnnualSummary(treasury.Snapshot{}, 1999)

	assert.True(t, treasury.IsValidation(err))
}
