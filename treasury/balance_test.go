package treasury_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/treasury-engine/treasury"
)

func TestOpeningBalance_OverrideWins(t *testing.T) {
	snap := january2025()

	got, err := treasury.Engine{}.OpeningBalance(snap, "2025-01")

	require.NoError(t, err)
	assertDec(t, "500", got)
}

func TestOpeningBalance_CarriesClosingIntoNextMonth(t *testing.T) {
	// GIVEN: January 2025 opens at 500, church income 180, expenses 50
	// WHEN: resolving February without an override
	// THEN: 500 + 180 - 50 = 630

	got, err := treasury.Engine{}.OpeningBalance(january2025(), "2025-02")

	require.NoError(t, err)
	assertDec(t, "630", got)
}

func TestOpeningBalance_WalksSeveralMonths(t *testing.T) {
	snap := january2025()
	snap.Receipts = append(snap.Receipts, receipt("r2", "2025-02-03", amounts(treasury.Diezmo, "100")))
	snap.Expenses = append(snap.Expenses, expense("e2", "2025-02-28", "30"))

	engine := treasury.Engine{}

	march, err := engine.OpeningBalance(snap, "2025-03")
	require.NoError(t, err)
	assertDec(t, "600", march, "diezmo does not reach the church fund")

	june, err := engine.OpeningBalance(snap, "2025-06")
	require.NoError(t, err)
	assertDec(t, "600", june, "empty months carry the balance unchanged")
}

func TestOpeningBalance_LaterOverrideResetsChain(t *testing.T) {
	snap := january2025()
	snap.Balances = append(snap.Balances, treasury.PeriodBalance{Period: "2025-03", OpeningBalance: dec("1000")})
	snap.Receipts = append(snap.Receipts, receipt("r3", "2025-03-10", amounts(treasury.Pobres, "100")))

	got, err := treasury.Engine{}.OpeningBalance(snap, "2025-04")

	require.NoError(t, err)
	assertDec(t, "1045", got)
}

func TestOpeningBalance_BaseCaseBeforeFloor(t *testing.T) {
	engine := treasury.Engine{}

	for _, p := range []treasury.Month{"1999-06", "2000-01"} {
		got, err := engine.OpeningBalance(treasury.Snapshot{}, p)
		require.NoError(t, err)
		assert.True(t, got.IsZero(), p)
	}
}

func TestOpeningBalance_NoHistoryIsZero(t *testing.T) {
	got, err := treasury.Engine{}.OpeningBalance(treasury.Snapshot{}, "2099-12")

	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestOpeningBalance_RecordsBeforeFloorAreIgnored(t *testing.T) {
	snap := treasury.Snapshot{
		Receipts: []treasury.IncomeReceipt{receipt("old", "2019-12-01", amounts(treasury.Cultos, "100"))},
	}

	got, err := treasury.Engine{EpochFloorYear: 2020}.OpeningBalance(snap, "2020-02")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = treasury.Engine{}.OpeningBalance(snap, "2020-02")
	require.NoError(t, err)
	assertDec(t, "90", got)
}

func TestOpeningBalance_MalformedRecordDateFails(t *testing.T) {
	// GIVEN: a stored receipt whose date is not zero padded
	snap := treasury.Snapshot{
		Receipts: []treasury.IncomeReceipt{receipt("r-bad", "2025-1-05", amounts(treasury.Cultos, "10"))},
	}

	_, err := treasury.Engine{}.OpeningBalance(snap, "2025-02")

	// THEN: resolution fails loudly instead of miscomparing strings
	require.Error(t, err)
	assert.True(t, errors.Is(err, treasury.ErrMalformedDate))
	assert.True(t, treasury.IsConsistency(err))
	assert.False(t, treasury.IsValidation(err))
}

func TestOpeningBalance_NegativeStoredExpenseFails(t *testing.T) {
	// GIVEN: January with a stored expense of -50
	snap := january2025()
	snap.Expenses[0].Amount = dec("-50")

	// WHEN: February's opening and February itself are resolved
	_, openErr := treasury.Engine{}.OpeningBalance(snap, "2025-02")
	_, febErr := treasury.Engine{}.Aggregate(snap, treasury.Month("2025-02").Range())
	_, janErr := treasury.Engine{}.Aggregate(snap, treasury.Month("2025-01").Range())

	// THEN: every view rejects the record instead of carrying it forward
	for _, err := range []error{openErr, febErr, janErr} {
		require.Error(t, err)
		assert.ErrorIs(t, err, treasury.ErrNegativeAmount)
		assert.True(t, treasury.IsConsistency(err))
		var ce *treasury.ConsistencyError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "e1", ce.RecordID)
		assert.Equal(t, "amount", ce.Field)
	}
}

func TestOpeningBalance_MalformedPeriodIsValidationError(t *testing.T) {
	_, err := treasury.Engine{}.OpeningBalance(treasury.Snapshot{}, "2025-13")

	assert.ErrorIs(t, err, treasury.ErrMalformedPeriod)
	assert.True(t, treasury.IsValidation(err))
}
