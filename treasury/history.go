package treasury

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// HISTORY - Receipts and expenses in one timeline
// =============================================================================

type EntryKind string

const (
	EntryReceipt EntryKind = "receipt"
	EntryExpense EntryKind = "expense"
)

// HistoryEntry is one line of the movement history. Label is the donor name
// for receipts and the description for expenses.
type HistoryEntry struct {
	Kind   EntryKind       `json:"kind"`
	ID     string          `json:"id"`
	Date   Date            `json:"date"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// HistoryFilter narrows the history to a date range. A nil Range keeps all.
type HistoryFilter struct {
	Range *DateRange
	Kind  EntryKind
}

// History merges receipts and expenses, newest first. Entries on the same
// date are ordered by kind then ID.
func History(snap Snapshot, f HistoryFilter) ([]HistoryEntry, error) {
	if f.Range != nil {
		if err := f.Range.Validate(); err != nil {
			return nil, err
		}
	}
	if err := snap.validate(); err != nil {
		return nil, err
	}
	keep := func(kind EntryKind, d Date) bool {
		if f.Kind != "" && f.Kind != kind {
			return false
		}
		return f.Range == nil || f.Range.Contains(d)
	}

	out := make([]HistoryEntry, 0, len(snap.Receipts)+len(snap.Expenses))
	for _, r := range snap.Receipts {
		if keep(EntryReceipt, r.Date) {
			out = append(out, HistoryEntry{Kind: EntryReceipt, ID: r.ID, Date: r.Date, Label: r.DonorName, Amount: r.Total})
		}
	}
	for _, e := range snap.Expenses {
		if keep(EntryExpense, e.Date) {
			out = append(out, HistoryEntry{Kind: EntryExpense, ID: e.ID, Date: e.Date, Label: e.Description, Amount: e.Amount})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.ID < b.ID
	})
	return out, nil
}

// =============================================================================
// ANNUAL SUMMARY
// =============================================================================

// MonthRow is one month of an annual summary.
type MonthRow struct {
	Period         Month           `json:"period"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	ChurchIncome   decimal.Decimal `json:"churchIncome"`
	TotalIncome    decimal.Decimal `json:"totalIncome"`
	Expenses       decimal.Decimal `json:"expenses"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
}

type AnnualSummary struct {
	Year   int        `json:"year"`
	Months []MonthRow `json:"months"`

	ChurchIncome decimal.Decimal `json:"churchIncome"`
	TotalIncome  decimal.Decimal `json:"totalIncome"`
	Expenses     decimal.Decimal `json:"expenses"`
	// Opening of January and closing of December.
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
}

// AnnualSummary reconciles the twelve months of year. A month's closing
// balance equals the next month's opening balance unless an override is set
// for that next month.
func (e Engine) AnnualSummary(snap Snapshot, year int) (AnnualSummary, error) {
	if year < e.floor() || year > 9999 {
		return AnnualSummary{}, &ValidationError{Field: "year", Message: fmt.Sprintf("%d is outside %d-9999", year, e.floor())}
	}
	if err := snap.validate(); err != nil {
		return AnnualSummary{}, err
	}

	res := newResolver(snap, e.floor())
	sum := AnnualSummary{
		Year:         year,
		Months:       make([]MonthRow, 0, 12),
		ChurchIncome: decimal.Zero,
		TotalIncome:  decimal.Zero,
		Expenses:     decimal.Zero,
	}

	for m := time.January; m <= time.December; m++ {
		period := NewMonth(year, m)
		opening, err := res.opening(period)
		if err != nil {
			return AnnualSummary{}, err
		}
		receipts, expenses := filterRange(snap, period.Range())
		rec, err := reconcile(period.Range(), receipts, expenses, opening)
		if err != nil {
			return AnnualSummary{}, err
		}
		sum.Months = append(sum.Months, MonthRow{
			Period:         period,
			OpeningBalance: rec.OpeningBalance,
			ChurchIncome:   rec.FundAllocation.Church.Total,
			TotalIncome:    rec.TotalIncome,
			Expenses:       rec.TotalExpenses,
			ClosingBalance: rec.ClosingBalance,
		})
		sum.ChurchIncome = sum.ChurchIncome.Add(rec.FundAllocation.Church.Total)
		sum.TotalIncome = sum.TotalIncome.Add(rec.TotalIncome)
		sum.Expenses = sum.Expenses.Add(rec.TotalExpenses)
	}
	sum.OpeningBalance = sum.Months[0].OpeningBalance
	sum.ClosingBalance = sum.Months[11].ClosingBalance
	return sum, nil
}
