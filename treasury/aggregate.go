package treasury

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// RECONCILIATION - Result of aggregating one date range
// =============================================================================

// Source tells where the figures of a Reconciliation came from.
type Source string

const (
	// SourceLive is a fresh aggregation over the current records.
	SourceLive Source = "live"
	// SourceSnapshot is an arqueo exported with its embedded totals.
	SourceSnapshot Source = "snapshot"
	// SourceRecomputed is an arqueo without embedded totals, recomputed
	// from the current records. It may differ from what was saved.
	SourceRecomputed Source = "recomputed"
)

// Reconciliation is the outcome of a period aggregation.
//
//	ChurchNetIncome = FundAllocation.Church.Total - TotalExpenses
//	ClosingBalance  = OpeningBalance + ChurchNetIncome
//
// AssociationAndOtherTotal is informational and never feeds balance math.
type Reconciliation struct {
	Range          DateRange       `json:"range"`
	Receipts       []IncomeReceipt `json:"receipts"`
	Expenses       []Expense       `json:"expenses"`
	CategoryTotals CategoryAmounts `json:"categoryTotals"`
	FundAllocation FundAllocation  `json:"fundAllocation"`

	OpeningBalance           decimal.Decimal `json:"openingBalance"`
	TotalIncome              decimal.Decimal `json:"totalIncome"`
	TotalExpenses            decimal.Decimal `json:"totalExpenses"`
	AssociationAndOtherTotal decimal.Decimal `json:"associationAndOtherTotal"`
	ChurchNetIncome          decimal.Decimal `json:"churchNetIncome"`
	ClosingBalance           decimal.Decimal `json:"closingBalance"`

	Source Source `json:"source"`
}

// Aggregate reconciles the records dated within rng (inclusive). The
// opening balance is resolved for the month of rng.Start.
//
// The result depends only on rng and snap.
func (e Engine) Aggregate(snap Snapshot, rng DateRange) (Reconciliation, error) {
	if err := rng.Validate(); err != nil {
		return Reconciliation{}, err
	}
	if err := snap.validate(); err != nil {
		return Reconciliation{}, err
	}

	opening, err := newResolver(snap, e.floor()).opening(rng.Start.Month())
	if err != nil {
		return Reconciliation{}, err
	}

	receipts, expenses := filterRange(snap, rng)
	rec, err := reconcile(rng, receipts, expenses, opening)
	if err != nil {
		return Reconciliation{}, err
	}
	rec.Source = SourceLive
	return rec, nil
}

func filterRange(snap Snapshot, rng DateRange) ([]IncomeReceipt, []Expense) {
	receipts := make([]IncomeReceipt, 0)
	for _, r := range snap.Receipts {
		if rng.Contains(r.Date) {
			receipts = append(receipts, r)
		}
	}
	expenses := make([]Expense, 0)
	for _, e := range snap.Expenses {
		if rng.Contains(e.Date) {
			expenses = append(expenses, e)
		}
	}
	return receipts, expenses
}

// reconcile computes the derived figures for an already filtered record set.
func reconcile(rng DateRange, receipts []IncomeReceipt, expenses []Expense, opening decimal.Decimal) (Reconciliation, error) {
	alloc, err := Allocate(receipts)
	if err != nil {
		return Reconciliation{}, err
	}

	income := decimal.Zero
	for _, r := range receipts {
		income = income.Add(r.Total)
	}
	spent := decimal.Zero
	for _, e := range expenses {
		if e.Amount.IsNegative() {
			return Reconciliation{}, &ConsistencyError{RecordID: e.ID, Field: "amount", Err: ErrNegativeAmount}
		}
		spent = spent.Add(e.Amount)
	}

	return fromAllocation(rng, alloc, opening, income, spent, receipts, expenses), nil
}

func fromAllocation(rng DateRange, alloc Allocation, opening, income, spent decimal.Decimal, receipts []IncomeReceipt, expenses []Expense) Reconciliation {
	net := alloc.Funds.Church.Total.Sub(spent)
	return Reconciliation{
		Range:                    rng,
		Receipts:                 receipts,
		Expenses:                 expenses,
		CategoryTotals:           alloc.Totals,
		FundAllocation:           alloc.Funds,
		OpeningBalance:           opening,
		TotalIncome:              income,
		TotalExpenses:            spent,
		AssociationAndOtherTotal: alloc.Funds.Association.Total.Add(alloc.Funds.Other.Total),
		ChurchNetIncome:          net,
		ClosingBalance:           opening.Add(net),
	}
}
