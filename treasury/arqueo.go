/*
arqueo.go - Frozen reconciliation snapshots

PURPOSE:
  An arqueo is a dated cash-count statement: a Reconciliation saved at a
  point in time so it can be listed and exported later, even after the
  underlying records changed.

LIFECYCLE:
  absent -> saved (immutable) -> deleted (terminal)
  There is no edit. Saving again creates a new arqueo.

EXPORT:
  New arqueos embed their category totals and fund allocation, so an
  export reproduces exactly what was saved. Older arqueos may lack them;
  those are recomputed from the current records over the stored range,
  using the stored opening balance. A recomputation can drift from the
  saved figures. The drift is reported as a Divergence, never hidden.
*/
package treasury

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/treasury-engine/logger"
)

// Arqueo is one persisted reconciliation snapshot.
type Arqueo struct {
	ID        string `json:"id"`
	StartDate Date   `json:"startDate"`
	EndDate   Date   `json:"endDate"`

	OpeningBalance           decimal.Decimal `json:"openingBalance"`
	ClosingBalance           decimal.Decimal `json:"closingBalance"`
	ChurchNetIncome          decimal.Decimal `json:"churchNetIncome"`
	TotalIncome              decimal.Decimal `json:"totalIncome"`
	TotalExpenses            decimal.Decimal `json:"totalExpenses"`
	AssociationAndOtherTotal decimal.Decimal `json:"associationAndOtherTotal"`

	ReceiptCount int       `json:"receiptCount"`
	ExpenseCount int       `json:"expenseCount"`
	CreatedAt    time.Time `json:"createdAt"`
	Description  string    `json:"description,omitempty"`

	// Absent on degraded snapshots.
	CategoryTotals CategoryAmounts `json:"categoryTotals,omitempty"`
	FundAllocation *FundAllocation `json:"fundAllocation,omitempty"`
}

func (a Arqueo) Range() DateRange { return DateRange{Start: a.StartDate, End: a.EndDate} }

// HasEmbeddedTotals reports whether the arqueo can be exported verbatim.
func (a Arqueo) HasEmbeddedTotals() bool {
	return a.CategoryTotals != nil && a.FundAllocation != nil
}

// Clone returns a deep copy.
func (a Arqueo) Clone() Arqueo {
	out := a
	out.CategoryTotals = a.CategoryTotals.Clone()
	if a.FundAllocation != nil {
		fa := a.FundAllocation.Clone()
		out.FundAllocation = &fa
	}
	return out
}

// sortArqueos orders by StartDate descending, then CreatedAt descending.
func sortArqueos(list []Arqueo) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.StartDate != b.StartDate {
			return a.StartDate > b.StartDate
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// =============================================================================
// DIVERGENCE
// =============================================================================

// Divergence compares an arqueo with the current records over its range.
type Divergence struct {
	Diverged bool `json:"diverged"`

	StoredClosingBalance     decimal.Decimal `json:"storedClosingBalance"`
	RecomputedClosingBalance decimal.Decimal `json:"recomputedClosingBalance"`
	StoredTotalIncome        decimal.Decimal `json:"storedTotalIncome"`
	RecomputedTotalIncome    decimal.Decimal `json:"recomputedTotalIncome"`

	StoredReceiptCount  int `json:"storedReceiptCount"`
	CurrentReceiptCount int `json:"currentReceiptCount"`
	StoredExpenseCount  int `json:"storedExpenseCount"`
	CurrentExpenseCount int `json:"currentExpenseCount"`
}

func compareArqueo(a Arqueo, current Reconciliation) Divergence {
	d := Divergence{
		StoredClosingBalance:     a.ClosingBalance,
		RecomputedClosingBalance: current.ClosingBalance,
		StoredTotalIncome:        a.TotalIncome,
		RecomputedTotalIncome:    current.TotalIncome,
		StoredReceiptCount:       a.ReceiptCount,
		CurrentReceiptCount:      len(current.Receipts),
		StoredExpenseCount:       a.ExpenseCount,
		CurrentExpenseCount:      len(current.Expenses),
	}
	d.Diverged = !d.StoredClosingBalance.Equal(d.RecomputedClosingBalance) ||
		!d.StoredTotalIncome.Equal(d.RecomputedTotalIncome) ||
		d.StoredReceiptCount != d.CurrentReceiptCount ||
		d.StoredExpenseCount != d.CurrentExpenseCount
	return d
}

// =============================================================================
// LEDGER
// =============================================================================

// arqueoStore is the slice of RecordStore the ledger needs.
type arqueoStore interface {
	ListArqueos() []Arqueo
	SaveArqueo(ctx context.Context, a Arqueo) error
	DeleteArqueo(ctx context.Context, id string) (bool, error)
}

// ArqueoLedger builds arqueos from reconciliations and keeps them in the
// record store.
type ArqueoLedger struct {
	store arqueoStore
	now   func() time.Time
	newID func() string
	log   zerolog.Logger
}

type LedgerOption func(*ArqueoLedger)

func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *ArqueoLedger) { l.now = now }
}

func WithLedgerIDs(newID func() string) LedgerOption {
	return func(l *ArqueoLedger) { l.newID = newID }
}

func WithLedgerLogger(log zerolog.Logger) LedgerOption {
	return func(l *ArqueoLedger) { l.log = log }
}

func NewArqueoLedger(store arqueoStore, opts ...LedgerOption) *ArqueoLedger {
	l := &ArqueoLedger{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Save freezes result as a new arqueo. The result must have been computed
// for rng. result itself is not modified.
func (l *ArqueoLedger) Save(ctx context.Context, rng DateRange, result Reconciliation, description string) (Arqueo, error) {
	if err := rng.Validate(); err != nil {
		return Arqueo{}, err
	}
	if result.Range != rng {
		return Arqueo{}, fmt.Errorf("%w: result covers %s, saving %s", ErrRangeMismatch, result.Range, rng)
	}

	fa := result.FundAllocation.Clone()
	a := Arqueo{
		ID:                       l.newID(),
		StartDate:                rng.Start,
		EndDate:                  rng.End,
		OpeningBalance:           result.OpeningBalance,
		ClosingBalance:           result.ClosingBalance,
		ChurchNetIncome:          result.ChurchNetIncome,
		TotalIncome:              result.TotalIncome,
		TotalExpenses:            result.TotalExpenses,
		AssociationAndOtherTotal: result.AssociationAndOtherTotal,
		ReceiptCount:             len(result.Receipts),
		ExpenseCount:             len(result.Expenses),
		CreatedAt:                l.now(),
		Description:              description,
		CategoryTotals:           result.CategoryTotals.Clone(),
		FundAllocation:           &fa,
	}
	if a.CategoryTotals == nil {
		a.CategoryTotals = NewCategoryAmounts()
	}

	if err := l.store.SaveArqueo(ctx, a); err != nil {
		return Arqueo{}, err
	}
	return a.Clone(), nil
}

// List returns every arqueo, newest range first.
func (l *ArqueoLedger) List() []Arqueo {
	list := l.store.ListArqueos()
	sortArqueos(list)
	return list
}

func (l *ArqueoLedger) Get(id string) (Arqueo, error) {
	for _, a := range l.store.ListArqueos() {
		if a.ID == id {
			return a, nil
		}
	}
	return Arqueo{}, fmt.Errorf("%w: %s", ErrArqueoNotFound, id)
}

// Delete removes the arqueo if present. A missing id is not an error.
func (l *ArqueoLedger) Delete(ctx context.Context, id string) error {
	_, err := l.store.DeleteArqueo(ctx, id)
	return err
}

// ReconstructForExport rebuilds the reconciliation an arqueo stands for.
// Embedded totals are used verbatim. Otherwise the figures are recomputed
// from the current records in snap. Either way the Divergence tells how the
// current records compare with what was saved.
func (l *ArqueoLedger) ReconstructForExport(snap Snapshot, a Arqueo) (Reconciliation, Divergence, error) {
	rng := a.Range()
	if err := rng.Validate(); err != nil {
		return Reconciliation{}, Divergence{}, &ConsistencyError{RecordID: a.ID, Field: "range", Err: err}
	}
	if err := snap.validate(); err != nil {
		return Reconciliation{}, Divergence{}, err
	}

	receipts, expenses := filterRange(snap, rng)
	current, err := reconcile(rng, receipts, expenses, a.OpeningBalance)
	if err != nil {
		return Reconciliation{}, Divergence{}, err
	}
	div := compareArqueo(a, current)

	var out Reconciliation
	if a.HasEmbeddedTotals() {
		out = Reconciliation{
			Range:                    rng,
			Receipts:                 receipts,
			Expenses:                 expenses,
			CategoryTotals:           a.CategoryTotals.Clone(),
			FundAllocation:           a.FundAllocation.Clone(),
			OpeningBalance:           a.OpeningBalance,
			TotalIncome:              a.TotalIncome,
			TotalExpenses:            a.TotalExpenses,
			AssociationAndOtherTotal: a.AssociationAndOtherTotal,
			ChurchNetIncome:          a.ChurchNetIncome,
			ClosingBalance:           a.ClosingBalance,
			Source:                   SourceSnapshot,
		}
	} else {
		out = current
		out.Source = SourceRecomputed
	}

	if div.Diverged {
		l.log.Warn().
			Str(logger.FieldArqueoID, a.ID).
			Str(logger.FieldSource, string(out.Source)).
			Str("stored_closing", div.StoredClosingBalance.String()).
			Str("recomputed_closing", div.RecomputedClosingBalance.String()).
			Int("stored_receipts", div.StoredReceiptCount).
			Int("current_receipts", div.CurrentReceiptCount).
			Msg("arqueo differs from current records")
	}
	return out, div, nil
}

// =============================================================================
// SUGGESTED RANGE
// =============================================================================

// SuggestRange proposes the next range to reconcile: from the day after the
// latest saved arqueo up to today, or from the first of today's month when
// nothing was saved yet. The start never passes today.
func SuggestRange(arqueos []Arqueo, today Date) (DateRange, error) {
	if err := today.Validate(); err != nil {
		return DateRange{}, err
	}
	start := today.Month().Start()
	var last Date
	for _, a := range arqueos {
		if a.EndDate.Validate() != nil {
			continue
		}
		if a.EndDate.After(last) {
			last = a.EndDate
		}
	}
	if last != "" {
		start = last.AddDays(1)
	}
	if start.After(today) {
		start = today
	}
	return DateRange{Start: start, End: today}, nil
}
